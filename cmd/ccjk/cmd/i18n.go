package cmd

import (
	"fmt"
	"strings"
)

// Translator is the i18n collaborator consumed by the presentation layer.
// The core never localizes; only command output passes through here.
type Translator interface {
	T(key string, params map[string]string) string
}

// passthroughTranslator renders the key itself with {param} interpolation.
// It is the default until a locale catalog is wired in.
type passthroughTranslator struct{}

func (passthroughTranslator) T(key string, params map[string]string) string {
	out := key
	for name, value := range params {
		out = strings.ReplaceAll(out, fmt.Sprintf("{%s}", name), value)
	}
	return out
}

var translator Translator = passthroughTranslator{}
