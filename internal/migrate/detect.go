package migrate

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/ccjk/ccjk/internal/fsutil"
)

// DetectLegacy probes the fixed, ordered list of known legacy locations and
// classifies each by its distinguishing marker. Probing never writes and
// tolerates unreadable or corrupt files by skipping them.
func (e *Engine) DetectLegacy() []LegacyInfo {
	var out []LegacyInfo

	if info, ok := probeFlatJSON(e.paths.LegacyJSON()); ok {
		out = append(out, info)
	}
	if info, ok := probeYAML(e.paths.LegacyYAML()); ok {
		out = append(out, info)
	}
	if info, ok := probePrefsV0(e.paths.Preferences()); ok {
		out = append(out, info)
	}
	return out
}

// probeFlatJSON recognizes the original flat JSON config: valid JSON with
// a preferredLang or codeToolType top-level key and no sectioned general
// key.
func probeFlatJSON(path string) (LegacyInfo, bool) {
	data, err := readProbe(path)
	if err != nil || !gjson.ValidBytes(data) {
		return LegacyInfo{}, false
	}
	if gjson.GetBytes(data, "general").Exists() {
		return LegacyInfo{}, false
	}
	if !gjson.GetBytes(data, "preferredLang").Exists() &&
		!gjson.GetBytes(data, "codeToolType").Exists() {
		return LegacyInfo{}, false
	}
	version := gjson.GetBytes(data, "version").String()
	return LegacyInfo{Path: path, Kind: KindFlatJSON, Version: version}, true
}

// probeYAML recognizes the YAML rendition of the same flat shape.
func probeYAML(path string) (LegacyInfo, bool) {
	data, err := readProbe(path)
	if err != nil {
		return LegacyInfo{}, false
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil || raw == nil {
		return LegacyInfo{}, false
	}
	if _, sectioned := raw["general"]; sectioned {
		return LegacyInfo{}, false
	}
	_, hasLang := raw["preferredLang"]
	_, hasTool := raw["codeToolType"]
	if !hasLang && !hasTool {
		return LegacyInfo{}, false
	}
	version, _ := raw["version"].(string)
	return LegacyInfo{Path: path, Kind: KindYAML, Version: version}, true
}

// probePrefsV0 recognizes a preferences file whose version string still
// has the 0.x prefix.
func probePrefsV0(path string) (LegacyInfo, bool) {
	data, err := readProbe(path)
	if err != nil {
		return LegacyInfo{}, false
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return LegacyInfo{}, false
	}
	version, _ := raw["version"].(string)
	if !strings.HasPrefix(version, "0.") {
		return LegacyInfo{}, false
	}
	return LegacyInfo{Path: path, Kind: KindPrefsV0, Version: version}, true
}

// readProbe reads a candidate file. Unreadable counts the same as absent
// for probing purposes.
func readProbe(path string) ([]byte, error) {
	return fsutil.Read(path)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
