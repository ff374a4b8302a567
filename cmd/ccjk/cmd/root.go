package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ccjk/ccjk/internal/config"
	"github.com/ccjk/ccjk/internal/logging"
	"github.com/ccjk/ccjk/internal/service"
)

var (
	rootDir   string
	claudeDir string
	logLevel  string
	logFormat string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "ccjk",
	Short: "Configuration platform for the ccjk developer CLI",
	Long: `ccjk manages the CLI's versioned configuration documents: user
preferences, the wrapped tool's native settings, and runtime state. It
validates documents against their schemas, merges templates without
clobbering user choices, migrates legacy formats, and hot-reloads
on-disk changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		initEnv()
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", appVersion, appCommit, appDate)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root-dir", "",
		"ccjk config directory (default: ~/.ccjk)")
	rootCmd.PersistentFlags().StringVar(&claudeDir, "claude-dir", "",
		"wrapped tool config directory (default: ~/.claude)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")

	_ = viper.BindPFlag("root_dir", rootCmd.PersistentFlags().Lookup("root-dir"))
	_ = viper.BindPFlag("claude_dir", rootCmd.PersistentFlags().Lookup("claude-dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initEnv() {
	viper.SetEnvPrefix("CCJK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("watch.debounce", "300ms")
}

// newService builds the composed configuration service from flags and
// CCJK_* environment variables.
func newService() (*service.Service, error) {
	log := logging.New(logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})

	paths := config.Paths{
		RootDir:   viper.GetString("root_dir"),
		ClaudeDir: viper.GetString("claude_dir"),
	}

	debounce, err := time.ParseDuration(viper.GetString("watch.debounce"))
	if err != nil {
		debounce = 300 * time.Millisecond
	}

	return service.New(service.Options{
		Paths:    paths,
		Version:  appVersion,
		Logger:   log,
		Debounce: debounce,
	})
}
