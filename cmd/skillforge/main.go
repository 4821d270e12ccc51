package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillforge/skillforge/pkg/logger"
	"github.com/skillforge/skillforge/pkg/presenter"
	"github.com/skillforge/skillforge/pkg/session"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLFORGE")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillforge")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()

	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "fmt")
}

var rootCmd = &cobra.Command{
	Use:   "skillforge",
	Short: "SkillForge turns natural-language requests into installable skills",
	Long: `SkillForge researches a topic, designs a skill blueprint, generates the
skill content, scores its quality, and installs the result as a packaged
skill directory.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			presenter.Warning(fmt.Sprintf("invalid log level: %s", err))
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		presenter.SetQuiet(viper.GetBool("quiet"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

// storeConfigFromViper resolves the session store configuration from
// the global flags, falling back to ~/.skillforge/sessions with the
// JSON backend.
func storeConfigFromViper() (*session.Config, error) {
	config, err := session.DefaultConfig()
	if err != nil {
		return nil, err
	}
	if backend := viper.GetString("store_backend"); backend != "" {
		config.Backend = backend
	}
	if basePath := viper.GetString("store_path"); basePath != "" {
		config.BasePath = basePath
	}
	return config, nil
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().String("store-backend", "", "Session store backend (json or sqlite)")
	rootCmd.PersistentFlags().String("store-path", "", "Session store base directory")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("store_backend", rootCmd.PersistentFlags().Lookup("store-backend"))
	viper.BindPFlag("store_path", rootCmd.PersistentFlags().Lookup("store-path"))

	// Add subcommands
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
