package cmd

import (
	"strings"

	"github.com/Iron-Ham/foreman/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Manifest-driven Codex workflow orchestrator",
	Long: `Foreman runs multi-ticket workflows described by a YAML or TOML manifest,
delegating each ticket to an external Codex session (a worker step followed
by a review step) and tracking progress in a durable state file so an
interrupted run can be resumed without repeating completed work.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/foreman/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/foreman")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("FOREMAN")
	// Replace dots with underscores for nested keys in env vars
	// e.g., FOREMAN_CODEX_WORKER_MODEL for codex.worker_model
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
