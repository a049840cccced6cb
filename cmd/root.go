// Package cmd provides the command-line interface for pages.
//
// Configuration System:
//
//	Values come from several sources, highest priority first:
//	1. Command-line flags (--config, --log-level, ...)
//	2. PAGES_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (PAGES_PROJECT_SCOPE, PAGES_LOG_LEVEL, ...)
//	4. Configuration file (.pages.yml)
//
// Environment Variables:
//
//	PAGES_CONFIG_FILE: Path to custom configuration file
//	PAGES_PROJECT_ROOT: Project directory
//	PAGES_PROJECT_SCOPE: Scope for templates, sites-config and dist config files
//	PAGES_LOG_LEVEL, PAGES_LOG_FORMAT: Logger settings
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pages",
	Short: "Build and generate static pages from templates",
	Long: `pages bundles template modules, writes the feature and stream
descriptors the publishing platform reads, and renders stream documents
into pages.

Quick Start:
  pages build                     Bundle templates and write manifest, features and CI files
  pages templates                 Write templates.json or features.json from sources
  pages generate --data docs.json Render documents into dist
  pages watch                     Keep descriptors current while editing templates`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .pages.yml, can also use PAGES_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("root", "", "project root (default is the current directory)")
	rootCmd.PersistentFlags().String("scope", "", "scope for templates and config files")

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("project.root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("project.scope", rootCmd.PersistentFlags().Lookup("scope"))
}

// initConfig wires the config file and PAGES_ environment variables into viper.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PAGES_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pages")
	}

	viper.SetEnvPrefix("PAGES")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed file leaves the defaults in place
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig returns the resolved configuration and a logger built from it.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	return cfg, logger, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
