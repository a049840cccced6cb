// Package config provides configuration management for pages projects using
// Viper for loading from files, environment variables, and command-line flags.
//
// The configuration describes the project structure (source, dist and
// sites-config folders and the file names written into them), logging and
// watch mode. Environment variables with the PAGES_ prefix override file
// values, e.g. PAGES_PROJECT_SCOPE or PAGES_LOG_LEVEL.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/pages/internal/errors"
)

type Config struct {
	Project ProjectConfig `mapstructure:"project" yaml:"project" json:"project"`
	Log     LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch" json:"watch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

// Load builds a Config from the current viper state and applies defaults.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// --log-level is bound at the root, outside the log section
	if viper.IsSet("log-level") && !viper.IsSet("log.level") {
		config.Log.Level = viper.GetString("log-level")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return &config, nil
}

// Default returns a Config with every default applied.
func Default() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

func applyDefaults(config *Config) {
	config.Project.applyDefaults()

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if config.Watch.Debounce <= 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateProjectConfig(&config.Project); err != nil {
		return fmt.Errorf("project config: %w", err)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", config.Log.Format)
	}

	return nil
}

func validateProjectConfig(project *ProjectConfig) error {
	named := []struct {
		key   string
		value string
	}{
		{"root_folders.source", project.RootFolders.Source},
		{"root_folders.dist", project.RootFolders.Dist},
		{"root_folders.sites_config", project.RootFolders.SitesConfig},
		{"root_folders.local_data", project.RootFolders.LocalData},
		{"root_folders.public", project.RootFolders.Public},
		{"subfolders.templates", project.Subfolders.Templates},
		{"subfolders.functions", project.Subfolders.Functions},
		{"subfolders.assets", project.Subfolders.Assets},
		{"subfolders.server_bundle", project.Subfolders.ServerBundle},
		{"subfolders.render_bundle", project.Subfolders.RenderBundle},
		{"subfolders.renderer", project.Subfolders.Renderer},
		{"subfolders.static", project.Subfolders.Static},
		{"subfolders.serverless_functions", project.Subfolders.ServerlessFunctions},
		{"subfolders.plugin", project.Subfolders.Plugin},
		{"sites_config_files.features", project.SitesConfigFiles.Features},
		{"sites_config_files.ci", project.SitesConfigFiles.CI},
		{"dist_config_files.templates", project.DistConfigFiles.Templates},
		{"dist_config_files.artifacts", project.DistConfigFiles.Artifacts},
		{"dist_config_files.manifest", project.DistConfigFiles.Manifest},
		{"dist_config_files.function_metadata", project.DistConfigFiles.FunctionMetadata},
		{"root_files.config", project.RootFiles.Config},
	}

	for _, n := range named {
		if err := validatePath(n.value); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", n.key, n.value, err)
		}
	}

	if project.Scope != "" {
		if err := validatePath(project.Scope); err != nil {
			return fmt.Errorf("invalid scope '%s': %w", project.Scope, err)
		}
	}

	return nil
}

// validatePath validates a project-relative path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path should be relative: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
