package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pages/internal/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			setup: func() {
				viper.Reset()
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "src", cfg.Project.RootFolders.Source)
				assert.Equal(t, "dist", cfg.Project.RootFolders.Dist)
				assert.Equal(t, "features.json", cfg.Project.SitesConfigFiles.Features)
				assert.Equal(t, "templates.json", cfg.Project.DistConfigFiles.Templates)
				assert.Equal(t, "config.yaml", cfg.Project.RootFiles.Config)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
				assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
			},
		},
		{
			name: "custom project folders and scope",
			setup: func() {
				viper.Reset()
				viper.Set("project.root_folders.dist", "out")
				viper.Set("project.scope", "brand")
				viper.Set("watch.debounce", "1s")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "out", cfg.Project.RootFolders.Dist)
				assert.Equal(t, "brand", cfg.Project.Scope)
				assert.Equal(t, "src", cfg.Project.RootFolders.Source)
				assert.Equal(t, time.Second, cfg.Watch.Debounce)
			},
		},
		{
			name: "root log-level flag",
			setup: func() {
				viper.Reset()
				viper.Set("log-level", "debug")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Log.Level)
			},
		},
		{
			name: "path traversal in dist",
			setup: func() {
				viper.Reset()
				viper.Set("project.root_folders.dist", "../elsewhere")
			},
			expectError: true,
		},
		{
			name: "absolute template folder",
			setup: func() {
				viper.Reset()
				viper.Set("project.subfolders.templates", "/etc")
			},
			expectError: true,
		},
		{
			name: "unknown log format",
			setup: func() {
				viper.Reset()
				viper.Set("log.format", "xml")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			cfg, err := Load()

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.IsConfig(err))
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestProjectConfig_Paths(t *testing.T) {
	p := DefaultProject("/site")

	assert.Equal(t, filepath.Join("/site", "dist"), p.DistPath())
	assert.Equal(t, filepath.Join("/site", "dist"), p.ScopedDistPath())
	assert.Equal(t, filepath.Join("/site", "sites-config"), p.SitesConfigPath())
	assert.Equal(t, filepath.Join("/site", "src", "templates"), p.TemplatesPath())
	assert.Equal(t, filepath.Join("/site", "dist", "assets", "server"), p.ServerBundlePath())
	assert.Equal(t, filepath.Join("/site", "dist", "assets", "render"), p.RenderBundlePath())
	assert.Equal(t, filepath.Join("/site", "dist", "plugin", "manifest.json"), p.ManifestPath())
	assert.Len(t, p.BundleDirs(), 4)

	p.Scope = "brand"
	assert.Equal(t, filepath.Join("/site", "dist", "brand"), p.ScopedDistPath())
	assert.Equal(t, filepath.Join("/site", "sites-config", "brand"), p.SitesConfigPath())
	assert.Equal(t, filepath.Join("/site", "src", "templates", "brand"), p.ScopedTemplatesPath())
	assert.Equal(t, filepath.Join("/site", "brand", "config.yaml"), p.ConfigYAMLPath())
}

func TestProjectConfig_IsUsingConfig(t *testing.T) {
	root := t.TempDir()
	p := DefaultProject(root)
	assert.False(t, p.IsUsingConfig())

	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte("pages: {}\n"), 0o644))
	assert.True(t, p.IsUsingConfig())

	p.Scope = "brand"
	assert.False(t, p.IsUsingConfig())
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("sites-config"))
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath("a/../../b"))
	assert.Error(t, validatePath("dist;rm"))
}

func TestLoad_ErrorSuggestions(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("project.scope", "../other-site")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[ERR_CONFIG_INVALID] invalid configuration: project config: invalid scope")

	suggestions := errors.Suggest(err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "pages config show", suggestions[0].Command)
}
