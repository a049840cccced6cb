package config

import (
	"os"
	"path/filepath"
)

// ProjectConfig describes where sources live and where build outputs go.
type ProjectConfig struct {
	// Root is the project directory all other folders are relative to.
	Root             string           `mapstructure:"root" yaml:"root" json:"root"`
	RootFolders      RootFolders      `mapstructure:"root_folders" yaml:"root_folders" json:"root_folders"`
	Subfolders       Subfolders       `mapstructure:"subfolders" yaml:"subfolders" json:"subfolders"`
	SitesConfigFiles SitesConfigFiles `mapstructure:"sites_config_files" yaml:"sites_config_files" json:"sites_config_files"`
	DistConfigFiles  DistConfigFiles  `mapstructure:"dist_config_files" yaml:"dist_config_files" json:"dist_config_files"`
	RootFiles        RootFiles        `mapstructure:"root_files" yaml:"root_files" json:"root_files"`
	// Scope namespaces templates, sites-config and dist config files.
	Scope string `mapstructure:"scope" yaml:"scope" json:"scope"`
}

type RootFolders struct {
	Source      string `mapstructure:"source" yaml:"source" json:"source"`
	Dist        string `mapstructure:"dist" yaml:"dist" json:"dist"`
	SitesConfig string `mapstructure:"sites_config" yaml:"sites_config" json:"sites_config"`
	LocalData   string `mapstructure:"local_data" yaml:"local_data" json:"local_data"`
	Public      string `mapstructure:"public" yaml:"public" json:"public"`
}

type Subfolders struct {
	Templates           string `mapstructure:"templates" yaml:"templates" json:"templates"`
	Functions           string `mapstructure:"functions" yaml:"functions" json:"functions"`
	Assets              string `mapstructure:"assets" yaml:"assets" json:"assets"`
	ServerBundle        string `mapstructure:"server_bundle" yaml:"server_bundle" json:"server_bundle"`
	RenderBundle        string `mapstructure:"render_bundle" yaml:"render_bundle" json:"render_bundle"`
	Renderer            string `mapstructure:"renderer" yaml:"renderer" json:"renderer"`
	Static              string `mapstructure:"static" yaml:"static" json:"static"`
	ServerlessFunctions string `mapstructure:"serverless_functions" yaml:"serverless_functions" json:"serverless_functions"`
	Plugin              string `mapstructure:"plugin" yaml:"plugin" json:"plugin"`
}

type SitesConfigFiles struct {
	Features string `mapstructure:"features" yaml:"features" json:"features"`
	CI       string `mapstructure:"ci" yaml:"ci" json:"ci"`
}

type DistConfigFiles struct {
	Templates        string `mapstructure:"templates" yaml:"templates" json:"templates"`
	Artifacts        string `mapstructure:"artifacts" yaml:"artifacts" json:"artifacts"`
	Manifest         string `mapstructure:"manifest" yaml:"manifest" json:"manifest"`
	FunctionMetadata string `mapstructure:"function_metadata" yaml:"function_metadata" json:"function_metadata"`
}

type RootFiles struct {
	Config string `mapstructure:"config" yaml:"config" json:"config"`
}

// DefaultProject returns the default project structure rooted at root.
func DefaultProject(root string) ProjectConfig {
	p := ProjectConfig{Root: root}
	p.applyDefaults()
	return p
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (p *ProjectConfig) applyDefaults() {
	setDefault(&p.Root, ".")

	setDefault(&p.RootFolders.Source, "src")
	setDefault(&p.RootFolders.Dist, "dist")
	setDefault(&p.RootFolders.SitesConfig, "sites-config")
	setDefault(&p.RootFolders.LocalData, "localData")
	setDefault(&p.RootFolders.Public, "public")

	setDefault(&p.Subfolders.Templates, "templates")
	setDefault(&p.Subfolders.Functions, "functions")
	setDefault(&p.Subfolders.Assets, "assets")
	setDefault(&p.Subfolders.ServerBundle, "server")
	setDefault(&p.Subfolders.RenderBundle, "render")
	setDefault(&p.Subfolders.Renderer, "renderer")
	setDefault(&p.Subfolders.Static, "static")
	setDefault(&p.Subfolders.ServerlessFunctions, "functions")
	setDefault(&p.Subfolders.Plugin, "plugin")

	setDefault(&p.SitesConfigFiles.Features, "features.json")
	setDefault(&p.SitesConfigFiles.CI, "ci.json")

	setDefault(&p.DistConfigFiles.Templates, "templates.json")
	setDefault(&p.DistConfigFiles.Artifacts, "artifacts.json")
	setDefault(&p.DistConfigFiles.Manifest, "manifest.json")
	setDefault(&p.DistConfigFiles.FunctionMetadata, "functionMetadata.json")

	setDefault(&p.RootFiles.Config, "config.yaml")
}

func (p ProjectConfig) join(elem ...string) string {
	return filepath.Join(append([]string{p.Root}, elem...)...)
}

// DistPath is the build output root.
func (p ProjectConfig) DistPath() string {
	return p.join(p.RootFolders.Dist)
}

// ScopedDistPath is where dist config files such as templates.json go.
func (p ProjectConfig) ScopedDistPath() string {
	return p.join(p.RootFolders.Dist, p.Scope)
}

// SitesConfigPath is the (scoped) sites-config folder holding features.json and ci.json.
func (p ProjectConfig) SitesConfigPath() string {
	return p.join(p.RootFolders.SitesConfig, p.Scope)
}

// TemplatesPath is the unscoped template source folder.
func (p ProjectConfig) TemplatesPath() string {
	return p.join(p.RootFolders.Source, p.Subfolders.Templates)
}

// ScopedTemplatesPath is the template folder for the configured scope.
func (p ProjectConfig) ScopedTemplatesPath() string {
	return p.join(p.RootFolders.Source, p.Subfolders.Templates, p.Scope)
}

// FunctionsPath is the serverless function source folder.
func (p ProjectConfig) FunctionsPath() string {
	return p.join(p.RootFolders.Source, p.Subfolders.Functions)
}

// AssetsPath is the bundled assets folder inside dist.
func (p ProjectConfig) AssetsPath() string {
	return p.join(p.RootFolders.Dist, p.Subfolders.Assets)
}

// ServerBundlePath holds the bundled template modules.
func (p ProjectConfig) ServerBundlePath() string {
	return filepath.Join(p.AssetsPath(), p.Subfolders.ServerBundle)
}

// RenderBundlePath holds the server and client render templates.
func (p ProjectConfig) RenderBundlePath() string {
	return filepath.Join(p.AssetsPath(), p.Subfolders.RenderBundle)
}

// StaticPath holds copied public assets.
func (p ProjectConfig) StaticPath() string {
	return filepath.Join(p.AssetsPath(), p.Subfolders.Static)
}

// BundleDirs lists the asset folders whose sizes count against the plugin limits.
func (p ProjectConfig) BundleDirs() []string {
	return []string{
		filepath.Join(p.AssetsPath(), p.Subfolders.RenderBundle),
		filepath.Join(p.AssetsPath(), p.Subfolders.Renderer),
		filepath.Join(p.AssetsPath(), p.Subfolders.ServerBundle),
		filepath.Join(p.AssetsPath(), p.Subfolders.Static),
	}
}

// DistFunctionsPath holds bundled serverless functions.
func (p ProjectConfig) DistFunctionsPath() string {
	return p.join(p.RootFolders.Dist, p.Subfolders.ServerlessFunctions)
}

// PluginPath holds the manifest consumed at generation time.
func (p ProjectConfig) PluginPath() string {
	return p.join(p.RootFolders.Dist, p.Subfolders.Plugin)
}

// ManifestPath is the location of manifest.json.
func (p ProjectConfig) ManifestPath() string {
	return filepath.Join(p.PluginPath(), p.DistConfigFiles.Manifest)
}

// FunctionMetadataPath is the location of functionMetadata.json.
func (p ProjectConfig) FunctionMetadataPath() string {
	return filepath.Join(p.DistPath(), p.DistConfigFiles.FunctionMetadata)
}

// LocalDataPath holds stream document fixtures.
func (p ProjectConfig) LocalDataPath() string {
	return p.join(p.RootFolders.LocalData)
}

// PublicPath holds static files copied verbatim into the bundle.
func (p ProjectConfig) PublicPath() string {
	return p.join(p.RootFolders.Public)
}

// ConfigYAMLPath is the root config file whose presence selects templates.json output.
func (p ProjectConfig) ConfigYAMLPath() string {
	return p.join(p.Scope, p.RootFiles.Config)
}

// IsUsingConfig reports whether the project has a root config file.
func (p ProjectConfig) IsUsingConfig() bool {
	info, err := os.Stat(p.ConfigYAMLPath())
	return err == nil && !info.IsDir()
}
