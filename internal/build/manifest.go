package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/generate"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/types"
)

// GetManifest describes the bundled templates of the registry and the
// bundled render templates.
func GetManifest(templates *registry.TemplateRegistry, project config.ProjectConfig) (*types.Manifest, error) {
	manifest := &types.Manifest{
		BundlePaths: make(map[string]string, templates.Count()),
		ProjectFilepaths: types.ProjectFilepaths{
			TemplatesRoot:           projectRelative(project, project.TemplatesPath()),
			ServerlessFunctionsRoot: projectRelative(project, project.FunctionsPath()),
		},
	}
	if project.Scope != "" {
		manifest.ProjectFilepaths.ScopedTemplatesPath = projectRelative(project, project.ScopedTemplatesPath())
	}

	for _, tmpl := range templates.All() {
		rel, err := filepath.Rel(project.DistPath(), tmpl.Path)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "template is outside of dist").WithFile(tmpl.Path)
		}
		manifest.BundlePaths[tmpl.TemplateName] = filepath.ToSlash(rel)
	}

	entries, err := os.ReadDir(project.RenderBundlePath())
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to list render templates").WithFile(project.RenderBundlePath())
	}
	for _, entry := range entries {
		rel := filepath.ToSlash(filepath.Join(
			project.Subfolders.Assets, project.Subfolders.RenderBundle, entry.Name()))
		switch {
		case strings.HasPrefix(entry.Name(), types.RenderTemplateServerName+"."):
			manifest.RenderPaths.Server = rel
		case strings.HasPrefix(entry.Name(), types.RenderTemplateClientName+"."):
			manifest.RenderPaths.Client = rel
		}
	}

	return manifest, nil
}

// GenerateManifestFile writes manifest.json into the plugin folder.
func GenerateManifestFile(templates *registry.TemplateRegistry, project config.ProjectConfig) error {
	manifest, err := GetManifest(templates, project)
	if err != nil {
		return err
	}
	return generate.WriteJSON(project.ManifestPath(), manifest)
}

// ReadManifest loads manifest.json.
func ReadManifest(path string) (*types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, "manifest not found, run pages build first").WithFile(path)
		}
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read manifest").WithFile(path)
	}

	var manifest types.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidJSON, "invalid manifest").WithFile(path)
	}
	if manifest.BundlePaths == nil {
		manifest.BundlePaths = make(map[string]string)
	}
	return &manifest, nil
}

func projectRelative(project config.ProjectConfig, path string) string {
	rel, err := filepath.Rel(project.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
