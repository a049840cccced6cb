// Package generate writes the JSON config files derived from templates.
package generate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/feature"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/types"
)

// Mode selects which descriptor file is produced.
type Mode int

const (
	// ModeFeatures writes the legacy sites-config features.json, merged
	// with the existing file.
	ModeFeatures Mode = iota
	// ModeTemplates writes dist templates.json.
	ModeTemplates
)

// String returns the string representation of the Mode
func (m Mode) String() string {
	switch m {
	case ModeFeatures:
		return "features"
	case ModeTemplates:
		return "templates"
	default:
		return "unknown"
	}
}

// ModeFor picks templates.json for projects with a root config file and
// features.json otherwise.
func ModeFor(project config.ProjectConfig) Mode {
	if IsUsingConfig(project) {
		return ModeTemplates
	}
	return ModeFeatures
}

// IsUsingConfig reports whether the project's (scoped) config.yaml exists.
func IsUsingConfig(project config.ProjectConfig) bool {
	return project.IsUsingConfig()
}

// TemplatesJSONPath returns the file CreateTemplatesJSON writes for mode.
func TemplatesJSONPath(project config.ProjectConfig, mode Mode) string {
	if mode == ModeTemplates {
		return filepath.Join(project.ScopedDistPath(), project.DistConfigFiles.Templates)
	}
	return filepath.Join(project.SitesConfigPath(), project.SitesConfigFiles.Features)
}

// CreateTemplatesJSON synthesizes features and streams from the registry
// and writes them for mode. It returns the written path.
func CreateTemplatesJSON(ctx context.Context, templates *registry.TemplateRegistry, project config.ProjectConfig, mode Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cfg, err := feature.GetTemplatesConfig(templates)
	if err != nil {
		return "", err
	}

	path := TemplatesJSONPath(project, mode)

	var out interface{} = cfg
	if mode == ModeFeatures {
		merged, err := MergeFeatureJSON(path, cfg.Features, cfg.Streams)
		if err != nil {
			return "", err
		}
		out = merged
	}

	if err := WriteJSON(path, out); err != nil {
		return "", err
	}
	return path, nil
}

// MergeFeatureJSON overwrites the features and streams keys of the file at
// featurePath, keeping every other top-level key. A missing file merges
// into an empty object.
func MergeFeatureJSON(featurePath string, features []types.FeatureConfig, streams []types.StreamConfig) (map[string]json.RawMessage, error) {
	merged, err := readJSONObject(featurePath)
	if err != nil {
		return nil, err
	}

	if err := setKey(merged, "features", features); err != nil {
		return nil, err
	}
	if err := setKey(merged, "streams", streams); err != nil {
		return nil, err
	}
	return merged, nil
}

func readJSONObject(path string) (map[string]json.RawMessage, error) {
	obj := make(map[string]json.RawMessage)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return obj, nil
	}
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read "+filepath.Base(path)).WithFile(path)
	}

	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidJSON, "invalid JSON object").WithFile(path)
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage)
	}
	return obj, nil
}

func setKey(obj map[string]json.RawMessage, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, errors.ErrCodeInvalidJSON, "failed to encode "+key)
	}
	obj[key] = raw
	return nil
}

// WriteJSON replaces path with the two-space indented encoding of v,
// creating parent folders as needed.
func WriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to create directory").WithFile(filepath.Dir(path))
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, errors.ErrCodeInvalidJSON, "failed to encode "+filepath.Base(path))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to write "+filepath.Base(path)).WithFile(path)
	}
	return nil
}
