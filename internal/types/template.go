// Package types provides common type definitions used throughout pages.
// This package contains shared types to avoid circular dependencies between packages.
package types

import (
	"path/filepath"
	"strings"

	"github.com/conneroisu/pages/pkg/pages"
)

// TemplateModuleInternal is a loaded template module together with the file
// it was loaded from.
type TemplateModuleInternal struct {
	// Path is the resolved path the module was loaded from
	Path string
	// Filename is the base name of Path
	Filename string
	// TemplateName is the feature name, defaulting to the filename without extension
	TemplateName string
	// Module is the normalized module; Module.Config.Name equals TemplateName
	Module *pages.TemplateModule
}

// Config returns the module's template config.
func (t *TemplateModuleInternal) Config() pages.TemplateConfig {
	return t.Module.Config
}

// ConvertTemplateModuleToInternal normalizes a module loaded from path.
func ConvertTemplateModuleToInternal(path string, module *pages.TemplateModule) *TemplateModuleInternal {
	filename := filepath.Base(path)
	name := module.Config.Name
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
		module.Config.Name = name
	}

	return &TemplateModuleInternal{
		Path:         path,
		Filename:     filename,
		TemplateName: name,
		Module:       module,
	}
}

// FeatureConfig is the platform-facing descriptor of a template.
type FeatureConfig struct {
	Name                    string    `json:"name"`
	StreamID                string    `json:"streamId,omitempty"`
	TemplateType            string    `json:"templateType"`
	EntityPageSet           *struct{} `json:"entityPageSet,omitempty"`
	StaticPage              *struct{} `json:"staticPage,omitempty"`
	AlternateLanguageFields []string  `json:"alternateLanguageFields,omitempty"`
}

// StreamConfig is the data-binding descriptor written for a stream.
type StreamConfig struct {
	ID           string              `json:"$id"`
	Filter       *pages.Filter       `json:"filter,omitempty"`
	Fields       []string            `json:"fields"`
	Localization *pages.Localization `json:"localization,omitempty"`
	Transform    *pages.Transform    `json:"transform,omitempty"`
	Source       string              `json:"source"`
	Destination  string              `json:"destination"`
}

// FeaturesConfig is the content of templates.json and features.json.
type FeaturesConfig struct {
	Features []FeatureConfig `json:"features"`
	Streams  []StreamConfig  `json:"streams"`
}

// Constant values of the generated descriptors.
const (
	TemplateTypeJS           = "JS"
	StreamSourceKG           = "knowledgeGraph"
	StreamDestinationPages   = "pages"
	RenderTemplateServerName = "_server"
	RenderTemplateClientName = "_client"
)
