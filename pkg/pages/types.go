// Package pages defines the contract between template authors and the pages
// toolchain.
//
// A template pairs page rendering logic with the metadata describing the data
// stream it is bound to. Templates are either written in Go as TemplateModule
// values or as template source files that the loader turns into modules.
//
// # Rendering
//
// A module renders through exactly one of two paths:
//
//   - Render: a custom function returning the complete HTML document.
//   - Default: a page component that is wrapped in the server render template,
//     receives the head configuration and, when hydrating, the client script.
//
// When both are present Render wins.
package pages

import (
	"context"

	"github.com/a-h/templ"
)

// Mode values carried in TemplateProps.Meta.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// TemplateConfig is the metadata a template exports alongside its render logic.
type TemplateConfig struct {
	// Name is the feature name. Defaults to the template filename.
	Name string `yaml:"name" json:"name"`
	// Hydrate controls client-side hydration of component renders.
	// A nil value means the default (true).
	Hydrate *bool `yaml:"hydrate,omitempty" json:"hydrate,omitempty"`
	// StreamID references a stream defined by another template.
	StreamID string `yaml:"streamId,omitempty" json:"streamId,omitempty"`
	// Stream defines the data stream bound to this template.
	Stream *StreamBinding `yaml:"stream,omitempty" json:"stream,omitempty"`
	// AlternateLanguageFields lists document fields used for alternate language links.
	AlternateLanguageFields []string `yaml:"alternateLanguageFields,omitempty" json:"alternateLanguageFields,omitempty"`
}

// StreamBinding describes the data fetch, filter and transform for a template.
type StreamBinding struct {
	ID           string        `yaml:"$id" json:"$id"`
	Fields       []string      `yaml:"fields" json:"fields"`
	Filter       *Filter       `yaml:"filter,omitempty" json:"filter,omitempty"`
	Localization *Localization `yaml:"localization,omitempty" json:"localization,omitempty"`
	Transform    *Transform    `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// Filter restricts which entities flow into a stream.
type Filter struct {
	EntityIDs      []string `yaml:"entityIds,omitempty" json:"entityIds,omitempty"`
	EntityTypes    []string `yaml:"entityTypes,omitempty" json:"entityTypes,omitempty"`
	SavedFilterIDs []string `yaml:"savedFilterIds,omitempty" json:"savedFilterIds,omitempty"`
}

// Localization selects the locales a stream produces documents for.
type Localization struct {
	Locales []string `yaml:"locales,omitempty" json:"locales,omitempty"`
	Primary bool     `yaml:"primary" json:"primary"`
}

// Transform lists field transformations applied by the stream.
type Transform struct {
	ExpandOptionFields                  []string `yaml:"expandOptionFields,omitempty" json:"expandOptionFields,omitempty"`
	ReplaceOptionValuesWithDisplayNames []string `yaml:"replaceOptionValuesWithDisplayNames,omitempty" json:"replaceOptionValuesWithDisplayNames,omitempty"`
}

// TemplateMeta carries information about the generation run.
type TemplateMeta struct {
	Mode string `json:"mode"`
}

// TemplateProps are the props passed to TransformProps and GetPath.
type TemplateProps struct {
	Document map[string]interface{} `json:"document"`
	Meta     TemplateMeta           `json:"__meta"`
}

// TemplateRenderProps are the props available while rendering.
type TemplateRenderProps struct {
	TemplateProps
	Path                 string `json:"path"`
	RelativePrefixToRoot string `json:"relativePrefixToRoot"`
}

// Page is a page component constructor.
type Page func(props TemplateRenderProps) templ.Component

// TemplateModule is a template as the toolchain sees it. Only Config is
// required; the loader fills in the rest for template source files.
type TemplateModule struct {
	Config TemplateConfig

	Default        Page
	Render         func(props TemplateRenderProps) (string, error)
	TransformProps func(ctx context.Context, props TemplateProps) (TemplateProps, error)
	GetPath        func(props TemplateProps) (string, error)
	GetRedirects   func(props TemplateRenderProps) ([]string, error)
	GetHeadConfig  func(props TemplateRenderProps) (*HeadConfig, error)
}

// IsHydrated reports whether component renders of the module should hydrate.
func (c TemplateConfig) IsHydrated() bool {
	if c.Hydrate == nil {
		return true
	}
	return *c.Hydrate
}

// GeneratedPage is the result of rendering one template for one document.
type GeneratedPage struct {
	Path      string   `json:"path"`
	Content   *string  `json:"content,omitempty"`
	Redirects []string `json:"redirects"`
}

// FeatureName returns the feature key of the stream document (`__.name`).
func (p TemplateProps) FeatureName() string {
	meta, ok := p.Document["__"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := meta["name"].(string)
	return name
}

// EntityID returns the document's entity id.
func (p TemplateProps) EntityID() string {
	switch id := p.Document["id"].(type) {
	case string:
		return id
	case nil:
		return ""
	default:
		return toString(id)
	}
}

// Locale returns the document locale, or "en".
func (p TemplateProps) Locale() string {
	if locale, ok := p.Document["locale"].(string); ok && locale != "" {
		return locale
	}
	return "en"
}
