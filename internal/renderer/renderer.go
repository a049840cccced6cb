// Package renderer turns a template module and its props into a generated
// page.
//
// A module renders through one of two strategies. A custom Render function
// produces the whole document and wins when present. Otherwise the Default
// page component is rendered into the server render template, which receives
// the head config, the document language and, when the template hydrates,
// the serialized props and the client script.
package renderer

import (
	"context"
	"fmt"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/types"
	"github.com/conneroisu/pages/pkg/pages"
)

// Strategy is the way a module renders HTML.
type Strategy int

const (
	// StrategyInvalid means the module has neither Render nor Default.
	StrategyInvalid Strategy = iota
	// StrategyCustom uses the module's Render function.
	StrategyCustom
	// StrategyComponent wraps the Default page component.
	StrategyComponent
)

// String returns the string representation of the Strategy
func (s Strategy) String() string {
	switch s {
	case StrategyCustom:
		return "custom"
	case StrategyComponent:
		return "component"
	default:
		return "invalid"
	}
}

// SelectStrategy picks the render strategy: Render over Default, and
// invalid when neither exists.
func SelectStrategy(module *pages.TemplateModule) Strategy {
	switch {
	case module.Render != nil:
		return StrategyCustom
	case module.Default != nil:
		return StrategyComponent
	default:
		return StrategyInvalid
	}
}

// Renderer produces generated pages from template modules.
type Renderer struct {
	logger logging.Logger
}

// New creates a renderer
func New(logger logging.Logger) *Renderer {
	return &Renderer{logger: logger.WithComponent("renderer")}
}

// GenerateResponses transforms the props, resolves the path and renders the
// page of one template for one document.
func (r *Renderer) GenerateResponses(ctx context.Context, tmpl *types.TemplateModuleInternal, props pages.TemplateProps, templates *PluginRenderTemplates) (*pages.GeneratedPage, error) {
	module := tmpl.Module

	if module.TransformProps != nil {
		transformed, err := module.TransformProps(ctx, props)
		if err != nil {
			return nil, errors.WrapContract(err, errors.ErrCodeRenderFailed,
				fmt.Sprintf("transformProps failed in template '%s'", tmpl.TemplateName), tmpl.TemplateName)
		}
		props = transformed
	}

	if module.GetPath == nil {
		return nil, errors.ErrInvalidPath(tmpl.TemplateName)
	}
	path, err := module.GetPath(props)
	if err != nil {
		return nil, errors.WrapContract(err, errors.ErrCodeInvalidPath,
			fmt.Sprintf("getPath does not return a valid string in template '%s'", tmpl.TemplateName), tmpl.TemplateName)
	}
	if path == "" {
		return nil, errors.ErrInvalidPath(tmpl.TemplateName)
	}

	renderProps := pages.TemplateRenderProps{
		TemplateProps:        props,
		Path:                 path,
		RelativePrefixToRoot: pages.GetRelativePrefixToRootFromPath(path),
	}

	content, err := r.RenderHTML(ctx, tmpl, renderProps, templates)
	if err != nil {
		return nil, err
	}

	redirects := []string{}
	if module.GetRedirects != nil {
		redirects, err = module.GetRedirects(renderProps)
		if err != nil {
			return nil, errors.WrapContract(err, errors.ErrCodeRenderFailed,
				fmt.Sprintf("getRedirects failed in template '%s'", tmpl.TemplateName), tmpl.TemplateName)
		}
		if redirects == nil {
			redirects = []string{}
		}
	}

	return &pages.GeneratedPage{
		Path:      path,
		Content:   &content,
		Redirects: redirects,
	}, nil
}

// RenderHTML renders the document of a module. A custom Render function
// makes GetHeadConfig unused, which is reported as a warning.
func (r *Renderer) RenderHTML(ctx context.Context, tmpl *types.TemplateModuleInternal, props pages.TemplateRenderProps, templates *PluginRenderTemplates) (string, error) {
	module := tmpl.Module
	name := tmpl.Config().Name

	switch SelectStrategy(module) {
	case StrategyCustom:
		if module.GetHeadConfig != nil {
			r.logger.Warn(ctx, nil,
				fmt.Sprintf("getHeadConfig for template %s will not be called since a custom render function is defined.", name),
				"template", name)
		}
		html, err := module.Render(props)
		if err != nil {
			return "", errors.WrapContract(err, errors.ErrCodeRenderFailed,
				fmt.Sprintf("render failed in template '%s'", name), name)
		}
		return html, nil

	case StrategyComponent:
		if templates == nil {
			templates = DefaultPluginRenderTemplates()
		}
		return r.Wrap(ctx, tmpl, props, templates)

	default:
		return "", errors.ErrMissingRender(name)
	}
}
