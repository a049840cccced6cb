package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/conneroisu/pages/internal/generate"
	"github.com/conneroisu/pages/pkg/pages"
)

// enumValue is a string flag restricted to a fixed set of values.
type enumValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(value string, allowed ...string) *enumValue {
	return &enumValue{value: value, allowed: allowed}
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(val string) error {
	for _, allowed := range e.allowed {
		if val == allowed {
			e.value = val
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(e.allowed, ", "))
}

func (e *enumValue) Type() string { return "string" }

// templatesType selects the descriptor written by the templates command.
// "auto" follows the presence of the project's config.yaml.
var templatesType = newEnumValue("auto", "auto", generate.ModeFeatures.String(), generate.ModeTemplates.String())

// renderMode is passed to templates as TemplateProps.Meta.Mode.
var renderMode = newEnumValue(pages.ModeProduction, pages.ModeProduction, pages.ModeDevelopment)

// outputFormat selects how structured command output is printed.
var outputFormat = newEnumValue("yaml", "yaml", "json")

// parseMode resolves a --type value into a generate.Mode.
func parseMode(value string, auto generate.Mode) generate.Mode {
	switch value {
	case generate.ModeFeatures.String():
		return generate.ModeFeatures
	case generate.ModeTemplates.String():
		return generate.ModeTemplates
	default:
		return auto
	}
}
