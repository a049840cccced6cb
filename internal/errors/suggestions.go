package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// suggestionsByCode holds the fixes offered for each error code.
var suggestionsByCode = map[string][]ErrorSuggestion{
	ErrCodeStreamConflict: {
		{
			Title:       "Align the stream definitions",
			Description: "Every template using a stream id must declare the same fields, filter, localization and transform",
		},
		{
			Title:       "Use a distinct stream id",
			Description: "Give one of the templates its own stream when the definitions need to differ",
			Example:     "config:\n  stream:\n    $id: location-stream-v2",
		},
	},
	ErrCodeDuplicateFeature: {
		{
			Title:       "Rename one of the features",
			Description: "Feature names default to the file name; set config.name to tell templates apart",
			Example:     "config:\n  name: location-es",
		},
	},
	ErrCodeInvalidPath: {
		{
			Title:       "Return a path for every document",
			Description: "The path template rendered an empty string; check the document fields it reads",
			Example:     `path: "{{ .Document.slug }}.html"`,
		},
	},
	ErrCodeMissingGetPath: {
		{
			Title:       "Add a path to the front matter",
			Description: "Every template needs a path template",
			Example:     "---\npath: index.html\n---",
		},
	},
	ErrCodeMissingRender: {
		{
			Title:       "Give the template a body",
			Description: "A template renders either its body or, with render: custom, the whole document",
		},
	},
	ErrCodeTemplateParse: {
		{
			Title:       "Check the front matter",
			Description: "Front matter is YAML between two --- lines at the top of the file",
		},
	},
	ErrCodeFeatureNotFound: {
		{
			Title:       "Rebuild the bundle",
			Description: "The manifest has no bundle for the document's feature",
			Command:     "pages build",
		},
	},
	ErrCodeFileTooLarge: {
		{
			Title:       "Shrink or move the file",
			Description: "Large media belongs on a CDN rather than in the plugin bundle",
		},
		{
			Title:   "Raise the limit",
			Command: "pages build --max-file-size 20",
		},
	},
	ErrCodeBundleTooLarge: {
		{
			Title:   "Raise the total limit",
			Command: "pages build --max-total-size 20",
		},
	},
	ErrCodeMissingDefaultExport: {
		{
			Title:   "Export the handler",
			Example: "export default async function handler(request) { ... }",
		},
	},
	ErrCodeConfigInvalid: {
		{
			Title:       "Inspect the resolved configuration",
			Description: "Values come from .pages.yml, PAGES_ environment variables and flags",
			Command:     "pages config show",
		},
	},
}

// Suggest returns the fixes for every PagesError in err, including each
// member of a joined error. Codes are reported once.
func Suggest(err error) []ErrorSuggestion {
	var suggestions []ErrorSuggestion
	seen := make(map[string]bool)

	for _, pe := range collect(err) {
		if seen[pe.Code] {
			continue
		}
		seen[pe.Code] = true
		suggestions = append(suggestions, suggestionsByCode[pe.Code]...)
	}
	return suggestions
}

// collect walks the error tree depth first and returns every PagesError.
func collect(err error) []*PagesError {
	if err == nil {
		return nil
	}

	var found []*PagesError
	if pe, ok := err.(*PagesError); ok {
		found = append(found, pe)
	}

	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			found = append(found, collect(inner)...)
		}
	default:
		found = append(found, collect(errors.Unwrap(err))...)
	}
	return found
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}
