package pages

import (
	"golang.org/x/text/language"
)

// HeadConfig describes the contents of the document head for component renders.
type HeadConfig struct {
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
	CharSet  string `yaml:"charset,omitempty" json:"charset,omitempty"`
	Viewport string `yaml:"viewport,omitempty" json:"viewport,omitempty"`
	Tags     []Tag  `yaml:"tags,omitempty" json:"tags,omitempty"`
	// Other is raw HTML appended to the head.
	Other string `yaml:"other,omitempty" json:"other,omitempty"`
	Lang  string `yaml:"lang,omitempty" json:"lang,omitempty"`
}

// Tag is a single head element such as a meta or link tag.
type Tag struct {
	Type       string            `yaml:"type" json:"type"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Default head values used when a HeadConfig leaves them empty.
const (
	DefaultCharSet  = "UTF-8"
	DefaultViewport = "width=device-width, initial-scale=1"
)

// GetLang picks the document language: the head config wins, then the
// document locale. Unparseable values fall back to "en".
func GetLang(head *HeadConfig, props TemplateRenderProps) string {
	raw := props.Locale()
	if head != nil && head.Lang != "" {
		raw = head.Lang
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return "en"
	}
	return tag.String()
}
