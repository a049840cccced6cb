package loader

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"github.com/a-h/templ"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/pkg/pages"
)

const frontMatterDelimiter = "---"

// RenderCustom marks a template whose body is the complete document.
const RenderCustom = "custom"

// FrontMatter is the YAML header of a template source file.
type FrontMatter struct {
	Config pages.TemplateConfig `yaml:"config"`
	// Path is a text template executed against the template props.
	Path string `yaml:"path"`
	// Redirects are text templates executed against the render props.
	Redirects []string `yaml:"redirects,omitempty"`
	// Head is the head config; its title is a text template.
	Head *pages.HeadConfig `yaml:"head,omitempty"`
	// Render is either empty or "custom".
	Render string `yaml:"render,omitempty"`
}

// SplitFrontMatter separates the YAML header from the template body. Content
// without a leading delimiter line has no front matter.
func SplitFrontMatter(content []byte) (header, body []byte, err error) {
	text := strings.TrimPrefix(string(content), "\ufeff")
	if !strings.HasPrefix(text, frontMatterDelimiter+"\n") && !strings.HasPrefix(text, frontMatterDelimiter+"\r\n") {
		return nil, content, nil
	}

	rest := text[strings.Index(text, "\n")+1:]
	lines := strings.SplitAfter(rest, "\n")
	offset := 0
	for _, line := range lines {
		if strings.TrimRight(line, "\r\n") == frontMatterDelimiter {
			return []byte(rest[:offset]), []byte(rest[offset+len(line):]), nil
		}
		offset += len(line)
	}

	return nil, nil, fmt.Errorf("front matter is not terminated by %q", frontMatterDelimiter)
}

// ParseTemplateFile turns a template source file into a module. The file
// must declare a path; its body renders either the page component or, with
// render: custom, the whole document.
func ParseTemplateFile(path string, content []byte) (*pages.TemplateModule, error) {
	header, body, err := SplitFrontMatter(content)
	if err != nil {
		return nil, errors.WrapContract(err, errors.ErrCodeTemplateParse, "invalid front matter", "").WithFile(path)
	}

	var fm FrontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, errors.WrapContract(err, errors.ErrCodeTemplateParse, "invalid front matter", fm.Config.Name).WithFile(path)
	}

	if fm.Render != "" && fm.Render != RenderCustom {
		return nil, errors.NewContractError(
			errors.ErrCodeTemplateParse,
			fmt.Sprintf("unknown render mode %q", fm.Render),
		).WithTemplate(fm.Config.Name).WithFile(path)
	}

	if strings.TrimSpace(fm.Path) == "" {
		return nil, errors.NewContractError(
			errors.ErrCodeMissingGetPath,
			"template does not declare a path",
		).WithTemplate(fm.Config.Name).WithFile(path)
	}

	module := &pages.TemplateModule{Config: fm.Config}

	pathTmpl, err := parseText("path", fm.Path)
	if err != nil {
		return nil, errors.WrapContract(err, errors.ErrCodeTemplateParse, "invalid path template", fm.Config.Name).WithFile(path)
	}
	module.GetPath = func(props pages.TemplateProps) (string, error) {
		out, err := executeText(pathTmpl, props)
		return strings.TrimSpace(out), err
	}

	if len(fm.Redirects) > 0 {
		redirects := make([]*texttemplate.Template, 0, len(fm.Redirects))
		for i, raw := range fm.Redirects {
			t, err := parseText(fmt.Sprintf("redirect-%d", i), raw)
			if err != nil {
				return nil, errors.WrapContract(err, errors.ErrCodeTemplateParse, "invalid redirect template", fm.Config.Name).WithFile(path)
			}
			redirects = append(redirects, t)
		}
		module.GetRedirects = func(props pages.TemplateRenderProps) ([]string, error) {
			result := make([]string, 0, len(redirects))
			for _, t := range redirects {
				out, err := executeText(t, props)
				if err != nil {
					return nil, err
				}
				result = append(result, out)
			}
			return result, nil
		}
	}

	if fm.Head != nil {
		head := *fm.Head
		titleTmpl, err := parseText("title", head.Title)
		if err != nil {
			return nil, errors.WrapContract(err, errors.ErrCodeTemplateParse, "invalid head title template", fm.Config.Name).WithFile(path)
		}
		module.GetHeadConfig = func(props pages.TemplateRenderProps) (*pages.HeadConfig, error) {
			title, err := executeText(titleTmpl, props)
			if err != nil {
				return nil, err
			}
			result := head
			result.Title = title
			return &result, nil
		}
	}

	bodyTmpl, err := template.New(path).Option("missingkey=zero").Parse(string(body))
	if err != nil {
		return nil, errors.WrapContract(err, errors.ErrCodeTemplateParse, "invalid template body", fm.Config.Name).WithFile(path)
	}

	if fm.Render == RenderCustom {
		module.Render = func(props pages.TemplateRenderProps) (string, error) {
			var buf bytes.Buffer
			if err := bodyTmpl.Execute(&buf, props); err != nil {
				return "", err
			}
			return buf.String(), nil
		}
	} else {
		module.Default = func(props pages.TemplateRenderProps) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				return bodyTmpl.Execute(w, props)
			})
		}
	}

	return module, nil
}

func parseText(name, text string) (*texttemplate.Template, error) {
	return texttemplate.New(name).Option("missingkey=error").Parse(text)
}

func executeText(t *texttemplate.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
