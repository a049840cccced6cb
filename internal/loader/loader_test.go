package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/types"
	"github.com/conneroisu/pages/pkg/pages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const locationTemplate = `---
config:
  name: location
  stream:
    $id: location-stream
    fields: [id, name, slug]
    filter:
      entityTypes: [location]
    localization:
      locales: [en]
      primary: false
path: "{{ .Document.slug }}"
redirects:
  - "old/{{ .Document.id }}"
head:
  title: "{{ .Document.name }}"
  tags:
    - type: meta
      attributes:
        name: description
        content: A location page
---
<h1>{{ .Document.name }}</h1>
`

const customTemplate = `---
path: index.html
render: custom
---
<!DOCTYPE html><html><body>{{ .Path }}</body></html>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func locationProps() pages.TemplateRenderProps {
	return pages.TemplateRenderProps{
		TemplateProps: pages.TemplateProps{
			Document: map[string]interface{}{"id": "123", "name": "Main St", "slug": "main-st"},
		},
		Path: "main-st",
	}
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantHeader string
		wantBody   string
		wantErr    bool
	}{
		{name: "no front matter", content: "<p>hi</p>", wantBody: "<p>hi</p>"},
		{name: "header and body", content: "---\npath: a\n---\n<p>hi</p>", wantHeader: "path: a\n", wantBody: "<p>hi</p>"},
		{name: "crlf", content: "---\r\npath: a\r\n---\r\nbody", wantHeader: "path: a\r\n", wantBody: "body"},
		{name: "unterminated", content: "---\npath: a\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, err := SplitFrontMatter([]byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, string(header))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestParseTemplateFile_Component(t *testing.T) {
	module, err := ParseTemplateFile("location.html", []byte(locationTemplate))
	require.NoError(t, err)

	assert.Equal(t, "location", module.Config.Name)
	require.NotNil(t, module.Config.Stream)
	assert.Equal(t, "location-stream", module.Config.Stream.ID)
	assert.Equal(t, []string{"location"}, module.Config.Stream.Filter.EntityTypes)
	assert.Nil(t, module.Render)
	require.NotNil(t, module.Default)

	props := locationProps()

	path, err := module.GetPath(props.TemplateProps)
	require.NoError(t, err)
	assert.Equal(t, "main-st", path)

	redirects, err := module.GetRedirects(props)
	require.NoError(t, err)
	assert.Equal(t, []string{"old/123"}, redirects)

	head, err := module.GetHeadConfig(props)
	require.NoError(t, err)
	assert.Equal(t, "Main St", head.Title)
	require.Len(t, head.Tags, 1)
	assert.Equal(t, "description", head.Tags[0].Attributes["name"])

	var buf bytes.Buffer
	require.NoError(t, module.Default(props).Render(context.Background(), &buf))
	assert.Equal(t, "<h1>Main St</h1>\n", buf.String())
}

func TestParseTemplateFile_BodyIsEscaped(t *testing.T) {
	module, err := ParseTemplateFile("x.html", []byte("---\npath: x.html\n---\n<p>{{ .Document.name }}</p>"))
	require.NoError(t, err)

	props := pages.TemplateRenderProps{TemplateProps: pages.TemplateProps{
		Document: map[string]interface{}{"name": "<script>"},
	}}
	var buf bytes.Buffer
	require.NoError(t, module.Default(props).Render(context.Background(), &buf))
	assert.Equal(t, "<p>&lt;script&gt;</p>", buf.String())
}

func TestParseTemplateFile_Custom(t *testing.T) {
	module, err := ParseTemplateFile("index.html", []byte(customTemplate))
	require.NoError(t, err)

	assert.Nil(t, module.Default)
	require.NotNil(t, module.Render)
	assert.Nil(t, module.GetHeadConfig)
	assert.Nil(t, module.GetRedirects)

	html, err := module.Render(pages.TemplateRenderProps{Path: "index.html"})
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><html><body>index.html</body></html>", html)
}

func TestParseTemplateFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    string
	}{
		{name: "missing path", content: "---\nconfig:\n  name: a\n---\n<p></p>", code: errors.ErrCodeMissingGetPath},
		{name: "bad yaml", content: "---\nconfig: [\n---\n", code: errors.ErrCodeTemplateParse},
		{name: "bad render mode", content: "---\npath: a\nrender: fancy\n---\n", code: errors.ErrCodeTemplateParse},
		{name: "bad body", content: "---\npath: a\n---\n{{ .Broken", code: errors.ErrCodeTemplateParse},
		{name: "bad path template", content: "---\npath: \"{{ .X \"\n---\n", code: errors.ErrCodeTemplateParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplateFile("a.html", []byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsContract(err))
			assert.Equal(t, tt.code, errors.GetErrorContext(err)["code"])
		})
	}
}

func TestParseTemplateFile_MissingDocumentKey(t *testing.T) {
	module, err := ParseTemplateFile("a.html", []byte("---\npath: \"{{ .Document.slug }}\"\n---\n"))
	require.NoError(t, err)

	_, err = module.GetPath(pages.TemplateProps{Document: map[string]interface{}{}})
	assert.Error(t, err)
}

func TestGetTemplateFilepaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.html", customTemplate)
	writeFile(t, dir, "a.tmpl", customTemplate)
	writeFile(t, dir, "_server.html", "")
	writeFile(t, dir, "notes.md", "")
	writeFile(t, dir, "nested/c.html", customTemplate)

	files, err := GetTemplateFilepaths(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.tmpl"),
		filepath.Join(dir, "b.html"),
	}, files)

	files, err = GetTemplateFilepaths(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "nested", "c.html")}, files)

	files, err = GetTemplateFilepaths(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestGetTemplateFilepaths_Scopes(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	root := project.TemplatesPath()
	writeFile(t, root, "location.html", locationTemplate)
	writeFile(t, root, "brand-a/location.html", locationTemplate)

	tests := []struct {
		name  string
		scope string
		want  string
	}{
		{name: "unscoped", scope: "", want: filepath.Join(root, "location.html")},
		{name: "brand-a", scope: "brand-a", want: filepath.Join(root, "brand-a", "location.html")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scoped := project
			scoped.Scope = tt.scope

			files, err := GetTemplateFilepaths(scoped.ScopedTemplatesPath())
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, files)

			templates, err := LoadTemplateModules(context.Background(), files, NewCache(), Options{})
			require.NoError(t, err)
			assert.Equal(t, []string{"location"}, templates.Names())
		})
	}
}

func TestLoadTemplateModules(t *testing.T) {
	dir := t.TempDir()
	location := writeFile(t, dir, "location.html", locationTemplate)
	index := writeFile(t, dir, "index.html", customTemplate)

	cache := NewCache()
	templates, err := LoadTemplateModules(context.Background(), []string{index, location}, cache, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"index", "location"}, templates.Names())
	assert.Equal(t, 2, cache.Len())

	// Loading again is served from the cache, even after the file is gone
	require.NoError(t, os.Remove(location))
	module, err := LoadTemplateModule(context.Background(), location, cache, Options{})
	require.NoError(t, err)
	tmpl, _ := templates.Get("location")
	assert.Same(t, tmpl, module)

	assert.True(t, cache.Invalidate(location))
	_, err = LoadTemplateModule(context.Background(), location, cache, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsIO(err))
}

func TestLoadTemplateModules_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a/location.html", locationTemplate)
	b := writeFile(t, dir, "b/location.html", locationTemplate)

	_, err := LoadTemplateModules(context.Background(), []string{a, b}, NewCache(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.Contains(t, err.Error(), `Found multiple modules with "location"`)
}

func TestReadTemplateModule(t *testing.T) {
	dist := t.TempDir()
	writeFile(t, dist, "assets/server/index.0a1b2c3d.html", customTemplate)

	manifest := &types.Manifest{BundlePaths: map[string]string{
		"index": "assets/server/index.0a1b2c3d.html",
	}}
	cache := NewCache()

	module, err := ReadTemplateModule(context.Background(), "index", manifest, dist, cache)
	require.NoError(t, err)
	assert.Equal(t, "index", module.TemplateName)
	assert.Equal(t, "index.0a1b2c3d.html", module.Filename)

	_, err = ReadTemplateModule(context.Background(), "missing", manifest, dist, cache)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find path for feature missing")
}

func TestStripFingerprint(t *testing.T) {
	tests := map[string]string{
		"location.1a2b3c4d.html": "location",
		"location.html":          "location",
		"my.page.html":           "my.page",
		"a.ABCDEF12.html":        "a.ABCDEF12",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFingerprint(in), in)
	}
}

func TestCache_GoModules(t *testing.T) {
	cache := NewCache()
	module := types.ConvertTemplateModuleToInternal("go/home", &pages.TemplateModule{
		Config: pages.TemplateConfig{Name: "home"},
	})
	cache.Set("go/home", module)

	loaded, err := LoadTemplateModule(context.Background(), "go/home", cache, Options{})
	require.NoError(t, err)
	assert.Same(t, module, loaded)
}
