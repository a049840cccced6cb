package renderer

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/types"
)

// AppHTMLPlaceholder marks where the page component is rendered inside the
// server render template.
const AppHTMLPlaceholder = "<!--app-html-->"

//go:embed templates/_server.html templates/_client.js
var defaultTemplates embed.FS

// DefaultRenderTemplateFiles returns the built-in render templates keyed by
// file name. They are bundled when a project provides none.
func DefaultRenderTemplateFiles() map[string][]byte {
	files := make(map[string][]byte)
	for _, name := range []string{"_server.html", "_client.js"} {
		data, err := defaultTemplates.ReadFile("templates/" + name)
		if err != nil {
			panic("renderer: missing embedded template " + name)
		}
		files[name] = data
	}
	return files
}

// PluginRenderTemplates are the render templates needed during generation.
type PluginRenderTemplates struct {
	// Server is the server render document containing AppHTMLPlaceholder.
	Server string
	// Client is the dist relative path of the client hydration script.
	// Empty disables the hydration script.
	Client string
}

// DefaultPluginRenderTemplates uses the built-in server template and no
// client script.
func DefaultPluginRenderTemplates() *PluginRenderTemplates {
	return &PluginRenderTemplates{
		Server: string(DefaultRenderTemplateFiles()["_server.html"]),
	}
}

// RenderTemplateCache keeps loaded server render templates by path for the
// lifetime of a generation run.
type RenderTemplateCache struct {
	templates map[string]string
	mutex     sync.RWMutex
}

// NewRenderTemplateCache creates an empty cache
func NewRenderTemplateCache() *RenderTemplateCache {
	return &RenderTemplateCache{templates: make(map[string]string)}
}

// Load returns the content of path, reading it on first use.
func (c *RenderTemplateCache) Load(path string) (string, error) {
	c.mutex.RLock()
	content, ok := c.templates[path]
	c.mutex.RUnlock()
	if ok {
		return content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read render template").WithFile(path)
	}
	content = string(data)
	if !strings.Contains(content, AppHTMLPlaceholder) {
		return "", errors.NewContractError(
			errors.ErrCodeRenderFailed,
			"server render template is missing the "+AppHTMLPlaceholder+" placeholder",
		).WithFile(path)
	}

	c.mutex.Lock()
	c.templates[path] = content
	c.mutex.Unlock()
	return content, nil
}

// GetPluginRenderTemplates resolves the manifest's render paths against
// distDir. A manifest without a server path falls back to the built-in one.
func GetPluginRenderTemplates(manifest *types.Manifest, distDir string, cache *RenderTemplateCache) (*PluginRenderTemplates, error) {
	templates := DefaultPluginRenderTemplates()
	templates.Client = manifest.RenderPaths.Client

	if manifest.RenderPaths.Server == "" {
		return templates, nil
	}

	server, err := cache.Load(filepath.Join(distDir, filepath.FromSlash(manifest.RenderPaths.Server)))
	if err != nil {
		return nil, err
	}
	templates.Server = server
	return templates, nil
}
