// Package generator renders stream documents into pages using the bundle
// described by the build manifest.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/datadoc"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/feature"
	"github.com/conneroisu/pages/internal/generate"
	"github.com/conneroisu/pages/internal/loader"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/renderer"
	"github.com/conneroisu/pages/pkg/pages"
)

// GenerationFileName is the summary written next to the generated pages.
const GenerationFileName = "generation.json"

// Result is the outcome of a generation run.
type Result struct {
	Pages []pages.GeneratedPage `json:"pages"`
}

// Generator renders documents into dist.
type Generator struct {
	project     config.ProjectConfig
	logger      logging.Logger
	renderer    *renderer.Renderer
	cache       *loader.Cache
	renderCache *renderer.RenderTemplateCache
	mode        string
}

// New creates a generator. A nil cache gets a fresh one.
func New(project config.ProjectConfig, logger logging.Logger, cache *loader.Cache) *Generator {
	if cache == nil {
		cache = loader.NewCache()
	}
	return &Generator{
		project:     project,
		logger:      logger.WithComponent("generator"),
		renderer:    renderer.New(logger),
		cache:       cache,
		renderCache: renderer.NewRenderTemplateCache(),
		mode:        pages.ModeProduction,
	}
}

// WithMode sets the mode passed to templates in TemplateProps.Meta.
func (g *Generator) WithMode(mode string) *Generator {
	g.mode = mode
	return g
}

// Generate renders one page per document. Static templates that no
// document names are rendered once. A failing document does not stop the
// others; the returned error joins every failure.
func (g *Generator) Generate(ctx context.Context, docs []datadoc.Document) (*Result, error) {
	dist := g.project.DistPath()

	manifest, err := build.ReadManifest(g.project.ManifestPath())
	if err != nil {
		return nil, err
	}
	templates, err := renderer.GetPluginRenderTemplates(manifest, dist, g.renderCache)
	if err != nil {
		return nil, err
	}

	collector := errors.NewErrorCollector()
	docs = g.withStaticDocuments(ctx, docs, manifest.BundlePaths, collector)

	result := &Result{Pages: make([]pages.GeneratedPage, 0, len(docs))}
	written := make(map[string]string, len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := doc.FeatureName()
		step := fmt.Sprintf("Generating %s (%s)", name, doc.EntityID())

		tmpl, err := loader.ReadTemplateModule(ctx, name, manifest, dist, g.cache)
		if err != nil {
			g.logger.Error(ctx, err, "Failed to load template", "feature", name)
			collector.Add(step, err)
			continue
		}

		page, err := g.renderer.GenerateResponses(ctx, tmpl, doc.Props(g.mode), templates)
		if err != nil {
			g.logger.Error(ctx, err, "Failed to generate page", "feature", name, "entity", doc.EntityID())
			collector.Add(step, err)
			continue
		}

		if previous, ok := written[page.Path]; ok {
			g.logger.Warn(ctx, nil, "Page path generated twice, keeping the last one",
				"path", page.Path, "first", previous, "second", name)
		}
		written[page.Path] = name

		if err := g.writePage(page); err != nil {
			collector.Add(step, err)
			continue
		}

		result.Pages = append(result.Pages, pages.GeneratedPage{Path: page.Path, Redirects: page.Redirects})
		g.logger.Debug(ctx, "Generated page", "feature", name, "path", page.Path)
	}

	if err := generate.WriteJSON(filepath.Join(g.project.ScopedDistPath(), GenerationFileName), result); err != nil {
		collector.Add("Writing "+GenerationFileName, err)
	}

	g.logger.Info(ctx, "Generated pages", "count", len(result.Pages))
	return result, collector.Err()
}

// withStaticDocuments appends a feature-only document for every static
// template of the manifest that no document already targets. Templates that
// fail to load are recorded in collector and skipped.
func (g *Generator) withStaticDocuments(ctx context.Context, docs []datadoc.Document, bundlePaths map[string]string, collector *errors.ErrorCollector) []datadoc.Document {
	targeted := make(map[string]bool, len(docs))
	for _, doc := range docs {
		targeted[doc.FeatureName()] = true
	}

	features := make([]string, 0, len(bundlePaths))
	for name := range bundlePaths {
		features = append(features, name)
	}
	sort.Strings(features)

	for _, name := range features {
		if targeted[name] {
			continue
		}
		path := filepath.Join(g.project.DistPath(), filepath.FromSlash(bundlePaths[name]))
		tmpl, err := loader.LoadTemplateModule(ctx, path, g.cache, loader.Options{AdjustForFingerprintedAsset: true})
		if err != nil {
			g.logger.Error(ctx, err, "Failed to load template", "feature", name)
			collector.Add(fmt.Sprintf("Loading %s", name), err)
			continue
		}
		if feature.ConvertTemplateConfigToFeatureConfig(tmpl.Config()).StaticPage != nil {
			docs = append(docs, datadoc.ForFeature(name))
		}
	}
	return docs
}

// writePage writes the page content under dist. Paths may not leave dist.
func (g *Generator) writePage(page *pages.GeneratedPage) error {
	clean := filepath.Clean(filepath.FromSlash(page.Path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.NewContractError(
			errors.ErrCodeInvalidPath,
			fmt.Sprintf("page path %q leaves the output folder", page.Path),
		)
	}

	dest := filepath.Join(g.project.DistPath(), clean)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to create directory").WithFile(filepath.Dir(dest))
	}

	var content string
	if page.Content != nil {
		content = *page.Content
	}
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to write page").WithFile(dest)
	}
	return nil
}
