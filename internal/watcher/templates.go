package watcher

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/generate"
	"github.com/conneroisu/pages/internal/loader"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/types"
)

// TemplateSync keeps a registry of template sources current and rewrites
// templates.json or features.json whenever a template changes.
type TemplateSync struct {
	project config.ProjectConfig
	cache   *loader.Cache
	logger  logging.Logger

	templates *registry.TemplateRegistry
	mutex     sync.Mutex
}

// NewTemplateSync creates a sync over the project's scoped template folder.
func NewTemplateSync(project config.ProjectConfig, cache *loader.Cache, logger logging.Logger) *TemplateSync {
	if cache == nil {
		cache = loader.NewCache()
	}
	return &TemplateSync{
		project:   project,
		cache:     cache,
		logger:    logger.WithComponent("template-sync"),
		templates: registry.NewTemplateRegistry(),
	}
}

// Registry returns the live registry. Its watchers see every reload.
func (s *TemplateSync) Registry() *registry.TemplateRegistry {
	return s.templates
}

// Load reads every template source and writes the descriptor file.
func (s *TemplateSync) Load(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	paths, err := loader.GetTemplateFilepaths(s.project.ScopedTemplatesPath())
	if err != nil {
		return "", err
	}

	templates, err := loader.LoadTemplateModules(ctx, paths, s.cache, loader.Options{})
	if err != nil {
		return "", err
	}

	for _, name := range s.templates.Names() {
		s.templates.Remove(name)
	}
	for _, tmpl := range templates.All() {
		s.templates.Replace(tmpl)
	}

	return s.write(ctx)
}

// Handle applies a batch of changes. Modified templates are reparsed,
// removed ones dropped, and the descriptor file rewritten once. A template
// that fails to load keeps its previous entry; the rest of the batch is
// still applied and every failure is returned joined.
func (s *TemplateSync) Handle(ctx context.Context, events []ChangeEvent) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	collector := errors.NewErrorCollector()
	for _, event := range events {
		if !s.isTemplateSource(event.Path) {
			continue
		}
		if err := s.apply(ctx, event); err != nil {
			s.logger.Error(ctx, err, "Failed to reload template", "path", event.Path)
			collector.Add(event.Path, err)
		}
	}

	if _, err := s.write(ctx); err != nil {
		collector.Add("Writing template descriptors", err)
	}
	return collector.Err()
}

func (s *TemplateSync) apply(ctx context.Context, event ChangeEvent) error {
	path := absPath(event.Path)
	s.cache.Invalidate(path)

	previous, known := s.templates.Find(func(tmpl *types.TemplateModuleInternal) bool {
		return absPath(tmpl.Path) == path
	})
	if event.Type.Removed() {
		if known {
			s.templates.Remove(previous.TemplateName)
		}
		s.logger.Info(ctx, "Template removed", "path", event.Path)
		return nil
	}

	module, err := loader.LoadTemplateModule(ctx, path, s.cache, loader.Options{})
	if err != nil {
		return err
	}

	if known && previous.TemplateName == module.TemplateName {
		// keeps the template's registry position
		s.templates.Replace(module)
	} else {
		if known {
			s.templates.Remove(previous.TemplateName)
		}
		if err := s.templates.Register(module); err != nil {
			s.cache.Invalidate(path)
			return err
		}
	}
	s.logger.Info(ctx, "Template reloaded", "path", event.Path, "feature", module.TemplateName)
	return nil
}

// isTemplateSource reports whether path is a template directly inside the
// scoped template folder. Other scopes live in its subfolders.
func (s *TemplateSync) isTemplateSource(path string) bool {
	return loader.IsTemplateFile(path) &&
		filepath.Dir(absPath(path)) == absPath(s.project.ScopedTemplatesPath())
}

// write must be called with the mutex held.
func (s *TemplateSync) write(ctx context.Context) (string, error) {
	mode := generate.ModeFor(s.project)
	path, err := generate.CreateTemplatesJSON(ctx, s.templates, s.project, mode)
	if err != nil {
		return "", err
	}
	s.logger.Debug(ctx, "Wrote template descriptors", "path", path, "mode", mode.String())
	return path, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
