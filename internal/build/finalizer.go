package build

import (
	"context"
	"path/filepath"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/generate"
	"github.com/conneroisu/pages/internal/loader"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/types"
)

// Finalizer runs the close-bundle steps over a finished bundle.
type Finalizer struct {
	project config.ProjectConfig
	logger  logging.Logger
	cache   *loader.Cache
	limits  BundleLimits
}

// NewFinalizer creates a finalizer. A nil cache gets a fresh one.
func NewFinalizer(project config.ProjectConfig, logger logging.Logger, cache *loader.Cache) *Finalizer {
	if cache == nil {
		cache = loader.NewCache()
	}
	return &Finalizer{
		project: project,
		logger:  logger.WithComponent("finalizer"),
		cache:   cache,
		limits:  DefaultBundleLimits(),
	}
}

// WithLimits overrides the bundle size caps checked during validation.
func (f *Finalizer) WithLimits(limits BundleLimits) *Finalizer {
	f.limits = limits
	return f
}

// Run validates the bundle and writes the derived files. A failed
// validation stops the run. Every later step is independent: its failure is
// logged and the next step still runs. The returned error joins all step
// failures.
func (f *Finalizer) Run(ctx context.Context) error {
	finisher := logging.TimedLog(ctx, f.logger, "Validating template modules")
	templates, err := f.validateTemplateModules(ctx)
	if err != nil {
		finisher.Fail(ctx, err, "One or more template modules failed validation")
		return err
	}
	finisher.Succeed(ctx, "Validated template modules")

	collector := errors.NewErrorCollector()
	usingConfig := generate.IsUsingConfig(f.project)

	var functions []types.FunctionInfo
	if ShouldGenerateFunctionMetadata(f.project) {
		f.step(ctx, collector, "Validating functions", "Validated functions",
			"One or more functions failed validation", func() error {
				var err error
				functions, err = GetFunctionFilepaths(f.project.FunctionsPath())
				if err != nil {
					return err
				}
				return ValidateFunctions(functions)
			})
		f.step(ctx, collector, "Writing functionMetadata.json", "Successfully wrote functionMetadata.json",
			"Failed to write functionMetadata.json", func() error {
				return GenerateFunctionMetadataFile(f.project, functions)
			})
	}

	if ShouldBundleServerlessFunctions(f.project) {
		f.step(ctx, collector, "Bundling serverless functions", "Successfully bundled serverless functions",
			"Failed to bundle serverless functions", func() error {
				bundled, err := GetFunctionFilepaths(f.project.FunctionsPath())
				if err != nil {
					return err
				}
				return BundleServerlessFunctions(ctx, f.project, bundled)
			})
	}

	mode := generate.ModeFor(f.project)
	file := filepath.Base(generate.TemplatesJSONPath(f.project, mode))
	f.step(ctx, collector, "Writing "+file, "Successfully wrote "+file, "Failed to write "+file, func() error {
		_, err := generate.CreateTemplatesJSON(ctx, templates, f.project, mode)
		return err
	})

	f.step(ctx, collector, "Writing manifest.json", "Successfully wrote manifest.json",
		"Failed to write manifest.json", func() error {
			return GenerateManifestFile(templates, f.project)
		})

	if usingConfig {
		f.step(ctx, collector, "Writing artifacts.json", "Successfully wrote artifacts.json",
			"Failed to update artifacts.json", func() error {
				path := filepath.Join(f.project.ScopedDistPath(), f.project.DistConfigFiles.Artifacts)
				return generate.CreateArtifactsJSON(path, f.project, functions)
			})
	} else {
		f.step(ctx, collector, "Updating ci.json", "Successfully updated ci.json",
			"Failed to update ci.json", func() error {
				path := filepath.Join(f.project.SitesConfigPath(), f.project.SitesConfigFiles.CI)
				return generate.UpdateCIConfig(path, f.project, functions)
			})
	}

	return collector.Err()
}

// step runs fn between timed logs and records its failure.
func (f *Finalizer) step(ctx context.Context, collector *errors.ErrorCollector, start, success, failure string, fn func() error) {
	finisher := logging.TimedLog(ctx, f.logger, start)
	if err := fn(); err != nil {
		finisher.Fail(ctx, err, failure)
		collector.Add(start, err)
		return
	}
	finisher.Succeed(ctx, success)
}

// validateTemplateModules loads the bundled templates, checks feature name
// uniqueness and the bundle size caps.
func (f *Finalizer) validateTemplateModules(ctx context.Context) (*registry.TemplateRegistry, error) {
	paths, err := loader.GetTemplateFilepaths(f.project.ServerBundlePath())
	if err != nil {
		return nil, err
	}

	modules := make([]*types.TemplateModuleInternal, 0, len(paths))
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		module, err := loader.LoadTemplateModule(ctx, path, f.cache, loader.Options{AdjustForFingerprintedAsset: true})
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
		names = append(names, module.TemplateName)
	}

	if err := ValidateUniqueFeatureName(names); err != nil {
		return nil, err
	}
	if err := ValidateBundlesWithLimits(f.project, f.limits); err != nil {
		return nil, err
	}

	templates := registry.NewTemplateRegistry()
	for _, module := range modules {
		if err := templates.Register(module); err != nil {
			return nil, err
		}
	}
	return templates, nil
}
