package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/loader"
	"github.com/conneroisu/pages/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Bundle templates and finalize the build",
	Long: `Bundle the template sources, render templates and public assets into dist,
then validate the bundle and write functionMetadata.json, templates.json or
features.json, manifest.json and artifacts.json or ci.json.

Examples:
  pages build                     # Build the project in the current directory
  pages build --scope brand-a     # Build a scoped site
  pages build --max-file-size 20  # Raise the per-file bundle cap (MB)`,
	RunE: runBuild,
}

var (
	buildMaxFileSize  int64
	buildMaxTotalSize int64
)

func init() {
	rootCmd.AddCommand(buildCmd)

	limits := build.DefaultBundleLimits()
	buildCmd.Flags().Int64Var(&buildMaxFileSize, "max-file-size", limits.MaxFileSizeMB, "Maximum size of a single bundled file in MB")
	buildCmd.Flags().Int64Var(&buildMaxTotalSize, "max-total-size", limits.MaxTotalSizeMB, "Maximum size of all bundled files in MB")
}

func runBuild(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	ctx := commandContext(cmd)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	if err := buildProject(cmd, cfg.Project, logger, loader.NewCache()); err != nil {
		return err
	}

	logger.Info(ctx, "Build completed", "duration", time.Since(startTime).String())
	return nil
}

// buildProject bundles and finalizes project, sharing cache between steps.
func buildProject(cmd *cobra.Command, project config.ProjectConfig, logger logging.Logger, cache *loader.Cache) error {
	ctx := commandContext(cmd)

	bundler := build.NewBundler(project, logger)
	result, err := bundler.Bundle(ctx)
	if err != nil {
		return fmt.Errorf("failed to bundle: %w", err)
	}
	logger.Debug(ctx, "Bundled", "templates", len(result.Templates), "static", len(result.Static))

	finalizer := build.NewFinalizer(project, logger, cache).WithLimits(build.BundleLimits{
		MaxFileSizeMB:  buildMaxFileSize,
		MaxTotalSizeMB: buildMaxTotalSize,
	})
	if err := finalizer.Run(ctx); err != nil {
		return fmt.Errorf("failed to finalize build: %w", err)
	}
	return nil
}
