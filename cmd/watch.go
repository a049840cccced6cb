package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pages/internal/loader"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Watch template sources and keep descriptors current",
	Long: `Watch the template folder and rewrite templates.json or features.json
whenever a template is added, changed or removed. With --build the bundle is
rebuilt after every change as well.

Examples:
  pages watch           # Rewrite descriptors on change
  pages watch --build   # Rebuild the bundle on change`,
	RunE: runWatch,
}

var watchBuild bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchBuild, "build", false, "Rebuild the bundle after every change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	project := cfg.Project

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	templatesDir, err := filepath.Abs(project.ScopedTemplatesPath())
	if err != nil {
		return err
	}

	cache := loader.NewCache()
	templateSync := watcher.NewTemplateSync(project, cache, logger)
	events := templateSync.Registry().Watch()
	defer templateSync.Registry().UnWatch(events)
	go logRegistryEvents(ctx, cmd, events)
	if _, err := templateSync.Load(ctx); err != nil {
		logger.Error(ctx, err, "Initial template load failed")
	}

	fileWatcher, err := watcher.NewFileWatcher(project.Root, cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.NoGitFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.UnderFilter(templatesDir))
	fileWatcher.AddHandler(templateSync.Handle)
	if watchBuild {
		fileWatcher.AddHandler(func(context.Context, []watcher.ChangeEvent) error {
			return buildProject(cmd, project, logger, loader.NewCache())
		})
	}

	if err := os.MkdirAll(templatesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create template folder: %w", err)
	}
	if err := fileWatcher.AddRecursive(templatesDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", templatesDir, err)
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	logger.Info(ctx, "Watching for changes (Press Ctrl+C to stop)", "path", templatesDir)
	<-ctx.Done()
	logger.Info(context.Background(), "Stopping file watcher")
	return nil
}

// logRegistryEvents reports template additions, updates and removals.
func logRegistryEvents(ctx context.Context, cmd *cobra.Command, events <-chan registry.TemplateEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", event.Type, event.Template.TemplateName)
		}
	}
}
