package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/loader"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/testutils"
	"github.com/conneroisu/pages/internal/types"
)

func templateSource(name string) string {
	return "---\nconfig:\n  name: " + name + "\npath: " + name + ".html\n---\n<p>" + name + "</p>\n"
}

func readFeatures(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg types.FeaturesConfig
	require.NoError(t, json.Unmarshal(data, &cfg))

	names := make([]string, 0, len(cfg.Features))
	for _, f := range cfg.Features {
		names = append(names, f.Name)
	}
	return names
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
		removed   bool
	}{
		{EventTypeCreated, "created", false},
		{EventTypeModified, "modified", false},
		{EventTypeDeleted, "deleted", true},
		{EventTypeRenamed, "renamed", true},
		{EventType(42), "unknown", false},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
			assert.Equal(t, tc.removed, tc.eventType.Removed())
		})
	}
}

func TestFileWatcherAddPath(t *testing.T) {
	root := t.TempDir()
	watcher, err := NewFileWatcher(root, 50*time.Millisecond, logging.NewNopLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))
	assert.NoError(t, watcher.AddPath(filepath.Join(root, "templates")))

	err = watcher.AddPath(filepath.Join(root, "..", ".."))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the project root")

	assert.Error(t, watcher.AddPath(filepath.Join(root, "missing")))
}

func TestFileWatcherAddRecursive(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "a", "b", "c.html"), "x")
	testutils.WriteFile(t, filepath.Join(root, ".git", "HEAD"), "ref")

	watcher, err := NewFileWatcher(root, 50*time.Millisecond, logging.NewNopLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(root))
	watched := watcher.watcher.WatchList()
	assert.Contains(t, watched, filepath.Join(root, "a", "b"))
	assert.NotContains(t, watched, filepath.Join(root, ".git"))
}

func TestFileWatcherStartStop(t *testing.T) {
	root := t.TempDir()
	watcher, err := NewFileWatcher(root, 50*time.Millisecond, logging.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, watcher.AddRecursive(root))
	watcher.AddFilter(loader.IsTemplateFile)

	received := make(chan []ChangeEvent, 4)
	watcher.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		received <- events
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	testutils.WriteFile(t, filepath.Join(root, "ignored.txt"), "x")
	testutils.WriteFile(t, filepath.Join(root, "page.html"), "x")

	select {
	case events := <-received:
		require.Len(t, events, 1)
		assert.Equal(t, filepath.Join(root, "page.html"), events[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no events received")
	}

	cancel()
	assert.NoError(t, watcher.Stop())
}

func TestDebouncer(t *testing.T) {
	debouncer := newDebouncer(30 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "a.html", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "b.html", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "a.html", Type: EventTypeDeleted}

	select {
	case events := <-debouncer.output:
		assert.Equal(t, []ChangeEvent{
			{Path: "a.html", Type: EventTypeDeleted},
			{Path: "b.html", Type: EventTypeModified},
		}, events)
	case <-time.After(time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestFilters(t *testing.T) {
	under := UnderFilter("/site/src/templates")

	testCases := []struct {
		name     string
		filter   FileFilter
		path     string
		expected bool
	}{
		{"git config", NoGitFilter, ".git/config", false},
		{"nested git", NoGitFilter, "src/.git/HEAD", false},
		{"source", NoGitFilter, "src/templates/a.html", true},
		{"dot file", NoHiddenFilter, "src/.a.html.swp", false},
		{"backup", NoHiddenFilter, "src/a.html~", false},
		{"template", NoHiddenFilter, "src/a.html", true},
		{"inside", under, "/site/src/templates/scope/a.html", true},
		{"outside", under, "/site/dist/a.html", false},
		{"sibling prefix", under, "/site/src/templates2/a.html", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.filter(tc.path))
		})
	}
}

func TestTemplateSync(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	dir := project.ScopedTemplatesPath()
	testutils.WriteFile(t, filepath.Join(dir, "a.html"), templateSource("alpha"))
	testutils.WriteFile(t, filepath.Join(dir, "b.html"), templateSource("beta"))

	ts := NewTemplateSync(project, nil, logging.NewNopLogger())
	ctx := context.Background()

	path, err := ts.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project.SitesConfigPath(), "features.json"), path)
	assert.Equal(t, []string{"alpha", "beta"}, readFeatures(t, path))

	t.Run("modified template keeps its position", func(t *testing.T) {
		testutils.WriteFile(t, filepath.Join(dir, "a.html"), templateSource("alpha"))
		require.NoError(t, ts.Handle(ctx, []ChangeEvent{{Type: EventTypeModified, Path: filepath.Join(dir, "a.html")}}))
		assert.Equal(t, []string{"alpha", "beta"}, readFeatures(t, path))
	})

	t.Run("renamed feature", func(t *testing.T) {
		testutils.WriteFile(t, filepath.Join(dir, "a.html"), templateSource("gamma"))
		require.NoError(t, ts.Handle(ctx, []ChangeEvent{{Type: EventTypeModified, Path: filepath.Join(dir, "a.html")}}))
		assert.Equal(t, []string{"beta", "gamma"}, readFeatures(t, path))
	})

	t.Run("created and deleted", func(t *testing.T) {
		testutils.WriteFile(t, filepath.Join(dir, "c.html"), templateSource("delta"))
		require.NoError(t, os.Remove(filepath.Join(dir, "b.html")))
		require.NoError(t, ts.Handle(ctx, []ChangeEvent{
			{Type: EventTypeCreated, Path: filepath.Join(dir, "c.html")},
			{Type: EventTypeDeleted, Path: filepath.Join(dir, "b.html")},
			{Type: EventTypeModified, Path: filepath.Join(dir, "notes.txt")},
		}))
		assert.Equal(t, []string{"gamma", "delta"}, readFeatures(t, path))
		assert.Equal(t, 2, ts.Registry().Count())
	})

	t.Run("duplicate feature name", func(t *testing.T) {
		testutils.WriteFile(t, filepath.Join(dir, "d.html"), templateSource("delta"))
		err := ts.Handle(ctx, []ChangeEvent{{Type: EventTypeCreated, Path: filepath.Join(dir, "d.html")}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delta")
	})
}

func TestTemplateSync_Watching(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	dir := project.ScopedTemplatesPath()
	testutils.WriteFile(t, filepath.Join(dir, "a.html"), templateSource("alpha"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := NewTemplateSync(project, loader.NewCache(), logging.NewNopLogger())
	path, err := ts.Load(ctx)
	require.NoError(t, err)

	watcher, err := NewFileWatcher(project.Root, 30*time.Millisecond, logging.NewNopLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(dir))
	watcher.AddFilter(loader.IsTemplateFile)

	done := make(chan struct{}, 1)
	watcher.AddHandler(ts.Handle)
	watcher.AddHandler(func(context.Context, []ChangeEvent) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, watcher.Start(ctx))

	testutils.WriteFile(t, filepath.Join(dir, "b.html"), templateSource("beta"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not deliver the change")
	}
	assert.Equal(t, []string{"alpha", "beta"}, readFeatures(t, path))
}

func TestTemplateSync_BatchContinuesAfterFailure(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	dir := project.ScopedTemplatesPath()
	testutils.WriteFile(t, filepath.Join(dir, "a.html"), templateSource("a"))
	testutils.WriteFile(t, filepath.Join(dir, "b.html"), templateSource("b"))

	ts := NewTemplateSync(project, nil, logging.NewNopLogger())
	ctx := context.Background()
	path, err := ts.Load(ctx)
	require.NoError(t, err)

	testutils.WriteFile(t, filepath.Join(dir, "a.html"), "---\nconfig: [\n---\n<p>a</p>\n")
	testutils.WriteFile(t, filepath.Join(dir, "b.html"), templateSource("b2"))

	err = ts.Handle(ctx, []ChangeEvent{
		{Type: EventTypeModified, Path: filepath.Join(dir, "a.html")},
		{Type: EventTypeModified, Path: filepath.Join(dir, "b.html")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.html")

	// the broken template keeps its last good entry
	assert.Equal(t, []string{"a", "b2"}, ts.Registry().Names())
	assert.Equal(t, []string{"a", "b2"}, readFeatures(t, path))

	testutils.WriteFile(t, filepath.Join(dir, "a.html"), templateSource("a"))
	require.NoError(t, ts.Handle(ctx, []ChangeEvent{{Type: EventTypeModified, Path: filepath.Join(dir, "a.html")}}))
	assert.Equal(t, []string{"a", "b2"}, readFeatures(t, path))
}

func TestTemplateSync_IgnoresOtherScopes(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	dir := project.ScopedTemplatesPath()
	testutils.WriteFile(t, filepath.Join(dir, "location.html"), templateSource("location"))
	scoped := filepath.Join(dir, "brand-a", "location.html")
	testutils.WriteFile(t, scoped, templateSource("location"))

	ts := NewTemplateSync(project, nil, logging.NewNopLogger())
	ctx := context.Background()
	path, err := ts.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"location"}, readFeatures(t, path))

	require.NoError(t, ts.Handle(ctx, []ChangeEvent{{Type: EventTypeModified, Path: scoped}}))
	assert.Equal(t, []string{"location"}, readFeatures(t, path))
	assert.Equal(t, 1, ts.Registry().Count())
}
