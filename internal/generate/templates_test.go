package generate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/types"
	"github.com/conneroisu/pages/pkg/pages"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *registry.TemplateRegistry {
	t.Helper()
	reg := registry.NewTemplateRegistry()
	for _, cfg := range []pages.TemplateConfig{
		{Name: "turtlehead-tacos"},
		{Name: "location", Stream: &pages.StreamBinding{ID: "location-stream", Fields: []string{"foo"}}},
	} {
		tmpl := types.ConvertTemplateModuleToInternal(cfg.Name+".html", &pages.TemplateModule{Config: cfg})
		require.NoError(t, reg.Register(tmpl))
	}
	return reg
}

func readObject(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &obj))
	return obj
}

func TestCreateTemplatesJSON_Templates(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	project.Scope = "us"

	path, err := CreateTemplatesJSON(context.Background(), testRegistry(t), project, ModeTemplates)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project.Root, "dist", "us", "templates.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := `{
  "features": [
    {
      "name": "turtlehead-tacos",
      "templateType": "JS",
      "staticPage": {}
    },
    {
      "name": "location",
      "streamId": "location-stream",
      "templateType": "JS",
      "entityPageSet": {}
    }
  ],
  "streams": [
    {
      "$id": "location-stream",
      "fields": [
        "foo"
      ],
      "source": "knowledgeGraph",
      "destination": "pages"
    }
  ]
}`
	assert.Equal(t, expected, string(data))
}

func TestCreateTemplatesJSON_FeaturesPreservesOtherKeys(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	featuresPath := filepath.Join(project.SitesConfigPath(), "features.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(featuresPath), 0o755))
	require.NoError(t, os.WriteFile(featuresPath, []byte(`{
  "locales": ["en", "es"],
  "features": [{"name": "stale"}],
  "sitemap": {"enabled": true}
}`), 0o644))

	path, err := CreateTemplatesJSON(context.Background(), testRegistry(t), project, ModeFeatures)
	require.NoError(t, err)
	assert.Equal(t, featuresPath, path)

	obj := readObject(t, path)
	assert.Equal(t, []interface{}{"en", "es"}, obj["locales"])
	assert.Equal(t, map[string]interface{}{"enabled": true}, obj["sitemap"])

	features, ok := obj["features"].([]interface{})
	require.True(t, ok)
	require.Len(t, features, 2)
	assert.Equal(t, "turtlehead-tacos", features[0].(map[string]interface{})["name"])
	assert.Len(t, obj["streams"], 1)
}

func TestCreateTemplatesJSON_Conflict(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	reg := registry.NewTemplateRegistry()
	for i, fields := range [][]string{{"name"}, {"address"}} {
		cfg := pages.TemplateConfig{
			Name:   []string{"a", "b"}[i],
			Stream: &pages.StreamBinding{ID: "shared", Fields: fields},
		}
		require.NoError(t, reg.Register(types.ConvertTemplateModuleToInternal(cfg.Name+".html", &pages.TemplateModule{Config: cfg})))
	}

	_, err := CreateTemplatesJSON(context.Background(), reg, project, ModeTemplates)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.NoFileExists(t, TemplatesJSONPath(project, ModeTemplates))
}

func TestCreateTemplatesJSON_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CreateTemplatesJSON(ctx, testRegistry(t), config.DefaultProject(t.TempDir()), ModeTemplates)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeFeatureJSON(t *testing.T) {
	dir := t.TempDir()
	features := []types.FeatureConfig{{Name: "a", TemplateType: "JS", StaticPage: &struct{}{}}}
	streams := []types.StreamConfig{}

	t.Run("missing file", func(t *testing.T) {
		merged, err := MergeFeatureJSON(filepath.Join(dir, "none.json"), features, streams)
		require.NoError(t, err)
		keys := make([]string, 0, len(merged))
		for key := range merged {
			keys = append(keys, key)
		}
		assert.ElementsMatch(t, []string{"features", "streams"}, keys)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := MergeFeatureJSON(path, features, streams)
		require.Error(t, err)
		assert.True(t, errors.IsIO(err))
	})

	t.Run("existing values kept verbatim", func(t *testing.T) {
		path := filepath.Join(dir, "features.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"custom":{"nested":[1,2,3]},"streams":"old"}`), 0o644))

		merged, err := MergeFeatureJSON(path, features, streams)
		require.NoError(t, err)
		assert.JSONEq(t, `{"nested":[1,2,3]}`, string(merged["custom"]))
		assert.JSONEq(t, `[]`, string(merged["streams"]))
	})
}

func TestModeFor(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	assert.Equal(t, ModeFeatures, ModeFor(project))

	require.NoError(t, os.WriteFile(filepath.Join(project.Root, "config.yaml"), []byte("name: site\n"), 0o644))
	assert.Equal(t, ModeTemplates, ModeFor(project))
	assert.Equal(t, "templates", ModeFor(project).String())
}

func TestGetArtifactStructure(t *testing.T) {
	project := config.DefaultProject("/site")
	structure := GetArtifactStructure(project, []types.FunctionInfo{
		{Name: "search", Type: "http"},
		{Name: "redirect", Type: "onUrlChange"},
	})

	expected := ArtifactStructure{
		Assets: []FileArtifact{{Root: "dist", Pattern: "assets/**/*"}},
		Plugins: []PluginArtifact{
			{
				PluginName: "PagesGenerator",
				SourceFiles: []FileArtifact{
					{Root: "dist/plugin", Pattern: "*{.json}"},
					{Root: "dist", Pattern: "assets/{server,render,renderer,static}/**/*"},
				},
				Event:        EventPageGenerate,
				FunctionName: "PagesGenerator",
			},
			{
				PluginName:   "search",
				SourceFiles:  []FileArtifact{{Root: "dist/functions/http/search", Pattern: "*"}},
				Event:        EventAPI,
				FunctionName: "default",
				APIPath:      "/search",
			},
			{
				PluginName:   "redirect",
				SourceFiles:  []FileArtifact{{Root: "dist/functions/onUrlChange/redirect", Pattern: "*"}},
				Event:        EventURLChange,
				FunctionName: "default",
			},
		},
	}

	if diff := cmp.Diff(expected, structure); diff != "" {
		t.Errorf("GetArtifactStructure() mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateCIConfig(t *testing.T) {
	project := config.DefaultProject(t.TempDir())

	t.Run("creates default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ci.json")
		require.NoError(t, UpdateCIConfig(path, project, nil))

		obj := readObject(t, path)
		assert.Contains(t, obj, "dependencies")
		assert.Contains(t, obj, "buildArtifacts")
		assert.Contains(t, obj, "artifactStructure")
	})

	t.Run("keeps other keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ci.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"buildArtifacts":{"buildCmd":"make"},"artifactStructure":{}}`), 0o644))
		require.NoError(t, UpdateCIConfig(path, project, nil))

		obj := readObject(t, path)
		assert.Equal(t, map[string]interface{}{"buildCmd": "make"}, obj["buildArtifacts"])
		assert.NotContains(t, obj, "dependencies")
		structure := obj["artifactStructure"].(map[string]interface{})
		assert.Len(t, structure["plugins"], 1)
	})
}

func TestCreateArtifactsJSON(t *testing.T) {
	project := config.DefaultProject(t.TempDir())
	path := filepath.Join(project.ScopedDistPath(), "artifacts.json")

	require.NoError(t, CreateArtifactsJSON(path, project, []types.FunctionInfo{{Name: "f", Type: "http"}}))

	obj := readObject(t, path)
	structure := obj["artifactStructure"].(map[string]interface{})
	assert.Len(t, structure["plugins"], 2)
}
