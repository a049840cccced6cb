package generate

import (
	"path"
	"path/filepath"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/types"
)

// Plugin events understood by the hosting platform.
const (
	EventPageGenerate = "ON_PAGE_GENERATE"
	EventURLChange    = "ON_URL_CHANGE"
	EventAPI          = "API"

	generatorPluginName = "PagesGenerator"
)

// ArtifactStructure tells the hosting platform which build outputs to
// collect and which plugins to run.
type ArtifactStructure struct {
	Assets  []FileArtifact   `json:"assets"`
	Plugins []PluginArtifact `json:"plugins"`
}

// FileArtifact is a glob pattern relative to Root.
type FileArtifact struct {
	Root    string `json:"root"`
	Pattern string `json:"pattern"`
}

// PluginArtifact registers one plugin with its source files.
type PluginArtifact struct {
	PluginName   string         `json:"pluginName"`
	SourceFiles  []FileArtifact `json:"sourceFiles"`
	Event        string         `json:"event"`
	FunctionName string         `json:"functionName"`
	APIPath      string         `json:"apiPath,omitempty"`
}

// Artifacts is the content of artifacts.json.
type Artifacts struct {
	ArtifactStructure ArtifactStructure `json:"artifactStructure"`
}

// rel joins elements into a slash separated, project relative path.
func rel(elem ...string) string {
	return filepath.ToSlash(filepath.Join(elem...))
}

// GetArtifactStructure describes the assets, the generation plugin and one
// plugin per serverless function.
func GetArtifactStructure(project config.ProjectConfig, functions []types.FunctionInfo) ArtifactStructure {
	dist := project.RootFolders.Dist
	assets := project.Subfolders.Assets

	structure := ArtifactStructure{
		Assets: []FileArtifact{
			{Root: rel(dist), Pattern: path.Join(assets, "**", "*")},
		},
		Plugins: []PluginArtifact{
			{
				PluginName: generatorPluginName,
				SourceFiles: []FileArtifact{
					{Root: rel(dist, project.Subfolders.Plugin), Pattern: "*{.json}"},
					{
						Root: rel(dist),
						Pattern: path.Join(assets, "{"+project.Subfolders.ServerBundle+","+
							project.Subfolders.RenderBundle+","+project.Subfolders.Renderer+","+
							project.Subfolders.Static+"}", "**", "*"),
					},
				},
				Event:        EventPageGenerate,
				FunctionName: generatorPluginName,
			},
		},
	}

	for _, fn := range functions {
		plugin := PluginArtifact{
			PluginName: fn.Name,
			SourceFiles: []FileArtifact{
				{Root: rel(dist, project.Subfolders.ServerlessFunctions, fn.Type, fn.Name), Pattern: "*"},
			},
			Event:        functionEvent(fn.Type),
			FunctionName: "default",
		}
		if plugin.Event == EventAPI {
			plugin.APIPath = path.Join("/", fn.Name)
		}
		structure.Plugins = append(structure.Plugins, plugin)
	}

	return structure
}

func functionEvent(functionType string) string {
	switch functionType {
	case "onUrlChange":
		return EventURLChange
	default:
		return EventAPI
	}
}

// CreateArtifactsJSON writes artifacts.json at artifactPath.
func CreateArtifactsJSON(artifactPath string, project config.ProjectConfig, functions []types.FunctionInfo) error {
	return WriteJSON(artifactPath, Artifacts{
		ArtifactStructure: GetArtifactStructure(project, functions),
	})
}

// defaultCIConfig is written when the project has no ci.json yet.
func defaultCIConfig() map[string]interface{} {
	return map[string]interface{}{
		"dependencies": map[string]interface{}{
			"installDepsCmd": "go mod download",
			"requiredFiles":  []string{"go.mod", "go.sum"},
		},
		"buildArtifacts": map[string]interface{}{
			"buildCmd": "pages build",
		},
		"livePreview": map[string]interface{}{
			"serveSetupCmd": ":",
		},
	}
}

// UpdateCIConfig sets the artifactStructure key of the ci.json at ciPath,
// keeping every other key. A default ci.json is created when none exists.
func UpdateCIConfig(ciPath string, project config.ProjectConfig, functions []types.FunctionInfo) error {
	ci, err := readJSONObject(ciPath)
	if err != nil {
		return err
	}

	if len(ci) == 0 {
		for key, value := range defaultCIConfig() {
			if err := setKey(ci, key, value); err != nil {
				return err
			}
		}
	}

	if err := setKey(ci, "artifactStructure", GetArtifactStructure(project, functions)); err != nil {
		return err
	}

	return WriteJSON(ciPath, ci)
}
