package types

// Manifest maps features to their bundled template paths. It is written at
// the end of a build and read when pages are generated. Paths are relative
// to the dist folder.
type Manifest struct {
	BundlePaths      map[string]string `json:"bundlePaths"`
	RenderPaths      RenderPaths       `json:"renderPaths"`
	ProjectFilepaths ProjectFilepaths  `json:"projectFilepaths"`
}

// RenderPaths locates the server and client render templates.
type RenderPaths struct {
	Server string `json:"_server"`
	Client string `json:"_client"`
}

// ProjectFilepaths records the source folders the build was run against.
type ProjectFilepaths struct {
	TemplatesRoot           string `json:"templatesRoot"`
	ScopedTemplatesPath     string `json:"scopedTemplatesPath,omitempty"`
	ServerlessFunctionsRoot string `json:"serverlessFunctionsRoot"`
}

// FunctionInfo describes one serverless function.
type FunctionInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Entrypoint string `json:"entrypoint"`
	SourcePath string `json:"-"`
}

// FunctionMetadata is the content of functionMetadata.json.
type FunctionMetadata struct {
	Functions map[string]FunctionInfo `json:"functions"`
}
