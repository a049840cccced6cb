// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pages/internal/config"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

// CreateTempProject returns a default project in a temporary directory with
// the given template sources (file name to content) in its template folder.
func CreateTempProject(t *testing.T, templates map[string]string) config.ProjectConfig {
	t.Helper()
	project := config.DefaultProject(t.TempDir())
	for name, content := range templates {
		WriteFile(t, filepath.Join(project.ScopedTemplatesPath(), name), content)
	}
	return project
}

// TemplateSource builds a minimal template file for feature name writing
// body to path.
func TemplateSource(name, path, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	if name != "" {
		b.WriteString("config:\n  name: " + name + "\n")
	}
	b.WriteString("path: " + path + "\n")
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}

// WaitForFileChange waits for a file to be modified after originalModTime.
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
