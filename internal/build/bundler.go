// Package build bundles a project into dist and finalizes the bundle with
// the config files the hosting platform reads.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/loader"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/renderer"
	"github.com/conneroisu/pages/internal/types"
)

// BundleResult lists what Bundle wrote. Paths are relative to dist.
type BundleResult struct {
	// Templates maps each template source to its bundled copy.
	Templates   map[string]string
	RenderPaths types.RenderPaths
	Static      []string
}

// Bundler copies template sources, render templates and public assets into
// the dist asset folders.
type Bundler struct {
	project config.ProjectConfig
	logger  logging.Logger
}

// NewBundler creates a bundler for project
func NewBundler(project config.ProjectConfig, logger logging.Logger) *Bundler {
	return &Bundler{
		project: project,
		logger:  logger.WithComponent("bundler"),
	}
}

// Bundle cleans dist and writes a fresh bundle.
func (b *Bundler) Bundle(ctx context.Context) (*BundleResult, error) {
	b.clean(ctx)

	result := &BundleResult{Templates: make(map[string]string)}

	finisher := logging.TimedLog(ctx, b.logger, "Bundling templates")
	sources, err := loader.GetTemplateFilepaths(b.project.ScopedTemplatesPath())
	if err != nil {
		finisher.Fail(ctx, err, "Failed to find templates")
		return nil, err
	}
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bundled, err := copyWithFingerprint(source, b.project.ServerBundlePath())
		if err != nil {
			finisher.Fail(ctx, err, "Failed to bundle templates")
			return nil, err
		}
		result.Templates[source] = b.distRelative(bundled)
	}
	finisher.Succeed(ctx, "Bundled templates")

	finisher = logging.TimedLog(ctx, b.logger, "Bundling render templates")
	renderPaths, err := b.bundleRenderTemplates()
	if err != nil {
		finisher.Fail(ctx, err, "Failed to bundle render templates")
		return nil, err
	}
	result.RenderPaths = renderPaths
	finisher.Succeed(ctx, "Bundled render templates")

	finisher = logging.TimedLog(ctx, b.logger, "Copying public assets")
	static, err := b.copyPublic()
	if err != nil {
		finisher.Fail(ctx, err, "Failed to copy public assets")
		return nil, err
	}
	result.Static = static
	finisher.Succeed(ctx, "Copied public assets")

	return result, nil
}

func (b *Bundler) clean(ctx context.Context) {
	finisher := logging.TimedLog(ctx, b.logger, "Cleaning build artifacts")
	dist := b.project.DistPath()
	if _, err := os.Stat(dist); err != nil {
		finisher.Succeed(ctx, "Nothing to clean")
		return
	}
	if err := os.RemoveAll(dist); err != nil {
		finisher.Fail(ctx, err, "Failed to clean build artifacts")
		return
	}
	finisher.Succeed(ctx, "Finished cleaning")
}

// bundleRenderTemplates copies the project's _server and _client render
// templates, falling back to the built-in ones. The scoped templates folder
// wins over the templates root.
func (b *Bundler) bundleRenderTemplates() (types.RenderPaths, error) {
	var paths types.RenderPaths
	defaults := renderer.DefaultRenderTemplateFiles()

	for _, name := range []string{types.RenderTemplateServerName, types.RenderTemplateClientName} {
		var bundled string
		source := findRenderTemplate(name, b.project.ScopedTemplatesPath(), b.project.TemplatesPath())
		if source != "" {
			var err error
			bundled, err = copyWithFingerprint(source, b.project.RenderBundlePath())
			if err != nil {
				return paths, err
			}
		} else {
			filename := defaultRenderTemplateName(name)
			var err error
			bundled, err = writeWithFingerprint(filename, defaults[filename], b.project.RenderBundlePath())
			if err != nil {
				return paths, err
			}
		}

		if name == types.RenderTemplateServerName {
			paths.Server = b.distRelative(bundled)
		} else {
			paths.Client = b.distRelative(bundled)
		}
	}
	return paths, nil
}

func defaultRenderTemplateName(name string) string {
	if name == types.RenderTemplateServerName {
		return name + ".html"
	}
	return name + ".js"
}

// findRenderTemplate returns the first file named name.<ext> in dirs.
func findRenderTemplate(name string, dirs ...string) string {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())) == name {
				return filepath.Join(dir, entry.Name())
			}
		}
	}
	return ""
}

// copyPublic copies the public folder verbatim into the static bundle.
func (b *Bundler) copyPublic() ([]string, error) {
	public := b.project.PublicPath()
	if _, err := os.Stat(public); os.IsNotExist(err) {
		return nil, nil
	}

	var copied []string
	err := filepath.WalkDir(public, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(public, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(b.project.StaticPath(), rel)
		if err := copyFile(path, dest); err != nil {
			return err
		}
		copied = append(copied, b.distRelative(dest))
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to copy public assets").WithFile(public)
	}
	return copied, nil
}

func (b *Bundler) distRelative(path string) string {
	rel, err := filepath.Rel(b.project.DistPath(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Fingerprint returns the content hash used in bundled file names.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:loader.FingerprintLength]
}

// fingerprintedName turns "location.html" into "location.<hash>.html".
func fingerprintedName(name string, content []byte) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + Fingerprint(content) + ext
}

func copyWithFingerprint(source, outputDir string) (string, error) {
	content, err := os.ReadFile(source)
	if err != nil {
		return "", errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read source file").WithFile(source)
	}
	return writeWithFingerprint(filepath.Base(source), content, outputDir)
}

func writeWithFingerprint(name string, content []byte, outputDir string) (string, error) {
	outputPath := filepath.Join(outputDir, fingerprintedName(name, content))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to create directory").WithFile(outputDir)
	}
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return "", errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to write bundle").WithFile(outputPath)
	}
	return outputPath, nil
}

func copyFile(source, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
