// Package loader discovers template source files and turns them into
// template modules, caching each resolved path.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/types"
)

// TemplateExtensions are the file extensions recognised as template sources.
var TemplateExtensions = map[string]bool{
	".html": true,
	".tmpl": true,
}

// Options tune how modules are loaded.
type Options struct {
	// AdjustForFingerprintedAsset strips the content hash from bundled
	// filenames (name.<hash>.html) before deriving the default feature name.
	AdjustForFingerprintedAsset bool
}

// IsTemplateFile reports whether path is a template source. Files whose
// name starts with an underscore are render templates, not pages.
func IsTemplateFile(path string) bool {
	base := filepath.Base(path)
	return TemplateExtensions[filepath.Ext(base)] && !strings.HasPrefix(base, "_")
}

// GetTemplateFilepaths returns the template sources directly inside root,
// sorted. Subfolders hold the templates of other scopes and are skipped. A
// missing root yields no templates.
func GetTemplateFilepaths(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}

		if d.IsDir() {
			if path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsTemplateFile(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to list templates").WithFile(root)
	}

	sort.Strings(files)
	return files, nil
}

// LoadTemplateModule returns the module for path, parsing the file only when
// the cache has no entry for it.
func LoadTemplateModule(ctx context.Context, path string, cache *Cache, opts Options) (*types.TemplateModuleInternal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if module, ok := cache.Get(path); ok {
		return module, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, "template not found").WithFile(path)
		}
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read template").WithFile(path)
	}

	module, err := ParseTemplateFile(path, content)
	if err != nil {
		return nil, err
	}

	if module.Config.Name == "" && opts.AdjustForFingerprintedAsset {
		module.Config.Name = StripFingerprint(filepath.Base(path))
	}

	internal := types.ConvertTemplateModuleToInternal(path, module)
	cache.Set(path, internal)
	return internal, nil
}

// LoadTemplateModules loads every path in order and collects the modules
// into a registry. Feature names must be unique.
func LoadTemplateModules(ctx context.Context, paths []string, cache *Cache, opts Options) (*registry.TemplateRegistry, error) {
	templates := registry.NewTemplateRegistry()

	for _, path := range paths {
		module, err := LoadTemplateModule(ctx, path, cache, opts)
		if err != nil {
			return nil, err
		}
		if err := templates.Register(module); err != nil {
			return nil, err
		}
	}

	return templates, nil
}

// ReadTemplateModule resolves the bundled module of feature through the
// manifest. Bundle paths are relative to distDir.
func ReadTemplateModule(ctx context.Context, feature string, manifest *types.Manifest, distDir string, cache *Cache) (*types.TemplateModuleInternal, error) {
	bundlePath, ok := manifest.BundlePaths[feature]
	if !ok || bundlePath == "" {
		return nil, errors.ErrFeatureNotFound(feature)
	}

	path := bundlePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(distDir, filepath.FromSlash(bundlePath))
	}

	return LoadTemplateModule(ctx, path, cache, Options{AdjustForFingerprintedAsset: true})
}

// StripFingerprint turns "location.1a2b3c4d.html" into "location". Names
// without a fingerprint only lose their extension.
func StripFingerprint(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.LastIndex(name, "."); i > 0 && isHash(name[i+1:]) {
		return name[:i]
	}
	return name
}

func isHash(s string) bool {
	if len(s) != FingerprintLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// FingerprintLength is the number of hex characters in a bundle fingerprint.
const FingerprintLength = 8
