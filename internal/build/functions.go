package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/generate"
	"github.com/conneroisu/pages/internal/types"
)

// FunctionExtensions are the source extensions of serverless functions.
var FunctionExtensions = map[string]bool{
	".js": true,
	".ts": true,
}

// FunctionEntrypointName is the base name of a bundled function.
const FunctionEntrypointName = "mod"

var defaultExportPattern = regexp.MustCompile(`(?m)^\s*export\s+default\b`)

// ShouldGenerateFunctionMetadata reports whether the project has functions.
func ShouldGenerateFunctionMetadata(project config.ProjectConfig) bool {
	info, err := os.Stat(project.FunctionsPath())
	return err == nil && info.IsDir()
}

// ShouldBundleServerlessFunctions reports whether there are function
// sources to copy into dist.
func ShouldBundleServerlessFunctions(project config.ProjectConfig) bool {
	entries, err := os.ReadDir(project.FunctionsPath())
	return err == nil && len(entries) > 0
}

// GetFunctionFilepaths lists the functions below root. A function's type
// is its parent folder and its name the file name without extension.
func GetFunctionFilepaths(root string) ([]types.FunctionInfo, error) {
	var functions []types.FunctionInfo
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !FunctionExtensions[filepath.Ext(path)] {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		fnType := filepath.Base(filepath.Dir(path))
		functions = append(functions, types.FunctionInfo{
			Name: name,
			Type: fnType,
			Entrypoint: filepath.ToSlash(filepath.Join(
				fnType, name, FunctionEntrypointName+filepath.Ext(path))),
			SourcePath: path,
		})
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to list functions").WithFile(root)
	}

	sort.Slice(functions, func(i, j int) bool {
		return functions[i].SourcePath < functions[j].SourcePath
	})
	return functions, nil
}

// ValidateFunctions checks that every function has a default export.
func ValidateFunctions(functions []types.FunctionInfo) error {
	for _, fn := range functions {
		content, err := os.ReadFile(fn.SourcePath)
		if err != nil {
			return errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read function").WithFile(fn.SourcePath)
		}
		if !defaultExportPattern.Match(content) {
			return errors.NewContractError(
				errors.ErrCodeMissingDefaultExport,
				fmt.Sprintf("%s is missing a default export.", fn.SourcePath),
			).WithFile(fn.SourcePath)
		}
	}
	return nil
}

// GenerateFunctionMetadataFile writes functionMetadata.json, keyed by
// "<type>/<name>".
func GenerateFunctionMetadataFile(project config.ProjectConfig, functions []types.FunctionInfo) error {
	metadata := types.FunctionMetadata{Functions: make(map[string]types.FunctionInfo, len(functions))}
	for _, fn := range functions {
		metadata.Functions[fn.Type+"/"+fn.Name] = fn
	}
	return generate.WriteJSON(project.FunctionMetadataPath(), metadata)
}

// BundleServerlessFunctions copies each function to
// dist/functions/<type>/<name>/mod.<ext>. Copies run concurrently.
func BundleServerlessFunctions(ctx context.Context, project config.ProjectConfig, functions []types.FunctionInfo) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, fn := range functions {
		fn := fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dest := filepath.Join(project.DistFunctionsPath(), filepath.FromSlash(fn.Entrypoint))
			if err := copyFile(fn.SourcePath, dest); err != nil {
				return errors.WrapIO(err, errors.ErrCodeWriteFailed,
					fmt.Sprintf("failed to bundle function %s", fn.Name)).WithFile(fn.SourcePath)
			}
			return nil
		})
	}

	return g.Wait()
}
