package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
)

const megabyte = 1024 * 1024

// BundleLimits are the size caps the plugin system puts on bundled files.
type BundleLimits struct {
	MaxFileSizeMB  int64
	MaxTotalSizeMB int64
}

// DefaultBundleLimits returns the 10 MB per-file and total caps.
func DefaultBundleLimits() BundleLimits {
	return BundleLimits{MaxFileSizeMB: 10, MaxTotalSizeMB: 10}
}

// ValidateBundles checks the files under the render, renderer, server and
// static bundle folders against the default limits.
func ValidateBundles(project config.ProjectConfig) error {
	return ValidateBundlesWithLimits(project, DefaultBundleLimits())
}

// ValidateBundlesWithLimits checks every bundled file and their sum.
func ValidateBundlesWithLimits(project config.ProjectConfig, limits BundleLimits) error {
	paths, err := getBundlePaths(project)
	if err != nil {
		return err
	}

	var total int64
	for _, path := range paths {
		size, err := validateFilesize(path, limits.MaxFileSizeMB)
		if err != nil {
			return err
		}
		total += size
	}

	return validateTotalSourceSize(total, limits.MaxTotalSizeMB)
}

// getBundlePaths lists every file below the bundle folders.
func getBundlePaths(project config.ProjectConfig) ([]string, error) {
	var paths []string
	for _, dir := range project.BundleDirs() {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == dir {
					return filepath.SkipDir
				}
				return err
			}
			if !d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to list bundles").WithFile(dir)
		}
	}
	return paths, nil
}

func validateFilesize(path string, maxMB int64) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to stat bundle").WithFile(path)
	}

	if info.Size() > maxMB*megabyte {
		return 0, errors.NewLimitError(
			errors.ErrCodeFileTooLarge,
			fmt.Sprintf("Bundled file %s exceeds max size of %d MB", path, maxMB),
		).WithFile(path)
	}
	return info.Size(), nil
}

func validateTotalSourceSize(total, maxMB int64) error {
	if total > maxMB*megabyte {
		return errors.NewLimitError(
			errors.ErrCodeBundleTooLarge,
			fmt.Sprintf("The total size of all bundles exceeds the max size of %d MB", maxMB),
		)
	}
	return nil
}

// ValidateUniqueFeatureName fails on the first feature name seen twice.
func ValidateUniqueFeatureName(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return errors.ErrDuplicateFeature(name)
		}
		seen[name] = true
	}
	return nil
}
