// scan.go: directory enumeration. Only files with known image extensions
// are reported; everything else is skipped silently.
package indexer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tkivisto/wallshift/internal/errors"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".avif": true,
}

// IsImageFile reports whether the path has a recognized image extension.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

func checkRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.New(err).
			Component("indexer").
			Category(errors.CategoryNotFound).
			Context("directory", dir).
			Build()
	}
	if !info.IsDir() {
		return errors.Newf("not a directory: %s", dir).
			Component("indexer").
			Category(errors.CategoryValidation).
			Context("directory", dir).
			Build()
	}
	return nil
}

// ScanDirectory enumerates image files under dir. A missing root is a hard
// not-found error; unreadable subdirectories are skipped.
func ScanDirectory(dir string, recursive bool) ([]string, error) {
	var paths []string
	err := streamScan(dir, recursive, func(path string, info fs.FileInfo) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// streamScan walks dir and invokes fn for every image file without
// materializing the file list. fn receives the file's stat info so callers
// do not stat twice.
func streamScan(dir string, recursive bool, fn func(path string, info fs.FileInfo) error) error {
	if err := checkRoot(dir); err != nil {
		return err
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsImageFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
}

// countImages counts image files under dir, used for accurate progress
// totals before an incremental run.
func countImages(dir string, recursive bool) (int, error) {
	total := 0
	err := streamScan(dir, recursive, func(string, fs.FileInfo) error {
		total++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
