// Package scanner discovers image files under one or more root directories.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the image types scanned when no explicit set is
// configured.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".webp"}

// NormalizeExtensions lowercases extensions and ensures a leading dot.
// Empty entries are dropped.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// Scan walks the given roots and returns the paths of all files whose
// extension (case-insensitive) is in exts. The walk is lexical within each
// root and roots are visited in argument order, so the discovery order is
// deterministic for identical directory contents. A root that cannot be
// read is an error; unreadable subdirectories are skipped.
func Scan(roots []string, exts []string) ([]string, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, ext := range NormalizeExtensions(exts) {
		extSet[ext] = struct{}{}
	}

	var paths []string
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving scan root %s: %w", root, err)
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == absRoot {
					return fmt.Errorf("reading scan root %s: %w", absRoot, err)
				}
				// Unreadable subtree, keep walking the rest.
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if _, ok := extSet[ext]; ok {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return paths, nil
}
