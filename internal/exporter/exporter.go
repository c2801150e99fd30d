// Package exporter copies the kept photos of a run into a destination
// directory, preserving their layout relative to the scan roots.
package exporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidDestination is returned when the destination overlaps a scan
// root. The check happens before any copy, so a rejected export never
// leaves partial output.
var ErrInvalidDestination = errors.New("destination must be outside the scan roots")

// FileFailure records one file that could not be copied.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is the outcome of an export. Failed copies never abort the rest;
// the report lists both sides in input order.
type Report struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []FileFailure `json:"failed"`
}

// Export copies the given files into destDir. Each file keeps its path
// relative to the scan root that contains it; files outside every root are
// copied flat by base name. Per-file failures (missing source, permissions,
// full disk) are collected into the report.
func Export(destDir string, roots []string, paths []string) (*Report, error) {
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}

	absRoots := make([]string, 0, len(roots))
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving scan root %s: %w", root, err)
		}
		if absDest == absRoot || isWithin(absRoot, absDest) || isWithin(absDest, absRoot) {
			return nil, fmt.Errorf("%w: %s overlaps %s", ErrInvalidDestination, destDir, root)
		}
		absRoots = append(absRoots, absRoot)
	}

	if err := os.MkdirAll(absDest, 0750); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}

	report := &Report{}
	written := make(map[string]string, len(paths))
	for _, path := range paths {
		rel := relativeTo(absRoots, path)
		dst := filepath.Join(absDest, rel)
		// Two sources can map to the same destination, e.g. equal
		// relative paths under different roots. The first one wins;
		// overwriting it silently would lose a kept photo.
		if prev, taken := written[dst]; taken {
			report.Failed = append(report.Failed, FileFailure{
				Path:   path,
				Reason: fmt.Sprintf("destination %s already taken by %s", rel, prev),
			})
			continue
		}
		if err := copyFile(path, dst); err != nil {
			report.Failed = append(report.Failed, FileFailure{Path: path, Reason: err.Error()})
			continue
		}
		written[dst] = path
		report.Succeeded = append(report.Succeeded, path)
	}

	return report, nil
}

// isWithin reports whether path is inside dir.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// relativeTo returns path relative to the first root containing it, or the
// base name when no root matches.
func relativeTo(roots []string, path string) string {
	for _, root := range roots {
		if isWithin(root, path) {
			if rel, err := filepath.Rel(root, path); err == nil {
				return rel
			}
		}
	}
	return filepath.Base(path)
}

// copyFile copies src to dst, creating parent directories and preserving
// the file mode and modification time.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Best effort, timestamps are cosmetic.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}
