package exporter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestExport_CopiesSelectedFiles(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), "photo-a")
	writeFile(t, filepath.Join(root, "sub", "b.jpg"), "photo-b")

	report, err := Export(dest, []string{root}, []string{
		filepath.Join(root, "a.jpg"),
		filepath.Join(root, "sub", "b.jpg"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(report.Succeeded) != 2 || len(report.Failed) != 0 {
		t.Fatalf("expected 2 successes, got %+v", report)
	}

	got, err := os.ReadFile(filepath.Join(dest, "sub", "b.jpg"))
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if string(got) != "photo-b" {
		t.Errorf("expected photo-b content, got %q", got)
	}
}

func TestExport_InvalidDestination(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		dest string
	}{
		{"destination equals root", root},
		{"destination inside root", filepath.Join(root, "export")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Export(tc.dest, []string{root}, nil)
			if !errors.Is(err, ErrInvalidDestination) {
				t.Errorf("expected ErrInvalidDestination, got %v", err)
			}
		})
	}
}

func TestExport_RootInsideDestination(t *testing.T) {
	dest := t.TempDir()
	root := filepath.Join(dest, "photos")
	if err := os.MkdirAll(root, 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := Export(dest, []string{root}, nil)
	if !errors.Is(err, ErrInvalidDestination) {
		t.Errorf("expected ErrInvalidDestination, got %v", err)
	}
}

func TestExport_PartialFailureContinues(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(root, "ok1.jpg"), "1")
	writeFile(t, filepath.Join(root, "ok2.jpg"), "2")

	report, err := Export(dest, []string{root}, []string{
		filepath.Join(root, "ok1.jpg"),
		filepath.Join(root, "deleted.jpg"), // never existed
		filepath.Join(root, "ok2.jpg"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(report.Succeeded) != 2 {
		t.Errorf("expected 2 successes, got %v", report.Succeeded)
	}
	if len(report.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %v", report.Failed)
	}
	if report.Failed[0].Path != filepath.Join(root, "deleted.jpg") {
		t.Errorf("unexpected failed path: %s", report.Failed[0].Path)
	}
	if report.Failed[0].Reason == "" {
		t.Error("expected a failure reason")
	}
}

func TestExport_FileOutsideRootsCopiedFlat(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(other, "loose.jpg"), "x")

	report, err := Export(dest, []string{root}, []string{filepath.Join(other, "loose.jpg")})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(report.Succeeded) != 1 {
		t.Fatalf("expected 1 success, got %+v", report)
	}
	if _, err := os.Stat(filepath.Join(dest, "loose.jpg")); err != nil {
		t.Errorf("expected flat copy at destination root: %v", err)
	}
}

func TestExport_DestinationCollisionReported(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(rootA, "sub", "dup.jpg"), "from-a")
	writeFile(t, filepath.Join(rootB, "sub", "dup.jpg"), "from-b")

	report, err := Export(dest, []string{rootA, rootB}, []string{
		filepath.Join(rootA, "sub", "dup.jpg"),
		filepath.Join(rootB, "sub", "dup.jpg"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// First occurrence wins, the second is reported instead of
	// overwriting it.
	if len(report.Succeeded) != 1 || report.Succeeded[0] != filepath.Join(rootA, "sub", "dup.jpg") {
		t.Fatalf("expected only the first file to succeed, got %v", report.Succeeded)
	}
	if len(report.Failed) != 1 {
		t.Fatalf("expected 1 collision failure, got %v", report.Failed)
	}
	if report.Failed[0].Path != filepath.Join(rootB, "sub", "dup.jpg") {
		t.Errorf("unexpected failed path: %s", report.Failed[0].Path)
	}
	if report.Failed[0].Reason == "" {
		t.Error("expected a collision reason")
	}

	got, err := os.ReadFile(filepath.Join(dest, "sub", "dup.jpg"))
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if string(got) != "from-a" {
		t.Errorf("expected from-a content, got %q", got)
	}
}

func TestExport_PreservesMode(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	src := filepath.Join(root, "a.jpg")
	writeFile(t, src, "photo")
	if err := os.Chmod(src, 0640); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if _, err := Export(dest, []string{root}, []string{src}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dest, "a.jpg"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("expected mode 0640, got %v", info.Mode().Perm())
	}
}
