package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vfiala/photo-inspector/internal/imaging"
)

// thumbnailSize is the bounding box for ?size=thumb requests.
const thumbnailSize = 320

// Image serves an image file from the run's scan roots. Paths outside the
// roots are refused so the endpoint cannot be used to read arbitrary
// files. With ?size=thumb the image is scaled down first.
func (h *RunsHandler) Image(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil || !withinRoots(abs, run.Roots) {
		respondError(w, http.StatusForbidden, "path outside scanned folders")
		return
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	if !imaging.Decodable(data) {
		respondError(w, http.StatusUnsupportedMediaType, "not an image")
		return
	}

	if r.URL.Query().Get("size") == "thumb" {
		if thumb, err := imaging.Resize(data, thumbnailSize); err == nil {
			data = thumb
		}
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// withinRoots reports whether abs sits under one of the given roots.
func withinRoots(abs string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
