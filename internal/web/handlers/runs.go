package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vfiala/photo-inspector/internal/config"
	"github.com/vfiala/photo-inspector/internal/exporter"
	"github.com/vfiala/photo-inspector/internal/session"
)

// RunsHandler exposes the run lifecycle over HTTP: start, poll, inspect
// clusters, edit the selection and export.
type RunsHandler struct {
	config *config.Config
	store  *session.Store
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(cfg *config.Config, store *session.Store) *RunsHandler {
	return &RunsHandler{config: cfg, store: store}
}

// StartRequest is the body of POST /runs.
type StartRequest struct {
	Folder      string   `json:"folder"`
	Folders     []string `json:"folders,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
	Workers     int      `json:"workers,omitempty"`
	Approximate *bool    `json:"approximate,omitempty"`
}

// ProgressResponse is the wire shape of a progress snapshot.
type ProgressResponse struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	TimeLeft  string `json:"time_left"`
}

// RunResponse is the wire shape of a run.
type RunResponse struct {
	ID        string           `json:"id"`
	Model     string           `json:"model"`
	Status    string           `json:"status"`
	Threshold float64          `json:"threshold"`
	StartedAt time.Time        `json:"started_at"`
	Progress  ProgressResponse `json:"progress"`
	Error     string           `json:"error,omitempty"`
}

func runResponse(run *session.Run) RunResponse {
	p := run.Progress()
	return RunResponse{
		ID:        run.ID,
		Model:     run.Model,
		Status:    string(run.Status()),
		Threshold: run.Threshold,
		StartedAt: run.StartedAt,
		Progress: ProgressResponse{
			Processed: p.Processed,
			Total:     p.Total,
			Percent:   p.Percent(),
			TimeLeft:  p.TimeLeft(),
		},
		Error: run.Err(),
	}
}

// Start begins a new run, cancelling any run still in flight.
func (h *RunsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	roots := req.Folders
	if req.Folder != "" {
		roots = append([]string{req.Folder}, roots...)
	}
	if len(roots) == 0 {
		respondError(w, http.StatusBadRequest, "folder is required")
		return
	}

	threshold := h.config.Cluster.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	workers := req.Workers
	if workers <= 0 {
		workers = h.config.Embedding.Workers
	}
	approximate := h.config.Cluster.Approximate
	if req.Approximate != nil {
		approximate = *req.Approximate
	}

	run, err := h.store.StartRun(session.Options{
		Roots:       roots,
		Extensions:  h.config.Scan.Extensions,
		Threshold:   threshold,
		Workers:     workers,
		Approximate: approximate,
	})
	if err != nil {
		// Bad threshold, unreadable roots and the like are caller errors.
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("started run %s for %s", run.ID, sanitizeForLog(roots[0]))
	respondJSON(w, http.StatusAccepted, runResponse(run))
}

// lookup resolves the {runId} URL parameter, writing the error response
// itself when the run cannot be found.
func (h *RunsHandler) lookup(w http.ResponseWriter, r *http.Request) *session.Run {
	id := chi.URLParam(r, "runId")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing run ID")
		return nil
	}
	run, err := h.store.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "run not found")
		return nil
	}
	return run
}

// Current returns the active run, 404 when none was started yet.
func (h *RunsHandler) Current(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.Run()
	if err != nil {
		respondError(w, http.StatusNotFound, "no run started")
		return
	}
	respondJSON(w, http.StatusOK, runResponse(run))
}

// Status returns one run by ID.
func (h *RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}
	respondJSON(w, http.StatusOK, runResponse(run))
}

// Cancel stops a run. Files embedded before the cancel stay clustered.
func (h *RunsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}
	run.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// Clusters returns the run's partition. Pass ?singletons=false to hide
// one-member clusters and ?sort=name or ?sort=ctime to reorder the list
// by representative file name or modification time instead of discovery
// order.
func (h *RunsHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}
	includeSingletons := r.URL.Query().Get("singletons") != "false"
	clusters := run.Clusters(includeSingletons)
	sortClusters(clusters, r.URL.Query().Get("sort"))
	respondJSON(w, http.StatusOK, map[string]any{
		"clusters": clusters,
		"count":    len(clusters),
	})
}

// sortClusters reorders the list in place. Unknown or empty sort keys
// keep discovery order.
func sortClusters(clusters []session.ClusterView, by string) {
	switch by {
	case "name":
		sort.SliceStable(clusters, func(i, j int) bool {
			a := strings.ToLower(filepath.Base(clusters[i].Representative))
			b := strings.ToLower(filepath.Base(clusters[j].Representative))
			return a < b
		})
	case "ctime":
		times := make(map[string]time.Time, len(clusters))
		for _, c := range clusters {
			if info, err := os.Stat(c.Representative); err == nil {
				times[c.Representative] = info.ModTime()
			}
		}
		sort.SliceStable(clusters, func(i, j int) bool {
			return times[clusters[i].Representative].Before(times[clusters[j].Representative])
		})
	}
}

// SelectionRequest is the body of PUT /runs/{runId}/clusters/{clusterId}/selection.
type SelectionRequest struct {
	Path string `json:"path"`
	Keep bool   `json:"keep"`
}

// Selection flips the keep flag of one cluster member.
func (h *RunsHandler) Selection(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}

	clusterID, err := strconv.Atoi(chi.URLParam(r, "clusterId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid cluster ID")
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := run.SetSelection(clusterID, req.Path, req.Keep); err != nil {
		if errors.Is(err, session.ErrUnknownCluster) || errors.Is(err, session.ErrUnknownRecord) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cluster_id": clusterID,
		"path":       req.Path,
		"keep":       req.Keep,
	})
}

// Errors returns the files that could not be embedded during the run.
func (h *RunsHandler) Errors(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}
	errs := run.Errors()
	respondJSON(w, http.StatusOK, map[string]any{
		"errors": errs,
		"count":  len(errs),
	})
}

// ExportRequest is the body of POST /runs/{runId}/export.
type ExportRequest struct {
	Destination string `json:"destination"`
}

// Export copies the kept files into the destination folder.
func (h *RunsHandler) Export(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Destination == "" {
		respondError(w, http.StatusBadRequest, "destination is required")
		return
	}

	report, err := run.Export(req.Destination)
	if err != nil {
		if errors.Is(err, exporter.ErrInvalidDestination) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"exported": len(report.Succeeded),
		"failed":   report.Failed,
	})
}
