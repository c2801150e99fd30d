package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vfiala/photo-inspector/internal/cluster"
	"github.com/vfiala/photo-inspector/internal/exporter"
	"github.com/vfiala/photo-inspector/internal/progress"
)

// Status is the lifecycle state of a run.
type Status string

// Run statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// MemberView is one cluster member together with its keep flag.
type MemberView struct {
	Path string `json:"path"`
	Keep bool   `json:"keep"`
}

// ClusterView is the presentation shape of a cluster.
type ClusterView struct {
	ID             int          `json:"id"`
	Representative string       `json:"representative"`
	Members        []MemberView `json:"members"`
}

// Run is one scan/embed/cluster execution. All result state lives here;
// starting a new run abandons the previous Run entirely.
type Run struct {
	broadcaster

	ID        string
	Model     string
	Threshold float64
	Roots     []string
	StartedAt time.Time

	tracker *progress.Tracker
	cancel  context.CancelFunc
	done    chan struct{}

	mu         sync.RWMutex
	status     Status
	errMsg     string
	clusters   []cluster.Cluster
	selections map[int]map[string]bool
	errs       []ErrorEntry
}

// Status returns the run's lifecycle state.
func (r *Run) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Err returns the failure message for a failed run, empty otherwise.
func (r *Run) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errMsg
}

// Progress returns the current progress snapshot. Processed counts are
// monotonic within the run.
func (r *Run) Progress() progress.State {
	return r.tracker.State()
}

// Done returns a channel closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel requests cooperative cancellation. Embedding stops promptly;
// whatever was embedded before the cancel is clustered and stays visible,
// the rest is discarded.
func (r *Run) Cancel() {
	r.cancel()
}

// Clusters returns the computed partition in cluster ID order, each member
// carrying its current keep flag. With includeSingletons false, one-member
// clusters are filtered from the view; they still exist in the partition.
// Empty until the run reaches a terminal state.
func (r *Run) Clusters(includeSingletons bool) []ClusterView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clusters := r.clusters
	if !includeSingletons {
		clusters = cluster.WithoutSingletons(clusters)
	}

	views := make([]ClusterView, 0, len(clusters))
	for _, c := range clusters {
		members := make([]MemberView, 0, len(c.Members))
		for _, path := range c.Members {
			members = append(members, MemberView{
				Path: path,
				Keep: r.selections[c.ID][path],
			})
		}
		views = append(views, ClusterView{
			ID:             c.ID,
			Representative: c.Representative,
			Members:        members,
		})
	}
	return views
}

// SetSelection updates the keep flag of one cluster member. Unknown
// identifiers are rejected without mutating anything.
func (r *Run) SetSelection(clusterID int, path string, keep bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sel, ok := r.selections[clusterID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	if _, ok := sel[path]; !ok {
		return fmt.Errorf("%w: %s in cluster %d", ErrUnknownRecord, path, clusterID)
	}
	sel[path] = keep
	return nil
}

// SelectedPaths returns every path currently marked keep, in cluster ID
// order and member order within each cluster.
func (r *Run) SelectedPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var paths []string
	for _, c := range r.clusters {
		for _, path := range c.Members {
			if r.selections[c.ID][path] {
				paths = append(paths, path)
			}
		}
	}
	return paths
}

// Errors returns the error report: every discovered file that ended up
// unreadable or missing, in discovery order.
func (r *Run) Errors() []ErrorEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ErrorEntry, len(r.errs))
	copy(out, r.errs)
	return out
}

// Export copies the kept selection into destDir. The selection is
// snapshotted at call time; concurrent selection edits affect later
// exports only.
func (r *Run) Export(destDir string) (*exporter.Report, error) {
	return exporter.Export(destDir, r.Roots, r.SelectedPaths())
}

// setFailed marks the run failed with a message.
func (r *Run) setFailed(msg string) {
	r.mu.Lock()
	r.status = StatusFailed
	r.errMsg = msg
	r.mu.Unlock()
}

// install stores the partition and its default selections: the
// representative of each cluster is kept, every other member is not.
func (r *Run) install(clusters []cluster.Cluster, status Status) {
	selections := make(map[int]map[string]bool, len(clusters))
	for _, c := range clusters {
		sel := make(map[string]bool, len(c.Members))
		for _, path := range c.Members {
			sel[path] = path == c.Representative
		}
		selections[c.ID] = sel
	}

	r.mu.Lock()
	r.clusters = clusters
	r.selections = selections
	r.status = status
	r.mu.Unlock()
}
