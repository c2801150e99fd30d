// Package session orchestrates runs: scan a folder, embed every image,
// cluster by similarity and hold the result plus the user's keep/discard
// selection until the next run replaces it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vfiala/photo-inspector/internal/cache"
	"github.com/vfiala/photo-inspector/internal/cluster"
	"github.com/vfiala/photo-inspector/internal/embedder"
	"github.com/vfiala/photo-inspector/internal/progress"
	"github.com/vfiala/photo-inspector/internal/scanner"
)

// Options configures a run.
type Options struct {
	Roots       []string
	Extensions  []string
	Threshold   float64
	Workers     int
	Approximate bool
}

// defaultWorkers caps concurrent embedding requests when Options.Workers
// is unset.
const defaultWorkers = 5

// Store owns at most one run at a time. Starting a new run cancels the
// previous one and replaces all of its state; results never survive a
// restart.
type Store struct {
	adapter *embedder.Adapter
	cache   cache.Cache // optional, nil disables caching

	// startMu serializes StartRun's cancel-and-replace sequence so two
	// simultaneous starts cannot both observe the same predecessor and
	// leave an orphaned run behind.
	startMu sync.Mutex

	mu  sync.Mutex
	run *Run
}

// NewStore creates a session store. The cache may be nil.
func NewStore(adapter *embedder.Adapter, c cache.Cache) *Store {
	return &Store{adapter: adapter, cache: c}
}

// Run returns the current run, or ErrNoRun when none was started yet.
func (s *Store) Run() (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil, ErrNoRun
	}
	return s.run, nil
}

// Get returns the run with the given ID. Only the current run is
// addressable; earlier runs are gone.
func (s *Store) Get(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil || s.run.ID != id {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}
	return s.run, nil
}

// StartRun validates the options, cancels any run still in flight and
// starts a fresh one in the background. The returned Run is immediately
// pollable for progress.
func (s *Store) StartRun(opts Options) (*Run, error) {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("%w: %v", cluster.ErrInvalidThreshold, opts.Threshold)
	}
	if len(opts.Roots) == 0 {
		return nil, errors.New("no scan roots given")
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = scanner.DefaultExtensions
	}

	// The scanner reports absolute paths, so keep the roots absolute too
	// or exported files lose their layout relative to the root.
	roots := make([]string, len(opts.Roots))
	for i, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving scan root %s: %w", root, err)
		}
		roots[i] = abs
	}
	opts.Roots = roots

	// Held until the new run is installed: the predecessor read below
	// must stay the predecessor through cancel, wait and install.
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	prev := s.run
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
		<-prev.Done()
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:        uuid.New().String(),
		Model:     s.adapter.Provider().Name(),
		Threshold: opts.Threshold,
		Roots:     opts.Roots,
		StartedAt: time.Now(),
		tracker:   progress.NewTracker(),
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusRunning,
	}

	s.mu.Lock()
	s.run = run
	s.mu.Unlock()

	go s.execute(ctx, run, opts)
	return run, nil
}

// execute drives a run to a terminal state. Per-file failures are
// recorded and skipped; only scanning and clustering errors fail the run.
func (s *Store) execute(ctx context.Context, run *Run, opts Options) {
	defer close(run.done)
	defer run.cancel()

	paths, err := scanner.Scan(opts.Roots, scanner.NormalizeExtensions(opts.Extensions))
	if err != nil {
		log.Printf("run %s: scan failed: %v", run.ID, err)
		run.setFailed(err.Error())
		run.sendEvent(Event{Type: "failed", Message: err.Error()})
		return
	}

	records := make([]*ImageRecord, len(paths))
	for i, path := range paths {
		records[i] = &ImageRecord{Path: path, Status: RecordPending}
	}
	run.tracker.Begin(len(records))
	run.sendEvent(Event{Type: "scanned", Data: map[string]int{"total": len(records)}})

	s.embedAll(ctx, run, records, opts.Workers)

	items := make([]cluster.Item, 0, len(records))
	for _, rec := range records {
		if rec.Status == RecordOK {
			items = append(items, cluster.Item{Key: rec.Path, Vector: rec.Vector})
		}
	}

	engine := cluster.Engine{Approximate: opts.Approximate}
	clusters, err := engine.Partition(items, opts.Threshold)
	if err != nil {
		log.Printf("run %s: clustering failed: %v", run.ID, err)
		run.setFailed(err.Error())
		run.sendEvent(Event{Type: "failed", Message: err.Error()})
		return
	}

	status := StatusCompleted
	if ctx.Err() != nil {
		status = StatusCancelled
	}

	run.install(clusters, status)

	log.Printf("run %s: %s, %d files, %d clusters, %d errors",
		run.ID, status, len(records), len(clusters), len(run.Errors()))
	run.sendEvent(Event{Type: string(status), Data: map[string]int{
		"files":    len(records),
		"clusters": len(clusters),
	}})
}

// embedAll embeds every record through a bounded worker pool. Records
// touched after cancellation stay pending and are excluded from
// clustering.
func (s *Store) embedAll(ctx context.Context, run *Run, records []*ImageRecord, workers int) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(rec *ImageRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			s.embedOne(ctx, run, rec)
		}(rec)
	}
	wg.Wait()
}

func (s *Store) embedOne(ctx context.Context, run *Run, rec *ImageRecord) {
	vec, err := s.embedCached(ctx, rec.Path)
	if err != nil {
		if kind := embedder.KindOf(err); kind != "" {
			status := RecordUnreadable
			if kind == embedder.KindMissing {
				status = RecordMissing
			}
			run.mu.Lock()
			rec.Status = status
			run.errs = append(run.errs, ErrorEntry{Path: rec.Path, Reason: err.Error()})
			run.mu.Unlock()
			run.tracker.Add(1)
			run.sendEvent(Event{Type: "progress", Data: run.tracker.State()})
		}
		// Cancellation leaves the record pending.
		return
	}

	run.mu.Lock()
	rec.Vector = vec
	rec.Status = RecordOK
	run.mu.Unlock()
	run.tracker.Add(1)
	run.sendEvent(Event{Type: "progress", Data: run.tracker.State()})
}

// embedCached consults the cache before the provider. Cache trouble is
// logged and ignored; the provider is the source of truth.
func (s *Store) embedCached(ctx context.Context, path string) ([]float32, error) {
	model := s.adapter.Provider().Name()

	var key string
	if s.cache != nil {
		if k, err := cache.FileKey(path); err == nil {
			key = k
			vec, err := s.cache.Get(ctx, model, key)
			if err != nil {
				log.Printf("cache get %s: %v", path, err)
			} else if vec != nil {
				return vec, nil
			}
		}
	}

	vec, err := s.adapter.EmbedFile(ctx, path)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && key != "" {
		if err := s.cache.Put(ctx, model, key, vec); err != nil {
			log.Printf("cache put %s: %v", path, err)
		}
	}
	return vec, nil
}
