// Package jobs is the in-memory job registry of spec §4.7: every
// recurring-scheduler control action, one-off poll, and export run gets a
// JobRecord, started in the background and tracked until pruned. A single
// global export lock (spec §4.7, §8 "Export singleness") guards against
// concurrent exporter runs regardless of how they were triggered.
package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrExportRunning is returned by StartExport when an export is already
// in flight; the caller fails fast rather than queuing (spec §4.7).
var ErrExportRunning = errors.New("jobs: export already running")

// Type enumerates the job kinds the control plane can start.
type Type string

const (
	TypePollAll        Type = "poll_all"
	TypePollBranch      Type = "poll_branch"
	TypeStartScheduler Type = "start_scheduler"
	TypeStopScheduler  Type = "stop_scheduler"
	TypeExportEndDB    Type = "export_enddb"
)

// Status is a JobRecord's lifecycle state.
type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// Record mirrors spec §4.7's JobRecord fields exactly.
type Record struct {
	JobID      string      `json:"job_id"`
	Type       Type        `json:"type"`
	Status     Status      `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Total      int         `json:"total"`
	Done       int         `json:"done"`
	Results    []any       `json:"results,omitempty"`
	Error      string      `json:"error,omitempty"`

	mu sync.Mutex
}

func (r *Record) snapshot() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r
	cp.mu = sync.Mutex{}
	return cp
}

// SetProgress updates Done under the record's own lock; safe to call from
// the worker goroutine while readers snapshot concurrently.
func (r *Record) SetProgress(done int) {
	r.mu.Lock()
	r.Done = done
	r.mu.Unlock()
}

// Registry is the mutex-guarded job_id -> Record table plus the export
// singleton lock. One Registry is owned by the application root and
// injected everywhere a job can be started.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*Record
	logger *zap.Logger

	exportRunning atomic.Bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		jobs:   make(map[string]*Record),
		logger: logger,
	}
}

// Start registers a new job of the given type and total unit count, then
// runs fn in its own goroutine. fn receives the Record so it can report
// incremental progress via SetProgress. The starter returns the job id
// immediately, matching spec §4.7's "starter returns immediately" contract.
func (reg *Registry) Start(ctx context.Context, jobType Type, total int, fn func(ctx context.Context, rec *Record) ([]any, error)) string {
	rec := &Record{
		JobID:     uuid.NewString(),
		Type:      jobType,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		Total:     total,
	}

	reg.mu.Lock()
	reg.jobs[rec.JobID] = rec
	reg.mu.Unlock()

	go func() {
		results, err := fn(ctx, rec)

		rec.mu.Lock()
		now := time.Now().UTC()
		rec.FinishedAt = &now
		rec.Results = results
		if err != nil {
			rec.Status = StatusFailed
			rec.Error = err.Error()
		} else {
			rec.Status = StatusFinished
		}
		rec.mu.Unlock()

		if err != nil {
			reg.logger.Error("job failed", zap.String("job_id", rec.JobID), zap.String("type", string(jobType)), zap.Error(err))
		} else {
			reg.logger.Info("job finished", zap.String("job_id", rec.JobID), zap.String("type", string(jobType)))
		}
	}()

	return rec.JobID
}

// AcquireExportLock implements spec §4.7's single global EXPORT_LOCK: at
// most one exporter run, however triggered (scheduled, one-off job, or the
// synchronous admin endpoint), may be in flight at a time.
func (reg *Registry) AcquireExportLock() bool {
	return reg.exportRunning.CompareAndSwap(false, true)
}

// ReleaseExportLock releases the lock acquired by AcquireExportLock.
func (reg *Registry) ReleaseExportLock() {
	reg.exportRunning.Store(false)
}

// StartExport is Start specialized for TypeExportEndDB: it acquires the
// global export lock before launching fn and releases it when fn returns,
// failing fast with ErrExportRunning if the lock is already held.
func (reg *Registry) StartExport(ctx context.Context, fn func(ctx context.Context, rec *Record) ([]any, error)) (string, error) {
	if !reg.AcquireExportLock() {
		return "", ErrExportRunning
	}

	wrapped := func(ctx context.Context, rec *Record) ([]any, error) {
		defer reg.ReleaseExportLock()
		return fn(ctx, rec)
	}

	return reg.Start(ctx, TypeExportEndDB, 0, wrapped), nil
}

// Get returns a snapshot of the job record, or ok=false if unknown.
func (reg *Registry) Get(jobID string) (Record, bool) {
	reg.mu.Lock()
	rec, ok := reg.jobs[jobID]
	reg.mu.Unlock()
	if !ok {
		return Record{}, false
	}
	return rec.snapshot(), true
}

// List returns up to limit jobs, newest StartedAt first.
func (reg *Registry) List(limit int) []Record {
	reg.mu.Lock()
	out := make([]Record, 0, len(reg.jobs))
	for _, rec := range reg.jobs {
		out = append(out, rec.snapshot())
	}
	reg.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Prune removes finished/failed records whose terminal timestamp is older
// than now-ttl. Running jobs are never pruned.
func (reg *Registry) Prune(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	pruned := 0
	for id, rec := range reg.jobs {
		rec.mu.Lock()
		terminal := rec.FinishedAt
		rec.mu.Unlock()

		if terminal != nil && terminal.Before(cutoff) {
			delete(reg.jobs, id)
			pruned++
		}
	}
	return pruned
}
