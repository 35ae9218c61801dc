// Package scheduler is the singleton recurring poll trigger: start(interval)
// registers a periodic job with max_instances=1 semantics, plus a companion
// job-prune task; stop() deregisters both. Wraps robfig/cron/v3 the way a
// notification service wraps it for tick-publishing, generalized here to
// running a poll run in-process.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PollFunc runs one poll run to completion. The scheduler calls it
// synchronously from the cron tick goroutine, relying on the in-flight
// guard below to implement max_instances=1 / misfire_grace_time skip-if-busy.
type PollFunc func(ctx context.Context)

// PruneFunc runs the job registry's TTL prune.
type PruneFunc func()

// Scheduler wraps a robfig/cron instance. Exactly one instance is owned by
// the application root (spec §9 "no ambient globals" — Start/Stop are
// methods on this value, never package-level functions).
type Scheduler struct {
	cron   *cron.Cron
	poll   PollFunc
	prune  PruneFunc
	logger *zap.Logger

	mu        sync.Mutex
	running   bool
	pollEntry cron.EntryID
	pruneEntry cron.EntryID

	inFlight atomic.Bool
}

// New constructs a Scheduler. poll runs a full device sweep; prune runs the
// job registry's TTL prune, registered alongside it (spec §4.6, §12).
func New(poll PollFunc, prune PruneFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		poll:   poll,
		prune:  prune,
		logger: logger,
	}
}

// Start registers the periodic poll job at the given interval and a
// companion prune job every minute, then starts the cron runtime. Re-entrant
// calls while already running are a no-op, matching spec §4.6.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Info("scheduler: start called while already running, ignoring")
		return nil
	}

	spec := secondsCronSpec(interval)
	pollID, err := s.cron.AddFunc(spec, func() { s.runPoll(ctx) })
	if err != nil {
		return err
	}
	pruneID, err := s.cron.AddFunc("@every 1m", s.prune)
	if err != nil {
		s.cron.Remove(pollID)
		return err
	}

	s.pollEntry = pollID
	s.pruneEntry = pruneID
	s.running = true
	s.cron.Start()

	s.logger.Info("scheduler started", zap.Duration("interval", interval))
	return nil
}

// Stop deregisters both jobs and waits for any already-dispatched run to
// return before shutting the cron runtime down.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Remove(s.pollEntry)
	s.cron.Remove(s.pruneEntry)
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false

	s.logger.Info("scheduler stopped")
}

// Running reports whether the scheduler currently has jobs registered.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runPoll implements max_instances=1 / misfire_grace_time=300s: if the
// previous tick's poll run is still in flight, this tick is skipped
// entirely rather than queued.
func (s *Scheduler) runPoll(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("scheduler: previous poll run still in flight, skipping this tick")
		return
	}
	defer s.inFlight.Store(false)

	s.poll(ctx)
}

// secondsCronSpec builds a robfig/cron (with-seconds) spec that fires every
// interval, rounded down to whole seconds (minimum 1s).
func secondsCronSpec(interval time.Duration) string {
	secs := int(interval.Seconds())
	if secs < 1 {
		secs = 1
	}
	return "@every " + time.Duration(secs*int(time.Second)).String()
}
