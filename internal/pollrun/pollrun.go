// Package pollrun ties together the run logger, worker pool, and fetcher
// into the poll-run orchestration of spec §4.5: open a run-scoped logfile,
// dispatch devices across the worker pool, write the JSON summary footer,
// and optionally enqueue an export. Grounded on the original's
// scheduler.py:_poll_all_for_scheduler, rewritten around the Go worker
// pool instead of a ThreadPoolExecutor.
package pollrun

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arc-self/sync-service/internal/db"
	"github.com/arc-self/sync-service/internal/fetcher"
	"github.com/arc-self/sync-service/internal/jobs"
	"github.com/arc-self/sync-service/internal/model"
	"github.com/arc-self/sync-service/internal/natsbus"
	"github.com/arc-self/sync-service/internal/runlog"
	"github.com/arc-self/sync-service/internal/workerpool"
)

// Runner executes poll runs over all devices or a single branch.
type Runner struct {
	q          db.Querier
	dispatcher *workerpool.Dispatcher
	fetch      *fetcher.Fetcher
	logDir     string
	baseLogger *zap.Logger
	bus        *natsbus.Bus

	exportAfterPoll bool
	startExport     func(ctx context.Context)
}

// New constructs a Runner. startExport is invoked (non-blocking, already
// launched as its own job by the caller) after a run completes when
// exportAfterPoll is true (spec §4.5, §12).
func New(q db.Querier, dispatcher *workerpool.Dispatcher, fetch *fetcher.Fetcher, logDir string, baseLogger *zap.Logger, bus *natsbus.Bus, exportAfterPoll bool, startExport func(ctx context.Context)) *Runner {
	return &Runner{
		q:               q,
		dispatcher:      dispatcher,
		fetch:           fetch,
		logDir:          logDir,
		baseLogger:      baseLogger,
		bus:             bus,
		exportAfterPoll: exportAfterPoll,
		startExport:     startExport,
	}
}

// RunAll polls every device.
func (r *Runner) RunAll(ctx context.Context) model.RunSummary {
	devices, err := r.q.ListDevices(ctx)
	if err != nil {
		r.baseLogger.Error("pollrun: list devices failed", zap.Error(err))
		return model.RunSummary{Start: time.Now().UTC(), End: time.Now().UTC()}
	}
	return r.run(ctx, devices)
}

// RunBranch polls only the devices belonging to branchID.
func (r *Runner) RunBranch(ctx context.Context, branchID int64) model.RunSummary {
	devices, err := r.q.ListDevicesByBranch(ctx, branchID)
	if err != nil {
		r.baseLogger.Error("pollrun: list devices by branch failed", zap.Int64("branch_id", branchID), zap.Error(err))
		return model.RunSummary{Start: time.Now().UTC(), End: time.Now().UTC()}
	}
	return r.run(ctx, devices)
}

func (r *Runner) run(ctx context.Context, devices []model.Device) model.RunSummary {
	run, err := runlog.Start(r.logDir, r.baseLogger)
	if err != nil {
		r.baseLogger.Error("pollrun: could not start run capture", zap.Error(err))
		run = &runlog.Run{} // degrade to a no-op run rather than abort the poll
	}
	logger := r.baseLogger
	if run.Logger() != nil {
		logger = run.Logger()
	}

	logger.Info("poll run dispatching devices", zap.Int("device_count", len(devices)))
	r.publish(natsbus.Event{Type: "console", Level: natsbus.LevelInfo, Message: "poll run started"})

	results := r.dispatcher.Run(ctx, devices, r.fetch.Fetch)

	totalNew := 0
	var exceptions []model.DeviceResult
	for _, res := range results {
		totalNew += res.Fetched
		if res.Error != "" {
			exceptions = append(exceptions, res)
			logger.Error("device poll failed", zap.String("device", res.Name), zap.String("error", res.Error))
		} else {
			logger.Info("device polled", zap.String("device", res.Name), zap.Int("fetched", res.Fetched))
		}
		r.publish(natsbus.Event{
			Type:       "device_status",
			Level:      natsbus.LevelInfo,
			DeviceID:   &res.DeviceID,
			DeviceName: res.Name,
			Message:    "device poll complete",
			Extra:      res,
		})
	}

	if totalNew > 0 {
		r.publish(natsbus.Event{Type: "new_logs_batch", Level: natsbus.LevelNew, Message: "new attendance events", Extra: map[string]int{"count": totalNew}})
	}

	summary := run.Finish(len(devices), totalNew, exceptions)
	logger.Info("poll run complete", zap.Int("new_events", totalNew), zap.Float64("elapsed_seconds", summary.ElapsedSeconds))

	if r.exportAfterPoll && r.startExport != nil {
		r.startExport(ctx)
	}

	return summary
}

func (r *Runner) publish(ev natsbus.Event) {
	if r.bus == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	if err := r.bus.Publish(ev); err != nil {
		r.baseLogger.Warn("pollrun: failed to publish event", zap.Error(err))
	}
}

// PruneJobs adapts a jobs.Registry's Prune into the PruneFunc shape
// internal/scheduler expects, kept here so main.go doesn't need its own
// closure plumbing.
func PruneJobs(reg *jobs.Registry, ttl time.Duration) func() {
	return func() { reg.Prune(ttl) }
}
