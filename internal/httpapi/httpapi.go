// Package httpapi is the echo-based HTTP control plane: start, stop, and
// one-off poll triggers, job status/listing, and the synchronous export
// endpoint, all backed by internal/jobs. Route registration, pagination,
// and error envelopes follow audit-service's handlers.go, generalized from
// read-only audit queries to job-control verbs.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arc-self/sync-service/internal/eventstream"
	"github.com/arc-self/sync-service/internal/exporter"
	"github.com/arc-self/sync-service/internal/jobs"
	"github.com/arc-self/sync-service/internal/model"
	"github.com/arc-self/sync-service/internal/scheduler"
)

const defaultJobListLimit = 50

// Deps bundles everything the control plane's handlers need. Every field
// is injected by cmd/syncd's composition root; the package holds no
// globals (spec §9).
type Deps struct {
	Registry        *jobs.Registry
	Scheduler       *scheduler.Scheduler
	Exporter        *exporter.Exporter
	Hub             *eventstream.Hub
	Logger          *zap.Logger
	DefaultInterval time.Duration

	// PollAll runs one poll run across every device; PollBranch scopes it
	// to one branch. Both return the run's summary.
	PollAll    func(ctx context.Context) model.RunSummary
	PollBranch func(ctx context.Context, branchID int64) model.RunSummary
}

// RegisterRoutes mounts every endpoint of spec §6's control-plane table.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	api.POST("/sync/start", startHandler(d))
	api.POST("/sync/stop", stopHandler(d))
	api.POST("/sync/one", pollOneHandler(d))
	api.POST("/sync/branch/:id", pollBranchHandler(d))
	api.GET("/sync/job/:id", jobStatusHandler(d))
	api.GET("/sync/jobs", listJobsHandler(d))
	api.POST("/admin/export/enddb", exportHandler(d))

	if d.Hub != nil {
		api.GET("/sync/stream", func(c echo.Context) error {
			d.Hub.ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}
}

type startRequest struct {
	IntervalSeconds int64 `json:"interval_seconds"`
}

func startHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req startRequest
		_ = c.Bind(&req) // an absent/empty body just means "use the default interval"

		interval := d.DefaultInterval
		if req.IntervalSeconds > 0 {
			interval = time.Duration(req.IntervalSeconds) * time.Second
		}

		jobID := d.Registry.Start(c.Request().Context(), jobs.TypeStartScheduler, 1,
			func(ctx context.Context, rec *jobs.Record) ([]any, error) {
				return nil, d.Scheduler.Start(ctx, interval)
			})

		return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID})
	}
}

func stopHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := d.Registry.Start(c.Request().Context(), jobs.TypeStopScheduler, 1,
			func(ctx context.Context, rec *jobs.Record) ([]any, error) {
				d.Scheduler.Stop()
				return nil, nil
			})

		return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID})
	}
}

func pollOneHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := d.Registry.Start(c.Request().Context(), jobs.TypePollAll, 1,
			func(ctx context.Context, rec *jobs.Record) ([]any, error) {
				summary := d.PollAll(ctx)
				return []any{summary}, nil
			})

		return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID})
	}
}

func pollBranchHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		branchID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errResp("invalid branch id"))
		}

		jobID := d.Registry.Start(c.Request().Context(), jobs.TypePollBranch, 1,
			func(ctx context.Context, rec *jobs.Record) ([]any, error) {
				summary := d.PollBranch(ctx, branchID)
				return []any{summary}, nil
			})

		return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID})
	}
}

func jobStatusHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, ok := d.Registry.Get(c.Param("id"))
		if !ok {
			return c.JSON(http.StatusNotFound, errResp("job not found"))
		}
		return c.JSON(http.StatusOK, rec)
	}
}

func listJobsHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := defaultJobListLimit
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"jobs": d.Registry.List(limit)})
	}
}

// exportHandler runs the exporter synchronously (spec §6: "run exporter
// synchronously"), still honoring the single global export lock so a
// concurrent scheduled/job-triggered export cannot overlap an admin-driven
// one (spec §8 "Export singleness").
func exportHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !d.Registry.AcquireExportLock() {
			return c.JSON(http.StatusOK, map[string]string{"error": jobs.ErrExportRunning.Error()})
		}
		defer d.Registry.ReleaseExportLock()

		result, err := d.Exporter.Run(c.Request().Context())
		if err != nil {
			d.Logger.Error("export failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, errResp(err.Error()))
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"result": result})
	}
}

func errResp(msg string) map[string]string {
	return map[string]string{"error": msg}
}
