// Package exporter implements the batched, idempotent writer of spec §4.8:
// select unexported AttendanceEvents, duplicate-probe each against the end
// table, and either mark it exported (probe hit) or insert it then mark it
// exported. Ported from the Python original's exporter.py
// (export_attendance_direct), replacing SQLAlchemy's engine.begin() with a
// pgxpool connection dedicated to the end database.
package exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arc-self/sync-service/internal/db"
	"github.com/arc-self/sync-service/internal/model"
)

// Config carries the exporter tunables of spec §6.
type Config struct {
	BatchSize        int32
	LookbackDays     int
	TargetTable      string
	LogOffsetMinutes int // spec §9 open question; default 0
}

// Exporter runs spec §4.8 against a source querier (the operational DB)
// and a dedicated end-DB pool.
type Exporter struct {
	source db.Querier
	end    *pgxpool.Pool
	cfg    Config
	logger *zap.Logger
}

// New constructs an Exporter. end must point at the downstream reporting
// database; source is bound to the operational database's pool.
func New(source db.Querier, end *pgxpool.Pool, cfg Config, logger *zap.Logger) *Exporter {
	if cfg.TargetTable == "" {
		cfg.TargetTable = "att_raw_data_old"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1500
	}
	return &Exporter{source: source, end: end, cfg: cfg, logger: logger}
}

// Run selects up to cfg.BatchSize unexported events and ships each to the
// end table, honoring the lookback window.
func (e *Exporter) Run(ctx context.Context) (model.ExportResult, error) {
	return e.run(ctx, false)
}

// runDryRun runs the same pipeline but counts rows as exported without
// inserting into the end table or marking the source row. Nothing in the
// service or its tests calls it.
func (e *Exporter) runDryRun(ctx context.Context) (model.ExportResult, error) {
	return e.run(ctx, true)
}

func (e *Exporter) run(ctx context.Context, dryRun bool) (model.ExportResult, error) {
	var lookback *time.Time
	if e.cfg.LookbackDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -e.cfg.LookbackDays)
		lookback = &cutoff
	}

	rows, err := e.source.ListUnexportedEvents(ctx, db.ListUnexportedEventsParams{
		Limit:    e.cfg.BatchSize,
		Lookback: lookback,
	})
	if err != nil {
		return model.ExportResult{}, fmt.Errorf("exporter: list unexported: %w", err)
	}

	result := model.ExportResult{}
	if len(rows) == 0 {
		return result, nil
	}

	// spec §4.8/§5: the batch runs under a single end-DB transaction. Each
	// row gets its own savepoint so a row that the end DB rejects rolls
	// back only that row's work — rows already committed earlier in the
	// batch are not retried next run. The first row error stops the batch
	// (scenario 6): rows after the failing one are left unexported and
	// picked up by the next run.
	tx, err := e.end.Begin(ctx)
	if err != nil {
		return model.ExportResult{}, fmt.Errorf("exporter: begin end-db transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ev := range rows {
		if err := e.exportRow(ctx, tx, ev, dryRun, &result); err != nil {
			result.Errors++
			e.logger.Error("exporter: row failed, stopping batch", zap.Int64("event_id", ev.ID), zap.Error(err))
			break
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("exporter: commit end-db transaction: %w", err)
	}
	return result, nil
}

// exportRow runs the single-row pipeline of spec §4.8 steps 1-5 inside its
// own savepoint on tx.
func (e *Exporter) exportRow(ctx context.Context, tx pgx.Tx, ev model.AttendanceEvent, dryRun bool, result *model.ExportResult) error {
	badge := ev.DeviceUserID
	if badge == "" {
		badge = ev.UserID
	}
	if badge == "" {
		result.SkippedEmptyUser++
		return nil
	}

	logDT := ev.Timestamp.Add(-time.Duration(e.cfg.LogOffsetMinutes) * time.Minute)
	logDate := logDT.Format("2006-01-02")
	logTime := logDT.Format("15:04:05")

	device, err := e.source.GetDevice(ctx, ev.DeviceID)
	accessDoor := ""
	if err == nil {
		accessDoor = device.Serial
	}
	accessDevice := "ZKT-FLASK-" + accessDoor

	savepoint, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}

	exists, err := e.duplicateExists(ctx, savepoint, logDate, badge, logTime, accessDevice)
	if err != nil {
		_ = savepoint.Rollback(ctx)
		return fmt.Errorf("duplicate probe: %w", err)
	}

	if exists {
		if err := savepoint.Commit(ctx); err != nil {
			return fmt.Errorf("commit savepoint: %w", err)
		}
		result.SkippedExisting++
		if dryRun {
			return nil
		}
		return e.markExported(ctx, ev.ID)
	}

	if dryRun {
		_ = savepoint.Rollback(ctx)
		result.Exported++
		return nil
	}

	if err := e.insertRow(ctx, savepoint, logDate, badge, logTime, accessDoor, accessDevice); err != nil {
		_ = savepoint.Rollback(ctx)
		return fmt.Errorf("insert: %w", err)
	}
	if err := savepoint.Commit(ctx); err != nil {
		return fmt.Errorf("commit savepoint: %w", err)
	}
	result.Exported++

	return e.markExported(ctx, ev.ID)
}

func (e *Exporter) duplicateExists(ctx context.Context, tx pgx.Tx, logDate, badge, logTime, accessDevice string) (bool, error) {
	row := tx.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(1) FROM %s WHERE log_date = $1 AND badge = $2 AND log_time = $3 AND access_device = $4`,
		e.cfg.TargetTable),
		logDate, badge, logTime, accessDevice)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (e *Exporter) insertRow(ctx context.Context, tx pgx.Tx, logDate, badge, logTime, accessDoor, accessDevice string) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (log_date, badge, badge_dup, placeholder, log_time, flag, access_door, batch, access_device)
		 VALUES ($1, $2, $2, '', $3, '0', $4, '', $5)`,
		e.cfg.TargetTable),
		logDate, badge, logTime, accessDoor, accessDevice)
	return err
}

func (e *Exporter) markExported(ctx context.Context, eventID int64) error {
	if err := e.source.MarkEventExported(ctx, eventID); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}
