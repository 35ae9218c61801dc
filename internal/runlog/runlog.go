// Package runlog captures one poll run's structured log output into a
// timestamped file and appends a JSON summary footer, mirroring the
// original's _MultiWriter/start_run_capture/RUN_SUMMARY_JSON trio but
// built on zapcore instead of stdout/stderr redirection.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arc-self/sync-service/internal/model"
)

// Run owns one poll run's logfile. Logger() returns a *zap.Logger that
// tees every record to (a) the process's base logger and (b) this run's
// file — the same multiplex the original's _MultiWriter performed over
// stdout/stderr, replacing string concatenation with zap's structured
// encoder.
type Run struct {
	path   string
	file   *os.File
	logger *zap.Logger
	start  time.Time
}

// Start opens {dir}/zk_sync_{YYYYMMDD_HHMMSS}.log and returns a Run whose
// Logger tees into it alongside base.
func Start(dir string, base *zap.Logger) (*Run, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("runlog: mkdir %s: %w", dir, err)
	}

	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("zk_sync_%s.log", now.Format("20060102_150405")))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}

	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(f),
		zap.DebugLevel,
	)

	logger := base
	if base != nil {
		logger = base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	} else {
		logger = zap.New(fileCore)
	}

	logger.Info("run capture started", zap.String("logfile", path))

	return &Run{path: path, file: f, logger: logger, start: now}, nil
}

// Logger returns the tee'd logger for the duration of the run.
func (r *Run) Logger() *zap.Logger { return r.logger }

// Path returns the run's logfile path.
func (r *Run) Path() string { return r.path }

// Finish writes the JSON summary footer (the RUN_SUMMARY_JSON line of the
// original) and closes the logfile.
func (r *Run) Finish(devicesPolled, newEvents int, exceptions []model.DeviceResult) model.RunSummary {
	end := time.Now()
	summary := model.RunSummary{
		Start:          r.start,
		End:            end,
		DevicesPolled:  devicesPolled,
		NewEvents:      newEvents,
		ElapsedSeconds: end.Sub(r.start).Seconds(),
		Exceptions:     exceptions,
		Logfile:        r.path,
	}

	if b, err := json.Marshal(summary); err == nil {
		fmt.Fprintf(r.file, "\nRUN_SUMMARY_JSON: %s\n", b)
	}
	_ = r.file.Sync()
	_ = r.file.Close()

	return summary
}

// AppendUnmappedCSV appends one badge to the daily unmapped-identifier
// audit file {dir}/access_unmapped_{serial}_{YYYYMMDD}.csv, writing the
// header on first create (spec §4.3 step 8 / §6).
func AppendUnmappedCSV(dir, serial, deviceUserID string, when time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("runlog: mkdir %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("access_unmapped_%s_%s.csv", serial, when.Format("20060102")))

	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("runlog: open %s: %w", path, err)
	}
	defer f.Close()

	if needsHeader {
		if _, err := f.WriteString("badge\n"); err != nil {
			return fmt.Errorf("runlog: write header: %w", err)
		}
	}
	_, err = f.WriteString(deviceUserID + "\n")
	return err
}
