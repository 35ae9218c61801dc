package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/sync-service/internal/jobs"
)

func waitForTerminal(t *testing.T, reg *jobs.Registry, jobID string) jobs.Record {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rec, ok := reg.Get(jobID)
		require.True(t, ok)
		if rec.Status != jobs.StatusRunning {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return jobs.Record{}
}

func TestStart_Success(t *testing.T) {
	reg := jobs.NewRegistry(zaptest.NewLogger(t))

	jobID := reg.Start(context.Background(), jobs.TypePollAll, 1, func(ctx context.Context, rec *jobs.Record) ([]any, error) {
		return []any{"done"}, nil
	})

	rec := waitForTerminal(t, reg, jobID)
	assert.Equal(t, jobs.StatusFinished, rec.Status)
	assert.Equal(t, []any{"done"}, rec.Results)
}

func TestStart_Failure(t *testing.T) {
	reg := jobs.NewRegistry(zaptest.NewLogger(t))

	jobID := reg.Start(context.Background(), jobs.TypeExportEndDB, 0, func(ctx context.Context, rec *jobs.Record) ([]any, error) {
		return nil, errors.New("boom")
	})

	rec := waitForTerminal(t, reg, jobID)
	assert.Equal(t, jobs.StatusFailed, rec.Status)
	assert.Equal(t, "boom", rec.Error)
}

func TestGet_UnknownJob(t *testing.T) {
	reg := jobs.NewRegistry(zaptest.NewLogger(t))
	_, ok := reg.Get("does-not-exist")
	assert.False(t, ok)
}

func TestExportLock_SerializesConcurrentExports(t *testing.T) {
	reg := jobs.NewRegistry(zaptest.NewLogger(t))

	require.True(t, reg.AcquireExportLock())
	assert.False(t, reg.AcquireExportLock(), "a second acquire must fail while the first is held")

	reg.ReleaseExportLock()
	assert.True(t, reg.AcquireExportLock(), "acquire must succeed again after release")
	reg.ReleaseExportLock()
}

func TestStartExport_FailsFastWhenAlreadyRunning(t *testing.T) {
	reg := jobs.NewRegistry(zaptest.NewLogger(t))

	block := make(chan struct{})
	_, err := reg.StartExport(context.Background(), func(ctx context.Context, rec *jobs.Record) ([]any, error) {
		<-block
		return nil, nil
	})
	require.NoError(t, err)

	_, err = reg.StartExport(context.Background(), func(ctx context.Context, rec *jobs.Record) ([]any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, jobs.ErrExportRunning)

	close(block)
}

func TestPrune_RemovesOnlyOldTerminalJobs(t *testing.T) {
	reg := jobs.NewRegistry(zaptest.NewLogger(t))

	jobID := reg.Start(context.Background(), jobs.TypePollAll, 1, func(ctx context.Context, rec *jobs.Record) ([]any, error) {
		return nil, nil
	})
	waitForTerminal(t, reg, jobID)

	pruned := reg.Prune(time.Hour)
	assert.Zero(t, pruned, "a job finished moments ago is not older than the TTL")

	pruned = reg.Prune(0)
	assert.Equal(t, 1, pruned)

	_, ok := reg.Get(jobID)
	assert.False(t, ok)
}

func TestList_NewestFirst(t *testing.T) {
	reg := jobs.NewRegistry(zaptest.NewLogger(t))

	first := reg.Start(context.Background(), jobs.TypePollAll, 1, func(ctx context.Context, rec *jobs.Record) ([]any, error) { return nil, nil })
	waitForTerminal(t, reg, first)
	time.Sleep(5 * time.Millisecond)
	second := reg.Start(context.Background(), jobs.TypePollAll, 1, func(ctx context.Context, rec *jobs.Record) ([]any, error) { return nil, nil })
	waitForTerminal(t, reg, second)

	list := reg.List(10)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].JobID)
}
