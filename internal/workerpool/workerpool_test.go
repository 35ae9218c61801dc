package workerpool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/sync-service/internal/model"
	"github.com/arc-self/sync-service/internal/workerpool"
)

func devices(n int) []model.Device {
	out := make([]model.Device, n)
	for i := range out {
		out[i] = model.Device{ID: int64(i + 1), Name: "device"}
	}
	return out
}

func TestRun_CollectsOneResultPerDevice(t *testing.T) {
	d := workerpool.New(4)

	results := d.Run(context.Background(), devices(5), func(ctx context.Context, dev model.Device) (int, error) {
		return int(dev.ID), nil
	})

	require.Len(t, results, 5)
	total := 0
	for _, r := range results {
		assert.Empty(t, r.Error)
		total += r.Fetched
	}
	assert.Equal(t, 1+2+3+4+5, total)
}

func TestRun_DeviceErrorDoesNotAbortOthers(t *testing.T) {
	d := workerpool.New(2)

	results := d.Run(context.Background(), devices(3), func(ctx context.Context, dev model.Device) (int, error) {
		if dev.ID == 2 {
			return 0, errors.New("connect failed")
		}
		return 1, nil
	})

	require.Len(t, results, 3)
	var failed, succeeded int
	for _, r := range results {
		if r.Error != "" {
			failed++
		} else {
			succeeded++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, succeeded)
}

func TestRun_PanicIsRecoveredAsAnErrorResult(t *testing.T) {
	d := workerpool.New(1)

	results := d.Run(context.Background(), devices(1), func(ctx context.Context, dev model.Device) (int, error) {
		panic("device driver exploded")
	})

	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Error)
}

func TestNew_DefaultsToTenWhenSizeNonPositive(t *testing.T) {
	d := workerpool.New(0)
	results := d.Run(context.Background(), devices(1), func(ctx context.Context, dev model.Device) (int, error) {
		return 0, nil
	})
	assert.Len(t, results, 1)
	_ = d
}
