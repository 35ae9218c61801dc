// Package workerpool dispatches one poll run's per-device fetches across a
// bounded-parallelism pool (spec §4.5), built on sourcegraph/conc/pool.
// safeFetch recovers a panic inside a single device's goroutine and
// records it as an error on that device's result rather than killing the
// whole run.
package workerpool

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/arc-self/sync-service/internal/model"
)

// FetchFunc runs the fetcher for one device and returns the number of newly
// committed events. Implementations must not panic across the goroutine
// boundary (spec §10.3) — safeFetch recovers panics regardless, surfacing
// them as an error result, but the fetcher itself converts failures to
// error values per §4.3's failure policy.
type FetchFunc func(ctx context.Context, d model.Device) (int, error)

// Dispatcher fans a poll run's devices out across size workers.
type Dispatcher struct {
	size int
}

// New constructs a Dispatcher with the given worker count (MAX_POLL_WORKERS,
// default 10 per spec §6).
func New(size int) *Dispatcher {
	if size <= 0 {
		size = 10
	}
	return &Dispatcher{size: size}
}

// Run dispatches fetch across devices concurrently, bounded by the
// dispatcher's size, and returns one DeviceResult per device in
// completion order (spec §4.5: "no ordering guarantee across devices").
func (d *Dispatcher) Run(ctx context.Context, devices []model.Device, fetch FetchFunc) []model.DeviceResult {
	p := pool.New().WithMaxGoroutines(d.size)

	var mu sync.Mutex
	results := make([]model.DeviceResult, 0, len(devices))

	for _, dev := range devices {
		dev := dev
		p.Go(func() {
			count, err := safeFetch(ctx, dev, fetch)

			res := model.DeviceResult{
				DeviceID:  dev.ID,
				Name:      dev.Name,
				Fetched:   count,
				Timestamp: time.Now().UTC(),
			}
			if err != nil {
				res.Error = err.Error()
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		})
	}

	p.Wait()
	return results
}

// safeFetch recovers a panic from fetch and turns it into an error result,
// so one misbehaving device can never abort the run for the others.
func safeFetch(ctx context.Context, dev model.Device, fetch FetchFunc) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			count = 0
			err = panicError{dev: dev.Name, r: r}
		}
	}()
	return fetch(ctx, dev)
}

type panicError struct {
	dev string
	r   interface{}
}

func (p panicError) Error() string {
	return "workerpool: recovered panic fetching " + p.dev
}
