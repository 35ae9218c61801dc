package lock_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/sync-service/internal/lock"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	reg := lock.NewRegistry(dir, time.Minute, time.Second)

	h, err := reg.Acquire("ZK-001")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "access_lock_ZK-001"))
	require.NoError(t, err)

	h.Release()
	_, err = os.Stat(filepath.Join(dir, "access_lock_ZK-001"))
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireTimesOutWhenHeld(t *testing.T) {
	dir := t.TempDir()
	reg := lock.NewRegistry(dir, time.Hour, 100*time.Millisecond)

	h, err := reg.Acquire("ZK-002")
	require.NoError(t, err)
	defer h.Release()

	_, err = reg.Acquire("ZK-002")
	assert.ErrorIs(t, err, lock.ErrTimeout)
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	dir := t.TempDir()
	reg := lock.NewRegistry(dir, 10*time.Millisecond, time.Second)

	h, err := reg.Acquire("ZK-003")
	require.NoError(t, err)
	_ = h // simulate a crashed holder: never released

	time.Sleep(50 * time.Millisecond)

	h2, err := reg.Acquire("ZK-003")
	require.NoError(t, err)
	h2.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	reg := lock.NewRegistry(dir, time.Minute, time.Second)

	h, err := reg.Acquire("ZK-004")
	require.NoError(t, err)

	h.Release()
	assert.NotPanics(t, func() { h.Release() })
}
