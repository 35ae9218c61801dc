package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/sync-service/internal/telemetry"
)

// otlpgrpc exporters dial lazily, so InitTracer/InitMeterProvider succeed
// without a live collector listening on the target endpoint — only
// Shutdown's flush attempt would fail, which these tests don't exercise.

func TestInitTracer_RegistersAProvider(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.InitTracer(ctx, "sync-service-test", "localhost:4317")
	require.NoError(t, err)
	require.NotNil(t, tp)

	tr := telemetry.Tracer("sync-service-test")
	assert.NotNil(t, tr)
}

func TestInitMeterProvider_RegistersAProvider(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.InitMeterProvider(ctx, "sync-service-test", "localhost:4317")
	require.NoError(t, err)
	assert.NotNil(t, mp)
}
