package observability_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changemine/patcanon/internal/observability"
)

func TestRunMetrics_RecordsThroughHandler(t *testing.T) {
	t.Parallel()

	tel, err := observability.NewTelemetry()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, tel.Shutdown(context.Background()))
	})

	rm, err := observability.NewRunMetrics(tel.Meter())
	require.NoError(t, err)

	ctx := context.Background()

	done := rm.TrackInflight(ctx)
	rm.RecordStage(ctx, "canonicalize", 10*time.Millisecond, false)
	rm.RecordStage(ctx, "align", 25*time.Millisecond, true)
	rm.RecordPattern(ctx, observability.StatusOK)
	done()

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "patcanon_patterns")
	assert.Contains(t, body, "patcanon_stage_duration_seconds")
	assert.Contains(t, body, "patcanon_failures")
	assert.Contains(t, body, `stage="align"`)
}
