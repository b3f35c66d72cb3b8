package observability_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changemine/patcanon/internal/observability"
)

func TestNewTelemetry_MeterFeedsHandler(t *testing.T) {
	t.Parallel()

	tel, err := observability.NewTelemetry()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, tel.Shutdown(context.Background()))
	})

	counter, err := tel.Meter().Int64Counter("patcanon.test.events")
	require.NoError(t, err)

	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "patcanon_test_events")
}

func TestNewTelemetry_IndependentRegistries(t *testing.T) {
	t.Parallel()

	first, err := observability.NewTelemetry()
	require.NoError(t, err)

	second, err := observability.NewTelemetry()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, first.Shutdown(context.Background()))
		require.NoError(t, second.Shutdown(context.Background()))
	})

	counter, err := first.Meter().Int64Counter("patcanon.test.isolated")
	require.NoError(t, err)

	counter.Add(context.Background(), 1)

	rec := httptest.NewRecorder()
	second.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.NotContains(t, rec.Body.String(), "patcanon_test_isolated")
}
