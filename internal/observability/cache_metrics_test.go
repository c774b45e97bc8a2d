package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"bennypowers.dev/cajoler/internal/observability"
	"bennypowers.dev/cajoler/internal/quasi"
)

func gauge(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Gauge[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				g, ok := m.Data.(metricdata.Gauge[int64])
				require.True(t, ok, "%s is %T", name, m.Data)
				return g
			}
		}
	}
	require.Failf(t, "metric not found", "%s", name)
	return metricdata.Gauge[int64]{}
}

// TestPatternCacheMetrics tests that gauges follow the cache counters
func TestPatternCacheMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	b := quasi.NewBuilder(quasi.WithCache(quasi.NewCache(2)))
	_, err := observability.RegisterPatternCacheMetrics(mp.Meter("test"),
		observability.NamedCache{Name: "default", Cache: b.Cache()})
	require.NoError(t, err)

	b.MustCompile("f(@a)")
	b.MustCompile("f(@a)")
	b.MustCompile("g(@a)")
	b.MustCompile("h(@a)")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	want := map[string]int64{
		"cajoler.quasi.cache.hits":     1,
		"cajoler.quasi.cache.misses":   3,
		"cajoler.quasi.cache.size":     2,
		"cajoler.quasi.cache.compiles": 3,
	}
	for name, v := range want {
		g := gauge(t, rm, name)
		require.Len(t, g.DataPoints, 1, name)
		assert.Equal(t, v, g.DataPoints[0].Value, name)
		cache, ok := g.DataPoints[0].Attributes.Value("cache")
		require.True(t, ok)
		assert.Equal(t, "default", cache.AsString())
	}
}

func TestRegisterPatternCacheMetricsWithoutCaches(t *testing.T) {
	reg, err := observability.RegisterPatternCacheMetrics(noopmetric.NewMeterProvider().Meter("test"),
		observability.NamedCache{Name: "none"})
	require.NoError(t, err)
	assert.Nil(t, reg)
}
