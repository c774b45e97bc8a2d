// Package observability exports cajoler internals as OpenTelemetry
// instruments.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"bennypowers.dev/cajoler/internal/quasi"
)

const (
	metricCacheHits     = "cajoler.quasi.cache.hits"
	metricCacheMisses   = "cajoler.quasi.cache.misses"
	metricCacheSize     = "cajoler.quasi.cache.size"
	metricCacheCompiles = "cajoler.quasi.cache.compiles"
)

// PatternCacheStatsProvider exposes pattern cache counters for export.
type PatternCacheStatsProvider interface {
	Stats() quasi.CacheStats
}

// NamedCache labels a cache in exported metrics.
type NamedCache struct {
	Name  string
	Cache PatternCacheStatsProvider
}

// RegisterPatternCacheMetrics registers observable gauges reporting the
// counters of each cache, labelled with its name. Nil caches are skipped.
func RegisterPatternCacheMetrics(mt metric.Meter, caches ...NamedCache) (metric.Registration, error) {
	var live []NamedCache
	for _, c := range caches {
		if c.Cache != nil {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		return nil, nil
	}

	hits, err := mt.Int64ObservableGauge(metricCacheHits,
		metric.WithDescription("Pattern cache lookups answered from the cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHits, err)
	}
	misses, err := mt.Int64ObservableGauge(metricCacheMisses,
		metric.WithDescription("Pattern cache lookups that had to compile"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMisses, err)
	}
	size, err := mt.Int64ObservableGauge(metricCacheSize,
		metric.WithDescription("Compiled patterns currently cached"),
		metric.WithUnit("{pattern}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheSize, err)
	}
	compiles, err := mt.Int64ObservableGauge(metricCacheCompiles,
		metric.WithDescription("Patterns compiled on behalf of the cache"),
		metric.WithUnit("{pattern}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheCompiles, err)
	}

	reg, err := mt.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		for _, c := range live {
			stats := c.Cache.Stats()
			attrs := metric.WithAttributes(attribute.String("cache", c.Name))
			obs.ObserveInt64(hits, stats.Hits, attrs)
			obs.ObserveInt64(misses, stats.Misses, attrs)
			obs.ObserveInt64(size, int64(stats.Entries), attrs)
			obs.ObserveInt64(compiles, stats.Compiles, attrs)
		}
		return nil
	}, hits, misses, size, compiles)
	if err != nil {
		return nil, fmt.Errorf("register pattern cache metrics callback: %w", err)
	}
	return reg, nil
}
