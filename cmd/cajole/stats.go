package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/observability"
	"bennypowers.dev/cajoler/internal/quasi"
)

// cacheStats collects pattern cache metrics for one run.
type cacheStats struct {
	builder  *quasi.Builder
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	reg      metric.Registration
}

func newCacheStats(cfg config.Config) (*cacheStats, error) {
	s := &cacheStats{
		builder: quasi.NewBuilder(quasi.WithCache(quasi.NewCache(cfg.CacheSize()))),
		reader:  sdkmetric.NewManualReader(),
	}
	s.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(s.reader))

	reg, err := observability.RegisterPatternCacheMetrics(s.provider.Meter("cajole"),
		observability.NamedCache{Name: "cli", Cache: s.builder.Cache()})
	if err != nil {
		return nil, err
	}
	s.reg = reg
	return s, nil
}

// Write prints each gauge as "name value".
func (s *cacheStats) Write(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}

	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			g, ok := m.Data.(metricdata.Gauge[int64])
			if !ok {
				continue
			}
			for _, dp := range g.DataPoints {
				lines = append(lines, fmt.Sprintf("%s %d", m.Name, dp.Value))
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func (s *cacheStats) Close() {
	if s.reg != nil {
		_ = s.reg.Unregister()
	}
	_ = s.provider.Shutdown(context.Background())
}
