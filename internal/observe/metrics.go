// Package observe provides OpenTelemetry metrics for the converter service
// and the HTTP middleware that records request latency.
//
// Tests should build a [Metrics] with [NewMetrics] over their own
// [metric.MeterProvider] instead of the global one.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all spaceconvert metrics
const meterName = "github.com/ion-space/spaceconvert"

// Metrics holds the service's metric instruments
type Metrics struct {
	// Conversions counts finished jobs. Attributes: kind, status.
	Conversions metric.Int64Counter

	// ConversionDuration tracks how long a job took end to end. Attributes: kind.
	ConversionDuration metric.Float64Histogram

	// BytesDelivered counts WAV bytes handed to clients
	BytesDelivered metric.Int64Counter

	// ActiveJobs tracks jobs currently running
	ActiveJobs metric.Int64UpDownCounter

	// RateLimited counts requests rejected with 429
	RateLimited metric.Int64Counter

	// HTTPRequestDuration tracks request processing time. Attributes: method, path, status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates all instruments on mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Conversions, err = m.Int64Counter("spaceconvert.conversions",
		metric.WithDescription("Number of finished conversion jobs."),
	); err != nil {
		return nil, err
	}
	if met.ConversionDuration, err = m.Float64Histogram("spaceconvert.conversion.duration",
		metric.WithDescription("Time from job start to delivery."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BytesDelivered, err = m.Int64Counter("spaceconvert.bytes_delivered",
		metric.WithDescription("WAV bytes delivered to clients."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.ActiveJobs, err = m.Int64UpDownCounter("spaceconvert.active_jobs",
		metric.WithDescription("Conversion jobs in progress."),
	); err != nil {
		return nil, err
	}
	if met.RateLimited, err = m.Int64Counter("spaceconvert.http.rate_limited",
		metric.WithDescription("Requests rejected by the rate limiter."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("spaceconvert.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// JobStarted marks a job as running and returns a func that records its outcome
func (m *Metrics) JobStarted(ctx context.Context, kind string) func(size int, err error) {
	start := time.Now()
	kindAttr := attribute.String("kind", kind)
	m.ActiveJobs.Add(ctx, 1, metric.WithAttributes(kindAttr))

	return func(size int, err error) {
		m.ActiveJobs.Add(ctx, -1, metric.WithAttributes(kindAttr))

		status := "ok"
		if err != nil {
			status = "error"
		}
		m.Conversions.Add(ctx, 1, metric.WithAttributes(kindAttr, attribute.String("status", status)))
		m.ConversionDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(kindAttr))
		if err == nil && size > 0 {
			m.BytesDelivered.Add(ctx, int64(size))
		}
	}
}
