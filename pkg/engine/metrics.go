package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("dyngrid.engine")
	meter  = otel.Meter("dyngrid.engine")
)

var (
	stepsTotal      metric.Int64Counter
	stepDuration    metric.Float64Histogram
	blocksEvaluated metric.Int64Counter
	blocksSkipped   metric.Int64Counter
	framesStored    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments once. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		stepsTotal, err = meter.Int64Counter("dyngrid_steps_total",
			metric.WithDescription("Timesteps completed across all replicates"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		stepDuration, err = meter.Float64Histogram("dyngrid_step_duration_seconds",
			metric.WithDescription("Wall time of one timestep including reduction"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		blocksEvaluated, err = meter.Int64Counter("dyngrid_blocks_evaluated_total",
			metric.WithDescription("Activity blocks evaluated by rule passes"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		blocksSkipped, err = meter.Int64Counter("dyngrid_blocks_skipped_total",
			metric.WithDescription("Inactive activity blocks skipped by rule passes"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		framesStored, err = meter.Int64Counter("dyngrid_frames_stored_total",
			metric.WithDescription("Frames handed to outputs"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordStep(ctx context.Context, d time.Duration, evaluated, skipped int, attrs ...attribute.KeyValue) {
	if err := initMetrics(); err != nil {
		return
	}
	opt := metric.WithAttributes(attrs...)
	stepsTotal.Add(ctx, 1, opt)
	stepDuration.Record(ctx, d.Seconds(), opt)
	blocksEvaluated.Add(ctx, int64(evaluated), opt)
	blocksSkipped.Add(ctx, int64(skipped), opt)
}

func recordFrame(ctx context.Context, attrs ...attribute.KeyValue) {
	if err := initMetrics(); err != nil {
		return
	}
	framesStored.Add(ctx, 1, metric.WithAttributes(attrs...))
}
