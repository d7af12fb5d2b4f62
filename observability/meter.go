package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/scribeflow/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the pipeline's metric instruments.
type Metrics struct {
	stageDuration  metric.Float64Histogram
	jobTransitions metric.Int64Counter
	lockWait       metric.Float64Histogram
	lockHold       metric.Float64Histogram
	chunksPerJob   metric.Int64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	stageDuration, err := meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Duration of one pipeline stage invocation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.duration histogram: %w", err)
	}

	jobTransitions, err := meter.Int64Counter("jobs.transitions",
		metric.WithDescription("Job status transitions by task type and new status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.transitions counter: %w", err)
	}

	lockWait, err := meter.Float64Histogram("foreman.lock.wait",
		metric.WithDescription("Time spent waiting to acquire the accelerator lock in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating foreman.lock.wait histogram: %w", err)
	}

	lockHold, err := meter.Float64Histogram("foreman.lock.hold",
		metric.WithDescription("Time the accelerator lock was held in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating foreman.lock.hold histogram: %w", err)
	}

	chunksPerJob, err := meter.Int64Histogram("pipeline.chunks",
		metric.WithDescription("Chunks produced per segmented audio job"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.chunks histogram: %w", err)
	}

	return &Metrics{
		stageDuration:  stageDuration,
		jobTransitions: jobTransitions,
		lockWait:       lockWait,
		lockHold:       lockHold,
		chunksPerJob:   chunksPerJob,
	}, nil
}

// RecordStage records one stage invocation.
func (m *Metrics) RecordStage(ctx context.Context, stage, status string, duration time.Duration) {
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordTransition records a job status change.
func (m *Metrics) RecordTransition(ctx context.Context, taskType, status string) {
	m.jobTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordLock records one acquire/release cycle of the accelerator lock.
func (m *Metrics) RecordLock(ctx context.Context, taskType string, wait, hold time.Duration) {
	attrs := metric.WithAttributes(attribute.String("task_type", taskType))
	m.lockWait.Record(ctx, wait.Seconds(), attrs)
	m.lockHold.Record(ctx, hold.Seconds(), attrs)
}

// RecordChunks records how many chunks a segmented job produced.
func (m *Metrics) RecordChunks(ctx context.Context, n int) {
	m.chunksPerJob.Record(ctx, int64(n))
}
