package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

// pipeline is the lifecycle shared by the trace, metric and log exporters.
// A zero pipeline (signal disabled) flushes and stops as a no-op.
type pipeline struct {
	signal   string
	logger   *zap.Logger
	flush    func(context.Context) error
	shutdown func(context.Context) error
}

func newPipeline(signal string, logger *zap.Logger) pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return pipeline{signal: signal, logger: logger.With(zap.String("signal", signal))}
}

func (p *pipeline) running() bool {
	return p.shutdown != nil
}

func (p *pipeline) forceFlush(ctx context.Context) error {
	if p.flush == nil {
		return nil
	}
	return p.flush(ctx)
}

// stop flushes and shuts the exporter down, bounded by shutdownTimeout
func (p *pipeline) stop(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	p.logger.Info("Stopping OpenTelemetry pipeline")

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.shutdown(ctx); err != nil {
		p.logger.Error("OpenTelemetry pipeline shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shutdown %s pipeline: %w", p.signal, err)
	}
	return nil
}

func (p *pipeline) started(endpoint string, fields ...zap.Field) {
	p.logger.Info("OpenTelemetry pipeline started",
		append([]zap.Field{zap.String("collector_endpoint", endpoint)}, fields...)...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
