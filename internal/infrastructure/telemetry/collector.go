// Package telemetry exports harmony's traces, metrics and logs to an OTLP
// collector and holds the span and instrument helpers the service uses.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is reported on every exported resource.
const ServiceVersion = "1.0.0"

// flushTimeout bounds how long a signal may take to drain on shutdown.
const flushTimeout = 10 * time.Second

// newResource identifies the editor to the collector.
func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
			semconv.ServiceNamespace("stockwave"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}

// pipeline is the lifecycle shared by the trace, metric and log exporters.
// A pipeline without a shutdown func is disabled and every call is a no-op.
type pipeline struct {
	signal   string
	logger   *zap.Logger
	shutdown func(context.Context) error
}

func newPipeline(signal string, logger *zap.Logger) pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return pipeline{signal: signal, logger: logger.With(zap.String("signal", signal))}
}

func (p *pipeline) active() bool {
	return p != nil && p.shutdown != nil
}

// started records the provider and logs where the signal is going.
func (p *pipeline) started(shutdown func(context.Context) error, endpoint string, fields ...zap.Field) {
	p.shutdown = shutdown
	p.logger.Info("Telemetry export started",
		append([]zap.Field{zap.String("collector_endpoint", endpoint)}, fields...)...)
}

// Shutdown drains pending data to the collector.
func (p *pipeline) Shutdown(ctx context.Context) error {
	if !p.active() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	if err := p.shutdown(ctx); err != nil {
		p.logger.Error("Telemetry export did not drain", zap.Error(err))
		return fmt.Errorf("shutdown %s export: %w", p.signal, err)
	}
	p.logger.Info("Telemetry export stopped")
	return nil
}
