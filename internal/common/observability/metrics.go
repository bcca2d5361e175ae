package observability

import (
	"context"
	"io"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"iq-bot/internal/common/logger"
)

// Observability records writer batch measurements through an OpenTelemetry
// meter exported to Prometheus. It satisfies writer.Recorder.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	promptCounter  otelmetric.Int64Counter
	responseCount  otelmetric.Int64Counter
	batchDuration  otelmetric.Float64Histogram
	logger         logger.Logger
}

// New builds the meter provider. A nil registerer uses the Prometheus default
// registry. When the exporter cannot be created the returned value records
// nothing.
func New(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Error("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{logger: log}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	promptCounter, err := meter.Int64Counter(
		"writer_prompts_initialized",
		otelmetric.WithDescription("Prompt records stored or failed during initialization"),
	)
	if err != nil {
		log.Error("failed to create instrument", map[string]interface{}{"instrument": "writer_prompts_initialized", "error": err.Error()})
	}

	responseCount, err := meter.Int64Counter(
		"writer_responses",
		otelmetric.WithDescription("Responses produced by status"),
	)
	if err != nil {
		log.Error("failed to create instrument", map[string]interface{}{"instrument": "writer_responses", "error": err.Error()})
	}

	batchDuration, err := meter.Float64Histogram(
		"writer_batch_duration",
		otelmetric.WithDescription("Writer batch duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		log.Error("failed to create instrument", map[string]interface{}{"instrument": "writer_batch_duration", "error": err.Error()})
	}

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		promptCounter: promptCounter,
		responseCount: responseCount,
		batchDuration: batchDuration,
		logger:        log,
	}
}

// EnableTracing installs a global tracer provider that writes finished spans
// to w.
func (o *Observability) EnableTracing(w io.Writer) error {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	o.tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(o.tracerProvider)
	return nil
}

func (o *Observability) RecordPromptsInitialized(ctx context.Context, stored, failed int) {
	if o.promptCounter == nil {
		return
	}
	o.promptCounter.Add(ctx, int64(stored), otelmetric.WithAttributes(attribute.String("status", "stored")))
	o.promptCounter.Add(ctx, int64(failed), otelmetric.WithAttributes(attribute.String("status", "failed")))
}

func (o *Observability) RecordResponse(ctx context.Context, status string) {
	if o.responseCount != nil {
		o.responseCount.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordBatchDuration(ctx context.Context, d time.Duration) {
	if o.batchDuration != nil {
		o.batchDuration.Record(ctx, float64(d.Milliseconds()))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			o.logger.Warn("tracer provider shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			o.logger.Warn("meter provider shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
