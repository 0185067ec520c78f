package otel

import (
	"context"
	"sync"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

var (
	tracerMu sync.RWMutex
	tracer   trace.Tracer
)

// Setup installs an OTLP/HTTP tracer provider. Without a collector URL, or
// when the exporter cannot be built, tracing stays a no-op and the returned
// shutdown function does nothing.
func Setup(ctx context.Context, cfg config.OtelConfig) (func(context.Context) error, error) {
	noopShutdown := func(context.Context) error { return nil }
	if cfg.CollectorURL == "" {
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	connectionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.CollectorURL)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	traceExporter, err := otlptracehttp.New(connectionCtx, exporterOpts...)
	if err != nil {
		logger.CtxError(ctx, "OTLP exporter unavailable, tracing disabled", err)
		return noopShutdown, nil
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(tracerProvider.Tracer(cfg.ServiceName))
	logger.CtxInfo(ctx, log_messages.TracerProviderInitialized, zap.String("collector", cfg.CollectorURL))

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tracerProvider.Shutdown(shutdownCtx)
	}, nil
}

// SetTracer replaces the process tracer and returns the previous one.
func SetTracer(t trace.Tracer) trace.Tracer {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	prev := tracer
	tracer = t
	return prev
}

func GetTracer() trace.Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if tracer == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return tracer
}
