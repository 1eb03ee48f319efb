// Package observability wires the global OTel tracer and meter providers to
// stdout exporters. No pack repo this module was built from actually calls
// an SDK bootstrap like this one (the teacher's own dolt store acquires
// otel.Tracer/otel.Meter against whatever provider happens to be installed,
// and never installs one itself — see internal/engine's tracer/meter vars,
// grounded on that same acquisition pattern), so Init exists purely so the
// stdout exporter dependencies SPEC_FULL.md commits to are wired to
// something rather than sitting unimported in go.mod.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Init installs stdout-backed tracer and meter providers as the OTel
// globals, tagged with serviceName. The returned shutdown func flushes and
// closes both exporters; callers should defer it from main.
func Init(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("build metric exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(shutdownCtx context.Context) error {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return mp.Shutdown(shutdownCtx)
	}, nil
}
