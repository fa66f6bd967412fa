package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/derrrr/xscript-log-stat/internal/infrastructure"
)

const (
	TracerName = "xs-stat.pipeline"
)

// StepTracer creates spans for a run and its steps
type StepTracer struct {
	tracer trace.Tracer
}

// NewStepTracer uses the providers' tracer, falling back to the global one.
func NewStepTracer(providers *infrastructure.OTelProviders) *StepTracer {
	if providers != nil && providers.Tracer != nil {
		return &StepTracer{tracer: providers.Tracer}
	}
	return &StepTracer{tracer: otel.Tracer(TracerName)}
}

// TraceRun creates the root span of a run
func (st *StepTracer) TraceRun(ctx context.Context, runID string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "xs_stat.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
}

// TraceStep creates a span for one step
func (st *StepTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "xs_stat.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// End closes span with the outcome of the work it covered
func (st *StepTracer) End(span trace.Span, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
