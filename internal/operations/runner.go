package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/derrrr/xscript-log-stat/internal/infrastructure"
)

// Runner executes the registered steps in order and stops at the first
// failure. Later steps are marked skipped.
type Runner struct {
	registry *Registry
	tracer   *StepTracer
}

// NewRunner creates a runner over registry. A nil tracer uses the global
// tracer provider.
func NewRunner(registry *Registry, tracer *StepTracer) *Runner {
	if tracer == nil {
		tracer = NewStepTracer(nil)
	}
	return &Runner{registry: registry, tracer: tracer}
}

// Run executes every step against rc and returns the final run state.
func (r *Runner) Run(ctx context.Context, rc *RunContext) (*RunState, error) {
	steps := r.registry.List()
	state := NewRunState(rc.RunID, steps)
	logger := rc.Logger.With(slog.String("run_id", rc.RunID))

	ctx, runSpan := r.tracer.TraceRun(ctx, rc.RunID)
	state.Start()
	logger.InfoContext(ctx, "Run started",
		slog.Int("step_count", len(steps)),
		slog.Any("steps", r.registry.ListIDs()),
		slog.String("otel_trace_id", infrastructure.TraceIDFromContext(ctx)))

	var runErr error
	for i, step := range steps {
		stepState := state.GetStep(step.ID())

		if err := ctx.Err(); err != nil {
			runErr = NewCancellationError(step.ID(), err)
			logger.WarnContext(ctx, "Run cancelled", slog.String("step", step.ID()))
			break
		}

		if c, ok := step.(Conditional); ok {
			if enabled, reason := c.Enabled(rc); !enabled {
				stepState.Skip(reason)
				logger.InfoContext(ctx, "Step skipped",
					slog.String("step", step.ID()),
					slog.String("reason", reason))
				continue
			}
		}

		fmt.Fprintf(rc.Progress, "[%d/%d] %s\n", i+1, len(steps), step.Name())
		logger.InfoContext(ctx, "Executing step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		stepCtx, span := r.tracer.TraceStep(ctx, rc.RunID, step.ID())
		stepState.Start()
		start := time.Now()
		err := step.Execute(stepCtx, rc)
		duration := time.Since(start)
		r.tracer.End(span, duration, err)
		rc.Metrics.RecordStep(ctx, step.ID(), duration, err)

		if err != nil {
			stepState.Fail(err)
			runErr = WrapError(err, step.ID())
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Step failed",
				slog.String("step", step.ID()),
				slog.Duration("duration", duration))
			break
		}

		stepState.Complete()
		logger.InfoContext(ctx, "Step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration))
	}

	if runErr != nil && len(rc.Outputs)+len(rc.outputDirs) > 0 {
		outputs := len(rc.Outputs)
		if err := rc.discardOutputs(); err != nil {
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Failed to remove outputs of failed run")
		} else {
			logger.WarnContext(ctx, "Removed outputs of failed run", slog.Int("files", outputs))
		}
	}

	switch {
	case runErr == nil:
		state.Complete()
	case IsCancellation(runErr):
		state.SkipPending("run cancelled")
		state.Cancel(runErr)
	default:
		state.SkipPending("previous step failed")
		state.Fail(runErr)
	}

	r.tracer.End(runSpan, state.Duration(), runErr)
	rc.Metrics.RecordRun(ctx, state.Duration(), runErr)

	if runErr != nil {
		logger.ErrorContext(ctx, "Run failed",
			slog.String("status", string(state.Status)),
			slog.Duration("duration", state.Duration()),
			slog.String("error", runErr.Error()))
		return state, runErr
	}

	logger.InfoContext(ctx, "Run completed", slog.Duration("duration", state.Duration()))
	return state, nil
}
