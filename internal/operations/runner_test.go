package operations_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/operations"
	"github.com/derrrr/xscript-log-stat/internal/shared/testutil"
)

func TestRunner_ExecutesStepsInOrder(t *testing.T) {
	var order []string
	record := func(id string) *fakeStep {
		s := newFakeStep(id)
		s.exec = func(context.Context, *operations.RunContext) error {
			order = append(order, id)
			return nil
		}
		return s
	}

	registry := newRegistry(t, record("first"), record("second"), record("third"))
	var progress bytes.Buffer
	logger, handler := testutil.NewTestLogger(t)
	rc := newTestRunContext(t, logger, &progress)

	state, err := operations.NewRunner(registry, nil).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, operations.RunStatusCompleted, state.Status)
	for _, s := range state.Steps() {
		assert.Equal(t, operations.StepStatusCompleted, s.GetStatus(), s.ID)
	}

	assert.Contains(t, progress.String(), "[1/3] Fake first")
	assert.Contains(t, progress.String(), "[3/3] Fake third")
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Run completed")
	testutil.AssertLogAttr(t, handler, "run_id", "run-test")
	testutil.AssertNoErrors(t, handler)
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	first := newFakeStep("first")
	failing := newFakeStep("failing")
	failing.err = apperrors.NewNamingConventionError("badname.csv", "expected <YYYYMMDD>_<script>")
	last := newFakeStep("last")

	registry := newRegistry(t, first, failing, last)
	logger, handler := testutil.NewTestLogger(t)
	rc := newTestRunContext(t, logger, io.Discard)

	state, err := operations.NewRunner(registry, nil).Run(context.Background(), rc)
	require.Error(t, err)

	assert.True(t, errors.Is(err, apperrors.ErrNamingConvention))
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))
	assert.Contains(t, err.Error(), "failing")

	assert.Equal(t, 1, first.Calls())
	assert.Equal(t, 1, failing.Calls())
	assert.Equal(t, 0, last.Calls())

	assert.Equal(t, operations.RunStatusFailed, state.Status)
	assert.True(t, state.HasFailures())
	assert.Equal(t, operations.StepStatusCompleted, state.GetStep("first").GetStatus())
	assert.Equal(t, operations.StepStatusFailed, state.GetStep("failing").GetStatus())
	assert.Equal(t, operations.StepStatusSkipped, state.GetStep("last").GetStatus())

	testutil.AssertLogContains(t, handler, slog.LevelError, "Step failed")
}

func TestRunner_SkipsDisabledConditionalStep(t *testing.T) {
	disabled := &conditionalStep{fakeStep: newFakeStep("ledger"), enabled: false}
	enabled := &conditionalStep{fakeStep: newFakeStep("export"), enabled: true}

	registry := newRegistry(t, enabled, disabled)
	logger, _ := testutil.NewTestLogger(t)
	rc := newTestRunContext(t, logger, io.Discard)

	state, err := operations.NewRunner(registry, nil).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, enabled.Calls())
	assert.Equal(t, 0, disabled.Calls())

	ledger := state.GetStep("ledger")
	assert.Equal(t, operations.StepStatusSkipped, ledger.GetStatus())
	assert.Equal(t, "not configured", ledger.Message)
	assert.Equal(t, operations.RunStatusCompleted, state.Status)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := newFakeStep("first")
	first.exec = func(context.Context, *operations.RunContext) error {
		cancel()
		return nil
	}
	export := newFakeStep("export")

	registry := newRegistry(t, first, export)
	logger, _ := testutil.NewTestLogger(t)
	rc := newTestRunContext(t, logger, io.Discard)

	state, err := operations.NewRunner(registry, nil).Run(ctx, rc)
	require.Error(t, err)

	assert.True(t, operations.IsCancellation(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, export.Calls())
	assert.Equal(t, operations.RunStatusCancelled, state.Status)
	assert.Equal(t, operations.StepStatusSkipped, state.GetStep("export").GetStatus())
}

func TestRunner_StepReturningContextError(t *testing.T) {
	step := newFakeStep("normalize")
	step.err = context.Canceled

	registry := newRegistry(t, step)
	logger, _ := testutil.NewTestLogger(t)
	rc := newTestRunContext(t, logger, io.Discard)

	state, err := operations.NewRunner(registry, nil).Run(context.Background(), rc)
	require.Error(t, err)

	assert.True(t, operations.IsCancellation(err))
	assert.Equal(t, operations.RunStatusCancelled, state.Status)
}

func TestRunner_EmptyRegistry(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rc := newTestRunContext(t, logger, io.Discard)

	state, err := operations.NewRunner(operations.NewRegistry(), nil).Run(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, operations.RunStatusCompleted, state.Status)
	assert.Empty(t, state.Steps())
}
