package operations_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrrr/xscript-log-stat/internal/operations"
)

func TestNewRunState(t *testing.T) {
	steps := []operations.Step{newFakeStep("a"), newFakeStep("b")}
	state := operations.NewRunState("run-1", steps)

	assert.Equal(t, "run-1", state.ID)
	assert.Equal(t, operations.RunStatusPending, state.Status)
	assert.Nil(t, state.EndTime)
	assert.False(t, state.StartTime.IsZero())

	got := state.Steps()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "Fake b", got[1].Name)
	assert.Nil(t, state.GetStep("missing"))
}

func TestRunStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*operations.RunState)
		wantStatus operations.RunStatus
		wantErr    bool
	}{
		{"complete", func(s *operations.RunState) { s.Complete() }, operations.RunStatusCompleted, false},
		{"fail", func(s *operations.RunState) { s.Fail(errors.New("boom")) }, operations.RunStatusFailed, true},
		{"cancel", func(s *operations.RunState) { s.Cancel(errors.New("interrupted")) }, operations.RunStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := operations.NewRunState("run", nil)
			state.Start()
			assert.Equal(t, operations.RunStatusRunning, state.Status)

			tt.transition(state)
			assert.Equal(t, tt.wantStatus, state.Status)
			require.NotNil(t, state.EndTime)
			assert.Equal(t, tt.wantErr, state.Error != nil)
			assert.GreaterOrEqual(t, state.Duration().Nanoseconds(), int64(0))
		})
	}
}

func TestRunState_SkipPending(t *testing.T) {
	state := operations.NewRunState("run", []operations.Step{
		newFakeStep("done"), newFakeStep("failed"), newFakeStep("pending"),
	})
	state.GetStep("done").Complete()
	state.GetStep("failed").Fail(errors.New("boom"))

	state.SkipPending("previous step failed")

	assert.Equal(t, operations.StepStatusCompleted, state.GetStep("done").GetStatus())
	assert.Equal(t, operations.StepStatusFailed, state.GetStep("failed").GetStatus())
	assert.Equal(t, operations.StepStatusSkipped, state.GetStep("pending").GetStatus())
	assert.Equal(t, "previous step failed", state.GetStep("pending").Message)
	assert.True(t, state.HasFailures())
}
