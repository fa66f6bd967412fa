package operations

import (
	"sync"
	"time"
)

// RunStatus represents the status of a pipeline run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState tracks the status of a run and of each of its steps
type RunState struct {
	mu        sync.RWMutex
	ID        string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps map[string]*StepState
	order []string
}

// NewRunState creates a run state with one pending StepState per step
func NewRunState(id string, steps []Step) *RunState {
	s := &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState, len(steps)),
		order:     make([]string, 0, len(steps)),
	}
	for _, step := range steps {
		s.steps[step.ID()] = NewStepState(step.ID(), step.Name())
		s.order = append(s.order, step.ID())
	}
	return s
}

// Start marks the run as running
func (s *RunState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = RunStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *RunState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (s *RunState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusFailed
	s.Error = err
}

// Cancel marks the run as cancelled
func (s *RunState) Cancel(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusCancelled
	s.Error = err
}

// GetStep returns the state of a step, or nil for an unknown ID
func (s *RunState) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.steps[id]
}

// Steps returns the step states in execution order
func (s *RunState) Steps() []*StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*StepState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.steps[id])
	}
	return out
}

// SkipPending marks every step that has not started as skipped
func (s *RunState) SkipPending(reason string) {
	for _, step := range s.Steps() {
		if step.GetStatus() == StepStatusPending {
			step.Skip(reason)
		}
	}
}

// Duration returns the run duration so far
func (s *RunState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// HasFailures reports whether any step failed
func (s *RunState) HasFailures() bool {
	for _, step := range s.Steps() {
		if step.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}
