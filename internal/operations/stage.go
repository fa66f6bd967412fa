package operations

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Step represents a single step of the pipeline
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step against the shared run context
	Execute(ctx context.Context, rc *RunContext) error
}

// Conditional is implemented by steps that only run for some configurations.
type Conditional interface {
	// Enabled reports whether the step applies; reason explains a skip.
	Enabled(rc *RunContext) (bool, string)
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState is the runtime state of one step within a run
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     error      `json:"-"`
}

// NewStepState creates a pending step state
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the step as active
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the step as completed
func (s *StepState) Complete() { s.finish(StepStatusCompleted, nil, "") }

// Fail marks the step as failed with err
func (s *StepState) Fail(err error) { s.finish(StepStatusFailed, err, "") }

// Skip marks the step as skipped; reason is kept in Message
func (s *StepState) Skip(reason string) { s.finish(StepStatusSkipped, nil, reason) }

func (s *StepState) finish(status StepStatus, err error, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
	s.Message = msg
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Status
}

// Duration returns how long the step ran. Steps that never started
// report zero.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// Line renders the state for the end-of-run step summary, e.g.
// "parse      failed: [MALFORMED_DATE] ...".
func (s *StepState) Line() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Status {
	case StepStatusFailed:
		return fmt.Sprintf("%-10s failed: %v", s.ID, s.Error)
	case StepStatusSkipped:
		return fmt.Sprintf("%-10s skipped (%s)", s.ID, s.Message)
	default:
		return fmt.Sprintf("%-10s %s", s.ID, s.Status)
	}
}

// BaseStep provides the identity part of Step implementations
type BaseStep struct {
	id   string
	name string
}

// NewBaseStep creates a new base Step
func NewBaseStep(id, name string) BaseStep {
	return BaseStep{id: id, name: name}
}

// ID returns the Step ID
func (b *BaseStep) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the Step name
func (b *BaseStep) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}
