package operations_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/derrrr/xscript-log-stat/internal/config"
	"github.com/derrrr/xscript-log-stat/internal/operations"
)

// fakeStep records its executions and returns err.
type fakeStep struct {
	operations.BaseStep
	err     error
	exec    func(ctx context.Context, rc *operations.RunContext) error

	mu    sync.Mutex
	calls int
}

func newFakeStep(id string) *fakeStep {
	return &fakeStep{BaseStep: operations.NewBaseStep(id, "Fake "+id)}
}

func (s *fakeStep) Execute(ctx context.Context, rc *operations.RunContext) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.exec != nil {
		return s.exec(ctx, rc)
	}
	return s.err
}

func (s *fakeStep) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// conditionalStep is a fakeStep that implements Conditional.
type conditionalStep struct {
	*fakeStep
	enabled bool
}

func (s *conditionalStep) Enabled(*operations.RunContext) (bool, string) {
	if s.enabled {
		return true, ""
	}
	return false, "not configured"
}

func newRegistry(t *testing.T, steps ...operations.Step) *operations.Registry {
	t.Helper()
	registry := operations.NewRegistry()
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.ID(), err)
		}
	}
	return registry
}

func newTestRunContext(t *testing.T, logger *slog.Logger, progress io.Writer) *operations.RunContext {
	t.Helper()
	cfg := config.Default()
	return operations.NewRunContext(cfg, logger,
		operations.WithProgress(progress),
		operations.WithRunID("run-test"))
}
