package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics holds the instruments recorded by one pipeline run
type RunMetrics struct {
	FilesProcessed metric.Int64Counter
	RecordsParsed  metric.Int64Counter
	WindowRows     metric.Int64Gauge
	StepsTotal     metric.Int64Counter
	StepDuration   metric.Float64Histogram
	RunDuration    metric.Float64Histogram
	RunErrors      metric.Int64Counter

	// Runtime
	Goroutines metric.Int64Gauge
	HeapAlloc  metric.Int64Gauge
}

// NewRunMetrics creates the run instruments on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	filesProcessed, err := meter.Int64Counter(
		"xs_files_processed",
		metric.WithDescription("Raw log files normalized and sanitized"),
	)
	if err != nil {
		return nil, err
	}

	recordsParsed, err := meter.Int64Counter(
		"xs_records_parsed",
		metric.WithDescription("Records parsed from sanitized files"),
	)
	if err != nil {
		return nil, err
	}

	windowRows, err := meter.Int64Gauge(
		"xs_window_rows",
		metric.WithDescription("Aggregate rows per window"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"xs_steps",
		metric.WithDescription("Pipeline steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"xs_step_duration",
		metric.WithDescription("Pipeline step duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"xs_run_duration",
		metric.WithDescription("Whole run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runErrors, err := meter.Int64Counter(
		"xs_run_errors",
		metric.WithDescription("Failed runs by error type"),
	)
	if err != nil {
		return nil, err
	}

	goroutines, err := meter.Int64Gauge(
		"xs_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"xs_heap_alloc",
		metric.WithDescription("Heap bytes allocated"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		FilesProcessed: filesProcessed,
		RecordsParsed:  recordsParsed,
		WindowRows:     windowRows,
		StepsTotal:     stepsTotal,
		StepDuration:   stepDuration,
		RunDuration:    runDuration,
		RunErrors:      runErrors,
		Goroutines:     goroutines,
		HeapAlloc:      heapAlloc,
	}, nil
}

// RecordStep records one step execution. A nil receiver is a no-op.
func (m *RunMetrics) RecordStep(ctx context.Context, step string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", statusOf(err)),
	)
	m.StepsTotal.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRun records the end of a run together with a runtime snapshot.
func (m *RunMetrics) RecordRun(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.RunDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("status", statusOf(err))))
	if err != nil {
		m.RunErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("error.type", fmt.Sprintf("%T", err))))
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.Goroutines.Record(ctx, int64(runtime.NumGoroutine()))
	m.HeapAlloc.Record(ctx, int64(mem.HeapAlloc))
}

// AddFiles counts processed raw files.
func (m *RunMetrics) AddFiles(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.FilesProcessed.Add(ctx, int64(n))
}

// AddRecords counts parsed records.
func (m *RunMetrics) AddRecords(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.RecordsParsed.Add(ctx, int64(n))
}

// SetWindowRows records the row count of one window aggregate.
func (m *RunMetrics) SetWindowRows(ctx context.Context, windowDays, rows int) {
	if m == nil {
		return
	}
	m.WindowRows.Record(ctx, int64(rows),
		metric.WithAttributes(attribute.Int("window_days", windowDays)))
}

func statusOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
