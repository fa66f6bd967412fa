package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrrr/xscript-log-stat/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_Defaults(t *testing.T) {
	providers, err := InitializeOTel(nil, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{TraceExporter: "otlp"}, discardLogger())
	assert.Error(t, err)
}

func TestInitializeOTel_FileExporterRequiresPath(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{TraceExporter: "file"}, discardLogger())
	assert.Error(t, err)
}

func TestInitializeOTel_TraceFile(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "traces", "xs-stat.trace.json")
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "file"
	cfg.TraceFile = traceFile

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	ctx, span := providers.Tracer.Start(context.Background(), "step.parse")
	SetSpanAttributes(ctx, map[string]interface{}{"files": 2, "script": "A"})
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	RecordError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))

	content, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "step.parse")
	assert.Contains(t, string(content), "boom")
}

func TestRunMetrics_WrittenToTextfile(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "metrics", "xs-stat.prom")
	cfg := DefaultOTelConfig()
	cfg.MetricsFile = metricsFile

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)

	metrics, err := NewRunMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.AddFiles(ctx, 2)
	metrics.AddRecords(ctx, 2)
	metrics.SetWindowRows(ctx, 5, 1)
	metrics.RecordStep(ctx, "parse", 10*time.Millisecond, nil)
	metrics.RecordRun(ctx, time.Second, errors.New("failed"))

	require.NoError(t, providers.Shutdown(ctx))

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "xs_files_processed")
	assert.Contains(t, text, "xs_records_parsed")
	assert.Contains(t, text, "xs_window_rows")
	assert.Contains(t, text, "xs_step_duration")
	assert.Contains(t, text, "xs_run_errors")
}

func TestWriteMetrics_NoFile(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NoError(t, providers.WriteMetrics())
}

func TestRunMetrics_NilReceiver(t *testing.T) {
	var metrics *RunMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.AddFiles(ctx, 1)
		metrics.AddRecords(ctx, 1)
		metrics.SetWindowRows(ctx, 1, 0)
		metrics.RecordStep(ctx, "aggregate", time.Millisecond, nil)
		metrics.RecordRun(ctx, time.Millisecond, nil)
	})
}

func TestNewOTelConfig(t *testing.T) {
	cfg := NewOTelConfig(
		config.ObservabilityConfig{TraceExporter: "file"},
		&config.Paths{TraceFile: "/var/xs/trace.json", MetricsFile: "/var/xs/xs.prom"},
	)

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, "file", cfg.TraceExporter)
	assert.Equal(t, "/var/xs/trace.json", cfg.TraceFile)
	assert.Equal(t, "/var/xs/xs.prom", cfg.MetricsFile)
}
