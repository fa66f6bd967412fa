package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/derrrr/xscript-log-stat/internal/config"
)

// process-wide logger; InitializeLogger fills it once per run
var logs struct {
	mu     sync.Mutex
	once   sync.Once
	logger *slog.Logger
	file   *os.File
}

type contextKey string

// TraceIDContextKey carries the run ID that every log line of a run is
// tagged with.
const TraceIDContextKey contextKey = "trace_id"

// InitializeLogger builds the run logger from cfg and installs it as the
// slog default. Later calls return the first logger unchanged.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	logs.once.Do(func() {
		var logger *slog.Logger
		logger, err = createLogger(cfg, os.Stdout)
		if err != nil {
			return
		}
		logs.mu.Lock()
		logs.logger = logger
		logs.mu.Unlock()
		slog.SetDefault(logger)
	})
	return GetLogger(), err
}

// GetLogger returns the run logger, or slog.Default before InitializeLogger.
func GetLogger() *slog.Logger {
	logs.mu.Lock()
	defer logs.mu.Unlock()

	if logs.logger == nil {
		return slog.Default()
	}
	return logs.logger
}

// createLogger builds a logger writing to console, the configured file, or
// both.
func createLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	out, err := logOutput(cfg, console)
	if err != nil {
		return nil, err
	}

	level := parseLogLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level <= slog.LevelDebug,
		ReplaceAttr: shortSource,
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(runIDHandler{h}), nil
}

// logOutput resolves cfg.Output to a writer. An opened log file is kept
// so CloseLogFile can release it.
func logOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return console, nil
	}

	file, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logs.mu.Lock()
	logs.file = file
	logs.mu.Unlock()

	if mode == "both" {
		return io.MultiWriter(console, file), nil
	}
	return file, nil
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// shortSource trims the debug source attribute to file:line.
func shortSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey || len(groups) > 0 {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
		return slog.String(slog.SourceKey, filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
	}
	return a
}

// runIDHandler tags records logged with a run context with trace_id.
type runIDHandler struct {
	slog.Handler
}

func (h runIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String(string(TraceIDContextKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return runIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h runIDHandler) WithGroup(name string) slog.Handler {
	return runIDHandler{h.Handler.WithGroup(name)}
}

// parseLogLevel accepts debug, info, warn (or warning) and error.
// Anything else falls back to info.
func parseLogLevel(level string) slog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// WithTraceID stores the run ID used to tag log records.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the run ID stored in ctx, if any.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// CloseLogFile releases the log file opened for "file" or "both" output.
func CloseLogFile() error {
	logs.mu.Lock()
	defer logs.mu.Unlock()

	if logs.file == nil {
		return nil
	}
	err := logs.file.Close()
	logs.file = nil
	return err
}

// ResetLoggerForTesting drops the run logger so tests can initialize a new one.
func ResetLoggerForTesting() {
	CloseLogFile()
	logs.mu.Lock()
	logs.logger = nil
	logs.mu.Unlock()
	logs.once = sync.Once{}
}
