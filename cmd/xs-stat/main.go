package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/derrrr/xscript-log-stat/internal/config"
	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/infrastructure"
	"github.com/derrrr/xscript-log-stat/internal/operations"
	"github.com/derrrr/xscript-log-stat/internal/store"
	"github.com/derrrr/xscript-log-stat/pkg/contracts"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one xs-stat invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("xs-stat", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", "", "Configuration file (.yaml/.yml or key=value)")
	history := fs.Int("history", 0, "Print the last N runs recorded in the ledger and exit")
	showVersion := fs.Bool("version", false, "Print version information and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	start := time.Now()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stdout, diagnose(err))
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	paths := cfg.GetPaths()
	paths.LogPathResolution(logger)
	if len(cfg.Ignored) > 0 {
		logger.Warn("Ignoring unknown configuration keys",
			slog.String("file", cfg.File),
			slog.Any("keys", cfg.Ignored))
	}

	if *history > 0 {
		return printHistory(ctx, paths.LedgerFile, *history, stdout)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Observability, paths), logger)
	if err != nil {
		slog.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down OpenTelemetry", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.NewRunMetrics(providers.Meter)
	if err != nil {
		slog.Error("Failed to create run metrics", slog.String("error", err.Error()))
		return 1
	}

	registry, err := operations.NewDefaultRegistry()
	if err != nil {
		slog.Error("Failed to register pipeline steps", slog.String("error", err.Error()))
		return 1
	}

	ctx, runID := infrastructure.EnsureRunID(ctx)
	rc := operations.NewRunContext(cfg, infrastructure.WithComponent(logger, "pipeline"),
		operations.WithProgress(stdout),
		operations.WithMetrics(metrics),
		operations.WithRunID(runID))

	fmt.Fprintf(stdout, "%s run %s\n", contracts.GetVersionString(), runID)
	fmt.Fprintf(stdout, "Raw logs: %s\n", paths.RawDir)

	state, err := operations.NewRunner(registry, operations.NewStepTracer(providers)).Run(ctx, rc)
	elapsed := operations.FormatElapsed(time.Since(start))
	if err != nil {
		fmt.Fprintln(stdout, diagnose(err))
		for _, step := range state.Steps() {
			fmt.Fprintf(stdout, "  %s\n", step.Line())
		}
		fmt.Fprintf(stdout, "Failed after %s\n", elapsed)
		return 1
	}

	fmt.Fprintf(stdout, "Completed in %s\n", elapsed)
	for _, out := range rc.Outputs {
		fmt.Fprintf(stdout, "  %s\n", out)
	}
	return 0
}

// diagnose turns a run failure into the one-line message shown to the user.
func diagnose(err error) string {
	switch {
	case operations.IsCancellation(err):
		return "Interrupted: no report was written"
	case errors.Is(err, apperrors.ErrMissingReferenceData):
		return fmt.Sprintf("Reference data missing, add a reference table to the reference directory: %v", err)
	case errors.Is(err, apperrors.ErrNamingConvention):
		return fmt.Sprintf("Log file name must look like YYYYMMDD_<script>.csv: %v", err)
	case errors.Is(err, apperrors.ErrMalformedDate):
		return fmt.Sprintf("Malformed date in log file: %v", err)
	case errors.Is(err, apperrors.ErrEncodingDetection):
		return fmt.Sprintf("Could not decode log file: %v", err)
	case errors.Is(err, apperrors.ErrConfiguration):
		return fmt.Sprintf("Configuration error: %v", err)
	case errors.Is(err, apperrors.ErrStorage):
		return fmt.Sprintf("Could not write output: %v", err)
	default:
		return fmt.Sprintf("Run failed: %v", err)
	}
}

func printHistory(ctx context.Context, ledgerPath string, limit int, stdout io.Writer) int {
	if ledgerPath == "" {
		fmt.Fprintln(stdout, "Ledger is not configured (set ledger.path)")
		return 1
	}

	ledger, err := store.OpenLedger(ctx, ledgerPath)
	if err != nil {
		fmt.Fprintln(stdout, diagnose(err))
		return 1
	}
	defer ledger.Close()

	runs, err := ledger.ListRuns(ctx, limit)
	if err != nil {
		fmt.Fprintln(stdout, diagnose(err))
		return 1
	}

	fmt.Fprintf(stdout, "Found %d recorded runs\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(stdout, "%s  %s  date_last=%s  records=%d  files=%d  reference=%s  report=%s\n",
			r.FinishedAt.Format(time.RFC3339),
			r.RunID,
			r.DateLast.Format(domain.DateLayout),
			r.Records,
			len(r.Files),
			filepath.Base(r.ReferenceFile),
			r.ReportPath)
	}
	return 0
}
