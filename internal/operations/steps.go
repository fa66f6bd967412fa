package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/derrrr/xscript-log-stat/internal/dataprocessing"
	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/exporter"
	"github.com/derrrr/xscript-log-stat/internal/files"
	"github.com/derrrr/xscript-log-stat/internal/infrastructure"
	"github.com/derrrr/xscript-log-stat/internal/reference"
	"github.com/derrrr/xscript-log-stat/internal/store"
	"github.com/derrrr/xscript-log-stat/internal/validation"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

// Step IDs in pipeline order
const (
	StepReference = "reference"
	StepDiscover  = "discover"
	StepNormalize = "normalize"
	StepParse     = "parse"
	StepAggregate = "aggregate"
	StepEnrich    = "enrich"
	StepExport    = "export"
	StepLedger    = "ledger"
	StepCleanup   = "cleanup"
)

// ReferenceStep locates and loads the latest reference table. It runs
// first so a missing table aborts before any file is touched.
type ReferenceStep struct {
	BaseStep
}

// NewReferenceStep creates the reference loading step
func NewReferenceStep() *ReferenceStep {
	return &ReferenceStep{BaseStep: NewBaseStep(StepReference, "Load reference table")}
}

// Execute implements Step
func (s *ReferenceStep) Execute(ctx context.Context, rc *RunContext) error {
	logger := rc.Logger.With(slog.String("step", s.ID()))
	cfg := rc.Config.Reference

	path, stamp, err := reference.FindLatest(rc.Paths.ReferenceDir, logger)
	if err != nil {
		return err
	}

	table, err := reference.Load(path, stamp, reference.Options{
		KeyColumn:    cfg.KeyColumn,
		MarketSuffix: cfg.MarketSuffix,
		Normalizer:   rc.Normalizer,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	enricher, err := reference.NewEnricher(table, reference.JoinOptions{
		PrimaryColumn: cfg.PrimaryColumn,
		DropColumns:   cfg.DropColumns,
	}, logger)
	if err != nil {
		return err
	}

	rc.ReferencePath = path
	rc.Reference = table
	rc.Enricher = enricher

	stampText := "no date stamp"
	if !stamp.IsZero() {
		stampText = stamp.Format("2006-01-02")
	}
	fmt.Fprintf(rc.Progress, "  Reference table: %s (%s, %d rows)\n",
		filepath.Base(path), stampText, len(table.Rows))
	return nil
}

// DiscoverStep lists the raw log files and validates every filename
// before any file is modified.
type DiscoverStep struct {
	BaseStep
}

// NewDiscoverStep creates the discovery step
func NewDiscoverStep() *DiscoverStep {
	return &DiscoverStep{BaseStep: NewBaseStep(StepDiscover, "Discover log files")}
}

// Execute implements Step
func (s *DiscoverStep) Execute(ctx context.Context, rc *RunContext) error {
	if err := rc.Paths.EnsureDirectories(); err != nil {
		return apperrors.NewStorageError("failed to prepare directories", err)
	}
	validator := validation.NewFileValidator(rc.Logger)
	if err := validator.ValidateOutputDirectory(rc.Paths.ReportDir); err != nil {
		return apperrors.NewStorageError("report directory is not usable", err)
	}

	found, err := files.NewDiscovery("").ListFiles(rc.Paths.RawDir)
	if err != nil {
		return apperrors.NewStorageError("failed to list raw logs", err)
	}
	if len(found) == 0 {
		return apperrors.NewConfigError(
			fmt.Sprintf("no log files found in %s", rc.Paths.RawDir), nil).
			WithContext("raw_dir", rc.Paths.RawDir)
	}

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.Path
	}

	sources, dateLast, err := dataprocessing.ParseSourceNames(paths, rc.Config.Encoding.SuffixTokens)
	if err != nil {
		return err
	}
	if err := validator.ValidateSources(paths); err != nil {
		return apperrors.NewStorageError("raw log file is not usable", err)
	}

	rc.Sources = sources
	rc.DateLast = dateLast

	rc.Logger.InfoContext(ctx, "Discovered log files",
		slog.String("step", s.ID()),
		slog.Int("files", len(sources)),
		slog.String("date_last", dateLast.Format(domain.DateLayout)))
	fmt.Fprintf(rc.Progress, "  Found %d log files, latest date %s\n",
		len(sources), dateLast.Format(domain.DateLayout))
	return nil
}

// NormalizeStep rewrites each raw file as BOM-prefixed UTF-8 and writes a
// sanitized copy to the scratch directory. Files are handled by up to
// Config.Workers goroutines; the first failure cancels the rest.
type NormalizeStep struct {
	BaseStep
}

// NewNormalizeStep creates the normalization step
func NewNormalizeStep() *NormalizeStep {
	return &NormalizeStep{BaseStep: NewBaseStep(StepNormalize, "Normalize and sanitize log files")}
}

// Execute implements Step
func (s *NormalizeStep) Execute(ctx context.Context, rc *RunContext) error {
	workers := rc.Config.Workers
	if workers < 1 {
		workers = 1
	}

	fixed := make([]string, len(rc.Sources))
	tracker := NewProgressTracker(s.ID(), len(rc.Sources), rc.Progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range rc.Sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := rc.Normalizer.Normalize(src.Path)
			if err != nil {
				return err
			}

			dst := rc.Paths.FixedPath(src.Name)
			stats, err := dataprocessing.SanitizeFile(src.Path, dst)
			if err != nil {
				return err
			}
			fixed[i] = dst

			rc.Logger.DebugContext(gctx, "Prepared log file",
				slog.String("file", src.Name),
				slog.String("encoding", string(res.Label)),
				slog.Bool("rewritten", res.Changed),
				slog.Int("kept", stats.Kept),
				slog.Int("dropped", stats.Dropped))
			tracker.Increment(fmt.Sprintf("%s (%s)", src.Name, res.Label))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rc.FixedFiles = fixed
	rc.Metrics.AddFiles(ctx, len(fixed))
	fmt.Fprintf(rc.Progress, "  Prepared %d files in %s\n", len(fixed), FormatElapsed(tracker.Elapsed()))
	return nil
}

// ParseStep parses every sanitized file and concatenates the records.
type ParseStep struct {
	BaseStep
}

// NewParseStep creates the parse step
func NewParseStep() *ParseStep {
	return &ParseStep{BaseStep: NewBaseStep(StepParse, "Parse records")}
}

// Execute implements Step
func (s *ParseStep) Execute(ctx context.Context, rc *RunContext) error {
	if len(rc.FixedFiles) != len(rc.Sources) {
		return NewFatalError("sanitized files missing", nil)
	}

	sets := make([]domain.RecordSet, 0, len(rc.Sources))
	for i, src := range rc.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		set, err := dataprocessing.ParseFile(rc.FixedFiles[i], src.Script)
		if err != nil {
			return err
		}
		sets = append(sets, set)
	}

	rc.Records = dataprocessing.Concat(sets...)
	rc.Metrics.AddRecords(ctx, rc.Records.Len())
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"records": rc.Records.Len(),
		"scripts": len(rc.Records.Scripts),
	})

	rc.Logger.InfoContext(ctx, "Parsed records",
		slog.String("step", s.ID()),
		slog.Int("records", rc.Records.Len()),
		slog.Any("scripts", rc.Records.Scripts))
	fmt.Fprintf(rc.Progress, "  Parsed %d records from %d scripts\n",
		rc.Records.Len(), len(rc.Records.Scripts))
	return nil
}

// AggregateStep computes one summary per configured window.
type AggregateStep struct {
	BaseStep
}

// NewAggregateStep creates the aggregation step
func NewAggregateStep() *AggregateStep {
	return &AggregateStep{BaseStep: NewBaseStep(StepAggregate, "Aggregate windows")}
}

// Execute implements Step
func (s *AggregateStep) Execute(ctx context.Context, rc *RunContext) error {
	aggregator := dataprocessing.NewAggregator(rc.Config.Windows, rc.Logger)
	rc.Aggregates = aggregator.Aggregate(rc.Records, rc.DateLast)

	for _, agg := range rc.Aggregates {
		rc.Metrics.SetWindowRows(ctx, agg.WindowDays, len(agg.Rows))
		fmt.Fprintf(rc.Progress, "  %d-day window: %d instruments\n", agg.WindowDays, len(agg.Rows))
	}
	return nil
}

// EnrichStep joins the reference table into every window summary.
type EnrichStep struct {
	BaseStep
}

// NewEnrichStep creates the enrichment step
func NewEnrichStep() *EnrichStep {
	return &EnrichStep{BaseStep: NewBaseStep(StepEnrich, "Enrich with reference data")}
}

// Execute implements Step
func (s *EnrichStep) Execute(ctx context.Context, rc *RunContext) error {
	if rc.Enricher == nil {
		return NewFatalError("reference table not loaded", nil)
	}
	for i, agg := range rc.Aggregates {
		rc.Aggregates[i] = rc.Enricher.Enrich(agg)
	}
	return nil
}

// ExportStep writes the workbook and the optional CSV and parquet copies.
type ExportStep struct {
	BaseStep
}

// NewExportStep creates the export step
func NewExportStep() *ExportStep {
	return &ExportStep{BaseStep: NewBaseStep(StepExport, "Write report")}
}

// Execute implements Step
func (s *ExportStep) Execute(ctx context.Context, rc *RunContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := rc.Config.Report
	dateKey := rc.DateLast.Format(domain.DateLayout)

	sheets := make([]domain.Sheet, 0, len(rc.Aggregates)+1)
	sheets = append(sheets, rc.Records.Sheet(dateKey))
	for _, agg := range rc.Aggregates {
		sheets = append(sheets, agg.Sheet(exporter.WindowSheetName(cfg.SheetFormat, agg.WindowDays)))
	}

	report := domain.Report{
		Path:        exporter.ReportPath(rc.Paths.ReportDir, rc.DateLast),
		DateLast:    rc.DateLast,
		Sheets:      sheets,
		GeneratedAt: time.Now(),
	}
	if rc.Reference != nil {
		report.ReferenceFile = filepath.Base(rc.Reference.File)
		report.ReferenceDate = rc.Reference.Date
	}

	if cfg.CSV {
		dir := filepath.Join(rc.Paths.ReportDir, dateKey+"_xs_stat")
		if err := rc.Files.EnsureDirectory(dir); err != nil {
			return apperrors.NewStorageError("failed to create CSV directory", err)
		}
		rc.outputDirs = append(rc.outputDirs, dir)
		paths, err := exporter.NewCSVWriter(rc.Logger).WriteSheets(dir, sheets)
		rc.Outputs = append(rc.Outputs, paths...)
		if err != nil {
			return apperrors.NewStorageError("failed to write CSV sheets", err).
				WithContext("dir", dir)
		}
		fmt.Fprintf(rc.Progress, "  CSV sheets: %s\n", dir)
	}

	if cfg.Parquet {
		path := exporter.ArchivePath(rc.Paths.ReportDir, rc.DateLast)
		if err := exporter.NewParquetArchiver(rc.Logger).Write(path, rc.Records); err != nil {
			return apperrors.NewStorageError("failed to write record archive", err).
				WithContext("path", path)
		}
		rc.Outputs = append(rc.Outputs, path)
		fmt.Fprintf(rc.Progress, "  Record archive: %s\n", path)
	}

	// the workbook goes last; it is the file a reader takes as the result
	if err := exporter.NewWorkbookWriter(rc.Logger).Write(report); err != nil {
		return apperrors.NewStorageError("failed to write report", err).
			WithContext("path", report.Path)
	}
	rc.Outputs = append(rc.Outputs, report.Path)
	sheetNames := make([]string, len(sheets))
	for i, sh := range sheets {
		sheetNames[i] = sh.Name
	}
	if err := validation.NewFileValidator(rc.Logger).ValidateWorkbook(report.Path, sheetNames); err != nil {
		return apperrors.NewStorageError("written report failed verification", err)
	}
	rc.ReportPath = report.Path
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"report.path":   report.Path,
		"report.sheets": len(sheets),
	})
	fmt.Fprintf(rc.Progress, "  Report: %s\n", report.Path)

	return nil
}

// LedgerStep records the run in the SQLite ledger when one is configured.
type LedgerStep struct {
	BaseStep
}

// NewLedgerStep creates the ledger step
func NewLedgerStep() *LedgerStep {
	return &LedgerStep{BaseStep: NewBaseStep(StepLedger, "Record run in ledger")}
}

// Enabled implements Conditional
func (s *LedgerStep) Enabled(rc *RunContext) (bool, string) {
	if rc.Paths.LedgerFile == "" {
		return false, "ledger disabled"
	}
	return true, ""
}

// Execute implements Step
func (s *LedgerStep) Execute(ctx context.Context, rc *RunContext) error {
	ledger, err := store.OpenLedger(ctx, rc.Paths.LedgerFile)
	if err != nil {
		return err
	}
	defer ledger.Close()

	prev, err := ledger.LatestRun(ctx)
	if err != nil {
		return err
	}
	if prev != nil && prev.DateLast.Equal(rc.DateLast) {
		rc.Logger.InfoContext(ctx, "Report date already recorded by an earlier run",
			slog.String("previous_run_id", prev.RunID),
			slog.String("previous_report", prev.ReportPath),
			slog.String("date_last", rc.DateLast.Format(domain.DateLayout)))
	}

	return ledger.RecordRun(ctx, rc.RunRecord(time.Now()))
}

// CleanupStep removes the scratch directory of sanitized copies.
type CleanupStep struct {
	BaseStep
}

// NewCleanupStep creates the cleanup step
func NewCleanupStep() *CleanupStep {
	return &CleanupStep{BaseStep: NewBaseStep(StepCleanup, "Remove scratch files")}
}

// Execute implements Step
func (s *CleanupStep) Execute(ctx context.Context, rc *RunContext) error {
	if err := rc.Files.RemoveDirectory(rc.Paths.FixedDir); err != nil {
		return apperrors.NewStorageError("failed to remove scratch directory", err).
			WithContext("dir", rc.Paths.FixedDir)
	}
	return nil
}

// DefaultSteps returns the pipeline in execution order. The ledger row is
// the last side effect of a successful run.
func DefaultSteps() []Step {
	return []Step{
		NewReferenceStep(),
		NewDiscoverStep(),
		NewNormalizeStep(),
		NewParseStep(),
		NewAggregateStep(),
		NewEnrichStep(),
		NewExportStep(),
		NewCleanupStep(),
		NewLedgerStep(),
	}
}

// NewDefaultRegistry registers DefaultSteps
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	if err := registry.Register(DefaultSteps()...); err != nil {
		return nil, err
	}
	return registry, nil
}
