package operations

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/derrrr/xscript-log-stat/internal/charset"
	"github.com/derrrr/xscript-log-stat/internal/config"
	"github.com/derrrr/xscript-log-stat/internal/files"
	"github.com/derrrr/xscript-log-stat/internal/infrastructure"
	"github.com/derrrr/xscript-log-stat/internal/reference"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

// RunContext is threaded through every step of one run. Steps read what
// earlier steps produced and add their own results.
type RunContext struct {
	Config    *config.Config
	Paths     *config.Paths
	RunID     string
	StartedAt time.Time

	Normalizer *charset.Normalizer
	Files      *files.Manager
	Logger     *slog.Logger
	Metrics    *infrastructure.RunMetrics
	Progress   io.Writer

	// Reference step
	ReferencePath string
	Reference     *domain.ReferenceTable
	Enricher      *reference.Enricher

	// Discover step
	Sources  []domain.Source
	DateLast time.Time

	// Normalize step; sanitized copies aligned with Sources
	FixedFiles []string

	// Parse, aggregate and enrich steps
	Records    domain.RecordSet
	Aggregates []domain.Aggregate

	// Export step
	ReportPath string
	Outputs    []string
	outputDirs []string
}

// RunContextOption customizes a RunContext
type RunContextOption func(*RunContext)

// WithProgress sets where progress lines are printed
func WithProgress(w io.Writer) RunContextOption {
	return func(rc *RunContext) { rc.Progress = w }
}

// WithMetrics sets the run instruments
func WithMetrics(m *infrastructure.RunMetrics) RunContextOption {
	return func(rc *RunContext) { rc.Metrics = m }
}

// WithNormalizer replaces the charset normalizer
func WithNormalizer(n *charset.Normalizer) RunContextOption {
	return func(rc *RunContext) { rc.Normalizer = n }
}

// WithRunID fixes the run ID instead of generating one
func WithRunID(id string) RunContextOption {
	return func(rc *RunContext) { rc.RunID = id }
}

// NewRunContext prepares the context of a run over cfg
func NewRunContext(cfg *config.Config, logger *slog.Logger, opts ...RunContextOption) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}

	rc := &RunContext{
		Config:    cfg,
		Paths:     cfg.GetPaths(),
		StartedAt: time.Now(),
		Files:     files.NewManager(logger),
		Logger:    logger,
		Progress:  os.Stdout,
	}
	for _, opt := range opts {
		opt(rc)
	}

	if rc.RunID == "" {
		rc.RunID = infrastructure.GenerateRunID()
	}
	if rc.Normalizer == nil {
		rc.Normalizer = charset.NewNormalizer(cfg.LegacyLabel(), charset.WithLogger(logger))
	}
	if rc.Progress == nil {
		rc.Progress = io.Discard
	}
	return rc
}

// RunRecord summarizes the run for the ledger
func (rc *RunContext) RunRecord(finishedAt time.Time) domain.RunRecord {
	run := domain.RunRecord{
		RunID:         rc.RunID,
		StartedAt:     rc.StartedAt,
		FinishedAt:    finishedAt,
		DateLast:      rc.DateLast,
		ReferenceFile: rc.ReferencePath,
		ReportPath:    rc.ReportPath,
		Records:       rc.Records.Len(),
		Windows:       append([]int(nil), rc.Config.Windows...),
		Files:         make([]string, 0, len(rc.Sources)),
	}
	if rc.Reference != nil {
		run.ReferenceDate = rc.Reference.Date
	}
	for _, src := range rc.Sources {
		run.Files = append(run.Files, src.Name)
	}
	return run
}

// discardOutputs removes every file and directory the export step wrote.
// A failed run leaves no report behind.
func (rc *RunContext) discardOutputs() error {
	var errs []error
	for _, path := range rc.Outputs {
		if err := rc.Files.RemoveFile(path); err != nil {
			errs = append(errs, err)
		}
	}
	for _, dir := range rc.outputDirs {
		if err := rc.Files.RemoveDirectory(dir); err != nil {
			errs = append(errs, err)
		}
	}
	rc.Outputs = nil
	rc.outputDirs = nil
	rc.ReportPath = ""
	return errors.Join(errs...)
}
