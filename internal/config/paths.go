package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved, absolute directories of one run
type Paths struct {
	BaseDir      string
	RawDir       string
	FixedDir     string
	ReportDir    string
	ReferenceDir string
	LogFile      string
	LedgerFile   string
	TraceFile    string
	MetricsFile  string
}

// resolvePaths makes every relative path in the configuration absolute
// against baseDir.
func (c *Config) resolvePaths(baseDir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	c.Paths.RawDir = abs(c.Paths.RawDir)
	c.Paths.FixedDir = abs(c.Paths.FixedDir)
	c.Paths.ReportDir = abs(c.Paths.ReportDir)
	c.Paths.ReferenceDir = abs(c.Paths.ReferenceDir)
	c.Logging.FilePath = abs(c.Logging.FilePath)
	c.Ledger.Path = abs(c.Ledger.Path)
	c.Observability.TraceFile = abs(c.Observability.TraceFile)
	c.Observability.MetricsFile = abs(c.Observability.MetricsFile)
}

// GetPaths returns the directories the pipeline works with
func (c *Config) GetPaths() *Paths {
	base := ""
	if c.File != "" {
		base = filepath.Dir(c.File)
	}
	return &Paths{
		BaseDir:      base,
		RawDir:       c.Paths.RawDir,
		FixedDir:     c.Paths.FixedDir,
		ReportDir:    c.Paths.ReportDir,
		ReferenceDir: c.Paths.ReferenceDir,
		LogFile:      c.Logging.FilePath,
		LedgerFile:   c.Ledger.Path,
		TraceFile:    c.Observability.TraceFile,
		MetricsFile:  c.Observability.MetricsFile,
	}
}

// EnsureDirectories creates the raw, scratch and report directories. The
// reference directory is never created: its absence is reported by the
// reference loader.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.RawDir, p.FixedDir, p.ReportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FixedPath returns the scratch location of a raw log file
func (p *Paths) FixedPath(name string) string {
	return filepath.Join(p.FixedDir, filepath.Base(name))
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("raw", p.RawDir),
			slog.String("fixed", p.FixedDir),
			slog.String("report", p.ReportDir),
			slog.String("reference", p.ReferenceDir),
		),
		slog.Group("files",
			slog.String("log", p.LogFile),
			slog.String("ledger", p.LedgerFile),
			slog.String("trace", p.TraceFile),
			slog.String("metrics", p.MetricsFile),
		))
}
