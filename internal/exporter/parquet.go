package exporter

import (
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/derrrr/xscript-log-stat/internal/files"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

// RecordRow is the parquet schema of the record archive.
type RecordRow struct {
	Ticker string `parquet:"ticker"`
	Name   string `parquet:"name"`
	Date   int64  `parquet:"date,timestamp(millisecond)"` // Unix ms
	Script string `parquet:"script"`
}

// ArchivePath returns <reportDir>/<dateLast>_xs_records.parquet.
func ArchivePath(reportDir string, dateLast time.Time) string {
	return filepath.Join(reportDir, dateLast.Format(domain.DateLayout)+"_xs_records.parquet")
}

// ParquetArchiver writes the concatenated record set as parquet.
type ParquetArchiver struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewParquetArchiver creates an archiver.
func NewParquetArchiver(logger *slog.Logger) *ParquetArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetArchiver{files: files.NewManager(logger), logger: logger}
}

// Write stores set at path in record order.
func (a *ParquetArchiver) Write(path string, set domain.RecordSet) error {
	rows := make([]RecordRow, len(set.Records))
	for i, r := range set.Records {
		rows[i] = RecordRow{
			Ticker: r.Ticker,
			Name:   r.Name,
			Date:   r.Date.UnixMilli(),
			Script: r.Script,
		}
	}

	err := a.files.WriteAtomic(path, func(w io.Writer) error {
		return parquet.Write(w, rows)
	})
	if err != nil {
		return err
	}

	a.logger.Info("Wrote record archive",
		slog.String("path", path),
		slog.Int("records", len(rows)))
	return nil
}

// ReadArchive loads a record archive written by Write.
func ReadArchive(path string) ([]domain.Record, error) {
	rows, err := parquet.ReadFile[RecordRow](path)
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, len(rows))
	for i, r := range rows {
		records[i] = domain.Record{
			Ticker: r.Ticker,
			Name:   r.Name,
			Date:   time.UnixMilli(r.Date).UTC(),
			Script: r.Script,
		}
	}
	return records, nil
}
