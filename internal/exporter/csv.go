package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/derrrr/xscript-log-stat/internal/charset"
	"github.com/derrrr/xscript-log-stat/internal/files"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{files: files.NewManager(logger), logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM so spreadsheet tools detect the encoding
}

// WriteCSV atomically writes a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	return w.files.WriteAtomic(filePath, func(out io.Writer) error {
		if options.BOMPrefix {
			if _, err := out.Write(charset.BOM); err != nil {
				return fmt.Errorf("failed to write BOM: %w", err)
			}
		}

		writer := csv.NewWriter(out)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range options.Records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// WriteSheet writes one sheet as a BOM-prefixed CSV file.
func (w *CSVWriter) WriteSheet(filePath string, sheet domain.Sheet) error {
	records := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatCell(v)
		}
		records[i] = rec
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   sheet.Header,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteSheets writes each sheet to <dir>/<sheet name>.csv and returns the
// paths in sheet order.
func (w *CSVWriter) WriteSheets(dir string, sheets []domain.Sheet) ([]string, error) {
	paths := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		p := filepath.Join(dir, sheet.Name+".csv")
		if err := w.WriteSheet(p, sheet); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
