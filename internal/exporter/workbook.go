package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derrrr/xscript-log-stat/internal/files"
	"github.com/derrrr/xscript-log-stat/pkg/contracts"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

const dateNumFmt = "yyyy-mm-dd"

// WorkbookWriter assembles report sheets into an xlsx workbook.
type WorkbookWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{files: files.NewManager(logger), logger: logger}
}

// ReportPath returns <reportDir>/<dateLast>_xs_stat.xlsx.
func ReportPath(reportDir string, dateLast time.Time) string {
	return filepath.Join(reportDir, dateLast.Format(domain.DateLayout)+"_xs_stat.xlsx")
}

// Write renders report.Sheets in order and atomically stores the workbook
// at report.Path.
func (w *WorkbookWriter) Write(report domain.Report) error {
	f, err := w.build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	err = w.files.WriteAtomic(report.Path, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Wrote workbook",
		slog.String("path", report.Path),
		slog.Int("sheets", len(report.Sheets)))
	return nil
}

func (w *WorkbookWriter) build(report domain.Report) (*excelize.File, error) {
	if len(report.Sheets) == 0 {
		return nil, fmt.Errorf("report has no sheets")
	}

	f := excelize.NewFile()

	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(dateNumFmt)})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}

	names := make([]string, len(report.Sheets))
	for i, s := range report.Sheets {
		names[i] = sanitizeSheetName(s.Name)
	}
	names = uniqueSheetNames(names)

	for i, sheet := range report.Sheets {
		name := names[i]
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeSheet(f, name, sheet, dateStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	props := &excelize.DocProperties{
		Title:    "XScript log statistics " + report.DateLast.Format(domain.DateLayout),
		Creator:  contracts.GetVersionString(),
		Created:  report.GeneratedAt.UTC().Format(time.RFC3339),
		Keywords: report.DateLast.Format(domain.DateLayout),
		Version:  contracts.ReportFormatVersion,
	}
	if report.ReferenceFile != "" {
		props.Subject = "reference " + filepath.Base(report.ReferenceFile)
		props.Description = fmt.Sprintf("reference_file=%s; reference_date=%s",
			filepath.Base(report.ReferenceFile), formatStamp(report.ReferenceDate))
	}
	if err := f.SetDocProps(props); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	return f, nil
}

func writeSheet(f *excelize.File, name string, sheet domain.Sheet, dateStyle int) error {
	for col, h := range sheet.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}

	dateCols := make(map[int]bool)
	for r, row := range sheet.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
			if _, ok := v.(time.Time); ok {
				dateCols[c] = true
			}
		}
	}

	for c := range dateCols {
		first, _ := excelize.CoordinatesToCellName(c+1, 2)
		last, _ := excelize.CoordinatesToCellName(c+1, len(sheet.Rows)+1)
		if err := f.SetCellStyle(name, first, last, dateStyle); err != nil {
			return err
		}
	}

	if n := len(sheet.Header); n > 0 {
		lastCol, _ := excelize.ColumnNumberToName(n)
		_ = f.SetColWidth(name, "A", lastCol, 12)
	}
	return nil
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(dateCellLayout)
}

func strPtr(s string) *string {
	return &s
}
