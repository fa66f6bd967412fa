// Package exporter writes the xs-stat report.
//
// WorkbookWriter produces <dateLast>_xs_stat.xlsx: the full record sheet
// followed by one sheet per lookback window. CSVWriter can mirror every
// sheet as a BOM-prefixed CSV for tools that do not read xlsx, and
// ParquetArchiver keeps the concatenated records in columnar form.
//
// Example usage:
//
//	w := exporter.NewWorkbookWriter(logger)
//	err := w.Write(domain.Report{
//	    Path:     exporter.ReportPath(reportDir, dateLast),
//	    DateLast: dateLast,
//	    Sheets:   sheets,
//	})
//
// All files are written through files.Manager.WriteAtomic.
package exporter
