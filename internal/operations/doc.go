// Package operations runs the xs-stat pipeline.
//
// A run is a fixed sequence of steps sharing one RunContext:
//
//   - reference: locate and load the latest reference table
//   - discover: list raw log files and validate their names
//   - normalize: re-encode raw files and write sanitized copies
//   - parse: parse sanitized copies and concatenate the records
//   - aggregate: compute one summary per lookback window
//   - enrich: left-join the reference table into each summary
//   - export: write the workbook plus optional CSV and parquet outputs
//   - ledger: record the run in SQLite when configured
//   - cleanup: remove the scratch directory
//
// The Runner executes the steps in registration order and stops at the
// first failure; remaining steps are marked skipped and no report is
// written after a failure. Each step gets a span and step metrics, and
// progress lines are printed to RunContext.Progress.
package operations
