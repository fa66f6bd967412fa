// Package reference loads the ticker lookup table and joins it into the
// windowed summaries.
//
// The table directory may hold several snapshots; the file whose name
// sorts last is used and the YYYY-MMDD stamp in its name is kept for
// provenance. Tables are read from .xlsx workbooks (first sheet) or from
// delimited text of any supported encoding.
package reference
