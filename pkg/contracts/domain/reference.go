package domain

import (
	"time"
)

// ReferenceTable is the descriptive lookup table joined into aggregates.
// Rows are keyed by the normalized ticker (market suffix applied) and
// aligned with Columns.
type ReferenceTable struct {
	File      string              `json:"file"`
	Date      time.Time           `json:"date"`
	KeyColumn string              `json:"key_column"`
	Columns   []string            `json:"columns"`
	Rows      map[string][]string `json:"rows"`
}

// ColumnIndex returns the position of a header column, or -1.
func (t *ReferenceTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Lookup returns the reference row for a normalized ticker.
func (t *ReferenceTable) Lookup(ticker string) ([]string, bool) {
	row, ok := t.Rows[ticker]
	return row, ok
}
