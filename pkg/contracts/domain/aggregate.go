package domain

import (
	"database/sql"
	"time"
)

// AggregateRow is the per-instrument summary of one lookback window.
// Counts is aligned with Aggregate.Scripts. A count of zero is stored as
// null; a row whose Sum is zero has every numeric cell null.
type AggregateRow struct {
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Counts []sql.NullInt64 `json:"counts"`
	Sum    sql.NullInt64   `json:"sum"`

	// Enrichment, filled in by the reference join.
	Primary sql.NullString   `json:"primary"`
	Extra   []sql.NullString `json:"extra,omitempty"`
}

// Aggregate is the result of summing presence flags over one window.
type Aggregate struct {
	WindowDays int            `json:"window_days"`
	DateLast   time.Time      `json:"date_last"`
	Cutoff     time.Time      `json:"cutoff"`
	Scripts    []string       `json:"scripts"`
	Rows       []AggregateRow `json:"rows"`

	// Set once the aggregate has been enriched.
	PrimaryColumn string   `json:"primary_column,omitempty"`
	ExtraColumns  []string `json:"extra_columns,omitempty"`
}

// Enriched reports whether a reference join has been applied.
func (a Aggregate) Enriched() bool {
	return a.PrimaryColumn != ""
}

// Header returns the column order used in reports:
// Ticker, Name, [primary], scripts..., Sum, [extra...].
func (a Aggregate) Header() []string {
	header := []string{"Ticker", "Name"}
	if a.Enriched() {
		header = append(header, a.PrimaryColumn)
	}
	header = append(header, a.Scripts...)
	header = append(header, "Sum")
	return append(header, a.ExtraColumns...)
}

// Sheet renders the aggregate with nulls as nil cells.
func (a Aggregate) Sheet(name string) Sheet {
	rows := make([][]interface{}, 0, len(a.Rows))
	for _, r := range a.Rows {
		row := []interface{}{r.Ticker, r.Name}
		if a.Enriched() {
			row = append(row, nullString(r.Primary))
		}
		for _, c := range r.Counts {
			row = append(row, nullInt(c))
		}
		row = append(row, nullInt(r.Sum))
		for i := range a.ExtraColumns {
			var v sql.NullString
			if i < len(r.Extra) {
				v = r.Extra[i]
			}
			row = append(row, nullString(v))
		}
		rows = append(rows, row)
	}
	return Sheet{Name: name, Header: a.Header(), Rows: rows}
}

func nullInt(v sql.NullInt64) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

func nullString(v sql.NullString) interface{} {
	if !v.Valid {
		return nil
	}
	return v.String
}
