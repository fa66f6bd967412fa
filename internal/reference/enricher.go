package reference

import (
	"database/sql"
	"fmt"
	"log/slog"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

const (
	DefaultPrimaryColumn = "Industry"
	DefaultNameColumn    = "Name"
)

// JoinOptions selects the columns carried into the summaries.
type JoinOptions struct {
	// PrimaryColumn is placed right after Ticker and Name.
	PrimaryColumn string
	// DropColumns are omitted from the output in addition to the key.
	DropColumns []string
}

// Enricher left-joins a reference table into window summaries.
type Enricher struct {
	table   *domain.ReferenceTable
	opts    JoinOptions
	primary int
	extras  []int
	logger  *slog.Logger
}

// NewEnricher resolves the join columns against the table header. A
// primary column missing from the header is a configuration error.
func NewEnricher(table *domain.ReferenceTable, opts JoinOptions, logger *slog.Logger) (*Enricher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PrimaryColumn == "" {
		opts.PrimaryColumn = DefaultPrimaryColumn
	}

	primary := table.ColumnIndex(opts.PrimaryColumn)
	if primary < 0 {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("reference column %q not found", opts.PrimaryColumn), nil).
			WithContext("file", table.File).
			WithContext("columns", table.Columns)
	}

	skip := map[string]bool{table.KeyColumn: true, opts.PrimaryColumn: true}
	for _, c := range opts.DropColumns {
		skip[c] = true
	}

	var extras []int
	for i, c := range table.Columns {
		if !skip[c] && c != "" {
			extras = append(extras, i)
		}
	}

	return &Enricher{table: table, opts: opts, primary: primary, extras: extras, logger: logger}, nil
}

// Enrich returns a copy of agg with the reference columns attached.
// Every input row appears exactly once; rows without a match keep null
// enrichment.
func (e *Enricher) Enrich(agg domain.Aggregate) domain.Aggregate {
	out := agg
	out.PrimaryColumn = e.opts.PrimaryColumn
	out.ExtraColumns = make([]string, len(e.extras))
	for i, idx := range e.extras {
		out.ExtraColumns[i] = e.table.Columns[idx]
	}

	out.Rows = make([]domain.AggregateRow, len(agg.Rows))
	matched := 0
	for i, row := range agg.Rows {
		row.Extra = make([]sql.NullString, len(e.extras))
		row.Primary = sql.NullString{}
		if ref, ok := e.table.Lookup(row.Ticker); ok {
			matched++
			row.Primary = sql.NullString{String: ref[e.primary], Valid: true}
			for j, idx := range e.extras {
				row.Extra[j] = sql.NullString{String: ref[idx], Valid: true}
			}
		}
		out.Rows[i] = row
	}

	e.logger.Info("Enriched window summary",
		slog.Int("window_days", agg.WindowDays),
		slog.Int("rows", len(out.Rows)),
		slog.Int("matched", matched),
		slog.Int("unmatched", len(out.Rows)-matched))

	return out
}
