package dataprocessing

import (
	"database/sql"
	"log/slog"
	"sort"
	"time"

	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

// Concat merges record sets into one. Scripts keep first-appearance
// order; records are stably sorted by (Ticker, Date) so input order
// breaks ties.
func Concat(sets ...domain.RecordSet) domain.RecordSet {
	var out domain.RecordSet
	seen := make(map[string]bool)
	total := 0
	for _, s := range sets {
		total += len(s.Records)
		for _, script := range s.Scripts {
			if !seen[script] {
				seen[script] = true
				out.Scripts = append(out.Scripts, script)
			}
		}
	}

	out.Records = make([]domain.Record, 0, total)
	for _, s := range sets {
		out.Records = append(out.Records, s.Records...)
	}

	sort.SliceStable(out.Records, func(i, j int) bool {
		a, b := out.Records[i], out.Records[j]
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Date.Before(b.Date)
	})
	return out
}

// Cutoff returns dateLast minus days calendar days.
func Cutoff(dateLast time.Time, days int) time.Time {
	return dateLast.AddDate(0, 0, -days)
}

// FilterWindow returns the records dated strictly after the window
// cutoff, in input order.
func FilterWindow(set domain.RecordSet, dateLast time.Time, days int) []domain.Record {
	cutoff := Cutoff(dateLast, days)
	var kept []domain.Record
	for _, r := range set.Records {
		if r.Date.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

type groupKey struct {
	ticker string
	name   string
}

// Summation counts script occurrences per (Ticker, Name) over the last
// days calendar days before dateLast. Counts of zero are null. A row
// whose Sum is zero has all of its numeric cells null. Rows are ordered
// by Sum descending, then Ticker and Name ascending.
func Summation(set domain.RecordSet, dateLast time.Time, days int) domain.Aggregate {
	agg := domain.Aggregate{
		WindowDays: days,
		DateLast:   dateLast,
		Cutoff:     Cutoff(dateLast, days),
		Scripts:    append([]string(nil), set.Scripts...),
		Rows:       []domain.AggregateRow{},
	}

	idx := set.ScriptIndex()
	groups := make(map[groupKey][]int64)
	var order []groupKey
	for _, r := range FilterWindow(set, dateLast, days) {
		k := groupKey{ticker: r.Ticker, name: r.Name}
		counts, ok := groups[k]
		if !ok {
			counts = make([]int64, len(set.Scripts))
			order = append(order, k)
		}
		if i, ok := idx[r.Script]; ok {
			counts[i]++
		}
		groups[k] = counts
	}

	for _, k := range order {
		agg.Rows = append(agg.Rows, buildRow(k, groups[k]))
	}

	sort.SliceStable(agg.Rows, func(i, j int) bool {
		a, b := agg.Rows[i], agg.Rows[j]
		if a.Sum.Int64 != b.Sum.Int64 {
			return a.Sum.Int64 > b.Sum.Int64
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Name < b.Name
	})

	return agg
}

func buildRow(k groupKey, counts []int64) domain.AggregateRow {
	row := domain.AggregateRow{
		Ticker: k.ticker,
		Name:   k.name,
		Counts: make([]sql.NullInt64, len(counts)),
	}

	var sum int64
	for _, c := range counts {
		sum += c
	}
	if sum == 0 {
		// Unreachable with presence flags of 1; every cell stays null.
		return row
	}

	row.Sum = sql.NullInt64{Int64: sum, Valid: true}
	for i, c := range counts {
		if c != 0 {
			row.Counts[i] = sql.NullInt64{Int64: c, Valid: true}
		}
	}
	return row
}

// Aggregator computes one Summation per configured window.
type Aggregator struct {
	windows []int
	logger  *slog.Logger
}

// NewAggregator creates an aggregator over the given lookback windows.
func NewAggregator(windows []int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{windows: windows, logger: logger}
}

// Aggregate returns the summaries in window order.
func (a *Aggregator) Aggregate(set domain.RecordSet, dateLast time.Time) []domain.Aggregate {
	out := make([]domain.Aggregate, 0, len(a.windows))
	for _, days := range a.windows {
		agg := Summation(set, dateLast, days)
		a.logger.Info("Computed window summary",
			slog.Int("window_days", days),
			slog.String("cutoff", agg.Cutoff.Format(domain.DateLayout)),
			slog.Int("rows", len(agg.Rows)))
		out = append(out, agg)
	}
	return out
}
