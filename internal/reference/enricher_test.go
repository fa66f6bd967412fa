package reference

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

func testTable() *domain.ReferenceTable {
	return &domain.ReferenceTable{
		File:      "industry_2024-0105.csv",
		KeyColumn: "Ticker",
		Columns:   []string{"Ticker", "Name", "Market", "Industry", "Listed"},
		Rows: map[string][]string{
			"2330.TW": {"2330.TW", "台積電", "上市", "半導體業", "1994"},
			"1234.TW": {"1234.TW", "CompanyX", "上櫃", "食品工業", "2001"},
		},
	}
}

func testAggregate() domain.Aggregate {
	n := func(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }
	return domain.Aggregate{
		WindowDays: 5,
		Scripts:    []string{"A", "B"},
		Rows: []domain.AggregateRow{
			{Ticker: "2330.TW", Name: "台積電", Counts: []sql.NullInt64{n(2), n(1)}, Sum: n(3)},
			{Ticker: "9999.TW", Name: "Unknown", Counts: []sql.NullInt64{n(1), {}}, Sum: n(1)},
			{Ticker: "1234.TW", Name: "CompanyX", Counts: []sql.NullInt64{{}, n(1)}, Sum: n(1)},
		},
	}
}

func TestEnrich_ColumnOrder(t *testing.T) {
	e, err := NewEnricher(testTable(), JoinOptions{DropColumns: []string{"Name"}}, nil)
	require.NoError(t, err)

	out := e.Enrich(testAggregate())
	assert.Equal(t,
		[]string{"Ticker", "Name", "Industry", "A", "B", "Sum", "Market", "Listed"},
		out.Header())

	sheet := out.Sheet("5天")
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, []interface{}{"2330.TW", "台積電", "半導體業", int64(2), int64(1), int64(3), "上市", "1994"}, sheet.Rows[0])
	assert.Equal(t, []interface{}{"9999.TW", "Unknown", nil, int64(1), nil, int64(1), nil, nil}, sheet.Rows[1])
}

func TestEnrich_JoinTotality(t *testing.T) {
	e, err := NewEnricher(testTable(), JoinOptions{PrimaryColumn: "Industry", DropColumns: []string{"Name"}}, nil)
	require.NoError(t, err)

	in := testAggregate()
	out := e.Enrich(in)

	require.Len(t, out.Rows, len(in.Rows))
	for i := range in.Rows {
		assert.Equal(t, in.Rows[i].Ticker, out.Rows[i].Ticker)
		assert.Equal(t, in.Rows[i].Sum, out.Rows[i].Sum)
	}
	assert.True(t, out.Rows[0].Primary.Valid)
	assert.False(t, out.Rows[1].Primary.Valid)
	assert.True(t, out.Rows[2].Primary.Valid)

	// input is not mutated
	assert.False(t, in.Enriched())
	assert.Nil(t, in.Rows[0].Extra)
}

func TestEnrich_EmptyAggregate(t *testing.T) {
	e, err := NewEnricher(testTable(), JoinOptions{DropColumns: []string{"Name"}}, nil)
	require.NoError(t, err)

	out := e.Enrich(domain.Aggregate{Scripts: []string{"A"}, Rows: []domain.AggregateRow{}})
	assert.Empty(t, out.Rows)
	assert.Equal(t, []string{"Ticker", "Name", "Industry", "A", "Sum", "Market", "Listed"}, out.Header())
}

func TestNewEnricher_MissingPrimaryColumn(t *testing.T) {
	_, err := NewEnricher(testTable(), JoinOptions{PrimaryColumn: "Sector"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}
