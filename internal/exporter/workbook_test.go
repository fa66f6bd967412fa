package exporter

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/derrrr/xscript-log-stat/pkg/contracts"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

func testReport(t *testing.T, dir string) domain.Report {
	t.Helper()
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

	records := domain.RecordSet{Scripts: []string{"A", "B"}, Records: []domain.Record{
		{Ticker: "1234", Name: "CompanyX", Date: d(1), Script: "A"},
		{Ticker: "1234", Name: "CompanyX", Date: d(2), Script: "B"},
	}}
	agg := domain.Aggregate{
		WindowDays:    1,
		Scripts:       []string{"A", "B"},
		PrimaryColumn: "Industry",
		Rows: []domain.AggregateRow{{
			Ticker:  "1234",
			Name:    "CompanyX",
			Counts:  []sql.NullInt64{{}, {Int64: 1, Valid: true}},
			Sum:     sql.NullInt64{Int64: 1, Valid: true},
			Primary: sql.NullString{String: "食品工業", Valid: true},
		}},
	}
	empty := domain.Aggregate{WindowDays: 5, Scripts: []string{"A", "B"}, Rows: []domain.AggregateRow{}}

	return domain.Report{
		Path:          ReportPath(dir, d(2)),
		DateLast:      d(2),
		ReferenceFile: "/ref/industry_2024-0105.csv",
		ReferenceDate: d(5),
		GeneratedAt:   time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC),
		Sheets: []domain.Sheet{
			records.Sheet("20240102"),
			agg.Sheet(WindowSheetName("", 1)),
			empty.Sheet(WindowSheetName("", 5)),
		},
	}
}

func TestReportPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("reports", "20240102_xs_stat.xlsx"),
		ReportPath("reports", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestWorkbookWriter_Write(t *testing.T) {
	dir := t.TempDir()
	report := testReport(t, dir)

	require.NoError(t, NewWorkbookWriter(nil).Write(report))

	f, err := excelize.OpenFile(report.Path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"20240102", "1天", "5天"}, f.GetSheetList())

	rows, err := f.GetRows("20240102")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Ticker", "Name", "Date", "A", "B"}, rows[0])
	assert.Equal(t, []string{"1234", "CompanyX", "2024-01-01", "1"}, rows[1])
	assert.Equal(t, []string{"1234", "CompanyX", "2024-01-02", "", "1"}, rows[2])

	rows, err = f.GetRows("1天")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Ticker", "Name", "Industry", "A", "B", "Sum"}, rows[0])
	assert.Equal(t, []string{"1234", "CompanyX", "食品工業", "", "1", "1"}, rows[1])

	rows, err = f.GetRows("5天")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ticker", "Name", "A", "B", "Sum"}}, rows, "empty window keeps its header")

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Contains(t, props.Description, "reference_file=industry_2024-0105.csv")
	assert.Contains(t, props.Description, "reference_date=2024-01-05")
	assert.Equal(t, contracts.ReportFormatVersion, props.Version)
	assert.Equal(t, contracts.GetVersionString(), props.Creator)
}

func TestWorkbookWriter_NoSheets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20240102_xs_stat.xlsx")

	err := NewWorkbookWriter(nil).Write(domain.Report{Path: path})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial report")
}
