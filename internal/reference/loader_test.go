package reference

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saintfish/chardet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/derrrr/xscript-log-stat/internal/charset"
	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/shared/testutil"
)

type fixedDetector string

func (d fixedDetector) DetectBest([]byte) (*chardet.Result, error) {
	return &chardet.Result{Charset: string(d), Confidence: 10}, nil
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name   string
		want   time.Time
		wantOK bool
	}{
		{"industry_2024-0105.csv", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"2023-1231 上市產業.xlsx", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"industry.csv", time.Time{}, false},
		{"industry_2024-1399.csv", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStamp(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindLatest(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, _, err := FindLatest(filepath.Join(t.TempDir(), "nope"), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrMissingReferenceData))
	})

	t.Run("empty directory", func(t *testing.T) {
		_, _, err := FindLatest(t.TempDir(), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrMissingReferenceData))
	})

	t.Run("path is a file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(p, nil, 0644))
		_, _, err := FindLatest(p, nil)
		assert.True(t, errors.Is(err, apperrors.ErrMissingReferenceData))
	})

	t.Run("lexicographically last wins", func(t *testing.T) {
		dir := t.TempDir()
		for _, n := range []string{"industry_2024-0301.csv", "industry_2024-0105.csv", "industry_2023-1231.xlsx"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("Ticker\n"), 0644))
		}

		path, stamp, err := FindLatest(dir, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "industry_2024-0301.csv"), path)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), stamp)
	})

	t.Run("missing stamp warns", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "industry.csv"), []byte("Ticker\n"), 0644))

		logger, handler := testutil.NewTestLogger(t)
		_, stamp, err := FindLatest(dir, logger)
		require.NoError(t, err)
		assert.True(t, stamp.IsZero())
		testutil.AssertLogContains(t, handler, slog.LevelWarn, "no YYYY-MMDD stamp")
	})
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "2330.TW", NormalizeTicker(" 2330 ", ".TW"))
	assert.Equal(t, "2330.TW", NormalizeTicker("2330.TW", ".TW"))
	assert.Equal(t, "2330", NormalizeTicker("2330", ""))
	assert.Equal(t, "", NormalizeTicker("  ", ".TW"))
}

func TestLoad_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "industry_2024-0105.csv")
	content := "\xEF\xBB\xBFTicker,Name,Industry,Market\n" +
		"2330,台積電,半導體業,上市\n" +
		"2330,台積電 duplicate,其他,上市\n" +
		"1234.TW,CompanyX,食品工業\n" +
		",blank,x,y\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	logger, handler := testutil.NewTestLogger(t)
	table, err := Load(path, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Options{
		MarketSuffix: ".TW",
		Logger:       logger,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ticker", "Name", "Industry", "Market"}, table.Columns)
	assert.Len(t, table.Rows, 2)

	row, ok := table.Lookup("2330.TW")
	require.True(t, ok)
	assert.Equal(t, "半導體業", row[2], "first duplicate wins")

	row, ok = table.Lookup("1234.TW")
	require.True(t, ok)
	assert.Equal(t, []string{"1234.TW", "CompanyX", "食品工業", ""}, row, "short rows are padded")

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Duplicate reference key")
}

func TestLoad_Big5CSV(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte("Ticker,Name,Industry\n2330,台積電,半導體業\n"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "industry_2024-0105.csv")
	require.NoError(t, os.WriteFile(path, encoded, 0644))

	table, err := Load(path, time.Time{}, Options{
		MarketSuffix: ".TW",
		Normalizer:   charset.NewNormalizer(charset.Big5, charset.WithDetector(fixedDetector("ISO-8859-1"))),
	})
	require.NoError(t, err)

	row, ok := table.Lookup("2330.TW")
	require.True(t, ok)
	assert.Equal(t, "半導體業", row[2])
}

func TestLoad_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "industry_2024-0105.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Ticker", "Name", "Industry"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2330", "台積電", "半導體業"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2454", "聯發科", "半導體業"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Load(path, time.Time{}, Options{MarketSuffix: ".TW"})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)

	row, ok := table.Lookup("2454.TW")
	require.True(t, ok)
	assert.Equal(t, "聯發科", row[1])
}

func TestLoad_MissingKeyColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "industry.csv")
	require.NoError(t, os.WriteFile(path, []byte("Code,Name\n2330,TSMC\n"), 0644))

	_, err := Load(path, time.Time{}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "industry.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := Load(path, time.Time{}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingReferenceData))
}
