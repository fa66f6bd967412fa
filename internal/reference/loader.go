package reference

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derrrr/xscript-log-stat/internal/charset"
	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/files"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

const (
	DefaultKeyColumn    = "Ticker"
	DefaultMarketSuffix = ".TW"

	stampLayout = "2006-0102"
)

var stampPattern = regexp.MustCompile(`\d{4}-\d{4}`)

// Options controls how a reference table is read.
type Options struct {
	KeyColumn    string
	MarketSuffix string
	Normalizer   *charset.Normalizer
	Logger       *slog.Logger
}

func (o *Options) defaults() {
	if o.KeyColumn == "" {
		o.KeyColumn = DefaultKeyColumn
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Normalizer == nil {
		o.Normalizer = charset.NewNormalizer(charset.Big5, charset.WithLogger(o.Logger))
	}
}

// ParseStamp extracts the YYYY-MMDD date embedded in a reference
// filename. ok is false when the name carries no valid stamp.
func ParseStamp(name string) (time.Time, bool) {
	for _, m := range stampPattern.FindAllString(filepath.Base(name), -1) {
		if t, err := time.Parse(stampLayout, m); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FindLatest returns the reference file whose name sorts last in dir
// together with its date stamp. A missing or empty directory is a
// MissingReferenceDataError.
func FindLatest(dir string, logger *slog.Logger) (string, time.Time, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", time.Time{}, apperrors.NewMissingReferenceError(dir, err)
	}

	candidates, err := files.NewDiscovery("").ListFiles(dir)
	if err != nil {
		return "", time.Time{}, apperrors.NewMissingReferenceError(dir, err)
	}

	latest, ok := files.GetLatestFile(candidates)
	if !ok {
		return "", time.Time{}, apperrors.NewMissingReferenceError(dir, nil)
	}

	stamp, ok := ParseStamp(latest.Name)
	if !ok {
		logger.Warn("Reference file name has no YYYY-MMDD stamp",
			slog.String("file", latest.Name))
	}

	logger.Info("Selected reference table",
		slog.String("file", latest.Path),
		slog.Int("candidates", len(candidates)),
		slog.Time("stamp", stamp))

	return latest.Path, stamp, nil
}

// NormalizeTicker trims a raw reference code and appends the market
// suffix unless it is already present.
func NormalizeTicker(raw, suffix string) string {
	t := strings.TrimSpace(raw)
	if t == "" || suffix == "" || strings.HasSuffix(t, suffix) {
		return t
	}
	return t + suffix
}

// Load reads a reference table. The first row is the header; rows are
// keyed by the normalized key column. For duplicate keys the first row
// wins.
func Load(path string, stamp time.Time, opts Options) (*domain.ReferenceTable, error) {
	opts.defaults()

	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = readWorkbook(path)
	} else {
		rows, err = readDelimited(path, opts.Normalizer)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewMissingReferenceError(filepath.Dir(path),
			fmt.Errorf("%s is empty", filepath.Base(path)))
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	table := &domain.ReferenceTable{
		File:      path,
		Date:      stamp,
		KeyColumn: opts.KeyColumn,
		Columns:   header,
		Rows:      make(map[string][]string, len(rows)-1),
	}

	keyIdx := table.ColumnIndex(opts.KeyColumn)
	if keyIdx < 0 {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("reference key column %q not found in %s", opts.KeyColumn, filepath.Base(path)), nil).
			WithContext("columns", header)
	}

	duplicates := 0
	for _, raw := range rows[1:] {
		row := make([]string, len(header))
		for i := range row {
			if i < len(raw) {
				row[i] = strings.TrimSpace(raw[i])
			}
		}

		key := NormalizeTicker(row[keyIdx], opts.MarketSuffix)
		if key == "" {
			continue
		}
		if _, exists := table.Rows[key]; exists {
			duplicates++
			opts.Logger.Warn("Duplicate reference key, keeping first row",
				slog.String("ticker", key),
				slog.String("file", filepath.Base(path)))
			continue
		}
		table.Rows[key] = row
	}

	opts.Logger.Info("Loaded reference table",
		slog.String("file", path),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(header)),
		slog.Int("duplicates", duplicates))

	return table, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readDelimited(path string, n *charset.Normalizer) ([][]string, error) {
	text, _, err := n.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
