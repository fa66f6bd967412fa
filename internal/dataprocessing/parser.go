package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/derrrr/xscript-log-stat/internal/charset"
	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

// recordColumns is the number of leading positional columns kept from
// each row: Ticker, Name, Date.
const recordColumns = 3

// ParseFile reads a sanitized, headerless log file and returns its rows
// as records tagged with script. Columns past the third are discarded. A
// missing or malformed Date cell fails the whole file.
func ParseFile(path, script string) (domain.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, err := br.Peek(len(charset.BOM)); err == nil && bytes.Equal(head, charset.BOM) {
		if _, err := br.Discard(len(charset.BOM)); err != nil {
			return domain.RecordSet{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	set := domain.RecordSet{Scripts: []string{script}}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RecordSet{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		line, _ := reader.FieldPos(0)
		if len(row) > recordColumns {
			row = row[:recordColumns]
		}

		var ticker, name, rawDate string
		ticker = strings.TrimSpace(row[0])
		if len(row) > 1 {
			name = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			rawDate = strings.TrimSpace(row[2])
		}

		date, ok := parseDateKey(rawDate)
		if !ok {
			return domain.RecordSet{}, apperrors.NewMalformedDateError(path, line, rawDate, nil)
		}

		set.Records = append(set.Records, domain.Record{
			Ticker: ticker,
			Name:   name,
			Date:   date,
			Script: script,
		})
	}

	slog.Debug("Parsed log file",
		slog.String("path", path),
		slog.String("script", script),
		slog.Int("records", len(set.Records)))

	return set, nil
}
