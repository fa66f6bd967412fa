package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultWindowSheetFormat names window sheets after their day count.
	DefaultWindowSheetFormat = "%d天"

	dateCellLayout = "2006-01-02"
	maxSheetName   = 31
)

// formatCell renders a sheet cell for delimited output. Nulls are empty.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format(dateCellLayout)
	default:
		return fmt.Sprint(x)
	}
}

// WindowSheetName formats the sheet name of a lookback window.
func WindowSheetName(format string, days int) string {
	if format == "" {
		format = DefaultWindowSheetFormat
	}
	return sanitizeSheetName(fmt.Sprintf(format, days))
}

// sanitizeSheetName replaces characters workbook sheet names cannot hold
// and truncates to the sheet name limit.
func sanitizeSheetName(name string) string {
	sanitized := name
	for _, ch := range []string{"/", "\\", "*", "?", "[", "]", ":"} {
		sanitized = strings.ReplaceAll(sanitized, ch, " ")
	}
	sanitized = strings.TrimSpace(sanitized)
	if r := []rune(sanitized); len(r) > maxSheetName {
		sanitized = string(r[:maxSheetName])
	}
	if sanitized == "" {
		sanitized = "Sheet"
	}
	return sanitized
}

// uniqueSheetNames makes every name distinct by appending underscores.
func uniqueSheetNames(names []string) []string {
	used := make(map[string]struct{}, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		for {
			if _, exists := used[name]; !exists {
				break
			}
			name += "_"
		}
		used[name] = struct{}{}
		out[i] = name
	}
	return out
}
