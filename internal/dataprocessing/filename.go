package dataprocessing

import (
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"
)

// DefaultSuffixTokens are stripped from filenames before they are split.
var DefaultSuffixTokens = []string{"-QL"}

// ParseSourceName extracts the date and script name from a log filename
// of the form <YYYYMMDD>_<script>[-suffix].<ext>. The date is the first
// underscore segment and the script the last one.
func ParseSourceName(path string, suffixes []string) (domain.Source, error) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, token := range suffixes {
		if token != "" {
			stem = strings.ReplaceAll(stem, token, "")
		}
	}

	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return domain.Source{}, apperrors.NewNamingConventionError(name,
			"expected <YYYYMMDD>_<script>")
	}

	date, ok := parseDateKey(parts[0])
	if !ok {
		return domain.Source{}, apperrors.NewNamingConventionError(name,
			"first segment "+parts[0]+" is not a YYYYMMDD date")
	}

	script := strings.TrimSpace(parts[len(parts)-1])
	if script == "" {
		return domain.Source{}, apperrors.NewNamingConventionError(name,
			"missing script name")
	}

	return domain.Source{Path: path, Name: name, Date: date, Script: script}, nil
}

// ParseSourceNames validates every filename before any file is touched
// and returns the sources with the latest filename date.
func ParseSourceNames(paths []string, suffixes []string) ([]domain.Source, time.Time, error) {
	sources := make([]domain.Source, 0, len(paths))
	var dateLast time.Time
	for _, p := range paths {
		src, err := ParseSourceName(p, suffixes)
		if err != nil {
			return nil, time.Time{}, err
		}
		if src.Date.After(dateLast) {
			dateLast = src.Date
		}
		sources = append(sources, src)
	}
	return sources, dateLast, nil
}

// parseDateKey parses an 8-digit YYYYMMDD calendar date.
func parseDateKey(s string) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return time.Time{}, false
		}
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
