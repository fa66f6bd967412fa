package dataprocessing

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/derrrr/xscript-log-stat/internal/charset"
	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/files"
)

// SanitizeStats counts the lines written and dropped by SanitizeFile.
type SanitizeStats struct {
	Kept    int
	Dropped int
}

// SanitizeLine turns one space-delimited log line into a comma-delimited
// one. The line terminator and any trailing delimiters are removed. ok is
// false when nothing but whitespace remains and the line must be dropped.
func SanitizeLine(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	line = strings.ReplaceAll(line, " ", ",")
	line = strings.TrimRight(line, ",")
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	return line, true
}

// SanitizeFile streams the normalized file src into dst line by line,
// keeping line order. dst starts with a BOM and uses \n terminators.
func SanitizeFile(src, dst string) (SanitizeStats, error) {
	var stats SanitizeStats

	in, err := os.Open(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	manager := files.NewManager(slog.Default())
	err = manager.WriteAtomic(dst, func(w io.Writer) error {
		out := bufio.NewWriter(w)
		if _, err := out.Write(charset.BOM); err != nil {
			return err
		}

		r := bufio.NewReader(in)
		first := true
		for {
			line, readErr := r.ReadString('\n')
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				return readErr
			}
			if first {
				line = string(bytes.TrimPrefix([]byte(line), charset.BOM))
				first = false
			}
			if line != "" {
				if fixed, ok := SanitizeLine(line); ok {
					if _, err := out.WriteString(fixed + "\n"); err != nil {
						return err
					}
					stats.Kept++
				} else {
					stats.Dropped++
				}
			}
			if errors.Is(readErr, io.EOF) {
				break
			}
		}
		return out.Flush()
	})
	if err != nil {
		return SanitizeStats{}, apperrors.NewStorageError("failed to sanitize "+src, err)
	}

	slog.Debug("Sanitized log file",
		slog.String("src", src),
		slog.String("dst", dst),
		slog.Int("kept", stats.Kept),
		slog.Int("dropped", stats.Dropped))

	return stats, nil
}
