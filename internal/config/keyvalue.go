package config

import (
	"bufio"
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
)

// keySetters maps key=value config keys to the field they set. The
// raw_log_dir / fixed_log_dir / stat_dir spellings are accepted for
// existing config.ini files.
var keySetters = map[string]func(c *Config, v string) error{
	"raw_dir":       func(c *Config, v string) error { c.Paths.RawDir = v; return nil },
	"raw_log_dir":   func(c *Config, v string) error { c.Paths.RawDir = v; return nil },
	"fixed_dir":     func(c *Config, v string) error { c.Paths.FixedDir = v; return nil },
	"fixed_log_dir": func(c *Config, v string) error { c.Paths.FixedDir = v; return nil },
	"report_dir":    func(c *Config, v string) error { c.Paths.ReportDir = v; return nil },
	"stat_dir":      func(c *Config, v string) error { c.Paths.ReportDir = v; return nil },
	"reference_dir": func(c *Config, v string) error { c.Paths.ReferenceDir = v; return nil },
	"industry_dir":  func(c *Config, v string) error { c.Paths.ReferenceDir = v; return nil },

	"windows": func(c *Config, v string) error {
		ws, err := parseInts(v)
		c.Windows = ws
		return err
	},
	"workers": func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		c.Workers = n
		return err
	},

	"legacy_codepage": func(c *Config, v string) error { c.Encoding.LegacyCodepage = v; return nil },
	"suffix_tokens":   func(c *Config, v string) error { c.Encoding.SuffixTokens = splitList(v); return nil },

	"key_column":     func(c *Config, v string) error { c.Reference.KeyColumn = v; return nil },
	"primary_column": func(c *Config, v string) error { c.Reference.PrimaryColumn = v; return nil },
	"drop_columns":   func(c *Config, v string) error { c.Reference.DropColumns = splitList(v); return nil },
	"market_suffix":  func(c *Config, v string) error { c.Reference.MarketSuffix = v; return nil },

	"sheet_format": func(c *Config, v string) error { c.Report.SheetFormat = v; return nil },
	"csv":          func(c *Config, v string) (err error) { c.Report.CSV, err = strconv.ParseBool(v); return },
	"parquet":      func(c *Config, v string) (err error) { c.Report.Parquet, err = strconv.ParseBool(v); return },

	"ledger_path": func(c *Config, v string) error { c.Ledger.Path = v; return nil },

	"log_level":  func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"log_format": func(c *Config, v string) error { c.Logging.Format = v; return nil },
	"log_output": func(c *Config, v string) error { c.Logging.Output = v; return nil },
	"log_file":   func(c *Config, v string) error { c.Logging.FilePath = v; return nil },

	"trace_exporter": func(c *Config, v string) error { c.Observability.TraceExporter = v; return nil },
	"trace_file":     func(c *Config, v string) error { c.Observability.TraceFile = v; return nil },
	"metrics_file":   func(c *Config, v string) error { c.Observability.MetricsFile = v; return nil },
}

// loadKeyValue applies a key=value file. INI section headers and ;
// comments are skipped; keys are case-insensitive.
func loadKeyValue(path string, text []byte, cfg *Config) error {
	values, err := godotenv.UnmarshalBytes(stripSections(text))
	if err != nil {
		return apperrors.NewConfigError("failed to parse config file "+path, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		setter, ok := keySetters[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			cfg.Ignored = append(cfg.Ignored, k)
			continue
		}
		if err := setter(cfg, strings.TrimSpace(values[k])); err != nil {
			return apperrors.NewConfigError("invalid value for "+k, err).WithContext("path", path)
		}
	}
	return nil
}

func stripSections(text []byte) []byte {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			continue
		}
		if strings.HasPrefix(trimmed, ";") {
			continue
		}
		out.WriteString(normalizeAssignment(line))
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// normalizeAssignment rewrites "key: value" and "key = value" as key=value.
func normalizeAssignment(line string) string {
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return line
	}
	return strings.TrimSpace(line[:i]) + "=" + strings.TrimSpace(line[i+1:])
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(v string) ([]int, error) {
	var out []int
	for _, p := range splitList(v) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
