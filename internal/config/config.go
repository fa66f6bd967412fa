package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/derrrr/xscript-log-stat/internal/charset"
	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
)

// EnvPrefix namespaces environment overrides, e.g. XS_PATHS_RAW_DIR.
const EnvPrefix = "XS"

// Config represents the complete application configuration
type Config struct {
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Windows       []int               `yaml:"windows" envconfig:"WINDOWS" validate:"min=1,dive,gt=0"`
	Workers       int                 `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
	Encoding      EncodingConfig      `yaml:"encoding" envconfig:"ENCODING"`
	Reference     ReferenceConfig     `yaml:"reference" envconfig:"REFERENCE"`
	Report        ReportConfig        `yaml:"report" envconfig:"REPORT"`
	Ledger        LedgerConfig        `yaml:"ledger" envconfig:"LEDGER"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`

	// File is the configuration file the values were read from.
	File string `yaml:"-" ignored:"true"`
	// Ignored lists keys of a key=value file that were not recognized.
	Ignored []string `yaml:"-" ignored:"true"`
}

// PathsConfig contains the pipeline directories
type PathsConfig struct {
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	FixedDir     string `yaml:"fixed_dir" envconfig:"FIXED_DIR" validate:"required"`
	ReportDir    string `yaml:"report_dir" envconfig:"REPORT_DIR" validate:"required"`
	ReferenceDir string `yaml:"reference_dir" envconfig:"REFERENCE_DIR" validate:"required"`
}

// EncodingConfig controls charset detection and filename parsing
type EncodingConfig struct {
	LegacyCodepage string   `yaml:"legacy_codepage" envconfig:"LEGACY_CODEPAGE" validate:"required"`
	SuffixTokens   []string `yaml:"suffix_tokens" envconfig:"SUFFIX_TOKENS"`
}

// ReferenceConfig describes the reference table layout
type ReferenceConfig struct {
	KeyColumn     string   `yaml:"key_column" envconfig:"KEY_COLUMN" validate:"required"`
	PrimaryColumn string   `yaml:"primary_column" envconfig:"PRIMARY_COLUMN" validate:"required"`
	DropColumns   []string `yaml:"drop_columns" envconfig:"DROP_COLUMNS"`
	MarketSuffix  string   `yaml:"market_suffix" envconfig:"MARKET_SUFFIX"`
}

// ReportConfig controls report outputs
type ReportConfig struct {
	SheetFormat string `yaml:"sheet_format" envconfig:"SHEET_FORMAT" validate:"required,contains=%d"`
	CSV         bool   `yaml:"csv" envconfig:"CSV"`
	Parquet     bool   `yaml:"parquet" envconfig:"PARQUET"`
}

// LedgerConfig points at the SQLite run ledger. An empty path disables it.
type LedgerConfig struct {
	Path string `yaml:"path" envconfig:"PATH"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ObservabilityConfig selects trace and metrics outputs
type ObservabilityConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout file"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TraceExporter file"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			RawDir:       "xs_log",
			FixedDir:     "xs_log_fixed",
			ReportDir:    "xs_stat",
			ReferenceDir: "industry",
		},
		Windows: []int{1, 5, 20, 60},
		Workers: 1,
		Encoding: EncodingConfig{
			LegacyCodepage: string(charset.Big5),
			SuffixTokens:   []string{"-QL"},
		},
		Reference: ReferenceConfig{
			KeyColumn:     "Ticker",
			PrimaryColumn: "Industry",
			DropColumns:   []string{"Name"},
			MarketSuffix:  ".TW",
		},
		Report: ReportConfig{
			SheetFormat: "%d天",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/xs-stat.log",
		},
		Observability: ObservabilityConfig{
			TraceExporter: "none",
		},
	}
}

// Load builds the configuration: defaults, then the file at path (YAML
// for .yaml/.yml, key=value otherwise), then a .env file next to it,
// then XS_* environment variables. Relative paths resolve against the
// config file directory. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	baseDir, err := os.Getwd()
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve working directory", err)
	}

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid config path "+path, err)
		}
		if err := loadFromFile(abs, cfg); err != nil {
			return nil, err
		}
		cfg.File = abs
		baseDir = filepath.Dir(abs)

		if err := loadDotEnv(filepath.Join(baseDir, ".env")); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.resolvePaths(baseDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the file at path onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("failed to read config file", err).WithContext("path", path)
	}

	text, _, err := charset.NewNormalizer(charset.Big5).Decode(data)
	if err != nil {
		return apperrors.NewConfigError("failed to decode config file "+path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(text, cfg); err != nil {
			return apperrors.NewConfigError("failed to parse config file "+path, err)
		}
		return nil
	default:
		return loadKeyValue(path, text, cfg)
	}
}

// loadDotEnv exports variables from an optional .env file without
// overriding ones already set in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.NewConfigError("failed to load "+path, err)
	}
	return nil
}

// Validate checks the configuration and reports the first violation as a
// ConfigurationError.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.NewConfigError(
				fmt.Sprintf("invalid %s: failed %q check", fe.Namespace(), fe.Tag()), err).
				WithContext("field", fe.Namespace())
		}
		return apperrors.NewConfigError("invalid configuration", err)
	}

	if _, err := charset.ParseLabel(c.Encoding.LegacyCodepage); err != nil {
		return apperrors.NewConfigError("invalid encoding.legacy_codepage", err)
	}

	seen := make(map[int]bool, len(c.Windows))
	for _, w := range c.Windows {
		if seen[w] {
			return apperrors.NewConfigError("duplicate window "+strconv.Itoa(w), nil)
		}
		seen[w] = true
	}
	return nil
}

// LegacyLabel returns the configured legacy codepage label
func (c *Config) LegacyLabel() charset.Label {
	label, err := charset.ParseLabel(c.Encoding.LegacyCodepage)
	if err != nil {
		return charset.Big5
	}
	return label
}
