// =============================================================================
// PIXID Invoice Corrector - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration.
//
// CONFIGURATION SOURCES (highest priority first):
//   1. Environment variables prefixed with PIXID_ (PIXID_OUTPUT_DIR,
//      PIXID_TOLERANCES_AMOUNT, ...)
//   2. The config file (config.yaml in ".", "./config" or given by --config)
//   3. Built-in defaults
//
// RULE TABLES:
//   The line rule table is the calculator default unless rules_file points
//   at a YAML file (rules.go) or an XLSX workbook (xlsxparser package).
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PIXID"

// Report formats.
const (
	ReportJSON = "json"
	ReportYAML = "yaml"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the process command.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir" yaml:"input_dir"`

	// InputPattern selects the files of InputDir to correct.
	// Default: "*.xml"
	InputPattern string `mapstructure:"input_pattern" yaml:"input_pattern"`

	// Recursive also scans the subdirectories of InputDir.
	// Default: false
	Recursive bool `mapstructure:"recursive" yaml:"recursive"`

	// OutputDir receives the corrected XML files.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// ReportDir receives the correction reports.
	// Default: "./reports"
	ReportDir string `mapstructure:"report_dir" yaml:"report_dir"`

	// InputArchiveDir receives input files once corrected.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir" yaml:"input_archive_dir"`

	// OutputArchiveDir is for long-term storage of corrected files.
	// Default: "./output_archive"
	OutputArchiveDir string `mapstructure:"output_archive_dir" yaml:"output_archive_dir"`

	// LogDir receives the per-run error and summary logs.
	// Default: "./logs"
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"`

	// ArchiveByDate files archives under YYYY/MM/DD subdirectories.
	// Default: false
	ArchiveByDate bool `mapstructure:"archive_by_date" yaml:"archive_by_date"`

	// ArchiveRetentionDays purges archived files older than this many days
	// after each batch. Zero keeps everything.
	// Default: 0
	ArchiveRetentionDays int `mapstructure:"archive_retention_days" yaml:"archive_retention_days"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the corrected file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {original}  - Input file name without extension
	//   {invoice}   - Invoice identifier
	// Default: "{original}_corrected.xml"
	OutputNameFormat string `mapstructure:"output_name_format" yaml:"output_name_format"`

	// ReportFormat is "json" or "yaml".
	// Default: "json"
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`

	// XML controls serialization of corrected documents.
	XML XMLSettings `mapstructure:"xml" yaml:"xml"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files corrected concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// ContinueOnError keeps the batch going when one file fails.
	// Default: true
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error"`

	// Force writes corrected files even when validation fails.
	// Default: false
	Force bool `mapstructure:"force" yaml:"force"`

	// RulesFile is an optional YAML or XLSX line rule table.
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file"`

	// Tolerances bounds the detector and validator comparisons.
	Tolerances ToleranceSettings `mapstructure:"tolerances" yaml:"tolerances"`
}

// XMLSettings controls XML output.
type XMLSettings struct {
	// Indent is the number of spaces per level, negative for none.
	// Default: 2
	Indent int `mapstructure:"indent" yaml:"indent"`

	// Declaration writes the <?xml ...?> header.
	// Default: true
	Declaration bool `mapstructure:"declaration" yaml:"declaration"`
}

// ToleranceSettings mirrors types.Tolerances in config-friendly units.
type ToleranceSettings struct {
	Hours  float64 `mapstructure:"hours" yaml:"hours"`
	Amount float64 `mapstructure:"amount" yaml:"amount"`
	Cent   float64 `mapstructure:"cent" yaml:"cent"`
}

// ToleranceValues converts the settings for the pipeline.
func (c *MainConfig) ToleranceValues() types.Tolerances {
	return types.Tolerances{
		Hours:  decimal.NewFromFloat(c.Tolerances.Hours),
		Amount: decimal.NewFromFloat(c.Tolerances.Amount),
		Cent:   decimal.NewFromFloat(c.Tolerances.Cent),
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration. An empty configPath searches for
// config.yaml and tolerates its absence; an explicit path must exist.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	v := viper.New()
	applyMainConfigDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *MainConfig {
	v := viper.New()
	applyMainConfigDefaults(v)

	var config MainConfig
	_ = v.Unmarshal(&config)
	return &config
}

// applyMainConfigDefaults registers default values for every option.
func applyMainConfigDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("input_pattern", "*.xml")
	v.SetDefault("recursive", false)
	v.SetDefault("output_dir", "./output")
	v.SetDefault("report_dir", "./reports")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("output_archive_dir", "./output_archive")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("archive_by_date", false)
	v.SetDefault("archive_retention_days", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_name_format", "{original}_corrected.xml")
	v.SetDefault("report_format", ReportJSON)
	v.SetDefault("xml.indent", 2)
	v.SetDefault("xml.declaration", true)
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("continue_on_error", true)
	v.SetDefault("force", false)
	v.SetDefault("rules_file", "")
	v.SetDefault("tolerances.hours", 0.01)
	v.SetDefault("tolerances.amount", 1.0)
	v.SetDefault("tolerances.cent", 0.01)
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(config.LogLevel)); err != nil || config.LogLevel == "" {
		return fmt.Errorf("log_level %q is not a valid level", config.LogLevel)
	}

	config.ReportFormat = strings.ToLower(config.ReportFormat)
	if config.ReportFormat != ReportJSON && config.ReportFormat != ReportYAML {
		return fmt.Errorf("report_format must be %q or %q, got %q", ReportJSON, ReportYAML, config.ReportFormat)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	if config.ArchiveRetentionDays < 0 {
		return fmt.Errorf("archive_retention_days must not be negative, got %d", config.ArchiveRetentionDays)
	}

	if _, err := filepath.Match(config.InputPattern, ""); err != nil {
		return fmt.Errorf("input_pattern %q is not a valid glob: %w", config.InputPattern, err)
	}

	if config.OutputNameFormat == "" {
		return fmt.Errorf("output_name_format is required")
	}

	t := config.Tolerances
	if t.Hours < 0 || t.Amount < 0 || t.Cent < 0 {
		return fmt.Errorf("tolerances must not be negative")
	}

	return nil
}

// EnsureDirectories creates the working directories of the process command.
func (c *MainConfig) EnsureDirectories() error {
	dirs := []string{
		c.InputDir,
		c.OutputDir,
		c.ReportDir,
		c.InputArchiveDir,
		c.OutputArchiveDir,
		c.LogDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
