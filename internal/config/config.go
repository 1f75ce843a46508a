// =============================================================================
// Fleet Payment Summary - Configuration Module
// =============================================================================
//
// This module defines the application configuration and its defaults. Values
// are layered by Load (see loader.go):
//
//   1. Defaults (New)
//   2. YAML config file (--config, optional)
//   3. Environment variables (FLEETSUM_ prefix)
//   4. Command-line flags (applied by the cmd package)
//
// EXAMPLE config.yaml:
//   summary_file: Detailed_Payment_Summary_All_Fleets.csv
//   output_dir: fleet_summary
//   contracts_file: ./contracts.yaml
//   duplicate_vehicle_policy: reject
//   csv:
//     delimiter: ","
//
// =============================================================================

package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// DUPLICATE VEHICLE POLICIES
// =============================================================================

const (
	// PolicyLastWins keeps the contract assigned last when a vehicle is listed
	// under more than one contract.
	PolicyLastWins = "last_wins"

	// PolicyReject fails index construction on any duplicate vehicle.
	PolicyReject = "reject"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// SummaryFile is the path of the combined all-fleets summary CSV.
	// Default: "Detailed_Payment_Summary_All_Fleets.csv"
	SummaryFile string `koanf:"summary_file"`

	// OutputDir is the directory receiving one <Fleet>_Drivers.csv per fleet.
	// Created if absent.
	// Default: "fleet_summary"
	OutputDir string `koanf:"output_dir"`

	// XLSXFile, when set, also writes the summary as an Excel workbook.
	XLSXFile string `koanf:"xlsx_file"`

	// MetricsFile, when set, receives run metrics in Prometheus text format.
	MetricsFile string `koanf:"metrics_file"`

	// Metrics shapes the metrics written to MetricsFile.
	Metrics MetricsSettings `koanf:"metrics"`

	// SummaryLogDir, when set, receives a processing summary text log per run.
	SummaryLogDir string `koanf:"summary_log_dir"`

	// =========================================================================
	// REFERENCE TABLE SETTINGS
	// =========================================================================

	// ContractsFile is a YAML or XLSX contract reference table.
	// Empty means the table compiled into the binary.
	ContractsFile string `koanf:"contracts_file"`

	// DuplicateVehiclePolicy decides what happens when a vehicle is listed
	// under two contracts. Valid values: "last_wins", "reject".
	// Default: "last_wins"
	DuplicateVehiclePolicy string `koanf:"duplicate_vehicle_policy"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `koanf:"log_level"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// CSV contains settings for reading the trip export.
	CSV CSVSettings `koanf:"csv"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing the trip export.
type CSVSettings struct {
	// Delimiter is the single character separating fields.
	// Accepts "tab" and "\t" as aliases for a tab.
	// Default: ","
	Delimiter string `koanf:"delimiter"`

	// NAValues are cell values read as absent.
	// Default: DefaultNAValues
	NAValues []string `koanf:"na_values"`
}

// MetricsSettings names and labels the run metrics.
type MetricsSettings struct {
	// Namespace prefixes every metric name.
	// Default: "fleetsum"
	Namespace string `koanf:"namespace"`

	// Labels are attached to every metric, e.g. {depot: north}.
	Labels map[string]string `koanf:"labels"`

	// DurationBuckets are the run duration histogram buckets, in seconds.
	DurationBuckets []float64 `koanf:"duration_buckets"`
}

// DefaultNAValues mirrors the markers spreadsheet and dataframe tooling treat
// as missing when reading a CSV export.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// New returns a MainConfig populated with defaults.
func New() *MainConfig {
	c := &MainConfig{}
	applyDefaults(c)
	return c
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(c *MainConfig) {
	if c.SummaryFile == "" {
		c.SummaryFile = "Detailed_Payment_Summary_All_Fleets.csv"
	}
	if c.OutputDir == "" {
		c.OutputDir = "fleet_summary"
	}
	if c.DuplicateVehiclePolicy == "" {
		c.DuplicateVehiclePolicy = PolicyLastWins
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "fleetsum"
	}
	if c.CSV.Delimiter == "" {
		c.CSV.Delimiter = ","
	}
	if len(c.CSV.NAValues) == 0 {
		c.CSV.NAValues = append([]string(nil), DefaultNAValues...)
	}
}

// Comma returns the delimiter as a rune.
func (s CSVSettings) Comma() rune {
	switch s.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "":
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// Validate checks the configuration for values the pipeline cannot use.
func (c *MainConfig) Validate() error {
	if strings.TrimSpace(c.SummaryFile) == "" {
		return fmt.Errorf("%w: summary_file must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}

	switch c.DuplicateVehiclePolicy {
	case PolicyLastWins, PolicyReject:
	default:
		return fmt.Errorf("%w: unknown duplicate_vehicle_policy %q", ErrInvalidConfig, c.DuplicateVehiclePolicy)
	}

	for i, b := range c.Metrics.DurationBuckets {
		if b <= 0 || (i > 0 && b <= c.Metrics.DurationBuckets[i-1]) {
			return fmt.Errorf("%w: metrics.duration_buckets must be positive and increasing", ErrInvalidConfig)
		}
	}

	switch c.CSV.Delimiter {
	case "\\t", "tab", "TAB":
	default:
		if utf8.RuneCountInString(c.CSV.Delimiter) != 1 {
			return fmt.Errorf("%w: csv.delimiter must be a single character, got %q", ErrInvalidConfig, c.CSV.Delimiter)
		}
		if c.CSV.Comma() == '"' || c.CSV.Comma() == '\n' || c.CSV.Comma() == '\r' {
			return fmt.Errorf("%w: csv.delimiter %q is not allowed", ErrInvalidConfig, c.CSV.Delimiter)
		}
	}

	return nil
}
