// =============================================================================
// Tangerine Label Generator - Configuration Module
// =============================================================================
//
// This module loads and validates the application configuration from a single
// YAML file. The configuration covers:
//   1. Backend selection and connection parameters (spreadsheet or document store)
//   2. Label rendering settings (unit prices, fallback sender)
//   3. Logging settings
//
// All settings have working defaults, so an empty file is a valid
// configuration for the spreadsheet backend with the stock order form.
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jejufarm/tangerine-labels/internal/order"
)

// Backend kinds accepted in the "backend" setting.
const (
	BackendSheet    = "sheet"
	BackendDocument = "document"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full application configuration.
type Config struct {
	// =========================================================================
	// BACKEND SETTINGS
	// =========================================================================

	// Backend selects the order source: "sheet" for the spreadsheet workbook,
	// "document" for the SQLite document store.
	// Default: "sheet"
	Backend string `yaml:"backend"`

	// Sheet configures the spreadsheet backend.
	Sheet SheetConfig `yaml:"sheet"`

	// Document configures the document-store backend.
	Document DocumentConfig `yaml:"document"`

	// RequiredFields is the set of column headers every row must carry.
	// Defaults to the stock order form headers.
	RequiredFields []string `yaml:"required_fields"`

	// =========================================================================
	// LABEL SETTINGS
	// =========================================================================

	// Prices are the unit prices per box size, in won.
	Prices Prices `yaml:"prices"`

	// DefaultSender is printed in place of the sender block when an order is
	// missing any of the sender name, address, or phone.
	DefaultSender Sender `yaml:"default_sender"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls log verbosity.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// SheetConfig holds the spreadsheet backend settings.
type SheetConfig struct {
	// Path is the XLSX workbook holding the order form responses.
	// Default: "./orders.xlsx"
	Path string `yaml:"path"`

	// SheetName is the worksheet to read. Empty means the first sheet.
	SheetName string `yaml:"sheet_name"`
}

// DocumentConfig holds the document-store backend settings.
type DocumentConfig struct {
	// Path is the SQLite database file.
	// Default: "./orders.db"
	Path string `yaml:"path"`

	// Table is the collection table name.
	// Default: "orders"
	Table string `yaml:"table"`
}

// Prices holds the unit prices per box size.
type Prices struct {
	// Box5kg is the price of a 5kg box in won.
	Box5kg int `yaml:"box_5kg"`

	// Box10kg is the price of a 10kg box in won.
	Box10kg int `yaml:"box_10kg"`
}

// Sender is a sender identity triple used as the fallback sender.
type Sender struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from a YAML file, applies defaults, and
// validates it. A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err != nil && os.IsNotExist(err):
		// Run on defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
// The stock defaults reproduce the original order form setup.
func applyDefaults(cfg *Config) {
	if cfg.Backend == "" {
		cfg.Backend = BackendSheet
	}
	if cfg.Sheet.Path == "" {
		cfg.Sheet.Path = "./orders.xlsx"
	}
	if cfg.Document.Path == "" {
		cfg.Document.Path = "./orders.db"
	}
	if cfg.Document.Table == "" {
		cfg.Document.Table = "orders"
	}
	if len(cfg.RequiredFields) == 0 {
		cfg.RequiredFields = order.RequiredFields()
	}
	if cfg.Prices.Box5kg == 0 {
		cfg.Prices.Box5kg = 20000
	}
	if cfg.Prices.Box10kg == 0 {
		cfg.Prices.Box10kg = 35000
	}
	if cfg.DefaultSender == (Sender{}) {
		cfg.DefaultSender = Sender{
			Name:    "안세진",
			Address: "제주도 제주시 정실3길 113 C동 301호",
			Phone:   "010-6395-0618",
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// validate checks settings that have no sensible fallback.
func validate(cfg *Config) error {
	switch cfg.Backend {
	case BackendSheet, BackendDocument:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Backend, BackendSheet, BackendDocument)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	return nil
}
