// Package config provides centralized configuration management for the
// tracker. It loads settings from environment variables with sensible
// defaults and validates everything on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"strings"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Storage StorageConfig
	Report  ReportConfig
	Logging LoggingConfig
}

// StorageConfig holds the paths of the two flat files that act as the
// entire database.
type StorageConfig struct {
	// InventoryFile is the authoritative product store, fully rewritten on
	// every accepted mutation (default: inventory.txt)
	InventoryFile string `env:"IMS_INVENTORY_FILE" default:"inventory.txt"`

	// SalesFile is the append-only sales ledger (default: sales.txt)
	SalesFile string `env:"IMS_SALES_FILE" default:"sales.txt"`
}

// ReportConfig holds reporting thresholds.
type ReportConfig struct {
	// LowStockThreshold flags products at or below this quantity (default: 5)
	LowStockThreshold int `env:"IMS_LOW_STOCK_THRESHOLD" default:"5"`

	// TopSellers is how many products the top-sellers report shows (default: 5)
	TopSellers int `env:"IMS_TOP_SELLERS" default:"5"`
}

// LoggingConfig holds logging settings. Logs go to a file because the
// interactive menu owns the terminal.
type LoggingConfig struct {
	// File is where structured logs are written (default: ims.log)
	File string `env:"IMS_LOG_FILE" default:"ims.log"`

	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"IMS_LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"IMS_LOG_FORMAT" default:"text"`
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Storage.InventoryFile == "" {
		errs = append(errs, "IMS_INVENTORY_FILE must not be empty")
	}
	if c.Storage.SalesFile == "" {
		errs = append(errs, "IMS_SALES_FILE must not be empty")
	}
	if c.Storage.InventoryFile != "" && c.Storage.InventoryFile == c.Storage.SalesFile {
		errs = append(errs, "IMS_INVENTORY_FILE and IMS_SALES_FILE must be different files")
	}

	if c.Report.LowStockThreshold < 0 {
		errs = append(errs, "IMS_LOW_STOCK_THRESHOLD must be non-negative")
	}
	if c.Report.TopSellers <= 0 {
		errs = append(errs, "IMS_TOP_SELLERS must be positive")
	}

	if c.Logging.File == "" {
		errs = append(errs, "IMS_LOG_FILE must not be empty")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("IMS_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("IMS_LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
