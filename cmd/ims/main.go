package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/iwin-ettumanukaran/IMS/internal/application"
	"github.com/iwin-ettumanukaran/IMS/internal/bulk"
	"github.com/iwin-ettumanukaran/IMS/internal/config"
	"github.com/iwin-ettumanukaran/IMS/internal/inventory"
	"github.com/iwin-ettumanukaran/IMS/internal/ledger"
	"github.com/iwin-ettumanukaran/IMS/internal/logging"
	"github.com/iwin-ettumanukaran/IMS/internal/report"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	// Load and validate configuration
	cfg := config.MustLoad()

	// Logs go to a file: the menu owns the terminal.
	logFile, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.Logging.File, "error", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logging.Setup(logFile, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	// Open the two stores. A missing inventory file is a fresh start.
	sales := ledger.New(cfg.Storage.SalesFile, logging.WithFields("component", "ledger"))
	store := inventory.New(cfg.Storage.InventoryFile, sales, logging.WithFields("component", "inventory"))
	skipped, err := store.Load()
	if err != nil {
		slog.Error("failed to load inventory", "error", err)
		os.Exit(1)
	}
	if skipped > 0 {
		slog.Warn("some inventory lines could not be read", "skipped", skipped)
	}

	engine := bulk.New(store, sales, logging.WithFields("component", "bulk"))
	reports := report.New(store, sales)

	model := application.NewModel(store, engine, reports, cfg)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		slog.Error("menu session failed", "error", err)
		os.Exit(1)
	}

	slog.Info("session ended")
}
