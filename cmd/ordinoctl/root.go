package main

import (
	"fmt"
	"os"

	"github.com/sjperalta/ordino-api/internal/config"
	"github.com/sjperalta/ordino-api/internal/database"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/sjperalta/ordino-api/internal/services"
	"github.com/sjperalta/ordino-api/internal/storage"
	"github.com/sjperalta/ordino-api/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "ordinoctl",
	Short: "Operator tools for the ordino payment ledger",
	Long: `ordinoctl talks to the ordino database directly. It is meant for
operators reconciling failed payment intents, importing manifests from the
command line and checking line balances.

Configuration is read from the same environment variables as the API
(DATABASE_URL, STORAGE_PATH, STATUS_EPSILON, ...), optionally from a .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var actorID uint

func init() {
	rootCmd.PersistentFlags().UintVar(&actorID, "actor", 0, "User ID recorded in the audit log")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the service graph a command works with
type app struct {
	db   *gorm.DB
	svcs *services.Services
}

func (a *app) Close() {
	if err := database.Close(a.db); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}

// bootstrap wires services without a background worker, so audit entries
// are written before the command returns.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Environment)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	return &app{db: db, svcs: services.NewServices(repos, nil, store, cfg)}, nil
}

const (
	cliIP        = "127.0.0.1"
	cliUserAgent = "ordinoctl"
)
