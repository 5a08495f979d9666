package main

import (
	"fmt"
	"log/slog"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront checkout and fulfillment service",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.LogLevel, "storefront"), nil
}

// openRepository connects and brings the schema up to date.
func openRepository(cfg *config.Config) (*repository.Repository, error) {
	cred := cfg.Credentials()
	repo, err := repository.Open(cred)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(cred); err != nil {
		repo.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, nil
}
