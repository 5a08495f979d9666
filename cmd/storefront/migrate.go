package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		log.Info("migrations applied", slog.String("driver", repo.Driver()))
		return nil
	},
}
