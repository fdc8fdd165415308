package main

import (
	"context"
	"errors"
	"os"
	"time"

	"go-glassdoor-harvester/internal/database"
	"go-glassdoor-harvester/internal/debugger"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent harvest runs from the run history database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer repo.Close()

		runs, err := repo.RecentRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		debugger.PrintRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
}
