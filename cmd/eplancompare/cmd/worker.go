package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eplancompare/eplancompare/internal/config"
	"github.com/eplancompare/eplancompare/internal/cron"

	// Register the built-in catalog sources.
	_ "github.com/eplancompare/eplancompare/pkg/plansources/kamaze"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the scheduled catalog refresh worker",
	Long: `Runs the background worker that periodically re-fetches the plan
catalogs and the regulated tariff. On Postgres an advisory lock keeps
concurrent workers from refreshing the same sources twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return cron.Run(ctx, cfg.DBDriver, cfg.DBDSN)
	},
}
