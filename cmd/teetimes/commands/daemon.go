package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"teetimes-backend/internal/components/chrono"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/runlock"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Refreshes the whole catalog on the configured schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		telemetry.InstrumentPerfStats(ctx)

		r, err := newRefresher(ctx, nil, cfg.Days)
		if err != nil {
			return err
		}
		defer r.close()

		clock, err := chrono.NewStandardImpl(cfg.Timezone)
		if err != nil {
			return err
		}

		refresh := func() {
			_, err := r.run(ctx)
			switch {
			case errors.Is(err, runlock.ErrLocked):
				slog.Info("another refresh is running, skipping")
			case errors.Is(err, context.Canceled):
			case err != nil:
				tel.ReportBroken("daemon.refresh", err)
			}
		}

		cronner := chrono.NewStandardCron(tel, clock.Location())
		err = cronner.Cron(cfg.Schedule, refresh)
		if err != nil {
			return err
		}
		slog.Info("daemon started", "schedule", cfg.Schedule, "timezone", cfg.Timezone)

		// populate the store without waiting for the first tick
		refresh()

		<-ctx.Done()
		slog.Info("daemon stopping")
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cronner.Stop(stopCtx)
		return nil
	},
}
