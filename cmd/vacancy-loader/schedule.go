package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"jobmate/vacancy-loader/internal/pipeline"
	"jobmate/vacancy-loader/internal/scheduler"
)

func scheduleCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Rebuild the database now and every SYNC_INTERVAL_HOURS until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*envFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pub, closePub := publisher(ctx, cfg)
			defer closePub()

			sched := scheduler.New(pipeline.New(cfg, pipeline.WithPublisher(pub)), cfg.SyncIntervalHours)
			if err := sched.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			slog.Info("shutting down")
			sched.Stop()
			return nil
		},
	}
}
