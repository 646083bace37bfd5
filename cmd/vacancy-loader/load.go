package main

import (
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jobmate/vacancy-loader/internal/pipeline"
)

func loadCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Rebuild the database once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*envFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pub, closePub := publisher(ctx, cfg)
			defer closePub()

			stats, err := pipeline.New(cfg, pipeline.WithProgress(), pipeline.WithPublisher(pub)).Load(ctx)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Loaded %s employers and %s vacancies into %s",
				humanize.Comma(int64(stats.Employers)), humanize.Comma(int64(stats.Vacancies)), cfg.DB.Name)
			return nil
		},
	}
}
