package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"jobmate/vacancy-loader/internal/menu"
	"jobmate/vacancy-loader/internal/pipeline"
)

func runCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Rebuild the database, then open the interactive menu (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), *envFile)
		},
	}
}

func runInteractive(ctx context.Context, envFile string) error {
	cfg, err := setup(envFile)
	if err != nil {
		return err
	}

	pub, closePub := publisher(ctx, cfg)
	defer closePub()

	sess, err := pipeline.New(cfg, pipeline.WithProgress(), pipeline.WithPublisher(pub)).Run(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return menu.New(sess.Queries, os.Stdin, os.Stdout).Run(ctx)
}
