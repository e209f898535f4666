package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wfmassist/internal/app"
	"wfmassist/internal/clock"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			service, err := app.NewServiceFromConfig(cfg, clock.RealClock{})
			if err != nil {
				return fmt.Errorf("service init failed: %w", err)
			}
			if err := service.Run(cmd.Context()); err != nil {
				return fmt.Errorf("service run failed: %w", err)
			}
			return nil
		},
	}
}
