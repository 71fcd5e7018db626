// Package cli contains the terminal client's cobra commands.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mechanic-setu/internal/config"
	jobtrackingservice "mechanic-setu/internal/job-tracking-service"
	"mechanic-setu/internal/mylogger"
)

// setup loads .env when present, builds config, logger, and the
// assembled app. Every command funnels through it.
func setup() (*jobtrackingservice.App, error) {
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	l, err := mylogger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return jobtrackingservice.New(l, cfg)
}

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mechanic-setu",
		Short: "Roadside assistance client for the Mechanic Setu service",
		Long: `mechanic-setu requests roadside assistance and tracks the dispatched
mechanic in real time over the job notification connection.`,
		SilenceUsage: true,
	}
	root.AddCommand(RequestCmd())
	root.AddCommand(TrackCmd())
	root.AddCommand(CancelCmd())
	root.AddCommand(StatusCmd())
	return root
}
