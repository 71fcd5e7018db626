package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	jobtrackingservice "mechanic-setu/internal/job-tracking-service"
)

// Reasons mirror the cancellation prompt of the web client.
var cancelReasons = []string{
	"Changed my mind",
	"Found help elsewhere",
	"Waited too long",
	"Submitted by mistake",
}

func CancelCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active service request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reason == "" {
				fmt.Println("A cancellation reason is required. Choose one of:")
				for _, r := range cancelReasons {
					fmt.Printf("  - %s\n", r)
				}
				return fmt.Errorf("pass --reason")
			}

			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := jobtrackingservice.SignalContext(cmd.Context())
			defer stop()

			// Connect first so the best-effort cancel echo has a live
			// channel to ride on.
			if err := app.Conn.Connect(ctx); err != nil {
				app.Log.Warn("cancelling without live connection")
			}
			return app.Tracker.Cancel(ctx, reason)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the request is being cancelled")
	return cmd
}
