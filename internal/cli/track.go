package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	jobtrackingservice "mechanic-setu/internal/job-tracking-service"
	"mechanic-setu/internal/job-tracking-service/core/domain/model"
	"mechanic-setu/internal/job-tracking-service/core/services"
)

func TrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track [request_id]",
		Short: "Track an active service request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := jobtrackingservice.SignalContext(cmd.Context())
			defer stop()

			var requestID string
			if len(args) == 1 {
				requestID = args[0]
			} else if rec, ok := app.Tracker.Resume(); ok {
				requestID = rec.RequestID
			} else {
				return fmt.Errorf("no active job; pass a request id or submit one with 'request'")
			}

			return trackLoop(ctx, app, requestID)
		},
	}
}

// trackLoop mounts the tracking screen, renders snapshots until the job
// reaches a terminal state or the user interrupts.
func trackLoop(ctx context.Context, app *jobtrackingservice.App, requestID string) error {
	var lastPhase model.Phase

	app.Tracker.OnUpdate = func(rec *model.ActiveJobRecord, searchSeconds int) {
		if rec == nil {
			return
		}
		switch rec.Phase {
		case model.PhaseSearching:
			fmt.Printf("\rSearching for a mechanic... %s", services.FormatSearchTime(searchSeconds))
		case model.PhaseAssigned:
			if lastPhase != model.PhaseAssigned {
				fmt.Println()
				renderMechanic(rec)
			} else if rec.EstimatedMinutes > 0 {
				fmt.Printf("\rArriving in ~%d min", rec.EstimatedMinutes)
			}
		case model.PhaseError:
			fmt.Println("\nThe service reported a problem with your request.")
		}
		lastPhase = rec.Phase
	}

	if err := app.Tracker.Mount(ctx, requestID, nil); err != nil {
		return err
	}
	defer app.Tracker.Unmount()

	select {
	case <-app.Tracker.Done():
		return nil
	case <-ctx.Done():
		fmt.Println()
		return nil
	}
}

func renderMechanic(rec *model.ActiveJobRecord) {
	m := rec.AssignedMechanic
	if m == nil {
		return
	}
	fmt.Printf("Mechanic: %s", m.FullName())
	if m.PhoneNumber != "" {
		fmt.Printf("  ☎ %s", m.PhoneNumber)
	}
	if m.Rating > 0 {
		fmt.Printf("  ★ %.1f", m.Rating)
	}
	fmt.Println()
	if rec.EstimatedMinutes > 0 {
		fmt.Printf("Arriving in ~%d min\n", rec.EstimatedMinutes)
	}
	if d := rec.RequestDetails; d != nil {
		fmt.Printf("Request: %s (%s) at %s\n", d.Problem, d.VehicleType, d.Location)
	}
}
