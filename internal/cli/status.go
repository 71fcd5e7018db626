package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active job, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			rec, ok := app.Tracker.Resume()
			if !ok {
				fmt.Println("No job is currently in progress.")
				return nil
			}

			fmt.Printf("A job is currently in progress!\n")
			fmt.Printf("  request: %s\n", rec.RequestID)
			fmt.Printf("  phase:   %s\n", rec.Phase)
			if m := rec.AssignedMechanic; m != nil {
				fmt.Printf("  mechanic: %s (%s)\n", m.FullName(), m.PhoneNumber)
			}
			if d := rec.RequestDetails; d != nil {
				fmt.Printf("  problem: %s (%s) at %s\n", d.Problem, d.VehicleType, d.Location)
			}
			fmt.Printf("Run 'mechanic-setu track %s' to follow it.\n", rec.RequestID)
			return nil
		},
	}
}
