package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	jobtrackingservice "mechanic-setu/internal/job-tracking-service"
	"mechanic-setu/internal/job-tracking-service/core/domain/model"
)

var vehicleTypes = map[string]bool{"bike": true, "car": true, "truck": true}

func RequestCmd() *cobra.Command {
	var (
		vehicle  string
		problem  string
		notes    string
		location string
		lat      float64
		lng      float64
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit a new roadside assistance request and track it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !vehicleTypes[vehicle] {
				return fmt.Errorf("vehicle type must be one of bike, car, truck (got %q)", vehicle)
			}
			if problem == "" {
				return fmt.Errorf("a problem description is required")
			}
			if location == "" {
				return fmt.Errorf("a location is required")
			}

			app, err := setup()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := jobtrackingservice.SignalContext(cmd.Context())
			defer stop()

			details := model.RequestDetails{
				VehicleType:     vehicle,
				Problem:         problem,
				AdditionalNotes: notes,
				Location:        location,
				Coordinates:     &model.Coordinates{Latitude: lat, Longitude: lng},
			}
			requestID, err := app.Tracker.Submit(ctx, details)
			if err != nil {
				return err
			}

			return trackLoop(ctx, app, requestID)
		},
	}

	cmd.Flags().StringVar(&vehicle, "vehicle", "", "vehicle type: bike, car, or truck")
	cmd.Flags().StringVar(&problem, "problem", "", "problem category, e.g. \"Puncture Repair\"")
	cmd.Flags().StringVar(&notes, "notes", "", "additional notes for the mechanic")
	cmd.Flags().StringVar(&location, "location", "", "textual location")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.MarkFlagRequired("vehicle")
	cmd.MarkFlagRequired("problem")
	cmd.MarkFlagRequired("location")
	return cmd
}
