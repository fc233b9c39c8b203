// Package plan implements the activation plan commands.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	fc "github.com/pjbaur/pota-assistant/internal/forecast"
)

// Command creates the plan command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage activation plans",
	}

	cmd.AddCommand(
		createCommand(settings),
		listCommand(settings),
		updateCommand(settings),
		deleteCommand(settings),
	)
	return cmd
}

func createCommand(settings *conf.Settings) *cobra.Command {
	var plan datastore.Plan
	var parkRef string
	var snapshot bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an activation plan for a park",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			park, err := store.GetPark(parkRef)
			if err != nil {
				return err
			}
			if park == nil {
				fmt.Printf("Park %s not found; run 'pota sync' first\n", parkRef)
				return nil
			}
			plan.ParkID = park.ID

			if snapshot {
				if payload := forecastSnapshot(cmd.Context(), settings, store, park, plan.PlannedDate); payload != "" {
					plan.ForecastSnapshot = payload
				}
			}

			if err := store.CreatePlan(&plan); err != nil {
				return err
			}

			fmt.Printf("Created plan %d for %s on %s (%s)\n",
				plan.ID, park.Reference, plan.PlannedDate, plan.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&parkRef, "park", "p", "", "Park reference, e.g. US-0039")
	cmd.Flags().StringVar(&plan.PlannedDate, "date", "", "Planned date, YYYY-MM-DD")
	cmd.Flags().StringVar(&plan.PlannedTime, "time", "", "Planned start time, HH:MM")
	cmd.Flags().Float64Var(&plan.DurationHours, "duration", 0, "Planned duration in hours")
	cmd.Flags().StringVar(&plan.Status, "status", datastore.PlanStatusDraft, "Plan status")
	cmd.Flags().StringVar(&plan.PresetID, "preset", "", "Equipment preset id")
	cmd.Flags().StringVar(&plan.Notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "Attach the current forecast for the planned date")
	cmd.MarkFlagRequired("park")
	cmd.MarkFlagRequired("date")

	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activation plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			plans, err := store.ListPlans(status)
			if err != nil {
				return err
			}
			if len(plans) == 0 {
				fmt.Println("No plans.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPARK\tDATE\tTIME\tSTATUS\tNOTES")
			for i := range plans {
				p := &plans[i]
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Park.Reference, p.PlannedDate, p.PlannedTime, p.Status, p.Notes)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (draft, finalized, completed, cancelled)")

	return cmd
}

func updateCommand(settings *conf.Settings) *cobra.Command {
	var status, date, planTime, preset, notes string
	var duration float64

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update fields of an existing plan",
		Long:  `Update an activation plan. Only the flags given on the command line change; everything else keeps its stored value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}

			update := &datastore.PlanUpdate{}
			if cmd.Flags().Changed("status") {
				update.Status = &status
			}
			if cmd.Flags().Changed("date") {
				update.PlannedDate = &date
			}
			if cmd.Flags().Changed("time") {
				update.PlannedTime = &planTime
			}
			if cmd.Flags().Changed("duration") {
				update.DurationHours = &duration
			}
			if cmd.Flags().Changed("preset") {
				update.PresetID = &preset
			}
			if cmd.Flags().Changed("notes") {
				update.Notes = &notes
			}

			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			plan, err := store.UpdatePlan(id, update)
			if err != nil {
				return err
			}

			fmt.Printf("Updated plan %d (%s on %s, %s)\n",
				plan.ID, plan.PlannedDate, plan.PlannedTime, plan.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&date, "date", "", "New planned date, YYYY-MM-DD")
	cmd.Flags().StringVar(&planTime, "time", "", "New start time, HH:MM")
	cmd.Flags().Float64Var(&duration, "duration", 0, "New duration in hours")
	cmd.Flags().StringVar(&preset, "preset", "", "New equipment preset id")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")

	return cmd
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}

			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeletePlan(id); err != nil {
				return err
			}
			fmt.Printf("Deleted plan %d\n", id)
			return nil
		},
	}

	return cmd
}

func parsePlanID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid plan id %q", arg)
	}
	return uint(id), nil
}

// forecastSnapshot fetches the forecast for the planned date and returns it
// as JSON. Snapshot failures are reported but never block plan creation.
func forecastSnapshot(ctx context.Context, settings *conf.Settings, store datastore.Interface, park *datastore.Park, date string) string {
	provider := fc.NewOpenMeteoProvider(fc.Config{
		Endpoint: settings.Weather.Endpoint,
		Units:    settings.Weather.Units,
		Days:     settings.Weather.ForecastDays,
		Timeout:  time.Duration(settings.Weather.Timeout) * time.Second,
	})
	service := fc.NewService(settings, store, provider)

	result, err := service.GetForecast(ctx, park.Latitude, park.Longitude, date)
	if err != nil || result.Forecast == nil {
		fmt.Println("note: forecast snapshot unavailable, plan created without one")
		return ""
	}
	if result.Warning != "" {
		fmt.Println("note:", result.Warning)
	}

	payload, err := json.Marshal(result.Forecast)
	if err != nil {
		return ""
	}
	return string(payload)
}
