// Package forecast implements the forecast lookup command.
package forecast

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	fc "github.com/pjbaur/pota-assistant/internal/forecast"
)

// Command creates the forecast command. Coordinates come from a park
// reference argument when given, otherwise from the configured home location.
func Command(settings *conf.Settings) *cobra.Command {
	var date string
	var days int

	cmd := &cobra.Command{
		Use:   "forecast [reference]",
		Short: "Show the weather forecast for a park or the home location",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			lat, lon := settings.Node.Latitude, settings.Node.Longitude
			label := "home location"
			if len(args) == 1 {
				park, err := store.GetPark(args[0])
				if err != nil {
					return err
				}
				if park == nil {
					fmt.Printf("Park %s not found; run 'pota sync' first\n", args[0])
					return nil
				}
				lat, lon = park.Latitude, park.Longitude
				label = fmt.Sprintf("%s (%s)", park.Reference, park.Name)
			}

			provider := fc.NewOpenMeteoProvider(fc.Config{
				Endpoint: settings.Weather.Endpoint,
				Units:    settings.Weather.Units,
				Days:     settings.Weather.ForecastDays,
				Timeout:  time.Duration(settings.Weather.Timeout) * time.Second,
			})
			service := fc.NewService(settings, store, provider)

			if date != "" {
				result, err := service.GetForecast(cmd.Context(), lat, lon, date)
				if err != nil {
					return err
				}
				if result.Warning != "" {
					fmt.Println("note:", result.Warning)
				}
				if result.Forecast == nil {
					return nil
				}
				fmt.Printf("Forecast for %s on %s:\n", label, date)
				printForecasts([]fc.DailyForecast{*result.Forecast}, settings.Weather.Units)
				return nil
			}

			start := time.Now().Format("2006-01-02")
			result, err := service.GetForecastRange(cmd.Context(), lat, lon, start, days)
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				fmt.Println("note:", warning)
			}
			fmt.Printf("Forecast for %s:\n", label)
			printForecasts(result.Forecasts, settings.Weather.Units)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Single date to look up, YYYY-MM-DD")
	cmd.Flags().IntVar(&days, "days", 0, "Days to show, default from configuration")

	return cmd
}

func printForecasts(forecasts []fc.DailyForecast, units string) {
	tempUnit, speedUnit := "C", "km/h"
	if units == "imperial" {
		tempUnit, speedUnit = "F", "mph"
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "DATE\tHIGH/LOW (°%s)\tPRECIP\tWIND (%s)\n", tempUnit, speedUnit)
	for i := range forecasts {
		f := &forecasts[i]
		fmt.Fprintf(w, "%s\t%.0f/%.0f\t%d%%\t%.0f gusting %.0f\n",
			f.Date, f.TempMax, f.TempMin, f.PrecipitationProbability, f.WindSpeedMax, f.WindGustMax)
	}
	w.Flush()
}
