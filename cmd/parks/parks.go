// Package parks implements park search and lookup commands.
package parks

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/pota"
	"github.com/pjbaur/pota-assistant/internal/syncer"
)

// Command creates the parks command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parks",
		Short: "Search and inspect the local park dataset",
	}

	cmd.AddCommand(searchCommand(settings), showCommand(settings))
	return cmd
}

func searchCommand(settings *conf.Settings) *cobra.Command {
	var filters datastore.ParkFilters
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search parks by reference or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			results, total, err := store.SearchParks(args[0], filters, limit)
			if err != nil {
				return err
			}

			if advisory := stalenessAdvisory(settings, store); advisory != "" {
				fmt.Println("note:", advisory)
			}

			if len(results) == 0 {
				fmt.Println("No parks matched.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE\tNAME\tLOCATION\tGRID\tTYPE")
			for i := range results {
				p := &results[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.Reference, p.Name, p.LocationCode, p.GridSquare, p.ParkType)
			}
			w.Flush()
			fmt.Printf("%d shown, %d parks in local store\n", len(results), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&filters.LocationCode, "location", "", "Filter by location code, e.g. US-WY")
	cmd.Flags().StringVar(&filters.ParkType, "type", "", "Filter by park type")
	cmd.Flags().BoolVar(&filters.ActiveOnly, "active", false, "Only show active parks")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results to show")

	return cmd
}

func showCommand(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [reference]",
		Short: "Show one park, fetching it remotely when not yet synced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			client := pota.NewClient(pota.Config{
				BaseURL: settings.Sync.Endpoint,
				Timeout: time.Duration(settings.Sync.Timeout) * time.Second,
			})
			coordinator := syncer.New(settings, store, client)

			park, err := coordinator.LookupPark(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if park == nil {
				fmt.Printf("Park %s not found\n", args[0])
				return nil
			}

			fmt.Printf("%s  %s\n", park.Reference, park.Name)
			fmt.Printf("  Location:    %s (%s, %s)\n", park.LocationCode, park.LocationName, park.EntityName)
			fmt.Printf("  Coordinates: %.4f, %.4f  grid %s\n", park.Latitude, park.Longitude, park.GridSquare)
			fmt.Printf("  Type:        %s\n", park.ParkType)
			fmt.Printf("  Active:      %v\n", park.Active)
			fmt.Printf("  URL:         %s\n", park.SourceURL)
			return nil
		},
	}

	return cmd
}

// stalenessAdvisory surfaces the sync age warning on read paths. Failures
// computing it never block the read itself.
func stalenessAdvisory(settings *conf.Settings, store datastore.Interface) string {
	coordinator := syncer.New(settings, store, nil)
	advisory, err := coordinator.StalenessAdvisory()
	if err != nil {
		return ""
	}
	return advisory
}
