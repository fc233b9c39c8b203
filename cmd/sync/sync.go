package sync

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/pota"
	"github.com/pjbaur/pota-assistant/internal/syncer"
)

// Command creates the sync command for refreshing the local park dataset.
func Command(settings *conf.Settings) *cobra.Command {
	var force bool
	var region string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download or refresh the park dataset",
		Long:  `Fetch the park dataset from the POTA API and upsert it into the local store. A recent sync is skipped unless --force is given.`,
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
			result, err := coordinator.Sync(cmd.Context(), syncer.Options{
				Force:  force,
				Region: region,
			})
			if err != nil {
				return err
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Refetch even inside the cooldown window")
	cmd.Flags().StringVar(&region, "region", settings.Sync.Region, "Only persist parks matching this region")

	return cmd
}

func printResult(result *syncer.Result) {
	if !result.Refreshed {
		fmt.Println(result.Advisory)
		fmt.Printf("%d parks in local store\n", result.Total)
		return
	}
	fmt.Printf("Synced %d parks (%d total in local store)\n", result.Count, result.Total)
}
