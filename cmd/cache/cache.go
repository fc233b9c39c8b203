// Package cache implements forecast cache maintenance commands.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
)

// Command creates the cache command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the forecast cache",
	}

	cmd.AddCommand(cleanupCommand(settings))
	return cmd
}

func cleanupCommand(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired forecast cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.DeleteExpiredForecasts(time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d expired forecast entries\n", removed)
			return nil
		},
	}

	return cmd
}
