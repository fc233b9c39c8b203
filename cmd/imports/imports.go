// Package imports implements the bulk CSV import command.
package imports

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/importer"
)

// Command creates the import command for loading parks from a CSV export.
func Command(settings *conf.Settings) *cobra.Command {
	var batchSize int
	var strict, verbose bool

	cmd := &cobra.Command{
		Use:   "import [parks.csv]",
		Short: "Import parks from a CSV export file",
		Long:  `Stream a park dataset CSV into the local store in transactional batches. Rows are validated individually; strict mode aborts on the first invalid row.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			result, err := importer.New(store).Run(cmd.Context(), importer.Options{
				Path:      args[0],
				BatchSize: batchSize,
				Strict:    strict,
				Verbose:   verbose,
				Progress: func(imported int) {
					fmt.Printf("\rImported %d parks...", imported)
				},
			})
			if err != nil {
				fmt.Println()
				return err
			}

			fmt.Printf("\rImported %d parks, skipped %d rows in %s\n",
				result.Imported, result.Skipped, result.Duration.Round(time.Millisecond))
			for _, warning := range result.Warnings {
				fmt.Println("warning:", warning)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", settings.Import.BatchSize, "Records per transactional batch")
	cmd.Flags().BoolVar(&strict, "strict", settings.Import.Strict, "Abort the import on the first invalid row")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", settings.Import.Verbose, "Include suppressed soft warnings in the report")

	return cmd
}
