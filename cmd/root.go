package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pjbaur/pota-assistant/cmd/cache"
	"github.com/pjbaur/pota-assistant/cmd/forecast"
	"github.com/pjbaur/pota-assistant/cmd/imports"
	"github.com/pjbaur/pota-assistant/cmd/parks"
	"github.com/pjbaur/pota-assistant/cmd/plan"
	"github.com/pjbaur/pota-assistant/cmd/sync"
	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pota",
		Short: "POTA Assistant CLI",
		Long:  `Local-first planning assistant for Parks on the Air activations.`,

		// main prints errors together with any attached suggestions.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		sync.Command(settings),
		imports.Command(settings),
		parks.Command(settings),
		plan.Command(settings),
		forecast.Command(settings),
		cache.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Sync.Region, "region", viper.GetString("sync.region"), "Region filter applied when syncing park data")
	rootCmd.PersistentFlags().Float64Var(&settings.Node.Latitude, "latitude", viper.GetFloat64("node.latitude"), "Home latitude, default for forecast lookups")
	rootCmd.PersistentFlags().Float64Var(&settings.Node.Longitude, "longitude", viper.GetFloat64("node.longitude"), "Home longitude, default for forecast lookups")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
