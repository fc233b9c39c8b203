package main

import (
	"fmt"
	"os"

	"github.com/pjbaur/pota-assistant/cmd"
	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/errors"
	"github.com/pjbaur/pota-assistant/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		for _, suggestion := range errors.SuggestionsOf(err) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", suggestion)
		}
		os.Exit(1)
	}
}
