package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code.
func run() int {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tasklist",
		Short: "Track todo items from the terminal, over HTTP, or from Markdown task lines",
		Long: `tasklist keeps todo items and tags in a SQLite database.

Run without a subcommand to open the terminal UI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/tasklist/config.toml)")

	root.AddCommand(
		newServeCmd(&configPath),
		newImportCmd(&configPath),
		newExportCmd(&configPath),
		newListCmd(&configPath),
		newTagsCmd(&configPath),
	)
	return root
}
