// Package cli implements the oxy-outline command-line interface.
//
// The CLI drives the outline queue stage from TOML files:
//   - queue: render a scene for a number of frames and print every view's phases
//   - run: run the engine loops for a fixed duration with profiling
//   - key: print the pipeline variant a key selects
//
// A GPU device is only opened when the settings file sets render.gpu.
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
)

// SetVersion sets the version information displayed by --version.
//
// Parameters:
//   - v: semantic version string
//   - c: git commit SHA
func SetVersion(v, c string) {
	version = v
	commit = c
}

// Execute runs the oxy-outline CLI.
//
// Returns:
//   - error: the error of the failed command, if any
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          "oxy-outline",
		Short:        "Queue outline draws for a scene",
		Long:         `oxy-outline runs the outline render stage on a TOML scene and reports which pipelines and draw entries each view gets.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("oxy-outline %s\ncommit: %s\n", version, commit))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newQueueCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newKeyCmd())

	return root.ExecuteContext(context.Background())
}
