package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
)

var version = "dev" // set via -ldflags

type rootOpts struct {
	verbose bool
	logger  *logging.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{logger: logging.NewNop()}

	root := &cobra.Command{
		Use:   "sketchbox",
		Short: "SketchBox runs creative-coding sketches in a sandbox",
		Long: `sketchbox hosts JavaScript sketches written against a p5-style drawing API.

Each sketch runs in its own goja runtime and draws into a raster surface
driven by a frame loop. Use "serve" for the HTTP/WebSocket service or
"run" to render a sketch file headlessly.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger, err := logging.New(logging.Config{
				Level:       level,
				Development: true,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newServeCmd())
	root.AddCommand(newRunCmd(opts))
	return root
}
