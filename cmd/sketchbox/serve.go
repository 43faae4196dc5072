package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/config"
	"github.com/GriffinCanCode/SketchBox/internal/server"
)

type serveOpts struct {
	config string
	port   string
	host   string
	dev    bool
}

func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sketch HTTP and WebSocket service",
		Long: `Starts the service. Settings come from the environment (PORT, HOST,
SANDBOX_POOL_SIZE, SKETCH_MAX_SESSIONS and so on). A --config file (YAML or
TOML) overrides the environment, and flags override both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)

			srv, err := server.NewServer(cfg, nil)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "YAML or TOML config file")
	cmd.Flags().StringVar(&opts.port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&opts.host, "host", "", "listen host (overrides HOST)")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "development logging")
	return cmd
}

func (o serveOpts) load() (*config.Config, error) {
	if o.config != "" {
		return config.LoadFile(o.config)
	}
	return config.Load()
}

func (o serveOpts) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = o.port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = o.host
	}
	if o.dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
}
