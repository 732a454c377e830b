package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ayusman/scoreturner/internal/config"
	"github.com/ayusman/scoreturner/internal/log"
)

// options holds flags shared by all commands.
type options struct {
	envFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	serve := newServeCmd(opts)

	root := &cobra.Command{
		Use:   "scoreturner",
		Short: "Hands-free page turning with facial gestures",
		Long: `Scoreturner watches the camera while you play and turns pages when you
wink, nod or smile. With no subcommand it runs the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env file is optional, don't fail if not found
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return err
				}
			} else {
				_ = godotenv.Load()
			}
			return nil
		},
		RunE: serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file (default .env if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	root.AddCommand(serve, newReplayCmd(opts), newSettingsCmd(opts))
	return root
}

// loadConfig reads the process configuration and initializes logging.
func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Loader{}.Load()
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}
