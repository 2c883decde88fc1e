package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"teamzones/internal/config"
	"teamzones/internal/logging"
)

// cliContext carries the loaded configuration and logger into subcommands.
type cliContext struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	var configPath string
	cli := &cliContext{}

	root := &cobra.Command{
		Use:           "teamzones",
		Short:         "Manage the TeamZones video ingest service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			cli.cfg = cfg
			cli.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")

	root.AddCommand(
		newStatusCommand(cli),
		newVideosCommand(cli),
		newProcessCommand(cli),
		newConfigCommand(&configPath),
	)
	return root
}
