package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"teamzones/internal/videostore"
)

func newStatusCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show record counts per lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := videostore.Open(cli.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			health, err := store.Health(cmd.Context())
			if err != nil {
				return err
			}

			writer := table.NewWriter()
			writer.SetOutputMirror(cmd.OutOrStdout())
			writer.AppendRows([]table.Row{
				{"pending", health.Pending},
				{"transcribing", health.Transcribing},
				{"ready", health.Ready},
				{"error", health.Errored},
			})
			writer.AppendFooter(table.Row{"total", health.Total})
			writer.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "database: %s\n", store.Path())
			return nil
		},
	}
}
