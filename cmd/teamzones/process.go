package main

import (
	"github.com/spf13/cobra"

	"teamzones/internal/ingest"
	"teamzones/internal/media/transcode"
	"teamzones/internal/objectstore"
	"teamzones/internal/speech"
	"teamzones/internal/videostore"
)

// process runs the ingest pipeline once for a single object, mirroring what
// the daemon does on an upload-finalized event. Useful for replays and local
// debugging without a broker.
func newProcessCommand(cli *cliContext) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "process <object-path>",
		Short: "Run the ingest pipeline for one uploaded object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := videostore.Open(cli.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			objects, err := objectstore.NewMinioClient(cmd.Context(), cli.cfg.ObjectStore)
			if err != nil {
				return err
			}

			transcoder := transcode.New(cli.cfg.FFmpegBinary(), cli.cfg.FFprobeBinary())
			speechClient := speech.NewClient(cli.cfg.Speech)
			pipeline := ingest.New(cli.cfg, store, objects, transcoder, speechClient, cli.logger)

			if bucket == "" {
				bucket = cli.cfg.ObjectStore.Bucket
			}
			return pipeline.HandleFinalized(cmd.Context(), ingest.Event{
				Bucket:     bucket,
				ObjectPath: args[0],
			})
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "object store bucket (defaults to the configured bucket)")
	return cmd
}
