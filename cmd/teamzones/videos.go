package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"teamzones/internal/config"
	"teamzones/internal/objectstore"
	"teamzones/internal/videostore"
)

func newVideosCommand(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "Inspect and manage video records",
	}
	cmd.AddCommand(
		newVideosListCommand(cli),
		newVideosRetryCommand(cli),
		newVideosAddCommand(cli),
	)
	return cmd
}

func newVideosListCommand(cli *cliContext) *cobra.Command {
	var statusFilter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List video records across both layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := videostore.Open(cli.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []videostore.Status
			if statusFilter != "" {
				status, ok := videostore.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				statuses = append(statuses, status)
			}

			records, err := store.ListAll(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(records)
			}
			renderVideoTable(cmd, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "filter by status (pending, transcribing, ready, error)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}

func renderVideoTable(cmd *cobra.Command, records []*videostore.VideoRecord) {
	writer := table.NewWriter()
	writer.SetOutputMirror(cmd.OutOrStdout())
	if file, ok := cmd.OutOrStdout().(*os.File); !ok || !isatty.IsTerminal(file.Fd()) {
		writer.SetStyle(table.StyleDefault)
	} else {
		writer.SetStyle(table.StyleRounded)
	}

	writer.AppendHeader(table.Row{"ID", "BUCKET", "STATUS", "DURATION", "RETRIES", "UPDATED", "ERROR"})
	for _, rec := range records {
		bucket := rec.WeekID
		if bucket == "" {
			bucket = rec.OwnerUserID
		}
		duration := ""
		if rec.DurationSeconds > 0 {
			duration = (time.Duration(rec.DurationSeconds * float64(time.Second))).Round(time.Second).String()
		}
		writer.AppendRow(table.Row{
			rec.ID,
			bucket,
			string(rec.Status),
			duration,
			rec.RetryCount,
			rec.UpdatedAt.UTC().Format(time.RFC3339),
			truncate(rec.LastError, 60),
		})
	}
	writer.Render()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

func newVideosRetryCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Move errored records back to pending for reprocessing",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := videostore.Open(cli.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			retried, err := store.RetryErrored(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %d record(s) back to pending\n", retried)
			return nil
		},
	}
}

func newVideosAddCommand(cli *cliContext) *cobra.Command {
	var weekID, userID, title string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Upload a video and queue its record for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (weekID == "") == (userID == "") {
				return errors.New("exactly one of --week or --user is required")
			}

			source := args[0]
			if _, err := os.Stat(source); err != nil {
				return fmt.Errorf("source file: %w", err)
			}

			store, err := videostore.Open(cli.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			objects, err := objectstore.NewMinioClient(cmd.Context(), cli.cfg.ObjectStore)
			if err != nil {
				return err
			}

			videoID, objectPath, err := queueUpload(cmd.Context(), store, objects, cli.cfg, weekID, userID, title, source)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queued video %s at %s\n", videoID, objectPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&weekID, "week", "", "queue into a week aggregate")
	cmd.Flags().StringVar(&userID, "user", "", "queue as a standalone per-user record")
	cmd.Flags().StringVar(&title, "title", "", "record title")
	return cmd
}

// queueUpload creates the pending record and then uploads the source object.
// The record must exist before the upload: the upload-finalized event can
// arrive immediately, and the pipeline drops events for unknown week records.
func queueUpload(ctx context.Context, store *videostore.Store, objects objectstore.Client, cfg *config.Config, weekID, userID, title, source string) (string, string, error) {
	videoID := uuid.NewString()
	ext := strings.ToLower(path.Ext(source))
	prefix := cfg.Pipeline.UploadPrefix
	var objectPath string
	if weekID != "" {
		objectPath = prefix + weekID + "/" + videoID + ext
	} else {
		objectPath = prefix + userID + "/" + videoID + "/" + filepath.Base(source)
	}

	rec := &videostore.VideoRecord{
		ID:               videoID,
		WeekID:           weekID,
		OwnerUserID:      userID,
		SourceObjectPath: objectPath,
		Title:            title,
		Status:           videostore.StatusPending,
	}
	if err := store.EnqueueVideo(ctx, rec); err != nil {
		return "", "", err
	}

	bucket := cfg.ObjectStore.Bucket
	contentType := "video/" + strings.TrimPrefix(ext, ".")
	if err := objects.Upload(ctx, bucket, objectPath, source, contentType); err != nil {
		return "", "", err
	}
	return videoID, objectPath, nil
}
