package videostore

import (
	"context"
	"fmt"
	"time"
)

// StalledMessage is the error text written to records reclaimed by the sweep.
const StalledMessage = "processing stalled"

// ReclaimStale marks records stuck in transcribing with no update since the
// cutoff as errored. Covers crashes and platform timeouts that killed an
// invocation between the intermediate and final status writes.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE videos
         SET status = ?, last_error = ?, updated_at = ?
         WHERE status = ? AND updated_at < ?`,
		StatusError,
		StalledMessage,
		now.Format(time.RFC3339Nano),
		StatusTranscribing,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale videos: %w", err)
	}
	reclaimed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reclaim stale rows: %w", err)
	}

	weekReclaimed, err := s.reclaimStaleWeekVideos(ctx, cutoff)
	if err != nil {
		return reclaimed, err
	}
	return reclaimed + weekReclaimed, nil
}

func (s *Store) reclaimStaleWeekVideos(ctx context.Context, cutoff time.Time) (int64, error) {
	weekIDs, err := s.WeekIDs(ctx)
	if err != nil {
		return 0, err
	}

	var reclaimed int64
	for _, weekID := range weekIDs {
		records, err := s.ListWeekVideos(ctx, weekID)
		if err != nil {
			return reclaimed, err
		}
		for _, rec := range records {
			if rec.Status != StatusTranscribing || !rec.UpdatedAt.Before(cutoff) {
				continue
			}
			ref := Ref{Layout: LayoutWeek, WeekID: weekID, VideoID: rec.ID}
			applied, err := s.MarkError(ctx, ref, StalledMessage)
			if err != nil {
				return reclaimed, err
			}
			if applied {
				reclaimed++
			}
		}
	}
	return reclaimed, nil
}

// RetryErrored moves errored records back to pending so a redelivered or
// manually replayed event can process them again.
func (s *Store) RetryErrored(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE videos
         SET status = ?, last_error = NULL, retry_count = retry_count + 1, updated_at = ?
         WHERE status = ?`,
		StatusPending,
		now.Format(time.RFC3339Nano),
		StatusError,
	)
	if err != nil {
		return 0, fmt.Errorf("retry errored videos: %w", err)
	}
	retried, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retry errored rows: %w", err)
	}

	weekIDs, err := s.WeekIDs(ctx)
	if err != nil {
		return retried, err
	}
	for _, weekID := range weekIDs {
		records, err := s.ListWeekVideos(ctx, weekID)
		if err != nil {
			return retried, err
		}
		for _, rec := range records {
			if rec.Status != StatusError {
				continue
			}
			ref := Ref{Layout: LayoutWeek, WeekID: weekID, VideoID: rec.ID}
			retries := rec.RetryCount + 1
			err := s.MergeVideo(ctx, ref, FieldPatch{
				Status:     statusPtr(StatusPending),
				LastError:  strPtr(""),
				RetryCount: &retries,
			})
			if err != nil {
				return retried, err
			}
			retried++
		}
	}
	return retried, nil
}

// Stats returns a count of records grouped by status across both layouts.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	stats := make(map[Status]int)

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM videos GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("video stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	weekIDs, err := s.WeekIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, weekID := range weekIDs {
		records, err := s.ListWeekVideos(ctx, weekID)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			stats[rec.Status]++
		}
	}
	return stats, nil
}

// Health aggregates record state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusTranscribing:
			health.Transcribing += count
		case StatusReady:
			health.Ready += count
		case StatusError:
			health.Errored += count
		}
	}
	return health, nil
}
