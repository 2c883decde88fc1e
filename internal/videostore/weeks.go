package videostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// casRetries bounds how many times a week aggregate write is retried when a
// concurrent writer bumps the version between read and write.
const casRetries = 3

type weekRow struct {
	weekID  string
	videos  []json.RawMessage
	version int64
}

// EnsureWeek creates an empty week aggregate when none exists.
func (s *Store) EnsureWeek(ctx context.Context, weekID string) error {
	if weekID == "" {
		return errors.New("week id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO weeks (week_id, videos, version, updated_at) VALUES (?, '[]', 0, ?)
         ON CONFLICT (week_id) DO NOTHING`,
		weekID,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("ensure week: %w", err)
	}
	return nil
}

// WeekIDs returns all known week aggregate identifiers.
func (s *Store) WeekIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT week_id FROM weeks ORDER BY week_id`)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListWeekVideos returns the decoded videos array of a week aggregate.
func (s *Store) ListWeekVideos(ctx context.Context, weekID string) ([]*VideoRecord, error) {
	row, err := s.readWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	records := make([]*VideoRecord, 0, len(row.videos))
	for _, raw := range row.videos {
		var rec VideoRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode week video: %w", err)
		}
		rec.WeekID = weekID
		records = append(records, &rec)
	}
	return records, nil
}

func (s *Store) weekVideo(ctx context.Context, weekID, videoID string) (*VideoRecord, error) {
	row, err := s.readWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	idx, err := findVideoElement(row.videos, videoID)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, ErrNotFound
	}
	var rec VideoRecord
	if err := json.Unmarshal(row.videos[idx], &rec); err != nil {
		return nil, fmt.Errorf("decode week video: %w", err)
	}
	rec.WeekID = weekID
	return &rec, nil
}

// appendWeekVideo adds a record to the week's videos array, creating the
// aggregate when needed, under the same compare-and-swap as element merges.
func (s *Store) appendWeekVideo(ctx context.Context, rec *VideoRecord) error {
	if err := s.EnsureWeek(ctx, rec.WeekID); err != nil {
		return err
	}

	// WeekID is implied by the parent document, not duplicated per element.
	element := *rec
	element.WeekID = ""

	for attempt := 0; attempt < casRetries; attempt++ {
		row, err := s.readWeek(ctx, rec.WeekID)
		if err != nil {
			return err
		}
		idx, err := findVideoElement(row.videos, rec.ID)
		if err != nil {
			return err
		}
		if idx >= 0 {
			return fmt.Errorf("video %q already queued in week %q", rec.ID, rec.WeekID)
		}

		encoded, err := json.Marshal(element)
		if err != nil {
			return fmt.Errorf("encode week video: %w", err)
		}
		updated := append(row.videos, json.RawMessage(encoded))

		swapped, err := s.writeWeek(ctx, row, updated)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}
	return ErrVersionConflict
}

// mergeWeekVideo replaces only the matching element of the videos array. All
// sibling elements keep their original bytes; the target element keeps any
// fields the patch does not name, unknown fields included.
func (s *Store) mergeWeekVideo(ctx context.Context, weekID, videoID string, patch FieldPatch) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		row, err := s.readWeek(ctx, weekID)
		if err != nil {
			return err
		}
		idx, err := findVideoElement(row.videos, videoID)
		if err != nil {
			return err
		}
		if idx < 0 {
			return ErrNotFound
		}

		merged, err := mergeElement(row.videos[idx], patch)
		if err != nil {
			return err
		}

		updated := make([]json.RawMessage, len(row.videos))
		copy(updated, row.videos)
		updated[idx] = merged

		swapped, err := s.writeWeek(ctx, row, updated)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}
	return ErrVersionConflict
}

func (s *Store) readWeek(ctx context.Context, weekID string) (weekRow, error) {
	var (
		videosRaw string
		version   int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT videos, version FROM weeks WHERE week_id = ?`,
		weekID,
	).Scan(&videosRaw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return weekRow{}, ErrNotFound
	}
	if err != nil {
		return weekRow{}, fmt.Errorf("get week: %w", err)
	}

	var videos []json.RawMessage
	if err := json.Unmarshal([]byte(videosRaw), &videos); err != nil {
		return weekRow{}, fmt.Errorf("decode week videos: %w", err)
	}
	return weekRow{weekID: weekID, videos: videos, version: version}, nil
}

func (s *Store) writeWeek(ctx context.Context, row weekRow, videos []json.RawMessage) (bool, error) {
	encoded, err := json.Marshal(videos)
	if err != nil {
		return false, fmt.Errorf("encode week videos: %w", err)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE weeks SET videos = ?, version = version + 1, updated_at = ?
         WHERE week_id = ? AND version = ?`,
		string(encoded),
		time.Now().UTC().Format(time.RFC3339Nano),
		row.weekID,
		row.version,
	)
	if err != nil {
		return false, fmt.Errorf("update week: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update week rows: %w", err)
	}
	return affected > 0, nil
}

func findVideoElement(videos []json.RawMessage, videoID string) (int, error) {
	for i, raw := range videos {
		var probe struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return -1, fmt.Errorf("decode week video id: %w", err)
		}
		if probe.ID == videoID {
			return i, nil
		}
	}
	return -1, nil
}

func mergeElement(raw json.RawMessage, patch FieldPatch) (json.RawMessage, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode week video: %w", err)
	}

	if patch.Status != nil {
		fields["processingStatus"] = string(*patch.Status)
	}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Visibility != nil {
		fields["visibility"] = *patch.Visibility
	}
	if patch.DurationSeconds != nil {
		fields["durationSeconds"] = *patch.DurationSeconds
	}
	if patch.ThumbnailURL != nil {
		fields["thumbnailUrl"] = *patch.ThumbnailURL
	}
	if patch.Transcript != nil {
		fields["transcript"] = *patch.Transcript
	}
	if patch.LastError != nil {
		if *patch.LastError == "" {
			delete(fields, "lastError")
		} else {
			fields["lastError"] = *patch.LastError
		}
	}
	if patch.RetryCount != nil {
		fields["retryCount"] = *patch.RetryCount
	}
	fields["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode week video: %w", err)
	}
	return json.RawMessage(encoded), nil
}
