package videostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const videoColumns = "user_id, video_id, source_path, title, visibility, duration_seconds, thumbnail_url, transcript, status, last_error, retry_count, created_at, updated_at"

func (s *Store) insertVideo(ctx context.Context, rec *VideoRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (`+videoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OwnerUserID,
		rec.ID,
		nullableString(rec.SourceObjectPath),
		nullableString(rec.Title),
		nullableString(rec.Visibility),
		rec.DurationSeconds,
		nullableString(rec.ThumbnailURL),
		nullableString(rec.Transcript),
		rec.Status,
		nullableString(rec.LastError),
		rec.RetryCount,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (s *Store) userVideo(ctx context.Context, userID, videoID string) (*VideoRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+videoColumns+` FROM videos WHERE user_id = ? AND video_id = ?`,
		userID,
		videoID,
	)
	rec, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return rec, nil
}

// mergeUserVideo updates only the patch's fields on an existing row, or
// inserts a fresh row carrying the patch when none exists yet.
func (s *Store) mergeUserVideo(ctx context.Context, userID, videoID string, patch FieldPatch) error {
	now := time.Now().UTC()

	assignments, args := patchAssignments(patch)
	assignments = append(assignments, "updated_at = ?")
	args = append(args, now.Format(time.RFC3339Nano), userID, videoID)

	query := "UPDATE videos SET " + joinAssignments(assignments) + " WHERE user_id = ? AND video_id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("merge video: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("merge video rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	rec := &VideoRecord{
		ID:          videoID,
		OwnerUserID: userID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyPatch(rec, patch)
	return s.insertVideo(ctx, rec)
}

// List returns standalone video records filtered by status set (or all records
// when no status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*VideoRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + videoColumns + ` FROM videos`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var records []*VideoRecord
	for rows.Next() {
		rec, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListAll returns records from both layouts filtered by status set, standalone
// records first, then week records grouped by week.
func (s *Store) ListAll(ctx context.Context, statuses ...Status) ([]*VideoRecord, error) {
	records, err := s.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}

	wanted := make(map[Status]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	weekIDs, err := s.WeekIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, weekID := range weekIDs {
		weekRecords, err := s.ListWeekVideos(ctx, weekID)
		if err != nil {
			return nil, err
		}
		for _, rec := range weekRecords {
			if len(wanted) > 0 && !wanted[rec.Status] {
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func patchAssignments(patch FieldPatch) ([]string, []any) {
	var assignments []string
	var args []any
	if patch.Status != nil {
		assignments = append(assignments, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Title != nil {
		assignments = append(assignments, "title = ?")
		args = append(args, nullableString(*patch.Title))
	}
	if patch.Visibility != nil {
		assignments = append(assignments, "visibility = ?")
		args = append(args, nullableString(*patch.Visibility))
	}
	if patch.DurationSeconds != nil {
		assignments = append(assignments, "duration_seconds = ?")
		args = append(args, *patch.DurationSeconds)
	}
	if patch.ThumbnailURL != nil {
		assignments = append(assignments, "thumbnail_url = ?")
		args = append(args, nullableString(*patch.ThumbnailURL))
	}
	if patch.Transcript != nil {
		assignments = append(assignments, "transcript = ?")
		args = append(args, nullableString(*patch.Transcript))
	}
	if patch.LastError != nil {
		assignments = append(assignments, "last_error = ?")
		args = append(args, nullableString(*patch.LastError))
	}
	if patch.RetryCount != nil {
		assignments = append(assignments, "retry_count = ?")
		args = append(args, *patch.RetryCount)
	}
	return assignments, args
}

func applyPatch(rec *VideoRecord, patch FieldPatch) {
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Visibility != nil {
		rec.Visibility = *patch.Visibility
	}
	if patch.DurationSeconds != nil {
		rec.DurationSeconds = *patch.DurationSeconds
	}
	if patch.ThumbnailURL != nil {
		rec.ThumbnailURL = *patch.ThumbnailURL
	}
	if patch.Transcript != nil {
		rec.Transcript = *patch.Transcript
	}
	if patch.LastError != nil {
		rec.LastError = *patch.LastError
	}
	if patch.RetryCount != nil {
		rec.RetryCount = *patch.RetryCount
	}
}

func joinAssignments(assignments []string) string {
	out := ""
	for i, assignment := range assignments {
		if i > 0 {
			out += ", "
		}
		out += assignment
	}
	return out
}

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*VideoRecord, error) {
	var (
		userID       string
		videoID      string
		sourcePath   sql.NullString
		title        sql.NullString
		visibility   sql.NullString
		duration     float64
		thumbnailURL sql.NullString
		transcript   sql.NullString
		statusStr    string
		lastError    sql.NullString
		retryCount   int
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&userID,
		&videoID,
		&sourcePath,
		&title,
		&visibility,
		&duration,
		&thumbnailURL,
		&transcript,
		&statusStr,
		&lastError,
		&retryCount,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &VideoRecord{
		ID:               videoID,
		OwnerUserID:      userID,
		SourceObjectPath: sourcePath.String,
		Title:            title.String,
		Visibility:       visibility.String,
		DurationSeconds:  duration,
		ThumbnailURL:     thumbnailURL.String,
		Transcript:       transcript.String,
		Status:           Status(statusStr),
		LastError:        lastError.String,
		RetryCount:       retryCount,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
