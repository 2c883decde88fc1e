package videostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"teamzones/internal/config"
)

// Store manages video record persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the record database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "videos.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EnqueueVideo inserts a new record in pending status, routed by the record's
// layout: standalone row for per-user videos, array element for week videos.
func (s *Store) EnqueueVideo(ctx context.Context, rec *VideoRecord) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.ID == "" {
		return errors.New("record id is required")
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = StatusPending
	}

	if rec.WeekID != "" {
		return s.appendWeekVideo(ctx, rec)
	}
	if rec.OwnerUserID == "" {
		return errors.New("record needs a week id or an owner user id")
	}
	return s.insertVideo(ctx, rec)
}

// VideoByRef fetches the addressed record from either layout.
func (s *Store) VideoByRef(ctx context.Context, ref Ref) (*VideoRecord, error) {
	switch ref.Layout {
	case LayoutWeek:
		return s.weekVideo(ctx, ref.WeekID, ref.VideoID)
	case LayoutUser:
		return s.userVideo(ctx, ref.UserID, ref.VideoID)
	default:
		return nil, fmt.Errorf("unknown layout %q", ref.Layout)
	}
}

// StatusByRef returns the current processing status of the addressed record.
// A missing standalone record reports pending, since the merge write that
// creates it has upsert semantics; a missing week element is ErrNotFound.
func (s *Store) StatusByRef(ctx context.Context, ref Ref) (Status, error) {
	rec, err := s.VideoByRef(ctx, ref)
	if errors.Is(err, ErrNotFound) && ref.Layout == LayoutUser {
		return StatusPending, nil
	}
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

// MergeVideo applies a partial-field merge to the addressed record. Only the
// patch's non-nil fields change; updated_at is always refreshed. Standalone
// records are upserted; week elements must already exist.
func (s *Store) MergeVideo(ctx context.Context, ref Ref, patch FieldPatch) error {
	if patch.IsZero() {
		return nil
	}
	switch ref.Layout {
	case LayoutWeek:
		return s.mergeWeekVideo(ctx, ref.WeekID, ref.VideoID, patch)
	case LayoutUser:
		return s.mergeUserVideo(ctx, ref.UserID, ref.VideoID, patch)
	default:
		return fmt.Errorf("unknown layout %q", ref.Layout)
	}
}

// MergeVideoGuarded re-reads the current status and applies the patch only when
// the implied transition is legal. It reports whether the write happened, so
// redelivered events settle as no-ops once a record is terminal.
func (s *Store) MergeVideoGuarded(ctx context.Context, ref Ref, patch FieldPatch) (bool, error) {
	current, err := s.StatusByRef(ctx, ref)
	if err != nil {
		return false, err
	}
	if patch.Status != nil && !CanTransition(current, *patch.Status) {
		return false, nil
	}
	if patch.Status == nil && current.IsTerminal() {
		return false, nil
	}
	if err := s.MergeVideo(ctx, ref, patch); err != nil {
		return false, err
	}
	return true, nil
}

func statusPtr(s Status) *Status { return &s }

func strPtr(s string) *string { return &s }

// MarkTranscribing moves the addressed record into transcribing and clears any
// stale error text. Returns false when the record is already terminal.
func (s *Store) MarkTranscribing(ctx context.Context, ref Ref) (bool, error) {
	return s.MergeVideoGuarded(ctx, ref, FieldPatch{
		Status:    statusPtr(StatusTranscribing),
		LastError: strPtr(""),
	})
}

// MarkError records a terminal failure with a sanitized message. Returns false
// when the record already reached a terminal status.
func (s *Store) MarkError(ctx context.Context, ref Ref, message string) (bool, error) {
	return s.MergeVideoGuarded(ctx, ref, FieldPatch{
		Status:    statusPtr(StatusError),
		LastError: strPtr(message),
	})
}
