package videostore

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS videos (
        user_id          TEXT NOT NULL,
        video_id         TEXT NOT NULL,
        source_path      TEXT,
        title            TEXT,
        visibility       TEXT,
        duration_seconds REAL NOT NULL DEFAULT 0,
        thumbnail_url    TEXT,
        transcript       TEXT,
        status           TEXT NOT NULL DEFAULT 'pending',
        last_error       TEXT,
        retry_count      INTEGER NOT NULL DEFAULT 0,
        created_at       TEXT NOT NULL,
        updated_at       TEXT NOT NULL,
        PRIMARY KEY (user_id, video_id)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_videos_status ON videos (status)`,
	`CREATE TABLE IF NOT EXISTS weeks (
        week_id    TEXT PRIMARY KEY,
        videos     TEXT NOT NULL DEFAULT '[]',
        version    INTEGER NOT NULL DEFAULT 0,
        updated_at TEXT NOT NULL
    )`,
}

func (s *Store) applySchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
