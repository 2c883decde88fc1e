// Package testsupport provides shared helpers for package tests: isolated
// configurations, a record store on a temp database, and a local object store
// seeded with fixture files.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"teamzones/internal/config"
	"teamzones/internal/objectstore"
	"teamzones/internal/videostore"
)

// NewConfig returns a validated configuration rooted in the test's temp
// directory, with every pipeline stage enabled.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(root, "scratch")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.ObjectStore.Bucket = "teamzones-test"
	cfg.Pipeline.Transcript = true
	cfg.Pipeline.Thumbnail = true
	cfg.Pipeline.Duration = true

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a record store against the config's temp database and
// closes it when the test ends.
func MustOpenStore(t *testing.T, cfg *config.Config) *videostore.Store {
	t.Helper()

	store, err := videostore.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

// NewObjectStore returns a directory-backed object store rooted in the test's
// temp directory.
func NewObjectStore(t *testing.T) *objectstore.DirClient {
	t.Helper()

	client, err := objectstore.NewDirClient(t.TempDir())
	if err != nil {
		t.Fatalf("create object store: %v", err)
	}
	return client
}

// SeedObject writes content at an object path in a directory-backed store.
func SeedObject(t *testing.T, client *objectstore.DirClient, bucket, objectPath string, content []byte) {
	t.Helper()

	full := filepath.Join(client.Root(), bucket, filepath.FromSlash(objectPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("seed object dir: %v", err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		t.Fatalf("seed object: %v", err)
	}
}
