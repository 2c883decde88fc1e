package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolvedPath, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Error("exists = true for missing file")
	}
	if resolvedPath == "" {
		t.Error("resolved path empty")
	}
	if cfg.Pipeline.UploadPrefix != "videos/" {
		t.Errorf("upload prefix = %q", cfg.Pipeline.UploadPrefix)
	}
	if cfg.Speech.SyncLimitSeconds != 55 || cfg.Speech.TimeoutSeconds != 540 {
		t.Errorf("speech limits = %+v", cfg.Speech)
	}
	if cfg.Pipeline.ThumbnailFraction != 0.5 {
		t.Errorf("thumbnail fraction = %v", cfg.Pipeline.ThumbnailFraction)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[pipeline]
upload_prefix = "uploads"
thumbnail = false
duration = false

[speech]
endpoint = "https://speech.example.com/v1/"

[logging]
format = "JSON"
`)
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false for present file")
	}
	if cfg.Pipeline.UploadPrefix != "uploads/" {
		t.Errorf("upload prefix = %q, want trailing slash added", cfg.Pipeline.UploadPrefix)
	}
	if cfg.Speech.Endpoint != "https://speech.example.com/v1" {
		t.Errorf("speech endpoint = %q, want trailing slash trimmed", cfg.Speech.Endpoint)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging format = %q", cfg.Logging.Format)
	}
	if !cfg.Pipeline.Transcript || cfg.Pipeline.Thumbnail || cfg.Pipeline.Duration {
		t.Errorf("stage toggles = %+v", cfg.Pipeline)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("err = %v, want logging.format problem", err)
	}
}

func TestLoadRejectsAllStagesDisabled(t *testing.T) {
	path := writeConfig(t, `
[pipeline]
transcript = false
thumbnail = false
duration = false
`)
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "at least one") {
		t.Fatalf("err = %v, want stage toggle problem", err)
	}
}

func TestSecretsFallBackToEnvironment(t *testing.T) {
	t.Setenv("TEAMZONES_OBJECT_ACCESS_KEY", "env-access")
	t.Setenv("TEAMZONES_OBJECT_SECRET_KEY", "env-secret")
	t.Setenv("TEAMZONES_SPEECH_API_KEY", "env-speech")

	path := writeConfig(t, "")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ObjectStore.AccessKey != "env-access" || cfg.ObjectStore.SecretKey != "env-secret" {
		t.Errorf("object store creds = %+v", cfg.ObjectStore)
	}
	if cfg.Speech.APIKey != "env-speech" {
		t.Errorf("speech key = %q", cfg.Speech.APIKey)
	}
}

func TestConfigFileOverridesEnvironment(t *testing.T) {
	t.Setenv("TEAMZONES_SPEECH_API_KEY", "env-speech")

	path := writeConfig(t, `
[speech]
api_key = "file-speech"
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Speech.APIKey != "file-speech" {
		t.Errorf("speech key = %q, file value should win", cfg.Speech.APIKey)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := ExpandPath("~/x/y")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Errorf("expanded = %q", got)
	}
}
