package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"teamzones/internal/config"
)

func testClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	cfg := config.Speech{
		Endpoint:         endpoint,
		Language:         "en-US",
		Model:            "video",
		UseEnhanced:      true,
		SyncLimitSeconds: 55,
		TimeoutSeconds:   5,
	}
	return NewClient(cfg)
}

func writeWav(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF-fake"), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestTranscribeFileSynchronous(t *testing.T) {
	var gotRequest recognizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/speech:recognize" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := recognizeResponse{Results: []Result{
			{Alternatives: []Alternative{{Transcript: "hello there."}}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	transcript, err := client.TranscribeFile(context.Background(), writeWav(t), 30)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if transcript != "hello there." {
		t.Errorf("transcript = %q", transcript)
	}

	cfg := gotRequest.Config
	if cfg.Encoding != "LINEAR16" || cfg.SampleRateHertz != 16000 {
		t.Errorf("audio config = %+v", cfg)
	}
	if !cfg.EnableAutomaticPunctuation || cfg.Model != "video" || !cfg.UseEnhanced {
		t.Errorf("recognition config = %+v", cfg)
	}
	if gotRequest.Audio.Content == "" {
		t.Error("request carried no audio content")
	}
}

func TestTranscribeFileLongRunning(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/speech:longrunningrecognize":
			json.NewEncoder(w).Encode(operationStatus{Name: "op-42"})
		case strings.HasPrefix(r.URL.Path, "/operations/"):
			if r.URL.Path != "/operations/op-42" {
				t.Errorf("poll path = %s", r.URL.Path)
			}
			if polls.Add(1) < 2 {
				json.NewEncoder(w).Encode(operationStatus{Name: "op-42"})
				return
			}
			json.NewEncoder(w).Encode(operationStatus{
				Name: "op-42",
				Done: true,
				Response: &recognizeResponse{Results: []Result{
					{Alternatives: []Alternative{{Transcript: "long form."}}},
				}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	// 120s of audio exceeds the 55s sync limit and takes the operation path.
	transcript, err := client.TranscribeFile(context.Background(), writeWav(t), 120)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if transcript != "long form." {
		t.Errorf("transcript = %q", transcript)
	}
	if polls.Load() < 2 {
		t.Errorf("polls = %d, want at least 2", polls.Load())
	}
}

func TestTranscribeFileUnknownDurationUsesAudioSize(t *testing.T) {
	var syncCalls, longCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/speech:recognize":
			syncCalls.Add(1)
			json.NewEncoder(w).Encode(recognizeResponse{})
		case r.URL.Path == "/speech:longrunningrecognize":
			longCalls.Add(1)
			json.NewEncoder(w).Encode(operationStatus{
				Name: "op-1",
				Done: true,
				Response: &recognizeResponse{Results: []Result{
					{Alternatives: []Alternative{{Transcript: "sized."}}},
				}},
			})
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	client.syncLimit = time.Second

	// Well over one second of 16-bit mono 16 kHz PCM, but no probed duration.
	wav := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(wav, make([]byte, 3*pcmBytesPerSecond), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	transcript, err := client.TranscribeFile(context.Background(), wav, 0)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if transcript != "sized." {
		t.Errorf("transcript = %q", transcript)
	}
	if syncCalls.Load() != 0 || longCalls.Load() != 1 {
		t.Errorf("sync=%d long=%d, large audio of unknown duration must take the long-running path", syncCalls.Load(), longCalls.Load())
	}
}

func TestExceedsSyncLimit(t *testing.T) {
	client := testClient(t, "https://speech.example.com/v1")

	cases := []struct {
		name       string
		duration   float64
		audioBytes int
		want       bool
	}{
		{"short by duration", 30, 10 * pcmBytesPerSecond, false},
		{"long by duration", 120, 10 * pcmBytesPerSecond, true},
		{"unknown duration, small audio", 0, 10 * pcmBytesPerSecond, false},
		{"unknown duration, large audio", 0, 100 * pcmBytesPerSecond, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := client.exceedsSyncLimit(tc.duration, tc.audioBytes); got != tc.want {
				t.Errorf("exceedsSyncLimit(%v, %d) = %v, want %v", tc.duration, tc.audioBytes, got, tc.want)
			}
		})
	}
}

func TestTranscribeFileOperationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/speech:longrunningrecognize":
			json.NewEncoder(w).Encode(operationStatus{Name: "op-7"})
		case strings.HasPrefix(r.URL.Path, "/operations/"):
			json.NewEncoder(w).Encode(operationStatus{
				Name:  "op-7",
				Done:  true,
				Error: &operationError{Code: 3, Message: "audio too noisy"},
			})
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.TranscribeFile(context.Background(), writeWav(t), 120)
	if err == nil || !strings.Contains(err.Error(), "audio too noisy") {
		t.Fatalf("err = %v, want operation error surfaced", err)
	}
}

func TestTranscribeFileHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"API key invalid"}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.TranscribeFile(context.Background(), writeWav(t), 10)
	if err == nil || !strings.Contains(err.Error(), "API key invalid") {
		t.Fatalf("err = %v, want service message surfaced", err)
	}
}

func TestBuildURLAppendsKey(t *testing.T) {
	client := testClient(t, "https://speech.example.com/v1")
	if got := client.buildURL("/speech:recognize"); got != "https://speech.example.com/v1/speech:recognize" {
		t.Errorf("url without key = %q", got)
	}
	client.apiKey = "se cret"
	if got := client.buildURL("/speech:recognize"); got != "https://speech.example.com/v1/speech:recognize?key=se+cret" {
		t.Errorf("url with key = %q", got)
	}
}
