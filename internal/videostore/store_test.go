package videostore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"teamzones/internal/testsupport"
	"teamzones/internal/videostore"
)

func strPtr(s string) *string { return &s }

func statusPtr(s videostore.Status) *videostore.Status { return &s }

func float64Ptr(f float64) *float64 { return &f }

func TestEnqueueAndFetchStandaloneVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := &videostore.VideoRecord{
		ID:               "vid1",
		OwnerUserID:      "u1",
		SourceObjectPath: "videos/u1/vid1/clip.webm",
		Title:            "standup",
	}
	if err := store.EnqueueVideo(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := store.VideoByRef(ctx, rec.Ref())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != videostore.StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.Title != "standup" || got.SourceObjectPath != "videos/u1/vid1/clip.webm" {
		t.Errorf("record round trip mismatch: %+v", got)
	}
}

func TestStatusByRefMissingRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	status, err := store.StatusByRef(ctx, videostore.Ref{Layout: videostore.LayoutUser, UserID: "u1", VideoID: "missing"})
	if err != nil {
		t.Fatalf("missing standalone record should report pending: %v", err)
	}
	if status != videostore.StatusPending {
		t.Errorf("status = %s, want pending", status)
	}

	_, err = store.StatusByRef(ctx, videostore.Ref{Layout: videostore.LayoutWeek, WeekID: "2024-W10", VideoID: "missing"})
	if !errors.Is(err, videostore.ErrNotFound) {
		t.Errorf("missing week element: err = %v, want ErrNotFound", err)
	}
}

func TestMergeVideoTouchesOnlyPatchedFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := &videostore.VideoRecord{ID: "vid1", OwnerUserID: "u1", Title: "standup", Visibility: "team"}
	if err := store.EnqueueVideo(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	err := store.MergeVideo(ctx, rec.Ref(), videostore.FieldPatch{
		Transcript:      strPtr("hello"),
		DurationSeconds: float64Ptr(12),
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	got, err := store.VideoByRef(ctx, rec.Ref())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Transcript != "hello" || got.DurationSeconds != 12 {
		t.Errorf("patched fields missing: %+v", got)
	}
	if got.Title != "standup" || got.Visibility != "team" || got.Status != videostore.StatusPending {
		t.Errorf("unpatched fields changed: %+v", got)
	}
}

func TestMergeVideoGuardedBlocksIllegalTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := &videostore.VideoRecord{ID: "vid1", OwnerUserID: "u1"}
	if err := store.EnqueueVideo(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	ref := rec.Ref()

	applied, err := store.MarkTranscribing(ctx, ref)
	if err != nil || !applied {
		t.Fatalf("pending -> transcribing: applied=%v err=%v", applied, err)
	}

	applied, err = store.MergeVideoGuarded(ctx, ref, videostore.FieldPatch{Status: statusPtr(videostore.StatusPending)})
	if err != nil {
		t.Fatalf("guarded merge: %v", err)
	}
	if applied {
		t.Error("transcribing -> pending should be rejected")
	}

	applied, err = store.MarkError(ctx, ref, "boom")
	if err != nil || !applied {
		t.Fatalf("transcribing -> error: applied=%v err=%v", applied, err)
	}

	applied, err = store.MergeVideoGuarded(ctx, ref, videostore.FieldPatch{
		Status:     statusPtr(videostore.StatusReady),
		Transcript: strPtr("late"),
	})
	if err != nil {
		t.Fatalf("guarded merge: %v", err)
	}
	if applied {
		t.Error("terminal record accepted a status write")
	}

	applied, err = store.MergeVideoGuarded(ctx, ref, videostore.FieldPatch{Transcript: strPtr("late")})
	if err != nil {
		t.Fatalf("guarded merge: %v", err)
	}
	if applied {
		t.Error("terminal record accepted a field write")
	}

	got, err := store.VideoByRef(ctx, ref)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != videostore.StatusError || got.LastError != "boom" || got.Transcript != "" {
		t.Errorf("terminal record mutated: %+v", got)
	}
}

func TestMarkTranscribingClearsStaleError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := &videostore.VideoRecord{ID: "vid1", OwnerUserID: "u1", LastError: "old failure"}
	if err := store.EnqueueVideo(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := store.MarkTranscribing(ctx, rec.Ref()); err != nil {
		t.Fatalf("mark transcribing: %v", err)
	}

	got, err := store.VideoByRef(ctx, rec.Ref())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != videostore.StatusTranscribing {
		t.Errorf("status = %s, want transcribing", got.Status)
	}
	if got.LastError != "" {
		t.Errorf("lastError = %q, want cleared", got.LastError)
	}
}

func TestReclaimStaleBothLayouts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	standalone := &videostore.VideoRecord{ID: "vid1", OwnerUserID: "u1"}
	week := &videostore.VideoRecord{ID: "vid2", WeekID: "2024-W10"}
	settled := &videostore.VideoRecord{ID: "vid3", OwnerUserID: "u1"}
	for _, rec := range []*videostore.VideoRecord{standalone, week, settled} {
		if err := store.EnqueueVideo(ctx, rec); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	for _, rec := range []*videostore.VideoRecord{standalone, week} {
		if _, err := store.MarkTranscribing(ctx, rec.Ref()); err != nil {
			t.Fatalf("mark transcribing: %v", err)
		}
	}

	// A cutoff in the future makes every transcribing record stale.
	reclaimed, err := store.ReclaimStale(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if reclaimed != 2 {
		t.Fatalf("reclaimed = %d, want 2", reclaimed)
	}

	for _, rec := range []*videostore.VideoRecord{standalone, week} {
		got, err := store.VideoByRef(ctx, rec.Ref())
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if got.Status != videostore.StatusError || got.LastError != videostore.StalledMessage {
			t.Errorf("record %s: status=%s lastError=%q", rec.ID, got.Status, got.LastError)
		}
	}

	got, err := store.VideoByRef(ctx, settled.Ref())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != videostore.StatusPending {
		t.Errorf("pending record touched by sweep: %s", got.Status)
	}
}

func TestRetryErroredResetsBothLayouts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	standalone := &videostore.VideoRecord{ID: "vid1", OwnerUserID: "u1"}
	week := &videostore.VideoRecord{ID: "vid2", WeekID: "2024-W10"}
	for _, rec := range []*videostore.VideoRecord{standalone, week} {
		if err := store.EnqueueVideo(ctx, rec); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if _, err := store.MarkError(ctx, rec.Ref(), "boom"); err != nil {
			t.Fatalf("mark error: %v", err)
		}
	}

	retried, err := store.RetryErrored(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried != 2 {
		t.Fatalf("retried = %d, want 2", retried)
	}

	for _, rec := range []*videostore.VideoRecord{standalone, week} {
		got, err := store.VideoByRef(ctx, rec.Ref())
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if got.Status != videostore.StatusPending || got.LastError != "" || got.RetryCount != 1 {
			t.Errorf("record %s after retry: status=%s lastError=%q retries=%d", rec.ID, got.Status, got.LastError, got.RetryCount)
		}
	}
}

func TestHealthCountsAcrossLayouts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	records := []*videostore.VideoRecord{
		{ID: "vid1", OwnerUserID: "u1"},
		{ID: "vid2", WeekID: "2024-W10"},
		{ID: "vid3", WeekID: "2024-W10"},
	}
	for _, rec := range records {
		if err := store.EnqueueVideo(ctx, rec); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if _, err := store.MarkError(ctx, records[2].Ref(), "boom"); err != nil {
		t.Fatalf("mark error: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Total != 3 || health.Pending != 2 || health.Errored != 1 {
		t.Errorf("health = %+v", health)
	}
}

func TestListAllCombinesLayouts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	records := []*videostore.VideoRecord{
		{ID: "vid1", OwnerUserID: "u1"},
		{ID: "vid2", WeekID: "2024-W10"},
	}
	for _, rec := range records {
		if err := store.EnqueueVideo(ctx, rec); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if _, err := store.MarkError(ctx, records[0].Ref(), "boom"); err != nil {
		t.Fatalf("mark error: %v", err)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}

	errored, err := store.ListAll(ctx, videostore.StatusError)
	if err != nil {
		t.Fatalf("list errored: %v", err)
	}
	if len(errored) != 1 || errored[0].ID != "vid1" {
		t.Fatalf("errored = %+v", errored)
	}
}
