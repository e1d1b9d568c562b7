package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestNewJobID(t *testing.T) {
	a, b := NewJobID(), NewJobID()
	if !strings.HasPrefix(a, "job_") {
		t.Errorf("missing prefix: %q", a)
	}
	if a == b {
		t.Error("expected unique job ids")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusExtracting, "extract"},
		{StatusSplitting, "split"},
		{StatusGenerating, "generate"},
		{StatusMerging, "merge"},
		{StatusRendering, "render"},
		{StatusPostprocessing, "postprocess"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("render: theme not found")
	job.AddError("postprocess: image failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "render: theme not found" {
		t.Errorf("unexpected first error %q", snap.Progress.Errors[0])
	}
}

func TestJob_ProgressSetters(t *testing.T) {
	job := &Job{ID: "prog-test", UpdatedAt: time.Now()}
	job.SetSplitDecisions(7)
	job.SetSlideCount(21)
	job.SetImagesApplied(3)
	job.SetArtifact("output/deck.pptx")
	job.SetCheckpoint("output/checkpoints/deck_x.json")

	snap := job.Snapshot()
	if snap.Progress.SplitDecisions != 7 {
		t.Errorf("split decisions = %d", snap.Progress.SplitDecisions)
	}
	if snap.Progress.SlideCount != 21 {
		t.Errorf("slide count = %d", snap.Progress.SlideCount)
	}
	if snap.Progress.ImagesApplied != 3 {
		t.Errorf("images applied = %d", snap.Progress.ImagesApplied)
	}
	if snap.Progress.ArtifactPath != "output/deck.pptx" {
		t.Errorf("artifact = %q", snap.Progress.ArtifactPath)
	}
	if job.ArtifactPath() != "output/deck.pptx" {
		t.Errorf("ArtifactPath() = %q", job.ArtifactPath())
	}
	if snap.Progress.CheckpointPath != "output/checkpoints/deck_x.json" {
		t.Errorf("checkpoint = %q", snap.Progress.CheckpointPath)
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	if string(job.FileData()) != string(data) {
		t.Errorf("unexpected file data %q", job.FileData())
	}
	job.clearFileData()
	if job.FileData() != nil {
		t.Error("expected file data to be dropped")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
