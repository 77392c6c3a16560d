package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
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
		{StatusConverting, "converting source"},
		{StatusParsing, "splitting sections"},
		{StatusStoring, "storing outline"},
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

func TestJob_SetStatusFailed(t *testing.T) {
	job := &Job{
		ID:        "test-fail",
		Status:    StatusParsing,
		UpdatedAt: time.Now(),
	}
	job.SetStatus(StatusFailed, "parse error")
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("convert: bad zip")
	job.AddError("store: disk full")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "convert: bad zip" {
		t.Errorf("expected first error %q, got %q", "convert: bad zip", snap.Progress.Errors[0])
	}
}

func TestJob_IncrStoreAttempts(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrStoreAttempts()
	job.IncrStoreAttempts()

	snap := job.Snapshot()
	if snap.Progress.StoreAttempts != 2 {
		t.Errorf("expected 2 store attempts, got %d", snap.Progress.StoreAttempts)
	}
}

func TestJob_SetOutline(t *testing.T) {
	job := &Job{ID: "outline-test", DocID: "", UpdatedAt: time.Now()}
	job.SetOutline("guide", "Guide", "abc", 4)
	job.MarkDuplicate("older-guide")

	snap := job.Snapshot()
	if snap.DocID != "guide" || snap.Title != "Guide" || snap.ContentHash != "abc" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Progress.Sections != 4 {
		t.Errorf("expected 4 sections, got %d", snap.Progress.Sections)
	}
	if snap.DuplicateOf != "older-guide" {
		t.Errorf("expected duplicate_of %q, got %q", "older-guide", snap.DuplicateOf)
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob("a.md", []byte("x"))
	b := NewJob("b.md", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct job ids, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued || a.Phase != "queued" {
		t.Errorf("expected queued job, got %q/%q", a.Status, a.Phase)
	}
	if string(a.FileData()) != "x" {
		t.Errorf("expected file data kept, got %q", a.FileData())
	}
}

func TestJobStatus_Done(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusFailed, StatusDupSkipped} {
		if !s.Done() {
			t.Errorf("expected %q to be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusQueued, StatusConverting, StatusParsing, StatusStoring} {
		if s.Done() {
			t.Errorf("expected %q to be in flight", s)
		}
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
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

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job left, got %d", store.Len())
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestJobStore_CountByStatus(t *testing.T) {
	store := NewJobStore(time.Hour)
	done := NewJob("a.md", nil)
	done.SetStatus(StatusCompleted, "done")
	store.Put(done)
	store.Put(NewJob("b.md", nil))
	store.Put(NewJob("c.md", nil))

	counts := store.CountByStatus()
	if counts[StatusQueued] != 2 || counts[StatusCompleted] != 1 {
		t.Errorf("expected 2 queued and 1 completed, got %v", counts)
	}
	if len(counts) != 2 {
		t.Errorf("expected only statuses in use, got %v", counts)
	}
}
