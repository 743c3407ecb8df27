package pipeline

import (
	"testing"
	"time"
)

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob("letter.html", 4096, []byte("<p>hi</p>"))
	if job.ID == "" {
		t.Error("expected a generated job ID")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected queued status, got %s", job.Status)
	}
	if string(job.FileData()) != "<p>hi</p>" {
		t.Errorf("file data not retained")
	}
}

func TestJob_SnapshotIsolated(t *testing.T) {
	job := NewJob("a.html", 100, nil)
	job.SetFragments([]string{"<p>a</p>", "<p>b</p>"})
	job.IncrDelivered()
	job.AddError("boom")

	snap := job.Snapshot()
	if snap.Progress.TotalFragments != 2 {
		t.Errorf("expected 2 fragments in snapshot, got %d", snap.Progress.TotalFragments)
	}
	if snap.Progress.Delivered != 1 {
		t.Errorf("expected 1 delivered, got %d", snap.Progress.Delivered)
	}
	if len(snap.Progress.Errors) != 1 || snap.Progress.Errors[0] != "boom" {
		t.Errorf("expected recorded error, got %v", snap.Progress.Errors)
	}

	// Mutating the returned fragments must not affect the job.
	frags := job.Fragments()
	frags[0] = "tampered"
	if job.Fragments()[0] != "<p>a</p>" {
		t.Error("Fragments() leaked internal slice")
	}
}

func TestJob_SnapshotEmptyErrorsNotNil(t *testing.T) {
	job := NewJob("a.html", 100, nil)
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("snapshot errors should be an empty slice, not nil")
	}
}

func TestJobStore_PutGetCleanup(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)

	job := NewJob("a.html", 100, nil)
	store.Put(job)
	if got := store.Get(job.ID); got != job {
		t.Fatal("expected to get stored job back")
	}
	if got := store.Get("missing"); got != nil {
		t.Fatal("expected nil for unknown job")
	}

	job.UpdatedAt = time.Now().Add(-time.Minute)
	store.Cleanup()
	if got := store.Get(job.ID); got != nil {
		t.Error("expected expired job to be evicted")
	}
}
