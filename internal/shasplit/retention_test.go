package shasplit

import (
	"strings"
	"testing"
	"time"
)

func TestRemoveObsoleteKeepsNewestCompleted(t *testing.T) {
	repo := newTestRepo(t, 8)

	times := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	for _, ts := range times {
		repo.SetClock(fixedClock(ts))
		if err := repo.Add("db", 2, strings.NewReader("payload-"+ts.String())); err != nil {
			t.Fatalf("Add at %v: %v", ts, err)
		}
	}

	remaining, err := repo.Timestamps("db")
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 surviving instances with maxbackups=2, got %d: %v", len(remaining), remaining)
	}
	if remaining[0] != "2024-01-03T00:00:00" || remaining[1] != "2024-01-02T00:00:00" {
		t.Errorf("expected the two newest instances to survive, got %v", remaining)
	}
}

func TestRemoveObsoleteDoesNotFreeSharedBlob(t *testing.T) {
	repo := newTestRepo(t, 64)

	repo.SetClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	if err := repo.Add("shared-a", 1, strings.NewReader("same-content")); err != nil {
		t.Fatalf("Add shared-a: %v", err)
	}
	repo.SetClock(fixedClock(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	if err := repo.Add("shared-b", 1, strings.NewReader("same-content")); err != nil {
		t.Fatalf("Add shared-b: %v", err)
	}

	var before int
	if err := repo.IterBlobs(func(BlobRef) error { before++; return nil }); err != nil {
		t.Fatalf("IterBlobs: %v", err)
	}
	if before != 1 {
		t.Fatalf("expected one shared blob before GC, got %d", before)
	}

	// Drop shared-a entirely by adding past its retention window.
	repo.SetClock(fixedClock(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
	if err := repo.Add("shared-a", 1, strings.NewReader("new-content")); err != nil {
		t.Fatalf("Add shared-a again: %v", err)
	}

	has, err := repo.HasBlob(mustDigest(t, repo, "same-content"))
	if err != nil {
		t.Fatalf("HasBlob: %v", err)
	}
	if !has {
		t.Error("expected blob still referenced by shared-b to survive GC")
	}
}

func mustDigest(t *testing.T, repo *Repository, content string) string {
	t.Helper()
	h := newHasher(repo.Config().Algorithm)
	h.Write([]byte(content))
	return digestFromHash(repo.Config().Algorithm, h).Encoded()
}

func TestRemoveObsoleteKeepsIncompleteInstances(t *testing.T) {
	repo := newTestRepo(t, 8)
	repo.SetClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	if err := repo.Add("db", 1, strings.NewReader("complete-one")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Simulate an interrupted ingest: an instance directory with parts but
	// no hash/size metadata.
	digest := mustDigest(t, repo, "partial")
	if err := repo.PutBlob(digest, []byte("partial")); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	instance := InstancePath("db", "2024-01-02T00:00:00")
	if err := Symlink(SymlinkTarget(digest), repo.path(PartPath(instance, 0, repo.cfg.MaxParts))); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	if err := repo.RemoveObsolete("db", 1); err != nil {
		t.Fatalf("RemoveObsolete: %v", err)
	}

	timestamps, err := repo.Timestamps("db")
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(timestamps) != 2 {
		t.Errorf("expected the incomplete instance to survive alongside the completed one, got %v", timestamps)
	}
}
