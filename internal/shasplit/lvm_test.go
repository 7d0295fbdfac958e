package shasplit

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/shasplit/shasplit/internal/lvm"
)

// fakeSnapshotter is a lvm.Snapshotter that serves a block device out of a
// regular temp file, so AddLVM can be exercised without a real
// volume group.
type fakeSnapshotter struct {
	devicePath   string
	removed      bool
	createCalled bool
}

func (f *fakeSnapshotter) Sync(context.Context) error { return nil }

func (f *fakeSnapshotter) LVCreate(_ context.Context, _, _, _ string, _ int64) error {
	f.createCalled = true
	return nil
}

func (f *fakeSnapshotter) LVRemove(context.Context, string, string) error {
	f.removed = true
	return nil
}

func (f *fakeSnapshotter) OpenBlockDevice(_, _ string) (*os.File, error) {
	return os.Open(f.devicePath)
}

var _ lvm.Snapshotter = (*fakeSnapshotter)(nil)

func TestAddLVMIngestsSnapshotDeviceAndTearsDown(t *testing.T) {
	repo := newTestRepo(t, 8)
	repo.SetClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	devicePath := t.TempDir() + "/device"
	if err := os.WriteFile(devicePath, []byte("snapshot contents"), 0o644); err != nil {
		t.Fatalf("write fake device: %v", err)
	}
	snap := &fakeSnapshotter{devicePath: devicePath}

	if err := repo.AddLVM(context.Background(), snap, "vg0", "db", 10); err != nil {
		t.Fatalf("AddLVM: %v", err)
	}
	if !snap.createCalled || !snap.removed {
		t.Errorf("expected snapshot create+remove both to run, got create=%v remove=%v", snap.createCalled, snap.removed)
	}

	var out bytes.Buffer
	if err := repo.Recover("db", "2024-01-01T00:00:00", &out); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if out.String() != "snapshot contents" {
		t.Errorf("recovered %q, want %q", out.String(), "snapshot contents")
	}
}

type failingSnapshotter struct{ fakeSnapshotter }

func (f *failingSnapshotter) OpenBlockDevice(string, string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func TestAddLVMTearsDownSnapshotEvenOnFailure(t *testing.T) {
	repo := newTestRepo(t, 8)

	snap := &failingSnapshotter{}
	if err := repo.AddLVM(context.Background(), snap, "vg0", "db", 10); err == nil {
		t.Fatal("expected AddLVM to fail when the snapshot device cannot be opened")
	}
	if !snap.removed {
		t.Error("expected the snapshot to be torn down even though ingest failed")
	}
}
