// Package lvm wraps the external lvcreate/lvremove/sync commands behind a
// narrow collaborator interface, so a snapshot-backed ingest ("add_lvm") can
// be exercised without a real volume group in tests.
package lvm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// Snapshotter creates and tears down an LVM snapshot and opens its block
// device for reading. A real Snapshotter shells out to the lvm2 tools; tests
// substitute a fake.
type Snapshotter interface {
	Sync(ctx context.Context) error
	LVCreate(ctx context.Context, vg, origin, snap string, sizeBytes int64) error
	LVRemove(ctx context.Context, vg, snap string) error
	OpenBlockDevice(vg, snap string) (*os.File, error)
}

// CommandSnapshotter is the real Snapshotter, driving lvcreate(8)/lvremove(8)
// and opening the resulting device node directly.
type CommandSnapshotter struct {
	log *logrus.Entry

	// Timeout bounds each external command; the lvm2 tools normally return
	// in well under a second but can block indefinitely against a wedged
	// device-mapper target.
	Timeout time.Duration
}

// NewCommandSnapshotter returns a CommandSnapshotter logging through log (or
// the standard logger, if nil).
func NewCommandSnapshotter(log *logrus.Entry) *CommandSnapshotter {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CommandSnapshotter{log: log, Timeout: 30 * time.Second}
}

func (s *CommandSnapshotter) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

// Sync runs sync(1), flushing dirty pages before a snapshot is taken so the
// snapshot's initial content is consistent with what was last written.
func (s *CommandSnapshotter) Sync(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sync")
	s.log.Debug("running sync")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sync: %w: %s", err, out)
	}
	return nil
}

// LVCreate creates a read-only snapshot named snap of origin in volume
// group vg, sized sizeBytes for copy-on-write overflow.
func (s *CommandSnapshotter) LVCreate(ctx context.Context, vg, origin, snap string, sizeBytes int64) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	originPath := fmt.Sprintf("/dev/%s/%s", vg, origin)
	cmd := exec.CommandContext(ctx, "lvcreate",
		"--snapshot", "--permission", "r",
		"--size", fmt.Sprintf("%db", sizeBytes),
		"--name", snap,
		originPath,
	)
	s.log.Debugf("creating snapshot %s/%s of %s", vg, snap, originPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("lvcreate %s/%s: %w: %s", vg, snap, err, out)
	}
	return nil
}

// LVRemove removes the snapshot named snap from volume group vg.
func (s *CommandSnapshotter) LVRemove(ctx context.Context, vg, snap string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "lvremove", "--force", fmt.Sprintf("/dev/%s/%s", vg, snap))
	s.log.Debugf("removing snapshot %s/%s", vg, snap)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("lvremove %s/%s: %w: %s", vg, snap, err, out)
	}
	return nil
}

// OpenBlockDevice opens the block device of snapshot snap in volume group vg
// for reading.
func (s *CommandSnapshotter) OpenBlockDevice(vg, snap string) (*os.File, error) {
	devPath := fmt.Sprintf("/dev/%s/%s", vg, snap)
	f, err := os.Open(devPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devPath, err)
	}
	return f, nil
}
