package shasplit

import (
	"context"
	"fmt"

	"github.com/shasplit/shasplit/internal/lvm"
)

// AddLVM snapshots the logical volume name within volume group volumegroup,
// ingests the snapshot's raw block device as a new instance of name, and
// tears the snapshot back down on every return after it was created — even
// when ingest fails — so a failed run does not leave a live snapshot behind.
func (r *Repository) AddLVM(ctx context.Context, snap lvm.Snapshotter, volumegroup, name string, maxBackups int64) error {
	volumegroup, err := ValidateVolumeGroup(volumegroup)
	if err != nil {
		return err
	}
	name, err = ValidateName(name, r.cfg.SnapshotSuffix)
	if err != nil {
		return err
	}
	if maxBackups, err = ValidatePositive("maxbackups", maxBackups); err != nil {
		return err
	}

	snapName := name + r.cfg.SnapshotSuffix

	if err := snap.Sync(ctx); err != nil {
		return fmt.Errorf("sync before snapshot: %w", err)
	}

	r.log.Infof("creating LVM snapshot %s/%s of %s", volumegroup, snapName, name)
	if err := snap.LVCreate(ctx, volumegroup, name, snapName, r.cfg.SnapshotSize); err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		r.log.Infof("removing LVM snapshot %s/%s", volumegroup, snapName)
		if rmErr := snap.LVRemove(ctx, volumegroup, snapName); rmErr != nil {
			r.log.Errorf("failed to remove snapshot %s/%s: %v", volumegroup, snapName, rmErr)
		}
	}()

	dev, err := snap.OpenBlockDevice(volumegroup, snapName)
	if err != nil {
		return fmt.Errorf("open snapshot device: %w", err)
	}
	defer dev.Close()

	return r.Add(name, maxBackups, dev)
}
