package shasplit

import (
	"fmt"
	"os"
	"path/filepath"
)

// RemoveObsolete drops instances of name beyond the maxbackups-th completed
// one, then removes those blobs of the dropped instances that no remaining
// instance of any name still references. Blobs that no dropped instance
// referenced are not examined. It is safe to call whether or not there is
// anything to drop.
func (r *Repository) RemoveObsolete(name string, maxBackups int64) error {
	name, err := ValidateName(name, r.cfg.SnapshotSuffix)
	if err != nil {
		return err
	}
	if maxBackups, err = ValidatePositive("maxbackups", maxBackups); err != nil {
		return err
	}

	r.log.Debugf("removing obsolete backups of %q while keeping at most %d", name, maxBackups)

	drop, err := r.dropList(name, maxBackups)
	if err != nil {
		return err
	}
	if len(drop) == 0 {
		return nil
	}

	freed := make(map[string]bool)
	for _, ts := range drop {
		if err := r.dropInstance(name, ts, freed); err != nil {
			return err
		}
	}

	if err := r.unreferenceLiveBlobs(freed); err != nil {
		return err
	}

	for d := range freed {
		if err := r.removeBlob(d); err != nil {
			return err
		}
	}

	return r.pruneEmptyName(name)
}

// dropList walks name's timestamps newest-first, keeping the first
// maxBackups completed ones (plus any newer-or-interleaved incomplete
// ones), and returns every timestamp encountered once that count is
// reached.
func (r *Repository) dropList(name string, maxBackups int64) ([]string, error) {
	timestamps, err := r.Timestamps(name)
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return nil, nil
		}
		return nil, err
	}

	var drop []string
	var completed int64
	for _, ts := range timestamps {
		if completed >= maxBackups {
			drop = append(drop, ts)
			continue
		}
		isCompleted, err := r.Completed(name, ts)
		if err != nil {
			return nil, err
		}
		if isCompleted {
			completed++
		}
	}
	return drop, nil
}

// dropInstance removes one instance's symlinks, partdirs, metadata files,
// and directory, recording the digest freed by each symlink into freed.
func (r *Repository) dropInstance(name, ts string, freed map[string]bool) error {
	instance := InstancePath(name, ts)
	instanceDir := r.path(instance)

	symlinks, err := r.PartSymlinks(name, ts)
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return nil
		}
		return err
	}

	partDirs := make(map[string]bool)
	for _, rel := range symlinks {
		full := r.path(rel)
		target, err := os.Readlink(full)
		if err != nil {
			return fmt.Errorf("readlink %s: %w", full, err)
		}
		d, err := digestFromSymlink(target)
		if err != nil {
			return err
		}
		freed[d] = true

		if err := os.Remove(full); err != nil {
			return fmt.Errorf("remove symlink %s: %w", full, err)
		}
		partDirs[filepath.Dir(full)] = true
	}

	for dir := range partDirs {
		_ = os.Remove(dir) // ignore failure: other part files may remain (shouldn't, but be lenient)
	}

	for _, metaFile := range []string{"hash", "size"} {
		p := filepath.Join(instanceDir, metaFile)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}

	if err := os.Remove(instanceDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove instance dir %s: %w", instanceDir, err)
	}

	r.log.Debugf("dropped instance %s/%s", name, ts)
	return nil
}

// unreferenceLiveBlobs is the central safety gate: it sweeps every
// remaining instance of every name and discards from freed any digest still
// referenced, so a digest shared across names or instances is never removed
// while still in use.
func (r *Repository) unreferenceLiveBlobs(freed map[string]bool) error {
	names, err := r.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		timestamps, err := r.Timestamps(name)
		if err != nil {
			return err
		}
		for _, ts := range timestamps {
			symlinks, err := r.PartSymlinks(name, ts)
			if err != nil {
				return err
			}
			for _, rel := range symlinks {
				target, err := os.Readlink(r.path(rel))
				if err != nil {
					return fmt.Errorf("readlink %s: %w", rel, err)
				}
				d, err := digestFromSymlink(target)
				if err != nil {
					return err
				}
				delete(freed, d)
			}
		}
	}
	return nil
}

// removeBlob unlinks the blob for digest d, if present, and tries to remove
// its now-possibly-empty shard directory; a non-empty shard is normal and
// the failure is ignored.
func (r *Repository) removeBlob(d string) error {
	blobPath := r.path(BlobPath(d))
	if err := os.Remove(blobPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", blobPath, err)
	}
	r.log.Debugf("removed unreferenced blob %s", blobPath)
	_ = os.Remove(filepath.Dir(blobPath))
	return nil
}

// pruneEmptyName removes name's directory if ingest/retention left it with
// no remaining instances.
func (r *Repository) pruneEmptyName(name string) error {
	nameDir := r.path(name)
	entries, err := os.ReadDir(nameDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list name %s: %w", nameDir, err)
	}
	if len(entries) == 0 {
		_ = os.Remove(nameDir)
	}
	return nil
}
