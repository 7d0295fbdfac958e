package shasplit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Names returns the repository's backup names: immediate subdirectories of
// the repository root other than .data, each validated as a legal name.
// Invalid entries are skipped rather than failing the whole listing, since
// they cannot have been created by this engine.
func (r *Repository) Names() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "repository", What: r.cfg.Directory}
		}
		return nil, fmt.Errorf("list repository %s: %w", r.cfg.Directory, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == dataDirName {
			continue
		}
		if _, err := ValidateName(e.Name(), r.cfg.SnapshotSuffix); err != nil {
			r.log.Debugf("skipping non-name entry %q: %v", e.Name(), err)
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// tsFromDirName reinserts the two ':' characters a timestamp directory name
// (colons stripped at creation time) needs to become a valid
// YYYY-MM-DDThh:mm:ss timestamp.
func tsFromDirName(dirName string) string {
	if len(dirName) != 17 {
		return dirName
	}
	return dirName[:13] + ":" + dirName[13:15] + ":" + dirName[15:]
}

// Timestamps returns name's instance timestamps, newest first.
func (r *Repository) Timestamps(name string) ([]string, error) {
	nameDir := r.path(name)
	entries, err := os.ReadDir(nameDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "name", What: name}
		}
		return nil, fmt.Errorf("list name %s: %w", name, err)
	}

	var timestamps []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ts := tsFromDirName(e.Name())
		if _, err := ValidateTimestamp(ts); err != nil {
			r.log.Debugf("skipping non-instance entry %q under %s: %v", e.Name(), name, err)
			continue
		}
		timestamps = append(timestamps, ts)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(timestamps)))
	return timestamps, nil
}

// PartSymlinks returns the part symlink paths of the instance (name, ts),
// relative to the repository root, ordered by (partdir, partfile) — which,
// given the zero-padded width PartPath uses, equals numeric part order.
func (r *Repository) PartSymlinks(name, ts string) ([]string, error) {
	instance := InstancePath(name, ts)
	instanceDir := r.path(instance)

	partDirs, err := os.ReadDir(instanceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "timestamp", What: ts}
		}
		return nil, fmt.Errorf("list instance %s: %w", instance, err)
	}

	var dirNames []string
	for _, d := range partDirs {
		if d.IsDir() {
			dirNames = append(dirNames, d.Name())
		}
	}
	sort.Strings(dirNames)

	var symlinks []string
	for _, dirName := range dirNames {
		partDir := filepath.Join(instanceDir, dirName)
		files, err := os.ReadDir(partDir)
		if err != nil {
			return nil, fmt.Errorf("list part dir %s: %w", partDir, err)
		}
		var fileNames []string
		for _, f := range files {
			fileNames = append(fileNames, f.Name())
		}
		sort.Strings(fileNames)
		for _, fileName := range fileNames {
			symlinks = append(symlinks, filepath.Join(instance, dirName, fileName))
		}
	}
	return symlinks, nil
}

// InstanceSizes returns the actual size (sum of referenced blob sizes) and
// the expected size (parsed from the "size" file, if both "size" and "hash"
// are present) of instance (name, ts). expectedOK is false when the
// instance is not yet completed.
func (r *Repository) InstanceSizes(name, ts string) (actual, expected int64, expectedOK bool, err error) {
	symlinks, err := r.PartSymlinks(name, ts)
	if err != nil {
		return 0, 0, false, err
	}

	for _, rel := range symlinks {
		info, statErr := os.Stat(r.path(rel))
		if statErr != nil {
			return 0, 0, false, fmt.Errorf("stat part %s: %w", rel, statErr)
		}
		actual += info.Size()
	}

	instance := InstancePath(name, ts)
	hashPath := r.path(filepath.Join(instance, "hash"))
	sizePath := r.path(filepath.Join(instance, "size"))

	if !fileExists(hashPath) || !fileExists(sizePath) {
		return actual, 0, false, nil
	}

	raw, err := os.ReadFile(sizePath)
	if err != nil {
		return 0, 0, false, fmt.Errorf("read size %s: %w", sizePath, err)
	}
	expected, err = strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, 0, false, &IntegrityError{Msg: fmt.Sprintf("malformed size file %s", sizePath)}
	}
	if expected < 0 {
		return 0, 0, false, &IntegrityError{Msg: "negative expected size", Expected: expected}
	}
	if actual > expected {
		return 0, 0, false, &IntegrityError{Msg: fmt.Sprintf("%s/%s exceeds declared size", name, ts), Expected: expected, Actual: actual}
	}

	return actual, expected, true, nil
}

// Completed reports whether instance (name, ts) is completed: both hash and
// size metadata exist and the sum of referenced blob sizes equals the
// declared size.
func (r *Repository) Completed(name, ts string) (bool, error) {
	actual, expected, ok, err := r.InstanceSizes(name, ts)
	if err != nil {
		return false, err
	}
	return ok && actual == expected, nil
}

// StoredHash returns the trimmed contents of instance (name, ts)'s hash file.
func (r *Repository) StoredHash(name, ts string) (string, error) {
	instance := InstancePath(name, ts)
	hashPath := r.path(filepath.Join(instance, "hash"))
	raw, err := os.ReadFile(hashPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Kind: "hash", What: hashPath}
		}
		return "", fmt.Errorf("read hash %s: %w", hashPath, err)
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

// digestFromSymlink derives the digest referenced by a part symlink's target
// (as returned by os.Readlink, without following the link) by peeling the
// last two path components (the blob's shard dir and file name) back together.
func digestFromSymlink(target string) (string, error) {
	target = filepath.ToSlash(target)
	parts := strings.Split(target, "/")
	if len(parts) < 2 {
		return "", &IntegrityError{Msg: fmt.Sprintf("malformed symlink target %q", target)}
	}
	shard, file := parts[len(parts)-2], parts[len(parts)-1]
	if len(shard) != dirlen || file == "" {
		return "", &IntegrityError{Msg: fmt.Sprintf("malformed symlink target %q", target)}
	}
	return shard + file, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
