package shasplit

import (
	"path/filepath"
	"regexp"
)

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)

// ValidateName checks that name is a legal backup name: non-empty, no path
// separators, and not starting with '.', '_', or '-' (the prefixes reserved
// for ".data" and other internal uses). snapshotSuffix, when non-empty, is
// rejected as a trailing match so a name can never collide with the LVM
// snapshot naming convention.
func ValidateName(name, snapshotSuffix string) (string, error) {
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if filepath.Dir(name) != "." || name == ".." {
		return "", &ValidationError{Field: "name", Reason: "must not have a directory component"}
	}
	switch name[0] {
	case '.', '_', '-':
		return "", &ValidationError{Field: "name", Reason: `must not start with ".", "_", or "-"`}
	}
	if snapshotSuffix != "" && len(name) > len(snapshotSuffix) &&
		name[len(name)-len(snapshotSuffix):] == snapshotSuffix {
		return "", &ValidationError{Field: "name", Reason: "must not end with the configured LVM snapshot suffix"}
	}
	return name, nil
}

// ValidateTimestamp checks the YYYY-MM-DDThh:mm:ss shape every instance
// timestamp must have.
func ValidateTimestamp(ts string) (string, error) {
	if !timestampPattern.MatchString(ts) {
		return "", &ValidationError{Field: "timestamp", Reason: "must have format YYYY-MM-DDThh:mm:ss"}
	}
	return ts, nil
}

// ValidatePositive checks a strictly-positive integer parameter
// (partsize, maxparts, maxbackups, snapshotsize).
func ValidatePositive(field string, n int64) (int64, error) {
	if n <= 0 {
		return 0, &ValidationError{Field: field, Reason: "must be positive"}
	}
	return n, nil
}

// ValidateVolumeGroup checks an LVM volume group name: non-empty, no path
// component, not starting with '.' or '-'.
func ValidateVolumeGroup(vg string) (string, error) {
	if vg == "" {
		return "", &ValidationError{Field: "volumegroup", Reason: "must not be empty"}
	}
	if filepath.Dir(vg) != "." || vg == ".." {
		return "", &ValidationError{Field: "volumegroup", Reason: "must not have a directory component"}
	}
	switch vg[0] {
	case '.', '-':
		return "", &ValidationError{Field: "volumegroup", Reason: `must not start with "." or "-"`}
	}
	return vg, nil
}
