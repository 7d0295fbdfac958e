package shasplit

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// PutBlob writes data under the blob keyed by digest d, unless a blob with
// that digest already exists and has the correct size, in which case the
// write is skipped. Size equality is the sole admissibility test: the digest
// itself is the content match; a same-digest-different-size file on disk
// (e.g. truncated by a prior crash) is the only case ever overwritten here.
func (r *Repository) PutBlob(d string, data []byte) error {
	blobPath := r.path(BlobPath(d))

	if info, err := os.Stat(blobPath); err == nil {
		if info.Size() == int64(len(data)) {
			r.log.Debugf("skipping existing complete blob %s", blobPath)
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat blob %s: %w", blobPath, err)
	}

	r.log.Debugf("writing blob %s (%d bytes)", blobPath, len(data))
	return WriteFile(blobPath, data)
}

// HasBlob reports whether a blob with digest d exists.
func (r *Repository) HasBlob(d string) (bool, error) {
	_, err := os.Stat(r.path(BlobPath(d)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat blob %s: %w", d, err)
}

// BlobSize returns the size in bytes of the blob with digest d.
func (r *Repository) BlobSize(d string) (int64, error) {
	info, err := os.Stat(r.path(BlobPath(d)))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &NotFoundError{Kind: "blob", What: d}
		}
		return 0, fmt.Errorf("stat blob %s: %w", d, err)
	}
	return info.Size(), nil
}

// BlobRef pairs a digest with the blob's path, joined onto the repository
// directory (so it can be opened directly).
type BlobRef struct {
	Digest string
	Path   string
}

// IterBlobs enumerates every regular file beneath .data/, yielding its
// digest (derived from its shard directory + file name) and its path under
// the repository directory.
// It walks lazily via WalkDir and invokes fn for each blob in lexical order;
// fn's error aborts the walk.
func (r *Repository) IterBlobs(fn func(BlobRef) error) error {
	root := r.path(dataDirName)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		digest := filepath.ToSlash(rel)
		digest = digest[:3] + digest[4:] // strip the shard-directory separator
		return fn(BlobRef{Digest: digest, Path: p})
	})
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("iterate blobs: %w", err)
	}
	return nil
}
