package shasplit

import (
	"fmt"
	"io"
	"path"

	"github.com/dustin/go-humanize"
)

// Add ingests the bytes read from in as a new instance of name, then applies
// retention. Composition is RemoveObsolete; ingest; RemoveObsolete: a
// pre-ingest pass relieves storage pressure before the new data is written,
// and a post-ingest pass prunes the instance just created if maxbackups is
// small enough to make it immediately obsolete.
func (r *Repository) Add(name string, maxBackups int64, in io.Reader) error {
	name, err := ValidateName(name, r.cfg.SnapshotSuffix)
	if err != nil {
		return err
	}
	if maxBackups, err = ValidatePositive("maxbackups", maxBackups); err != nil {
		return err
	}

	r.log.Infof("adding to %q while keeping at most %d backups", name, maxBackups)

	if err := r.RemoveObsolete(name, maxBackups); err != nil {
		return err
	}
	if err := r.ingestStream(name, in); err != nil {
		return err
	}
	return r.RemoveObsolete(name, maxBackups)
}

// ingestStream captures a timestamp, streams the input in partsize windows,
// hashes and stores each part, then finalizes the instance's hash/size
// metadata. The hash and size files are written one after the other; an
// interrupted ingest leaves an instance lacking one or both of them, which
// never counts as completed.
func (r *Repository) ingestStream(name string, in io.Reader) error {
	ts := r.now().Format("2006-01-02T15:04:05")
	if _, err := ValidateTimestamp(ts); err != nil {
		return err
	}

	instance := InstancePath(name, ts)
	instanceDir := r.path(instance)
	if fileExists(instanceDir) {
		return &AlreadyExistsError{Path: instanceDir}
	}

	totalHash := newHasher(r.cfg.Algorithm)
	var totalSize int64

	buf := make([]byte, r.cfg.PartSize)
	for partNr := int64(0); ; partNr++ {
		n, readErr := io.ReadFull(in, buf)
		if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
			return fmt.Errorf("read input: %w", readErr)
		}
		if n == 0 {
			break // readErr is io.EOF: a clean end of stream
		}
		data := buf[:n]

		totalHash.Write(data)
		totalSize += int64(n)

		if partNr >= r.cfg.MaxParts {
			return &IntegrityError{Msg: "too many parts", Expected: r.cfg.MaxParts}
		}

		partHash := newHasher(r.cfg.Algorithm)
		partHash.Write(data)
		d := digestFromHash(r.cfg.Algorithm, partHash).Encoded()

		symlinkPath := r.path(PartPath(instance, partNr, r.cfg.MaxParts))
		if err := Symlink(SymlinkTarget(d), symlinkPath); err != nil {
			return err
		}
		if err := r.PutBlob(d, data); err != nil {
			return err
		}

		r.log.Debugf("ingested part %d of %q (%s)", partNr, name, humanize.IBytes(uint64(n)))
		r.progress.Set(uint64(totalSize))

		if readErr == io.ErrUnexpectedEOF {
			// A short final part: the underlying reader is exhausted.
			break
		}
	}

	totalDigest := digestFromHash(r.cfg.Algorithm, totalHash)
	if err := WriteFile(r.path(joinInstance(instance, "hash")), []byte(totalDigest.Encoded()+"\n")); err != nil {
		return err
	}
	if err := WriteFile(r.path(joinInstance(instance, "size")), []byte(fmt.Sprintf("%d\n", totalSize))); err != nil {
		return err
	}

	r.progress.Finish(fmt.Sprintf("%q: %s in %d parts", name, humanize.IBytes(uint64(totalSize)), ts2parts(totalSize, r.cfg.PartSize)))
	r.log.Infof("completed %q at %s: %s in %d parts", name, ts, humanize.IBytes(uint64(totalSize)), ts2parts(totalSize, r.cfg.PartSize))
	return nil
}

func joinInstance(instance, file string) string {
	return path.Join(instance, file)
}

func ts2parts(size, partSize int64) int64 {
	if size == 0 {
		return 0
	}
	return (size + partSize - 1) / partSize
}
