package shasplit

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// dirlen is the fixed split boundary for sharding hex digests and zero-padded
// part numbers into a directory component and a file component.
const dirlen = 3

// dataDirName is the name of the content-addressed blob heap under the
// repository root. It is reserved: no backup name may equal or collide with it.
const dataDirName = ".data"

// BlobPath returns the path of the blob for hex digest d, relative to the
// repository root: .data/<d[0:3]>/<d[3:]>.
func BlobPath(d string) string {
	return path.Join(dataDirName, d[:dirlen], d[dirlen:])
}

// InstancePath returns the path of the instance directory for name and
// timestamp, relative to the repository root: <name>/<ts with ':' removed>.
func InstancePath(name, timestamp string) string {
	return path.Join(name, strings.ReplaceAll(timestamp, ":", ""))
}

// partWidth returns the zero-padding width for part numbers given maxparts,
// guaranteeing w >= dirlen+1 so PartPath always has a non-empty file component.
func partWidth(maxparts int64) int {
	w := len(strconv.FormatInt(maxparts-1, 10))
	if w < dirlen+1 {
		w = dirlen + 1
	}
	return w
}

// PartPath returns the path of the symlink for part i within instance,
// relative to the repository root: <instance>/<p[0:3]>/<p[3:]> where p is i
// zero-padded to partWidth(maxparts).
func PartPath(instance string, i, maxparts int64) string {
	p := fmt.Sprintf("%0*d", partWidth(maxparts), i)
	return path.Join(instance, p[:dirlen], p[dirlen:])
}

// SymlinkTarget returns the relative target a part symlink must point at for
// digest d: three ".." components climb out of the partdir, the instance,
// and the name directory, landing back at the repository root.
func SymlinkTarget(d string) string {
	return path.Join("..", "..", "..", BlobPath(d))
}
