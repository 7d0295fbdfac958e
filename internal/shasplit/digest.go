package shasplit

import (
	"crypto/sha1"  //nolint:gosec // sha1 is a required supported algorithm, not the default
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	digest "github.com/opencontainers/go-digest"
)

// supportedAlgorithms maps an algorithm name to its hash constructor.
// go-digest itself only ships sha256/sha384/sha512; sha1 and sha224 are
// also required, so those are dispatched via the stdlib crypto packages
// directly and only wrapped in a digest.Digest for formatting.
var supportedAlgorithms = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// ValidateAlgorithm checks that name is one of the supported hash algorithms.
func ValidateAlgorithm(name string) (string, error) {
	if _, ok := supportedAlgorithms[name]; !ok {
		return "", &ValidationError{Field: "algorithm", Reason: "unknown secure hash algorithm " + name}
	}
	return name, nil
}

// newHasher returns a fresh streaming hash.Hash for the given algorithm.
// Callers must validate the algorithm first; newHasher panics on an unknown one.
func newHasher(algorithm string) hash.Hash {
	ctor, ok := supportedAlgorithms[algorithm]
	if !ok {
		panic("shasplit: unknown algorithm " + algorithm)
	}
	return ctor()
}

// digestFromHash formats the running sum of h under algorithm as a digest.Digest.
// Digest.Encoded() yields the bare hex string shasplit writes to disk;
// Digest.String() yields the "<algo>:<hex>" form, which is never written to disk.
func digestFromHash(algorithm string, h hash.Hash) digest.Digest {
	return digest.NewDigestFromBytes(digest.Algorithm(algorithm), h.Sum(nil))
}

// digestFromHex rebuilds a digest.Digest from an already-hex-encoded string,
// e.g. the contents of an instance's "hash" file.
func digestFromHex(algorithm, hexDigest string) digest.Digest {
	return digest.NewDigestFromEncoded(digest.Algorithm(algorithm), hexDigest)
}
