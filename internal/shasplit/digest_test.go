package shasplit

import "testing"

func TestValidateAlgorithmAcceptsKnown(t *testing.T) {
	for _, alg := range []string{"sha1", "sha224", "sha256", "sha384", "sha512"} {
		if _, err := ValidateAlgorithm(alg); err != nil {
			t.Errorf("ValidateAlgorithm(%q): unexpected error %v", alg, err)
		}
	}
}

func TestValidateAlgorithmRejectsUnknown(t *testing.T) {
	if _, err := ValidateAlgorithm("md5"); err == nil {
		t.Error("expected ValidateAlgorithm(\"md5\") to fail: md5 is not a supported algorithm")
	}
}

func TestDigestFromHexAndHashAgree(t *testing.T) {
	h := newHasher("sha256")
	h.Write([]byte("hello"))
	fromHash := digestFromHash("sha256", h).Encoded()

	fromHex := digestFromHex("sha256", fromHash)
	if fromHex.Encoded() != fromHash {
		t.Errorf("digestFromHex round-trip mismatch: got %q, want %q", fromHex.Encoded(), fromHash)
	}
}
