package shasplit

import "testing"

func TestValidateNameRules(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"backup", false},
		{"", true},
		{".hidden", true},
		{"_private", true},
		{"-flag", true},
		{"a/b", true},
		{"..", true},
	}
	for _, c := range cases {
		_, err := ValidateName(c.name, "")
		if (err != nil) != c.wantErr {
			t.Errorf("ValidateName(%q): err=%v, wantErr=%v", c.name, err, c.wantErr)
		}
	}
}

func TestValidateNameRejectsSnapshotSuffix(t *testing.T) {
	if _, err := ValidateName("db-shasplit-snap", "-shasplit-snap"); err == nil {
		t.Error("expected a name ending in the snapshot suffix to be rejected")
	}
	if _, err := ValidateName("db", "-shasplit-snap"); err != nil {
		t.Errorf("unexpected error for an unrelated name: %v", err)
	}
}

func TestValidateTimestampShape(t *testing.T) {
	if _, err := ValidateTimestamp("2024-01-01T00:00:00"); err != nil {
		t.Errorf("unexpected error for a well-formed timestamp: %v", err)
	}
	for _, bad := range []string{"", "2024-01-01", "2024-01-01 00:00:00", "not-a-timestamp"} {
		if _, err := ValidateTimestamp(bad); err == nil {
			t.Errorf("expected ValidateTimestamp(%q) to fail", bad)
		}
	}
}

func TestValidatePositive(t *testing.T) {
	if _, err := ValidatePositive("partsize", 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, n := range []int64{0, -1} {
		if _, err := ValidatePositive("partsize", n); err == nil {
			t.Errorf("expected ValidatePositive(%d) to fail", n)
		}
	}
}

func TestValidateVolumeGroup(t *testing.T) {
	if _, err := ValidateVolumeGroup("vg0"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", ".hidden", "a/b"} {
		if _, err := ValidateVolumeGroup(bad); err == nil {
			t.Errorf("expected ValidateVolumeGroup(%q) to fail", bad)
		}
	}
}
