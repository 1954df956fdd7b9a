package revision

import "testing"

func TestResolve(t *testing.T) {
	if got := Resolve(Head, 42); got != 42 {
		t.Errorf("Resolve(Head, 42) = %d, want 42", got)
	}
	if got := Resolve(5, 42); got != 5 {
		t.Errorf("Resolve(5, 42) = %d, want 5", got)
	}
}

func TestIsEligible(t *testing.T) {
	cases := []struct {
		baseline, revision Revision
		want               bool
	}{
		{5, 6, true},
		{5, 5, false},
		{6, 5, false},
	}
	for _, c := range cases {
		if got := IsEligible(c.baseline, c.revision); got != c.want {
			t.Errorf("IsEligible(%d, %d) = %v, want %v", c.baseline, c.revision, got, c.want)
		}
	}
}

func TestCompare(t *testing.T) {
	if Compare(1, 2) >= 0 {
		t.Error("Compare(1, 2) should be negative")
	}
	if Compare(2, 1) <= 0 {
		t.Error("Compare(2, 1) should be positive")
	}
	if Compare(1, 1) != 0 {
		t.Error("Compare(1, 1) should be zero")
	}
}
