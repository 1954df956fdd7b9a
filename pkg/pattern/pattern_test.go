package pattern

import "testing"

func TestCompileRejectsInvalid(t *testing.T) {
	cases := []string{"", "a/b", "/a,,/b", "/a,   ,/b"}
	for _, c := range cases {
		if _, err := Compile(c); err == nil {
			t.Errorf("Compile(%q) expected error, got nil", c)
		}
	}
}

func TestCompileIdempotent(t *testing.T) {
	p, err := Compile("/a/**, /b/*")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	p2, err := Compile(p.String())
	if err != nil {
		t.Fatalf("recompile failed: %v", err)
	}
	if !p.Equal(p2) {
		t.Errorf("recompiled pattern %q not equal to original %q", p2, p)
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/a/**", "/a/b/c", true},
		{"/a/**", "/a", true}, // "**" may consume zero segments
		{"/a/*", "/a/b", true},
		{"/a/*", "/a/b/c", false},
		{"/x", "/x", true},
		{"/x", "/y", false},
		{"/a/*,/b/*", "/b/c", true},
		{"/a/**", "/a/", false}, // trailing slash never matches
	}
	for _, c := range cases {
		p, err := Compile(c.pattern)
		if err != nil {
			t.Fatalf("Compile(%q) failed: %v", c.pattern, err)
		}
		if got := p.Matches(c.path); got != c.want {
			t.Errorf("Compile(%q).Matches(%q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestMatchesDoubleStarMatchesZeroSegments(t *testing.T) {
	p := MustCompile("/a/**/z")
	if !p.Matches("/a/z") {
		t.Error("expected /a/** /z to match /a/z with ** consuming zero segments")
	}
	if !p.Matches("/a/b/c/z") {
		t.Error("expected /a/**/z to match /a/b/c/z")
	}
}
