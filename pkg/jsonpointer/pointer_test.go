package jsonpointer

import "testing"

func TestParseStringRoundTrip(t *testing.T) {
	cases := []string{"", "/a", "/a/b", "/a~1b", "/a~0b", "/0", "/a/0/b"}
	for _, raw := range cases {
		p := Parse(raw)
		if got := p.String(); got != raw {
			t.Errorf("round trip %q: got %q", raw, got)
		}
	}
}

func TestParentOfEmptyIsItself(t *testing.T) {
	p := Parse("")
	if got := p.ParentOf(); got.String() != "" {
		t.Errorf("ParentOf empty = %q, want empty", got.String())
	}
}

func TestParentOfAndLastToken(t *testing.T) {
	p := Parse("/a/b/c")
	if got := p.ParentOf().String(); got != "/a/b" {
		t.Errorf("ParentOf = %q, want /a/b", got)
	}
	if got := p.LastToken(); got != "c" {
		t.Errorf("LastToken = %q, want c", got)
	}
}

func TestAt(t *testing.T) {
	doc := map[string]any{
		"a": []any{1, 2, map[string]any{"b": "x"}},
	}
	if got := At(doc, Parse("/a/2/b")); got != "x" {
		t.Errorf("At = %v, want x", got)
	}
	if got := At(doc, Parse("/a/9")); got != Missing {
		t.Errorf("At out of range = %v, want Missing", got)
	}
	if got := At(doc, Parse("/z")); got != Missing {
		t.Errorf("At missing key = %v, want Missing", got)
	}
	if got := At(doc, Parse("")); got == nil {
		t.Errorf("At root should return the document itself")
	}
}

func TestArrayIndex(t *testing.T) {
	cases := []struct {
		tok    string
		length int
		want   int
		ok     bool
	}{
		{"0", 3, 0, true},
		{"2", 3, 2, true},
		{"-", 3, 3, true},
		{"01", 3, 0, false},
		{"-1", 3, 0, false},
		{"abc", 3, 0, false},
		{"", 3, 0, false},
	}
	for _, c := range cases {
		got, ok := ArrayIndex(c.tok, c.length)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ArrayIndex(%q, %d) = (%d, %v), want (%d, %v)", c.tok, c.length, got, ok, c.want, c.ok)
		}
	}
}
