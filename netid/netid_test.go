package netid

import "testing"

func TestNewIsUnique(t *testing.T) {
	a := New()
	b := New()
	if a == b {
		t.Fatalf("two consecutive New() calls produced the same id: %v", a)
	}
	if a.IsNil() || b.IsNil() {
		t.Fatalf("New() must never return the nil id")
	}
}

func TestStringFormat(t *testing.T) {
	id := New()
	s := id.String()
	if len(s) != 36 {
		t.Fatalf("expected 36-char grouped hex string, got %d: %q", len(s), s)
	}
	for _, i := range []int{8, 13, 18, 23} {
		if s[i] != '-' {
			t.Fatalf("expected '-' at position %d, got %q", i, s[i])
		}
	}
}

func TestNilID(t *testing.T) {
	if !Nil.IsNil() {
		t.Fatalf("Nil.IsNil() must be true")
	}
}
