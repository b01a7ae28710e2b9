package common

import (
	"strings"
	"testing"
)

func TestHasAny(t *testing.T) {
	if !HasAny("table locations Already Exists", "already exists") {
		t.Fatal("expected case-insensitive match")
	}
	if HasAny("syntax error", "already exists", "duplicate column name") {
		t.Fatal("expected no match")
	}
	if HasAny("anything") {
		t.Fatal("expected no match without substrings")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"", 3, ""},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}

	long := strings.Repeat("x", 600)
	if got := Truncate(long, 500); len(got) != 500 {
		t.Fatalf("expected 500 chars, got %d", len(got))
	}
}
