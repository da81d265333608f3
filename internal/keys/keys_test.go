package keys

import (
	"strings"
	"testing"
)

func TestMakeAndParseKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		current   string
		wantOwner string
		wantPID   string
	}{
		{"composite", "owner__p1", "me", "owner", "p1"},
		{"bare id falls back to current user", "p1", "me", "me", "p1"},
		{"splits on first separator only", "owner__shared__x", "me", "owner", "shared__x"},
		{"empty owner", "__p1", "me", "", "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, pid := ParseKey(tt.key, tt.current)
			if owner != tt.wantOwner || pid != tt.wantPID {
				t.Errorf("ParseKey(%q) = (%q, %q), want (%q, %q)", tt.key, owner, pid, tt.wantOwner, tt.wantPID)
			}
		})
	}

	t.Run("round trip", func(t *testing.T) {
		owner, pid := ParseKey(MakeKey("u1", "shared-m1"), "me")
		if owner != "u1" || pid != "shared-m1" {
			t.Errorf("round trip mismatch: %q %q", owner, pid)
		}
	})
}

func TestSharedPlaylistID(t *testing.T) {
	if got := SharedPlaylistID("abc"); got != "shared-abc" {
		t.Errorf("expected shared-abc, got %q", got)
	}
	if GrantID("o", "p") != MakeKey("o", "p") {
		t.Error("grant id should equal the composite key")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sunday Set", "sunday-set"},
		{"  Trim Me  ", "trim-me"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"Café & Friends!", "caf--friends"},
		{"", "shared"},
		{"!!!", "shared"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("truncates to 60 characters", func(t *testing.T) {
		got := Slugify(strings.Repeat("a", 100))
		if len(got) != 60 {
			t.Errorf("expected length 60, got %d", len(got))
		}
	})
}
