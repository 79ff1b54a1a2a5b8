package telegram

import (
	"strings"
	"testing"
)

func TestSplitByBytesKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("ë", 10)
	parts := splitByBytes(text, 5)
	if len(parts) != 5 {
		t.Fatalf("got %d parts, want 5", len(parts))
	}
	for _, p := range parts {
		if len(p) > 5 || p != "ëë" {
			t.Fatalf("bad part %q", p)
		}
	}
	if got := strings.Join(parts, ""); got != text {
		t.Fatalf("rejoined text differs")
	}
}

func TestTruncateByBytes(t *testing.T) {
	if got := truncateByBytes("short", 1024); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncateByBytes("Litër", 4); got != "Lit" {
		t.Fatalf("got %q", got)
	}
}
