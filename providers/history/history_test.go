package history

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTitleFor(t *testing.T) {
	short := "What is the capital of France?"
	if got := TitleFor(short); got != short {
		t.Errorf("short title = %q", got)
	}

	long := strings.Repeat("a", 80)
	got := TitleFor(long)
	if got != strings.Repeat("a", 60)+"..." {
		t.Errorf("long title = %q", got)
	}

	// Exactly at the limit: no suffix.
	exact := strings.Repeat("b", 60)
	if got := TitleFor(exact); got != exact {
		t.Errorf("exact title = %q", got)
	}
}

func TestTitleForMultiByteRunes(t *testing.T) {
	// 22 characters but 62 bytes: byte-based truncation would cut inside the
	// 20th Devanagari rune and yield invalid UTF-8.
	short := "ab" + strings.Repeat("न", 20)
	if got := TitleFor(short); got != short {
		t.Errorf("title under the rune limit must be unchanged, got %q", got)
	}

	long := strings.Repeat("न", 70)
	got := TitleFor(long)
	if want := strings.Repeat("न", 60) + "..."; got != want {
		t.Errorf("long title = %q, want %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated title is not valid UTF-8: %q", got)
	}
}

func TestTimestamp(t *testing.T) {
	moment := time.Date(2026, 8, 23, 12, 0, 0, 500_000_000, time.UTC)
	got := Timestamp(moment)
	want := float64(moment.Unix()) + 0.5
	if got != want {
		t.Errorf("Timestamp = %v, want %v", got, want)
	}
}

func TestSendTime(t *testing.T) {
	moment := time.Date(2026, 8, 23, 9, 5, 0, 0, time.UTC)
	if got := SendTime(moment); got != "Aug 23 09:05" {
		t.Errorf("SendTime = %q", got)
	}
}
