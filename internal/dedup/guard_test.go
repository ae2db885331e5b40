package dedup

import (
	"testing"
	"time"
)

func TestGuard_SuppressesRetryWithinWindow(t *testing.T) {
	g := NewGuard(1500 * time.Millisecond)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if !g.ShouldAppend("analysis complete", base) {
		t.Fatal("first occurrence must be admitted")
	}
	if g.ShouldAppend("analysis complete", base.Add(1000*time.Millisecond)) {
		t.Error("identical text 1000ms later must be suppressed")
	}
}

func TestGuard_AdmitsRepeatOutsideWindow(t *testing.T) {
	g := NewGuard(1500 * time.Millisecond)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if !g.ShouldAppend("analysis complete", base) {
		t.Fatal("first occurrence must be admitted")
	}
	if !g.ShouldAppend("analysis complete", base.Add(2000*time.Millisecond)) {
		t.Error("identical text 2000ms later is a legitimate repeat")
	}
}

func TestGuard_TrimmedEquality(t *testing.T) {
	g := NewGuard(1500 * time.Millisecond)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if !g.ShouldAppend("done", base) {
		t.Fatal("first occurrence must be admitted")
	}
	// Same text with different surrounding whitespace is still a retry.
	if g.ShouldAppend("  done\n", base.Add(500*time.Millisecond)) {
		t.Error("whitespace variation of the same text must be suppressed")
	}
}

func TestGuard_DifferentTextPasses(t *testing.T) {
	g := NewGuard(1500 * time.Millisecond)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if !g.ShouldAppend("first message", base) {
		t.Fatal("first occurrence must be admitted")
	}
	if !g.ShouldAppend("second message", base.Add(10*time.Millisecond)) {
		t.Error("different text must pass regardless of timing")
	}
	// The guard tracks only the most recent text: repeating the first
	// message now passes because "second message" replaced it.
	if !g.ShouldAppend("first message", base.Add(20*time.Millisecond)) {
		t.Error("text older than the last-seen record must pass")
	}
}

func TestGuard_WhitespaceAlwaysSuppressed(t *testing.T) {
	g := NewGuard(1500 * time.Millisecond)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	for i, text := range []string{"", "   ", "\n", "\t \n "} {
		if g.ShouldAppend(text, base.Add(time.Duration(i)*time.Hour)) {
			t.Errorf("whitespace-only text %q must always be suppressed", text)
		}
	}

	// Suppressing whitespace must not disturb the last-seen record.
	if !g.ShouldAppend("real message", base) {
		t.Fatal("real message must be admitted")
	}
	if g.ShouldAppend("  ", base.Add(time.Millisecond)) {
		t.Error("whitespace must be suppressed")
	}
	if g.ShouldAppend("real message", base.Add(2*time.Millisecond)) {
		t.Error("retry of the real message must still be suppressed")
	}
}

func TestGuard_Reset(t *testing.T) {
	g := NewGuard(1500 * time.Millisecond)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if !g.ShouldAppend("message", base) {
		t.Fatal("first occurrence must be admitted")
	}

	g.Reset()

	if !g.ShouldAppend("message", base.Add(time.Millisecond)) {
		t.Error("after Reset the same text must be admitted again")
	}
}

func TestNewGuard_DefaultWindow(t *testing.T) {
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	for _, window := range []time.Duration{0, -time.Second} {
		g := NewGuard(window)

		g.ShouldAppend("msg", base)
		if g.ShouldAppend("msg", base.Add(1400*time.Millisecond)) {
			t.Errorf("window %v: default 1500ms window should suppress at 1400ms", window)
		}
		g.Reset()

		g.ShouldAppend("msg", base)
		if !g.ShouldAppend("msg", base.Add(1600*time.Millisecond)) {
			t.Errorf("window %v: default 1500ms window should admit at 1600ms", window)
		}
	}
}
