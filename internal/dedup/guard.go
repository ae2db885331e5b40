// Package dedup suppresses near-duplicate assistant text messages.
// Backend retry storms can deliver the same message twice within a
// short window; the guard keeps exactly one.
package dedup

import (
	"strings"
	"time"
)

// DefaultWindow is the interval within which an identical message is
// treated as a retry rather than a new message.
const DefaultWindow = 1500 * time.Millisecond

// Guard remembers the last assistant text it let through. One Guard
// exists per conversation session; it is not shared across sessions
// and is reset when the conversation is cleared.
type Guard struct {
	window   time.Duration
	lastText string
	lastSeen time.Time
}

// NewGuard creates a Guard with the given window. A non-positive
// window falls back to DefaultWindow.
func NewGuard(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{window: window}
}

// ShouldAppend decides whether a candidate assistant message belongs
// in the log. Whitespace-only candidates are always suppressed. A
// candidate whose trimmed text matches the previous one is suppressed
// when it arrives within the window; otherwise it is recorded as the
// new last-seen text and admitted.
func (g *Guard) ShouldAppend(text string, at time.Time) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if trimmed == g.lastText && !g.lastSeen.IsZero() && at.Sub(g.lastSeen) < g.window {
		return false
	}
	g.lastText = trimmed
	g.lastSeen = at
	return true
}

// Reset forgets the last-seen record. Called when the conversation is
// explicitly cleared.
func (g *Guard) Reset() {
	g.lastText = ""
	g.lastSeen = time.Time{}
}
