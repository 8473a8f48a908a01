package model

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackEntry records one evaluation outcome in which the challenger lost.
// Immutable once created.
type FeedbackEntry struct {
	LoserID   uuid.UUID
	Rationale string
	Feedback  string // actionable guidance aimed at the losing candidate
	Iteration int
	At        time.Time
}

// FeedbackBuffer accumulates feedback entries since the last champion change,
// oldest first. Append-only within an update cycle; Reset is called exactly
// when the champion changes.
type FeedbackBuffer struct {
	entries []FeedbackEntry
}

// Append adds an entry to the end of the buffer.
func (b *FeedbackBuffer) Append(e FeedbackEntry) {
	b.entries = append(b.entries, e)
}

// Reset clears the buffer. Called only on champion change.
func (b *FeedbackBuffer) Reset() {
	b.entries = nil
}

// Entries returns the accumulated entries, oldest first. The returned slice
// is a copy; callers cannot mutate the buffer through it.
func (b *FeedbackBuffer) Entries() []FeedbackEntry {
	if len(b.entries) == 0 {
		return nil
	}
	out := make([]FeedbackEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of accumulated entries.
func (b *FeedbackBuffer) Len() int {
	return len(b.entries)
}
