// Package model defines the core data types of a feedback-descent run:
// candidates, feedback entries, verdicts, and the run state owned by the loop.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is one text-representable artifact produced by a proposer.
// Candidates are immutable after the loop stamps their sequence number;
// they are shared read-only with evaluators and observers, and the loop
// tracks champion identity by pointer.
type Candidate struct {
	ID        uuid.UUID
	Seq       uint64 // per-run ordinal, assigned by the loop in creation order
	Iteration int    // loop iteration at which the candidate was proposed (0 = seed)
	Content   string
	CreatedAt time.Time
	Meta      map[string]string
}

// NewCandidate creates a candidate. Sequence number and iteration index are
// zero until the loop stamps them; from that point the candidate is immutable.
func NewCandidate(content string) *Candidate {
	return &Candidate{
		ID:        uuid.New(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Rendered is an optional rasterized form of a candidate, passed through
// the judge to the evaluator unexamined.
type Rendered struct {
	Data      []byte
	MediaType string // e.g. "image/png"
}

// SeedMode controls whether the rubric is included in the seed proposal.
type SeedMode string

const (
	// SeedInformed conditions the first proposal on the full rubric text.
	SeedInformed SeedMode = "informed"
	// SeedScratch withholds the rubric from the seed proposal; the rubric
	// is only introduced once evaluation begins.
	SeedScratch SeedMode = "scratch"
)

// Valid reports whether the seed mode is one of the known values.
func (m SeedMode) Valid() bool {
	return m == SeedInformed || m == SeedScratch
}
