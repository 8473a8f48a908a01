package kaizen

import (
	"time"

	"github.com/google/uuid"
)

// SeedMode controls what the proposer sees when generating the first candidate.
type SeedMode string

const (
	// SeedInformed includes the rubric in the seed prompt.
	SeedInformed SeedMode = "informed"
	// SeedScratch withholds the rubric; only the subject is given.
	SeedScratch SeedMode = "scratch"
)

// Candidate is the public representation of one proposed artifact.
// It is a curated view of internal/model.Candidate for use in extension
// interfaces. No internal package imports — safe to use from outside the module.
type Candidate struct {
	ID        uuid.UUID
	Iteration int
	Content   string
	CreatedAt time.Time
	// Meta carries provider-specific detail (attempt count, model name).
	Meta map[string]string
}

// FeedbackEntry is one accumulated improvement instruction, produced each time
// a challenger loses to the current champion.
type FeedbackEntry struct {
	LoserID   uuid.UUID
	Rationale string
	Feedback  string
	Iteration int
	At        time.Time
}

// Rendered is a rasterized view of a candidate, when the domain has a renderer.
type Rendered struct {
	Data      []byte
	MediaType string
}

// Side names one of the two positions in a pairwise comparison.
type Side string

const (
	First  Side = "first"
	Second Side = "second"
)

// Comparison is the raw outcome of a single pairwise evaluation call.
type Comparison struct {
	Winner    Side
	Rationale string
	// Feedback holds improvement instructions for the losing candidate.
	Feedback string
}

// Verdict outcome values as they appear in Verdict.Outcome and run records.
const (
	OutcomeChallengerWins = "challenger_wins"
	OutcomeChampionWins   = "champion_wins"
	OutcomeInconsistent   = "inconsistent"
)

// Verdict is the reconciled result of one iteration's judging.
type Verdict struct {
	Outcome   string
	WinnerID  uuid.UUID
	Rationale string
	Feedback  string
}

// IterationRecord is one entry in a run's iteration log.
type IterationRecord struct {
	Iteration int
	Kind      string
	Rationale string
	Feedback  string
	Err       string
	At        time.Time
}

// Result summarizes a finished run.
type Result struct {
	// Champion is the best candidate found. Non-nil whenever seeding succeeded,
	// including runs that terminated early.
	Champion        *Candidate
	Log             []IterationRecord
	Iterations      int
	ChampionUpdates int
	// Err is non-nil when the run stopped before exhausting its budget,
	// for example on repeated provider failures or context cancellation.
	Err error
}
