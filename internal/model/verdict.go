package model

import "github.com/google/uuid"

// Side identifies which argument position an evaluator preferred.
type Side string

const (
	// First means the evaluator preferred its first argument.
	First Side = "first"
	// Second means the evaluator preferred its second argument.
	Second Side = "second"
)

// Comparison is the raw result of a single evaluator call: which side won,
// why, and actionable feedback aimed at the losing side.
type Comparison struct {
	Winner    Side
	Rationale string
	Feedback  string
}

// Outcome is the reconciled result of one order-bias-mitigated comparison.
type Outcome string

const (
	ChallengerWins Outcome = "challenger_wins"
	ChampionWins   Outcome = "champion_wins"
	// Inconsistent means the two swapped-order evaluator calls disagreed;
	// the comparison is discarded and the iteration is a no-op.
	Inconsistent Outcome = "inconsistent"
)

// Verdict is the trustworthy outcome of one judged comparison.
// WinnerID is uuid.Nil and Rationale/Feedback are empty when Inconsistent.
type Verdict struct {
	Outcome   Outcome
	WinnerID  uuid.UUID
	Rationale string
	Feedback  string
}

// Decisive reports whether the verdict names a winner.
func (v Verdict) Decisive() bool {
	return v.Outcome == ChallengerWins || v.Outcome == ChampionWins
}
