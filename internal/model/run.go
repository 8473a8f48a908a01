package model

import "time"

// OutcomeKind classifies one loop pass in the iteration log. It extends
// Outcome with the two skip causes that never produce a verdict.
type OutcomeKind string

const (
	KindChallengerWins   OutcomeKind = OutcomeKind(ChallengerWins)
	KindChampionWins     OutcomeKind = OutcomeKind(ChampionWins)
	KindInconsistent     OutcomeKind = OutcomeKind(Inconsistent)
	KindProposalFailed   OutcomeKind = "proposal_failed"
	KindEvaluationFailed OutcomeKind = "evaluation_failed"
)

// Skipped reports whether the pass left champion and feedback buffer untouched.
func (k OutcomeKind) Skipped() bool {
	return k == KindInconsistent || k == KindProposalFailed || k == KindEvaluationFailed
}

// IterationRecord is one entry of the per-run feedback log. Every loop pass
// produces exactly one record, including skipped passes.
type IterationRecord struct {
	Iteration int         `json:"iteration"`
	Kind      OutcomeKind `json:"outcome"`
	Rationale string      `json:"rationale,omitempty"`
	Feedback  string      `json:"feedback,omitempty"`
	Err       string      `json:"error,omitempty"`
	At        time.Time   `json:"at"`
}

// RunState is the mutable core state of one optimization run. Exactly one
// RunState exists per run; it is exclusively owned and mutated by the
// feedback-descent loop.
type RunState struct {
	Champion        *Candidate
	Buffer          FeedbackBuffer
	Iteration       int // completed loop passes, including skips
	ChampionUpdates int

	nextSeq        uint64
	consecFailures int
}

// Stamp assigns the next per-run sequence number and the iteration index to
// a freshly proposed candidate. Candidates are immutable from this point on.
func (s *RunState) Stamp(c *Candidate, iteration int) {
	s.nextSeq++
	c.Seq = s.nextSeq
	c.Iteration = iteration
}

// RecordFailure increments the consecutive-failure counter and returns its
// new value. Only proposer and evaluator errors count; an Inconsistent
// verdict is a valid outcome, not a failure.
func (s *RunState) RecordFailure() int {
	s.consecFailures++
	return s.consecFailures
}

// ClearFailures resets the consecutive-failure counter after any pass that
// reached a verdict.
func (s *RunState) ClearFailures() {
	s.consecFailures = 0
}

// Result is what a finished (or early-terminated) run hands back: the final
// champion and the complete iteration log. Err is non-nil when the run was
// cut short (cancellation or the consecutive-failure limit) — the champion
// is still the best known candidate, not lost data.
type Result struct {
	Champion        *Candidate
	Log             []IterationRecord
	Iterations      int
	ChampionUpdates int
	Err             error
}
