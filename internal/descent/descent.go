// Package descent implements the feedback-descent control loop: the
// champion/challenger state machine, the order-bias-mitigated judge, and the
// feedback-buffer update policy. Everything the loop talks to — proposer,
// evaluator, renderer, observers — sits behind the narrow interfaces below
// and is treated as an opaque collaborator.
package descent

import (
	"context"

	"github.com/ashita-ai/kaizen/internal/model"
)

// Proposer produces a new candidate from the current champion and the
// accumulated feedback, oldest entry first. A nil champion requests the seed
// candidate; seed is only consulted for that call.
type Proposer interface {
	Propose(ctx context.Context, champion *model.Candidate, feedback []model.FeedbackEntry, seed model.SeedMode) (*model.Candidate, error)
}

// Evaluator performs one single-shot pairwise comparison and returns which
// argument position won, a rationale, and actionable feedback aimed at the
// losing side. Renders are passed through unexamined and may be nil.
//
// Implementations must be safe to invoke twice with swapped arguments: no
// hidden state may leak between calls, and neither candidate may be mutated.
type Evaluator interface {
	Compare(ctx context.Context, first, second *model.Candidate, firstRender, secondRender *model.Rendered) (model.Comparison, error)
}

// Renderer rasterizes a candidate into the form shown to the evaluator.
// Optional: a nil renderer means candidates are judged from their text alone.
type Renderer interface {
	Render(ctx context.Context, c *model.Candidate) (*model.Rendered, error)
}

// Observer receives run lifecycle notifications. All methods are
// fire-and-forget from the loop's perspective: they return nothing, their
// failures must never reach the control flow, and the loop never reads
// anything back from an observer.
type Observer interface {
	OnCandidateProposed(ctx context.Context, c *model.Candidate)
	OnVerdict(ctx context.Context, v model.Verdict, iteration int)
	OnChampionUpdated(ctx context.Context, c *model.Candidate, iteration int)
	OnIterationSkipped(ctx context.Context, rec model.IterationRecord)
	OnRunFinished(ctx context.Context, res *model.Result)
}
