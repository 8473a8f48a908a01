package kaizen

import (
	"context"
)

// Proposer generates candidates. When provided via WithProposer, replaces the
// selected domain's built-in LLM proposer.
//
// A nil champion requests the seed candidate. For refinement calls, feedback
// holds the accumulated instructions against the current champion, oldest
// first. Implementations only need to fill Content (and optionally Meta) on
// the returned candidate; identity and timestamps are assigned by the loop.
type Proposer interface {
	Propose(ctx context.Context, champion *Candidate, feedback []FeedbackEntry, seed SeedMode) (*Candidate, error)
}

// Evaluator performs a single pairwise comparison. When provided via
// WithEvaluator, replaces the domain's built-in judge calls. The order-bias
// mitigation layer stays: a mitigated run calls Compare twice with the
// arguments swapped and reconciles the two answers.
//
// Renders are nil when the domain has no renderer or rendering is disabled.
type Evaluator interface {
	Compare(ctx context.Context, first, second *Candidate, firstRender, secondRender *Rendered) (Comparison, error)
}

// Renderer rasterizes a candidate before evaluation. When provided via
// WithRenderer, replaces the domain's built-in renderer.
type Renderer interface {
	Render(ctx context.Context, c *Candidate) (*Rendered, error)
}

// RunObserver receives run lifecycle events. Multiple observers may be
// registered via repeated WithObserver calls; each event is dispatched to
// every observer in its own goroutine. Methods must not block indefinitely
// and have no way to fail the run.
type RunObserver interface {
	OnCandidateProposed(c Candidate)
	OnVerdict(iteration int, v Verdict)
	OnChampionUpdated(c Candidate, iteration int)
	OnIterationSkipped(iteration int, kind string, err error)
	OnRunFinished(res Result)
}
