package descent

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/kaizen/internal/model"
)

// Judge produces a single trustworthy verdict from two noisy, order-sensitive
// single-shot comparisons. With mitigation enabled (the default) the
// underlying evaluator is invoked twice with swapped presentation order; the
// two results are reconciled into one verdict or discarded as Inconsistent.
type Judge struct {
	eval     Evaluator
	mitigate bool
	logger   *slog.Logger
}

// NewJudge wraps an evaluator. When mitigate is false, a single comparison in
// (champion, challenger) order is authoritative.
func NewJudge(eval Evaluator, mitigate bool, logger *slog.Logger) *Judge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Judge{eval: eval, mitigate: mitigate, logger: logger}
}

// Compare judges champion against challenger. The returned error wraps
// model.ErrEvaluationFailed when any underlying evaluator call fails; the
// caller treats that as a skipped iteration, not a fatal abort.
func (j *Judge) Compare(ctx context.Context, champion, challenger *model.Candidate, championRender, challengerRender *model.Rendered) (model.Verdict, error) {
	if !j.mitigate {
		cmp, err := j.eval.Compare(ctx, champion, challenger, championRender, challengerRender)
		if err != nil {
			return model.Verdict{}, fmt.Errorf("%w: %v", model.ErrEvaluationFailed, err)
		}
		return verdictFor(cmp.Winner == model.First, champion, challenger, cmp.Rationale, cmp.Feedback), nil
	}

	// Two independent calls with swapped order, issued concurrently so the
	// mitigation costs one extra round-trip of latency, not two. Each call
	// reads immutable candidates and writes only its own result; the Wait is
	// the join point before reconciliation.
	var forward, reverse model.Comparison
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cmp, err := j.eval.Compare(gctx, champion, challenger, championRender, challengerRender)
		if err != nil {
			return fmt.Errorf("champion-first order: %w", err)
		}
		forward = cmp
		return nil
	})
	g.Go(func() error {
		cmp, err := j.eval.Compare(gctx, challenger, champion, challengerRender, championRender)
		if err != nil {
			return fmt.Errorf("challenger-first order: %w", err)
		}
		reverse = cmp
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Verdict{}, fmt.Errorf("%w: %v", model.ErrEvaluationFailed, err)
	}

	// Normalize both results to "did the champion win".
	championWonForward := forward.Winner == model.First
	championWonReverse := reverse.Winner == model.Second
	if championWonForward != championWonReverse {
		j.logger.Debug("judge: swapped orderings disagree, discarding comparison",
			"champion_id", champion.ID,
			"challenger_id", challenger.ID,
		)
		return model.Verdict{Outcome: model.Inconsistent}, nil
	}

	// Both orderings agree on the loser, so either call's feedback describes
	// the actual losing side; keep the champion-first call's feedback and
	// both rationales.
	rationale := fmt.Sprintf("[champion-first]: %s\n[challenger-first]: %s", forward.Rationale, reverse.Rationale)
	return verdictFor(championWonForward, champion, challenger, rationale, forward.Feedback), nil
}

func verdictFor(championWon bool, champion, challenger *model.Candidate, rationale, feedback string) model.Verdict {
	if championWon {
		return model.Verdict{
			Outcome:   model.ChampionWins,
			WinnerID:  champion.ID,
			Rationale: rationale,
			Feedback:  feedback,
		}
	}
	return model.Verdict{
		Outcome:   model.ChallengerWins,
		WinnerID:  challenger.ID,
		Rationale: rationale,
		Feedback:  feedback,
	}
}
