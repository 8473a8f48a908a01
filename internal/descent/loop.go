package descent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/kaizen/internal/model"
	"github.com/ashita-ai/kaizen/internal/telemetry"
)

// defaultMaxConsecutiveFailures ends a run early after this many proposer or
// evaluator errors in a row. Inconsistent verdicts do not count.
const defaultMaxConsecutiveFailures = 5

// Config is the loop configuration, consumed once at run start.
type Config struct {
	Iterations             int
	SeedMode               model.SeedMode
	MaxConsecutiveFailures int // <= 0 selects the default
}

// Loop drives one optimization run. It exclusively owns the RunState; a
// single goroutine executes Run, so state transitions need no locking. Only
// the two swapped-order evaluator calls inside the judge run concurrently.
type Loop struct {
	proposer Proposer
	judge    *Judge
	renderer Renderer // may be nil
	obs      Observer // may be nil
	logger   *slog.Logger
	cfg      Config

	state model.RunState

	// championRender caches the champion's rasterized form across iterations;
	// it is invalidated exactly when the champion changes.
	championRender *model.Rendered

	tracer     trace.Tracer
	iterations metric.Int64Counter
	updates    metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewLoop assembles a loop. The judge carries the order-bias setting;
// renderer and obs may be nil.
func NewLoop(proposer Proposer, judge *Judge, renderer Renderer, obs Observer, logger *slog.Logger, cfg Config) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = defaultMaxConsecutiveFailures
	}
	if !cfg.SeedMode.Valid() {
		cfg.SeedMode = model.SeedInformed
	}

	meter := telemetry.Meter("kaizen/descent")
	iterations, _ := meter.Int64Counter("kaizen.descent.iterations",
		metric.WithDescription("Completed loop passes by outcome, including skips"))
	updates, _ := meter.Int64Counter("kaizen.descent.champion_updates",
		metric.WithDescription("Accepted champion replacements"))
	duration, _ := meter.Float64Histogram("kaizen.descent.iteration_duration_seconds",
		metric.WithDescription("Wall-clock duration of one propose/judge/update pass"))

	return &Loop{
		proposer:   proposer,
		judge:      judge,
		renderer:   renderer,
		obs:        obs,
		logger:     logger,
		cfg:        cfg,
		tracer:     telemetry.Tracer("kaizen/descent"),
		iterations: iterations,
		updates:    updates,
		duration:   duration,
	}
}

// Run executes the state machine: Seeding, then Iterating until the budget is
// exhausted, the context is cancelled, or the consecutive-failure limit is
// hit. Cancellation is honored between iterations only — an in-flight pass
// runs to completion or failure first, so the RunState is never left
// mid-update.
//
// Run fails outright only when seed generation fails; any later failure
// still produces a usable Result whose Err field explains the early stop.
func (l *Loop) Run(ctx context.Context) (*model.Result, error) {
	seed, err := l.proposer.Propose(ctx, nil, nil, l.cfg.SeedMode)
	if err != nil {
		return nil, fmt.Errorf("descent: seed proposal: %w", err)
	}
	l.state.Stamp(seed, 0)
	l.state.Champion = seed
	l.logger.Info("descent: seed candidate generated",
		"candidate_id", seed.ID,
		"seed_mode", string(l.cfg.SeedMode),
	)
	if l.obs != nil {
		l.obs.OnChampionUpdated(ctx, seed, 0)
	}

	var (
		log    []model.IterationRecord
		runErr error
	)

	for l.state.Iteration < l.cfg.Iterations {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			l.logger.Warn("descent: cancelled, returning current champion",
				"iteration", l.state.Iteration, "error", runErr)
			break
		}

		start := time.Now()
		rec := l.pass(ctx)
		l.state.Iteration++
		log = append(log, rec)

		l.iterations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(rec.Kind))))
		l.duration.Record(ctx, time.Since(start).Seconds())

		switch rec.Kind {
		case model.KindProposalFailed, model.KindEvaluationFailed:
			if n := l.state.RecordFailure(); n >= l.cfg.MaxConsecutiveFailures {
				l.logger.Error("descent: consecutive failure limit exceeded, terminating early",
					"iteration", l.state.Iteration,
					"consecutive_failures", n,
				)
				runErr = model.ErrConsecutiveFailures
			}
		default:
			l.state.ClearFailures()
		}
		if runErr != nil {
			break
		}
	}

	res := &model.Result{
		Champion:        l.state.Champion,
		Log:             log,
		Iterations:      l.state.Iteration,
		ChampionUpdates: l.state.ChampionUpdates,
		Err:             runErr,
	}
	if l.obs != nil {
		l.obs.OnRunFinished(ctx, res)
	}
	l.logger.Info("descent: run finished",
		"iterations", res.Iterations,
		"champion_updates", res.ChampionUpdates,
		"champion_iteration", res.Champion.Iteration,
	)
	return res, nil
}

// pass executes one propose/judge/update cycle and returns its log record.
// Champion and feedback buffer are untouched unless the pass reaches a
// decisive verdict.
func (l *Loop) pass(ctx context.Context) (rec model.IterationRecord) {
	iter := l.state.Iteration + 1
	rec = model.IterationRecord{Iteration: iter, At: time.Now().UTC()}

	ctx, span := l.tracer.Start(ctx, "descent.iteration",
		trace.WithAttributes(attribute.Int("iteration", iter)))
	defer func() {
		span.SetAttributes(attribute.String("outcome", string(rec.Kind)))
		span.End()
	}()

	challenger, err := l.proposer.Propose(ctx, l.state.Champion, l.state.Buffer.Entries(), l.cfg.SeedMode)
	if err != nil {
		l.logger.Error("descent: proposal failed, skipping iteration",
			"iteration", iter, "error", err)
		rec.Kind = model.KindProposalFailed
		rec.Err = err.Error()
		l.notifySkip(ctx, rec)
		return rec
	}
	l.state.Stamp(challenger, iter)
	if l.obs != nil {
		l.obs.OnCandidateProposed(ctx, challenger)
	}

	championRender, challengerRender, err := l.renders(ctx, challenger)
	if err != nil {
		l.logger.Error("descent: render failed, skipping iteration",
			"iteration", iter, "error", err)
		rec.Kind = model.KindEvaluationFailed
		rec.Err = err.Error()
		l.notifySkip(ctx, rec)
		return rec
	}

	verdict, err := l.judge.Compare(ctx, l.state.Champion, challenger, championRender, challengerRender)
	if err != nil {
		l.logger.Error("descent: evaluation failed, skipping iteration",
			"iteration", iter, "error", err)
		rec.Kind = model.KindEvaluationFailed
		rec.Err = err.Error()
		l.notifySkip(ctx, rec)
		return rec
	}
	if l.obs != nil {
		l.obs.OnVerdict(ctx, verdict, iter)
	}

	rec.Kind = model.OutcomeKind(verdict.Outcome)
	rec.Rationale = verdict.Rationale
	rec.Feedback = verdict.Feedback

	switch verdict.Outcome {
	case model.ChallengerWins:
		// The new champion is exactly the candidate that won, not a copy.
		l.state.Champion = challenger
		l.state.Buffer.Reset()
		l.state.ChampionUpdates++
		l.championRender = challengerRender
		l.updates.Add(ctx, 1)
		if l.obs != nil {
			l.obs.OnChampionUpdated(ctx, challenger, iter)
		}
		l.logger.Info("descent: champion updated",
			"iteration", iter,
			"candidate_id", challenger.ID,
		)
	case model.ChampionWins:
		l.state.Buffer.Append(model.FeedbackEntry{
			LoserID:   challenger.ID,
			Rationale: verdict.Rationale,
			Feedback:  verdict.Feedback,
			Iteration: iter,
			At:        time.Now().UTC(),
		})
		l.logger.Info("descent: champion retained",
			"iteration", iter,
			"feedback_entries", l.state.Buffer.Len(),
		)
	case model.Inconsistent:
		l.logger.Warn("descent: swapped orderings disagreed, iteration discarded",
			"iteration", iter)
		l.notifySkip(ctx, rec)
	}
	return rec
}

// renders produces the rasterized forms shown to the evaluator. The champion
// render survives across iterations until the champion changes.
func (l *Loop) renders(ctx context.Context, challenger *model.Candidate) (champion, challengerRender *model.Rendered, err error) {
	if l.renderer == nil {
		return nil, nil, nil
	}
	if l.championRender == nil {
		r, err := l.renderer.Render(ctx, l.state.Champion)
		if err != nil {
			return nil, nil, fmt.Errorf("render champion: %w", err)
		}
		l.championRender = r
	}
	r, err := l.renderer.Render(ctx, challenger)
	if err != nil {
		return nil, nil, fmt.Errorf("render challenger: %w", err)
	}
	return l.championRender, r, nil
}

func (l *Loop) notifySkip(ctx context.Context, rec model.IterationRecord) {
	if l.obs != nil {
		l.obs.OnIterationSkipped(ctx, rec)
	}
}
