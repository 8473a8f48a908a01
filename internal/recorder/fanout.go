// Package recorder persists optimization runs: per-iteration artifacts on
// disk, a SQLite index across runs, and a self-contained trajectory page.
package recorder

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ashita-ai/kaizen/internal/descent"
	"github.com/ashita-ai/kaizen/internal/model"
)

// Fanout dispatches each observer event to every registered observer in its
// own goroutine. The optimization loop never blocks on a slow observer.
// Call Drain before reading anything an observer writes.
type Fanout struct {
	observers []descent.Observer
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewFanout wraps the given observers. Nil observers are skipped.
func NewFanout(logger *slog.Logger, observers ...descent.Observer) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fanout{logger: logger}
	for _, o := range observers {
		if o != nil {
			f.observers = append(f.observers, o)
		}
	}
	return f
}

func (f *Fanout) dispatch(name string, fn func(descent.Observer)) {
	for _, o := range f.observers {
		f.wg.Add(1)
		go func(o descent.Observer) {
			defer f.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					f.logger.Warn("observer panicked", "event", name, "panic", r)
				}
			}()
			fn(o)
		}(o)
	}
}

func (f *Fanout) OnCandidateProposed(ctx context.Context, c *model.Candidate) {
	f.dispatch("candidate_proposed", func(o descent.Observer) { o.OnCandidateProposed(ctx, c) })
}

func (f *Fanout) OnVerdict(ctx context.Context, v model.Verdict, iteration int) {
	f.dispatch("verdict", func(o descent.Observer) { o.OnVerdict(ctx, v, iteration) })
}

func (f *Fanout) OnChampionUpdated(ctx context.Context, c *model.Candidate, iteration int) {
	f.dispatch("champion_updated", func(o descent.Observer) { o.OnChampionUpdated(ctx, c, iteration) })
}

func (f *Fanout) OnIterationSkipped(ctx context.Context, rec model.IterationRecord) {
	f.dispatch("iteration_skipped", func(o descent.Observer) { o.OnIterationSkipped(ctx, rec) })
}

func (f *Fanout) OnRunFinished(ctx context.Context, res *model.Result) {
	f.dispatch("run_finished", func(o descent.Observer) { o.OnRunFinished(ctx, res) })
}

// Drain waits for all in-flight observer calls, or until ctx expires.
func (f *Fanout) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
