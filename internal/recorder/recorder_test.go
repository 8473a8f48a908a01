package recorder_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/kaizen/internal/model"
	"github.com/ashita-ai/kaizen/internal/recorder"
)

func shortID(c *model.Candidate) string {
	return c.ID.String()[:8]
}

func TestDirRecorderWritesRunArtifacts(t *testing.T) {
	base := t.TempDir()
	cfg := map[string]string{"domain": "svg"}
	rec, err := recorder.NewDirRecorder(base, "run-1", ".svg", cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run-1"), rec.Dir())

	ctx := context.Background()

	seed := model.NewCandidate("<svg>seed</svg>")
	rec.OnChampionUpdated(ctx, seed, 0)

	challenger := model.NewCandidate("<svg>challenger</svg>")
	challenger.Iteration = 1
	rec.OnCandidateProposed(ctx, challenger)
	rec.OnVerdict(ctx, model.Verdict{
		Outcome: model.ChampionWins, WinnerID: seed.ID, Rationale: "r", Feedback: "f",
	}, 1)
	rec.OnIterationSkipped(ctx, model.IterationRecord{
		Iteration: 2, Kind: model.KindProposalFailed, Err: "boom", At: time.Now().UTC(),
	})
	rec.OnRunFinished(ctx, &model.Result{
		Champion:   seed,
		Iterations: 2,
		Log: []model.IterationRecord{
			{Iteration: 1, Kind: model.KindChampionWins},
			{Iteration: 2, Kind: model.KindProposalFailed, Err: "boom"},
		},
	})

	dir := rec.Dir()
	wantFiles := []string{
		"config.json",
		filepath.Join("champions", fmt.Sprintf("iter_0000_%s.svg", shortID(seed))),
		filepath.Join("candidates", fmt.Sprintf("iter_0001_%s.svg", shortID(challenger))),
		filepath.Join("evaluations", "iter_0001.json"),
		filepath.Join("evaluations", "iter_0002_skipped.json"),
		filepath.Join("final", "champion.svg"),
		filepath.Join("final", "summary.json"),
	}
	for _, f := range wantFiles {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "missing %s", f)
	}

	content, err := os.ReadFile(filepath.Join(dir, "final", "champion.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg>seed</svg>", string(content))
}

func TestWriteTrajectory(t *testing.T) {
	base := t.TempDir()
	rec, err := recorder.NewDirRecorder(base, "run-2", ".svg", nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	seed := model.NewCandidate(`<svg xmlns="http://www.w3.org/2000/svg"><circle r="4"/></svg>`)
	rec.OnChampionUpdated(ctx, seed, 0)
	winner := model.NewCandidate(`<svg xmlns="http://www.w3.org/2000/svg"><rect width="2" height="2"/></svg>`)
	winner.Iteration = 3
	rec.OnChampionUpdated(ctx, winner, 3)
	rec.OnRunFinished(ctx, &model.Result{
		Champion:        winner,
		Iterations:      3,
		ChampionUpdates: 1,
		Log: []model.IterationRecord{
			{Iteration: 1, Kind: model.KindChampionWins, Feedback: "sharpen the outline"},
			{Iteration: 2, Kind: model.KindInconsistent},
			{Iteration: 3, Kind: model.KindChallengerWins},
		},
	})

	page, err := recorder.WriteTrajectory(rec.Dir())
	require.NoError(t, err)

	html, err := os.ReadFile(page)
	require.NoError(t, err)
	body := string(html)

	assert.Contains(t, body, "Seed")
	assert.Contains(t, body, "Iteration 3")
	assert.Contains(t, body, `<circle r="4"/>`, "SVG champions are inlined unescaped")
	assert.Contains(t, body, "sharpen the outline")
	assert.Contains(t, body, "inconsistent")
}

func TestWriteTrajectoryMissingRunDir(t *testing.T) {
	_, err := recorder.WriteTrajectory(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

// countingObserver counts events and is safe for concurrent dispatch.
type countingObserver struct {
	mu     sync.Mutex
	events int
}

func (o *countingObserver) bump() {
	o.mu.Lock()
	o.events++
	o.mu.Unlock()
}

func (o *countingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events
}

func (o *countingObserver) OnCandidateProposed(context.Context, *model.Candidate) { o.bump() }

func (o *countingObserver) OnVerdict(context.Context, model.Verdict, int) { o.bump() }

func (o *countingObserver) OnChampionUpdated(context.Context, *model.Candidate, int) { o.bump() }

func (o *countingObserver) OnIterationSkipped(context.Context, model.IterationRecord) { o.bump() }

func (o *countingObserver) OnRunFinished(context.Context, *model.Result) { o.bump() }

// panickyObserver panics on every event.
type panickyObserver struct{ countingObserver }

func (o *panickyObserver) OnVerdict(context.Context, model.Verdict, int) {
	panic("observer bug")
}

func TestFanoutDispatchesToAllObservers(t *testing.T) {
	a := &countingObserver{}
	b := &countingObserver{}
	f := recorder.NewFanout(nil, a, nil, b)

	ctx := context.Background()
	c := model.NewCandidate("x")
	f.OnCandidateProposed(ctx, c)
	f.OnVerdict(ctx, model.Verdict{Outcome: model.ChampionWins}, 1)
	f.OnChampionUpdated(ctx, c, 1)
	f.OnIterationSkipped(ctx, model.IterationRecord{Iteration: 2})
	f.OnRunFinished(ctx, &model.Result{Champion: c})

	require.NoError(t, f.Drain(ctx))
	assert.Equal(t, 5, a.count())
	assert.Equal(t, 5, b.count())
}

func TestFanoutSurvivesPanickingObserver(t *testing.T) {
	healthy := &countingObserver{}
	f := recorder.NewFanout(nil, &panickyObserver{}, healthy)

	ctx := context.Background()
	f.OnVerdict(ctx, model.Verdict{Outcome: model.ChampionWins}, 1)

	require.NoError(t, f.Drain(ctx))
	assert.Equal(t, 1, healthy.count())
}

// blockingObserver stalls on OnVerdict until released.
type blockingObserver struct {
	countingObserver
	release chan struct{}
}

func (o *blockingObserver) OnVerdict(context.Context, model.Verdict, int) {
	<-o.release
}

func TestFanoutDrainHonorsContext(t *testing.T) {
	blocked := &blockingObserver{release: make(chan struct{})}
	f := recorder.NewFanout(nil, blocked)
	f.OnVerdict(context.Background(), model.Verdict{Outcome: model.ChampionWins}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := f.Drain(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(blocked.release)
	require.NoError(t, f.Drain(context.Background()))
}
