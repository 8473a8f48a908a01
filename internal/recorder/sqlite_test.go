package recorder_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/kaizen/internal/model"
	"github.com/ashita-ai/kaizen/internal/recorder"
)

func openTestIndex(t *testing.T) *recorder.Index {
	t.Helper()
	idx, err := recorder.OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndexRunLifecycle(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, idx.StartRun(ctx, recorder.RunMeta{
		ID:        "run-1",
		Domain:    "svg",
		Subject:   "unicorn",
		Rubric:    "anatomical_realism",
		SeedMode:  model.SeedInformed,
		StartedAt: started,
		OutputDir: "/tmp/runs/run-1",
	}))

	require.NoError(t, idx.RecordIteration(ctx, "run-1", model.IterationRecord{
		Iteration: 1, Kind: model.KindChampionWins, Feedback: "f", At: time.Now().UTC(),
	}))
	require.NoError(t, idx.RecordIteration(ctx, "run-1", model.IterationRecord{
		Iteration: 2, Kind: model.KindChallengerWins, At: time.Now().UTC(),
	}))

	require.NoError(t, idx.FinishRun(ctx, "run-1", &model.Result{
		Iterations: 2, ChampionUpdates: 1,
	}))

	rows, err := idx.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, "svg", r.Domain)
	assert.Equal(t, "unicorn", r.Subject)
	assert.Equal(t, "informed", r.SeedMode)
	assert.Equal(t, 2, r.Iterations)
	assert.Equal(t, 1, r.ChampionUpdates)
	assert.True(t, r.FinishedAt.Valid)
	assert.Empty(t, r.Error)
}

func TestIndexFinishRunRecordsError(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.StartRun(ctx, recorder.RunMeta{
		ID: "run-err", Domain: "text", Subject: "haiku", Rubric: "clarity",
		SeedMode: model.SeedScratch, StartedAt: time.Now().UTC(), OutputDir: "/tmp/x",
	}))
	require.NoError(t, idx.FinishRun(ctx, "run-err", &model.Result{
		Iterations: 3,
		Err:        model.ErrConsecutiveFailures,
	}))

	rows, err := idx.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Error, "consecutive")
}

func TestIndexRecordIterationIsIdempotent(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.StartRun(ctx, recorder.RunMeta{
		ID: "run-dup", Domain: "svg", Subject: "s", Rubric: "r",
		SeedMode: model.SeedInformed, StartedAt: time.Now().UTC(), OutputDir: "/tmp/x",
	}))

	// An inconsistent iteration is reported twice: once as a verdict, once
	// as a skip. The second write must not fail.
	rec := model.IterationRecord{Iteration: 1, Kind: model.KindInconsistent, At: time.Now().UTC()}
	require.NoError(t, idx.RecordIteration(ctx, "run-dup", rec))
	require.NoError(t, idx.RecordIteration(ctx, "run-dup", rec))
}

func TestIndexObserverRecordsEvents(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.StartRun(ctx, recorder.RunMeta{
		ID: "run-obs", Domain: "svg", Subject: "s", Rubric: "r",
		SeedMode: model.SeedInformed, StartedAt: time.Now().UTC(), OutputDir: "/tmp/x",
	}))

	obs := recorder.NewIndexObserver(idx, "run-obs", nil)
	obs.OnVerdict(ctx, model.Verdict{Outcome: model.ChampionWins, Rationale: "r", Feedback: "f"}, 1)
	obs.OnIterationSkipped(ctx, model.IterationRecord{
		Iteration: 2, Kind: model.KindProposalFailed, Err: "boom", At: time.Now().UTC(),
	})
	obs.OnRunFinished(ctx, &model.Result{Iterations: 2, ChampionUpdates: 0})

	rows, err := idx.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Iterations)
	assert.True(t, rows[0].FinishedAt.Valid)
}
