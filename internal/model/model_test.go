package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/kaizen/internal/model"
)

func TestNewCandidate(t *testing.T) {
	c := model.NewCandidate("<svg/>")
	require.NotNil(t, c)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", c.ID.String())
	assert.Equal(t, "<svg/>", c.Content)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Zero(t, c.Seq, "sequence is assigned by the run, not at construction")

	other := model.NewCandidate("<svg/>")
	assert.NotEqual(t, c.ID, other.ID, "identical content must still get distinct identities")
}

func TestSeedModeValid(t *testing.T) {
	assert.True(t, model.SeedInformed.Valid())
	assert.True(t, model.SeedScratch.Valid())
	assert.False(t, model.SeedMode("").Valid())
	assert.False(t, model.SeedMode("creative").Valid())
}

func TestFeedbackBufferOrderAndReset(t *testing.T) {
	var b model.FeedbackBuffer
	assert.Zero(t, b.Len())
	assert.Nil(t, b.Entries())

	b.Append(model.FeedbackEntry{Feedback: "first", Iteration: 1})
	b.Append(model.FeedbackEntry{Feedback: "second", Iteration: 2})
	b.Append(model.FeedbackEntry{Feedback: "third", Iteration: 3})

	entries := b.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Feedback, "oldest entry comes first")
	assert.Equal(t, "third", entries[2].Feedback)

	b.Reset()
	assert.Zero(t, b.Len())
	assert.Nil(t, b.Entries())
}

func TestFeedbackBufferEntriesIsACopy(t *testing.T) {
	var b model.FeedbackBuffer
	b.Append(model.FeedbackEntry{Feedback: "keep me"})

	entries := b.Entries()
	entries[0].Feedback = "mutated"

	assert.Equal(t, "keep me", b.Entries()[0].Feedback)
}

func TestRunStateStamp(t *testing.T) {
	var s model.RunState

	seed := model.NewCandidate("a")
	s.Stamp(seed, 0)
	assert.Equal(t, uint64(1), seed.Seq)
	assert.Equal(t, 0, seed.Iteration)

	challenger := model.NewCandidate("b")
	s.Stamp(challenger, 7)
	assert.Equal(t, uint64(2), challenger.Seq)
	assert.Equal(t, 7, challenger.Iteration)
}

func TestRunStateFailureCounter(t *testing.T) {
	var s model.RunState
	assert.Equal(t, 1, s.RecordFailure())
	assert.Equal(t, 2, s.RecordFailure())
	s.ClearFailures()
	assert.Equal(t, 1, s.RecordFailure(), "counter restarts after a decided pass")
}

func TestOutcomeKindSkipped(t *testing.T) {
	assert.True(t, model.KindInconsistent.Skipped())
	assert.True(t, model.KindProposalFailed.Skipped())
	assert.True(t, model.KindEvaluationFailed.Skipped())
	assert.False(t, model.KindChallengerWins.Skipped())
	assert.False(t, model.KindChampionWins.Skipped())
}

func TestVerdictDecisive(t *testing.T) {
	assert.True(t, model.Verdict{Outcome: model.ChallengerWins}.Decisive())
	assert.True(t, model.Verdict{Outcome: model.ChampionWins}.Decisive())
	assert.False(t, model.Verdict{Outcome: model.Inconsistent}.Decisive())
}
