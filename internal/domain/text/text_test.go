package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/kaizen/internal/llm"
	"github.com/ashita-ai/kaizen/internal/model"
)

type fakeClient struct {
	response string
	lastReq  llm.Request
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, nil
}

func TestProposeExtractsFencedText(t *testing.T) {
	client := &fakeClient{response: "Here you go:\n```text\nWelcome aboard! Let's get you set up.\n```"}
	p := NewProposer(client, "onboarding email", "a welcome email", "be concise", 1024, nil)

	c, err := p.Propose(context.Background(), nil, nil, model.SeedInformed)
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard! Let's get you set up.", c.Content)
}

func TestProposeFallsBackToWholeResponse(t *testing.T) {
	client := &fakeClient{response: "  An autumn leaf\nfalls past the window, silent\nthe kettle whistles  "}
	p := NewProposer(client, "haiku", "a haiku", "seasonal imagery", 1024, nil)

	c, err := p.Propose(context.Background(), nil, nil, model.SeedScratch)
	require.NoError(t, err)
	assert.Equal(t, "An autumn leaf\nfalls past the window, silent\nthe kettle whistles", c.Content)
}

func TestProposeEmptyResponseIsError(t *testing.T) {
	client := &fakeClient{response: "```text\n\n```"}
	p := NewProposer(client, "s", "d", "r", 1024, nil)

	_, err := p.Propose(context.Background(), nil, nil, model.SeedInformed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty proposal")
}

func TestProposeRefinementShowsChampionAndFeedback(t *testing.T) {
	client := &fakeClient{response: "```text\nrevised\n```"}
	p := NewProposer(client, "onboarding email", "a welcome email", "be concise", 1024, nil)

	champion := model.NewCandidate("original draft")
	feedback := []model.FeedbackEntry{{Feedback: "cut the second paragraph"}}

	_, err := p.Propose(context.Background(), champion, feedback, model.SeedInformed)
	require.NoError(t, err)
	assert.Contains(t, client.lastReq.User, "original draft")
	assert.Contains(t, client.lastReq.User, "cut the second paragraph")
}

func TestEvaluatorComparePicksWinner(t *testing.T) {
	client := &fakeClient{response: `{"winner": "B", "rationale": "tighter prose", "feedback": "shorten the opening"}`}
	e := NewEvaluator(client, "onboarding email", "be concise", 512, nil)

	first := model.NewCandidate("draft one")
	second := model.NewCandidate("draft two")
	cmp, err := e.Compare(context.Background(), first, second, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.Second, cmp.Winner)
	assert.Equal(t, "tighter prose", cmp.Rationale)
	assert.Equal(t, "shorten the opening", cmp.Feedback)
	assert.Contains(t, client.lastReq.User, "draft one")
	assert.Contains(t, client.lastReq.User, "draft two")
	assert.Zero(t, client.lastReq.Temperature)
}

func TestEvaluatorCompareRejectsAmbiguousResponse(t *testing.T) {
	client := &fakeClient{response: "they are both fine"}
	e := NewEvaluator(client, "s", "r", 512, nil)

	_, err := e.Compare(context.Background(), model.NewCandidate("a"), model.NewCandidate("b"), nil, nil)
	require.Error(t, err)
}

func TestParseVerdictJSONWinnerCaseInsensitive(t *testing.T) {
	cmp, err := parseVerdictJSON(`{"winner": " b ", "rationale": "r", "feedback": "f"}`)
	require.NoError(t, err)
	assert.Equal(t, model.Second, cmp.Winner)
}

func TestParseVerdictJSONUnknownWinner(t *testing.T) {
	_, err := parseVerdictJSON(`{"winner": "tie", "rationale": "r", "feedback": "f"}`)
	require.Error(t, err)
}
