package svg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/kaizen/internal/llm"
	"github.com/ashita-ai/kaizen/internal/model"
)

// fakeClient returns a canned response and records the last request.
type fakeClient struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestParseJudgeResponseStrictJSON(t *testing.T) {
	winner, rationale, feedback, err := parseJudgeResponse(
		`{"winner": "B", "rationale": "better proportions", "feedback": "thicken the legs"}`)
	require.NoError(t, err)
	assert.Equal(t, "B", winner)
	assert.Equal(t, "better proportions", rationale)
	assert.Equal(t, "thicken the legs", feedback)
}

func TestParseJudgeResponseJSONInProse(t *testing.T) {
	response := "After careful comparison:\n\n{\"winner\": \"a\", \"rationale\": \"cleaner lines\", \"feedback\": \"add shading\"}\n\nThat is my verdict."
	winner, rationale, feedback, err := parseJudgeResponse(response)
	require.NoError(t, err)
	assert.Equal(t, "A", winner, "winner label is case-insensitive")
	assert.Equal(t, "cleaner lines", rationale)
	assert.Equal(t, "add shading", feedback)
}

func TestParseJudgeResponseMissingFeedbackFallsBackToRationale(t *testing.T) {
	winner, rationale, feedback, err := parseJudgeResponse(
		`{"winner": "A", "rationale": "the horn reads clearly"}`)
	require.NoError(t, err)
	assert.Equal(t, "A", winner)
	assert.Equal(t, rationale, feedback)
}

func TestParseJudgeResponseRegexFallback(t *testing.T) {
	// Invalid JSON overall (trailing comma) but the fields are recoverable.
	response := `{"winner": "B", "rationale": "stronger silhouette", "feedback": "fix the tail",}`
	winner, rationale, feedback, err := parseJudgeResponse(response)
	require.NoError(t, err)
	assert.Equal(t, "B", winner)
	assert.Equal(t, "stronger silhouette", rationale)
	assert.Equal(t, "fix the tail", feedback)
}

func TestParseJudgeResponseRejectsUnknownWinner(t *testing.T) {
	_, _, _, err := parseJudgeResponse(`{"winner": "C", "rationale": "x", "feedback": "y"}`)
	require.Error(t, err)
}

func TestParseJudgeResponseRejectsProse(t *testing.T) {
	_, _, _, err := parseJudgeResponse("Both images look identical to me.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse judge response")
}

func TestCompareVisionPathSendsBothRenders(t *testing.T) {
	client := &fakeClient{response: `{"winner": "B", "rationale": "r", "feedback": "f"}`}
	e := NewEvaluator(client, "a unicorn", "anatomy rubric", 1024, nil)

	first := model.NewCandidate("<svg>1</svg>")
	second := model.NewCandidate("<svg>2</svg>")
	cmp, err := e.Compare(context.Background(), first, second,
		&model.Rendered{Data: []byte{1}, MediaType: "image/png"},
		&model.Rendered{Data: []byte{2}, MediaType: "image/png"},
	)
	require.NoError(t, err)

	assert.Equal(t, model.Second, cmp.Winner)
	require.Len(t, client.lastReq.Images, 2)
	assert.Equal(t, []byte{1}, client.lastReq.Images[0].Data)
	assert.Equal(t, []byte{2}, client.lastReq.Images[1].Data)
	assert.Zero(t, client.lastReq.Temperature, "judging is deterministic")
}

func TestCompareMarkupFallbackWithoutRenders(t *testing.T) {
	client := &fakeClient{response: `{"winner": "A", "rationale": "r", "feedback": "f"}`}
	e := NewEvaluator(client, "a unicorn", "anatomy rubric", 1024, nil)

	first := model.NewCandidate("<svg>first</svg>")
	second := model.NewCandidate("<svg>second</svg>")
	cmp, err := e.Compare(context.Background(), first, second, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.First, cmp.Winner)
	assert.Empty(t, client.lastReq.Images)
	assert.Contains(t, client.lastReq.User, "<svg>first</svg>")
	assert.Contains(t, client.lastReq.User, "<svg>second</svg>")
}

func TestCompareUnparseableResponseIsError(t *testing.T) {
	client := &fakeClient{response: "no idea"}
	e := NewEvaluator(client, "s", "r", 1024, nil)

	_, err := e.Compare(context.Background(), model.NewCandidate("<svg/>"), model.NewCandidate("<svg/>"), nil, nil)
	require.Error(t, err)
}
