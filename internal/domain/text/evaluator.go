package text

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ashita-ai/kaizen/internal/llm"
	"github.com/ashita-ai/kaizen/internal/model"
)

const evaluatorSystem = `You are an exacting editor comparing two versions (Version A and Version B) of the same text against a rubric.

You MUST respond with valid JSON containing three fields:
- "winner": "A" or "B"
- "rationale": brief explanation of why the winner is better
- "feedback": direct instructions for the next revision. Do NOT reference "Version A", "Version B", "the winner", or "the loser"; write imperatives (e.g. "cut the second paragraph", "lead with the install command").`

// Evaluator judges one pair of text candidates.
type Evaluator struct {
	llm       llm.Client
	subject   string
	rubric    string
	maxTokens int
	logger    *slog.Logger
}

// NewEvaluator creates a pairwise text evaluator.
func NewEvaluator(client llm.Client, subject, rubric string, maxTokens int, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{llm: client, subject: subject, rubric: rubric, maxTokens: maxTokens, logger: logger}
}

// Compare judges first (Version A) against second (Version B).
func (e *Evaluator) Compare(ctx context.Context, first, second *model.Candidate, _, _ *model.Rendered) (model.Comparison, error) {
	user := fmt.Sprintf("Subject: %s\n\nRubric:\n%s\n\nVersion A:\n```text\n%s\n```\n\nVersion B:\n```text\n%s\n```\n\n"+
		"Which version better satisfies the rubric?\n\n"+
		`Respond with JSON only: {"winner": "A" or "B", "rationale": "...", "feedback": "..."}`,
		e.subject, e.rubric, first.Content, second.Content)

	response, err := e.llm.Complete(ctx, llm.Request{
		System:      evaluatorSystem,
		User:        user,
		MaxTokens:   e.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return model.Comparison{}, fmt.Errorf("text: evaluation call: %w", err)
	}
	return parseVerdictJSON(response)
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{[^{}]*\}`)

func parseVerdictJSON(response string) (model.Comparison, error) {
	m := jsonObjectRe.FindString(response)
	if m == "" {
		return model.Comparison{}, fmt.Errorf("text: no JSON object in judge response")
	}
	var parsed struct {
		Winner    string `json:"winner"`
		Rationale string `json:"rationale"`
		Feedback  string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(m), &parsed); err != nil {
		return model.Comparison{}, fmt.Errorf("text: parse judge response: %w", err)
	}
	switch strings.ToUpper(strings.TrimSpace(parsed.Winner)) {
	case "A":
		return model.Comparison{Winner: model.First, Rationale: parsed.Rationale, Feedback: parsed.Feedback}, nil
	case "B":
		return model.Comparison{Winner: model.Second, Rationale: parsed.Rationale, Feedback: parsed.Feedback}, nil
	default:
		return model.Comparison{}, fmt.Errorf("text: judge response named no winner")
	}
}
