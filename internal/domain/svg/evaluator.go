package svg

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

// Evaluator judges one pair of candidates with a vision model. Each Compare
// call is a single independent comparison; order-bias mitigation lives in
// the judge, not here.
type Evaluator struct {
	llm       llm.Client
	subject   string
	rubric    string
	maxTokens int
	logger    *slog.Logger
}

// NewEvaluator creates a pairwise SVG evaluator.
func NewEvaluator(client llm.Client, subject, rubric string, maxTokens int, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		llm:       client,
		subject:   subject,
		rubric:    rubric,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Compare judges first against second. With renders present the model sees
// Image A (first) and Image B (second); without renders it reads the raw
// markup. Candidates are never mutated.
func (e *Evaluator) Compare(ctx context.Context, first, second *model.Candidate, firstRender, secondRender *model.Rendered) (model.Comparison, error) {
	req := llm.Request{
		MaxTokens:   e.maxTokens,
		Temperature: 0,
	}
	if firstRender != nil && secondRender != nil {
		req.System, req.User = buildEvaluationPrompt(e.subject, e.rubric)
		req.Images = []llm.Image{
			{Data: firstRender.Data, MediaType: firstRender.MediaType},
			{Data: secondRender.Data, MediaType: secondRender.MediaType},
		}
	} else {
		req.System, req.User = buildMarkupEvaluationPrompt(e.subject, e.rubric, first.Content, second.Content)
	}

	response, err := e.llm.Complete(ctx, req)
	if err != nil {
		return model.Comparison{}, fmt.Errorf("svg: evaluation call: %w", err)
	}

	winner, rationale, feedback, err := parseJudgeResponse(response)
	if err != nil {
		return model.Comparison{}, err
	}

	side := model.First
	if winner == "B" {
		side = model.Second
	}
	return model.Comparison{Winner: side, Rationale: rationale, Feedback: feedback}, nil
}

type judgeResponse struct {
	Winner    string `json:"winner"`
	Rationale string `json:"rationale"`
	Feedback  string `json:"feedback"`
}

var (
	jsonObjectRe = regexp.MustCompile(`(?s)\{[^{}]*\}`)
	winnerRe     = regexp.MustCompile(`(?i)"winner"\s*:\s*"([AB])"`)
	rationaleRe  = regexp.MustCompile(`(?s)"rationale"\s*:\s*"(.*?)"`)
	feedbackRe   = regexp.MustCompile(`(?s)"feedback"\s*:\s*"(.*?)"`)
)

// parseJudgeResponse extracts the winner label, rationale, and feedback.
// Tries strict JSON first, then falls back to field-by-field regexes for
// models that wrap the JSON in prose or emit invalid escapes. An
// unparseable response is an evaluation failure — ambiguity never becomes
// a verdict.
func parseJudgeResponse(response string) (winner, rationale, feedback string, err error) {
	if m := jsonObjectRe.FindString(response); m != "" {
		var parsed judgeResponse
		if jsonErr := json.Unmarshal([]byte(m), &parsed); jsonErr == nil {
			w := strings.ToUpper(strings.TrimSpace(parsed.Winner))
			if w == "A" || w == "B" {
				fb := parsed.Feedback
				if fb == "" {
					fb = parsed.Rationale
				}
				return w, parsed.Rationale, fb, nil
			}
		}
	}

	if m := winnerRe.FindStringSubmatch(response); m != nil {
		winner = strings.ToUpper(m[1])
		if rm := rationaleRe.FindStringSubmatch(response); rm != nil {
			rationale = rm[1]
		}
		feedback = rationale
		if fm := feedbackRe.FindStringSubmatch(response); fm != nil {
			feedback = fm[1]
		}
		return winner, rationale, feedback, nil
	}

	snippet := response
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return "", "", "", fmt.Errorf("svg: could not parse judge response: %q", snippet)
}
