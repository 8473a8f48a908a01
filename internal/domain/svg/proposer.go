package svg

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ashita-ai/kaizen/internal/llm"
	"github.com/ashita-ai/kaizen/internal/model"
)

// proposeMaxAttempts bounds extraction retries per proposal. A model that
// keeps answering without usable SVG fails the proposal; the loop treats
// that as a skipped iteration.
const proposeMaxAttempts = 3

const proposalTemperature = 0.7

// Proposer generates SVG candidates from the subject description, the
// current champion, and accumulated feedback.
type Proposer struct {
	llm         llm.Client
	subject     string
	description string
	rubric      string
	maxTokens   int
	logger      *slog.Logger
}

// NewProposer creates an SVG proposer.
func NewProposer(client llm.Client, subject, description, rubric string, maxTokens int, logger *slog.Logger) *Proposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Proposer{
		llm:         client,
		subject:     subject,
		description: description,
		rubric:      rubric,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Propose generates one candidate. A nil champion produces the seed.
func (p *Proposer) Propose(ctx context.Context, champion *model.Candidate, feedback []model.FeedbackEntry, seed model.SeedMode) (*model.Candidate, error) {
	system, user := buildProposalPrompt(p.subject, p.description, p.rubric, champion, feedback, seed)

	var lastErr error
	for attempt := 0; attempt < proposeMaxAttempts; attempt++ {
		response, err := p.llm.Complete(ctx, llm.Request{
			System:      system,
			User:        user,
			MaxTokens:   p.maxTokens,
			Temperature: proposalTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("svg: proposal call: %w", err)
		}

		code, err := ExtractSVG(response)
		if err != nil {
			p.logger.Debug("svg: proposal response had no usable markup, retrying",
				"attempt", attempt+1, "response_length", len(response))
			lastErr = err
			continue
		}

		c := model.NewCandidate(code)
		c.Meta = map[string]string{
			"attempt":             strconv.Itoa(attempt),
			"raw_response_length": strconv.Itoa(len(response)),
		}
		return c, nil
	}

	return nil, fmt.Errorf("svg: no SVG extracted after %d attempts: %w", proposeMaxAttempts, lastErr)
}
