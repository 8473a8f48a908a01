package text

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ashita-ai/kaizen/internal/llm"
	"github.com/ashita-ai/kaizen/internal/model"
)

const proposerSystem = "You are a writer. You output only the requested text, " +
	"wrapped in ```text fences, with no commentary before or after."

var textFenceRe = regexp.MustCompile("(?s)```(?:text)?[ \t]*\n(.*?)```")

// Proposer generates text candidates.
type Proposer struct {
	llm         llm.Client
	subject     string
	description string
	rubric      string
	maxTokens   int
	logger      *slog.Logger
}

// NewProposer creates a text proposer.
func NewProposer(client llm.Client, subject, description, rubric string, maxTokens int, logger *slog.Logger) *Proposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Proposer{llm: client, subject: subject, description: description, rubric: rubric, maxTokens: maxTokens, logger: logger}
}

// Propose generates one candidate. A nil champion produces the seed.
func (p *Proposer) Propose(ctx context.Context, champion *model.Candidate, feedback []model.FeedbackEntry, seed model.SeedMode) (*model.Candidate, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write: %s\n\nBrief: %s\n\n", p.subject, p.description)

	if champion == nil {
		if seed == model.SeedInformed {
			fmt.Fprintf(&b, "Quality rubric:\n%s\n\n", p.rubric)
		}
		b.WriteString("Output ONLY the text, wrapped in ```text fences.")
	} else {
		fmt.Fprintf(&b, "Quality rubric:\n%s\n\n", p.rubric)
		fmt.Fprintf(&b, "Current best version (iteration %d):\n```text\n%s\n```\n\n", champion.Iteration, champion.Content)
		if len(feedback) > 0 {
			b.WriteString("Feedback so far, oldest first:\n")
			for i, entry := range feedback {
				fmt.Fprintf(&b, "%d. %s\n", i+1, entry.Feedback)
			}
			b.WriteString("\n")
		}
		b.WriteString("Write an improved version that addresses the feedback. " +
			"Output ONLY the text, wrapped in ```text fences.")
	}

	response, err := p.llm.Complete(ctx, llm.Request{
		System:      proposerSystem,
		User:        b.String(),
		MaxTokens:   p.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("text: proposal call: %w", err)
	}

	content := response
	if m := textFenceRe.FindStringSubmatch(response); m != nil {
		content = m[1]
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("text: empty proposal response")
	}
	return model.NewCandidate(content), nil
}
