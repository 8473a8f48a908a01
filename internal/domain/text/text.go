// Package text is the plain-text optimization domain: prompts, copy, poems —
// anything judged directly as text, without a rendering step.
package text

import (
	"log/slog"

	"github.com/ashita-ai/kaizen/internal/domain"
	"github.com/ashita-ai/kaizen/internal/llm"
)

func init() {
	domain.Register(plugin{})
}

type plugin struct{}

func (plugin) Name() string { return "text" }

func (plugin) Description() string {
	return "Plain text: candidates are judged directly, no renderer"
}

func (plugin) Components(spec domain.Spec, proposer, evaluator llm.Client, logger *slog.Logger) (domain.Components, error) {
	return domain.Components{
		Proposer:  NewProposer(proposer, spec.Subject.Name, spec.Subject.Description, spec.Rubric.Text, spec.ProposalMaxTokens, logger),
		Evaluator: NewEvaluator(evaluator, spec.Subject.Name, spec.Rubric.Text, spec.EvaluationMaxTokens, logger),
	}, nil
}

func (plugin) Subjects() []string { return domain.ListDocuments("text", "subjects") }

func (plugin) Rubrics() []string { return domain.ListDocuments("text", "rubrics") }
