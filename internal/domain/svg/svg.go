package svg

import (
	"fmt"
	"log/slog"

	"github.com/ashita-ai/kaizen/internal/descent"
	"github.com/ashita-ai/kaizen/internal/domain"
	"github.com/ashita-ai/kaizen/internal/llm"
)

func init() {
	domain.Register(plugin{})
}

type plugin struct{}

func (plugin) Name() string { return "svg" }

func (plugin) Description() string {
	return "Vector graphics: candidates are SVG markup, judged from rasterized renders"
}

func (plugin) Components(spec domain.Spec, proposer, evaluator llm.Client, logger *slog.Logger) (domain.Components, error) {
	var renderer descent.Renderer
	switch spec.Renderer {
	case "", "resvg":
		renderer = NewResvgRenderer("", spec.RenderWidth, spec.RenderHeight)
	case "none":
		// Markup-only judging; the evaluator falls back to reading SVG source.
		renderer = nil
	default:
		return domain.Components{}, fmt.Errorf("svg: unknown renderer %q (resvg or none)", spec.Renderer)
	}

	return domain.Components{
		Proposer:  NewProposer(proposer, spec.Subject.Name, spec.Subject.Description, spec.Rubric.Text, spec.ProposalMaxTokens, logger),
		Evaluator: NewEvaluator(evaluator, spec.Subject.Name, spec.Rubric.Text, spec.EvaluationMaxTokens, logger),
		Renderer:  renderer,
	}, nil
}

func (plugin) Subjects() []string { return domain.ListDocuments("svg", "subjects") }

func (plugin) Rubrics() []string { return domain.ListDocuments("svg", "rubrics") }
