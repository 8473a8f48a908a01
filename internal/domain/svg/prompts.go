package svg

import (
	"fmt"
	"strings"

	"github.com/ashita-ai/kaizen/internal/model"
)

const proposerSystemPrompt = "You are an SVG generator. You write raw SVG markup. " +
	"Always output valid SVG code wrapped in <svg> tags with explicit width and height attributes."

const evaluatorSystemPrompt = `You are an expert art critic evaluating SVG artwork. You will compare two rendered images (Image A and Image B) of the same subject and determine which better satisfies the given rubric.

You MUST respond with valid JSON containing three fields:
- "winner": "A" or "B"
- "rationale": brief explanation of why the winner is better
- "feedback": structured guidance for the next iteration, formatted as:
  Preserve: [what the current best version does well that must be kept]
  Improve: [2-3 specific, actionable edits to make]
  IMPORTANT: Do NOT reference "Image A", "Image B", "the winner", or "the loser" in the feedback. Write as direct instructions (e.g. "keep the grounded hooves", "connect the legs to the body").`

// buildProposalPrompt assembles system and user prompts for one proposal.
// A nil champion requests the seed: informed seeding includes the rubric,
// scratch seeding withholds it so the first candidate comes from the task
// description alone.
func buildProposalPrompt(subject, description, rubric string, champion *model.Candidate, feedback []model.FeedbackEntry, seed model.SeedMode) (system, user string) {
	if champion == nil {
		var b strings.Builder
		fmt.Fprintf(&b, "Create an SVG image of: %s\n\nDescription: %s\n\n", subject, description)
		if seed == model.SeedInformed {
			fmt.Fprintf(&b, "Style rubric:\n%s\n\n", rubric)
			b.WriteString("Create a detailed, high-quality SVG that follows the rubric closely. ")
		} else {
			b.WriteString("Create a detailed, high-quality SVG. ")
		}
		b.WriteString("Output ONLY the SVG code, wrapped in ```svg fences.")
		return proposerSystemPrompt, b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nDescription: %s\n\n", subject, description)
	fmt.Fprintf(&b, "Style rubric:\n%s\n\n", rubric)
	fmt.Fprintf(&b, "Current best SVG (iteration %d):\n```svg\n%s\n```\n\n", champion.Iteration, champion.Content)

	if len(feedback) > 0 {
		b.WriteString("Feedback so far, oldest first:\n")
		for i, entry := range feedback {
			fmt.Fprintf(&b, "%d. %s\n", i+1, entry.Feedback)
		}
		b.WriteString("\n")
	}

	b.WriteString("Create an improved SVG that addresses the feedback above. Use the current best " +
		"as reference for what works, but feel free to rethink the structure and composition. " +
		"Output ONLY the SVG code, wrapped in ```svg fences.")
	return proposerSystemPrompt, b.String()
}

// buildEvaluationPrompt assembles the pairwise judging prompt. The images are
// attached to the request separately, labeled A and B in presentation order.
func buildEvaluationPrompt(subject, rubric string) (system, user string) {
	user = fmt.Sprintf("Subject: %s\n\nEvaluation rubric:\n%s\n\n"+
		"Compare Image A and Image B above. Which image better depicts the subject according to the rubric?\n\n"+
		`Respond with JSON only: {"winner": "A" or "B", "rationale": "...", "feedback": "..."}`,
		subject, rubric)
	return evaluatorSystemPrompt, user
}

// buildMarkupEvaluationPrompt is the fallback when no renders are available:
// the judge reads the raw markup instead of rasterized images.
func buildMarkupEvaluationPrompt(subject, rubric, markupA, markupB string) (system, user string) {
	system = strings.ReplaceAll(evaluatorSystemPrompt, "two rendered images (Image A and Image B)", "two SVG documents (Artifact A and Artifact B)")
	system = strings.ReplaceAll(system, `"Image A", "Image B"`, `"Artifact A", "Artifact B"`)
	user = fmt.Sprintf("Subject: %s\n\nEvaluation rubric:\n%s\n\n"+
		"Artifact A:\n```svg\n%s\n```\n\nArtifact B:\n```svg\n%s\n```\n\n"+
		"Compare Artifact A and Artifact B. Which would render into the better depiction of the subject according to the rubric?\n\n"+
		`Respond with JSON only: {"winner": "A" or "B", "rationale": "...", "feedback": "..."}`,
		subject, rubric, markupA, markupB)
	return system, user
}
