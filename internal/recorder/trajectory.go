package recorder

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// trajectoryTmpl renders the champion lineage of one run as a single
// self-contained HTML page. SVG champions are inlined as markup, text
// champions as preformatted blocks, so the file needs no external assets.
var trajectoryTmpl = template.Must(template.New("trajectory").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Trajectory {{.RunID}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; background: #fafafa; color: #222; }
h1 { font-size: 1.3rem; }
.meta { color: #666; font-size: 0.85rem; margin-bottom: 1.5rem; }
.steps { display: flex; flex-wrap: wrap; gap: 1rem; }
.step { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 1rem; max-width: 560px; }
.step h2 { font-size: 0.95rem; margin: 0 0 0.5rem; }
.step svg { max-width: 512px; max-height: 512px; border: 1px solid #eee; background: #fff; }
.step pre { white-space: pre-wrap; font-size: 0.8rem; max-height: 24rem; overflow-y: auto; }
table { border-collapse: collapse; font-size: 0.8rem; margin-top: 2rem; }
th, td { border: 1px solid #ddd; padding: 0.3rem 0.6rem; text-align: left; vertical-align: top; }
td.kind { white-space: nowrap; }
</style>
</head>
<body>
<h1>Run {{.RunID}}</h1>
<p class="meta">{{.Iterations}} iterations, {{.ChampionUpdates}} champion updates{{if .Error}}, stopped early: {{.Error}}{{end}}</p>
<div class="steps">
{{range .Steps}}
<div class="step">
<h2>{{.Label}}</h2>
{{if .SVG}}{{.SVG}}{{else}}<pre>{{.Text}}</pre>{{end}}
</div>
{{end}}
</div>
{{if .Log}}
<table>
<tr><th>Iteration</th><th>Outcome</th><th>Rationale</th><th>Feedback</th></tr>
{{range .Log}}
<tr><td>{{.Iteration}}</td><td class="kind">{{.Kind}}</td><td>{{.Rationale}}</td><td>{{.Feedback}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))

type trajectoryStep struct {
	Iteration int
	Label     string
	SVG       template.HTML
	Text      string
}

type trajectoryPage struct {
	RunID           string
	Iterations      int
	ChampionUpdates int
	Error           string
	Steps           []trajectoryStep
	Log             []logRow
}

type logRow struct {
	Iteration int    `json:"iteration"`
	Kind      string `json:"outcome"`
	Rationale string `json:"rationale,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
}

// WriteTrajectory builds final/trajectory.html from an already recorded run
// directory and returns the page path.
func WriteTrajectory(runDir string) (string, error) {
	page := trajectoryPage{RunID: filepath.Base(runDir)}

	data, err := os.ReadFile(filepath.Join(runDir, "final", "summary.json"))
	if err != nil {
		return "", fmt.Errorf("recorder: read summary: %w", err)
	}
	var summary struct {
		Iterations      int      `json:"iterations"`
		ChampionUpdates int      `json:"champion_updates"`
		Error           string   `json:"error"`
		Log             []logRow `json:"log"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return "", fmt.Errorf("recorder: parse summary: %w", err)
	}
	page.Iterations = summary.Iterations
	page.ChampionUpdates = summary.ChampionUpdates
	page.Error = summary.Error
	page.Log = summary.Log

	steps, err := championSteps(runDir)
	if err != nil {
		return "", err
	}
	page.Steps = steps

	out := filepath.Join(runDir, "final", "trajectory.html")
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("recorder: create trajectory: %w", err)
	}
	defer f.Close()
	if err := trajectoryTmpl.Execute(f, page); err != nil {
		return "", fmt.Errorf("recorder: render trajectory: %w", err)
	}
	return out, nil
}

func championSteps(runDir string) ([]trajectoryStep, error) {
	entries, err := os.ReadDir(filepath.Join(runDir, "champions"))
	if err != nil {
		return nil, fmt.Errorf("recorder: read champions: %w", err)
	}
	var steps []trajectoryStep
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(runDir, "champions", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("recorder: read champion: %w", err)
		}
		step := trajectoryStep{Iteration: iterationFromName(e.Name())}
		if step.Iteration == 0 {
			step.Label = "Seed"
		} else {
			step.Label = fmt.Sprintf("Iteration %d", step.Iteration)
		}
		if strings.HasSuffix(e.Name(), ".svg") {
			// Inlined verbatim so the page needs no rasterizer.
			step.SVG = template.HTML(content) //nolint:gosec
		} else {
			step.Text = string(content)
		}
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Iteration < steps[j].Iteration })
	return steps, nil
}

// iterationFromName extracts N from "iter_NNNN_<id>.<ext>".
func iterationFromName(name string) int {
	name = strings.TrimPrefix(name, "iter_")
	if i := strings.IndexByte(name, '_'); i > 0 {
		name = name[:i]
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return n
}
