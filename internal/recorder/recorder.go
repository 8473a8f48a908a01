package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashita-ai/kaizen/internal/model"
)

// DirRecorder writes every artifact of a run under a single directory:
//
//	<base>/<runID>/
//	  config.json               the effective run configuration
//	  candidates/               every proposed candidate
//	  evaluations/              one verdict per decided iteration
//	  champions/                each candidate at the moment it became champion
//	  final/                    the winning candidate and summary.json
//
// All event methods are safe for concurrent use.
type DirRecorder struct {
	dir     string
	runID   string
	ext     string
	logger  *slog.Logger
	started time.Time

	mu sync.Mutex
}

// NewDirRecorder creates the run directory tree under base and writes
// config.json from cfg. ext is the artifact file extension, ".svg" or ".txt".
func NewDirRecorder(base, runID, ext string, cfg any, logger *slog.Logger) (*DirRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(base, runID)
	for _, sub := range []string{"candidates", "evaluations", "champions", "final"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("recorder: create run dir: %w", err)
		}
	}
	r := &DirRecorder{dir: dir, runID: runID, ext: ext, logger: logger, started: time.Now().UTC()}
	if cfg != nil {
		if err := r.writeJSON(filepath.Join(dir, "config.json"), cfg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Dir returns the run directory.
func (r *DirRecorder) Dir() string { return r.dir }

func (r *DirRecorder) OnCandidateProposed(_ context.Context, c *model.Candidate) {
	name := fmt.Sprintf("iter_%04d_%s%s", c.Iteration, shortID(c), r.ext)
	r.writeFile(filepath.Join(r.dir, "candidates", name), []byte(c.Content))
}

func (r *DirRecorder) OnVerdict(_ context.Context, v model.Verdict, iteration int) {
	name := fmt.Sprintf("iter_%04d.json", iteration)
	if err := r.writeJSON(filepath.Join(r.dir, "evaluations", name), v); err != nil {
		r.logger.Warn("write verdict failed", "iteration", iteration, "error", err)
	}
}

func (r *DirRecorder) OnChampionUpdated(_ context.Context, c *model.Candidate, iteration int) {
	name := fmt.Sprintf("iter_%04d_%s%s", iteration, shortID(c), r.ext)
	r.writeFile(filepath.Join(r.dir, "champions", name), []byte(c.Content))
}

func (r *DirRecorder) OnIterationSkipped(_ context.Context, rec model.IterationRecord) {
	name := fmt.Sprintf("iter_%04d_skipped.json", rec.Iteration)
	if err := r.writeJSON(filepath.Join(r.dir, "evaluations", name), rec); err != nil {
		r.logger.Warn("write skip record failed", "iteration", rec.Iteration, "error", err)
	}
}

func (r *DirRecorder) OnRunFinished(_ context.Context, res *model.Result) {
	if res.Champion != nil {
		r.writeFile(filepath.Join(r.dir, "final", "champion"+r.ext), []byte(res.Champion.Content))
	}
	summary := runSummary{
		RunID:           r.runID,
		StartedAt:       r.started,
		FinishedAt:      time.Now().UTC(),
		Iterations:      res.Iterations,
		ChampionUpdates: res.ChampionUpdates,
		Log:             res.Log,
	}
	if res.Champion != nil {
		summary.ChampionID = res.Champion.ID.String()
		summary.ChampionIteration = res.Champion.Iteration
	}
	if res.Err != nil {
		summary.Error = res.Err.Error()
	}
	if err := r.writeJSON(filepath.Join(r.dir, "final", "summary.json"), summary); err != nil {
		r.logger.Warn("write summary failed", "error", err)
	}
}

type runSummary struct {
	RunID             string                  `json:"run_id"`
	StartedAt         time.Time               `json:"started_at"`
	FinishedAt        time.Time               `json:"finished_at"`
	Iterations        int                     `json:"iterations"`
	ChampionUpdates   int                     `json:"champion_updates"`
	ChampionID        string                  `json:"champion_id,omitempty"`
	ChampionIteration int                     `json:"champion_iteration"`
	Error             string                  `json:"error,omitempty"`
	Log               []model.IterationRecord `json:"log"`
}

func (r *DirRecorder) writeFile(path string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.logger.Warn("write artifact failed", "path", path, "error", err)
	}
}

func (r *DirRecorder) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("recorder: marshal %s: %w", filepath.Base(path), err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("recorder: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func shortID(c *model.Candidate) string {
	s := c.ID.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
