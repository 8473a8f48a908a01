package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashita-ai/kaizen/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	domain           TEXT NOT NULL,
	subject          TEXT NOT NULL,
	rubric           TEXT NOT NULL,
	seed_mode        TEXT NOT NULL,
	started_at       TIMESTAMP NOT NULL,
	finished_at      TIMESTAMP,
	iterations       INTEGER NOT NULL DEFAULT 0,
	champion_updates INTEGER NOT NULL DEFAULT 0,
	error            TEXT NOT NULL DEFAULT '',
	output_dir       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS iterations (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	iteration INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	rationale TEXT NOT NULL DEFAULT '',
	feedback  TEXT NOT NULL DEFAULT '',
	error     TEXT NOT NULL DEFAULT '',
	at        TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, iteration)
);
`

// Index is a SQLite catalogue of runs and their iteration outcomes, shared
// across all runs under one output directory.
type Index struct {
	db *sql.DB
}

// RunMeta describes a run at the moment it starts.
type RunMeta struct {
	ID        string
	Domain    string
	Subject   string
	Rubric    string
	SeedMode  model.SeedMode
	StartedAt time.Time
	OutputDir string
}

// RunRow is one row of the runs table.
type RunRow struct {
	ID              string
	Domain          string
	Subject         string
	Rubric          string
	SeedMode        string
	StartedAt       time.Time
	FinishedAt      sql.NullTime
	Iterations      int
	ChampionUpdates int
	Error           string
	OutputDir       string
}

// OpenIndex opens (creating if needed) the index database at path.
func OpenIndex(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("recorder: create index dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open index: %w", err)
	}
	// modernc.org/sqlite serializes writes through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: apply schema: %w", err)
	}
	return &Index{db: db}, nil
}

// StartRun inserts the run row before the first iteration.
func (x *Index) StartRun(ctx context.Context, meta RunMeta) error {
	_, err := x.db.ExecContext(ctx, `
		INSERT INTO runs (id, domain, subject, rubric, seed_mode, started_at, output_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Domain, meta.Subject, meta.Rubric, string(meta.SeedMode), meta.StartedAt, meta.OutputDir)
	if err != nil {
		return fmt.Errorf("recorder: insert run: %w", err)
	}
	return nil
}

// RecordIteration upserts one iteration outcome for the run. Inconsistent
// verdicts arrive twice, once as a verdict and once as a skip, so the insert
// must be idempotent per (run, iteration).
func (x *Index) RecordIteration(ctx context.Context, runID string, rec model.IterationRecord) error {
	_, err := x.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO iterations (run_id, iteration, kind, rationale, feedback, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Iteration, string(rec.Kind), rec.Rationale, rec.Feedback, rec.Err, rec.At)
	if err != nil {
		return fmt.Errorf("recorder: insert iteration: %w", err)
	}
	return nil
}

// FinishRun stamps the run row with its final counters.
func (x *Index) FinishRun(ctx context.Context, runID string, res *model.Result) error {
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}
	_, err := x.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, iterations = ?, champion_updates = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC(), res.Iterations, res.ChampionUpdates, errText, runID)
	if err != nil {
		return fmt.Errorf("recorder: finish run: %w", err)
	}
	return nil
}

// ListRuns returns runs ordered newest first.
func (x *Index) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := x.db.QueryContext(ctx, `
		SELECT id, domain, subject, rubric, seed_mode, started_at, finished_at,
		       iterations, champion_updates, error, output_dir
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recorder: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.Domain, &r.Subject, &r.Rubric, &r.SeedMode,
			&r.StartedAt, &r.FinishedAt, &r.Iterations, &r.ChampionUpdates, &r.Error, &r.OutputDir); err != nil {
			return nil, fmt.Errorf("recorder: scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recorder: list runs: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (x *Index) Close() error {
	return x.db.Close()
}

// IndexObserver adapts an Index to the observer interface for a single run.
type IndexObserver struct {
	idx    *Index
	runID  string
	logger *slog.Logger
}

// NewIndexObserver binds idx to one run.
func NewIndexObserver(idx *Index, runID string, logger *slog.Logger) *IndexObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexObserver{idx: idx, runID: runID, logger: logger}
}

func (o *IndexObserver) OnCandidateProposed(context.Context, *model.Candidate) {}

func (o *IndexObserver) OnChampionUpdated(context.Context, *model.Candidate, int) {}

func (o *IndexObserver) OnVerdict(_ context.Context, v model.Verdict, iteration int) {
	o.record(model.IterationRecord{
		Iteration: iteration,
		Kind:      model.OutcomeKind(v.Outcome),
		Rationale: v.Rationale,
		Feedback:  v.Feedback,
		At:        time.Now().UTC(),
	})
}

func (o *IndexObserver) OnIterationSkipped(_ context.Context, rec model.IterationRecord) {
	o.record(rec)
}

func (o *IndexObserver) OnRunFinished(_ context.Context, res *model.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.idx.FinishRun(ctx, o.runID, res); err != nil {
		o.logger.Warn("index finish run failed", "run_id", o.runID, "error", err)
	}
}

func (o *IndexObserver) record(rec model.IterationRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.idx.RecordIteration(ctx, o.runID, rec); err != nil {
		o.logger.Warn("index record iteration failed", "run_id", o.runID, "iteration", rec.Iteration, "error", err)
	}
}
