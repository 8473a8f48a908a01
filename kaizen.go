// Package kaizen is the public API for embedding the feedback-descent
// optimizer.
//
// A run pits a champion artifact against LLM-proposed challengers, judged
// pairwise against a rubric with order-bias mitigation, and accumulates the
// judge's feedback between champion changes:
//
//	app, err := kaizen.New(
//	    kaizen.WithDomain("svg"),
//	    kaizen.WithSubject("unicorn"),
//	    kaizen.WithRubric("anatomical_realism"),
//	    kaizen.WithIterations(30),
//	    kaizen.WithLogger(logger),
//	)
//	if err != nil { ... }
//	res, err := app.Run(ctx)
//
// The import graph enforces a strict no-cycle rule: kaizen (root) imports
// internal/*, but internal/* never imports kaizen (root). Public types
// (Candidate, Verdict, etc.) are standalone structs with no internal imports;
// conversion helpers live here because this is the only file that sees both
// sides of the boundary.
package kaizen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ashita-ai/kaizen/internal/config"
	"github.com/ashita-ai/kaizen/internal/descent"
	"github.com/ashita-ai/kaizen/internal/domain"
	"github.com/ashita-ai/kaizen/internal/llm"
	"github.com/ashita-ai/kaizen/internal/model"
	"github.com/ashita-ai/kaizen/internal/recorder"
	"github.com/ashita-ai/kaizen/internal/telemetry"

	// Built-in domains register themselves with the domain registry.
	_ "github.com/ashita-ai/kaizen/internal/domain/svg"
	_ "github.com/ashita-ai/kaizen/internal/domain/text"
)

// App is one configured optimization run. Construct with New(), execute with
// Run(). App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	loop         *descent.Loop
	fanout       *recorder.Fanout
	dir          *recorder.DirRecorder // nil when the recorder is disabled
	index        *recorder.Index       // nil when no index is configured
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	runID        string
	version      string
}

// New wires an optimization run: configuration, telemetry, LLM clients, the
// selected domain's components, and the run recorder. It performs no LLM
// calls and starts no goroutines — call Run().
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.iterations != 0 {
		cfg.Iterations = o.iterations
	}
	if o.seedMode != "" {
		cfg.SeedMode = model.SeedMode(o.seedMode)
	}
	if o.orderBiasMitigation != nil {
		cfg.OrderBiasMitigation = *o.orderBiasMitigation
	}
	if o.maxConsecutiveFailures != 0 {
		cfg.MaxConsecutiveFailures = o.maxConsecutiveFailures
	}
	if o.renderer != "" {
		cfg.Renderer = o.renderer
	}
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	version := o.version
	if version == "" {
		version = "dev"
	}
	domainName := o.domain
	if domainName == "" {
		domainName = "svg"
	}
	if o.subject == "" {
		return nil, fmt.Errorf("kaizen: a subject is required (WithSubject)")
	}
	if o.rubric == "" {
		return nil, fmt.Errorf("kaizen: a rubric is required (WithRubric)")
	}

	logger.Info("kaizen starting",
		"version", version,
		"domain", domainName,
		"subject", o.subject,
		"rubric", o.rubric,
		"iterations", cfg.Iterations,
	)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Resolve the domain and its documents.
	plugin, err := domain.Get(domainName)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, err
	}
	subject, err := domain.LoadSubject(domainName, o.subject)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, err
	}
	rubric, err := domain.LoadRubric(domainName, o.rubric)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, err
	}

	// LLM clients share one outbound rate limiter.
	limiter := llm.NewLimiter(cfg.LLMRequestsPerSecond)
	proposerClient := llm.New(llm.Options{
		Provider:      cfg.ProposerProvider,
		Model:         cfg.ProposerModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OllamaURL:     cfg.OllamaURL,
		Limiter:       limiter,
	})
	evaluatorClient := llm.New(llm.Options{
		Provider:      cfg.EvaluatorProvider,
		Model:         cfg.EvaluatorModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OllamaURL:     cfg.OllamaURL,
		Limiter:       limiter,
	})

	comps, err := plugin.Components(domain.Spec{
		Subject:             subject,
		Rubric:              rubric,
		Renderer:            cfg.Renderer,
		RenderWidth:         cfg.RenderWidth,
		RenderHeight:        cfg.RenderHeight,
		ProposalMaxTokens:   cfg.ProposalMaxTokens,
		EvaluationMaxTokens: cfg.EvaluationMaxTokens,
	}, proposerClient, evaluatorClient, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("domain %s: %w", domainName, err)
	}

	// External overrides take priority over the domain's components.
	if o.proposer != nil {
		comps.Proposer = &proposerAdapter{p: o.proposer}
	}
	if o.evaluator != nil {
		comps.Evaluator = &evaluatorAdapter{e: o.evaluator}
	}
	if o.rendererImpl != nil {
		comps.Renderer = &rendererAdapter{r: o.rendererImpl}
	}

	judge := descent.NewJudge(comps.Evaluator, cfg.OrderBiasMitigation, logger)

	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	// Observers: disk recorder, SQLite index, then external observers.
	var observers []descent.Observer
	var dir *recorder.DirRecorder
	var index *recorder.Index
	if !o.disableRecorder {
		runCfg := runConfig{
			Domain:              domainName,
			Subject:             subject.Name,
			Rubric:              rubric.Name,
			Iterations:          cfg.Iterations,
			SeedMode:            string(cfg.SeedMode),
			OrderBiasMitigation: cfg.OrderBiasMitigation,
			Renderer:            cfg.Renderer,
			ProposerModel:       cfg.ProposerModel,
			EvaluatorModel:      cfg.EvaluatorModel,
			Version:             version,
		}
		dir, err = recorder.NewDirRecorder(cfg.OutputDir, runID, artifactExt(domainName), runCfg, logger)
		if err != nil {
			_ = otelShutdown(context.Background())
			return nil, err
		}
		observers = append(observers, dir)

		if cfg.RunIndexPath != "" {
			index, err = recorder.OpenIndex(cfg.RunIndexPath)
			if err != nil {
				_ = otelShutdown(context.Background())
				return nil, err
			}
			err = index.StartRun(context.Background(), recorder.RunMeta{
				ID:        runID,
				Domain:    domainName,
				Subject:   subject.Name,
				Rubric:    rubric.Name,
				SeedMode:  cfg.SeedMode,
				StartedAt: time.Now().UTC(),
				OutputDir: dir.Dir(),
			})
			if err != nil {
				_ = index.Close()
				_ = otelShutdown(context.Background())
				return nil, err
			}
			observers = append(observers, recorder.NewIndexObserver(index, runID, logger))
		}
	}
	for _, obs := range o.observers {
		observers = append(observers, &observerAdapter{obs: obs})
	}
	fanout := recorder.NewFanout(logger, observers...)

	loop := descent.NewLoop(comps.Proposer, judge, comps.Renderer, fanout, logger, descent.Config{
		Iterations:             cfg.Iterations,
		SeedMode:               cfg.SeedMode,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
	})

	return &App{
		cfg:          cfg,
		loop:         loop,
		fanout:       fanout,
		dir:          dir,
		index:        index,
		otelShutdown: otelShutdown,
		logger:       logger,
		runID:        runID,
		version:      version,
	}, nil
}

// RunID returns the identifier under which this run's artifacts are recorded.
func (a *App) RunID() string { return a.runID }

// OutputDir returns the run's artifact directory. Empty when the recorder is
// disabled.
func (a *App) OutputDir() string {
	if a.dir == nil {
		return ""
	}
	return a.dir.Dir()
}

// Run executes the optimization loop, blocks until the budget is exhausted or
// the run terminates early, then drains observers and finalizes artifacts.
// A non-nil Result with Result.Err set means the run stopped early but still
// produced a champion; a nil Result means seeding itself failed.
func (a *App) Run(ctx context.Context) (*Result, error) {
	res, err := a.loop.Run(ctx)
	a.shutdown(res)
	if err != nil {
		return nil, err
	}
	return toPublicResult(res), nil
}

// shutdown drains observers, writes the trajectory page, and releases
// telemetry and index handles. res is nil when seeding failed.
func (a *App) shutdown(res *model.Result) {
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := a.fanout.Drain(drainCtx); err != nil {
		a.logger.Warn("observer drain incomplete", "error", err)
	}
	cancel()

	if a.dir != nil && res != nil {
		if page, err := recorder.WriteTrajectory(a.dir.Dir()); err != nil {
			a.logger.Warn("trajectory page failed", "error", err)
		} else {
			a.logger.Info("trajectory page written", "path", page)
		}
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Warn("run index close failed", "error", err)
		}
	}
	_ = a.otelShutdown(context.Background())
}

// runConfig is the effective run configuration persisted as config.json.
type runConfig struct {
	Domain              string `json:"domain"`
	Subject             string `json:"subject"`
	Rubric              string `json:"rubric"`
	Iterations          int    `json:"iterations"`
	SeedMode            string `json:"seed_mode"`
	OrderBiasMitigation bool   `json:"order_bias_mitigation"`
	Renderer            string `json:"renderer"`
	ProposerModel       string `json:"proposer_model"`
	EvaluatorModel      string `json:"evaluator_model"`
	Version             string `json:"version"`
}

// artifactExt maps a domain to the file extension its candidates are saved
// under.
func artifactExt(domainName string) string {
	if domainName == "svg" {
		return ".svg"
	}
	return ".txt"
}

// ── Adapters (defined here because this file imports both sides) ───────────────

// proposerAdapter wraps a kaizen.Proposer to satisfy descent.Proposer.
// It converts internal model types to public kaizen types at the boundary.
type proposerAdapter struct {
	p Proposer
}

func (a *proposerAdapter) Propose(ctx context.Context, champion *model.Candidate, feedback []model.FeedbackEntry, seed model.SeedMode) (*model.Candidate, error) {
	var pubChampion *Candidate
	if champion != nil {
		c := toPublicCandidate(champion)
		pubChampion = &c
	}
	pub, err := a.p.Propose(ctx, pubChampion, toPublicFeedback(feedback), SeedMode(seed))
	if err != nil {
		return nil, err
	}
	if pub == nil || pub.Content == "" {
		return nil, fmt.Errorf("kaizen: external proposer returned no content")
	}
	c := model.NewCandidate(pub.Content)
	for k, v := range pub.Meta {
		if c.Meta == nil {
			c.Meta = map[string]string{}
		}
		c.Meta[k] = v
	}
	return c, nil
}

// evaluatorAdapter wraps a kaizen.Evaluator to satisfy descent.Evaluator.
// Order-bias mitigation wraps the adapter, not the other way around, so
// external evaluators are swapped and reconciled like built-in ones.
type evaluatorAdapter struct {
	e Evaluator
}

func (a *evaluatorAdapter) Compare(ctx context.Context, first, second *model.Candidate, firstRender, secondRender *model.Rendered) (model.Comparison, error) {
	f := toPublicCandidate(first)
	s := toPublicCandidate(second)
	cmp, err := a.e.Compare(ctx, &f, &s, toPublicRendered(firstRender), toPublicRendered(secondRender))
	if err != nil {
		return model.Comparison{}, err
	}
	out := model.Comparison{Rationale: cmp.Rationale, Feedback: cmp.Feedback}
	switch cmp.Winner {
	case First:
		out.Winner = model.First
	case Second:
		out.Winner = model.Second
	default:
		return model.Comparison{}, fmt.Errorf("kaizen: external evaluator returned winner %q", cmp.Winner)
	}
	return out, nil
}

// rendererAdapter wraps a kaizen.Renderer to satisfy descent.Renderer.
type rendererAdapter struct {
	r Renderer
}

func (a *rendererAdapter) Render(ctx context.Context, c *model.Candidate) (*model.Rendered, error) {
	pub := toPublicCandidate(c)
	out, err := a.r.Render(ctx, &pub)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return &model.Rendered{Data: out.Data, MediaType: out.MediaType}, nil
}

// observerAdapter wraps a kaizen.RunObserver to satisfy descent.Observer.
type observerAdapter struct {
	obs RunObserver
}

func (a *observerAdapter) OnCandidateProposed(_ context.Context, c *model.Candidate) {
	a.obs.OnCandidateProposed(toPublicCandidate(c))
}

func (a *observerAdapter) OnVerdict(_ context.Context, v model.Verdict, iteration int) {
	a.obs.OnVerdict(iteration, toPublicVerdict(v))
}

func (a *observerAdapter) OnChampionUpdated(_ context.Context, c *model.Candidate, iteration int) {
	a.obs.OnChampionUpdated(toPublicCandidate(c), iteration)
}

func (a *observerAdapter) OnIterationSkipped(_ context.Context, rec model.IterationRecord) {
	var err error
	if rec.Err != "" {
		err = fmt.Errorf("%s", rec.Err)
	}
	a.obs.OnIterationSkipped(rec.Iteration, string(rec.Kind), err)
}

func (a *observerAdapter) OnRunFinished(_ context.Context, res *model.Result) {
	pub := toPublicResult(res)
	a.obs.OnRunFinished(*pub)
}

// ── Type converters ────────────────────────────────────────────────────────────

// toPublicCandidate converts an internal model.Candidate to the public
// kaizen.Candidate. Lives here because this is the only file that imports
// both sides of the boundary.
func toPublicCandidate(c *model.Candidate) Candidate {
	return Candidate{
		ID:        c.ID,
		Iteration: c.Iteration,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Meta:      c.Meta,
	}
}

func toPublicFeedback(entries []model.FeedbackEntry) []FeedbackEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]FeedbackEntry, len(entries))
	for i, e := range entries {
		out[i] = FeedbackEntry{
			LoserID:   e.LoserID,
			Rationale: e.Rationale,
			Feedback:  e.Feedback,
			Iteration: e.Iteration,
			At:        e.At,
		}
	}
	return out
}

func toPublicRendered(r *model.Rendered) *Rendered {
	if r == nil {
		return nil
	}
	return &Rendered{Data: r.Data, MediaType: r.MediaType}
}

func toPublicVerdict(v model.Verdict) Verdict {
	return Verdict{
		Outcome:   string(v.Outcome),
		WinnerID:  v.WinnerID,
		Rationale: v.Rationale,
		Feedback:  v.Feedback,
	}
}

func toPublicResult(res *model.Result) *Result {
	out := &Result{
		Iterations:      res.Iterations,
		ChampionUpdates: res.ChampionUpdates,
		Err:             res.Err,
	}
	if res.Champion != nil {
		c := toPublicCandidate(res.Champion)
		out.Champion = &c
	}
	if len(res.Log) > 0 {
		out.Log = make([]IterationRecord, len(res.Log))
		for i, r := range res.Log {
			out.Log[i] = IterationRecord{
				Iteration: r.Iteration,
				Kind:      string(r.Kind),
				Rationale: r.Rationale,
				Feedback:  r.Feedback,
				Err:       r.Err,
				At:        r.At,
			}
		}
	}
	return out
}
