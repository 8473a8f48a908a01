package kaizen

import (
	"log/slog"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	domain                 string
	subject                string
	rubric                 string
	iterations             int
	seedMode               SeedMode
	orderBiasMitigation    *bool
	maxConsecutiveFailures int
	renderer               string
	outputDir              string
	runID                  string
	logger                 *slog.Logger
	version                string
	proposer               Proposer
	evaluator              Evaluator
	rendererImpl           Renderer
	observers              []RunObserver
	disableRecorder        bool
}

// WithDomain selects the registered domain plugin (e.g. "svg", "text").
func WithDomain(name string) Option {
	return func(o *resolvedOptions) { o.domain = name }
}

// WithSubject selects the subject document by name, or by path when the
// argument contains a path separator or ends in .yaml.
func WithSubject(name string) Option {
	return func(o *resolvedOptions) { o.subject = name }
}

// WithRubric selects the rubric document, resolved the same way as WithSubject.
func WithRubric(name string) Option {
	return func(o *resolvedOptions) { o.rubric = name }
}

// WithIterations overrides the iteration budget from config (KAIZEN_ITERATIONS env var).
func WithIterations(n int) Option {
	return func(o *resolvedOptions) { o.iterations = n }
}

// WithSeedMode overrides the seed mode from config (KAIZEN_SEED_MODE env var).
func WithSeedMode(m SeedMode) Option {
	return func(o *resolvedOptions) { o.seedMode = m }
}

// WithOrderBiasMitigation toggles the swapped-order double evaluation
// (KAIZEN_ORDER_BIAS_MITIGATION env var).
func WithOrderBiasMitigation(enabled bool) Option {
	return func(o *resolvedOptions) { o.orderBiasMitigation = &enabled }
}

// WithMaxConsecutiveFailures overrides how many consecutive failed iterations
// terminate the run early (KAIZEN_MAX_CONSECUTIVE_FAILURES env var).
func WithMaxConsecutiveFailures(n int) Option {
	return func(o *resolvedOptions) { o.maxConsecutiveFailures = n }
}

// WithRendererName overrides the renderer selection from config
// (KAIZEN_RENDERER env var), e.g. "resvg" or "none".
func WithRendererName(name string) Option {
	return func(o *resolvedOptions) { o.renderer = name }
}

// WithOutputDir overrides the run artifact directory (KAIZEN_OUTPUT_DIR env var).
func WithOutputDir(dir string) Option {
	return func(o *resolvedOptions) { o.outputDir = dir }
}

// WithRunID fixes the run identifier. If not set, a UUID is generated.
func WithRunID(id string) Option {
	return func(o *resolvedOptions) { o.runID = id }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in logs and telemetry.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithProposer replaces the domain's built-in proposer.
// Only the last call wins.
func WithProposer(p Proposer) Option {
	return func(o *resolvedOptions) { o.proposer = p }
}

// WithEvaluator replaces the domain's built-in pairwise evaluator.
// Only the last call wins. Order-bias mitigation still wraps the replacement.
func WithEvaluator(e Evaluator) Option {
	return func(o *resolvedOptions) { o.evaluator = e }
}

// WithRenderer replaces the domain's built-in renderer.
// Only the last call wins.
func WithRenderer(r Renderer) Option {
	return func(o *resolvedOptions) { o.rendererImpl = r }
}

// WithObserver registers a run observer. Multiple observers may be
// registered; all registered observers receive every event.
func WithObserver(obs RunObserver) Option {
	return func(o *resolvedOptions) { o.observers = append(o.observers, obs) }
}

// WithoutRecorder disables the built-in disk recorder and SQLite index.
// Observers registered via WithObserver still receive events.
func WithoutRecorder() Option {
	return func(o *resolvedOptions) { o.disableRecorder = true }
}
