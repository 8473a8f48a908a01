// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ashita-ai/kaizen/internal/model"
)

// Config holds all application configuration. Run parameters (domain,
// subject, rubric, iteration budget) usually arrive as CLI flags and
// override the env-derived values before Validate.
type Config struct {
	// Loop settings.
	Iterations             int
	OrderBiasMitigation    bool
	SeedMode               model.SeedMode
	MaxConsecutiveFailures int

	// Provider settings. Provider is "auto", "openai", "ollama", or "noop";
	// auto prefers OpenAI when an API key is present, then Ollama.
	ProposerProvider  string
	ProposerModel     string
	EvaluatorProvider string
	EvaluatorModel    string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OllamaURL         string

	// LLM call behavior.
	LLMRequestsPerSecond float64
	ProposalMaxTokens    int
	EvaluationMaxTokens  int

	// Rendering settings (consumed by domains with a renderer).
	Renderer     string // e.g. "resvg", "none"
	RenderWidth  int
	RenderHeight int

	// Recorder settings.
	OutputDir    string
	RunIndexPath string // SQLite run index; empty disables it

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Iterations:             envInt("KAIZEN_ITERATIONS", 20),
		OrderBiasMitigation:    envBool("KAIZEN_ORDER_BIAS_MITIGATION", true),
		SeedMode:               model.SeedMode(envStr("KAIZEN_SEED_MODE", string(model.SeedInformed))),
		MaxConsecutiveFailures: envInt("KAIZEN_MAX_CONSECUTIVE_FAILURES", 5),
		ProposerProvider:       envStr("KAIZEN_PROPOSER_PROVIDER", "auto"),
		ProposerModel:          envStr("KAIZEN_PROPOSER_MODEL", "gpt-4o"),
		EvaluatorProvider:      envStr("KAIZEN_EVALUATOR_PROVIDER", "auto"),
		EvaluatorModel:         envStr("KAIZEN_EVALUATOR_MODEL", "gpt-4o"),
		OpenAIAPIKey:           envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          envStr("OPENAI_BASE_URL", ""),
		OllamaURL:              envStr("OLLAMA_URL", ""),
		LLMRequestsPerSecond:   envFloat("KAIZEN_LLM_REQUESTS_PER_SECOND", 2),
		ProposalMaxTokens:      envInt("KAIZEN_PROPOSAL_MAX_TOKENS", 16384),
		EvaluationMaxTokens:    envInt("KAIZEN_EVALUATION_MAX_TOKENS", 4096),
		Renderer:               envStr("KAIZEN_RENDERER", "resvg"),
		RenderWidth:            envInt("KAIZEN_RENDER_WIDTH", 512),
		RenderHeight:           envInt("KAIZEN_RENDER_HEIGHT", 512),
		OutputDir:              envStr("KAIZEN_OUTPUT_DIR", "./runs"),
		RunIndexPath:           envStr("KAIZEN_RUN_INDEX", "./runs/index.db"),
		OTELEndpoint:           envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:           envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:            envStr("OTEL_SERVICE_NAME", "kaizen"),
		LogLevel:               envStr("KAIZEN_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("config: KAIZEN_ITERATIONS must be positive")
	}
	if c.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("config: KAIZEN_MAX_CONSECUTIVE_FAILURES must be positive")
	}
	if !c.SeedMode.Valid() {
		return fmt.Errorf("config: KAIZEN_SEED_MODE must be %q or %q", model.SeedInformed, model.SeedScratch)
	}
	if c.RenderWidth <= 0 || c.RenderHeight <= 0 {
		return fmt.Errorf("config: render dimensions must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: KAIZEN_OUTPUT_DIR is required")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
