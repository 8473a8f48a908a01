// Package domain defines the plugin contract for optimization domains and a
// registry of built-in ones. A domain supplies concrete Proposer, Evaluator,
// and (optionally) Renderer implementations for one kind of artifact; nothing
// else crosses into the core loop.
package domain

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ashita-ai/kaizen/internal/descent"
	"github.com/ashita-ai/kaizen/internal/llm"
)

// Spec is the per-run domain input: what to optimize and how to judge it.
type Spec struct {
	Subject Subject
	Rubric  Rubric

	// Renderer selects the domain's raster backend ("resvg", "none", ...);
	// domains without rendering ignore it.
	Renderer     string
	RenderWidth  int
	RenderHeight int

	ProposalMaxTokens   int
	EvaluationMaxTokens int
}

// Components are the capability set a domain hands to the loop.
// Renderer may be nil for artifact types that are judged as text.
type Components struct {
	Proposer  descent.Proposer
	Evaluator descent.Evaluator
	Renderer  descent.Renderer
}

// Plugin is one optimization domain.
type Plugin interface {
	Name() string
	Description() string

	// Components builds the domain's proposer, evaluator, and optional
	// renderer for one run.
	Components(spec Spec, proposer, evaluator llm.Client, logger *slog.Logger) (Components, error)

	// Subjects and Rubrics list the names of the built-in documents.
	Subjects() []string
	Rubrics() []string
}

var (
	mu       sync.RWMutex
	registry = map[string]Plugin{}
)

// Register makes a plugin available by name. Called from plugin package
// init functions; panics on duplicates like database/sql driver registration.
func Register(p Plugin) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[p.Name()]; dup {
		panic(fmt.Sprintf("domain: Register called twice for %q", p.Name()))
	}
	registry[p.Name()] = p
}

// Get returns the plugin registered under name.
func Get(name string) (Plugin, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("domain: unknown domain %q (available: %v)", name, names())
	}
	return p, nil
}

// List returns all registered plugins sorted by name.
func List() []Plugin {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Plugin, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// names is called with mu held.
func names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
