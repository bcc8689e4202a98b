package triage

import (
	"fmt"
	"sync"

	"github.com/liamcoop/wardline/internal/logger"
	"github.com/liamcoop/wardline/requests"
)

// Holder serves the current engine and swaps in a recompiled one on reload.
// Submissions in flight keep the engine they started with.
type Holder struct {
	engine *Engine
	source string
	mu     sync.RWMutex
}

// NewHolder compiles rules from path, or the embedded defaults when path is empty
func NewHolder(path string) (*Holder, error) {
	h := &Holder{source: path}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Reload recompiles the rule source. The running engine is kept when the new rules are invalid.
func (h *Holder) Reload() error {
	rs := DefaultRuleSet()
	if h.source != "" {
		loaded, err := LoadRuleSet(h.source)
		if err != nil {
			return err
		}
		rs = loaded
	}

	engine, err := NewEngine(rs)
	if err != nil {
		return fmt.Errorf("failed to compile triage rules: %w", err)
	}

	h.mu.Lock()
	h.engine = engine
	h.mu.Unlock()

	logger.Info("Triage rules loaded", "source", h.sourceName(), "rules", engine.RuleNames())
	return nil
}

// Engine returns the engine currently in use
func (h *Holder) Engine() *Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// Assess delegates to the current engine
func (h *Holder) Assess(req *requests.Request) requests.Priority {
	return h.Engine().Assess(req)
}

// RuleNames lists the current engine's rules
func (h *Holder) RuleNames() []string {
	return h.Engine().RuleNames()
}

func (h *Holder) sourceName() string {
	if h.source == "" {
		return "embedded"
	}
	return h.source
}
