package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokens generates numbered operation tokens: "<prefix>-0001",
// "<prefix>-0002", ...
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with a fresh SequentialTokens produces byte-identical
// event logs.
//
// Unlike engine.FixedGenerator, it never runs out, so scenarios do not need
// to declare how many mutations they perform.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokens creates a token generator.
//
// The prefix is typically set in the scenario YAML:
//
//	token_prefix: "web-dev"
//
// If prefix is empty, "tok" is used.
func NewSequentialTokens(prefix string) *SequentialTokens {
	if prefix == "" {
		prefix = "tok"
	}
	return &SequentialTokens{prefix: prefix}
}

// Generate returns the next token.
//
// Implements engine.TokenGenerator.
func (g *SequentialTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialTokens) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
