package org

import "context"

// MemoryStore is the external long-term memory contract (§6): add(text),
// get_relevant(text, k) → list<string>. One instance per agent, opaque to
// the core — the agent loop simply folds GetRelevant's result into its
// prompt composition and calls Add after each iteration's outcome.
type MemoryStore interface {
	Add(ctx context.Context, text string) error
	GetRelevant(ctx context.Context, query string, k int) ([]string, error)
}
