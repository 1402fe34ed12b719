package org

import "context"

// Provider is the external model client contract (§6): a single-shot
// chat(messages, model, max_tokens) → string. No tool-calling or
// streaming is named by the spec — commands are extracted from the
// plain-text reply by the JSON repair/validator (see ParsedReply), not
// via a provider-native tool-call mechanism.
type Provider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// Name returns the provider name (e.g. "openai", "anthropic").
	Name() string
}
