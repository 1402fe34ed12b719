package org

import "encoding/json"

// --- LLM wire protocol ---

// ChatMessage is a single role+content turn sent to a model provider.
type ChatMessage struct {
	Role       string          `json:"role"` // "system", "user", "assistant", "tool"
	Content    string          `json:"content"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// ResponseSchema tells the provider to enforce structured JSON output.
// Providers that cannot enforce a schema natively simply pass it through
// as prompt guidance; the core always runs the reply through the JSON
// repair/validator regardless.
type ResponseSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

// ChatRequest is a single model invocation.
type ChatRequest struct {
	Messages       []ChatMessage   `json:"messages"`
	Model          string          `json:"model,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseSchema *ResponseSchema `json:"response_schema,omitempty"`
}

// ChatResponse is a completed model reply.
type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage reports token consumption for a single ChatResponse.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ToolDefinition describes one callable entry in the tool catalog.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ToolCall is an extracted command invocation, as the model expressed it.
type ToolCall struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args"`
}

// ChatMessage constructors, matching the role vocabulary above.

func UserMessage(text string) ChatMessage      { return ChatMessage{Role: "user", Content: text} }
func SystemMessage(text string) ChatMessage    { return ChatMessage{Role: "system", Content: text} }
func AssistantMessage(text string) ChatMessage { return ChatMessage{Role: "assistant", Content: text} }

// --- Domain model (§3) ---

// Agent is a single worker's record. Identity is ID; Name is advisory.
type Agent struct {
	ID           int64
	Name         string
	Role         string
	Goals        []string
	Founder      bool
	Terminated   bool
	LoopCount    int
	WorkspaceDir string
}

// Thoughts is the structured portion of a repaired model reply that the
// loop logs and folds into the agent's status before extracting a command.
type Thoughts struct {
	Text       string `json:"text"`
	Reasoning  string `json:"reasoning"`
	Plan       string `json:"plan"`
	Criticism  string `json:"criticism"`
	NextStatus string `json:"status"`
}

// ParsedReply is the structured shape the JSON repair/validator produces
// from a raw model reply. A failed parse yields the zero value (Command.Name == "").
type ParsedReply struct {
	Thoughts Thoughts `json:"thoughts"`
	Command  ToolCall `json:"command"`
}

// IsEmpty reports whether parsing failed to produce anything usable —
// the agent loop skips command execution for the iteration in that case.
func (p ParsedReply) IsEmpty() bool {
	return p.Command.Name == ""
}

// Message is an addressed, immutable-once-sent note between two agents,
// with a small set of mutable threading fields (§3 M1–M4).
type Message struct {
	ID             int64
	SenderID       int64
	ReceiverID     int64
	Body           string
	FromSupervisor bool
	ResponseToID   *int64
	Timestamp      int64

	Read       bool
	Responded  bool
	ResponseID *int64
}
