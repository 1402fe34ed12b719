package openaicompat

import (
	oasis "github.com/orglang/orgruntime"
)

// BuildBody converts org ChatMessages and a model name into an OpenAI-format
// ChatRequest. All roles pass through as plain string content — the narrow
// org.Provider contract has no native tool-calling or multimodal
// attachments, so there is nothing beyond role+content to translate.
func BuildBody(messages []oasis.ChatMessage, model string, maxTokens int, schema *oasis.ResponseSchema, opts ...Option) ChatRequest {
	msgs := make([]Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}

	req := ChatRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: maxTokens,
	}

	if schema != nil && len(schema.Schema) > 0 {
		req.ResponseFormat = &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   schema.Name,
				Schema: schema.Schema,
				Strict: true,
			},
		}
	}

	for _, opt := range opts {
		opt(&req)
	}

	return req
}
