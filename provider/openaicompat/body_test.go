package openaicompat

import (
	"testing"

	oasis "github.com/orglang/orgruntime"
)

func TestBuildBody_RolesPassThrough(t *testing.T) {
	msgs := []oasis.ChatMessage{
		oasis.SystemMessage("you are an agent"),
		oasis.UserMessage("inbox is empty"),
		oasis.AssistantMessage("ok"),
	}
	body := BuildBody(msgs, "gpt-4o-mini", 512, nil)

	if body.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", body.Model)
	}
	if body.MaxTokens != 512 {
		t.Fatalf("max_tokens = %d", body.MaxTokens)
	}
	if len(body.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(body.Messages))
	}
	for i, want := range []string{"system", "user", "assistant"} {
		if body.Messages[i].Role != want {
			t.Errorf("messages[%d].Role = %q, want %q", i, body.Messages[i].Role, want)
		}
	}
}

func TestBuildBody_ResponseSchema(t *testing.T) {
	schema := &oasis.ResponseSchema{Name: "reply", Schema: []byte(`{"type":"object"}`)}
	body := BuildBody(nil, "gpt-4o-mini", 0, schema)

	if body.ResponseFormat == nil {
		t.Fatal("expected ResponseFormat to be set")
	}
	if body.ResponseFormat.Type != "json_schema" {
		t.Errorf("ResponseFormat.Type = %q", body.ResponseFormat.Type)
	}
	if body.ResponseFormat.JSONSchema.Name != "reply" {
		t.Errorf("JSONSchema.Name = %q", body.ResponseFormat.JSONSchema.Name)
	}
}

func TestBuildBody_OptionOverridesPositionalMaxTokens(t *testing.T) {
	body := BuildBody(nil, "gpt-4o-mini", 100, nil, WithMaxTokens(999), WithTemperature(0.2))
	if body.MaxTokens != 999 {
		t.Errorf("MaxTokens = %d, want 999", body.MaxTokens)
	}
	if body.Temperature == nil || *body.Temperature != 0.2 {
		t.Errorf("Temperature not applied")
	}
}
