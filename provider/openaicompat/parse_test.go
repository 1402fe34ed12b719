package openaicompat

import "testing"

func TestParseResponse_TextAndUsage(t *testing.T) {
	resp := ChatResponse{
		ID: "chatcmpl-123",
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChoiceMessage{Role: "assistant", Content: "Hello! How can I help you?"},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{PromptTokens: 10, CompletionTokens: 8, TotalTokens: 18},
	}

	result, err := ParseResponse(resp)
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if result.Content != "Hello! How can I help you?" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Usage.InputTokens != 10 || result.Usage.OutputTokens != 8 {
		t.Errorf("Usage = %+v", result.Usage)
	}
}

func TestParseResponse_NoChoices(t *testing.T) {
	result, err := ParseResponse(ChatResponse{})
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if result.Content != "" {
		t.Errorf("Content = %q, want empty", result.Content)
	}
}
