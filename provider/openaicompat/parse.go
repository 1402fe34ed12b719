package openaicompat

import (
	oasis "github.com/orglang/orgruntime"
)

// ParseResponse converts an OpenAI-format ChatResponse to an org
// ChatResponse, extracting content and usage from choices[0]. Command
// extraction happens downstream, through the agent loop's JSON repair
// step on Content — this adapter has nothing to parse beyond text.
func ParseResponse(resp ChatResponse) (oasis.ChatResponse, error) {
	var out oasis.ChatResponse

	if len(resp.Choices) == 0 {
		return out, nil
	}

	choice := resp.Choices[0]
	if choice.Message != nil {
		out.Content = choice.Message.Content
	}

	if resp.Usage != nil {
		out.Usage = oasis.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	return out, nil
}
