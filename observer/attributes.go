package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for dispatcher and agent-loop spans. The root package
// does not use them: its dispatcher spans carry a plain "agent_id"
// attribute and its agent-loop spans carry none.
var (
	AttrAgentID     = attribute.Key("agent.id")
	AttrAgentName   = attribute.Key("agent.name")
	AttrAgentStatus = attribute.Key("agent.status")
	AttrEventKind   = attribute.Key("event.kind")

	AttrLLMModel    = attribute.Key("llm.model")
	AttrLLMProvider = attribute.Key("llm.provider")
	AttrTokensInput  = attribute.Key("llm.tokens.input")
	AttrTokensOutput = attribute.Key("llm.tokens.output")
	AttrCostUSD      = attribute.Key("llm.cost_usd")

	AttrToolName         = attribute.Key("tool.name")
	AttrToolStatus       = attribute.Key("tool.status")
	AttrToolResultLength = attribute.Key("tool.result_length")

	AttrOrgName = attribute.Key("org.name")
)
