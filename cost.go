package org

// ModelPricing holds per-million-token USD pricing for one model.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing contains sensible defaults for a handful of common
// models. Operators extend or override via configuration.
var DefaultPricing = map[string]ModelPricing{
	"gpt-4o-mini":        {0.15, 0.60},
	"gpt-4o":             {2.50, 10.00},
	"claude-haiku-3-5":   {0.80, 4.00},
	"claude-sonnet-4-5":  {3.00, 15.00},
	"gemini-2.5-flash":   {0.15, 0.60},
}

// CostCalculator derives a USD cost from token usage. The Budget Ledger's
// running cost itself stays an abstract per-iteration "unit cost" (§3
// B1–B3); CostCalculator is a supplemental feature (SPEC_FULL §12) used
// only when the operator asks the Agent Loop to derive its unit cost from
// a model's reported Usage instead of a fixed configured integer.
type CostCalculator struct {
	pricing map[string]ModelPricing
}

// NewCostCalculator creates a calculator seeded with DefaultPricing,
// merged with any operator-supplied overrides.
func NewCostCalculator(overrides map[string]ModelPricing) *CostCalculator {
	merged := make(map[string]ModelPricing, len(DefaultPricing)+len(overrides))
	for k, v := range DefaultPricing {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return &CostCalculator{pricing: merged}
}

// Calculate returns the cost in USD for the given model and token counts.
// Returns 0 for unknown models.
func (c *CostCalculator) Calculate(model string, usage Usage) float64 {
	p, ok := c.pricing[model]
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1_000_000*p.InputPerMillion +
		float64(usage.OutputTokens)/1_000_000*p.OutputPerMillion
}

// UnitCost converts a USD cost into an integer unit-cost delta on the
// scale the Budget Ledger uses (DefaultUnitCost per plain iteration),
// by a configurable USD-per-unit rate. A rate of 0 or less disables the
// conversion and returns DefaultUnitCost.
func (c *CostCalculator) UnitCost(model string, usage Usage, usdPerUnit float64) int64 {
	if usdPerUnit <= 0 {
		return DefaultUnitCost
	}
	usd := c.Calculate(model, usage)
	return int64(usd/usdPerUnit + 0.5)
}
