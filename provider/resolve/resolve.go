// Package resolve picks a model name from the CLI's force-small-model /
// force-large-model toggles (§6 CLI/entrypoint) and wraps an
// openaicompat.Provider configured for it.
package resolve

import (
	oasis "github.com/orglang/orgruntime"
	"github.com/orglang/orgruntime/provider/openaicompat"
)

// Tier selects which configured model an agent loop should use.
type Tier int

const (
	// TierDefault uses Config.Model as-is.
	TierDefault Tier = iota
	// TierSmall forces Config.SmallModel, for cheaper/faster iterations.
	TierSmall
	// TierLarge forces Config.LargeModel, for harder reasoning steps.
	TierLarge
)

// Config holds provider-agnostic configuration for creating a chat
// Provider against an OpenAI-compatible endpoint, plus the small/large
// model names the CLI's force-small-model/force-large-model toggles pick
// between.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string // used when Tier is TierDefault
	SmallModel string
	LargeModel string

	Temperature *float64
	TopP        *float64
}

// Resolve returns the model name Tier selects, falling back to
// Config.Model if the requested tier has no model configured.
func (c Config) Resolve(t Tier) string {
	switch t {
	case TierSmall:
		if c.SmallModel != "" {
			return c.SmallModel
		}
	case TierLarge:
		if c.LargeModel != "" {
			return c.LargeModel
		}
	}
	return c.Model
}

// Provider builds an org.Provider against cfg's endpoint, defaulted to
// the model Tier resolves to. The model field on individual ChatRequests
// (set by the agent loop's LoopConfig.Model) still takes precedence per
// call, so Provider only supplies the fallback.
func Provider(cfg Config, t Tier) oasis.Provider {
	model := cfg.Resolve(t)

	var reqOpts []openaicompat.Option
	if cfg.Temperature != nil {
		reqOpts = append(reqOpts, openaicompat.WithTemperature(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		reqOpts = append(reqOpts, openaicompat.WithTopP(*cfg.TopP))
	}

	var provOpts []openaicompat.ProviderOption
	if len(reqOpts) > 0 {
		provOpts = append(provOpts, openaicompat.WithOptions(reqOpts...))
	}

	return openaicompat.NewProvider(cfg.APIKey, model, cfg.BaseURL, provOpts...)
}
