// Package config loads orgctl's settings: defaults, then an optional TOML
// settings file, then environment variables, with CLI flags applied last
// by the cmd/orgctl entrypoint itself.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every setting orgctl needs outside of what the interactive
// setup wizard solicits per run (org name/goal, founder name/role/goals,
// initial budget).
type Config struct {
	Org      OrgConfig      `toml:"org"`
	LLM      LLMConfig      `toml:"llm"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Observer ObserverConfig `toml:"observer"`
}

// OrgConfig holds the runtime-wide defaults.
type OrgConfig struct {
	WorkspaceRoot   string  `toml:"workspace_root"`
	DefaultUnitCost int64   `toml:"default_unit_cost"`
	DefaultBudget   int64   `toml:"default_budget"`
	CostUSDPerUnit  float64 `toml:"cost_usd_per_unit"` // 0 disables USD-derived billing; see [observer].pricing
}

// LLMConfig configures the reference openaicompat.Provider and the
// force-small-model/force-large-model tier resolution.
type LLMConfig struct {
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	Model       string   `toml:"model"`
	SmallModel  string   `toml:"small_model"`
	LargeModel  string   `toml:"large_model"`
	Temperature *float64 `toml:"temperature"`
	TopP        *float64 `toml:"top_p"`
}

// DispatchConfig tunes the event dispatcher.
type DispatchConfig struct {
	QueueDepth       int `toml:"queue_depth"`
	CostTimeoutMillis int `toml:"cost_timeout_millis"`
}

// ObserverConfig controls OTEL tracing and per-token-model cost pricing.
type ObserverConfig struct {
	Enabled bool                       `toml:"enabled"`
	Pricing map[string]ObserverPricing `toml:"pricing"`
}

// ObserverPricing is USD cost per 1K tokens for one model.
type ObserverPricing struct {
	Input  float64 `toml:"input"`
	Output float64 `toml:"output"`
}

// Default returns a Config with every field set to a usable default.
func Default() Config {
	return Config{
		Org: OrgConfig{
			WorkspaceRoot:   "./workspaces",
			DefaultUnitCost: 100,
			DefaultBudget:   1000,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Dispatch: DispatchConfig{
			QueueDepth:        256,
			CostTimeoutMillis: 5000,
		},
	}
}

// Load reads config: defaults -> TOML file (if present) -> env vars
// (env wins). CLI flags are applied afterward by the caller.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "orgctl.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("ORGCTL_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("ORGCTL_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("ORGCTL_WORKSPACE_ROOT"); v != "" {
		cfg.Org.WorkspaceRoot = v
	}
	if os.Getenv("ORGCTL_OBSERVER_ENABLED") == "true" || os.Getenv("ORGCTL_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	return cfg
}
