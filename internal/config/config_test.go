package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Org.WorkspaceRoot != "./workspaces" {
		t.Errorf("expected ./workspaces, got %s", cfg.Org.WorkspaceRoot)
	}
	if cfg.Org.DefaultBudget != 1000 {
		t.Errorf("expected 1000, got %d", cfg.Org.DefaultBudget)
	}
	if cfg.Dispatch.QueueDepth != 256 {
		t.Errorf("expected 256, got %d", cfg.Dispatch.QueueDepth)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[org]
workspace_root = "/tmp/orgs"
default_budget = 5000

[llm]
model = "gpt-4o"
`), 0644)

	cfg := Load(path)
	if cfg.Org.WorkspaceRoot != "/tmp/orgs" {
		t.Errorf("expected /tmp/orgs, got %s", cfg.Org.WorkspaceRoot)
	}
	if cfg.Org.DefaultBudget != 5000 {
		t.Errorf("expected 5000, got %d", cfg.Org.DefaultBudget)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %s", cfg.LLM.Model)
	}
	// Defaults preserved for fields the file didn't set.
	if cfg.Dispatch.QueueDepth != 256 {
		t.Errorf("default should be preserved, got %d", cfg.Dispatch.QueueDepth)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ORGCTL_LLM_API_KEY", "env-key")
	t.Setenv("ORGCTL_WORKSPACE_ROOT", "/env/workspaces")

	cfg := Load("/nonexistent/path.toml")
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("expected env-key, got %s", cfg.LLM.APIKey)
	}
	if cfg.Org.WorkspaceRoot != "/env/workspaces" {
		t.Errorf("expected /env/workspaces, got %s", cfg.Org.WorkspaceRoot)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load("/nonexistent/path.toml")
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected default model, got %s", cfg.LLM.Model)
	}
}
