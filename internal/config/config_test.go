package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("expected default model, got %s", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Errorf("expected max_tokens 4096, got %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Anthropic.Timeout != 2*time.Minute {
		t.Errorf("expected timeout 2m, got %v", cfg.Anthropic.Timeout)
	}
	if cfg.Stages.Decompose.Temperature != 0.2 {
		t.Errorf("expected decompose temperature 0.2, got %v", cfg.Stages.Decompose.Temperature)
	}
	if cfg.Stages.Summarize.Temperature != 0.7 {
		t.Errorf("expected summarize temperature 0.7, got %v", cfg.Stages.Summarize.Temperature)
	}
	if cfg.Prompt.Variant != "roles" {
		t.Errorf("expected variant roles, got %s", cfg.Prompt.Variant)
	}
	if cfg.Prompt.Language != "English" {
		t.Errorf("expected language English, got %s", cfg.Prompt.Language)
	}
	if !cfg.State.Enabled {
		t.Error("expected history enabled by default")
	}
	if cfg.State.Driver != DriverModernc {
		t.Errorf("expected driver %q, got %q", DriverModernc, cfg.State.Driver)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: sk-ant-REDACTED
  model: claude-3-opus
  max_tokens: 1024
  timeout: 30s
stages:
  decompose:
    temperature: 0.1
  summarize:
    temperature: 0.9
prompt:
  variant: plain
  language: Spanish
state:
  enabled: false
  driver: sqlite3
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-REDACTED" {
		t.Errorf("expected API key from config, got %s", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.Model != "claude-3-opus" {
		t.Errorf("expected model claude-3-opus, got %s", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.MaxTokens != 1024 {
		t.Errorf("expected max_tokens 1024, got %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Anthropic.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Anthropic.Timeout)
	}
	if cfg.Stages.Decompose.Temperature != 0.1 {
		t.Errorf("expected decompose temperature 0.1, got %v", cfg.Stages.Decompose.Temperature)
	}
	// Unset keys keep their defaults
	if cfg.Stages.Execute.Temperature != 0.3 {
		t.Errorf("expected default execute temperature 0.3, got %v", cfg.Stages.Execute.Temperature)
	}
	if cfg.Prompt.Variant != "plain" || cfg.Prompt.Language != "Spanish" {
		t.Errorf("expected plain/Spanish, got %s/%s", cfg.Prompt.Variant, cfg.Prompt.Language)
	}
	if cfg.State.Enabled {
		t.Error("expected history disabled")
	}
	if cfg.State.Driver != DriverCgo {
		t.Errorf("expected driver %q, got %q", DriverCgo, cfg.State.Driver)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromPath_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_AGENTFLOW_KEY", "sk-ant-from-env-1234567890")
	t.Setenv("TEST_AGENTFLOW_DIR", "/tmp/agentflow-test")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
anthropic:
  api_key: ${TEST_AGENTFLOW_KEY}
state:
  path: ${TEST_AGENTFLOW_DIR}/history.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env-1234567890" {
		t.Errorf("expected expanded api key, got %s", cfg.Anthropic.APIKey)
	}
	if cfg.State.Path != "/tmp/agentflow-test/history.db" {
		t.Errorf("expected expanded state path, got %s", cfg.State.Path)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "test_value"},
		{"$TEST_VAR", "test_value"},
		{"prefix_${TEST_VAR}_suffix", "prefix_test_value_suffix"},
		{"no_vars", "no_vars"},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := expandEnv(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnv(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if dir := getUserConfigDir(); dir != "/custom/config/agentflow" {
		t.Errorf("expected /custom/config/agentflow, got %s", dir)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	t.Setenv("XDG_STATE_HOME", "/custom/state")

	if got := defaultStatePath(); got != "/custom/data/agentflow/history.db" {
		t.Errorf("defaultStatePath() = %s", got)
	}
	if got := defaultLogPath(); got != "/custom/state/agentflow/logs/agentflow-debug.log" {
		t.Errorf("defaultLogPath() = %s", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Anthropic.Model = "claude-3-haiku"
	cfg.Prompt.Language = "French"
	cfg.Stages.Execute.Temperature = 0.5

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Anthropic.Model != "claude-3-haiku" {
		t.Errorf("model = %s, want claude-3-haiku", loaded.Anthropic.Model)
	}
	if loaded.Prompt.Language != "French" {
		t.Errorf("language = %s, want French", loaded.Prompt.Language)
	}
	if loaded.Stages.Execute.Temperature != 0.5 {
		t.Errorf("execute temperature = %v, want 0.5", loaded.Stages.Execute.Temperature)
	}
	if loaded.Anthropic.Timeout != 2*time.Minute {
		t.Errorf("timeout = %v, want 2m", loaded.Anthropic.Timeout)
	}
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := filepath.Join(root, ProjectConfigName)
	if err := os.WriteFile(want, []byte("prompt:\n  language: German\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	wd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(nested); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	got := findProjectConfig()
	// TempDir may sit behind a symlink on some systems
	if resolved, err := filepath.EvalSymlinks(got); err == nil {
		got = resolved
	}
	if resolvedWant, err := filepath.EvalSymlinks(want); err == nil {
		want = resolvedWant
	}
	if got != want {
		t.Errorf("findProjectConfig() = %s, want %s", got, want)
	}
}

func TestWatch_ReloadsValidAndRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-REDACTED")

	configDir := filepath.Join(dir, "agentflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	write := func(temperature string) {
		t.Helper()
		content := "stages:\n  execute:\n    temperature: " + temperature + "\n"
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	write("0.3")

	changes := make(chan float64, 16)
	errs := make(chan error, 16)
	err := Watch(func(cfg *Config) {
		select {
		case changes <- cfg.Stages.Execute.Temperature:
		default:
		}
	}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// A rewrite can surface as several events, some of which see a
	// truncated file, so wait for the value we wrote.
	write("0.45")
	deadline := time.After(5 * time.Second)
	for got := false; !got; {
		select {
		case temp := <-changes:
			got = temp == 0.45
		case err := <-errs:
			t.Fatalf("unexpected reload error: %v", err)
		case <-deadline:
			t.Fatal("onChange did not fire for the new temperature")
		}
	}

	write("5")
	deadline = time.After(5 * time.Second)
	for got := false; !got; {
		select {
		case temp := <-changes:
			if temp == 5 {
				t.Fatal("onChange received an out-of-range temperature")
			}
		case err := <-errs:
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Key != "stages.execute.temperature" {
				t.Fatalf("reload error = %v, want stages.execute.temperature", err)
			}
			got = true
		case <-deadline:
			t.Fatal("onError did not fire for the invalid temperature")
		}
	}
}

func TestWatch_NoUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	called := false
	if err := Watch(func(*Config) { called = true }, nil); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if called {
		t.Error("onChange called without a config file")
	}
}
