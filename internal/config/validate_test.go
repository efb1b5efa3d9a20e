package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"defaults with key", func(c *Config) {}, ""},
		{"missing credential", func(c *Config) { c.Anthropic.APIKey = "" }, "anthropic.api_key"},
		{"bedrock needs no key", func(c *Config) {
			c.Anthropic.APIKey = ""
			c.Anthropic.Bedrock.Enabled = true
		}, ""},
		{"zero max tokens", func(c *Config) { c.Anthropic.MaxTokens = 0 }, "anthropic.max_tokens"},
		{"zero timeout", func(c *Config) { c.Anthropic.Timeout = 0 }, "anthropic.timeout"},
		{"temperature too high", func(c *Config) { c.Stages.Summarize.Temperature = 1.5 }, "stages.summarize.temperature"},
		{"negative temperature", func(c *Config) { c.Stages.Decompose.Temperature = -0.1 }, "stages.decompose.temperature"},
		{"unknown variant", func(c *Config) { c.Prompt.Variant = "fancy" }, "prompt.variant"},
		{"variant is case-insensitive", func(c *Config) { c.Prompt.Variant = "PLAIN" }, ""},
		{"unknown driver", func(c *Config) { c.State.Driver = "postgres" }, "state.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", "")
			cfg := Default()
			cfg.Anthropic.APIKey = "sk-ant-REDACTED"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigurationError", err)
			}
			if cfgErr.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", cfgErr.Key, tt.wantKey)
			}
		})
	}
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := Default()
	cfg.Anthropic.MaxTokens = 0
	cfg.State.Driver = "bogus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("expected joined error, got %T", err)
	}
	if n := len(joined.Unwrap()); n != 3 {
		t.Errorf("got %d problems, want 3 (key, max_tokens, driver)", n)
	}
	if !errors.Is(err, ErrNoAPIKey) {
		t.Error("missing credential should wrap ErrNoAPIKey")
	}
}
