// Package config handles configuration loading and management for agentflow.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ProjectConfigName is the per-project override file searched upward from the cwd.
const ProjectConfigName = ".agentflow.yaml"

// Config holds all configuration for agentflow.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Stages    StagesConfig    `mapstructure:"stages"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	State     StateConfig     `mapstructure:"state"`
	Log       LogConfig       `mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	BaseURL   string        `mapstructure:"base_url"`
	Bedrock   BedrockConfig `mapstructure:"bedrock"`
}

// BedrockConfig routes calls through AWS Bedrock instead of the direct API.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// StageConfig holds sampling settings for one stage.
type StageConfig struct {
	Temperature float64 `mapstructure:"temperature"`
}

// StagesConfig holds per-stage sampling settings.
type StagesConfig struct {
	Decompose StageConfig `mapstructure:"decompose"`
	Execute   StageConfig `mapstructure:"execute"`
	Summarize StageConfig `mapstructure:"summarize"`
}

// PromptConfig selects the prompt variant and answer language.
type PromptConfig struct {
	Variant  string `mapstructure:"variant"`
	Language string `mapstructure:"language"`
}

// StateConfig controls the run history journal.
type StateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Driver  string `mapstructure:"driver"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, AGENTFLOW_*)
// 2. Project config (.agentflow.yaml in current directory or parent)
// 3. User config (~/.config/agentflow/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// newViper builds the layered viper instance used by Load and Watch.
func newViper() (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)
	return v, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.State.Path = expandEnv(cfg.State.Path)
	cfg.Log.Path = expandEnv(cfg.Log.Path)

	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("AGENTFLOW")
	v.AutomaticEnv()

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "AGENTFLOW_MODEL")
	v.BindEnv("anthropic.base_url", "ANTHROPIC_BASE_URL")
	v.BindEnv("prompt.language", "AGENTFLOW_LANGUAGE")
	v.BindEnv("log.path", "AGENTFLOW_LOG")
}

// Watch calls onChange with the freshly decoded config whenever the user
// config file changes. A reload that fails to decode or validate goes to
// onError instead and onChange is not called. onError may be nil. Watch
// returns once the watch is registered; without a user config file on disk
// there is nothing to watch and it returns nil.
func Watch(onChange func(*Config), onError func(error)) error {
	v, err := newViper()
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}
	reject := func(err error) {
		if onError != nil {
			onError(err)
		}
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			reject(fmt.Errorf("decoding %s: %w", e.Name, err))
			return
		}
		if err := cfg.Validate(); err != nil {
			reject(fmt.Errorf("validating %s: %w", e.Name, err))
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.timeout", cfg.Anthropic.Timeout.String())
	v.Set("anthropic.base_url", cfg.Anthropic.BaseURL)
	v.Set("anthropic.bedrock.enabled", cfg.Anthropic.Bedrock.Enabled)
	v.Set("anthropic.bedrock.region", cfg.Anthropic.Bedrock.Region)
	v.Set("anthropic.bedrock.profile", cfg.Anthropic.Bedrock.Profile)
	v.Set("stages.decompose.temperature", cfg.Stages.Decompose.Temperature)
	v.Set("stages.execute.temperature", cfg.Stages.Execute.Temperature)
	v.Set("stages.summarize.temperature", cfg.Stages.Summarize.Temperature)
	v.Set("prompt.variant", cfg.Prompt.Variant)
	v.Set("prompt.language", cfg.Prompt.Language)
	v.Set("state.enabled", cfg.State.Enabled)
	v.Set("state.path", cfg.State.Path)
	v.Set("state.driver", cfg.State.Driver)
	v.Set("log.path", cfg.Log.Path)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.timeout", "2m")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.bedrock.enabled", false)
	v.SetDefault("anthropic.bedrock.region", "")
	v.SetDefault("anthropic.bedrock.profile", "")

	// Planning and execution lean deterministic, the report gets more fluent prose
	v.SetDefault("stages.decompose.temperature", 0.2)
	v.SetDefault("stages.execute.temperature", 0.3)
	v.SetDefault("stages.summarize.temperature", 0.7)

	v.SetDefault("prompt.variant", "roles")
	v.SetDefault("prompt.language", "English")

	v.SetDefault("state.enabled", true)
	v.SetDefault("state.path", defaultStatePath())
	v.SetDefault("state.driver", DriverModernc)

	v.SetDefault("log.path", defaultLogPath())
}

// getUserConfigDir returns the XDG config directory for agentflow.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentflow")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentflow")
	}
	return filepath.Join(home, ".config", "agentflow")
}

// defaultStatePath returns the XDG data path for the history database.
func defaultStatePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "agentflow", "history.db")
}

// defaultLogPath returns the XDG state path for the debug log.
func defaultLogPath() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "agentflow", "logs", "agentflow-debug.log")
}

// findProjectConfig searches for .agentflow.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
			Timeout:   2 * time.Minute,
		},
		Stages: StagesConfig{
			Decompose: StageConfig{Temperature: 0.2},
			Execute:   StageConfig{Temperature: 0.3},
			Summarize: StageConfig{Temperature: 0.7},
		},
		Prompt: PromptConfig{
			Variant:  "roles",
			Language: "English",
		},
		State: StateConfig{
			Enabled: true,
			Path:    defaultStatePath(),
			Driver:  DriverModernc,
		},
		Log: LogConfig{
			Path: defaultLogPath(),
		},
	}
}
