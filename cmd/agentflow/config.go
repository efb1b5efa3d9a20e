package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentflow/internal/config"
)

// configKeys lists the keys shown by 'agentflow config', in display order.
var configKeys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.max_tokens",
	"anthropic.timeout",
	"anthropic.base_url",
	"anthropic.bedrock.enabled",
	"anthropic.bedrock.region",
	"anthropic.bedrock.profile",
	"stages.decompose.temperature",
	"stages.execute.temperature",
	"stages.summarize.temperature",
	"prompt.variant",
	"prompt.language",
	"state.enabled",
	"state.path",
	"state.driver",
	"log.path",
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify agentflow configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/agentflow/config.yaml
Project-specific overrides can be placed in .agentflow.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			return displayAllConfig(out, cfg)
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "warning: %v\n", err)
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
			return nil
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(out io.Writer, cfg *config.Config) error {
	for _, key := range configKeys {
		value, err := getConfigValue(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", key, value)
	}
	fmt.Fprintf(out, "\napi key source: %s\n", config.GetAPIKeySource(cfg))
	if warning := apiKeyWarning(cfg); warning != "" {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	fmt.Fprintf(out, "user config: %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Fprintf(out, "project config: %s\n", p)
	}
	return nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return "(not set)", nil
		}
		return config.MaskAPIKey(key), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.max_tokens":
		return strconv.FormatInt(cfg.Anthropic.MaxTokens, 10), nil
	case "anthropic.timeout":
		return cfg.Anthropic.Timeout.String(), nil
	case "anthropic.base_url":
		return cfg.Anthropic.BaseURL, nil
	case "anthropic.bedrock.enabled":
		return strconv.FormatBool(cfg.Anthropic.Bedrock.Enabled), nil
	case "anthropic.bedrock.region":
		return cfg.Anthropic.Bedrock.Region, nil
	case "anthropic.bedrock.profile":
		return cfg.Anthropic.Bedrock.Profile, nil
	case "stages.decompose.temperature":
		return formatFloat(cfg.Stages.Decompose.Temperature), nil
	case "stages.execute.temperature":
		return formatFloat(cfg.Stages.Execute.Temperature), nil
	case "stages.summarize.temperature":
		return formatFloat(cfg.Stages.Summarize.Temperature), nil
	case "prompt.variant":
		return cfg.Prompt.Variant, nil
	case "prompt.language":
		return cfg.Prompt.Language, nil
	case "state.enabled":
		return strconv.FormatBool(cfg.State.Enabled), nil
	case "state.path":
		return cfg.State.Path, nil
	case "state.driver":
		return cfg.State.Driver, nil
	case "log.path":
		return cfg.Log.Path, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.max_tokens":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for max_tokens: %w", err)
		}
		cfg.Anthropic.MaxTokens = n
	case "anthropic.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for timeout: %w", err)
		}
		cfg.Anthropic.Timeout = d
	case "anthropic.base_url":
		cfg.Anthropic.BaseURL = value
	case "anthropic.bedrock.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for bedrock.enabled: %w", err)
		}
		cfg.Anthropic.Bedrock.Enabled = b
	case "anthropic.bedrock.region":
		cfg.Anthropic.Bedrock.Region = value
	case "anthropic.bedrock.profile":
		cfg.Anthropic.Bedrock.Profile = value
	case "stages.decompose.temperature":
		return setTemperature(&cfg.Stages.Decompose.Temperature, value)
	case "stages.execute.temperature":
		return setTemperature(&cfg.Stages.Execute.Temperature, value)
	case "stages.summarize.temperature":
		return setTemperature(&cfg.Stages.Summarize.Temperature, value)
	case "prompt.variant":
		cfg.Prompt.Variant = value
	case "prompt.language":
		cfg.Prompt.Language = value
	case "state.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for state.enabled: %w", err)
		}
		cfg.State.Enabled = b
	case "state.path":
		cfg.State.Path = value
	case "state.driver":
		cfg.State.Driver = value
	case "log.path":
		cfg.Log.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setTemperature(dst *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid temperature: %w", err)
	}
	*dst = f
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
