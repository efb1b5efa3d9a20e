package config

import (
	"errors"
	"fmt"
	"strings"
)

// History database drivers.
const (
	// DriverModernc is the pure-Go modernc.org/sqlite driver.
	DriverModernc = "sqlite"
	// DriverCgo is the cgo-based mattn/go-sqlite3 driver.
	DriverCgo = "sqlite3"
)

// ConfigurationError is fatal at startup: no run can start until it is fixed.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Validate checks that the configuration can start runs. The credential is
// required unless Bedrock is enabled, which authenticates with AWS credentials.
func (c *Config) Validate() error {
	var errs []error

	if !c.Anthropic.Bedrock.Enabled {
		if _, err := GetAPIKey(c); err != nil {
			errs = append(errs, &ConfigurationError{
				Key: "anthropic.api_key",
				Err: fmt.Errorf("%w (set ANTHROPIC_API_KEY or anthropic.api_key in %s)", err, GetUserConfigPath()),
			})
		}
	}

	if c.Anthropic.MaxTokens <= 0 {
		errs = append(errs, &ConfigurationError{Key: "anthropic.max_tokens", Err: errors.New("must be positive")})
	}
	if c.Anthropic.Timeout <= 0 {
		errs = append(errs, &ConfigurationError{Key: "anthropic.timeout", Err: errors.New("must be positive")})
	}

	temps := []struct {
		key   string
		value float64
	}{
		{"stages.decompose.temperature", c.Stages.Decompose.Temperature},
		{"stages.execute.temperature", c.Stages.Execute.Temperature},
		{"stages.summarize.temperature", c.Stages.Summarize.Temperature},
	}
	for _, tt := range temps {
		if tt.value < 0 || tt.value > 1 {
			errs = append(errs, &ConfigurationError{Key: tt.key, Err: fmt.Errorf("%v outside [0, 1]", tt.value)})
		}
	}

	switch strings.ToLower(c.Prompt.Variant) {
	case "", "plain", "roles":
	default:
		errs = append(errs, &ConfigurationError{Key: "prompt.variant", Err: fmt.Errorf("unknown variant %q", c.Prompt.Variant)})
	}

	switch c.State.Driver {
	case "", DriverModernc, DriverCgo:
	default:
		errs = append(errs, &ConfigurationError{Key: "state.driver", Err: fmt.Errorf("unknown driver %q", c.State.Driver)})
	}

	return errors.Join(errs...)
}
