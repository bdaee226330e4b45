// Package config loads the outcall configuration from YAML, applies
// environment overrides and wires the components it describes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Nested keys are joined
// with "__", e.g. OUTCALL_CLIENT_CONFIG__MAX_RESPONSE_BYTES=10000.
const EnvPrefix = "OUTCALL_"

const envKeyDelimiter = "__"

/* ---------------------------------  Outcall Config Struct -------------------------------- */

// OutcallConfig is the top level configuration parsed from a YAML file.
type OutcallConfig struct {
	Logger      LoggerConfig      `yaml:"logger_config"`
	Client      ClientConfig      `yaml:"client_config"`
	Environment EnvironmentConfig `yaml:"environment_config"`
	Metrics     MetricsConfig     `yaml:"metrics_config"`

	// Transforms registers additional processors by name, next to the
	// built-in ones.
	Transforms map[string]TransformConfig `yaml:"transforms"`
}

// LoadOutcallConfigFromYAML reads the YAML file at path, applies OUTCALL_*
// environment overrides, hydrates defaults and validates the result.
//
// Unknown YAML fields are rejected so that typos do not silently fall back
// to defaults.
func LoadOutcallConfigFromYAML(path string) (OutcallConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OutcallConfig{}, err
	}

	var config OutcallConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return OutcallConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := config.applyEnvOverrides(); err != nil {
		return OutcallConfig{}, err
	}

	config.hydrateDefaults()
	return config, config.validate()
}

/* --------------------------------- Outcall Config Hydration Helpers -------------------------------- */

// applyEnvOverrides decodes OUTCALL_* variables on top of the YAML values.
// Fields without a matching variable are left untouched.
func (c *OutcallConfig) applyEnvOverrides() error {
	k := koanf.New(".")

	provider := env.Provider(EnvPrefix, envKeyDelimiter, func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if len(k.Keys()) == 0 {
		return nil
	}

	if err := k.UnmarshalWithConf("", c, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

func (c *OutcallConfig) hydrateDefaults() {
	c.Logger.hydrateLoggerDefaults()
	c.Client.hydrateClientDefaults()
	c.Environment.hydrateEnvironmentDefaults()
}

/* --------------------------------- Outcall Config Validation Helpers -------------------------------- */

func (c OutcallConfig) validate() error {
	if err := c.Logger.validate(); err != nil {
		return err
	}
	if err := c.Client.validate(); err != nil {
		return err
	}
	if err := c.Environment.validate(); err != nil {
		return err
	}
	if err := c.Metrics.validate(); err != nil {
		return err
	}
	return validateTransforms(c.Transforms)
}
