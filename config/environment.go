package config

import (
	"fmt"
	"time"

	"github.com/buildwithgrove/outcall/outcall"
	"github.com/buildwithgrove/outcall/replica"
)

const defaultRequestTimeout = 30 * time.Second

// EnvironmentConfig configures the in-process replicated environment.
type EnvironmentConfig struct {
	// Replicas is the number of independent fetches per outcall.
	Replicas int `yaml:"replicas"`
	// MaxWorkers bounds concurrent fetches across all outcalls.
	MaxWorkers int `yaml:"max_workers"`
	// RequestTimeout bounds a single replica fetch.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// InitialBalance is the decimal cycles balance outcalls are charged
	// against. Empty disables charging.
	InitialBalance string `yaml:"initial_balance"`
}

func (c *EnvironmentConfig) hydrateEnvironmentDefaults() {
	if c.Replicas == 0 {
		c.Replicas = replica.DefaultReplicas
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = replica.DefaultMaxWorkers
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
}

func (c EnvironmentConfig) validate() error {
	if c.Replicas < 1 {
		return fmt.Errorf("replicas must be positive, got %d", c.Replicas)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be positive, got %d", c.MaxWorkers)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if c.InitialBalance != "" {
		if _, err := outcall.ParseCost(c.InitialBalance); err != nil {
			return fmt.Errorf("invalid initial_balance: %w", err)
		}
	}
	return nil
}

// ledger returns nil when charging is disabled.
func (c EnvironmentConfig) ledger() (*replica.Ledger, error) {
	if c.InitialBalance == "" {
		return nil, nil
	}
	balance, err := outcall.ParseCost(c.InitialBalance)
	if err != nil {
		return nil, err
	}
	return replica.NewLedger(balance), nil
}
