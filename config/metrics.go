package config

import (
	"fmt"
	"net"
)

// MetricsConfig configures the Prometheus endpoint. Metrics are collected
// regardless; an empty Addr only disables serving them.
type MetricsConfig struct {
	Addr         string `yaml:"addr"`
	PprofEnabled bool   `yaml:"pprof_enabled"`
}

// Enabled reports whether the metrics server should be started.
func (c MetricsConfig) Enabled() bool {
	return c.Addr != ""
}

func (c MetricsConfig) validate() error {
	if !c.Enabled() {
		if c.PprofEnabled {
			return fmt.Errorf("pprof_enabled requires metrics_config.addr")
		}
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid metrics addr %q: %w", c.Addr, err)
	}
	return nil
}
