package config

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/buildwithgrove/outcall/health"
	"github.com/buildwithgrove/outcall/metrics"
	"github.com/buildwithgrove/outcall/outcall"
	"github.com/buildwithgrove/outcall/replica"
	"github.com/buildwithgrove/outcall/transform"
)

// healthzEndpoint is served next to /metrics when metrics are enabled.
const healthzEndpoint = "/healthz"

// Components are the wired parts described by an OutcallConfig.
type Components struct {
	Logger      polylog.Logger
	Registry    *transform.Registry
	Ledger      *replica.Ledger // nil when charging is disabled
	Environment *replica.Environment
	Client      *outcall.Client
}

// Build wires a logger, transform registry, ledger, environment and client.
// The metrics server, if configured, runs until ctx is done.
func (c OutcallConfig) Build(ctx context.Context) (*Components, error) {
	logger := c.Logger.NewLogger()

	registry := transform.NewRegistry(logger)

	// Sorted so that registration logs are stable.
	names := make([]string, 0, len(c.Transforms))
	for name := range c.Transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		transformConfig, err := c.Transforms[name].build()
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", name, err)
		}
		if err := registry.RegisterConfig(name, transformConfig); err != nil {
			return nil, err
		}
	}

	ledger, err := c.Environment.ledger()
	if err != nil {
		return nil, fmt.Errorf("invalid initial_balance: %w", err)
	}

	envOpts := []replica.Option{
		replica.WithReplicas(c.Environment.Replicas),
		replica.WithMaxWorkers(c.Environment.MaxWorkers),
		replica.WithRequestTimeout(c.Environment.RequestTimeout),
	}
	if ledger != nil {
		envOpts = append(envOpts, replica.WithLedger(ledger))
	}
	environment := replica.NewEnvironment(logger, registry, envOpts...)

	client := outcall.NewClient(logger, environment, outcall.WithMaxResponseBytes(c.Client.MaxResponseBytes))

	if c.Metrics.Enabled() {
		checker := &health.Checker{
			Logger:            logger,
			Components:        []health.Check{environment},
			TransformReporter: registry,
		}
		if ledger != nil {
			checker.Components = append(checker.Components, ledger)
		}

		mux := metrics.NewHandler(c.Metrics.PprofEnabled)
		mux.HandleFunc(healthzEndpoint, checker.HealthzHandler)
		metrics.ServeMetrics(ctx, logger, c.Metrics.Addr, mux)
	}

	logger.Info().
		Int("replicas", environment.Replicas()).
		Uint64("max_response_bytes", client.MaxResponseBytes()).
		Bool("charging", ledger != nil).
		Str("transforms", strings.Join(registry.Names(), ",")).
		Msg("outcall components ready")

	return &Components{
		Logger:      logger,
		Registry:    registry,
		Ledger:      ledger,
		Environment: environment,
		Client:      client,
	}, nil
}

// Close releases the environment's worker pool and connections.
func (c *Components) Close() {
	c.Environment.Close()
}
