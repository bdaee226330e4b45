package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/pokt-network/poktroll/pkg/polylog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	endpointMetrics = "/metrics"
	endpointPprof   = "/debug/pprof/"
)

// NewHandler returns the mux serving /metrics and, if enabled, pprof.
// Callers may register further routes on it.
func NewHandler(pprofEnabled bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(endpointMetrics, promhttp.Handler())

	if pprofEnabled {
		mux.HandleFunc(endpointPprof, pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// ServeMetrics serves handler on addr in a new goroutine and stops it when
// ctx is done.
func ServeMetrics(ctx context.Context, logger polylog.Logger, addr string, handler http.Handler) {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("endpoint_addr", addr).Msg("starting Prometheus metrics server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("endpoint_addr", addr).Msg("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info().Str("endpoint_addr", addr).Msg("stopping metrics server")
		_ = server.Shutdown(context.Background())
	}()
}
