// Package replica is an in-process replicated execution environment for
// outcalls.
//
// Each outcall is fetched independently by every replica, transformed on
// each replica's own copy, and only returned once a Byzantine quorum of
// replicas produced byte-identical results.
package replica

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/buildwithgrove/outcall/metrics"
	httpclient "github.com/buildwithgrove/outcall/network/http"
	"github.com/buildwithgrove/outcall/outcall"
	"github.com/buildwithgrove/outcall/transform"
)

const (
	// DefaultReplicas matches the node count the cost formula assumes.
	DefaultReplicas = 13

	// DefaultMaxWorkers bounds concurrent replica fetches across all calls.
	DefaultMaxWorkers = 64
)

// Option configures an Environment.
type Option func(*Environment)

// WithReplicas sets how many replicas fetch every outcall.
func WithReplicas(n int) Option {
	return func(e *Environment) {
		if n > 0 {
			e.replicas = n
		}
	}
}

// WithMaxWorkers bounds the shared worker pool.
func WithMaxWorkers(n int) Option {
	return func(e *Environment) {
		if n > 0 {
			e.maxWorkers = n
		}
	}
}

// WithRequestTimeout bounds each replica's fetch.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Environment) {
		if d > 0 {
			e.requestTimeout = d
		}
	}
}

// WithLedger charges every accepted outcall against ledger.
func WithLedger(ledger *Ledger) Option {
	return func(e *Environment) {
		e.ledger = ledger
	}
}

// WithHTTPClient replaces the client replicas fetch with.
func WithHTTPClient(client *httpclient.Client) Option {
	return func(e *Environment) {
		e.httpClient = client
	}
}

// Environment implements outcall.Environment.
type Environment struct {
	logger   polylog.Logger
	registry *transform.Registry

	replicas       int
	maxWorkers     int
	requestTimeout time.Duration
	ledger         *Ledger
	httpClient     *httpclient.Client

	pool   pond.Pool
	closed atomic.Bool
}

var _ outcall.Environment = (*Environment)(nil)

// NewEnvironment returns an Environment resolving transforms in registry.
// Call Close to release its worker pool.
func NewEnvironment(logger polylog.Logger, registry *transform.Registry, opts ...Option) *Environment {
	e := &Environment{
		logger:         logger.With("component", "replica_environment"),
		registry:       registry,
		replicas:       DefaultReplicas,
		maxWorkers:     DefaultMaxWorkers,
		requestTimeout: httpclient.DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.httpClient == nil {
		e.httpClient = httpclient.NewClient(logger, e.requestTimeout)
	}
	e.pool = pond.NewPool(e.maxWorkers)

	return e
}

// Replicas returns the number of replicas per outcall.
func (e *Environment) Replicas() int {
	return e.replicas
}

// Name identifies the environment in health reports.
func (e *Environment) Name() string {
	return "replica_environment"
}

// IsAlive reports whether the environment still accepts outcalls.
func (e *Environment) IsAlive() bool {
	return !e.closed.Load()
}

// Close waits for in-flight fetches and stops the worker pool.
func (e *Environment) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.pool.StopAndWait()
	e.httpClient.CloseIdleConnections()
}

// HTTPRequest prices, charges, fans out and agrees on a single outcall.
func (e *Environment) HTTPRequest(ctx context.Context, req outcall.Request, cost outcall.Cost) (outcall.Response, error) {
	logger := e.logger.With("url", req.URL, "http_method", string(req.Method), "transform", req.Transform.Function)

	if e.closed.Load() {
		return outcall.Response{}, outcall.NewRejection(outcall.RejectionCodeSysTransient, "replicated environment is closed")
	}

	if err := req.Validate(); err != nil {
		return outcall.Response{}, outcall.NewRejection(outcall.RejectionCodeCanisterReject, "%v", err)
	}

	required, err := outcall.RequiredCost(req)
	if err != nil {
		return outcall.Response{}, outcall.NewRejection(outcall.RejectionCodeCanisterReject, "%v", err)
	}
	if cost.Less(required) {
		return outcall.Response{}, outcall.NewRejection(
			outcall.RejectionCodeCanisterReject,
			"http_request request sent with %s cycles, but %s cycles are required.", cost, required,
		)
	}

	if e.ledger != nil {
		if err := e.ledger.Debit(cost); err != nil {
			return outcall.Response{}, outcall.NewRejection(outcall.RejectionCodeCanisterReject, "%v", err)
		}
	}

	if err := validateDestination(req.URL); err != nil {
		return outcall.Response{}, err
	}

	results, err := e.fanOut(ctx, logger, req)
	if err != nil {
		return outcall.Response{}, outcall.NewRejection(outcall.RejectionCodeSysTransient, "replicas unavailable: %v", err)
	}
	return e.agree(logger, results)
}

// replicaResult is one replica's outcome; exactly one field is set.
type replicaResult struct {
	response  outcall.Response
	rejection *outcall.RejectionError
}

func (e *Environment) fanOut(ctx context.Context, logger polylog.Logger, req outcall.Request) ([]replicaResult, error) {
	group := e.pool.NewGroup()

	// Each task writes to its own index.
	results := make([]replicaResult, e.replicas)
	for i := range results {
		group.Submit(func() {
			results[i] = e.runReplica(ctx, logger.With("replica", i), req)
		})
	}

	// Replica failures are reported through results; an error here means
	// the pool is stopped.
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Environment) runReplica(ctx context.Context, logger polylog.Logger, req outcall.Request) replicaResult {
	ctx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	header := make(http.Header, len(req.Headers))
	for _, h := range req.Headers {
		header.Add(h.Name, h.Value)
	}

	raw, err := e.httpClient.Do(ctx, string(req.Method), req.URL, header, req.Body, req.MaxResponseBytes)
	metrics.PublishReplicaFetch(err == nil)
	if err != nil {
		code := outcall.RejectionCodeSysTransient
		if errors.Is(err, httpclient.ErrResponseTooLarge) {
			code = outcall.RejectionCodeSysFatal
		}
		logger.Debug().Err(err).Msg("replica fetch failed")
		return replicaResult{rejection: outcall.NewRejection(code, "%v", err)}
	}

	transformed, err := e.registry.Apply(req.Transform, outcall.Response{
		Status:  raw.StatusCode,
		Headers: sortedHeaders(raw.Header),
		Body:    raw.Body,
	})
	if err != nil {
		logger.Debug().Err(err).Msg("replica transform failed")
		return replicaResult{rejection: outcall.NewRejection(outcall.RejectionCodeCanisterError, "%v", err)}
	}

	return replicaResult{response: transformed}
}

// agree returns the response shared by at least 2f+1 replicas.
func (e *Environment) agree(logger polylog.Logger, results []replicaResult) (outcall.Response, error) {
	quorum := QuorumSize(len(results))

	type group struct {
		response outcall.Response
		count    int
	}
	groups := make(map[[sha256.Size]byte]*group)
	rejections := make(map[outcall.RejectionCode][]*outcall.RejectionError)

	largest := 0
	for _, result := range results {
		if result.rejection != nil {
			rejections[result.rejection.Code] = append(rejections[result.rejection.Code], result.rejection)
			continue
		}

		key := digest(result.response)
		g, ok := groups[key]
		if !ok {
			g = &group{response: result.response}
			groups[key] = g
		}
		g.count++
		largest = max(largest, g.count)

		if g.count >= quorum {
			metrics.PublishReplicaAgreement(g.count, len(results))
			return g.response, nil
		}
	}

	metrics.PublishReplicaAgreement(largest, len(results))
	logger.Warn().
		Int("replicas", len(results)).
		Int("quorum", quorum).
		Int("largest_agreement", largest).
		Int("rejections", countRejections(rejections)).
		Msg("replicas did not reach agreement")

	if rejection := mostCommonRejection(rejections); rejection != nil {
		return outcall.Response{}, rejection
	}
	return outcall.Response{}, outcall.NewRejection(
		outcall.RejectionCodeSysTransient,
		"no consensus was reached: %d of %d replicas agreed, %d required", largest, len(results), quorum,
	)
}

// QuorumSize returns 2f+1 for n replicas tolerating f = (n-1)/3 faults.
func QuorumSize(n int) int {
	f := (n - 1) / 3
	return 2*f + 1
}

func validateDestination(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return outcall.NewRejection(outcall.RejectionCodeDestinationInvalid, "invalid url %q: %v", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return outcall.NewRejection(outcall.RejectionCodeDestinationInvalid, "unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return outcall.NewRejection(outcall.RejectionCodeDestinationInvalid, "url %q has no host", rawURL)
	}
	return nil
}

// sortedHeaders flattens h in name order so identical responses produce
// identical header lists.
func sortedHeaders(h http.Header) []outcall.Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]outcall.Header, 0, len(h))
	for _, name := range names {
		for _, value := range h[name] {
			headers = append(headers, outcall.Header{Name: name, Value: value})
		}
	}
	return headers
}

func digest(resp outcall.Response) [sha256.Size]byte {
	// Marshaling a struct of ints, strings and byte slices cannot fail.
	bz, _ := json.Marshal(resp)
	return sha256.Sum256(bz)
}

func countRejections(rejections map[outcall.RejectionCode][]*outcall.RejectionError) int {
	total := 0
	for _, r := range rejections {
		total += len(r)
	}
	return total
}

// mostCommonRejection breaks ties on the lower code.
func mostCommonRejection(rejections map[outcall.RejectionCode][]*outcall.RejectionError) *outcall.RejectionError {
	var (
		best     *outcall.RejectionError
		bestCode outcall.RejectionCode
		bestLen  int
	)
	for code, rs := range rejections {
		if len(rs) > bestLen || (len(rs) == bestLen && code < bestCode) {
			best, bestCode, bestLen = rs[0], code, len(rs)
		}
	}
	return best
}
