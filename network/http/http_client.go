// Package http performs the single-replica HTTP fetch behind an outcall.
//
// Every replica issues its own request, so the client is safe for
// concurrent use and reads bodies through a shared buffer pool.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/buildwithgrove/outcall/network/concurrency"
)

// DefaultRequestTimeout bounds a single fetch when the caller's context
// carries no deadline.
const DefaultRequestTimeout = 30 * time.Second

// Response is the raw, untransformed result of a fetch.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client fetches URLs with a per-call body size cap.
type Client struct {
	logger     polylog.Logger
	httpClient *http.Client
	bufferPool *concurrency.BufferPool

	// Atomic counters, reported when a request fails.
	activeRequests   int64
	totalRequests    int64
	timeoutErrors    int64
	connectionErrors int64
}

// NewClient returns a Client whose transport is tuned for many concurrent
// requests to the same few hosts. A zero timeout uses DefaultRequestTimeout.
func NewClient(logger polylog.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	return &Client{
		logger: logger.With("component", "http_client"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		bufferPool: concurrency.NewBufferPool(),
	}
}

// Do sends a single request and reads at most maxResponseBytes of body.
// Non-2xx statuses are returned as regular responses.
func (c *Client) Do(
	ctx context.Context,
	method string,
	endpointURL string,
	header http.Header,
	body []byte,
	maxResponseBytes uint64,
) (Response, error) {
	atomic.AddInt64(&c.activeRequests, 1)
	atomic.AddInt64(&c.totalRequests, 1)
	defer atomic.AddInt64(&c.activeRequests, -1)

	startTime := time.Now()
	resp, err := c.do(ctx, method, endpointURL, header, body, maxResponseBytes)
	if err != nil {
		c.logFailure(endpointURL, time.Since(startTime), err)
		return Response{}, err
	}
	return resp, nil
}

func (c *Client) do(
	ctx context.Context,
	method string,
	endpointURL string,
	header http.Header,
	body []byte,
	maxResponseBytes uint64,
) (Response, error) {
	if _, err := url.ParseRequestURI(endpointURL); err != nil {
		return Response{}, fmt.Errorf("%w: invalid URL %q: %v", ErrConnection, endpointURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpointURL, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: failed to create HTTP request: %v", ErrConnection, err)
	}
	for name, values := range header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, c.categorizeError(ctx, err)
	}
	defer resp.Body.Close()

	responseBody, err := c.bufferPool.ReadCapped(resp.Body, maxResponseBytes)
	if err != nil {
		if errors.Is(err, concurrency.ErrBodyTooLarge) {
			return Response{}, fmt.Errorf("%w: %v", ErrResponseTooLarge, err)
		}
		return Response{}, c.categorizeError(ctx, fmt.Errorf("failed to read response body: %w", err))
	}

	return Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       responseBody,
	}, nil
}

// categorizeError splits transport failures into timeouts and everything else.
func (c *Client) categorizeError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		atomic.AddInt64(&c.timeoutErrors, 1)
		return fmt.Errorf("%w: %v", ErrRequestTimeout, err)
	}
	atomic.AddInt64(&c.connectionErrors, 1)
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

func (c *Client) logFailure(endpointURL string, elapsed time.Duration, err error) {
	c.logger.With(
		"url", endpointURL,
		"total_ms", elapsed.Milliseconds(),
		"active_requests", atomic.LoadInt64(&c.activeRequests),
		"total_requests", atomic.LoadInt64(&c.totalRequests),
		"timeout_errors", atomic.LoadInt64(&c.timeoutErrors),
		"connection_errors", atomic.LoadInt64(&c.connectionErrors),
	).Warn().Err(err).Msg("HTTP request failed")
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
