// Package outcall builds, prices and dispatches HTTP outcalls carrying a
// JSON-RPC payload.
//
// Every replica of the calling logic must see the same response, so every
// call names a transform that the execution environment runs on each
// replica's copy of the raw response before agreement.
package outcall

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/buildwithgrove/outcall/jsonrpc"
	"github.com/buildwithgrove/outcall/metrics"
)

// DefaultMaxResponseBytes is the response cap used when neither the client
// nor the call options set one.
const DefaultMaxResponseBytes uint64 = 500_000

const contentTypeJSON = "application/json"

// Client issues JSON-RPC outcalls through an Environment.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	logger           polylog.Logger
	env              Environment
	maxResponseBytes uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMaxResponseBytes sets the client-wide default response cap.
func WithMaxResponseBytes(n uint64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

// NewClient returns a Client dispatching through env.
func NewClient(logger polylog.Logger, env Environment, opts ...ClientOption) *Client {
	c := &Client{
		logger:           logger.With("component", "outcall_client"),
		env:              env,
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxResponseBytes returns the client-wide default response cap.
func (c *Client) MaxResponseBytes() uint64 {
	return c.maxResponseBytes
}

// Get issues a GET outcall carrying payload as its body.
func (c *Client) Get(ctx context.Context, url string, payload jsonrpc.Request, options CallOptions) ([]byte, error) {
	headers := []Header{{Name: "Content-Type", Value: contentTypeJSON}}
	return c.request(ctx, url, MethodGet, headers, payload, options)
}

// Post issues a POST outcall carrying payload as its body.
func (c *Client) Post(ctx context.Context, url string, payload jsonrpc.Request, options CallOptions) ([]byte, error) {
	headers := []Header{{Name: "Content-Type", Value: contentTypeJSON}}
	return c.request(ctx, url, MethodPost, headers, payload, options)
}

func (c *Client) request(
	ctx context.Context,
	url string,
	method HTTPMethod,
	headers []Header,
	payload jsonrpc.Request,
	options CallOptions,
) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", ErrInvalidRequest, err)
	}

	req := c.buildRequest(url, method, headers, body, options)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cost, ok := options.Cost()
	if !ok {
		if cost, err = RequiredCost(req); err != nil {
			return nil, err
		}
	}

	logger := c.logger.With(
		"url", url,
		"http_method", string(method),
		"rpc_method", string(payload.Method),
		"cost", cost.String(),
		"max_response_bytes", req.MaxResponseBytes,
		"transform", req.Transform.Function,
	)
	logger.Debug().Msg("dispatching outcall")

	startTime := time.Now()
	resp, err := c.env.HTTPRequest(ctx, req, cost)
	duration := time.Since(startTime)

	if err != nil {
		code := RejectionCodeOf(err)
		logger.Error().Err(err).Str("rejection_code", code.String()).Msg("outcall rejected")
		metrics.PublishOutcall(string(method), code.String(), cost.Float64(), 0, duration)
		return nil, err
	}

	logger.Debug().Int("status", resp.Status).Int("response_size", len(resp.Body)).Msg("outcall completed")
	metrics.PublishOutcall(string(method), "", cost.Float64(), len(resp.Body), duration)
	return resp.Body, nil
}

// buildRequest assembles the envelope, resolving every option against the
// client defaults.
func (c *Client) buildRequest(url string, method HTTPMethod, headers []Header, body []byte, options CallOptions) Request {
	maxResponseBytes, ok := options.MaxResponseBytes()
	if !ok {
		maxResponseBytes = c.maxResponseBytes
	}

	transform, ok := options.Transform()
	if !ok {
		transform = DefaultTransform()
	}

	return Request{
		URL:              url,
		Method:           method,
		Headers:          headers,
		Body:             body,
		MaxResponseBytes: maxResponseBytes,
		Transform:        transform,
	}
}
