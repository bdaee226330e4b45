package outcall

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/buildwithgrove/outcall/jsonrpc"
)

// Transport is the uniform call primitive used by namespace bindings: one
// JSON-RPC method call POSTed to a fixed URL.
type Transport struct {
	client *Client
	url    string
	nextID atomic.Int64
}

// NewTransport returns a Transport posting to url through client.
func NewTransport(client *Client, url string) *Transport {
	return &Transport{client: client, url: url}
}

// URL returns the endpoint the transport posts to.
func (t *Transport) URL() string {
	return t.url
}

// Execute calls method with positional params and returns the raw result.
// A JSON-RPC error object is returned as *jsonrpc.ResponseError.
func (t *Transport) Execute(
	ctx context.Context,
	method string,
	params []json.RawMessage,
	options CallOptions,
) (json.RawMessage, error) {
	builtParams, err := jsonrpc.BuildParams(params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	id := jsonrpc.IDFromInt(int(t.nextID.Add(1)))
	request := jsonrpc.NewRequest(id, jsonrpc.Method(method), builtParams)

	body, err := t.client.Post(ctx, t.url, request, options)
	if err != nil {
		return nil, err
	}

	return decodeResult(body)
}

// decodeResult extracts the result of a JSON-RPC response body.
//
// The ID is not checked against the request: transforms may canonicalize
// it and every replica already agreed on the body.
func decodeResult(body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrInvalidResponse)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrInvalidResponse)
	}
	if !parsed.Get("result").Exists() && !parsed.Get("error").Exists() {
		return nil, fmt.Errorf("%w: neither result nor error is set", ErrInvalidResponse)
	}

	var response jsonrpc.Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if response.IsError() {
		return nil, response.Error
	}
	return json.RawMessage(response.GetResultAsBytes()), nil
}
