package http

import "errors"

var (
	// ErrResponseTooLarge is returned when the response body exceeds the
	// caller's limit. The partial body is discarded.
	ErrResponseTooLarge = errors.New("response body exceeds max response bytes")

	// ErrRequestTimeout is returned when the request context expired before
	// a response was read.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrConnection covers every other transport failure: DNS, dial, TLS,
	// reset connections and invalid URLs.
	ErrConnection = errors.New("connection error")
)
