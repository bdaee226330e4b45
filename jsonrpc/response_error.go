package jsonrpc

import "fmt"

// ResponseError captures a JSON-RPC response error object.
// See: https://www.jsonrpc.org/specification#error_object
type ResponseError struct {
	// A Number that indicates the error type that occurred.
	Code int `json:"code"`
	// A String providing a short description of the error.
	Message string `json:"message"`
	// Additional information about the error, defined by the server.
	Data any `json:"data,omitempty"`
}

// Error lets a JSON-RPC error object be returned as a Go error to callers
// of the outcall transport.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}
