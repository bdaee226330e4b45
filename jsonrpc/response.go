package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errResponseVersion       = errors.New("jsonrpc field is not 2.0")
	errResponseResultOrError = errors.New("exactly one of result or error must be set")
	errResponseIDMismatch    = errors.New("response id does not match request id")
)

// Response captures all the fields of a JSON-RPC response.
//
// See: https://www.jsonrpc.org/specification#response_object
type Response struct {
	ID      ID      `json:"id"`
	Version Version `json:"jsonrpc"`
	// Result is kept raw: decoding it into a typed value is up to the caller.
	Result *json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError   `json:"error,omitempty"`
}

// UnmarshalJSON keeps a present-but-null result distinct from a missing one.
func (r *Response) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID      ID              `json:"id"`
		Version Version         `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *ResponseError  `json:"error"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = Response{
		ID:      aux.ID,
		Version: aux.Version,
		Error:   aux.Error,
	}
	if len(aux.Result) > 0 {
		result := aux.Result
		r.Result = &result
	}
	return nil
}

// Validate checks the response against the request it answers.
func (r Response) Validate(reqID ID) error {
	if r.Version != Version2 {
		return fmt.Errorf("invalid JSON-RPC response: %w: got %q", errResponseVersion, r.Version)
	}

	if (r.Result == nil) == (r.Error == nil) {
		return fmt.Errorf("invalid JSON-RPC response: %w", errResponseResultOrError)
	}

	if !r.ID.Equal(reqID) {
		return fmt.Errorf("invalid JSON-RPC response: %w: want %s, got %s", errResponseIDMismatch, reqID, r.ID)
	}

	return nil
}

// IsError returns true if the response carries an error object.
func (r Response) IsError() bool {
	return r.Error != nil
}

// GetResultAsBytes returns the raw result, or nil for error responses.
func (r Response) GetResultAsBytes() []byte {
	if r.Result == nil {
		return nil
	}
	return *r.Result
}
