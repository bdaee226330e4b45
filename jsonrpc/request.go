// Package jsonrpc contains the JSON-RPC 2.0 envelope used as the body of
// every outcall and as the expected shape of every upstream response.
//
// See: https://www.jsonrpc.org/specification
package jsonrpc

import (
	"encoding/json"
)

// Method is the method specified by a JSON-RPC request, e.g. "net_version".
type Method string

// Version is the value of the "jsonrpc" field.
type Version string

const Version2 = Version("2.0")

// Request represents a JSON-RPC 2.0 request.
//
// Serialization requirements:
//   - jsonrpc: always "2.0" for requests built by NewRequest
//   - method: string containing the method name
//   - params: array or object, omitted when unset
//   - id: always included, null if unset
type Request struct {
	ID      ID      `json:"id"`
	JSONRPC Version `json:"jsonrpc"`
	Method  Method  `json:"method"`
	Params  Params  `json:"params,omitempty"`
}

// NewRequest builds a JSON-RPC 2.0 request.
func NewRequest(id ID, method Method, params Params) Request {
	return Request{
		ID:      id,
		JSONRPC: Version2,
		Method:  method,
		Params:  params,
	}
}

// MarshalJSON keeps a fixed field order so that identical requests always
// serialize to identical bytes.
func (r Request) MarshalJSON() ([]byte, error) {
	type requestAlias struct {
		JSONRPC Version `json:"jsonrpc"`
		Method  Method  `json:"method"`
		Params  *Params `json:"params,omitempty"`
		ID      ID      `json:"id"`
	}

	out := requestAlias{
		JSONRPC: r.JSONRPC,
		Method:  r.Method,
		ID:      r.ID,
	}
	if !r.Params.IsEmpty() {
		out.Params = &r.Params
	}

	return json.Marshal(out)
}
