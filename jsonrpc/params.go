package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Params represents the 'params' field of a JSON-RPC request.
//
// Only JSON formatting and the array-or-object rule of the JSON-RPC spec
// are enforced; method-specific validation belongs to the caller.
//
// See: https://www.jsonrpc.org/specification#parameter_structures
type Params struct {
	// rawMessage stores the value of the params field, e.g. ["0x1b4", true].
	rawMessage json.RawMessage
}

// NewParams wraps an already serialized params value.
func NewParams(rawMessage json.RawMessage) Params {
	return Params{rawMessage: rawMessage}
}

// BuildParams builds positional params from individually serialized values.
//
// For example, a `parity_setEngineSigner` call takes:
// params - ["0x407d73d8a49eeb85d32cf465507dd71d507100c1", "hunter2"]
//
// A call without arguments still produces an empty array, since several
// nodes reject requests whose params field is missing.
func BuildParams(values ...json.RawMessage) (Params, error) {
	if values == nil {
		values = []json.RawMessage{}
	}
	for i, value := range values {
		if !json.Valid(value) {
			return Params{}, fmt.Errorf("param at index %d is not valid JSON", i)
		}
	}
	bz, err := json.Marshal(values)
	if err != nil {
		return Params{}, err
	}
	return Params{rawMessage: bz}, nil
}

func (p Params) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	return p.rawMessage, nil
}

func (p *Params) UnmarshalJSON(data []byte) error {
	var checkType any
	if err := json.Unmarshal(data, &checkType); err != nil {
		return fmt.Errorf("failed to unmarshal params field: %w", err)
	}

	switch checkType.(type) {
	// The only valid types for params are an array or an object.
	case []any, map[string]any:
		p.rawMessage = append(json.RawMessage(nil), data...)
		return nil
	default:
		return fmt.Errorf("params must be either array or object, got %T", checkType)
	}
}

// IsEmpty returns true when params contains no data.
func (p Params) IsEmpty() bool {
	return len(p.rawMessage) == 0
}
