package outcall

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPMethod is the HTTP method of an outcall. Only GET and POST are
// accepted by the execution environment.
type HTTPMethod string

const (
	MethodGet  HTTPMethod = http.MethodGet
	MethodPost HTTPMethod = http.MethodPost
)

// DefaultTransformName is the transform applied when a call does not pick
// one. It forwards the response unchanged.
const DefaultTransformName = "transform"

// Header is a single HTTP header. Headers are kept as an ordered list so
// that every replica encodes the same request identically.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TransformContext references a registered transform, plus opaque bytes
// handed back to it on every invocation.
type TransformContext struct {
	Function string `json:"function"`
	Context  []byte `json:"context"`
}

// DefaultTransform returns the reference to the pass-through transform.
func DefaultTransform() TransformContext {
	return TransformContext{Function: DefaultTransformName}
}

// Request is the envelope handed to the execution environment.
type Request struct {
	URL              string           `json:"url"`
	Method           HTTPMethod       `json:"method"`
	Headers          []Header         `json:"headers"`
	Body             []byte           `json:"body"`
	MaxResponseBytes uint64           `json:"max_response_bytes"`
	Transform        TransformContext `json:"transform"`
}

// Encode serializes the request into the bytes the cost formula is
// computed over. Struct fields are emitted in declaration order and byte
// slices as base64, so the output only depends on the request contents.
func (r Request) Encode() ([]byte, error) {
	bz, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode outcall request: %w", err)
	}
	return bz, nil
}

// Validate enforces the envelope invariants.
func (r Request) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidRequest)
	}
	if r.Method != MethodGet && r.Method != MethodPost {
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, r.Method)
	}
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	if r.MaxResponseBytes == 0 {
		return fmt.Errorf("%w: max response bytes must be positive", ErrInvalidRequest)
	}
	if r.Transform.Function == "" {
		return fmt.Errorf("%w: missing transform function", ErrInvalidRequest)
	}
	return nil
}

// Response is what a replica observed, before and after transformation.
type Response struct {
	Status  int      `json:"status"`
	Headers []Header `json:"headers"`
	Body    []byte   `json:"body"`
}
