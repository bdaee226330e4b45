// Package transform normalizes raw JSON-RPC responses so that every replica
// of an outcall ends up with byte-identical bodies.
//
// A Processor rewrites the fields known to vary between nodes serving the
// same request (transaction and log indexes) to a fixed placeholder, then
// re-serializes the body canonically.
package transform

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pokt-network/poktroll/pkg/polylog"
	"github.com/tidwall/gjson"

	"github.com/buildwithgrove/outcall/log"
	"github.com/buildwithgrove/outcall/outcall"
)

const (
	fieldResult           = "result"
	fieldTransactionIndex = "transactionIndex"
	fieldLogIndex         = "logIndex"

	// canonicalIndex replaces every non-deterministic index.
	canonicalIndex = "0x0"
)

// Shape is the expected JSON type of the response's result field.
type Shape int

const (
	// ShapeObject expects result to be a single object.
	ShapeObject Shape = iota
	// ShapeArray expects result to be an array of objects.
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape parses "object" or "array", case-insensitively.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "object":
		return ShapeObject, nil
	case "array":
		return ShapeArray, nil
	default:
		return 0, fmt.Errorf("unknown transform shape %q", s)
	}
}

// Config selects the result shape and which index fields are rewritten.
// Use a Builder or one of the presets to obtain one.
type Config struct {
	shape            Shape
	transactionIndex bool
	logIndex         bool
}

func (c Config) Shape() Shape           { return c.shape }
func (c Config) TransactionIndex() bool { return c.transactionIndex }
func (c Config) LogIndex() bool         { return c.logIndex }

// Builder assembles a Config. Both index flags default to false.
type Builder struct {
	config Config
}

// NewBuilder starts a Config for the given shape.
func NewBuilder(shape Shape) *Builder {
	return &Builder{config: Config{shape: shape}}
}

// TransactionIndex sets whether transactionIndex is rewritten.
func (b *Builder) TransactionIndex(enabled bool) *Builder {
	b.config.transactionIndex = enabled
	return b
}

// LogIndex sets whether logIndex is rewritten. Only array results carry
// log entries, so the flag is ignored for ShapeObject.
func (b *Builder) LogIndex(enabled bool) *Builder {
	b.config.logIndex = enabled
	return b
}

// Build returns the Config. Later builder calls do not affect it.
func (b *Builder) Build() Config {
	return b.config
}

// Args is what the execution environment hands to a transform: one
// replica's raw response and the caller's opaque context bytes.
type Args struct {
	Response outcall.Response
	Context  []byte
}

// Func is the signature of a registered transform.
type Func func(Args) (outcall.Response, error)

// Processor applies a Config to responses. It holds no mutable state and is
// shared by every call using the same transform.
type Processor struct {
	logger polylog.Logger
	config Config
}

// NewProcessor returns a Processor for config.
func NewProcessor(logger polylog.Logger, config Config) *Processor {
	return &Processor{
		logger: logger.With("component", "transform_processor", "shape", config.shape.String()),
		config: config,
	}
}

// Config returns the processor's configuration.
func (p *Processor) Config() Config {
	return p.config
}

// Transform normalizes one replica's response.
//
// A 200 response has its body rewritten and canonically re-serialized.
// Any other status is passed through with the body untouched. Headers are
// never carried over.
func (p *Processor) Transform(args Args) (outcall.Response, error) {
	raw := args.Response

	if raw.Status != http.StatusOK {
		p.logger.Warn().
			Int("status", raw.Status).
			Str("body_preview", log.PreviewBytes(raw.Body)).
			Msg("upstream returned a non-200 status, forwarding body as is")
		return outcall.Response{Status: raw.Status, Body: raw.Body}, nil
	}

	body, err := p.normalize(raw.Body)
	if err != nil {
		return outcall.Response{}, err
	}
	return outcall.Response{Status: raw.Status, Body: body}, nil
}

func (p *Processor) normalize(body []byte) ([]byte, error) {
	// Cheap structural checks before decoding the whole body.
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}
	result := gjson.GetBytes(body, fieldResult)
	if !result.Exists() {
		return nil, fmt.Errorf("%w: missing %q field", ErrMalformedResponse, fieldResult)
	}

	decoded, err := decodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	envelope, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedResponse)
	}

	switch p.config.shape {
	case ShapeObject:
		err = p.rewriteObject(envelope[fieldResult])
	case ShapeArray:
		err = p.rewriteArray(envelope[fieldResult])
	default:
		err = fmt.Errorf("%w: unsupported shape %s", ErrMalformedResponse, p.config.shape)
	}
	if err != nil {
		return nil, err
	}

	bz, err := marshalCanonical(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: re-serialize: %v", ErrMalformedResponse, err)
	}
	return bz, nil
}

func (p *Processor) rewriteObject(result any) error {
	obj, ok := result.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %q is %s, expected object", ErrMalformedResponse, fieldResult, jsonTypeName(result))
	}
	if p.config.transactionIndex {
		obj[fieldTransactionIndex] = canonicalIndex
	}
	return nil
}

func (p *Processor) rewriteArray(result any) error {
	elems, ok := result.([]any)
	if !ok {
		return fmt.Errorf("%w: %q is %s, expected array", ErrMalformedResponse, fieldResult, jsonTypeName(result))
	}
	for i, elem := range elems {
		obj, ok := elem.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q element %d is %s, expected object", ErrMalformedResponse, fieldResult, i, jsonTypeName(elem))
		}
		if p.config.transactionIndex {
			obj[fieldTransactionIndex] = canonicalIndex
		}
		if p.config.logIndex {
			obj[fieldLogIndex] = canonicalIndex
		}
	}
	return nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
