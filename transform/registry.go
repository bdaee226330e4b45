package transform

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/buildwithgrove/outcall/metrics"
	"github.com/buildwithgrove/outcall/outcall"
)

var (
	// ErrMalformedResponse is returned when a 200 response body does not
	// match the shape its transform expects. Nothing is forwarded.
	ErrMalformedResponse = errors.New("malformed JSON-RPC response")

	// ErrTransformNotFound is returned when a call names an unregistered
	// transform.
	ErrTransformNotFound = errors.New("transform not registered")
)

// Identity forwards the response unchanged.
func Identity(args Args) (outcall.Response, error) {
	return args.Response, nil
}

// Registry maps transform names to functions. Safe for concurrent use.
type Registry struct {
	logger polylog.Logger

	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns a registry holding the identity transform under
// outcall.DefaultTransformName and both presets under their names.
func NewRegistry(logger polylog.Logger) *Registry {
	r := &Registry{
		logger: logger.With("component", "transform_registry"),
		funcs:  make(map[string]Func),
	}

	r.funcs[outcall.DefaultTransformName] = Identity
	r.funcs[SendTransactionName] = NewProcessor(logger, SendTransaction()).Transform
	r.funcs[GetFilterChangesName] = NewProcessor(logger, GetFilterChanges()).Transform

	return r
}

// Register adds or replaces the transform called name.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("register transform: empty name")
	}
	if fn == nil {
		return fmt.Errorf("register transform %q: nil function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[name]; exists {
		r.logger.Info().Str("transform", name).Msg("replacing registered transform")
	}
	r.funcs[name] = fn
	return nil
}

// RegisterConfig registers a Processor built from config under name.
func (r *Registry) RegisterConfig(name string, config Config) error {
	return r.Register(name, NewProcessor(r.logger, config).Transform)
}

// Lookup returns the transform called name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the transform referenced by tc on resp.
func (r *Registry) Apply(tc outcall.TransformContext, resp outcall.Response) (outcall.Response, error) {
	fn, ok := r.Lookup(tc.Function)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrTransformNotFound, tc.Function)
		metrics.PublishTransform(tc.Function, resp.Status, err)
		return outcall.Response{}, err
	}

	transformed, err := fn(Args{Response: resp, Context: tc.Context})
	metrics.PublishTransform(tc.Function, resp.Status, err)
	if err != nil {
		return outcall.Response{}, fmt.Errorf("transform %q: %w", tc.Function, err)
	}
	return transformed, nil
}
