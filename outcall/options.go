package outcall

// CallOptions carries per-call overrides. The zero value means "use the
// client's defaults for everything". Options are values: the With*
// methods return a modified copy and never touch the receiver.
type CallOptions struct {
	maxResponseBytes *uint64
	cost             *Cost
	transform        *TransformContext
}

// WithMaxResponseBytes caps the response size of this call.
func (o CallOptions) WithMaxResponseBytes(n uint64) CallOptions {
	o.maxResponseBytes = &n
	return o
}

// WithCost attaches an explicit amount of cycles instead of the estimate.
func (o CallOptions) WithCost(c Cost) CallOptions {
	o.cost = &c
	return o
}

// WithTransform picks the transform applied to every replica's response.
func (o CallOptions) WithTransform(t TransformContext) CallOptions {
	t.Context = append([]byte(nil), t.Context...)
	o.transform = &t
	return o
}

// WithTransformName is WithTransform without a context payload.
func (o CallOptions) WithTransformName(name string) CallOptions {
	return o.WithTransform(TransformContext{Function: name})
}

func (o CallOptions) MaxResponseBytes() (uint64, bool) {
	if o.maxResponseBytes == nil {
		return 0, false
	}
	return *o.maxResponseBytes, true
}

func (o CallOptions) Cost() (Cost, bool) {
	if o.cost == nil {
		return Cost{}, false
	}
	return *o.cost, true
}

func (o CallOptions) Transform() (TransformContext, bool) {
	if o.transform == nil {
		return TransformContext{}, false
	}
	t := *o.transform
	t.Context = append([]byte(nil), t.Context...)
	return t, true
}
