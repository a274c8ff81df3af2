package interceptors

import (
	"context"

	"github.com/glimte/mmate-intercept/contracts"
)

// Proceed invokes the rest of the chain (inner around interceptors and the
// target operation) with the given arguments
type Proceed func(ctx context.Context, args contracts.Args) (any, error)

// Interceptor is a named unit of before/around/after logic. An interceptor
// must implement at least one of BeforeInterceptor, AroundInterceptor or
// AfterInterceptor.
type Interceptor interface {
	// Name returns the interceptor name, unique per operation
	Name() string
}

// BeforeInterceptor transforms arguments prior to invocation
type BeforeInterceptor interface {
	Interceptor
	Before(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error)
}

// AroundInterceptor wraps the invocation. It decides whether proceed is
// called, how often, and with which arguments.
type AroundInterceptor interface {
	Interceptor
	Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error)
}

// AfterInterceptor transforms the result after invocation. args are the
// arguments as they stood after the before phase.
type AfterInterceptor interface {
	Interceptor
	After(ctx context.Context, op contracts.OperationID, args contracts.Args, result any) (any, error)
}

// Capabilities reports which hooks an interceptor implements
type Capabilities struct {
	Before bool `json:"before"`
	Around bool `json:"around"`
	After  bool `json:"after"`
}

// CapabilityReporter is implemented by adapters that satisfy every hook
// interface but only act on some of them
type CapabilityReporter interface {
	Capabilities() Capabilities
}

// CapabilitiesOf inspects an interceptor
func CapabilitiesOf(i Interceptor) Capabilities {
	var c Capabilities
	if r, ok := i.(CapabilityReporter); ok {
		return r.Capabilities()
	}
	_, c.Before = i.(BeforeInterceptor)
	_, c.Around = i.(AroundInterceptor)
	_, c.After = i.(AfterInterceptor)
	return c
}

// Any reports whether at least one hook is implemented
func (c Capabilities) Any() bool {
	return c.Before || c.Around || c.After
}

// String lists the implemented hooks, e.g. "before,after"
func (c Capabilities) String() string {
	s := ""
	add := func(name string) {
		if s != "" {
			s += ","
		}
		s += name
	}
	if c.Before {
		add("before")
	}
	if c.Around {
		add("around")
	}
	if c.After {
		add("after")
	}
	if s == "" {
		return "none"
	}
	return s
}

// Registration binds an interceptor to an operation with a sort order and an
// enabled flag
type Registration struct {
	Interceptor Interceptor
	SortOrder   int
	Enabled     bool
}

// Register creates an enabled registration
func Register(i Interceptor, sortOrder int) Registration {
	return Registration{Interceptor: i, SortOrder: sortOrder, Enabled: true}
}

// Name returns the name of the registered interceptor
func (r Registration) Name() string {
	if r.Interceptor == nil {
		return ""
	}
	return r.Interceptor.Name()
}

// BeforeFunc is the function form of BeforeInterceptor.Before
type BeforeFunc func(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error)

// AroundFunc is the function form of AroundInterceptor.Around
type AroundFunc func(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error)

// AfterFunc is the function form of AfterInterceptor.After
type AfterFunc func(ctx context.Context, op contracts.OperationID, args contracts.Args, result any) (any, error)

// Funcs is a function adapter for Interceptor. Only the hooks that were set
// are reported as capabilities.
type Funcs struct {
	name   string
	before BeforeFunc
	around AroundFunc
	after  AfterFunc
}

// NewFuncs creates a new function-based interceptor
func NewFuncs(name string) *Funcs {
	return &Funcs{name: name}
}

// WithBefore sets the before hook
func (f *Funcs) WithBefore(fn BeforeFunc) *Funcs {
	f.before = fn
	return f
}

// WithAround sets the around hook
func (f *Funcs) WithAround(fn AroundFunc) *Funcs {
	f.around = fn
	return f
}

// WithAfter sets the after hook
func (f *Funcs) WithAfter(fn AfterFunc) *Funcs {
	f.after = fn
	return f
}

// Name implements Interceptor
func (f *Funcs) Name() string {
	return f.name
}

// Capabilities reports the hooks that were set
func (f *Funcs) Capabilities() Capabilities {
	return Capabilities{Before: f.before != nil, Around: f.around != nil, After: f.after != nil}
}

// Before implements BeforeInterceptor
func (f *Funcs) Before(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error) {
	if f.before == nil {
		return args, nil
	}
	return f.before(ctx, op, args)
}

// Around implements AroundInterceptor
func (f *Funcs) Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
	if f.around == nil {
		return proceed(ctx, args)
	}
	return f.around(ctx, op, args, proceed)
}

// After implements AfterInterceptor
func (f *Funcs) After(ctx context.Context, op contracts.OperationID, args contracts.Args, result any) (any, error) {
	if f.after == nil {
		return result, nil
	}
	return f.after(ctx, op, args, result)
}
