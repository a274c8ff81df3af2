package interceptors

import (
	"context"
	"fmt"
	"sort"

	"github.com/glimte/mmate-intercept/contracts"
)

type link struct {
	name      string
	sortOrder int
	before    BeforeInterceptor
	around    AroundInterceptor
	after     AfterInterceptor
	caps      Capabilities
}

// Chain is an immutable snapshot of one target operation and the ordered,
// enabled interceptors bound to it
type Chain struct {
	operation *contracts.Operation
	links     []link
	befores   []link
	arounds   []link
	afters    []link
	disabled  []Descriptor
}

// Descriptor describes one registration of a chain
type Descriptor struct {
	Name         string       `json:"name"`
	SortOrder    int          `json:"sortOrder"`
	Enabled      bool         `json:"enabled"`
	Capabilities Capabilities `json:"capabilities"`
}

// NewChain builds a chain. Registrations are ordered by ascending sort order,
// ties keep registration order. Disabled registrations are dropped.
func NewChain(op *contracts.Operation, registrations ...Registration) (*Chain, error) {
	if op == nil {
		return nil, ErrNilOperation
	}

	seen := make(map[string]struct{}, len(registrations))
	ordered := make([]Registration, 0, len(registrations))
	for _, reg := range registrations {
		if reg.Interceptor == nil {
			return nil, fmt.Errorf("%s: %w", op.ID, ErrNilInterceptor)
		}
		name := reg.Interceptor.Name()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%s: interceptor %q: %w", op.ID, name, ErrDuplicateInterceptor)
		}
		seen[name] = struct{}{}
		if !CapabilitiesOf(reg.Interceptor).Any() {
			return nil, fmt.Errorf("%s: interceptor %q: %w", op.ID, name, ErrNoCapability)
		}
		ordered = append(ordered, reg)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	c := &Chain{operation: op}
	for _, reg := range ordered {
		caps := CapabilitiesOf(reg.Interceptor)
		if !reg.Enabled {
			c.disabled = append(c.disabled, Descriptor{Name: reg.Name(), SortOrder: reg.SortOrder, Capabilities: caps})
			continue
		}
		l := link{name: reg.Name(), sortOrder: reg.SortOrder, caps: caps}
		if caps.Before {
			l.before = reg.Interceptor.(BeforeInterceptor)
			c.befores = append(c.befores, l)
		}
		if caps.Around {
			l.around = reg.Interceptor.(AroundInterceptor)
			c.arounds = append(c.arounds, l)
		}
		if caps.After {
			l.after = reg.Interceptor.(AfterInterceptor)
			c.afters = append(c.afters, l)
		}
		c.links = append(c.links, l)
	}
	return c, nil
}

// Operation returns the target operation
func (c *Chain) Operation() *contracts.Operation {
	return c.operation
}

// Len returns the number of enabled interceptors
func (c *Chain) Len() int {
	return len(c.links)
}

// Empty reports whether invoking the chain is a direct call of the operation
func (c *Chain) Empty() bool {
	return len(c.links) == 0
}

// Names returns the enabled interceptor names in execution order
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.links))
	for _, l := range c.links {
		names = append(names, l.name)
	}
	return names
}

// Disabled returns the names of registered but disabled interceptors
func (c *Chain) Disabled() []string {
	out := make([]string, 0, len(c.disabled))
	for _, d := range c.disabled {
		out = append(out, d.Name)
	}
	return out
}

// Describe lists every registration, enabled ones first in execution order
func (c *Chain) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(c.links)+len(c.disabled))
	for _, l := range c.links {
		out = append(out, Descriptor{Name: l.name, SortOrder: l.sortOrder, Enabled: true, Capabilities: l.caps})
	}
	return append(out, c.disabled...)
}

// Invoke runs the chain with a default executor
func (c *Chain) Invoke(ctx context.Context, args contracts.Args) (any, error) {
	return defaultExecutor.Invoke(ctx, c, args)
}
