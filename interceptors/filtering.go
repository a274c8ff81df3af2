package interceptors

import (
	"context"
	"fmt"

	"github.com/glimte/mmate-intercept/contracts"
)

// CallFilter decides whether an interceptor applies to a call
type CallFilter interface {
	Matches(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, error)
}

// CallFilterFunc is a function adapter for CallFilter
type CallFilterFunc func(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, error)

// Matches implements CallFilter
func (f CallFilterFunc) Matches(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, error) {
	return f(ctx, op, args)
}

// CompositeFilter combines multiple filters with AND logic
type CompositeFilter struct {
	filters []CallFilter
}

// NewCompositeFilter creates a new composite filter
func NewCompositeFilter(filters ...CallFilter) *CompositeFilter {
	return &CompositeFilter{filters: filters}
}

// Matches implements CallFilter - all filters must match
func (f *CompositeFilter) Matches(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, error) {
	for _, filter := range f.filters {
		ok, err := filter.Matches(ctx, op, args)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// OrFilter combines multiple filters with OR logic
type OrFilter struct {
	filters []CallFilter
}

// NewOrFilter creates a new OR filter
func NewOrFilter(filters ...CallFilter) *OrFilter {
	return &OrFilter{filters: filters}
}

// Matches implements CallFilter - at least one filter must match
func (f *OrFilter) Matches(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, error) {
	for _, filter := range f.filters {
		ok, err := filter.Matches(ctx, op, args)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// SubjectFilter matches operations declared by one of the given subjects
type SubjectFilter struct {
	subjects map[string]bool
}

// NewSubjectFilter creates a filter that only allows specific subjects
func NewSubjectFilter(subjects ...string) *SubjectFilter {
	m := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		m[s] = true
	}
	return &SubjectFilter{subjects: m}
}

// Matches implements CallFilter
func (f *SubjectFilter) Matches(_ context.Context, op contracts.OperationID, _ contracts.Args) (bool, error) {
	return f.subjects[op.Subject], nil
}

// ConditionalInterceptor applies the hooks of another interceptor only when a
// filter matches the call. It reports the capabilities of the wrapped
// interceptor.
type ConditionalInterceptor struct {
	condition   CallFilter
	interceptor Interceptor
	caps        Capabilities
}

// NewConditionalInterceptor creates a new conditional interceptor
func NewConditionalInterceptor(condition CallFilter, interceptor Interceptor) *ConditionalInterceptor {
	return &ConditionalInterceptor{
		condition:   condition,
		interceptor: interceptor,
		caps:        CapabilitiesOf(interceptor),
	}
}

// Capabilities implements CapabilityReporter
func (i *ConditionalInterceptor) Capabilities() Capabilities {
	return i.caps
}

// Before implements BeforeInterceptor
func (i *ConditionalInterceptor) Before(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error) {
	ok, err := i.condition.Matches(ctx, op, args)
	if err != nil || !ok || !i.caps.Before {
		return args, err
	}
	return i.interceptor.(BeforeInterceptor).Before(ctx, op, args)
}

// Around implements AroundInterceptor
func (i *ConditionalInterceptor) Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
	ok, err := i.condition.Matches(ctx, op, args)
	if err != nil {
		return nil, err
	}
	if !ok || !i.caps.Around {
		return proceed(ctx, args)
	}
	return i.interceptor.(AroundInterceptor).Around(ctx, op, args, proceed)
}

// After implements AfterInterceptor
func (i *ConditionalInterceptor) After(ctx context.Context, op contracts.OperationID, args contracts.Args, result any) (any, error) {
	ok, err := i.condition.Matches(ctx, op, args)
	if err != nil {
		return nil, err
	}
	if !ok || !i.caps.After {
		return result, nil
	}
	return i.interceptor.(AfterInterceptor).After(ctx, op, args, result)
}

// Name implements Interceptor
func (i *ConditionalInterceptor) Name() string {
	return fmt.Sprintf("conditional[%s]", i.interceptor.Name())
}
