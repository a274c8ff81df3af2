package interceptors

import (
	"context"
	"fmt"
	"sync"

	"github.com/glimte/mmate-intercept/contracts"
)

// ShortCircuitEvaluator determines if the chain should be short-circuited.
// When it returns true the returned value becomes the invocation result and
// proceed is never called.
type ShortCircuitEvaluator interface {
	ShouldShortCircuit(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, any, error)
}

// ShortCircuitEvaluatorFunc is a function adapter for ShortCircuitEvaluator
type ShortCircuitEvaluatorFunc func(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, any, error)

// ShouldShortCircuit implements ShortCircuitEvaluator
func (f ShortCircuitEvaluatorFunc) ShouldShortCircuit(ctx context.Context, op contracts.OperationID, args contracts.Args) (bool, any, error) {
	return f(ctx, op, args)
}

// ShortCircuitInterceptor can skip the rest of the chain based on conditions
type ShortCircuitInterceptor struct {
	name      string
	evaluator ShortCircuitEvaluator
}

// NewShortCircuitInterceptor creates a new short-circuit interceptor
func NewShortCircuitInterceptor(name string, evaluator ShortCircuitEvaluator) *ShortCircuitInterceptor {
	return &ShortCircuitInterceptor{name: name, evaluator: evaluator}
}

// Around implements AroundInterceptor
func (i *ShortCircuitInterceptor) Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
	skip, result, err := i.evaluator.ShouldShortCircuit(ctx, op, args)
	if err != nil {
		return nil, err
	}
	if skip {
		return result, nil
	}
	return proceed(ctx, args)
}

// Name implements Interceptor
func (i *ShortCircuitInterceptor) Name() string {
	return i.name
}

// ResultCache defines the interface for caching invocation results
type ResultCache interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any) error
}

// MemoryCache is an in-process ResultCache
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]any)}
}

// Get implements ResultCache
func (c *MemoryCache) Get(_ context.Context, key string) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok, nil
}

// Set implements ResultCache
func (c *MemoryCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

// Len returns the number of cached results
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// CachingInterceptor short-circuits on a cache hit and stores results of
// successful invocations
type CachingInterceptor struct {
	cache ResultCache
}

// NewCachingInterceptor creates a new caching interceptor
func NewCachingInterceptor(cache ResultCache) *CachingInterceptor {
	return &CachingInterceptor{cache: cache}
}

// Around implements AroundInterceptor
func (i *CachingInterceptor) Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
	key := CacheKey(op, args)

	cached, found, err := i.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		return cached, nil
	}

	result, err := proceed(ctx, args)
	if err != nil {
		return nil, err
	}

	// A failed write only costs a future cache miss
	_ = i.cache.Set(ctx, key, result)

	return result, nil
}

// Name implements Interceptor
func (i *CachingInterceptor) Name() string {
	return "caching"
}

// CacheKey derives a cache key from the operation and its arguments
func CacheKey(op contracts.OperationID, args contracts.Args) string {
	return fmt.Sprintf("%s%#v", op, []any(args))
}
