package interceptors

import (
	"context"
	"sync"
	"time"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/google/uuid"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	// InvocationContextKey is the key for storing the current invocation
	InvocationContextKey contextKey = "mmate:interceptor:invocation"
)

// Invocation is the execution context of one chain invocation. It is created
// by the executor and discarded when Invoke returns.
type Invocation struct {
	ID        string
	Operation contracts.OperationID
	Started   time.Time

	mu          sync.RWMutex
	interceptor string
	phase       Phase
	targetCalls int
}

func beginInvocation(ctx context.Context, op contracts.OperationID) (context.Context, *Invocation) {
	inv := &Invocation{
		ID:        uuid.New().String(),
		Operation: op,
		Started:   time.Now(),
	}
	return context.WithValue(ctx, InvocationContextKey, inv), inv
}

func (inv *Invocation) enter(interceptor string, phase Phase) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.interceptor = interceptor
	inv.phase = phase
}

func (inv *Invocation) countTargetCall() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.targetCalls++
}

// Position returns the interceptor and phase currently executing
func (inv *Invocation) Position() (string, Phase) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.interceptor, inv.phase
}

// TargetCalls returns how many times the target operation has run so far
func (inv *Invocation) TargetCalls() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.targetCalls
}

// InvocationFromContext retrieves the current invocation from the context
func InvocationFromContext(ctx context.Context) (*Invocation, bool) {
	value := ctx.Value(InvocationContextKey)
	if value == nil {
		return nil, false
	}
	inv, ok := value.(*Invocation)
	return inv, ok
}

// InvocationID returns the current invocation id or an empty string
func InvocationID(ctx context.Context) string {
	if inv, ok := InvocationFromContext(ctx); ok {
		return inv.ID
	}
	return ""
}
