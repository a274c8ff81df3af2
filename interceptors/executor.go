package interceptors

import (
	"context"
	"log/slog"

	"github.com/glimte/mmate-intercept/contracts"
)

// Executor runs interception chains. It holds no per-invocation state and is
// safe for concurrent use.
type Executor struct {
	logger *slog.Logger
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithLogger sets the logger used for chain tracing
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates a new executor
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExecutor = NewExecutor()

// Invoke executes the before phase, the around-wrapped target operation and
// the after phase of chain. The first failure aborts the invocation and no
// partial result is returned.
func (e *Executor) Invoke(ctx context.Context, chain *Chain, args contracts.Args) (any, error) {
	if chain == nil || chain.operation == nil {
		return nil, ErrNilOperation
	}
	op := chain.operation

	if err := op.Validate(args); err != nil {
		return nil, err
	}

	ctx, inv := beginInvocation(ctx, op.ID)
	log := e.logger.With("operation", op.ID.String(), "invocationId", inv.ID)
	log.Debug("invoking chain", "interceptors", chain.Len())

	current := args.Clone()
	for _, l := range chain.befores {
		inv.enter(l.name, PhaseBefore)
		next, err := l.before.Before(ctx, op.ID, current)
		if err != nil {
			log.Debug("before hook failed", "interceptor", l.name, "error", err)
			return nil, wrapFailure(op.ID, l.name, PhaseBefore, err)
		}
		if err := op.Validate(next); err != nil {
			return nil, &InterceptorError{Operation: op.ID, Interceptor: l.name, Phase: PhaseBefore, Err: err}
		}
		current = next
	}

	inv.enter("", PhaseAround)
	result, err := e.fold(chain, inv)(ctx, current)
	if err != nil {
		log.Debug("invocation failed", "error", err)
		return nil, err
	}

	for _, l := range chain.afters {
		inv.enter(l.name, PhaseAfter)
		result, err = l.after.After(ctx, op.ID, current, result)
		if err != nil {
			log.Debug("after hook failed", "interceptor", l.name, "error", err)
			return nil, wrapFailure(op.ID, l.name, PhaseAfter, err)
		}
	}

	log.Debug("chain completed")
	return result, nil
}

// fold wraps the target operation in the around interceptors right-to-left so
// the lowest sort order ends up outermost
func (e *Executor) fold(chain *Chain, inv *Invocation) Proceed {
	op := chain.operation

	next := Proceed(func(ctx context.Context, args contracts.Args) (any, error) {
		inv.enter("", PhaseTarget)
		inv.countTargetCall()
		result, err := op.Fn(ctx, args)
		if err != nil {
			return nil, wrapFailure(op.ID, "", PhaseTarget, err)
		}
		return result, nil
	})

	for i := len(chain.arounds) - 1; i >= 0; i-- {
		l := chain.arounds[i]
		inner := guard(op, l.name, next)
		next = func(ctx context.Context, args contracts.Args) (any, error) {
			inv.enter(l.name, PhaseAround)
			result, err := l.around.Around(ctx, op.ID, args, inner)
			if err != nil {
				return nil, wrapFailure(op.ID, l.name, PhaseAround, err)
			}
			return result, nil
		}
	}
	return next
}

// guard validates the arguments an around interceptor hands to proceed and
// gives the inner layer its own copy of them
func guard(op *contracts.Operation, name string, inner Proceed) Proceed {
	return func(ctx context.Context, args contracts.Args) (any, error) {
		if err := op.Validate(args); err != nil {
			return nil, &InterceptorError{Operation: op.ID, Interceptor: name, Phase: PhaseAround, Err: err}
		}
		return inner(ctx, args.Clone())
	}
}
