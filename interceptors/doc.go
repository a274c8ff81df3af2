// Package interceptors runs a target operation through an ordered chain of
// before, around and after hooks.
//
// An interceptor implements Interceptor plus any of:
//   - BeforeInterceptor: replaces the argument tuple before invocation
//   - AroundInterceptor: wraps the invocation and receives a Proceed continuation
//   - AfterInterceptor: replaces the result after invocation
//
// Execution order for a chain sorted by ascending sort order:
//
//	before hooks, lowest sort order first
//	around hooks, lowest sort order outermost, target operation innermost
//	after hooks, lowest sort order first (not reversed)
//
// Disabled registrations are dropped when the chain is built. An empty chain
// is a direct call of the target operation.
//
// Example usage:
//
//	chain, err := interceptors.NewChainBuilder(op, logger).
//		Add(upper, 10).
//		WithLogging(0).
//		WithMetrics(collector, 5).
//		Build()
//	if err != nil {
//		return err
//	}
//
//	result, err := interceptors.NewExecutor().Invoke(ctx, chain, contracts.NewArgs("test-product"))
//
// Custom interceptors only need the hooks they use:
//
//	type TrimInterceptor struct{}
//
//	func (TrimInterceptor) Name() string { return "trim" }
//
//	func (TrimInterceptor) Before(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error) {
//		s, _ := args.String(0)
//		return contracts.NewArgs(strings.TrimSpace(s)), nil
//	}
//
// Failures are reported as *InterceptorError naming the interceptor and phase;
// arity or type violations of the initial arguments match
// contracts.ErrArgumentMismatch and are raised before any hook runs.
package interceptors
