// Package reliability provides retry policies for interceptors that re-invoke
// the rest of their chain.
//
// The executor itself never retries. An around interceptor may call proceed
// more than once, and this package supplies the policies that decide when:
//   - ExponentialBackoff: growing delays with optional jitter
//   - FixedDelay: constant delay between attempts
//
// Errors are retryable unless they match ErrNonRetryable, are argument
// mismatches, or implement IsRetryable() returning false.
//
// Example usage:
//
//	policy := NewExponentialBackoff(10*time.Millisecond, time.Second, 2.0, 3)
//	err := Retry(ctx, policy, func() error {
//	    return flakyOperation()
//	})
package reliability
