package interceptors

import (
	"errors"
	"fmt"

	"github.com/glimte/mmate-intercept/contracts"
)

var (
	// ErrInterceptorFailure matches every InterceptorError
	ErrInterceptorFailure = errors.New("interceptor failure")

	// ErrNoCapability is returned when an interceptor implements no hook
	ErrNoCapability = errors.New("interceptor implements no before, around or after hook")

	// ErrDuplicateInterceptor is returned when two registrations of one operation share a name
	ErrDuplicateInterceptor = errors.New("interceptor registered twice")

	// ErrNilInterceptor is returned when a registration carries no interceptor
	ErrNilInterceptor = errors.New("nil interceptor")

	// ErrNilOperation is returned when a chain is built without a target operation
	ErrNilOperation = errors.New("nil target operation")
)

// Phase identifies the stage of a chain invocation
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAround Phase = "around"
	PhaseAfter  Phase = "after"
	PhaseTarget Phase = "target"
)

// InterceptorError annotates a failure with the interceptor and phase that raised it.
// Interceptor is empty when the target operation itself failed.
type InterceptorError struct {
	Operation   contracts.OperationID
	Interceptor string
	Phase       Phase
	Err         error
}

func (e *InterceptorError) Error() string {
	if e.Interceptor == "" {
		return fmt.Sprintf("interceptor failure: %s %s failed: %v", e.Operation, e.Phase, e.Err)
	}
	return fmt.Sprintf("interceptor failure: %s %s hook of %q failed: %v",
		e.Operation, e.Phase, e.Interceptor, e.Err)
}

func (e *InterceptorError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInterceptorFailure
func (e *InterceptorError) Is(target error) bool {
	return target == ErrInterceptorFailure
}

// FailedStage extracts the interceptor name and phase from an error
func FailedStage(err error) (string, Phase, bool) {
	var ie *InterceptorError
	if errors.As(err, &ie) {
		return ie.Interceptor, ie.Phase, true
	}
	return "", "", false
}

func wrapFailure(op contracts.OperationID, name string, phase Phase, err error) error {
	var ie *InterceptorError
	if errors.As(err, &ie) {
		return err
	}
	return &InterceptorError{Operation: op, Interceptor: name, Phase: phase, Err: err}
}
