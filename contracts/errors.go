package contracts

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrArgumentMismatch is returned when an argument tuple does not match the
// parameters declared by an operation
var ErrArgumentMismatch = errors.New("argument mismatch")

// ArgumentMismatchError describes which argument of a call was rejected.
// Index is the offending argument position, -1 for an arity mismatch.
type ArgumentMismatchError struct {
	Operation OperationID
	Expected  int
	Got       int
	Index     int
	Param     string
	Want      reflect.Type
	GotValue  any
}

func (e *ArgumentMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("argument mismatch: %s expects %d argument(s), got %d",
			e.Operation, e.Expected, e.Got)
	}
	return fmt.Sprintf("argument mismatch: %s argument %d (%s) must be %v, got %T",
		e.Operation, e.Index, e.Param, e.Want, e.GotValue)
}

// Is reports whether target is ErrArgumentMismatch
func (e *ArgumentMismatchError) Is(target error) bool {
	return target == ErrArgumentMismatch
}

// IsArgumentMismatch checks if an error is an argument mismatch
func IsArgumentMismatch(err error) bool {
	return errors.Is(err, ErrArgumentMismatch)
}
