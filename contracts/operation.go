package contracts

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// OperationID identifies a target operation by its declaring subject and method name
type OperationID struct {
	Subject string `yaml:"subject"`
	Method  string `yaml:"method"`
}

// String renders the id as Subject::Method
func (id OperationID) String() string {
	return id.Subject + "::" + id.Method
}

// IsZero reports whether the id is empty
func (id OperationID) IsZero() bool {
	return id.Subject == "" && id.Method == ""
}

// Args is the argument tuple passed through an interception chain
type Args []any

// NewArgs builds an argument tuple
func NewArgs(values ...any) Args {
	return Args(values)
}

// Clone returns a shallow copy of the tuple
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	copy(out, a)
	return out
}

// String returns the argument at index i as a string
func (a Args) String(i int) (string, bool) {
	if i < 0 || i >= len(a) {
		return "", false
	}
	s, ok := a[i].(string)
	return s, ok
}

// Param declares one parameter of an operation. A nil Type accepts any value.
type Param struct {
	Name string
	Type reflect.Type
}

// ParamOf declares a parameter whose type is the type parameter T
func ParamOf[T any](name string) Param {
	return Param{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// OperationFunc is the body of a target operation
type OperationFunc func(ctx context.Context, args Args) (any, error)

// Operation is a named target operation with a fixed parameter list
type Operation struct {
	ID     OperationID
	Params []Param
	Fn     OperationFunc
}

// NewOperation creates an operation
func NewOperation(id OperationID, fn OperationFunc, params ...Param) (*Operation, error) {
	if id.Subject == "" || id.Method == "" {
		return nil, errors.New("operation id requires subject and method")
	}
	if fn == nil {
		return nil, fmt.Errorf("operation %s has no function", id)
	}
	return &Operation{ID: id, Params: params, Fn: fn}, nil
}

// Arity returns the number of declared parameters
func (o *Operation) Arity() int {
	return len(o.Params)
}

// Validate checks the arity and types of args against the declared parameters
func (o *Operation) Validate(args Args) error {
	if len(args) != len(o.Params) {
		return &ArgumentMismatchError{
			Operation: o.ID,
			Expected:  len(o.Params),
			Got:       len(args),
			Index:     -1,
		}
	}
	for i, p := range o.Params {
		if p.Type == nil {
			continue
		}
		if !assignable(args[i], p.Type) {
			return &ArgumentMismatchError{
				Operation: o.ID,
				Expected:  len(o.Params),
				Got:       len(args),
				Index:     i,
				Param:     p.Name,
				Want:      p.Type,
				GotValue:  args[i],
			}
		}
	}
	return nil
}

// Invoke validates args and runs the operation body
func (o *Operation) Invoke(ctx context.Context, args Args) (any, error) {
	if err := o.Validate(args); err != nil {
		return nil, err
	}
	return o.Fn(ctx, args)
}

func assignable(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}
