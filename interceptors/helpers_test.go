package interceptors

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/stretchr/testify/require"
)

var echoID = contracts.OperationID{Subject: "test.Echo", Method: "Echo"}

// echoTarget returns its single string argument wrapped in brackets and
// counts how often it ran
type echoTarget struct {
	calls int32
	op    *contracts.Operation
}

func newEchoTarget(t *testing.T) *echoTarget {
	t.Helper()
	target := &echoTarget{}
	op, err := contracts.NewOperation(echoID, func(ctx context.Context, args contracts.Args) (any, error) {
		atomic.AddInt32(&target.calls, 1)
		s, _ := args.String(0)
		return "[" + s + "]", nil
	}, contracts.ParamOf[string]("value"))
	require.NoError(t, err)
	target.op = op
	return target
}

func (e *echoTarget) Calls() int {
	return int(atomic.LoadInt32(&e.calls))
}

func appendBefore(name, suffix string) *Funcs {
	return NewFuncs(name).WithBefore(func(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error) {
		s, _ := args.String(0)
		return contracts.NewArgs(s + suffix), nil
	})
}

func appendAfter(name, suffix string) *Funcs {
	return NewFuncs(name).WithAfter(func(ctx context.Context, op contracts.OperationID, args contracts.Args, result any) (any, error) {
		return fmt.Sprint(result) + suffix, nil
	})
}

func tagAround(name string) *Funcs {
	return NewFuncs(name).WithAround(func(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
		s, _ := args.String(0)
		result, err := proceed(ctx, contracts.NewArgs(s+"<"+name))
		if err != nil {
			return nil, err
		}
		return name + "(" + fmt.Sprint(result) + ")", nil
	})
}

func upperBefore(name string) *Funcs {
	return NewFuncs(name).WithBefore(func(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error) {
		s, _ := args.String(0)
		return contracts.NewArgs(strings.ToUpper(s)), nil
	})
}

func mustChain(t *testing.T, op *contracts.Operation, regs ...Registration) *Chain {
	t.Helper()
	chain, err := NewChain(op, regs...)
	require.NoError(t, err)
	return chain
}
