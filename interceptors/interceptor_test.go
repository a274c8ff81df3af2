package interceptors

import (
	"context"
	"testing"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilities(t *testing.T) {
	t.Run("typed interceptors are inspected by interface", func(t *testing.T) {
		assert.Equal(t, Capabilities{Before: true}, CapabilitiesOf(beforeOnly{}))
		assert.Equal(t, Capabilities{Around: true}, CapabilitiesOf(NewLoggingInterceptor(nil)))
		assert.False(t, CapabilitiesOf(nameOnly{}).Any())
	})

	t.Run("Funcs reports only the hooks that were set", func(t *testing.T) {
		f := NewFuncs("f").WithBefore(func(ctx context.Context, op contracts.OperationID, args contracts.Args) (contracts.Args, error) {
			return args, nil
		})
		assert.Equal(t, Capabilities{Before: true}, CapabilitiesOf(f))
		assert.Equal(t, "before", CapabilitiesOf(f).String())
	})

	t.Run("String lists hooks", func(t *testing.T) {
		assert.Equal(t, "none", Capabilities{}.String())
		assert.Equal(t, "before,around,after", Capabilities{Before: true, Around: true, After: true}.String())
		assert.Equal(t, "around,after", Capabilities{Around: true, After: true}.String())
	})
}

func TestFuncsDefaults(t *testing.T) {
	ctx := context.Background()
	f := NewFuncs("noop")

	args, err := f.Before(ctx, echoID, contracts.NewArgs("a"))
	require.NoError(t, err)
	assert.Equal(t, contracts.NewArgs("a"), args)

	result, err := f.Around(ctx, echoID, contracts.NewArgs("a"), func(ctx context.Context, args contracts.Args) (any, error) {
		return "proceeded", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "proceeded", result)

	result, err = f.After(ctx, echoID, nil, "r")
	require.NoError(t, err)
	assert.Equal(t, "r", result)
	assert.Equal(t, "noop", f.Name())
}

func TestRegistration(t *testing.T) {
	reg := Register(beforeOnly{}, 7)

	assert.True(t, reg.Enabled)
	assert.Equal(t, 7, reg.SortOrder)
	assert.Equal(t, "before-only", reg.Name())
	assert.Equal(t, "", Registration{}.Name())
}
