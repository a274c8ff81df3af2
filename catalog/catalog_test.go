package catalog

import (
	"context"
	"testing"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/glimte/mmate-intercept/interceptors"
	"github.com/glimte/mmate-intercept/internal/config"
	"github.com/glimte/mmate-intercept/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	upperHash = "57ac4089eeca89eedfecbbc29d3c5b255eee3c4931adde1e50677aafe82d132f"
	rawHash   = "f739566ed5280322ff98a798abd10ef910a98ad29dce8992afbca65c2fde3e21"
)

func newDeriver(t *testing.T, style PluginStyle) (*KeyDeriver, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, Install(reg, style))
	return NewKeyDeriver(reg), reg
}

func TestDeriveKey(t *testing.T) {
	assert.Equal(t, rawHash, DeriveKey("test-product"))
	assert.Equal(t, upperHash, DeriveKey("TEST-PRODUCT"))
	assert.Len(t, DeriveKey(""), 64)
}

func TestKeyDeriver(t *testing.T) {
	ctx := context.Background()

	t.Run("before and after plugins", func(t *testing.T) {
		d, _ := newDeriver(t, StyleSplit)

		key, err := d.DeriveKey(ctx, "test-product")

		require.NoError(t, err)
		assert.Equal(t, upperHash[:KeyLength], key)
		assert.Equal(t, "57ac4089", key)
	})

	t.Run("around plugin gives the same key", func(t *testing.T) {
		d, _ := newDeriver(t, StyleAround)

		key, err := d.DeriveKey(ctx, "test-product")

		require.NoError(t, err)
		assert.Equal(t, "57ac4089", key)
	})

	t.Run("disabled plugins yield the raw hash", func(t *testing.T) {
		d, _ := newDeriver(t, StyleNone)

		key, err := d.DeriveKey(ctx, "test-product")

		require.NoError(t, err)
		assert.Equal(t, rawHash, key)
	})

	t.Run("all plugins enabled are idempotent", func(t *testing.T) {
		d, reg := newDeriver(t, StyleSplit)
		require.NoError(t, reg.SetEnabled(DeriveKeyID, SkuKeyAroundPlugin, true))

		key, err := d.DeriveKey(ctx, "test-product")

		require.NoError(t, err)
		assert.Equal(t, "57ac4089", key)
	})

	t.Run("plugin declarations toggle plugins", func(t *testing.T) {
		d, reg := newDeriver(t, StyleSplit)
		plugins, err := config.Parse([]byte(`
operations:
  - subject: catalog.KeyDeriver
    method: DeriveKey
    plugins:
      - name: key_truncate
        sortOrder: 20
        disabled: true
`))
		require.NoError(t, err)
		require.NoError(t, reg.Apply(plugins))

		key, err := d.DeriveKey(ctx, "test-product")

		require.NoError(t, err)
		assert.Equal(t, upperHash, key)
	})
}

func TestDeriveKeyArgumentMismatch(t *testing.T) {
	_, reg := newDeriver(t, StyleSplit)

	_, err := reg.Invoke(context.Background(), DeriveKeyID, contracts.NewArgs("a", "b"))

	assert.ErrorIs(t, err, contracts.ErrArgumentMismatch)
	assert.NotErrorIs(t, err, interceptors.ErrInterceptorFailure)
}

func TestPlugins(t *testing.T) {
	ctx := context.Background()

	t.Run("capabilities", func(t *testing.T) {
		assert.Equal(t, interceptors.Capabilities{Before: true}, interceptors.CapabilitiesOf(SkuCaseInterceptor{}))
		assert.Equal(t, interceptors.Capabilities{After: true}, interceptors.CapabilitiesOf(KeyTruncateInterceptor{}))
		assert.Equal(t, interceptors.Capabilities{Around: true}, interceptors.CapabilitiesOf(SkuKeyAroundInterceptor{}))
	})

	t.Run("truncate keeps short keys", func(t *testing.T) {
		out, err := KeyTruncateInterceptor{}.After(ctx, DeriveKeyID, nil, "abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", out)
	})

	t.Run("non string values are rejected", func(t *testing.T) {
		_, err := KeyTruncateInterceptor{}.After(ctx, DeriveKeyID, nil, 42)
		assert.Error(t, err)

		_, err = SkuCaseInterceptor{}.Before(ctx, DeriveKeyID, contracts.NewArgs(42))
		assert.Error(t, err)
	})

	t.Run("missing sku is an error", func(t *testing.T) {
		_, err := SkuCaseInterceptor{}.Before(ctx, DeriveKeyID, contracts.NewArgs())
		assert.ErrorContains(t, err, "missing")

		_, err = SkuKeyAroundInterceptor{}.Around(ctx, DeriveKeyID, nil, func(context.Context, contracts.Args) (any, error) {
			t.Fatal("proceed must not run without a sku")
			return nil, nil
		})
		assert.ErrorContains(t, err, "missing")
	})
}

func TestParsePluginStyle(t *testing.T) {
	for _, s := range []string{"split", "around", "none"} {
		style, err := ParsePluginStyle(s)
		require.NoError(t, err)
		assert.Equal(t, PluginStyle(s), style)
	}
	_, err := ParsePluginStyle("sideways")
	assert.Error(t, err)
}
