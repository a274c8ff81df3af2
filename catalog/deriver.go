package catalog

import (
	"context"
	"fmt"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/glimte/mmate-intercept/interceptors"
	"github.com/glimte/mmate-intercept/registry"
)

// PluginStyle selects which example plugins are enabled by Install
type PluginStyle string

const (
	// StyleSplit enables the before and after plugins
	StyleSplit PluginStyle = "split"
	// StyleAround enables the around plugin
	StyleAround PluginStyle = "around"
	// StyleNone registers every plugin disabled
	StyleNone PluginStyle = "none"
)

// ParsePluginStyle validates a style name
func ParsePluginStyle(s string) (PluginStyle, error) {
	switch style := PluginStyle(s); style {
	case StyleSplit, StyleAround, StyleNone:
		return style, nil
	}
	return "", fmt.Errorf("unknown plugin style %q (want split, around or none)", s)
}

// Install registers the key derivation operation and attaches the example
// plugins. All three plugins are attached; style decides which are enabled.
func Install(reg *registry.Registry, style PluginStyle) error {
	if err := reg.RegisterOperation(NewDeriveKeyOperation()); err != nil {
		return err
	}

	split := style == StyleSplit
	around := style == StyleAround
	plugins := []interceptors.Registration{
		{Interceptor: SkuCaseInterceptor{}, SortOrder: 10, Enabled: split},
		{Interceptor: KeyTruncateInterceptor{}, SortOrder: 20, Enabled: split},
		{Interceptor: SkuKeyAroundInterceptor{}, SortOrder: 30, Enabled: around},
	}
	for _, p := range plugins {
		if err := reg.Attach(DeriveKeyID, p); err != nil {
			return err
		}
	}
	return nil
}

// KeyDeriver derives keys through the registry so attached plugins apply
type KeyDeriver struct {
	registry *registry.Registry
}

// NewKeyDeriver creates a key deriver backed by reg
func NewKeyDeriver(reg *registry.Registry) *KeyDeriver {
	return &KeyDeriver{registry: reg}
}

// DeriveKey derives the key for sku
func (d *KeyDeriver) DeriveKey(ctx context.Context, sku string) (string, error) {
	result, err := d.registry.Invoke(ctx, DeriveKeyID, contracts.NewArgs(sku))
	if err != nil {
		return "", fmt.Errorf("derive key for %q: %w", sku, err)
	}
	key, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("derive key for %q: unexpected result %T", sku, result)
	}
	return key, nil
}
