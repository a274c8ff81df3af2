package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/glimte/mmate-intercept/interceptors"
)

// Plugin names as used in plugin declaration files
const (
	SkuCasePlugin      = "sku_case"
	KeyTruncatePlugin  = "key_truncate"
	SkuKeyAroundPlugin = "sku_key_around"
)

// SkuCaseInterceptor uppercases the SKU before the key is derived
type SkuCaseInterceptor struct{}

// Name implements interceptors.Interceptor
func (SkuCaseInterceptor) Name() string {
	return SkuCasePlugin
}

// Before implements interceptors.BeforeInterceptor
func (SkuCaseInterceptor) Before(_ context.Context, _ contracts.OperationID, args contracts.Args) (contracts.Args, error) {
	sku, err := skuArg(args)
	if err != nil {
		return nil, err
	}
	return contracts.NewArgs(strings.ToUpper(sku)), nil
}

// KeyTruncateInterceptor shortens the derived key to KeyLength characters
type KeyTruncateInterceptor struct{}

// Name implements interceptors.Interceptor
func (KeyTruncateInterceptor) Name() string {
	return KeyTruncatePlugin
}

// After implements interceptors.AfterInterceptor
func (KeyTruncateInterceptor) After(_ context.Context, _ contracts.OperationID, _ contracts.Args, result any) (any, error) {
	key, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("key must be a string, got %T", result)
	}
	return truncate(key), nil
}

// SkuKeyAroundInterceptor uppercases the SKU and truncates the key around a
// single proceed call
type SkuKeyAroundInterceptor struct{}

// Name implements interceptors.Interceptor
func (SkuKeyAroundInterceptor) Name() string {
	return SkuKeyAroundPlugin
}

// Around implements interceptors.AroundInterceptor
func (SkuKeyAroundInterceptor) Around(ctx context.Context, _ contracts.OperationID, args contracts.Args, proceed interceptors.Proceed) (any, error) {
	sku, err := skuArg(args)
	if err != nil {
		return nil, err
	}
	result, err := proceed(ctx, contracts.NewArgs(strings.ToUpper(sku)))
	if err != nil {
		return nil, err
	}
	key, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("key must be a string, got %T", result)
	}
	return truncate(key), nil
}

func skuArg(args contracts.Args) (string, error) {
	if len(args) == 0 {
		return "", errors.New("sku argument is missing")
	}
	sku, ok := args.String(0)
	if !ok {
		return "", fmt.Errorf("sku must be a string, got %T", args[0])
	}
	return sku, nil
}

func truncate(key string) string {
	if len(key) <= KeyLength {
		return key
	}
	return key[:KeyLength]
}
