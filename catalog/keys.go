package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/glimte/mmate-intercept/contracts"
)

// KeyLength is the length a key is truncated to by the example plugins
const KeyLength = 8

// DeriveKeyID identifies the key derivation operation
var DeriveKeyID = contracts.OperationID{Subject: "catalog.KeyDeriver", Method: "DeriveKey"}

// DeriveKey returns the hex encoded SHA-256 of sku
func DeriveKey(sku string) string {
	sum := sha256.Sum256([]byte(sku))
	return hex.EncodeToString(sum[:])
}

// NewDeriveKeyOperation wraps DeriveKey as a target operation taking one string
func NewDeriveKeyOperation() *contracts.Operation {
	return &contracts.Operation{
		ID:     DeriveKeyID,
		Params: []contracts.Param{contracts.ParamOf[string]("sku")},
		Fn: func(_ context.Context, args contracts.Args) (any, error) {
			sku, _ := args.String(0)
			return DeriveKey(sku), nil
		},
	}
}
