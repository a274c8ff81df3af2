// Package catalog is the example payload for the interception chain: a key
// derived from a product SKU, extended by plugins without touching DeriveKey.
//
// The plugins come in two equivalent shapes:
//   - SkuCaseInterceptor (before) uppercases the SKU and KeyTruncateInterceptor
//     (after) cuts the key to KeyLength characters
//   - SkuKeyAroundInterceptor does both around a single proceed call
//
// For "test-product" both shapes return the first eight characters of the
// SHA-256 of "TEST-PRODUCT".
package catalog
