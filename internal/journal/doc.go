// Package journal keeps a history of changes to the interceptor chains of
// registered operations.
package journal
