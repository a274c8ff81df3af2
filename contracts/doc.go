// Package contracts provides the core types shared by the interception chain.
//
// This package defines the contract between a target operation and the
// interceptors bound to it:
//   - OperationID: Identity of a target operation (declaring subject plus method name)
//   - Operation: A named function with a declared parameter list
//   - Args: The argument tuple passed through the chain
//   - Param: A declared parameter used for arity and type validation
//
// Argument validation failures are reported as ArgumentMismatchError values
// which match ErrArgumentMismatch with errors.Is.
package contracts
