// Package errors provides structured error types for better observability
// and programmatic error handling across nodeview.
//
// Only one failure kind is meant to reach callers of a node query: the
// cluster inventory being unavailable. It is reported with
// ErrCodeUnavailable. Degradations such as missing usage metrics are
// absorbed by the engine and never surface as errors.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeUnavailable,
//	    "cluster inventory unavailable",
//	    cause,
//	    map[string]any{
//	        "selector": selector,
//	    },
//	)
package errors
