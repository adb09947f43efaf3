// Package errors provides the classified error primitives used across sitebuilder.
//
// Build failures carry a category (config, data, hook, render, ...), a severity and a
// small structured context so the CLI can pick an exit code and log something useful
// without string matching.
//
// Example usage:
//
//	err := errors.DataError("failed to parse token document").
//		WithCause(parseErr).
//		WithContext("path", tokensPath).
//		Build()
package errors
