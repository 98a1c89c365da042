// Package errors provides the classified error primitives used across spritegen.
//
// Every failure the build engine can surface maps onto one ErrorCategory.
// Config and validation errors are fatal and abort before any sheet runs;
// the sheet-scoped categories (resolution, packing, metadata, conversion,
// write, template, timeout) fail one sheet and leave the others building.
//
// Errors are built with a fluent builder:
//
//	err := errors.PackingError("pack sprite sheet").
//		ForSheet(name).
//		WithCause(cause).
//		Build()
package errors
