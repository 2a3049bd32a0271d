// Package types defines the aggregates, reference entities, paging contract,
// configuration and error kinds shared by the dndb persistence engine and its
// callers.
//
// Aggregates are plain JSON-serializable structs. Every failure returned by
// the engine is a *Error carrying a Kind; callers match kinds with errors.Is
// against the sentinel values declared in errors.go.
package types
