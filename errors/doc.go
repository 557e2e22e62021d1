// Package errors provides structured error types for the trampoline library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the host-facing ordinal of the offending
// slot and the name of the offending kind, so a construction failure always
// names what was wrong and where.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePlan, errors.KindInvalidOption).
//		Ordinal(2).
//		TypeName("float32").
//		Detail("nullableReturn requires a pointer-like return kind").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidKind(3, "unknown")
//	err := errors.NotPointerLike(0, "int32")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
