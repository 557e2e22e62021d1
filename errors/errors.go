package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhasePlan     Phase = "plan"     // signature planning
	PhaseEmit     Phase = "emit"     // code emission
	PhaseFinalize Phase = "finalize" // executable-memory placement
	PhaseInvoke   Phase = "invoke"   // generated-code runtime (surfaced via the table)
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidKind    Kind = "invalid_kind"
	KindInvalidOption  Kind = "invalid_option"
	KindMissingThis    Kind = "missing_this"
	KindNotPointerLike Kind = "not_pointer_like"
	KindNoCapability   Kind = "no_capability"
	KindBadTarget      Kind = "bad_target"
	KindBufferSealed   Kind = "buffer_sealed"
	KindLabelUnbound   Kind = "label_unbound"
	KindAllocation     Kind = "allocation"
	KindNilPointer     Kind = "nil_pointer"
	KindUnsupported    Kind = "unsupported"
)

// ReturnOrdinal is the host-facing ordinal of the return slot in error context.
const ReturnOrdinal = -1

// Error is the structured error type used throughout the generator
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	TypeName string
	Detail   string
	Ordinal  int
	HasOrd   bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.HasOrd {
		switch e.Ordinal {
		case ReturnOrdinal:
			b.WriteString(" at return")
		case 0:
			b.WriteString(" at this")
		default:
			fmt.Fprintf(&b, " at param %d", e.Ordinal)
		}
	}

	if e.TypeName != "" {
		b.WriteString(": type ")
		b.WriteString(e.TypeName)
	}

	if e.Detail != "" {
		if e.TypeName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Ordinal sets the host-facing ordinal (ReturnOrdinal for the return slot,
// 0 for this, declared parameters from 1).
func (b *Builder) Ordinal(ord int) *Builder {
	b.err.Ordinal = ord
	b.err.HasOrd = true
	return b
}

// TypeName sets the offending kind or type name
func (b *Builder) TypeName(t string) *Builder {
	b.err.TypeName = t
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidKind creates an unrecognized-kind error for a slot
func InvalidKind(ord int, typeName string) *Error {
	return &Error{
		Phase:    PhasePlan,
		Kind:     KindInvalidKind,
		Ordinal:  ord,
		HasOrd:   true,
		TypeName: typeName,
		Detail:   "invalid type id",
	}
}

// InvalidOption creates a bad-option-combination error
func InvalidOption(detail string) *Error {
	return &Error{
		Phase:  PhasePlan,
		Kind:   KindInvalidOption,
		Detail: detail,
	}
}

// NotPointerLike creates an error for options that require a pointer-like kind
func NotPointerLike(ord int, typeName string) *Error {
	return &Error{
		Phase:    PhasePlan,
		Kind:     KindNotPointerLike,
		Ordinal:  ord,
		HasOrd:   true,
		TypeName: typeName,
	}
}

// NoCapability creates an error for a wrapper type missing a conversion direction
func NoCapability(ord int, typeName, direction string) *Error {
	return &Error{
		Phase:    PhasePlan,
		Kind:     KindNoCapability,
		Ordinal:  ord,
		HasOrd:   true,
		TypeName: typeName,
		Detail:   fmt.Sprintf("no %s conversion registered", direction),
	}
}

// AllocationFailed creates an executable-memory allocation failure error
func AllocationFailed(size int, cause error) *Error {
	return &Error{
		Phase:  PhaseFinalize,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d executable bytes", size),
		Cause:  cause,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Detail: what + " cannot be nil",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}
