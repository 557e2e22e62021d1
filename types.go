package trampoline

import (
	"github.com/wippyai/trampoline/internal/kind"
)

type Kind = kind.Kind

const (
	KindVoid         = kind.Void
	KindBool         = kind.Bool
	KindInt8         = kind.Int8
	KindUint8        = kind.Uint8
	KindInt16        = kind.Int16
	KindUint16       = kind.Uint16
	KindInt32        = kind.Int32
	KindUint32       = kind.Uint32
	KindFloatAsInt64 = kind.FloatAsInt64
	KindFloat32      = kind.Float32
	KindFloat64      = kind.Float64
	KindStringAnsi   = kind.StringAnsi
	KindStringUtf8   = kind.StringUtf8
	KindStringUtf16  = kind.StringUtf16
	KindBuffer       = kind.Buffer
	KindBin64        = kind.Bin64
	KindValue        = kind.Value
)

// Type describes one declared slot: an elementary Kind, the RawPointer
// marker, or a value implementing one of the abi wrapper capabilities.
type Type any

type rawPointer struct{}

// RawPointer declares a slot that carries a native pointer verbatim, with
// the host side seeing it through the table's pointer helpers.
var RawPointer Type = rawPointer{}

// HostFunction is an opaque reference to a host-runtime function value.
type HostFunction uintptr

// Retainer keeps a host function alive for the process lifetime. Retention
// happens once at generation and is never undone by this package.
type Retainer interface {
	Retain(fn HostFunction)
}

// NativeTarget is the callee of a host-callable trampoline: either a
// concrete function pointer or a vtable slot for virtual dispatch.
type NativeTarget struct {
	Func         uintptr
	VtableOffset int32
	ThisOffset   int32
	Virtual      bool
}

// Direct targets a concrete native function pointer.
func Direct(fn uintptr) NativeTarget {
	return NativeTarget{Func: fn}
}

// VirtTarget targets a vtable slot, optionally adjusting the receiver by
// thisOffset before the vtable load.
func VirtTarget(vtableOffset, thisOffset int32) NativeTarget {
	return NativeTarget{VtableOffset: vtableOffset, ThisOffset: thisOffset, Virtual: true}
}

// Options are the recognized signature options.
type Options struct {
	// This declares an implicit first native parameter. Must be a
	// pointer-like Type.
	This Type

	// StructureReturn injects a hidden out-parameter slot and makes the
	// native function return the storage pointer.
	StructureReturn bool

	// NullableReturn lets a pointer-like return pass native null through as
	// host null instead of the invalid-parameter path.
	NullableReturn bool

	// NullableThis lets the receiver be host null.
	NullableThis bool

	// NullableParams lets every declared pointer-like parameter be null.
	NullableParams bool
}
