package abi

// Wrapper is the capability interface for pointer-like types that convert
// themselves across the boundary. A type declares a slot kind by exposing
// the native helper address for the direction it supports; the planner
// checks the needed direction once, at construction, and fails if absent.
//
// Both helpers follow the pointer conversion convention of the table:
// ToNative takes (hostValue, ordinal) and returns a native pointer,
// FromNative takes (nativePtr) and returns a host value.
type Wrapper interface {
	// TypeName names the wrapper type in errors.
	TypeName() string
}

// HostToNative is implemented by wrapper types usable as parameters of
// host-callable trampolines and as `this`.
type HostToNative interface {
	Wrapper
	ToNativeAddr() uintptr
}

// NativeToHost is implemented by wrapper types usable as return kinds and as
// parameters of native-callable host functions.
type NativeToHost interface {
	Wrapper
	FromNativeAddr() uintptr
}
