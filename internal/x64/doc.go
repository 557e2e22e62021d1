// Package x64 is the low-level instruction encoder consumed by the
// trampoline emitter: mnemonic-plus-operand emission into a CodeBuffer,
// labeled branches, and placement of finished code into executable memory.
//
// The package knows nothing about signatures or value conversion. It offers
// exactly the instruction forms the emitter needs and encodes them byte by
// byte (REX prefix, ModRM, SIB, displacement). Branches reference named
// labels resolved at finalize time; absolute label addresses (used for the
// error-escape continuation) are patched once the buffer's base address is
// known.
//
// A CodeBuffer is owned by one generation call, is append-only, and becomes
// immutable after Finalize.
//
// This package is internal to the trampoline generator.
package x64
