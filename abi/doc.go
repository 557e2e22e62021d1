// Package abi fixes the two external contracts a trampoline is generated
// against: the host runtime's Conversion Table (a block of helper routine
// addresses at constant byte offsets from one base pointer) and the
// Microsoft x64 calling convention (argument register sequences, shadow
// space, frame alignment).
//
// Nothing in this package emits code. It supplies the constants and frame
// layout arithmetic the emitter builds on, plus the Wrapper capability
// interfaces that let pointer-like host types declare their own conversion
// helpers.
package abi
