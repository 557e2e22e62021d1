package abi

import (
	"github.com/wippyai/trampoline/internal/x64"
)

// Microsoft x64 calling convention.
//
// The first four by-class arguments travel in registers, chosen per slot by
// kind: the general sequence for integers and pointers, the parallel float
// sequence for float kinds. Position is shared across classes (a float in
// slot 1 consumes XMM1, not XMM0). The remainder go on the stack above the
// caller-reserved shadow space, and the stack is 16-byte aligned at every
// call site.

// ArgRegs is the general-register argument sequence.
var ArgRegs = [4]x64.Reg{x64.RCX, x64.RDX, x64.R8, x64.R9}

// ArgXmms is the parallel float-register argument sequence.
var ArgXmms = [4]x64.Xmm{x64.XMM0, x64.XMM1, x64.XMM2, x64.XMM3}

const (
	// ShadowSpace is the caller-reserved spill area required at every call
	// site regardless of actual argument count.
	ShadowSpace = 32

	// RetAddrBias keeps frames 16-byte aligned: the call that entered the
	// trampoline already pushed an 8-byte return address.
	RetAddrBias = 8

	// SavedRegBytes is the two general registers every prologue pushes.
	SavedRegBytes = 16

	// StructReturnSpace is the storage reserved in the frame for a hidden
	// structure-return slot.
	StructReturnSpace = 64

	// TempSlots is the number of 8-byte scratch slots in every frame.
	// Slot 0 always holds the saved ReturnPoint continuation.
	TempSlots = 4
)

// frameAlign rounds a raw frame size so that rsp lands 16-byte aligned after
// the return address push, the two register pushes, and the subtraction.
func frameAlign(raw int32) int32 {
	return (raw+15)&^15 + RetAddrBias
}

// HostFrame is the frame layout of a trampoline that wraps a host function
// for native calling: call scratch at the bottom, the host argument array
// above it, conversion temporaries on top.
type HostFrame struct {
	Size    int32
	ArgvOff int32
	TempOff int32
	Slots   int32 // host argv entries, receiver included
}

// NewHostFrame lays out the frame for a host argv of the given slot count.
func NewHostFrame(argvSlots int) HostFrame {
	f := HostFrame{Slots: int32(argvSlots)}
	f.ArgvOff = ShadowSpace
	f.TempOff = f.ArgvOff + f.Slots*8
	f.Size = frameAlign(f.TempOff + TempSlots*8)
	return f
}

// ArgvSlot returns the frame offset of host argv entry i.
func (f HostFrame) ArgvSlot(i int) int32 {
	return f.ArgvOff + int32(i)*8
}

// TempSlot returns the frame offset of scratch slot i.
func (f HostFrame) TempSlot(i int) int32 {
	return f.TempOff + int32(i)*8
}

// NativeArgHome returns the frame offset of incoming native argument i,
// which lives in the caller's shadow space (i < 4, after the prologue
// spills it there) or the caller's outgoing stack area (i >= 4).
func (f HostFrame) NativeArgHome(i int) int32 {
	return f.Size + RetAddrBias + SavedRegBytes + int32(i)*8
}

// NativeFrame is the frame layout of a trampoline that wraps a native
// function for host calling: call scratch and outgoing stack arguments at
// the bottom, hidden structure-return space just below the parameter spill
// area, conversion temporaries on top.
type NativeFrame struct {
	Size      int32
	HiddenOff int32
	SpillOff  int32
	TempOff   int32
	Slots     int32 // native argument slots, this and hidden-return included
}

// NewNativeFrame lays out the frame for the given native slot count.
func NewNativeFrame(nativeSlots int, hiddenReturn bool) NativeFrame {
	f := NativeFrame{Slots: int32(nativeSlots)}
	callArea := int32(ShadowSpace)
	if nativeSlots > 4 {
		callArea += int32(nativeSlots-4) * 8
	}
	f.HiddenOff = callArea
	hidden := int32(0)
	if hiddenReturn {
		hidden = StructReturnSpace
	}
	f.SpillOff = f.HiddenOff + hidden
	f.TempOff = f.SpillOff + f.Slots*8
	f.Size = frameAlign(f.TempOff + TempSlots*8)
	return f
}

// SpillSlot returns the frame offset of converted native argument i.
func (f NativeFrame) SpillSlot(i int) int32 {
	return f.SpillOff + int32(i)*8
}

// TempSlot returns the frame offset of scratch slot i.
func (f NativeFrame) TempSlot(i int) int32 {
	return f.TempOff + int32(i)*8
}

// StackArgSlot returns the outgoing stack slot for native argument i >= 4.
func (f NativeFrame) StackArgSlot(i int) int32 {
	return ShadowSpace + int32(i-4)*8
}
