package trampoline

import (
	"github.com/wippyai/trampoline/abi"
	"github.com/wippyai/trampoline/internal/kind"
	"github.com/wippyai/trampoline/internal/x64"
)

// hostFromNative converts the native value at src into a host value at
// target, per the slot's kind. Integer and float kinds stage through the
// calling registers of the matching table encode routine; pointer-like
// kinds null-check first unless the slot was declared nullable.
func (e *emitter) hostFromNative(s *Slot, src, target x64.Location) {
	switch {
	case s.Kind == kind.Value:
		e.movePlain(target, src)

	case s.Kind == kind.Void:
		// the canonical "no value"
		e.loadTableSlot(x64.RAX, abi.OffUndefinedValue)
		e.fromRAX(target)

	case s.Kind == kind.Bool:
		e.moveValue(x64.RegLoc(x64.RCX), src, kind.Bool, true)
		e.callTable(abi.OffEncodeBool)
		e.fromRAX(target)

	case s.Kind.IsNarrowInt():
		e.moveValue(x64.RegLoc(x64.RCX), src, s.Kind, true)
		e.callTable(abi.OffEncodeInt)
		e.fromRAX(target)

	case s.Kind == kind.FloatAsInt64 || s.Kind == kind.Float32 || s.Kind == kind.Float64:
		// the encode routine takes the double in XMM0
		e.moveValue(x64.XmmLoc(x64.XMM0), src, s.Kind, true)
		e.callTable(abi.OffEncodeDouble)
		e.fromRAX(target)

	case s.Kind.IsString():
		e.movePlain(x64.RegLoc(x64.RCX), src)
		e.buf.MovRegImm32(x64.RDX, uint32(int32(s.Host)))
		e.callTable(encodeOff(s.Kind))
		e.fromRAX(target)

	case s.Kind == kind.Bin64:
		stage := src
		if !src.IsMem() {
			// materialize into the frame so the helper gets an address
			stage = e.allocTemp([]x64.Location{target})
			e.movePlain(stage, src)
		}
		e.buf.LeaRegMem(x64.RCX, stage.Base, stage.Off)
		e.buf.MovRegImm32(x64.RDX, abi.Bin64Length)
		e.callTable(abi.OffEncodeBin64)
		e.fromRAX(target)

	default:
		// pointer-like: Buffer, Pointer, Wrapper
		e.movePlain(x64.RegLoc(x64.RCX), src)
		if !s.Nullable {
			ok := e.nextLabel("ptr_ok")
			e.buf.TestRegReg(x64.RCX, x64.RCX)
			e.buf.Jcc(x64.CondNZ, ok)
			e.escalateInvalid(x64.RegLoc(x64.RCX), s.Host, s.Kind)
			e.buf.Mark(ok)
		}
		off := int32(abi.OffEncodePointer)
		if s.Nullable {
			off = abi.OffEncodePointerNullable
		}
		if s.Kind == kind.Wrapper {
			e.buf.MovRegImm64(x64.RDX, uint64(s.fromNative))
		} else {
			e.buf.XorRegReg(x64.RDX, x64.RDX)
		}
		e.callTable(off)
		e.fromRAX(target)
	}
}
