package trampoline

import (
	"fmt"

	"github.com/wippyai/trampoline/abi"
	"github.com/wippyai/trampoline/internal/kind"
	"github.com/wippyai/trampoline/internal/x64"
)

// labelSeq hands out unique label names within one generation.
func (e *emitter) nextLabel(prefix string) string {
	e.labelN++
	return fmt.Sprintf("%s_%d", prefix, e.labelN)
}

func decodeOff(k kind.Kind) int32 {
	switch k {
	case kind.StringAnsi:
		return abi.OffDecodeAnsi
	case kind.StringUtf8:
		return abi.OffDecodeUtf8
	case kind.StringUtf16:
		return abi.OffDecodeUtf16
	}
	panic("not a string kind")
}

func encodeOff(k kind.Kind) int32 {
	switch k {
	case kind.StringAnsi:
		return abi.OffEncodeAnsi
	case kind.StringUtf8:
		return abi.OffEncodeUtf8
	case kind.StringUtf16:
		return abi.OffEncodeUtf16
	}
	panic("not a string kind")
}

// escalateInvalid emits the invalid-parameter escalation: report the
// offending value with its host-facing ordinal and kind tag. The table
// routine does not return; control leaves through the saved ReturnPoint.
func (e *emitter) escalateInvalid(src x64.Location, hostOrd int, k kind.Kind) {
	if !src.Equal(x64.RegLoc(x64.RCX)) {
		e.movePlain(x64.RegLoc(x64.RCX), src)
	}
	e.buf.MovRegImm32(x64.RDX, uint32(int32(hostOrd)))
	e.buf.MovRegImm32(x64.R8, uint32(k))
	e.callTable(abi.OffInvalidParameter)
}

// guardDecoded emits the success check after a coercion helper: AL clear
// means the host value did not coerce, which escalates with the slot's
// host ordinal.
func (e *emitter) guardDecoded(src x64.Location, hostOrd int, k kind.Kind) {
	ok := e.nextLabel("coerced")
	e.buf.TestAlAl()
	e.buf.Jcc(x64.CondNZ, ok)
	e.escalateInvalid(src, hostOrd, k)
	e.buf.Mark(ok)
}

// nativeFromHost converts the host value at src into the native
// representation at target, per the slot's kind. src must survive until the
// coercion helper has been called (it is reloaded for error attribution).
func (e *emitter) nativeFromHost(s *Slot, src, target x64.Location) {
	switch {
	case s.Kind == kind.Value:
		e.movePlain(target, src)

	case s.Kind == kind.Void:
		// legal only at the return slot: the host value is dropped

	case s.Kind == kind.Bool || s.Kind.IsNarrowInt():
		off := int32(abi.OffDecodeInt)
		if s.Kind == kind.Bool {
			off = abi.OffDecodeBool
		}
		temp := e.allocTemp([]x64.Location{src, target})
		e.movePlain(x64.RegLoc(x64.RCX), src)
		e.buf.LeaRegMem(x64.RDX, temp.Base, temp.Off)
		e.callTable(off)
		e.guardDecoded(src, s.Host, s.Kind)
		e.moveValue(target, temp, s.Kind, false)

	case s.Kind == kind.FloatAsInt64 || s.Kind == kind.Float32 || s.Kind == kind.Float64:
		temp := e.allocTemp([]x64.Location{src, target})
		e.movePlain(x64.RegLoc(x64.RCX), src)
		e.buf.LeaRegMem(x64.RDX, temp.Base, temp.Off)
		e.callTable(abi.OffDecodeDouble)
		e.guardDecoded(src, s.Host, s.Kind)
		e.moveValue(target, temp, s.Kind, false)

	case s.Kind.IsString():
		e.movePlain(x64.RegLoc(x64.RCX), src)
		e.buf.MovRegImm32(x64.RDX, uint32(int32(s.Host)))
		e.callTable(decodeOff(s.Kind))
		e.fromRAX(target)
		e.stackAlloc = true

	case s.Kind == kind.Bin64:
		temp := e.allocTemp([]x64.Location{src, target})
		e.movePlain(x64.RegLoc(x64.RCX), src)
		e.buf.LeaRegMem(x64.RDX, temp.Base, temp.Off)
		e.buf.MovRegImm32(x64.R8, abi.Bin64Length)
		e.callTable(abi.OffDecodeBin64)
		e.guardDecoded(src, s.Host, s.Kind)
		e.movePlain(target, temp)

	default:
		// pointer-like: Buffer, Pointer, Wrapper, via the table pointer
		// decode routine; wrapper capabilities travel as the third argument
		off := int32(abi.OffDecodePointer)
		if s.Nullable {
			off = abi.OffDecodePointerNullable
		}
		e.movePlain(x64.RegLoc(x64.RCX), src)
		e.buf.MovRegImm32(x64.RDX, uint32(int32(s.Host)))
		if s.Kind == kind.Wrapper {
			e.buf.MovRegImm64(x64.R8, uint64(s.toNative))
		} else {
			e.buf.XorRegReg(x64.R8, x64.R8)
		}
		e.callTable(off)
		if s.Host == 0 && !s.Nullable {
			// a this slot converging to native null has no receiver to call
			ok := e.nextLabel("this_ok")
			e.buf.TestRegReg(x64.RAX, x64.RAX)
			e.buf.Jcc(x64.CondNZ, ok)
			e.escalateInvalid(src, s.Host, s.Kind)
			e.buf.Mark(ok)
		}
		e.fromRAX(target)
	}
}
