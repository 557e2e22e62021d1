package trampoline

import (
	"github.com/wippyai/trampoline/abi"
	"github.com/wippyai/trampoline/internal/kind"
	"github.com/wippyai/trampoline/internal/x64"
)

// scratchXmm is the float-class scratch used for precision conversions. It
// is outside the argument sequence, so staging never clobbers a loaded
// argument register.
const scratchXmm = x64.XMM5

// emitter carries the generation context for one trampoline: the code
// buffer, the table configuration, the frame's temporary area, and the
// emission-state accumulators. One emitter per generation call; nothing
// here is shared or global.
type emitter struct {
	buf   *x64.CodeBuffer
	table abi.Table

	tempBase  int32
	tempCount int
	labelN    int

	// stackAlloc accumulates whether any conversion allocated transient
	// marshaling storage, requiring a StackFreeAll before return.
	stackAlloc bool
}

// scratchFor picks the general scratch register for staging into a memory
// target, guaranteed to differ from the target's base register.
func scratchFor(base x64.Reg) x64.Reg {
	if base == x64.RAX {
		return x64.R11
	}
	return x64.RAX
}

// moveConstant stages a 64-bit immediate into target. Memory targets route
// through a scratch register chosen to differ from the target's base.
func (e *emitter) moveConstant(target x64.Location, v uint64) {
	switch {
	case target.IsReg():
		e.buf.MovRegImm64(target.Reg, v)
	case target.IsXmm():
		s := scratchFor(x64.RSP)
		e.buf.MovRegImm64(s, v)
		e.buf.MovqXmmReg(target.Xmm, s)
	default:
		s := scratchFor(target.Base)
		e.buf.MovRegImm64(s, v)
		e.buf.MovMemReg(target.Base, target.Off, s)
	}
}

// needsRepChange reports whether moving a value of kind k changes its bit
// representation. Only such kinds forbid eliding a same-location move: a
// FloatAsInt64 bitcast between equal locations is already done, while a
// narrow widening or a precision conversion never is.
func needsRepChange(k kind.Kind) bool {
	return k.IsNarrowInt() || k == kind.Float32
}

// moveValue is the universal mover: dispatches on kind to a plain move, a
// zero/sign-extending move, or a float conversion. reverse selects the
// conversion direction (forward is host-representation to native). A move
// between structurally equal locations is elided when the kind requires no
// representation change.
func (e *emitter) moveValue(target, source x64.Location, k kind.Kind, reverse bool) {
	if target.Equal(source) && !needsRepChange(k) {
		return
	}
	switch {
	case k.IsNarrowInt():
		e.moveWiden(target, source, k)
	case k == kind.Float32:
		e.moveFloat32(target, source, reverse)
	default:
		// FloatAsInt64 lands here too: the double/int64 conversion is a
		// pure bitcast, which the plain mover's cross-class MOVQ performs.
		e.movePlain(target, source)
	}
}

// moveWiden loads a narrow integer source with the widening the kind
// demands and stores it into target. Boolean keeps only bit 0.
func (e *emitter) moveWiden(target, source x64.Location, k kind.Kind) {
	r := x64.RAX
	if target.IsReg() {
		r = target.Reg
	}

	fromMem := source.IsMem()
	switch k {
	case kind.Bool:
		if fromMem {
			e.buf.MovzxRegMem8(r, source.Base, source.Off)
		} else {
			e.buf.MovzxRegReg8(r, source.Reg)
		}
		e.buf.AndRegImm8(r, 1)
	case kind.Int8:
		if fromMem {
			e.buf.MovsxRegMem8(r, source.Base, source.Off)
		} else {
			e.buf.MovsxRegReg8(r, source.Reg)
		}
	case kind.Uint8:
		if fromMem {
			e.buf.MovzxRegMem8(r, source.Base, source.Off)
		} else {
			e.buf.MovzxRegReg8(r, source.Reg)
		}
	case kind.Int16:
		if fromMem {
			e.buf.MovsxRegMem16(r, source.Base, source.Off)
		} else {
			e.buf.MovsxRegReg16(r, source.Reg)
		}
	case kind.Uint16:
		if fromMem {
			e.buf.MovzxRegMem16(r, source.Base, source.Off)
		} else {
			e.buf.MovzxRegReg16(r, source.Reg)
		}
	case kind.Int32:
		if fromMem {
			e.buf.MovsxdRegMem(r, source.Base, source.Off)
		} else {
			e.buf.MovsxdRegReg(r, source.Reg)
		}
	case kind.Uint32:
		if fromMem {
			e.buf.Mov32RegMem(r, source.Base, source.Off)
		} else {
			e.buf.Mov32RegReg(r, source.Reg)
		}
	}

	if target.IsMem() {
		e.buf.MovMemReg(target.Base, target.Off, r)
	}
}

// moveFloat32 converts between single and double precision. Forward narrows
// a host double to a native single; reverse widens a native single back.
func (e *emitter) moveFloat32(target, source x64.Location, reverse bool) {
	// land the conversion in an xmm register first
	dst := scratchXmm
	if target.IsXmm() {
		dst = target.Xmm
	}

	if reverse {
		switch {
		case source.IsMem():
			e.buf.Cvtss2sdXmmMem(dst, source.Base, source.Off)
		case source.IsXmm():
			e.buf.Cvtss2sdXmmXmm(dst, source.Xmm)
		default:
			e.buf.MovdXmmReg(scratchXmm, source.Reg)
			e.buf.Cvtss2sdXmmXmm(dst, scratchXmm)
		}
		switch {
		case target.IsMem():
			e.buf.MovsdMemXmm(target.Base, target.Off, dst)
		case target.IsReg():
			e.buf.MovqRegXmm(target.Reg, dst)
		}
		return
	}

	switch {
	case source.IsMem():
		e.buf.Cvtsd2ssXmmMem(dst, source.Base, source.Off)
	case source.IsXmm():
		e.buf.Cvtsd2ssXmmXmm(dst, source.Xmm)
	default:
		e.buf.MovqXmmReg(scratchXmm, source.Reg)
		e.buf.Cvtsd2ssXmmXmm(dst, scratchXmm)
	}
	switch {
	case target.IsMem():
		e.buf.MovssMemXmm(target.Base, target.Off, dst)
	case target.IsReg():
		e.buf.MovdRegXmm(target.Reg, dst)
	}
}

// movePlain moves 64 bits between any two locations.
func (e *emitter) movePlain(target, source x64.Location) {
	switch {
	case target.IsReg() && source.IsReg():
		e.buf.MovRegReg(target.Reg, source.Reg)
	case target.IsReg() && source.IsMem():
		e.buf.MovRegMem(target.Reg, source.Base, source.Off)
	case target.IsReg() && source.IsXmm():
		e.buf.MovqRegXmm(target.Reg, source.Xmm)
	case target.IsXmm() && source.IsReg():
		e.buf.MovqXmmReg(target.Xmm, source.Reg)
	case target.IsXmm() && source.IsMem():
		e.buf.MovsdXmmMem(target.Xmm, source.Base, source.Off)
	case target.IsXmm() && source.IsXmm():
		e.buf.MovsdXmmXmm(target.Xmm, source.Xmm)
	case target.IsMem() && source.IsReg():
		e.buf.MovMemReg(target.Base, target.Off, source.Reg)
	case target.IsMem() && source.IsXmm():
		e.buf.MovsdMemXmm(target.Base, target.Off, source.Xmm)
	default:
		s := scratchFor(target.Base)
		e.buf.MovRegMem(s, source.Base, source.Off)
		e.buf.MovMemReg(target.Base, target.Off, s)
	}
}

// fromRAX moves a helper result out of RAX, elided when RAX already is the
// target.
func (e *emitter) fromRAX(target x64.Location) {
	if target.Equal(x64.RegLoc(x64.RAX)) {
		return
	}
	e.movePlain(target, x64.RegLoc(x64.RAX))
}

// allocTemp returns the first free 8-byte scratch slot in the frame's
// temporary area, skipping any slot in live so a conversion never clobbers
// a value it still needs. Slot 0 is reserved for the saved ReturnPoint.
// Only canonical frame-base (RSP-relative) locations count as occupying.
func (e *emitter) allocTemp(live []x64.Location) x64.Location {
	for i := 1; i < e.tempCount; i++ {
		slot := x64.MemLoc(x64.RSP, e.tempBase+int32(i)*8)
		free := true
		for _, l := range live {
			if l.IsMem() && l.Base == x64.RSP && l.Equal(slot) {
				free = false
				break
			}
		}
		if free {
			return slot
		}
	}
	// the temp area is sized for the worst conversion; reaching here is an
	// emitter bug, not a caller error
	panic("trampoline: temporary area exhausted")
}

// callTable emits a call through the Conversion Table slot at off.
func (e *emitter) callTable(off int32) {
	e.buf.MovRegImm64(x64.R10, uint64(e.table.Base))
	e.buf.CallMem(x64.R10, off)
}

// loadTableSlot loads the table data slot at off into dst.
func (e *emitter) loadTableSlot(dst x64.Reg, off int32) {
	e.buf.MovRegImm64(x64.R10, uint64(e.table.Base))
	e.buf.MovRegMem(dst, x64.R10, off)
}

// storeTableSlot stores src into the table data slot at off.
func (e *emitter) storeTableSlot(off int32, src x64.Reg) {
	e.buf.MovRegImm64(x64.R10, uint64(e.table.Base))
	e.buf.MovMemReg(x64.R10, off, src)
}
