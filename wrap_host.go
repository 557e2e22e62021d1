package trampoline

import (
	"github.com/wippyai/trampoline/abi"
	"github.com/wippyai/trampoline/errors"
	"github.com/wippyai/trampoline/internal/kind"
	"github.com/wippyai/trampoline/internal/x64"
)

// WrapHostFunctionForNativeCalling generates a trampoline that makes the
// host function callable from native code under the Microsoft x64
// convention. The host function is retained for the process lifetime; the
// returned pointer is never reclaimed or patched.
func (g *Generator) WrapHostFunctionForNativeCalling(fn HostFunction, ret Type, opts Options, params ...Type) (uintptr, error) {
	if fn == 0 {
		return 0, errors.NilPointer(errors.PhasePlan, "host function")
	}
	p, err := plan(ret, opts, params, hostward)
	if err != nil {
		return 0, err
	}
	g.retain(fn)

	buf := x64.NewCodeBuffer()
	if g.listing {
		buf.EnableListing()
	}
	g.emitHostWrapper(buf, p, fn)
	addr, err := buf.Finalize()
	if err != nil {
		return 0, err
	}
	g.logGenerated("native-to-host", p, buf.Len())
	return addr, nil
}

// PreviewHostFunctionWrapper emits the trampoline without finalizing it.
func (g *Generator) PreviewHostFunctionWrapper(ret Type, opts Options, params ...Type) (*Preview, error) {
	p, err := plan(ret, opts, params, hostward)
	if err != nil {
		return nil, err
	}
	buf := x64.NewCodeBuffer()
	buf.EnableListing()
	g.emitHostWrapper(buf, p, 0)
	if err := buf.Resolve(); err != nil {
		return nil, err
	}
	return &Preview{Code: buf.Bytes(), Listing: buf.Listing()}, nil
}

// emitHostWrapper emits prologue, native-to-host argument conversion, the
// host invocation, host-to-native return conversion, and both epilogues.
func (g *Generator) emitHostWrapper(buf *x64.CodeBuffer, p *SignaturePlan, fn HostFunction) {
	e := &emitter{buf: buf, table: g.table}
	frame := abi.NewHostFrame(p.ParamCount + 1)
	e.tempBase = frame.TempOff
	e.tempCount = abi.TempSlots

	rpSave := x64.MemLoc(x64.RSP, frame.TempSlot(0))
	resultStage := x64.MemLoc(x64.RSP, frame.TempSlot(1))

	// prologue: two saved registers, the frame, the escape continuation
	buf.PushReg(x64.RDI)
	buf.PushReg(x64.RSI)
	buf.SubRspImm(frame.Size)

	// spill register-resident native arguments into their homes, by class
	for i := 0; i < p.NativeSlotCount() && i < 4; i++ {
		home := frame.NativeArgHome(i)
		if p.Slots[i].Kind.IsFloat() {
			buf.MovsdMemXmm(x64.RSP, home, abi.ArgXmms[i])
		} else {
			buf.MovMemReg(x64.RSP, home, abi.ArgRegs[i])
		}
	}

	// save the current escape continuation, install ours
	e.loadTableSlot(x64.RAX, abi.OffReturnPoint)
	buf.MovMemReg(rpSave.Base, rpSave.Off, x64.RAX)
	buf.MovRegLabel(x64.RAX, "escape")
	e.storeTableSlot(abi.OffReturnPoint, x64.RAX)

	// host argv slot 0: the receiver, or the canonical no-value
	if p.This {
		this := &p.Slots[0]
		e.hostFromNative(this,
			x64.MemLoc(x64.RSP, frame.NativeArgHome(0)),
			x64.MemLoc(x64.RSP, frame.ArgvSlot(0)))
	} else {
		e.loadTableSlot(x64.RAX, abi.OffUndefinedValue)
		buf.MovMemReg(x64.RSP, frame.ArgvSlot(0), x64.RAX)
	}

	// declared parameters, native homes to host argv
	for i := range p.Slots {
		s := &p.Slots[i]
		if s.Host < 1 {
			continue
		}
		e.hostFromNative(s,
			x64.MemLoc(x64.RSP, frame.NativeArgHome(s.Native)),
			x64.MemLoc(x64.RSP, frame.ArgvSlot(s.Host)))
	}

	// invoke: (function reference, argv base, count+1, frame base)
	buf.MovRegImm64(x64.RCX, uint64(fn))
	buf.LeaRegMem(x64.RDX, x64.RSP, frame.ArgvOff)
	buf.MovRegImm32(x64.R8, uint32(p.ParamCount+1))
	buf.MovRegReg(x64.R9, x64.RSP)
	e.callTable(abi.OffCallHostFunction)

	buf.TestRegReg(x64.RAX, x64.RAX)
	buf.Jcc(x64.CondZ, "host_failed")

	// convert the result back to the native representation
	switch {
	case p.HiddenReturn:
		hidden := p.This
		var hiddenOrd int
		if hidden {
			hiddenOrd = 1
		}
		buf.MovMemReg(resultStage.Base, resultStage.Off, x64.RAX)
		retTemp := e.allocTemp([]x64.Location{resultStage})
		e.nativeFromHost(&p.Return, resultStage, retTemp)
		// the hidden slot's pointer is both the store target and the
		// native return value
		buf.MovRegMem(x64.RAX, x64.RSP, frame.NativeArgHome(hiddenOrd))
		e.movePlain(x64.MemLoc(x64.RAX, 0), retTemp)

	case p.Return.Kind == kind.Void:
		// native void: nothing to produce

	default:
		buf.MovMemReg(resultStage.Base, resultStage.Off, x64.RAX)
		e.nativeFromHost(&p.Return, resultStage, nativeReturnLoc(p.Return.Kind))
	}

	g.emitHostEpilogue(e, frame, rpSave, p, false)

	// the host call itself failed: fire-and-escape, no cleanup after
	buf.Mark("host_failed")
	e.callTable(abi.OffGetOut)

	// escape continuation: a table reporting routine interrupted the call
	buf.Mark("escape")
	g.emitHostEpilogue(e, frame, rpSave, p, true)
}

// emitHostEpilogue restores the escape continuation, frees transient
// marshaling storage if any conversion allocated it, and returns. The
// escape variant yields a zero native return.
func (g *Generator) emitHostEpilogue(e *emitter, frame abi.HostFrame, rpSave x64.Location, p *SignaturePlan, escape bool) {
	buf := e.buf
	buf.MovRegMem(x64.R11, rpSave.Base, rpSave.Off)
	e.storeTableSlot(abi.OffReturnPoint, x64.R11)

	if e.stackAlloc {
		staged := p.Return.Kind
		if p.HiddenReturn {
			// the native return is the hidden pointer in rax, whatever
			// the declared return kind converts as
			staged = kind.Pointer
		}
		if !escape {
			// the free call's own argument passing must not clobber the
			// return registers
			e.stageReturn(frame.TempSlot(1), staged, true)
		}
		buf.MovRegReg(x64.RCX, x64.RSP)
		e.callTable(abi.OffStackFreeAll)
		if !escape {
			e.stageReturn(frame.TempSlot(1), staged, false)
		}
	}
	if escape {
		buf.XorRegReg(x64.RAX, x64.RAX)
	}

	buf.AddRspImm(frame.Size)
	buf.PopReg(x64.RSI)
	buf.PopReg(x64.RDI)
	buf.Ret()
}

// stageReturn saves or restores the native return register across a helper
// call, using the float class when the return kind demands it.
func (e *emitter) stageReturn(off int32, k kind.Kind, save bool) {
	if k == kind.Void {
		return
	}
	if k.IsFloat() {
		if save {
			e.buf.MovsdMemXmm(x64.RSP, off, x64.XMM0)
		} else {
			e.buf.MovsdXmmMem(x64.XMM0, x64.RSP, off)
		}
		return
	}
	if save {
		e.buf.MovMemReg(x64.RSP, off, x64.RAX)
	} else {
		e.buf.MovRegMem(x64.RAX, x64.RSP, off)
	}
}

// nativeReturnLoc is the register a native caller expects the return value
// in, chosen by class.
func nativeReturnLoc(k kind.Kind) x64.Location {
	if k.IsFloat() {
		return x64.XmmLoc(x64.XMM0)
	}
	return x64.RegLoc(x64.RAX)
}
