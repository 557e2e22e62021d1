package trampoline

import (
	"github.com/wippyai/trampoline/abi"
	"github.com/wippyai/trampoline/errors"
	"github.com/wippyai/trampoline/internal/kind"
	"github.com/wippyai/trampoline/internal/x64"
)

// WrapNativeForHostCalling generates a trampoline that makes a native
// function pointer, or a vtable slot for virtual dispatch, callable from
// the host runtime. The returned pointer is never reclaimed or patched.
func (g *Generator) WrapNativeForHostCalling(target NativeTarget, ret Type, opts Options, params ...Type) (uintptr, error) {
	p, err := g.planNative(target, ret, opts, params)
	if err != nil {
		return 0, err
	}

	buf := x64.NewCodeBuffer()
	if g.listing {
		buf.EnableListing()
	}
	g.emitNativeWrapper(buf, p, target)
	addr, err := buf.Finalize()
	if err != nil {
		return 0, err
	}
	g.logGenerated("host-to-native", p, buf.Len())
	return addr, nil
}

// PreviewNativeWrapper emits the trampoline without finalizing it.
func (g *Generator) PreviewNativeWrapper(target NativeTarget, ret Type, opts Options, params ...Type) (*Preview, error) {
	p, err := g.planNative(target, ret, opts, params)
	if err != nil {
		return nil, err
	}
	buf := x64.NewCodeBuffer()
	buf.EnableListing()
	g.emitNativeWrapper(buf, p, target)
	if err := buf.Resolve(); err != nil {
		return nil, err
	}
	return &Preview{Code: buf.Bytes(), Listing: buf.Listing()}, nil
}

func (g *Generator) planNative(target NativeTarget, ret Type, opts Options, params []Type) (*SignaturePlan, error) {
	if target.Virtual {
		if opts.This == nil {
			return nil, errors.InvalidOption("virtual dispatch requires this")
		}
		if opts.NullableThis {
			// a null this has no vtable
			return nil, errors.InvalidOption("nullableThis cannot be combined with virtual dispatch")
		}
	} else if target.Func == 0 {
		return nil, errors.NilPointer(errors.PhasePlan, "native function")
	}
	return plan(ret, opts, params, nativeward)
}

// emitNativeWrapper emits the argument-count check, host-to-native
// conversion of every slot, the native call (direct or through the vtable),
// and the return conversion with its free-ordering discipline.
//
// The trampoline is invoked by the host runtime with the function context
// in RCX, the host argument array base in RDX (entry 0 the receiver), and
// the argument count in R8.
func (g *Generator) emitNativeWrapper(buf *x64.CodeBuffer, p *SignaturePlan, target NativeTarget) {
	e := &emitter{buf: buf, table: g.table}
	frame := abi.NewNativeFrame(p.NativeSlotCount(), p.HiddenReturn)
	e.tempBase = frame.TempOff
	e.tempCount = abi.TempSlots

	rpSave := x64.MemLoc(x64.RSP, frame.TempSlot(0))

	buf.PushReg(x64.RDI)
	buf.PushReg(x64.RSI)
	buf.SubRspImm(frame.Size)

	// stable copies across helper calls: argv base and count are needed
	// long after RDX/R8 die
	buf.MovRegReg(x64.RDI, x64.RDX)
	buf.MovRegReg(x64.RSI, x64.R8)

	e.loadTableSlot(x64.RAX, abi.OffReturnPoint)
	buf.MovMemReg(rpSave.Base, rpSave.Off, x64.RAX)
	buf.MovRegLabel(x64.RAX, "escape")
	e.storeTableSlot(abi.OffReturnPoint, x64.RAX)

	// the count check precedes every conversion and the call itself
	if p.ParamCount > 0 {
		buf.CmpRegImm(x64.RSI, int32(p.ParamCount))
		buf.Jcc(x64.CondAE, "count_ok")
		buf.MovRegReg(x64.RCX, x64.RSI)
		buf.MovRegImm32(x64.RDX, uint32(p.ParamCount))
		e.callTable(abi.OffInvalidParameterCount)
		buf.Mark("count_ok")
	}

	if p.NativeSlotCount() <= 1 {
		// fast path: convert straight into the first calling register
		if p.NativeSlotCount() == 1 {
			s := &p.Slots[0]
			if s.Kind == kind.StructReturn {
				buf.LeaRegMem(abi.ArgRegs[0], x64.RSP, frame.HiddenOff)
			} else {
				e.nativeFromHost(s, e.hostArgSlot(s), argRegLoc(0, s.Kind))
			}
		}
	} else {
		// convert every slot into memory first: converting slot K may need
		// the register that will ultimately hold slot K+1
		for i := range p.Slots {
			s := &p.Slots[i]
			spill := x64.MemLoc(x64.RSP, frame.SpillSlot(s.Native))
			if s.Kind == kind.StructReturn {
				buf.LeaRegMem(x64.RAX, x64.RSP, frame.HiddenOff)
				buf.MovMemReg(spill.Base, spill.Off, x64.RAX)
				continue
			}
			e.nativeFromHost(s, e.hostArgSlot(s), spill)
		}
		// load the first four converted words into the correct register
		// class, the rest into the outgoing stack area
		for i := range p.Slots {
			s := &p.Slots[i]
			spill := frame.SpillSlot(s.Native)
			switch {
			case s.Native < 4 && s.Kind.IsFloat():
				buf.MovsdXmmMem(abi.ArgXmms[s.Native], x64.RSP, spill)
			case s.Native < 4:
				buf.MovRegMem(abi.ArgRegs[s.Native], x64.RSP, spill)
			default:
				buf.MovRegMem(x64.RAX, x64.RSP, spill)
				buf.MovMemReg(x64.RSP, frame.StackArgSlot(s.Native), x64.RAX)
			}
		}
	}

	if target.Virtual {
		if target.ThisOffset != 0 {
			buf.AddRegImm(x64.RCX, target.ThisOffset)
		}
		buf.MovRegMem(x64.RAX, x64.RCX, 0)
		buf.CallMem(x64.RAX, target.VtableOffset)
	} else {
		buf.MovRegImm64(x64.RAX, uint64(target.Func))
		buf.CallReg(x64.RAX)
	}

	retStage := x64.MemLoc(x64.RSP, frame.TempSlot(1))
	if e.stackAlloc {
		// stage the return value into the frame so the free call's own
		// argument passing cannot clobber the return registers
		e.stageReturn(retStage.Off, p.Return.Kind, true)
		buf.MovRegReg(x64.RCX, x64.RSP)
		e.callTable(abi.OffStackFreeAll)
		e.stageReturn(retStage.Off, p.Return.Kind, false)
	}

	switch {
	case p.HiddenReturn:
		// the pre-reserved pointer, never a register-copied value
		buf.LeaRegMem(x64.RAX, x64.RSP, frame.HiddenOff)
	case p.Return.Kind == kind.Void:
		e.hostFromNative(&p.Return, x64.Location{}, x64.RegLoc(x64.RAX))
	default:
		e.stageReturn(retStage.Off, p.Return.Kind, true)
		e.hostFromNative(&p.Return, retStage, x64.RegLoc(x64.RAX))
	}

	g.emitNativeEpilogue(e, frame, rpSave, false)

	buf.Mark("escape")
	g.emitNativeEpilogue(e, frame, rpSave, true)
}

// hostArgSlot is the host argv entry feeding the slot: the receiver at
// entry 0, declared parameters at their host ordinals.
func (e *emitter) hostArgSlot(s *Slot) x64.Location {
	return x64.MemLoc(x64.RDI, int32(s.Host)*8)
}

// argRegLoc is calling position i in the register class the kind demands.
func argRegLoc(i int, k kind.Kind) x64.Location {
	if k.IsFloat() {
		return x64.XmmLoc(abi.ArgXmms[i])
	}
	return x64.RegLoc(abi.ArgRegs[i])
}

// emitNativeEpilogue restores the escape continuation and returns the host
// value in RAX; the escape variant frees transient storage and yields the
// canonical no-value.
func (g *Generator) emitNativeEpilogue(e *emitter, frame abi.NativeFrame, rpSave x64.Location, escape bool) {
	buf := e.buf
	buf.MovRegMem(x64.R11, rpSave.Base, rpSave.Off)
	e.storeTableSlot(abi.OffReturnPoint, x64.R11)

	if escape {
		if e.stackAlloc {
			buf.MovRegReg(x64.RCX, x64.RSP)
			e.callTable(abi.OffStackFreeAll)
		}
		e.loadTableSlot(x64.RAX, abi.OffUndefinedValue)
	}

	buf.AddRspImm(frame.Size)
	buf.PopReg(x64.RSI)
	buf.PopReg(x64.RDI)
	buf.Ret()
}
