package trampoline

import (
	"fmt"

	"github.com/wippyai/trampoline/abi"
	"github.com/wippyai/trampoline/errors"
	"github.com/wippyai/trampoline/internal/kind"
)

// direction states which way declared parameters (and this) travel; the
// return slot always travels the other way.
type direction uint8

const (
	// hostward: native arguments become host values (wrapping a host
	// function for native calling).
	hostward direction = iota
	// nativeward: host arguments become native values (wrapping a native
	// function for host calling).
	nativeward
)

// HostReturnOrdinal is the host-facing sentinel ordinal of the return slot.
const HostReturnOrdinal = -1

// Slot is one planned native argument position.
type Slot struct {
	Kind     kind.Kind
	Native   int // native-side ordinal
	Host     int // host-side ordinal (-1 return, 0 this, params from 1)
	Nullable bool

	// wrapper capability helper addresses, set iff Kind == kind.Wrapper
	toNative   uintptr
	fromNative uintptr

	typeName string
}

// SignaturePlan is the canonical per-slot plan for one signature: native
// argument order [this?][hidden-return?][declared parameters], plus the
// return slot. Plans are ephemeral, scoped to one generation call.
type SignaturePlan struct {
	Return       Slot
	Slots        []Slot
	ParamCount   int
	This         bool
	HiddenReturn bool
}

// Info returns the slot at the given native ordinal; -1 returns the return
// slot. Pure O(1) lookup, never recomputed.
func (p *SignaturePlan) Info(native int) *Slot {
	if native == HostReturnOrdinal {
		return &p.Return
	}
	return &p.Slots[native]
}

// NativeSlotCount is the number of native argument positions.
func (p *SignaturePlan) NativeSlotCount() int {
	return len(p.Slots)
}

// plan normalizes {returnKind, options, paramKinds} into a SignaturePlan,
// validating eagerly so no invalid signature ever reaches the emitter.
func plan(ret Type, opts Options, params []Type, dir direction) (*SignaturePlan, error) {
	p := &SignaturePlan{ParamCount: len(params)}

	retSlot, err := normalize(ret, HostReturnOrdinal, opposite(dir), opts.NullableReturn)
	if err != nil {
		return nil, err
	}
	retSlot.Host = HostReturnOrdinal
	retSlot.Native = HostReturnOrdinal
	p.Return = retSlot

	if opts.NullableReturn {
		if opts.StructureReturn {
			return nil, errors.InvalidOption("nullableReturn cannot be combined with structureReturn")
		}
		if !retSlot.Kind.IsPointerLike() {
			return nil, errors.NotPointerLike(HostReturnOrdinal, retSlot.typeName)
		}
	}
	if opts.NullableThis && opts.This == nil {
		return nil, errors.InvalidOption("nullableThis requires this")
	}

	native := 0
	if opts.This != nil {
		thisSlot, err := normalize(opts.This, 0, dir, opts.NullableThis)
		if err != nil {
			return nil, err
		}
		if !thisSlot.Kind.IsPointerLike() {
			return nil, errors.NotPointerLike(0, thisSlot.typeName)
		}
		thisSlot.Native = native
		thisSlot.Host = 0
		p.Slots = append(p.Slots, thisSlot)
		p.This = true
		native++
	}

	if opts.StructureReturn {
		p.Slots = append(p.Slots, Slot{
			Kind:     kind.StructReturn,
			Native:   native,
			Host:     HostReturnOrdinal,
			typeName: kind.StructReturn.String(),
		})
		p.HiddenReturn = true
		native++
	}

	for i, param := range params {
		hostOrd := i + 1
		s, err := normalize(param, hostOrd, dir, opts.NullableParams)
		if err != nil {
			return nil, err
		}
		if s.Kind == kind.Void {
			return nil, errors.InvalidKind(hostOrd, s.typeName)
		}
		s.Native = native
		s.Host = hostOrd
		p.Slots = append(p.Slots, s)
		native++
	}

	return p, nil
}

func opposite(dir direction) direction {
	if dir == hostward {
		return nativeward
	}
	return hostward
}

// normalize resolves one declared Type into a planned slot, checking the
// wrapper capability for the direction the slot will travel.
func normalize(t Type, ord int, dir direction, nullable bool) (Slot, error) {
	switch v := t.(type) {
	case kind.Kind:
		if !v.IsElementary() {
			return Slot{}, errors.InvalidKind(ord, v.String())
		}
		return Slot{Kind: v, Nullable: nullable && v.IsPointerLike(), typeName: v.String()}, nil

	case rawPointer:
		return Slot{Kind: kind.Pointer, Nullable: nullable, typeName: kind.Pointer.String()}, nil

	case abi.Wrapper:
		s := Slot{Kind: kind.Wrapper, Nullable: nullable, typeName: v.TypeName()}
		if to, ok := t.(abi.HostToNative); ok {
			s.toNative = to.ToNativeAddr()
		}
		if from, ok := t.(abi.NativeToHost); ok {
			s.fromNative = from.FromNativeAddr()
		}
		switch dir {
		case nativeward:
			if s.toNative == 0 {
				return Slot{}, errors.NoCapability(ord, s.typeName, "host-to-native")
			}
		case hostward:
			if s.fromNative == 0 {
				return Slot{}, errors.NoCapability(ord, s.typeName, "native-to-host")
			}
		}
		return s, nil

	case nil:
		return Slot{}, errors.InvalidKind(ord, "<nil>")

	default:
		return Slot{}, errors.InvalidKind(ord, fmt.Sprintf("%T", t))
	}
}
