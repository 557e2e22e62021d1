package trampoline

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/trampoline/errors"
	"github.com/wippyai/trampoline/internal/kind"
)

// handleWrapper converts in both directions.
type handleWrapper struct{ to, from uintptr }

func (w handleWrapper) TypeName() string      { return "Handle" }
func (w handleWrapper) ToNativeAddr() uintptr { return w.to }
func (w handleWrapper) FromNativeAddr() uintptr {
	return w.from
}

// decodeOnlyWrapper converts host values to native only.
type decodeOnlyWrapper struct{}

func (decodeOnlyWrapper) TypeName() string      { return "DecodeOnly" }
func (decodeOnlyWrapper) ToNativeAddr() uintptr { return 0x2000 }

// encodeOnlyWrapper converts native values to host only.
type encodeOnlyWrapper struct{}

func (encodeOnlyWrapper) TypeName() string        { return "EncodeOnly" }
func (encodeOnlyWrapper) FromNativeAddr() uintptr { return 0x3000 }

func wantPlanError(t *testing.T, err error, k errors.Kind, ord int, hasOrd bool) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error", k)
	}
	var te *errors.Error
	if !stderrors.As(err, &te) {
		t.Fatalf("error %v is not a structured error", err)
	}
	if te.Phase != errors.PhasePlan || te.Kind != k {
		t.Errorf("error = [%s] %s, want [plan] %s", te.Phase, te.Kind, k)
	}
	if te.HasOrd != hasOrd {
		t.Fatalf("error ordinal presence = %v, want %v (%v)", te.HasOrd, hasOrd, err)
	}
	if hasOrd && te.Ordinal != ord {
		t.Errorf("error ordinal = %d, want %d (%v)", te.Ordinal, ord, err)
	}
}

func TestPlanRejections(t *testing.T) {
	tests := []struct {
		name   string
		ret    Type
		opts   Options
		params []Type
		kind   errors.Kind
		ord    int
		hasOrd bool
	}{
		{
			name: "nullable return with structure return",
			ret:  RawPointer,
			opts: Options{NullableReturn: true, StructureReturn: true},
			kind: errors.KindInvalidOption,
		},
		{
			name:   "nullable return on integer",
			ret:    KindInt32,
			opts:   Options{NullableReturn: true},
			kind:   errors.KindNotPointerLike,
			ord:    HostReturnOrdinal,
			hasOrd: true,
		},
		{
			name: "nullable this without this",
			ret:  KindVoid,
			opts: Options{NullableThis: true},
			kind: errors.KindInvalidOption,
		},
		{
			name:   "this of integer kind",
			ret:    KindVoid,
			opts:   Options{This: KindInt32},
			kind:   errors.KindNotPointerLike,
			ord:    0,
			hasOrd: true,
		},
		{
			name:   "void parameter",
			ret:    KindVoid,
			params: []Type{KindInt32, KindVoid},
			kind:   errors.KindInvalidKind,
			ord:    2,
			hasOrd: true,
		},
		{
			name:   "synthetic kind from caller",
			ret:    KindVoid,
			params: []Type{kind.Pointer},
			kind:   errors.KindInvalidKind,
			ord:    1,
			hasOrd: true,
		},
		{
			name:   "unrecognized type",
			ret:    KindVoid,
			params: []Type{42},
			kind:   errors.KindInvalidKind,
			ord:    1,
			hasOrd: true,
		},
		{
			name:   "nil type",
			ret:    KindVoid,
			params: []Type{nil},
			kind:   errors.KindInvalidKind,
			ord:    1,
			hasOrd: true,
		},
		{
			name:   "bad return kind",
			ret:    kind.StructReturn,
			kind:   errors.KindInvalidKind,
			ord:    HostReturnOrdinal,
			hasOrd: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, dir := range []direction{hostward, nativeward} {
				_, err := plan(tt.ret, tt.opts, tt.params, dir)
				wantPlanError(t, err, tt.kind, tt.ord, tt.hasOrd)
			}
		})
	}
}

func TestPlanWrapperCapability(t *testing.T) {
	// A parameter travels with the declared direction; wrapping a native
	// function needs host-to-native, wrapping a host function the reverse.
	_, err := plan(KindVoid, Options{}, []Type{encodeOnlyWrapper{}}, nativeward)
	wantPlanError(t, err, errors.KindNoCapability, 1, true)

	_, err = plan(KindVoid, Options{}, []Type{decodeOnlyWrapper{}}, hostward)
	wantPlanError(t, err, errors.KindNoCapability, 1, true)

	if _, err = plan(KindVoid, Options{}, []Type{decodeOnlyWrapper{}}, nativeward); err != nil {
		t.Errorf("decode-only parameter rejected nativeward: %v", err)
	}
	if _, err = plan(KindVoid, Options{}, []Type{encodeOnlyWrapper{}}, hostward); err != nil {
		t.Errorf("encode-only parameter rejected hostward: %v", err)
	}

	// The return slot travels opposite to the parameters.
	if _, err = plan(encodeOnlyWrapper{}, Options{}, nil, nativeward); err != nil {
		t.Errorf("encode-only return rejected nativeward: %v", err)
	}
	_, err = plan(decodeOnlyWrapper{}, Options{}, nil, nativeward)
	wantPlanError(t, err, errors.KindNoCapability, HostReturnOrdinal, true)
}

func TestPlanSlotOrdering(t *testing.T) {
	w := handleWrapper{to: 0x2000, from: 0x3000}
	p, err := plan(KindInt32, Options{This: w, StructureReturn: true},
		[]Type{KindFloat64, KindStringUtf8}, nativeward)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if !p.This || !p.HiddenReturn {
		t.Fatalf("flags: this=%v hidden=%v", p.This, p.HiddenReturn)
	}
	if p.ParamCount != 2 || p.NativeSlotCount() != 4 {
		t.Fatalf("counts: params=%d slots=%d", p.ParamCount, p.NativeSlotCount())
	}

	want := []struct {
		k      kind.Kind
		native int
		host   int
	}{
		{kind.Wrapper, 0, 0},
		{kind.StructReturn, 1, HostReturnOrdinal},
		{kind.Float64, 2, 1},
		{kind.StringUtf8, 3, 2},
	}
	for i, w := range want {
		s := p.Info(i)
		if s.Kind != w.k || s.Native != w.native || s.Host != w.host {
			t.Errorf("slot %d = {%s native=%d host=%d}, want {%s %d %d}",
				i, s.Kind, s.Native, s.Host, w.k, w.native, w.host)
		}
	}

	ret := p.Info(HostReturnOrdinal)
	if ret.Kind != kind.Int32 || ret.Host != HostReturnOrdinal {
		t.Errorf("return slot = {%s host=%d}", ret.Kind, ret.Host)
	}
	if this := p.Info(0); this.toNative != 0x2000 || this.fromNative != 0x3000 {
		t.Errorf("wrapper capabilities = %#x/%#x", this.toNative, this.fromNative)
	}
}

func TestPlanNullableParams(t *testing.T) {
	p, err := plan(KindVoid, Options{NullableParams: true},
		[]Type{KindBuffer, KindInt32, RawPointer}, nativeward)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	// only pointer-like parameters pick the option up
	if !p.Slots[0].Nullable {
		t.Error("buffer parameter not nullable")
	}
	if p.Slots[1].Nullable {
		t.Error("integer parameter marked nullable")
	}
	if !p.Slots[2].Nullable {
		t.Error("raw pointer parameter not nullable")
	}
}

func TestPlanNullableThis(t *testing.T) {
	p, err := plan(KindVoid, Options{This: RawPointer, NullableThis: true}, nil, nativeward)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !p.Slots[0].Nullable {
		t.Error("nullable this not marked on the slot")
	}
}
