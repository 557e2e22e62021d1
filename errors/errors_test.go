package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhasePlan,
				Kind:     KindInvalidKind,
				Ordinal:  3,
				HasOrd:   true,
				TypeName: "unknown",
				Detail:   "invalid type id",
			},
			contains: []string{"[plan]", "invalid_kind", "param 3", "unknown", "invalid type id"},
		},
		{
			name: "return ordinal",
			err: &Error{
				Phase:   PhasePlan,
				Kind:    KindNotPointerLike,
				Ordinal: ReturnOrdinal,
				HasOrd:  true,
			},
			contains: []string{"[plan]", "not_pointer_like", "at return"},
		},
		{
			name: "this ordinal",
			err: &Error{
				Phase:   PhasePlan,
				Kind:    KindNoCapability,
				Ordinal: 0,
				HasOrd:  true,
			},
			contains: []string{"at this"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseEmit,
				Kind:  KindBadTarget,
			},
			contains: []string{"[emit]", "bad_target"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseFinalize,
				Kind:   KindAllocation,
				Detail: "mmap failed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[finalize]", "allocation", "mmap failed", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhasePlan,
		Kind:  KindInvalidOption,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := InvalidKind(2, "mystery")

	if !errors.Is(err, &Error{Phase: PhasePlan, Kind: KindInvalidKind}) {
		t.Error("Is should match on phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseEmit, Kind: KindInvalidKind}) {
		t.Error("Is should not match a different phase")
	}
	if errors.Is(err, &Error{Phase: PhasePlan, Kind: KindInvalidOption}) {
		t.Error("Is should not match a different kind")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("inner")
	err := New(PhasePlan, KindInvalidOption).
		Ordinal(ReturnOrdinal).
		TypeName("float32").
		Detail("nullableReturn requires a pointer-like return kind").
		Cause(cause).
		Build()

	if err.Phase != PhasePlan || err.Kind != KindInvalidOption {
		t.Errorf("phase/kind = %v/%v", err.Phase, err.Kind)
	}
	if !err.HasOrd || err.Ordinal != ReturnOrdinal {
		t.Errorf("ordinal = %d (has=%v), want %d", err.Ordinal, err.HasOrd, ReturnOrdinal)
	}
	if err.TypeName != "float32" {
		t.Errorf("TypeName = %q", err.TypeName)
	}
	if !errors.Is(err.Cause, cause) {
		t.Error("cause not recorded")
	}
}

func TestBuilder_DetailFormatting(t *testing.T) {
	err := New(PhaseEmit, KindBadTarget).Detail("offset %d exceeds frame of %d", 64, 48).Build()
	if !strings.Contains(err.Error(), "offset 64 exceeds frame of 48") {
		t.Errorf("formatted detail missing: %q", err.Error())
	}

	// literal percents pass through unscathed
	err = New(PhaseEmit, KindBadTarget).Detail("%s", "100% literal").Build()
	if !strings.Contains(err.Error(), "100% literal") {
		t.Errorf("literal detail mangled: %q", err.Error())
	}

	// without arguments the message is taken verbatim
	err = New(PhaseEmit, KindBadTarget).Detail("frame slots exhausted").Build()
	if !strings.Contains(err.Error(), "frame slots exhausted") {
		t.Errorf("plain detail missing: %q", err.Error())
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		phase    Phase
		kind     Kind
		contains string
	}{
		{"InvalidKind", InvalidKind(1, "blob"), PhasePlan, KindInvalidKind, "invalid type id"},
		{"InvalidOption", InvalidOption("nullableThis without this"), PhasePlan, KindInvalidOption, "nullableThis"},
		{"NotPointerLike", NotPointerLike(0, "int32"), PhasePlan, KindNotPointerLike, "int32"},
		{"NoCapability", NoCapability(2, "Handle", "host-to-native"), PhasePlan, KindNoCapability, "host-to-native"},
		{"AllocationFailed", AllocationFailed(4096, errors.New("enomem")), PhaseFinalize, KindAllocation, "4096"},
		{"NilPointer", NilPointer(PhasePlan, "host function"), PhasePlan, KindNilPointer, "host function"},
		{"Unsupported", Unsupported(PhaseEmit, "no can do"), PhaseEmit, KindUnsupported, "no can do"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("message %q does not contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}
