package kind

import "testing"

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Void, "void"},
		{Bool, "bool"},
		{Int32, "int32"},
		{FloatAsInt64, "float_as_int64"},
		{StringUtf16, "string_utf16"},
		{Bin64, "bin64"},
		{Value, "value"},
		{StructReturn, "struct_return"},
		{Wrapper, "wrapper"},
		{Pointer, "pointer"},
		{Kind(200), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKind_SyntheticNeverElementary(t *testing.T) {
	for k := Void; k <= Pointer; k++ {
		if k.IsElementary() == k.IsSynthetic() {
			t.Errorf("%v: IsElementary and IsSynthetic must partition the enum", k)
		}
	}
	for _, k := range []Kind{StructReturn, Wrapper, Pointer} {
		if k.IsElementary() {
			t.Errorf("%v must not be accepted from callers", k)
		}
	}
}

func TestKind_Classes(t *testing.T) {
	if !Float32.IsFloat() || !Float64.IsFloat() {
		t.Error("float32/float64 must be in the float register class")
	}
	if FloatAsInt64.IsFloat() {
		t.Error("float_as_int64 travels as an integer pattern, not in the float class")
	}
	if !StringAnsi.IsString() || !StringUtf8.IsString() || !StringUtf16.IsString() {
		t.Error("all three string encodings must report IsString")
	}
	if Buffer.IsString() {
		t.Error("buffer is not a string encoding")
	}
	for _, k := range []Kind{Buffer, StructReturn, Wrapper, Pointer} {
		if !k.IsPointerLike() {
			t.Errorf("%v must be pointer-like", k)
		}
	}
	for _, k := range []Kind{Int32, Float64, StringUtf8, Value, Void} {
		if k.IsPointerLike() {
			t.Errorf("%v must not be pointer-like", k)
		}
	}
}

func TestKind_Widening(t *testing.T) {
	tests := []struct {
		kind   Kind
		narrow bool
		signed bool
		width  int
	}{
		{Bool, true, false, 1},
		{Int8, true, true, 1},
		{Uint8, true, false, 1},
		{Int16, true, true, 2},
		{Uint16, true, false, 2},
		{Int32, true, true, 4},
		{Uint32, true, false, 4},
		{FloatAsInt64, false, false, 8},
		{Float32, false, false, 4},
		{Float64, false, false, 8},
		{Pointer, false, false, 8},
		{Void, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.IsNarrowInt(); got != tt.narrow {
				t.Errorf("IsNarrowInt = %v, want %v", got, tt.narrow)
			}
			if got := tt.kind.Signed(); got != tt.signed {
				t.Errorf("Signed = %v, want %v", got, tt.signed)
			}
			if got := tt.kind.Width(); got != tt.width {
				t.Errorf("Width = %d, want %d", got, tt.width)
			}
		})
	}
}
