package kind

type Kind uint8

const (
	Void Kind = iota
	Bool
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	FloatAsInt64
	Float32
	Float64
	StringAnsi
	StringUtf8
	StringUtf16
	Buffer
	Bin64
	Value

	// Synthetic kinds, injected by the planner. Never accepted from callers.
	StructReturn
	Wrapper
	Pointer
)

var kindNames = [...]string{
	Void:         "void",
	Bool:         "bool",
	Int8:         "int8",
	Uint8:        "uint8",
	Int16:        "int16",
	Uint16:       "uint16",
	Int32:        "int32",
	Uint32:       "uint32",
	FloatAsInt64: "float_as_int64",
	Float32:      "float32",
	Float64:      "float64",
	StringAnsi:   "string_ansi",
	StringUtf8:   "string_utf8",
	StringUtf16:  "string_utf16",
	Buffer:       "buffer",
	Bin64:        "bin64",
	Value:        "value",
	StructReturn: "struct_return",
	Wrapper:      "wrapper",
	Pointer:      "pointer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsElementary reports whether k may appear in a caller-supplied type list.
func (k Kind) IsElementary() bool {
	return k < StructReturn
}

// IsSynthetic reports whether k is injected by the planner only.
func (k Kind) IsSynthetic() bool {
	return k >= StructReturn
}

// IsPointerLike reports whether k carries a native pointer and therefore
// supports the nullable options.
func (k Kind) IsPointerLike() bool {
	switch k {
	case Buffer, StructReturn, Wrapper, Pointer:
		return true
	}
	return false
}

// IsFloat reports whether k occupies the float register class under the
// native convention. FloatAsInt64 travels as a raw integer pattern and is
// deliberately not part of this class.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsString reports whether k is one of the three string encodings. String
// kinds may allocate transient storage when marshaled toward native code.
func (k Kind) IsString() bool {
	return k == StringAnsi || k == StringUtf8 || k == StringUtf16
}

// IsNarrowInt reports whether k is an integer narrower than 64 bits, which
// a register move must explicitly widen.
func (k Kind) IsNarrowInt() bool {
	switch k {
	case Bool, Int8, Uint8, Int16, Uint16, Int32, Uint32:
		return true
	}
	return false
}

// Signed reports whether widening k uses sign extension.
func (k Kind) Signed() bool {
	switch k {
	case Int8, Int16, Int32:
		return true
	}
	return false
}

// Width returns the value width in bytes as it leaves native code.
func (k Kind) Width() int {
	switch k {
	case Void:
		return 0
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	default:
		return 8
	}
}
