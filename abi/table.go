package abi

// Conversion Table slot offsets, in bytes from the table base pointer.
//
// The table is the entire ABI surface between generated trampolines and the
// host runtime: one base pointer, helper routine addresses at fixed 8-byte
// offsets. Reordering, removing, or retyping a slot is a breaking
// compatibility change.
//
// Helper conventions (all Microsoft x64):
//
//	DecodeBool/Int/Double  (hostValue, outPtr) -> success in AL
//	Decode<string>         (hostValue, ordinal) -> native ptr, transient
//	Encode<string>         (nativePtr, ordinal) -> hostValue
//	DecodePointer*         (hostValue, ordinal) -> native ptr
//	EncodePointer*         (nativePtr) -> hostValue
//	DecodeBin64            (hostValue, outPtr, byteLen) -> success in AL
//	EncodeBin64            (valuePtr, byteLen) -> hostValue
//	EncodeBool/Int         (value) -> hostValue
//	EncodeDouble           (value in XMM0) -> hostValue
//	CallHostFunction       (fnRef, argvBase, argc, frameBase) -> hostValue or 0
//	InvalidParameter       (hostValue, hostOrdinal, kindTag) -> does not return
//	InvalidParameterCount  (actual, declared) -> does not return
//	GetOut                 () -> does not return
//	Fatal                  (code) -> does not return
//	StackFreeAll           (frameBase) -> frees transient marshaling storage
//	ReturnPoint            data slot: the reentrant escape continuation
//	UndefinedValue         data slot: the canonical "no value" host value
const (
	OffDecodeBool = 8 * iota
	OffEncodeBool
	OffDecodeInt
	OffEncodeInt
	OffDecodeDouble
	OffEncodeDouble
	OffDecodeAnsi
	OffEncodeAnsi
	OffDecodeUtf8
	OffEncodeUtf8
	OffDecodeUtf16
	OffEncodeUtf16
	OffDecodePointer
	OffEncodePointer
	OffDecodePointerNullable
	OffEncodePointerNullable
	OffDecodeBin64
	OffEncodeBin64
	OffCallHostFunction
	OffInvalidParameter
	OffInvalidParameterCount
	OffGetOut
	OffFatal
	OffStackFreeAll
	OffReturnPoint
	OffUndefinedValue

	tableEnd
)

// SlotCount is the number of table slots.
const SlotCount = tableEnd / 8

// Bin64Length is the fixed byte length exchanged by the Bin64 helpers.
const Bin64Length = 8

// Table is the Conversion Table configuration handed to a Generator: the
// base address the host runtime placed its helper block at. It is an
// explicit value, never a process-wide singleton.
type Table struct {
	Base uintptr
}

// Valid reports whether the table has been configured.
func (t Table) Valid() bool {
	return t.Base != 0
}
