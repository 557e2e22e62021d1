// Package kind defines the closed enumeration of marshalable value
// categories shared by the planner and the emitter.
//
// Elementary kinds may appear in caller-supplied signatures. Synthetic kinds
// (StructReturn, Wrapper, Pointer) exist only inside a SignaturePlan, injected
// by the planner for hidden slots and capability-backed types.
//
// This package is internal to the trampoline generator.
package kind
