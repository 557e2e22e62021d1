// Package trampoline compiles marshaling trampolines at run time for the
// Microsoft x64 calling convention.
//
// Given a signature description - a return kind, options, and parameter
// kinds - the generator emits a block of machine code that converts values
// between a host runtime's dynamic representation and native C calling
// conventions, in either direction:
//
//   - WrapHostFunctionForNativeCalling produces a native-callable entry
//     point that decodes native arguments into host values, invokes the
//     host function, and encodes its result back.
//   - WrapNativeForHostCalling produces a host-callable entry point that
//     decodes host values into native arguments, calls a native function
//     pointer or vtable slot, and encodes the native result.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	trampoline/          Root package: signature planner, trampoline
//	                     emitter, conversion routines, the two entry points
//	├── abi/             The Conversion Table contract, the Microsoft x64
//	│                    convention constants, frame layout, wrapper
//	│                    capability interfaces
//	├── errors/          Structured error types with phase, kind, and
//	│                    ordinal context
//	├── internal/kind/   The closed elementary kind enumeration
//	├── internal/x64/    Instruction encoder, code buffer with labels and
//	│                    fixups, executable-memory placement
//	└── cmd/trampdump/   Diagnostic CLI: signature in, listing and hex out
//
// # The Conversion Table
//
// Generated code never links against the host runtime. All communication
// goes through the Conversion Table: a block of helper routine addresses
// the host runtime places in memory, at fixed 8-byte offsets from a single
// base pointer (abi.Table). Trampolines embed the base as an immediate and
// call through the fixed offsets, so the host can rebuild its helpers
// without regenerating any trampoline.
//
// # Error handling
//
// Invalid signatures are rejected at generation time with structured
// errors carrying the offending slot's host-facing ordinal (-1 return,
// 0 receiver, parameters from 1). At invocation time, generated code
// reports unconvertible values through the table's reporting routines,
// which unwind through the ReturnPoint continuation each trampoline saves
// on entry; the trampoline's escape path restores the continuation and
// returns a neutral value.
//
// # Quick Start
//
//	g, err := trampoline.New(trampoline.Config{Table: abi.Table{Base: tableBase}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Make a host function callable from native code:
//	addr, err := g.WrapHostFunctionForNativeCalling(
//	    fnRef,
//	    trampoline.KindInt32,
//	    trampoline.Options{},
//	    trampoline.KindStringUtf8, trampoline.KindFloat64,
//	)
//
//	// Make a native member function callable from the host:
//	addr, err = g.WrapNativeForHostCalling(
//	    trampoline.VirtTarget(0x18, 0),
//	    trampoline.KindVoid,
//	    trampoline.Options{This: trampoline.RawPointer},
//	    trampoline.KindInt32,
//	)
//
// Generated trampolines live for the process lifetime; they are never
// patched or freed, and wrapped host functions are retained so the host
// runtime cannot collect them while native code holds the entry point.
package trampoline
