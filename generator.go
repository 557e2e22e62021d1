package trampoline

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/trampoline/abi"
	"github.com/wippyai/trampoline/errors"
)

// Config carries the explicit collaborators of a Generator. The Conversion
// Table base is a configuration value, never a process-wide singleton.
type Config struct {
	// Table is the host runtime's Conversion Table.
	Table abi.Table

	// Retainer keeps wrapped host functions alive. Optional; the default
	// registry retains them in-process forever, matching the resource model.
	Retainer Retainer

	// Listing records a per-instruction mnemonic listing during generation,
	// retrievable through the Preview entry points and logged at debug.
	Listing bool
}

// Generator emits trampolines against one Conversion Table. Each generation
// call is synchronous and CPU-bound; the only durable artifact is the
// finalized code pointer handed to the caller.
type Generator struct {
	table    abi.Table
	retainer Retainer
	listing  bool

	mu       sync.Mutex
	retained []HostFunction
}

// New creates a Generator for the given configuration.
func New(cfg Config) (*Generator, error) {
	if !cfg.Table.Valid() {
		return nil, errors.NilPointer(errors.PhasePlan, "conversion table base")
	}
	return &Generator{
		table:    cfg.Table,
		retainer: cfg.Retainer,
		listing:  cfg.Listing,
	}, nil
}

// retain pins the host function for the process lifetime. Never undone.
func (g *Generator) retain(fn HostFunction) {
	if g.retainer != nil {
		g.retainer.Retain(fn)
		return
	}
	g.mu.Lock()
	g.retained = append(g.retained, fn)
	g.mu.Unlock()
}

// Preview is the unfinalized output of a generation: the emitted bytes and,
// when Config.Listing is set, the instruction listing. Diagnostic only; the
// code has not been placed into executable memory.
type Preview struct {
	Code    []byte
	Listing []string
}

func (g *Generator) logGenerated(what string, p *SignaturePlan, size int) {
	Logger().Debug("generated trampoline",
		zap.String("direction", what),
		zap.Int("native_slots", p.NativeSlotCount()),
		zap.Int("params", p.ParamCount),
		zap.Bool("this", p.This),
		zap.Bool("struct_return", p.HiddenReturn),
		zap.Int("code_bytes", size),
	)
}
