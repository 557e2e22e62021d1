package x64

import (
	"fmt"

	"github.com/wippyai/trampoline/errors"
)

type jumpFixup struct {
	label string
	pos   int // offset of the rel32 field
}

type absFixup struct {
	label string
	pos   int // offset of the imm64 field
}

// CodeBuffer accumulates emitted instruction bytes, named label offsets, and
// the fixups that resolve them. A buffer is exclusively owned by one
// in-progress generation and becomes immutable once finalized.
type CodeBuffer struct {
	code    []byte
	labels  map[string]int
	jumps   []jumpFixup
	absMovs []absFixup
	listing []string
	err     error
	listOn  bool
	sealed  bool
}

func NewCodeBuffer() *CodeBuffer {
	return &CodeBuffer{
		code:   make([]byte, 0, 512),
		labels: make(map[string]int),
	}
}

// EnableListing makes every emitted instruction record a one-line mnemonic
// rendering, retrievable via Listing. Off by default; generation cost only.
func (b *CodeBuffer) EnableListing() {
	b.listOn = true
}

func (b *CodeBuffer) Len() int {
	return len(b.code)
}

// Bytes returns a copy of the emitted code so far.
func (b *CodeBuffer) Bytes() []byte {
	out := make([]byte, len(b.code))
	copy(out, b.code)
	return out
}

// Listing returns the recorded instruction listing. Empty unless
// EnableListing was called before emission.
func (b *CodeBuffer) Listing() []string {
	return b.listing
}

// Err returns the first emission error, if any.
func (b *CodeBuffer) Err() error {
	return b.err
}

// Mark binds label to the current offset. Binding the same label twice is an
// error surfaced at resolve time.
func (b *CodeBuffer) Mark(label string) {
	if b.fail() {
		return
	}
	if _, dup := b.labels[label]; dup {
		b.err = errors.New(errors.PhaseEmit, errors.KindLabelUnbound).
			Detail("label %q bound twice", label).
			Build()
		return
	}
	b.labels[label] = len(b.code)
	b.note("%s:", label)
}

// LabelOffset returns the bound offset of label.
func (b *CodeBuffer) LabelOffset(label string) (int, bool) {
	off, ok := b.labels[label]
	return off, ok
}

// Resolve patches every rel32 branch against its bound label. Absolute
// fixups wait for Finalize, which knows the placed base address.
func (b *CodeBuffer) Resolve() error {
	if b.err != nil {
		return b.err
	}
	for _, j := range b.jumps {
		target, ok := b.labels[j.label]
		if !ok {
			b.err = errors.New(errors.PhaseEmit, errors.KindLabelUnbound).
				Detail("branch to unbound label %q", j.label).
				Build()
			return b.err
		}
		rel := int32(target - (j.pos + 4))
		b.code[j.pos+0] = byte(rel)
		b.code[j.pos+1] = byte(rel >> 8)
		b.code[j.pos+2] = byte(rel >> 16)
		b.code[j.pos+3] = byte(rel >> 24)
	}
	b.jumps = b.jumps[:0]
	return nil
}

// Finalize resolves branches, places the code into executable memory,
// patches absolute label immediates against the placed base, and seals the
// buffer. The returned pointer is owned by the caller for the process
// lifetime; finalized code is never patched or freed.
func (b *CodeBuffer) Finalize() (uintptr, error) {
	if b.sealed {
		return 0, errors.New(errors.PhaseFinalize, errors.KindBufferSealed).
			Detail("buffer already finalized").
			Build()
	}
	if err := b.Resolve(); err != nil {
		return 0, err
	}
	for _, a := range b.absMovs {
		if _, ok := b.labels[a.label]; !ok {
			b.err = errors.New(errors.PhaseEmit, errors.KindLabelUnbound).
				Detail("address of unbound label %q", a.label).
				Build()
			return 0, b.err
		}
	}

	mem, err := allocExecutable(len(b.code))
	if err != nil {
		return 0, errors.AllocationFailed(len(b.code), err)
	}
	copy(mem, b.code)
	base := memBase(mem)
	for _, a := range b.absMovs {
		addr := uint64(base) + uint64(b.labels[a.label])
		for i := 0; i < 8; i++ {
			mem[a.pos+i] = byte(addr >> (8 * i))
		}
	}
	b.sealed = true
	return base, nil
}

func (b *CodeBuffer) fail() bool {
	if b.sealed && b.err == nil {
		b.err = errors.New(errors.PhaseEmit, errors.KindBufferSealed).
			Detail("emission after finalize").
			Build()
	}
	return b.err != nil
}

func (b *CodeBuffer) note(format string, args ...any) {
	if b.listOn {
		b.listing = append(b.listing, fmt.Sprintf(format, args...))
	}
}

func (b *CodeBuffer) emit(bs ...byte) {
	b.code = append(b.code, bs...)
}

func (b *CodeBuffer) emitU32(v uint32) {
	b.emit(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (b *CodeBuffer) emitU64(v uint64) {
	b.emitU32(uint32(v))
	b.emitU32(uint32(v >> 32))
}
