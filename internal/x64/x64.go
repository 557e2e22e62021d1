package x64

import "fmt"

// Reg is a general-purpose 64-bit register.
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var regNames = [...]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return "r?"
}

var reg32Names = [...]string{
	"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
	"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
}

// Name32 returns the 32-bit alias of the register.
func (r Reg) Name32() string {
	if int(r) < len(reg32Names) {
		return reg32Names[r]
	}
	return "r?d"
}

// Xmm is an SSE register in the float register class.
type Xmm uint8

const (
	XMM0 Xmm = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
)

func (x Xmm) String() string {
	return fmt.Sprintf("xmm%d", uint8(x))
}

// LocKind discriminates the three physical operand shapes.
type LocKind uint8

const (
	LocNone LocKind = iota
	LocGPR
	LocXMM
	LocMem
)

// Location is a physical operand: a register of either class, or a
// (base register, byte offset) memory slot.
//
// Equality is structural and goes through Equal; fields that the
// discriminant does not use never participate in comparison.
type Location struct {
	Kind LocKind
	Reg  Reg
	Xmm  Xmm
	Base Reg
	Off  int32
}

func RegLoc(r Reg) Location          { return Location{Kind: LocGPR, Reg: r} }
func XmmLoc(x Xmm) Location          { return Location{Kind: LocXMM, Xmm: x} }
func MemLoc(b Reg, o int32) Location { return Location{Kind: LocMem, Base: b, Off: o} }

// Equal reports structural equality: same discriminant and same register
// identity, or same base register and offset.
func (l Location) Equal(o Location) bool {
	if l.Kind != o.Kind {
		return false
	}
	switch l.Kind {
	case LocGPR:
		return l.Reg == o.Reg
	case LocXMM:
		return l.Xmm == o.Xmm
	case LocMem:
		return l.Base == o.Base && l.Off == o.Off
	}
	return true
}

func (l Location) IsReg() bool { return l.Kind == LocGPR }
func (l Location) IsXmm() bool { return l.Kind == LocXMM }
func (l Location) IsMem() bool { return l.Kind == LocMem }

func (l Location) String() string {
	switch l.Kind {
	case LocGPR:
		return l.Reg.String()
	case LocXMM:
		return l.Xmm.String()
	case LocMem:
		return memStr(l.Base, l.Off)
	}
	return "<none>"
}

func memStr(base Reg, off int32) string {
	switch {
	case off > 0:
		return fmt.Sprintf("[%s+0x%x]", base, off)
	case off < 0:
		return fmt.Sprintf("[%s-0x%x]", base, -off)
	default:
		return fmt.Sprintf("[%s]", base)
	}
}

// Cond is a branch condition for Jcc.
type Cond uint8

const (
	CondZ  Cond = 0x4 // equal / zero
	CondNZ Cond = 0x5 // not equal / not zero
	CondB  Cond = 0x2 // unsigned below
	CondAE Cond = 0x3 // unsigned above or equal
)

var condNames = map[Cond]string{
	CondZ:  "jz",
	CondNZ: "jnz",
	CondB:  "jb",
	CondAE: "jae",
}

func (c Cond) String() string {
	if s, ok := condNames[c]; ok {
		return s
	}
	return "j?"
}
