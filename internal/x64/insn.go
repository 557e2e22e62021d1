package x64

// REX prefix.
// W: 64-bit operand size
// R: extension of ModRM reg field
// X: extension of SIB index field
// B: extension of ModRM r/m field or SIB base field
func rex(w, r, x, b bool) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if b {
		v |= 0x01
	}
	return v
}

func modrm(mod, reg, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | (rm & 7)
}

func sibByte(scale, index, base byte) byte {
	return scale<<6 | (index&7)<<3 | (base & 7)
}

// mem emits the ModRM/SIB/displacement sequence for [base+off] addressing
// with the given reg field. RSP-based addressing needs a SIB byte; RBP-based
// addressing with no displacement still needs a disp8 of zero.
func (b *CodeBuffer) mem(reg byte, base Reg, off int32) {
	rm := byte(base) & 7
	needSIB := rm == 4
	var mod byte
	switch {
	case off == 0 && rm != 5:
		mod = 0
	case off >= -128 && off <= 127:
		mod = 1
	default:
		mod = 2
	}
	if needSIB {
		b.emit(modrm(mod, reg, 4))
		b.emit(sibByte(0, 4, byte(base)))
	} else {
		b.emit(modrm(mod, reg, rm))
	}
	switch mod {
	case 1:
		b.emit(byte(off))
	case 2:
		b.emitU32(uint32(off))
	}
}

// MovRegReg emits mov dst, src (64-bit).
func (b *CodeBuffer) MovRegReg(dst, src Reg) {
	if b.fail() {
		return
	}
	b.emit(rex(true, dst >= 8, false, src >= 8), 0x8B, modrm(3, byte(dst), byte(src)))
	b.note("mov %s, %s", dst, src)
}

// MovRegMem emits mov dst, qword [base+off].
func (b *CodeBuffer) MovRegMem(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.emit(rex(true, dst >= 8, false, base >= 8), 0x8B)
	b.mem(byte(dst), base, off)
	b.note("mov %s, %s", dst, memStr(base, off))
}

// MovMemReg emits mov qword [base+off], src.
func (b *CodeBuffer) MovMemReg(base Reg, off int32, src Reg) {
	if b.fail() {
		return
	}
	b.emit(rex(true, src >= 8, false, base >= 8), 0x89)
	b.mem(byte(src), base, off)
	b.note("mov %s, %s", memStr(base, off), src)
}

// MovRegImm64 emits mov dst, imm64.
func (b *CodeBuffer) MovRegImm64(dst Reg, v uint64) {
	if b.fail() {
		return
	}
	b.emit(rex(true, false, false, dst >= 8), 0xB8+byte(dst&7))
	b.emitU64(v)
	b.note("mov %s, 0x%x", dst, v)
}

// MovRegImm32 emits mov dst32, imm32, zero-extending into the full register.
func (b *CodeBuffer) MovRegImm32(dst Reg, v uint32) {
	if b.fail() {
		return
	}
	if dst >= 8 {
		b.emit(rex(false, false, false, true))
	}
	b.emit(0xB8 + byte(dst&7))
	b.emitU32(v)
	b.note("mov %s, 0x%x", dst.Name32(), v)
}

// MovRegLabel emits mov dst, imm64 where the immediate is the absolute
// address of label, patched when the buffer is placed into executable memory.
func (b *CodeBuffer) MovRegLabel(dst Reg, label string) {
	if b.fail() {
		return
	}
	b.emit(rex(true, false, false, dst >= 8), 0xB8+byte(dst&7))
	b.absMovs = append(b.absMovs, absFixup{label: label, pos: len(b.code)})
	b.emitU64(0)
	b.note("mov %s, &%s", dst, label)
}

// Mov32RegReg emits mov dst32, src32, zero-extending the upper half.
func (b *CodeBuffer) Mov32RegReg(dst, src Reg) {
	if b.fail() {
		return
	}
	if dst >= 8 || src >= 8 {
		b.emit(rex(false, dst >= 8, false, src >= 8))
	}
	b.emit(0x8B, modrm(3, byte(dst), byte(src)))
	b.note("mov %s, %s", dst.Name32(), src.Name32())
}

// Mov32RegMem emits mov dst32, dword [base+off], zero-extending.
func (b *CodeBuffer) Mov32RegMem(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	if dst >= 8 || base >= 8 {
		b.emit(rex(false, dst >= 8, false, base >= 8))
	}
	b.emit(0x8B)
	b.mem(byte(dst), base, off)
	b.note("mov %s, %s", dst.Name32(), memStr(base, off))
}

// MovsxdRegReg emits movsxd dst, src32 (sign-extend 32-bit to 64-bit).
func (b *CodeBuffer) MovsxdRegReg(dst, src Reg) {
	if b.fail() {
		return
	}
	b.emit(rex(true, dst >= 8, false, src >= 8), 0x63, modrm(3, byte(dst), byte(src)))
	b.note("movsxd %s, %s", dst, src.Name32())
}

// MovsxdRegMem emits movsxd dst, dword [base+off].
func (b *CodeBuffer) MovsxdRegMem(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.emit(rex(true, dst >= 8, false, base >= 8), 0x63)
	b.mem(byte(dst), base, off)
	b.note("movsxd %s, %s", dst, memStr(base, off))
}

func (b *CodeBuffer) extend(op byte, dst, src Reg, fromMem bool, off int32, name string) {
	b.emit(rex(true, dst >= 8, false, src >= 8), 0x0F, op)
	if fromMem {
		b.mem(byte(dst), src, off)
		b.note("%s %s, %s", name, dst, memStr(src, off))
	} else {
		b.emit(modrm(3, byte(dst), byte(src)))
		b.note("%s %s, %s", name, dst, src)
	}
}

// MovzxRegReg8 emits movzx dst, src8.
func (b *CodeBuffer) MovzxRegReg8(dst, src Reg) {
	if b.fail() {
		return
	}
	b.extend(0xB6, dst, src, false, 0, "movzx8")
}

// MovzxRegMem8 emits movzx dst, byte [base+off].
func (b *CodeBuffer) MovzxRegMem8(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.extend(0xB6, dst, base, true, off, "movzx8")
}

// MovzxRegReg16 emits movzx dst, src16.
func (b *CodeBuffer) MovzxRegReg16(dst, src Reg) {
	if b.fail() {
		return
	}
	b.extend(0xB7, dst, src, false, 0, "movzx16")
}

// MovzxRegMem16 emits movzx dst, word [base+off].
func (b *CodeBuffer) MovzxRegMem16(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.extend(0xB7, dst, base, true, off, "movzx16")
}

// MovsxRegReg8 emits movsx dst, src8.
func (b *CodeBuffer) MovsxRegReg8(dst, src Reg) {
	if b.fail() {
		return
	}
	b.extend(0xBE, dst, src, false, 0, "movsx8")
}

// MovsxRegMem8 emits movsx dst, byte [base+off].
func (b *CodeBuffer) MovsxRegMem8(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.extend(0xBE, dst, base, true, off, "movsx8")
}

// MovsxRegReg16 emits movsx dst, src16.
func (b *CodeBuffer) MovsxRegReg16(dst, src Reg) {
	if b.fail() {
		return
	}
	b.extend(0xBF, dst, src, false, 0, "movsx16")
}

// MovsxRegMem16 emits movsx dst, word [base+off].
func (b *CodeBuffer) MovsxRegMem16(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.extend(0xBF, dst, base, true, off, "movsx16")
}

func (b *CodeBuffer) sse(prefix byte, op byte, reg byte, rm Reg, isMem bool, off int32) {
	b.emit(prefix)
	if reg >= 8 || rm >= 8 {
		b.emit(rex(false, reg >= 8, false, rm >= 8))
	}
	b.emit(0x0F, op)
	if isMem {
		b.mem(reg, rm, off)
	} else {
		b.emit(modrm(3, reg, byte(rm)))
	}
}

// MovsdXmmMem emits movsd dst, qword [base+off].
func (b *CodeBuffer) MovsdXmmMem(dst Xmm, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.sse(0xF2, 0x10, byte(dst), base, true, off)
	b.note("movsd %s, %s", dst, memStr(base, off))
}

// MovsdMemXmm emits movsd qword [base+off], src.
func (b *CodeBuffer) MovsdMemXmm(base Reg, off int32, src Xmm) {
	if b.fail() {
		return
	}
	b.sse(0xF2, 0x11, byte(src), base, true, off)
	b.note("movsd %s, %s", memStr(base, off), src)
}

// MovsdXmmXmm emits movsd dst, src.
func (b *CodeBuffer) MovsdXmmXmm(dst, src Xmm) {
	if b.fail() {
		return
	}
	b.sse(0xF2, 0x10, byte(dst), Reg(src), false, 0)
	b.note("movsd %s, %s", dst, src)
}

// MovssXmmMem emits movss dst, dword [base+off].
func (b *CodeBuffer) MovssXmmMem(dst Xmm, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.sse(0xF3, 0x10, byte(dst), base, true, off)
	b.note("movss %s, %s", dst, memStr(base, off))
}

// MovssMemXmm emits movss dword [base+off], src.
func (b *CodeBuffer) MovssMemXmm(base Reg, off int32, src Xmm) {
	if b.fail() {
		return
	}
	b.sse(0xF3, 0x11, byte(src), base, true, off)
	b.note("movss %s, %s", memStr(base, off), src)
}

// MovqXmmReg emits movq dst, src (GPR to XMM, raw bit pattern).
func (b *CodeBuffer) MovqXmmReg(dst Xmm, src Reg) {
	if b.fail() {
		return
	}
	b.emit(0x66, rex(true, dst >= 8, false, src >= 8), 0x0F, 0x6E, modrm(3, byte(dst), byte(src)))
	b.note("movq %s, %s", dst, src)
}

// MovqRegXmm emits movq dst, src (XMM to GPR, raw bit pattern).
func (b *CodeBuffer) MovqRegXmm(dst Reg, src Xmm) {
	if b.fail() {
		return
	}
	b.emit(0x66, rex(true, src >= 8, false, dst >= 8), 0x0F, 0x7E, modrm(3, byte(src), byte(dst)))
	b.note("movq %s, %s", dst, src)
}

// MovdXmmReg emits movd dst, src32 (low 32 bits, upper bits zeroed).
func (b *CodeBuffer) MovdXmmReg(dst Xmm, src Reg) {
	if b.fail() {
		return
	}
	b.emit(0x66)
	if src >= 8 {
		b.emit(rex(false, false, false, true))
	}
	b.emit(0x0F, 0x6E, modrm(3, byte(dst), byte(src)))
	b.note("movd %s, %s", dst, src.Name32())
}

// MovdRegXmm emits movd dst32, src (low 32 bits, zero-extended).
func (b *CodeBuffer) MovdRegXmm(dst Reg, src Xmm) {
	if b.fail() {
		return
	}
	b.emit(0x66)
	if dst >= 8 {
		b.emit(rex(false, false, false, true))
	}
	b.emit(0x0F, 0x7E, modrm(3, byte(src), byte(dst)))
	b.note("movd %s, %s", dst.Name32(), src)
}

// Cvtsd2ssXmmXmm emits cvtsd2ss dst, src (double to single).
func (b *CodeBuffer) Cvtsd2ssXmmXmm(dst, src Xmm) {
	if b.fail() {
		return
	}
	b.sse(0xF2, 0x5A, byte(dst), Reg(src), false, 0)
	b.note("cvtsd2ss %s, %s", dst, src)
}

// Cvtsd2ssXmmMem emits cvtsd2ss dst, qword [base+off].
func (b *CodeBuffer) Cvtsd2ssXmmMem(dst Xmm, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.sse(0xF2, 0x5A, byte(dst), base, true, off)
	b.note("cvtsd2ss %s, %s", dst, memStr(base, off))
}

// Cvtss2sdXmmXmm emits cvtss2sd dst, src (single to double).
func (b *CodeBuffer) Cvtss2sdXmmXmm(dst, src Xmm) {
	if b.fail() {
		return
	}
	b.sse(0xF3, 0x5A, byte(dst), Reg(src), false, 0)
	b.note("cvtss2sd %s, %s", dst, src)
}

// Cvtss2sdXmmMem emits cvtss2sd dst, dword [base+off].
func (b *CodeBuffer) Cvtss2sdXmmMem(dst Xmm, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.sse(0xF3, 0x5A, byte(dst), base, true, off)
	b.note("cvtss2sd %s, %s", dst, memStr(base, off))
}

// LeaRegMem emits lea dst, [base+off].
func (b *CodeBuffer) LeaRegMem(dst, base Reg, off int32) {
	if b.fail() {
		return
	}
	b.emit(rex(true, dst >= 8, false, base >= 8), 0x8D)
	b.mem(byte(dst), base, off)
	b.note("lea %s, %s", dst, memStr(base, off))
}

// PushReg emits push r.
func (b *CodeBuffer) PushReg(r Reg) {
	if b.fail() {
		return
	}
	if r >= 8 {
		b.emit(0x41)
	}
	b.emit(0x50 + byte(r&7))
	b.note("push %s", r)
}

// PopReg emits pop r.
func (b *CodeBuffer) PopReg(r Reg) {
	if b.fail() {
		return
	}
	if r >= 8 {
		b.emit(0x41)
	}
	b.emit(0x58 + byte(r&7))
	b.note("pop %s", r)
}

func (b *CodeBuffer) rspArith(ext byte, v int32, name string) {
	if v >= -128 && v <= 127 {
		b.emit(rex(true, false, false, false), 0x83, modrm(3, ext, byte(RSP)), byte(v))
	} else {
		b.emit(rex(true, false, false, false), 0x81, modrm(3, ext, byte(RSP)))
		b.emitU32(uint32(v))
	}
	b.note("%s rsp, 0x%x", name, v)
}

// SubRspImm emits sub rsp, imm.
func (b *CodeBuffer) SubRspImm(v int32) {
	if b.fail() {
		return
	}
	b.rspArith(5, v, "sub")
}

// AddRspImm emits add rsp, imm.
func (b *CodeBuffer) AddRspImm(v int32) {
	if b.fail() {
		return
	}
	b.rspArith(0, v, "add")
}

// AddRegImm emits add r, imm (64-bit).
func (b *CodeBuffer) AddRegImm(r Reg, v int32) {
	if b.fail() {
		return
	}
	if v >= -128 && v <= 127 {
		b.emit(rex(true, false, false, r >= 8), 0x83, modrm(3, 0, byte(r)), byte(v))
	} else {
		b.emit(rex(true, false, false, r >= 8), 0x81, modrm(3, 0, byte(r)))
		b.emitU32(uint32(v))
	}
	b.note("add %s, 0x%x", r, v)
}

// AndRegImm8 emits and r, imm8 (64-bit, sign-extended immediate).
func (b *CodeBuffer) AndRegImm8(r Reg, v int8) {
	if b.fail() {
		return
	}
	b.emit(rex(true, false, false, r >= 8), 0x83, modrm(3, 4, byte(r)), byte(v))
	b.note("and %s, 0x%x", r, v)
}

// TestRegReg emits test a, b (64-bit).
func (b *CodeBuffer) TestRegReg(a, bb Reg) {
	if b.fail() {
		return
	}
	b.emit(rex(true, bb >= 8, false, a >= 8), 0x85, modrm(3, byte(bb), byte(a)))
	b.note("test %s, %s", a, bb)
}

// TestAlAl emits test al, al, the success check after a coercion helper.
func (b *CodeBuffer) TestAlAl() {
	if b.fail() {
		return
	}
	b.emit(0x84, 0xC0)
	b.note("test al, al")
}

// CmpRegImm emits cmp r, imm (64-bit).
func (b *CodeBuffer) CmpRegImm(r Reg, v int32) {
	if b.fail() {
		return
	}
	if v >= -128 && v <= 127 {
		b.emit(rex(true, false, false, r >= 8), 0x83, modrm(3, 7, byte(r)), byte(v))
	} else {
		b.emit(rex(true, false, false, r >= 8), 0x81, modrm(3, 7, byte(r)))
		b.emitU32(uint32(v))
	}
	b.note("cmp %s, 0x%x", r, v)
}

// XorRegReg emits xor a, b (64-bit). XorRegReg(r, r) zeroes r.
func (b *CodeBuffer) XorRegReg(a, bb Reg) {
	if b.fail() {
		return
	}
	b.emit(rex(true, bb >= 8, false, a >= 8), 0x31, modrm(3, byte(bb), byte(a)))
	b.note("xor %s, %s", a, bb)
}

// CallReg emits call r.
func (b *CodeBuffer) CallReg(r Reg) {
	if b.fail() {
		return
	}
	if r >= 8 {
		b.emit(rex(false, false, false, true))
	}
	b.emit(0xFF, modrm(3, 2, byte(r)))
	b.note("call %s", r)
}

// CallMem emits call qword [base+off].
func (b *CodeBuffer) CallMem(base Reg, off int32) {
	if b.fail() {
		return
	}
	if base >= 8 {
		b.emit(rex(false, false, false, true))
	}
	b.emit(0xFF)
	b.mem(2, base, off)
	b.note("call %s", memStr(base, off))
}

// Ret emits ret.
func (b *CodeBuffer) Ret() {
	if b.fail() {
		return
	}
	b.emit(0xC3)
	b.note("ret")
}

// Jmp emits jmp rel32 to label.
func (b *CodeBuffer) Jmp(label string) {
	if b.fail() {
		return
	}
	b.emit(0xE9)
	b.jumps = append(b.jumps, jumpFixup{label: label, pos: len(b.code)})
	b.emitU32(0)
	b.note("jmp %s", label)
}

// Jcc emits a conditional rel32 branch to label.
func (b *CodeBuffer) Jcc(c Cond, label string) {
	if b.fail() {
		return
	}
	b.emit(0x0F, 0x80+byte(c))
	b.jumps = append(b.jumps, jumpFixup{label: label, pos: len(b.code)})
	b.emitU32(0)
	b.note("%s %s", c, label)
}
