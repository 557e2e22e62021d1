package x64

import (
	"bytes"
	"testing"
)

func TestEncodings(t *testing.T) {
	tests := []struct {
		name string
		emit func(b *CodeBuffer)
		want []byte
	}{
		{
			"mov rax, rcx",
			func(b *CodeBuffer) { b.MovRegReg(RAX, RCX) },
			[]byte{0x48, 0x8B, 0xC1},
		},
		{
			"mov r11, rax",
			func(b *CodeBuffer) { b.MovRegReg(R11, RAX) },
			[]byte{0x4C, 0x8B, 0xD8},
		},
		{
			"mov rcx, [rsp+0x20]",
			func(b *CodeBuffer) { b.MovRegMem(RCX, RSP, 0x20) },
			[]byte{0x48, 0x8B, 0x4C, 0x24, 0x20},
		},
		{
			"mov [rbp], rax",
			func(b *CodeBuffer) { b.MovMemReg(RBP, 0, RAX) },
			[]byte{0x48, 0x89, 0x45, 0x00},
		},
		{
			"mov [rsp+0x100], rdx",
			func(b *CodeBuffer) { b.MovMemReg(RSP, 0x100, RDX) },
			[]byte{0x48, 0x89, 0x94, 0x24, 0x00, 0x01, 0x00, 0x00},
		},
		{
			"mov r10, imm64",
			func(b *CodeBuffer) { b.MovRegImm64(R10, 0x1122334455667788) },
			[]byte{0x49, 0xBA, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11},
		},
		{
			"mov edx, 7",
			func(b *CodeBuffer) { b.MovRegImm32(RDX, 7) },
			[]byte{0xBA, 0x07, 0x00, 0x00, 0x00},
		},
		{
			"mov r8d, 7",
			func(b *CodeBuffer) { b.MovRegImm32(R8, 7) },
			[]byte{0x41, 0xB8, 0x07, 0x00, 0x00, 0x00},
		},
		{
			"mov eax, ecx",
			func(b *CodeBuffer) { b.Mov32RegReg(RAX, RCX) },
			[]byte{0x8B, 0xC1},
		},
		{
			"mov eax, [rsp+0x28]",
			func(b *CodeBuffer) { b.Mov32RegMem(RAX, RSP, 0x28) },
			[]byte{0x8B, 0x44, 0x24, 0x28},
		},
		{
			"movsxd rax, ecx",
			func(b *CodeBuffer) { b.MovsxdRegReg(RAX, RCX) },
			[]byte{0x48, 0x63, 0xC1},
		},
		{
			"movsxd rax, [rsp+0x20]",
			func(b *CodeBuffer) { b.MovsxdRegMem(RAX, RSP, 0x20) },
			[]byte{0x48, 0x63, 0x44, 0x24, 0x20},
		},
		{
			"movzx rax, al",
			func(b *CodeBuffer) { b.MovzxRegReg8(RAX, RAX) },
			[]byte{0x48, 0x0F, 0xB6, 0xC0},
		},
		{
			"movzx rax, byte [rsp+0x20]",
			func(b *CodeBuffer) { b.MovzxRegMem8(RAX, RSP, 0x20) },
			[]byte{0x48, 0x0F, 0xB6, 0x44, 0x24, 0x20},
		},
		{
			"movsx rax, cl",
			func(b *CodeBuffer) { b.MovsxRegReg8(RAX, RCX) },
			[]byte{0x48, 0x0F, 0xBE, 0xC1},
		},
		{
			"movsx rax, cx",
			func(b *CodeBuffer) { b.MovsxRegReg16(RAX, RCX) },
			[]byte{0x48, 0x0F, 0xBF, 0xC1},
		},
		{
			"movzx rax, cx",
			func(b *CodeBuffer) { b.MovzxRegReg16(RAX, RCX) },
			[]byte{0x48, 0x0F, 0xB7, 0xC1},
		},
		{
			"movsd xmm0, [rsp+0x28]",
			func(b *CodeBuffer) { b.MovsdXmmMem(XMM0, RSP, 0x28) },
			[]byte{0xF2, 0x0F, 0x10, 0x44, 0x24, 0x28},
		},
		{
			"movsd [rsp+0x28], xmm1",
			func(b *CodeBuffer) { b.MovsdMemXmm(RSP, 0x28, XMM1) },
			[]byte{0xF2, 0x0F, 0x11, 0x4C, 0x24, 0x28},
		},
		{
			"movsd xmm0, xmm5",
			func(b *CodeBuffer) { b.MovsdXmmXmm(XMM0, XMM5) },
			[]byte{0xF2, 0x0F, 0x10, 0xC5},
		},
		{
			"movss xmm5, [rsp+0x20]",
			func(b *CodeBuffer) { b.MovssXmmMem(XMM5, RSP, 0x20) },
			[]byte{0xF3, 0x0F, 0x10, 0x6C, 0x24, 0x20},
		},
		{
			"movq xmm0, rax",
			func(b *CodeBuffer) { b.MovqXmmReg(XMM0, RAX) },
			[]byte{0x66, 0x48, 0x0F, 0x6E, 0xC0},
		},
		{
			"movq rax, xmm0",
			func(b *CodeBuffer) { b.MovqRegXmm(RAX, XMM0) },
			[]byte{0x66, 0x48, 0x0F, 0x7E, 0xC0},
		},
		{
			"movd xmm5, eax",
			func(b *CodeBuffer) { b.MovdXmmReg(XMM5, RAX) },
			[]byte{0x66, 0x0F, 0x6E, 0xE8},
		},
		{
			"movd eax, xmm5",
			func(b *CodeBuffer) { b.MovdRegXmm(RAX, XMM5) },
			[]byte{0x66, 0x0F, 0x7E, 0xE8},
		},
		{
			"cvtsd2ss xmm5, xmm0",
			func(b *CodeBuffer) { b.Cvtsd2ssXmmXmm(XMM5, XMM0) },
			[]byte{0xF2, 0x0F, 0x5A, 0xE8},
		},
		{
			"cvtss2sd xmm5, xmm5",
			func(b *CodeBuffer) { b.Cvtss2sdXmmXmm(XMM5, XMM5) },
			[]byte{0xF3, 0x0F, 0x5A, 0xED},
		},
		{
			"cvtss2sd xmm5, [rsp+0x20]",
			func(b *CodeBuffer) { b.Cvtss2sdXmmMem(XMM5, RSP, 0x20) },
			[]byte{0xF3, 0x0F, 0x5A, 0x6C, 0x24, 0x20},
		},
		{
			"lea rdx, [rsp+0x20]",
			func(b *CodeBuffer) { b.LeaRegMem(RDX, RSP, 0x20) },
			[]byte{0x48, 0x8D, 0x54, 0x24, 0x20},
		},
		{
			"push rdi",
			func(b *CodeBuffer) { b.PushReg(RDI) },
			[]byte{0x57},
		},
		{
			"push r11",
			func(b *CodeBuffer) { b.PushReg(R11) },
			[]byte{0x41, 0x53},
		},
		{
			"pop rsi",
			func(b *CodeBuffer) { b.PopReg(RSI) },
			[]byte{0x5E},
		},
		{
			"sub rsp, 0x58",
			func(b *CodeBuffer) { b.SubRspImm(0x58) },
			[]byte{0x48, 0x83, 0xEC, 0x58},
		},
		{
			"sub rsp, 0x180",
			func(b *CodeBuffer) { b.SubRspImm(0x180) },
			[]byte{0x48, 0x81, 0xEC, 0x80, 0x01, 0x00, 0x00},
		},
		{
			"add rsp, 0x58",
			func(b *CodeBuffer) { b.AddRspImm(0x58) },
			[]byte{0x48, 0x83, 0xC4, 0x58},
		},
		{
			"add rcx, 8",
			func(b *CodeBuffer) { b.AddRegImm(RCX, 8) },
			[]byte{0x48, 0x83, 0xC1, 0x08},
		},
		{
			"and rax, 1",
			func(b *CodeBuffer) { b.AndRegImm8(RAX, 1) },
			[]byte{0x48, 0x83, 0xE0, 0x01},
		},
		{
			"test rax, rax",
			func(b *CodeBuffer) { b.TestRegReg(RAX, RAX) },
			[]byte{0x48, 0x85, 0xC0},
		},
		{
			"test al, al",
			func(b *CodeBuffer) { b.TestAlAl() },
			[]byte{0x84, 0xC0},
		},
		{
			"cmp rsi, 3",
			func(b *CodeBuffer) { b.CmpRegImm(RSI, 3) },
			[]byte{0x48, 0x83, 0xFE, 0x03},
		},
		{
			"xor r8, r8",
			func(b *CodeBuffer) { b.XorRegReg(R8, R8) },
			[]byte{0x4D, 0x31, 0xC0},
		},
		{
			"call rax",
			func(b *CodeBuffer) { b.CallReg(RAX) },
			[]byte{0xFF, 0xD0},
		},
		{
			"call [r10+0x18]",
			func(b *CodeBuffer) { b.CallMem(R10, 0x18) },
			[]byte{0x41, 0xFF, 0x52, 0x18},
		},
		{
			"ret",
			func(b *CodeBuffer) { b.Ret() },
			[]byte{0xC3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewCodeBuffer()
			tt.emit(b)
			if err := b.Err(); err != nil {
				t.Fatalf("emit error: %v", err)
			}
			if got := b.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("encoded % X, want % X", got, tt.want)
			}
		})
	}
}

func TestJumpResolution(t *testing.T) {
	b := NewCodeBuffer()
	b.Mark("top")
	b.Ret()
	b.Jmp("top")
	if err := b.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// jmp field starts right after the E9 opcode at offset 2; target is 0.
	want := []byte{0xC3, 0xE9, 0xFA, 0xFF, 0xFF, 0xFF}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("resolved % X, want % X", got, want)
	}
}

func TestConditionalJumpForward(t *testing.T) {
	b := NewCodeBuffer()
	b.Jcc(CondNZ, "ok")
	b.Ret()
	b.Mark("ok")
	b.Ret()
	if err := b.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// 0F 85 rel32 spans offsets 0..5, ret at 6, "ok" bound at 7, so rel = 1.
	want := []byte{0x0F, 0x85, 0x01, 0x00, 0x00, 0x00, 0xC3, 0xC3}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("resolved % X, want % X", got, want)
	}
}

func TestListingUsesRegisterWidthNames(t *testing.T) {
	b := NewCodeBuffer()
	b.EnableListing()
	b.MovRegImm32(R8, 5)
	b.Mov32RegReg(RAX, RCX)

	want := []string{"mov r8d, 0x5", "mov eax, ecx"}
	got := b.Listing()
	if len(got) != len(want) {
		t.Fatalf("listing %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("listing[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
