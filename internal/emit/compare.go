package emit

import (
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

func init() {
	decode.Register(0xfc6007ff, 0x7c000000, "cmp", adaptCtx(doCMP))
	decode.Register(0xfc600000, 0x2c000000, "cmpi", adaptCtx(doCMPI))
	decode.Register(0xfc6007ff, 0x7c000040, "cmpl", adaptCtx(doCMPL))
	decode.Register(0xfc600000, 0x28000000, "cmpli", adaptCtx(doCMPLI))
}

// CMP/CMPL compare ra against rb (signed/unsigned) and leave the result
// in the CR field named by crfD (bits 23-25), matching
// ppc32_x86_trans.c DECLARE_INSN(CMP)/DECLARE_INSN(CMPL) — both reduce
// to a plain x86 CMP since the flags feed CR lazily via UpdateFlags.
func doCMP(cx *Context, insn uint32) {
	crfD, ra, rb := int(bits(insn, 23, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("cmp")
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(8, "cmp")
	op.Append(x86asm.AluRegReg(x86asm.CMP, hra, hrb))
	cx.IR.UpdateFlags(crfD, true)
	cx.Regs.CloseSequence()
}

func doCMPL(cx *Context, insn uint32) {
	crfD, ra, rb := int(bits(insn, 23, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("cmpl")
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(8, "cmpl")
	op.Append(x86asm.AluRegReg(x86asm.CMP, hra, hrb))
	cx.IR.UpdateFlags(crfD, false)
	cx.Regs.CloseSequence()
}

// CMPI sign-extends the 16-bit immediate before comparing; CMPLI leaves
// it zero-extended — the only difference between the two bodies.
func doCMPI(cx *Context, insn uint32) {
	crfD, ra := int(bits(insn, 23, 25)), int(bits(insn, 16, 20))
	imm := signExt(bits(insn, 0, 15), 16)
	cx.Regs.StartSequence("cmpi")
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)

	op := cx.IR.InsnOutput(8, "cmpi")
	op.Append(x86asm.CmpRegImm(hra, imm))
	cx.IR.UpdateFlags(crfD, true)
	cx.Regs.CloseSequence()
}

func doCMPLI(cx *Context, insn uint32) {
	crfD, ra := int(bits(insn, 23, 25)), int(bits(insn, 16, 20))
	imm := int32(bits(insn, 0, 15))
	cx.Regs.StartSequence("cmpli")
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)

	op := cx.IR.InsnOutput(8, "cmpli")
	op.Append(x86asm.CmpRegImm(hra, imm))
	cx.IR.UpdateFlags(crfD, false)
	cx.Regs.CloseSequence()
}
