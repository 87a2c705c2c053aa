package emit

import (
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

func init() {
	decode.Register(0xfc0007fe, 0x7c000038, "and", adaptCtx(doAND))
	decode.Register(0xfc0007fe, 0x7c000078, "andc", adaptCtx(doANDC))
	decode.Register(0xfc000000, 0x70000000, "andi", adaptCtx(doANDI))
	decode.Register(0xfc000000, 0x74000000, "andis", adaptCtx(doANDIS))

	decode.Register(0xfc0007fe, 0x7c000378, "or", adaptCtx(doOR))
	decode.Register(0xfc0007fe, 0x7c000338, "orc", adaptCtx(doORC))
	decode.Register(0xfc000000, 0x60000000, "ori", adaptCtx(doORI))
	decode.Register(0xfc000000, 0x64000000, "oris", adaptCtx(doORIS))

	decode.Register(0xfc0007fe, 0x7c0003b8, "nand", adaptCtx(doNAND))
	decode.Register(0xfc0007fe, 0x7c0000f8, "nor", adaptCtx(doNOR))
	decode.Register(0xfc0007fe, 0x7c000278, "xor", adaptCtx(doXOR))
	decode.Register(0xfc000000, 0x68000000, "xori", adaptCtx(doXORI))
	decode.Register(0xfc000000, 0x6c000000, "xoris", adaptCtx(doXORIS))
	decode.Register(0xfc0007fe, 0x7c000238, "eqv", adaptCtx(doEQV))

	decode.Register(0xfc00fffe, 0x7c000774, "extsb", adaptCtx(doEXTSB))
	decode.Register(0xfc00fffe, 0x7c000734, "extsh", adaptCtx(doEXTSH))
}

func logFields(insn uint32) (rs, ra, rb int) {
	return int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
}

// threeRegLogical emits `hra <- hrs OP hrb` with the same operand-
// aliasing optimization as threeRegAlu, matching AND/OR/XOR's
// DECLARE_INSN bodies (they favor an in-place ALU over the generic
// load-then-op-then-store dance when ra already aliases rs or rb).
func threeRegLogical(cx *Context, name string, rs, ra, rb, aluOp int) int {
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hrs, rs)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, name)
	var code []byte
	switch {
	case ra == rs:
		code = x86asm.AluRegReg(aluOp, hra, hrb)
	case ra == rb:
		code = x86asm.AluRegReg(aluOp, hra, hrs)
	default:
		code = append(x86asm.MovRegReg(hra, hrs, 4), x86asm.AluRegReg(aluOp, hra, hrb)...)
	}
	op.Append(code)
	return hra
}

func doAND(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("and")
	hra := threeRegLogical(cx, "and", rs, ra, rb, x86asm.AND)
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// ANDC: ra <- rs & ~rb.
func doANDC(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("andc")
	t0 := cx.Regs.GetTmp()
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hrs, rs)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, "andc")
	var code []byte
	code = append(code, x86asm.MovRegReg(t0, hrb, 4)...)
	code = append(code, x86asm.NotReg(t0)...)
	if ra == rs {
		code = append(code, x86asm.AluRegReg(x86asm.AND, hra, t0)...)
	} else {
		code = append(code, x86asm.AluRegReg(x86asm.AND, t0, hrs)...)
		code = append(code, x86asm.MovRegReg(hra, t0, 4)...)
	}
	op.Append(code)

	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func immFields(insn uint32) (rs, ra int, imm uint32) {
	rs = int(bits(insn, 21, 25))
	ra = int(bits(insn, 16, 20))
	imm = bits(insn, 0, 15)
	return
}

// ANDI always updates CR0 regardless of an Rc bit — the opcode has no
// Rc field, per ppc32_x86_trans.c DECLARE_INSN(ANDI).
func doANDI(cx *Context, insn uint32) {
	rs, ra, imm := immFields(insn)
	logicalImm(cx, "andi", rs, ra, imm, x86asm.AND, true)
}

func doANDIS(cx *Context, insn uint32) {
	rs, ra, imm := immFields(insn)
	logicalImm(cx, "andis", rs, ra, imm<<16, x86asm.AND, true)
}

func doORI(cx *Context, insn uint32) {
	rs, ra, imm := immFields(insn)
	logicalImm(cx, "ori", rs, ra, imm, x86asm.OR, false)
}

func doORIS(cx *Context, insn uint32) {
	rs, ra, imm := immFields(insn)
	logicalImm(cx, "oris", rs, ra, imm<<16, x86asm.OR, false)
}

func doXORI(cx *Context, insn uint32) {
	rs, ra, imm := immFields(insn)
	logicalImm(cx, "xori", rs, ra, imm, x86asm.XOR, false)
}

func doXORIS(cx *Context, insn uint32) {
	rs, ra, imm := immFields(insn)
	logicalImm(cx, "xoris", rs, ra, imm<<16, x86asm.XOR, false)
}

func logicalImm(cx *Context, name string, rs, ra int, imm uint32, aluOp int, alwaysUpdateCR bool) {
	cx.Regs.StartSequence(name)
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hrs, rs)

	op := cx.IR.InsnOutput(16, name)
	var code []byte
	if ra != rs {
		code = append(code, x86asm.MovRegReg(hra, hrs, 4)...)
	}
	code = append(code, x86asm.AluRegImm(aluOp, hra, int32(imm))...)
	op.Append(code)
	cx.IR.StoreGpr(ra, hra)
	if alwaysUpdateCR {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doOR(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("or")
	hra := threeRegLogical(cx, "or", rs, ra, rb, x86asm.OR)
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// ORC: ra <- rs | ~rb.
func doORC(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("orc")
	t0 := cx.Regs.GetTmp()
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hrs, rs)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, "orc")
	var code []byte
	code = append(code, x86asm.MovRegReg(t0, hrb, 4)...)
	code = append(code, x86asm.NotReg(t0)...)
	if ra == rs {
		code = append(code, x86asm.AluRegReg(x86asm.OR, hra, t0)...)
	} else {
		code = append(code, x86asm.AluRegReg(x86asm.OR, t0, hrs)...)
		code = append(code, x86asm.MovRegReg(hra, t0, 4)...)
	}
	op.Append(code)

	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doNAND(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("nand")
	hra := threeRegLogical(cx, "nand", rs, ra, rb, x86asm.AND)
	op := cx.IR.InsnOutput(8, "nand_not")
	op.Append(x86asm.NotReg(hra))
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doNOR(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("nor")
	hra := threeRegLogical(cx, "nor", rs, ra, rb, x86asm.OR)
	op := cx.IR.InsnOutput(8, "nor_not")
	op.Append(x86asm.NotReg(hra))
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doXOR(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("xor")
	hra := threeRegLogical(cx, "xor", rs, ra, rb, x86asm.XOR)
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// EQV: ra <- ~(rs ^ rb).
func doEQV(cx *Context, insn uint32) {
	rs, ra, rb := logFields(insn)
	cx.Regs.StartSequence("eqv")
	hra := threeRegLogical(cx, "eqv", rs, ra, rb, x86asm.XOR)
	op := cx.IR.InsnOutput(8, "eqv_not")
	op.Append(x86asm.NotReg(hra))
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// EXTSB/EXTSH: sign-extend the low 8/16 bits of rs into ra via a
// shift-left/shift-right-arithmetic pair, matching the original's
// byte-width-agnostic trick (no host sign-extend-byte-to-dword
// instruction is used; SHL/SAR by (32-width) does the same job).
func doEXTSB(cx *Context, insn uint32) { extSign(cx, insn, 24) }
func doEXTSH(cx *Context, insn uint32) { extSign(cx, insn, 16) }

func extSign(cx *Context, insn uint32, shift uint8) {
	rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	cx.Regs.StartSequence("extsign")
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hrs, rs)

	op := cx.IR.InsnOutput(16, "extsign")
	var code []byte
	if rs != ra {
		code = append(code, x86asm.MovRegReg(hra, hrs, 4)...)
	}
	code = append(code, x86asm.ShiftRegImm(x86asm.SHL, hra, shift)...)
	code = append(code, x86asm.ShiftRegImm(x86asm.SAR, hra, shift)...)
	op.Append(code)

	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}
