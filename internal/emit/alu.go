package emit

import (
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

// threeRegAlu emits `hrd <- hra OP hrb` (commutative-safe operand
// ordering: whichever of ra/rb aliases rd supplies the destination
// register already, matching ADD's DECLARE_INSN body) and returns hrd.
func threeRegAlu(cx *Context, name string, rd, ra, rb, aluOp int) int {
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, name)
	var code []byte
	switch {
	case rd == ra:
		code = x86asm.AluRegReg(aluOp, hrd, hrb)
	case rd == rb:
		code = x86asm.AluRegReg(aluOp, hrd, hra)
	default:
		code = append(x86asm.MovRegReg(hrd, hra, 4), x86asm.AluRegReg(aluOp, hrd, hrb)...)
	}
	op.Append(code)
	return hrd
}

func init() {
	decode.Register(0xfc0007fe, 0x7c000214, "add", adaptCtx(doADD))
	decode.Register(0xfc0007fe, 0x7c000014, "addc", adaptCtx(doADDC))
	decode.Register(0xfc0007fe, 0x7c000114, "adde", adaptCtx(doADDE))
	decode.Register(0xfc000000, 0x38000000, "addi", adaptCtx(doADDI))
	decode.Register(0xfc000000, 0x30000000, "addic", adaptCtx(doADDIC))
	decode.Register(0xfc000000, 0x34000000, "addic.", adaptCtx(doADDICDot))
	decode.Register(0xfc000000, 0x3c000000, "addis", adaptCtx(doADDIS))
	decode.Register(0xfc00fffe, 0x7c000194, "addze", adaptCtx(doADDZE))

	decode.Register(0xfc0007fe, 0x7c000050, "subf", adaptCtx(doSUBF))
	decode.Register(0xfc0007fe, 0x7c000010, "subfc", adaptCtx(doSUBFC))
	decode.Register(0xfc0007fe, 0x7c000110, "subfe", adaptCtx(doSUBFE))
	decode.Register(0xfc000000, 0x20000000, "subfic", adaptCtx(doSUBFIC))
	decode.Register(0xfc00fffe, 0x7c0000d0, "neg", adaptCtx(doNEG))

	decode.Register(0xfc000000, 0x1c000000, "mulli", adaptCtx(doMULLI))
	decode.Register(0xfc0007fe, 0x7c0001d6, "mullw", adaptCtx(doMULLW))
	decode.Register(0xfc0007fe, 0x7c000096, "mulhw", adaptCtx(doMULHW))
	decode.Register(0xfc0007fe, 0x7c000016, "mulhwu", adaptCtx(doMULHWU))
	decode.Register(0xfc0007fe, 0x7c000396, "divwu", adaptCtx(doDIVWU))
}

func doADD(cx *Context, insn uint32) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("add")
	hrd := threeRegAlu(cx, "add", rd, ra, rb, x86asm.ADD)
	cx.IR.StoreGpr(rd, hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doADDC(cx *Context, insn uint32) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("addc")
	hrd := threeRegAlu(cx, "addc", rd, ra, rb, x86asm.ADD)
	cx.IR.StoreGpr(rd, hrd)
	op := cx.IR.InsnOutput(8, "addc_ca")
	op.Append(x86asm.SetCCMembase(x86asm.CCB, CPUBaseReg, xerCAOffset()))
	if rc(insn) {
		op2 := cx.IR.InsnOutput(8, "addc_test")
		op2.Append(x86asm.CmpRegImm(hrd, 0))
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doADDE(cx *Context, insn uint32) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("adde")
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	t0 := cx.Regs.AllocForced(x86asm.ECX)
	t1 := cx.Regs.GetTmp()
	cx.IR.AlterHostReg(t0)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(24, "adde")
	var code []byte
	code = append(code, x86asm.AluRegReg(x86asm.XOR, t1, t1)...)
	code = append(code, x86asm.MovRegReg(t0, hra, 4)...)
	code = append(code, x86asm.AluRegMembase(x86asm.ADD, t0, CPUBaseReg, xerCAOffset())...)
	code = append(code, x86asm.SetCC(t1, x86asm.CCB)...)
	code = append(code, x86asm.MovMembaseReg(CPUBaseReg, xerCAOffset(), t1, 4)...)
	code = append(code, x86asm.AluRegReg(x86asm.ADD, t0, hrb)...)
	code = append(code, x86asm.SetCC(t1, x86asm.CCB)...)
	code = append(code, x86asm.AluMembaseReg(x86asm.OR, CPUBaseReg, xerCAOffset(), t1)...)
	if rc(insn) {
		code = append(code, x86asm.CmpRegImm(t0, 0)...)
	}
	hrd := cx.Regs.Alloc(rd)
	code = append(code, x86asm.MovRegReg(hrd, t0, 4)...)
	op.Append(code)

	cx.IR.StoreGpr(rd, hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doADDI(cx *Context, insn uint32) {
	rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	imm := signExt(bits(insn, 0, 15), 16)
	cx.Regs.StartSequence("addi")
	hrd := cx.Regs.Alloc(rd)
	if ra != 0 {
		hra := cx.Regs.Alloc(ra)
		cx.IR.LoadGpr(hra, ra)
		op := cx.IR.InsnOutput(16, "addi")
		var code []byte
		if rd != ra {
			code = append(code, x86asm.MovRegReg(hrd, hra, 4)...)
		}
		code = append(code, x86asm.AluRegImm(x86asm.ADD, hrd, imm)...)
		op.Append(code)
	} else {
		op := cx.IR.InsnOutput(8, "addi")
		op.Append(x86asm.MovRegImm32(hrd, imm))
	}
	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

func doADDIC(cx *Context, insn uint32) {
	addicCommon(cx, insn, false)
}

func doADDICDot(cx *Context, insn uint32) {
	addicCommon(cx, insn, true)
}

func addicCommon(cx *Context, insn uint32, dot bool) {
	rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	imm := signExt(bits(insn, 0, 15), 16)
	cx.Regs.StartSequence("addic")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)

	op := cx.IR.InsnOutput(8, "addic")
	var code []byte
	if rd != ra {
		code = append(code, x86asm.MovRegReg(hrd, hra, 4)...)
	}
	code = append(code, x86asm.AluRegImm(x86asm.ADD, hrd, imm)...)
	op.Append(code)
	cx.IR.StoreGpr(rd, hrd)

	op2 := cx.IR.InsnOutput(8, "addic_ca")
	op2.Append(x86asm.SetCCMembase(x86asm.CCB, CPUBaseReg, xerCAOffset()))
	if dot {
		op3 := cx.IR.InsnOutput(8, "addic_test")
		op3.Append(x86asm.CmpRegImm(hrd, 0))
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doADDIS(cx *Context, insn uint32) {
	rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	imm := int32(bits(insn, 0, 15)) << 16
	cx.Regs.StartSequence("addis")
	hrd := cx.Regs.Alloc(rd)
	if ra != 0 {
		hra := cx.Regs.Alloc(ra)
		cx.IR.LoadGpr(hra, ra)
		op := cx.IR.InsnOutput(16, "addis")
		var code []byte
		if rd != ra {
			code = append(code, x86asm.MovRegReg(hrd, hra, 4)...)
		}
		code = append(code, x86asm.AluRegImm(x86asm.ADD, hrd, imm)...)
		op.Append(code)
	} else {
		op := cx.IR.InsnOutput(8, "addis")
		op.Append(x86asm.MovRegImm32(hrd, imm))
	}
	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

func doADDZE(cx *Context, insn uint32) {
	rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	cx.Regs.StartSequence("addze")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)

	op := cx.IR.InsnOutput(16, "addze")
	var code []byte
	if rd != ra {
		code = append(code, x86asm.MovRegReg(hrd, hra, 4)...)
	}
	code = append(code, x86asm.AluRegMembase(x86asm.ADD, hrd, CPUBaseReg, xerCAOffset())...)
	op.Append(code)
	cx.IR.StoreGpr(rd, hrd)

	op2 := cx.IR.InsnOutput(8, "addze_ca")
	op2.Append(x86asm.SetCCMembase(x86asm.CCB, CPUBaseReg, xerCAOffset()))
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// SUBF family: rd = rb - ra (operand order is reversed from ADD).

func doSUBF(cx *Context, insn uint32) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("subf")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, "subf")
	var code []byte
	if rd != rb {
		code = append(code, x86asm.MovRegReg(hrd, hrb, 4)...)
	}
	code = append(code, x86asm.AluRegReg(x86asm.SUB, hrd, hra)...)
	op.Append(code)
	cx.IR.StoreGpr(rd, hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doSUBFC(cx *Context, insn uint32) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("subfc")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, "subfc")
	var code []byte
	if rd != rb {
		code = append(code, x86asm.MovRegReg(hrd, hrb, 4)...)
	}
	code = append(code, x86asm.AluRegReg(x86asm.SUB, hrd, hra)...)
	op.Append(code)
	cx.IR.StoreGpr(rd, hrd)

	op2 := cx.IR.InsnOutput(8, "subfc_ca")
	op2.Append(x86asm.SetCCMembase(x86asm.CCAE, CPUBaseReg, xerCAOffset()))
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doSUBFE(cx *Context, insn uint32) {
	ra, rb := int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("subfe")
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	t0 := cx.Regs.AllocForced(x86asm.ECX)
	t1 := cx.Regs.GetTmp()
	cx.IR.AlterHostReg(t0)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(24, "subfe")
	var code []byte
	code = append(code, x86asm.NotReg(hra)...) // ~ra
	code = append(code, x86asm.MovRegReg(t0, hrb, 4)...)
	code = append(code, x86asm.AluRegMembase(x86asm.ADD, t0, CPUBaseReg, xerCAOffset())...)
	code = append(code, x86asm.SetCC(t1, x86asm.CCB)...)
	code = append(code, x86asm.AluRegReg(x86asm.ADD, t0, hra)...)
	code = append(code, x86asm.SetCC(t1, x86asm.CCB)...)
	code = append(code, x86asm.MovMembaseReg(CPUBaseReg, xerCAOffset(), t1, 4)...)
	if rc(insn) {
		code = append(code, x86asm.CmpRegImm(t0, 0)...)
	}
	hrd := cx.Regs.Alloc(rd2(insn))
	code = append(code, x86asm.MovRegReg(hrd, t0, 4)...)
	op.Append(code)

	cx.IR.StoreGpr(rd2(insn), hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func rd2(insn uint32) int { return int(bits(insn, 21, 25)) }

func doSUBFIC(cx *Context, insn uint32) {
	rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	imm := signExt(bits(insn, 0, 15), 16)
	cx.Regs.StartSequence("subfic")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)

	op := cx.IR.InsnOutput(16, "subfic")
	var code []byte
	code = append(code, x86asm.MovRegImm32(hrd, imm)...)
	code = append(code, x86asm.AluRegReg(x86asm.SUB, hrd, hra)...)
	op.Append(code)
	cx.IR.StoreGpr(rd, hrd)

	op2 := cx.IR.InsnOutput(8, "subfic_ca")
	op2.Append(x86asm.SetCCMembase(x86asm.CCAE, CPUBaseReg, xerCAOffset()))
	cx.Regs.CloseSequence()
}

func doNEG(cx *Context, insn uint32) {
	rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	cx.Regs.StartSequence("neg")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)

	op := cx.IR.InsnOutput(16, "neg")
	var code []byte
	if rd != ra {
		code = append(code, x86asm.MovRegReg(hrd, hra, 4)...)
	}
	code = append(code, x86asm.NegReg(hrd)...)
	op.Append(code)
	cx.IR.StoreGpr(rd, hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doMULLI(cx *Context, insn uint32) {
	rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
	imm := signExt(bits(insn, 0, 15), 16)
	cx.Regs.StartSequence("mulli")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)
	op := cx.IR.InsnOutput(8, "mulli")
	op.Append(x86asm.ImulRegRegImm32(hrd, hra, imm))
	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

// MULLW: rd <- low 32 bits of ra * rb (same bits whether the guest
// reads the product signed or unsigned). Uses x86's two-operand IMUL
// (0F AF), which only needs rd to already hold one operand.
func doMULLW(cx *Context, insn uint32) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("mullw")
	hrd := cx.Regs.Alloc(rd)
	hra := cx.Regs.Alloc(ra)
	hrb := cx.Regs.Alloc(rb)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, "mullw")
	var code []byte
	switch {
	case hrd == hra:
		code = x86asm.ImulRegReg(hrd, hrb)
	case hrd == hrb:
		code = x86asm.ImulRegReg(hrd, hra)
	default:
		code = append(x86asm.MovRegReg(hrd, hra, 4), x86asm.ImulRegReg(hrd, hrb)...)
	}
	op.Append(code)
	cx.IR.StoreGpr(rd, hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doMULHW(cx *Context, insn uint32) {
	mulhCommon(cx, insn, true)
}

func doMULHWU(cx *Context, insn uint32) {
	mulhCommon(cx, insn, false)
}

func mulhCommon(cx *Context, insn uint32, signed bool) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("mulh")
	hra := cx.Regs.AllocForced(x86asm.EAX)
	hrb := cx.Regs.Alloc(rb)
	cx.Regs.AlterHostReg(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, "mulh")
	var code []byte
	if signed {
		code = append(code, x86asm.Imul(hrb)...)
	} else {
		code = append(code, x86asm.Mul(hrb)...)
	}
	op.Append(code)

	hrd := cx.Regs.AllocForced(x86asm.EDX)
	opmov := cx.IR.InsnOutput(8, "mulh_mov")
	if hrd != x86asm.EDX {
		opmov.Append(x86asm.MovRegReg(hrd, x86asm.EDX, 4))
	}
	cx.IR.StoreGpr(rd, hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, signed)
	}
	cx.Regs.CloseSequence()
}

func doDIVWU(cx *Context, insn uint32) {
	rd, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	cx.Regs.StartSequence("divwu")
	hra := cx.Regs.AllocForced(x86asm.EAX)
	hrb := cx.Regs.Alloc(rb)
	cx.Regs.AllocForced(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrb, rb)

	op := cx.IR.InsnOutput(16, "divwu")
	var code []byte
	code = append(code, x86asm.AluRegReg(x86asm.XOR, x86asm.EDX, x86asm.EDX)...)
	code = append(code, x86asm.Div(hrb)...)
	op.Append(code)

	hrd := cx.Regs.AllocForced(x86asm.EAX)
	cx.IR.StoreGpr(rd, hrd)
	if rc(insn) {
		cx.IR.UpdateFlags(0, false)
	}
	cx.Regs.CloseSequence()
}
