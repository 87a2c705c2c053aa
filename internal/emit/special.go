package emit

import (
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

// tbIncrement approximates the host-cycle advance dynamips charges per
// MFTBL read (ppc32_x86_trans.c's PPC32_TB_INCREMENT) — a rough
// instructions-executed proxy, not a real timebase frequency.
const tbIncrement = 50

func init() {
	decode.Register(0xfc1fffff, 0x7c0802a6, "mflr", adaptCtx(doMFLR))
	decode.Register(0xfc1fffff, 0x7c0803a6, "mtlr", adaptCtx(doMTLR))
	decode.Register(0xfc1fffff, 0x7c0902a6, "mfctr", adaptCtx(doMFCTR))
	decode.Register(0xfc1fffff, 0x7c0903a6, "mtctr", adaptCtx(doMTCTR))
	decode.Register(0xfc1ff7ff, 0x7c0c42e6, "mftbl", adaptCtx(doMFTBL))
	decode.Register(0xfc1ff7ff, 0x7c0d42e6, "mftbu", adaptCtx(doMFTBU))
}

func doMFLR(cx *Context, insn uint32) { moveFromField(cx, "mflr", int(bits(insn, 21, 25)), lrOffset()) }
func doMFCTR(cx *Context, insn uint32) {
	moveFromField(cx, "mfctr", int(bits(insn, 21, 25)), ctrOffset())
}

func moveFromField(cx *Context, name string, rd, offset int) {
	cx.Regs.StartSequence(name)
	hrd := cx.Regs.Alloc(rd)
	op := cx.IR.InsnOutput(8, name)
	op.Append(x86asm.MovRegMembase(hrd, CPUBaseReg, offset, 4))
	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

func doMTLR(cx *Context, insn uint32) { moveToField(cx, "mtlr", int(bits(insn, 21, 25)), lrOffset()) }
func doMTCTR(cx *Context, insn uint32) {
	moveToField(cx, "mtctr", int(bits(insn, 21, 25)), ctrOffset())
}

func moveToField(cx *Context, name string, rs, offset int) {
	cx.Regs.StartSequence(name)
	hrs := cx.Regs.Alloc(rs)
	cx.IR.LoadGpr(hrs, rs)
	op := cx.IR.InsnOutput(8, name)
	op.Append(x86asm.MovMembaseReg(CPUBaseReg, offset, hrs, 4))
	cx.Regs.CloseSequence()
}

func doMFTBU(cx *Context, insn uint32) {
	rd := int(bits(insn, 21, 25))
	cx.Regs.StartSequence("mftbu")
	hrd := cx.Regs.Alloc(rd)
	op := cx.IR.InsnOutput(8, "mftbu")
	op.Append(x86asm.MovRegMembase(hrd, CPUBaseReg, tbHiOffset(), 4))
	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

// MFTBL also advances the timebase by a fixed per-read increment,
// matching the original's side effect on every low-word read.
func doMFTBL(cx *Context, insn uint32) {
	rd := int(bits(insn, 21, 25))
	cx.Regs.StartSequence("mftbl")
	hrd := cx.Regs.Alloc(rd)
	t0 := cx.Regs.GetTmp()

	op := cx.IR.InsnOutput(32, "mftbl")
	var code []byte
	code = append(code, x86asm.MovRegMembase(hrd, CPUBaseReg, tbLoOffset(), 4)...)
	code = append(code, x86asm.MovRegMembase(t0, CPUBaseReg, tbHiOffset(), 4)...)
	code = append(code, x86asm.AluRegImm(x86asm.ADD, hrd, tbIncrement)...)
	code = append(code, x86asm.AluRegImm(x86asm.ADC, t0, 0)...)
	code = append(code, x86asm.MovMembaseReg(CPUBaseReg, tbLoOffset(), hrd, 4)...)
	code = append(code, x86asm.MovMembaseReg(CPUBaseReg, tbHiOffset(), t0, 4)...)
	op.Append(code)

	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}
