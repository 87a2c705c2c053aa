package emit

import (
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

func init() {
	decode.Register(0xfc000003, 0x48000000, "b", adaptCtx(doB))
	decode.Register(0xfc000003, 0x48000002, "ba", adaptCtx(doBA))
	decode.Register(0xfc000003, 0x48000001, "bl", adaptCtx(doBL))
	decode.Register(0xfc000003, 0x48000003, "bla", adaptCtx(doBLA))
	decode.Register(0xfe800000, 0x40800000, "bcc", adaptCtx(doBCC))
	decode.Register(0xfc000000, 0x40000000, "bc", adaptCtx(doBC))
	decode.Register(0xfffffffe, 0x4e800020, "blr", adaptCtx(doBLR))
	decode.Register(0xfc00fffe, 0x4c000020, "bclr", adaptCtx(doBCLR))
	decode.Register(0xfffffffe, 0x4e800420, "bctr", adaptCtx(doBCTR))
}

// doBranch covers B/BA/BL/BLA: the four combinations of absolute/
// relative addressing and link-register update, matching
// ppc32_x86_trans.c's near-identical DECLARE_INSN bodies for all four.
func doBranch(cx *Context, insn uint32, absolute, link bool) {
	offset := bits(insn, 2, 25)
	disp := signExt(offset<<2, 26)

	var newIA uint32
	if absolute {
		newIA = uint32(disp)
	} else {
		newIA = cx.IA + uint32(disp)
	}
	nextIA := cx.IA + 4

	cx.Regs.StartSequence("b")
	t0 := cx.Regs.GetTmp()
	op := cx.IR.InsnOutput(24, "b")
	var code []byte
	if link {
		code = append(code, x86asm.MovRegImm32(t0, int32(nextIA))...)
		code = append(code, x86asm.MovMembaseReg(CPUBaseReg, lrOffset(), t0, 4)...)
	}
	code = append(code, x86asm.MovRegImm32(t0, int32(newIA))...)
	code = append(code, x86asm.MovMembaseReg(CPUBaseReg, iaOffset(), t0, 4)...)
	op.Append(code)

	cx.IR.BranchJump(newIA, -1)
	if cpu.VPage(newIA) == cx.Block.StartIA {
		cx.IR.BranchTarget(newIA)
	}
	if cpu.VPage(nextIA) == cx.Block.StartIA {
		cx.IR.BranchTarget(nextIA)
	}
	cx.IR.EndOfBlock()
	cx.Regs.CloseSequence()
}

func doB(cx *Context, insn uint32)   { doBranch(cx, insn, false, false) }
func doBA(cx *Context, insn uint32)  { doBranch(cx, insn, true, false) }
func doBL(cx *Context, insn uint32)  { doBranch(cx, insn, false, true) }
func doBLA(cx *Context, insn uint32) { doBranch(cx, insn, true, true) }

// condTargetIA computes a BC/BCC-form branch's compile-time-known
// destination from its BD field and AA bit (bit 1).
func condTargetIA(cx *Context, insn uint32) uint32 {
	bd := bits(insn, 2, 15)
	newIA := uint32(signExt(bd<<2, 16))
	if insn&0x02 == 0 {
		newIA += cx.IA
	}
	return newIA
}

// storeIAIfTaken conditionally overwrites cpu.IA with newIA, skipping
// the write entirely when takenReg's low bit is clear — the Go
// analogue of the original's "branch32 over the store" technique. Both
// ends of the skip live in the appender's local byte slice, so the
// 8-bit displacement is patched there before the Op receives the bytes.
func storeIAIfTaken(op *opAppender, takenReg int, newIA uint32) {
	code := op.buf()
	code = append(code, x86asm.TestRegImm(takenReg, 1)...)
	jcc, dispOff := x86asm.Jcc8Placeholder(x86asm.CCE)
	branchEnd := len(code) + len(jcc)
	code = append(code, jcc...)

	write := append(x86asm.MovRegImm32(takenReg, int32(newIA)), x86asm.MovMembaseReg(CPUBaseReg, iaOffset(), takenReg, 4)...)
	code = append(code, write...)
	x86asm.PatchRel8(code, branchEnd-len(jcc)+dispOff, int8(len(write)))
	op.set(code)
}

// opAppender lets storeIAIfTaken build up a byte slice and flush it
// into the owning Op in one Append call.
type opAppender struct {
	code []byte
}

func (a *opAppender) buf() []byte   { return a.code }
func (a *opAppender) set(b []byte)  { a.code = b }

func doBCC(cx *Context, insn uint32) { condBranch(cx, insn, false) }
func doBC(cx *Context, insn uint32)  { condBranch(cx, insn, true) }

// condBranch implements BC/BCC: BO selects whether the CTR is
// decremented-and-tested, whether the CR bit is tested, and which
// polarity each test must match, per ppc32_x86_trans.c DECLARE_INSN(BC)
// and DECLARE_INSN(BCC) (BCC is the common case where BO guarantees no
// CTR test is needed).
func condBranch(cx *Context, insn uint32, testCtr bool) {
	bo := bits(insn, 21, 25)
	bi := int(bits(insn, 16, 20))
	newIA := condTargetIA(cx, insn)
	nextIA := cx.IA + 4
	cond := bo>>3&1 != 0
	ctrCond := bo>>1&1 != 0
	skipCtrTest := bo&0x04 != 0
	skipCrTest := bo>>4&1 != 0

	cx.Regs.AlterHostReg(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.Regs.StartSequence("bc")
	cx.Regs.AllocForced(x86asm.EDX)
	t1 := cx.Regs.GetTmp()

	op := cx.IR.InsnOutput(48, "bc")
	app := &opAppender{}
	app.code = append(app.code, x86asm.MovRegImm32(x86asm.EDX, 1)...)

	if testCtr && !skipCtrTest {
		app.code = append(app.code, x86asm.DecMembase(CPUBaseReg, ctrOffset())...)
		ctrCC := x86asm.CCNE
		if ctrCond {
			ctrCC = x86asm.CCE
		}
		app.code = append(app.code, x86asm.SetCC(t1, ctrCC)...)
		app.code = append(app.code, x86asm.AluRegImm(x86asm.AND, t1, 0x1)...)
		app.code = append(app.code, x86asm.AluRegReg(x86asm.AND, x86asm.EDX, t1)...)
	}

	if !skipCrTest {
		cx.IR.RequireFlags(crField(bi))
		app.code = append(app.code, x86asm.TestMembaseImm(CPUBaseReg, crOffset(crField(bi)), int32(crBit(bi)))...)
		crCC := x86asm.CCE
		if cond {
			crCC = x86asm.CCNE
		}
		app.code = append(app.code, x86asm.SetCC(t1, crCC)...)
		app.code = append(app.code, x86asm.AluRegImm(x86asm.AND, t1, 0x1)...)
		app.code = append(app.code, x86asm.AluRegReg(x86asm.AND, x86asm.EDX, t1)...)
	}

	if insn&1 != 0 {
		app.code = append(app.code, x86asm.MovRegImm32(t1, int32(nextIA))...)
		app.code = append(app.code, x86asm.MovMembaseReg(CPUBaseReg, lrOffset(), t1, 4)...)
		if cpu.VPage(nextIA) == cx.Block.StartIA {
			cx.IR.BranchTarget(nextIA)
		}
	}

	storeIAIfTaken(app, x86asm.EDX, newIA)
	op.Append(app.code)

	if cpu.VPage(newIA) == cx.Block.StartIA {
		cx.IR.BranchTarget(newIA)
	}
	cx.Regs.CloseSequence()
}

// doBLR/doBCTR: unconditional branch through LR/CTR, always ending the
// block since the destination is only known at run time.
func doBLR(cx *Context, insn uint32)  { branchThroughReg(cx, insn, "blr", lrOffset()) }
func doBCTR(cx *Context, insn uint32) { branchThroughReg(cx, insn, "bctr", ctrOffset()) }

func branchThroughReg(cx *Context, insn uint32, name string, srcOffset int) {
	nextIA := cx.IA + 4
	cx.Regs.StartSequence(name)
	t0 := cx.Regs.GetTmp()

	op := cx.IR.InsnOutput(16, name)
	var code []byte
	code = append(code, x86asm.MovRegMembase(t0, CPUBaseReg, srcOffset, 4)...)
	code = append(code, x86asm.MovMembaseReg(CPUBaseReg, iaOffset(), t0, 4)...)
	if insn&1 != 0 {
		code = append(code, x86asm.MovRegImm32(t0, int32(nextIA))...)
		code = append(code, x86asm.MovMembaseReg(CPUBaseReg, lrOffset(), t0, 4)...)
	}
	op.Append(code)

	if cpu.VPage(nextIA) == cx.Block.StartIA {
		cx.IR.BranchTarget(nextIA)
	}
	cx.IR.EndOfBlock()
	cx.Regs.CloseSequence()
}

// BCLR: branch conditional to LR, masked to a word boundary.
func doBCLR(cx *Context, insn uint32) {
	bo := bits(insn, 21, 25)
	bi := int(bits(insn, 16, 20))
	nextIA := cx.IA + 4
	cond := bo>>3&1 != 0
	ctrCond := bo>>1&1 != 0
	skipCtrTest := bo&0x04 != 0
	skipCrTest := bo>>4&1 != 0

	cx.Regs.AlterHostReg(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.Regs.StartSequence("bclr")
	cx.Regs.AllocForced(x86asm.EDX)
	t1 := cx.Regs.GetTmp()

	op := cx.IR.InsnOutput(48, "bclr")
	var code []byte
	code = append(code, x86asm.MovRegImm32(x86asm.EDX, 1)...)

	if !skipCtrTest {
		code = append(code, x86asm.DecMembase(CPUBaseReg, ctrOffset())...)
		ctrCC := x86asm.CCNE
		if ctrCond {
			ctrCC = x86asm.CCE
		}
		code = append(code, x86asm.SetCC(t1, ctrCC)...)
		code = append(code, x86asm.AluRegImm(x86asm.AND, t1, 0x1)...)
		code = append(code, x86asm.AluRegReg(x86asm.AND, x86asm.EDX, t1)...)
	}

	if !skipCrTest {
		cx.IR.RequireFlags(crField(bi))
		code = append(code, x86asm.TestMembaseImm(CPUBaseReg, crOffset(crField(bi)), int32(crBit(bi)))...)
		crCC := x86asm.CCE
		if cond {
			crCC = x86asm.CCNE
		}
		code = append(code, x86asm.SetCC(t1, crCC)...)
		code = append(code, x86asm.AluRegImm(x86asm.AND, t1, 0x1)...)
		code = append(code, x86asm.AluRegReg(x86asm.AND, x86asm.EDX, t1)...)
	}

	// t1 <- LR before a link-bit update can overwrite it.
	code = append(code, x86asm.MovRegMembase(t1, CPUBaseReg, lrOffset(), 4)...)
	if insn&1 != 0 {
		code = append(code, x86asm.MovMembaseImm(CPUBaseReg, lrOffset(), int32(nextIA))...)
		if cpu.VPage(nextIA) == cx.Block.StartIA {
			cx.IR.BranchTarget(nextIA)
		}
	}

	app := &opAppender{code: code}
	storeIALinkReg(app, x86asm.EDX, t1)
	op.Append(app.code)

	cx.IR.EndOfBlock()
	cx.Regs.CloseSequence()
}

// storeIALinkReg is storeIAIfTaken's BCLR-specific twin: the taken
// destination is a run-time register (LR, masked to a word boundary)
// rather than a compile-time constant.
func storeIALinkReg(app *opAppender, takenReg, targetReg int) {
	code := app.code
	code = append(code, x86asm.TestRegImm(takenReg, 1)...)
	jcc, dispOff := x86asm.Jcc8Placeholder(x86asm.CCE)
	branchEnd := len(code) + len(jcc)
	code = append(code, jcc...)

	write := append(x86asm.AluRegImm(x86asm.AND, targetReg, ^int32(3)), x86asm.MovMembaseReg(CPUBaseReg, iaOffset(), targetReg, 4)...)
	code = append(code, write...)
	x86asm.PatchRel8(code, branchEnd-len(jcc)+dispOff, int8(len(write)))
	app.code = code
}
