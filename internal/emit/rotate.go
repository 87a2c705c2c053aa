package emit

import (
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

// rotateMask builds the 32-bit PPC rotate/insert mask for MB/ME
// (ppc32_rotate_mask, not present in the retrieved sources — this is
// the standard formula used by every PPC emulator: the set of bits
// from MB to ME inclusive, MSB-numbered, wrapping when MB > ME).
func rotateMask(mb, me uint32) uint32 {
	begin := ^uint32(0) >> mb
	end := ^uint32(0) << (31 - me)
	if mb <= me {
		return begin & end
	}
	return begin | end
}

func init() {
	decode.Register(0xfc000000, 0x50000000, "rlwimi", adaptCtx(doRLWIMI))
	decode.Register(0xfc000000, 0x54000000, "rlwinm", adaptCtx(doRLWINM))
	decode.Register(0xfc000000, 0x5c000000, "rlwnm", adaptCtx(doRLWNM))
	decode.Register(0xfc0007fe, 0x7c000030, "slw", adaptCtx(doSLW))
	decode.Register(0xfc0007fe, 0x7c000430, "srw", adaptCtx(doSRW))
	decode.Register(0xfc0007fe, 0x7c000670, "srawi", adaptCtx(doSRAWI))
}

func rotFields(insn uint32) (rs, ra, sh, mb, me int) {
	rs = int(bits(insn, 21, 25))
	ra = int(bits(insn, 16, 20))
	sh = int(bits(insn, 11, 15))
	mb = int(bits(insn, 6, 10))
	me = int(bits(insn, 1, 5))
	return
}

// RLWIMI: ra <- (rotl32(rs,sh) & mask) | (ra & ~mask) — insert,
// preserving ra's untouched bits (ppc32_x86_trans.c DECLARE_INSN(RLWIMI)).
func doRLWIMI(cx *Context, insn uint32) {
	rs, ra, sh, mb, me := rotFields(insn)
	mask := rotateMask(uint32(mb), uint32(me))
	cx.Regs.StartSequence("rlwimi")
	t0 := cx.Regs.GetTmp()
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hrs, rs)
	cx.IR.LoadGpr(hra, ra)

	op := cx.IR.InsnOutput(32, "rlwimi")
	var code []byte
	if mask != 0 {
		code = append(code, x86asm.AluRegImm(x86asm.AND, hra, int32(^mask))...)
	}
	code = append(code, x86asm.MovRegReg(t0, hrs, 4)...)
	if sh != 0 {
		code = append(code, x86asm.ShiftRegImm(x86asm.ROL, t0, uint8(sh))...)
	}
	if mask != 0xffffffff {
		code = append(code, x86asm.AluRegImm(x86asm.AND, t0, int32(mask))...)
	}
	code = append(code, x86asm.AluRegReg(x86asm.OR, hra, t0)...)
	op.Append(code)

	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// RLWINM: ra <- rotl32(rs,sh) & mask.
func doRLWINM(cx *Context, insn uint32) {
	rs, ra, sh, mb, me := rotFields(insn)
	mask := rotateMask(uint32(mb), uint32(me))
	cx.Regs.StartSequence("rlwinm")
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hrs, rs)

	op := cx.IR.InsnOutput(24, "rlwinm")
	var code []byte
	if rs != ra {
		code = append(code, x86asm.MovRegReg(hra, hrs, 4)...)
	}
	if sh != 0 {
		code = append(code, x86asm.ShiftRegImm(x86asm.ROL, hra, uint8(sh))...)
	}
	if mask != 0xffffffff {
		code = append(code, x86asm.AluRegImm(x86asm.AND, hra, int32(mask))...)
	}
	op.Append(code)

	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// RLWNM: like RLWINM but the shift amount comes from rb (low 5 bits),
// tying the shift count to ECX per x86's variable-shift form.
func doRLWNM(cx *Context, insn uint32) {
	rs, ra, _, mb, me := rotFields(insn)
	rb := int(bits(insn, 11, 15))
	mask := rotateMask(uint32(mb), uint32(me))

	cx.Regs.AlterHostReg(x86asm.ECX)
	cx.IR.AlterHostReg(x86asm.ECX)
	cx.Regs.StartSequence("rlwnm")
	cx.Regs.AllocForced(x86asm.ECX)
	t0 := cx.Regs.GetTmp()
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hra, ra)
	cx.IR.LoadGpr(hrs, rs)
	cx.IR.LoadGpr(x86asm.ECX, rb)

	op := cx.IR.InsnOutput(24, "rlwnm")
	var code []byte
	code = append(code, x86asm.MovRegReg(t0, hrs, 4)...)
	code = append(code, x86asm.ShiftRegReg(x86asm.ROL, t0)...)
	if mask != 0xffffffff {
		code = append(code, x86asm.AluRegImm(x86asm.AND, t0, int32(mask))...)
	}
	code = append(code, x86asm.MovRegReg(hra, t0, 4)...)
	op.Append(code)

	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// shiftZeroOnBit5 emits the "count >= 32 -> null result" guard shared
// by SLW/SRW: result starts zeroed, and is only recomputed by shifting
// rs when bit 5 of the count (0x20) is clear.
func shiftZeroOnBit5(cx *Context, name string, shiftOp, rs, ra, rb int) {
	cx.Regs.AlterHostReg(x86asm.ECX)
	cx.IR.AlterHostReg(x86asm.ECX)
	cx.Regs.StartSequence(name)
	cx.Regs.AllocForced(x86asm.ECX)
	t0 := cx.Regs.GetTmp()
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hrs, rs)
	cx.IR.LoadGpr(x86asm.ECX, rb)

	op := cx.IR.InsnOutput(32, name)
	var code []byte
	code = append(code, x86asm.AluRegReg(x86asm.XOR, t0, t0)...)
	code = append(code, x86asm.TestRegImm(x86asm.ECX, 0x20)...)
	jcc, dispOff := x86asm.Jcc8Placeholder(x86asm.CCNE)
	branchEnd := len(code) + len(jcc)
	code = append(code, jcc...)
	fall := append(x86asm.MovRegReg(t0, hrs, 4), x86asm.ShiftRegReg(shiftOp, t0)...)
	code = append(code, fall...)
	x86asm.PatchRel8(code, branchEnd-len(jcc)+dispOff, int8(len(fall)))
	code = append(code, x86asm.MovRegReg(hra, t0, 4)...)
	op.Append(code)
}

func doSLW(cx *Context, insn uint32) {
	rs, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	shiftZeroOnBit5(cx, "slw", x86asm.SHL, rs, ra, rb)
	hra := cx.Regs.HostRegFor(ra)
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

func doSRW(cx *Context, insn uint32) {
	rs, ra, rb := int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
	shiftZeroOnBit5(cx, "srw", x86asm.SHR, rs, ra, rb)
	hra := cx.Regs.HostRegFor(ra)
	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}

// SRAWI: ra <- (int32)rs >> sh (arithmetic); XER-CA set iff rs is
// negative and any bit shifted out was 1 (ppc32_x86_trans.c
// DECLARE_INSN(SRAWI) — the retrieved source computes this via a
// precomputed low-sh-bits-plus-sign mask compared against the
// all-shifted-out-bits-set case).
func doSRAWI(cx *Context, insn uint32) {
	rs, ra, sh, _, _ := rotFields(insn)
	cx.Regs.StartSequence("srawi")
	t0 := cx.Regs.GetTmp()
	hrs := cx.Regs.Alloc(rs)
	hra := cx.Regs.Alloc(ra)
	cx.IR.LoadGpr(hrs, rs)

	op := cx.IR.InsnOutput(32, "srawi")
	var code []byte
	code = append(code, x86asm.MovRegReg(t0, hrs, 4)...)
	if ra != rs {
		code = append(code, x86asm.MovRegReg(hra, hrs, 4)...)
	}
	code = append(code, x86asm.ShiftRegImm(x86asm.SAR, hra, uint8(sh))...)

	mask := int32(^(uint32(0xffffffff) << uint(sh)) | 0x80000000)
	code = append(code, x86asm.AluRegImm(x86asm.AND, t0, mask)...)
	code = append(code, x86asm.CmpRegImm(t0, -0x80000000)...)
	code = append(code, x86asm.SetCC(t0, x86asm.CCA)...)
	code = append(code, x86asm.AluRegImm(x86asm.AND, t0, 0x1)...)
	op.Append(code)

	op2 := cx.IR.InsnOutput(8, "srawi_ca")
	op2.Append(x86asm.MovMembaseReg(CPUBaseReg, xerCAOffset(), t0, 4))

	cx.IR.StoreGpr(ra, hra)
	if rc(insn) {
		cx.IR.UpdateFlags(0, true)
	}
	cx.Regs.CloseSequence()
}
