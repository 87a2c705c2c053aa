package emit

import (
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

func init() {
	decode.Register(0xfc0007ff, 0x4c000202, "crand", adaptCtx(doCRAND))
	decode.Register(0xfc0007ff, 0x4c000102, "crandc", adaptCtx(doCRANDC))
	decode.Register(0xfc0007ff, 0x4c000242, "creqv", adaptCtx(doCREQV))
	decode.Register(0xfc0007ff, 0x4c0001c2, "crnand", adaptCtx(doCRNAND))
	decode.Register(0xfc0007ff, 0x4c000042, "crnor", adaptCtx(doCRNOR))
	decode.Register(0xfc0007ff, 0x4c000382, "cror", adaptCtx(doCROR))
	decode.Register(0xfc0007ff, 0x4c000342, "crorc", adaptCtx(doCRORC))
	decode.Register(0xfc0007ff, 0x4c000182, "crxor", adaptCtx(doCRXOR))

	decode.Register(0xfc63ffff, 0x4c000000, "mcrf", adaptCtx(doMCRF))
	decode.Register(0xfc1fffff, 0x7c000026, "mfcr", adaptCtx(doMFCR))
	decode.Register(0xfc1fffff, 0x7c0000a6, "mfmsr", adaptCtx(doMFMSR))
	decode.Register(0xfc10ffff, 0x7c0004a6, "mfsr", adaptCtx(doMFSR))
	decode.Register(0xfc100fff, 0x7c000120, "mtcrf", adaptCtx(doMTCRF))
}

// crField/crBit split a global 0-31 CR bit index (as carried by BA/BB/
// BD/BI fields) into the byte index and the in-byte mask this package's
// one-byte-per-field CPU.CR layout uses (cpu.CRLT==0x08 is local bit 0,
// down to cpu.CRSO==0x01 at local bit 3 — the reverse of the bit's
// position within the PPC-numbered nibble).
func crField(global int) int { return global >> 2 }
func crBit(global int) uint8 { return uint8(1 << (3 - global&3)) }

// crLogical emits the generic two-CR-bit-input pattern shared by every
// CRxx instruction (ppc32_x86_trans.c DECLARE_INSN(CRAND) and its
// siblings): test $ba, SETcc into one scratch reg, test $bb, SETcc into
// another, combine with aluOp (optionally inverting with NOT when the
// mnemonic is a N-form), then splice the single result bit into bd.
func crLogical(cx *Context, name string, insn uint32, aluOp int, invert bool, bbCC int) {
	bd := int(bits(insn, 21, 25))
	bb := int(bits(insn, 16, 20))
	ba := int(bits(insn, 11, 15))

	cx.Regs.AlterHostReg(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.Regs.StartSequence(name)
	cx.Regs.AllocForced(x86asm.EDX)
	t0 := cx.Regs.GetTmp()
	cx.IR.RequireFlags(crField(ba))
	cx.IR.RequireFlags(crField(bb))
	cx.IR.RequireFlags(crField(bd))

	op := cx.IR.InsnOutput(48, name)
	var code []byte
	code = append(code, x86asm.TestMembaseImm(CPUBaseReg, crOffset(crField(ba)), int32(crBit(ba)))...)
	code = append(code, x86asm.SetCC(x86asm.EDX, x86asm.CCNE)...)

	code = append(code, x86asm.TestMembaseImm(CPUBaseReg, crOffset(crField(bb)), int32(crBit(bb)))...)
	code = append(code, x86asm.SetCC(t0, bbCC)...)

	code = append(code, x86asm.AluRegReg(aluOp, t0, x86asm.EDX)...)
	if invert {
		code = append(code, x86asm.NotReg(t0)...)
	}
	code = append(code, x86asm.AluRegImm(x86asm.AND, t0, 0x01)...)

	code = append(code, x86asm.AluMembaseImm(x86asm.AND, CPUBaseReg, crOffset(crField(bd)), int32(^uint32(crBit(bd))))...)
	code = append(code, x86asm.ShiftRegImm(x86asm.SHL, t0, bdShift(bd))...)
	code = append(code, x86asm.AluMembaseReg(x86asm.OR, CPUBaseReg, crOffset(crField(bd)), t0)...)
	op.Append(code)

	cx.Regs.CloseSequence()
}

// bdShift is the bit position crBit(bd) occupies within its byte, as a
// shift count rather than a mask — needed because the combined result
// bit starts at bit 0 and must land in bd's actual nibble position.
func bdShift(global int) uint8 { return uint8(3 - global&3) }

func doCRAND(cx *Context, insn uint32)  { crLogical(cx, "crand", insn, x86asm.AND, false, x86asm.CCNE) }
func doCREQV(cx *Context, insn uint32)  { crLogical(cx, "creqv", insn, x86asm.XOR, true, x86asm.CCNE) }
func doCRNAND(cx *Context, insn uint32) { crLogical(cx, "crnand", insn, x86asm.AND, true, x86asm.CCNE) }
func doCROR(cx *Context, insn uint32)   { crLogical(cx, "cror", insn, x86asm.OR, false, x86asm.CCNE) }
func doCRXOR(cx *Context, insn uint32)  { crLogical(cx, "crxor", insn, x86asm.XOR, false, x86asm.CCNE) }

// ANDC/ORC read $bb complemented, achieved by flipping the SETcc condition
// used for bb's scratch load (CCE instead of CCNE), matching the original's
// "x86_set_reg(...,X86_CC_Z,...)" for these two. NOR reads bb as is and
// inverts the OR result.
func doCRANDC(cx *Context, insn uint32) { crLogical(cx, "crandc", insn, x86asm.AND, false, x86asm.CCE) }
func doCRORC(cx *Context, insn uint32)  { crLogical(cx, "crorc", insn, x86asm.OR, false, x86asm.CCE) }
func doCRNOR(cx *Context, insn uint32)  { crLogical(cx, "crnor", insn, x86asm.OR, true, x86asm.CCNE) }

// MCRF copies one CR field byte to another.
func doMCRF(cx *Context, insn uint32) {
	rd := int(bits(insn, 23, 25))
	rs := int(bits(insn, 18, 20))
	cx.Regs.StartSequence("mcrf")
	t0 := cx.Regs.GetTmp()
	cx.IR.RequireFlags(rs)

	op := cx.IR.InsnOutput(16, "mcrf")
	op.Append(x86asm.MovRegMembase(t0, CPUBaseReg, crOffset(rs), 1))
	op.Append(x86asm.MovMembaseReg(CPUBaseReg, crOffset(rd), t0, 1))
	cx.Regs.CloseSequence()
}

// MFCR packs all eight CR field nibbles into one GPR, MSB field first.
func doMFCR(cx *Context, insn uint32) {
	rd := int(bits(insn, 21, 25))
	cx.Regs.StartSequence("mfcr")
	hrd := cx.Regs.Alloc(rd)
	t0 := cx.Regs.GetTmp()
	for i := 0; i < 8; i++ {
		cx.IR.RequireFlags(i)
	}

	op := cx.IR.InsnOutput(256, "mfcr")
	var code []byte
	code = append(code, x86asm.AluRegReg(x86asm.XOR, hrd, hrd)...)
	for i := 0; i < 8; i++ {
		code = append(code, x86asm.MovRegMembase(t0, CPUBaseReg, crOffset(i), 4)...)
		code = append(code, x86asm.AluRegImm(x86asm.AND, t0, 0x0f)...)
		code = append(code, x86asm.ShiftRegImm(x86asm.SHL, hrd, 4)...)
		code = append(code, x86asm.AluRegReg(x86asm.OR, hrd, t0)...)
	}
	op.Append(code)

	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

func doMFMSR(cx *Context, insn uint32) {
	rd := int(bits(insn, 21, 25))
	cx.Regs.StartSequence("mfmsr")
	hrd := cx.Regs.Alloc(rd)
	op := cx.IR.InsnOutput(8, "mfmsr")
	op.Append(x86asm.MovRegMembase(hrd, CPUBaseReg, msrOffset(), 4))
	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

// MFSR reads segment register sr (0-15) — sr is a small fixed array
// indexed by an immediate field, so the byte offset is computed at
// emit time rather than via indexed addressing.
func doMFSR(cx *Context, insn uint32) {
	rd := int(bits(insn, 21, 25))
	sr := int(bits(insn, 16, 19))
	cx.Regs.StartSequence("mfsr")
	hrd := cx.Regs.Alloc(rd)
	op := cx.IR.InsnOutput(8, "mfsr")
	op.Append(x86asm.MovRegMembase(hrd, CPUBaseReg, srOffset(sr), 4))
	cx.IR.StoreGpr(rd, hrd)
	cx.Regs.CloseSequence()
}

// MTCRF scatters rs's nibbles back into CR fields selected by the 8-bit
// crm mask, one field per set bit.
func doMTCRF(cx *Context, insn uint32) {
	rs := int(bits(insn, 21, 25))
	crm := bits(insn, 12, 19)
	cx.Regs.StartSequence("mtcrf")
	hrs := cx.Regs.Alloc(rs)
	t0 := cx.Regs.GetTmp()
	cx.IR.LoadGpr(hrs, rs)

	op := cx.IR.InsnOutput(256, "mtcrf")
	var code []byte
	for i := 0; i < 8; i++ {
		if crm&(1<<(7-i)) == 0 {
			continue
		}
		code = append(code, x86asm.MovRegReg(t0, hrs, 4)...)
		if i != 7 {
			code = append(code, x86asm.ShiftRegImm(x86asm.SHR, t0, uint8(28-(i<<2)))...)
		}
		code = append(code, x86asm.AluRegImm(x86asm.AND, t0, 0x0f)...)
		code = append(code, x86asm.MovMembaseReg(CPUBaseReg, crOffset(i), t0, 1)...)
	}
	op.Append(code)

	cx.IR.TrashFlags(0)
	cx.Regs.CloseSequence()
}
