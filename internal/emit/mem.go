package emit

import (
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/mts"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

// Memory opcode indices, matching device.MemOpFn's table (mirrored
// here so this package never has to import device just for constants
// the slow-path call already addresses by integer offset).
const (
	opLBZ = iota
	opLBZU
	opLBZX
	opLBZUX
	opLHZ
	opLHZU
	opLHZX
	opLHZUX
	opLHA
	opLHAU
	opLHAX
	opLHAUX
	opLWZ
	opLWZU
	opLWZX
	opLWZUX
	opSTB
	opSTBU
	opSTBX
	opSTBUX
	opSTH
	opSTHU
	opSTHX
	opSTHUX
	opSTW
	opSTWU
	opSTWX
	opSTWUX
)

func init() {
	decode.Register(0xfc000000, 0x88000000, "lbz", adaptCtx(doLBZFast))
	decode.Register(0xfc000000, 0x8c000000, "lbzu", adaptCtx(doLBZU))
	decode.Register(0xfc0007ff, 0x7c0000ae, "lbzx", adaptCtx(doLBZX))
	decode.Register(0xfc0007ff, 0x7c0000ee, "lbzux", adaptCtx(doLBZUX))

	decode.Register(0xfc000000, 0xa8000000, "lha", adaptCtx(doLHA))
	decode.Register(0xfc000000, 0xac000000, "lhau", adaptCtx(doLHAU))
	decode.Register(0xfc0007ff, 0x7c0002ae, "lhax", adaptCtx(doLHAX))
	decode.Register(0xfc0007ff, 0x7c0002ee, "lhaux", adaptCtx(doLHAUX))

	decode.Register(0xfc000000, 0xa0000000, "lhz", adaptCtx(doLHZ))
	decode.Register(0xfc000000, 0xa4000000, "lhzu", adaptCtx(doLHZU))
	decode.Register(0xfc0007ff, 0x7c00022e, "lhzx", adaptCtx(doLHZX))
	decode.Register(0xfc0007ff, 0x7c00026e, "lhzux", adaptCtx(doLHZUX))

	decode.Register(0xfc000000, 0x80000000, "lwz", adaptCtx(doLWZFast))
	decode.Register(0xfc000000, 0x84000000, "lwzu", adaptCtx(doLWZU))
	decode.Register(0xfc0007ff, 0x7c00002e, "lwzx", adaptCtx(doLWZX))
	decode.Register(0xfc0007ff, 0x7c00006e, "lwzux", adaptCtx(doLWZUX))

	decode.Register(0xfc000000, 0x98000000, "stb", adaptCtx(doSTBFast))
	decode.Register(0xfc000000, 0x9c000000, "stbu", adaptCtx(doSTBU))
	decode.Register(0xfc0007ff, 0x7c0001ae, "stbx", adaptCtx(doSTBX))
	decode.Register(0xfc0007ff, 0x7c0001ee, "stbux", adaptCtx(doSTBUX))

	decode.Register(0xfc000000, 0xb0000000, "sth", adaptCtx(doSTH))
	decode.Register(0xfc000000, 0xb4000000, "sthu", adaptCtx(doSTHU))
	decode.Register(0xfc0007ff, 0x7c00032e, "sthx", adaptCtx(doSTHX))
	decode.Register(0xfc0007ff, 0x7c00036e, "sthux", adaptCtx(doSTHUX))

	decode.Register(0xfc000000, 0x90000000, "stw", adaptCtx(doSTWFast))
	decode.Register(0xfc000000, 0x94000000, "stwu", adaptCtx(doSTWU))
	decode.Register(0xfc0007ff, 0x7c00012e, "stwx", adaptCtx(doSTWX))
	decode.Register(0xfc0007ff, 0x7c00016e, "stwux", adaptCtx(doSTWUX))
}

func dFields(insn uint32) (rt, ra int, disp int32) {
	return int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), signExt(bits(insn, 0, 15), 16)
}

func xFields(insn uint32) (rt, ra, rb int) {
	return int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
}

// emitSlowMemop ports ppc32_emit_memop: compute EA from base+disp
// (RA=0 means "no base" per PPC D-form, unless update is set, which
// is never legal with RA=0 to begin with but the original computes
// the add unconditionally in that case too), call the slow-path
// function pointer, and write the updated base back for update forms.
func emitSlowMemop(cx *Context, op int, base, target int, disp int32, update bool) {
	cx.Regs.AlterHostReg(x86asm.EDX)
	cx.Regs.AlterHostReg(x86asm.ECX)
	cx.Regs.AlterHostReg(x86asm.EAX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.ECX)
	cx.IR.AlterHostReg(x86asm.EAX)
	cx.Regs.StartSequence("memop")

	cx.IR.BranchTarget(cx.IA)
	cx.IR.EndOfBlock()

	out := cx.IR.InsnOutput(40, "memop")
	var code []byte
	code = append(code, x86asm.MovMembaseImm(CPUBaseReg, iaOffset(), int32(cx.IA))...)
	code = append(code, x86asm.MovRegImm32(x86asm.EDX, disp)...)
	if update || base != 0 {
		code = append(code, addGprImm(cx, x86asm.EDX, base)...)
	}
	if update {
		code = append(code, x86asm.MovRegReg(x86asm.ESI, x86asm.EDX, 4)...)
	}
	code = append(code, x86asm.MovRegImm32(x86asm.ECX, int32(target))...)
	code = append(code, x86asm.MovRegReg(x86asm.EAX, CPUBaseReg, 4)...)
	code = append(code, x86asm.CallMembase(CPUBaseReg, memOpFnOffset(op))...)
	if update {
		code = append(code, x86asm.MovMembaseReg(CPUBaseReg, gprOffset(base), x86asm.ESI, 4)...)
	}
	out.Append(code)
	cx.Regs.CloseSequence()
}

// emitSlowMemopIdx is emitSlowMemop's X-form (RB-indexed) twin.
func emitSlowMemopIdx(cx *Context, op int, ra, rb, target int, update bool) {
	cx.Regs.AlterHostReg(x86asm.EDX)
	cx.Regs.AlterHostReg(x86asm.ECX)
	cx.Regs.AlterHostReg(x86asm.EAX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.ECX)
	cx.IR.AlterHostReg(x86asm.EAX)
	cx.Regs.StartSequence("memop_idx")

	cx.IR.BranchTarget(cx.IA)
	cx.IR.EndOfBlock()

	out := cx.IR.InsnOutput(40, "memop_idx")
	var code []byte
	code = append(code, x86asm.MovMembaseImm(CPUBaseReg, iaOffset(), int32(cx.IA))...)
	code = append(code, x86asm.MovRegMembase(x86asm.EDX, CPUBaseReg, gprOffset(rb), 4)...)
	if update || ra != 0 {
		code = append(code, addGprImm(cx, x86asm.EDX, ra)...)
	}
	if update {
		code = append(code, x86asm.MovRegReg(x86asm.ESI, x86asm.EDX, 4)...)
	}
	code = append(code, x86asm.MovRegImm32(x86asm.ECX, int32(target))...)
	code = append(code, x86asm.MovRegReg(x86asm.EAX, CPUBaseReg, 4)...)
	code = append(code, x86asm.CallMembase(CPUBaseReg, memOpFnOffset(op))...)
	if update {
		code = append(code, x86asm.MovMembaseReg(CPUBaseReg, gprOffset(ra), x86asm.ESI, 4)...)
	}
	out.Append(code)
	cx.Regs.CloseSequence()
}

// addGprImm adds GPR[gpr] into reg, used only to fold base-register
// addressing into the scratch EA register (never aliases the register
// map, so it reads straight from the CPU struct rather than going
// through regmap.Alloc).
func addGprImm(cx *Context, reg, gpr int) []byte {
	return x86asm.AluRegMembase(x86asm.ADD, reg, CPUBaseReg, gprOffset(gpr))
}

// emitFastMemop ports ppc32_emit_memop_fast: compute EA into EBX, probe
// the D-cache MTS fast-path table, and either run op_handler inline
// against the cached host page or fall back to the slow call. Used
// only for the four opcodes the original selects a fast path for
// (non-update, non-indexed LBZ/LWZ/STB/STW).
func emitFastMemop(cx *Context, writeOp bool, op, base, target int, disp int32, handler func() []byte) {
	cx.Regs.AlterHostReg(x86asm.EBX)
	cx.Regs.AlterHostReg(x86asm.EAX)
	cx.Regs.AlterHostReg(x86asm.EDX)
	cx.Regs.AlterHostReg(x86asm.ECX)
	cx.IR.AlterHostReg(x86asm.EBX)
	cx.IR.AlterHostReg(x86asm.EAX)
	cx.IR.AlterHostReg(x86asm.EDX)
	cx.IR.AlterHostReg(x86asm.ECX)
	cx.Regs.StartSequence("memop_fast")

	cx.IR.BranchTarget(cx.IA)
	cx.IR.EndOfBlock()

	out := cx.IR.InsnOutput(96, "memop_fast")
	var code []byte
	if disp != 0 {
		code = append(code, x86asm.MovRegImm32(x86asm.EBX, disp)...)
		if base != 0 {
			code = append(code, addGprImm(cx, x86asm.EBX, base)...)
		}
	} else if base != 0 {
		code = append(code, x86asm.MovRegMembase(x86asm.EBX, CPUBaseReg, gprOffset(base), 4)...)
	} else {
		code = append(code, x86asm.MovRegImm32(x86asm.EBX, 0)...)
	}

	// EAX <- hashed MTS entry: ((ea >> HashShift) & HashMask) * EntrySize
	code = append(code, x86asm.MovRegReg(x86asm.EAX, x86asm.EBX, 4)...)
	code = append(code, x86asm.ShiftRegImm(x86asm.SHR, x86asm.EAX, mts.HashShift)...)
	code = append(code, x86asm.AluRegImm(x86asm.AND, x86asm.EAX, int32(mts.HashMask))...)
	code = append(code, x86asm.ImulRegRegImm32(x86asm.EAX, x86asm.EAX, int32(mts.EntrySize))...)
	code = append(code, x86asm.MovRegMembase(x86asm.EDX, CPUBaseReg, mtsOffset(mts.DCache), 4)...)
	code = append(code, x86asm.AluRegReg(x86asm.ADD, x86asm.EDX, x86asm.EAX)...)

	// ECX <- vpage(ea); compare against the cached entry's GVPA.
	code = append(code, x86asm.MovRegReg(x86asm.ECX, x86asm.EBX, 4)...)
	code = append(code, x86asm.AluRegImm(x86asm.AND, x86asm.ECX, int32(cpuMinPageMask()))...)
	code = append(code, x86asm.AluRegMembase(x86asm.CMP, x86asm.ECX, x86asm.EDX, mts.GVPAOffset)...)

	miss, missDispOff := x86asm.Jcc8Placeholder(x86asm.CCNE)
	miss1Off := len(code)
	miss1End := miss1Off + len(miss)
	code = append(code, miss...)

	var miss2Off, miss2End int
	haveTest2 := false
	if writeOp {
		code = append(code, x86asm.TestMembaseImm(x86asm.EDX, mts.FlagsOffset, int32(mts.FlagCOW|mts.FlagEXEC))...)
		miss2, _ := x86asm.Jcc8Placeholder(x86asm.CCNE)
		miss2Off = len(code)
		miss2End = miss2Off + len(miss2)
		code = append(code, miss2...)
		haveTest2 = true
	}

	code = append(code, x86asm.AluRegImm(x86asm.AND, x86asm.EBX, int32(cpuMinPageIMask()))...)
	code = append(code, x86asm.MovRegMembase(x86asm.EAX, x86asm.EDX, mts.HPAOffset, 4)...)
	code = append(code, handler()...)

	exitJmp, exitDispOff := x86asm.Jmp8Placeholder()
	exitOff := len(code)
	exitEnd := exitOff + len(exitJmp)
	code = append(code, exitJmp...)

	slowStart := len(code)
	x86asm.PatchRel8(code, miss1Off+missDispOff, int8(slowStart-miss1End))
	if haveTest2 {
		x86asm.PatchRel8(code, miss2Off+missDispOff, int8(slowStart-miss2End))
	}

	code = append(code, x86asm.MovRegImm32(x86asm.EDX, int32(cx.IA))...)
	code = append(code, x86asm.MovMembaseReg(CPUBaseReg, iaOffset(), x86asm.EDX, 4)...)
	code = append(code, x86asm.MovRegReg(x86asm.EDX, x86asm.EBX, 4)...)
	code = append(code, x86asm.MovRegImm32(x86asm.ECX, int32(target))...)
	code = append(code, x86asm.MovRegReg(x86asm.EAX, CPUBaseReg, 4)...)
	code = append(code, x86asm.CallMembase(CPUBaseReg, memOpFnOffset(op))...)

	exitPatchEnd := len(code)
	x86asm.PatchRel8(code, exitOff+exitDispOff, int8(exitPatchEnd-exitEnd))

	out.Append(code)
	cx.Regs.CloseSequence()
}

func cpuMinPageMask() uint32  { return cpu.MinPageMask }
func cpuMinPageIMask() uint32 { return cpu.MinPageIMask }

func doLBZFast(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitFastMemop(cx, false, opLBZ, ra, rt, disp, func() []byte {
		var code []byte
		code = append(code, x86asm.ClearReg(x86asm.ECX)...)
		code = append(code, x86asm.MovRegMemindex(x86asm.ECX, x86asm.EAX, 0, x86asm.EBX, 1, 1)...)
		code = append(code, x86asm.MovMembaseReg(CPUBaseReg, gprOffset(rt), x86asm.ECX, 4)...)
		return code
	})
}

func doLBZU(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opLBZU, ra, rt, disp, true)
}

func doLBZX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLBZX, ra, rb, rt, false)
}

func doLBZUX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLBZUX, ra, rb, rt, true)
}

func doLHA(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opLHA, ra, rt, disp, false)
}

func doLHAU(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opLHAU, ra, rt, disp, true)
}

func doLHAX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLHAX, ra, rb, rt, false)
}

func doLHAUX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLHAUX, ra, rb, rt, true)
}

func doLHZ(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opLHZ, ra, rt, disp, false)
}

func doLHZU(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opLHZU, ra, rt, disp, true)
}

func doLHZX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLHZX, ra, rb, rt, false)
}

func doLHZUX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLHZUX, ra, rb, rt, true)
}

func doLWZFast(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitFastMemop(cx, false, opLWZ, ra, rt, disp, func() []byte {
		var code []byte
		code = append(code, x86asm.MovRegMemindex(x86asm.EAX, x86asm.EAX, 0, x86asm.EBX, 1, 4)...)
		code = append(code, x86asm.Bswap(x86asm.EAX)...)
		code = append(code, x86asm.MovMembaseReg(CPUBaseReg, gprOffset(rt), x86asm.EAX, 4)...)
		return code
	})
}

func doLWZU(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opLWZU, ra, rt, disp, true)
}

func doLWZX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLWZX, ra, rb, rt, false)
}

func doLWZUX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opLWZUX, ra, rb, rt, true)
}

func doSTBFast(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitFastMemop(cx, true, opSTB, ra, rt, disp, func() []byte {
		var code []byte
		code = append(code, x86asm.MovRegMembase(x86asm.EDX, CPUBaseReg, gprOffset(rt), 4)...)
		code = append(code, x86asm.MovMemindexReg(x86asm.EAX, 0, x86asm.EBX, 1, x86asm.EDX, 1)...)
		return code
	})
}

func doSTBU(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opSTBU, ra, rt, disp, true)
}

func doSTBX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opSTBX, ra, rb, rt, false)
}

func doSTBUX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opSTBUX, ra, rb, rt, true)
}

func doSTH(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opSTH, ra, rt, disp, false)
}

func doSTHU(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opSTHU, ra, rt, disp, true)
}

func doSTHX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opSTHX, ra, rb, rt, false)
}

func doSTHUX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opSTHUX, ra, rb, rt, true)
}

func doSTWFast(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitFastMemop(cx, true, opSTW, ra, rt, disp, func() []byte {
		var code []byte
		code = append(code, x86asm.MovRegMembase(x86asm.EDX, CPUBaseReg, gprOffset(rt), 4)...)
		code = append(code, x86asm.Bswap(x86asm.EDX)...)
		code = append(code, x86asm.MovMemindexReg(x86asm.EAX, 0, x86asm.EBX, 1, x86asm.EDX, 4)...)
		return code
	})
}

func doSTWU(cx *Context, insn uint32) {
	rt, ra, disp := dFields(insn)
	emitSlowMemop(cx, opSTWU, ra, rt, disp, true)
}

func doSTWX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opSTWX, ra, rb, rt, false)
}

func doSTWUX(cx *Context, insn uint32) {
	rt, ra, rb := xFields(insn)
	emitSlowMemopIdx(cx, opSTWUX, ra, rb, rt, true)
}
