package ir

import "github.com/rcornwell/ppc32jit/internal/x86asm"

// emitCRUpdate builds the host code sequence that captures EFLAGS and
// stores the four-bit CR value for field into the CPU struct (spec.md
// 4.4). It always clobbers EAX; the dedicated tmp register (x86 EBX,
// never allocated by the register map, internal/regmap.GetTmp) holds
// the working index/result byte so no live guest-GPR binding is
// disturbed.
func emitCRUpdate(field int, signed bool) []byte {
	const tmp = x86asm.EBX
	var out []byte
	out = append(out, x86asm.Lahf()...)
	out = append(out, x86asm.XchgAhAl()...)
	out = append(out, x86asm.MovRegReg(tmp, x86asm.EAX, 4)...)

	if signed {
		out = append(out, x86asm.SetCC(x86asm.EAX, x86asm.CCO)...)
		out = append(out, x86asm.AluRegImm(x86asm.AND, tmp, int32(0xff&^ofBit))...)
		out = append(out, x86asm.AluRegImm(x86asm.AND, x86asm.EAX, 0x1)...)
		out = append(out, x86asm.ShiftRegImm(x86asm.SHL, x86asm.EAX, 1)...)
		out = append(out, x86asm.AluRegReg(x86asm.OR, tmp, x86asm.EAX)...)
		out = append(out, x86asm.MovRegMemAbsIndexedByte(tmp, tableAddr(&signedCRTable), tmp)...)
	} else {
		out = append(out, x86asm.AluRegImm(x86asm.AND, tmp, 0xff)...)
		out = append(out, x86asm.MovRegMemAbsIndexedByte(tmp, tableAddr(&unsignedCRTable), tmp)...)
	}

	out = append(out, x86asm.MovMembaseReg(CPUBaseReg, crOffset(field), tmp, 1)...)
	return out
}
