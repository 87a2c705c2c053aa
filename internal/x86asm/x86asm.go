/*
ppc32jit - minimal x86-32 host-code encoder.

This is the Go analogue of dynamips' x86-codegen.h macros
(x86_mov_reg_membase, x86_alu_reg_imm, x86_branch8, ...), reimplemented
as functions that return the encoded bytes instead of macros that
write through a cursor pointer. Only the instruction forms actually
used by the emitters in _examples/original_source/stable/ppc32_x86_trans.c
are implemented — this is not a general assembler.
*/
package x86asm

// Host general-purpose register numbers, matching the x86 ModRM
// encoding (and dynamips' X86_EAX..X86_EDI constants).
const (
	EAX = 0
	ECX = 1
	EDX = 2
	EBX = 3
	ESP = 4
	EBP = 5
	ESI = 6
	EDI = 7
)

// ALU operation selectors for AluRegReg/AluRegImm/AluRegMembase,
// matching the x86 opcode-extension group for ADD/OR/ADC/SBB/AND/
// SUB/XOR/CMP.
const (
	ADD = 0
	OR  = 1
	ADC = 2
	SBB = 3
	AND = 4
	SUB = 5
	XOR = 6
	CMP = 7
)

// Shift operation selectors for ShiftRegImm/ShiftRegReg (ROL/ROR/...
// SHL/SHR/SAR), matching the x86 shift group extension.
const (
	ROL = 0
	ROR = 1
	SHL = 4
	SHR = 5
	SAR = 7
)

// Condition codes for Jcc, matching x86 Jcc tttn nibble.
const (
	CCO  = 0x0
	CCNO = 0x1
	CCB  = 0x2 // CF=1 (unsigned <)
	CCAE = 0x3 // CF=0 (unsigned >=)
	CCE  = 0x4
	CCNE = 0x5
	CCBE = 0x6 // unsigned <=
	CCA  = 0x7 // unsigned >
	CCS  = 0x8
	CCNS = 0x9
	CCP  = 0xa
	CCNP = 0xb
	CCL  = 0xc // signed <
	CCGE = 0xd // signed >=
	CCLE = 0xe // signed <=
	CCG  = 0xf // signed >
)

func modrm(mod, reg, rm int) byte { return byte(mod<<6 | (reg&7)<<3 | (rm & 7)) }

func le32(v int32) []byte {
	u := uint32(v)
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

// needsSIB reports whether encoding [rm] or [rm+disp] requires a SIB
// byte; true only for ESP, which cannot be the lone base in ModRM.
func needsSIB(rm int) bool { return rm&7 == ESP }

func membase(reg, base, disp int) []byte {
	var out []byte
	switch {
	case disp == 0 && base&7 != EBP:
		out = append(out, modrm(0, reg, base))
	case disp >= -128 && disp <= 127:
		out = append(out, modrm(1, reg, base), byte(int8(disp)))
	default:
		out = append(out, modrm(2, reg, base))
		out = append(out, le32(int32(disp))...)
	}
	if needsSIB(base) {
		out = append(out, 0x24) // SIB: scale=0,index=none,base=ESP
	}
	return out
}

// MovRegMembase: reg <- [base+disp], width in {1,2,4}.
func MovRegMembase(reg, base, disp, width int) []byte {
	var out []byte
	switch width {
	case 1:
		out = append(out, 0x8a)
	case 2:
		out = append(out, 0x66, 0x8b)
	default:
		out = append(out, 0x8b)
	}
	return append(out, membase(reg, base, disp)...)
}

// MovMembaseReg: [base+disp] <- reg.
func MovMembaseReg(base, disp, reg, width int) []byte {
	var out []byte
	switch width {
	case 1:
		out = append(out, 0x88)
	case 2:
		out = append(out, 0x66, 0x89)
	default:
		out = append(out, 0x89)
	}
	return append(out, membase(reg, base, disp)...)
}

func memindex(reg, base, disp, index, scale int) []byte {
	var out []byte
	scaleBits := map[int]byte{1: 0, 2: 1, 4: 2, 8: 3}[scale]
	sib := scaleBits<<6 | byte(index&7)<<3 | byte(base&7)
	switch {
	case disp == 0 && base&7 != EBP:
		out = append(out, modrm(0, reg, ESP), sib)
	case disp >= -128 && disp <= 127:
		out = append(out, modrm(1, reg, ESP), sib, byte(int8(disp)))
	default:
		out = append(out, modrm(2, reg, ESP), sib)
		out = append(out, le32(int32(disp))...)
	}
	return out
}

// MovRegMemindex: reg <- [base + index*scale + disp].
func MovRegMemindex(reg, base, disp, index, scale, width int) []byte {
	var out []byte
	switch width {
	case 1:
		out = append(out, 0x8a)
	case 2:
		out = append(out, 0x66, 0x8b)
	default:
		out = append(out, 0x8b)
	}
	return append(out, memindex(reg, base, disp, index, scale)...)
}

// MovMemindexReg: [base + index*scale + disp] <- reg.
func MovMemindexReg(base, disp, index, scale, reg, width int) []byte {
	var out []byte
	switch width {
	case 1:
		out = append(out, 0x88)
	case 2:
		out = append(out, 0x66, 0x89)
	default:
		out = append(out, 0x89)
	}
	return append(out, memindex(reg, base, disp, index, scale)...)
}

// MovRegReg: dst <- src.
func MovRegReg(dst, src, width int) []byte {
	if width == 2 {
		return []byte{0x66, 0x89, modrm(3, src, dst)}
	}
	return []byte{0x89, modrm(3, src, dst)}
}

// MovRegImm32: reg <- imm32.
func MovRegImm32(reg int, imm int32) []byte {
	out := []byte{byte(0xb8 + (reg & 7))}
	return append(out, le32(imm)...)
}

// ClearReg: reg <- 0, via XOR reg,reg (what x86_clear_reg expands to).
func ClearReg(reg int) []byte { return AluRegReg(XOR, reg, reg) }

// AluRegReg: dst <- dst OP src.
func AluRegReg(op, dst, src int) []byte {
	return []byte{byte(op<<3 | 0x01), modrm(3, src, dst)}
}

// AluRegMembase: dst <- dst OP [base+disp].
func AluRegMembase(op, dst, base, disp int) []byte {
	out := []byte{byte(op<<3 | 0x03)}
	return append(out, membase(dst, base, disp)...)
}

// AluMembaseReg: [base+disp] <- [base+disp] OP src.
func AluMembaseReg(op, base, disp, src int) []byte {
	out := []byte{byte(op<<3 | 0x01)}
	return append(out, membase(src, base, disp)...)
}

// MovMembaseImm: [base+disp] <- imm32 (C7 /0), used where the caller
// cannot spare a scratch register to hold the immediate first.
func MovMembaseImm(base, disp int, imm int32) []byte {
	out := []byte{0xc7}
	out = append(out, membase(0, base, disp)...)
	return append(out, le32(imm)...)
}

// AluMembaseImm: [base+disp] <- [base+disp] OP imm32.
func AluMembaseImm(op, base, disp int, imm int32) []byte {
	out := []byte{0x81}
	out = append(out, membase(op, base, disp)...)
	return append(out, le32(imm)...)
}

// AluRegImm: dst <- dst OP imm32 (always encoded long form for
// simplicity; real x86-codegen.h prefers imm8 sign-extended forms,
// which is a size optimization this encoder does not need to match
// byte-for-byte per spec.md Testable Property 1 — determinism only
// requires the same inputs produce the same outputs, not parity with
// the original's byte stream).
func AluRegImm(op, dst int, imm int32) []byte {
	out := []byte{0x81, modrm(3, op, dst)}
	return append(out, le32(imm)...)
}

// ShiftRegImm: reg <- reg SHIFTOP imm8.
func ShiftRegImm(op, reg int, imm uint8) []byte {
	if imm == 1 {
		return []byte{0xd1, modrm(3, op, reg)}
	}
	return []byte{0xc1, modrm(3, op, reg), imm}
}

// ShiftRegReg: reg <- reg SHIFTOP CL.
func ShiftRegReg(op, reg int) []byte {
	return []byte{0xd3, modrm(3, op, reg)}
}

// CmpRegImm: compare reg against imm32, set flags.
func CmpRegImm(reg int, imm int32) []byte { return AluRegImm(CMP, reg, imm) }

// TestRegImm: test reg, imm32 (AND, discard result, set flags).
func TestRegImm(reg int, imm int32) []byte {
	out := []byte{0xf7, modrm(3, 0, reg)}
	return append(out, le32(imm)...)
}

// TestRegReg: test dst, src (AND, discard result, set flags).
func TestRegReg(dst, src int) []byte {
	return []byte{0x85, modrm(3, src, dst)}
}

// TestMembaseImm: test [base+disp], imm32 (AND, discard result, set flags).
func TestMembaseImm(base, disp int, imm int32) []byte {
	out := []byte{0xf7}
	out = append(out, membase(0, base, disp)...)
	return append(out, le32(imm)...)
}

// Bswap: byte-swap reg (PPC is big-endian, x86 host is little-endian).
func Bswap(reg int) []byte { return []byte{0x0f, byte(0xc8 + (reg & 7))} }

// XchgAhAl swaps AH/AL after LAHF, matching x86_xchg_ah_al.
func XchgAhAl() []byte { return []byte{0x86, 0xe0} }

// Lahf: AH <- flags.
func Lahf() []byte { return []byte{0x9f} }

// Pushfd/Popfd.
func Pushfd() []byte { return []byte{0x9c} }
func Popfd() []byte  { return []byte{0x9d} }

// CallReg: call through a register.
func CallReg(reg int) []byte { return []byte{0xff, modrm(3, 2, reg)} }

// CallMembase: call through [base+disp] (a C function pointer field).
func CallMembase(base, disp int) []byte {
	out := []byte{0xff}
	return append(out, membase(2, base, disp)...)
}

// Ret.
func Ret() []byte { return []byte{0xc3} }

// Nop.
func Nop() []byte { return []byte{0x90} }

// Cdq: sign-extend EAX into EDX:EAX, needed before IDIV.
func Cdq() []byte { return []byte{0x99} }

// Mul/Imul/Div/Idiv: EDX:EAX <- EAX {op} reg (F7 /4.../7 group).
func Mul(reg int) []byte  { return []byte{0xf7, modrm(3, 4, reg)} }
func Imul(reg int) []byte { return []byte{0xf7, modrm(3, 5, reg)} }
func Div(reg int) []byte  { return []byte{0xf7, modrm(3, 6, reg)} }
func Idiv(reg int) []byte { return []byte{0xf7, modrm(3, 7, reg)} }

// SetCC: reg8 <- (condition cc true) ? 1 : 0. Only the low byte of reg
// is written; callers that need a clean 32-bit value AND it with 1.
func SetCC(reg, cc int) []byte {
	return []byte{0x0f, byte(0x90 + cc), modrm(3, 0, reg)}
}

// SetCCMembase: [base+disp] <- (condition cc true) ? 1 : 0.
func SetCCMembase(cc, base, disp int) []byte {
	out := []byte{0x0f, byte(0x90 + cc)}
	return append(out, membase(0, base, disp)...)
}

// MovRegMemAbsIndexedByte: reg8 <- [tableAddr + index] (disp32 base-
// less SIB addressing, scale 1). Used for the CR-update table lookup
// (spec.md 4.4): no base register is needed because the table's
// address is a fixed link-time constant from the emitter's point of
// view.
func MovRegMemAbsIndexedByte(reg int, tableAddr uint32, index int) []byte {
	out := []byte{0x8a, modrm(0, reg, ESP), byte(0<<6 | (index&7)<<3 | 5)}
	return append(out, le32(int32(tableAddr))...)
}

// ImulRegRegImm32: dst <- src * imm32.
func ImulRegRegImm32(dst, src int, imm int32) []byte {
	out := []byte{0x69, modrm(3, dst, src)}
	return append(out, le32(imm)...)
}

// ImulRegReg: dst <- dst * src (two-operand IMUL, 0F AF).
func ImulRegReg(dst, src int) []byte {
	return []byte{0x0f, 0xaf, modrm(3, dst, src)}
}

// NegReg: reg <- -reg.
func NegReg(reg int) []byte { return []byte{0xf7, modrm(3, 3, reg)} }

// DecMembase: [base+disp] -= 1 (FF /1).
func DecMembase(base, disp int) []byte {
	out := []byte{0xff}
	return append(out, membase(1, base, disp)...)
}

// NotReg: reg <- ^reg.
func NotReg(reg int) []byte { return []byte{0xf7, modrm(3, 2, reg)} }

// Jmp8Placeholder/Jmp32Placeholder/Jcc8Placeholder/Jcc32Placeholder
// emit a jump with a zeroed displacement and return (encoded bytes,
// offset within those bytes of the displacement field), so a caller
// holding the final buffer position can patch it once the target is
// known — exactly the two-phase "record a patch, then resolve it"
// split in spec.md 4.9.

func Jmp8Placeholder() (code []byte, dispOff int) {
	return []byte{0xeb, 0}, 1
}

func Jmp32Placeholder() (code []byte, dispOff int) {
	out := append([]byte{0xe9}, le32(0)...)
	return out, 1
}

func Jcc8Placeholder(cc int) (code []byte, dispOff int) {
	return []byte{byte(0x70 + cc), 0}, 1
}

func Jcc32Placeholder(cc int) (code []byte, dispOff int) {
	out := append([]byte{0x0f, byte(0x80 + cc)}, le32(0)...)
	return out, 2
}

// CallPlaceholder: call rel32, displacement patched later (used for
// calls to host functions whose address is only known as an offset,
// e.g. a call into Go-land via cgo-free function-pointer table — in
// practice the emitters here always use CallMembase/CallReg instead,
// this is kept for parity with ppc32_emit_c_call's rel32 call form).
func CallPlaceholder() (code []byte, dispOff int) {
	out := append([]byte{0xe8}, le32(0)...)
	return out, 1
}

// PatchRel32 writes the 4-byte little-endian relative displacement
// computed by the caller (target - siteEnd) into buf at dispOff.
func PatchRel32(buf []byte, dispOff int, rel int32) {
	u := uint32(rel)
	buf[dispOff] = byte(u)
	buf[dispOff+1] = byte(u >> 8)
	buf[dispOff+2] = byte(u >> 16)
	buf[dispOff+3] = byte(u >> 24)
}

// PatchRel8 writes a 1-byte relative displacement; it is the caller's
// responsibility to ensure it fits in int8 range.
func PatchRel8(buf []byte, dispOff int, rel int8) {
	buf[dispOff] = byte(rel)
}
