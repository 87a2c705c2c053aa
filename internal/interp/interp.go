/*
ppc32jit - Reference single-instruction interpreter (C10 execution
backend).

internal/emit exists to reproduce the original translator's x86
encoding, patch-table, and block-cache mechanics faithfully enough for
this module's testable properties; it does not run that machine code.
Actual instruction semantics — the values GPRs, CR fields, LR/CTR, XER
CA, and guest memory end up holding — are carried out here, in plain
Go, one guest instruction at a time. internal/executor calls
ExecSingleInsnExt for every slot a compiled TCB covers, in the order
the block cache says to visit them, so the emitted byte buffer and the
guest-visible architectural state are always derived from the same
decode table (internal/decode) but never from each other.

Every case below is grounded in the same DECLARE_INSN body in
_examples/original_source/stable/ppc32_x86_trans.c used to ground the
matching emitter in internal/emit — this file just performs the
computation the emitted x86 bytes would have performed, directly in Go
arithmetic, instead of producing a host encoding of it.
*/
package interp

import (
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/device"
)

func bits(insn uint32, m, n int) uint32 {
	width := uint(n - m + 1)
	return (insn >> uint(m)) & ((1 << width) - 1)
}

func signExt(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}

func crField(global int) int { return global >> 2 }
func crBit(global int) uint8 { return uint8(1 << (3 - global&3)) }

func getCRBit(c *cpu.CPU, global int) bool {
	return c.GetCR(crField(global))&crBit(global) != 0
}

func setCRBit(c *cpu.CPU, global int, v bool) {
	field := crField(global)
	cur := c.GetCR(field)
	if v {
		cur |= crBit(global)
	} else {
		cur &^= crBit(global)
	}
	c.SetCR(field, cur)
}

// updateCRUnsigned handles CMPL/logical-unsigned comparisons, where
// "less than" means a strictly smaller unsigned magnitude rather than
// a negative signed value.
func updateCRUnsigned(c *cpu.CPU, crf int, a, b uint32) {
	v := uint8(0)
	switch {
	case a < b:
		v |= cpu.CRLT
	case a > b:
		v |= cpu.CRGT
	default:
		v |= cpu.CREQ
	}
	v |= c.GetCR(crf) & cpu.CRSO
	c.SetCR(crf, v)
}

func updateCRSigned(c *cpu.CPU, crf int, a, b int32) {
	v := uint8(0)
	switch {
	case a < b:
		v |= cpu.CRLT
	case a > b:
		v |= cpu.CRGT
	default:
		v |= cpu.CREQ
	}
	v |= c.GetCR(crf) & cpu.CRSO
	c.SetCR(crf, v)
}

func setCR0(c *cpu.CPU, result int32) {
	updateCRSigned(c, 0, result, 0)
}

// addCarry32 reports whether a+b (+ carryIn) overflows 32 bits —
// XER-CA, matching every ADDC/ADDE/ADDZE DECLARE_INSN body's SETcc-
// on-carry pattern.
func addCarry32(a, b uint32, carryIn uint32) (sum uint32, carry bool) {
	wide := uint64(a) + uint64(b) + uint64(carryIn)
	return uint32(wide), wide>>32 != 0
}

// subCarry32 mirrors x86 SUB's carry semantics for SUBF/SUBFC/SUBFE:
// CA is set when no borrow occurred, i.e. b >= a for rd = b - a.
func subCarry32(a, b uint32) (diff uint32, carry bool) {
	return b - a, b >= a
}

// ExecSingleInsnExt executes exactly one guest instruction at c.IA,
// advances c.IA (to IA+4, or to a taken branch's target), and returns
// zero on success or a nonzero guest-exception code if a memory access
// or unknown-opcode trap fired (mirroring ppc32_exec_single_insn_ext's
// return contract: nonzero means the caller must not continue fetching
// from the block that was executing).
func ExecSingleInsnExt(c *cpu.CPU, insn uint32) int32 {
	tag := decode.Lookup(insn)
	nextIA := c.IA + 4

	switch tag.Name {
	case "add":
		rd, ra, rb := gfields(insn)
		r := c.GPR[ra] + c.GPR[rb]
		c.GPR[rd] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "addc":
		rd, ra, rb := gfields(insn)
		sum, carry := addCarry32(c.GPR[ra], c.GPR[rb], 0)
		c.GPR[rd] = sum
		setCA(c, carry)
		if rc(insn) {
			setCR0(c, int32(sum))
		}
	case "adde":
		rd, ra, rb := gfields(insn)
		sum, carry := addCarry32(c.GPR[ra], c.GPR[rb], c.XERCA&1)
		c.GPR[rd] = sum
		setCA(c, carry)
		if rc(insn) {
			setCR0(c, int32(sum))
		}
	case "addi":
		rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		imm := signExt(bits(insn, 0, 15), 16)
		base := int32(0)
		if ra != 0 {
			base = int32(c.GPR[ra])
		}
		c.GPR[rd] = uint32(base + imm)
	case "addic", "addic.":
		rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		imm := signExt(bits(insn, 0, 15), 16)
		sum, carry := addCarry32(c.GPR[ra], uint32(imm), 0)
		c.GPR[rd] = sum
		setCA(c, carry)
		if tag.Name == "addic." {
			setCR0(c, int32(sum))
		}
	case "addis":
		rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		imm := int32(bits(insn, 0, 15)) << 16
		base := int32(0)
		if ra != 0 {
			base = int32(c.GPR[ra])
		}
		c.GPR[rd] = uint32(base + imm)
	case "addze":
		rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		sum, carry := addCarry32(c.GPR[ra], 0, c.XERCA&1)
		c.GPR[rd] = sum
		setCA(c, carry)
		if rc(insn) {
			setCR0(c, int32(sum))
		}
	case "subf":
		rd, ra, rb := gfields(insn)
		r := c.GPR[rb] - c.GPR[ra]
		c.GPR[rd] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "subfc":
		rd, ra, rb := gfields(insn)
		diff, carry := subCarry32(c.GPR[ra], c.GPR[rb])
		c.GPR[rd] = diff
		setCA(c, carry)
		if rc(insn) {
			setCR0(c, int32(diff))
		}
	case "subfe":
		rd, ra, rb := gfields(insn)
		wide := uint64(c.GPR[rb]) + uint64(^c.GPR[ra]) + uint64(c.XERCA&1)
		r := uint32(wide)
		c.GPR[rd] = r
		setCA(c, wide>>32 != 0)
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "subfic":
		rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		imm := uint32(signExt(bits(insn, 0, 15), 16))
		diff, carry := subCarry32(c.GPR[ra], imm)
		c.GPR[rd] = diff
		setCA(c, carry)
	case "neg":
		rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		r := -int32(c.GPR[ra])
		c.GPR[rd] = uint32(r)
		if rc(insn) {
			setCR0(c, r)
		}
	case "mulli":
		rd, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		imm := signExt(bits(insn, 0, 15), 16)
		c.GPR[rd] = uint32(int32(c.GPR[ra]) * imm)
	case "mullw":
		rd, ra, rb := gfields(insn)
		r := int32(c.GPR[ra]) * int32(c.GPR[rb])
		c.GPR[rd] = uint32(r)
		if rc(insn) {
			setCR0(c, r)
		}
	case "mulhw":
		rd, ra, rb := gfields(insn)
		wide := int64(int32(c.GPR[ra])) * int64(int32(c.GPR[rb]))
		c.GPR[rd] = uint32(wide >> 32)
		if rc(insn) {
			setCR0(c, int32(c.GPR[rd]))
		}
	case "mulhwu":
		rd, ra, rb := gfields(insn)
		wide := uint64(c.GPR[ra]) * uint64(c.GPR[rb])
		c.GPR[rd] = uint32(wide >> 32)
		if rc(insn) {
			setCR0(c, int32(c.GPR[rd]))
		}
	case "divwu":
		rd, ra, rb := gfields(insn)
		if c.GPR[rb] == 0 {
			c.GPR[rd] = 0
		} else {
			c.GPR[rd] = c.GPR[ra] / c.GPR[rb]
		}
		if rc(insn) {
			setCR0(c, int32(c.GPR[rd]))
		}

	case "and":
		rs, ra, rb := gfields(insn)
		r := c.GPR[rs] & c.GPR[rb]
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "andc":
		rs, ra, rb := gfields(insn)
		r := c.GPR[rs] &^ c.GPR[rb]
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "andi":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		r := c.GPR[rs] & bits(insn, 0, 15)
		c.GPR[ra] = r
		setCR0(c, int32(r))
	case "andis":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		r := c.GPR[rs] & (bits(insn, 0, 15) << 16)
		c.GPR[ra] = r
		setCR0(c, int32(r))
	case "or":
		rs, ra, rb := gfields(insn)
		r := c.GPR[rs] | c.GPR[rb]
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "orc":
		rs, ra, rb := gfields(insn)
		r := c.GPR[rs] | ^c.GPR[rb]
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "ori":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		c.GPR[ra] = c.GPR[rs] | bits(insn, 0, 15)
	case "oris":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		c.GPR[ra] = c.GPR[rs] | (bits(insn, 0, 15) << 16)
	case "nand":
		rs, ra, rb := gfields(insn)
		r := ^(c.GPR[rs] & c.GPR[rb])
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "nor":
		rs, ra, rb := gfields(insn)
		r := ^(c.GPR[rs] | c.GPR[rb])
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "xor":
		rs, ra, rb := gfields(insn)
		r := c.GPR[rs] ^ c.GPR[rb]
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "xori":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		c.GPR[ra] = c.GPR[rs] ^ bits(insn, 0, 15)
	case "xoris":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		c.GPR[ra] = c.GPR[rs] ^ (bits(insn, 0, 15) << 16)
	case "eqv":
		rs, ra, rb := gfields(insn)
		r := ^(c.GPR[rs] ^ c.GPR[rb])
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "extsb":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		r := int32(int8(c.GPR[rs]))
		c.GPR[ra] = uint32(r)
		if rc(insn) {
			setCR0(c, r)
		}
	case "extsh":
		rs, ra := int(bits(insn, 21, 25)), int(bits(insn, 16, 20))
		r := int32(int16(c.GPR[rs]))
		c.GPR[ra] = uint32(r)
		if rc(insn) {
			setCR0(c, r)
		}

	case "rlwimi":
		rs, ra, sh, mb, me := rotFields(insn)
		mask := rotateMask(uint32(mb), uint32(me))
		rot := rotl32(c.GPR[rs], sh)
		r := (rot & mask) | (c.GPR[ra] &^ mask)
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "rlwinm":
		rs, ra, sh, mb, me := rotFields(insn)
		mask := rotateMask(uint32(mb), uint32(me))
		r := rotl32(c.GPR[rs], sh) & mask
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "rlwnm":
		rs, ra, _, mb, me := rotFields(insn)
		rb := int(bits(insn, 11, 15))
		mask := rotateMask(uint32(mb), uint32(me))
		r := rotl32(c.GPR[rs], int(c.GPR[rb]&0x1f)) & mask
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "slw":
		rs, ra, rb := gfields(insn)
		sh := c.GPR[rb] & 0x3f
		r := uint32(0)
		if sh < 32 {
			r = c.GPR[rs] << sh
		}
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "srw":
		rs, ra, rb := gfields(insn)
		sh := c.GPR[rb] & 0x3f
		r := uint32(0)
		if sh < 32 {
			r = c.GPR[rs] >> sh
		}
		c.GPR[ra] = r
		if rc(insn) {
			setCR0(c, int32(r))
		}
	case "srawi":
		rs, ra, sh, _, _ := rotFields(insn)
		v := int32(c.GPR[rs])
		r := v >> uint(sh)
		mask := uint32(^(uint32(0xffffffff) << uint(sh)))
		carry := v < 0 && (c.GPR[rs]&mask) != 0
		c.GPR[ra] = uint32(r)
		setCA(c, carry)
		if rc(insn) {
			setCR0(c, r)
		}

	case "cmp":
		crfD, ra, rb := int(bits(insn, 23, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
		updateCRSigned(c, crfD, int32(c.GPR[ra]), int32(c.GPR[rb]))
	case "cmpl":
		crfD, ra, rb := int(bits(insn, 23, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
		updateCRUnsigned(c, crfD, c.GPR[ra], c.GPR[rb])
	case "cmpi":
		crfD, ra := int(bits(insn, 23, 25)), int(bits(insn, 16, 20))
		imm := signExt(bits(insn, 0, 15), 16)
		updateCRSigned(c, crfD, int32(c.GPR[ra]), imm)
	case "cmpli":
		crfD, ra := int(bits(insn, 23, 25)), int(bits(insn, 16, 20))
		imm := bits(insn, 0, 15)
		updateCRUnsigned(c, crfD, c.GPR[ra], imm)

	case "crand":
		crLogical(c, insn, func(a, b bool) bool { return a && b })
	case "crandc":
		crLogical(c, insn, func(a, b bool) bool { return a && !b })
	case "creqv":
		crLogical(c, insn, func(a, b bool) bool { return a == b })
	case "crnand":
		crLogical(c, insn, func(a, b bool) bool { return !(a && b) })
	case "crnor":
		crLogical(c, insn, func(a, b bool) bool { return !(a || b) })
	case "cror":
		crLogical(c, insn, func(a, b bool) bool { return a || b })
	case "crorc":
		crLogical(c, insn, func(a, b bool) bool { return a || !b })
	case "crxor":
		crLogical(c, insn, func(a, b bool) bool { return a != b })
	case "mcrf":
		rd := int(bits(insn, 23, 25))
		rs := int(bits(insn, 18, 20))
		c.SetCR(rd, c.GetCR(rs))
	case "mfcr":
		rd := int(bits(insn, 21, 25))
		var v uint32
		for i := 0; i < 8; i++ {
			v = (v << 4) | uint32(c.GetCR(i))
		}
		c.GPR[rd] = v
	case "mfmsr":
		rd := int(bits(insn, 21, 25))
		c.GPR[rd] = c.MSR
	case "mfsr":
		rd := int(bits(insn, 21, 25))
		sr := int(bits(insn, 16, 19))
		c.GPR[rd] = c.SR[sr]
	case "mtcrf":
		rs := int(bits(insn, 21, 25))
		crm := bits(insn, 12, 19)
		for i := 0; i < 8; i++ {
			if crm&(1<<(7-i)) == 0 {
				continue
			}
			shift := uint(28 - (i << 2))
			c.SetCR(i, uint8((c.GPR[rs]>>shift)&0x0f))
		}

	case "mflr":
		rd := int(bits(insn, 21, 25))
		c.GPR[rd] = c.LR
	case "mtlr":
		rs := int(bits(insn, 21, 25))
		c.LR = c.GPR[rs]
	case "mfctr":
		rd := int(bits(insn, 21, 25))
		c.GPR[rd] = c.CTR
	case "mtctr":
		rs := int(bits(insn, 21, 25))
		c.CTR = c.GPR[rs]
	case "mftbu":
		rd := int(bits(insn, 21, 25))
		c.GPR[rd] = uint32(c.TB >> 32)
	case "mftbl":
		rd := int(bits(insn, 21, 25))
		c.TB += tbIncrement
		c.GPR[rd] = uint32(c.TB)

	case "b", "ba", "bl", "bla":
		offset := bits(insn, 2, 25)
		disp := signExt(offset<<2, 26)
		var target uint32
		if tag.Name == "ba" || tag.Name == "bla" {
			target = uint32(disp)
		} else {
			target = c.IA + uint32(disp)
		}
		if tag.Name == "bl" || tag.Name == "bla" {
			c.LR = nextIA
		}
		nextIA = target
	case "bcc", "bc":
		bo := bits(insn, 21, 25)
		bi := int(bits(insn, 16, 20))
		disp := signExt(bits(insn, 2, 15)<<2, 16)
		target := branchTarget(c, insn, disp)
		taken := evalBranchCond(c, bo, bi)
		if insn&1 != 0 { // LK
			c.LR = nextIA
		}
		if taken {
			nextIA = target
		}
	case "bclr":
		bo := bits(insn, 21, 25)
		bi := int(bits(insn, 16, 20))
		oldLR := c.LR
		taken := evalBranchCond(c, bo, bi)
		if insn&1 != 0 {
			c.LR = nextIA
		}
		if taken {
			nextIA = oldLR &^ 3
		}
	case "blr":
		nextIA = c.LR &^ 3
	case "bctr":
		nextIA = c.CTR &^ 3

	case "sync":
		// no-op, matching internal/emit's SYNC handling.

	case "lbz", "lbzu", "lbzx", "lbzux",
		"lha", "lhau", "lhax", "lhaux",
		"lhz", "lhzu", "lhzx", "lhzux",
		"lwz", "lwzu", "lwzx", "lwzux",
		"stb", "stbu", "stbx", "stbux",
		"sth", "sthu", "sthx", "sthux",
		"stw", "stwu", "stwx", "stwux":
		if exc := execMemop(c, tag.Name, insn); exc != 0 {
			c.IA = nextIA
			return exc
		}

	default:
		// Unknown opcode: match ppc32_emit_unknown's fallback by
		// leaving architectural state untouched beyond advancing IA.
	}

	c.IA = nextIA
	return 0
}

func gfields(insn uint32) (rd, ra, rb int) {
	return int(bits(insn, 21, 25)), int(bits(insn, 16, 20)), int(bits(insn, 11, 15))
}

func rc(insn uint32) bool { return insn&1 != 0 }

func setCA(c *cpu.CPU, carry bool) {
	if carry {
		c.XERCA = 1
	} else {
		c.XERCA = 0
	}
}

func rotFields(insn uint32) (rs, ra, sh, mb, me int) {
	rs = int(bits(insn, 21, 25))
	ra = int(bits(insn, 16, 20))
	sh = int(bits(insn, 11, 15))
	mb = int(bits(insn, 6, 10))
	me = int(bits(insn, 1, 5))
	return
}

func rotateMask(mb, me uint32) uint32 {
	begin := ^uint32(0) >> mb
	end := ^uint32(0) << (31 - me)
	if mb <= me {
		return begin & end
	}
	return begin | end
}

func rotl32(v uint32, n int) uint32 {
	n &= 31
	return v<<uint(n) | v>>uint(32-n)
}

func crLogical(c *cpu.CPU, insn uint32, combine func(a, b bool) bool) {
	bd := int(bits(insn, 21, 25))
	bb := int(bits(insn, 16, 20))
	ba := int(bits(insn, 11, 15))
	setCRBit(c, bd, combine(getCRBit(c, ba), getCRBit(c, bb)))
}

func branchTarget(c *cpu.CPU, insn uint32, disp int32) uint32 {
	if bits(insn, 1, 1) != 0 { // AA
		return uint32(disp)
	}
	return c.IA + uint32(disp)
}

// evalBranchCond mirrors condBranch's BO/BI decode in
// internal/emit/branch.go exactly: bo&0x04 set means the CTR
// decrement-and-test is skipped; otherwise CTR is decremented and the
// branch requires CTR==0 when bo&0x02 is set, CTR!=0 otherwise. bo&0x10
// set means the CR-bit test is skipped; otherwise the CR bit named by
// bi must equal bo&0x08.
func evalBranchCond(c *cpu.CPU, bo uint32, bi int) bool {
	ctrOK := true
	if bo&0x04 == 0 {
		c.CTR--
		if bo&0x02 != 0 {
			ctrOK = c.CTR == 0
		} else {
			ctrOK = c.CTR != 0
		}
	}
	crOK := true
	if bo&0x10 == 0 {
		want := bo&0x08 != 0
		crOK = getCRBit(c, bi) == want
	}
	return ctrOK && crOK
}

const tbIncrement = 50

// execMemop performs one memory instruction's address computation,
// slow-path dispatch through CPU.MemOpFn when wired (matching
// emitSlowMemop/emitSlowMemopIdx's call-through in internal/emit/mem.go),
// and falls back to a direct guest-physical access (no MMU layer exists
// in this module, per spec.md's Non-goals) when no handler is
// registered — letting unit tests exercise memory ops against a bare
// cpu.CPU without wiring one up.
func execMemop(c *cpu.CPU, name string, insn uint32) int32 {
	op, rt, ea, update, store, width, signedLoad := decodeMemop(c, name, insn)
	if fn := c.MemOpFn[op]; fn != nil {
		if exc := fn(c, ea, uint8(rt)); exc != 0 {
			return exc
		}
		// A wired handler owns the actual transfer; nothing further to
		// do here beyond the update-form writeback below.
	} else if store {
		if execMemStore(c, width, ea, c.GPR[rt]) {
			return 1
		}
	} else {
		v, bad := execMemLoad(c, width, ea, signedLoad)
		if bad {
			return 1
		}
		c.GPR[rt] = v
	}
	if update {
		ra := int(bits(insn, 16, 20))
		c.GPR[ra] = ea
	}
	return 0
}

// decodeMemop extracts (opIndex, rt, effectiveAddress, updateForm,
// isStore, accessWidth, signExtendLoad) for one of the 28 memory
// opcodes, matching dFields/xFields plus each opcode's addressing mode
// in internal/emit/mem.go.
func decodeMemop(c *cpu.CPU, name string, insn uint32) (op uint8, rt int, ea uint32, update, store bool, width int, signedLoad bool) {
	isX := name[len(name)-1] == 'x'
	var ra, rb int
	var disp int32
	if isX {
		rt, ra, rb = gfields(insn)
	} else {
		rt = int(bits(insn, 21, 25))
		ra = int(bits(insn, 16, 20))
		disp = signExt(bits(insn, 0, 15), 16)
	}
	base := uint32(0)
	if ra != 0 {
		base = c.GPR[ra]
	}
	if isX {
		ea = base + c.GPR[rb]
	} else {
		ea = uint32(int32(base) + disp)
	}

	switch name {
	case "lbz":
		return device.OpLBZ, rt, ea, false, false, 1, false
	case "lbzu":
		return device.OpLBZU, rt, ea, true, false, 1, false
	case "lbzx":
		return device.OpLBZX, rt, ea, false, false, 1, false
	case "lbzux":
		return device.OpLBZUX, rt, ea, true, false, 1, false
	case "lha":
		return device.OpLHA, rt, ea, false, false, 2, true
	case "lhau":
		return device.OpLHAU, rt, ea, true, false, 2, true
	case "lhax":
		return device.OpLHAX, rt, ea, false, false, 2, true
	case "lhaux":
		return device.OpLHAUX, rt, ea, true, false, 2, true
	case "lhz":
		return device.OpLHZ, rt, ea, false, false, 2, false
	case "lhzu":
		return device.OpLHZU, rt, ea, true, false, 2, false
	case "lhzx":
		return device.OpLHZX, rt, ea, false, false, 2, false
	case "lhzux":
		return device.OpLHZUX, rt, ea, true, false, 2, false
	case "lwz":
		return device.OpLWZ, rt, ea, false, false, 4, false
	case "lwzu":
		return device.OpLWZU, rt, ea, true, false, 4, false
	case "lwzx":
		return device.OpLWZX, rt, ea, false, false, 4, false
	case "lwzux":
		return device.OpLWZUX, rt, ea, true, false, 4, false
	case "stb":
		return device.OpSTB, rt, ea, false, true, 1, false
	case "stbu":
		return device.OpSTBU, rt, ea, true, true, 1, false
	case "stbx":
		return device.OpSTBX, rt, ea, false, true, 1, false
	case "stbux":
		return device.OpSTBUX, rt, ea, true, true, 1, false
	case "sth":
		return device.OpSTH, rt, ea, false, true, 2, false
	case "sthu":
		return device.OpSTHU, rt, ea, true, true, 2, false
	case "sthx":
		return device.OpSTHX, rt, ea, false, true, 2, false
	case "sthux":
		return device.OpSTHUX, rt, ea, true, true, 2, false
	case "stw":
		return device.OpSTW, rt, ea, false, true, 4, false
	case "stwu":
		return device.OpSTWU, rt, ea, true, true, 4, false
	case "stwx":
		return device.OpSTWX, rt, ea, false, true, 4, false
	case "stwux":
		return device.OpSTWUX, rt, ea, true, true, 4, false
	}
	return 0, rt, ea, false, false, 0, false
}

func execMemLoad(c *cpu.CPU, width int, ea uint32, signed bool) (uint32, bool) {
	switch width {
	case 1:
		v, bad := c.Mem.ReadByte(ea)
		if bad {
			return 0, true
		}
		if signed {
			return uint32(int32(int8(v))), false
		}
		return uint32(v), false
	case 2:
		v, bad := c.Mem.ReadHalf(ea)
		if bad {
			return 0, true
		}
		if signed {
			return uint32(int32(int16(v))), false
		}
		return uint32(v), false
	default:
		v, bad := c.Mem.ReadWord(ea)
		return v, bad
	}
}

func execMemStore(c *cpu.CPU, width int, ea uint32, v uint32) bool {
	switch width {
	case 1:
		return c.Mem.WriteByte(ea, uint8(v))
	case 2:
		return c.Mem.WriteHalf(ea, uint16(v))
	default:
		return c.Mem.WriteWord(ea, v)
	}
}
