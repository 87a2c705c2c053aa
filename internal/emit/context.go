/*
ppc32jit - Instruction Emitter (C4) and Memory Fast-Path Emitter (C11).

One function per PPC opcode, ported opcode-by-opcode from the
DECLARE_INSN bodies in _examples/original_source/stable/ppc32_x86_trans.c,
registered into internal/decode at package init so internal/executor's
TCB-creation driver never needs to name an opcode directly. Field
extraction follows that file's own `bits(insn,m,n)` convention: an
(n-m+1)-bit field starting at LSB offset m (confirmed against its ADD
body, which reads rd/ra/rb via bits(insn,21,25)/bits(insn,16,20)/
bits(insn,11,15) — PPC's MSB-numbered RT/RA/RB fields restated from the
LSB end).
*/
package emit

import (
	"fmt"

	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/ir"
	"github.com/rcornwell/ppc32jit/internal/regmap"
	"github.com/rcornwell/ppc32jit/internal/tcb"
)

// Context bundles everything one instruction's emitter needs: the live
// CPU (for fields the emitter precomputes, never for inline reads —
// those go through the IR/regmap), the register map, the IR builder
// for the TCB being compiled, and the guest address of the instruction
// being translated.
type Context struct {
	CPU   *cpu.CPU
	Regs  *regmap.Map
	IR    *ir.Builder
	Block *tcb.TCB
	IA    uint32
}

// NewContext constructs a Context wired so register-map eviction
// store-backs become StoreGpr IR ops in the same builder.
func NewContext(c *cpu.CPU, builder *ir.Builder, block *tcb.TCB) *Context {
	cx := &Context{CPU: c, IR: builder, Block: block}
	cx.Regs = regmap.New(func(hreg, vreg int) {
		builder.StoreGpr(vreg, hreg)
	})
	return cx
}

// adaptCtx lifts a (*Context, insn)-shaped emitter into the
// decode.EmitFunc contract. The decode package only knows `any` for
// cpuState/block (it must stay free of an import cycle back to emit);
// every row this package registers actually passes its live *Context
// through that cpuState slot, since Context already bundles the CPU,
// register map, IR builder, and TCB the emitter needs. block is
// unused — Context.Block carries the same TCB.
func adaptCtx(fn func(cx *Context, insn uint32)) decode.EmitFunc {
	return func(cpuState, _ any, insn uint32) error {
		cx, ok := cpuState.(*Context)
		if !ok {
			return fmt.Errorf("emit: expected *Context, got %T", cpuState)
		}
		fn(cx, insn)
		return nil
	}
}

// bits extracts an (n-m+1)-bit field starting at LSB offset m.
func bits(insn uint32, m, n int) uint32 {
	width := uint(n - m + 1)
	return (insn >> uint(m)) & ((1 << width) - 1)
}

// signExt sign-extends the low `width` bits of v to a full int32.
func signExt(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}

// CPUBaseReg/xerCAOffset/crOffset/gprOffset/lrOffset/ctrOffset/iaOffset
// mirror internal/ir's fixed field-offset helpers so emitters in this
// package can address cpu.CPU fields directly without importing ir's
// unexported layout internals a second time.
const CPUBaseReg = ir.CPUBaseReg

func xerCAOffset() int       { return ir.XERCAOffset() }
func crOffset(field int) int { return ir.CROffset(field) }
func gprOffset(n int) int    { return ir.GPROffset(n) }
func lrOffset() int          { return ir.LROffset() }
func ctrOffset() int         { return ir.CTROffset() }
func tbLoOffset() int        { return ir.TBLoOffset() }
func tbHiOffset() int        { return ir.TBHiOffset() }
func iaOffset() int          { return ir.IAOffset() }
func msrOffset() int         { return ir.MSROffset() }
func srOffset(n int) int     { return ir.SROffset(n) }
func mtsOffset(cache int) int    { return ir.MTSOffset(cache) }
func memOpFnOffset(op int) int   { return ir.MemOpFnOffset(op) }

// rc reports whether the Rc bit (bit 0, LSB) requests a CR0 update.
func rc(insn uint32) bool { return insn&1 != 0 }

// oe reports whether the OE bit (bit 10) requests overflow detection
// (data model carries XER-SO but the reference emitter never sets it,
// per spec.md 9 — oe is read for documentation/dispatch parity, not
// acted on).
func oe(insn uint32) bool { return bits(insn, 10, 10) != 0 }
