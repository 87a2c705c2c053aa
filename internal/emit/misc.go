package emit

import (
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

func init() {
	decode.Register(0xffffffff, 0x7c0004ac, "sync", adaptCtx(doSYNC))
	decode.RegisterUnknown(adaptCtx(doUnknown))
}

// SYNC enforces host/guest memory ordering in the original; this
// translator runs single-threaded per CPU so it has nothing to order
// against and is a pure no-op, matching DECLARE_INSN(SYNC)'s empty
// body in ppc32_x86_trans.c.
func doSYNC(cx *Context, insn uint32) {}

// doUnknown handles any opcode this package has no dedicated emitter
// for: it stores IA and ends the block unconditionally. The emitted
// bytes contain no call into the single-instruction interpreter; the
// instruction itself is executed when internal/executor steps that slot
// through internal/interp.
func doUnknown(cx *Context, insn uint32) {
	cx.Regs.StartSequence("unknown")
	op := cx.IR.InsnOutput(12, "unknown")
	op.Append(x86asm.MovMembaseImm(CPUBaseReg, iaOffset(), int32(cx.IA)))
	cx.IR.EndOfBlock()
	cx.Regs.CloseSequence()
}
