/*
ppc32jit - IR lowering pass (C6).

Ported from the per-instruction `cpu.jit_op_array[instr_slot]` queue
described in dynamips' jit_op.h (_examples/original_source/jit_op.h)
and spec.md 4.6: per-page translation accumulates IR ops for the
current instruction slot into Builder.array[slot] — BranchTarget ops
are inserted at the *head* of a (possibly not-yet-visited) later
slot's list so they run before that slot's body — and Lower resolves
one slot's list into real host bytes appended to the TCB's code
buffer, immediately after that slot's ops are complete.

The register map lives in internal/regmap and is threaded in by the
per-opcode emitters in internal/emit; this package only consumes the
IR op stream, it doesn't allocate registers itself.
*/
package ir

import (
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/jitop"
	"github.com/rcornwell/ppc32jit/internal/tcb"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

// Builder accumulates the per-slot IR op lists for one TCB under
// construction and lowers them into its code buffer.
type Builder struct {
	Pool  *jitop.Pool
	Block *tcb.TCB

	array []*jitop.Op // per-slot head
	tails []*jitop.Op // per-slot tail, for O(1) append
	slot  int
}

// NewBuilder allocates a Builder sized for one page's worth of
// instruction slots.
func NewBuilder(pool *jitop.Pool, block *tcb.TCB) *Builder {
	return &Builder{
		Pool:  pool,
		Block: block,
		array: make([]*jitop.Op, cpu.InsnsPerPage),
		tails: make([]*jitop.Op, cpu.InsnsPerPage),
	}
}

// StartSlot selects the instruction slot subsequent emit calls append
// to.
func (b *Builder) StartSlot(slot int) { b.slot = slot }

func (b *Builder) append(op *jitop.Op) {
	if b.array[b.slot] == nil {
		b.array[b.slot] = op
	} else {
		b.tails[b.slot].Next = op
	}
	b.tails[b.slot] = op
}

// BranchTarget records that guest address targetIA (which must lie on
// this TCB's page) is a branch destination, prepending a marker op at
// the head of its slot's list regardless of emission order.
func (b *Builder) BranchTarget(targetIA uint32) {
	targetSlot := int(cpu.SlotOf(targetIA))
	op := b.Pool.Get(0, jitop.KindBranchTarget)
	op.Param[0] = int32(targetIA)
	op.Next = b.array[targetSlot]
	b.array[targetSlot] = op
	if b.tails[targetSlot] == nil {
		b.tails[targetSlot] = op
	}
}

// InsnOutput reserves a code-output op of the given nominal size and
// returns it so the caller can Append the encoded host bytes.
func (b *Builder) InsnOutput(sizeNominal int, name string) *jitop.Op {
	op := b.Pool.Get(sizeNominal, jitop.KindInsnOutput)
	op.Name = name
	b.append(op)
	return op
}

// LoadGpr/StoreGpr/UpdateFlags/RequireFlags/TrashFlags/AlterHostReg/
// MoveHostReg/SetHostRegImm32 mirror the JIT_OP_* opcodes in
// jit_op.h's enum.

func (b *Builder) LoadGpr(hostReg, guestReg int) {
	op := b.Pool.Get(0, jitop.KindLoadGpr)
	op.Param[0], op.Param[1] = int32(hostReg), int32(guestReg)
	b.append(op)
}

func (b *Builder) StoreGpr(guestReg, hostReg int) {
	op := b.Pool.Get(0, jitop.KindStoreGpr)
	op.Param[0], op.Param[1] = int32(guestReg), int32(hostReg)
	b.append(op)
}

func (b *Builder) UpdateFlags(field int, signed bool) {
	op := b.Pool.Get(0, jitop.KindUpdateFlags)
	op.Param[0] = int32(field)
	if signed {
		op.Param[1] = 1
	}
	b.append(op)
}

func (b *Builder) RequireFlags(field int) {
	op := b.Pool.Get(0, jitop.KindRequireFlags)
	op.Param[0] = int32(field)
	b.append(op)
}

func (b *Builder) TrashFlags(field int) {
	op := b.Pool.Get(0, jitop.KindTrashFlags)
	op.Param[0] = int32(field)
	b.append(op)
}

func (b *Builder) AlterHostReg(hreg int) {
	op := b.Pool.Get(0, jitop.KindAlterHostReg)
	op.Param[0] = int32(hreg)
	b.append(op)
}

func (b *Builder) MoveHostReg(dst, src int) {
	op := b.Pool.Get(0, jitop.KindMoveHostReg)
	op.Param[0], op.Param[1] = int32(dst), int32(src)
	b.append(op)
}

func (b *Builder) SetHostRegImm32(reg int, imm int32) {
	op := b.Pool.Get(0, jitop.KindSetHostRegImm32)
	op.Param[0], op.Param[1] = int32(reg), imm
	b.append(op)
}

func (b *Builder) EndOfBlock() {
	b.append(b.Pool.Get(0, jitop.KindEndOfBlock))
}

// BranchJump records a compile-time-known branch destination so Lower
// can decide, once the TCB's final code offsets are known, whether it
// is a local intra-page jump (emit a patchable host Jmp/Jcc and record
// it in the TCB's patch table, spec.md 4.9) or crosses pages (left to
// the emitter's own IA-store + EndOfBlock sequence). cc is an x86 Jcc
// condition code, or -1 for an unconditional jump.
func (b *Builder) BranchJump(targetIA uint32, cc int) {
	op := b.Pool.Get(0, jitop.KindBranchJump)
	op.Param[0] = int32(targetIA)
	op.Param[1] = int32(cc)
	b.append(op)
}

// Lower resolves slot's full op list (any BranchTarget markers seeded
// by earlier slots, followed by this slot's own emitted ops) into
// host bytes appended to the TCB's code buffer, per spec.md 4.7 step
// 3a/4.6. Must be called once per slot, in increasing slot order,
// right after that slot's decoder+emitter call returns.
func (b *Builder) Lower(slot int) {
	b.Block.MarkSlotStart(uint32(slot))

	pendingFlagsField := -1 // most recent UpdateFlags not yet known to be required
	var pendingSigned bool

	flush := func() {
		if pendingFlagsField >= 0 {
			b.Block.AppendCode(emitCRUpdate(pendingFlagsField, pendingSigned))
			pendingFlagsField = -1
		}
	}

	for op := b.array[slot]; op != nil; op = op.Next {
		switch op.Kind {
		case jitop.KindBranchTarget:
			b.Block.SetTargetBit(uint32(op.Param[0]))

		case jitop.KindInsnOutput:
			b.Block.AppendCode(op.Buf())

		case jitop.KindLoadGpr:
			hreg, vreg := int(op.Param[0]), int(op.Param[1])
			if hreg != int(jitop.InvReg) && vreg >= 0 {
				b.Block.AppendCode(x86asm.MovRegMembase(hreg, CPUBaseReg, gprOffset(vreg), 4))
			}

		case jitop.KindStoreGpr:
			vreg, hreg := int(op.Param[0]), int(op.Param[1])
			if hreg != int(jitop.InvReg) && vreg >= 0 {
				b.Block.AppendCode(x86asm.MovMembaseReg(CPUBaseReg, gprOffset(vreg), hreg, 4))
			}

		case jitop.KindUpdateFlags:
			// Deferred: elided entirely if trashed/ended before any
			// consumer requires it (spec.md 4.6 item 4).
			pendingFlagsField = int(op.Param[0])
			pendingSigned = op.Param[1] != 0

		case jitop.KindRequireFlags:
			flush()

		case jitop.KindTrashFlags:
			pendingFlagsField = -1

		case jitop.KindAlterHostReg:
			// Register-map bookkeeping only; no bytes to emit here —
			// the map entry is dropped by the caller (internal/emit)
			// before this op is built.

		case jitop.KindMoveHostReg:
			dst, src := int(op.Param[0]), int(op.Param[1])
			if dst != int(jitop.InvReg) {
				b.Block.AppendCode(x86asm.MovRegReg(dst, src, 4))
			}

		case jitop.KindSetHostRegImm32:
			reg := int(op.Param[0])
			if reg != int(jitop.InvReg) {
				b.Block.AppendCode(x86asm.MovRegImm32(reg, op.Param[1]))
			}

		case jitop.KindBranchJump:
			targetIA, cc := uint32(op.Param[0]), int(op.Param[1])
			if cpu.VPage(targetIA) == b.Block.StartIA {
				var code []byte
				var dispOff int
				if cc < 0 {
					code, dispOff = x86asm.Jmp32Placeholder()
				} else {
					code, dispOff = x86asm.Jcc32Placeholder(cc)
				}
				off := b.Block.AppendCode(code)
				b.Block.RecordPatch(off+dispOff, 4, targetIA)
			}
			// Cross-page destinations carry no host jump here: the
			// emitter that issued this op already wrote the resolved
			// IA to cpu.CPU.IA via a separate InsnOutput before calling
			// EndOfBlock, which is how control actually leaves the TCB.

		case jitop.KindEndOfBlock:
			flush()
		}
	}
	flush()
}

// FreeSlot releases every op on slot's list back to the pool once
// lowering has consumed it.
func (b *Builder) FreeSlot(slot int) {
	b.Pool.FreeList(b.array[slot])
	b.array[slot] = nil
	b.tails[slot] = nil
}
