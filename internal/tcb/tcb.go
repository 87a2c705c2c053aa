/*
ppc32jit - Translated-code block (C7) and branch patcher (C9).

Ported from dynamips' struct ppc32_jit_tcb and ppc32_jit_tcb_record_patch
(_examples/original_source/stable/ppc32_jit.h). The doubly/singly linked
index pointers from the original become ordinary Go pointers here per
spec.md 9's design note ("in a memory-safe implementation these become
arena-index pairs or a generational handle; direct cyclic ownership is
neither required nor beneficial") — Go's GC makes the straightforward
pointer form safe, so no handle indirection is introduced.
*/
package tcb

import (
	"github.com/rcornwell/ppc32jit/internal/codebuf"
	"github.com/rcornwell/ppc32jit/internal/cpu"
)

// patchTableSize mirrors PPC32_INSN_PATCH_TABLE_SIZE: patches are
// stored in linked fixed-size tables owned by the TCB.
const patchTableSize = 32

// insnPatch is one recorded intra-page forward branch awaiting
// resolution (spec.md 4.9).
type insnPatch struct {
	siteOffset int    // byte offset in TCB.Code of the displacement field
	dispWidth  int    // 1 or 4
	targetIA   uint32 // guest IA the branch targets
}

type patchTable struct {
	patches  [patchTableSize]insnPatch
	curPatch int
	next     *patchTable
}

// TCB is one per-guest-page translation unit (spec.md 3).
type TCB struct {
	StartIA  uint32
	PhysPage uint32

	// InsnPtr[i] is the byte offset into Code of the first emitted
	// instruction for guest slot i, or -1 if untranslated. Offsets
	// (rather than raw pointers) survive Code being reallocated across
	// chunks without invalidation, and are what blockcache/executor
	// resolve through codebuf chunk bookkeeping.
	InsnPtr []int

	// TargetBitmap has one bit per instruction slot, set when some
	// branch targets that slot (spec.md 3).
	TargetBitmap    []uint32
	TargetUndefCnt  int

	PPCCode []uint32 // snapshot of guest instruction words

	Code   []byte // concatenation of this TCB's emitted chunks
	chunks []*codebuf.ExecPage

	patchHead *patchTable
	reuse     int // eviction heuristic counter

	// Vpage index links (doubly linked, spec.md 3).
	VPrev, VNext *TCB
	// Phys index links (singly linked, spec.md 3).
	PhysNext *TCB
}

// New allocates a TCB for the page starting at startIA, sized for
// cpu.InsnsPerPage slots, all untranslated.
func New(startIA, physPage uint32) *TCB {
	b := &TCB{
		StartIA:      startIA,
		PhysPage:     physPage,
		InsnPtr:      make([]int, cpu.InsnsPerPage),
		TargetBitmap: make([]uint32, cpu.InsnsPerPage/32),
		PPCCode:      make([]uint32, cpu.InsnsPerPage),
	}
	for i := range b.InsnPtr {
		b.InsnPtr[i] = -1
	}
	return b
}

// SetTargetBit marks slot ia (a guest address within this page) as a
// branch target, per ppc32_jit_tcb_set_target_bit.
func (b *TCB) SetTargetBit(ia uint32) {
	slot := cpu.SlotOf(ia)
	word, bit := slot/32, slot%32
	if b.TargetBitmap[word]&(1<<bit) == 0 {
		b.TargetBitmap[word] |= 1 << bit
		if b.InsnPtr[slot] < 0 {
			b.TargetUndefCnt++
		}
	}
}

// TargetBit reports whether ia is marked as a branch target.
func (b *TCB) TargetBit(ia uint32) bool {
	slot := cpu.SlotOf(ia)
	word, bit := slot/32, slot%32
	return b.TargetBitmap[word]&(1<<bit) != 0
}

// HostOffset returns the byte offset within b.Code of the emitted
// code for guest address vaddr, or -1 if that slot is untranslated
// (the interpreter fallback applies).
func (b *TCB) HostOffset(vaddr uint32) int {
	return b.InsnPtr[cpu.SlotOf(vaddr)]
}

// LocalAddr reports whether vaddr belongs to this block's page and,
// if so, its host code offset (ppc32_jit_tcb_local_addr).
func (b *TCB) LocalAddr(vaddr uint32) (int, bool) {
	if cpu.VPage(vaddr) != b.StartIA {
		return 0, false
	}
	return b.HostOffset(vaddr), true
}

// AddChunk records ownership of an exec-page chunk so it can be
// returned to the pool when this TCB is destroyed. A TCB holds at most
// MaxChunksPerTCB chunks (spec.md 4.1); the caller is responsible for
// aborting compilation if that bound would be exceeded.
func (b *TCB) AddChunk(pg *codebuf.ExecPage) {
	b.chunks = append(b.chunks, pg)
}

// Chunks returns the exec-page chunks owned by this TCB.
func (b *TCB) Chunks() []*codebuf.ExecPage { return b.chunks }

// NumChunks reports how many chunks this TCB currently owns.
func (b *TCB) NumChunks() int { return len(b.chunks) }

// AppendCode copies p onto the end of b.Code (used by the IR lowering
// pass for InsnOutput ops) and returns the offset it was written at.
func (b *TCB) AppendCode(p []byte) int {
	off := len(b.Code)
	b.Code = append(b.Code, p...)
	return off
}

// MarkSlotStart records that guest slot i's emitted code begins at
// the current end of b.Code.
func (b *TCB) MarkSlotStart(slot uint32) {
	b.InsnPtr[slot] = len(b.Code)
	if b.TargetBit(b.StartIA + slot*4) {
		b.TargetUndefCnt--
	}
}

// RecordPatch registers a forward intra-page branch: siteOffset is
// where in b.Code the displacement field was written (still zero),
// dispWidth is 1 or 4 bytes, targetIA is the guest destination
// (spec.md 4.9 / ppc32_jit_tcb_record_patch).
func (b *TCB) RecordPatch(siteOffset, dispWidth int, targetIA uint32) {
	pt := b.patchHead
	if pt == nil || pt.curPatch >= patchTableSize {
		pt = &patchTable{next: b.patchHead}
		b.patchHead = pt
	}
	pt.patches[pt.curPatch] = insnPatch{siteOffset: siteOffset, dispWidth: dispWidth, targetIA: targetIA}
	pt.curPatch++
}

// ResolvePatches walks every recorded patch and, for each whose target
// slot now has emitted code, writes the correct host-relative
// displacement. Patches whose target is still unresolved are left in
// place (the patch table is not cleared) so a later recompile can
// resolve them, per spec.md 4.9/7.
func (b *TCB) ResolvePatches() {
	for pt := b.patchHead; pt != nil; pt = pt.next {
		for i := 0; i < pt.curPatch; i++ {
			p := &pt.patches[i]
			if cpu.VPage(p.targetIA) != b.StartIA {
				continue
			}
			targetOff := b.HostOffset(p.targetIA)
			if targetOff < 0 {
				continue // target not yet emitted; resolved on next recompile
			}
			rel := targetOff - (p.siteOffset + p.dispWidth)
			writeRel(b.Code, p.siteOffset, p.dispWidth, rel)
		}
	}
}

func writeRel(code []byte, off, width, rel int) {
	u := uint32(int32(rel))
	for i := 0; i < width; i++ {
		code[off+i] = byte(u >> (8 * i))
	}
}

// Unresolved reports whether any recorded patch still lacks an
// emitted target, i.e. whether this TCB needs a later recompile
// (spec.md 4.7 "Recompilation").
func (b *TCB) Unresolved() bool {
	for pt := b.patchHead; pt != nil; pt = pt.next {
		for i := 0; i < pt.curPatch; i++ {
			p := &pt.patches[i]
			if cpu.VPage(p.targetIA) == b.StartIA && b.HostOffset(p.targetIA) < 0 {
				return true
			}
		}
	}
	return false
}
