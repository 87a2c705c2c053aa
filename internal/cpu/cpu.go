/*
ppc32jit - Guest CPU state (CpuPpc).

Copyright (c) 2024, Richard Cornwell

Permission is hereby granted, free of charge, to any person obtaining a
copy of this software and associated documentation files (the "Software"),
to deal in the Software without restriction, including without limitation
the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons to whom the
Software is furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package cpu

import (
	"github.com/rcornwell/ppc32jit/internal/device"
	"github.com/rcornwell/ppc32jit/internal/event"
	"github.com/rcornwell/ppc32jit/internal/memory"
	"github.com/rcornwell/ppc32jit/internal/mts"
)

// CR field bits, in PPC bit order, per spec.md 4.4.
const (
	CRLT uint8 = 0x08
	CRGT uint8 = 0x04
	CREQ uint8 = 0x02
	CRSO uint8 = 0x01
)

// MinPageShift/MinPageSize/MinPageMask describe the PPC minimum page
// size the JIT translates one of at a time (spec.md 3, "aligned to
// PPC minimum page size").
const (
	MinPageShift = memory.PageShift
	MinPageSize  = memory.PageSize
	MinPageMask  = memory.PageMask
	MinPageIMask = MinPageSize - 1
)

// InsnsPerPage is N from spec.md 3: page_size/4 instruction slots.
const InsnsPerPage = MinPageSize / 4

// BlockRef is the opaque per-page translation unit the CPU's hash
// tables index. internal/tcb.TCB implements it; cpu cannot import tcb
// directly (tcb imports cpu for field offsets), so the CPU only holds
// an untyped head pointer and leaves traversal to blockcache/tcb.
type BlockRef = any

// CPU is CpuPpc: the guest register file plus every field the JIT
// emitter addresses at a fixed byte offset and every field the
// executor consults between blocks.
type CPU struct {
	GPR  [32]uint32
	LR   uint32
	CTR  uint32
	IA   uint32
	CR   [8]uint8 // four-bit field in the low nibble of each byte
	TB   uint64
	XERCA uint32 // only bit 0 defined
	MSR  uint32
	SR   [16]uint32

	IRQPending       bool
	ExceptionPending bool
	PerfCounter      uint64

	// Events is this CPU's pending IRQ/timer queue, advanced by
	// internal/executor between blocks (spec.md 5's "pending IRQ/timer
	// event list" owned per-CPU, consulted only at block boundaries).
	Events *event.List

	MemOpFn [device.NumMemOps]device.MemOpFn

	// Fast-path cache the emitted loads/stores consult directly
	// (spec.md 6). Index 0 = D-cache, 1 = I-cache.
	MTS [2]*mts.Cache

	// Hash tables of TCB chains, sized 2^17 / 2^16 per spec.md 6.
	// Held as `any` here (see BlockRef) and type-asserted by
	// internal/blockcache, which owns their shape.
	ExecBlkMap  [1 << 17]BlockRef
	ExecPhysMap [1 << 16]BlockRef

	Mem *memory.Memory
}

// New constructs a CPU with the given amount of guest physical RAM.
func New(ramBytes uint32) *CPU {
	c := &CPU{
		Mem:    memory.New(ramBytes),
		Events: event.NewList(),
	}
	c.MTS[mts.DCache] = mts.New()
	c.MTS[mts.ICache] = mts.New()
	return c
}

// GetCR returns the 4-bit value of condition-register field n.
func (c *CPU) GetCR(field int) uint8 {
	return c.CR[field] & 0x0f
}

// SetCR stores a 4-bit value into condition-register field n.
func (c *CPU) SetCR(field int, val uint8) {
	c.CR[field] = val & 0x0f
}

// VPage returns the guest virtual page (start_ia) containing vaddr.
func VPage(vaddr uint32) uint32 { return vaddr &^ MinPageIMask }

// SlotOf returns the instruction slot index within a page for vaddr.
func SlotOf(vaddr uint32) uint32 { return (vaddr & MinPageIMask) >> 2 }
