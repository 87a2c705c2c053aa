/*
ppc32jit - Block cache (C8): virtual- and physical-page TCB indices.

Ported from dynamips' exec_blk_map/exec_phys_map and the
ppc32_jit_get_ia_hash/ppc32_jit_get_phys_hash/ppc32_jit_find_by_phys_page
functions (_examples/original_source/stable/ppc32_jit.h).
*/
package blockcache

import (
	"github.com/rcornwell/ppc32jit/internal/codebuf"
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/tcb"
)

const (
	iaHashBits   = 17
	iaHashMask   = (1 << iaHashBits) - 1
	physHashBits = 16
	physHashMask = (1 << physHashBits) - 1
)

// iaHash mirrors ppc32_jit_get_ia_hash.
func iaHash(ia uint32) uint32 {
	h := sboxU32(ia >> cpu.MinPageShift)
	return (h ^ (h >> 14)) & iaHashMask
}

// physHash mirrors ppc32_jit_get_phys_hash.
func physHash(physPage uint32) uint32 {
	h := sboxU32(physPage)
	return (h ^ (h >> 12)) & physHashMask
}

// Cache is the logic that walks the hash-table chains held directly on
// the guest CPU (cpu.CPU.ExecBlkMap/ExecPhysMap, per spec.md 3's data
// model). It does not keep its own copy of those tables: CPU owns the
// storage because the field layout is part of the architectural state
// spec.md describes, and blockcache only knows how to traverse and
// splice the *tcb.TCB chains CPU holds as opaque cpu.BlockRef heads.
type Cache struct {
	cpu   *cpu.CPU
	pages *codebuf.Pool
}

// New constructs a block cache over c's hash-table fields, backed by
// the given code-buffer pool. It does not register itself for memory-write
// notifications; executor.New registers the returned Cache with
// device.RegisterWriteNotifier so that physical-page stores reach NotifyWrite.
func New(c *cpu.CPU, pages *codebuf.Pool) *Cache {
	return &Cache{cpu: c, pages: pages}
}

func asTCB(ref cpu.BlockRef) *tcb.TCB {
	b, _ := ref.(*tcb.TCB)
	return b
}

// Lookup finds the TCB whose start_ia matches the page containing
// vaddr, or nil.
func (c *Cache) Lookup(vaddr uint32) *tcb.TCB {
	vpage := cpu.VPage(vaddr)
	for b := asTCB(c.cpu.ExecBlkMap[iaHash(vpage)]); b != nil; b = b.VNext {
		if b.StartIA == vpage {
			return b
		}
	}
	return nil
}

// FindByPhysPage mirrors ppc32_jit_find_by_phys_page.
func (c *Cache) FindByPhysPage(physPage uint32) *tcb.TCB {
	for b := asTCB(c.cpu.ExecPhysMap[physHash(physPage)]); b != nil; b = b.PhysNext {
		if b.PhysPage == physPage {
			return b
		}
	}
	return nil
}

// Insert links a newly compiled TCB into both indices (spec.md 4.7
// step 6). Per spec.md 3's invariant, any existing TCB for the same
// physical page is evicted first — at most one live TCB per physical
// page.
func (c *Cache) Insert(b *tcb.TCB) {
	if existing := c.FindByPhysPage(b.PhysPage); existing != nil {
		c.Remove(existing)
	}

	vh := iaHash(b.StartIA)
	b.VNext = asTCB(c.cpu.ExecBlkMap[vh])
	b.VPrev = nil
	if b.VNext != nil {
		b.VNext.VPrev = b
	}
	c.cpu.ExecBlkMap[vh] = b

	ph := physHash(b.PhysPage)
	b.PhysNext = asTCB(c.cpu.ExecPhysMap[ph])
	c.cpu.ExecPhysMap[ph] = b
}

// Remove unlinks b from both indices and releases its code buffers
// back to the pool (spec.md 3 "Destruction").
func (c *Cache) Remove(b *tcb.TCB) {
	vh := iaHash(b.StartIA)
	if b.VPrev != nil {
		b.VPrev.VNext = b.VNext
	} else if asTCB(c.cpu.ExecBlkMap[vh]) == b {
		c.cpu.ExecBlkMap[vh] = b.VNext
	}
	if b.VNext != nil {
		b.VNext.VPrev = b.VPrev
	}
	b.VPrev, b.VNext = nil, nil

	ph := physHash(b.PhysPage)
	if asTCB(c.cpu.ExecPhysMap[ph]) == b {
		c.cpu.ExecPhysMap[ph] = b.PhysNext
	} else {
		for cur := asTCB(c.cpu.ExecPhysMap[ph]); cur != nil; cur = cur.PhysNext {
			if cur.PhysNext == b {
				cur.PhysNext = b.PhysNext
				break
			}
		}
	}
	b.PhysNext = nil

	releaseChunks(c.pages, b)
}

// NotifyWrite implements device.WriteNotifier: a guest store to
// physPage evicts every TCB translated from that physical page
// (spec.md Testable Property 6).
func (c *Cache) NotifyWrite(physPage uint32) {
	for b := asTCB(c.cpu.ExecPhysMap[physHash(physPage)]); b != nil; {
		next := b.PhysNext
		if b.PhysPage == physPage {
			c.Remove(b)
		}
		b = next
	}
}

// Flush walks every bucket, unlinking and destroying every TCB and
// returning their code buffers to the pool (spec.md 4.8).
func (c *Cache) Flush() {
	for i := range c.cpu.ExecBlkMap {
		for b := asTCB(c.cpu.ExecBlkMap[i]); b != nil; {
			next := b.VNext
			releaseChunks(c.pages, b)
			b.VPrev, b.VNext = nil, nil
			b = next
		}
		c.cpu.ExecBlkMap[i] = nil
	}
	for i := range c.cpu.ExecPhysMap {
		c.cpu.ExecPhysMap[i] = nil
	}
}

func releaseChunks(pages *codebuf.Pool, b *tcb.TCB) {
	for _, pg := range b.Chunks() {
		pages.ReleasePage(pg)
	}
}
