/*
ppc32jit - Guest memory fast-path cache (software TLB).

Ported from dynamips' mts32_entry_t / PPC32_MTS_DCACHE contract
(_examples/original_source/stable/ppc32_x86_trans.c). The JIT only
reads this structure; the guest MMU module (out of scope per spec.md 1)
owns establishing and invalidating entries. This package reproduces
just enough of that external contract for C11 to have something
concrete to address from emitted code and for tests to populate.
*/
package mts

import "unsafe"

// Hash geometry for the fast-path cache, named HashShift/HashMask in
// spec.md 4.11 ("MTS_HASH_SHIFT"/"MTS_HASH_MASK").
const (
	HashShift = 12
	HashBits  = 11
	HashMask  = (1 << HashBits) - 1
	NumEntries = 1 << HashBits
)

// Per-cache-entry flags (spec.md GLOSSARY: COW / EXEC flag).
const (
	FlagCOW  uint32 = 0x01
	FlagEXEC uint32 = 0x02
)

// Cache indices, matching PPC32_MTS_DCACHE / PPC32_MTS_ICACHE.
const (
	DCache = 0
	ICache = 1
)

// Entry is one software-TLB line: a guest virtual page mapped to a
// host page address, with COW/EXEC markers that force the slow path.
type Entry struct {
	GVPA  uint32 // guest virtual page address (page-aligned)
	HPA   uintptr
	Flags uint32
}

// Cache is the fixed-size, direct-mapped array the emitted fast-path
// code indexes with (vaddr >> HashShift) & HashMask.
type Cache struct {
	entries [NumEntries]Entry
}

// New returns an empty fast-path cache, all entries invalid (GVPA
// of 0xffffffff never matches any masked virtual address).
func New() *Cache {
	c := &Cache{}
	for i := range c.entries {
		c.entries[i].GVPA = 0xffffffff
	}
	return c
}

// EntriesOffset/EntrySize/GVPAOffset/HPAOffset let the fast-path
// emitter (internal/emit) address one Entry by computed index without
// this package exporting the field itself.
var (
	EntriesOffset = int(unsafe.Offsetof(Cache{}.entries))
	EntrySize     = int(unsafe.Sizeof(Cache{}.entries[0]))
	GVPAOffset    = int(unsafe.Offsetof(Cache{}.entries[0].GVPA))
	HPAOffset     = int(unsafe.Offsetof(Cache{}.entries[0].HPA))
	FlagsOffset   = int(unsafe.Offsetof(Cache{}.entries[0].Flags))
)

func index(vaddr uint32) uint32 {
	return (vaddr >> HashShift) & HashMask
}

// Lookup mirrors the inline comparison the emitted fast path performs:
// it returns the entry at the hashed slot and whether its GVPA matches
// the page containing vaddr.
func (c *Cache) Lookup(vaddr, pageMask uint32) (*Entry, bool) {
	e := &c.entries[index(vaddr)]
	return e, e.GVPA == (vaddr & pageMask)
}

// Insert installs (or replaces) the cache line for a guest virtual
// page. Called by the (external) MMU layer; exposed here so tests can
// populate the cache without a full MMU.
func (c *Cache) Insert(gvpa uint32, hpa uintptr, flags uint32) {
	c.entries[index(gvpa)] = Entry{GVPA: gvpa, HPA: hpa, Flags: flags}
}

// Invalidate removes any entry mapping the given guest virtual page,
// forcing the next access through the slow path.
func (c *Cache) Invalidate(gvpa uint32) {
	e := &c.entries[index(gvpa)]
	if e.GVPA == gvpa {
		e.GVPA = 0xffffffff
	}
}
