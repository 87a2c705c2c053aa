/*
ppc32jit - Register map (C3).

Ported from dynamips' hreg_map / ppc32_jit_alloc_hreg family
(_examples/original_source/stable/ppc32_jit.h and ppc32_x86_trans.c's
ppc32_jit_init_hreg_mapping). Host scratch set is the same four
general-purpose x86-32 registers plus a fixed tmp register; the MRU
list is a doubly linked list exactly as in the original.
*/
package regmap

import "github.com/rcornwell/ppc32jit/internal/x86asm"

// NoGPR is the sentinel for "this host register caches no guest GPR"
// and for alloc(-1) scratch requests ("guest_gpr == -1").
const NoGPR = -1

// Available host scratch registers, matching avail_hregs in the
// original ({X86_ESI, X86_EAX, X86_ECX, X86_EDX}); X86_EBX is the
// fixed tmp register never placed in the MRU list, and EDI is
// reserved as the guest CPU pointer register outside the map.
var availHostRegs = []int{x86asm.ESI, x86asm.EAX, x86asm.ECX, x86asm.EDX}

const tmpHostReg = x86asm.EBX

// entry is one host-register binding, doubly linked for MRU eviction.
type entry struct {
	hreg  int
	vreg  int // bound guest GPR, or NoGPR
	dirty bool
	locked bool
	prev, next *entry
}

// StoreBackFunc is called when alloc() must evict a dirty binding; the
// caller (internal/emit) supplies it so regmap can stay free of a
// dependency on the Op IR.
type StoreBackFunc func(hreg, vreg int)

// Map is the per-guest-CPU register map (spec.md 3's "Register map").
type Map struct {
	byHReg map[int]*entry
	byVReg [32]int // guest GPR -> host reg, or NoGPR
	mru    *entry  // head = most recently used
	tail   *entry
	seqName string
	storeBack StoreBackFunc
}

// New constructs an empty map. storeBack is invoked before an alloc()
// would otherwise silently drop a dirty binding.
func New(storeBack StoreBackFunc) *Map {
	m := &Map{byHReg: make(map[int]*entry, len(availHostRegs)), storeBack: storeBack}
	for i := range m.byVReg {
		m.byVReg[i] = NoGPR
	}
	var prev *entry
	for _, hreg := range availHostRegs {
		e := &entry{hreg: hreg, vreg: NoGPR, prev: prev}
		if prev != nil {
			prev.next = e
		} else {
			m.mru = e
		}
		prev = e
		m.byHReg[hreg] = e
	}
	m.tail = prev
	return m
}

// StartSequence marks the beginning of an allocation scope, used for
// diagnostics/assertions only (spec.md 4.3).
func (m *Map) StartSequence(name string) { m.seqName = name }

// CloseSequence ends the scope without forcing any write-back;
// bindings remain live for reuse, per spec.md 4.3.
func (m *Map) CloseSequence() {
	for _, e := range m.byHReg {
		e.locked = false
	}
	m.seqName = ""
}

func (m *Map) moveToFront(e *entry) {
	if m.mru == e {
		return
	}
	m.unlink(e)
	e.prev = nil
	e.next = m.mru
	if m.mru != nil {
		m.mru.prev = e
	}
	m.mru = e
	if m.tail == nil {
		m.tail = e
	}
}

func (m *Map) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else if m.mru == e {
		m.mru = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else if m.tail == e {
		m.tail = e.prev
	}
}

// leastRecentlyUsed finds the tail entry that isn't locked for the
// current sequence.
func (m *Map) leastRecentlyUsed() *entry {
	for e := m.tail; e != nil; e = e.prev {
		if !e.locked {
			return e
		}
	}
	return m.tail
}

// Alloc implements spec.md 4.3's alloc(): returns the host register
// bound to guestGPR, allocating and possibly evicting an LRU victim.
// guestGPR == NoGPR means "scratch register, no guest binding".
func (m *Map) Alloc(guestGPR int) int {
	if guestGPR != NoGPR {
		if hreg := m.byVReg[guestGPR]; hreg != NoGPR {
			e := m.byHReg[hreg]
			m.moveToFront(e)
			e.locked = true
			return hreg
		}
	}

	victim := m.leastRecentlyUsed()
	if victim.vreg != NoGPR {
		if victim.dirty && m.storeBack != nil {
			m.storeBack(victim.hreg, victim.vreg)
		}
		m.byVReg[victim.vreg] = NoGPR
	}

	if guestGPR != NoGPR {
		victim.vreg = guestGPR
		victim.dirty = true
		m.byVReg[guestGPR] = victim.hreg
	} else {
		victim.vreg = NoGPR
		victim.dirty = false
	}
	victim.locked = true
	m.moveToFront(victim)
	return victim.hreg
}

// AllocForced evicts whatever currently occupies hreg and reserves it
// for this sequence, for instructions the host ISA ties to specific
// registers (x86 DIV/MUL tie operands to A:D).
func (m *Map) AllocForced(hreg int) int {
	e, ok := m.byHReg[hreg]
	if !ok {
		return hreg // not a map-managed register (e.g. tmp); caller owns it
	}
	if e.vreg != NoGPR {
		if e.dirty && m.storeBack != nil {
			m.storeBack(e.hreg, e.vreg)
		}
		m.byVReg[e.vreg] = NoGPR
		e.vreg = NoGPR
		e.dirty = false
	}
	e.locked = true
	m.moveToFront(e)
	return hreg
}

// GetTmp returns the fixed caller-saved scratch register the map never
// allocates; its value is undefined across sequence boundaries.
func (m *Map) GetTmp() int { return tmpHostReg }

// AlterHostReg drops any guest binding on hreg without a store-back,
// per spec.md 4.3's "after alter_host_reg(h) is emitted, the map drops
// any guest binding on h" invariant.
func (m *Map) AlterHostReg(hreg int) {
	e, ok := m.byHReg[hreg]
	if !ok {
		return
	}
	if e.vreg != NoGPR {
		m.byVReg[e.vreg] = NoGPR
	}
	e.vreg = NoGPR
	e.dirty = false
}

// HostRegFor returns the host register currently bound to guestGPR, or
// NoGPR, without allocating.
func (m *Map) HostRegFor(guestGPR int) int { return m.byVReg[guestGPR] }

// GuestRegFor returns the guest GPR currently bound to hreg, or NoGPR.
func (m *Map) GuestRegFor(hreg int) int {
	e, ok := m.byHReg[hreg]
	if !ok {
		return NoGPR
	}
	return e.vreg
}

// Consistent checks the mutual-inverse invariant (Testable Property 4):
// for every bound host reg h -> guest g, guest g must map back to h.
func (m *Map) Consistent() bool {
	for hreg, e := range m.byHReg {
		if e.vreg == NoGPR {
			continue
		}
		if m.byVReg[e.vreg] != hreg {
			return false
		}
	}
	return true
}
