package regmap

import (
	"testing"

	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

func TestAllocBindsAndIsConsistent(t *testing.T) {
	m := New(nil)
	hreg := m.Alloc(3)
	if m.HostRegFor(3) != hreg {
		t.Fatalf("HostRegFor(3) = %d, want %d", m.HostRegFor(3), hreg)
	}
	if m.GuestRegFor(hreg) != 3 {
		t.Fatalf("GuestRegFor(%d) = %d, want 3", hreg, m.GuestRegFor(hreg))
	}
	if !m.Consistent() {
		t.Fatal("map not consistent after a single alloc")
	}
}

func TestAllocReturnsSameHostRegOnRebind(t *testing.T) {
	m := New(nil)
	h1 := m.Alloc(3)
	h2 := m.Alloc(3)
	if h1 != h2 {
		t.Fatalf("Alloc(3) twice returned different host regs: %d, %d", h1, h2)
	}
	if !m.Consistent() {
		t.Fatal("map not consistent")
	}
}

func TestAllocEvictsLRUAndStoresBackDirty(t *testing.T) {
	var stored []int
	m := New(func(hreg, vreg int) { stored = append(stored, vreg) })

	// availHostRegs has 4 slots; bind 4 distinct guest regs, then a 5th
	// must evict the least-recently-used one and store it back.
	for i, g := range []int{1, 2, 3, 4} {
		m.Alloc(g)
		m.CloseSequence()
		_ = i
	}
	m.Alloc(5)

	if len(stored) != 1 || stored[0] != 1 {
		t.Fatalf("expected guest reg 1 (LRU) to be stored back, got %v", stored)
	}
	if !m.Consistent() {
		t.Fatal("map not consistent after eviction")
	}
}

func TestAllocForcedEvictsSpecificHostReg(t *testing.T) {
	var stored []int
	m := New(func(hreg, vreg int) { stored = append(stored, vreg) })
	m.Alloc(7) // binds guest 7 to some host reg, dirty
	m.CloseSequence()
	hreg := m.HostRegFor(7)

	got := m.AllocForced(hreg)
	if got != hreg {
		t.Fatalf("AllocForced returned %d, want %d", got, hreg)
	}
	if m.HostRegFor(7) != NoGPR {
		t.Fatal("guest reg 7 still bound after AllocForced evicted its host reg")
	}
	if len(stored) != 1 || stored[0] != 7 {
		t.Fatalf("expected dirty guest reg 7 stored back, got %v", stored)
	}
}

func TestAlterHostRegDropsBindingWithoutStoreBack(t *testing.T) {
	called := false
	m := New(func(hreg, vreg int) { called = true })
	m.Alloc(2)
	m.CloseSequence()
	hreg := m.HostRegFor(2)

	m.AlterHostReg(hreg)
	if called {
		t.Fatal("AlterHostReg must not invoke storeBack")
	}
	if m.HostRegFor(2) != NoGPR {
		t.Fatal("guest reg 2 still bound after AlterHostReg")
	}
	if m.GuestRegFor(hreg) != NoGPR {
		t.Fatal("host reg still reports a guest binding after AlterHostReg")
	}
}

func TestGetTmpIsFixedAndNeverManaged(t *testing.T) {
	m := New(nil)
	if got := m.GetTmp(); got != x86asm.EBX {
		t.Fatalf("GetTmp() = %d, want EBX (%d)", got, x86asm.EBX)
	}
	// tmp register is not in the managed map, so AllocForced on it is a
	// plain pass-through.
	if got := m.AllocForced(x86asm.EBX); got != x86asm.EBX {
		t.Fatalf("AllocForced(EBX) = %d, want EBX", got)
	}
}

func TestConsistentDetectsBrokenInverse(t *testing.T) {
	m := New(nil)
	m.Alloc(3)
	// Directly corrupt the inverse mapping to verify Consistent notices.
	for hreg, e := range m.byHReg {
		if e.vreg == 3 {
			m.byVReg[3] = hreg + 1000
			break
		}
	}
	if m.Consistent() {
		t.Fatal("Consistent() should have detected the broken mutual-inverse invariant")
	}
}
