package blockcache

import (
	"testing"

	"github.com/rcornwell/ppc32jit/internal/codebuf"
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/tcb"
)

func newTestCache() (*Cache, *cpu.CPU) {
	c := cpu.New(1 << 20)
	pages := codebuf.NewPool(true)
	return New(c, pages), c
}

func TestInsertThenLookupByVirtualPage(t *testing.T) {
	cache, _ := newTestCache()
	b := tcb.New(0x1000, 0x1000)
	cache.Insert(b)

	got := cache.Lookup(0x1000 + 0x40)
	if got != b {
		t.Fatalf("Lookup did not find the inserted TCB: got %v", got)
	}
	if cache.Lookup(0x2000) != nil {
		t.Fatal("Lookup found a TCB for an address that was never inserted")
	}
}

func TestFindByPhysPage(t *testing.T) {
	cache, _ := newTestCache()
	b := tcb.New(0x3000, 0x3000)
	cache.Insert(b)
	if cache.FindByPhysPage(0x3000) != b {
		t.Fatal("FindByPhysPage did not find the inserted TCB")
	}
}

// TestInsertEvictsExistingSamePhysPage exercises the data model's "at
// most one live TCB per physical page" invariant.
func TestInsertEvictsExistingSamePhysPage(t *testing.T) {
	cache, _ := newTestCache()
	first := tcb.New(0x4000, 0x4000)
	cache.Insert(first)

	second := tcb.New(0x4000, 0x4000)
	cache.Insert(second)

	if cache.FindByPhysPage(0x4000) != second {
		t.Fatal("expected the second insert to replace the first for the same physical page")
	}
	if cache.Lookup(0x4000) != second {
		t.Fatal("virtual-page index should also point at the surviving TCB")
	}
}

// TestNotifyWriteEvictsTranslatedPage is Testable Property 6: a write
// to a physical page evicts every TCB translated from it.
func TestNotifyWriteEvictsTranslatedPage(t *testing.T) {
	cache, _ := newTestCache()
	b := tcb.New(0x5000, 0x5000)
	cache.Insert(b)

	cache.NotifyWrite(0x5000)

	if cache.Lookup(0x5000) != nil {
		t.Fatal("TCB should have been evicted from the virtual-page index")
	}
	if cache.FindByPhysPage(0x5000) != nil {
		t.Fatal("TCB should have been evicted from the physical-page index")
	}
}

func TestNotifyWriteLeavesOtherPagesAlone(t *testing.T) {
	cache, _ := newTestCache()
	a := tcb.New(0x6000, 0x6000)
	b := tcb.New(0x7000, 0x7000)
	cache.Insert(a)
	cache.Insert(b)

	cache.NotifyWrite(0x6000)

	if cache.Lookup(0x6000) != nil {
		t.Fatal("page 0x6000's TCB should have been evicted")
	}
	if cache.Lookup(0x7000) != b {
		t.Fatal("page 0x7000's TCB should have survived an unrelated write")
	}
}

func TestFlushClearsEverything(t *testing.T) {
	cache, _ := newTestCache()
	cache.Insert(tcb.New(0x8000, 0x8000))
	cache.Insert(tcb.New(0x9000, 0x9000))

	cache.Flush()

	if cache.Lookup(0x8000) != nil || cache.Lookup(0x9000) != nil {
		t.Fatal("Flush should have removed every TCB")
	}
}
