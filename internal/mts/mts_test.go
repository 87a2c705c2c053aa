package mts

import "testing"

func TestNewCacheStartsAllInvalid(t *testing.T) {
	c := New()
	_, hit := c.Lookup(0x1000, ^uint32(0xfff))
	if hit {
		t.Fatal("a freshly constructed cache should have no valid entries")
	}
}

func TestInsertThenLookupHits(t *testing.T) {
	c := New()
	const pageMask = ^uint32(0xfff)
	c.Insert(0x2000, 0xcafe000, FlagEXEC)

	e, hit := c.Lookup(0x2000+0x40, pageMask)
	if !hit {
		t.Fatal("expected a cache hit for the inserted page")
	}
	if e.HPA != 0xcafe000 {
		t.Fatalf("HPA = %#x, want 0xcafe000", e.HPA)
	}
	if e.Flags&FlagEXEC == 0 {
		t.Fatal("expected FlagEXEC to be preserved")
	}
}

func TestInvalidateForcesSlowPath(t *testing.T) {
	c := New()
	const pageMask = ^uint32(0xfff)
	c.Insert(0x3000, 0x1000, 0)
	c.Invalidate(0x3000)

	if _, hit := c.Lookup(0x3000, pageMask); hit {
		t.Fatal("Lookup should miss after Invalidate")
	}
}

func TestInvalidateLeavesOtherPagesAlone(t *testing.T) {
	c := New()
	const pageMask = ^uint32(0xfff)
	// Two pages that hash to different slots (well-separated indices).
	c.Insert(0x3000, 0x1000, 0)
	c.Invalidate(0x9000) // never inserted; must be a no-op

	if _, hit := c.Lookup(0x3000, pageMask); !hit {
		t.Fatal("Invalidate of an unrelated page should not evict 0x3000")
	}
}
