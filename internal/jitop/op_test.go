package jitop

import "testing"

func TestGetAssignsSmallestFittingBucket(t *testing.T) {
	p := NewPool()
	op := p.Get(40, KindInsnOutput)
	if op.Cap() != 64 {
		t.Fatalf("Cap() = %d, want 64 (smallest bucket >= 40)", op.Cap())
	}
}

func TestGetOversizedNominalFallsBackToLargestBucket(t *testing.T) {
	p := NewPool()
	op := p.Get(4096, KindInsnOutput)
	if op.Cap() != BucketSizes[len(BucketSizes)-1] {
		t.Fatalf("Cap() = %d, want largest bucket %d", op.Cap(), BucketSizes[len(BucketSizes)-1])
	}
}

func TestFreeThenGetReusesOp(t *testing.T) {
	p := NewPool()
	op := p.Get(16, KindInsnOutput)
	op.Append([]byte{1, 2, 3})
	p.Free(op)

	reused := p.Get(16, KindInsnOutput)
	if reused != op {
		t.Fatal("Get after Free should reuse the freed Op from its bucket")
	}
	if reused.Pos() != 0 {
		t.Fatalf("reused Op's write position = %d, want 0 (reset)", reused.Pos())
	}
	if reused.Param[0] != InvReg {
		t.Fatalf("reused Op's Param[0] = %d, want InvReg", reused.Param[0])
	}
}

func TestAppendOverflowPanics(t *testing.T) {
	p := NewPool()
	op := p.Get(0, KindInsnOutput) // smallest bucket, 0 bytes
	defer func() {
		if recover() == nil {
			t.Fatal("Append beyond bucket capacity should panic")
		}
	}()
	op.Append([]byte{1})
}

func TestFreeListFreesEntireChain(t *testing.T) {
	p := NewPool()
	a := p.Get(8, KindLoadGpr)
	b := p.Get(8, KindStoreGpr)
	a.Next = b

	p.FreeList(a)

	first := p.Get(8, KindLoadGpr)
	second := p.Get(8, KindLoadGpr)
	if first != b || second != a {
		t.Fatalf("FreeList should push in order so Get pops b then a; got %p then %p", first, second)
	}
}

func TestFreeAllPoolsDropsFreedOps(t *testing.T) {
	p := NewPool()
	op := p.Get(8, KindLoadGpr)
	p.Free(op)
	p.FreeAllPools()

	fresh := p.Get(8, KindLoadGpr)
	if fresh == op {
		t.Fatal("FreeAllPools should have dropped the previously freed Op")
	}
}
