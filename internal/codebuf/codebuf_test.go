package codebuf

import "testing"

func TestAcquirePageReturnsChunkSizedBuffer(t *testing.T) {
	p := NewPool(true)
	pg, err := p.AcquirePage()
	if err != nil {
		t.Fatalf("AcquirePage: %v", err)
	}
	if pg.Cap() != ChunkSize {
		t.Fatalf("Cap() = %d, want %d", pg.Cap(), ChunkSize)
	}
	if pg.Remaining() != ChunkSize {
		t.Fatalf("Remaining() = %d, want %d for a fresh page", pg.Remaining(), ChunkSize)
	}
}

func TestAdvanceMovesCursor(t *testing.T) {
	p := NewPool(true)
	pg, err := p.AcquirePage()
	if err != nil {
		t.Fatalf("AcquirePage: %v", err)
	}
	copy(pg.Bytes(), []byte{0x90, 0x90})
	pg.Advance(2)
	if pg.Cursor() != 2 {
		t.Fatalf("Cursor() = %d, want 2", pg.Cursor())
	}
	if pg.Remaining() != ChunkSize-2 {
		t.Fatalf("Remaining() = %d, want %d", pg.Remaining(), ChunkSize-2)
	}
}

func TestReleasePageResetsCursorForReuse(t *testing.T) {
	p := NewPool(true)
	pg, err := p.AcquirePage()
	if err != nil {
		t.Fatalf("AcquirePage: %v", err)
	}
	pg.Advance(100)
	p.ReleasePage(pg)

	reused, err := p.AcquirePage()
	if err != nil {
		t.Fatalf("AcquirePage (reuse): %v", err)
	}
	if reused != pg {
		t.Fatal("AcquirePage should prefer a released page from the free list")
	}
	if reused.Cursor() != 0 {
		t.Fatalf("Cursor() on reused page = %d, want 0", reused.Cursor())
	}
}

func TestFlushUnmapsArenas(t *testing.T) {
	p := NewPool(true)
	if _, err := p.AcquirePage(); err != nil {
		t.Fatalf("AcquirePage: %v", err)
	}
	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(p.arenas) != 0 || len(p.free) != 0 {
		t.Fatal("Flush should clear arenas and the free list")
	}
}
