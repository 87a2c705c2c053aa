/*
ppc32jit - Code buffer pool (C1).

Owns fixed-size, writable+executable host memory arenas and hands out
bump-allocated write cursors into them, in ~32KiB JIT-buffer chunks.
Grounded on dynamips' ppc32_jit.h constants (PPC_EXEC_AREA_SIZE,
PPC_JIT_BUFSIZE, PPC_JIT_MAX_CHUNKS) and on the teacher's style of
owning a single package-level pool of fixed regions
(_examples/rcornwell-S370/emu/memory/memory.go's flat-array ownership
pattern, generalized here to an mmap'd arena because code must be
executable).
*/
package codebuf

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Tuning constants, Go-named counterparts of the original's macros.
const (
	ExecAreaSizeMB  = 64 // 16 on constrained hosts, see Pool.arenaSize
	ChunkSize       = 32 * 1024
	MaxChunksPerTCB = 64
)

// ExecPage is one mmap'd region of writable+executable host memory,
// carved up into ChunkSize buffers by bump allocation.
type ExecPage struct {
	mem    []byte
	cursor int
}

// Bytes exposes the backing slice (used by the x86 encoder to compute
// PC-relative displacements and by tests that never actually jump into
// the buffer).
func (p *ExecPage) Bytes() []byte { return p.mem }

// Cap returns the chunk size.
func (p *ExecPage) Cap() int { return len(p.mem) }

// Cursor returns the current bump-allocation write offset.
func (p *ExecPage) Cursor() int { return p.cursor }

// Advance bumps the write cursor by n bytes after the caller has
// written n bytes at p.Bytes()[oldCursor:].
func (p *ExecPage) Advance(n int) { p.cursor += n }

// Remaining reports how many bytes are left in this chunk.
func (p *ExecPage) Remaining() int { return len(p.mem) - p.cursor }

// Pool is the fixed-size arena pool described in spec.md 4.1: pages
// are mmap'd once, carved into chunks, and returned to the free list
// on release rather than unmapped, except on a full flush.
type Pool struct {
	arenaSize int
	arenaUsed int
	arenas    [][]byte
	free      []*ExecPage
}

// NewPool creates an empty pool. constrained selects the 16MiB arena
// size used on constrained hosts (e.g. Cygwin in the original); the
// mainstream default is 64MiB.
func NewPool(constrained bool) *Pool {
	sizeMB := ExecAreaSizeMB
	if constrained {
		sizeMB = 16
	}
	return &Pool{arenaSize: sizeMB * 1024 * 1024}
}

// AcquirePage returns a writable+executable chunk-sized buffer, either
// from the free list or freshly carved from a new mmap'd arena.
func (p *Pool) AcquirePage() (*ExecPage, error) {
	if n := len(p.free); n > 0 {
		pg := p.free[n-1]
		p.free = p.free[:n-1]
		pg.cursor = 0
		return pg, nil
	}
	if len(p.arenas) == 0 || p.arenaExhausted() {
		if err := p.growArena(); err != nil {
			return nil, err
		}
	}
	arena := p.arenas[len(p.arenas)-1]
	used := p.arenaUsed
	chunk := arena[used : used+ChunkSize]
	p.arenaUsed += ChunkSize
	return &ExecPage{mem: chunk}, nil
}

// ReleasePage returns a page to the pool's free list. Pages are never
// released to the OS during normal operation (spec.md 4.1); only
// Pool.Flush unmaps everything.
func (p *Pool) ReleasePage(pg *ExecPage) {
	pg.cursor = 0
	p.free = append(p.free, pg)
}

// Flush unmaps every arena. Used only on VM teardown or an explicit
// global flush that wants memory back.
func (p *Pool) Flush() error {
	for _, a := range p.arenas {
		if err := unix.Munmap(a); err != nil {
			return fmt.Errorf("codebuf: munmap: %w", err)
		}
	}
	p.arenas = nil
	p.free = nil
	p.arenaUsed = 0
	return nil
}

func (p *Pool) arenaExhausted() bool {
	return p.arenaUsed+ChunkSize > p.arenaSize
}

func (p *Pool) growArena() error {
	mem, err := unix.Mmap(-1, 0, p.arenaSize,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return fmt.Errorf("codebuf: mmap %d bytes: %w", p.arenaSize, err)
	}
	p.arenas = append(p.arenas, mem)
	p.arenaUsed = 0
	return nil
}
