/*
ppc32jit - Executor (C10): compile-then-run driver.

Ported from dynamips' ppc32_jit_run_cpu's outer loop
(_examples/original_source/stable/ppc32_jit.c): look up the TCB for the
current IA, compile one if none exists, then keep executing out of it
until control leaves the page, at which point the loop repeats.

internal/emit/internal/ir/internal/tcb exist to reproduce the original
translator's x86 encoding, patch-table, and block-cache mechanics; this
package is the one place that would, in a real JIT, jump into the
finished host buffer and let the CPU run it. It does not do that here
(see internal/interp's doc comment for why) — instead it walks the same
slots the compiled TCB covers and executes each one through
internal/interp.ExecSingleInsnExt, so the guest-visible state this
package produces is exactly what the compiled block's mechanics say it
would have produced, without this process ever executing the bytes
internal/codebuf's pages hold.
*/
package executor

import (
	"fmt"

	"github.com/rcornwell/ppc32jit/internal/blockcache"
	"github.com/rcornwell/ppc32jit/internal/codebuf"
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/decode"
	"github.com/rcornwell/ppc32jit/internal/device"
	"github.com/rcornwell/ppc32jit/internal/emit"
	"github.com/rcornwell/ppc32jit/internal/interp"
	"github.com/rcornwell/ppc32jit/internal/ir"
	"github.com/rcornwell/ppc32jit/internal/jitop"
	"github.com/rcornwell/ppc32jit/internal/tcb"
)

// Engine owns the per-CPU compile and run loop.
type Engine struct {
	CPU   *cpu.CPU
	Cache *blockcache.Cache
	Pages *codebuf.Pool
	Ops   *jitop.Pool

	done chan struct{} // cooperative stop signal, per spec.md 5
}

// New constructs an Engine over c, wiring the block cache as c's
// guest-memory write-notification subscriber (spec.md 5) so that a
// store to a physical page synchronously evicts any TCB translated
// from it.
func New(c *cpu.CPU, pages *codebuf.Pool) *Engine {
	cache := blockcache.New(c, pages)
	device.RegisterWriteNotifier(cache)
	return &Engine{CPU: c, Cache: cache, Pages: pages, Ops: jitop.NewPool(), done: make(chan struct{})}
}

// Stop signals RunLoop to return at the next block boundary. Matches
// the teacher's core.Stop: a closed channel observed cooperatively,
// never a preemptive interrupt of in-flight emitted code (spec.md 5's
// "abrupt cancellation inside emitted code is unsupported").
func (e *Engine) Stop() {
	select {
	case <-e.done:
		// already stopped
	default:
		close(e.done)
	}
}

// RunLoop drives Run in an unbounded series of small steps until
// Stop is called or a guest exception with a non-zero code is raised,
// checking the stop signal only between Run calls (i.e. at block
// boundaries), per spec.md 5's suspension-point rule.
func (e *Engine) RunLoop(stepsPerSlice int) int32 {
	for {
		select {
		case <-e.done:
			return 0
		default:
		}
		if _, exc := e.Run(stepsPerSlice); exc != 0 {
			return exc
		}
	}
}

// Compile translates the guest page containing startIA into a new TCB
// (spec.md 4.7 steps 1-6): snapshot the page's instruction words,
// decode+emit each slot in increasing order, lower each slot's IR into
// host bytes as soon as it is emitted, resolve intra-page patches, and
// insert the finished TCB into the block cache.
//
// No MMU layer is in scope (spec.md Non-goals), so the physical page
// backing a translation is the guest virtual page's own address.
func (e *Engine) Compile(startIA uint32) (*tcb.TCB, error) {
	vpage := cpu.VPage(startIA)
	physPage := vpage

	block := tcb.New(vpage, physPage)
	e.CPU.Mem.LoadPage(physPage, block.PPCCode)

	builder := ir.NewBuilder(e.Ops, block)
	cx := emit.NewContext(e.CPU, builder, block)

	for slot := 0; slot < cpu.InsnsPerPage; slot++ {
		insn := block.PPCCode[slot]
		cx.IA = vpage + uint32(slot)*4
		builder.StartSlot(slot)

		tag := decode.Lookup(insn)
		if err := runEmit(tag, cx, insn); err != nil {
			return nil, fmt.Errorf("executor: slot %d IA %#x (%s): %w", slot, cx.IA, tag.Name, err)
		}

		builder.Lower(slot)
		builder.FreeSlot(slot)
	}

	block.ResolvePatches()

	if err := e.ownChunks(block); err != nil {
		return nil, err
	}

	e.Cache.Insert(block)
	return block, nil
}

// runEmit invokes one decode-table row's emitter, converting a
// size-bucket overflow panic (spec.md 4.2 "Op pool allocation
// failure") into the ordinary error return spec.md 7's error table
// expects, so one oversized slot aborts only this compile, not the
// whole engine.
func runEmit(tag decode.Tag, cx *emit.Context, insn uint32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jitop buffer overflow: %v", r)
		}
	}()
	return tag.Emit(cx, nil, insn)
}

// ownChunks acquires enough codebuf pages to account for the bytes
// Compile just produced, so the pool's chunk accounting and
// spec.md 4.1's MaxChunksPerTCB bound are exercised exactly as they
// would be for a translator that wrote host bytes directly into
// mmap'd pages, even though b.Code is an ordinary growable slice (see
// internal/tcb.AppendCode).
func (e *Engine) ownChunks(b *tcb.TCB) error {
	n := (len(b.Code) + codebuf.ChunkSize - 1) / codebuf.ChunkSize
	if n == 0 {
		n = 1
	}
	if n > codebuf.MaxChunksPerTCB {
		return fmt.Errorf("executor: translation needs %d chunks, exceeds MaxChunksPerTCB (%d)", n, codebuf.MaxChunksPerTCB)
	}
	for i := 0; i < n; i++ {
		pg, err := e.Pages.AcquirePage()
		if err != nil {
			return fmt.Errorf("executor: acquire code page: %w", err)
		}
		b.AddChunk(pg)
	}
	return nil
}

// Run steps guest instructions starting at e.CPU.IA until a guest
// exception is raised or budget instructions have executed, whichever
// comes first. It returns the number of instructions actually stepped
// and the exception code from interp.ExecSingleInsnExt (0 on a clean
// budget exhaustion).
//
// Between blocks — never inside one, per spec.md 5's suspension-point
// rule — it advances the CPU's pending-event queue by the instruction
// count just executed and checks the pending-IRQ flag, delivering
// through device.DeliverIRQ exactly as spec.md 4.10 step 4 describes.
func (e *Engine) Run(budget int) (int, int32) {
	steps := 0
	for steps < budget {
		if device.CheckBreakpoint(e.CPU, e.CPU.IA) {
			return steps, 0
		}
		block := e.Cache.Lookup(e.CPU.IA)
		if block == nil {
			var err error
			block, err = e.Compile(e.CPU.IA)
			if err != nil {
				return steps, -1
			}
		}
		ran := 0
		exc := int32(0)
		for steps < budget && cpu.VPage(e.CPU.IA) == block.StartIA {
			insn := block.PPCCode[cpu.SlotOf(e.CPU.IA)]
			if exc = interp.ExecSingleInsnExt(e.CPU, insn); exc != 0 {
				steps++
				ran++
				break
			}
			steps++
			ran++
		}
		e.CPU.PerfCounter += uint64(ran)
		e.CPU.Events.Advance(ran)
		if e.CPU.IRQPending {
			device.DeliverIRQ(e.CPU)
			e.CPU.IRQPending = false
		}
		if exc != 0 {
			return steps, exc
		}
	}
	return steps, 0
}
