/*
ppc32jit - Memory operation and write-notification contracts.

Copyright (c) 2024, Richard Cornwell

Permission is hereby granted, free of charge, to any person obtaining a
copy of this software and associated documentation files (the "Software"),
to deal in the Software without restriction, including without limitation
the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons to whom the
Software is furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package device

// MemOpFn is the C-ABI-shaped slow path for one memory opcode: it is
// the single authority on guest memory exceptions. A non-zero return
// means an exception was raised and the calling block must exit.
//
// cpu is an opaque *cpu.CPU passed as any to avoid an import cycle
// between device and cpu; callers type-assert it back.
type MemOpFn func(cpu any, vaddr uint32, target uint8) int32

// Memory opcode indices, matching the taxonomy of memory instructions
// in spec.md 4.4. Index into CPU.MemOpFn.
const (
	OpLBZ uint8 = iota
	OpLBZU
	OpLBZX
	OpLBZUX
	OpLHZ
	OpLHZU
	OpLHZX
	OpLHZUX
	OpLHA
	OpLHAU
	OpLHAX
	OpLHAUX
	OpLWZ
	OpLWZU
	OpLWZX
	OpLWZUX
	OpSTB
	OpSTBU
	OpSTBX
	OpSTBUX
	OpSTH
	OpSTHU
	OpSTHX
	OpSTHUX
	OpSTW
	OpSTWU
	OpSTWX
	OpSTWUX
	NumMemOps
)

// WriteNotifier is the external "memory-write notification" contract
// from spec.md 5: the device/memory layer calls it synchronously,
// before a guest store returns, so that any TCB compiled from that
// physical page is evicted before the writing instruction retires.
type WriteNotifier interface {
	NotifyWrite(physPage uint32)
}

var notifier WriteNotifier

// RegisterWriteNotifier wires the block cache (or any other subscriber)
// into the memory-write notification path. Called once by
// executor.New.
func RegisterWriteNotifier(n WriteNotifier) {
	notifier = n
}

// NotifyWrite forwards a physical-page write to the registered
// subscriber, if any. A nil notifier (e.g. in unit tests that exercise
// memory in isolation) is a silent no-op.
func NotifyWrite(physPage uint32) {
	if notifier != nil {
		notifier.NotifyWrite(physPage)
	}
}

// IRQHandler is the external "IRQ routing" contract from spec.md 4.10
// step 4: the interrupt controller model (out of scope per spec.md 1)
// is invoked once per block boundary when the CPU's pending-IRQ flag
// is observed set. cpu is an opaque *cpu.CPU, passed as any for the
// same import-cycle reason as MemOpFn.
type IRQHandler func(cpu any)

var irqHandler IRQHandler

// RegisterIRQHandler wires the platform's interrupt controller into
// the per-block IRQ check. No package in this module registers one.
func RegisterIRQHandler(h IRQHandler) {
	irqHandler = h
}

// DeliverIRQ forwards a pending-IRQ observation to the registered
// handler, if any. A nil handler (no platform wired, e.g. unit tests)
// is a silent no-op — the executor still clears IRQPending itself.
func DeliverIRQ(c any) {
	if irqHandler != nil {
		irqHandler(c)
	}
}

// BreakpointHandler is the external run_breakpoint(cpu) contract from
// spec.md 6: invoked when the executor is about to enter a block whose
// start address carries a registered breakpoint.
type BreakpointHandler func(cpu any)

var (
	breakpointHandler BreakpointHandler
	breakpoints       = map[uint32]bool{}
)

// RegisterBreakpointHandler wires the console/debugger layer into the
// per-block breakpoint check. Called once at CPU construction time.
func RegisterBreakpointHandler(h BreakpointHandler) {
	breakpointHandler = h
}

// SetBreakpoint/ClearBreakpoint manage the set of guest addresses that
// trip CheckBreakpoint, independent of which CPU observes them (the
// original's breakpoint list is a console-wide table, not per-CPU).
func SetBreakpoint(ia uint32)   { breakpoints[ia] = true }
func ClearBreakpoint(ia uint32) { delete(breakpoints, ia) }

// CheckBreakpoint reports whether ia carries a breakpoint and, if so,
// invokes the registered handler before returning true so the
// executor can stop before entering that block.
func CheckBreakpoint(c any, ia uint32) bool {
	if !breakpoints[ia] {
		return false
	}
	if breakpointHandler != nil {
		breakpointHandler(c)
	}
	return true
}
