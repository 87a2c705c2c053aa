package executor

import (
	"testing"

	"github.com/rcornwell/ppc32jit/internal/codebuf"
	"github.com/rcornwell/ppc32jit/internal/cpu"
)

func newTestEngine() *Engine {
	c := cpu.New(1 << 20)
	pages := codebuf.NewPool(true)
	return New(c, pages)
}

// writeProgram stores each 32-bit instruction word at consecutive
// guest addresses starting at ia, big-endian, as guest memory holds
// instructions.
func writeProgram(e *Engine, ia uint32, words ...uint32) {
	for i, w := range words {
		e.CPU.Mem.WriteWord(ia+uint32(i*4), w)
	}
}

// TestScenarioS1LoadImmediatesAddAndReturn implements spec.md S1:
// LI r3,5; LI r4,7; ADD r3,r5,r4; BLR with r5=10, LR=0x2000 must
// leave r3=17, r4=7, IA=0x2000.
func TestScenarioS1LoadImmediatesAddAndReturn(t *testing.T) {
	e := newTestEngine()
	e.CPU.GPR[5] = 10
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	writeProgram(e, 0x3000,
		0x38600005, // li r3,5
		0x38800007, // li r4,7
		0x7c652214, // add r3,r5,r4
		0x4e800020, // blr
	)

	steps, exc := e.Run(16)
	if exc != 0 {
		t.Fatalf("unexpected exception %d", exc)
	}
	if steps != 4 {
		t.Fatalf("steps = %d, want 4", steps)
	}
	if e.CPU.GPR[3] != 17 {
		t.Fatalf("r3 = %d, want 17", e.CPU.GPR[3])
	}
	if e.CPU.GPR[4] != 7 {
		t.Fatalf("r4 = %d, want 7", e.CPU.GPR[4])
	}
	if e.CPU.IA != 0x2000 {
		t.Fatalf("IA = %#x, want 0x2000", e.CPU.IA)
	}
}

// TestScenarioS2LoadWordThenReturn implements spec.md S2: LWZ r0,0(r3);
// BLR with r3=0x4000 and memory[0x4000:+4]=0xDEADBEEF must leave
// r0=0xDEADBEEF, IA=0x2000.
func TestScenarioS2LoadWordThenReturn(t *testing.T) {
	e := newTestEngine()
	e.CPU.GPR[3] = 0x4000
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	e.CPU.Mem.WriteWord(0x4000, 0xDEADBEEF)
	writeProgram(e, 0x3000,
		0x80030000, // lwz r0,0(r3)
		0x4e800020, // blr
	)

	_, exc := e.Run(16)
	if exc != 0 {
		t.Fatalf("unexpected exception %d", exc)
	}
	if e.CPU.GPR[0] != 0xDEADBEEF {
		t.Fatalf("r0 = %#x, want 0xDEADBEEF", e.CPU.GPR[0])
	}
	if e.CPU.IA != 0x2000 {
		t.Fatalf("IA = %#x, want 0x2000", e.CPU.IA)
	}
}

// TestScenarioS3SubfcCarry implements spec.md S3: SUBFC r0,r3,r4; BLR
// with r3=3, r4=1 must leave r0=0xFFFFFFFE, XER-CA=0, IA=LR.
func TestScenarioS3SubfcCarry(t *testing.T) {
	e := newTestEngine()
	e.CPU.GPR[3] = 3
	e.CPU.GPR[4] = 1
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	writeProgram(e, 0x3000,
		0x7c032010, // subfc r0,r3,r4
		0x4e800020, // blr
	)

	_, exc := e.Run(16)
	if exc != 0 {
		t.Fatalf("unexpected exception %d", exc)
	}
	if e.CPU.GPR[0] != 0xFFFFFFFE {
		t.Fatalf("r0 = %#x, want 0xFFFFFFFE", e.CPU.GPR[0])
	}
	if e.CPU.XERCA != 0 {
		t.Fatalf("XER-CA = %d, want 0", e.CPU.XERCA)
	}
	if e.CPU.IA != e.CPU.LR {
		t.Fatalf("IA = %#x, want LR (%#x)", e.CPU.IA, e.CPU.LR)
	}
}

// TestScenarioS4CompareBranchNotTaken implements spec.md S4: with
// r3=5, CMPI cr0,r3,5 is equal so BNE falls through and r3 ends up 2.
func TestScenarioS4CompareBranchNotTaken(t *testing.T) {
	e := newTestEngine()
	e.CPU.GPR[3] = 5
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	writeProgram(e, 0x3000,
		0x2c030005, // cmpi cr0,r3,5
		0x40820008, // bne cr0,+8
		0x38600001, // li r3,1
		0x38600002, // li r3,2
		0x4e800020, // blr
	)

	_, exc := e.Run(16)
	if exc != 0 {
		t.Fatalf("unexpected exception %d", exc)
	}
	if e.CPU.GPR[3] != 2 {
		t.Fatalf("r3 = %d, want 2 (fall-through path)", e.CPU.GPR[3])
	}
}

// TestScenarioS5CompareBranchTaken implements spec.md S5: the same
// code with r3=9 takes the branch, but both paths converge on r3=2.
func TestScenarioS5CompareBranchTaken(t *testing.T) {
	e := newTestEngine()
	e.CPU.GPR[3] = 9
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	writeProgram(e, 0x3000,
		0x2c030005, // cmpi cr0,r3,5
		0x40820008, // bne cr0,+8
		0x38600001, // li r3,1
		0x38600002, // li r3,2
		0x4e800020, // blr
	)

	_, exc := e.Run(16)
	if exc != 0 {
		t.Fatalf("unexpected exception %d", exc)
	}
	if e.CPU.GPR[3] != 2 {
		t.Fatalf("r3 = %d, want 2 (branch-taken path merges with fall-through)", e.CPU.GPR[3])
	}
}

// TestScenarioS6RlwinmMaskAndRotate implements spec.md S6:
// RLWINM r3,r3,31,1,31 on r3=0x80000001 yields r3=0x40000000.
func TestScenarioS6RlwinmMaskAndRotate(t *testing.T) {
	e := newTestEngine()
	e.CPU.GPR[3] = 0x80000001
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	writeProgram(e, 0x3000,
		0x5463f87e, // rlwinm r3,r3,31,1,31
		0x4e800020, // blr
	)

	_, exc := e.Run(16)
	if exc != 0 {
		t.Fatalf("unexpected exception %d", exc)
	}
	if e.CPU.GPR[3] != 0x40000000 {
		t.Fatalf("r3 = %#x, want 0x40000000", e.CPU.GPR[3])
	}
}

// TestCompileReusesCachedBlockOnSecondEntry exercises the block-cache
// lookup path in Run: a second pass through the same page must reuse
// the TCB Compile already installed rather than recompiling.
func TestCompileReusesCachedBlockOnSecondEntry(t *testing.T) {
	e := newTestEngine()
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	writeProgram(e, 0x3000,
		0x38600005, // li r3,5
		0x4e800020, // blr
	)

	if _, exc := e.Run(8); exc != 0 {
		t.Fatalf("first run: unexpected exception %d", exc)
	}
	before := e.Cache.Lookup(0x3000)
	if before == nil {
		t.Fatal("expected a cached TCB after the first compile")
	}

	e.CPU.IA = 0x3000
	e.CPU.LR = 0x2000
	if _, exc := e.Run(8); exc != 0 {
		t.Fatalf("second run: unexpected exception %d", exc)
	}
	after := e.Cache.Lookup(0x3000)
	if after != before {
		t.Fatal("second entry into the same page should reuse the cached TCB, not recompile")
	}
}

// TestStoreToTranslatedPageEvictsItsTCB is Testable Property 6: a
// guest store into a physical page that backs an existing TCB must
// evict that TCB via the block cache's write-notifier wiring.
func TestStoreToTranslatedPageEvictsItsTCB(t *testing.T) {
	e := newTestEngine()
	e.CPU.LR = 0x2000
	e.CPU.IA = 0x3000
	writeProgram(e, 0x3000,
		0x38600005, // li r3,5
		0x4e800020, // blr
	)

	if _, exc := e.Run(8); exc != 0 {
		t.Fatalf("unexpected exception %d", exc)
	}
	if e.Cache.Lookup(0x3000) == nil {
		t.Fatal("expected a cached TCB before the write")
	}

	e.CPU.Mem.WriteWord(0x3000, 0x60000000) // overwrite the first instruction (a nop-equivalent ori)

	if e.Cache.Lookup(0x3000) != nil {
		t.Fatal("writing into the translated page should have evicted its TCB")
	}
}
