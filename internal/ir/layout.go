/*
ppc32jit - Fixed byte offsets of internal/cpu.CPU fields, as addressed
by emitted host code through the CPU-pointer base register (x86 EDI,
matching dynamips' OFFSET(cpu_ppc_t, ...) macro usage throughout
_examples/original_source/stable/ppc32_x86_trans.c).
*/
package ir

import (
	"unsafe"

	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/x86asm"
)

// CPUBaseReg is the host register emitted code holds the live *cpu.CPU
// pointer in, reserved outside the register map (spec.md 4.3).
const CPUBaseReg = x86asm.EDI

var cpuZero cpu.CPU

func gprOffset(n int) int    { return int(unsafe.Offsetof(cpuZero.GPR)) + n*4 }
func crOffset(field int) int { return int(unsafe.Offsetof(cpuZero.CR)) + field }
func lrOffset() int          { return int(unsafe.Offsetof(cpuZero.LR)) }
func ctrOffset() int         { return int(unsafe.Offsetof(cpuZero.CTR)) }
func tbLoOffset() int        { return int(unsafe.Offsetof(cpuZero.TB)) }
func tbHiOffset() int        { return int(unsafe.Offsetof(cpuZero.TB)) + 4 }
func iaOffset() int          { return int(unsafe.Offsetof(cpuZero.IA)) }
func xerCAOffset() int       { return int(unsafe.Offsetof(cpuZero.XERCA)) }
func msrOffset() int         { return int(unsafe.Offsetof(cpuZero.MSR)) }
func srOffset(n int) int     { return int(unsafe.Offsetof(cpuZero.SR)) + n*4 }

// mtsOffset/memOpFnOffset address CPU.MTS[cache] (a *mts.Cache the
// fast memory path dereferences) and CPU.MemOpFn[op] (the slow-path
// function-pointer table), mirroring OFFSET(cpu_ppc_t,mts_cache[..])
// and MEMOP_OFFSET(op) in ppc32_x86_trans.c.
func mtsOffset(cache int) int {
	return int(unsafe.Offsetof(cpuZero.MTS)) + cache*int(unsafe.Sizeof(cpuZero.MTS[0]))
}

func memOpFnOffset(op int) int {
	return int(unsafe.Offsetof(cpuZero.MemOpFn)) + op*int(unsafe.Sizeof(cpuZero.MemOpFn[0]))
}

// Exported forms of the same offsets, for internal/emit's opcode
// emitters to address cpu.CPU fields directly (slow-path memory ops,
// LR/CTR/CR transport instructions) without duplicating the
// unsafe.Offsetof calls in a second package.
func GPROffset(n int) int    { return gprOffset(n) }
func CROffset(field int) int { return crOffset(field) }
func LROffset() int          { return lrOffset() }
func CTROffset() int         { return ctrOffset() }
func TBLoOffset() int        { return tbLoOffset() }
func TBHiOffset() int        { return tbHiOffset() }
func IAOffset() int          { return iaOffset() }
func XERCAOffset() int       { return xerCAOffset() }
func MSROffset() int         { return msrOffset() }
func SROffset(n int) int     { return srOffset(n) }
func MTSOffset(cache int) int     { return mtsOffset(cache) }
func MemOpFnOffset(op int) int    { return memOpFnOffset(op) }

// tableAddr encodes a Go table's address as the disp32 an emitted
// absolute-addressing instruction would embed. On a real 32-bit x86
// host this is the table's literal address; this implementation never
// transfers control into emitted code (internal/executor re-executes
// translated slots through the interpreter instead, see its doc
// comment), so the truncation inherent in taking a 64-bit host
// pointer's low 32 bits never gets dereferenced — it only needs to be
// a deterministic function of the table identity for byte-stream
// comparison in tests.
func tableAddr(table *[256]uint8) uint32 {
	return uint32(uintptr(unsafe.Pointer(table)))
}
