/*
ppc32jit - Decoder & dispatch (C5).

Ported from dynamips' ppc32_insn_tag / ppc32_jit_fetch_and_emit
(_examples/original_source/stable/ppc32_jit.h): an ordered table of
(mask, value, emitter) rows, first match wins, wildcard row at the end
bound to the unknown-opcode emitter.

Emitters register themselves into this table via Register at package
init time (internal/emit's init functions), keeping decode free of an
import-cycle back to emit.
*/
package decode

// EmitFunc is the per-opcode emitter contract from spec.md 4.4:
// inputs (cpu, tcb, insn_word) where cpu/tcb are passed as `any` to
// let decode stay independent of internal/cpu and internal/tcb's
// concrete types (both of which would otherwise need to import
// decode to register emitters, causing a cycle since emit imports
// cpu+tcb directly).
type EmitFunc func(cpuState any, block any, insn uint32) error

// Tag is one decode-table row.
type Tag struct {
	Mask, Value uint32
	Emit        EmitFunc
	Name        string
}

var table []Tag
var unknown Tag

// Register appends a row to the ordered decode table. Order matters:
// more-specific masks must be registered before less-specific ones
// that would also match (spec.md 4.5).
func Register(mask, value uint32, name string, fn EmitFunc) {
	table = append(table, Tag{Mask: mask, Value: value, Emit: fn, Name: name})
}

// RegisterUnknown installs the wildcard fallback emitter, matched when
// no other row does.
func RegisterUnknown(fn EmitFunc) {
	unknown = Tag{Name: "unknown", Emit: fn}
}

// Lookup returns the first matching row for insn, or the unknown-
// opcode row if nothing else matches (spec.md 4.5).
func Lookup(insn uint32) Tag {
	for _, t := range table {
		if insn&t.Mask == t.Value {
			return t
		}
	}
	return unknown
}

// Len reports how many specific rows are registered (diagnostic use).
func Len() int { return len(table) }
