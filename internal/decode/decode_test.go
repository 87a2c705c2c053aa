package decode

import "testing"

func noopEmit(cpuState any, block any, insn uint32) error { return nil }

func TestRegisterAppendsOrderedRows(t *testing.T) {
	before := Len()
	Register(0xfc0007fe, 0x7c000214, "add", noopEmit)
	if Len() != before+1 {
		t.Fatalf("Len() = %d, want %d", Len(), before+1)
	}
}

func TestLookupReturnsFirstMatchingRowInRegistrationOrder(t *testing.T) {
	// A narrower mask registered first must win over a wider mask
	// registered afterward that would also match the same word.
	Register(0xffffffff, 0x11223344, "exact", noopEmit)
	Register(0x00000000, 0x00000000, "catch-all", noopEmit)

	got := Lookup(0x11223344)
	if got.Name != "exact" {
		t.Fatalf("Lookup matched %q, want %q (first registered row wins)", got.Name, "exact")
	}
}

func TestLookupFallsBackToUnknownWhenNoRowMatches(t *testing.T) {
	table, unknown = nil, Tag{}
	RegisterUnknown(noopEmit)
	Register(0xffffffff, 0xdeadbeef, "specific", noopEmit)

	got := Lookup(0x00000001)
	if got.Name != "unknown" {
		t.Fatalf("Lookup matched %q, want the unknown-opcode fallback", got.Name)
	}
}

func TestLookupMatchesOnMaskedBitsOnly(t *testing.T) {
	table, unknown = nil, Tag{}
	Register(0xfc0007fe, 0x7c000214, "add", noopEmit)

	// Bits outside the mask (here the rd/ra/rb fields) must not affect
	// the match.
	insn := uint32(0x7c000214) | (3 << 21) | (5 << 16) | (4 << 11)
	got := Lookup(insn)
	if got.Name != "add" {
		t.Fatalf("Lookup(%#x) = %q, want %q", insn, got.Name, "add")
	}
}
