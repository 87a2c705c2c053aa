package ir

import (
	"testing"

	"github.com/rcornwell/ppc32jit/internal/cpu"
)

// TestUnsignedCRTableCoversZFCFGT exercises Testable Property 8 (CR
// mapping correctness): every EFLAGS byte decodes to exactly one of
// LT/GT/EQ per the unsigned comparison rule.
func TestUnsignedCRTableCoversZFCFGT(t *testing.T) {
	cases := []struct {
		eflags byte
		want   uint8
	}{
		{0x40, cpu.CREQ}, // ZF set
		{0x01, cpu.CRLT}, // CF set, ZF clear -> below
		{0x00, cpu.CRGT}, // neither set -> above
	}
	for _, c := range cases {
		if got := unsignedCRTable[c.eflags]; got != c.want {
			t.Fatalf("unsignedCRTable[%#x] = %#x, want %#x", c.eflags, got, c.want)
		}
	}
}

func TestSignedCRTableSFXorOFMeansLess(t *testing.T) {
	cases := []struct {
		byteVal byte
		want    uint8
	}{
		{0x40, cpu.CREQ},        // ZF set
		{0x80, cpu.CRLT},        // SF set, OF clear -> negative, no overflow -> LT
		{0x00, cpu.CRGT},        // SF clear, OF clear -> GT
		{0x80 | 0x02, cpu.CRGT}, // SF set, OF set -> overflow flips sign -> GT
		{0x02, cpu.CRLT},        // SF clear, OF set -> GT expected to flip to LT
	}
	for _, c := range cases {
		if got := signedCRTable[c.byteVal]; got != c.want {
			t.Fatalf("signedCRTable[%#x] = %#x, want %#x", c.byteVal, got, c.want)
		}
	}
}

func TestCRTablesAreExhaustive(t *testing.T) {
	for i := 0; i < 256; i++ {
		u := unsignedCRTable[i]
		if u != cpu.CRLT && u != cpu.CRGT && u != cpu.CREQ {
			t.Fatalf("unsignedCRTable[%d] = %#x is not one of LT/GT/EQ", i, u)
		}
		s := signedCRTable[i]
		if s != cpu.CRLT && s != cpu.CRGT && s != cpu.CREQ {
			t.Fatalf("signedCRTable[%d] = %#x is not one of LT/GT/EQ", i, s)
		}
	}
}
