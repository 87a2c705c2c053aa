package tcb

import "testing"

func TestTargetBitSetAndQuery(t *testing.T) {
	b := New(0x1000, 0x1000)
	ia := uint32(0x1000 + 4*5)
	if b.TargetBit(ia) {
		t.Fatal("target bit set before SetTargetBit")
	}
	b.SetTargetBit(ia)
	if !b.TargetBit(ia) {
		t.Fatal("target bit not set after SetTargetBit")
	}
	if b.TargetUndefCnt != 1 {
		t.Fatalf("TargetUndefCnt = %d, want 1 (slot not yet emitted)", b.TargetUndefCnt)
	}
}

func TestMarkSlotStartClearsUndefCount(t *testing.T) {
	b := New(0x2000, 0x2000)
	ia := uint32(0x2000 + 4*3)
	b.SetTargetBit(ia)
	if b.TargetUndefCnt != 1 {
		t.Fatalf("TargetUndefCnt = %d, want 1", b.TargetUndefCnt)
	}
	for slot := 0; slot <= 3; slot++ {
		b.MarkSlotStart(uint32(slot))
		b.AppendCode([]byte{0x90})
	}
	if b.TargetUndefCnt != 0 {
		t.Fatalf("TargetUndefCnt = %d after emitting slot 3, want 0", b.TargetUndefCnt)
	}
	if off := b.HostOffset(ia); off != 3 {
		t.Fatalf("HostOffset(slot 3) = %d, want 3", off)
	}
}

func TestLocalAddrRejectsOtherPage(t *testing.T) {
	b := New(0x3000, 0x3000)
	if _, ok := b.LocalAddr(0x4000); ok {
		t.Fatal("LocalAddr should reject an address on a different page")
	}
	if off, ok := b.LocalAddr(0x3008); !ok || off != -1 {
		t.Fatalf("LocalAddr(0x3008) = (%d, %v), want (-1, true) for an untranslated slot", off, ok)
	}
}

// TestResolvePatchesFillsKnownTargets exercises Testable Property 5:
// every patch whose target slot has been emitted gets the correct
// host-relative displacement, and forward references to not-yet-
// emitted slots are left untouched for a later recompile.
func TestResolvePatchesFillsKnownTargets(t *testing.T) {
	b := New(0x5000, 0x5000)

	// Slot 0: a 4-byte placeholder jump to slot 2, followed by 4 filler
	// bytes that stand in for the jump's own instruction length.
	b.MarkSlotStart(0)
	siteOff := b.AppendCode([]byte{0, 0, 0, 0})
	b.AppendCode([]byte{0xaa, 0xaa, 0xaa, 0xaa})
	b.RecordPatch(siteOff, 4, 0x5000+4*2)

	// Slot 1: untranslated gap (no code), slot 2: one byte of "real" code.
	b.MarkSlotStart(2)
	targetOff := b.AppendCode([]byte{0xcc})

	b.ResolvePatches()

	rel := int32(b.Code[siteOff]) | int32(b.Code[siteOff+1])<<8 |
		int32(b.Code[siteOff+2])<<16 | int32(b.Code[siteOff+3])<<24
	want := int32(targetOff - (siteOff + 4))
	if rel != want {
		t.Fatalf("resolved displacement = %d, want %d", rel, want)
	}
	if b.Unresolved() {
		t.Fatal("Unresolved() should be false once the only patch resolved")
	}
}

func TestResolvePatchesLeavesUnknownTargetForRecompile(t *testing.T) {
	b := New(0x6000, 0x6000)
	b.MarkSlotStart(0)
	siteOff := b.AppendCode([]byte{0, 0, 0, 0})
	// Target slot 10 is never marked as emitted.
	b.RecordPatch(siteOff, 4, 0x6000+4*10)

	b.ResolvePatches()

	for i := 0; i < 4; i++ {
		if b.Code[siteOff+i] != 0 {
			t.Fatalf("unresolved patch byte %d = %#x, want 0 (untouched)", i, b.Code[siteOff+i])
		}
	}
	if !b.Unresolved() {
		t.Fatal("Unresolved() should report true while a patch target is unemitted")
	}
}

func TestRecordPatchSpansMultipleTables(t *testing.T) {
	b := New(0x7000, 0x7000)
	b.MarkSlotStart(0)
	// Record more patches than fit in one fixed-size patchTable to
	// exercise the linked-table growth path.
	for i := 0; i < patchTableSize+5; i++ {
		off := b.AppendCode([]byte{0, 0, 0, 0})
		b.RecordPatch(off, 4, 0x7000)
	}
	b.ResolvePatches()
	if b.Unresolved() {
		t.Fatal("all patches target slot 0, which is emitted; none should be unresolved")
	}
}
