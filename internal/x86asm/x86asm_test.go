package x86asm

import (
	"bytes"
	"testing"
)

func TestMovRegImm32Encoding(t *testing.T) {
	got := MovRegImm32(EAX, 0x12345678)
	want := []byte{0xb8, 0x78, 0x56, 0x34, 0x12}
	if !bytes.Equal(got, want) {
		t.Fatalf("MovRegImm32(EAX, ...) = % x, want % x", got, want)
	}
}

func TestMovRegRegEncoding(t *testing.T) {
	got := MovRegReg(ECX, EAX, 4)
	want := []byte{0x89, modrm(3, EAX, ECX)}
	if !bytes.Equal(got, want) {
		t.Fatalf("MovRegReg(ECX, EAX, 4) = % x, want % x", got, want)
	}
}

func TestAluRegRegEncodesOpInReg(t *testing.T) {
	add := AluRegReg(ADD, EAX, EBX)
	sub := AluRegReg(SUB, EAX, EBX)
	if add[0] == sub[0] {
		t.Fatal("ADD and SUB should encode with different opcode bytes")
	}
}

func TestMembaseZeroDispOmitsDispByte(t *testing.T) {
	got := MovRegMembase(EAX, ESI, 0, 4)
	// 0x8b + modrm(mod=0,reg=EAX,rm=ESI), no displacement bytes.
	want := []byte{0x8b, modrm(0, EAX, ESI)}
	if !bytes.Equal(got, want) {
		t.Fatalf("zero-displacement membase = % x, want % x", got, want)
	}
}

func TestMembaseEBPBaseForcesDispByteEvenAtZero(t *testing.T) {
	// EBP as a bare base with mod=00 is the disp32-only addressing form
	// in real x86, so membase() must emit an explicit disp8 of 0.
	got := MovRegMembase(EAX, EBP, 0, 4)
	want := []byte{0x8b, modrm(1, EAX, EBP), 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("EBP-base zero-disp membase = % x, want % x", got, want)
	}
}

func TestMembaseESPBaseAppendsSIB(t *testing.T) {
	got := MovRegMembase(EAX, ESP, 0, 4)
	want := []byte{0x8b, modrm(0, EAX, ESP), 0x24}
	if !bytes.Equal(got, want) {
		t.Fatalf("ESP-base membase = % x, want % x (needs SIB byte)", got, want)
	}
}

func TestMembaseLargeDispUsesDisp32(t *testing.T) {
	got := MovRegMembase(EAX, ESI, 1000, 4)
	if len(got) != 2+4 {
		t.Fatalf("large displacement should use a 4-byte disp32, got %d bytes: % x", len(got), got)
	}
}

func TestJcc32PlaceholderThenPatchRel32(t *testing.T) {
	code, dispOff := Jcc32Placeholder(CCE)
	if len(code) != 6 {
		t.Fatalf("Jcc32 encoding should be 6 bytes (0F 8x + rel32), got %d", len(code))
	}
	PatchRel32(code, dispOff, 0x11223344)
	want := []byte{0x0f, 0x80 + CCE, 0x44, 0x33, 0x22, 0x11}
	if !bytes.Equal(code, want) {
		t.Fatalf("patched Jcc32 = % x, want % x", code, want)
	}
}

func TestJcc8PlaceholderThenPatchRel8(t *testing.T) {
	code, dispOff := Jcc8Placeholder(CCNE)
	PatchRel8(code, dispOff, -5)
	want := []byte{0x70 + CCNE, 0xfb}
	if !bytes.Equal(code, want) {
		t.Fatalf("patched Jcc8 = % x, want % x", code, want)
	}
}

// TestEncodingIsDeterministic is Testable Property 1: the same
// arguments always produce byte-identical output.
func TestEncodingIsDeterministic(t *testing.T) {
	a := MovRegMembase(EDX, EDI, 64, 4)
	b := MovRegMembase(EDX, EDI, 64, 4)
	if !bytes.Equal(a, b) {
		t.Fatal("identical encoder calls produced different byte streams")
	}
}

func TestSetCCWritesLowByteOnly(t *testing.T) {
	got := SetCC(EAX, CCB)
	want := []byte{0x0f, 0x90 + CCB, modrm(3, 0, EAX)}
	if !bytes.Equal(got, want) {
		t.Fatalf("SetCC(EAX, CCB) = % x, want % x", got, want)
	}
}
