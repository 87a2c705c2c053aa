package device

import "testing"

type fakeNotifier struct{ got uint32 }

func (f *fakeNotifier) NotifyWrite(physPage uint32) { f.got = physPage }

func TestNotifyWriteForwardsToRegisteredNotifier(t *testing.T) {
	f := &fakeNotifier{}
	RegisterWriteNotifier(f)
	defer RegisterWriteNotifier(nil)

	NotifyWrite(0x4000)
	if f.got != 0x4000 {
		t.Fatalf("got %#x, want 0x4000", f.got)
	}
}

func TestNotifyWriteNilNotifierIsNoOp(t *testing.T) {
	RegisterWriteNotifier(nil)
	NotifyWrite(0x1234) // must not panic
}

func TestDeliverIRQForwardsToRegisteredHandler(t *testing.T) {
	var got any
	RegisterIRQHandler(func(cpu any) { got = cpu })
	defer RegisterIRQHandler(nil)

	DeliverIRQ("fake-cpu")
	if got != "fake-cpu" {
		t.Fatalf("got %v, want fake-cpu", got)
	}
}

func TestCheckBreakpointInvokesHandlerOnce(t *testing.T) {
	var hits int
	RegisterBreakpointHandler(func(cpu any) { hits++ })
	defer RegisterBreakpointHandler(nil)

	SetBreakpoint(0x500)
	defer ClearBreakpoint(0x500)

	if !CheckBreakpoint(nil, 0x500) {
		t.Fatal("CheckBreakpoint should report true for a set breakpoint")
	}
	if hits != 1 {
		t.Fatalf("handler invoked %d times, want 1", hits)
	}
	if CheckBreakpoint(nil, 0x501) {
		t.Fatal("CheckBreakpoint should report false for an address with no breakpoint")
	}
}

func TestClearBreakpointRemovesIt(t *testing.T) {
	SetBreakpoint(0x600)
	ClearBreakpoint(0x600)
	if CheckBreakpoint(nil, 0x600) {
		t.Fatal("CheckBreakpoint should report false after ClearBreakpoint")
	}
}
