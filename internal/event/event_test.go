package event

import "testing"

func TestAddZeroDelayFiresImmediately(t *testing.T) {
	l := NewList()
	fired := false
	l.Add(func(iarg int) { fired = true }, 0, 1)
	if !fired {
		t.Fatal("a zero-delay event should fire synchronously inside Add")
	}
	if l.Any() {
		t.Fatal("an immediately-fired event should not be queued")
	}
}

func TestAdvanceFiresAtExactDelay(t *testing.T) {
	l := NewList()
	fired := false
	l.Add(func(iarg int) { fired = true }, 5, 7)

	l.Advance(4)
	if fired {
		t.Fatal("event fired before its delay elapsed")
	}
	l.Advance(1)
	if !fired {
		t.Fatal("event should fire once cumulative advance reaches its delay")
	}
}

func TestAdvancePassesIargThrough(t *testing.T) {
	l := NewList()
	var got int
	l.Add(func(iarg int) { got = iarg }, 1, 42)
	l.Advance(1)
	if got != 42 {
		t.Fatalf("iarg = %d, want 42", got)
	}
}

func TestCancelRemovesQueuedEvent(t *testing.T) {
	l := NewList()
	cb := func(iarg int) { t.Fatal("cancelled event must not fire") }
	l.Add(cb, 10, 99)
	l.Cancel(nil, 99) // Cancel matches by iarg, not cb identity, per List.Cancel
	l.Advance(10)
}

func TestAnyReportsPendingState(t *testing.T) {
	l := NewList()
	if l.Any() {
		t.Fatal("fresh list should report no pending events")
	}
	l.Add(func(iarg int) {}, 3, 1)
	if !l.Any() {
		t.Fatal("list with a queued event should report pending")
	}
}
