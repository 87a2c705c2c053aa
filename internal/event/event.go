/*
ppc32jit - Pending-IRQ/timer event scheduler.

Adapted from the teacher's event scheduler
(_examples/rcornwell-S370/emu/event/event.go): a time-ordered linked
list of callbacks, each carrying a relative delay to the event before
it, advanced one decrement at a time. Here it exists so the executor's
compile-then-run loop has something concrete to consult at block
boundaries (spec.md 4.10's "pending IRQ/timer event list"), instead of
inventing its own scheduler shape.
*/
package event

// Callback fires when an event's delay reaches zero. iarg is an
// opaque argument supplied at registration, e.g. a device number or
// interrupt line.
type Callback func(iarg int)

type event struct {
	time int // cycles remaining relative to the previous event
	cb    Callback
	iarg  int
	prev, next *event
}

// List is one CPU's pending-event queue (spec.md 5: "each CPU core
// owns ... a pending IRQ/timer event list").
type List struct {
	head, tail *event
}

// NewList returns an empty event list.
func NewList() *List { return &List{} }

// Add schedules cb to fire after the given number of cycles. A delay
// of 0 fires immediately and is not queued, matching the teacher's
// AddEvent.
func (l *List) Add(cb Callback, delay int, iarg int) {
	if delay <= 0 {
		cb(iarg)
		return
	}

	ev := &event{time: delay, cb: cb, iarg: iarg}

	cur := l.head
	if cur == nil {
		l.head, l.tail = ev, ev
		return
	}

	for cur != nil {
		if ev.time <= cur.time {
			cur.time -= ev.time
			ev.prev = cur.prev
			ev.next = cur
			cur.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				l.head = ev
			}
			return
		}
		ev.time -= cur.time
		cur = cur.next
	}

	ev.prev = l.tail
	l.tail.next = ev
	l.tail = ev
}

// Cancel removes the first queued event whose iarg matches, if any; cb
// is not compared.
func (l *List) Cancel(cb Callback, iarg int) {
	for cur := l.head; cur != nil; cur = cur.next {
		if cur.iarg != iarg {
			continue
		}
		if cur.next != nil {
			cur.next.time += cur.time
			cur.next.prev = cur.prev
		} else {
			l.tail = cur.prev
		}
		if cur.prev != nil {
			cur.prev.next = cur.next
		} else {
			l.head = cur.next
		}
		return
	}
}

// Advance moves time forward by t cycles, firing every event whose
// remaining delay reaches zero or below, in order.
func (l *List) Advance(t int) {
	cur := l.head
	if cur == nil {
		return
	}
	cur.time -= t
	for cur != nil && cur.time <= 0 {
		cur.cb(cur.iarg)
		l.head = cur.next
		if l.head != nil {
			l.head.prev = nil
		} else {
			l.tail = nil
		}
		cur = l.head
	}
}

// Any reports whether any event is still pending.
func (l *List) Any() bool { return l.head != nil }
