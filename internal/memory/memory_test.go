package memory

import (
	"testing"

	"github.com/rcornwell/ppc32jit/internal/device"
)

type notifyFunc func(physPage uint32)

func (f notifyFunc) NotifyWrite(physPage uint32) { f(physPage) }

func TestWriteWordThenReadWordRoundTrips(t *testing.T) {
	m := New(PageSize * 4)
	if bad := m.WriteWord(0x1000, 0xDEADBEEF); bad {
		t.Fatal("WriteWord reported out of bounds")
	}
	v, bad := m.ReadWord(0x1000)
	if bad {
		t.Fatal("ReadWord reported out of bounds")
	}
	if v != 0xDEADBEEF {
		t.Fatalf("ReadWord = %#x, want 0xDEADBEEF", v)
	}
}

func TestBigEndianByteOrder(t *testing.T) {
	m := New(PageSize)
	m.WriteWord(0, 0x01020304)
	b0, _ := m.ReadByte(0)
	b3, _ := m.ReadByte(3)
	if b0 != 0x01 || b3 != 0x04 {
		t.Fatalf("byte order wrong: byte0=%#x byte3=%#x, want 0x01 and 0x04", b0, b3)
	}
}

func TestOutOfBoundsAccessIsFlagged(t *testing.T) {
	m := New(PageSize)
	if _, bad := m.ReadWord(PageSize - 1); !bad {
		t.Fatal("ReadWord straddling the end of memory should report out of bounds")
	}
	if bad := m.WriteByte(PageSize, 0); !bad {
		t.Fatal("WriteByte past the end of memory should report out of bounds")
	}
}

func TestWriteSetsModifyKeyAndReadSetsAccessKey(t *testing.T) {
	m := New(PageSize)
	m.ReadByte(0)
	if m.Key(0)&KeyAccess == 0 {
		t.Fatal("ReadByte should set the access key bit")
	}
	m.WriteByte(4, 1)
	if m.Key(4)&KeyModify == 0 {
		t.Fatal("WriteByte should set the modify key bit")
	}
}

func TestWriteNotifiesSubscriberWithContainingPage(t *testing.T) {
	var notified uint32
	var got bool
	device.RegisterWriteNotifier(notifyFunc(func(physPage uint32) {
		notified = physPage
		got = true
	}))
	defer device.RegisterWriteNotifier(nil)

	m := New(PageSize * 2)
	m.WriteByte(PageSize+16, 0xff)

	if !got {
		t.Fatal("write did not notify the registered subscriber")
	}
	if notified != PageSize {
		t.Fatalf("notified page = %#x, want %#x", notified, PageSize)
	}
}

func TestLoadPageSnapshotsBigEndianWords(t *testing.T) {
	m := New(PageSize)
	m.WriteWord(0, 0x11223344)
	m.WriteWord(4, 0x55667788)

	dst := make([]uint32, 2)
	m.LoadPage(0, dst)
	if dst[0] != 0x11223344 || dst[1] != 0x55667788 {
		t.Fatalf("LoadPage = %#x %#x, want 0x11223344 0x55667788", dst[0], dst[1])
	}
}
