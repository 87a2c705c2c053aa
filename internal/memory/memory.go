/*
ppc32jit - Guest physical memory.

Copyright (c) 2024, Richard Cornwell

Permission is hereby granted, free of charge, to any person obtaining a
copy of this software and associated documentation files (the "Software"),
to deal in the Software without restriction, including without limitation
the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons to whom the
Software is furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package memory

import "github.com/rcornwell/ppc32jit/internal/device"

// PageShift/PageSize match PPC32_MIN_PAGE_SIZE from the original
// translator (4KB guest pages, the granularity the JIT compiles and
// the granularity physical-write invalidation works at).
const (
	PageShift = 12
	PageSize  = 1 << PageShift
	PageMask  = ^uint32(PageSize - 1)
)

// Key bits, mirroring the teacher's access/modify bits in emu/memory.
const (
	KeyAccess uint8 = 0x4
	KeyModify uint8 = 0x6
)

// Memory is flat guest-physical RAM, big-endian as the PPC guest sees
// it. Unlike the teacher's S370 memory (word-addressed uint32 array),
// this is byte-addressed so LBZ/STB and friends can be implemented
// without shifting tricks, matching how the original C emitters treat
// guest RAM as a byte array reachable through the MTS cache.
type Memory struct {
	ram  []byte
	key  []uint8 // one entry per page
	size uint32
}

// New allocates sizeBytes of guest physical RAM, rounded down to a
// whole number of pages.
func New(sizeBytes uint32) *Memory {
	npages := sizeBytes / PageSize
	return &Memory{
		ram:  make([]byte, npages*PageSize),
		key:  make([]uint8, npages),
		size: npages * PageSize,
	}
}

// Size returns the size of guest RAM in bytes.
func (m *Memory) Size() uint32 { return m.size }

// InBounds reports whether addr is a valid physical address.
func (m *Memory) InBounds(addr uint32) bool { return addr < m.size }

func (m *Memory) pageOf(addr uint32) uint32 { return addr >> PageShift }

// ReadByte/ReadHalf/ReadWord read big-endian values from guest RAM,
// setting the access bit on the containing page's storage key.
func (m *Memory) ReadByte(addr uint32) (uint8, bool) {
	if !m.InBounds(addr) {
		return 0, true
	}
	m.key[m.pageOf(addr)] |= KeyAccess
	return m.ram[addr], false
}

func (m *Memory) ReadHalf(addr uint32) (uint16, bool) {
	if !m.InBounds(addr) || !m.InBounds(addr+1) {
		return 0, true
	}
	m.key[m.pageOf(addr)] |= KeyAccess
	return uint16(m.ram[addr])<<8 | uint16(m.ram[addr+1]), false
}

func (m *Memory) ReadWord(addr uint32) (uint32, bool) {
	if !m.InBounds(addr) || !m.InBounds(addr+3) {
		return 0, true
	}
	m.key[m.pageOf(addr)] |= KeyAccess
	return uint32(m.ram[addr])<<24 | uint32(m.ram[addr+1])<<16 |
		uint32(m.ram[addr+2])<<8 | uint32(m.ram[addr+3]), false
}

// WriteByte/WriteHalf/WriteWord store big-endian values into guest RAM,
// set the modify bit, and synchronously notify any subscriber (the
// block cache) so that a stale TCB on this physical page is evicted
// before the store instruction retires, per spec.md 5's ordering rule.
func (m *Memory) WriteByte(addr uint32, v uint8) bool {
	if !m.InBounds(addr) {
		return true
	}
	m.ram[addr] = v
	m.touch(addr)
	return false
}

func (m *Memory) WriteHalf(addr uint32, v uint16) bool {
	if !m.InBounds(addr) || !m.InBounds(addr+1) {
		return true
	}
	m.ram[addr] = uint8(v >> 8)
	m.ram[addr+1] = uint8(v)
	m.touch(addr)
	return false
}

func (m *Memory) WriteWord(addr uint32, v uint32) bool {
	if !m.InBounds(addr) || !m.InBounds(addr+3) {
		return true
	}
	m.ram[addr] = uint8(v >> 24)
	m.ram[addr+1] = uint8(v >> 16)
	m.ram[addr+2] = uint8(v >> 8)
	m.ram[addr+3] = uint8(v)
	m.touch(addr)
	return false
}

func (m *Memory) touch(addr uint32) {
	m.key[m.pageOf(addr)] |= KeyModify
	device.NotifyWrite(addr & PageMask)
}

// LoadPage copies one guest page of raw bytes out, the way TCB
// creation snapshots ppc_code for translation (spec.md 4.7 step 1).
func (m *Memory) LoadPage(physPage uint32, dst []uint32) {
	base := physPage & PageMask
	for i := range dst {
		off := base + uint32(i)*4
		if !m.InBounds(off + 3) {
			dst[i] = 0
			continue
		}
		dst[i] = uint32(m.ram[off])<<24 | uint32(m.ram[off+1])<<16 |
			uint32(m.ram[off+2])<<8 | uint32(m.ram[off+3])
	}
}

// Key returns the storage key for the page containing addr.
func (m *Memory) Key(addr uint32) uint8 {
	if !m.InBounds(addr) {
		return 0
	}
	return m.key[m.pageOf(addr)]
}
