// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppcsim

import (
	"encoding/binary"
	"fmt"

	"github.com/google/btree"
)

// Fault is a memory access outside of the mapped segments.
type Fault struct {
	Addr uint64
	Size int
}

func (f Fault) Error() string {
	return fmt.Sprintf("memory fault: %d bytes at %#x", f.Size, f.Addr)
}

type segment struct {
	addr uint64
	data []byte
}

func (s segment) contains(addr uint64, size int) bool {
	return addr >= s.addr && addr-s.addr+uint64(size) <= uint64(len(s.data))
}

// Memory is a sparse address space made of segments.  Segments alias the
// byte slices they were mapped with.
type Memory struct {
	segs  *btree.BTreeG[segment]
	order binary.ByteOrder
}

func newMemory(order binary.ByteOrder) *Memory {
	return &Memory{
		segs:  btree.NewG(4, func(a, b segment) bool { return a.addr < b.addr }),
		order: order,
	}
}

// Map b at addr.  Overlapping segments are not detected.
func (m *Memory) Map(addr uint64, b []byte) {
	m.segs.ReplaceOrInsert(segment{addr, b})
}

// Bytes of a mapped range.
func (m *Memory) Bytes(addr uint64, size int) ([]byte, error) {
	var found segment
	ok := false

	m.segs.DescendLessOrEqual(segment{addr: addr}, func(s segment) bool {
		found = s
		ok = true
		return false
	})

	if !ok || !found.contains(addr, size) {
		return nil, Fault{addr, size}
	}

	off := addr - found.addr
	return found.data[off : off+uint64(size)], nil
}

// Load an unsigned integer of 1, 2, 4 or 8 bytes.
func (m *Memory) Load(addr uint64, size int, reverse bool) (uint64, error) {
	b, err := m.Bytes(addr, size)
	if err != nil {
		return 0, err
	}

	order := m.order
	if reverse {
		order = swapped(order)
	}

	switch size {
	case 1:
		return uint64(b[0]), nil

	case 2:
		return uint64(order.Uint16(b)), nil

	case 4:
		return uint64(order.Uint32(b)), nil

	default:
		return order.Uint64(b), nil
	}
}

// Store the low bytes of x.
func (m *Memory) Store(addr uint64, size int, x uint64, reverse bool) error {
	b, err := m.Bytes(addr, size)
	if err != nil {
		return err
	}

	order := m.order
	if reverse {
		order = swapped(order)
	}

	switch size {
	case 1:
		b[0] = byte(x)

	case 2:
		order.PutUint16(b, uint16(x))

	case 4:
		order.PutUint32(b, uint32(x))

	default:
		order.PutUint64(b, x)
	}
	return nil
}

func swapped(order binary.ByteOrder) binary.ByteOrder {
	if order == binary.ByteOrder(binary.BigEndian) {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
