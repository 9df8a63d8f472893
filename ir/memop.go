// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
)

// MemOp describes a guest memory access.
type MemOp uint16

const (
	Size8  = MemOp(0)
	Size16 = MemOp(1)
	Size32 = MemOp(2)
	Size64 = MemOp(3)
	Size   = MemOp(3) // Mask.

	Sign  = MemOp(4)
	BSwap = MemOp(8)

	alignShift = 4
	AlignMask  = MemOp(7 << alignShift)

	Unaligned = MemOp(0)
	Aligned   = AlignMask // Natural alignment.
)

// AlignTo requires the access to be aligned to 1<<bits bytes.
func AlignTo(bits uint) MemOp {
	if bits == 0 || bits >= 7 {
		panic(fmt.Sprintf("invalid alignment bits: %d", bits))
	}
	return MemOp(bits << alignShift)
}

// SizeBits is log2 of the access size in bytes.
func (m MemOp) SizeBits() uint {
	return uint(m & Size)
}

func (m MemOp) Bytes() int {
	return 1 << m.SizeBits()
}

func (m MemOp) Signed() bool  { return m&Sign != 0 }
func (m MemOp) Swapped() bool { return m&BSwap != 0 }

// AlignBits is log2 of the required alignment in bytes.
func (m MemOp) AlignBits() uint {
	a := m & AlignMask
	if a == Aligned {
		return m.SizeBits()
	}
	return uint(a >> alignShift)
}

func (m MemOp) String() string {
	s := fmt.Sprintf("%d", 8<<m.SizeBits())
	if m.Signed() {
		s = "s" + s
	} else {
		s = "u" + s
	}
	if m.Swapped() {
		s += "_bswap"
	}
	if a := m.AlignBits(); a != 0 {
		s += fmt.Sprintf("_align%d", 1<<a)
	}
	return s
}

// Describe the access, e.g. "load, 4 bytes, zero-extend".
func (m MemOp) Describe(load bool) string {
	kind := "store"
	if load {
		kind = "load"
	}

	unit := "bytes"
	if m.Bytes() == 1 {
		unit = "byte"
	}

	desc := fmt.Sprintf("%s, %d %s", kind, m.Bytes(), unit)
	if load && m.Bytes() < 8 {
		if m.Signed() {
			desc += ", sign-extend"
		} else {
			desc += ", zero-extend"
		}
	}
	if m.Swapped() {
		desc += ", byte-swap"
	}
	return desc
}

// MemOpIdx combines MemOp with an MMU index.  It is the descriptor word
// passed to the runtime helpers.
type MemOpIdx uint32

func MakeMemOpIdx(m MemOp, mmuIdx int) MemOpIdx {
	if mmuIdx < 0 || mmuIdx > 15 {
		panic(fmt.Sprintf("invalid mmu index: %d", mmuIdx))
	}
	return MemOpIdx(uint32(m)<<4 | uint32(mmuIdx))
}

func (oi MemOpIdx) MemOp() MemOp { return MemOp(oi >> 4) }
func (oi MemOpIdx) MMUIdx() int  { return int(oi & 15) }

func (oi MemOpIdx) String() string {
	return fmt.Sprintf("%s@%d", oi.MemOp(), oi.MMUIdx())
}
