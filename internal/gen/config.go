// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"encoding/binary"
	"fmt"

	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/ir"
)

// ISALevel of the Power ISA.
type ISALevel uint8

const (
	ISABase = ISALevel(iota)
	ISA206
	ISA207
	ISA300
)

func (l ISALevel) String() string {
	switch l {
	case ISABase:
		return "base"

	case ISA206:
		return "2.06"

	case ISA207:
		return "2.07"

	case ISA300:
		return "3.00"

	default:
		return fmt.Sprintf("<invalid isa level %d>", l)
	}
}

// Capabilities of the host processor.
type Capabilities struct {
	RegBits   int // 32 or 64.
	ISA       ISALevel
	ISEL      bool
	AltiVec   bool
	VSX       bool
	BigEndian bool
}

func (c *Capabilities) Order() binary.ByteOrder {
	if c.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (c *Capabilities) Has(l ISALevel) bool {
	return c.ISA >= l
}

// StateLayout describes the parts of the CPU state structure which are
// accessed by generated code.  Offsets are relative to the context register.
type StateLayout struct {
	EnvReg reg.R // Context register; callee-saved.

	// The mask/table pair of MMU index i is at TLBBase + i*TLBStride.
	TLBBase     int32
	TLBStride   int32
	MaskOffset  int32 // Within the pair.
	TableOffset int32 // Within the pair.

	EntryBits       uint // Log2 of TLB entry size.
	ComparatorRead  int32
	ComparatorWrite int32
	Addend          int32

	PageBits      uint
	GuestAddrBits int // 32 or 64.
}

// TLBMaskTable offset of the mask/table pair for an MMU index.
func (l *StateLayout) TLBMaskTable(mmuIdx int) int32 {
	return l.TLBBase + int32(mmuIdx)*l.TLBStride
}

// Helpers are absolute addresses of the runtime memory access functions.
// They are indexed by MemOp&(BSwap|Size).  Load helpers return zero-extended
// values.
type Helpers struct {
	Load  [16]uint64
	Store [16]uint64
}

func HelperIndex(m ir.MemOp) int {
	return int(m & (ir.BSwap | ir.Size))
}
