// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"encoding/binary"

	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/gen/link"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"golang.org/x/xerrors"
)

const (
	opcodeLD  = 58 // DS-form loads.
	opcodeSTD = 62 // DS-form stores.
)

// islandDistance is how far a pending conditional branch may lag behind the
// current address before it is redirected through an island.
const islandDistance = 0x7000

var linker Linker

// Linker implements gen.Linker.
type Linker struct{}

func (Linker) Patch(c *gen.Ctx, s link.Site, target int32) bool {
	insn := c.Text.Word(s.Addr)

	switch s.Kind {
	case link.Rel14:
		disp := int64(target) - int64(s.Addr) + s.Addend
		if !in.FieldBD.Fits(disp) {
			return false
		}
		c.Text.SetWord(s.Addr, in.FieldBD.Insert(insn, disp))

	case link.Rel24:
		disp := int64(target) - int64(s.Addr) + s.Addend
		if !in.FieldLI.Fits(disp) {
			return false
		}
		c.Text.SetWord(s.Addr, in.FieldLI.Insert(insn, disp))

	case link.Addr16:
		value := int64(target) + s.Addend
		f := displacementField(insn)
		if !f.Fits(value) {
			return false
		}
		c.Text.SetWord(s.Addr, f.Insert(insn, value))

	case link.Addr32:
		value := int64(target) + s.Addend
		lo := int64(int16(value))
		hi := (value - lo) >> 16

		if c.Caps.RegBits == 32 {
			if value != int64(uint32(value)) && value != int64(int32(value)) {
				return false
			}
			hi = int64(int16(hi))
		} else if hi != int64(int16(hi)) {
			return false
		}

		low := c.Text.Word(s.Addr + 4)
		f := displacementField(low)
		if !f.Fits(lo) {
			return false
		}
		c.Text.SetWord(s.Addr, in.FieldSI.Insert(insn, hi))
		c.Text.SetWord(s.Addr+4, f.Insert(low, lo))

	default:
		return false
	}

	return true
}

func displacementField(insn uint32) in.Field {
	switch in.PrimaryOpcode(insn) {
	case opcodeLD, opcodeSTD:
		return in.FieldDS

	default:
		return in.FieldSI
	}
}

// branch to a label.
func branch(c *gen.Ctx, l *link.L, linked bool) {
	c.Ref(c.Text.Addr, l, link.Rel24, 0)
	if linked {
		c.Insn(in.B.LILink(0))
	} else {
		c.Insn(in.B.LI(0))
	}
}

// branchCond to a label: bc with the given options.  A backward target out
// of range is reached with an inverted bc over an unconditional branch.
func branchCond(c *gen.Ctx, bo, bi uint32, l *link.L, linked bool) {
	if l.Resolved() && !in.FieldBD.Fits(int64(l.Addr-c.Text.Addr)) {
		c.Insn(in.BC.BoBiBD(invertBO(bo), bi, 8))
		branch(c, l, linked)
		return
	}

	c.Ref(c.Text.Addr, l, link.Rel14, 0)
	insn := in.BC.BoBiBD(bo, bi, 0)
	if linked {
		insn |= in.LK
	}
	c.Insn(insn)
}

func invertBO(bo uint32) uint32 {
	switch bo {
	case in.BOCondTrue:
		return in.BOCondFalse

	case in.BOCondFalse:
		return in.BOCondTrue

	default:
		return bo
	}
}

// maybeIsland redirects the pending conditional branches through an island
// of unconditional branches if the oldest one is about to go out of range.
func maybeIsland(c *gen.Ctx, reserve int32) {
	pending := c.PendingShortSites()
	if len(pending) == 0 || c.Text.Addr+reserve-pending[0].Addr < islandDistance {
		return
	}

	if debug.Enabled {
		debug.Printf("island at %#x: %d branches", c.Text.Addr, len(pending))
	}

	n := int32(len(pending))
	c.Insn(in.B.LI((n + 1) * 4))

	for _, s := range pending {
		entry := c.Text.Addr

		site, _ := s.Label.RemoveSite(s.Addr)
		c.Patch(site, entry)

		c.Ref(entry, s.Label, link.Rel24, 0)
		c.Insn(in.B.LI(0))
	}

	c.ShortSites = c.ShortSites[:0]
}

// JumpWords encodes the contents of a jump slot.  On 64-bit hosts the slot
// holds two instructions which update the TB register; they are followed by
// mtctr and bcctr which are used if the target is beyond the reach of a
// direct branch.  On 32-bit hosts it holds a single branch.
//
// Addresses are absolute: the slot, the TB register value of the block, and
// the target (the body of another block, or the reset address).
func JumpWords(order binary.ByteOrder, wide bool, slot, tb, target uint64) (b []byte, err error) {
	if !wide {
		disp := int64(target - slot)
		if !in.FieldLI.Fits(disp) {
			err = xerrors.Errorf("jump target %#x out of range of slot at %#x", target, slot)
			return
		}
		b = make([]byte, 4)
		order.PutUint32(b, in.B.LI(int32(disp)))
		return
	}

	tbDiff := int64(target - tb)
	brDiff := int64(target - (slot + 4))

	var i1, i2 uint32

	if tbDiff == int64(int16(tbDiff)) && in.FieldLI.Fits(brDiff) {
		i1 = in.ADDI.RtRaSI(RegTB, RegTB, int32(tbDiff))
		i2 = in.B.LI(int32(brDiff))
	} else {
		lo := int64(int16(tbDiff))
		hi := (tbDiff - lo) >> 16
		if hi != int64(int16(hi)) {
			err = xerrors.Errorf("jump target %#x out of range of block at %#x", target, tb)
			return
		}
		i1 = in.ADDIS.RtRaSI(RegTB, RegTB, int32(hi))
		i2 = in.ADDI.RtRaSI(RegTB, RegTB, int32(lo))
	}

	b = make([]byte, 8)
	order.PutUint32(b[0:], i1)
	order.PutUint32(b[4:], i2)
	return
}
