// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"encoding/binary"
	"math/bits"

	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/gen/link"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/ir"
)

// MoveImm materializes an integer constant.  32-bit values are sign-extended
// first; 64-bit values require a 64-bit host.
func MoveImm(c *gen.Ctx, t ir.Type, r reg.R, value int64) {
	movi(c, t, r, value)
}

func movi(c *gen.Ctx, t ir.Type, r reg.R, v int64) {
	if t == ir.I32 {
		v = int64(int32(v))
	} else if c.Caps.RegBits == 32 {
		panic(errors.Internalf("64-bit constant %#x on 32-bit host", v))
	}

	if debug.Enabled {
		debug.Printf("movi %s, %#x", r, v)
	}

	// Short immediate.
	if v == int64(int16(v)) {
		c.Insn(in.ADDI.RtRaSI(r, 0, int32(v)))
		return
	}

	// Address near the body.
	tbDiff, tbOK := tbDiff(c, v)
	if tbOK && tbDiff == int64(int16(tbDiff)) {
		c.Insn(in.ADDI.RtRaSI(r, RegTB, int32(tbDiff)))
		return
	}

	// High/low halves.
	if c.Caps.RegBits == 32 || v == int64(int32(v)) {
		c.Insn(in.ADDIS.RtRaSI(r, 0, int32(v>>16)))
		if v&0xffff != 0 {
			c.Insn(in.ORI.RaRsUI(r, r, uint32(v)&0xffff))
		}
		return
	}
	if v == int64(uint32(v)) && v&0x8000 == 0 {
		c.Insn(in.ADDI.RtRaSI(r, 0, int32(int16(v))))
		c.Insn(in.ORIS.RaRsUI(r, r, uint32(v>>16)&0xffff))
		return
	}

	// Masked 16-bit value.
	if v > 0 && v&0x8000 != 0 {
		if tmp := uint64(v) | 0x7fff; tmp&(tmp+1) == 0 {
			c.Insn(in.ADDI.RtRaSI(r, 0, int32(int16(v))))
			rld(c, in.RLDICL, r, r, 0, uint32(bits.LeadingZeros64(tmp+1)+1))
			return
		}
	}

	// Shifted short immediate.
	shift := uint32(bits.TrailingZeros64(uint64(v)))
	if tmp := v >> shift; tmp == int64(int16(tmp)) {
		c.Insn(in.ADDI.RtRaSI(r, 0, int32(tmp)))
		shli64(c, r, r, shift)
		return
	}
	shift = uint32(bits.LeadingZeros64(uint64(v)))
	if tmp := v << shift; tmp == int64(int16(tmp)) {
		c.Insn(in.ADDI.RtRaSI(r, 0, int32(tmp)))
		shri64(c, r, r, shift)
		return
	}

	// Address within 2 GiB of the body.
	if tbOK && tbDiff == int64(int32(tbDiff)) {
		addImm(c, r, RegTB, tbDiff)
		return
	}

	if poolLoadInt(c, r, v) {
		return
	}

	hi := v >> 32
	movi(c, ir.I32, r, hi)
	if hi != 0 {
		shli64(c, r, r, 32)
	}
	if v&0xffff0000 != 0 {
		c.Insn(in.ORIS.RaRsUI(r, r, uint32(v>>16)&0xffff))
	}
	if v&0xffff != 0 {
		c.Insn(in.ORI.RaRsUI(r, r, uint32(v)&0xffff))
	}
}

// tbDiff is the displacement of an absolute address from the body.
func tbDiff(c *gen.Ctx, v int64) (int64, bool) {
	if !c.UseTB() {
		return 0, false
	}
	tb, ok := c.AbsAddr(c.TB)
	if !ok {
		return 0, false
	}
	return v - int64(tb), true
}

// poolLoadInt loads a 64-bit constant from the pool with an addis/ld pair,
// also when a 16-bit displacement would do.
func poolLoadInt(c *gen.Ctx, r reg.R, v int64) bool {
	if !c.UseTB() || r == RegZero {
		return false
	}

	var data [8]byte
	c.Caps.Order().PutUint64(data[:], uint64(v))
	e := c.Pool.Add(data[:])

	c.Ref(c.Text.Addr, &e.Label, link.Addr32, -int64(c.TB))
	c.Insn(in.ADDIS.RtRaSI(r, RegTB, 0))
	c.Insn(in.LD.RtRaDS(r, r, 0))
	return true
}

// poolAddr loads the address of a pool entry into r (not R0).
func poolAddr(c *gen.Ctx, r reg.R, data []byte) {
	e := c.Pool.Add(data)

	switch {
	case c.UseTB() && !c.LongPool:
		c.Ref(c.Text.Addr, &e.Label, link.Addr16, -int64(c.TB))
		c.Insn(in.ADDI.RtRaSI(r, RegTB, 0))

	case c.UseTB():
		c.Ref(c.Text.Addr, &e.Label, link.Addr32, -int64(c.TB))
		c.Insn(in.ADDIS.RtRaSI(r, RegTB, 0))
		c.Insn(in.ADDI.RtRaSI(r, r, 0))

	case c.TextAddr != 0 && c.TextAddr>>32 == 0:
		c.Ref(c.Text.Addr, &e.Label, link.Addr32, int64(c.TextAddr))
		c.Insn(in.ADDIS.RtRaSI(r, 0, 0))
		c.Insn(in.ADDI.RtRaSI(r, r, 0))

	default:
		panic(errors.Internal("constant pool is not addressable"))
	}
}

// poolAddressable indicates that poolAddr can be used.
func poolAddressable(c *gen.Ctx) bool {
	return c.UseTB() || (c.TextAddr != 0 && c.TextAddr>>32 == 0)
}

// maskOperand32 recognizes contiguous runs of ones: 0..01..1, 1..10..0 and
// 0..01..10..0.  The bounds are in IBM bit numbering for rlwinm.
func maskOperand32(x uint32) (mb, me uint32, ok bool) {
	if x == 0 || x == ^uint32(0) {
		return
	}

	lsb := x & -x
	test := x + lsb
	if test&(test-1) != 0 {
		return
	}

	me = uint32(bits.LeadingZeros32(lsb))
	if test != 0 {
		mb = uint32(bits.LeadingZeros32(test&-test)) + 1
	}
	ok = true
	return
}

// maskOperand64 recognizes 1..10..0 (rldicr) and 0..01..1 (rldicl).
func maskOperand64(x uint64) (mb, me uint32, ok bool) {
	if x == 0 {
		return
	}

	lsb := x & -x

	if x == -lsb {
		return 0, uint32(bits.LeadingZeros64(lsb)), true
	}
	if lsb == 1 && x&(x+1) == 0 {
		return uint32(bits.LeadingZeros64(x+1)) + 1, 63, true
	}
	return
}

func andi32(c *gen.Ctx, dst, src reg.R, x uint32) {
	if mb, me, ok := maskOperand32(x); ok {
		rlw(c, in.RLWINM, dst, src, 0, mb, me)
		return
	}

	switch {
	case x&0xffff == x:
		c.Insn(in.ANDI.RaRsUI(dst, src, x))

	case x&0xffff0000 == x:
		c.Insn(in.ANDIS.RaRsUI(dst, src, x>>16))

	default:
		movi(c, ir.I32, RegZero, int64(int32(x)))
		c.Insn(in.AND.RaRsRb(dst, src, RegZero))
	}
}

func andi64(c *gen.Ctx, dst, src reg.R, x uint64) {
	if mb, me, ok := maskOperand64(x); ok {
		if mb == 0 {
			rld(c, in.RLDICR, dst, src, 0, me)
		} else {
			rld(c, in.RLDICL, dst, src, 0, mb)
		}
		return
	}

	switch {
	case x&0xffff == x:
		c.Insn(in.ANDI.RaRsUI(dst, src, uint32(x)))

	case x&0xffff0000 == x:
		c.Insn(in.ANDIS.RaRsUI(dst, src, uint32(x>>16)))

	default:
		movi(c, ir.I64, RegZero, int64(x))
		c.Insn(in.AND.RaRsRb(dst, src, RegZero))
	}
}

// zori applies ori/xori (and their shifted forms) to the halves of a 32-bit
// immediate.
func zori(c *gen.Ctx, lo, hi in.RegRegUImm16, dst, src reg.R, x uint32) {
	if x>>16 != 0 {
		c.Insn(hi.RaRsUI(dst, src, x>>16))
		src = dst
	}
	if x&0xffff != 0 {
		c.Insn(lo.RaRsUI(dst, src, x&0xffff))
		src = dst
	}
	if src != dst {
		c.Insn(in.OR.RaRsRb(dst, src, src))
	}
}

func ori32(c *gen.Ctx, dst, src reg.R, x uint32)  { zori(c, in.ORI, in.ORIS, dst, src, x) }
func xori32(c *gen.Ctx, dst, src reg.R, x uint32) { zori(c, in.XORI, in.XORIS, dst, src, x) }

// dupConst replicates an element across 64 bits.
func dupConst(elem uint8, v int64) uint64 {
	switch elem {
	case ir.Elem8:
		return uint64(uint8(v)) * 0x0101010101010101

	case ir.Elem16:
		return uint64(uint16(v)) * 0x0001000100010001

	case ir.Elem32:
		return uint64(uint32(v)) * 0x0000000100000001

	default:
		return uint64(v)
	}
}

func putPattern(order binary.ByteOrder, b []byte, pattern uint64) {
	for i := 0; i < len(b); i += 8 {
		order.PutUint64(b[i:], pattern)
	}
}
