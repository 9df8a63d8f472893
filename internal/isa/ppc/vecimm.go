// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/gen/link"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/ir"
)

// MoveVecImm materializes a vector constant: value is replicated at the given
// element size.
func MoveVecImm(c *gen.Ctx, t ir.Type, elem uint8, r reg.R, value int64) {
	dupImm(c, t, elem, r, value)
}

func dupImm(c *gen.Ctx, t ir.Type, elem uint8, r reg.R, value int64) {
	pattern := dupConst(elem, value)

	if debug.Enabled {
		debug.Printf("dupi %s, %#016x", r, pattern)
	}

	if low := int64(int8(pattern)); low >= -16 && low < 16 {
		switch pattern {
		case dupConst(ir.Elem8, low):
			c.Insn(in.VSPLTISB.VtSIM(r, int32(low)))
			return

		case dupConst(ir.Elem16, low):
			c.Insn(in.VSPLTISH.VtSIM(r, int32(low)))
			return

		case dupConst(ir.Elem32, low):
			c.Insn(in.VSPLTISW.VtSIM(r, int32(low)))
			return
		}
	}

	if c.Caps.Has(gen.ISA300) && c.Caps.VSX && pattern == dupConst(ir.Elem8, int64(pattern)) {
		c.Insn(in.XXSPLTIB.VtIMM8(r, uint32(pattern&0xff)))
		return
	}

	if !poolAddressable(c) {
		dupViaStack(c, r, pattern)
		return
	}

	tmp := Tmp1(c.ABI)

	if c.Caps.VSX {
		var data [8]byte
		c.Caps.Order().PutUint64(data[:], pattern)
		base := poolIndex(c, tmp, data[:])
		if t == ir.V64 {
			c.Insn(in.LXSDX.VtRaRb(r, base, tmp))
		} else {
			c.Insn(in.LXVDSX.VtRaRb(r, base, tmp))
		}
		return
	}

	var data [16]byte
	putPattern(c.Caps.Order(), data[:], pattern)
	base := poolIndex(c, tmp, data[:])
	c.Insn(in.LVX.VtRaRb(r, base, tmp))
}

// poolIndex loads the index of a pool entry into tmp and returns the base
// register for an indexed load.
func poolIndex(c *gen.Ctx, tmp reg.R, data []byte) reg.R {
	if c.UseTB() && !c.LongPool {
		e := c.Pool.Add(data)
		c.Ref(c.Text.Addr, &e.Label, link.Addr16, -int64(c.TB))
		c.Insn(in.ADDI.RtRaSI(tmp, 0, 0))
		return RegTB
	}

	poolAddr(c, tmp, data)
	return 0
}

// dupViaStack builds the vector in the temporary buffer of the frame.
func dupViaStack(c *gen.Ctx, r reg.R, pattern uint64) {
	var data [16]byte
	putPattern(c.Caps.Order(), data[:], pattern)

	f := Layout(c)
	order := c.Caps.Order()

	for i := 0; i < len(data); i += 4 {
		movi(c, ir.I32, RegZero, int64(int32(order.Uint32(data[i:]))))
		c.Insn(in.STW.RtRaSI(RegZero, RegSP, f.TempBuf+int32(i)))
	}

	c.Insn(in.ADDI.RtRaSI(RegZero, RegSP, f.TempBuf))
	c.Insn(in.LVX.VtRaRb(r, 0, RegZero))
}
