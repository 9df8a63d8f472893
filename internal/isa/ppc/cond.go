// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/ir"
)

// Condition register field used by comparisons, and the one used as the
// second half of double-word comparisons on 32-bit hosts.
const (
	crMain = 7
	crAux  = 6
)

// condBit is the CR bit tested for a condition, and whether it is tested for
// being clear.
type condBit struct {
	bit      uint32
	inverted bool
}

var condBits = [ir.NumConds]condBit{
	ir.EQ:  {in.CREQ, false},
	ir.NE:  {in.CREQ, true},
	ir.LT:  {in.CRLT, false},
	ir.GE:  {in.CRLT, true},
	ir.LE:  {in.CRGT, true},
	ir.GT:  {in.CRGT, false},
	ir.LTU: {in.CRLT, false},
	ir.GEU: {in.CRLT, true},
	ir.LEU: {in.CRGT, true},
	ir.GTU: {in.CRGT, false},
}

func condOf(cond ir.Cond) condBit {
	switch cond {
	case ir.Never, ir.Always:
		panic(errors.Internalf("trivial condition %s", cond))
	}
	return condBits[cond]
}

// branchOptions for a bc testing the condition in crMain.
func branchOptions(cond ir.Cond) (bo, bi uint32) {
	b := condOf(cond)
	bo = in.BOCondTrue
	if b.inverted {
		bo = in.BOCondFalse
	}
	bi = in.BI(crMain, b.bit)
	return
}

// cmp sets CR field cr according to a comparison of a and b.
func cmp(c *gen.Ctx, t ir.Type, cond ir.Cond, a reg.R, b ir.Operand, cr uint32) {
	if t == ir.I64 && c.Caps.RegBits == 32 {
		panic(errors.Internalf("64-bit comparison on 32-bit host"))
	}
	wide := t == ir.I64

	if b.IsConst() {
		v := b.Value
		if t == ir.I32 {
			v = int64(int32(v))
		}

		signed := v == int64(int16(v))
		unsigned := v == int64(uint16(v))

		switch {
		case (cond == ir.EQ || cond == ir.NE) && signed:
			c.Insn(in.CMPI.BfRaSI(cr, a, int32(v), wide))
			return

		case (cond == ir.EQ || cond == ir.NE) && unsigned:
			c.Insn(in.CMPLI.BfRaUI(cr, a, uint32(v), wide))
			return

		case !cond.Unsigned() && cond != ir.EQ && cond != ir.NE && signed:
			c.Insn(in.CMPI.BfRaSI(cr, a, int32(v), wide))
			return

		case cond.Unsigned() && unsigned:
			c.Insn(in.CMPLI.BfRaUI(cr, a, uint32(v), wide))
			return
		}

		movi(c, t, RegZero, v)
		b = ir.Reg(RegZero)
	}

	if cond.Unsigned() || cond == ir.EQ || cond == ir.NE {
		c.Insn(in.CMPL.BfRaRb(cr, a, b.Reg, wide))
	} else {
		c.Insn(in.CMP.BfRaRb(cr, a, b.Reg, wide))
	}
}

// cmp2 compares register pairs, leaving the result in the EQ bit of crMain.
func cmp2(c *gen.Ctx, cond ir.Cond, a, b ir.Operand) {
	al, ah := a.Reg, a.Hi
	bl, bh := halves(b)

	switch cond {
	case ir.EQ, ir.NE:
		op := in.CRAND
		if cond == ir.NE {
			op = in.CRNAND
		}
		cmp(c, ir.I32, cond, al, bl, crAux)
		cmp(c, ir.I32, cond, ah, bh, crMain)
		c.Insn(op.BtBaBb(in.BI(crMain, in.CREQ), in.BI(crAux, in.CREQ), in.BI(crMain, in.CREQ)))

	default:
		// High words decide unless equal, in which case the low words are
		// compared as unsigned.
		bit1, bit2 := uint32(in.CRGT), uint32(in.CRGT)
		switch cond {
		case ir.LT, ir.LTU:
			bit1, bit2 = in.CRLT, in.CRLT
		case ir.LE, ir.LEU:
			bit1, bit2 = in.CRLT, in.CRGT
		case ir.GE, ir.GEU:
			bit1, bit2 = in.CRGT, in.CRLT
		}

		op := in.CRAND
		if bit1 != bit2 {
			op = in.CRANDC
		}

		cmp(c, ir.I32, cond, ah, bh, crAux)
		cmp(c, ir.I32, cond.ToUnsigned(), al, bl, crMain)
		c.Insn(op.BtBaBb(in.BI(crMain, in.CREQ), in.BI(crAux, in.CREQ), in.BI(crMain, bit2)))
		c.Insn(in.CROR.BtBaBb(in.BI(crMain, in.CREQ), in.BI(crAux, bit1), in.BI(crMain, in.CREQ)))
	}
}

// halves of a pair operand; constants are split.
func halves(x ir.Operand) (lo, hi ir.Operand) {
	switch x.Kind {
	case ir.KindRegPair:
		return ir.Reg(x.Reg), ir.Reg(x.Hi)

	case ir.KindConst:
		return ir.Const(int64(int32(x.Value))), ir.Const(x.Value >> 32)

	default:
		panic(errors.Internalf("operand %s is not a pair", x))
	}
}

func brcond(c *gen.Ctx, op ir.Op) {
	a, b, cond, l := op.Args[0], op.Args[1], op.Args[2].Cond(), c.Label(op.Args[3])

	switch cond {
	case ir.Always:
		branch(c, l, false)
		return

	case ir.Never:
		return
	}

	if a.IsPair() {
		cmp2(c, cond, a, b)
		branchCond(c, in.BOCondTrue, in.BI(crMain, in.CREQ), l, false)
		return
	}

	cmp(c, op.Type, cond, a.Reg, b, crMain)
	bo, bi := branchOptions(cond)
	branchCond(c, bo, bi, l, false)
}

func setcond(c *gen.Ctx, op ir.Op) {
	dst, a, b, cond := op.Args[0].Reg, op.Args[1], op.Args[2], op.Args[3].Cond()
	t := op.Type

	switch cond {
	case ir.Always:
		movi(c, ir.I32, dst, 1)
		return

	case ir.Never:
		movi(c, ir.I32, dst, 0)
		return
	}

	if a.IsPair() {
		cmp2(c, cond, a, b)
		c.Insn(in.MFOCRF.RtCR(RegZero, crMain))
		rlw(c, in.RLWINM, dst, RegZero, 31, 31, 31)
		return
	}

	src := a.Reg

	if b.IsConst() && typedValue(t, b.Value) == 0 {
		switch cond {
		case ir.EQ:
			setcondEq0(c, t, dst, src)
			return

		case ir.NE:
			if t == ir.I32 && c.Caps.RegBits == 64 {
				ext32u(c, RegZero, src)
				src = RegZero
			}
			setcondNe0(c, dst, src)
			return

		case ir.GE:
			c.Insn(in.NOR.RaRsRb(dst, src, src))
			src = dst
			fallthrough

		case ir.LT:
			if t == ir.I32 {
				shri32(c, dst, src, 31)
			} else {
				shri64(c, dst, src, 63)
			}
			return
		}
	}

	if c.Caps.ISEL {
		cmp(c, t, cond, src, b, crMain)
		bit := condOf(cond)
		movi(c, ir.I32, dst, 1)
		if bit.inverted {
			// dst = bit ? 0 : 1
			c.Insn(in.ISEL.RtRaRbBc(dst, 0, dst, in.BI(crMain, bit.bit)))
		} else {
			movi(c, ir.I32, RegZero, 0)
			c.Insn(in.ISEL.RtRaRbBc(dst, dst, RegZero, in.BI(crMain, bit.bit)))
		}
		return
	}

	switch cond {
	case ir.EQ:
		setcondEq0(c, t, dst, setcondXor(c, t, src, b))

	case ir.NE:
		x := setcondXor(c, t, src, b)
		if t == ir.I32 && c.Caps.RegBits == 64 {
			ext32u(c, RegZero, x)
		}
		setcondNe0(c, dst, RegZero)

	default:
		var sh uint32
		var crop uint32

		switch cond {
		case ir.GT, ir.GTU:
			sh = 30
		case ir.LT, ir.LTU:
			sh = 29
		case ir.GE, ir.GEU:
			sh = 31
			crop = in.CRNOR.BtBaBb(in.BI(crMain, in.CREQ), in.BI(crMain, in.CRLT), in.BI(crMain, in.CRLT))
		case ir.LE, ir.LEU:
			sh = 31
			crop = in.CRNOR.BtBaBb(in.BI(crMain, in.CREQ), in.BI(crMain, in.CRGT), in.BI(crMain, in.CRGT))
		}

		cmp(c, t, cond, src, b, crMain)
		if crop != 0 {
			c.Insn(crop)
		}
		c.Insn(in.MFOCRF.RtCR(RegZero, crMain))
		rlw(c, in.RLWINM, dst, RegZero, sh, 31, 31)
	}
}

func typedValue(t ir.Type, v int64) int64 {
	if t == ir.I32 {
		return int64(uint32(v))
	}
	return v
}

func setcondEq0(c *gen.Ctx, t ir.Type, dst, src reg.R) {
	if t == ir.I32 {
		c.Insn(in.CNTLZW.RaRs(dst, src))
		shri32(c, dst, dst, 5)
	} else {
		c.Insn(in.CNTLZD.RaRs(dst, src))
		shri64(c, dst, dst, 6)
	}
}

// setcondNe0 uses the carry of src-1: it is set unless src is zero.
func setcondNe0(c *gen.Ctx, dst, src reg.R) {
	if dst != src {
		c.Insn(in.ADDIC.RtRaSI(dst, src, -1))
		c.Insn(in.SUBFE.RtRaRb(dst, dst, src))
	} else {
		c.Insn(in.ADDIC.RtRaSI(RegZero, src, -1))
		c.Insn(in.SUBFE.RtRaRb(dst, RegZero, src))
	}
}

// setcondXor leaves a^b in R0.
func setcondXor(c *gen.Ctx, t ir.Type, a reg.R, b ir.Operand) reg.R {
	if b.IsConst() {
		if v := typedValue(t, b.Value); v == int64(uint32(v)) {
			xori32(c, RegZero, a, uint32(v))
		} else {
			movi(c, ir.I64, RegZero, v)
			c.Insn(in.XOR.RaRsRb(RegZero, a, RegZero))
		}
	} else {
		c.Insn(in.XOR.RaRsRb(RegZero, a, b.Reg))
	}
	return RegZero
}

// movcond: dst = (c1 cond c2) ? v1 : v2.  Constant values are zero.
func movcond(c *gen.Ctx, op ir.Op) {
	dst, c1, c2 := op.Args[0].Reg, op.Args[1].Reg, op.Args[2]
	v1, v2, cond := op.Args[3], op.Args[4], op.Args[5].Cond()
	t := op.Type

	if v1.IsConst() && v2.IsConst() {
		movi(c, t, dst, 0)
		return
	}

	cmp(c, t, cond, c1, c2, crMain)

	if c.Caps.ISEL {
		bit := condOf(cond)
		if bit.inverted {
			v1, v2 = v2, v1
		}

		// RA of zero reads as zero; RB needs R0 cleared.
		a, b := reg.R(0), reg.R(0)
		if !v1.IsConst() {
			a = v1.Reg
		}
		if v2.IsConst() {
			movi(c, t, RegZero, 0)
		} else {
			b = v2.Reg
		}
		c.Insn(in.ISEL.RtRaRbBc(dst, a, b, in.BI(crMain, bit.bit)))
		return
	}

	if v2.IsReg() && v2.Reg == dst {
		cond = cond.Invert()
		v2 = v1
	} else if !v1.IsReg() || v1.Reg != dst {
		movOrZero(c, t, dst, v1)
	}

	bo, bi := branchOptions(cond)
	c.Insn(in.BC.BoBiBD(bo, bi, 8))
	movOrZero(c, t, dst, v2)
}

func movOrZero(c *gen.Ctx, t ir.Type, dst reg.R, x ir.Operand) {
	if x.IsConst() {
		movi(c, t, dst, 0)
	} else {
		mov(c, t, dst, x.Reg)
	}
}
