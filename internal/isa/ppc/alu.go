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

// binaryInsns by type: 32-bit and 64-bit variants.
type binaryInsns [2]in.RegRegReg

func (b binaryInsns) of(t ir.Type) in.RegRegReg {
	if t == ir.I64 {
		return b[1]
	}
	return b[0]
}

var (
	insnMul   = binaryInsns{in.MULLW, in.MULLD}
	insnMuluh = binaryInsns{in.MULHWU, in.MULHDU}
	insnMulsh = binaryInsns{in.MULHW, in.MULHD}
	insnDiv   = binaryInsns{in.DIVW, in.DIVD}
	insnDivu  = binaryInsns{in.DIVWU, in.DIVDU}
	insnRem   = binaryInsns{in.MODSW, in.MODSD}
	insnRemu  = binaryInsns{in.MODUW, in.MODUD}
)

type logicInsns [2]in.LogicRegRegReg

func (l logicInsns) of(t ir.Type) in.LogicRegRegReg {
	if t == ir.I64 {
		return l[1]
	}
	return l[0]
}

var (
	insnShl = logicInsns{in.SLW, in.SLD}
	insnShr = logicInsns{in.SRW, in.SRD}
	insnSar = logicInsns{in.SRAW, in.SRAD}
)

func bitsOf(t ir.Type) uint32 {
	return uint32(t.Bits())
}

// alu lowers integer operations with resolved operands.
func alu(c *gen.Ctx, op ir.Op) {
	t := op.Type
	args := op.Args

	switch op.Code {
	case ir.Add:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		if b.IsConst() {
			addImm(c, dst, a, typedConst(t, b.Value))
		} else {
			c.Insn(in.ADD.RtRaRb(dst, a, b.Reg))
		}

	case ir.Sub:
		dst, a, b := args[0].Reg, args[1], args[2]
		switch {
		case a.IsConst() && b.IsConst():
			movi(c, t, dst, a.Value-b.Value)

		case a.IsConst():
			c.Insn(in.SUBFIC.RtRaSI(dst, b.Reg, int32(a.Value)))

		case b.IsConst():
			addImm(c, dst, a.Reg, -typedConst(t, b.Value))

		default:
			c.Insn(in.SUBF.RtRaRb(dst, b.Reg, a.Reg))
		}

	case ir.Mul:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		if b.IsConst() {
			c.Insn(in.MULLI.RtRaSI(dst, a, int32(b.Value)))
		} else {
			c.Insn(insnMul.of(t).RtRaRb(dst, a, b.Reg))
		}

	case ir.Muluh:
		c.Insn(insnMuluh.of(t).RtRaRb(args[0].Reg, args[1].Reg, args[2].Reg))

	case ir.Mulsh:
		c.Insn(insnMulsh.of(t).RtRaRb(args[0].Reg, args[1].Reg, args[2].Reg))

	case ir.Div:
		c.Insn(insnDiv.of(t).RtRaRb(args[0].Reg, args[1].Reg, args[2].Reg))

	case ir.Divu:
		c.Insn(insnDivu.of(t).RtRaRb(args[0].Reg, args[1].Reg, args[2].Reg))

	case ir.Rem:
		remainder(c, t, insnRem, insnDiv, args[0].Reg, args[1].Reg, args[2].Reg)

	case ir.Remu:
		remainder(c, t, insnRemu, insnDivu, args[0].Reg, args[1].Reg, args[2].Reg)

	case ir.And:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		if b.IsConst() {
			andImm(c, t, dst, a, uint64(b.Value))
		} else {
			c.Insn(in.AND.RaRsRb(dst, a, b.Reg))
		}

	case ir.Or:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		if b.IsConst() {
			ori32(c, dst, a, uint32(b.Value))
		} else {
			c.Insn(in.OR.RaRsRb(dst, a, b.Reg))
		}

	case ir.Xor:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		if b.IsConst() {
			xori32(c, dst, a, uint32(b.Value))
		} else {
			c.Insn(in.XOR.RaRsRb(dst, a, b.Reg))
		}

	case ir.Andc:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		if b.IsConst() {
			andImm(c, t, dst, a, ^uint64(b.Value))
		} else {
			c.Insn(in.ANDC.RaRsRb(dst, a, b.Reg))
		}

	case ir.Orc:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		if b.IsConst() {
			ori32(c, dst, a, ^uint32(b.Value))
		} else {
			c.Insn(in.ORC.RaRsRb(dst, a, b.Reg))
		}

	case ir.Eqv:
		c.Insn(in.EQV.RaRsRb(args[0].Reg, args[1].Reg, args[2].Reg))

	case ir.Nand:
		c.Insn(in.NAND.RaRsRb(args[0].Reg, args[1].Reg, args[2].Reg))

	case ir.Nor:
		c.Insn(in.NOR.RaRsRb(args[0].Reg, args[1].Reg, args[2].Reg))

	case ir.Shl:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		switch {
		case !b.IsConst():
			c.Insn(insnShl.of(t).RaRsRb(dst, a, b.Reg))
		case t == ir.I32:
			shli32(c, dst, a, uint32(b.Value)&31)
		default:
			shli64(c, dst, a, uint32(b.Value)&63)
		}

	case ir.Shr:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		switch {
		case !b.IsConst():
			c.Insn(insnShr.of(t).RaRsRb(dst, a, b.Reg))
		case t == ir.I32:
			shri32(c, dst, a, uint32(b.Value)&31)
		default:
			shri64(c, dst, a, uint32(b.Value)&63)
		}

	case ir.Sar:
		dst, a, b := args[0].Reg, args[1].Reg, args[2]
		switch {
		case !b.IsConst():
			c.Insn(insnSar.of(t).RaRsRb(dst, a, b.Reg))
		case t == ir.I32:
			c.Insn(in.SRAWI.RaRsSH(dst, a, uint32(b.Value)&31))
		default:
			c.Insn(in.SRADI.RaRsSH(dst, a, uint32(b.Value)&63))
		}

	case ir.Rotl, ir.Rotr:
		rotate(c, op)

	case ir.Clz:
		countZeros(c, t, args[0].Reg, args[1].Reg, args[2], func(dst reg.R) {
			if t == ir.I32 {
				c.Insn(in.CNTLZW.RaRs(dst, args[1].Reg))
			} else {
				c.Insn(in.CNTLZD.RaRs(dst, args[1].Reg))
			}
		})

	case ir.Ctz:
		countZeros(c, t, args[0].Reg, args[1].Reg, args[2], func(dst reg.R) {
			trailingZeros(c, t, dst, args[1].Reg)
		})

	case ir.Ctpop:
		if t == ir.I32 {
			c.Insn(in.POPCNTW.RaRs(args[0].Reg, args[1].Reg))
			if c.Caps.RegBits == 64 {
				ext32u(c, args[0].Reg, args[0].Reg)
			}
		} else {
			c.Insn(in.POPCNTD.RaRs(args[0].Reg, args[1].Reg))
		}

	case ir.Neg:
		c.Insn(in.NEG.RtRa(args[0].Reg, args[1].Reg))

	case ir.Not:
		c.Insn(in.NOR.RaRsRb(args[0].Reg, args[1].Reg, args[1].Reg))

	case ir.Ext8s:
		ext8s(c, args[0].Reg, args[1].Reg)

	case ir.Ext16s:
		ext16s(c, args[0].Reg, args[1].Reg)

	case ir.Ext32s:
		ext32s(c, args[0].Reg, args[1].Reg)

	case ir.Ext8u:
		ext8u(c, args[0].Reg, args[1].Reg)

	case ir.Ext16u:
		ext16u(c, args[0].Reg, args[1].Reg)

	case ir.Ext32u:
		ext32u(c, args[0].Reg, args[1].Reg)

	case ir.Bswap16:
		bswap16(c, args[0].Reg, args[1].Reg)

	case ir.Bswap32:
		bswap32(c, args[0].Reg, args[1].Reg)

	case ir.Bswap64:
		bswap64(c, args[0].Reg, args[1].Reg)

	case ir.Deposit:
		deposit(c, op)

	case ir.Extract:
		dst, a := args[0].Reg, args[1].Reg
		pos, length := uint32(args[2].Value), uint32(args[3].Value)
		if t == ir.I32 {
			rlw(c, in.RLWINM, dst, a, (32-pos)&31, 32-length, 31)
		} else {
			rld(c, in.RLDICL, dst, a, (64-pos)&63, 64-length)
		}

	case ir.Add2:
		add2(c, args)

	case ir.Sub2:
		sub2(c, args)

	default:
		panic(errors.Internalf("%s: not an integer operation", op))
	}
}

func typedConst(t ir.Type, v int64) int64 {
	if t == ir.I32 {
		return int64(int32(v))
	}
	return v
}

func andImm(c *gen.Ctx, t ir.Type, dst, src reg.R, x uint64) {
	if t == ir.I32 {
		andi32(c, dst, src, uint32(x))
	} else {
		andi64(c, dst, src, x)
	}
}

// remainder uses the modulo instructions of ISA 3.00, or computes
// a - (a / b) * b in R0.
func remainder(c *gen.Ctx, t ir.Type, mod, div binaryInsns, dst, a, b reg.R) {
	if c.Caps.Has(gen.ISA300) {
		c.Insn(mod.of(t).RtRaRb(dst, a, b))
		return
	}

	c.Insn(div.of(t).RtRaRb(RegZero, a, b))
	c.Insn(insnMul.of(t).RtRaRb(RegZero, RegZero, b))
	c.Insn(in.SUBF.RtRaRb(dst, RegZero, a))
}

func rotate(c *gen.Ctx, op ir.Op) {
	t := op.Type
	dst, a, b := op.Args[0].Reg, op.Args[1].Reg, op.Args[2]
	bits := bitsOf(t)

	if b.IsConst() {
		n := uint32(b.Value) & (bits - 1)
		if op.Code == ir.Rotr {
			n = (bits - n) & (bits - 1)
		}
		if t == ir.I32 {
			rlw(c, in.RLWINM, dst, a, n, 0, 31)
		} else {
			rld(c, in.RLDICL, dst, a, n, 0)
		}
		return
	}

	n := b.Reg
	if op.Code == ir.Rotr {
		c.Insn(in.SUBFIC.RtRaSI(RegZero, n, int32(bits)))
		n = RegZero
	}
	if t == ir.I32 {
		c.Insn(in.RLWNM.RaRsRbMbMe(dst, a, n, 0, 31))
	} else {
		c.Insn(in.RLDCL.RaRsRbMb(dst, a, n, 0))
	}
}

// countZeros computes dst = src ? count(src) : alt.  The alternative is
// either a register, zero or the width of the type.
func countZeros(c *gen.Ctx, t ir.Type, dst, src reg.R, alt ir.Operand, count func(reg.R)) {
	if alt.IsConst() && alt.Value == int64(t.Bits()) {
		count(dst)
		return
	}

	cmp(c, t, ir.EQ, src, ir.Const(0), crMain)
	count(RegZero)

	if c.Caps.ISEL {
		a := reg.R(0)
		if alt.IsReg() {
			a = alt.Reg
		}
		c.Insn(in.ISEL.RtRaRbBc(dst, a, RegZero, in.BI(crMain, in.CREQ)))
		return
	}

	if alt.IsReg() && alt.Reg == dst {
		bo, bi := branchOptions(ir.EQ)
		c.Insn(in.BC.BoBiBD(bo, bi, 8))
		mov(c, t, dst, RegZero)
		return
	}

	mov(c, t, dst, RegZero)
	bo, bi := branchOptions(ir.NE)
	c.Insn(in.BC.BoBiBD(bo, bi, 8))
	movOrZero(c, t, dst, alt)
}

// trailingZeros of src, which is zero for a zero input.  Before ISA 3.00 it
// is computed as width - clz(~src & (src - 1)) which yields the width for a
// zero input.
func trailingZeros(c *gen.Ctx, t ir.Type, dst, src reg.R) {
	if c.Caps.Has(gen.ISA300) {
		if t == ir.I32 {
			c.Insn(in.CNTTZW.RaRs(dst, src))
		} else {
			c.Insn(in.CNTTZD.RaRs(dst, src))
		}
		return
	}

	c.Insn(in.ADDI.RtRaSI(RegZero, src, -1))
	c.Insn(in.ANDC.RaRsRb(RegZero, RegZero, src))
	if t == ir.I32 {
		c.Insn(in.CNTLZW.RaRs(RegZero, RegZero))
	} else {
		c.Insn(in.CNTLZD.RaRs(RegZero, RegZero))
	}
	c.Insn(in.SUBFIC.RtRaSI(dst, RegZero, int32(t.Bits())))
}

func bswap16(c *gen.Ctx, dst, src reg.R) {
	if dst != src {
		rlw(c, in.RLWINM, dst, src, 24, 24, 31)
		rlw(c, in.RLWIMI, dst, src, 8, 16, 23)
		return
	}

	rlw(c, in.RLWINM, RegZero, src, 8, 16, 23)
	rlw(c, in.RLWINM, dst, src, 24, 24, 31)
	c.Insn(in.OR.RaRsRb(dst, RegZero, dst))
}

func bswap32(c *gen.Ctx, dst, src reg.R) {
	t := dst
	if dst == src {
		t = RegZero
	}

	rlw(c, in.RLWINM, t, src, 8, 0, 31)
	rlw(c, in.RLWIMI, t, src, 24, 0, 7)
	rlw(c, in.RLWIMI, t, src, 24, 16, 23)

	mov(c, ir.I32, dst, t)
}

func bswap64(c *gen.Ctx, dst, src reg.R) {
	t, tmp := dst, RegZero
	if dst == src {
		t, tmp = RegZero, src
	}

	// abcd efgh -> 0000 hgfe
	rlw(c, in.RLWINM, t, src, 8, 0, 31)
	rlw(c, in.RLWIMI, t, src, 24, 0, 7)
	rlw(c, in.RLWIMI, t, src, 24, 16, 23)

	// hgfe 0000 and efgh abcd
	rld(c, in.RLDICL, t, t, 32, 0)
	rld(c, in.RLDICL, tmp, src, 32, 0)

	// hgfe dcba
	rlw(c, in.RLWIMI, t, tmp, 8, 0, 31)
	rlw(c, in.RLWIMI, t, tmp, 24, 0, 7)
	rlw(c, in.RLWIMI, t, tmp, 24, 16, 23)

	mov(c, ir.I64, dst, t)
}

// deposit: the output aliases the first input.  A constant field value is
// zero.
func deposit(c *gen.Ctx, op ir.Op) {
	dst, b := op.Args[0].Reg, op.Args[2]
	pos, length := uint32(op.Args[3].Value), uint32(op.Args[4].Value)

	if op.Type == ir.I32 {
		if b.IsConst() {
			mask := uint32(2<<(length-1)-1) << pos
			andi32(c, dst, dst, ^mask)
		} else {
			rlw(c, in.RLWIMI, dst, b.Reg, pos, 32-pos-length, 31-pos)
		}
		return
	}

	if b.IsConst() {
		mask := uint64(2<<(length-1)-1) << pos
		andi64(c, dst, dst, ^mask)
	} else {
		rld(c, in.RLDIMI, dst, b.Reg, pos, 64-pos-length)
	}
}

// add2: dst = a + b on register pairs of a 32-bit host.
func add2(c *gen.Ctx, args []ir.Operand) {
	lo, hi := args[0].Reg, args[1].Reg
	al, ah, bl, bh := args[2].Reg, args[3].Reg, args[4], args[5]

	t := lo
	if t == ah || (bh.IsReg() && t == bh.Reg) {
		t = RegZero
	}

	if bl.IsConst() {
		c.Insn(in.ADDIC.RtRaSI(t, al, int32(bl.Value)))
	} else {
		c.Insn(in.ADDC.RtRaRb(t, al, bl.Reg))
	}

	switch {
	case bh.IsConst() && bh.Value != 0:
		c.Insn(in.ADDME.RtRa(hi, ah))
	case bh.IsConst():
		c.Insn(in.ADDZE.RtRa(hi, ah))
	default:
		c.Insn(in.ADDE.RtRaRb(hi, ah, bh.Reg))
	}

	mov(c, ir.I32, lo, t)
}

// sub2: dst = a - b on register pairs of a 32-bit host.
func sub2(c *gen.Ctx, args []ir.Operand) {
	lo, hi := args[0].Reg, args[1].Reg
	al, ah, bl, bh := args[2], args[3], args[4].Reg, args[5].Reg

	t := lo
	if t == bh || (ah.IsReg() && t == ah.Reg) {
		t = RegZero
	}

	if al.IsConst() {
		c.Insn(in.SUBFIC.RtRaSI(t, bl, int32(al.Value)))
	} else {
		c.Insn(in.SUBFC.RtRaRb(t, bl, al.Reg))
	}

	switch {
	case ah.IsConst() && ah.Value != 0:
		c.Insn(in.SUBFME.RtRa(hi, bh))
	case ah.IsConst():
		c.Insn(in.SUBFZE.RtRa(hi, bh))
	default:
		c.Insn(in.SUBFE.RtRaRb(hi, bh, ah.Reg))
	}

	mov(c, ir.I32, lo, t)
}

// barrier for the requested ordering.
func barrier(c *gen.Ctx, kind ir.Barrier) {
	switch kind & ir.BarrierAll {
	case ir.BarrierLdLd:
		c.Insn(in.LWSYNC.Word())

	case ir.BarrierStSt:
		c.Insn(in.EIEIO.Word())

	default:
		c.Insn(in.HWSYNC.Word())
	}
}

// hostLoad lowers the host memory loads: base register plus offset.
func hostLoad(c *gen.Ctx, op ir.Op) {
	dst, base, off := op.Args[0].Reg, op.Args[1].Reg, op.Args[2].Value

	switch op.Code {
	case ir.Ld8u:
		memLong(c, accLBZ, dst, base, off)

	case ir.Ld8s:
		memLong(c, accLBZ, dst, base, off)
		ext8s(c, dst, dst)

	case ir.Ld16u:
		memLong(c, accLHZ, dst, base, off)

	case ir.Ld16s:
		memLong(c, accLHA, dst, base, off)

	case ir.Ld32u:
		memLong(c, accLWZ, dst, base, off)

	case ir.Ld32s:
		if c.Caps.RegBits == 64 {
			memLong(c, accLWA, dst, base, off)
		} else {
			memLong(c, accLWZ, dst, base, off)
		}

	case ir.Ld, ir.LdVec:
		load(c, op.Type, dst, base, off)
	}
}

// hostStore lowers the host memory stores.
func hostStore(c *gen.Ctx, op ir.Op) {
	src, base, off := op.Args[0].Reg, op.Args[1].Reg, op.Args[2].Value

	switch op.Code {
	case ir.St8:
		memLong(c, accSTB, src, base, off)

	case ir.St16:
		memLong(c, accSTH, src, base, off)

	case ir.St32:
		memLong(c, accSTW, src, base, off)

	case ir.St, ir.StVec:
		store(c, op.Type, src, base, off)
	}
}
