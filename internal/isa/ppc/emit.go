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

// mover implements constraint.Mover.
type mover struct {
	c *gen.Ctx
}

func (m mover) MoveReg(t ir.Type, dst, src reg.R)        { mov(m.c, t, dst, src) }
func (m mover) MoveImm(t ir.Type, dst reg.R, value int64) { movImm(m.c, t, dst, value) }

func mov(c *gen.Ctx, t ir.Type, dst, src reg.R) {
	if dst == src {
		return
	}

	switch {
	case dst.Class() == reg.General && src.Class() == reg.General:
		c.Insn(in.OR.RaRsRb(dst, src, src))

	case dst.Class() == reg.Vec && src.Class() == reg.Vec:
		c.Insn(in.VOR.VtVaVb(dst, src, src))

	case dst.Class() == reg.Vec:
		movToVec(c, t, dst, src)

	default:
		movFromVec(c, t, dst, src)
	}
}

func movImm(c *gen.Ctx, t ir.Type, dst reg.R, value int64) {
	if dst.Class() == reg.Vec {
		dupImm(c, t, ir.Elem64, dst, value)
	} else {
		movi(c, t, dst, value)
	}
}

// scalarOffset within the temporary buffer of the doubleword (or the low word
// of it) which mtvsrd/mtvsrwz target.
func scalarOffset(c *gen.Ctx, t ir.Type) int32 {
	f := Layout(c)
	if !c.Caps.BigEndian {
		return f.TempBuf + 8
	}
	if t == ir.I32 {
		return f.TempBuf + 4
	}
	return f.TempBuf
}

func movToVec(c *gen.Ctx, t ir.Type, dst, src reg.R) {
	if c.Caps.VSX && c.Caps.Has(gen.ISA207) {
		if t == ir.I32 || c.Caps.RegBits == 32 {
			c.Insn(in.MTVSRWZ.VtRa(dst, src))
		} else {
			c.Insn(in.MTVSRD.VtRa(dst, src))
		}
		return
	}

	f := Layout(c)
	off := scalarOffset(c, t)

	if t == ir.I32 || c.Caps.RegBits == 32 {
		c.Insn(in.STW.RtRaSI(src, RegSP, off))
		c.Insn(in.ADDI.RtRaSI(RegZero, 0, 0))
		if c.Caps.BigEndian {
			c.Insn(in.STW.RtRaSI(RegZero, RegSP, off-4))
		} else {
			c.Insn(in.STW.RtRaSI(RegZero, RegSP, off+4))
		}
	} else {
		c.Insn(in.STD.RtRaDS(src, RegSP, off))
	}

	c.Insn(in.ADDI.RtRaSI(RegZero, RegSP, f.TempBuf))
	c.Insn(in.LVX.VtRaRb(dst, 0, RegZero))
}

func movFromVec(c *gen.Ctx, t ir.Type, dst, src reg.R) {
	if c.Caps.VSX && c.Caps.Has(gen.ISA207) {
		if t == ir.I32 || c.Caps.RegBits == 32 {
			c.Insn(in.MFVSRWZ.RaVs(dst, src))
		} else {
			c.Insn(in.MFVSRD.RaVs(dst, src))
		}
		return
	}

	f := Layout(c)
	c.Insn(in.ADDI.RtRaSI(RegZero, RegSP, f.TempBuf))
	c.Insn(in.STVX.VtRaRb(src, 0, RegZero))

	off := scalarOffset(c, t)
	if t == ir.I32 || c.Caps.RegBits == 32 {
		c.Insn(in.LWZ.RtRaSI(dst, RegSP, off))
	} else {
		c.Insn(in.LD.RtRaDS(dst, RegSP, off))
	}
}

// access describes the forms of a memory instruction.
type access struct {
	form  func(rt, ra reg.R, d int32) uint32 // D or DS form, if any.
	index func(rt, ra, rb reg.R) uint32
	align int64 // Displacement mask which must be clear for the D/DS form.
	store bool
	add   bool // addi: a zero displacement from the target itself is a no-op.
}

var (
	accLBZ    = access{in.LBZ.RtRaSI, in.LBZX.RtRaRb, 0, false, false}
	accLHZ    = access{in.LHZ.RtRaSI, in.LHZX.RtRaRb, 0, false, false}
	accLHA    = access{in.LHA.RtRaSI, in.LHAX.RtRaRb, 0, false, false}
	accLWZ    = access{in.LWZ.RtRaSI, in.LWZX.RtRaRb, 0, false, false}
	accLWA    = access{in.LWA.RtRaDS, in.LWAX.RtRaRb, 3, false, false}
	accLD     = access{in.LD.RtRaDS, in.LDX.RtRaRb, 3, false, false}
	accSTB    = access{in.STB.RtRaSI, in.STBX.RtRaRb, 0, true, false}
	accSTH    = access{in.STH.RtRaSI, in.STHX.RtRaRb, 0, true, false}
	accSTW    = access{in.STW.RtRaSI, in.STWX.RtRaRb, 0, true, false}
	accSTD    = access{in.STD.RtRaDS, in.STDX.RtRaRb, 3, true, false}
	accADDI   = access{in.ADDI.RtRaSI, in.ADD.RtRaRb, 0, false, true}
	accLVX    = access{nil, in.LVX.VtRaRb, 15, false, false}
	accSTVX   = access{nil, in.STVX.VtRaRb, 15, true, false}
	accLVEBX  = access{nil, in.LVEBX.VtRaRb, 0, false, false}
	accLVEHX  = access{nil, in.LVEHX.VtRaRb, 1, false, false}
	accLVEWX  = access{nil, in.LVEWX.VtRaRb, 3, false, false}
	accSTVEWX = access{nil, in.STVEWX.VtRaRb, 3, true, false}
	accLXSDX  = access{nil, in.LXSDX.VtRaRb, 0, false, false}
	accSTXSDX = access{nil, in.STXSDX.VtRaRb, 0, true, false}
	accLXVDSX = access{nil, in.LXVDSX.VtRaRb, 0, false, false}
)

// memLong accesses base+offset with any offset.  Large offsets are split into
// an addis and a displacement; offsets which the displacement form can't
// express use the indexed form.  TMP1 (or R0) may be clobbered.
func memLong(c *gen.Ctx, a access, rt, base reg.R, offset int64) {
	orig := offset
	rs := Tmp1(c.ABI)

	if !a.store && a.form != nil && rt > RegZero && rt.Class() == reg.General {
		rs = rt
	}

	if a.form == nil || offset&a.align != 0 || offset != int64(int32(offset)) {
		if rs == base {
			rs = RegZero
		}
		if a.store && rs == rt {
			panic(errors.Internalf("store of %s clobbers itself", rt))
		}
		movi(c, ptrType(c), rs, orig)
		c.Insn(a.index(rt, base, rs))
		return
	}

	l0 := int64(int16(offset))
	offset = (offset - l0) >> 16
	l1 := int64(int16(offset))

	var extra int64
	if l1 < 0 && orig >= 0 {
		extra = 0x4000
		l1 = int64(int16(offset - 0x4000))
	}
	if l1 != 0 {
		c.Insn(in.ADDIS.RtRaSI(rs, base, int32(l1)))
		base = rs
	}
	if extra != 0 {
		c.Insn(in.ADDIS.RtRaSI(rs, base, int32(extra)))
		base = rs
	}
	if !a.add || base != rt || l0 != 0 {
		c.Insn(a.form(rt, base, int32(l0)))
	}
}

// load a scalar or vector from host memory.
func load(c *gen.Ctx, t ir.Type, rt, base reg.R, offset int64) {
	if rt.Class() == reg.General {
		switch {
		case t == ir.I32 || c.Caps.RegBits == 32:
			memLong(c, accLWZ, rt, base, offset)

		default:
			memLong(c, accLD, rt, base, offset)
		}
		return
	}

	switch t {
	case ir.I32:
		if c.Caps.VSX && c.Caps.Has(gen.ISA207) {
			memLong(c, access{nil, in.LXSIWZX.VtRaRb, 0, false, false}, rt, base, offset)
			return
		}
		memLong(c, accLVEWX, rt, base, offset)
		if shift := uint32(offset-4) & 0xc; shift != 0 {
			c.Insn(in.VSLDOI.VtVaVbShb(rt, rt, rt, shift))
		}

	case ir.I64, ir.V64:
		if c.Caps.VSX {
			memLong(c, accLXSDX, rt, base, offset)
			return
		}
		memLong(c, accLVX, rt, base, offset&^15)
		if offset&8 != 0 {
			c.Insn(in.VSLDOI.VtVaVbShb(rt, rt, rt, 8))
		}

	default:
		memLong(c, accLVX, rt, base, offset)
	}
}

// store a scalar or vector to host memory.
func store(c *gen.Ctx, t ir.Type, rt, base reg.R, offset int64) {
	if rt.Class() == reg.General {
		switch {
		case t == ir.I32 || c.Caps.RegBits == 32:
			memLong(c, accSTW, rt, base, offset)

		default:
			memLong(c, accSTD, rt, base, offset)
		}
		return
	}

	switch t {
	case ir.I32:
		if c.Caps.VSX && c.Caps.Has(gen.ISA207) {
			memLong(c, access{nil, in.STXSIWX.VtRaRb, 0, true, false}, rt, base, offset)
			return
		}
		if shift := uint32(offset-4) & 0xc; shift != 0 {
			c.Insn(in.VSLDOI.VtVaVbShb(RegVecTmp1, rt, rt, shift))
			rt = RegVecTmp1
		}
		memLong(c, accSTVEWX, rt, base, offset)

	case ir.I64, ir.V64:
		if c.Caps.VSX {
			memLong(c, accSTXSDX, rt, base, offset)
			return
		}
		if offset&8 != 0 {
			c.Insn(in.VSLDOI.VtVaVbShb(RegVecTmp1, rt, rt, 8))
			rt = RegVecTmp1
		}
		memLong(c, accSTVEWX, rt, base, offset)
		memLong(c, accSTVEWX, rt, base, offset+4)

	default:
		memLong(c, accSTVX, rt, base, offset)
	}
}

// addImm emits dst = src + value for any 32-bit value.
func addImm(c *gen.Ctx, dst, src reg.R, value int64) {
	memLong(c, accADDI, dst, src, value)
}

// ptrType is the integer type of host addresses.
func ptrType(c *gen.Ctx) ir.Type {
	if c.Caps.RegBits == 32 {
		return ir.I32
	}
	return ir.I64
}

func rld(c *gen.Ctx, op in.RotateImm64, ra, rs reg.R, sh, mb uint32) {
	c.Insn(op.RaRsShMb(ra, rs, sh, mb))
}

func rlw(c *gen.Ctx, op in.RotateImm32, ra, rs reg.R, sh, mb, me uint32) {
	c.Insn(op.RaRsShMbMe(ra, rs, sh, mb, me))
}

func shli32(c *gen.Ctx, dst, src reg.R, n uint32) { rlw(c, in.RLWINM, dst, src, n, 0, 31-n) }
func shri32(c *gen.Ctx, dst, src reg.R, n uint32) { rlw(c, in.RLWINM, dst, src, (32-n)&31, n, 31) }
func shli64(c *gen.Ctx, dst, src reg.R, n uint32) { rld(c, in.RLDICR, dst, src, n, 63-n) }
func shri64(c *gen.Ctx, dst, src reg.R, n uint32) { rld(c, in.RLDICL, dst, src, (64-n)&63, n) }
func ext8u(c *gen.Ctx, dst, src reg.R)            { c.Insn(in.ANDI.RaRsUI(dst, src, 0xff)) }
func ext16u(c *gen.Ctx, dst, src reg.R)           { c.Insn(in.ANDI.RaRsUI(dst, src, 0xffff)) }
func ext32u(c *gen.Ctx, dst, src reg.R)           { rld(c, in.RLDICL, dst, src, 0, 32) }
func ext8s(c *gen.Ctx, dst, src reg.R)            { c.Insn(in.EXTSB.RaRs(dst, src)) }
func ext16s(c *gen.Ctx, dst, src reg.R)           { c.Insn(in.EXTSH.RaRs(dst, src)) }
func ext32s(c *gen.Ctx, dst, src reg.R)           { c.Insn(in.EXTSW.RaRs(dst, src)) }
func mtctr(c *gen.Ctx, r reg.R)                   { c.Insn(in.MTSPR.RtSpr(r, in.CTR)) }
func mflr(c *gen.Ctx, r reg.R)                    { c.Insn(in.MFSPR.RtSpr(r, in.LR)) }
func mtlr(c *gen.Ctx, r reg.R)                    { c.Insn(in.MTSPR.RtSpr(r, in.LR)) }
