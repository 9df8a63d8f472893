// Copyright (c) 2019 Timo Savola. All rights reserved.
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

// Vector instructions by element size.  Zero means that the size is not
// available.
type vecInsns [4]in.VecVecVec

var (
	vecAdd   = vecInsns{in.VADDUBM, in.VADDUHM, in.VADDUWM, in.VADDUDM}
	vecSub   = vecInsns{in.VSUBUBM, in.VSUBUHM, in.VSUBUWM, in.VSUBUDM}
	vecEq    = vecInsns{in.VCMPEQUB, in.VCMPEQUH, in.VCMPEQUW, in.VCMPEQUD}
	vecNe    = vecInsns{in.VCMPNEB, in.VCMPNEH, in.VCMPNEW, 0}
	vecGts   = vecInsns{in.VCMPGTSB, in.VCMPGTSH, in.VCMPGTSW, in.VCMPGTSD}
	vecGtu   = vecInsns{in.VCMPGTUB, in.VCMPGTUH, in.VCMPGTUW, in.VCMPGTUD}
	vecSSAdd = vecInsns{in.VADDSBS, in.VADDSHS, in.VADDSWS, 0}
	vecUSAdd = vecInsns{in.VADDUBS, in.VADDUHS, in.VADDUWS, 0}
	vecSSSub = vecInsns{in.VSUBSBS, in.VSUBSHS, in.VSUBSWS, 0}
	vecUSSub = vecInsns{in.VSUBUBS, in.VSUBUHS, in.VSUBUWS, 0}
	vecUMin  = vecInsns{in.VMINUB, in.VMINUH, in.VMINUW, in.VMINUD}
	vecSMin  = vecInsns{in.VMINSB, in.VMINSH, in.VMINSW, in.VMINSD}
	vecUMax  = vecInsns{in.VMAXUB, in.VMAXUH, in.VMAXUW, in.VMAXUD}
	vecSMax  = vecInsns{in.VMAXSB, in.VMAXSH, in.VMAXSW, in.VMAXSD}
	vecShlv  = vecInsns{in.VSLB, in.VSLH, in.VSLW, in.VSLD}
	vecShrv  = vecInsns{in.VSRB, in.VSRH, in.VSRW, in.VSRD}
	vecSarv  = vecInsns{in.VSRAB, in.VSRAH, in.VSRAW, in.VSRAD}
	vecMrgh  = vecInsns{in.VMRGHB, in.VMRGHH, in.VMRGHW, 0}
	vecMrgl  = vecInsns{in.VMRGLB, in.VMRGLH, in.VMRGLW, 0}
	vecMuleu = vecInsns{in.VMULEUB, in.VMULEUH, in.VMULEUW, 0}
	vecMulou = vecInsns{in.VMULOUB, in.VMULOUH, in.VMULOUW, 0}
	vecPkum  = vecInsns{in.VPKUHUM, in.VPKUWUM, 0, 0}
	vecRotl  = vecInsns{in.VRLB, in.VRLH, in.VRLW, in.VRLD}
)

func (v vecInsns) of(elem uint8) in.VecVecVec {
	insn := v[elem]
	if insn == 0 {
		panic(errors.Internalf("vector instruction not available for %d-bit elements", 8<<elem))
	}
	return insn
}

// CanEmitVec reports 1 if the operation is native, -1 if it is expanded
// into other operations, and 0 if it is not supported.
func CanEmitVec(caps *gen.Capabilities, code ir.Opcode, t ir.Type, elem uint8) int {
	if !caps.AltiVec {
		return 0
	}
	if t != ir.V64 && t != ir.V128 {
		return 0
	}

	isa207 := caps.Has(gen.ISA207)
	isa300 := caps.Has(gen.ISA300)

	switch code {
	case ir.Dupi, ir.Dup, ir.Dupm, ir.LdVec, ir.StVec,
		ir.AndVec, ir.OrVec, ir.XorVec, ir.AndcVec, ir.NotVec, ir.BitselVec:
		return 1

	case ir.OrcVec:
		if isa207 {
			return 1
		}
		return -1

	case ir.AddVec, ir.SubVec, ir.SMaxVec, ir.SMinVec, ir.UMaxVec, ir.UMinVec,
		ir.ShlvVec, ir.ShrvVec, ir.SarvVec:
		if elem <= ir.Elem32 || isa207 {
			return 1
		}

	case ir.SSAddVec, ir.SSSubVec, ir.USAddVec, ir.USSubVec:
		if elem <= ir.Elem32 {
			return 1
		}

	case ir.CmpVec, ir.ShliVec, ir.ShriVec, ir.SariVec:
		if elem <= ir.Elem32 || isa207 {
			return -1
		}

	case ir.NegVec:
		if elem >= ir.Elem32 && isa300 {
			return 1
		}
		if elem <= ir.Elem32 || isa207 {
			return -1
		}

	case ir.MulVec:
		switch elem {
		case ir.Elem8, ir.Elem16:
			return -1

		case ir.Elem32:
			if isa207 {
				return 1
			}
			return -1
		}

	case ir.MrghVec, ir.MrglVec, ir.MuleuVec, ir.MulouVec:
		if elem <= ir.Elem32 {
			return 1
		}

	case ir.PkumVec:
		if elem <= ir.Elem16 {
			return 1
		}

	case ir.RotlVec:
		if elem <= ir.Elem32 || isa207 {
			return 1
		}

	case ir.MsumVec:
		if elem == ir.Elem16 {
			return 1
		}
	}

	return 0
}

// vecTemps hands out vector temporaries for expansions: the two reserved
// ones first, then scratch registers.
type vecTemps struct {
	n       int
	scratch func() reg.R
}

func (v *vecTemps) get() reg.R {
	v.n++
	switch v.n {
	case 1:
		return RegVecTmp1

	case 2:
		return RegVecTmp2

	default:
		return v.scratch()
	}
}

// vector lowers a vector operation with resolved operands.
func vector(c *gen.Ctx, op ir.Op, scratch func() reg.R) {
	if CanEmitVec(&c.Caps, op.Code, op.Type, op.Elem) == 0 {
		panic(errors.Internalf("%s is not supported by the host", op))
	}

	temps := &vecTemps{scratch: scratch}
	vecOp(c, temps, op.Code, op.Type, op.Elem, op.Args)
}

func vecOp(c *gen.Ctx, temps *vecTemps, code ir.Opcode, t ir.Type, elem uint8, args []ir.Operand) {
	isa207 := c.Caps.Has(gen.ISA207)
	isa300 := c.Caps.Has(gen.ISA300)

	var insn in.VecVecVec

	switch code {
	case ir.Dupi:
		dupImm(c, t, elem, args[0].Reg, args[1].Value)
		return

	case ir.Dup:
		dup(c, t, elem, args[0].Reg, args[1].Reg)
		return

	case ir.Dupm:
		dupm(c, elem, args[0].Reg, args[1].Reg, args[2].Value)
		return

	case ir.LdVec:
		load(c, t, args[0].Reg, args[1].Reg, args[2].Value)
		return

	case ir.StVec:
		store(c, t, args[0].Reg, args[1].Reg, args[2].Value)
		return

	case ir.AddVec:
		insn = vecAdd.of(elem)

	case ir.SubVec:
		insn = vecSub.of(elem)

	case ir.NegVec:
		a0, a1 := args[0].Reg, args[1].Reg
		if elem >= ir.Elem32 && isa300 {
			if elem == ir.Elem32 {
				c.Insn(in.VNEGW.VtVb(a0, a1))
			} else {
				c.Insn(in.VNEGD.VtVb(a0, a1))
			}
			return
		}
		zero := temps.get()
		c.Insn(in.VXOR.VtVaVb(zero, zero, zero))
		c.Insn(vecSub.of(elem).VtVaVb(a0, zero, a1))
		return

	case ir.MulVec:
		if elem == ir.Elem32 && isa207 {
			insn = in.VMULUWM
		} else {
			expandMul(c, temps, t, elem, args[0].Reg, args[1].Reg, args[2].Reg)
			return
		}

	case ir.SSAddVec:
		insn = vecSSAdd.of(elem)

	case ir.USAddVec:
		insn = vecUSAdd.of(elem)

	case ir.SSSubVec:
		insn = vecSSSub.of(elem)

	case ir.USSubVec:
		insn = vecUSSub.of(elem)

	case ir.UMinVec:
		insn = vecUMin.of(elem)

	case ir.SMinVec:
		insn = vecSMin.of(elem)

	case ir.UMaxVec:
		insn = vecUMax.of(elem)

	case ir.SMaxVec:
		insn = vecSMax.of(elem)

	case ir.ShlvVec:
		insn = vecShlv.of(elem)

	case ir.ShrvVec:
		insn = vecShrv.of(elem)

	case ir.SarvVec:
		insn = vecSarv.of(elem)

	case ir.ShliVec, ir.ShriVec, ir.SariVec:
		expandShiftImm(c, temps, t, code, elem, args[0].Reg, args[1].Reg, args[2].Value)
		return

	case ir.AndVec:
		insn = in.VAND

	case ir.OrVec:
		insn = in.VOR

	case ir.XorVec:
		insn = in.VXOR

	case ir.AndcVec:
		insn = in.VANDC

	case ir.OrcVec:
		if !isa207 {
			tmp := temps.get()
			b := args[2].Reg
			c.Insn(in.VNOR.VtVaVb(tmp, b, b))
			c.Insn(in.VOR.VtVaVb(args[0].Reg, args[1].Reg, tmp))
			return
		}
		insn = in.VORC

	case ir.NotVec:
		c.Insn(in.VNOR.VtVaVb(args[0].Reg, args[1].Reg, args[1].Reg))
		return

	case ir.CmpVec:
		expandCmp(c, elem, args[0].Reg, args[1].Reg, args[2].Reg, args[3].Cond())
		return

	case ir.BitselVec:
		// dst = (mask & a) | (~mask & b)
		dst, mask, a, b := args[0].Reg, args[1].Reg, args[2].Reg, args[3].Reg
		c.Insn(in.VSEL.VtVaVbVc(dst, b, a, mask))
		return

	case ir.MrghVec:
		insn = vecMrgh.of(elem)

	case ir.MrglVec:
		insn = vecMrgl.of(elem)

	case ir.MuleuVec:
		insn = vecMuleu.of(elem)

	case ir.MulouVec:
		insn = vecMulou.of(elem)

	case ir.PkumVec:
		insn = vecPkum.of(elem)

	case ir.RotlVec:
		insn = vecRotl.of(elem)

	case ir.MsumVec:
		c.Insn(in.VMSUMUHM.VtVaVbVc(args[0].Reg, args[1].Reg, args[2].Reg, args[3].Reg))
		return

	default:
		panic(errors.Internalf("%s: not a vector operation", code))
	}

	c.Insn(insn.VtVaVb(args[0].Reg, args[1].Reg, args[2].Reg))
}

func vec3(c *gen.Ctx, temps *vecTemps, code ir.Opcode, t ir.Type, elem uint8, dst, a, b reg.R) {
	vecOp(c, temps, code, t, elem, []ir.Operand{ir.Reg(dst), ir.Reg(a), ir.Reg(b)})
}

// expandCmp implements the conditions which have no compare instruction by
// swapping the operands and inverting the result.
func expandCmp(c *gen.Ctx, elem uint8, dst, a, b reg.R, cond ir.Cond) {
	swap, invert := false, false

	switch cond {
	case ir.EQ, ir.GT, ir.GTU:

	case ir.NE:
		if !(c.Caps.Has(gen.ISA300) && elem <= ir.Elem32) {
			invert = true
		}

	case ir.LE, ir.LEU:
		invert = true

	case ir.LT, ir.LTU:
		swap = true

	case ir.GE, ir.GEU:
		swap = true
		invert = true

	default:
		panic(errors.Internalf("vector comparison %s", cond))
	}

	if invert {
		cond = cond.Invert()
	}
	if swap {
		a, b = b, a
		cond = cond.Swap()
	}

	var insns vecInsns

	switch cond {
	case ir.EQ:
		insns = vecEq
	case ir.NE:
		insns = vecNe
	case ir.GT:
		insns = vecGts
	case ir.GTU:
		insns = vecGtu
	}

	c.Insn(insns.of(elem).VtVaVb(dst, a, b))

	if invert {
		c.Insn(in.VNOR.VtVaVb(dst, dst, dst))
	}
}

// expandShiftImm splats the count and shifts by vector.  Only the low bits of
// each element are used by the shift, so a byte splat suffices.
func expandShiftImm(c *gen.Ctx, temps *vecTemps, t ir.Type, code ir.Opcode, elem uint8, dst, src reg.R, count int64) {
	tmp := temps.get()
	dupImm(c, t, ir.Elem8, tmp, count&int64(8<<elem-1))

	var shift ir.Opcode
	switch code {
	case ir.ShliVec:
		shift = ir.ShlvVec
	case ir.ShriVec:
		shift = ir.ShrvVec
	default:
		shift = ir.SarvVec
	}

	vec3(c, temps, shift, t, elem, dst, src, tmp)
}

func expandMul(c *gen.Ctx, temps *vecTemps, t ir.Type, elem uint8, v0, v1, v2 reg.R) {
	t1 := temps.get()
	t2 := temps.get()

	switch elem {
	case ir.Elem8, ir.Elem16:
		vec3(c, temps, ir.MuleuVec, t, elem, t1, v1, v2)
		vec3(c, temps, ir.MulouVec, t, elem, t2, v1, v2)
		vec3(c, temps, ir.MrghVec, t, elem+1, v0, t1, t2)
		vec3(c, temps, ir.MrglVec, t, elem+1, t1, t1, t2)
		vec3(c, temps, ir.PkumVec, t, elem, v0, v0, t1)

	case ir.Elem32:
		t3 := temps.get()
		t4 := temps.get()

		dupImm(c, t, ir.Elem8, t4, -16)
		vec3(c, temps, ir.RotlVec, t, ir.Elem32, t1, v2, t4)
		vec3(c, temps, ir.MulouVec, t, ir.Elem16, t2, v1, v2)
		dupImm(c, t, ir.Elem8, t3, 0)
		vecOp(c, temps, ir.MsumVec, t, ir.Elem16, []ir.Operand{ir.Reg(t3), ir.Reg(v1), ir.Reg(t1), ir.Reg(t3)})
		vec3(c, temps, ir.ShlvVec, t, ir.Elem32, t3, t3, t4)
		vec3(c, temps, ir.AddVec, t, ir.Elem32, v0, t2, t3)

	default:
		panic(errors.Internalf("vector multiply of %d-bit elements", 8<<elem))
	}
}

// dup replicates the low element of src.  A general-purpose source is first
// moved into the vector unit.
func dup(c *gen.Ctx, t ir.Type, elem uint8, dst, src reg.R) {
	if src.Class() == reg.General {
		if c.Caps.Has(gen.ISA300) && c.Caps.VSX {
			switch elem {
			case ir.Elem64:
				c.Insn(in.MTVSRDD.VtRaRb(dst, src, src))
				return

			case ir.Elem32:
				c.Insn(in.MTVSRWS.VtRa(dst, src))
				return
			}
		}

		st := ir.I64
		if elem < ir.Elem64 || c.Caps.RegBits == 32 {
			st = ir.I32
		}
		movToVec(c, st, dst, src)
		src = dst
	}

	// Scalars are right-justified in the left doubleword.
	switch elem {
	case ir.Elem8:
		c.Insn(in.VSPLTB.VtVbUIM(dst, src, 7))

	case ir.Elem16:
		c.Insn(in.VSPLTH.VtVbUIM(dst, src, 3))

	case ir.Elem32:
		c.Insn(in.VSPLTW.VtVbUIM(dst, src, 1))

	default:
		if c.Caps.VSX {
			c.Insn(in.XXPERMDI.VtVaVbDM(dst, src, src, 0))
			return
		}
		c.Insn(in.VSLDOI.VtVaVbShb(RegVecTmp1, src, src, 8))
		c.Insn(in.VSLDOI.VtVaVbShb(dst, RegVecTmp1, src, 8))
	}
}

// dupm loads an element and replicates it.  The base register is 16-byte
// aligned; the element is selected by the low bits of the offset.
func dupm(c *gen.Ctx, elem uint8, dst, base reg.R, offset int64) {
	le := !c.Caps.BigEndian

	switch elem {
	case ir.Elem8:
		memLong(c, accLVEBX, dst, base, offset)
		e := uint32(offset) & 15
		if le {
			e ^= 15
		}
		c.Insn(in.VSPLTB.VtVbUIM(dst, dst, e))

	case ir.Elem16:
		memLong(c, accLVEHX, dst, base, offset)
		e := uint32(offset>>1) & 7
		if le {
			e ^= 7
		}
		c.Insn(in.VSPLTH.VtVbUIM(dst, dst, e))

	case ir.Elem32:
		memLong(c, accLVEWX, dst, base, offset)
		e := uint32(offset>>2) & 3
		if le {
			e ^= 3
		}
		c.Insn(in.VSPLTW.VtVbUIM(dst, dst, e))

	default:
		if c.Caps.VSX {
			memLong(c, accLXVDSX, dst, base, offset)
			return
		}
		memLong(c, accLVX, dst, base, offset&^15)
		c.Insn(in.VSLDOI.VtVaVbShb(RegVecTmp1, dst, dst, 8))
		second := offset&8 != 0
		if le {
			second = !second
		}
		if second {
			c.Insn(in.VSLDOI.VtVaVbShb(dst, dst, RegVecTmp1, 8))
		} else {
			c.Insn(in.VSLDOI.VtVaVbShb(dst, RegVecTmp1, dst, 8))
		}
	}
}
