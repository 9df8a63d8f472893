// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package in encodes PowerPC instructions.  Every field is range checked:
// a value which doesn't fit is an internal error.
package in

import (
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen/reg"
)

// Branch options (BO field).
const (
	BOCondFalse = 4
	BOCondTrue  = 12
	BOAlways    = 20
)

// Condition register field bits.
const (
	CRLT = 0
	CRGT = 1
	CREQ = 2
	CRSO = 3
)

// BI selects a bit of a condition register field.
func BI(cr, bit uint32) uint32 {
	return cr*4 + bit
}

// Special purpose registers.
type SPR uint32

const (
	LR  = SPR(8)
	CTR = SPR(9)
)

// LK sets the link bit of a branch.
const LK = 1

func fail(op uint32, field string, value int64) {
	panic(errors.Internalf("instruction %#08x: field %s out of range: %d", op, field, value))
}

func gpr(op uint32, field string, r reg.R) uint32 {
	if !r.Valid() || r.Class() != reg.General {
		fail(op, field, int64(r))
	}
	return r.Num()
}

func vr(op uint32, field string, r reg.R) uint32 {
	if !r.Valid() || r.Class() != reg.Vec {
		fail(op, field, int64(r))
	}
	return r.Num()
}

func field(op uint32, f Field, v int64) uint32 {
	if !f.Fits(v) {
		fail(op, f.Name, v)
	}
	return f.Encode(v)
}

func rt(op uint32, r reg.R) uint32 { return gpr(op, "RT", r) << 21 }
func rs(op uint32, r reg.R) uint32 { return gpr(op, "RS", r) << 21 }
func ra(op uint32, r reg.R) uint32 { return gpr(op, "RA", r) << 16 }
func rb(op uint32, r reg.R) uint32 { return gpr(op, "RB", r) << 11 }
func vt(op uint32, r reg.R) uint32 { return vr(op, "VT", r) << 21 }
func va(op uint32, r reg.R) uint32 { return vr(op, "VA", r) << 16 }
func vb(op uint32, r reg.R) uint32 { return vr(op, "VB", r) << 11 }
func vc(op uint32, r reg.R) uint32 { return vr(op, "VC", r) << 6 }

func bounded(op uint32, name string, v, limit uint32) uint32 {
	if v >= limit {
		fail(op, name, int64(v))
	}
	return v
}

// Plain instruction without operands.
type Plain uint32

func (op Plain) Word() uint32 { return uint32(op) }

// D-form with signed immediate: addi, addis, loads and stores.
type RegRegSImm16 uint32

func (op RegRegSImm16) RtRaSI(t, a reg.R, si int32) uint32 {
	return uint32(op) | rt(uint32(op), t) | ra(uint32(op), a) | field(uint32(op), FieldSI, int64(si))
}

// D-form with unsigned immediate: logical operations.
type RegRegUImm16 uint32

func (op RegRegUImm16) RaRsUI(a, s reg.R, ui uint32) uint32 {
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) | field(uint32(op), FieldUI, int64(ui))
}

// DS-form: 64-bit loads and stores with word-aligned displacement.
type RegRegDS uint32

func (op RegRegDS) RtRaDS(t, a reg.R, ds int32) uint32 {
	return uint32(op) | rt(uint32(op), t) | ra(uint32(op), a) | field(uint32(op), FieldDS, int64(ds))
}

// X/XO-form: RT = RA op RB.  Indexed loads and stores have the same layout.
type RegRegReg uint32

func (op RegRegReg) RtRaRb(t, a, b reg.R) uint32 {
	return uint32(op) | rt(uint32(op), t) | ra(uint32(op), a) | rb(uint32(op), b)
}

// XO-form with a single source: RT = op RA.
type RegReg uint32

func (op RegReg) RtRa(t, a reg.R) uint32 {
	return uint32(op) | rt(uint32(op), t) | ra(uint32(op), a)
}

// X-form logical: RA = RS op RB.
type LogicRegRegReg uint32

func (op LogicRegRegReg) RaRsRb(a, s, b reg.R) uint32 {
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) | rb(uint32(op), b)
}

// X-form logical with a single source: RA = op RS.
type LogicRegReg uint32

func (op LogicRegReg) RaRs(a, s reg.R) uint32 {
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a)
}

// srawi
type ShiftImm32 uint32

func (op ShiftImm32) RaRsSH(a, s reg.R, sh uint32) uint32 {
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) | bounded(uint32(op), "SH", sh, 32)<<11
}

// sradi: the sixth bit of the shift count is split off.
type ShiftImm64 uint32

func (op ShiftImm64) RaRsSH(a, s reg.R, sh uint32) uint32 {
	sh = bounded(uint32(op), "SH", sh, 64)
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) | (sh&31)<<11 | (sh>>5)<<1
}

// M-form: rlwinm, rlwimi.
type RotateImm32 uint32

func (op RotateImm32) RaRsShMbMe(a, s reg.R, sh, mb, me uint32) uint32 {
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) |
		bounded(uint32(op), "SH", sh, 32)<<11 |
		bounded(uint32(op), "MB", mb, 32)<<6 |
		bounded(uint32(op), "ME", me, 32)<<1
}

// M-form: rlwnm.
type RotateReg32 uint32

func (op RotateReg32) RaRsRbMbMe(a, s, b reg.R, mb, me uint32) uint32 {
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) | rb(uint32(op), b) |
		bounded(uint32(op), "MB", mb, 32)<<6 |
		bounded(uint32(op), "ME", me, 32)<<1
}

// mb6 encodes a 6-bit mask boundary with the high bit moved to the bottom.
func mb6(op uint32, mb uint32) uint32 {
	mb = bounded(op, "MB", mb, 64)
	return ((mb>>5 | mb<<1) & 0x3f) << 5
}

// MD-form: rldicl, rldicr, rldic, rldimi.  For rldicr, mb is the mask end.
type RotateImm64 uint32

func (op RotateImm64) RaRsShMb(a, s reg.R, sh, mb uint32) uint32 {
	sh = bounded(uint32(op), "SH", sh, 64)
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) | (sh&31)<<11 | (sh>>5)<<1 | mb6(uint32(op), mb)
}

// MDS-form: rldcl.
type RotateReg64 uint32

func (op RotateReg64) RaRsRbMb(a, s, b reg.R, mb uint32) uint32 {
	return uint32(op) | rs(uint32(op), s) | ra(uint32(op), a) | rb(uint32(op), b) | mb6(uint32(op), mb)
}

func bf(op uint32, cr uint32, wide bool) uint32 {
	x := field(op, FieldBF, int64(cr))
	if wide {
		x |= 1 << 21
	}
	return x
}

// cmp, cmpl
type CmpReg uint32

func (op CmpReg) BfRaRb(cr uint32, a, b reg.R, wide bool) uint32 {
	return uint32(op) | bf(uint32(op), cr, wide) | ra(uint32(op), a) | rb(uint32(op), b)
}

// cmpi
type CmpSImm16 uint32

func (op CmpSImm16) BfRaSI(cr uint32, a reg.R, si int32, wide bool) uint32 {
	return uint32(op) | bf(uint32(op), cr, wide) | ra(uint32(op), a) | field(uint32(op), FieldSI, int64(si))
}

// cmpli
type CmpUImm16 uint32

func (op CmpUImm16) BfRaUI(cr uint32, a reg.R, ui uint32, wide bool) uint32 {
	return uint32(op) | bf(uint32(op), cr, wide) | ra(uint32(op), a) | field(uint32(op), FieldUI, int64(ui))
}

// I-form: b, bl.
type Branch uint32

func (op Branch) LI(disp int32) uint32 {
	return uint32(op) | field(uint32(op), FieldLI, int64(disp))
}

func (op Branch) LILink(disp int32) uint32 {
	return op.LI(disp) | LK
}

// B-form: bc.
type CondBranch uint32

func (op CondBranch) BoBiBD(bo, bi uint32, disp int32) uint32 {
	return uint32(op) | field(uint32(op), FieldBO, int64(bo)) | field(uint32(op), FieldBI, int64(bi)) | field(uint32(op), FieldBD, int64(disp))
}

// XL-form: bclr, bcctr.
type BranchReg uint32

func (op BranchReg) BoBi(bo, bi uint32) uint32 {
	return uint32(op) | field(uint32(op), FieldBO, int64(bo)) | field(uint32(op), FieldBI, int64(bi))
}

// Always branches unconditionally.
func (op BranchReg) Always() uint32 {
	return op.BoBi(BOAlways, 0)
}

// XL-form: condition register logical operations.
type CondLogic uint32

func (op CondLogic) BtBaBb(bt, ba, bb uint32) uint32 {
	return uint32(op) |
		bounded(uint32(op), "BT", bt, 32)<<21 |
		bounded(uint32(op), "BA", ba, 32)<<16 |
		bounded(uint32(op), "BB", bb, 32)<<11
}

// mfcr, mfocrf
type MoveFromCR uint32

func (op MoveFromCR) Rt(t reg.R) uint32 {
	return uint32(op) | rt(uint32(op), t)
}

// RtCR moves a single field (mfocrf).
func (op MoveFromCR) RtCR(t reg.R, cr uint32) uint32 {
	return op.Rt(t) | 1<<(19-bounded(uint32(op), "FXM", cr, 8))
}

// XFX-form: mfspr, mtspr.
type MoveSPR uint32

func (op MoveSPR) RtSpr(t reg.R, spr SPR) uint32 {
	n := bounded(uint32(op), "SPR", uint32(spr), 1024)
	return uint32(op) | rt(uint32(op), t) | (n&31)<<16 | (n>>5)<<11
}

// A-form: isel.
type Select uint32

func (op Select) RtRaRbBc(t, a, b reg.R, bc uint32) uint32 {
	return uint32(op) | rt(uint32(op), t) | gpr(uint32(op), "RA", a)<<16 | rb(uint32(op), b) | field(uint32(op), FieldBC, int64(bc))
}

// VX-form: VT = VA op VB.
type VecVecVec uint32

func (op VecVecVec) VtVaVb(t, a, b reg.R) uint32 {
	return uint32(op) | vt(uint32(op), t) | va(uint32(op), a) | vb(uint32(op), b)
}

// VX-form with a single source in VB.
type VecVec uint32

func (op VecVec) VtVb(t, b reg.R) uint32 {
	return uint32(op) | vt(uint32(op), t) | vb(uint32(op), b)
}

// VA-form (and XX4-form): VT = op(VA, VB, VC).
type VecVecVecVec uint32

func (op VecVecVecVec) VtVaVbVc(t, a, b, c reg.R) uint32 {
	return uint32(op) | vt(uint32(op), t) | va(uint32(op), a) | vb(uint32(op), b) | vc(uint32(op), c)
}

// vsldoi
type VecVecVecShift uint32

func (op VecVecVecShift) VtVaVbShb(t, a, b reg.R, shb uint32) uint32 {
	return uint32(op) | vt(uint32(op), t) | va(uint32(op), a) | vb(uint32(op), b) | field(uint32(op), FieldSHB, int64(shb))
}

// xxpermdi
type VecVecVecDM uint32

func (op VecVecVecDM) VtVaVbDM(t, a, b reg.R, dm uint32) uint32 {
	return uint32(op) | vt(uint32(op), t) | va(uint32(op), a) | vb(uint32(op), b) | field(uint32(op), FieldDM, int64(dm))
}

// vspltb, vsplth, vspltw
type VecVecUImm uint32

func (op VecVecUImm) VtVbUIM(t, b reg.R, uim uint32) uint32 {
	var limit uint32
	switch op {
	case VSPLTB:
		limit = 16
	case VSPLTH:
		limit = 8
	default:
		limit = 4
	}
	return uint32(op) | vt(uint32(op), t) | vb(uint32(op), b) | bounded(uint32(op), "UIM", uim, limit)<<16
}

// vspltisb, vspltish, vspltisw
type VecSImm5 uint32

func (op VecSImm5) VtSIM(t reg.R, sim int32) uint32 {
	return uint32(op) | vt(uint32(op), t) | field(uint32(op), FieldSIM, int64(sim))
}

// xxspltib
type VecImm8 uint32

func (op VecImm8) VtIMM8(t reg.R, imm uint32) uint32 {
	return uint32(op) | vt(uint32(op), t) | field(uint32(op), FieldIMM8, int64(imm))
}

// Vector register with general-purpose address registers: lvx, stvx, VSX
// loads and stores, mtvsrdd.
type VecRegReg uint32

func (op VecRegReg) VtRaRb(t, a, b reg.R) uint32 {
	return uint32(op) | vt(uint32(op), t) | ra(uint32(op), a) | rb(uint32(op), b)
}

// mtvsrd, mtvsrwz, mtvsrws
type VecReg uint32

func (op VecReg) VtRa(t, a reg.R) uint32 {
	return uint32(op) | vt(uint32(op), t) | ra(uint32(op), a)
}

// mfvsrd, mfvsrwz
type RegVec uint32

func (op RegVec) RaVs(a, s reg.R) uint32 {
	return uint32(op) | vr(uint32(op), "VS", s)<<21 | ra(uint32(op), a)
}
