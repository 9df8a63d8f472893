// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"sync"

	"gate.computer/hostgen/internal/constraint"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/ir"
)

// tableKey selects a constraint table variant.
type tableKey struct {
	regBits   int
	guestBits int
}

var tables struct {
	mu sync.Mutex
	m  map[tableKey]constraint.Table
}

// Constraints table for the host and guest configuration of the context.
func Constraints(c *gen.Ctx) constraint.Table {
	key := tableKey{c.Caps.RegBits, c.State.GuestAddrBits}

	tables.mu.Lock()
	defer tables.mu.Unlock()

	if t, found := tables.m[key]; found {
		return t
	}
	if tables.m == nil {
		tables.m = make(map[tableKey]constraint.Table)
	}

	t := buildTable(key)
	tables.m[key] = t
	return t
}

func letters(key tableKey) constraint.Letters {
	wideGuest := key.regBits == 32 && key.guestBits == 64

	// Registers used by the TLB lookup and the slow path argument setup.
	guarded := reg.GeneralSet &^ reg.SetOf(RegR3, RegR4, RegR5)
	if wideGuest {
		guarded &^= reg.SetOf(RegR6)
	}

	return func(c byte) (reg.Set, bool) {
		switch c {
		case 'r':
			return reg.GeneralSet, true

		case 'v':
			return reg.VectorSet, true

		case 'A':
			return reg.SetOf(RegR3), true

		case 'B':
			return reg.SetOf(RegR4), true

		case 'C':
			return reg.SetOf(RegR5), true

		case 'D':
			return reg.SetOf(RegR6), true

		case 'L', 'S':
			return guarded, true
		}
		return 0, false
	}
}

func buildTable(key tableKey) constraint.Table {
	l := letters(key)
	narrow := key.regBits == 32
	all := constraint.AnyType

	def := func(t constraint.Table, code ir.Opcode, typ ir.Type, outs int, s string) {
		t[constraint.Key{Code: code, Type: typ}] = constraint.Parse(s, outs, l)
	}

	t := make(constraint.Table)

	def(t, ir.GotoPtr, all, 0, "r")

	for _, code := range []ir.Opcode{ir.Ld8u, ir.Ld8s, ir.Ld16u, ir.Ld16s, ir.Ld32u, ir.Ld32s, ir.Ld} {
		def(t, code, all, 1, "r r i")
	}
	for _, code := range []ir.Opcode{ir.St8, ir.St16, ir.St32, ir.St} {
		def(t, code, all, 0, "r r i")
	}

	def(t, ir.Add, ir.I32, 1, "r r ri")
	def(t, ir.Add, ir.I64, 1, "r r rT")
	def(t, ir.Sub, ir.I32, 1, "r rI ri")
	def(t, ir.Sub, ir.I64, 1, "r rI rT")
	def(t, ir.Mul, all, 1, "r r rI")

	for _, code := range []ir.Opcode{ir.Muluh, ir.Mulsh, ir.Div, ir.Divu, ir.Rem, ir.Remu, ir.Eqv, ir.Nand, ir.Nor} {
		def(t, code, all, 1, "r r r")
	}

	def(t, ir.And, all, 1, "r r ri")
	def(t, ir.Andc, all, 1, "r r ri")
	def(t, ir.Or, ir.I32, 1, "r r ri")
	def(t, ir.Or, ir.I64, 1, "r r rU")
	def(t, ir.Xor, ir.I32, 1, "r r ri")
	def(t, ir.Xor, ir.I64, 1, "r r rU")
	def(t, ir.Orc, ir.I32, 1, "r r ri")
	def(t, ir.Orc, ir.I64, 1, "r r r")

	for _, code := range []ir.Opcode{ir.Shl, ir.Shr, ir.Sar, ir.Rotl, ir.Rotr} {
		def(t, code, all, 1, "r r ri")
	}

	def(t, ir.Clz, all, 1, "r r rZW")
	def(t, ir.Ctz, all, 1, "r r rZW")

	for _, code := range []ir.Opcode{
		ir.Ctpop, ir.Neg, ir.Not,
		ir.Ext8s, ir.Ext16s, ir.Ext32s, ir.Ext8u, ir.Ext16u, ir.Ext32u,
		ir.Bswap16, ir.Bswap32, ir.Bswap64,
	} {
		def(t, code, all, 1, "r r")
	}

	def(t, ir.Deposit, all, 1, "r 0 rZ i i")
	def(t, ir.Extract, all, 1, "r r i i")
	def(t, ir.Movcond, all, 1, "r r ri rZ rZ i")

	def(t, ir.Brcond, all, 0, "r ri i")
	def(t, ir.Setcond, all, 1, "r r ri i")

	if narrow {
		// 64-bit comparisons of register pairs.
		pairs := func(code ir.Opcode, outs int, s string) {
			spec := constraint.Parse(s, outs, l)
			spec.Pairs = true
			t[constraint.Key{Code: code, Type: ir.I64}] = spec
		}
		pairs(ir.Brcond, 0, "r ri i")
		pairs(ir.Setcond, 1, "r r ri i")

		def(t, ir.Add2, ir.I32, 2, "r r r r rI rZM")
		def(t, ir.Sub2, ir.I32, 2, "r r rI rZM r r")
	}

	def(t, ir.QemuLd, all, 1, "L L i")
	def(t, ir.QemuSt, all, 0, "S S i")
	if narrow {
		spec := constraint.Parse("L L i", 1, l)
		spec.Pairs = true
		t[constraint.Key{Code: ir.QemuLd, Type: ir.I64}] = spec

		spec = constraint.Parse("S S i", 0, l)
		spec.Pairs = true
		t[constraint.Key{Code: ir.QemuSt, Type: ir.I64}] = spec
	}

	// Vector operations.

	def(t, ir.Dupi, all, 1, "v i")
	def(t, ir.Dup, all, 1, "v vr")
	def(t, ir.Dupm, all, 1, "v r i")
	def(t, ir.LdVec, all, 1, "v r i")
	def(t, ir.StVec, all, 0, "v r i")

	for _, code := range []ir.Opcode{
		ir.AddVec, ir.SubVec, ir.MulVec,
		ir.AndVec, ir.OrVec, ir.XorVec, ir.AndcVec, ir.OrcVec,
		ir.SMinVec, ir.SMaxVec, ir.UMinVec, ir.UMaxVec,
		ir.SSAddVec, ir.USAddVec, ir.SSSubVec, ir.USSubVec,
		ir.ShlvVec, ir.ShrvVec, ir.SarvVec,
		ir.MrghVec, ir.MrglVec, ir.MuleuVec, ir.MulouVec, ir.PkumVec, ir.RotlVec,
	} {
		def(t, code, all, 1, "v v v")
	}

	def(t, ir.NegVec, all, 1, "v v")
	def(t, ir.NotVec, all, 1, "v v")
	def(t, ir.ShliVec, all, 1, "v v i")
	def(t, ir.ShriVec, all, 1, "v v i")
	def(t, ir.SariVec, all, 1, "v v i")
	def(t, ir.CmpVec, all, 1, "v v v i")
	def(t, ir.BitselVec, all, 1, "v v v v")
	def(t, ir.MsumVec, all, 1, "v v v v")

	return t
}

// CanEmit reports whether the host can lower an operation.
func CanEmit(caps *gen.Capabilities, code ir.Opcode, t ir.Type) bool {
	if t.IsVector() {
		switch code {
		case ir.Mov, ir.Movi, ir.Discard:
			return caps.AltiVec
		}
		return false
	}

	narrow := caps.RegBits == 32

	switch code {
	case ir.Nop, ir.SetLabel, ir.Br, ir.ExitTB, ir.GotoTB, ir.GotoPtr, ir.Mb, ir.Call, ir.Discard:
		return true

	case ir.Add2, ir.Sub2:
		return narrow && t == ir.I32

	case ir.Ctpop:
		if !caps.Has(gen.ISA206) {
			return false
		}

	case ir.Rem, ir.Remu:
		// Emulated before ISA 3.00.

	case ir.Brcond, ir.Setcond, ir.QemuLd, ir.QemuSt, ir.Mov, ir.Movi:
		return true

	case ir.Ext32s, ir.Ext32u, ir.Bswap64:
		return t == ir.I64 && !narrow
	}

	if code >= ir.Dupi {
		return false
	}
	return t == ir.I32 || !narrow
}

// CanEmitOp combines CanEmit and CanEmitVec.
func CanEmitOp(caps *gen.Capabilities, op ir.Op) bool {
	if op.Type.IsVector() && op.Code >= ir.Dupi {
		return CanEmitVec(caps, op.Code, op.Type, op.Elem) != 0
	}
	return CanEmit(caps, op.Code, op.Type)
}
