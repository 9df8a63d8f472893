// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/gen/regalloc"
)

const (
	RegZero = reg.R(0) // Scratch; reads as zero in RA of D-form instructions.
	RegSP   = reg.R(1)
	RegTOC  = reg.R(2)
	RegR3   = reg.R(3)
	RegR4   = reg.R(4)
	RegR5   = reg.R(5)
	RegR6   = reg.R(6)
	RegR7   = reg.R(7)
	RegR11  = reg.R(11)
	RegR12  = reg.R(12)
	RegTP   = reg.R(13)
	RegEnv  = reg.R(27) // Default context register.
	RegTB   = reg.R(31) // Body address on 64-bit hosts.
)

var (
	RegVecTmp1 = reg.V(0)
	RegVecTmp2 = reg.V(1)
)

const numArgRegs = 8 // r3-r10

var allocOrder = []reg.R{
	14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
	12, 11, 2, 13,
	10, 9, 8, 7, 6, 5, 4, 3,
	reg.V(2), reg.V(3), reg.V(4), reg.V(5), reg.V(6), reg.V(7), reg.V(8), reg.V(9),
	reg.V(10), reg.V(11), reg.V(12), reg.V(13), reg.V(14), reg.V(15), reg.V(16), reg.V(17),
	reg.V(18), reg.V(19),
}

// AllocOrder of scratch registers.
func AllocOrder() []reg.R {
	return allocOrder
}

// Tmp1 is the memory access temporary register.
func Tmp1(k abi.Kind) reg.R {
	if k == abi.ELFv1 {
		return RegTOC
	}
	return RegR12
}

func argReg(i int) reg.R {
	return RegR3 + reg.R(i)
}

// Reserved registers are never allocated.
func Reserved(c *gen.Ctx) reg.Set {
	s := reg.SetOf(RegZero, RegSP, Tmp1(c.ABI), c.State.EnvReg, RegVecTmp1, RegVecTmp2)
	if c.ABI == abi.SysV {
		s = s.With(RegTOC)
	}
	if c.ABI == abi.SysV || c.Caps.RegBits == 64 {
		s = s.With(RegTP)
	}
	if c.Caps.RegBits == 64 {
		s = s.With(RegTB)
	}
	if !c.Caps.AltiVec {
		s |= reg.VectorSet
	}
	return s
}

// CalleeSaved registers are saved by the prologue.
func CalleeSaved(k abi.Kind) (list []reg.R) {
	if k == abi.Darwin {
		list = append(list, RegR11)
	}
	for r := reg.R(14); r <= 31; r++ {
		list = append(list, r)
	}
	return
}

// CallClobbered registers don't survive calls.
func CallClobbered(k abi.Kind) reg.Set {
	s := reg.SetOf(0, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	if k == abi.Darwin {
		s = s.Without(RegR11)
	}
	for i := 0; i <= 19; i++ {
		s = s.With(reg.V(i))
	}
	return s
}

// NewAllocator for a translation unit.  Registers bound by the driver are
// marked as allocated.
func NewAllocator(c *gen.Ctx, bound reg.Set) {
	c.Regs = regalloc.Make(allocOrder, Reserved(c))
	for r := reg.R(0); r < reg.Count; r++ {
		if bound.Has(r) {
			c.Regs.SetAllocated(r)
		}
	}
}
