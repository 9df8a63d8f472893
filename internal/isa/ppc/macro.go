// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/internal/constraint"
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/ir"
)

// NopWord pads the text.
var NopWord = in.NOP.Word()

// opReserve is an upper bound of the code size of a lowered operation, used
// when deciding whether pending short branches need an island.
const opReserve = 256

var asm MacroAssembler

// MacroAssembler lowers translation units.
type MacroAssembler struct{}

// Assembler of the PowerPC backend.
func Assembler() MacroAssembler {
	return asm
}

// Begin a unit: registers bound by the driver are excluded from scratch
// allocation.
func (MacroAssembler) Begin(c *gen.Ctx, bound reg.Set) {
	c.Linker = linker
	NewAllocator(c, bound)
	c.Epilogue = c.NewLabel("epilogue")
	prologue(c)
}

// Bound registers of a unit: every register which appears as an operand.
func Bound(ops []ir.Op) (s reg.Set) {
	for _, op := range ops {
		for _, x := range op.Args {
			switch x.Kind {
			case ir.KindReg:
				s = s.With(x.Reg)

			case ir.KindRegPair:
				s = s.With(x.Reg).With(x.Hi)
			}
		}
	}
	return
}

// Clobbered registers of a unit: registers which the lowering of ops may
// overwrite whatever their operand constraints say.  The context register is
// excluded.
func Clobbered(c *gen.Ctx, ops []ir.Op) reg.Set {
	s := Reserved(c).Without(c.State.EnvReg)
	for _, op := range ops {
		if op.Code.ClobbersCallRegs() {
			s |= CallClobbered(c.ABI)
			break
		}
	}
	return s
}

// Op lowers an operation.
func (MacroAssembler) Op(c *gen.Ctx, op ir.Op) {
	if !CanEmitOp(&c.Caps, op) {
		panic(errors.Internalf("%s is not supported by the host", op))
	}

	if debug.Enabled {
		debug.Printf("%#x: %s", c.Text.Addr, op)
		debug.Depth++
		defer func() { debug.Depth-- }()
	}

	maybeIsland(c, opReserve)

	switch op.Code {
	case ir.Nop, ir.Discard:
		return

	case ir.SetLabel:
		c.Bind(c.Label(op.Args[0]))
		return

	case ir.Br:
		branch(c, c.Label(op.Args[0]), false)
		return

	case ir.ExitTB:
		exitTB(c, op.Args[0].Value)
		return

	case ir.GotoTB:
		gotoTB(c, op.Args[0].Value)
		return

	case ir.Mb:
		barrier(c, ir.Barrier(op.Args[0].Value))
		return

	case ir.Call:
		call(c, op)
		return

	case ir.Mov:
		move(c, op.Type, op.Args[0], op.Args[1])
		return

	case ir.Movi:
		moveImm(c, op.Type, op.Args[0], op.Args[1].Value)
		return
	}

	spec, found := Constraints(c).Lookup(op)
	if !found {
		panic(errors.Internalf("%s: no operand constraints", op))
	}

	r := constraint.Resolve(spec, op, &c.Regs, mover{c})
	lower(c, r)
	r.Finish()
}

func lower(c *gen.Ctx, r *constraint.Resolved) {
	op := r.Op

	switch op.Code {
	case ir.GotoPtr:
		gotoPtr(c, op.Args[0])

	case ir.Brcond:
		brcond(c, op)

	case ir.Setcond:
		setcond(c, op)

	case ir.Movcond:
		movcond(c, op)

	case ir.Ld8u, ir.Ld8s, ir.Ld16u, ir.Ld16s, ir.Ld32u, ir.Ld32s, ir.Ld:
		hostLoad(c, op)

	case ir.St8, ir.St16, ir.St32, ir.St:
		hostStore(c, op)

	case ir.QemuLd, ir.QemuSt:
		guestMemory(c, op)

	default:
		if op.Type.IsVector() {
			vector(c, op, func() reg.R {
				return r.Scratch(reg.VectorSet)
			})
		} else {
			alu(c, op)
		}
	}
}

func move(c *gen.Ctx, t ir.Type, dst, src ir.Operand) {
	switch {
	case dst.IsPair() && src.IsPair():
		parallelMove(c, []regMove{{ir.I32, dst.Reg, src.Reg}, {ir.I32, dst.Hi, src.Hi}})

	case dst.IsReg() && src.IsReg():
		mov(c, t, dst.Reg, src.Reg)

	default:
		panic(errors.Internalf("mov %s, %s", dst, src))
	}
}

func moveImm(c *gen.Ctx, t ir.Type, dst ir.Operand, value int64) {
	switch dst.Kind {
	case ir.KindRegPair:
		movi(c, ir.I32, dst.Reg, int64(int32(value)))
		movi(c, ir.I32, dst.Hi, value>>32)

	case ir.KindReg:
		movImm(c, t, dst.Reg, value)

	default:
		panic(errors.Internalf("movi %s", dst))
	}
}

// Finalize emits the out-of-line code and the constant pool, and resolves
// the remaining references.
func (MacroAssembler) Finalize(c *gen.Ctx, bound reg.Set) {
	if debug.Enabled {
		debug.Printf("finalize at %#x: %d slow paths", c.Text.Addr, len(c.SlowPaths))
	}

	slowPaths(c)
	maybeIsland(c, opReserve)
	epilogue(c)
	c.EmitPool(NopWord)
	finishSlots(c)

	c.Labels.Check()

	for r := reg.R(0); r < reg.Count; r++ {
		if bound.Has(r) && c.Regs.Allocated(r) {
			c.Regs.Free(r)
		}
	}
	c.Regs.CheckNoneAllocated()
}
