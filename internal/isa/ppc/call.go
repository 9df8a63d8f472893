// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/ir"
)

type regMove struct {
	t        ir.Type
	dst, src reg.R
}

// parallelMove performs the moves as if simultaneously.  Cycles are broken
// through R0.
func parallelMove(c *gen.Ctx, moves []regMove) {
	pending := make([]regMove, 0, len(moves))
	for _, m := range moves {
		if m.dst != m.src {
			pending = append(pending, m)
		}
	}

	for len(pending) > 0 {
		progress := false

		for i, m := range pending {
			if readBy(pending, m.dst, i) {
				continue
			}
			mov(c, m.t, m.dst, m.src)
			pending = append(pending[:i], pending[i+1:]...)
			progress = true
			break
		}

		if !progress {
			m := pending[0]
			mov(c, m.t, RegZero, m.src)
			for i := range pending {
				if pending[i].src == m.src {
					pending[i].src = RegZero
				}
			}
		}
	}
}

func readBy(moves []regMove, r reg.R, except int) bool {
	for i, m := range moves {
		if i != except && m.src == r {
			return true
		}
	}
	return false
}

// argSlot is a word of the outgoing argument list.
type argSlot struct {
	reg   reg.R // Source register, or zero for constants.
	value int64
}

// callArgs lays out the arguments in words.  64-bit values on 32-bit hosts
// occupy two words, aligned to an even word if the ABI requires it.
func callArgs(c *gen.Ctx, args []ir.Operand) (slots []argSlot) {
	narrow := c.Caps.RegBits == 32

	pair := func(lo, hi argSlot) {
		if c.ABI.PairedArgs() && len(slots)&1 != 0 {
			slots = append(slots, argSlot{})
		}
		if c.Caps.BigEndian {
			slots = append(slots, hi, lo)
		} else {
			slots = append(slots, lo, hi)
		}
	}

	for _, x := range args {
		switch x.Kind {
		case ir.KindReg:
			slots = append(slots, argSlot{reg: x.Reg})

		case ir.KindRegPair:
			if !narrow {
				panic(errors.Internalf("register pair argument %s on 64-bit host", x))
			}
			pair(argSlot{reg: x.Reg}, argSlot{reg: x.Hi})

		case ir.KindConst:
			if narrow && x.Wide {
				pair(argSlot{value: int64(int32(x.Value))}, argSlot{value: x.Value >> 32})
			} else {
				slots = append(slots, argSlot{value: x.Value})
			}

		default:
			panic(errors.Internalf("invalid call argument %s", x))
		}
	}

	if n := len(slots) - numArgRegs; n > 0 && int32(n)*wordSize(c) > staticCallArgs {
		panic(errors.Internalf("%d stack argument words exceed the outgoing area", n))
	}
	return
}

// marshalArgs moves arguments into place: the stack words first, then the
// registers in parallel, then the constants.
func marshalArgs(c *gen.Ctx, args []ir.Operand) {
	slots := callArgs(c, args)
	f := Layout(c)
	word := wordSize(c)
	t := ptrType(c)

	for i := numArgRegs; i < len(slots); i++ {
		s := slots[i]
		off := int64(f.CallArgs + int32(i-numArgRegs)*word)
		if s.reg != 0 {
			store(c, t, s.reg, RegSP, off)
		} else {
			movi(c, t, RegZero, s.value)
			store(c, t, RegZero, RegSP, off)
		}
	}

	var moves []regMove
	for i := 0; i < len(slots) && i < numArgRegs; i++ {
		if s := slots[i]; s.reg != 0 {
			moves = append(moves, regMove{t, argReg(i), s.reg})
		}
	}
	parallelMove(c, moves)

	for i := 0; i < len(slots) && i < numArgRegs; i++ {
		if s := slots[i]; s.reg == 0 {
			movi(c, t, argReg(i), s.value)
		}
	}
}

// callAbs calls a function at an absolute address.  On ELFv1 the address is
// that of a function descriptor.
func callAbs(c *gen.Ctx, target uint64) {
	switch c.ABI {
	case abi.ELFv1:
		tmp := Tmp1(c.ABI)
		ofs := int64(int16(target))
		base := target
		if ofs+8 < 0x8000 {
			base -= uint64(ofs)
		} else {
			ofs = 0
		}
		movi(c, ir.I64, tmp, int64(base))
		load(c, ir.I64, RegZero, tmp, ofs)
		mtctr(c, RegZero)
		load(c, ir.I64, RegTOC, tmp, ofs+8)

	case abi.ELFv2:
		movi(c, ir.I64, RegR12, int64(target))
		mtctr(c, RegR12)

	default:
		if abs, ok := c.AbsAddr(c.Text.Addr); ok {
			if disp := int64(target - abs); in.FieldLI.Fits(disp) {
				c.Insn(in.B.LILink(int32(disp)))
				return
			}
		}
		movi(c, ptrType(c), RegZero, int64(target))
		mtctr(c, RegZero)
	}

	c.Insn(in.BCCTR.Always() | in.LK)
}

// callHelper calls a runtime helper after the arguments are in place.
func callHelper(c *gen.Ctx, target uint64, what string) {
	if target == 0 {
		panic(errors.Internalf("%s helper is not configured", what))
	}
	callAbs(c, target)
}

// call lowers a Call operation: results, target, arguments.
func call(c *gen.Ctx, op ir.Op) {
	outs := int(op.Outs)
	if outs > 1 {
		panic(errors.Internalf("%s: too many results", op))
	}
	target := op.Args[outs]
	args := op.Args[outs+1:]

	switch target.Kind {
	case ir.KindConst:
		marshalArgs(c, args)
		callAbs(c, uint64(target.Value))

	case ir.KindReg:
		r := target.Reg

		switch c.ABI {
		case abi.ELFv1:
			mov(c, ir.I64, Tmp1(c.ABI), r)
			marshalArgs(c, args)
			tmp := Tmp1(c.ABI)
			load(c, ir.I64, RegZero, tmp, 0)
			mtctr(c, RegZero)
			load(c, ir.I64, RegTOC, tmp, 8)

		case abi.ELFv2:
			mtctr(c, r)
			marshalArgs(c, args)
			c.Insn(in.MFSPR.RtSpr(RegR12, in.CTR))

		default:
			mtctr(c, r)
			marshalArgs(c, args)
		}
		c.Insn(in.BCCTR.Always() | in.LK)

	default:
		panic(errors.Internalf("%s: invalid call target", op))
	}

	if outs == 0 {
		return
	}

	switch res := op.Args[0]; res.Kind {
	case ir.KindReg:
		mov(c, ptrType(c), res.Reg, RegR3)

	case ir.KindRegPair:
		hi, lo := RegR3, RegR4
		if !c.Caps.BigEndian {
			hi, lo = lo, hi
		}
		parallelMove(c, []regMove{{ir.I32, res.Reg, lo}, {ir.I32, res.Hi, hi}})

	default:
		panic(errors.Internalf("%s: invalid call result", op))
	}
}
