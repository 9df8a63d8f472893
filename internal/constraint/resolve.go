// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package constraint

import (
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/gen/regalloc"
	"gate.computer/hostgen/ir"
)

// Mover emits register moves on behalf of the resolver.
type Mover interface {
	MoveReg(t ir.Type, dst, src reg.R)
	MoveImm(t ir.Type, dst reg.R, value int64)
}

type move struct {
	t        ir.Type
	dst, src reg.R
}

// Resolved operation.  Finish must be called after the operation has been
// emitted.
type Resolved struct {
	Op ir.Op

	regs     *regalloc.Allocator
	mover    Mover
	scratch  []reg.R
	marked   []reg.R
	outMoves []move
}

// Resolve operands of op according to spec.  Constants which fail the
// predicates and registers outside the allowed sets are moved into scratch
// registers; outputs outside the allowed sets are computed in scratch
// registers and moved into place by Finish.
func Resolve(spec Spec, op ir.Op, regs *regalloc.Allocator, m Mover) *Resolved {
	args := make([]ir.Operand, len(op.Args))
	copy(args, op.Args)

	r := &Resolved{
		Op:    op,
		regs:  regs,
		mover: m,
	}
	r.Op.Args = args

	// Operand registers must not be handed out as scratch.
	for _, x := range args {
		switch x.Kind {
		case ir.KindReg:
			r.protect(x.Reg)

		case ir.KindRegPair:
			r.protect(x.Reg)
			r.protect(x.Hi)
		}
	}

	n := len(spec.Args)
	if n > len(args) {
		n = len(args)
	}

	for i := 0; i < spec.Outs && i < n; i++ {
		a := spec.Args[i]
		x := &args[i]

		switch x.Kind {
		case ir.KindReg:
			if !a.Regs.Has(x.Reg) {
				s := r.alloc(a.Regs, op)
				r.outMoves = append(r.outMoves, move{argType(op, x.Reg), x.Reg, s})
				x.Reg = s
			}

		case ir.KindRegPair:
			if !a.Regs.Has(x.Reg) {
				s := r.alloc(a.Regs, op)
				r.outMoves = append(r.outMoves, move{ir.I32, x.Reg, s})
				x.Reg = s
			}
			if !a.Regs.Has(x.Hi) {
				s := r.alloc(a.Regs, op)
				r.outMoves = append(r.outMoves, move{ir.I32, x.Hi, s})
				x.Hi = s
			}

		default:
			panic(errors.Internalf("%s: output operand %d is not a register", op, i))
		}
	}

	for i := spec.Outs; i < n; i++ {
		a := spec.Args[i]
		x := &args[i]

		if a.Alias >= 0 {
			r.resolveAlias(spec, op, args, i)
			continue
		}

		switch x.Kind {
		case ir.KindConst:
			if a.Const.Match(op.Type, x.Value) {
				continue
			}
			if spec.Pairs && op.Type == ir.I64 {
				lo := r.alloc(a.Regs, op)
				hi := r.alloc(a.Regs, op)
				m.MoveImm(ir.I32, lo, int64(int32(x.Value)))
				m.MoveImm(ir.I32, hi, x.Value>>32)
				*x = ir.RegPair(lo, hi)
				continue
			}
			t := constType(op, a.Regs)
			s := r.alloc(a.Regs, op)
			m.MoveImm(t, s, x.Value)
			*x = ir.Reg(s)

		case ir.KindReg:
			if a.Regs.Has(x.Reg) {
				continue
			}
			s := r.alloc(a.Regs, op)
			m.MoveReg(argType(op, x.Reg), s, x.Reg)
			x.Reg = s

		case ir.KindRegPair:
			if !a.Regs.Has(x.Reg) {
				s := r.alloc(a.Regs, op)
				m.MoveReg(ir.I32, s, x.Reg)
				x.Reg = s
			}
			if !a.Regs.Has(x.Hi) {
				s := r.alloc(a.Regs, op)
				m.MoveReg(ir.I32, s, x.Hi)
				x.Hi = s
			}
		}
	}

	return r
}

func (r *Resolved) resolveAlias(spec Spec, op ir.Op, args []ir.Operand, i int) {
	a := spec.Args[i]
	x := args[i]
	out := &args[a.Alias]

	if x.Kind == ir.KindReg && x.Reg == out.Reg {
		return
	}

	target := out.Reg

	for j := spec.Outs; j < len(args); j++ {
		if j != i && args[j].Kind == ir.KindReg && args[j].Reg == target {
			// The output register is read by another input.
			s := r.alloc(spec.Args[a.Alias].Regs, op)
			r.outMoves = append(r.outMoves, move{argType(op, target), target, s})
			out.Reg = s
			target = s
			break
		}
	}

	switch x.Kind {
	case ir.KindConst:
		r.mover.MoveImm(op.Type, target, x.Value)

	case ir.KindReg:
		r.mover.MoveReg(argType(op, target), target, x.Reg)

	default:
		panic(errors.Internalf("%s: aliased operand %d is not a register or constant", op, i))
	}

	args[i] = ir.Reg(target)
}

func (r *Resolved) protect(x reg.R) {
	if r.regs.Available(x) && !r.regs.Allocated(x) {
		r.regs.SetAllocated(x)
		r.marked = append(r.marked, x)
	}
}

func (r *Resolved) alloc(allowed reg.Set, op ir.Op) reg.R {
	s, ok := r.regs.Alloc(allowed)
	if !ok {
		panic(errors.Internalf("%s: no register available in %s", op, allowed))
	}

	if debug.Enabled {
		debug.Printf("scratch %s for %s", s, op.Code)
	}

	r.scratch = append(r.scratch, s)
	return s
}

// Scratch register allocated by the lowering itself.  It is released by
// Finish.
func (r *Resolved) Scratch(allowed reg.Set) reg.R {
	return r.alloc(allowed, r.Op)
}

// Finish moves outputs into place and releases scratch registers.
func (r *Resolved) Finish() {
	for _, m := range r.outMoves {
		r.mover.MoveReg(m.t, m.dst, m.src)
	}
	for _, s := range r.scratch {
		r.regs.Free(s)
	}
	for _, x := range r.marked {
		r.regs.Free(x)
	}
	r.scratch = nil
	r.marked = nil
	r.outMoves = nil
}

// argType is the type of a register operand: general-purpose operands of
// vector operations are pointers.
func argType(op ir.Op, x reg.R) ir.Type {
	if op.Type.IsVector() && x.Class() == reg.General {
		return ir.I64
	}
	if !op.Type.IsVector() && x.Class() == reg.Vec {
		return ir.V128
	}
	return op.Type
}

func constType(op ir.Op, allowed reg.Set) ir.Type {
	if op.Type.IsVector() && allowed&reg.VectorSet == 0 {
		return ir.I64
	}
	return op.Type
}
