// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir defines the architecture-neutral operations consumed by the
// backend.  Operands are already bound to host registers by the driver.
package ir

import (
	"fmt"
	"strings"

	"gate.computer/hostgen/internal/gen/reg"
)

type Type uint8

const (
	I32 = Type(iota)
	I64
	V64
	V128
)

func (t Type) IsVector() bool {
	return t >= V64
}

func (t Type) Bits() int {
	switch t {
	case I32:
		return 32

	case I64, V64:
		return 64

	default:
		return 128
	}
}

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"

	case I64:
		return "i64"

	case V64:
		return "v64"

	case V128:
		return "v128"

	default:
		return fmt.Sprintf("<invalid type %d>", t)
	}
}

// Vector element sizes (log2 of bytes).
const (
	Elem8  = 0
	Elem16 = 1
	Elem32 = 2
	Elem64 = 3
)

type OperandKind uint8

const (
	KindNone = OperandKind(iota)
	KindReg
	KindRegPair // 64-bit value in two 32-bit host registers.
	KindConst
	KindLabel
)

// Operand of an Op.
type Operand struct {
	Kind  OperandKind
	Reg   reg.R // Low half for KindRegPair.
	Hi    reg.R // High half for KindRegPair.
	Value int64 // Constant value or label id.
	Wide  bool  // 64-bit constant passed to a call on a 32-bit host.
}

// GPR and VR name host registers.
func GPR(n int) reg.R { return reg.R(n) }
func VR(n int) reg.R  { return reg.V(n) }

func Reg(r reg.R) Operand            { return Operand{Kind: KindReg, Reg: r} }
func RegPair(lo, hi reg.R) Operand   { return Operand{Kind: KindRegPair, Reg: lo, Hi: hi} }
func Const(v int64) Operand          { return Operand{Kind: KindConst, Value: v} }
func Const64(v int64) Operand        { return Operand{Kind: KindConst, Value: v, Wide: true} }
func LabelRef(id int) Operand        { return Operand{Kind: KindLabel, Value: int64(id)} }
func CondArg(c Cond) Operand         { return Const(int64(c)) }
func MemArg(oi MemOpIdx) Operand     { return Const(int64(oi)) }
func (o Operand) IsReg() bool        { return o.Kind == KindReg }
func (o Operand) IsConst() bool      { return o.Kind == KindConst }
func (o Operand) IsPair() bool       { return o.Kind == KindRegPair }
func (o Operand) LabelID() int       { return int(o.Value) }
func (o Operand) Cond() Cond         { return Cond(o.Value) }
func (o Operand) MemOpIdx() MemOpIdx { return MemOpIdx(o.Value) }

func (o Operand) String() string {
	switch o.Kind {
	case KindReg:
		return o.Reg.String()

	case KindRegPair:
		return fmt.Sprintf("%s:%s", o.Hi, o.Reg)

	case KindConst:
		return fmt.Sprintf("$%#x", o.Value)

	case KindLabel:
		return fmt.Sprintf("L%d", o.Value)

	default:
		return "_"
	}
}

// Op is an IR instruction.  Outputs come first in Args.
type Op struct {
	Code Opcode
	Type Type
	Elem uint8 // Vector element size.
	Outs int8  // Output count for Call.
	Args []Operand
}

func (op Op) String() string {
	var b strings.Builder

	b.WriteString(op.Code.String())
	b.WriteString("_")
	b.WriteString(op.Type.String())
	if op.Type.IsVector() {
		fmt.Fprintf(&b, "e%d", 8<<op.Elem)
	}
	for i, a := range op.Args {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	return b.String()
}

// Barrier kinds for Mb.
type Barrier uint8

const (
	BarrierLdLd = Barrier(1 << iota)
	BarrierStLd
	BarrierLdSt
	BarrierStSt

	BarrierAll = BarrierLdLd | BarrierStLd | BarrierLdSt | BarrierStSt
)
