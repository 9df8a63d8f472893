// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package constraint describes the operands an instruction accepts, and
// brings IR operands into such shape.
//
// A constraint string lists one space-separated entry per operand (outputs
// first).  Each entry is a set of letters: register class letters are
// defined by the target, "0"-"9" alias an output, and the constant letters
// are
//
//	i  any constant
//	I  signed 16-bit
//	J  unsigned 16-bit
//	M  minus one
//	T  signed 32-bit
//	U  unsigned 32-bit
//	W  the width of the operation type
//	Z  zero
package constraint

import (
	"fmt"
	"strings"

	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/ir"
)

// Pred is a set of constant predicates.
type Pred uint16

const (
	Any = Pred(1 << iota)
	S16
	U16
	S32
	U32
	MinusOne
	Zero
	Width
)

var predLetters = map[byte]Pred{
	'i': Any,
	'I': S16,
	'J': U16,
	'M': MinusOne,
	'T': S32,
	'U': U32,
	'W': Width,
	'Z': Zero,
}

// Normalize a constant according to the type: 32-bit values are sign
// extended.
func Normalize(t ir.Type, v int64) int64 {
	if t == ir.I32 {
		return int64(int32(v))
	}
	return v
}

// Match any of the predicates.
func (p Pred) Match(t ir.Type, v int64) bool {
	v = Normalize(t, v)

	switch {
	case p&Any != 0:
		return true
	case p&S16 != 0 && v == int64(int16(v)):
		return true
	case p&U16 != 0 && v == int64(uint16(v)):
		return true
	case p&S32 != 0 && v == int64(int32(v)):
		return true
	case p&U32 != 0 && v == int64(uint32(v)):
		return true
	case p&MinusOne != 0 && v == -1:
		return true
	case p&Zero != 0 && v == 0:
		return true
	case p&Width != 0 && v == int64(t.Bits()):
		return true
	}

	// Unsigned predicates also accept 32-bit values which were sign
	// extended above.
	if t == ir.I32 {
		u := int64(uint32(v))
		if p&U16 != 0 && u == int64(uint16(u)) {
			return true
		}
		if p&U32 != 0 {
			return true
		}
	}

	return false
}

// Arg constraint.
type Arg struct {
	Regs  reg.Set
	Const Pred
	Alias int // Output index, or -1.
}

func (a Arg) String() string {
	s := a.Regs.String()
	if a.Const != 0 {
		s += fmt.Sprintf("+const(%#x)", a.Const)
	}
	if a.Alias >= 0 {
		s += fmt.Sprintf("+alias(%d)", a.Alias)
	}
	return s
}

// Spec of an operation.  Operands beyond Args are not constrained (they are
// condition codes, offsets, labels and such).
type Spec struct {
	Outs  int
	Args  []Arg
	Pairs bool // 64-bit values occupy register pairs.
}

// Letters maps a target-specific register class letter to a set.
type Letters func(c byte) (reg.Set, bool)

// Parse a constraint string.  Outs is the number of outputs.
func Parse(s string, outs int, letters Letters) Spec {
	spec := Spec{Outs: outs}

	for _, entry := range strings.Fields(s) {
		a := Arg{Alias: -1}

		for i := 0; i < len(entry); i++ {
			c := entry[i]

			if p, found := predLetters[c]; found {
				a.Const |= p
				continue
			}

			if c >= '0' && c <= '9' {
				a.Alias = int(c - '0')
				continue
			}

			set, ok := letters(c)
			if !ok {
				panic(errors.Internalf("unknown constraint letter %q in %q", c, s))
			}
			a.Regs |= set
		}

		spec.Args = append(spec.Args, a)
	}

	for i, a := range spec.Args {
		if a.Alias >= 0 && (i < outs || a.Alias >= outs) {
			panic(errors.Internalf("invalid alias in constraint %q", s))
		}
	}

	return spec
}

// Table of specs by opcode and type.
type Table map[Key]Spec

type Key struct {
	Code ir.Opcode
	Type ir.Type
}

func (t Table) Lookup(op ir.Op) (Spec, bool) {
	if spec, found := t[Key{op.Code, op.Type}]; found {
		return spec, true
	}
	spec, found := t[Key{op.Code, AnyType}]
	return spec, found
}

// AnyType matches every type in table keys.
const AnyType = ir.Type(0xff)
