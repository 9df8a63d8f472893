// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// Cond bits: 1 = invert, 2 = ordered (signed), 4 = unsigned, 8 = includes
// equality.
type Cond uint8

const (
	Never  = Cond(0 | 0 | 0 | 0)
	Always = Cond(0 | 0 | 0 | 1)
	EQ     = Cond(8 | 0 | 0 | 0)
	NE     = Cond(8 | 0 | 0 | 1)
	LT     = Cond(0 | 0 | 2 | 0)
	GE     = Cond(0 | 0 | 2 | 1)
	LE     = Cond(8 | 0 | 2 | 0)
	GT     = Cond(8 | 0 | 2 | 1)
	LTU    = Cond(0 | 4 | 0 | 0)
	GEU    = Cond(0 | 4 | 0 | 1)
	LEU    = Cond(8 | 4 | 0 | 0)
	GTU    = Cond(8 | 4 | 0 | 1)

	NumConds = 16
)

// Invert: !(a c b) == a c.Invert() b.
func (c Cond) Invert() Cond {
	return c ^ 1
}

// Swap: (a c b) == (b c.Swap() a).
func (c Cond) Swap() Cond {
	if c&6 != 0 {
		return c ^ 9
	}
	return c
}

// ToUnsigned turns an ordered comparison into the unsigned one.
func (c Cond) ToUnsigned() Cond {
	if c&2 != 0 {
		return c&^2 | 4
	}
	return c
}

func (c Cond) Unsigned() bool {
	return c&4 != 0
}

func (c Cond) String() string {
	switch c {
	case Never:
		return "never"
	case Always:
		return "always"
	case EQ:
		return "eq"
	case NE:
		return "ne"
	case LT:
		return "lt"
	case GE:
		return "ge"
	case LE:
		return "le"
	case GT:
		return "gt"
	case LTU:
		return "ltu"
	case GEU:
		return "geu"
	case LEU:
		return "leu"
	case GTU:
		return "gtu"
	default:
		return "<invalid cond>"
	}
}

// Eval the condition on 64-bit operands.  Useful for constant folding and
// tests.
func (c Cond) Eval(a, b int64) bool {
	switch c {
	case Always:
		return true
	case EQ:
		return a == b
	case NE:
		return a != b
	case LT:
		return a < b
	case GE:
		return a >= b
	case LE:
		return a <= b
	case GT:
		return a > b
	case LTU:
		return uint64(a) < uint64(b)
	case GEU:
		return uint64(a) >= uint64(b)
	case LEU:
		return uint64(a) <= uint64(b)
	case GTU:
		return uint64(a) > uint64(b)
	default:
		return false
	}
}
