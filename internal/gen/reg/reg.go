// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reg

import (
	"fmt"
	"math/bits"
)

// R is a host register.  General-purpose registers are numbered 0-31 and
// vector registers 32-63.
type R byte

const (
	NumGeneral = 32
	NumVector  = 32
	Count      = NumGeneral + NumVector

	Vector0 = R(NumGeneral)
)

// None is not a valid register.
const None = R(0xff)

type Class uint8

const (
	General = Class(iota)
	Vec
)

func (c Class) String() string {
	switch c {
	case General:
		return "general"

	case Vec:
		return "vector"

	default:
		return fmt.Sprintf("<invalid class %d>", c)
	}
}

func (r R) Class() Class {
	if r >= Vector0 {
		return Vec
	}
	return General
}

// Num is the number of the register within its class (the instruction
// encoding field value).
func (r R) Num() uint32 {
	return uint32(r & 31)
}

func (r R) Valid() bool {
	return r < Count
}

func (r R) String() string {
	switch {
	case r < Vector0:
		return fmt.Sprintf("r%d", r)

	case r < Count:
		return fmt.Sprintf("v%d", r-Vector0)

	default:
		return fmt.Sprintf("<invalid register %d>", r)
	}
}

// V returns vector register number n.
func V(n int) R {
	return Vector0 + R(n)
}

// Set of registers.
type Set uint64

const (
	GeneralSet = Set(0x00000000ffffffff)
	VectorSet  = Set(0xffffffff00000000)
)

func SetOf(rs ...R) (s Set) {
	for _, r := range rs {
		s |= 1 << r
	}
	return
}

func (s Set) Has(r R) bool    { return s&(1<<r) != 0 }
func (s Set) With(r R) Set    { return s | 1<<r }
func (s Set) Without(r R) Set { return s &^ (1 << r) }
func (s Set) Len() int        { return bits.OnesCount64(uint64(s)) }

// First register in the set, or None.
func (s Set) First() R {
	if s == 0 {
		return None
	}
	return R(bits.TrailingZeros64(uint64(s)))
}

func (s Set) String() string {
	str := "{"
	for r := R(0); r < Count; r++ {
		if s.Has(r) {
			if len(str) > 1 {
				str += " "
			}
			str += r.String()
		}
	}
	return str + "}"
}
