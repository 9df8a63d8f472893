// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"fmt"
	"testing"

	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/buffer"
	"gate.computer/hostgen/internal/code"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/internal/test/ppcsim"
	"gate.computer/hostgen/ir"
)

const testTextAddr = 0x10000000

var (
	caps64BE = gen.Capabilities{RegBits: 64, ISA: gen.ISA207, ISEL: true, AltiVec: true, VSX: true, BigEndian: true}
	caps64LE = gen.Capabilities{RegBits: 64, ISA: gen.ISA207, ISEL: true, AltiVec: true, VSX: true}
	caps32BE = gen.Capabilities{RegBits: 32, ISA: gen.ISABase, BigEndian: true}
)

// newTestCtx returns a context positioned in the body.  Without tb the TB
// register is treated as unavailable.
func newTestCtx(caps gen.Capabilities, tb bool) *gen.Ctx {
	k := abi.ELFv2
	switch {
	case caps.RegBits == 32:
		k = abi.SysV

	case caps.BigEndian:
		k = abi.ELFv1
	}

	return &gen.Ctx{
		Caps:       caps,
		ABI:        k,
		State:      gen.StateLayout{EnvReg: RegEnv},
		Linker:     linker,
		InPrologue: !tb,
		Text: code.Buf{
			Buffer: new(buffer.Dynamic),
			Order:  caps.Order(),
		},
	}
}

func movImmLen(caps gen.Capabilities, tb bool, t ir.Type, v int64) int {
	c := newTestCtx(caps, tb)
	movi(c, t, RegR3, v)
	return int(c.Text.Addr) / 4
}

func TestMoveImmLength(t *testing.T) {
	for _, x := range []struct {
		t     ir.Type
		value int64
		max   int
		min   int
	}{
		{ir.I32, 0x1234, 1, 1},
		{ir.I64, 0x1234, 1, 1},
		{ir.I32, 0x12340000, 1, 1},
		{ir.I64, 0x12340000, 1, 1},
		{ir.I64, -1, 1, 1},
		{ir.I64, -0x8000, 1, 1},
		{ir.I64, 0x12345678, 2, 2},
		{ir.I64, 0x80000000, 2, 2},
		{ir.I64, 0xffff8000, 2, 2},
		{ir.I64, 0x1234 << 48, 2, 2},
		{ir.I64, 0x123456789abcdef0, 5, 2},
	} {
		for _, tb := range []bool{false, true} {
			n := movImmLen(caps64LE, tb, x.t, x.value)
			if n < x.min || n > x.max {
				t.Errorf("%s %#x (tb=%v): %d instructions", x.t, x.value, tb, n)
			}
		}
	}
}

func TestMoveImmSingleInsn(t *testing.T) {
	c := newTestCtx(caps64BE, true)
	movi(c, ir.I64, RegR3, 0x1234)
	if c.Text.Addr != 4 || c.Text.Word(0) != in.ADDI.RtRaSI(RegR3, 0, 0x1234) {
		t.Errorf("0x1234: %#08x", c.Text.Word(0))
	}

	c = newTestCtx(caps64BE, true)
	movi(c, ir.I64, RegR3, 0x12340000)
	if c.Text.Addr != 4 || c.Text.Word(0) != in.ADDIS.RtRaSI(RegR3, 0, 0x1234) {
		t.Errorf("0x12340000: %#08x", c.Text.Word(0))
	}
}

func TestMoveImmNeverSingleInsn(t *testing.T) {
	const v = 0x123456789abcdef0

	for _, caps := range []gen.Capabilities{caps64BE, caps64LE} {
		for _, tb := range []bool{false, true} {
			if n := movImmLen(caps, tb, ir.I64, v); n < 2 {
				t.Errorf("BigEndian=%v tb=%v: %d instruction", caps.BigEndian, tb, n)
			}
		}
	}
}

func TestMoveImmNearBody(t *testing.T) {
	c := newTestCtx(caps64LE, true)
	c.TextAddr = testTextAddr
	movi(c, ir.I64, RegR3, testTextAddr+0x100)
	if c.Text.Addr != 4 || c.Text.Word(0) != in.ADDI.RtRaSI(RegR3, RegTB, 0x100) {
		t.Errorf("%#08x", c.Text.Word(0))
	}
}

var immValues = []int64{
	0,
	1,
	-1,
	0x7fff,
	0x8000,
	-0x8000,
	0x1234,
	0x12340000,
	0x12345678,
	0x7fffffff,
	-0x80000000,
	0x80000000,
	0xffff8000,
	0xffffffff,
	0x100000000,
	0x1234 << 48,
	0x7fffffffffffffff,
	-0x8000000000000000,
	0x0000ffff00000000,
	0x123456789abcdef0,
	-0x123456789abcdef0,
}

// runMoveImm executes the materialization of v into r3 followed by blr.
func runMoveImm(t *testing.T, caps gen.Capabilities, tb bool, typ ir.Type, v int64) uint64 {
	t.Helper()

	c := newTestCtx(caps, tb)
	movi(c, typ, RegR3, v)
	c.Insn(in.BCLR.Always())
	c.EmitPool(NopWord)

	m := ppcsim.New(caps)
	m.Mem.Map(testTextAddr, c.Text.Bytes())
	m.GPR[RegTB] = testTextAddr

	result, err := m.Call(testTextAddr)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestMoveImmExec(t *testing.T) {
	for _, caps := range []gen.Capabilities{caps64BE, caps64LE} {
		for _, tb := range []bool{false, true} {
			for _, v := range immValues {
				t.Run(fmt.Sprintf("%v/%v/%#x", caps.BigEndian, tb, v), func(t *testing.T) {
					if result := runMoveImm(t, caps, tb, ir.I64, v); result != uint64(v) {
						t.Errorf("i64: %#x", result)
					}
					if result := runMoveImm(t, caps, tb, ir.I32, v); result != uint64(int64(int32(v))) {
						t.Errorf("i32: %#x", result)
					}
				})
			}
		}
	}
}

func TestMoveImmExec32(t *testing.T) {
	for _, v := range immValues {
		if result := runMoveImm(t, caps32BE, false, ir.I32, v); result != uint64(uint32(v)) {
			t.Errorf("%#x: %#x", v, result)
		}
	}
}

func TestMaskOperand32(t *testing.T) {
	for _, x := range []struct {
		value  uint32
		mb, me uint32
		ok     bool
	}{
		{0x000000ff, 24, 31, true},
		{0xffff0000, 0, 15, true},
		{0x00ffff00, 8, 23, true},
		{0x80000000, 0, 0, true},
		{0x00000001, 31, 31, true},
		{0x0000f0f0, 0, 0, false},
		{0, 0, 0, false},
		{0xffffffff, 0, 0, false},
	} {
		mb, me, ok := maskOperand32(x.value)
		if ok != x.ok || (ok && (mb != x.mb || me != x.me)) {
			t.Errorf("%#08x: mb=%d me=%d ok=%v", x.value, mb, me, ok)
		}
	}
}

func TestMaskOperand64(t *testing.T) {
	for _, x := range []struct {
		value  uint64
		mb, me uint32
		ok     bool
	}{
		{0x00000000ffffffff, 32, 63, true},
		{0xffffffff00000000, 0, 31, true},
		{0xffffffffffffffff, 0, 63, true},
		{0x0000000000000fff, 52, 63, true},
		{0x00000000ffff0000, 0, 0, false},
		{0, 0, 0, false},
	} {
		mb, me, ok := maskOperand64(x.value)
		if ok != x.ok || (ok && (mb != x.mb || me != x.me)) {
			t.Errorf("%#016x: mb=%d me=%d ok=%v", x.value, mb, me, ok)
		}
	}
}

func TestDupConst(t *testing.T) {
	for _, x := range []struct {
		elem  uint8
		value int64
		dup   uint64
	}{
		{ir.Elem8, 0x1ab, 0xabababababababab},
		{ir.Elem16, -2, 0xfffefffefffefffe},
		{ir.Elem32, 0x12345678, 0x1234567812345678},
		{ir.Elem64, 0x123456789abcdef0, 0x123456789abcdef0},
	} {
		if d := dupConst(x.elem, x.value); d != x.dup {
			t.Errorf("elem %d %#x: %#016x", x.elem, x.value, d)
		}
	}
}
