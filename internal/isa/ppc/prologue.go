// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/ir"
)

// descriptorSize of an ELFv1 function descriptor: entry, TOC, environment.
const descriptorSize = 24

// prologue emits the entry sequence.  The unit is entered as a function
// taking the context and the address of the body, which it jumps to after
// setting up the frame.
func prologue(c *gen.Ctx) {
	f := Layout(c)
	word := wordSize(c)

	c.InPrologue = true

	if c.ABI == abi.ELFv1 {
		// The entry address is filled in when the text is placed.
		for i := 0; i < descriptorSize/4; i++ {
			c.Insn(0)
		}
	}

	c.Entry = c.Text.Addr

	if debug.Enabled {
		debug.Printf("prologue at %#x: frame %d bytes", c.Entry, f.Size)
	}

	mflr(c, RegZero)
	if word == 8 {
		c.Insn(in.STDU.RtRaDS(RegSP, RegSP, -f.Size))
	} else {
		c.Insn(in.STWU.RtRaSI(RegSP, RegSP, -f.Size))
	}

	for i, r := range CalleeSaved(c.ABI) {
		store(c, ptrType(c), r, RegSP, int64(f.RegSave+int32(i)*word))
	}
	store(c, ptrType(c), RegZero, RegSP, int64(f.Size+f.LROffset))

	mov(c, ptrType(c), c.State.EnvReg, argReg(0))
	mtctr(c, argReg(1))
	if c.Caps.RegBits == 64 {
		mov(c, ir.I64, RegTB, argReg(1))
	}
	c.Insn(in.BCCTR.Always())

	c.InPrologue = false
	c.TB = c.Text.Addr
}

// epilogue restores the caller's state and returns the value in r3.
func epilogue(c *gen.Ctx) {
	f := Layout(c)
	word := wordSize(c)

	c.Bind(c.Epilogue)

	load(c, ptrType(c), RegZero, RegSP, int64(f.Size+f.LROffset))
	for i, r := range CalleeSaved(c.ABI) {
		load(c, ptrType(c), r, RegSP, int64(f.RegSave+int32(i)*word))
	}
	mtlr(c, RegZero)
	c.Insn(in.ADDI.RtRaSI(RegSP, RegSP, f.Size))
	c.Insn(in.BCLR.Always())
}

// exitTB returns value to the caller of the unit.
func exitTB(c *gen.Ctx, value int64) {
	movi(c, ptrType(c), RegR3, value)
	branch(c, c.Epilogue, false)
}

// gotoPtr jumps to a body address.  The epilogue may be the target, in
// which case zero is returned.
func gotoPtr(c *gen.Ctx, target ir.Operand) {
	r := target.Reg
	mtctr(c, r)
	if c.UseTB() {
		mov(c, ir.I64, RegTB, r)
	}
	c.Insn(in.ADDI.RtRaSI(RegR3, 0, 0))
	c.Insn(in.BCCTR.Always())
}

// gotoTB emits a patchable jump slot.  Execution falls through to the reset
// address until the slot is linked.
func gotoTB(c *gen.Ctx, index int64) {
	if int(index) != len(c.JumpSlots) {
		panic(errors.Internalf("jump slot %d out of order (expected %d)", index, len(c.JumpSlots)))
	}

	var slot gen.JumpSlot

	if c.Caps.RegBits == 64 {
		// The slot is updated with a single 64-bit store.
		if c.Text.Addr&7 != 0 {
			c.Insn(in.NOP.Word())
		}
		slot.Insn = c.Text.Addr
		c.Insn(in.ADDIS.RtRaSI(RegTB, RegTB, 0))
		c.Insn(in.ADDI.RtRaSI(RegTB, RegTB, 0))
		mtctr(c, RegTB)
		c.Insn(in.BCCTR.Always())
		slot.Reset = c.Text.Addr
		c.Insn(in.ADDI.RtRaSI(RegTB, RegTB, 0)) // Patched by finishSlots.
	} else {
		slot.Insn = c.Text.Addr
		c.Insn(in.B.LI(4))
		slot.Reset = c.Text.Addr
	}

	c.JumpSlots = append(c.JumpSlots, slot)
}

// finishSlots points every jump slot at its reset address.  On 64-bit hosts
// the TB register is restored after falling through.
func finishSlots(c *gen.Ctx) {
	order := c.Caps.Order()
	wide := c.Caps.RegBits == 64

	for _, s := range c.JumpSlots {
		b, err := JumpWords(order, wide, uint64(s.Insn), uint64(c.TB), uint64(s.Reset))
		if err != nil {
			panic(errors.Internalf("jump slot at %#x: %v", s.Insn, err))
		}
		for i := 0; i < len(b); i += 4 {
			c.Text.SetWord(s.Insn+int32(i), order.Uint32(b[i:]))
		}
		if wide {
			c.Text.SetWord(s.Reset, in.ADDI.RtRaSI(RegTB, RegTB, c.TB-s.Reset))
		}
	}
}
