// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen

import (
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/buffer"
	"gate.computer/hostgen/internal"
	"gate.computer/hostgen/internal/code"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/isa/ppc"
	"gate.computer/hostgen/ir"
	"import.name/pan"
)

// Buffer receives the generated code.  Extend panics (through pan) with
// buffer.ErrSizeLimit if the buffer is full.
type Buffer = code.Buffer

// JumpSlot of a block.  Offsets are relative to the start of the block.
type JumpSlot struct {
	Insn  int // Patchable instructions.
	Reset int // Fall-through address.
}

// Block of generated code.  Offsets are relative to the start of the block.
type Block struct {
	Text      []byte
	Entry     int // Function entry point.
	TB        int // Body; the address passed to the entry point.
	JumpSlots []JumpSlot
	Size      int

	// Descriptor is the offset of the ELFv1 function descriptor, or -1.
	// It is filled in by PlaceDescriptor.
	Descriptor int

	caps Capabilities
}

// Translate a unit of operations.  Registers which appear as operands are
// treated as live throughout the unit, so a unit which binds a register that
// one of its operations clobbers is rejected with ErrInvalidConfig.  Guest
// memory accesses and calls clobber the call-clobbered registers.  The
// generated block is appended to text at the next 16-byte boundary; the
// padding consists of no-ops.
func Translate(cfg *Config, ops []ir.Op, text Buffer) (b *Block, err error) {
	if internal.DontPanic() {
		defer func() { err = pan.Error(recover()) }()
	}

	b = translate(cfg, ops, text)
	return
}

func translate(cfg *Config, ops []ir.Op, text Buffer) *Block {
	pan.Check(cfg.Validate())

	for _, op := range ops {
		if !ppc.CanEmitOp(&cfg.Caps, op) {
			pan.Panic(invalid("%s is not supported by the host", op))
		}
	}

	c, ok := generate(cfg, ops, false)
	if !ok {
		if debug.Enabled {
			debug.Printf("constant pool out of range: generating again with long references")
		}
		c, _ = generate(cfg, ops, true)
	}

	data := c.Text.Bytes()

	// Jump slots are updated with aligned stores.
	if pad := -len(text.Bytes()) & 15; pad > 0 {
		fill := text.Extend(pad)
		for i := 0; i+4 <= len(fill); i += 4 {
			c.Text.Order.PutUint32(fill[i:], ppc.NopWord)
		}
	}
	offset := len(text.Bytes())
	copy(text.Extend(len(data)), data)

	b := &Block{
		Text:       text.Bytes()[offset : offset+len(data)],
		Entry:      int(c.Entry),
		TB:         int(c.TB),
		Size:       len(data),
		Descriptor: -1,
		caps:       cfg.Caps,
	}
	if c.ABI == abi.ELFv1 {
		b.Descriptor = 0
	}
	for _, s := range c.JumpSlots {
		b.JumpSlots = append(b.JumpSlots, JumpSlot{int(s.Insn), int(s.Reset)})
	}
	return b
}

// generate the unit into a private buffer.  False is returned if a constant
// pool reference overflowed with short references.
func generate(cfg *Config, ops []ir.Op, longPool bool) (c *gen.Ctx, ok bool) {
	defer func() {
		if x := recover(); x != nil {
			if _, overflow := x.(gen.PoolOverflow); overflow && !longPool {
				return
			}
			panic(x)
		}
	}()

	c = &gen.Ctx{
		Caps:           cfg.Caps,
		ABI:            cfg.ResolvedABI(),
		State:          cfg.State,
		Helpers:        cfg.Helpers,
		TextAddr:       cfg.TextAddr,
		AlwaysSlowPath: cfg.AlwaysSlowPath,
		LongPool:       longPool,
		Text: code.Buf{
			Buffer: new(buffer.Dynamic),
			Order:  cfg.Caps.Order(),
		},
	}

	bound := ppc.Bound(ops)
	if s := bound & ppc.Clobbered(c, ops); s != 0 {
		pan.Panic(invalid("registers %s are not preserved by the unit", s))
	}

	asm := ppc.Assembler()

	asm.Begin(c, bound)
	for _, op := range ops {
		asm.Op(c, op)
	}
	asm.Finalize(c, bound)

	ok = true
	return
}

// PlaceDescriptor fills in the ELFv1 function descriptor of a block which
// has been placed at an absolute address.  The text must be the block's
// final location.
func (b *Block) PlaceDescriptor(text []byte, addr uint64) {
	if b.Descriptor < 0 {
		return
	}

	order := b.caps.Order()
	order.PutUint64(text[b.Descriptor:], addr+uint64(b.Entry))
	order.PutUint64(text[b.Descriptor+8:], 0) // TOC
	order.PutUint64(text[b.Descriptor+16:], 0)
}

// Capabilities which the block was generated for.
func (b *Block) Capabilities() Capabilities {
	return b.caps
}
