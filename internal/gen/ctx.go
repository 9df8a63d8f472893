// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"

	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/internal/code"
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/gen/link"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/gen/regalloc"
	"gate.computer/hostgen/internal/gen/rodata"
	"gate.computer/hostgen/ir"
)

// Linker patches references to labels.
type Linker interface {
	// Patch the site to refer to target.  False is returned if the
	// displacement doesn't fit.
	Patch(c *Ctx, s link.Site, target int32) bool
}

// SlowPath of a guest memory access.  It is recorded while generating the
// fast path and consumed when the out-of-line stubs are generated.
type SlowPath struct {
	Load   bool
	OI     ir.MemOpIdx
	Type   ir.Type
	DataLo reg.R
	DataHi reg.R // 64-bit data on 32-bit host.
	AddrLo reg.R
	AddrHi reg.R // 64-bit guest address on 32-bit host.
	Site   int32 // Branch to the stub.
	Resume int32
	Label  *link.L
}

// Descriptor summarizes the access, e.g. "load, 4 bytes, zero-extend".
func (s *SlowPath) Descriptor() string {
	return s.OI.MemOp().Describe(s.Load)
}

// JumpSlot is a patchable direct jump to another block.
type JumpSlot struct {
	Insn  int32
	Reset int32
}

// ShortSite is a short-range branch to a label which has not been resolved
// yet.
type ShortSite struct {
	Addr  int32
	Label *link.L
}

// Ctx is the generator context of a translation unit.
type Ctx struct {
	Caps           Capabilities
	ABI            abi.Kind
	State          StateLayout
	Helpers        Helpers
	TextAddr       uint64 // Absolute address of the text, or zero if unknown.
	AlwaysSlowPath bool
	LongPool       bool // Constant pool references use 32-bit displacements.

	Linker Linker
	Text   code.Buf
	Regs   regalloc.Allocator
	Labels link.Table
	Pool   rodata.Pool

	Entry      int32
	TB         int32 // Address of the body; the TB register points to it.
	InPrologue bool
	Epilogue   *link.L

	SlowPaths  []SlowPath
	JumpSlots  []JumpSlot
	ShortSites []ShortSite
}

// UseTB indicates that the TB register holds the address of the body.
func (c *Ctx) UseTB() bool {
	return c.Caps.RegBits == 64 && !c.InPrologue
}

// AbsAddr of a text address, if the text address is known.
func (c *Ctx) AbsAddr(addr int32) (uint64, bool) {
	if c.TextAddr == 0 {
		return 0, false
	}
	return c.TextAddr + uint64(int64(addr)), true
}

// Insn appends an instruction word.
func (c *Ctx) Insn(word uint32) {
	c.Text.PutUint32(word)
}

// Ref records a reference to a label by the instruction at addr.  If the
// label has already been resolved, the site is patched immediately.
func (c *Ctx) Ref(addr int32, l *link.L, kind link.Kind, addend int64) {
	s := link.Site{Addr: addr, Kind: kind, Addend: addend}

	if l.Resolved() {
		c.Patch(s, l.Addr)
		return
	}

	l.AddSite(s)
	if kind == link.Rel14 {
		c.ShortSites = append(c.ShortSites, ShortSite{addr, l})
	}
}

// Bind label to the current address.
func (c *Ctx) Bind(l *link.L) {
	addr := c.Text.Addr

	if debug.Enabled {
		debug.Printf("label %s at %#x", l, addr)
	}

	for _, s := range l.Resolve(addr) {
		c.Patch(s, addr)
	}
}

// PoolOverflow is raised when a constant pool entry is beyond the reach of a
// 16-bit displacement.  The unit can be generated again with LongPool.
type PoolOverflow struct {
	Addr int32
}

func (e PoolOverflow) Error() string {
	return fmt.Sprintf("constant pool reference at %#x out of range", e.Addr)
}

// Patch a site to refer to target.  Displacement overflow is fatal.
func (c *Ctx) Patch(s link.Site, target int32) {
	if !c.Linker.Patch(c, s, target) {
		if s.Kind == link.Addr16 && !c.LongPool {
			panic(PoolOverflow{s.Addr})
		}
		panic(errors.Internalf("%s relocation at %#x out of range (target %#x)", s.Kind, s.Addr, target))
	}
}

// EmitPool at the next 16-byte boundary and patch the references to it.
func (c *Ctx) EmitPool(pad uint32) {
	if c.Pool.Len() == 0 {
		return
	}

	c.Text.Align(16, pad)

	if debug.Enabled {
		debug.Printf("constant pool at %#x: %d entries", c.Text.Addr, c.Pool.Len())
	}

	c.Pool.Emit(&c.Text, c.Patch)
}

// PendingShortSites prunes resolved entries and returns the rest.
func (c *Ctx) PendingShortSites() []ShortSite {
	live := c.ShortSites[:0]
	for _, s := range c.ShortSites {
		if !s.Label.Resolved() && s.Label.HasSite(s.Addr) {
			live = append(live, s)
		}
	}
	c.ShortSites = live
	return live
}

// NewLabel for internal use.
func (c *Ctx) NewLabel(name string) *link.L {
	return c.Labels.New(name)
}

// Label referenced by the IR.
func (c *Ctx) Label(x ir.Operand) *link.L {
	if x.Kind != ir.KindLabel {
		panic(errors.Internalf("operand %s is not a label", x))
	}
	return c.Labels.User(x.LabelID())
}
