// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen

import (
	"unsafe"

	"gate.computer/hostgen/codemem"
	"gate.computer/hostgen/internal"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/isa/ppc"
	"golang.org/x/xerrors"
	"import.name/pan"
)

// Relink a jump slot of a block to target, which is the TB address of
// another block (or of the same block).  A zero target resets the slot to
// fall through.  The text is the block at its final location, and it must be
// writable.  The update is a single aligned store followed by an instruction
// cache flush, so the slot may be executed concurrently.
func (b *Block) Relink(text []byte, slot int, target uintptr) (err error) {
	if internal.DontPanic() {
		defer func() { err = pan.Error(recover()) }()
	}

	words := b.jumpWords(text, slot, target)
	codemem.Store(text, b.JumpSlots[slot].Insn, words)
	return
}

// RelinkRegion is like Relink, but the block is located at offset in the
// region.
func (b *Block) RelinkRegion(r *codemem.Region, offset, slot int, target uintptr) (err error) {
	if internal.DontPanic() {
		defer func() { err = pan.Error(recover()) }()
	}

	text := r.Bytes()[offset : offset+b.Size]
	words := b.jumpWords(text, slot, target)
	pan.Check(r.Relink(offset+b.JumpSlots[slot].Insn, words))
	return
}

func (b *Block) jumpWords(text []byte, slot int, target uintptr) []byte {
	if slot < 0 || slot >= len(b.JumpSlots) {
		pan.Panic(xerrors.Errorf("jump slot %d out of range (%d slots)", slot, len(b.JumpSlots)))
	}
	if len(text) < b.Size {
		pan.Panic(xerrors.Errorf("text is smaller than the block"))
	}

	s := b.JumpSlots[slot]
	base := uint64(uintptr(unsafe.Pointer(&text[0])))

	if target == 0 {
		target = uintptr(base + uint64(s.Reset))
	}

	if debug.Enabled {
		debug.Printf("relink slot %d at %#x: target %#x", slot, base+uint64(s.Insn), target)
	}

	words, err := ppc.JumpWords(b.caps.Order(), b.caps.RegBits == 64, base+uint64(s.Insn), base+uint64(b.TB), uint64(target))
	pan.Check(err)
	return words
}
