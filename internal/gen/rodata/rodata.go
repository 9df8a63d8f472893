// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rodata implements the constant pool of a translation unit.  It is
// emitted after the code, and entries are referenced via labels.
package rodata

import (
	"bytes"
	"fmt"

	"gate.computer/hostgen/internal/code"
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen/link"
	"github.com/google/btree"
)

const btreeDegree = 8

// Entry in the pool.  Data is in the host byte order.
type Entry struct {
	Size  int
	Data  [16]byte
	Label link.L
}

func (e *Entry) Bytes() []byte {
	return e.Data[:e.Size]
}

// Larger entries come first so that every entry is naturally aligned when
// the pool starts at a 16-byte boundary.
func less(a, b *Entry) bool {
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	return bytes.Compare(a.Data[:a.Size], b.Data[:b.Size]) < 0
}

type Pool struct {
	tree *btree.BTreeG[*Entry]
}

func (p *Pool) init() {
	if p.tree == nil {
		p.tree = btree.NewG(btreeDegree, less)
	}
}

// Add data to the pool, or find an identical entry.  Size must be 4, 8 or 16.
func (p *Pool) Add(data []byte) *Entry {
	switch len(data) {
	case 4, 8, 16:
	default:
		panic(errors.Internalf("invalid constant pool entry size: %d", len(data)))
	}

	p.init()

	e := &Entry{Size: len(data)}
	copy(e.Data[:], data)

	if existing, found := p.tree.Get(e); found {
		return existing
	}

	e.Label.Name = fmt.Sprintf("pool%d", p.tree.Len())
	p.tree.ReplaceOrInsert(e)
	return e
}

func (p *Pool) Len() int {
	if p.tree == nil {
		return 0
	}
	return p.tree.Len()
}

// Size of the emitted pool, excluding alignment padding.
func (p *Pool) Size() (n int) {
	p.Ascend(func(e *Entry) {
		n += e.Size
	})
	return
}

func (p *Pool) Ascend(f func(e *Entry)) {
	if p.tree == nil {
		return
	}
	p.tree.Ascend(func(e *Entry) bool {
		f(e)
		return true
	})
}

// Emit the pool at the current address (which must be suitably aligned).
// The patch function is called for each site referencing an entry.
func (p *Pool) Emit(buf *code.Buf, patch func(s link.Site, addr int32)) {
	p.Ascend(func(e *Entry) {
		if buf.Addr&int32(e.Size-1) != 0 {
			panic(errors.Internalf("misaligned constant pool entry at %#x", buf.Addr))
		}

		addr := buf.Addr
		copy(buf.Extend(e.Size), e.Bytes())

		for _, s := range e.Label.Resolve(addr) {
			patch(s, addr)
		}
	})
}
