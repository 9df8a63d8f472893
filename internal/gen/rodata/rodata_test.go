// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rodata

import (
	"encoding/binary"
	"testing"

	"gate.computer/hostgen/buffer"
	"gate.computer/hostgen/internal/code"
	"gate.computer/hostgen/internal/gen/link"
	"github.com/google/go-cmp/cmp"
)

func word64(x uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, x)
	return b
}

func TestPoolDedup(t *testing.T) {
	var p Pool

	a := p.Add(word64(0x123456789abcdef0))
	b := p.Add(word64(0x0fedcba987654321))
	c := p.Add(word64(0x123456789abcdef0))

	if a != c {
		t.Error("duplicate entry")
	}
	if a == b {
		t.Error("distinct values share entry")
	}
	if p.Len() != 2 {
		t.Error(p.Len())
	}
}

func TestPoolEmit(t *testing.T) {
	var p Pool

	small := p.Add([]byte{1, 2, 3, 4})
	mid := p.Add(word64(0x1122334455667788))
	large := p.Add([]byte{0: 0xaa, 15: 0xbb})

	small.Label.AddSite(link.Site{Addr: 0, Kind: link.Addr16})
	mid.Label.AddSite(link.Site{Addr: 4, Kind: link.Addr16})
	large.Label.AddSite(link.Site{Addr: 8, Kind: link.Addr16})

	buf := code.Buf{Buffer: buffer.NewDynamic(nil), Order: binary.BigEndian}
	buf.Extend(16) // Code.

	patched := map[int32]int32{}
	p.Emit(&buf, func(s link.Site, addr int32) {
		patched[s.Addr] = addr
	})

	expect := map[int32]int32{8: 16, 4: 32, 0: 40}
	if diff := cmp.Diff(expect, patched); diff != "" {
		t.Error(diff)
	}
	if buf.Addr != 44 {
		t.Error(buf.Addr)
	}
	if b := buf.Bytes()[40:44]; !cmp.Equal(b, []byte{1, 2, 3, 4}) {
		t.Error(b)
	}
	if !large.Label.Resolved() {
		t.Error("label not resolved")
	}
}

func TestPoolMisaligned(t *testing.T) {
	var p Pool
	p.Add(word64(1))

	buf := code.Buf{Buffer: buffer.NewDynamic(nil), Order: binary.BigEndian}
	buf.Extend(4)

	defer func() {
		if recover() == nil {
			t.Fatal("no panic")
		}
	}()

	p.Emit(&buf, func(link.Site, int32) {})
}
