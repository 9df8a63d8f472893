// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"encoding/binary"
	"testing"

	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/internal/test/ppcsim"
	gocmp "github.com/google/go-cmp/cmp"
)

func jumpWords(t *testing.T, wide bool, slot, tb, target uint64) []uint32 {
	t.Helper()

	b, err := JumpWords(binary.BigEndian, wide, slot, tb, target)
	if err != nil {
		t.Fatal(err)
	}

	var words []uint32
	for i := 0; i < len(b); i += 4 {
		words = append(words, binary.BigEndian.Uint32(b[i:]))
	}
	return words
}

func TestJumpWordsNear(t *testing.T) {
	const (
		slot = 0x10000100
		tb   = 0x10000040
	)

	words := jumpWords(t, true, slot, tb, 0x10001000)
	expect := []uint32{
		in.ADDI.RtRaSI(RegTB, RegTB, 0x10001000-tb),
		in.B.LI(0x10001000 - (slot + 4)),
	}
	if diff := gocmp.Diff(expect, words); diff != "" {
		t.Error(diff)
	}
}

func TestJumpWordsFar(t *testing.T) {
	const (
		slot   = 0x10000100
		tb     = 0x10000040
		target = 0x10123458
	)

	diff := int64(target - tb)
	lo := int64(int16(diff))
	hi := (diff - lo) >> 16

	words := jumpWords(t, true, slot, tb, target)
	expect := []uint32{
		in.ADDIS.RtRaSI(RegTB, RegTB, int32(hi)),
		in.ADDI.RtRaSI(RegTB, RegTB, int32(lo)),
	}
	if d := gocmp.Diff(expect, words); d != "" {
		t.Error(d)
	}
}

func TestJumpWordsOutOfRange(t *testing.T) {
	if _, err := JumpWords(binary.BigEndian, true, 0x1000, 0x1000, 0x1000+1<<40); err == nil {
		t.Error("64-bit: no error")
	}
	if _, err := JumpWords(binary.BigEndian, false, 0x1000, 0x1000, 0x1000+1<<26); err == nil {
		t.Error("32-bit: no error")
	}
}

func TestJumpWords32(t *testing.T) {
	words := jumpWords(t, false, 0x2000, 0, 0x1000)
	if diff := gocmp.Diff([]uint32{in.B.LI(-0x1000)}, words); diff != "" {
		t.Error(diff)
	}
}

func TestIsland(t *testing.T) {
	c := newTestCtx(caps64BE, true)

	far := c.NewLabel("far")
	branchCond(c, in.BOAlways, 0, far, false)

	for c.Text.Addr < 0xa000 {
		c.Insn(in.ADDI.RtRaSI(RegR3, 0, 1))
		maybeIsland(c, 0)
	}

	c.Bind(far)
	c.Insn(in.ADDI.RtRaSI(RegR3, 0, 42))
	c.Insn(in.BCLR.Always())

	if n := len(c.PendingShortSites()); n != 0 {
		t.Errorf("%d pending short sites", n)
	}
	c.Labels.Check()

	m := ppcsim.New(caps64BE)
	m.Mem.Map(testTextAddr, c.Text.Bytes())

	result, err := m.Call(testTextAddr)
	if err != nil {
		t.Fatal(err)
	}
	if result != 42 {
		t.Errorf("result: %d", result)
	}
}
