// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen"
)

const (
	staticCallArgs = 128 // Outgoing argument area beyond registers.
	tempBufWords   = 128
	stackAlign     = 16
)

// convention of an ABI in units of the register size.
type convention struct {
	linkArea  int32 // Words reserved at the bottom of every frame.
	lrOffset  int32 // Caller frame word where the link register is saved.
	paramArea int32 // Extra parameter save words required by the caller.
}

var conventions = [...]convention{
	abi.ELFv1:  {linkArea: 6, lrOffset: 2, paramArea: 8},
	abi.ELFv2:  {linkArea: 4, lrOffset: 2},
	abi.SysV:   {linkArea: 2, lrOffset: 1},
	abi.Darwin: {linkArea: 6, lrOffset: 2},
}

// Frame layout of generated code.  Offsets are relative to the stack
// pointer after the prologue.
type Frame struct {
	Size        int32
	CallArgs    int32 // Outgoing stack arguments.
	TempBuf     int32 // Spill area; 16-byte aligned.
	TempBufSize int32
	RegSave     int32 // Callee-saved registers.
	LROffset    int32 // Relative to the caller's stack pointer.
}

// Layout of the frame for the configured ABI.
func Layout(c *gen.Ctx) (f Frame) {
	if int(c.ABI) >= len(conventions) || c.ABI == abi.Default {
		panic(errors.Internalf("unresolved calling convention: %s", c.ABI))
	}

	conv := conventions[c.ABI]
	word := wordSize(c)

	f.CallArgs = (conv.linkArea + conv.paramArea) * word
	f.TempBuf = align(f.CallArgs+staticCallArgs, stackAlign)
	f.TempBufSize = tempBufWords * word
	f.RegSave = f.TempBuf + f.TempBufSize
	f.Size = align(f.RegSave+int32(len(CalleeSaved(c.ABI)))*word, stackAlign)
	f.LROffset = conv.lrOffset * word
	return
}

func wordSize(c *gen.Ctx) int32 {
	return int32(c.Caps.RegBits / 8)
}

func align(n, to int32) int32 {
	return (n + to - 1) &^ (to - 1)
}
