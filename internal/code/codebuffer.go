// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package code

import (
	"encoding/binary"
)

type Buffer interface {
	Bytes() []byte
	Extend(n int) []byte
}

// Buf is an optimized Buffer.  The cached length (Addr) avoids interface
// function calls.  Instruction words are stored in the host byte order.
type Buf struct {
	Buffer
	Addr  int32
	Order binary.ByteOrder
}

func (buf *Buf) Extend(n int) (b []byte) {
	b = buf.Buffer.Extend(n)
	buf.Addr += int32(n)
	return
}

func (buf *Buf) PutUint32(x uint32) {
	buf.Order.PutUint32(buf.Extend(4), x)
}

func (buf *Buf) PutUint64(x uint64) {
	buf.Order.PutUint64(buf.Extend(8), x)
}

// Word at addr.
func (buf *Buf) Word(addr int32) uint32 {
	return buf.Order.Uint32(buf.Bytes()[addr:])
}

// SetWord at addr.
func (buf *Buf) SetWord(addr int32, x uint32) {
	buf.Order.PutUint32(buf.Bytes()[addr:], x)
}

// Align pads with the given word until addr is a multiple of n.
func (buf *Buf) Align(n int32, pad uint32) {
	for buf.Addr&(n-1) != 0 {
		buf.PutUint32(pad)
	}
}
