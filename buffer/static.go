// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"import.name/pan"
)

// Static is a fixed-capacity buffer, for wrapping a memory-mapped region such
// as codemem.Region.  The default value is a zero-capacity buffer.
type Static struct {
	buf []byte
}

// MakeStatic buffer.  Existing contents of b are kept.
//
// This function can be used in field initializer expressions.  The initialized
// field must not be copied.
func MakeStatic(b []byte) Static {
	return Static{b}
}

// NewStatic buffer.
func NewStatic(b []byte) *Static {
	s := MakeStatic(b)
	return &s
}

// Cap of the static buffer.
func (s *Static) Cap() int {
	return cap(s.buf)
}

// Len doesn't panic.
func (s *Static) Len() int {
	return len(s.buf)
}

// Bytes doesn't panic.
func (s *Static) Bytes() []byte {
	return s.buf
}

// Extend panics with ErrStaticSize if n bytes cannot be appended to the
// buffer.
func (s *Static) Extend(n int) []byte {
	offset := len(s.buf)
	size := offset + n
	if size > cap(s.buf) {
		pan.Panic(ErrStaticSize)
	}
	s.buf = s.buf[:size]
	return s.buf[offset:]
}
