// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codemem

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"golang.org/x/xerrors"
	"import.name/pan"
)

// Store 4 or 8 bytes at offset of text with a single aligned store, and
// flush the instruction cache.  The words are in target byte order, which is
// the native byte order when the text is executed.  Panics (through pan) on
// misuse.
func Store(text []byte, offset int, words []byte) {
	pan.Check(store(text, offset, words))
}

func store(text []byte, offset int, words []byte) error {
	if offset < 0 || offset+len(words) > len(text) {
		return xerrors.Errorf("store of %d bytes at offset %d exceeds text size %d", len(words), offset, len(text))
	}

	p := unsafe.Pointer(&text[offset])

	switch len(words) {
	case 8:
		if uintptr(p)&7 != 0 {
			return xerrors.Errorf("unaligned 8-byte store at %#x", uintptr(p))
		}
		atomic.StoreUint64((*uint64)(p), binary.NativeEndian.Uint64(words))

	case 4:
		if uintptr(p)&3 != 0 {
			return xerrors.Errorf("unaligned 4-byte store at %#x", uintptr(p))
		}
		atomic.StoreUint32((*uint32)(p), binary.NativeEndian.Uint32(words))

	default:
		return xerrors.Errorf("store size %d is not 4 or 8 bytes", len(words))
	}

	FlushICache(text[offset : offset+len(words)])
	return nil
}

func addrOf(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}
