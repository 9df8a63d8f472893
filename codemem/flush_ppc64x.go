// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build ppc64 || ppc64le

package codemem

import (
	"unsafe"
)

//go:noescape
func flushICache(addr unsafe.Pointer, size uintptr)

// FlushICache makes stores to b visible to instruction fetch.
func FlushICache(b []byte) {
	if len(b) > 0 {
		flushICache(unsafe.Pointer(&b[0]), uintptr(len(b)))
	}
}
