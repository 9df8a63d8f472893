// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(ppc64 || ppc64le)

package codemem

// FlushICache is a no-op: generated PowerPC code is not executed natively on
// this architecture.
func FlushICache(b []byte) {}
