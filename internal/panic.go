// Copyright (c) 2021 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

// Panic configures public hostgen API behavior.  If this is changed to "1",
// Translate and the relink functions panic instead of returning error values,
// which preserves the stack trace of a failed emission.
//
// This can be set during linking:
//
//	go build -ldflags="-X gate.computer/hostgen/internal.Panic=1"
var Panic string

func DontPanic() bool {
	return Panic == ""
}
