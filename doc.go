// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hostgen generates PowerPC host code for translation blocks of a
// dynamic binary translator.
//
// The driver hands over a sequence of architecture-neutral operations (see
// package ir) whose operands are already bound to host registers.  Translate
// emits a block consisting of an entry prologue, the body, out-of-line slow
// paths of guest memory accesses, a shared epilogue and a constant pool.
// Blocks are chained at run time by re-linking their jump slots.
//
// Errors
//
// Invalid configurations are reported with errors wrapping ErrInvalidConfig.
// Default buffer implementations use the buffer.ErrSizeLimit error to
// indicate that generated code doesn't fit in a target buffer.  A driver
// violating the operand contract (or a broken invariant in the backend)
// causes a panic which is not converted into an error.
package hostgen
