// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import (
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen/reg"
)

// Allocator hands out scratch registers in a fixed preference order.
// Registers bound by the driver (live temporaries) and reserved registers are
// never handed out.
type Allocator struct {
	avail reg.Set
	freed reg.Set
	order []reg.R
}

// Make an allocator.  Registers which don't appear in order are never
// allocated.
func Make(order []reg.R, reserved reg.Set) Allocator {
	var avail reg.Set
	for _, r := range order {
		avail = avail.With(r)
	}
	avail &^= reserved
	return Allocator{avail, avail, order}
}

// Alloc the first free register from the allowed set.
func (a *Allocator) Alloc(allowed reg.Set) (r reg.R, ok bool) {
	candidates := a.freed & allowed
	if candidates == 0 {
		return reg.None, false
	}

	for _, r = range a.order {
		if candidates.Has(r) {
			a.freed = a.freed.Without(r)
			ok = true
			return
		}
	}

	return reg.None, false
}

// MustAlloc panics with an internal error if no register is available.
func (a *Allocator) MustAlloc(allowed reg.Set) reg.R {
	r, ok := a.Alloc(allowed)
	if !ok {
		panic(errors.Internalf("no free register in %s (bound: %s)", allowed, a.avail&^a.freed))
	}
	return r
}

func (a *Allocator) AllocSpecific(r reg.R) {
	if !a.freed.Has(r) {
		panic(errors.Internalf("register %s is not free", r))
	}
	a.freed = a.freed.Without(r)
}

// SetAllocated marks a register as bound.  It is a no-op for registers that
// are not allocatable.
func (a *Allocator) SetAllocated(r reg.R) {
	a.freed = a.freed.Without(r)
}

func (a *Allocator) Free(r reg.R) {
	if !a.avail.Has(r) {
		return
	}
	if a.freed.Has(r) {
		panic(errors.Internalf("register %s freed twice", r))
	}
	a.freed = a.freed.With(r)
}

func (a *Allocator) FreeAll() {
	a.freed = a.avail
}

// Allocated indicates if the register is currently bound.
func (a *Allocator) Allocated(r reg.R) bool {
	return (a.avail &^ a.freed).Has(r)
}

// Available reports whether the register may ever be allocated.
func (a *Allocator) Available(r reg.R) bool {
	return a.avail.Has(r)
}

func (a *Allocator) Bound() reg.Set {
	return a.avail &^ a.freed
}

func (a *Allocator) CheckNoneAllocated() {
	if a.freed != a.avail {
		panic(errors.Internalf("registers still allocated at end of block: %s", a.avail&^a.freed))
	}
}
