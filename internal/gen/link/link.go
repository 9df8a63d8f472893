// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"fmt"

	"gate.computer/hostgen/internal/errors"
)

// Kind of relocation.
type Kind uint8

const (
	Rel14  = Kind(iota) // Conditional branch displacement (BD field).
	Rel24               // Unconditional branch displacement (LI field).
	Addr16              // Signed displacement from the TB base (D or DS field).
	Addr32              // Absolute address split into a high-adjusted/low pair.
)

func (k Kind) String() string {
	switch k {
	case Rel14:
		return "rel14"

	case Rel24:
		return "rel24"

	case Addr16:
		return "addr16"

	case Addr32:
		return "addr32"

	default:
		return fmt.Sprintf("<invalid relocation kind %d>", k)
	}
}

// Site of a reference to a label.  Addr is the address of the (first)
// instruction to patch.
type Site struct {
	Addr   int32
	Kind   Kind
	Addend int64
}

// L is a label.  It is resolved at most once; sites added before resolution
// are pending until then.
type L struct {
	Name     string
	Sites    []Site
	Addr     int32
	resolved bool
}

func (l *L) Resolved() bool {
	return l.resolved
}

func (l *L) AddSite(s Site) {
	l.Sites = append(l.Sites, s)
}

func (l *L) HasSite(addr int32) bool {
	for _, s := range l.Sites {
		if s.Addr == addr {
			return true
		}
	}
	return false
}

// RemoveSite detaches a pending site so that it can be redirected.
func (l *L) RemoveSite(addr int32) (s Site, found bool) {
	for i, x := range l.Sites {
		if x.Addr == addr {
			l.Sites = append(l.Sites[:i], l.Sites[i+1:]...)
			return x, true
		}
	}
	return
}

// Resolve the label and return the pending sites.
func (l *L) Resolve(addr int32) (pending []Site) {
	if l.resolved {
		panic(errors.Internalf("label %s resolved twice (at %#x and %#x)", l, l.Addr, addr))
	}

	l.Addr = addr
	l.resolved = true
	pending = l.Sites
	l.Sites = nil
	return
}

func (l *L) FinalAddr() int32 {
	if !l.resolved {
		panic(errors.Internalf("label %s address undefined while updating branch or reference", l))
	}
	return l.Addr
}

func (l *L) String() string {
	if l.Name != "" {
		return l.Name
	}
	return "<anonymous>"
}

// Table holds the labels of a translation unit.  User labels are named by
// the ids which appear in the IR; internal labels are created by the backend.
type Table struct {
	user     []*L
	internal []*L
}

// User label by id.
func (t *Table) User(id int) *L {
	if id < 0 {
		panic(errors.Internalf("negative label id: %d", id))
	}
	for len(t.user) <= id {
		t.user = append(t.user, &L{Name: fmt.Sprintf("L%d", len(t.user))})
	}
	return t.user[id]
}

// New internal label.
func (t *Table) New(name string) *L {
	l := &L{Name: name}
	t.internal = append(t.internal, l)
	return l
}

// Unresolved labels which have been referenced.
func (t *Table) Unresolved() (list []*L) {
	for _, ls := range [][]*L{t.user, t.internal} {
		for _, l := range ls {
			if !l.resolved && len(l.Sites) > 0 {
				list = append(list, l)
			}
		}
	}
	return
}

// Check panics if a referenced label is unresolved.
func (t *Table) Check() {
	if list := t.Unresolved(); len(list) > 0 {
		panic(errors.Internalf("unresolved label %s (%d sites) at finalization", list[0], len(list[0].Sites)))
	}
}
