// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLabelResolve(t *testing.T) {
	var l L

	l.AddSite(Site{Addr: 4, Kind: Rel14})
	l.AddSite(Site{Addr: 12, Kind: Rel24, Addend: 8})

	if l.Resolved() {
		t.Fatal("resolved too early")
	}

	pending := l.Resolve(100)
	expect := []Site{{Addr: 4, Kind: Rel14}, {Addr: 12, Kind: Rel24, Addend: 8}}
	if diff := cmp.Diff(expect, pending); diff != "" {
		t.Error(diff)
	}
	if len(l.Sites) != 0 {
		t.Error("sites not cleared")
	}
	if l.FinalAddr() != 100 {
		t.Error(l.FinalAddr())
	}
}

func TestLabelResolveTwice(t *testing.T) {
	var l L
	l.Resolve(0)

	defer func() {
		if recover() == nil {
			t.Fatal("no panic")
		}
	}()

	l.Resolve(8)
}

func TestLabelFinalAddrUnresolved(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("no panic")
		}
	}()

	var l L
	l.FinalAddr()
}

func TestTable(t *testing.T) {
	var table Table

	a := table.User(3)
	if table.User(3) != a {
		t.Fatal("user label not stable")
	}
	if a.String() != "L3" {
		t.Error(a)
	}

	b := table.New("epilogue")
	b.AddSite(Site{Addr: 0, Kind: Rel24})
	table.User(0) // Unreferenced labels don't count.

	if list := table.Unresolved(); len(list) != 1 || list[0] != b {
		t.Fatal(list)
	}

	b.Resolve(16)
	table.Check()

	a.AddSite(Site{Addr: 20, Kind: Rel14})

	defer func() {
		if recover() == nil {
			t.Fatal("no panic")
		}
	}()

	table.Check()
}
