// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package abi

import (
	"testing"

	"golang.org/x/xerrors"
)

func TestParseKind(t *testing.T) {
	for _, x := range []struct {
		s string
		k Kind
	}{
		{"elfv1", ELFv1},
		{"AIX", ELFv1},
		{" ELFv2 ", ELFv2},
		{"sysv", SysV},
		{"darwin", Darwin},
		{"default", Default},
	} {
		k, err := ParseKind(x.s)
		if err != nil {
			t.Errorf("%q: %v", x.s, err)
		} else if k != x.k {
			t.Errorf("%q: %s", x.s, k)
		}
	}

	if _, err := ParseKind("o32"); !xerrors.Is(err, ErrUnknownKind) {
		t.Error(err)
	}
}
