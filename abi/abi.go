// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package abi names the host calling conventions supported by the code
// generator.
package abi

import (
	"strings"

	"golang.org/x/xerrors"
)

// Kind of calling convention.
type Kind uint8

const (
	// Default is resolved according to the host capabilities: ELFv1 for
	// 64-bit big-endian, ELFv2 for 64-bit little-endian and SysV for 32-bit
	// hosts.
	Default = Kind(iota)

	// ELFv1 calls through function descriptors (entry point and TOC).
	ELFv1

	// ELFv2 calls directly, with the target address in r12.
	ELFv2

	// SysV is the 32-bit System V convention.  64-bit arguments are passed
	// in odd/even register pairs.
	SysV

	// Darwin calls directly.  r11 is callee-saved.
	Darwin
)

var kindNames = [...]string{
	Default: "default",
	ELFv1:   "elfv1",
	ELFv2:   "elfv2",
	SysV:    "sysv",
	Darwin:  "darwin",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "<invalid abi>"
}

// Descriptors indicates that function pointers refer to descriptors instead
// of code.
func (k Kind) Descriptors() bool {
	return k == ELFv1
}

// PairedArgs indicates that 64-bit arguments on 32-bit hosts start at an
// odd-numbered argument register.
func (k Kind) PairedArgs() bool {
	return k == SysV
}

var ErrUnknownKind = xerrors.New("unknown calling convention")

// ParseKind accepts the names returned by Kind.String (case-insensitively),
// and "aix" as an alias of ELFv1.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "aix" {
		return ELFv1, nil
	}
	for k, name := range kindNames {
		if s == name {
			return Kind(k), nil
		}
	}
	return Default, xerrors.Errorf("%q: %w", s, ErrUnknownKind)
}
