// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen

import (
	"strings"

	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/isa/ppc"
	"golang.org/x/xerrors"
)

type (
	Capabilities = gen.Capabilities
	ISALevel     = gen.ISALevel
	StateLayout  = gen.StateLayout
	Helpers      = gen.Helpers
)

const (
	ISABase = gen.ISABase
	ISA206  = gen.ISA206
	ISA207  = gen.ISA207
	ISA300  = gen.ISA300
)

var ErrInvalidConfig = xerrors.New("invalid configuration")

// Config of code generation.  The default ABI is chosen according to the
// capabilities.
type Config struct {
	ABI            abi.Kind
	Caps           Capabilities
	State          StateLayout
	Helpers        Helpers
	TextAddr       uint64 // Absolute address of the block, or zero if unknown.
	AlwaysSlowPath bool   // Route every guest memory access through a helper.
}

// ResolvedABI returns the calling convention which is actually used.
func (cfg *Config) ResolvedABI() abi.Kind {
	if cfg.ABI != abi.Default {
		return cfg.ABI
	}
	switch {
	case cfg.Caps.RegBits == 32:
		return abi.SysV

	case cfg.Caps.BigEndian:
		return abi.ELFv1

	default:
		return abi.ELFv2
	}
}

func invalid(format string, args ...interface{}) error {
	return xerrors.Errorf(format+": %w", append(args, ErrInvalidConfig)...)
}

// Validate the configuration.
func (cfg *Config) Validate() error {
	caps := &cfg.Caps
	l := &cfg.State

	if caps.RegBits != 32 && caps.RegBits != 64 {
		return invalid("register width %d", caps.RegBits)
	}
	if caps.ISA > ISA300 {
		return invalid("ISA level %d", caps.ISA)
	}
	if caps.VSX && !caps.AltiVec {
		return invalid("VSX without AltiVec")
	}

	switch k := cfg.ResolvedABI(); k {
	case abi.ELFv1, abi.ELFv2:
		if caps.RegBits != 64 {
			return invalid("%s requires 64-bit registers", k)
		}

	case abi.SysV:
		if caps.RegBits != 32 {
			return invalid("%s requires 32-bit registers", k)
		}

	case abi.Darwin:

	default:
		return invalid("calling convention %d", k)
	}

	if l.GuestAddrBits != 32 && l.GuestAddrBits != 64 {
		return invalid("guest address width %d", l.GuestAddrBits)
	}
	if l.PageBits < 10 || l.PageBits > 16 {
		return invalid("page size 2^%d", l.PageBits)
	}
	if l.EntryBits >= l.PageBits {
		return invalid("TLB entry size 2^%d exceeds page size", l.EntryBits)
	}

	env := l.EnvReg
	if env < 14 || env > 31 {
		return invalid("context register %s is not callee-saved", env)
	}
	if caps.RegBits == 64 && env == ppc.RegTB {
		return invalid("context register %s is the TB register", env)
	}

	return nil
}

// ParseISALevel accepts "base", "2.06", "2.07" and "3.00" (or "3.0").
func ParseISALevel(s string) (ISALevel, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "base", "":
		return ISABase, nil

	case "2.06", "power7":
		return ISA206, nil

	case "2.07", "power8":
		return ISA207, nil

	case "3.00", "3.0", "power9":
		return ISA300, nil

	default:
		return ISABase, invalid("ISA level %q", s)
	}
}
