// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen_test

import (
	"testing"

	"gate.computer/hostgen"
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/ir"
	"golang.org/x/xerrors"
)

func TestResolvedABI(t *testing.T) {
	for _, x := range []struct {
		caps hostgen.Capabilities
		k    abi.Kind
	}{
		{hostgen.Capabilities{RegBits: 32, BigEndian: true}, abi.SysV},
		{hostgen.Capabilities{RegBits: 64, BigEndian: true}, abi.ELFv1},
		{hostgen.Capabilities{RegBits: 64}, abi.ELFv2},
	} {
		cfg := hostgen.Config{Caps: x.caps}
		if k := cfg.ResolvedABI(); k != x.k {
			t.Errorf("%+v: %s", x.caps, k)
		}
	}

	cfg := hostgen.Config{ABI: abi.Darwin, Caps: hostgen.Capabilities{RegBits: 32}}
	if k := cfg.ResolvedABI(); k != abi.Darwin {
		t.Error(k)
	}
}

func TestValidate(t *testing.T) {
	for _, h := range hosts {
		if err := h.cfg.Validate(); err != nil {
			t.Errorf("%s: %v", h.name, err)
		}
	}

	for name, modify := range map[string]func(*hostgen.Config){
		"register width":  func(cfg *hostgen.Config) { cfg.Caps.RegBits = 16 },
		"isa level":       func(cfg *hostgen.Config) { cfg.Caps.ISA = hostgen.ISA300 + 1 },
		"vsx":             func(cfg *hostgen.Config) { cfg.Caps.AltiVec = false },
		"abi width":       func(cfg *hostgen.Config) { cfg.ABI = abi.SysV },
		"guest width":     func(cfg *hostgen.Config) { cfg.State.GuestAddrBits = 48 },
		"small page":      func(cfg *hostgen.Config) { cfg.State.PageBits = 9 },
		"large page":      func(cfg *hostgen.Config) { cfg.State.PageBits = 17 },
		"entry size":      func(cfg *hostgen.Config) { cfg.State.EntryBits = 12 },
		"volatile env":    func(cfg *hostgen.Config) { cfg.State.EnvReg = ir.GPR(3) },
		"tb register env": func(cfg *hostgen.Config) { cfg.State.EnvReg = ir.GPR(31) },
	} {
		cfg := hosts[0].cfg
		modify(&cfg)

		if err := cfg.Validate(); !xerrors.Is(err, hostgen.ErrInvalidConfig) {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestInvalidConfigError(t *testing.T) {
	cfg := hosts[0].cfg
	cfg.State.PageBits = 20

	err := cfg.Validate()
	if !xerrors.Is(err, hostgen.ErrInvalidConfig) {
		t.Fatal(err)
	}
	if s := err.Error(); s != "page size 2^20: invalid configuration" {
		t.Error(s)
	}
}

func TestParseISALevel(t *testing.T) {
	for s, l := range map[string]hostgen.ISALevel{
		"base":   hostgen.ISABase,
		"2.06":   hostgen.ISA206,
		"POWER8": hostgen.ISA207,
		" 3.0 ":  hostgen.ISA300,
		"3.00":   hostgen.ISA300,
	} {
		if x, err := hostgen.ParseISALevel(s); err != nil || x != l {
			t.Errorf("%q: %s %v", s, x, err)
		}
	}

	if _, err := hostgen.ParseISALevel("2.05"); err == nil {
		t.Error("2.05 accepted")
	}
}

func TestDetectCapabilities(t *testing.T) {
	t.Setenv(hostgen.EnvISA, "2.06")
	t.Setenv(hostgen.EnvNoVSX, "1")

	caps, err := hostgen.DetectCapabilities()
	if err != nil {
		t.Fatal(err)
	}
	if caps.ISA != hostgen.ISA206 || caps.VSX || !caps.AltiVec || caps.RegBits != 64 {
		t.Errorf("%+v", caps)
	}

	t.Setenv(hostgen.EnvISA, "bogus")
	if _, err := hostgen.DetectCapabilities(); err == nil {
		t.Error("bogus ISA level accepted")
	}
}

func TestDetectConfig(t *testing.T) {
	t.Setenv(hostgen.EnvABI, "elfv1")

	cfg, err := hostgen.DetectConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ABI != abi.ELFv1 {
		t.Error(cfg.ABI)
	}
}
