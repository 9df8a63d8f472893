// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen

import (
	"encoding/binary"
	"runtime"

	"gate.computer/hostgen/abi"
	"github.com/xyproto/env/v2"
	"golang.org/x/sys/cpu"
	"golang.org/x/xerrors"
)

// Environment variables which override detected capabilities.
const (
	EnvISA       = "HOSTGEN_ISA"
	EnvNoISEL    = "HOSTGEN_NO_ISEL"
	EnvNoAltiVec = "HOSTGEN_NO_ALTIVEC"
	EnvNoVSX     = "HOSTGEN_NO_VSX"
	EnvABI       = "HOSTGEN_ABI"
)

// DetectCapabilities of the processor running this program.  On other
// architectures the result describes a 64-bit POWER8 host with the byte order
// of the running program.  The environment overrides are applied last.
func DetectCapabilities() (caps Capabilities, err error) {
	caps = Capabilities{
		RegBits:   64,
		ISA:       ISA207, // Minimum supported by the Go toolchain.
		ISEL:      true,
		AltiVec:   true,
		VSX:       true,
		BigEndian: runtime.GOARCH == "ppc64",
	}

	switch runtime.GOARCH {
	case "ppc64", "ppc64le":
		if cpu.PPC64.IsPOWER9 {
			caps.ISA = ISA300
		}

	default:
		caps.BigEndian = !littleEndian()
	}

	if s := env.Str(EnvISA); s != "" {
		caps.ISA, err = ParseISALevel(s)
		if err != nil {
			err = xerrors.Errorf("%s: %w", EnvISA, err)
			return
		}
	}
	if env.Bool(EnvNoISEL) {
		caps.ISEL = false
	}
	if env.Bool(EnvNoAltiVec) {
		caps.AltiVec = false
		caps.VSX = false
	}
	if env.Bool(EnvNoVSX) {
		caps.VSX = false
	}
	return
}

// DetectConfig returns a configuration with detected capabilities and the
// calling convention named by the environment (if any).  The state layout and
// the helpers must be filled in by the caller.
func DetectConfig() (cfg Config, err error) {
	cfg.Caps, err = DetectCapabilities()
	if err != nil {
		return
	}

	if s := env.Str(EnvABI); s != "" {
		cfg.ABI, err = abi.ParseKind(s)
		if err != nil {
			err = xerrors.Errorf("%s: %w", EnvABI, err)
			return
		}
	}
	return
}

func littleEndian() bool {
	return binary.NativeEndian.Uint16([]byte{1, 0}) == 1
}
