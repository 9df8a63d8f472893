// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm prints generated blocks as PowerPC assembly.
package disasm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bnagy/gapstone"

	"gate.computer/hostgen"
)

// Fprint disassembles text located at addr.  Names are attached to absolute
// addresses; branch targets without a name get a local label.
func Fprint(w io.Writer, text []byte, addr uint64, caps hostgen.Capabilities, names map[uint64]string) (err error) {
	mode := gapstone.CS_MODE_64
	if caps.RegBits == 32 {
		mode = gapstone.CS_MODE_32
	}
	if caps.BigEndian {
		mode |= gapstone.CS_MODE_BIG_ENDIAN
	} else {
		mode |= gapstone.CS_MODE_LITTLE_ENDIAN
	}

	engine, err := gapstone.New(gapstone.CS_ARCH_PPC, mode)
	if err != nil {
		return
	}
	defer engine.Close()

	insns, err := engine.Disasm(text, addr, 0)
	if err != nil {
		return
	}

	targets := make(map[uint]string)
	for a, name := range names {
		targets[uint(a)] = name
	}

	sequence := 0

	for i := range insns {
		insn := insns[i]

		if !isBranch(insn.Mnemonic) {
			continue
		}

		ops := strings.Split(insn.OpStr, ", ")
		last := ops[len(ops)-1]
		if !strings.HasPrefix(last, "0x") {
			continue
		}

		target, err := strconv.ParseUint(last, 0, 64)
		if err != nil {
			continue
		}

		name, found := targets[uint(target)]
		if !found {
			name = fmt.Sprintf(".L%d", sequence)
			sequence++

			targets[uint(target)] = name
		}

		ops[len(ops)-1] = name
		insns[i].OpStr = strings.Join(ops, ", ")
	}

	for _, insn := range insns {
		if name, found := targets[insn.Address]; found {
			if !strings.HasPrefix(name, ".") {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s:\n", name)
		}

		fmt.Fprintf(w, "\t%s\t%s\n", insn.Mnemonic, insn.OpStr)
	}

	fmt.Fprintln(w)
	return
}

// FprintBlock disassembles a block located at addr, naming its entry point,
// body and jump slots.
func FprintBlock(w io.Writer, b *hostgen.Block, addr uint64) error {
	names := map[uint64]string{
		addr + uint64(b.Entry): "entry",
		addr + uint64(b.TB):    "tb",
	}
	for i, s := range b.JumpSlots {
		names[addr+uint64(s.Insn)] = fmt.Sprintf("jump_%d", i)
	}

	text := b.Text
	if b.Descriptor >= 0 {
		// Function descriptor is data.
		text = text[b.Entry:]
		addr += uint64(b.Entry)
	}

	return Fprint(w, text, addr, b.Capabilities(), names)
}

func isBranch(mnemonic string) bool {
	m := strings.TrimRight(mnemonic, "+-")
	switch {
	case m == "b", m == "bl", m == "ba", m == "bla":
		return true

	case strings.HasSuffix(m, "lr"), strings.HasSuffix(m, "ctr"), strings.HasSuffix(m, "lrl"), strings.HasSuffix(m, "ctrl"):
		return false

	case strings.HasPrefix(m, "b"):
		return true

	default:
		return false
	}
}
