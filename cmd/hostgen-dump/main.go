// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Program hostgen-dump translates a sample unit for the configured host and
// disassembles the result.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gate.computer/hostgen"
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/buffer"
	"gate.computer/hostgen/codemem"
	"gate.computer/hostgen/disasm"
	"gate.computer/hostgen/ir"
)

var (
	verbose = false
)

// Registers bound by the sample unit.
var (
	regEnv  = ir.GPR(27)
	regAddr = ir.GPR(14)
	regData = ir.GPR(15)
)

func sampleState(regBits int, pageBits uint) hostgen.StateLayout {
	word := int32(regBits / 8)

	return hostgen.StateLayout{
		EnvReg:          regEnv,
		TLBBase:         0x100,
		TLBStride:       2 * word,
		MaskOffset:      0,
		TableOffset:     word,
		EntryBits:       5,
		ComparatorRead:  0,
		ComparatorWrite: word,
		Addend:          3 * word,
		PageBits:        pageBits,
		GuestAddrBits:   regBits,
	}
}

// sampleHelpers are placeholder addresses; the code is not executed.
func sampleHelpers() (h hostgen.Helpers) {
	for i := range h.Load {
		h.Load[i] = 0x10000 + uint64(i)*16
		h.Store[i] = 0x20000 + uint64(i)*16
	}
	return
}

// sampleUnit loads a guest word, adds to it, stores it back and chains to
// the next block.
func sampleUnit(t ir.Type) []ir.Op {
	oi := ir.MakeMemOpIdx(ir.Size32|ir.Aligned, 0)

	return []ir.Op{
		{Code: ir.Ld, Type: t, Args: []ir.Operand{ir.Reg(regAddr), ir.Reg(regEnv), ir.Const(0x10)}},
		{Code: ir.QemuLd, Type: t, Args: []ir.Operand{ir.Reg(regData), ir.Reg(regAddr), ir.MemArg(oi)}},
		{Code: ir.Add, Type: t, Args: []ir.Operand{ir.Reg(regData), ir.Reg(regData), ir.Const(0x12345)}},
		{Code: ir.QemuSt, Type: t, Args: []ir.Operand{ir.Reg(regData), ir.Reg(regAddr), ir.MemArg(oi)}},
		{Code: ir.GotoTB, Type: t, Args: []ir.Operand{ir.Const(0)}},
		{Code: ir.ExitTB, Type: t, Args: []ir.Operand{ir.Const(1)}},
	}
}

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	cfg, err := hostgen.DetectConfig()
	if err != nil {
		log.Fatal(err)
	}

	var (
		isa       = cfg.Caps.ISA.String()
		abiName   = cfg.ABI.String()
		bigEndian = cfg.Caps.BigEndian
		narrow    = false
		pageBits  = uint(12)
		link      = false
		maxSize   = 0x10000
	)

	flag.BoolVar(&verbose, "v", verbose, "verbose logging")
	flag.StringVar(&isa, "isa", isa, "ISA level (base, 2.06, 2.07, 3.00)")
	flag.StringVar(&abiName, "abi", abiName, "calling convention (elfv1, elfv2, sysv, darwin)")
	flag.BoolVar(&bigEndian, "be", bigEndian, "big-endian host")
	flag.BoolVar(&narrow, "32", narrow, "32-bit host")
	flag.UintVar(&pageBits, "pagebits", pageBits, "log2 of guest page size")
	flag.BoolVar(&cfg.AlwaysSlowPath, "slow", cfg.AlwaysSlowPath, "route guest memory accesses through the helpers")
	flag.BoolVar(&link, "link", link, "link the jump slot back to the block itself")
	flag.IntVar(&maxSize, "max", maxSize, "code buffer size limit")
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}

	if cfg.Caps.ISA, err = hostgen.ParseISALevel(isa); err != nil {
		log.Fatal(err)
	}
	if cfg.ABI, err = abi.ParseKind(abiName); err != nil {
		log.Fatal(err)
	}
	cfg.Caps.BigEndian = bigEndian

	t := ir.I64
	if narrow {
		t = ir.I32
		cfg.Caps.RegBits = 32
		cfg.Caps.VSX = false
		if cfg.ABI == abi.ELFv1 || cfg.ABI == abi.ELFv2 {
			cfg.ABI = abi.Default
		}
	}
	cfg.State = sampleState(cfg.Caps.RegBits, pageBits)
	cfg.Helpers = sampleHelpers()

	if verbose {
		log.Printf("capabilities: %+v", cfg.Caps)
		log.Printf("calling convention: %s", cfg.ResolvedABI())
	}

	b, err := hostgen.Translate(&cfg, sampleUnit(t), buffer.NewLimited(nil, maxSize))
	if err != nil {
		log.Fatal(err)
	}

	region, err := codemem.Map(b.Size)
	if err != nil {
		log.Fatal(err)
	}
	defer region.Close()

	if err := region.Write(0, b.Text); err != nil {
		log.Fatal(err)
	}

	placed := *b
	placed.Text = region.Bytes()[:b.Size]
	placed.PlaceDescriptor(placed.Text, region.Addr())

	if err := region.Seal(); err != nil {
		log.Fatal(err)
	}

	if link {
		target := uintptr(region.Addr()) + uintptr(b.TB)
		if err := placed.RelinkRegion(region, 0, 0, target); err != nil {
			log.Fatal(err)
		}
	}

	if verbose {
		log.Printf("block: %d bytes at %#x, entry %#x, body %#x", b.Size, region.Addr(), b.Entry, b.TB)
	}

	if err := disasm.FprintBlock(os.Stdout, &placed, region.Addr()); err != nil {
		log.Fatal(err)
	}
}
