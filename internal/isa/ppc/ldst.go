// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppc

import (
	"gate.computer/hostgen/internal/errors"
	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/debug"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/ir"
)

// Indexed accesses by MemOp&(BSwap|Sign|Size).  Missing signed forms are
// followed by a sign extension.
var (
	loadIndexed = [16]in.RegRegReg{
		ir.Size8:             in.LBZX,
		ir.Size16:            in.LHZX,
		ir.Size32:            in.LWZX,
		ir.Size64:            in.LDX,
		ir.Sign | ir.Size16:  in.LHAX,
		ir.Sign | ir.Size32:  in.LWAX,
		ir.BSwap | ir.Size8:  in.LBZX,
		ir.BSwap | ir.Size16: in.LHBRX,
		ir.BSwap | ir.Size32: in.LWBRX,
		ir.BSwap | ir.Size64: in.LDBRX,
	}

	storeIndexed = [16]in.RegRegReg{
		ir.Size8:             in.STBX,
		ir.Size16:            in.STHX,
		ir.Size32:            in.STWX,
		ir.Size64:            in.STDX,
		ir.BSwap | ir.Size8:  in.STBX,
		ir.BSwap | ir.Size16: in.STHBRX,
		ir.BSwap | ir.Size32: in.STWBRX,
		ir.BSwap | ir.Size64: in.STDBRX,
	}
)

func extend(c *gen.Ctx, size ir.MemOp, dst, src reg.R) {
	switch size {
	case ir.Size8:
		ext8s(c, dst, src)

	case ir.Size16:
		ext16s(c, dst, src)

	case ir.Size32:
		ext32s(c, dst, src)
	}
}

// canonicalMemOp drops the sign of accesses which fill the register.
func canonicalMemOp(c *gen.Ctx, t ir.Type, m ir.MemOp) ir.MemOp {
	if m&ir.Size == ir.Size32 && (t == ir.I32 || c.Caps.RegBits == 32) {
		m &^= ir.Sign
	}
	if m&ir.Size == ir.Size64 {
		m &^= ir.Sign
	}
	return m
}

// guestAccess holds the operands of a guarded access.
type guestAccess struct {
	load   bool
	oi     ir.MemOpIdx
	m      ir.MemOp
	t      ir.Type
	dataLo reg.R
	dataHi reg.R
	addrLo reg.R
	addrHi reg.R
}

func parseAccess(c *gen.Ctx, op ir.Op) (a guestAccess) {
	a.load = op.Code == ir.QemuLd
	a.t = op.Type
	a.oi = op.Args[2].MemOpIdx()
	a.m = canonicalMemOp(c, op.Type, a.oi.MemOp())

	data, addr := op.Args[0], op.Args[1]

	a.dataLo = data.Reg
	if data.IsPair() {
		a.dataHi = data.Hi
	}
	if a.m&ir.Size == ir.Size64 && c.Caps.RegBits == 32 && !data.IsPair() {
		panic(errors.Internalf("%s: 64-bit data requires a register pair", op))
	}
	if a.m&ir.Size == ir.Size64 && a.t == ir.I32 {
		panic(errors.Internalf("%s: 64-bit access of 32-bit value", op))
	}

	a.addrLo = addr.Reg
	if addr.IsPair() {
		a.addrHi = addr.Hi
	}
	if c.State.GuestAddrBits > c.Caps.RegBits && !addr.IsPair() {
		panic(errors.Internalf("%s: guest address requires a register pair", op))
	}
	return
}

// tlbRead emits the translation and the comparison.  R3 is left holding the
// addend and CR7.EQ indicates a hit.  The returned register holds the
// (zero-extended) address.
func tlbRead(c *gen.Ctx, a guestAccess) reg.R {
	l := &c.State
	tmp := Tmp1(c.ABI)
	ptr := ptrType(c)
	wideHost := c.Caps.RegBits == 64
	guestBits := l.GuestAddrBits

	cmpOff := l.ComparatorWrite
	if a.load {
		cmpOff = l.ComparatorRead
	}
	fast := int64(l.TLBMaskTable(a.oi.MMUIdx()))
	sBits := a.m.SizeBits()
	aBits := a.m.AlignBits()
	pageBits := uint32(l.PageBits)

	load(c, ptr, RegR3, c.State.EnvReg, fast+int64(l.MaskOffset))
	load(c, ptr, RegR4, c.State.EnvReg, fast+int64(l.TableOffset))

	// Page index scaled to the entry size.
	if wideHost {
		shri64(c, tmp, a.addrLo, pageBits-uint32(l.EntryBits))
	} else {
		shri32(c, tmp, a.addrLo, pageBits-uint32(l.EntryBits))
	}
	c.Insn(in.AND.RaRsRb(RegR3, RegR3, tmp))

	// Comparator.
	if cmpOff == 0 && c.Caps.RegBits >= guestBits {
		if !wideHost || guestBits == 32 {
			c.Insn(in.LWZUX.RtRaRb(tmp, RegR3, RegR4))
		} else {
			c.Insn(in.LDUX.RtRaRb(tmp, RegR3, RegR4))
		}
	} else {
		c.Insn(in.ADD.RtRaRb(RegR3, RegR3, RegR4))
		if c.Caps.RegBits < guestBits {
			lo, hi := int64(cmpOff)+4, int64(cmpOff)
			if !c.Caps.BigEndian {
				lo, hi = hi, lo
			}
			load(c, ir.I32, tmp, RegR3, lo)
			load(c, ir.I32, RegR4, RegR3, hi)
		} else if guestBits == 32 {
			load(c, ir.I32, tmp, RegR3, int64(cmpOff))
		} else {
			load(c, ir.I64, tmp, RegR3, int64(cmpOff))
		}
	}

	load(c, ptr, RegR3, RegR3, int64(l.Addend))

	// Masked address: page bits plus the alignment bits, so that misaligned
	// accesses and accesses crossing a page boundary miss.
	addr := a.addrLo

	if !wideHost {
		if aBits < sBits {
			aBits = sBits
		}
		rlw(c, in.RLWINM, RegZero, addr, 0, (32-uint32(aBits))&31, 31-pageBits)
	} else {
		t := addr
		if aBits < sBits {
			aMask := int32(1)<<aBits - 1
			sMask := int32(1)<<sBits - 1
			c.Insn(in.ADDI.RtRaSI(RegZero, t, sMask-aMask))
			t = RegZero
		}

		switch {
		case guestBits == 32:
			rlw(c, in.RLWINM, RegZero, t, 0, (32-uint32(aBits))&31, 31-pageBits)
			ext32u(c, RegR4, addr)
			addr = RegR4

		case aBits == 0:
			rld(c, in.RLDICR, RegZero, t, 0, 63-pageBits)

		default:
			rld(c, in.RLDICL, RegZero, t, 64-pageBits, pageBits-uint32(aBits))
			rld(c, in.RLDICL, RegZero, RegZero, pageBits, 0)
		}
	}

	if c.Caps.RegBits < guestBits {
		cmp(c, ir.I32, ir.EQ, RegZero, ir.Reg(tmp), crMain)
		cmp(c, ir.I32, ir.EQ, a.addrHi, ir.Reg(RegR4), crAux)
		c.Insn(in.CRAND.BtBaBb(in.BI(crMain, in.CREQ), in.BI(crAux, in.CREQ), in.BI(crMain, in.CREQ)))
	} else {
		t := ir.I64
		if guestBits == 32 {
			t = ir.I32
		}
		cmp(c, t, ir.EQ, RegZero, ir.Reg(tmp), crMain)
	}

	return addr
}

// guestMemory lowers QemuLd and QemuSt.
func guestMemory(c *gen.Ctx, op ir.Op) {
	a := parseAccess(c, op)

	if debug.Enabled {
		debug.Printf("%s %s", op.Code, a.oi)
	}

	sp := gen.SlowPath{
		Load:   a.load,
		OI:     a.oi,
		Type:   a.t,
		DataLo: a.dataLo,
		DataHi: a.dataHi,
		AddrLo: a.addrLo,
		AddrHi: a.addrHi,
		Label:  c.NewLabel("slow"),
	}

	if c.AlwaysSlowPath {
		sp.Site = c.Text.Addr
		branch(c, sp.Label, true)
		sp.Resume = c.Text.Addr
		c.SlowPaths = append(c.SlowPaths, sp)
		return
	}

	addr := tlbRead(c, a)
	if addr != a.addrLo {
		sp.AddrLo = addr
	}

	sp.Site = c.Text.Addr
	branchCond(c, in.BOCondFalse, in.BI(crMain, in.CREQ), sp.Label, true)

	if a.load {
		fastLoad(c, a, RegR3, addr)
	} else {
		fastStore(c, a, RegR3, addr)
	}

	sp.Resume = c.Text.Addr
	c.SlowPaths = append(c.SlowPaths, sp)
}

// memBigEndian indicates the byte order of the guest memory.
func memBigEndian(c *gen.Ctx, m ir.MemOp) bool {
	return c.Caps.BigEndian != m.Swapped()
}

func fastLoad(c *gen.Ctx, a guestAccess, base, addr reg.R) {
	m := a.m

	if c.Caps.RegBits == 32 && m&ir.Size == ir.Size64 {
		insn := in.LWZX
		if m.Swapped() {
			insn = in.LWBRX
		}
		first, second := a.dataLo, a.dataHi
		if memBigEndian(c, m) {
			first, second = second, first
		}
		c.Insn(in.ADDI.RtRaSI(RegZero, addr, 4))
		c.Insn(insn.RtRaRb(first, base, addr))
		c.Insn(insn.RtRaRb(second, base, RegZero))
		return
	}

	insn := loadIndexed[m&(ir.BSwap|ir.Sign|ir.Size)]

	switch {
	case insn == in.LDBRX && !c.Caps.Has(gen.ISA206):
		dst := a.dataLo
		if memBigEndian(c, m) {
			c.Insn(in.LWBRX.RtRaRb(RegZero, base, addr))
			c.Insn(in.ADDI.RtRaSI(dst, addr, 4))
			c.Insn(in.LWBRX.RtRaRb(dst, base, dst))
		} else {
			c.Insn(in.ADDI.RtRaSI(RegZero, addr, 4))
			c.Insn(in.LWBRX.RtRaRb(dst, base, addr))
			c.Insn(in.LWBRX.RtRaRb(RegZero, base, RegZero))
		}
		rld(c, in.RLDIMI, dst, RegZero, 32, 0)

	case insn != 0:
		c.Insn(insn.RtRaRb(a.dataLo, base, addr))

	default:
		size := m & ir.Size
		c.Insn(loadIndexed[m&(ir.BSwap|ir.Size)].RtRaRb(a.dataLo, base, addr))
		extend(c, size, a.dataLo, a.dataLo)
	}
}

func fastStore(c *gen.Ctx, a guestAccess, base, addr reg.R) {
	m := a.m

	if c.Caps.RegBits == 32 && m&ir.Size == ir.Size64 {
		insn := in.STWX
		if m.Swapped() {
			insn = in.STWBRX
		}
		first, second := a.dataLo, a.dataHi
		if memBigEndian(c, m) {
			first, second = second, first
		}
		c.Insn(in.ADDI.RtRaSI(RegZero, addr, 4))
		c.Insn(insn.RtRaRb(first, base, addr))
		c.Insn(insn.RtRaRb(second, base, RegZero))
		return
	}

	insn := storeIndexed[m&(ir.BSwap|ir.Size)]

	if insn == in.STDBRX && !c.Caps.Has(gen.ISA206) {
		shri64(c, RegZero, a.dataLo, 32)
		first, second := a.dataLo, RegZero
		if memBigEndian(c, m) {
			first, second = second, first
		}
		c.Insn(in.STWBRX.RtRaRb(first, base, addr))
		c.Insn(in.ADDI.RtRaSI(RegR4, addr, 4))
		c.Insn(in.STWBRX.RtRaRb(second, base, RegR4))
		return
	}

	c.Insn(insn.RtRaRb(a.dataLo, base, addr))
}

// slowPaths emits the out-of-line stubs of the unit.
func slowPaths(c *gen.Ctx) {
	for i := range c.SlowPaths {
		sp := &c.SlowPaths[i]

		maybeIsland(c, 128)

		if debug.Enabled {
			debug.Printf("slow path %d at %#x: %s", i, c.Text.Addr, sp.Descriptor())
		}

		c.Bind(sp.Label)
		slowPath(c, sp)
	}
}

// slowPath calls the runtime helper.  Arguments: context, address, data
// (stores), descriptor word, return address.
func slowPath(c *gen.Ctx, sp *gen.SlowPath) {
	m := canonicalMemOp(c, sp.Type, sp.OI.MemOp())
	narrow := c.Caps.RegBits == 32
	size := m & ir.Size

	var moves []regMove
	arg := 0

	put := func(t ir.Type, src reg.R) {
		moves = append(moves, regMove{t, argReg(arg), src})
		arg++
	}

	pair := func(lo, hi reg.R) {
		if c.ABI.PairedArgs() && arg&1 != 0 {
			arg++
		}
		if c.Caps.BigEndian {
			put(ir.I32, hi)
			put(ir.I32, lo)
		} else {
			put(ir.I32, lo)
			put(ir.I32, hi)
		}
	}

	put(ptrType(c), c.State.EnvReg)

	addrArg := arg
	if c.Caps.RegBits < c.State.GuestAddrBits {
		pair(sp.AddrLo, sp.AddrHi)
	} else {
		put(ptrType(c), sp.AddrLo)
	}

	dataArg := arg
	if !sp.Load {
		if narrow && size == ir.Size64 {
			pair(sp.DataLo, sp.DataHi)
		} else {
			put(ptrType(c), sp.DataLo)
		}
	}

	parallelMove(c, moves)

	// Zero-extend the address and the data to their access sizes.
	if !narrow && c.State.GuestAddrBits == 32 {
		ext32u(c, argReg(addrArg), argReg(addrArg))
	}
	if !sp.Load && size != ir.Size64 {
		r := argReg(dataArg)
		if narrow {
			if size != ir.Size32 {
				rlw(c, in.RLWINM, r, r, 0, 32-(8<<size), 31)
			}
		} else {
			rld(c, in.RLDICL, r, r, 0, 64-(8<<size))
		}
	}

	movi(c, ir.I32, argReg(arg), int64(sp.OI))
	arg++
	mflr(c, argReg(arg))

	idx := gen.HelperIndex(m)
	if sp.Load {
		callHelper(c, c.Helpers.Load[idx], "load")
	} else {
		callHelper(c, c.Helpers.Store[idx], "store")
	}

	if sp.Load {
		switch {
		case narrow && size == ir.Size64:
			hi, lo := RegR3, RegR4
			if !c.Caps.BigEndian {
				hi, lo = lo, hi
			}
			parallelMove(c, []regMove{{ir.I32, sp.DataLo, lo}, {ir.I32, sp.DataHi, hi}})

		case m.Signed():
			extend(c, size, sp.DataLo, RegR3)

		default:
			mov(c, ptrType(c), sp.DataLo, RegR3)
		}
	}

	c.Insn(in.B.LI(sp.Resume - c.Text.Addr))
}
