// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen_test

import (
	"encoding/binary"

	"gate.computer/hostgen"
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/buffer"
	"gate.computer/hostgen/internal/test/ppcsim"
	"gate.computer/hostgen/ir"

	. "github.com/onsi/gomega"
)

// Simulated address space.
const (
	textAddr = 0x10000000
	envAddr  = 0x20000000
	tlbAddr  = 0x20100000
	funcAddr = 0x30000000
	descAddr = 0x31000000
	hostBias = 0x7f000000
	hostPage = 0x7f001000

	textSize   = 0x10000
	envSize    = 0x1000
	pageSize   = 0x1000
	hostSize   = 2 * pageSize
	tlbEntries = 256

	resultOffset = 0x800
	vectorOffset = 0x900
)

var (
	regEnv  = ir.GPR(27)
	regData = ir.GPR(14)
	regAddr = ir.GPR(15)
	regHi   = ir.GPR(16)
)

type host struct {
	name string
	cfg  hostgen.Config
}

func wideLayout() hostgen.StateLayout {
	return hostgen.StateLayout{
		EnvReg:          regEnv,
		TLBBase:         0x100,
		TLBStride:       16,
		MaskOffset:      0,
		TableOffset:     8,
		EntryBits:       5,
		ComparatorRead:  0,
		ComparatorWrite: 8,
		Addend:          24,
		PageBits:        12,
		GuestAddrBits:   64,
	}
}

func narrowLayout() hostgen.StateLayout {
	return hostgen.StateLayout{
		EnvReg:          regEnv,
		TLBBase:         0x100,
		TLBStride:       8,
		MaskOffset:      0,
		TableOffset:     4,
		EntryBits:       4,
		ComparatorRead:  0,
		ComparatorWrite: 4,
		Addend:          12,
		PageBits:        12,
		GuestAddrBits:   32,
	}
}

// guest32Layout is wideLayout for a 32-bit guest address space.
func guest32Layout() hostgen.StateLayout {
	l := wideLayout()
	l.GuestAddrBits = 32
	return l
}

var hosts = []host{
	{
		name: "ppc64le ELFv2",
		cfg: hostgen.Config{
			ABI: abi.ELFv2,
			Caps: hostgen.Capabilities{
				RegBits: 64,
				ISA:     hostgen.ISA207,
				ISEL:    true,
				AltiVec: true,
				VSX:     true,
			},
			State: wideLayout(),
		},
	},
	{
		name: "ppc64 ELFv1",
		cfg: hostgen.Config{
			ABI: abi.ELFv1,
			Caps: hostgen.Capabilities{
				RegBits:   64,
				ISA:       hostgen.ISA206,
				AltiVec:   true,
				BigEndian: true,
			},
			State: wideLayout(),
		},
	},
	{
		name: "ppc SysV",
		cfg: hostgen.Config{
			ABI: abi.SysV,
			Caps: hostgen.Capabilities{
				RegBits:   32,
				ISA:       hostgen.ISABase,
				BigEndian: true,
			},
			State: narrowLayout(),
		},
	},
}

// Hosts of the split and emulated access paths.
var (
	// 32-bit guest addresses on a 64-bit host.
	guest32Host = host{
		name: "ppc64le ELFv2 with 32-bit guest",
		cfg: hostgen.Config{
			ABI:   abi.ELFv2,
			Caps:  hosts[0].cfg.Caps,
			State: guest32Layout(),
		},
	}

	// No ldbrx or stdbrx.
	baseHosts = []host{
		{
			name: "ppc64 ELFv1 without ISA 2.06",
			cfg: hostgen.Config{
				ABI: abi.ELFv1,
				Caps: hostgen.Capabilities{
					RegBits:   64,
					ISA:       hostgen.ISABase,
					AltiVec:   true,
					BigEndian: true,
				},
				State: wideLayout(),
			},
		},
		{
			name: "ppc64le ELFv2 without ISA 2.06",
			cfg: hostgen.Config{
				ABI: abi.ELFv2,
				Caps: hostgen.Capabilities{
					RegBits: 64,
					ISA:     hostgen.ISABase,
					AltiVec: true,
				},
				State: wideLayout(),
			},
		},
	}
)

// helperCall is a recorded slow path invocation.
type helperCall struct {
	load bool
	addr uint64
	data uint64
	oi   ir.MemOpIdx
}

// rig runs generated blocks in the simulator.  The runtime helpers resolve
// guest addresses by adding hostBias.
type rig struct {
	cfg   hostgen.Config
	m     *ppcsim.Machine
	order binary.ByteOrder
	text  *buffer.Static
	env   []byte
	tlb   []byte
	page  []byte
	descs []byte
	addrs map[*hostgen.Block]uint64
	calls []helperCall
	funcs int
}

func newRig(h host) *rig {
	cfg := h.cfg
	l := &cfg.State

	r := &rig{
		cfg:   cfg,
		m:     ppcsim.New(cfg.Caps),
		order: cfg.Caps.Order(),
		env:   make([]byte, envSize),
		tlb:   make([]byte, tlbEntries<<l.EntryBits),
		page:  make([]byte, hostSize),
		descs: make([]byte, 0x1000),
		addrs: make(map[*hostgen.Block]uint64),
	}

	text := make([]byte, textSize)
	r.text = buffer.NewStatic(text[:0])

	r.m.Mem.Map(textAddr, text)
	r.m.Mem.Map(envAddr, r.env)
	r.m.Mem.Map(tlbAddr, r.tlb)
	r.m.Mem.Map(hostPage, r.page)
	r.m.Mem.Map(descAddr, r.descs)

	fast := int(l.TLBMaskTable(0))
	r.putWord(r.env, fast+int(l.MaskOffset), (tlbEntries-1)<<l.EntryBits)
	r.putWord(r.env, fast+int(l.TableOffset), tlbAddr)

	// Nothing hits until an entry is filled.
	for i := 0; i < tlbEntries; i++ {
		entry := i << l.EntryBits
		r.putWord(r.tlb, entry+int(l.ComparatorRead), ^uint64(0))
		r.putWord(r.tlb, entry+int(l.ComparatorWrite), ^uint64(0))
	}

	for i := range r.cfg.Helpers.Load {
		m := ir.MemOp(i)
		r.cfg.Helpers.Load[i] = r.hostFunc(r.loadHelper(m))
		r.cfg.Helpers.Store[i] = r.hostFunc(r.storeHelper(m))
	}

	return r
}

func (r *rig) wordBytes() int {
	return r.cfg.Caps.RegBits / 8
}

func (r *rig) wordType() ir.Type {
	if r.cfg.Caps.RegBits == 32 {
		return ir.I32
	}
	return ir.I64
}

func (r *rig) putWord(b []byte, offset int, x uint64) {
	if r.wordBytes() == 8 {
		r.order.PutUint64(b[offset:], x)
	} else {
		r.order.PutUint32(b[offset:], uint32(x))
	}
}

func (r *rig) word(b []byte, offset int) uint64 {
	if r.wordBytes() == 8 {
		return r.order.Uint64(b[offset:])
	}
	return uint64(r.order.Uint32(b[offset:]))
}

// setTLB fills the entry of a guest page.
func (r *rig) setTLB(guestPage, comparator, addend uint64) {
	l := &r.cfg.State
	entry := int((guestPage>>l.PageBits)&(tlbEntries-1)) << l.EntryBits

	r.putComparator(entry+int(l.ComparatorRead), comparator)
	r.putComparator(entry+int(l.ComparatorWrite), comparator)
	r.putWord(r.tlb, entry+int(l.Addend), addend)
}

// putComparator stores a comparator of the guest address width.
func (r *rig) putComparator(offset int, x uint64) {
	if r.cfg.State.GuestAddrBits == 32 {
		r.order.PutUint32(r.tlb[offset:], uint32(x))
	} else {
		r.putWord(r.tlb, offset, x)
	}
}

// hostFunc registers a host function and returns its callable address: a
// function descriptor on ELFv1.
func (r *rig) hostFunc(f ppcsim.Func) uint64 {
	n := r.funcs
	r.funcs++

	addr := uint64(funcAddr + n*16)
	r.m.Func(addr, f)

	if r.cfg.ResolvedABI() != abi.ELFv1 {
		return addr
	}

	r.order.PutUint64(r.descs[n*24:], addr)
	return uint64(descAddr + n*24)
}

// pairData indicates that 64-bit data of the helper index takes two argument
// registers.
func (r *rig) pairData(index ir.MemOp) bool {
	return r.cfg.Caps.RegBits == 32 && index&ir.Size == ir.Size64
}

// loadHelper for a helper index.  The guest address fits in a register.
func (r *rig) loadHelper(index ir.MemOp) ppcsim.Func {
	return func(m *ppcsim.Machine) error {
		addr := m.Arg(1)
		oi := ir.MemOpIdx(m.Arg(2))
		r.calls = append(r.calls, helperCall{load: true, addr: addr, oi: oi})

		mo := oi.MemOp()
		x, err := m.Mem.Load(hostBias+addr, mo.Bytes(), mo.Swapped())
		if err != nil {
			return err
		}
		if r.pairData(index) {
			m.SetResultPair(x)
		} else {
			m.SetResult(x)
		}
		return nil
	}
}

// storeHelper for a helper index.  A data pair starts at an aligned argument
// register on 32-bit hosts.
func (r *rig) storeHelper(index ir.MemOp) ppcsim.Func {
	return func(m *ppcsim.Machine) error {
		addr := m.Arg(1)
		data := m.Arg(2)
		oiArg := 3
		if r.pairData(index) {
			data = m.ArgPair(2)
			oiArg = 4
		}
		oi := ir.MemOpIdx(m.Arg(oiArg))
		r.calls = append(r.calls, helperCall{addr: addr, data: data, oi: oi})

		mo := oi.MemOp()
		return m.Mem.Store(hostBias+addr, mo.Bytes(), data, mo.Swapped())
	}
}

// translate ops and place the block in the simulated text.
func (r *rig) translate(ops ...ir.Op) *hostgen.Block {
	b, err := hostgen.Translate(&r.cfg, ops, r.text)
	Expect(err).NotTo(HaveOccurred())

	addr := uint64(textAddr + len(r.text.Bytes()) - b.Size)
	r.addrs[b] = addr
	b.PlaceDescriptor(b.Text, addr)
	return b
}

// run a block and return the value passed to the epilogue.
func (r *rig) run(b *hostgen.Block) uint64 {
	addr, found := r.addrs[b]
	Expect(found).To(BeTrue())

	result, err := r.m.Call(addr+uint64(b.Entry), envAddr, addr+uint64(b.TB))
	Expect(err).NotTo(HaveOccurred())
	return result
}

func (r *rig) result() uint64 {
	return r.word(r.env, resultOffset)
}

func (r *rig) resultPair() uint64 {
	lo := r.order.Uint32(r.env[resultOffset:])
	hi := r.order.Uint32(r.env[resultOffset+4:])
	return uint64(hi)<<32 | uint64(lo)
}

// Operation constructors.

func movi(t ir.Type, dst ir.Operand, value int64) ir.Op {
	return ir.Op{Code: ir.Movi, Type: t, Args: []ir.Operand{dst, ir.Const(value)}}
}

func qemuLd(t ir.Type, m ir.MemOp) ir.Op {
	oi := ir.MakeMemOpIdx(m, 0)
	return ir.Op{Code: ir.QemuLd, Type: t, Args: []ir.Operand{ir.Reg(regData), ir.Reg(regAddr), ir.MemArg(oi)}}
}

func qemuSt(t ir.Type, m ir.MemOp) ir.Op {
	oi := ir.MakeMemOpIdx(m, 0)
	return ir.Op{Code: ir.QemuSt, Type: t, Args: []ir.Operand{ir.Reg(regData), ir.Reg(regAddr), ir.MemArg(oi)}}
}

// qemuLdPair loads 64-bit data into regData (low) and regHi on a 32-bit host.
func qemuLdPair(m ir.MemOp) ir.Op {
	oi := ir.MakeMemOpIdx(m, 0)
	return ir.Op{Code: ir.QemuLd, Type: ir.I64, Args: []ir.Operand{ir.RegPair(regData, regHi), ir.Reg(regAddr), ir.MemArg(oi)}}
}

func qemuStPair(m ir.MemOp) ir.Op {
	oi := ir.MakeMemOpIdx(m, 0)
	return ir.Op{Code: ir.QemuSt, Type: ir.I64, Args: []ir.Operand{ir.RegPair(regData, regHi), ir.Reg(regAddr), ir.MemArg(oi)}}
}

// storeResultPair stores the low word at resultOffset and the high word after
// it.
func storeResultPair() []ir.Op {
	return []ir.Op{
		{Code: ir.St, Type: ir.I32, Args: []ir.Operand{ir.Reg(regData), ir.Reg(regEnv), ir.Const(resultOffset)}},
		{Code: ir.St, Type: ir.I32, Args: []ir.Operand{ir.Reg(regHi), ir.Reg(regEnv), ir.Const(resultOffset + 4)}},
	}
}

func storeResult(t ir.Type, src ir.Operand) ir.Op {
	return ir.Op{Code: ir.St, Type: t, Args: []ir.Operand{src, ir.Reg(regEnv), ir.Const(resultOffset)}}
}

func exitTB(value int64) ir.Op {
	return ir.Op{Code: ir.ExitTB, Type: ir.I64, Args: []ir.Operand{ir.Const(value)}}
}

func gotoTB(slot int64) ir.Op {
	return ir.Op{Code: ir.GotoTB, Type: ir.I64, Args: []ir.Operand{ir.Const(slot)}}
}
