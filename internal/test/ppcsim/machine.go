// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ppcsim interprets the subset of the PowerPC instruction set which
// the code generator emits.  Host functions (runtime helpers) are Go
// callbacks registered at absolute addresses.
package ppcsim

import (
	"fmt"

	"gate.computer/hostgen/internal/gen"
	"golang.org/x/xerrors"
)

const (
	// ReturnAddr is the link register value on entry.  Branching to it
	// ends the run.
	ReturnAddr = 0x0ffff000

	stackSize = 0x10000
	stackTop  = 0x0fff0000

	defaultStepLimit = 1000000
)

var (
	ErrStepLimit = xerrors.New("step limit exceeded")
	ErrTrap      = xerrors.New("trap")
)

// IllegalInsn is an instruction which the interpreter doesn't implement.
type IllegalInsn struct {
	Addr uint64
	Word uint32
}

func (e IllegalInsn) Error() string {
	return fmt.Sprintf("illegal instruction %#08x at %#x", e.Word, e.Addr)
}

// Vec is a vector register.  Byte 0 is the most significant byte regardless
// of the byte order of the host.
type Vec [16]byte

// Func is a host function.  It receives the machine in the state of the call
// and returns by setting registers.
type Func func(m *Machine) error

// Machine state.
type Machine struct {
	GPR [32]uint64
	VR  [32]Vec
	CR  uint32
	LR  uint64
	CTR uint64
	CA  bool
	PC  uint64

	Mem   *Memory
	Steps int
	Limit int

	caps  gen.Capabilities
	wide  bool
	funcs map[uint64]Func
	stack []byte
}

// New machine for the given host capabilities.  A stack is mapped below
// stackTop.
func New(caps gen.Capabilities) *Machine {
	m := &Machine{
		Mem:   newMemory(caps.Order()),
		Limit: defaultStepLimit,
		caps:  caps,
		wide:  caps.RegBits == 64,
		funcs: make(map[uint64]Func),
		stack: make([]byte, stackSize),
	}
	m.Mem.Map(stackTop-stackSize, m.stack)
	return m
}

// Func registers a host function at addr.
func (m *Machine) Func(addr uint64, f Func) {
	m.funcs[addr] = f
}

// Call the function at entry with integer arguments.  The result is r3; see
// ResultPair for 64-bit results on 32-bit hosts.
func (m *Machine) Call(entry uint64, args ...uint64) (uint64, error) {
	if len(args) > 8 {
		return 0, xerrors.Errorf("%d arguments", len(args))
	}
	for i, x := range args {
		m.setGPR(3+i, x)
	}
	m.GPR[1] = stackTop - 256
	m.LR = ReturnAddr
	m.PC = entry

	if err := m.Run(); err != nil {
		return 0, err
	}
	return m.GPR[3], nil
}

// Run until the return address is reached.
func (m *Machine) Run() error {
	for m.PC != ReturnAddr {
		if m.Limit > 0 && m.Steps >= m.Limit {
			return ErrStepLimit
		}
		m.Steps++

		if f, found := m.funcs[m.PC]; found {
			if err := f(m); err != nil {
				return xerrors.Errorf("host function at %#x: %w", m.PC, err)
			}
			m.PC = m.LR
			continue
		}

		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	word, err := m.Mem.Load(m.PC, 4, false)
	if err != nil {
		return xerrors.Errorf("instruction fetch: %w", err)
	}

	next, err := m.exec(uint32(word))
	if err != nil {
		return err
	}
	m.PC = m.mask(next)
	return nil
}

// Arg reads an argument register of a host function.
func (m *Machine) Arg(i int) uint64 {
	return m.GPR[3+i]
}

// ArgPair reads a 64-bit argument passed in two registers on a 32-bit host.
// The high word comes first on big-endian hosts.
func (m *Machine) ArgPair(i int) uint64 {
	return m.pair(3 + i)
}

// ResultPair reads a 64-bit result returned in r3 and r4 on a 32-bit host.
func (m *Machine) ResultPair() uint64 {
	return m.pair(3)
}

// SetResult of a host function.
func (m *Machine) SetResult(x uint64) {
	m.setGPR(3, x)
}

// SetResultPair returns a 64-bit value from a host function.  On 32-bit hosts
// it is split into r3 and r4 according to the byte order.
func (m *Machine) SetResultPair(x uint64) {
	if m.wide {
		m.setGPR(3, x)
		return
	}

	hi, lo := 3, 4
	if !m.caps.BigEndian {
		hi, lo = lo, hi
	}
	m.setGPR(hi, x>>32)
	m.setGPR(lo, x)
}

func (m *Machine) pair(i int) uint64 {
	if m.wide {
		return m.GPR[i]
	}

	hi, lo := m.GPR[i], m.GPR[i+1]
	if !m.caps.BigEndian {
		hi, lo = lo, hi
	}
	return hi<<32 | lo&0xffffffff
}

func (m *Machine) setGPR(i int, x uint64) {
	m.GPR[i] = m.mask(x)
}

func (m *Machine) mask(x uint64) uint64 {
	if m.wide {
		return x
	}
	return uint64(uint32(x))
}

func (m *Machine) crBit(n uint32) bool {
	return m.CR>>(31-n)&1 != 0
}

func (m *Machine) setCRBit(n uint32, set bool) {
	if set {
		m.CR |= 1 << (31 - n)
	} else {
		m.CR &^= 1 << (31 - n)
	}
}

func (m *Machine) setCRField(field uint32, lt, gt, eq bool) {
	var x uint32
	if lt {
		x |= 8
	}
	if gt {
		x |= 4
	}
	if eq {
		x |= 2
	}
	shift := 28 - field*4
	m.CR = m.CR&^(0xf<<shift) | x<<shift
}

func (m *Machine) illegal(word uint32) error {
	return IllegalInsn{m.PC, word}
}
