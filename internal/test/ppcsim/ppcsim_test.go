// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppcsim_test

import (
	"encoding/binary"
	"testing"

	"gate.computer/hostgen/internal/gen"
	"gate.computer/hostgen/internal/gen/reg"
	"gate.computer/hostgen/internal/isa/ppc/in"
	"gate.computer/hostgen/internal/test/ppcsim"
	"golang.org/x/xerrors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPPCSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PPCSim Suite")
}

const codeAddr = 0x1000

var (
	r3 = reg.R(3)
	r4 = reg.R(4)
	r5 = reg.R(5)
)

func program(order binary.ByteOrder, words ...uint32) []byte {
	b := make([]byte, len(words)*4)
	for i, w := range words {
		order.PutUint32(b[i*4:], w)
	}
	return b
}

var _ = Describe("Memory", func() {
	var m *ppcsim.Machine

	BeforeEach(func() {
		m = ppcsim.New(gen.Capabilities{RegBits: 64, BigEndian: true})
		m.Mem.Map(0x2000, make([]byte, 16))
	})

	It("loads what was stored", func() {
		Expect(m.Mem.Store(0x2004, 4, 0x11223344, false)).To(Succeed())
		Expect(m.Mem.Load(0x2004, 4, false)).To(Equal(uint64(0x11223344)))
		Expect(m.Mem.Load(0x2004, 2, false)).To(Equal(uint64(0x1122)))
	})

	It("reverses the byte order", func() {
		Expect(m.Mem.Store(0x2008, 4, 0x11223344, true)).To(Succeed())
		Expect(m.Mem.Load(0x2008, 4, false)).To(Equal(uint64(0x44332211)))
	})

	It("faults outside the mapped segments", func() {
		_, err := m.Mem.Load(0x200e, 4, false)
		var fault ppcsim.Fault
		Expect(xerrors.As(err, &fault)).To(BeTrue())

		_, err = m.Mem.Load(0x1ffc, 4, false)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("32-bit machine", func() {
	var m *ppcsim.Machine

	BeforeEach(func() {
		caps := gen.Capabilities{RegBits: 32, BigEndian: true}
		m = ppcsim.New(caps)
	})

	It("passes 64-bit values in register pairs", func() {
		m.Func(0x5000, func(m *ppcsim.Machine) error {
			m.SetResultPair(m.ArgPair(0) + 1)
			return nil
		})
		m.Mem.Map(codeAddr, program(binary.BigEndian,
			in.MFSPR.RtSpr(r5, in.LR),
			in.ADDIS.RtRaSI(reg.R(6), 0, 0),
			in.ORI.RaRsUI(reg.R(6), reg.R(6), 0x5000),
			in.MTSPR.RtSpr(reg.R(6), in.CTR),
			in.BCCTR.Always()|in.LK,
			in.MTSPR.RtSpr(r5, in.LR),
			in.BCLR.Always(),
		))

		_, err := m.Call(codeAddr, 0x1, 0xffffffff)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.GPR[3]).To(Equal(uint64(2)))
		Expect(m.GPR[4]).To(BeZero())
		Expect(m.ResultPair()).To(Equal(uint64(0x200000000)))
	})

	It("keeps register-sized results in r3", func() {
		m.SetResult(0x1234)
		Expect(m.GPR[3]).To(Equal(uint64(0x1234)))
	})
})

var _ = Describe("Machine", func() {
	for _, bigEndian := range []bool{false, true} {
		caps := gen.Capabilities{RegBits: 64, ISA: gen.ISA207, AltiVec: true, VSX: true, BigEndian: bigEndian}
		var m *ppcsim.Machine

		load := func(words ...uint32) {
			m.Mem.Map(codeAddr, program(caps.Order(), words...))
		}

		Describe(caps.Order().String(), func() {
			BeforeEach(func() {
				m = ppcsim.New(caps)
			})

			It("executes arithmetic and branches", func() {
				load(
					in.ADDI.RtRaSI(r3, 0, 5),
					in.ADDI.RtRaSI(r3, r3, 10),
					in.CMPI.BfRaSI(7, r3, 15, false),
					in.BC.BoBiBD(in.BOCondTrue, in.BI(7, in.CREQ), 8),
					in.ADDI.RtRaSI(r3, 0, 0),
					in.BCLR.Always(),
				)

				Expect(m.Call(codeAddr)).To(Equal(uint64(15)))
			})

			It("passes arguments and 64-bit results", func() {
				load(
					in.MULLD.RtRaRb(r3, r3, r4),
					in.BCLR.Always(),
				)

				Expect(m.Call(codeAddr, 0x100000000, 3)).To(Equal(uint64(0x300000000)))
			})

			It("accesses memory in the host byte order", func() {
				data := make([]byte, 8)
				m.Mem.Map(0x3000, data)
				load(
					in.STD.RtRaDS(r4, r3, 0),
					in.LD.RtRaDS(r3, r3, 0),
					in.BCLR.Always(),
				)

				Expect(m.Call(codeAddr, 0x3000, 0x0102030405060708)).To(Equal(uint64(0x0102030405060708)))
				Expect(caps.Order().Uint64(data)).To(Equal(uint64(0x0102030405060708)))
			})

			It("calls host functions", func() {
				m.Func(0x5000, func(m *ppcsim.Machine) error {
					m.SetResult(m.Arg(0) + 1)
					return nil
				})
				load(
					in.MFSPR.RtSpr(r5, in.LR),
					in.ADDIS.RtRaSI(r4, 0, 0),
					in.ORI.RaRsUI(r4, r4, 0x5000),
					in.MTSPR.RtSpr(r4, in.CTR),
					in.BCCTR.Always()|in.LK,
					in.MTSPR.RtSpr(r5, in.LR),
					in.BCLR.Always(),
				)

				Expect(m.Call(codeAddr, 41)).To(Equal(uint64(42)))
			})

			It("splats and adds vectors", func() {
				load(
					in.VSPLTISW.VtSIM(reg.V(2), 3),
					in.VSPLTISW.VtSIM(reg.V(3), -1),
					in.VADDUWM.VtVaVb(reg.V(4), reg.V(2), reg.V(3)),
					in.BCLR.Always(),
				)

				_, err := m.Call(codeAddr)
				Expect(err).NotTo(HaveOccurred())
				for i := 0; i < 4; i++ {
					Expect(m.VR[4].Elem(4, i)).To(Equal(uint64(2)))
				}
			})

			It("stops at a trap", func() {
				load(in.TRAP.Word())

				_, err := m.Call(codeAddr)
				Expect(xerrors.Is(err, ppcsim.ErrTrap)).To(BeTrue())
			})

			It("reports unknown instructions", func() {
				load(0)

				_, err := m.Call(codeAddr)
				var illegal ppcsim.IllegalInsn
				Expect(xerrors.As(err, &illegal)).To(BeTrue())
				Expect(illegal.Addr).To(Equal(uint64(codeAddr)))
			})

			It("limits the number of steps", func() {
				load(in.B.LI(0))
				m.Limit = 100

				_, err := m.Call(codeAddr)
				Expect(err).To(MatchError(ppcsim.ErrStepLimit))
			})
		})
	}
})
