// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen_test

import (
	"unsafe"

	"gate.computer/hostgen"
	"gate.computer/hostgen/abi"
	"gate.computer/hostgen/buffer"
	"gate.computer/hostgen/internal/test/ppcsim"
	"gate.computer/hostgen/ir"
	"golang.org/x/xerrors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func bodyAddr(b *hostgen.Block) uintptr {
	return uintptr(unsafe.Pointer(&b.Text[b.TB]))
}

var _ = Describe("Translation", func() {
	for _, h := range hosts {
		h := h

		Describe(h.name, func() {
			var r *rig

			BeforeEach(func() {
				r = newRig(h)
			})

			It("returns the exit value", func() {
				b := r.translate(exitTB(0x1234))
				Expect(r.run(b)).To(Equal(uint64(0x1234)))
			})

			It("aligns blocks", func() {
				r.translate(exitTB(1))
				b := r.translate(exitTB(2))
				Expect(r.addrs[b] & 15).To(BeZero())
				Expect(r.run(b)).To(Equal(uint64(2)))
			})

			DescribeTable("materializes constants",
				func(value int64) {
					t := r.wordType()
					b := r.translate(
						movi(t, ir.Reg(regData), value),
						storeResult(t, ir.Reg(regData)),
						exitTB(0),
					)
					r.run(b)

					if t == ir.I32 {
						Expect(r.result()).To(Equal(uint64(uint32(value))))
					} else {
						Expect(r.result()).To(Equal(uint64(value)))
					}
				},
				Entry("short", int64(0x1234)),
				Entry("shifted", int64(0x12340000)),
				Entry("negative", int64(-2)),
				Entry("high and low", int64(0x12345678)),
				Entry("unsigned 32-bit", int64(0x80000000)),
				Entry("masked", int64(0xffff8000)),
				Entry("shifted short", int64(0x1234)<<40),
				Entry("pooled", int64(0x123456789abcdef0)),
				Entry("pooled negative", int64(-0x123456789abcdef0)),
			)

			It("calls host functions", func() {
				fn := r.hostFunc(func(m *ppcsim.Machine) error {
					m.SetResult(m.Arg(0) * m.Arg(1))
					return nil
				})

				t := r.wordType()
				b := r.translate(
					movi(t, ir.Reg(regAddr), 6),
					ir.Op{
						Code: ir.Call,
						Type: t,
						Outs: 1,
						Args: []ir.Operand{ir.Reg(regData), ir.Const(int64(fn)), ir.Reg(regAddr), ir.Const(7)},
					},
					storeResult(t, ir.Reg(regData)),
					exitTB(0),
				)
				r.run(b)
				Expect(r.result()).To(Equal(uint64(42)))
			})

			Context("with jump slots", func() {
				var a, b *hostgen.Block

				BeforeEach(func() {
					a = r.translate(gotoTB(0), exitTB(1))
					b = r.translate(exitTB(2))
				})

				It("falls through until linked", func() {
					Expect(a.JumpSlots).To(HaveLen(1))
					Expect(r.run(a)).To(Equal(uint64(1)))
				})

				It("jumps to the linked block", func() {
					Expect(a.Relink(a.Text, 0, bodyAddr(b))).To(Succeed())
					Expect(r.run(a)).To(Equal(uint64(2)))
				})

				It("relinks idempotently", func() {
					Expect(a.Relink(a.Text, 0, bodyAddr(b))).To(Succeed())
					linked := append([]byte(nil), a.Text...)

					Expect(a.Relink(a.Text, 0, bodyAddr(b))).To(Succeed())
					Expect(a.Text).To(Equal(linked))
					Expect(r.run(a)).To(Equal(uint64(2)))
				})

				It("resets the slot", func() {
					Expect(a.Relink(a.Text, 0, bodyAddr(b))).To(Succeed())
					Expect(a.Relink(a.Text, 0, 0)).To(Succeed())
					Expect(r.run(a)).To(Equal(uint64(1)))
				})

				It("rejects an invalid slot", func() {
					Expect(a.Relink(a.Text, 1, bodyAddr(b))).NotTo(Succeed())
				})
			})

			It("rejects bound registers which guest memory access clobbers", func() {
				t := r.wordType()
				r4 := ir.Reg(ir.GPR(4))
				r.setTLB(0x1000, 0x1000, hostBias)

				_, err := hostgen.Translate(&r.cfg, []ir.Op{
					movi(t, r4, 0x5555),
					movi(t, ir.Reg(regAddr), 0x1004),
					qemuLd(t, ir.Size32),
					storeResult(t, r4),
					exitTB(0),
				}, buffer.NewDynamic(nil))
				Expect(xerrors.Is(err, hostgen.ErrInvalidConfig)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("r4"))

				b := r.translate(
					movi(t, r4, 0x5555),
					storeResult(t, r4),
					exitTB(0),
				)
				r.run(b)
				Expect(r.result()).To(Equal(uint64(0x5555)))
			})

			It("rejects bound reserved registers", func() {
				_, err := hostgen.Translate(&r.cfg, []ir.Op{
					movi(r.wordType(), ir.Reg(ir.GPR(0)), 1),
					exitTB(0),
				}, buffer.NewDynamic(nil))
				Expect(xerrors.Is(err, hostgen.ErrInvalidConfig)).To(BeTrue())
			})

			It("reports unsupported operations", func() {
				op := ir.Op{Code: ir.Add2, Type: ir.I32, Args: []ir.Operand{
					ir.Reg(ir.GPR(14)), ir.Reg(ir.GPR(15)),
					ir.Reg(ir.GPR(16)), ir.Reg(ir.GPR(17)),
					ir.Reg(ir.GPR(18)), ir.Reg(ir.GPR(19)),
				}}
				if r.cfg.Caps.RegBits == 32 {
					op.Code = ir.Bswap64
					op.Type = ir.I64
				}

				_, err := hostgen.Translate(&r.cfg, []ir.Op{op, exitTB(0)}, buffer.NewDynamic(nil))
				Expect(xerrors.Is(err, hostgen.ErrInvalidConfig)).To(BeTrue())
			})
		})
	}

	It("fills the function descriptor", func() {
		r := newRig(hosts[1])
		Expect(r.cfg.ABI).To(Equal(abi.ELFv1))

		b := r.translate(exitTB(0))
		Expect(b.Descriptor).To(BeZero())
		Expect(b.Entry).To(BeNumerically(">=", 24))
		Expect(r.order.Uint64(b.Text[b.Descriptor:])).To(Equal(r.addrs[b] + uint64(b.Entry)))
	})

	It("lowers vector operations", func() {
		r := newRig(hosts[0])

		v2, v3, v4 := ir.VR(2), ir.VR(3), ir.VR(4)
		b := r.translate(
			ir.Op{Code: ir.Dupi, Type: ir.V128, Elem: ir.Elem32, Args: []ir.Operand{ir.Reg(v2), ir.Const(7)}},
			ir.Op{Code: ir.Dupi, Type: ir.V128, Elem: ir.Elem32, Args: []ir.Operand{ir.Reg(v3), ir.Const(0x12345678)}},
			ir.Op{Code: ir.AddVec, Type: ir.V128, Elem: ir.Elem32, Args: []ir.Operand{ir.Reg(v4), ir.Reg(v2), ir.Reg(v3)}},
			ir.Op{Code: ir.StVec, Type: ir.V128, Args: []ir.Operand{ir.Reg(v4), ir.Reg(regEnv), ir.Const(vectorOffset)}},
			exitTB(0),
		)
		r.run(b)

		for i := 0; i < 4; i++ {
			Expect(r.order.Uint32(r.env[vectorOffset+i*4:])).To(Equal(uint32(0x1234567f)))
		}
	})

	It("reports a full buffer", func() {
		cfg := hosts[0].cfg

		_, err := hostgen.Translate(&cfg, []ir.Op{exitTB(0)}, buffer.NewLimited(nil, 16))
		Expect(xerrors.Is(err, buffer.ErrSizeLimit)).To(BeTrue())

		b, err := hostgen.Translate(&cfg, []ir.Op{exitTB(0)}, buffer.NewLimited(nil, 0x1000))
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Size).To(BeNumerically("<=", 0x1000))
	})

	It("rejects invalid configurations", func() {
		cfg := hosts[0].cfg
		cfg.State.PageBits = 20

		_, err := hostgen.Translate(&cfg, []ir.Op{exitTB(0)}, buffer.NewDynamic(nil))
		Expect(xerrors.Is(err, hostgen.ErrInvalidConfig)).To(BeTrue())
	})
})
