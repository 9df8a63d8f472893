// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostgen_test

import (
	"gate.computer/hostgen/ir"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Guest memory access", func() {
	for _, h := range hosts {
		h := h

		Describe(h.name, func() {
			var r *rig

			BeforeEach(func() {
				r = newRig(h)
				r.order.PutUint32(r.page[0x004:], 0xcafef00d)
				r.order.PutUint16(r.page[0x008:], 0x8001)
				r.order.PutUint32(r.page[0x00c:], 0x11223344)
			})

			load := func(addr int64, m ir.MemOp) uint64 {
				t := r.wordType()
				b := r.translate(
					movi(t, ir.Reg(regAddr), addr),
					qemuLd(t, m),
					storeResult(t, ir.Reg(regData)),
					exitTB(0),
				)
				Expect(r.run(b)).To(BeZero())
				return r.result()
			}

			store := func(addr, value int64, m ir.MemOp) {
				t := r.wordType()
				b := r.translate(
					movi(t, ir.Reg(regAddr), addr),
					movi(t, ir.Reg(regData), value),
					qemuSt(t, m),
					exitTB(0),
				)
				Expect(r.run(b)).To(BeZero())
			}

			Context("when the TLB entry matches", func() {
				BeforeEach(func() {
					r.setTLB(0x1000, 0x1000, hostBias)
				})

				It("reads the host address through the addend", func() {
					Expect(load(0x1004, ir.Size32)).To(Equal(uint64(0xcafef00d)))
					Expect(r.calls).To(BeEmpty())
				})

				It("extends signed values", func() {
					x := load(0x1008, ir.Size16|ir.Sign|ir.Aligned)
					if r.cfg.Caps.RegBits == 32 {
						Expect(x).To(Equal(uint64(0xffff8001)))
					} else {
						Expect(x).To(Equal(uint64(0xffffffffffff8001)))
					}
					Expect(r.calls).To(BeEmpty())
				})

				It("swaps bytes", func() {
					Expect(load(0x100c, ir.Size32|ir.BSwap|ir.Aligned)).To(Equal(uint64(0x44332211)))
					Expect(r.calls).To(BeEmpty())
				})

				It("writes the host address through the addend", func() {
					store(0x1010, 0xabcd1234, ir.Size16|ir.Aligned)
					Expect(r.order.Uint16(r.page[0x010:])).To(Equal(uint16(0x1234)))
					Expect(r.page[0x012]).To(BeZero())
					Expect(r.calls).To(BeEmpty())
				})

				It("calls the helper for an access crossing the page", func() {
					Expect(load(0x1ffe, ir.Size32)).To(BeZero())
					Expect(r.calls).To(HaveLen(1))
					Expect(r.calls[0].addr).To(Equal(uint64(0x1ffe)))
				})

				It("calls the helper for a misaligned access", func() {
					load(0x1006, ir.Size32|ir.Aligned)
					Expect(r.calls).To(HaveLen(1))
				})
			})

			Context("when the comparator differs", func() {
				BeforeEach(func() {
					r.setTLB(0x1000, 0x2000, hostBias)
				})

				It("calls the load helper with the access descriptor", func() {
					Expect(load(0x1004, ir.Size32|ir.Aligned)).To(Equal(uint64(0xcafef00d)))

					Expect(r.calls).To(HaveLen(1))
					call := r.calls[0]
					Expect(call.load).To(BeTrue())
					Expect(call.addr).To(Equal(uint64(0x1004)))
					Expect(call.oi.MemOp().Describe(true)).To(Equal("load, 4 bytes, zero-extend"))
					Expect(call.oi.MMUIdx()).To(BeZero())
				})

				It("extends the helper result", func() {
					x := load(0x1008, ir.Size16|ir.Sign|ir.Aligned)
					Expect(x & 0xffffffff).To(Equal(uint64(0xffff8001)))
					Expect(r.calls[0].oi.MemOp().Describe(true)).To(Equal("load, 2 bytes, sign-extend"))
				})

				It("calls the store helper with zero-extended data", func() {
					store(0x1010, 0xabcd1234, ir.Size16|ir.Aligned)

					Expect(r.calls).To(HaveLen(1))
					call := r.calls[0]
					Expect(call.load).To(BeFalse())
					Expect(call.data).To(Equal(uint64(0x1234)))
					Expect(call.oi.MemOp().Describe(false)).To(Equal("store, 2 bytes"))
					Expect(r.order.Uint16(r.page[0x010:])).To(Equal(uint16(0x1234)))
				})
			})

			Context("when every access takes the slow path", func() {
				It("produces the same results as the fast path", func() {
					r.setTLB(0x1000, 0x1000, hostBias)

					fast := []uint64{
						load(0x1004, ir.Size32|ir.Aligned),
						load(0x1008, ir.Size16|ir.Sign|ir.Aligned),
						load(0x100c, ir.Size32|ir.BSwap|ir.Aligned),
					}
					Expect(r.calls).To(BeEmpty())

					r.cfg.AlwaysSlowPath = true

					slow := []uint64{
						load(0x1004, ir.Size32|ir.Aligned),
						load(0x1008, ir.Size16|ir.Sign|ir.Aligned),
						load(0x100c, ir.Size32|ir.BSwap|ir.Aligned),
					}
					Expect(slow).To(Equal(fast))
					Expect(r.calls).To(HaveLen(3))
					Expect(r.calls[2].oi.MemOp().Describe(true)).To(Equal("load, 4 bytes, zero-extend, byte-swap"))
				})
			})
		})
	}
})

var _ = Describe("64-bit guest data on a 32-bit host", func() {
	var r *rig

	BeforeEach(func() {
		r = newRig(hosts[2])
		Expect(r.cfg.Caps.RegBits).To(Equal(32))
		r.order.PutUint64(r.page[0x010:], 0x1122334455667788)
		r.setTLB(0x1000, 0x1000, hostBias)
	})

	load := func(addr int64, m ir.MemOp) uint64 {
		ops := []ir.Op{
			movi(ir.I32, ir.Reg(regAddr), addr),
			qemuLdPair(m),
		}
		ops = append(ops, storeResultPair()...)
		b := r.translate(append(ops, exitTB(0))...)
		Expect(r.run(b)).To(BeZero())
		return r.resultPair()
	}

	store := func(addr, value int64, m ir.MemOp) {
		b := r.translate(
			movi(ir.I32, ir.Reg(regAddr), addr),
			movi(ir.I64, ir.RegPair(regData, regHi), value),
			qemuStPair(m),
			exitTB(0),
		)
		Expect(r.run(b)).To(BeZero())
	}

	It("loads both halves on the fast and the slow path", func() {
		fast := []uint64{
			load(0x1010, ir.Size64|ir.Aligned),
			load(0x1010, ir.Size64|ir.BSwap|ir.Aligned),
		}
		Expect(r.calls).To(BeEmpty())
		Expect(fast).To(Equal([]uint64{0x1122334455667788, 0x8877665544332211}))

		r.cfg.AlwaysSlowPath = true

		slow := []uint64{
			load(0x1010, ir.Size64|ir.Aligned),
			load(0x1010, ir.Size64|ir.BSwap|ir.Aligned),
		}
		Expect(slow).To(Equal(fast))
		Expect(r.calls).To(HaveLen(2))
	})

	It("stores both halves on the fast and the slow path", func() {
		store(0x1018, 0x0102030405060708, ir.Size64|ir.Aligned)
		Expect(r.calls).To(BeEmpty())
		Expect(r.order.Uint64(r.page[0x018:])).To(Equal(uint64(0x0102030405060708)))

		r.cfg.AlwaysSlowPath = true

		store(0x1020, 0x0102030405060708, ir.Size64|ir.Aligned)
		Expect(r.calls).To(HaveLen(1))
		Expect(r.calls[0].data).To(Equal(uint64(0x0102030405060708)))
		Expect(r.calls[0].oi.MemOp().Describe(false)).To(Equal("store, 8 bytes"))
		Expect(r.order.Uint64(r.page[0x020:])).To(Equal(uint64(0x0102030405060708)))
	})
})

var _ = Describe("32-bit guest addresses on a 64-bit host", func() {
	var r *rig

	// High bits of the address register are ignored.
	const dirtyAddr = int64(-1)<<32 | 0x1004

	BeforeEach(func() {
		r = newRig(guest32Host)
		r.order.PutUint32(r.page[0x004:], 0xcafef00d)
	})

	load := func() uint64 {
		b := r.translate(
			movi(ir.I64, ir.Reg(regAddr), dirtyAddr),
			qemuLd(ir.I64, ir.Size32|ir.Aligned),
			storeResult(ir.I64, ir.Reg(regData)),
			exitTB(0),
		)
		Expect(r.run(b)).To(BeZero())
		return r.result()
	}

	It("translates the zero-extended address", func() {
		r.setTLB(0x1000, 0x1000, hostBias)
		Expect(load()).To(Equal(uint64(0xcafef00d)))
		Expect(r.calls).To(BeEmpty())
	})

	It("passes the zero-extended address to the helper", func() {
		r.setTLB(0x1000, 0x2000, hostBias)
		Expect(load()).To(Equal(uint64(0xcafef00d)))
		Expect(r.calls).To(HaveLen(1))
		Expect(r.calls[0].addr).To(Equal(uint64(0x1004)))
	})

	It("produces the same result on the slow path", func() {
		r.setTLB(0x1000, 0x1000, hostBias)
		fast := load()

		r.cfg.AlwaysSlowPath = true
		Expect(load()).To(Equal(fast))
		Expect(r.calls).To(HaveLen(1))
		Expect(r.calls[0].addr).To(Equal(uint64(0x1004)))
	})
})

var _ = Describe("Byte-reversed 64-bit access without ISA 2.06", func() {
	for _, h := range baseHosts {
		h := h

		Describe(h.name, func() {
			var r *rig

			BeforeEach(func() {
				r = newRig(h)
				r.order.PutUint64(r.page[0x010:], 0x1122334455667788)
				r.setTLB(0x1000, 0x1000, hostBias)
			})

			load := func() uint64 {
				b := r.translate(
					movi(ir.I64, ir.Reg(regAddr), 0x1010),
					qemuLd(ir.I64, ir.Size64|ir.BSwap|ir.Aligned),
					storeResult(ir.I64, ir.Reg(regData)),
					exitTB(0),
				)
				Expect(r.run(b)).To(BeZero())
				return r.result()
			}

			store := func(addr int64) {
				b := r.translate(
					movi(ir.I64, ir.Reg(regAddr), addr),
					movi(ir.I64, ir.Reg(regData), 0x0102030405060708),
					qemuSt(ir.I64, ir.Size64|ir.BSwap|ir.Aligned),
					exitTB(0),
				)
				Expect(r.run(b)).To(BeZero())
			}

			It("loads on the fast and the slow path", func() {
				Expect(load()).To(Equal(uint64(0x8877665544332211)))
				Expect(r.calls).To(BeEmpty())

				r.cfg.AlwaysSlowPath = true
				Expect(load()).To(Equal(uint64(0x8877665544332211)))
				Expect(r.calls).To(HaveLen(1))
			})

			It("stores on the fast and the slow path", func() {
				store(0x1018)
				Expect(r.calls).To(BeEmpty())
				Expect(r.order.Uint64(r.page[0x018:])).To(Equal(uint64(0x0807060504030201)))

				r.cfg.AlwaysSlowPath = true
				store(0x1020)
				Expect(r.calls).To(HaveLen(1))
				Expect(r.order.Uint64(r.page[0x020:])).To(Equal(uint64(0x0807060504030201)))
			})
		})
	}
})
