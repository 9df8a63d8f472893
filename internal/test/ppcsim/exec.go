// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppcsim

import (
	"math/bits"
)

const (
	sprLR  = 8
	sprCTR = 9
)

func fieldRT(insn uint32) uint32 { return insn >> 21 & 31 }
func fieldRA(insn uint32) uint32 { return insn >> 16 & 31 }
func fieldRB(insn uint32) uint32 { return insn >> 11 & 31 }
func fieldSI(insn uint32) int64  { return int64(int16(insn)) }
func fieldUI(insn uint32) uint64 { return uint64(insn & 0xffff) }
func fieldDS(insn uint32) int64  { return int64(int16(insn &^ 3)) }

// base is RA, or zero if RA is r0.
func (m *Machine) base(insn uint32) uint64 {
	if ra := fieldRA(insn); ra != 0 {
		return m.GPR[ra]
	}
	return 0
}

func (m *Machine) addr(x uint64) uint64 {
	return m.mask(x)
}

// add3 returns a+b+c and the carry out of the register width.
func (m *Machine) add3(a, b, c uint64) (uint64, bool) {
	if m.wide {
		s, c1 := bits.Add64(a, b, 0)
		s, c2 := bits.Add64(s, c, 0)
		return s, c1+c2 != 0
	}
	s := uint64(uint32(a)) + uint64(uint32(b)) + uint64(uint32(c))
	return uint64(uint32(s)), s>>32 != 0
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) exec(insn uint32) (next uint64, err error) {
	next = m.PC + 4
	rt, ra, rb := fieldRT(insn), fieldRA(insn), fieldRB(insn)

	switch insn >> 26 {
	case 4:
		err = m.execVector(insn)

	case 7: // mulli
		m.setGPR(int(rt), m.GPR[ra]*uint64(fieldSI(insn)))

	case 8: // subfic
		x, ca := m.add3(^m.GPR[ra], uint64(fieldSI(insn)), 1)
		m.setGPR(int(rt), x)
		m.CA = ca

	case 10: // cmpli
		m.compare(insn, m.GPR[ra], fieldUI(insn), false)

	case 11: // cmpi
		m.compare(insn, m.GPR[ra], uint64(fieldSI(insn)), true)

	case 12: // addic
		x, ca := m.add3(m.GPR[ra], uint64(fieldSI(insn)), 0)
		m.setGPR(int(rt), x)
		m.CA = ca

	case 14: // addi
		m.setGPR(int(rt), m.base(insn)+uint64(fieldSI(insn)))

	case 15: // addis
		m.setGPR(int(rt), m.base(insn)+uint64(fieldSI(insn)<<16))

	case 16: // bc
		if m.branchTaken(insn) {
			next = m.PC + uint64(int64(int16(insn&0xfffc)))
		}
		if insn&1 != 0 {
			m.LR = m.PC + 4
		}

	case 18: // b
		li := int64(int32(insn<<6) >> 6 &^ 3)
		next = m.PC + uint64(li)
		if insn&1 != 0 {
			m.LR = m.PC + 4
		}

	case 19:
		next, err = m.exec19(insn, next)

	case 20: // rlwimi
		mask := mask64(insn>>6&31+32, insn>>1&31+32)
		r := rotl32(m.GPR[rt], insn>>11&31)
		m.setGPR(int(ra), r&mask|m.GPR[ra]&^mask)

	case 21: // rlwinm
		mask := mask64(insn>>6&31+32, insn>>1&31+32)
		m.setGPR(int(ra), rotl32(m.GPR[rt], insn>>11&31)&mask)

	case 23: // rlwnm
		mask := mask64(insn>>6&31+32, insn>>1&31+32)
		m.setGPR(int(ra), rotl32(m.GPR[rt], uint32(m.GPR[rb]&31))&mask)

	case 24: // ori
		m.setGPR(int(ra), m.GPR[rt]|fieldUI(insn))

	case 25: // oris
		m.setGPR(int(ra), m.GPR[rt]|fieldUI(insn)<<16)

	case 26: // xori
		m.setGPR(int(ra), m.GPR[rt]^fieldUI(insn))

	case 27: // xoris
		m.setGPR(int(ra), m.GPR[rt]^fieldUI(insn)<<16)

	case 28: // andi.
		m.setGPR(int(ra), m.GPR[rt]&fieldUI(insn))
		m.recordCR0(m.GPR[ra])

	case 29: // andis.
		m.setGPR(int(ra), m.GPR[rt]&(fieldUI(insn)<<16))
		m.recordCR0(m.GPR[ra])

	case 30:
		err = m.exec30(insn)

	case 31:
		err = m.exec31(insn)

	case 32: // lwz
		err = m.loadGPR(rt, m.base(insn)+uint64(fieldSI(insn)), 4, false, false)

	case 33: // lwzu
		ea := m.GPR[ra] + uint64(fieldSI(insn))
		err = m.loadGPR(rt, ea, 4, false, false)
		m.setGPR(int(ra), ea)

	case 34: // lbz
		err = m.loadGPR(rt, m.base(insn)+uint64(fieldSI(insn)), 1, false, false)

	case 36: // stw
		err = m.Mem.Store(m.addr(m.base(insn)+uint64(fieldSI(insn))), 4, m.GPR[rt], false)

	case 37: // stwu
		ea := m.GPR[ra] + uint64(fieldSI(insn))
		err = m.Mem.Store(m.addr(ea), 4, m.GPR[rt], false)
		m.setGPR(int(ra), ea)

	case 38: // stb
		err = m.Mem.Store(m.addr(m.base(insn)+uint64(fieldSI(insn))), 1, m.GPR[rt], false)

	case 40: // lhz
		err = m.loadGPR(rt, m.base(insn)+uint64(fieldSI(insn)), 2, false, false)

	case 42: // lha
		err = m.loadGPR(rt, m.base(insn)+uint64(fieldSI(insn)), 2, true, false)

	case 44: // sth
		err = m.Mem.Store(m.addr(m.base(insn)+uint64(fieldSI(insn))), 2, m.GPR[rt], false)

	case 58:
		ea := m.base(insn) + uint64(fieldDS(insn))
		switch insn & 3 {
		case 0: // ld
			err = m.loadGPR(rt, ea, 8, false, false)

		case 1: // ldu
			ea = m.GPR[ra] + uint64(fieldDS(insn))
			err = m.loadGPR(rt, ea, 8, false, false)
			m.setGPR(int(ra), ea)

		case 2: // lwa
			err = m.loadGPR(rt, ea, 4, true, false)

		default:
			err = m.illegal(insn)
		}

	case 60:
		err = m.execVSX(insn)

	case 62:
		switch insn & 3 {
		case 0: // std
			err = m.Mem.Store(m.addr(m.base(insn)+uint64(fieldDS(insn))), 8, m.GPR[rt], false)

		case 1: // stdu
			ea := m.GPR[ra] + uint64(fieldDS(insn))
			err = m.Mem.Store(m.addr(ea), 8, m.GPR[rt], false)
			m.setGPR(int(ra), ea)

		default:
			err = m.illegal(insn)
		}

	default:
		err = m.illegal(insn)
	}
	return
}

func (m *Machine) loadGPR(rt uint32, ea uint64, size int, signed, reverse bool) error {
	x, err := m.Mem.Load(m.addr(ea), size, reverse)
	if err != nil {
		return err
	}
	if signed {
		shift := 64 - uint(size)*8
		x = uint64(int64(x<<shift) >> shift)
	}
	m.setGPR(int(rt), x)
	return nil
}

func (m *Machine) compare(insn uint32, a, b uint64, signed bool) {
	wide := insn>>21&1 != 0
	if !wide {
		if signed {
			a = uint64(int64(int32(a)))
			b = uint64(int64(int32(b)))
		} else {
			a = uint64(uint32(a))
			b = uint64(uint32(b))
		}
	}

	var lt, gt bool
	if signed {
		lt, gt = int64(a) < int64(b), int64(a) > int64(b)
	} else {
		lt, gt = a < b, a > b
	}
	m.setCRField(insn>>23&7, lt, gt, a == b)
}

func (m *Machine) recordCR0(x uint64) {
	v := int64(x)
	if !m.wide {
		v = int64(int32(x))
	}
	m.setCRField(0, v < 0, v > 0, v == 0)
}

func (m *Machine) branchTaken(insn uint32) bool {
	bo := insn >> 21 & 31
	bi := insn >> 16 & 31

	ctrOK := true
	if bo&4 == 0 {
		m.CTR = m.mask(m.CTR - 1)
		ctrOK = (m.CTR != 0) != (bo&2 != 0)
	}
	condOK := bo&16 != 0 || m.crBit(bi) == (bo&8 != 0)
	return ctrOK && condOK
}

func (m *Machine) exec19(insn uint32, next uint64) (uint64, error) {
	bt, ba, bb := insn>>21&31, insn>>16&31, insn>>11&31

	switch insn >> 1 & 0x3ff {
	case 16: // bclr
		target := m.LR &^ 3
		if m.branchTaken(insn) {
			next = target
		}
		if insn&1 != 0 {
			m.LR = m.PC + 4
		}

	case 528: // bcctr
		if m.branchTaken(insn) {
			next = m.CTR &^ 3
		}
		if insn&1 != 0 {
			m.LR = m.PC + 4
		}

	case 33: // crnor
		m.setCRBit(bt, !(m.crBit(ba) || m.crBit(bb)))

	case 129: // crandc
		m.setCRBit(bt, m.crBit(ba) && !m.crBit(bb))

	case 225: // crnand
		m.setCRBit(bt, !(m.crBit(ba) && m.crBit(bb)))

	case 257: // crand
		m.setCRBit(bt, m.crBit(ba) && m.crBit(bb))

	case 449: // cror
		m.setCRBit(bt, m.crBit(ba) || m.crBit(bb))

	case 150: // isync

	default:
		return next, m.illegal(insn)
	}
	return next, nil
}

// mask64 in IBM bit numbering; wraps around if mb > me.
func mask64(mb, me uint32) uint64 {
	x := ^uint64(0) >> mb
	y := ^uint64(0) << (63 - me)
	if mb <= me {
		return x & y
	}
	return x | y
}

func rotl32(x uint64, n uint32) uint64 {
	r := uint64(bits.RotateLeft32(uint32(x), int(n)))
	return r | r<<32
}

func (m *Machine) exec30(insn uint32) error {
	rs, ra := fieldRT(insn), fieldRA(insn)
	sh := insn>>11&31 | (insn>>1&1)<<5
	enc := insn >> 5 & 63
	mb := enc>>1 | (enc&1)<<5
	x := m.GPR[rs]

	if insn>>1&15 == 8 { // rldcl
		n := int(m.GPR[fieldRB(insn)] & 63)
		m.setGPR(int(ra), bits.RotateLeft64(x, n)&mask64(mb, 63))
		return nil
	}

	r := bits.RotateLeft64(x, int(sh))

	switch insn >> 2 & 7 {
	case 0: // rldicl
		m.setGPR(int(ra), r&mask64(mb, 63))

	case 1: // rldicr
		m.setGPR(int(ra), r&mask64(0, mb))

	case 2: // rldic
		m.setGPR(int(ra), r&mask64(mb, 63-sh))

	case 3: // rldimi
		mask := mask64(mb, 63-sh)
		m.setGPR(int(ra), r&mask|m.GPR[ra]&^mask)

	default:
		return m.illegal(insn)
	}
	return nil
}

func (m *Machine) exec31(insn uint32) (err error) {
	rt, ra, rb := fieldRT(insn), fieldRA(insn), fieldRB(insn)
	rs := rt
	a, b := m.GPR[ra], m.GPR[rb]
	s := m.GPR[rs]
	ea := m.base(insn) + b

	if insn>>1&31 == 15 { // isel
		if m.crBit(insn >> 6 & 31) {
			m.setGPR(int(rt), m.base(insn))
		} else {
			m.setGPR(int(rt), b)
		}
		return
	}

	if insn&1 != 0 {
		return m.execVSXMove(insn)
	}

	switch xo := insn >> 1 & 0x3ff; xo {
	case 0: // cmp
		m.compare(insn, a, b, true)

	case 32: // cmpl
		m.compare(insn, a, b, false)

	case 4: // tw
		err = ErrTrap

	case 8: // subfc
		var x uint64
		x, m.CA = m.add3(^a, b, 1)
		m.setGPR(int(rt), x)

	case 10: // addc
		var x uint64
		x, m.CA = m.add3(a, b, 0)
		m.setGPR(int(rt), x)

	case 136: // subfe
		var x uint64
		x, m.CA = m.add3(^a, b, boolBit(m.CA))
		m.setGPR(int(rt), x)

	case 138: // adde
		var x uint64
		x, m.CA = m.add3(a, b, boolBit(m.CA))
		m.setGPR(int(rt), x)

	case 200: // subfze
		var x uint64
		x, m.CA = m.add3(^a, 0, boolBit(m.CA))
		m.setGPR(int(rt), x)

	case 202: // addze
		var x uint64
		x, m.CA = m.add3(a, 0, boolBit(m.CA))
		m.setGPR(int(rt), x)

	case 232: // subfme
		var x uint64
		x, m.CA = m.add3(^a, ^uint64(0), boolBit(m.CA))
		m.setGPR(int(rt), x)

	case 234: // addme
		var x uint64
		x, m.CA = m.add3(a, ^uint64(0), boolBit(m.CA))
		m.setGPR(int(rt), x)

	case 40: // subf
		m.setGPR(int(rt), b-a)

	case 266: // add
		m.setGPR(int(rt), a+b)

	case 104: // neg
		m.setGPR(int(rt), -a)

	case 9: // mulhdu
		hi, _ := bits.Mul64(a, b)
		m.setGPR(int(rt), hi)

	case 73: // mulhd
		m.setGPR(int(rt), mulhs64(a, b))

	case 11: // mulhwu
		m.setGPR(int(rt), uint64(uint32(a))*uint64(uint32(b))>>32)

	case 75: // mulhw
		m.setGPR(int(rt), uint64(int64(int32(a))*int64(int32(b))>>32))

	case 233: // mulld
		m.setGPR(int(rt), a*b)

	case 235: // mullw
		m.setGPR(int(rt), uint64(int64(int32(a))*int64(int32(b))))

	case 457: // divdu
		m.setGPR(int(rt), divu(a, b))

	case 489: // divd
		m.setGPR(int(rt), uint64(divs(int64(a), int64(b))))

	case 459: // divwu
		m.setGPR(int(rt), divu(uint64(uint32(a)), uint64(uint32(b))))

	case 491: // divw
		m.setGPR(int(rt), uint64(uint32(divs(int64(int32(a)), int64(int32(b))))))

	case 265: // modud
		m.setGPR(int(rt), modu(a, b))

	case 777: // modsd
		m.setGPR(int(rt), uint64(mods(int64(a), int64(b))))

	case 267: // moduw
		m.setGPR(int(rt), modu(uint64(uint32(a)), uint64(uint32(b))))

	case 779: // modsw
		m.setGPR(int(rt), uint64(int64(int32(mods(int64(int32(a)), int64(int32(b)))))))

	case 28: // and
		m.setGPR(int(ra), s&b)

	case 60: // andc
		m.setGPR(int(ra), s&^b)

	case 124: // nor
		m.setGPR(int(ra), ^(s | b))

	case 284: // eqv
		m.setGPR(int(ra), ^(s ^ b))

	case 316: // xor
		m.setGPR(int(ra), s^b)

	case 412: // orc
		m.setGPR(int(ra), s|^b)

	case 444: // or
		m.setGPR(int(ra), s|b)

	case 476: // nand
		m.setGPR(int(ra), ^(s & b))

	case 24: // slw
		n := b & 63
		if n > 31 {
			m.setGPR(int(ra), 0)
		} else {
			m.setGPR(int(ra), uint64(uint32(s)<<n))
		}

	case 536: // srw
		n := b & 63
		if n > 31 {
			m.setGPR(int(ra), 0)
		} else {
			m.setGPR(int(ra), uint64(uint32(s)>>n))
		}

	case 792: // sraw
		n := b & 63
		if n > 31 {
			n = 31
		}
		m.setGPR(int(ra), uint64(int64(int32(s)>>n)))

	case 824: // srawi
		m.setGPR(int(ra), uint64(int64(int32(s)>>rb)))

	case 27: // sld
		n := b & 127
		if n > 63 {
			m.setGPR(int(ra), 0)
		} else {
			m.setGPR(int(ra), s<<n)
		}

	case 539: // srd
		n := b & 127
		if n > 63 {
			m.setGPR(int(ra), 0)
		} else {
			m.setGPR(int(ra), s>>n)
		}

	case 794: // srad
		n := b & 127
		if n > 63 {
			n = 63
		}
		m.setGPR(int(ra), uint64(int64(s)>>n))

	case 826, 827: // sradi
		n := rb | (insn>>1&1)<<5
		m.setGPR(int(ra), uint64(int64(s)>>n))

	case 26: // cntlzw
		m.setGPR(int(ra), uint64(bits.LeadingZeros32(uint32(s))))

	case 58: // cntlzd
		m.setGPR(int(ra), uint64(bits.LeadingZeros64(s)))

	case 538: // cnttzw
		m.setGPR(int(ra), uint64(bits.TrailingZeros32(uint32(s))))

	case 570: // cnttzd
		m.setGPR(int(ra), uint64(bits.TrailingZeros64(s)))

	case 378: // popcntw
		lo := uint64(bits.OnesCount32(uint32(s)))
		hi := uint64(bits.OnesCount32(uint32(s >> 32)))
		m.setGPR(int(ra), hi<<32|lo)

	case 506: // popcntd
		m.setGPR(int(ra), uint64(bits.OnesCount64(s)))

	case 954: // extsb
		m.setGPR(int(ra), uint64(int64(int8(s))))

	case 922: // extsh
		m.setGPR(int(ra), uint64(int64(int16(s))))

	case 986: // extsw
		m.setGPR(int(ra), uint64(int64(int32(s))))

	case 19: // mfcr, mfocrf
		m.setGPR(int(rt), uint64(m.CR))

	case 339: // mfspr
		switch spr(insn) {
		case sprLR:
			m.setGPR(int(rt), m.LR)
		case sprCTR:
			m.setGPR(int(rt), m.CTR)
		default:
			err = m.illegal(insn)
		}

	case 467: // mtspr
		switch spr(insn) {
		case sprLR:
			m.LR = s
		case sprCTR:
			m.CTR = s
		default:
			err = m.illegal(insn)
		}

	case 598, 854: // sync, eieio

	case 87: // lbzx
		err = m.loadGPR(rt, ea, 1, false, false)

	case 279: // lhzx
		err = m.loadGPR(rt, ea, 2, false, false)

	case 343: // lhax
		err = m.loadGPR(rt, ea, 2, true, false)

	case 23: // lwzx
		err = m.loadGPR(rt, ea, 4, false, false)

	case 341: // lwax
		err = m.loadGPR(rt, ea, 4, true, false)

	case 21: // ldx
		err = m.loadGPR(rt, ea, 8, false, false)

	case 55: // lwzux
		ea = a + b
		err = m.loadGPR(rt, ea, 4, false, false)
		m.setGPR(int(ra), ea)

	case 53: // ldux
		ea = a + b
		err = m.loadGPR(rt, ea, 8, false, false)
		m.setGPR(int(ra), ea)

	case 790: // lhbrx
		err = m.loadGPR(rt, ea, 2, false, true)

	case 534: // lwbrx
		err = m.loadGPR(rt, ea, 4, false, true)

	case 532: // ldbrx
		err = m.loadGPR(rt, ea, 8, false, true)

	case 215: // stbx
		err = m.Mem.Store(m.addr(ea), 1, s, false)

	case 407: // sthx
		err = m.Mem.Store(m.addr(ea), 2, s, false)

	case 151: // stwx
		err = m.Mem.Store(m.addr(ea), 4, s, false)

	case 149: // stdx
		err = m.Mem.Store(m.addr(ea), 8, s, false)

	case 918: // sthbrx
		err = m.Mem.Store(m.addr(ea), 2, s, true)

	case 662: // stwbrx
		err = m.Mem.Store(m.addr(ea), 4, s, true)

	case 660: // stdbrx
		err = m.Mem.Store(m.addr(ea), 8, s, true)

	case 7, 39, 71, 103, 199, 231:
		err = m.execVectorMem(insn, xo, m.addr(ea))

	default:
		err = m.illegal(insn)
	}
	return
}

func spr(insn uint32) uint32 {
	return insn>>16&31 | (insn>>11&31)<<5
}

func mulhs64(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	return hi
}

// Division by zero and overflow are undefined; they yield zero.

func divu(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func divs(a, b int64) int64 {
	if b == 0 || (b == -1 && a<<1 == 0 && a != 0) {
		return 0
	}
	return a / b
}

func modu(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return a % b
}

func mods(a, b int64) int64 {
	if b == 0 || b == -1 {
		return 0
	}
	return a % b
}
