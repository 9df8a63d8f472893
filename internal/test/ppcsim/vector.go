// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ppcsim

import (
	"encoding/binary"
)

// Elem reads element i of the given size (in bytes).  Elements are numbered
// from the most significant end.
func (v *Vec) Elem(size, i int) uint64 {
	b := v[i*size : (i+1)*size]
	switch size {
	case 1:
		return uint64(b[0])

	case 2:
		return uint64(binary.BigEndian.Uint16(b))

	case 4:
		return uint64(binary.BigEndian.Uint32(b))

	default:
		return binary.BigEndian.Uint64(b)
	}
}

// SetElem writes element i of the given size (in bytes).
func (v *Vec) SetElem(size, i int, x uint64) {
	b := v[i*size : (i+1)*size]
	switch size {
	case 1:
		b[0] = byte(x)

	case 2:
		binary.BigEndian.PutUint16(b, uint16(x))

	case 4:
		binary.BigEndian.PutUint32(b, uint32(x))

	default:
		binary.BigEndian.PutUint64(b, x)
	}
}

// Dword 0 is the left (most significant) doubleword.
func (v *Vec) Dword(i int) uint64 { return v.Elem(8, i) }

func (v *Vec) SetDword(i int, x uint64) { v.SetElem(8, i, x) }

type elemOp func(a, b uint64, size int) uint64

type vxOp struct {
	size int
	op   elemOp
}

func signExt(x uint64, size int) int64 {
	shift := 64 - uint(size)*8
	return int64(x<<shift) >> shift
}

func truncate(x uint64, size int) uint64 {
	if size == 8 {
		return x
	}
	return x & (1<<(uint(size)*8) - 1)
}

func allOnes(b bool, size int) uint64 {
	if b {
		return truncate(^uint64(0), size)
	}
	return 0
}

func opAdd(a, b uint64, size int) uint64 { return a + b }
func opSub(a, b uint64, size int) uint64 { return a - b }

func opUAddSat(a, b uint64, size int) uint64 {
	max := truncate(^uint64(0), size)
	if s := a + b; s <= max && s >= a {
		return s
	}
	return max
}

func opUSubSat(a, b uint64, size int) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

func saturate(x int64, size int) uint64 {
	max := int64(1)<<(uint(size)*8-1) - 1
	min := -max - 1
	if x > max {
		x = max
	} else if x < min {
		x = min
	}
	return uint64(x)
}

func opSAddSat(a, b uint64, size int) uint64 {
	return saturate(signExt(a, size)+signExt(b, size), size)
}

func opSSubSat(a, b uint64, size int) uint64 {
	return saturate(signExt(a, size)-signExt(b, size), size)
}

func opUMax(a, b uint64, size int) uint64 {
	if a > b {
		return a
	}
	return b
}

func opUMin(a, b uint64, size int) uint64 {
	if a < b {
		return a
	}
	return b
}

func opSMax(a, b uint64, size int) uint64 {
	if signExt(a, size) > signExt(b, size) {
		return a
	}
	return b
}

func opSMin(a, b uint64, size int) uint64 {
	if signExt(a, size) < signExt(b, size) {
		return a
	}
	return b
}

func opEq(a, b uint64, size int) uint64  { return allOnes(a == b, size) }
func opNe(a, b uint64, size int) uint64  { return allOnes(a != b, size) }
func opGtu(a, b uint64, size int) uint64 { return allOnes(a > b, size) }

func opGts(a, b uint64, size int) uint64 {
	return allOnes(signExt(a, size) > signExt(b, size), size)
}

func shiftCount(b uint64, size int) uint {
	return uint(b) & (uint(size)*8 - 1)
}

func opShl(a, b uint64, size int) uint64 { return a << shiftCount(b, size) }
func opShr(a, b uint64, size int) uint64 { return a >> shiftCount(b, size) }

func opSar(a, b uint64, size int) uint64 {
	return uint64(signExt(a, size) >> shiftCount(b, size))
}

func opRotl(a, b uint64, size int) uint64 {
	n := shiftCount(b, size)
	w := uint(size) * 8
	if n == 0 {
		return a
	}
	return a<<n | a>>(w-n)
}

func opMulLo(a, b uint64, size int) uint64 { return a * b }

var vxOps = map[uint32]vxOp{
	0: {1, opAdd}, 64: {2, opAdd}, 128: {4, opAdd}, 192: {8, opAdd},
	512: {1, opUAddSat}, 576: {2, opUAddSat}, 640: {4, opUAddSat},
	768: {1, opSAddSat}, 832: {2, opSAddSat}, 896: {4, opSAddSat},
	1024: {1, opSub}, 1088: {2, opSub}, 1152: {4, opSub}, 1216: {8, opSub},
	1536: {1, opUSubSat}, 1600: {2, opUSubSat}, 1664: {4, opUSubSat},
	1792: {1, opSSubSat}, 1856: {2, opSSubSat}, 1920: {4, opSSubSat},
	2: {1, opUMax}, 66: {2, opUMax}, 130: {4, opUMax}, 194: {8, opUMax},
	258: {1, opSMax}, 322: {2, opSMax}, 386: {4, opSMax}, 450: {8, opSMax},
	514: {1, opUMin}, 578: {2, opUMin}, 642: {4, opUMin}, 706: {8, opUMin},
	770: {1, opSMin}, 834: {2, opSMin}, 898: {4, opSMin}, 962: {8, opSMin},
	6: {1, opEq}, 70: {2, opEq}, 134: {4, opEq}, 199: {8, opEq},
	7: {1, opNe}, 71: {2, opNe}, 135: {4, opNe},
	518: {1, opGtu}, 582: {2, opGtu}, 646: {4, opGtu}, 711: {8, opGtu},
	774: {1, opGts}, 838: {2, opGts}, 902: {4, opGts}, 967: {8, opGts},
	4: {1, opRotl}, 68: {2, opRotl}, 132: {4, opRotl}, 196: {8, opRotl},
	260: {1, opShl}, 324: {2, opShl}, 388: {4, opShl}, 1476: {8, opShl},
	516: {1, opShr}, 580: {2, opShr}, 644: {4, opShr}, 1732: {8, opShr},
	772: {1, opSar}, 836: {2, opSar}, 900: {4, opSar}, 964: {8, opSar},
	137: {4, opMulLo},
}

func (m *Machine) execVector(insn uint32) error {
	vt, va, vb, vc := fieldRT(insn), fieldRA(insn), fieldRB(insn), insn>>6&31
	a, b := m.VR[va], m.VR[vb]
	var r Vec

	// VA-form
	switch insn & 63 {
	case 42: // vsel
		mask := m.VR[vc]
		for i := range r {
			r[i] = a[i]&^mask[i] | b[i]&mask[i]
		}
		m.VR[vt] = r
		return nil

	case 44: // vsldoi
		shb := int(insn >> 6 & 15)
		var cat [32]byte
		copy(cat[:16], a[:])
		copy(cat[16:], b[:])
		copy(r[:], cat[shb:shb+16])
		m.VR[vt] = r
		return nil

	case 38: // vmsumuhm
		c := m.VR[vc]
		for i := 0; i < 4; i++ {
			sum := c.Elem(4, i)
			for j := 0; j < 2; j++ {
				sum += a.Elem(2, i*2+j) * b.Elem(2, i*2+j)
			}
			r.SetElem(4, i, sum)
		}
		m.VR[vt] = r
		return nil
	}

	xo := insn & 0x7ff

	if op, found := vxOps[xo]; found {
		n := 16 / op.size
		for i := 0; i < n; i++ {
			r.SetElem(op.size, i, truncate(op.op(a.Elem(op.size, i), b.Elem(op.size, i), op.size), op.size))
		}
		m.VR[vt] = r
		return nil
	}

	switch xo {
	case 1028: // vand
		for i := range r {
			r[i] = a[i] & b[i]
		}

	case 1092: // vandc
		for i := range r {
			r[i] = a[i] &^ b[i]
		}

	case 1156: // vor
		for i := range r {
			r[i] = a[i] | b[i]
		}

	case 1220: // vxor
		for i := range r {
			r[i] = a[i] ^ b[i]
		}

	case 1284: // vnor
		for i := range r {
			r[i] = ^(a[i] | b[i])
		}

	case 1348: // vorc
		for i := range r {
			r[i] = a[i] | ^b[i]
		}

	case 1412: // vnand
		for i := range r {
			r[i] = ^(a[i] & b[i])
		}

	case 1668: // veqv
		for i := range r {
			r[i] = ^(a[i] ^ b[i])
		}

	case 8, 72, 136: // vmuloub, vmulouh, vmulouw
		size := 1 << ((xo - 8) / 64)
		for i := 0; i < 8/size; i++ {
			r.SetElem(size*2, i, a.Elem(size, i*2+1)*b.Elem(size, i*2+1))
		}

	case 520, 584, 648: // vmuleub, vmuleuh, vmuleuw
		size := 1 << ((xo - 520) / 64)
		for i := 0; i < 8/size; i++ {
			r.SetElem(size*2, i, a.Elem(size, i*2)*b.Elem(size, i*2))
		}

	case 12, 76, 140: // vmrghb, vmrghh, vmrghw
		size := 1 << ((xo - 12) / 64)
		n := 16 / size
		for i := 0; i < n/2; i++ {
			r.SetElem(size, i*2, a.Elem(size, i))
			r.SetElem(size, i*2+1, b.Elem(size, i))
		}

	case 268, 332, 396: // vmrglb, vmrglh, vmrglw
		size := 1 << ((xo - 268) / 64)
		n := 16 / size
		for i := 0; i < n/2; i++ {
			r.SetElem(size, i*2, a.Elem(size, n/2+i))
			r.SetElem(size, i*2+1, b.Elem(size, n/2+i))
		}

	case 14, 78: // vpkuhum, vpkuwum
		size := 1 << ((xo - 14) / 64)
		n := 8 / size
		for i := 0; i < n; i++ {
			r.SetElem(size, i, a.Elem(size*2, i))
			r.SetElem(size, n+i, b.Elem(size*2, i))
		}

	case 524, 588, 652: // vspltb, vsplth, vspltw
		size := 1 << ((xo - 524) / 64)
		x := b.Elem(size, int(va)&(16/size-1))
		for i := 0; i < 16/size; i++ {
			r.SetElem(size, i, x)
		}

	case 780, 844, 908: // vspltisb, vspltish, vspltisw
		size := 1 << ((xo - 780) / 64)
		x := uint64(int64(int32(va<<27) >> 27))
		for i := 0; i < 16/size; i++ {
			r.SetElem(size, i, x)
		}

	case 1538: // vnegw, vnegd
		size := 4
		switch va {
		case 6:
		case 7:
			size = 8
		default:
			return m.illegal(insn)
		}
		for i := 0; i < 16/size; i++ {
			r.SetElem(size, i, -b.Elem(size, i))
		}

	default:
		return m.illegal(insn)
	}

	m.VR[vt] = r
	return nil
}

// execVectorMem implements the AltiVec loads and stores.  Element loads fill
// the whole register, which is a valid choice for the undefined elements.
func (m *Machine) execVectorMem(insn, xo uint32, ea uint64) error {
	vt := fieldRT(insn)

	switch xo {
	case 7, 39, 71, 103: // lvebx, lvehx, lvewx, lvx
		b, err := m.Mem.Bytes(ea&^15, 16)
		if err != nil {
			return err
		}
		m.VR[vt] = m.fromMemory(b)

	case 199: // stvewx
		ea &^= 3
		b, err := m.Mem.Bytes(ea, 4)
		if err != nil {
			return err
		}
		img := m.toMemory(m.VR[vt])
		copy(b, img[ea&15:ea&15+4])

	case 231: // stvx
		b, err := m.Mem.Bytes(ea&^15, 16)
		if err != nil {
			return err
		}
		img := m.toMemory(m.VR[vt])
		copy(b, img[:])

	default:
		return m.illegal(insn)
	}
	return nil
}

// fromMemory converts a quadword in memory to register contents.
func (m *Machine) fromMemory(b []byte) (v Vec) {
	if m.caps.BigEndian {
		copy(v[:], b)
	} else {
		for i := range v {
			v[i] = b[15-i]
		}
	}
	return
}

func (m *Machine) toMemory(v Vec) (b [16]byte) {
	if m.caps.BigEndian {
		copy(b[:], v[:])
	} else {
		for i := range b {
			b[i] = v[15-i]
		}
	}
	return
}

// execVSXMove implements the VSX loads and stores (with the target in the
// upper half of the register file) and the moves between register files.
func (m *Machine) execVSXMove(insn uint32) error {
	vt, ra, rb := fieldRT(insn), fieldRA(insn), fieldRB(insn)
	ea := m.addr(m.base(insn) + m.GPR[rb])
	v := &m.VR[vt]

	switch insn >> 1 & 0x3ff {
	case 12: // lxsiwzx
		x, err := m.Mem.Load(ea, 4, false)
		if err != nil {
			return err
		}
		*v = Vec{}
		v.SetDword(0, x)

	case 588: // lxsdx
		x, err := m.Mem.Load(ea, 8, false)
		if err != nil {
			return err
		}
		*v = Vec{}
		v.SetDword(0, x)

	case 332: // lxvdsx
		x, err := m.Mem.Load(ea, 8, false)
		if err != nil {
			return err
		}
		v.SetDword(0, x)
		v.SetDword(1, x)

	case 140: // stxsiwx
		return m.Mem.Store(ea, 4, v.Elem(4, 1), false)

	case 716: // stxsdx
		return m.Mem.Store(ea, 8, v.Dword(0), false)

	case 51: // mfvsrd
		m.setGPR(int(ra), v.Dword(0))

	case 115: // mfvsrwz
		m.setGPR(int(ra), v.Elem(4, 1))

	case 179: // mtvsrd
		*v = Vec{}
		v.SetDword(0, m.GPR[ra])

	case 243: // mtvsrwz
		*v = Vec{}
		v.SetDword(0, uint64(uint32(m.GPR[ra])))

	case 403: // mtvsrws
		for i := 0; i < 4; i++ {
			v.SetElem(4, i, m.GPR[ra])
		}

	case 435: // mtvsrdd
		v.SetDword(0, m.base(insn))
		v.SetDword(1, m.GPR[rb])

	default:
		return m.illegal(insn)
	}
	return nil
}

// execVSX implements the used XX3/XX4 forms on the vector half of the
// register file.
func (m *Machine) execVSX(insn uint32) error {
	vt, va, vb := fieldRT(insn), fieldRA(insn), fieldRB(insn)
	a, b := m.VR[va], m.VR[vb]
	var r Vec

	switch {
	case insn>>3&0xff&^0x60 == 10: // xxpermdi
		dm := insn >> 8 & 3
		r.SetDword(0, a.Dword(int(dm>>1)))
		r.SetDword(1, b.Dword(int(dm&1)))

	case insn>>4&3 == 3: // xxsel
		mask := m.VR[insn>>6&31]
		for i := range r {
			r[i] = a[i]&^mask[i] | b[i]&mask[i]
		}

	case insn>>1&0x3ff == 360: // xxspltib
		x := byte(insn >> 11)
		for i := range r {
			r[i] = x
		}

	default:
		return m.illegal(insn)
	}

	m.VR[vt] = r
	return nil
}

