// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
)

type Opcode uint8

const (
	Nop = Opcode(iota)

	// Control
	SetLabel // label
	Br       // label
	Brcond   // a, b, cond, label
	ExitTB   // value
	GotoTB   // slot
	GotoPtr  // target
	Mb       // barrier
	Call     // results..., target, args...
	Discard  // reg

	// Moves and host memory
	Mov   // dst, src
	Movi  // dst, value
	Ld8u  // dst, base, offset
	Ld8s  //
	Ld16u //
	Ld16s //
	Ld32u //
	Ld32s //
	Ld    //
	St8   // src, base, offset
	St16  //
	St32  //
	St    //

	// Integer arithmetic and logic
	Add // dst, a, b
	Sub
	Mul
	Muluh
	Mulsh
	Div
	Divu
	Rem
	Remu
	And
	Or
	Xor
	Andc
	Orc
	Eqv
	Nand
	Nor
	Shl
	Shr
	Sar
	Rotl
	Rotr
	Clz     // dst, a, value if a is zero
	Ctz     //
	Ctpop   // dst, a
	Neg     //
	Not     //
	Ext8s   //
	Ext16s  //
	Ext32s  //
	Ext8u   //
	Ext16u  //
	Ext32u  //
	Bswap16 //
	Bswap32 //
	Bswap64 //
	Deposit // dst, a, b, pos, len
	Extract // dst, a, pos, len
	Setcond // dst, a, b, cond
	Movcond // dst, c1, c2, v1, v2, cond
	Add2    // dstlo, dsthi, alo, ahi, blo, bhi
	Sub2    //

	// Guest memory
	QemuLd // data, addr, memopidx
	QemuSt // data, addr, memopidx

	// Vector
	Dupi      // dst, value
	Dup       // dst, src
	Dupm      // dst, base, offset
	LdVec     // dst, base, offset
	StVec     // src, base, offset
	AddVec    // dst, a, b
	SubVec    //
	MulVec    //
	NegVec    // dst, a
	NotVec    //
	AndVec    // dst, a, b
	OrVec     //
	XorVec    //
	AndcVec   //
	OrcVec    //
	CmpVec    // dst, a, b, cond
	SMinVec   // dst, a, b
	SMaxVec   //
	UMinVec   //
	UMaxVec   //
	SSAddVec  //
	USAddVec  //
	SSSubVec  //
	USSubVec  //
	ShlvVec   //
	ShrvVec   //
	SarvVec   //
	ShliVec   // dst, a, count
	ShriVec   //
	SariVec   //
	BitselVec // dst, mask, a, b

	// Host-specific vector operations used by expansions
	MrghVec  // dst, a, b
	MrglVec  //
	MuleuVec //
	MulouVec //
	PkumVec  //
	RotlVec  //
	MsumVec  // dst, a, b, c

	NumOpcodes
)

var opcodeNames = [NumOpcodes]string{
	Nop:       "nop",
	SetLabel:  "set_label",
	Br:        "br",
	Brcond:    "brcond",
	ExitTB:    "exit_tb",
	GotoTB:    "goto_tb",
	GotoPtr:   "goto_ptr",
	Mb:        "mb",
	Call:      "call",
	Discard:   "discard",
	Mov:       "mov",
	Movi:      "movi",
	Ld8u:      "ld8u",
	Ld8s:      "ld8s",
	Ld16u:     "ld16u",
	Ld16s:     "ld16s",
	Ld32u:     "ld32u",
	Ld32s:     "ld32s",
	Ld:        "ld",
	St8:       "st8",
	St16:      "st16",
	St32:      "st32",
	St:        "st",
	Add:       "add",
	Sub:       "sub",
	Mul:       "mul",
	Muluh:     "muluh",
	Mulsh:     "mulsh",
	Div:       "div",
	Divu:      "divu",
	Rem:       "rem",
	Remu:      "remu",
	And:       "and",
	Or:        "or",
	Xor:       "xor",
	Andc:      "andc",
	Orc:       "orc",
	Eqv:       "eqv",
	Nand:      "nand",
	Nor:       "nor",
	Shl:       "shl",
	Shr:       "shr",
	Sar:       "sar",
	Rotl:      "rotl",
	Rotr:      "rotr",
	Clz:       "clz",
	Ctz:       "ctz",
	Ctpop:     "ctpop",
	Neg:       "neg",
	Not:       "not",
	Ext8s:     "ext8s",
	Ext16s:    "ext16s",
	Ext32s:    "ext32s",
	Ext8u:     "ext8u",
	Ext16u:    "ext16u",
	Ext32u:    "ext32u",
	Bswap16:   "bswap16",
	Bswap32:   "bswap32",
	Bswap64:   "bswap64",
	Deposit:   "deposit",
	Extract:   "extract",
	Setcond:   "setcond",
	Movcond:   "movcond",
	Add2:      "add2",
	Sub2:      "sub2",
	QemuLd:    "qemu_ld",
	QemuSt:    "qemu_st",
	Dupi:      "dupi_vec",
	Dup:       "dup_vec",
	Dupm:      "dupm_vec",
	LdVec:     "ld_vec",
	StVec:     "st_vec",
	AddVec:    "add_vec",
	SubVec:    "sub_vec",
	MulVec:    "mul_vec",
	NegVec:    "neg_vec",
	NotVec:    "not_vec",
	AndVec:    "and_vec",
	OrVec:     "or_vec",
	XorVec:    "xor_vec",
	AndcVec:   "andc_vec",
	OrcVec:    "orc_vec",
	CmpVec:    "cmp_vec",
	SMinVec:   "smin_vec",
	SMaxVec:   "smax_vec",
	UMinVec:   "umin_vec",
	UMaxVec:   "umax_vec",
	SSAddVec:  "ssadd_vec",
	USAddVec:  "usadd_vec",
	SSSubVec:  "sssub_vec",
	USSubVec:  "ussub_vec",
	ShlvVec:   "shlv_vec",
	ShrvVec:   "shrv_vec",
	SarvVec:   "sarv_vec",
	ShliVec:   "shli_vec",
	ShriVec:   "shri_vec",
	SariVec:   "sari_vec",
	BitselVec: "bitsel_vec",
	MrghVec:   "mrgh_vec",
	MrglVec:   "mrgl_vec",
	MuleuVec:  "muleu_vec",
	MulouVec:  "mulou_vec",
	PkumVec:   "pkum_vec",
	RotlVec:   "rotl_vec",
	MsumVec:   "msum_vec",
}

func (op Opcode) String() string {
	if op < NumOpcodes {
		return opcodeNames[op]
	}
	return fmt.Sprintf("<invalid opcode %d>", op)
}

// ClobbersCallRegs indicates that the call-clobbered registers don't survive
// the operation.
func (op Opcode) ClobbersCallRegs() bool {
	switch op {
	case Call, QemuLd, QemuSt:
		return true
	}
	return false
}

// IsVector operation.
func (op Opcode) IsVector() bool {
	return op >= Dupi && op < NumOpcodes
}
