// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

const (
	// Integer load/store (D-form)
	LBZ  = RegRegSImm16(34 << 26)
	LHZ  = RegRegSImm16(40 << 26)
	LHA  = RegRegSImm16(42 << 26)
	LWZ  = RegRegSImm16(32 << 26)
	LWZU = RegRegSImm16(33 << 26)
	STB  = RegRegSImm16(38 << 26)
	STH  = RegRegSImm16(44 << 26)
	STW  = RegRegSImm16(36 << 26)
	STWU = RegRegSImm16(37 << 26)

	// Integer load/store (DS-form)
	LD   = RegRegDS(58<<26 | 0)
	LDU  = RegRegDS(58<<26 | 1)
	LWA  = RegRegDS(58<<26 | 2)
	STD  = RegRegDS(62<<26 | 0)
	STDU = RegRegDS(62<<26 | 1)

	// Integer arithmetic (immediate)
	MULLI  = RegRegSImm16(7 << 26)
	SUBFIC = RegRegSImm16(8 << 26)
	ADDIC  = RegRegSImm16(12 << 26)
	ADDI   = RegRegSImm16(14 << 26)
	ADDIS  = RegRegSImm16(15 << 26)

	// Integer logical (immediate)
	ORI   = RegRegUImm16(24 << 26)
	ORIS  = RegRegUImm16(25 << 26)
	XORI  = RegRegUImm16(26 << 26)
	XORIS = RegRegUImm16(27 << 26)
	ANDI  = RegRegUImm16(28 << 26) // andi.
	ANDIS = RegRegUImm16(29 << 26) // andis.

	// Compare
	CMPLI = CmpUImm16(10 << 26)
	CMPI  = CmpSImm16(11 << 26)
	CMP   = CmpReg(31<<26 | 0<<1)
	CMPL  = CmpReg(31<<26 | 32<<1)

	// Branch
	B     = Branch(18 << 26)
	BC    = CondBranch(16 << 26)
	BCLR  = BranchReg(19<<26 | 16<<1)
	BCCTR = BranchReg(19<<26 | 528<<1)

	// Condition register logical
	CRNOR  = CondLogic(19<<26 | 33<<1)
	CRANDC = CondLogic(19<<26 | 129<<1)
	CRNAND = CondLogic(19<<26 | 225<<1)
	CRAND  = CondLogic(19<<26 | 257<<1)
	CROR   = CondLogic(19<<26 | 449<<1)

	// Integer arithmetic (register)
	SUBFC  = RegRegReg(31<<26 | 8<<1)
	MULHDU = RegRegReg(31<<26 | 9<<1)
	ADDC   = RegRegReg(31<<26 | 10<<1)
	MULHWU = RegRegReg(31<<26 | 11<<1)
	SUBF   = RegRegReg(31<<26 | 40<<1)
	MULHD  = RegRegReg(31<<26 | 73<<1)
	MULHW  = RegRegReg(31<<26 | 75<<1)
	SUBFE  = RegRegReg(31<<26 | 136<<1)
	ADDE   = RegRegReg(31<<26 | 138<<1)
	MULLD  = RegRegReg(31<<26 | 233<<1)
	MULLW  = RegRegReg(31<<26 | 235<<1)
	MODUD  = RegRegReg(31<<26 | 265<<1)
	MODUW  = RegRegReg(31<<26 | 267<<1)
	ADD    = RegRegReg(31<<26 | 266<<1)
	DIVDU  = RegRegReg(31<<26 | 457<<1)
	DIVWU  = RegRegReg(31<<26 | 459<<1)
	DIVD   = RegRegReg(31<<26 | 489<<1)
	DIVW   = RegRegReg(31<<26 | 491<<1)
	MODSD  = RegRegReg(31<<26 | 777<<1)
	MODSW  = RegRegReg(31<<26 | 779<<1)

	NEG    = RegReg(31<<26 | 104<<1)
	SUBFZE = RegReg(31<<26 | 200<<1)
	ADDZE  = RegReg(31<<26 | 202<<1)
	SUBFME = RegReg(31<<26 | 232<<1)
	ADDME  = RegReg(31<<26 | 234<<1)

	// Integer load/store (indexed)
	LDX    = RegRegReg(31<<26 | 21<<1)
	LWZX   = RegRegReg(31<<26 | 23<<1)
	LDUX   = RegRegReg(31<<26 | 53<<1)
	LWZUX  = RegRegReg(31<<26 | 55<<1)
	LBZX   = RegRegReg(31<<26 | 87<<1)
	STDX   = RegRegReg(31<<26 | 149<<1)
	STWX   = RegRegReg(31<<26 | 151<<1)
	STBX   = RegRegReg(31<<26 | 215<<1)
	LHZX   = RegRegReg(31<<26 | 279<<1)
	LWAX   = RegRegReg(31<<26 | 341<<1)
	LHAX   = RegRegReg(31<<26 | 343<<1)
	STHX   = RegRegReg(31<<26 | 407<<1)
	LDBRX  = RegRegReg(31<<26 | 532<<1)
	LWBRX  = RegRegReg(31<<26 | 534<<1)
	STDBRX = RegRegReg(31<<26 | 660<<1)
	STWBRX = RegRegReg(31<<26 | 662<<1)
	LHBRX  = RegRegReg(31<<26 | 790<<1)
	STHBRX = RegRegReg(31<<26 | 918<<1)

	// Integer logical (register)
	SLW  = LogicRegRegReg(31<<26 | 24<<1)
	AND  = LogicRegRegReg(31<<26 | 28<<1)
	SLD  = LogicRegRegReg(31<<26 | 27<<1)
	ANDC = LogicRegRegReg(31<<26 | 60<<1)
	NOR  = LogicRegRegReg(31<<26 | 124<<1)
	EQV  = LogicRegRegReg(31<<26 | 284<<1)
	XOR  = LogicRegRegReg(31<<26 | 316<<1)
	ORC  = LogicRegRegReg(31<<26 | 412<<1)
	OR   = LogicRegRegReg(31<<26 | 444<<1)
	NAND = LogicRegRegReg(31<<26 | 476<<1)
	SRW  = LogicRegRegReg(31<<26 | 536<<1)
	SRD  = LogicRegRegReg(31<<26 | 539<<1)
	SRAW = LogicRegRegReg(31<<26 | 792<<1)
	SRAD = LogicRegRegReg(31<<26 | 794<<1)

	CNTLZW  = LogicRegReg(31<<26 | 26<<1)
	CNTLZD  = LogicRegReg(31<<26 | 58<<1)
	POPCNTW = LogicRegReg(31<<26 | 378<<1)
	POPCNTD = LogicRegReg(31<<26 | 506<<1)
	CNTTZW  = LogicRegReg(31<<26 | 538<<1)
	CNTTZD  = LogicRegReg(31<<26 | 570<<1)
	EXTSH   = LogicRegReg(31<<26 | 922<<1)
	EXTSB   = LogicRegReg(31<<26 | 954<<1)
	EXTSW   = LogicRegReg(31<<26 | 986<<1)

	// Shift (immediate)
	SRAWI = ShiftImm32(31<<26 | 824<<1)
	SRADI = ShiftImm64(31<<26 | 826<<1)

	// Rotate
	RLWIMI = RotateImm32(20 << 26)
	RLWINM = RotateImm32(21 << 26)
	RLWNM  = RotateReg32(23 << 26)
	RLDICL = RotateImm64(30<<26 | 0<<2)
	RLDICR = RotateImm64(30<<26 | 1<<2)
	RLDIC  = RotateImm64(30<<26 | 2<<2)
	RLDIMI = RotateImm64(30<<26 | 3<<2)
	RLDCL  = RotateReg64(30<<26 | 8<<2)

	// Special purpose and condition registers
	MFCR   = MoveFromCR(31<<26 | 19<<1)
	MFOCRF = MoveFromCR(31<<26 | 19<<1 | 1<<20)
	MFSPR  = MoveSPR(31<<26 | 339<<1)
	MTSPR  = MoveSPR(31<<26 | 467<<1)

	// Integer select
	ISEL = Select(31<<26 | 15<<1)

	// Storage control and traps
	TRAP   = Plain(31<<26 | 4<<1 | 31<<21)
	HWSYNC = Plain(31<<26 | 598<<1)
	LWSYNC = Plain(31<<26 | 598<<1 | 1<<21)
	EIEIO  = Plain(31<<26 | 854<<1)
	ISYNC  = Plain(19<<26 | 150<<1)
	NOP    = Plain(24 << 26) // ori 0,0,0

	// Vector load/store
	LVEBX  = VecRegReg(31<<26 | 7<<1)
	LVEHX  = VecRegReg(31<<26 | 39<<1)
	LVEWX  = VecRegReg(31<<26 | 71<<1)
	LVX    = VecRegReg(31<<26 | 103<<1)
	STVEWX = VecRegReg(31<<26 | 199<<1)
	STVX   = VecRegReg(31<<26 | 231<<1)

	// VSX load/store, with the target in the upper half of the VSX file
	LXSIWZX = VecRegReg(31<<26 | 12<<1 | 1)
	STXSIWX = VecRegReg(31<<26 | 140<<1 | 1)
	LXVDSX  = VecRegReg(31<<26 | 332<<1 | 1)
	LXSDX   = VecRegReg(31<<26 | 588<<1 | 1)
	STXSDX  = VecRegReg(31<<26 | 716<<1 | 1)

	// VSX moves between register files
	MFVSRD  = RegVec(31<<26 | 51<<1 | 1)
	MFVSRWZ = RegVec(31<<26 | 115<<1 | 1)
	MTVSRD  = VecReg(31<<26 | 179<<1 | 1)
	MTVSRWZ = VecReg(31<<26 | 243<<1 | 1)
	MTVSRWS = VecReg(31<<26 | 403<<1 | 1)
	MTVSRDD = VecRegReg(31<<26 | 435<<1 | 1)

	// VSX permute and splat
	XXPERMDI = VecVecVecDM(60<<26 | 10<<3 | 7)
	XXSEL    = VecVecVecVec(60<<26 | 3<<4 | 0xf)
	XXSPLTIB = VecImm8(60<<26 | 360<<1 | 1)

	// Vector integer arithmetic
	VADDUBM = VecVecVec(4<<26 | 0)
	VADDUHM = VecVecVec(4<<26 | 64)
	VADDUWM = VecVecVec(4<<26 | 128)
	VADDUDM = VecVecVec(4<<26 | 192)
	VADDUBS = VecVecVec(4<<26 | 512)
	VADDUHS = VecVecVec(4<<26 | 576)
	VADDUWS = VecVecVec(4<<26 | 640)
	VADDSBS = VecVecVec(4<<26 | 768)
	VADDSHS = VecVecVec(4<<26 | 832)
	VADDSWS = VecVecVec(4<<26 | 896)

	VSUBUBM = VecVecVec(4<<26 | 1024)
	VSUBUHM = VecVecVec(4<<26 | 1088)
	VSUBUWM = VecVecVec(4<<26 | 1152)
	VSUBUDM = VecVecVec(4<<26 | 1216)
	VSUBUBS = VecVecVec(4<<26 | 1536)
	VSUBUHS = VecVecVec(4<<26 | 1600)
	VSUBUWS = VecVecVec(4<<26 | 1664)
	VSUBSBS = VecVecVec(4<<26 | 1792)
	VSUBSHS = VecVecVec(4<<26 | 1856)
	VSUBSWS = VecVecVec(4<<26 | 1920)

	VNEGW = VecVec(4<<26 | 1538 | 6<<16)
	VNEGD = VecVec(4<<26 | 1538 | 7<<16)

	VMAXUB = VecVecVec(4<<26 | 2)
	VMAXUH = VecVecVec(4<<26 | 66)
	VMAXUW = VecVecVec(4<<26 | 130)
	VMAXUD = VecVecVec(4<<26 | 194)
	VMAXSB = VecVecVec(4<<26 | 258)
	VMAXSH = VecVecVec(4<<26 | 322)
	VMAXSW = VecVecVec(4<<26 | 386)
	VMAXSD = VecVecVec(4<<26 | 450)
	VMINUB = VecVecVec(4<<26 | 514)
	VMINUH = VecVecVec(4<<26 | 578)
	VMINUW = VecVecVec(4<<26 | 642)
	VMINUD = VecVecVec(4<<26 | 706)
	VMINSB = VecVecVec(4<<26 | 770)
	VMINSH = VecVecVec(4<<26 | 834)
	VMINSW = VecVecVec(4<<26 | 898)
	VMINSD = VecVecVec(4<<26 | 962)

	VMULOUB = VecVecVec(4<<26 | 8)
	VMULOUH = VecVecVec(4<<26 | 72)
	VMULOUW = VecVecVec(4<<26 | 136)
	VMULUWM = VecVecVec(4<<26 | 137)
	VMULEUB = VecVecVec(4<<26 | 520)
	VMULEUH = VecVecVec(4<<26 | 584)
	VMULEUW = VecVecVec(4<<26 | 648)

	VMSUMUHM = VecVecVecVec(4<<26 | 38)

	// Vector compare
	VCMPEQUB = VecVecVec(4<<26 | 6)
	VCMPEQUH = VecVecVec(4<<26 | 70)
	VCMPEQUW = VecVecVec(4<<26 | 134)
	VCMPEQUD = VecVecVec(4<<26 | 199)
	VCMPNEB  = VecVecVec(4<<26 | 7)
	VCMPNEH  = VecVecVec(4<<26 | 71)
	VCMPNEW  = VecVecVec(4<<26 | 135)
	VCMPGTUB = VecVecVec(4<<26 | 518)
	VCMPGTUH = VecVecVec(4<<26 | 582)
	VCMPGTUW = VecVecVec(4<<26 | 646)
	VCMPGTUD = VecVecVec(4<<26 | 711)
	VCMPGTSB = VecVecVec(4<<26 | 774)
	VCMPGTSH = VecVecVec(4<<26 | 838)
	VCMPGTSW = VecVecVec(4<<26 | 902)
	VCMPGTSD = VecVecVec(4<<26 | 967)

	// Vector shift and rotate
	VRLB  = VecVecVec(4<<26 | 4)
	VRLH  = VecVecVec(4<<26 | 68)
	VRLW  = VecVecVec(4<<26 | 132)
	VRLD  = VecVecVec(4<<26 | 196)
	VSLB  = VecVecVec(4<<26 | 260)
	VSLH  = VecVecVec(4<<26 | 324)
	VSLW  = VecVecVec(4<<26 | 388)
	VSLD  = VecVecVec(4<<26 | 1476)
	VSRB  = VecVecVec(4<<26 | 516)
	VSRH  = VecVecVec(4<<26 | 580)
	VSRW  = VecVecVec(4<<26 | 644)
	VSRD  = VecVecVec(4<<26 | 1732)
	VSRAB = VecVecVec(4<<26 | 772)
	VSRAH = VecVecVec(4<<26 | 836)
	VSRAW = VecVecVec(4<<26 | 900)
	VSRAD = VecVecVec(4<<26 | 964)

	// Vector merge and pack
	VMRGHB  = VecVecVec(4<<26 | 12)
	VMRGHH  = VecVecVec(4<<26 | 76)
	VMRGHW  = VecVecVec(4<<26 | 140)
	VMRGLB  = VecVecVec(4<<26 | 268)
	VMRGLH  = VecVecVec(4<<26 | 332)
	VMRGLW  = VecVecVec(4<<26 | 396)
	VPKUHUM = VecVecVec(4<<26 | 14)
	VPKUWUM = VecVecVec(4<<26 | 78)

	// Vector logical
	VAND  = VecVecVec(4<<26 | 1028)
	VANDC = VecVecVec(4<<26 | 1092)
	VOR   = VecVecVec(4<<26 | 1156)
	VXOR  = VecVecVec(4<<26 | 1220)
	VNOR  = VecVecVec(4<<26 | 1284)
	VORC  = VecVecVec(4<<26 | 1348)
	VNAND = VecVecVec(4<<26 | 1412)
	VEQV  = VecVecVec(4<<26 | 1668)

	// Vector permute and splat
	VSEL     = VecVecVecVec(4<<26 | 42)
	VSLDOI   = VecVecVecShift(4<<26 | 44)
	VSPLTB   = VecVecUImm(4<<26 | 524)
	VSPLTH   = VecVecUImm(4<<26 | 588)
	VSPLTW   = VecVecUImm(4<<26 | 652)
	VSPLTISB = VecSImm5(4<<26 | 780)
	VSPLTISH = VecSImm5(4<<26 | 844)
	VSPLTISW = VecSImm5(4<<26 | 908)
)
