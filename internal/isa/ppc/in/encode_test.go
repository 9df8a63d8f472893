// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"fmt"
	"testing"

	"gate.computer/hostgen/internal/gen/reg"
)

var v0 = reg.V(0)

var encodeTests = []struct {
	name   string
	insn   uint32
	expect uint32
}{
	{"li r3,0x1234", ADDI.RtRaSI(3, 0, 0x1234), 0x38601234},
	{"lis r3,0x1234", ADDIS.RtRaSI(3, 0, 0x1234), 0x3c601234},
	{"b .+8", B.LI(8), 0x48000008},
	{"bl .-4", B.LILink(-4), 0x4bfffffd},
	{"beq cr7,.+8", BC.BoBiBD(BOCondTrue, BI(7, CREQ), 8), 0x419e0008},
	{"bctr", BCCTR.Always(), 0x4e800420},
	{"bctrl", BCCTR.Always() | LK, 0x4e800421},
	{"blr", BCLR.Always(), 0x4e800020},
	{"mtlr r0", MTSPR.RtSpr(0, LR), 0x7c0803a6},
	{"mflr r0", MFSPR.RtSpr(0, LR), 0x7c0802a6},
	{"mtctr r3", MTSPR.RtSpr(3, CTR), 0x7c6903a6},
	{"mr r3,r4", OR.RaRsRb(3, 4, 4), 0x7c832378},
	{"ld r0,16(r1)", LD.RtRaDS(0, 1, 16), 0xe8010010},
	{"std r0,16(r1)", STD.RtRaDS(0, 1, 16), 0xf8010010},
	{"stdu r1,-112(r1)", STDU.RtRaDS(1, 1, -112), 0xf821ff91},
	{"nop", NOP.Word(), 0x60000000},
	{"sync", HWSYNC.Word(), 0x7c0004ac},
	{"lwsync", LWSYNC.Word(), 0x7c2004ac},
	{"isync", ISYNC.Word(), 0x4c00012c},
	{"eieio", EIEIO.Word(), 0x7c0006ac},
	{"cmpdi cr7,r3,0", CMPI.BfRaSI(7, 3, 0, true), 0x2fa30000},
	{"clrlwi r3,r3,24", RLWINM.RaRsShMbMe(3, 3, 0, 24, 31), 0x5463063e},
	{"sldi r3,r3,32", RLDICR.RaRsShMb(3, 3, 32, 31), 0x786307c6},
	{"sradi r3,r3,63", SRADI.RaRsSH(3, 3, 63), 0x7c63fe76},
	{"isel r3,r4,r5,eq", ISEL.RtRaRbBc(3, 4, 5, CREQ), 0x7c64289e},
	{"mfocrf r0,cr7", MFOCRF.RtCR(0, 7), 0x7c101026},
	{"vspltisb v0,-1", VSPLTISB.VtSIM(v0, -1), 0x101f030c},
	{"vxor v0,v0,v0", VXOR.VtVaVb(v0, v0, v0), 0x100004c4},
}

func TestEncode(t *testing.T) {
	for _, x := range encodeTests {
		if x.insn != x.expect {
			t.Errorf("%s: %#08x (expected %#08x)", x.name, x.insn, x.expect)
		}
	}
}

func TestEncodeFieldOverflow(t *testing.T) {
	for i, f := range []func(){
		func() { ADDI.RtRaSI(3, 0, 0x8000) },
		func() { ADDI.RtRaSI(3, 0, -0x8001) },
		func() { ORI.RaRsUI(3, 3, 0x10000) },
		func() { LD.RtRaDS(3, 1, 2) },
		func() { B.LI(1 << 25) },
		func() { B.LI(2) },
		func() { BC.BoBiBD(BOCondTrue, 0, 0x8000) },
		func() { ADD.RtRaRb(v0, 3, 4) },
		func() { VXOR.VtVaVb(v0, 3, v0) },
		func() { VSPLTW.VtVbUIM(v0, v0, 4) },
		func() { VSPLTISW.VtSIM(v0, 16) },
		func() { RLWINM.RaRsShMbMe(3, 3, 32, 0, 31) },
		func() { RLDICL.RaRsShMb(3, 3, 0, 64) },
		func() { CMPI.BfRaSI(8, 3, 0, false) },
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()

			f()
		})
	}
}

func TestField(t *testing.T) {
	insn := BC.BoBiBD(BOCondFalse, BI(7, CREQ), 0)

	insn = FieldBD.Insert(insn, -8)
	if x := FieldBD.Decode(insn); x != -8 {
		t.Error(x)
	}
	if FieldBO.Decode(insn) != BOCondFalse {
		t.Error("BO field clobbered")
	}

	if !FieldLI.Fits(0x1fffffc) || FieldLI.Fits(0x2000000) || !FieldLI.Fits(-0x2000000) {
		t.Error("LI range")
	}
	if FieldDS.Fits(6) || !FieldDS.Fits(-4) {
		t.Error("DS alignment")
	}
	if FieldUI.Fits(-1) {
		t.Error("UI sign")
	}
	if PrimaryOpcode(insn) != 16 {
		t.Error(PrimaryOpcode(insn))
	}
}
