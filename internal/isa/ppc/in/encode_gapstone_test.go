// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build cgo

package in

import (
	"encoding/binary"
	"testing"

	"github.com/bnagy/gapstone"
)

var testEngine gapstone.Engine

func init() {
	engine, err := gapstone.New(gapstone.CS_ARCH_PPC, gapstone.CS_MODE_64|gapstone.CS_MODE_BIG_ENDIAN)
	if err != nil {
		panic(err)
	}

	testEngine = engine
}

func testEncode(t *testing.T, expectMnemonic string, insn uint32) {
	t.Helper()

	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, insn)

	insns, err := testEngine.Disasm(b, 0, 0)
	if err != nil {
		t.Errorf("expect %s: %v", expectMnemonic, err)
		return
	}
	if len(insns) != 1 {
		t.Errorf("expect %s: %d instructions", expectMnemonic, len(insns))
		return
	}

	if insns[0].Mnemonic != expectMnemonic {
		t.Errorf("%s <> %s %s", expectMnemonic, insns[0].Mnemonic, insns[0].OpStr)
	}
}

func TestEncodeGapstone(t *testing.T) {
	testEncode(t, "add", ADD.RtRaRb(3, 4, 5))
	testEncode(t, "subf", SUBF.RtRaRb(3, 4, 5))
	testEncode(t, "mullw", MULLW.RtRaRb(3, 4, 5))
	testEncode(t, "mulld", MULLD.RtRaRb(3, 4, 5))
	testEncode(t, "divdu", DIVDU.RtRaRb(3, 4, 5))
	testEncode(t, "lwzx", LWZX.RtRaRb(3, 4, 5))
	testEncode(t, "ldx", LDX.RtRaRb(3, 4, 5))
	testEncode(t, "stdx", STDX.RtRaRb(3, 4, 5))
	testEncode(t, "lwbrx", LWBRX.RtRaRb(3, 4, 5))
	testEncode(t, "xor", XOR.RaRsRb(3, 4, 5))
	testEncode(t, "and", AND.RaRsRb(3, 4, 5))
	testEncode(t, "andc", ANDC.RaRsRb(3, 4, 5))
	testEncode(t, "sld", SLD.RaRsRb(3, 4, 5))
	testEncode(t, "srad", SRAD.RaRsRb(3, 4, 5))
	testEncode(t, "extsw", EXTSW.RaRs(3, 4))
	testEncode(t, "cntlzw", CNTLZW.RaRs(3, 4))
	testEncode(t, "neg", NEG.RtRa(3, 4))
	testEncode(t, "lwz", LWZ.RtRaSI(3, 4, 8))
	testEncode(t, "stw", STW.RtRaSI(3, 4, -8))
	testEncode(t, "lwa", LWA.RtRaDS(3, 4, 8))
	testEncode(t, "mulli", MULLI.RtRaSI(3, 4, 100))
	testEncode(t, "xoris", XORIS.RaRsUI(3, 4, 0x8000))
	testEncode(t, "vaddubm", VADDUBM.VtVaVb(v0, v0, v0))
	testEncode(t, "vmrghw", VMRGHW.VtVaVb(v0, v0, v0))
	testEncode(t, "vmuleuh", VMULEUH.VtVaVb(v0, v0, v0))
	testEncode(t, "vcmpgtsw", VCMPGTSW.VtVaVb(v0, v0, v0))
	testEncode(t, "vsel", VSEL.VtVaVbVc(v0, v0, v0, v0))
	testEncode(t, "vsldoi", VSLDOI.VtVaVbShb(v0, v0, v0, 8))
	testEncode(t, "lvx", LVX.VtRaRb(v0, 3, 4))
}
