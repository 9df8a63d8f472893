// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"gate.computer/hostgen/internal/errors"
)

// Field of an instruction word.  Scale is the number of low bits of the
// value which must be zero and which are not stored (they overlap other
// fields or are implied).
type Field struct {
	Name   string
	Shift  uint
	Width  uint
	Signed bool
	Scale  uint
}

var (
	FieldRT   = Field{Name: "RT", Shift: 21, Width: 5}
	FieldRA   = Field{Name: "RA", Shift: 16, Width: 5}
	FieldRB   = Field{Name: "RB", Shift: 11, Width: 5}
	FieldRC   = Field{Name: "RC", Shift: 6, Width: 5}
	FieldSI   = Field{Name: "SI", Shift: 0, Width: 16, Signed: true}
	FieldUI   = Field{Name: "UI", Shift: 0, Width: 16}
	FieldDS   = Field{Name: "DS", Shift: 0, Width: 16, Signed: true, Scale: 2}
	FieldBD   = Field{Name: "BD", Shift: 0, Width: 16, Signed: true, Scale: 2}
	FieldLI   = Field{Name: "LI", Shift: 0, Width: 26, Signed: true, Scale: 2}
	FieldBO   = Field{Name: "BO", Shift: 21, Width: 5}
	FieldBI   = Field{Name: "BI", Shift: 16, Width: 5}
	FieldBF   = Field{Name: "BF", Shift: 23, Width: 3}
	FieldSH   = Field{Name: "SH", Shift: 11, Width: 5}
	FieldMB   = Field{Name: "MB", Shift: 6, Width: 5}
	FieldME   = Field{Name: "ME", Shift: 1, Width: 5}
	FieldSIM  = Field{Name: "SIM", Shift: 16, Width: 5, Signed: true}
	FieldUIM  = Field{Name: "UIM", Shift: 16, Width: 5}
	FieldSHB  = Field{Name: "SHB", Shift: 6, Width: 4}
	FieldDM   = Field{Name: "DM", Shift: 8, Width: 2}
	FieldIMM8 = Field{Name: "IMM8", Shift: 11, Width: 8}
	FieldBC   = Field{Name: "BC", Shift: 6, Width: 5}
)

// Mask of the bits occupied by the field.
func (f Field) Mask() uint32 {
	return (uint32(1)<<f.Width - 1) << f.Shift &^ ((uint32(1)<<f.Scale - 1) << f.Shift)
}

func (f Field) Fits(v int64) bool {
	if v&(1<<f.Scale-1) != 0 {
		return false
	}
	if f.Signed {
		return v >= -1<<(f.Width-1) && v < 1<<(f.Width-1)
	}
	return v >= 0 && v < 1<<f.Width
}

// Encode value in place.  Panics if it doesn't fit.
func (f Field) Encode(v int64) uint32 {
	if !f.Fits(v) {
		panic(errors.Internalf("instruction field %s out of range: %d", f.Name, v))
	}
	return uint32(v)<<f.Shift&f.Mask()
}

// Decode value from an instruction word.
func (f Field) Decode(insn uint32) int64 {
	x := int64((insn & f.Mask()) >> f.Shift)
	if f.Signed && x&(1<<(f.Width-1)) != 0 {
		x -= 1 << f.Width
	}
	return x
}

// Insert value into an instruction word, replacing the old value.
func (f Field) Insert(insn uint32, v int64) uint32 {
	return insn&^f.Mask() | f.Encode(v)
}

// PrimaryOpcode of an instruction word.
func PrimaryOpcode(insn uint32) uint32 {
	return insn >> 26
}
