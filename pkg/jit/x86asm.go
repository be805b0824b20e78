package jit

import (
	"encoding/binary"
)

// x86-64 register encoding
type Reg byte

const (
	RAX Reg = 0
	RCX Reg = 1
	RDX Reg = 2
	RBX Reg = 3
	RSP Reg = 4
	RBP Reg = 5
	RSI Reg = 6
	RDI Reg = 7
	R8  Reg = 8
	R9  Reg = 9
	R10 Reg = 10
	R11 Reg = 11
	R12 Reg = 12
	R13 Reg = 13
	R14 Reg = 14
	R15 Reg = 15
)

// Assembler emits x86-64 machine code into a growing buffer. The final
// buffer is copied into the executable mapping once its length is known.
type Assembler struct {
	buf []byte
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Offset returns the current write position.
func (a *Assembler) Offset() int {
	return len(a.buf)
}

// Bytes returns the assembled code.
func (a *Assembler) Bytes() []byte {
	return a.buf
}

// emit appends bytes to the buffer
func (a *Assembler) emit(bytes ...byte) {
	a.buf = append(a.buf, bytes...)
}

// emitInt32 appends a little-endian int32
func (a *Assembler) emitInt32(v int32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(v))
}

// emitUint32 appends a little-endian uint32
func (a *Assembler) emitUint32(v uint32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, v)
}

// PatchInt32 overwrites the 4 bytes at offset with a little-endian int32.
// Used to backpatch jump displacements once their target is known.
func (a *Assembler) PatchInt32(offset int, v int32) {
	binary.LittleEndian.PutUint32(a.buf[offset:], uint32(v))
}

// rex builds REX prefix: 0100WRXB
// W=1 for 64-bit operand size
// R=1 if reg field uses R8-R15
// X=1 if SIB index uses R8-R15
// B=1 if rm field uses R8-R15
func rex(w, r, x, b bool) byte {
	var prefix byte = 0x40
	if w {
		prefix |= 0x08
	}
	if r {
		prefix |= 0x04
	}
	if x {
		prefix |= 0x02
	}
	if b {
		prefix |= 0x01
	}
	return prefix
}

// rexW returns REX.W prefix for 64-bit operations
func rexW(reg, rm Reg) byte {
	return rex(true, reg >= 8, false, rm >= 8)
}

// modRM builds ModR/M byte: [mod:2][reg:3][rm:3]
// mod should be pre-shifted: 0x00=no disp, 0x40=disp8, 0x80=disp32, 0xC0=register
func modRM(mod byte, reg, rm Reg) byte {
	return mod | ((byte(reg) & 7) << 3) | (byte(rm) & 7)
}

// emitMemOperand emits ModR/M (and SIB where the base demands it) for a
// [base] operand with zero displacement. RSP/R12 as base require a SIB byte;
// RBP/R13 have no displacement-free form, so they get an explicit disp8 of 0.
func (a *Assembler) emitMemOperand(reg, base Reg) {
	switch {
	case base == RSP || base == R12:
		a.emit(modRM(0x00, reg, RSP), 0x24)
	case base == RBP || base == R13:
		a.emit(modRM(0x40, reg, base), 0x00)
	default:
		a.emit(modRM(0x00, reg, base))
	}
}

// MovRegReg: mov dst, src (64-bit)
func (a *Assembler) MovRegReg(dst, src Reg) {
	a.emit(rexW(src, dst), 0x89, modRM(0xC0, src, dst))
}

// MovRegImm32: mov reg32, imm32 (zero-extends to 64-bit)
func (a *Assembler) MovRegImm32(reg Reg, imm uint32) {
	if reg >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xB8 | byte(reg&7))
	a.emitUint32(imm)
}

// IncReg: inc reg (64-bit)
func (a *Assembler) IncReg(reg Reg) {
	a.emit(rexW(0, reg), 0xFF, modRM(0xC0, 0, reg))
}

// DecReg: dec reg (64-bit)
func (a *Assembler) DecReg(reg Reg) {
	a.emit(rexW(0, reg), 0xFF, modRM(0xC0, 1, reg))
}

// AddRegImm32: add reg, imm32 (64-bit, sign-extended; uses the imm8 form
// when the immediate fits in a signed byte)
func (a *Assembler) AddRegImm32(reg Reg, imm int32) {
	if imm >= -128 && imm <= 127 {
		a.emit(rexW(0, reg), 0x83, modRM(0xC0, 0, reg), byte(imm))
	} else {
		a.emit(rexW(0, reg), 0x81, modRM(0xC0, 0, reg))
		a.emitInt32(imm)
	}
}

// SubRegImm32: sub reg, imm32 (64-bit, sign-extended)
func (a *Assembler) SubRegImm32(reg Reg, imm int32) {
	if imm >= -128 && imm <= 127 {
		a.emit(rexW(0, reg), 0x83, modRM(0xC0, 5, reg), byte(imm))
	} else {
		a.emit(rexW(0, reg), 0x81, modRM(0xC0, 5, reg))
		a.emitInt32(imm)
	}
}

// XorRegReg: xor dst, src (64-bit)
func (a *Assembler) XorRegReg(dst, src Reg) {
	a.emit(rexW(src, dst), 0x31, modRM(0xC0, src, dst))
}

// TestRegReg: test left, right (64-bit)
func (a *Assembler) TestRegReg(left, right Reg) {
	a.emit(rexW(right, left), 0x85, modRM(0xC0, right, left))
}

// IncMem8: inc byte [base]
func (a *Assembler) IncMem8(base Reg) {
	if base >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xFE)
	a.emitMemOperand(0, base)
}

// DecMem8: dec byte [base]
func (a *Assembler) DecMem8(base Reg) {
	if base >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xFE)
	a.emitMemOperand(1, base)
}

// AddMem8Imm: add byte [base], imm8
func (a *Assembler) AddMem8Imm(base Reg, imm byte) {
	if base >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x80)
	a.emitMemOperand(0, base)
	a.emit(imm)
}

// SubMem8Imm: sub byte [base], imm8
func (a *Assembler) SubMem8Imm(base Reg, imm byte) {
	if base >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x80)
	a.emitMemOperand(5, base)
	a.emit(imm)
}

// CmpMem8Imm: cmp byte [base], imm8
func (a *Assembler) CmpMem8Imm(base Reg, imm byte) {
	if base >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x80)
	a.emitMemOperand(7, base)
	a.emit(imm)
}

// JeNear: je rel32 (jump if equal / ZF=1)
func (a *Assembler) JeNear(rel32 int32) {
	a.emit(0x0F, 0x84)
	a.emitInt32(rel32)
}

// JneNear: jne rel32 (jump if not equal / ZF=0)
func (a *Assembler) JneNear(rel32 int32) {
	a.emit(0x0F, 0x85)
	a.emitInt32(rel32)
}

// Jns: jns rel8 (jump if not sign)
func (a *Assembler) Jns(rel8 int8) {
	a.emit(0x79, byte(rel8))
}

// Push: push reg
func (a *Assembler) Push(reg Reg) {
	if reg >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x50 | byte(reg&7))
}

// Pop: pop reg
func (a *Assembler) Pop(reg Reg) {
	if reg >= 8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x58 | byte(reg&7))
}

// Ret: ret
func (a *Assembler) Ret() {
	a.emit(0xC3)
}

// Syscall: syscall instruction
func (a *Assembler) Syscall() {
	a.emit(0x0F, 0x05)
}
