package cpu

import (
	"fmt"
)

// Op is a decoded operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_INVALID   = Op(0)  // invalid
	OP_CLS       = Op(1)  // cls
	OP_RET       = Op(2)  // ret
	OP_JP        = Op(3)  // jp
	OP_CALL      = Op(4)  // call
	OP_SE_IMM    = Op(5)  // se.imm
	OP_SNE_IMM   = Op(6)  // sne.imm
	OP_SE_REG    = Op(7)  // se.reg
	OP_LD_IMM    = Op(8)  // ld.imm
	OP_ADD_IMM   = Op(9)  // add.imm
	OP_LD_REG    = Op(10) // ld.reg
	OP_OR        = Op(11) // or
	OP_AND       = Op(12) // and
	OP_XOR       = Op(13) // xor
	OP_ADD_REG   = Op(14) // add.reg
	OP_SUB       = Op(15) // sub
	OP_SHR       = Op(16) // shr
	OP_SUBN      = Op(17) // subn
	OP_SHL       = Op(18) // shl
	OP_SNE_REG   = Op(19) // sne.reg
	OP_LD_I      = Op(20) // ld.i
	OP_JP_V0     = Op(21) // jp.v0
	OP_RND       = Op(22) // rnd
	OP_DRW       = Op(23) // drw
	OP_SKP       = Op(24) // skp
	OP_SKNP      = Op(25) // sknp
	OP_LD_VX_DT  = Op(26) // ld.vx.dt
	OP_LD_VX_K   = Op(27) // ld.vx.k
	OP_LD_DT_VX  = Op(28) // ld.dt.vx
	OP_LD_ST_VX  = Op(29) // ld.st.vx
	OP_ADD_I     = Op(30) // add.i
	OP_LD_F      = Op(31) // ld.f
	OP_LD_B      = Op(32) // ld.b
	OP_LD_MEM_VX = Op(33) // ld.mem.vx
	OP_LD_VX_MEM = Op(34) // ld.vx.mem

	OP_COUNT = 35
)

// CodeForm is the operand layout of an instruction word.
type CodeForm int

const (
	FORM_NONE = CodeForm(0) // ....
	FORM_NNN  = CodeForm(1) // .nnn
	FORM_XKK  = CodeForm(2) // .xkk
	FORM_XY   = CodeForm(3) // .xy.
	FORM_XYN  = CodeForm(4) // .xyn
	FORM_X    = CodeForm(5) // .x..
	FORM_WORD = CodeForm(6) // raw data word
)

type opInfo struct {
	base   Code     // Instruction word with all operand fields zero.
	form   CodeForm // Operand layout.
	format string   // Disassembly format, taking the operands in layout order.
}

var opTable = [OP_COUNT]opInfo{
	OP_INVALID:   {0x0000, FORM_WORD, "dw %#04x"},
	OP_CLS:       {0x00E0, FORM_NONE, "cls"},
	OP_RET:       {0x00EE, FORM_NONE, "ret"},
	OP_JP:        {0x1000, FORM_NNN, "jp %#03x"},
	OP_CALL:      {0x2000, FORM_NNN, "call %#03x"},
	OP_SE_IMM:    {0x3000, FORM_XKK, "se v%x %#02x"},
	OP_SNE_IMM:   {0x4000, FORM_XKK, "sne v%x %#02x"},
	OP_SE_REG:    {0x5000, FORM_XY, "se v%x v%x"},
	OP_LD_IMM:    {0x6000, FORM_XKK, "ld v%x %#02x"},
	OP_ADD_IMM:   {0x7000, FORM_XKK, "add v%x %#02x"},
	OP_LD_REG:    {0x8000, FORM_XY, "ld v%x v%x"},
	OP_OR:        {0x8001, FORM_XY, "or v%x v%x"},
	OP_AND:       {0x8002, FORM_XY, "and v%x v%x"},
	OP_XOR:       {0x8003, FORM_XY, "xor v%x v%x"},
	OP_ADD_REG:   {0x8004, FORM_XY, "add v%x v%x"},
	OP_SUB:       {0x8005, FORM_XY, "sub v%x v%x"},
	OP_SHR:       {0x8006, FORM_XY, "shr v%x v%x"},
	OP_SUBN:      {0x8007, FORM_XY, "subn v%x v%x"},
	OP_SHL:       {0x800E, FORM_XY, "shl v%x v%x"},
	OP_SNE_REG:   {0x9000, FORM_XY, "sne v%x v%x"},
	OP_LD_I:      {0xA000, FORM_NNN, "ld i %#03x"},
	OP_JP_V0:     {0xB000, FORM_NNN, "jp v0 %#03x"},
	OP_RND:       {0xC000, FORM_XKK, "rnd v%x %#02x"},
	OP_DRW:       {0xD000, FORM_XYN, "drw v%x v%x %d"},
	OP_SKP:       {0xE09E, FORM_X, "skp v%x"},
	OP_SKNP:      {0xE0A1, FORM_X, "sknp v%x"},
	OP_LD_VX_DT:  {0xF007, FORM_X, "ld v%x dt"},
	OP_LD_VX_K:   {0xF00A, FORM_X, "ld v%x k"},
	OP_LD_DT_VX:  {0xF015, FORM_X, "ld dt v%x"},
	OP_LD_ST_VX:  {0xF018, FORM_X, "ld st v%x"},
	OP_ADD_I:     {0xF01E, FORM_X, "add i v%x"},
	OP_LD_F:      {0xF029, FORM_X, "ld f v%x"},
	OP_LD_B:      {0xF033, FORM_X, "ld b v%x"},
	OP_LD_MEM_VX: {0xF055, FORM_X, "ld [i] v%x"},
	OP_LD_VX_MEM: {0xF065, FORM_X, "ld v%x [i]"},
}

// Form returns the operand layout of the op.
func (op Op) Form() CodeForm {
	if op < 0 || op >= OP_COUNT {
		return FORM_WORD
	}
	return opTable[op].form
}

// Code is a single 16-bit instruction word.
type Code uint16

// MakeCode encodes an op with its operands, in layout order:
//   - FORM_NNN: nnn
//   - FORM_XKK: x, kk
//   - FORM_XY: x, y
//   - FORM_XYN: x, y, n
//   - FORM_X: x
//   - FORM_WORD: word
//
// Out of range operands are truncated to their field width.
func MakeCode(op Op, args ...uint16) Code {
	arg := func(n int) uint16 {
		if n < len(args) {
			return args[n]
		}
		return 0
	}

	if op < 0 || op >= OP_COUNT {
		op = OP_INVALID
	}
	info := opTable[op]
	code := info.base

	switch info.form {
	case FORM_NNN:
		code |= Code(arg(0) & 0xfff)
	case FORM_XKK:
		code |= Code(arg(0)&0xf)<<8 | Code(arg(1)&0xff)
	case FORM_XY:
		code |= Code(arg(0)&0xf)<<8 | Code(arg(1)&0xf)<<4
	case FORM_XYN:
		code |= Code(arg(0)&0xf)<<8 | Code(arg(1)&0xf)<<4 | Code(arg(2)&0xf)
	case FORM_X:
		code |= Code(arg(0)&0xf) << 8
	case FORM_WORD:
		code = Code(arg(0))
	}

	return code
}

// Family returns the top nibble of the word.
func (code Code) Family() uint8 {
	return uint8(code>>12) & 0xf
}

// X returns the first register index.
func (code Code) X() uint8 {
	return uint8(code>>8) & 0xf
}

// Y returns the second register index.
func (code Code) Y() uint8 {
	return uint8(code>>4) & 0xf
}

// N returns the 4-bit immediate.
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// KK returns the 8-bit immediate.
func (code Code) KK() uint8 {
	return uint8(code)
}

// NNN returns the 12-bit address.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// Op decodes the instruction word.
func (code Code) Op() Op {
	return Decode(code)
}

// Decode maps an instruction word to its operation. The top nibble selects
// the family; families 0, 5, 8, 9, E and F are further discriminated by the
// low byte or low nibble. Words with no defined operation decode to
// OP_INVALID.
func Decode(code Code) (op Op) {
	switch code.Family() {
	case 0x0:
		switch code {
		case 0x00E0:
			op = OP_CLS
		case 0x00EE:
			op = OP_RET
		}
	case 0x1:
		op = OP_JP
	case 0x2:
		op = OP_CALL
	case 0x3:
		op = OP_SE_IMM
	case 0x4:
		op = OP_SNE_IMM
	case 0x5:
		if code.N() == 0 {
			op = OP_SE_REG
		}
	case 0x6:
		op = OP_LD_IMM
	case 0x7:
		op = OP_ADD_IMM
	case 0x8:
		switch code.N() {
		case 0x0:
			op = OP_LD_REG
		case 0x1:
			op = OP_OR
		case 0x2:
			op = OP_AND
		case 0x3:
			op = OP_XOR
		case 0x4:
			op = OP_ADD_REG
		case 0x5:
			op = OP_SUB
		case 0x6:
			op = OP_SHR
		case 0x7:
			op = OP_SUBN
		case 0xE:
			op = OP_SHL
		}
	case 0x9:
		if code.N() == 0 {
			op = OP_SNE_REG
		}
	case 0xA:
		op = OP_LD_I
	case 0xB:
		op = OP_JP_V0
	case 0xC:
		op = OP_RND
	case 0xD:
		op = OP_DRW
	case 0xE:
		switch code.KK() {
		case 0x9E:
			op = OP_SKP
		case 0xA1:
			op = OP_SKNP
		}
	case 0xF:
		switch code.KK() {
		case 0x07:
			op = OP_LD_VX_DT
		case 0x0A:
			op = OP_LD_VX_K
		case 0x15:
			op = OP_LD_DT_VX
		case 0x18:
			op = OP_LD_ST_VX
		case 0x1E:
			op = OP_ADD_I
		case 0x29:
			op = OP_LD_F
		case 0x33:
			op = OP_LD_B
		case 0x55:
			op = OP_LD_MEM_VX
		case 0x65:
			op = OP_LD_VX_MEM
		}
	}

	return
}

// String returns the assembly language representation of this instruction.
// Words that do not decode are shown as a data word.
func (code Code) String() string {
	op := code.Op()
	info := opTable[op]

	switch info.form {
	case FORM_NNN:
		return fmt.Sprintf(info.format, code.NNN())
	case FORM_XKK:
		return fmt.Sprintf(info.format, code.X(), code.KK())
	case FORM_XY:
		return fmt.Sprintf(info.format, code.X(), code.Y())
	case FORM_XYN:
		return fmt.Sprintf(info.format, code.X(), code.Y(), code.N())
	case FORM_X:
		return fmt.Sprintf(info.format, code.X())
	case FORM_WORD:
		return fmt.Sprintf(info.format, uint16(code))
	}

	return info.format
}
