package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Bytes: image(MakeCode(OP_LD_IMM, 0, 0x10))},
			{LineNo: 2, Addr: 0x202, Words: []string{"db", "1", "2", "3"},
				Bytes: []byte{1, 2, 3}, Data: true},
			{LineNo: 3, Addr: 0x205, Words: []string{".align"},
				Bytes: []byte{0}, Data: true},
			{LineNo: 5, Addr: 0x206, Words: []string{"add", "v0", "v1"},
				Bytes: image(MakeCode(OP_ADD_REG, 0, 1))},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0x200)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Offset)

	dbg = prog.Debug(0x201)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(1, dbg.Offset)

	dbg = prog.Debug(0x204)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(2, dbg.Offset)

	dbg = prog.Debug(0x206)
	assert.NotNil(dbg.Opcode)
	assert.Equal(5, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Offset)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0x1fe)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Offset)

	dbg = prog.Debug(0x208)
	assert.Nil(dbg.Opcode)

	dbg = (&Program{}).Debug(0x200)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()
	assert.Equal([]byte{0x60, 0x10, 1, 2, 3, 0, 0x80, 0x14}, prog.Binary())

	// Gaps are zero filled.
	prog = &Program{
		Opcodes: []Opcode{
			{Addr: 0x204, Bytes: []byte{0x12, 0x04}},
		},
	}
	assert.Equal([]byte{0, 0, 0, 0, 0x12, 0x04}, prog.Binary())

	assert.Nil((&Program{}).Binary())
}

func TestProgram_String(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	lines := strings.Split(strings.TrimSuffix(prog.String(), "\n"), "\n")
	assert.Equal(4, len(lines))
	assert.Equal("200 6010            1: ld v0 0x10", lines[0])
	assert.Equal("202 010203          2: db 1 2 3", lines[1])
	assert.True(strings.HasSuffix(lines[3], "5: add v0 v1"))
}
