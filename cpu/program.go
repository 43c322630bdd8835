package cpu

import (
	"fmt"
	"strings"
)

// Link is a reference to a label, resolved after the whole source is read.
// The label address is merged into the NNN field of the word at Offset.
type Link struct {
	Offset int    // Byte offset of the word within Opcode.Bytes.
	Label  string // Label to resolve.
}

// Opcode is a single assembled source line.
type Opcode struct {
	LineNo int      // Source line number.
	Addr   uint16   // Address of the first byte.
	Words  []string // Source words, after expansion.
	Bytes  []byte   // Encoded bytes.
	Links  []Link   // Label references to resolve.
	Data   bool     // Set for db, dw and .align lines.
}

// Program is an assembled program listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the source line that generated an address.
type Debug struct {
	*Opcode
	Offset int // Byte offset of the address within the opcode.
}

// Debug returns the listing entry covering addr. The Opcode is nil if no
// entry covers addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && int(addr) < int(op.Addr)+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Offset: int(addr - op.Addr),
			}
			break
		}
	}

	return
}

// Binary returns the program image, to be loaded at PROGRAM_START.
func (prog *Program) Binary() (bin []byte) {
	for _, op := range prog.Opcodes {
		if len(op.Bytes) == 0 {
			continue
		}
		end := int(op.Addr) - PROGRAM_START + len(op.Bytes)
		if end > len(bin) {
			bin = append(bin, make([]byte, end-len(bin))...)
		}
		copy(bin[int(op.Addr)-PROGRAM_START:], op.Bytes)
	}

	return
}

// String returns a listing of the program, one line per opcode.
func (prog *Program) String() string {
	var sb strings.Builder

	for _, op := range prog.Opcodes {
		var hex []string
		for _, b := range op.Bytes {
			hex = append(hex, fmt.Sprintf("%02X", b))
		}
		fmt.Fprintf(&sb, "%03X %-12s %4d: %v\n", op.Addr, strings.Join(hex, ""), op.LineNo, strings.Join(op.Words, " "))
	}

	return sb.String()
}
