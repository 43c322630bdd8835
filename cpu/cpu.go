package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"
	"strings"

	"github.com/ezrec/chip8/display"
)

const (
	MEMORY_SIZE    = 0x1000                      // Bytes of addressable memory.
	PROGRAM_START  = 0x200                       // Load address of programs.
	PROGRAM_LIMIT  = MEMORY_SIZE - PROGRAM_START // Maximum program size.
	REGISTER_COUNT = 16                          // Number of v registers.
	REGISTER_FLAG  = 0xf                         // Carry, borrow and collision flag register.
	KEY_COUNT      = 16                          // Number of keypad keys.
	CODE_SIZE      = 2                           // Bytes per instruction word.
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%#x", MEMORY_SIZE),
	"PROGRAM_START": fmt.Sprintf("%#x", PROGRAM_START),
	"FONT_BASE":     fmt.Sprintf("%#x", FONT_BASE),
	"SPRITE_SIZE":   fmt.Sprintf("%v", SPRITE_SIZE),
	"STACK_LIMIT":   fmt.Sprintf("%v", STACK_LIMIT),
}

// KeyWait is the awaiting-key state entered by `ld vX k`.
// While Active, the CPU executes no instructions.
type KeyWait struct {
	Active   bool
	Register uint8 // Register to receive the key number.
}

// Cpu is the CHIP-8 machine state.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Display *display.Display // Reference to the display.

	Memory   [MEMORY_SIZE]byte     // Memory, with the font at FONT_BASE.
	Pc       uint16                // Address of the next instruction.
	Register [REGISTER_COUNT]uint8 // v0 - vf.
	Index    uint16                // Index register.
	Stack    Stack                 // Subroutine return addresses.
	Delay    uint8                 // Delay timer.
	Sound    uint8                 // Sound timer.
	Keys     [KEY_COUNT]bool       // Key-down state.
	Wait     KeyWait               // Awaiting-key state.

	Rand *rand.Rand // Source for `rnd`.

	Ticks int // Instructions executed since reset.
}

// NewCpu creates a CPU with an empty program loaded.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	_ = cpu.Reset(nil)

	return
}

// Seed replaces the random source with a deterministic one.
func (cpu *Cpu) Seed(seed uint64) {
	cpu.Rand = rand.New(rand.NewPCG(seed, seed))
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Zeros memory, and installs the font.
// - Copies the program to PROGRAM_START.
// - Clears the registers, stack, timers, keys, and display.
// - Sets the pc to PROGRAM_START.
func (cpu *Cpu) Reset(program []byte) (err error) {
	if len(program) > PROGRAM_LIMIT {
		err = ErrProgramSize
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: reset, %d byte program", len(program))
	}

	clear(cpu.Memory[:])
	copy(cpu.Memory[FONT_BASE:], Font[:])
	copy(cpu.Memory[PROGRAM_START:], program)

	cpu.Pc = PROGRAM_START
	clear(cpu.Register[:])
	cpu.Index = 0
	cpu.Stack.Reset()
	cpu.Delay = 0
	cpu.Sound = 0
	clear(cpu.Keys[:])
	cpu.Wait = KeyWait{}
	cpu.Ticks = 0

	if cpu.Display == nil {
		cpu.Display = display.NewDisplay()
	}
	cpu.Display.Verbose = cpu.Verbose
	cpu.Display.Reset()

	if cpu.Rand == nil {
		cpu.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "   pc: %03X\n", cpu.Pc)
	fmt.Fprintf(&sb, "    i: %03X\n", cpu.Index)
	for n, reg := range cpu.Register {
		fmt.Fprintf(&sb, "   v%X: %02X\n", n, reg)
	}

	var stack []string
	for addr := range cpu.Stack.All() {
		stack = append(stack, fmt.Sprintf("%03X", addr))
	}
	if len(stack) == 0 {
		stack = []string{"---"}
	}
	fmt.Fprintf(&sb, "stack: %v\n", strings.Join(stack, " "))
	fmt.Fprintf(&sb, "   dt: %02X\n", cpu.Delay)
	fmt.Fprintf(&sb, "   st: %02X\n", cpu.Sound)
	if cpu.Wait.Active {
		fmt.Fprintf(&sb, " wait: v%X\n", cpu.Wait.Register)
	} else {
		fmt.Fprintf(&sb, " wait: -\n")
	}

	return sb.String()
}

// Waiting returns true while the CPU is awaiting a key press.
func (cpu *Cpu) Waiting() bool {
	return cpu.Wait.Active
}

// PressKey delivers a key press to a waiting CPU, storing the key number in
// the waiting register and resuming execution past the `ld vX k`.
// Returns false if the CPU was not waiting.
func (cpu *Cpu) PressKey(key uint8) (ok bool) {
	if !cpu.Wait.Active {
		return
	}

	cpu.Register[cpu.Wait.Register] = key & 0xf
	cpu.Wait = KeyWait{}
	cpu.Pc += CODE_SIZE

	if cpu.Verbose {
		log.Printf("cpu: key %X pressed", key&0xf)
	}

	return true
}

// TickTimers decrements the delay and sound timers, stopping at zero.
func (cpu *Cpu) TickTimers() {
	if cpu.Delay > 0 {
		cpu.Delay--
	}
	if cpu.Sound > 0 {
		cpu.Sound--
	}
}

// FetchCode fetches the instruction word at the pc.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if cpu.Pc > MEMORY_SIZE-CODE_SIZE {
		err = ErrPcRange
		return
	}
	if (cpu.Pc & 1) != 0 {
		err = ErrPcAlign
		return
	}

	code = Code(binary.BigEndian.Uint16(cpu.Memory[cpu.Pc:]))

	return
}

// Tick executes a single instruction.
// A CPU awaiting a key does not advance.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Wait.Active {
		return
	}

	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)

	return
}

// memory returns the memory at addr, with length bytes.
func (cpu *Cpu) memory(addr uint16, length int) (mem []byte, err error) {
	if int(addr)+length > MEMORY_SIZE {
		err = ErrMemoryRange
		return
	}

	mem = cpu.Memory[int(addr) : int(addr)+length]
	return
}

// setFlag sets vf to 1 or 0.
func (cpu *Cpu) setFlag(flag bool) {
	cpu.Register[REGISTER_FLAG] = 0
	if flag {
		cpu.Register[REGISTER_FLAG] = 1
	}
}

// setFlagged writes a result register, then the flag register.
// When reg is vf, the flag wins.
func (cpu *Cpu) setFlagged(reg uint8, value uint8, flag bool) {
	cpu.Register[reg] = value
	cpu.setFlag(flag)
}

// Execute executes a single instruction word at the current pc.
// On error, the CPU state is unchanged.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	x := code.X()
	y := code.Y()
	vx := cpu.Register[x]
	vy := cpu.Register[y]

	next_pc := cpu.Pc + CODE_SIZE

	skip := func(cond bool) {
		if cond {
			next_pc += CODE_SIZE
		}
	}

	switch code.Op() {
	case OP_CLS:
		cpu.Display.Clear()
	case OP_RET:
		var ok bool
		next_pc, ok = cpu.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			return
		}
	case OP_JP:
		next_pc = code.NNN()
	case OP_CALL:
		if !cpu.Stack.Push(next_pc) {
			err = ErrStackFull
			return
		}
		next_pc = code.NNN()
	case OP_SE_IMM:
		skip(vx == code.KK())
	case OP_SNE_IMM:
		skip(vx != code.KK())
	case OP_SE_REG:
		skip(vx == vy)
	case OP_LD_IMM:
		cpu.Register[x] = code.KK()
	case OP_ADD_IMM:
		cpu.Register[x] = vx + code.KK()
	case OP_LD_REG:
		cpu.Register[x] = vy
	case OP_OR:
		cpu.Register[x] = vx | vy
	case OP_AND:
		cpu.Register[x] = vx & vy
	case OP_XOR:
		cpu.Register[x] = vx ^ vy
	case OP_ADD_REG:
		sum := uint16(vx) + uint16(vy)
		cpu.setFlagged(x, uint8(sum), sum > 0xff)
	case OP_SUB:
		cpu.setFlagged(x, vx-vy, vx > vy)
	case OP_SHR:
		cpu.setFlagged(x, vx>>1, (vx&0x01) != 0)
	case OP_SUBN:
		cpu.setFlagged(y, vy-vx, vy > vx)
	case OP_SHL:
		cpu.setFlagged(x, vx<<1, (vx&0x80) != 0)
	case OP_SNE_REG:
		skip(vx != vy)
	case OP_LD_I:
		cpu.Index = code.NNN()
	case OP_JP_V0:
		next_pc = code.NNN() + uint16(cpu.Register[0])
	case OP_RND:
		cpu.Register[x] = uint8(cpu.Rand.UintN(256)) & code.KK()
	case OP_DRW:
		var sprite []byte
		sprite, err = cpu.memory(cpu.Index, int(code.N()))
		if err != nil {
			return
		}
		cpu.setFlag(cpu.Display.Draw(vx, vy, sprite))
	case OP_SKP:
		skip(cpu.Keys[vx&0xf])
	case OP_SKNP:
		skip(!cpu.Keys[vx&0xf])
	case OP_LD_VX_DT:
		cpu.Register[x] = cpu.Delay
	case OP_LD_VX_K:
		cpu.Wait = KeyWait{Active: true, Register: x}
		next_pc = cpu.Pc
	case OP_LD_DT_VX:
		cpu.Delay = vx
	case OP_LD_ST_VX:
		cpu.Sound = vx
	case OP_ADD_I:
		cpu.Index += uint16(vx)
	case OP_LD_F:
		cpu.Index = FontAddress(vx)
	case OP_LD_B:
		var bcd []byte
		bcd, err = cpu.memory(cpu.Index, 3)
		if err != nil {
			return
		}
		bcd[0] = vx / 100
		bcd[1] = (vx / 10) % 10
		bcd[2] = vx % 10
	case OP_LD_MEM_VX:
		var mem []byte
		mem, err = cpu.memory(cpu.Index, int(x)+1)
		if err != nil {
			return
		}
		copy(mem, cpu.Register[:x+1])
	case OP_LD_VX_MEM:
		var mem []byte
		mem, err = cpu.memory(cpu.Index, int(x)+1)
		if err != nil {
			return
		}
		copy(cpu.Register[:x+1], mem)
	default:
		err = ErrOpcodeInvalid
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}
