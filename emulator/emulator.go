// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

const (
	INSTRUCTIONS_PER_FRAME = 100 // Default instruction quota of a frame.
)

var _emulator_defines = map[string]string{
	"INSTRUCTIONS_PER_FRAME": fmt.Sprintf("%v", INSTRUCTIONS_PER_FRAME),
}

// Emulator state. CPU + ROM + frontend.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Rom      io.Rom      // Program image loaded at reset.
	Frontend io.Frontend // Display and keypad.

	Quota  int // Instructions per frame.
	Frames int // Frames run since reset.

	lastKeys io.Keys
}

// NewEmulator creates a new emulator, with a headless frontend.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:      cpu.NewCpu(),
		Program:  &cpu.Program{},
		Frontend: &io.Headless{},
		Quota:    INSTRUCTIONS_PER_FRAME,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.MergeDefines(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Cpu.Display.Defines(),
	)
}

// Assembler returns an assembler with the emulator's defines predefined,
// in name order.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range internal.SortedDefines(emu.Defines()) {
		if emu.Verbose {
			log.Printf("emulator: .equ %v %v", equ, value)
		}
		asm.Predefine(equ, value)
	}

	return
}

// Load sets the program listing, and its image as the ROM.
func (emu *Emulator) Load(prog *cpu.Program) {
	emu.Program = prog
	emu.Rom.Data = prog.Binary()
}

// Close the emulator, and its frontend if it can be closed.
func (emu *Emulator) Close() (err error) {
	closer, ok := emu.Frontend.(interface{ Close() error })
	if ok {
		err = closer.Close()
	}

	return
}

// Reset the machine, and load the ROM.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Reset(emu.Rom.Data)
	if err != nil {
		return
	}

	emu.Frames = 0
	emu.lastKeys = io.Keys{}

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	code, _ := emu.Cpu.FetchCode()
	return code
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Frame runs one frame: up to Quota instructions, then the frame boundary.
// The frame boundary ticks the timers, renders a changed display, polls the
// frontend, and delivers a new key press to a CPU awaiting one.
// Returns done once the frontend requests quit.
func (emu *Emulator) Frame() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Display.Verbose = emu.Verbose

	for range emu.Quota {
		if emu.Cpu.Waiting() {
			break
		}

		pc, lineno := emu.Cpu.Pc, emu.LineNo()
		err = emu.Cpu.Tick()
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
			return
		}
	}

	emu.Cpu.TickTimers()

	disp := emu.Cpu.Display
	if disp.Dirty {
		err = emu.Frontend.Render(disp)
		if err != nil {
			return
		}
		disp.Dirty = false
	}

	err = emu.Frontend.Poll()
	if err != nil {
		return
	}

	keys := emu.Frontend.Keys()
	emu.Cpu.Keys = keys
	if emu.Cpu.Waiting() {
		key, ok := keys.Pressed(emu.lastKeys)
		if ok {
			emu.Cpu.PressKey(key)
		}
	}
	emu.lastKeys = keys

	emu.Frames++

	done = emu.Frontend.Quit()
	if done && emu.Verbose {
		log.Printf("emulator: quit after %d frames", emu.Frames)
	}

	return
}

// Run frames until the frontend requests quit, an error occurs, or the
// context is cancelled.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	for {
		err = ctx.Err()
		if err != nil {
			return
		}

		var done bool
		done, err = emu.Frame()
		if err != nil || done {
			return
		}
	}
}
