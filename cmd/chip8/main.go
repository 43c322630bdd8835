// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/io/window"
)

func main() {
	var rom string
	var compile string
	var save string
	var frontend string
	var quota int
	var fps int
	var scale int
	var frames int
	var seed uint64
	var verbose bool

	flag.StringVar(&rom, "r", "", "ROM file to run")
	flag.StringVar(&compile, "c", "", "Assembly file to compile")
	flag.StringVar(&save, "s", "", "Save compiled ROM to file, do not execute")
	flag.StringVar(&frontend, "f", "window", "Frontend: window, terminal or headless")
	flag.IntVar(&quota, "q", emulator.INSTRUCTIONS_PER_FRAME, "Instructions per frame")
	flag.IntVar(&fps, "fps", io.TERMINAL_FPS, "Terminal frames per second")
	flag.IntVar(&scale, "scale", window.SCALE, "Window pixels per display pixel")
	flag.IntVar(&frames, "n", 0, "Headless frame limit, 0 for none")
	flag.Uint64Var(&seed, "seed", 0, "Random seed, 0 for random")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(rom) != 0 && len(compile) != 0 {
		log.Fatalf("%v: -r and -c are exclusive", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Rom.Verbose = verbose
	emu.Quota = quota
	if seed != 0 {
		emu.Cpu.Seed(seed)
	}

	// Compile a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		prog, err := emu.Assembler().Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu.Load(prog)
	}

	if len(rom) != 0 {
		err := emu.Rom.LoadFile(os.DirFS(filepath.Dir(rom)), filepath.Base(rom))
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
	}

	if len(save) != 0 {
		err := emu.Rom.SaveFile(io.DirFS(filepath.Dir(save)), filepath.Base(save))
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	if len(rom) == 0 && len(compile) == 0 {
		log.Fatalf("%v: one of -r or -c is required", os.Args[0])
	}

	var headless *io.Headless
	var status interface{ SetStatus(string) }

	switch frontend {
	case "window":
		win := window.NewWindow(scale)
		win.Verbose = verbose
		err := win.Start()
		if err != nil {
			log.Fatalf("window: %v", err)
		}
		emu.Frontend = win
		status = win
	case "terminal":
		tm := io.NewTerminal(os.Stdout, fps)
		tm.Verbose = verbose
		err := tm.Start()
		if err != nil {
			log.Fatalf("terminal: %v", err)
		}
		emu.Frontend = tm
	case "headless":
		headless = &io.Headless{Verbose: verbose, Limit: frames}
		emu.Frontend = headless
	default:
		log.Fatalf("%v: unknown frontend '%v'", os.Args[0], frontend)
	}

	err := emu.Reset()
	if err == nil {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = run(ctx, emu, status)
		stop()
	}

	// Restore the terminal before reporting.
	emu.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		if verbose {
			log.Print(emu.Cpu.String())
		}
		log.Fatal(err)
	}

	if headless != nil {
		fmt.Print(headless.Screen.String())
	}
}

// run frames until done, updating the status line if there is one.
func run(ctx context.Context, emu *emulator.Emulator, status interface{ SetStatus(string) }) (err error) {
	if status == nil {
		return emu.Run(ctx)
	}

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

		status.SetStatus(fmt.Sprintf("%03X %v  dt:%02X st:%02X  keys:%v",
			emu.Cpu.Pc, emu.Code(), emu.Cpu.Delay, emu.Cpu.Sound, emu.Frontend.Keys()))
	}
}
