package io

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/ezrec/chip8/display"
)

const (
	KEY_HOLD     = 150 * time.Millisecond // Default key release delay.
	TERMINAL_FPS = 60                     // Default frame rate.
	INPUT_BUFFER = 64                     // Input bytes buffered between polls.
)

const (
	ansiHome       = "\x1b[H"
	ansiClear      = "\x1b[2J"
	ansiHideCursor = "\x1b[?25l"
	ansiShowCursor = "\x1b[?25h"
)

// Terminal is a frontend on a raw mode text terminal.
//
// The display is drawn with half block characters, two pixel rows per text
// line. Terminals report key presses but not releases, so a key is held
// down until Hold has passed since its last repeat. Escape or Ctrl-C quits.
type Terminal struct {
	Verbose bool
	Output  io.Writer     // Render destination.
	Hold    time.Duration // Keys are released this long after their last byte.
	FPS     int           // Poll pacing. Zero does not pace.

	input   chan byte
	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once
	started bool

	fd           int
	nonblockSet  bool
	oldTermState *term.State

	ticker *time.Ticker
	now    func() time.Time
	seen   [KEY_COUNT]time.Time
	keys   Keys
	quit   bool
}

var _ Frontend = (*Terminal)(nil)

// NewTerminal creates a terminal frontend rendering to output.
// Start must be called to read the keyboard.
func NewTerminal(output io.Writer, fps int) (tm *Terminal) {
	tm = &Terminal{
		Output: output,
		Hold:   KEY_HOLD,
		FPS:    fps,
		input:  make(chan byte, INPUT_BUFFER),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		now:    time.Now,
	}

	return
}

// Start puts stdin in raw mode and begins reading keys.
// Call Close to restore the terminal.
func (tm *Terminal) Start() (err error) {
	tm.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(tm.fd) {
		err = ErrNotTerminal
		return
	}

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err == nil && (width < display.WIDTH || height < display.HEIGHT/2+1) {
		log.Printf("terminal: %dx%d is smaller than the %dx%d display", width, height, display.WIDTH, display.HEIGHT/2+1)
	}

	oldState, err := term.MakeRaw(tm.fd)
	if err != nil {
		return
	}
	tm.oldTermState = oldState

	err = tm.startReader()
	if err != nil {
		_ = term.Restore(tm.fd, tm.oldTermState)
		tm.oldTermState = nil
		return
	}
	tm.started = true

	fmt.Fprint(tm.Output, ansiHideCursor+ansiClear)

	return
}

// Close stops reading keys and restores the terminal.
func (tm *Terminal) Close() (err error) {
	tm.stopped.Do(func() {
		close(tm.stopCh)
	})

	if tm.started {
		tm.stopReader()
		tm.started = false
	}

	if tm.oldTermState != nil {
		err = term.Restore(tm.fd, tm.oldTermState)
		tm.oldTermState = nil
	}

	if tm.ticker != nil {
		tm.ticker.Stop()
		tm.ticker = nil
	}

	fmt.Fprint(tm.Output, ansiShowCursor+"\r\n")

	return
}

// Feed delivers a byte of keyboard input. Input is dropped if the buffer
// is full.
func (tm *Terminal) Feed(b byte) {
	select {
	case tm.input <- b:
	default:
	}
}

// Render draws the display.
func (tm *Terminal) Render(disp *display.Display) (err error) {
	var sb strings.Builder

	sb.WriteString(ansiHome)
	for y := 0; y < display.HEIGHT; y += 2 {
		for x := range display.WIDTH {
			top := disp.Pixel[y][x]
			bottom := y+1 < display.HEIGHT && disp.Pixel[y+1][x]
			switch {
			case top && bottom:
				sb.WriteString("█")
			case top:
				sb.WriteString("▀")
			case bottom:
				sb.WriteString("▄")
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}

	_, err = io.WriteString(tm.Output, sb.String())

	return
}

// Poll waits for the next frame, then updates the key state from the
// buffered input.
func (tm *Terminal) Poll() (err error) {
	if tm.FPS > 0 {
		if tm.ticker == nil {
			tm.ticker = time.NewTicker(time.Second / time.Duration(tm.FPS))
		}
		<-tm.ticker.C
	}

	now := tm.now()

	for drained := false; !drained; {
		select {
		case b := <-tm.input:
			switch b {
			case 0x1b, 0x03:
				if tm.Verbose {
					log.Printf("terminal: quit")
				}
				tm.quit = true
			default:
				key, ok := KeyOf(rune(b))
				if ok {
					tm.seen[key] = now
				}
			}
		default:
			drained = true
		}
	}

	for n, seen := range tm.seen {
		tm.keys[n] = !seen.IsZero() && now.Sub(seen) < tm.Hold
	}

	return
}

// Keys returns the key state as of the last Poll.
func (tm *Terminal) Keys() Keys {
	return tm.keys
}

// Quit returns true once Escape or Ctrl-C was read.
func (tm *Terminal) Quit() bool {
	return tm.quit
}
