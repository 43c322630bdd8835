package io

import (
	"cmp"
	"log"
	"slices"

	"github.com/ezrec/chip8/display"
)

// KeyEvent is a scripted key change.
type KeyEvent struct {
	Frame int   // Poll at which the change applies, counting from 1.
	Key   uint8 // Key number.
	Down  bool  // New key state.
}

// Headless is a frontend with no output. Key presses are scripted, and
// it can quit after a fixed number of frames.
type Headless struct {
	Verbose bool
	Limit   int        // Quit after this many polls. Zero never quits.
	Script  []KeyEvent // Pending key events, ordered by frame.

	Frames  int             // Polls so far.
	Renders int             // Renders so far.
	Screen  display.Display // Copy of the last rendered display.

	keys Keys
	quit bool
}

var _ Frontend = (*Headless)(nil)

// Press scripts a key to go down at a frame, and up hold frames later.
func (hl *Headless) Press(frame int, key uint8, hold int) (err error) {
	if key >= KEY_COUNT {
		err = ErrKeyInvalid
		return
	}

	hl.Script = append(hl.Script,
		KeyEvent{Frame: frame, Key: key, Down: true},
		KeyEvent{Frame: frame + max(hold, 1), Key: key, Down: false},
	)
	slices.SortStableFunc(hl.Script, func(a, b KeyEvent) int {
		return cmp.Compare(a.Frame, b.Frame)
	})

	return
}

// RequestQuit makes Quit return true.
func (hl *Headless) RequestQuit() {
	hl.quit = true
}

// Render keeps a copy of the display.
func (hl *Headless) Render(disp *display.Display) (err error) {
	hl.Renders++
	hl.Screen = *disp

	if hl.Verbose {
		log.Printf("headless: render %d, %d pixels lit", hl.Renders, disp.Lit())
	}

	return
}

// Poll applies the scripted key events that are due.
func (hl *Headless) Poll() (err error) {
	hl.Frames++

	for len(hl.Script) > 0 && hl.Script[0].Frame <= hl.Frames {
		event := hl.Script[0]
		hl.Script = hl.Script[1:]
		hl.keys[event.Key&0xf] = event.Down

		if hl.Verbose {
			log.Printf("headless: frame %d, key %X down %v", hl.Frames, event.Key, event.Down)
		}
	}

	if hl.Limit > 0 && hl.Frames >= hl.Limit {
		hl.quit = true
	}

	return
}

// Keys returns the key state as of the last Poll.
func (hl *Headless) Keys() Keys {
	return hl.keys
}

// Quit returns true when the frame limit is reached or a quit was requested.
func (hl *Headless) Quit() bool {
	return hl.quit
}
