// Package io provides the ROM loader and the frontends of the CHIP-8
// emulator. A frontend shows the display and reports the keypad; the
// emulator talks to it once per frame. Headless (for tests and batch runs)
// and Terminal frontends live here, the window frontend is in io/window.
package io

import (
	"github.com/ezrec/chip8/display"
)

// Frontend is the display and input collaborator of the emulator.
type Frontend interface {
	// Render shows the display contents. Only called when the display is dirty.
	Render(disp *display.Display) error
	// Poll gathers input. Called once per frame.
	Poll() error
	// Keys returns the key state as of the last Poll.
	Keys() Keys
	// Quit returns true once the user has asked to quit.
	Quit() bool
}
