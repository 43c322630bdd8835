// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package display implements the 64x32 monochrome frame buffer of the CHIP-8.
package display

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"
)

const (
	WIDTH  = 64 // Display width, in pixels.
	HEIGHT = 32 // Display height, in pixels.
)

var _display_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", HEIGHT),
}

// Display frame buffer.
type Display struct {
	Verbose bool
	Pixel   [HEIGHT][WIDTH]bool // Pixel state, row major.
	Dirty   bool                // Set when Pixel changed since last render.

	PixelsFlipped int // Count of pixels changed by the last Draw or Clear.
}

// NewDisplay creates a cleared display.
func NewDisplay() (disp *Display) {
	disp = &Display{}
	return
}

// Defines for the display.
func (disp *Display) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Reset clears all pixels, and the dirty flag.
func (disp *Display) Reset() {
	clear(disp.Pixel[:])
	disp.Dirty = false
	disp.PixelsFlipped = 0
}

// Clear turns off every pixel, and marks the display dirty.
func (disp *Display) Clear() {
	disp.PixelsFlipped = disp.Lit()
	disp.Pixel = [HEIGHT][WIDTH]bool{}
	disp.Dirty = true

	if disp.Verbose {
		log.Printf("display: clear (%d)", disp.PixelsFlipped)
	}
}

// At returns the state of the pixel at x, y. Coordinates wrap.
func (disp *Display) At(x, y int) bool {
	return disp.Pixel[wrap(y, HEIGHT)][wrap(x, WIDTH)]
}

// Lit returns the number of pixels that are on.
func (disp *Display) Lit() (count int) {
	for _, row := range disp.Pixel {
		for _, pixel := range row {
			if pixel {
				count++
			}
		}
	}
	return
}

// Draw XORs an 8 pixel wide sprite, one byte per row with the MSB leftmost,
// at x, y. The origin is taken modulo the display size, and the sprite wraps
// around both edges.
// Returns true if any pixel that was on was turned off.
func (disp *Display) Draw(x, y uint8, sprite []byte) (collision bool) {
	x0 := int(x) % WIDTH
	y0 := int(y) % HEIGHT

	disp.PixelsFlipped = 0
	for row, bits := range sprite {
		line := &disp.Pixel[(y0+row)%HEIGHT]
		for col := range 8 {
			if (bits & (0x80 >> col)) == 0 {
				continue
			}
			pixel := &line[(x0+col)%WIDTH]
			if *pixel {
				collision = true
			}
			*pixel = !*pixel
			disp.PixelsFlipped++
		}
	}

	disp.Dirty = true

	if disp.Verbose {
		log.Printf("display: draw %d rows at (%d,%d) flipped:%d collision:%v", len(sprite), x0, y0, disp.PixelsFlipped, collision)
	}

	return
}

// Rows returns an iterator over the pixel rows.
func (disp *Display) Rows() iter.Seq2[int, []bool] {
	return func(yield func(y int, row []bool) bool) {
		for y := range disp.Pixel {
			if !yield(y, disp.Pixel[y][:]) {
				return
			}
		}
	}
}

// String renders the display as text, with a border.
func (disp *Display) String() string {
	var sb strings.Builder

	border := "+" + strings.Repeat("-", WIDTH) + "+\n"

	sb.WriteString(border)
	for _, row := range disp.Rows() {
		sb.WriteByte('|')
		for _, pixel := range row {
			if pixel {
				sb.WriteString("█")
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)

	return sb.String()
}

func wrap(value, size int) int {
	value %= size
	if value < 0 {
		value += size
	}
	return value
}
