// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package display

import (
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	assert := assert.New(t)

	disp := NewDisplay()
	assert.False(disp.Dirty)
	assert.Equal(0, disp.Lit())

	defines := maps.Collect(disp.Defines())
	assert.Equal("64", defines["DISPLAY_WIDTH"])
	assert.Equal("32", defines["DISPLAY_HEIGHT"])
}

func TestDisplay_Draw(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name      string
		x, y      uint8
		sprite    []byte
		lit       [][2]int
		collision bool
	}){
		{"dot", 0, 0, []byte{0x80}, [][2]int{{0, 0}}, false},
		{"msb_left", 10, 5, []byte{0x81}, [][2]int{{10, 5}, {17, 5}}, false},
		{"rows", 3, 3, []byte{0x80, 0x40}, [][2]int{{3, 3}, {4, 4}}, false},
		{"wrap_x", 63, 0, []byte{0xff}, [][2]int{{63, 0}, {0, 0}, {1, 0}, {6, 0}}, false},
		{"wrap_y", 0, 31, []byte{0x80, 0x80}, [][2]int{{0, 31}, {0, 0}}, false},
		{"origin_mod", 64 + 2, 32 + 1, []byte{0x80}, [][2]int{{2, 1}}, false},
	}

	for _, entry := range table {
		disp := NewDisplay()
		collision := disp.Draw(entry.x, entry.y, entry.sprite)
		assert.Equal(entry.collision, collision, entry.name)
		assert.True(disp.Dirty, entry.name)
		for _, xy := range entry.lit {
			assert.True(disp.Pixel[xy[1]][xy[0]], "%v %v", entry.name, xy)
		}
	}
}

func TestDisplay_Draw_Collision(t *testing.T) {
	assert := assert.New(t)

	disp := NewDisplay()
	assert.False(disp.Draw(5, 5, []byte{0x80}))
	assert.True(disp.Pixel[5][5])

	assert.True(disp.Draw(5, 5, []byte{0x80}))
	assert.False(disp.Pixel[5][5])
	assert.Equal(0, disp.Lit())

	// Setting a new pixel is not a collision.
	assert.False(disp.Draw(5, 5, []byte{0xc0}))
	assert.Equal(2, disp.Lit())
	assert.True(disp.Draw(6, 5, []byte{0x80}))
	assert.Equal(1, disp.Lit())
}

func TestDisplay_Draw_Empty(t *testing.T) {
	assert := assert.New(t)

	disp := NewDisplay()
	assert.False(disp.Draw(0, 0, nil))
	assert.True(disp.Dirty)
	assert.Equal(0, disp.PixelsFlipped)
}

func TestDisplay_Clear(t *testing.T) {
	assert := assert.New(t)

	disp := NewDisplay()
	disp.Draw(0, 0, []byte{0xff, 0xff})
	disp.Dirty = false

	disp.Clear()
	assert.True(disp.Dirty)
	assert.Equal(0, disp.Lit())
	assert.Equal(16, disp.PixelsFlipped)

	disp.Reset()
	assert.False(disp.Dirty)
}

func TestDisplay_At(t *testing.T) {
	assert := assert.New(t)

	disp := NewDisplay()
	disp.Draw(63, 31, []byte{0x80})
	assert.True(disp.At(63, 31))
	assert.True(disp.At(-1, -1))
	assert.True(disp.At(127, 63))
	assert.False(disp.At(0, 0))
}

func TestDisplay_String(t *testing.T) {
	assert := assert.New(t)

	disp := NewDisplay()
	disp.Draw(0, 0, []byte{0x80})

	lines := strings.Split(strings.TrimSuffix(disp.String(), "\n"), "\n")
	assert.Len(lines, HEIGHT+2)
	assert.Equal("+"+strings.Repeat("-", WIDTH)+"+", lines[0])
	assert.True(strings.HasPrefix(lines[1], "|█ "))
	assert.Equal("|"+strings.Repeat(" ", WIDTH)+"|", lines[2])
}
