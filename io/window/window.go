// Package window is an ebiten frontend for the CHIP-8 emulator.
//
// The ebiten game loop runs on its own goroutine. The emulator hands it
// frames through Render and reads keys through Poll, both under a mutex;
// Poll blocks until the next vsync, so the window paces the emulator.
package window

import (
	"fmt"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/io"
)

const (
	SCALE     = 20       // Default window pixels per display pixel.
	COLOR_OFF = 0x2E3440 // Unlit pixel color.
	COLOR_ON  = 0x4C566A // Lit pixel color.
	TITLE     = "CHIP-8" // Default window title.

	TITLE_REFRESH = time.Second // Frame rate refresh interval of the title.
)

// keyMap maps the left hand block of a QWERTY keyboard to the keypad, the
// same way as io.KeyMap.
var keyMap = map[ebiten.Key]uint8{
	ebiten.Key1: 0x1, ebiten.Key2: 0x2, ebiten.Key3: 0x3, ebiten.Key4: 0xc,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xd,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xe,
	ebiten.KeyZ: 0xa, ebiten.KeyX: 0x0, ebiten.KeyC: 0xb, ebiten.KeyV: 0xf,
}

// rgba converts a 0xRRGGBB color.
func rgba(c uint32) color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xff}
}

// Window is an ebiten window frontend.
type Window struct {
	Verbose bool
	Scale   int    // Window pixels per display pixel.
	Title   string // Window title. The frame rate is appended.
	Overlay bool   // Show the status line. Toggled with F1.

	mutex   sync.Mutex
	frame   []byte // RGBA pixels of the display.
	status  string
	keys    io.Keys
	quit    bool
	running bool

	screen *ebiten.Image
	vsync  chan struct{}
	done   chan struct{}

	now    func() time.Time
	titled time.Time // Time of the last title refresh.
	shown  string    // Title last set.
}

var _ io.Frontend = (*Window)(nil)

// NewWindow creates a window frontend. Start must be called to open it.
func NewWindow(scale int) (win *Window) {
	if scale < 1 {
		scale = SCALE
	}

	win = &Window{
		Scale: scale,
		Title: TITLE,
		frame: make([]byte, display.WIDTH*display.HEIGHT*4),
		vsync: make(chan struct{}, 1),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	win.paint(display.NewDisplay())

	return
}

// Start opens the window, and runs the game loop on its own goroutine.
// Returns after the first frame is drawn.
func (win *Window) Start() (err error) {
	win.mutex.Lock()
	if win.running {
		win.mutex.Unlock()
		return
	}
	win.running = true
	win.mutex.Unlock()

	ebiten.SetWindowSize(display.WIDTH*win.Scale, display.HEIGHT*win.Scale)
	ebiten.SetWindowTitle(win.Title)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	go func() {
		defer func() {
			win.mutex.Lock()
			win.running = false
			win.quit = true
			win.mutex.Unlock()
			close(win.done)
		}()
		err := ebiten.RunGame(win)
		if err != nil {
			log.Printf("window: %v", err)
		}
	}()

	// Wait for first Draw call to ensure ebiten is ready
	select {
	case <-win.vsync:
	case <-win.done:
	}

	return
}

// Close ends the game loop.
func (win *Window) Close() (err error) {
	win.mutex.Lock()
	running := win.running
	win.running = false
	win.mutex.Unlock()

	if running {
		<-win.done
	}

	return
}

// SetStatus sets the text of the status line.
func (win *Window) SetStatus(status string) {
	win.mutex.Lock()
	win.status = status
	win.mutex.Unlock()
}

// paint converts the display into RGBA pixels.
func (win *Window) paint(disp *display.Display) {
	on := rgba(COLOR_ON)
	off := rgba(COLOR_OFF)

	for y, row := range disp.Rows() {
		for x, lit := range row {
			c := off
			if lit {
				c = on
			}
			offset := (y*display.WIDTH + x) * 4
			win.frame[offset+0] = c.R
			win.frame[offset+1] = c.G
			win.frame[offset+2] = c.B
			win.frame[offset+3] = c.A
		}
	}
}

// Render hands the display to the game loop.
func (win *Window) Render(disp *display.Display) (err error) {
	win.mutex.Lock()
	win.paint(disp)
	win.mutex.Unlock()

	return
}

// Poll waits for the next vsync.
func (win *Window) Poll() (err error) {
	win.mutex.Lock()
	running := win.running
	win.mutex.Unlock()

	if !running {
		return
	}

	select {
	case <-win.vsync:
	case <-win.done:
	}

	return
}

// Keys returns the key state as of the last game loop update.
func (win *Window) Keys() (keys io.Keys) {
	win.mutex.Lock()
	keys = win.keys
	win.mutex.Unlock()

	return
}

// Quit returns true once Escape was pressed or the window was closed.
func (win *Window) Quit() (quit bool) {
	win.mutex.Lock()
	quit = win.quit
	win.mutex.Unlock()

	return
}

// Update implements ebiten.Game.
func (win *Window) Update() error {
	win.mutex.Lock()
	defer win.mutex.Unlock()

	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if win.Verbose {
			log.Printf("window: quit")
		}
		win.quit = true
	}

	if win.quit || !win.running {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		win.Overlay = !win.Overlay
	}

	for key, code := range keyMap {
		win.keys[code] = ebiten.IsKeyPressed(key)
	}

	title, changed := win.title(ebiten.ActualFPS())
	if changed {
		ebiten.SetWindowTitle(title)
	}

	return nil
}

// title returns the window title with the frame rate, at most once per
// TITLE_REFRESH. changed is false if the title need not be set.
func (win *Window) title(fps float64) (title string, changed bool) {
	now := win.now()
	if !win.titled.IsZero() && now.Sub(win.titled) < TITLE_REFRESH {
		return
	}
	win.titled = now

	title = fmt.Sprintf("%v - %.0f FPS", win.Title, fps)
	if title == win.shown {
		return
	}
	win.shown = title
	changed = true

	return
}

// Draw implements ebiten.Game.
func (win *Window) Draw(screen *ebiten.Image) {
	if win.screen == nil {
		win.screen = ebiten.NewImage(display.WIDTH, display.HEIGHT)
	}

	win.mutex.Lock()
	win.screen.WritePixels(win.frame)
	overlay := win.Overlay
	status := win.status
	win.mutex.Unlock()

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(win.Scale), float64(win.Scale))
	screen.DrawImage(win.screen, opts)

	if overlay && len(status) != 0 {
		text.Draw(screen, status, basicfont.Face7x13, 4, 14, color.White)
	}

	select {
	case win.vsync <- struct{}{}:
	default:
	}
}

// Layout implements ebiten.Game.
func (win *Window) Layout(_, _ int) (int, int) {
	return display.WIDTH * win.Scale, display.HEIGHT * win.Scale
}
