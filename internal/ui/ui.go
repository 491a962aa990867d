// Package ui is the presentation layer: a Fyne window raster-presents
// the PPU's 160x144 framebuffer and supplies the fixed keyboard event
// source the scheduler polls every batch of opcodes, while an SDL2
// audio device plays the samples the APU's resampler accumulates.
package ui

import (
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/veandco/go-sdl2/sdl"

	"gbcore/internal/emulator"
	"gbcore/internal/joypad"
	"gbcore/internal/ppu"
)

// MinZoom and MaxZoom bound the '+'/'-' window scale steps.
const (
	MinZoom = 1
	MaxZoom = 6
)

// keyBindings is spec.md's fixed key -> button mapping.
var keyBindings = map[fyne.KeyName]joypad.Button{
	fyne.KeyA:         joypad.A,
	fyne.KeyZ:         joypad.B,
	fyne.KeyReturn:    joypad.Start,
	fyne.KeyBackspace: joypad.Select,
	fyne.KeyUp:        joypad.Up,
	fyne.KeyDown:      joypad.Down,
	fyne.KeyLeft:      joypad.Left,
	fyne.KeyRight:     joypad.Right,
}

// UI owns the Fyne window/canvas and the SDL2 audio device. It also
// implements clock.EventSource, so it is built before the emulator
// exists; Attach supplies the back-pointer once the emulator is wired.
type UI struct {
	app    fyne.App
	window fyne.Window
	image  *canvas.Image
	frame  *image.RGBA
	scale  int

	audioDev sdl.AudioDeviceID

	emu     *emulator.Emulator
	quit    bool
	actions chan func()
}

// New opens the window and audio device at the given integer pixel
// scale.
func New(scale int) (*UI, error) {
	if scale < MinZoom {
		scale = MinZoom
	}
	if scale > MaxZoom {
		scale = MaxZoom
	}

	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("ui: sdl audio init: %w", err)
	}
	audioDev, err := openAudio()
	if err != nil {
		fmt.Printf("ui: audio unavailable: %v\n", err)
		audioDev = 0
	}

	fyneApp := app.NewWithID("dev.gbcore.emulator")
	window := fyneApp.NewWindow("gbcore")

	frame := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth*scale, ppu.ScreenHeight*scale))
	img := canvas.NewImageFromImage(frame)
	img.FillMode = canvas.ImageFillOriginal

	window.SetContent(img)
	window.Resize(fyne.NewSize(float32(ppu.ScreenWidth*scale), float32(ppu.ScreenHeight*scale)))
	window.SetFixedSize(true)
	window.CenterOnScreen()

	u := &UI{
		app:      fyneApp,
		window:   window,
		image:    img,
		frame:    frame,
		scale:    scale,
		audioDev: audioDev,
		actions:  make(chan func(), 8),
	}
	u.setupKeys()
	return u, nil
}

// Attach supplies the emulator instance this UI drives, once it has
// been constructed around this UI as its event source.
func (u *UI) Attach(emu *emulator.Emulator) {
	u.emu = emu
	u.window.SetTitle(fmt.Sprintf("gbcore - %s", emu.Title()))
}

func (u *UI) setupKeys() {
	c, ok := u.window.Canvas().(desktop.Canvas)
	if !ok {
		return
	}
	c.SetOnKeyDown(func(ev *fyne.KeyEvent) { u.handleKey(ev.Name, true) })
	c.SetOnKeyUp(func(ev *fyne.KeyEvent) { u.handleKey(ev.Name, false) })
	u.window.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case '+':
			u.enqueueZoom(u.scale + 1)
		case '-':
			u.enqueueZoom(u.scale - 1)
		}
	})
}

func (u *UI) handleKey(name fyne.KeyName, down bool) {
	if btn, ok := keyBindings[name]; ok {
		u.emu.SetKey(btn, down)
		return
	}
	if !down {
		return
	}
	switch name {
	case fyne.KeyEscape:
		u.quit = true
	case fyne.KeyF1:
		u.enqueue(func() {
			err := u.emu.LoadStateFromFile()
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(fmt.Errorf("restore state: %w", err), u.window)
				}
			})
		})
	case fyne.KeyF2:
		u.enqueue(func() {
			err := u.emu.SaveStateToFile()
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(fmt.Errorf("save state: %w", err), u.window)
				}
			})
		})
	case fyne.KeyF10:
		u.enqueue(func() { u.emu.ToggleDisassembly() })
	}
}

// enqueue schedules fn to run on the emulation goroutine, between
// opcode batches, so hotkey-triggered state mutation never races the
// running CPU.
func (u *UI) enqueue(fn func()) {
	select {
	case u.actions <- fn:
	default:
	}
}

func (u *UI) enqueueZoom(scale int) {
	if scale < MinZoom || scale > MaxZoom {
		return
	}
	u.enqueue(func() { u.setZoom(scale) })
}

func (u *UI) setZoom(scale int) {
	u.scale = scale
	u.frame = image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth*scale, ppu.ScreenHeight*scale))
	fyne.Do(func() {
		u.image.Image = u.frame
		u.window.Resize(fyne.NewSize(float32(ppu.ScreenWidth*scale), float32(ppu.ScreenHeight*scale)))
		u.image.Refresh()
	})
}

// Poll implements clock.EventSource. Host events arrive through Fyne's
// own callbacks rather than a pump, so Poll only reports whether the
// user asked to quit.
func (u *UI) Poll() (quit bool) {
	return u.quit
}

// Run starts the emulation goroutine and blocks on the Fyne event
// loop until the window closes.
func (u *UI) Run() error {
	defer u.Close()
	go u.runLoop()
	u.window.ShowAndRun()
	return nil
}

func (u *UI) runLoop() {
	for {
		select {
		case fn := <-u.actions:
			fn()
		default:
		}

		more, err := u.emu.RunBatch()
		if err != nil {
			fmt.Printf("ui: run batch: %v\n", err)
			break
		}
		if !more {
			break
		}
		if u.emu.FrameReady() {
			u.present()
		}
		u.queueAudio()
	}
	fyne.Do(func() { u.window.Close() })
}

// present copies the PPU's framebuffer into the display image at the
// current integer scale and refreshes the canvas.
func (u *UI) present() {
	buf := u.emu.OutputBuffer()
	pix := u.frame.Pix
	stride := u.frame.Stride
	scale := u.scale

	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			c := buf[y*ppu.ScreenWidth+x]
			r := uint8(c)
			g := uint8(c >> 8)
			b := uint8(c >> 16)

			baseX, baseY := x*scale, y*scale
			for sy := 0; sy < scale; sy++ {
				row := (baseY + sy) * stride
				for sx := 0; sx < scale; sx++ {
					off := row + (baseX+sx)*4
					pix[off] = r
					pix[off+1] = g
					pix[off+2] = b
					pix[off+3] = 0xFF
				}
			}
		}
	}

	fyne.Do(func() { u.image.Refresh() })
}

// Close releases the audio device and SDL.
func (u *UI) Close() {
	if u.audioDev != 0 {
		sdl.CloseAudioDevice(u.audioDev)
	}
	sdl.Quit()
}
