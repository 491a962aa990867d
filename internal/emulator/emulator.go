// Package emulator wires every component (cartridge, interrupt
// controller, timer, joypad, serial, PPU, APU, memory bus, CPU and
// scheduler) into one owned instance, per spec.md §5's
// one-system-object rule.
package emulator

import (
	"fmt"

	"gbcore/internal/apu"
	"gbcore/internal/cart"
	"gbcore/internal/clock"
	"gbcore/internal/cpu"
	"gbcore/internal/debug"
	"gbcore/internal/ic"
	"gbcore/internal/joypad"
	"gbcore/internal/memory"
	"gbcore/internal/ppu"
	"gbcore/internal/serial"
	"gbcore/internal/timer"
)

// Emulator owns every subsystem and the scheduler that drives them.
type Emulator struct {
	Cartridge *cart.Cartridge
	IC        *ic.Controller
	Timer     *timer.Timer
	Joypad    *joypad.Joypad
	Serial    *serial.Serial
	PPU       *ppu.PPU
	APU       *apu.APU
	Bus       *memory.Bus
	CPU       *cpu.CPU
	Logger    *debug.Logger

	scheduler *clock.Scheduler
	events    clock.EventSource
	cpuLog    *cpu.CPULoggerAdapter
	disasmOn  bool
}

// New loads romData and wires a complete emulator around it. events is
// the host's window/keyboard event source (spec.md's out-of-scope
// collaborator, injected here rather than imported).
func New(romData []byte, events clock.EventSource) (*Emulator, error) {
	cartridge, err := cart.Load(romData)
	if err != nil {
		return nil, fmt.Errorf("emulator: %w", err)
	}

	logger := debug.NewLogger()
	controller := ic.New()
	t := timer.New(controller)
	pad := joypad.New(controller)
	ser := serial.New(controller)
	video := ppu.New(controller)
	audio := apu.New()

	bus := memory.NewBus(cartridge, video, audio, t, pad, ser, controller)
	bus.SetLogger(logger)

	core := cpu.New(bus, controller)
	cpuLog := cpu.NewCPULoggerAdapter(logger, cpu.CPULogNone)
	core.SetLogger(cpuLog)
	pad.SetKeyDownHook(core.ClearStop)

	e := &Emulator{
		Cartridge: cartridge,
		IC:        controller,
		Timer:     t,
		Joypad:    pad,
		Serial:    ser,
		PPU:       video,
		APU:       audio,
		Bus:       bus,
		CPU:       core,
		Logger:    logger,
		events:    events,
		cpuLog:    cpuLog,
	}
	e.scheduler = clock.New(core, t, audio, video, ser, events, core.Stopped)
	return e, nil
}

// RunBatch executes one batch of opcodesPerBatch instructions, fans
// out their cycles, polls events and paces to real time. It returns
// false once the host has asked to quit.
func (e *Emulator) RunBatch() (bool, error) {
	return e.scheduler.RunBatch()
}

// OutputBuffer is the current 160x144 RGBA framebuffer, ready to
// present once FrameReady is true.
func (e *Emulator) OutputBuffer() []uint32 {
	return e.PPU.OutputBuffer[:]
}

// FrameReady reports whether the PPU finished a frame since the last
// call, clearing the flag.
func (e *Emulator) FrameReady() bool {
	ready := e.PPU.FrameReady
	e.PPU.FrameReady = false
	return ready
}

// DrainAudio returns (and clears) the interleaved int16 stereo samples
// accumulated since the last call.
func (e *Emulator) DrainAudio() []int16 {
	return e.APU.Resampler().Drain()
}

// SetKey updates one host key's held state, as the windowing layer
// observes key-down/key-up events.
func (e *Emulator) SetKey(b joypad.Button, down bool) {
	e.Joypad.SetKey(b, down)
}

// Title returns the cartridge's lowercased display title, used to
// name the save-state file.
func (e *Emulator) Title() string {
	return e.Cartridge.Title()
}

// ToggleDisassembly flips per-instruction CPU log output between off
// and instruction-level, for the host's debug key binding.
func (e *Emulator) ToggleDisassembly() bool {
	e.disasmOn = !e.disasmOn
	if e.disasmOn {
		e.cpuLog.SetLevel(cpu.CPULogInstructions)
	} else {
		e.cpuLog.SetLevel(cpu.CPULogNone)
	}
	return e.disasmOn
}
