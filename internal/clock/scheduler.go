// Package clock implements the main-loop scheduler: it runs the CPU
// opcode by opcode, fans out each opcode's cycle count to the rest of
// the machine, and paces the whole thing to real time.
package clock

import (
	"fmt"
	"time"
)

// opcodesPerBatch is how many CPU instructions run before the
// scheduler checks host events and real-time pacing.
const opcodesPerBatch = 10

// syncPeriod is the wall-clock interval the scheduler tries to hold
// the emulated clock to.
const syncPeriod = 16 * time.Millisecond

// maxDebt bounds how far behind real time the scheduler is allowed to
// fall before giving up on catching up smoothly (e.g. after the host
// process was suspended) and just running flat out with frame skip.
const maxDebt = 10 * syncPeriod

// CPUStepper executes one instruction and reports its M-cycle cost.
type CPUStepper interface {
	Step() (int, error)
}

// CycleStepper advances a component by T-cycles.
type CycleStepper interface {
	Step(cycles uint32)
}

// FrameSkipper lets the scheduler fast-forward the PPU's mode machine
// without compositing or presenting, once debt has built up.
type FrameSkipper interface {
	SetFrameSkip(skip bool)
}

// EventSource polls the host windowing layer; Poll returns true once
// the user has asked to quit. It is the scheduler's only contact with
// code outside the emulation core.
type EventSource interface {
	Poll() (quit bool)
}

// Scheduler drives the CPU and fans its cycles out to Timer, APU,
// Serial and PPU in that fixed order, pacing execution to real time with a
// debt/credit loop and a hard clamp on catch-up.
type Scheduler struct {
	CPU    CPUStepper
	Timer  CycleStepper
	APU    CycleStepper
	PPU    interface {
		CycleStepper
		FrameSkipper
	}
	Serial CycleStepper
	Events EventSource

	cyclesSinceSync uint64
	lastCheckpoint  time.Time
	debt            time.Duration
	stopped         func() bool
}

// New returns a Scheduler wired to every component it fans cycles out
// to; stopped reports whether the CPU is currently in STOP, in which
// case the scheduler keeps polling events but stops executing opcodes.
func New(cpu CPUStepper, t CycleStepper, apu CycleStepper, ppu interface {
	CycleStepper
	FrameSkipper
}, serial CycleStepper, events EventSource, stopped func() bool) *Scheduler {
	return &Scheduler{
		CPU:            cpu,
		Timer:          t,
		APU:            apu,
		PPU:            ppu,
		Serial:         serial,
		Events:         events,
		stopped:        stopped,
		lastCheckpoint: time.Now(),
	}
}

// RunBatch executes one batch of opcodesPerBatch instructions (or, if
// the CPU is stopped, simply polls events), fanning out each
// instruction's cycles as it goes, then paces to real time. It
// returns false once the host has requested to quit.
func (s *Scheduler) RunBatch() (bool, error) {
	if s.stopped != nil && s.stopped() {
		return !s.Events.Poll(), nil
	}

	for i := 0; i < opcodesPerBatch; i++ {
		mCycles, err := s.CPU.Step()
		if err != nil {
			return false, fmt.Errorf("clock: %w", err)
		}
		tCycles := uint32(mCycles) * 4
		s.Timer.Step(tCycles)
		s.APU.Step(tCycles)
		s.Serial.Step(tCycles)
		s.PPU.Step(tCycles)
		s.cyclesSinceSync += uint64(tCycles)

		if s.stopped != nil && s.stopped() {
			break
		}
	}

	quit := s.Events.Poll()
	s.pace()
	return !quit, nil
}

// pace implements spec.md's bounded-drift invariant: once enough
// emulated cycles have elapsed to cover one sync period, compare
// elapsed wall time against it. If the scheduler is ahead, sleep off
// the difference (after first paying down any outstanding debt). If
// behind, the overshoot becomes debt; once debt reaches a full sync
// period the PPU is told to skip frames until it's paid down, and
// debt itself is clamped so a long stall (e.g. the process being
// suspended) can't demand an unbounded catch-up burst.
func (s *Scheduler) pace() {
	const cyclesPerSyncPeriod = uint64(cpuFrequency) * uint64(syncPeriod) / uint64(time.Second)
	if s.cyclesSinceSync < cyclesPerSyncPeriod {
		return
	}
	s.cyclesSinceSync -= cyclesPerSyncPeriod

	now := time.Now()
	elapsed := now.Sub(s.lastCheckpoint)
	s.lastCheckpoint = now

	if elapsed < syncPeriod {
		ahead := syncPeriod - elapsed
		if s.debt > 0 {
			paid := ahead
			if paid > s.debt {
				paid = s.debt
			}
			s.debt -= paid
			ahead -= paid
		}
		if ahead > 0 {
			time.Sleep(ahead)
		}
	} else {
		s.debt += elapsed - syncPeriod
		if s.debt > maxDebt {
			s.debt = maxDebt
		}
	}

	s.PPU.SetFrameSkip(s.debt >= syncPeriod)
}

// cpuFrequency is the DMG's nominal machine clock, in T-cycles/sec.
const cpuFrequency = 4194304
