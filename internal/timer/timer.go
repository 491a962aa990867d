// Package timer implements the DMG free-running divider and the
// programmable TIMA/TMA/TAC timer, grounded on the original source's
// divider.c/timer.c cycle-accumulator design.
package timer

import (
	"encoding/binary"
	"fmt"

	"gbcore/internal/ic"
)

// periodCycles gives the T-cycle period per TIMA increment for each of
// the four TAC clock-select values, in the order the original source's
// timer_cycles table lists them (4096, 262144, 65536, 16384 Hz at the
// nominal 4 194 304 Hz machine clock). Step is always fed T-cycles (4
// per M-cycle), not M-cycles, so these periods divide evenly.
var periodCycles = [4]uint32{1024, 16, 64, 256}

const dividerPeriodCycles = 256

// Timer bundles the divider and the programmable timer; the two share
// nothing but are stepped together by the scheduler every CPU step.
type Timer struct {
	dividerCycles uint32
	divCounter    uint8

	TIMA uint8
	TMA  uint8
	TAC  uint8

	timaCycles uint32

	ic *ic.Controller
}

// New returns a Timer wired to raise interrupts on ic.
func New(controller *ic.Controller) *Timer {
	return &Timer{ic: controller}
}

// Counter returns the free-running divider's visible byte (DIV, 0xFF04).
// Exposed under this single name per the original source's
// divider_get_counter (the header also declared an unused divider_get).
func (t *Timer) Counter() uint8 { return t.divCounter }

// ResetCounter zeroes the divider; any write to DIV does this regardless
// of the value written.
func (t *Timer) ResetCounter() {
	t.divCounter = 0
	t.dividerCycles = 0
}

// Step advances the divider and timer by cycles T-cycles, raising a
// Timer interrupt on TIMA overflow.
func (t *Timer) Step(cycles uint32) {
	t.dividerCycles += cycles
	for t.dividerCycles >= dividerPeriodCycles {
		t.dividerCycles -= dividerPeriodCycles
		t.divCounter++
	}

	if t.TAC&0x04 == 0 {
		t.timaCycles = 0
		return
	}

	period := periodCycles[t.TAC&0x03]
	t.timaCycles += cycles
	for t.timaCycles >= period {
		t.timaCycles -= period
		t.TIMA++
		if t.TIMA == 0 {
			t.TIMA = t.TMA
			t.ic.Request(ic.Timer)
		}
	}
}

// snapshotSize is the fixed byte length of Snapshot's output.
const snapshotSize = 4 + 1 + 1 + 1 + 4

// Snapshot returns the divider and timer state, field-by-field, for
// save-state capture.
func (t *Timer) Snapshot() []byte {
	buf := make([]byte, 0, snapshotSize)
	buf = binary.BigEndian.AppendUint32(buf, t.dividerCycles)
	buf = append(buf, t.divCounter, t.TIMA, t.TMA, t.TAC)
	buf = binary.BigEndian.AppendUint32(buf, t.timaCycles)
	return buf
}

// Restore reapplies a Snapshot produced by this type.
func (t *Timer) Restore(data []byte) error {
	if len(data) != snapshotSize {
		return fmt.Errorf("timer: save state size mismatch: got %d, want %d", len(data), snapshotSize)
	}
	t.dividerCycles = binary.BigEndian.Uint32(data[0:4])
	t.divCounter, t.TIMA, t.TMA, t.TAC = data[4], data[5], data[6], data[7]
	t.timaCycles = binary.BigEndian.Uint32(data[8:12])
	return nil
}
