// Package ic implements the DMG interrupt controller: IE, IF and the
// five fixed dispatch vectors (IME itself lives on the CPU).
package ic

import "fmt"

// Source identifies one of the five DMG interrupt sources, ordered by
// priority (lowest index wins when more than one bit is pending).
type Source uint8

const (
	VBlank Source = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// bit returns the IE/IF bit mask for a source.
func (s Source) bit() uint8 { return 1 << uint8(s) }

// vectors holds the fixed dispatch address for each source, indexed by Source.
var vectors = [5]uint16{
	VBlank:  0x0040,
	LCDStat: 0x0048,
	Timer:   0x0050,
	Serial:  0x0058,
	Joypad:  0x0060,
}

// Controller holds IE and IF (each 5 bits meaningful). IE keeps all
// eight bits as written; the memory bus masks IF writes to the low 5
// bits and reads IF's upper three bits as 1. IME itself is owned by
// the CPU, which is the only component that ever toggles it.
type Controller struct {
	IE uint8
	IF uint8
}

// New returns a controller in its post-reset state: IE and IF both
// zero.
func New() *Controller {
	return &Controller{}
}

// Request raises a pending interrupt. Raising an already-pending source
// is a no-op; ordering between same-cycle raises from different
// components does not matter since IF is simply or'd.
func (c *Controller) Request(s Source) {
	c.IF |= s.bit()
}

// Pending reports whether any enabled interrupt source is currently
// requested, independent of IME — used to wake the CPU out of HALT.
func (c *Controller) Pending() bool {
	return (c.IF & c.IE & 0x1F) != 0
}

// PendingSource returns the highest-priority enabled+requested source
// and true, or (0, false) if none is pending.
func (c *Controller) PendingSource() (Source, bool) {
	masked := c.IF & c.IE & 0x1F
	if masked == 0 {
		return 0, false
	}
	for s := VBlank; s <= Joypad; s++ {
		if masked&s.bit() != 0 {
			return s, true
		}
	}
	return 0, false
}

// Acknowledge clears the IF bit for s — called once the CPU has
// dispatched to its vector.
func (c *Controller) Acknowledge(s Source) {
	c.IF &^= s.bit()
}

// Vector returns the fixed dispatch address for s.
func Vector(s Source) uint16 {
	return vectors[s]
}

// snapshotSize is the fixed byte length of Snapshot's output.
const snapshotSize = 2

// Snapshot returns IE and IF, field-by-field, for save-state capture.
// IME itself lives on the CPU (the component that actually toggles it
// on dispatch/EI/DI) and is captured by cpu.Snapshot instead.
func (c *Controller) Snapshot() []byte {
	return []byte{c.IE, c.IF}
}

// Restore reapplies a Snapshot produced by this type.
func (c *Controller) Restore(data []byte) error {
	if len(data) != snapshotSize {
		return fmt.Errorf("ic: save state size mismatch: got %d, want %d", len(data), snapshotSize)
	}
	c.IE = data[0]
	c.IF = data[1]
	return nil
}
