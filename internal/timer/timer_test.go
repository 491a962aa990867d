package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gbcore/internal/ic"
)

func TestDividerIncrementsEvery256Cycles(t *testing.T) {
	intc := ic.New()
	tm := New(intc)

	tm.Step(255)
	assert.Equal(t, uint8(0), tm.Counter())

	tm.Step(1)
	assert.Equal(t, uint8(1), tm.Counter())
}

func TestDividerResetClearsCounterAndPhase(t *testing.T) {
	intc := ic.New()
	tm := New(intc)

	tm.Step(300)
	assert.Equal(t, uint8(1), tm.Counter())

	tm.ResetCounter()
	assert.Equal(t, uint8(0), tm.Counter())

	tm.Step(255)
	assert.Equal(t, uint8(0), tm.Counter())
}

func TestTimerDisabledByTACDoesNotIncrementOrInterrupt(t *testing.T) {
	intc := ic.New()
	intc.IE = 1 << uint8(ic.Timer)
	tm := New(intc)
	tm.TAC = 0x00 // enable bit clear

	tm.Step(100000)
	assert.Equal(t, uint8(0), tm.TIMA)
	assert.False(t, intc.Pending())
}

func TestTimerOverflowReloadsTMAAndRaisesInterrupt(t *testing.T) {
	intc := ic.New()
	intc.IE = 1 << uint8(ic.Timer)
	tm := New(intc)
	tm.TAC = 0x05 // enabled, clock select 01 -> period 16 cycles
	tm.TIMA = 0xFF
	tm.TMA = 0x42

	tm.Step(16)

	assert.Equal(t, uint8(0x42), tm.TIMA)
	assert.True(t, intc.Pending())
}

func TestSnapshotRestoreRoundTrips(t *testing.T) {
	intc := ic.New()
	tm := New(intc)
	tm.TAC = 0x07
	tm.TIMA = 0x55
	tm.TMA = 0x99
	tm.Step(1000)

	snap := tm.Snapshot()

	restored := New(ic.New())
	err := restored.Restore(snap)
	assert.NoError(t, err)
	assert.Equal(t, tm, restored)
}

func TestRestoreRejectsWrongLength(t *testing.T) {
	tm := New(ic.New())
	err := tm.Restore([]byte{1, 2, 3})
	assert.Error(t, err)
}
