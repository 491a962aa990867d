package joypad

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gbcore/internal/ic"
)

func TestReadWithNoSelectionReturnsAllKeysReleased(t *testing.T) {
	j := New(ic.New())
	j.Write8(0, 0x30) // deselect both groups
	assert.Equal(t, uint8(0xFF), j.Read8(0))
}

func TestReadDirectionGroupReflectsHeldKeys(t *testing.T) {
	j := New(ic.New())
	j.SetKey(Right, true)
	j.SetKey(Down, true)
	j.Write8(0, 0x20) // select direction keys (bit 4 low)

	got := j.Read8(0)
	assert.Equal(t, uint8(0), got&0x01, "Right bit should read active-low 0")
	assert.Equal(t, uint8(0), got&0x08, "Down bit should read active-low 0")
	assert.NotEqual(t, uint8(0), got&0x02, "Left should read released")
	assert.NotEqual(t, uint8(0), got&0x04, "Up should read released")
}

func TestReadButtonGroupReflectsHeldKeys(t *testing.T) {
	j := New(ic.New())
	j.SetKey(A, true)
	j.Write8(0, 0x10) // select button keys (bit 5 low)

	got := j.Read8(0)
	assert.Equal(t, uint8(0), got&0x01, "A bit should read active-low 0")
}

func TestSetKeyTransitionRaisesJoypadInterrupt(t *testing.T) {
	intc := ic.New()
	intc.IE = 1 << uint8(ic.Joypad)
	j := New(intc)

	j.SetKey(A, true)
	assert.True(t, intc.Pending())

	intc.Acknowledge(ic.Joypad)
	j.SetKey(A, true) // no transition, no new interrupt
	assert.False(t, intc.Pending())
}

func TestSetKeyDownHookFiresOnlyOnRisingEdge(t *testing.T) {
	j := New(ic.New())
	fired := 0
	j.SetKeyDownHook(func() { fired++ })

	j.SetKey(Start, true)
	j.SetKey(Start, true) // already down, no-op
	j.SetKey(Start, false)
	j.SetKey(Start, true)

	assert.Equal(t, 2, fired)
}

func TestSnapshotRestoreRoundTrips(t *testing.T) {
	j := New(ic.New())
	j.SetKey(B, true)
	j.Write8(0, 0x20)

	snap := j.Snapshot()
	restored := New(ic.New())
	assert.NoError(t, restored.Restore(snap))
	assert.Equal(t, j.Read8(0), restored.Read8(0))
}
