package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func powerOn(a *APU) {
	a.Write8(0x16, 0x80)
}

func TestWritesAreIgnoredWhilePoweredOffExceptNR52AndWaveRAM(t *testing.T) {
	a := New()
	a.Write8(0x02, 0xF8) // NR12, should be dropped
	assert.Equal(t, uint8(0), a.NR12)

	a.Write8(0x20, 0x42) // wave RAM is writable even while powered off
	assert.Equal(t, uint8(0x42), a.waveRAM[0])

	powerOn(a)
	assert.True(t, a.enabled)
}

func TestTriggerWithDACDisabledLeavesChannelOff(t *testing.T) {
	a := New()
	powerOn(a)

	a.Write8(0x02, 0x00) // NR12: volume 0, no envelope direction -> DAC off
	a.Write8(0x04, 0x80) // NR14: trigger

	assert.False(t, a.ch[0].enabled)
}

func TestTriggerWithDACEnabledStartsChannel(t *testing.T) {
	a := New()
	powerOn(a)

	a.Write8(0x02, 0xF8) // NR12: DAC enabled
	a.Write8(0x04, 0x80) // NR14: trigger

	assert.True(t, a.ch[0].enabled)
}

func TestPowerOffResetsRegistersButKeepsWaveRAM(t *testing.T) {
	a := New()
	powerOn(a)
	a.Write8(0x20, 0x99)
	a.Write8(0x02, 0xF8)
	a.Write8(0x04, 0x80)

	a.Write8(0x16, 0x00) // power off

	assert.False(t, a.enabled)
	assert.Equal(t, uint8(0), a.NR12)
	assert.Equal(t, uint8(0x99), a.waveRAM[0])
}

func TestLengthCounterExpiryDisablesChannel(t *testing.T) {
	a := New()
	powerOn(a)

	a.Write8(0x06, 0x3F) // NR21: lengthCount = 64-63 = 1
	a.Write8(0x07, 0xF8) // NR22: DAC enabled
	a.Write8(0x09, 0xC0) // NR24: trigger + length enable

	assert.True(t, a.ch[1].enabled)

	a.Step(frameSequencerPeriod) // one frame-sequencer tick, ticks length

	assert.False(t, a.ch[1].enabled)
}

func TestStatusByteReflectsEnabledChannels(t *testing.T) {
	a := New()
	powerOn(a)
	a.Write8(0x02, 0xF8)
	a.Write8(0x04, 0x80) // trigger channel 0

	status := a.Read8(0x16)
	assert.NotEqual(t, uint8(0), status&0x01)
	assert.Equal(t, uint8(0), status&0x02)
}

func TestSnapshotRestoreRoundTrips(t *testing.T) {
	a := New()
	powerOn(a)
	a.Write8(0x02, 0xF8)
	a.Write8(0x04, 0x80)
	a.Write8(0x20, 0x37)
	a.Step(100)

	snap := a.Snapshot()

	restored := New()
	assert.NoError(t, restored.Restore(snap))
	assert.Equal(t, a.enabled, restored.enabled)
	assert.Equal(t, a.NR12, restored.NR12)
	assert.Equal(t, a.waveRAM, restored.waveRAM)
	assert.Equal(t, a.ch[0], restored.ch[0])
}

func TestRestoreRejectsWrongLength(t *testing.T) {
	a := New()
	assert.Error(t, a.Restore([]byte{1, 2, 3}))
}
