package ic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingSourcePicksHighestPriority(t *testing.T) {
	c := New()
	c.IE = 0xFF
	c.Request(Timer)
	c.Request(VBlank)

	src, ok := c.PendingSource()
	assert.True(t, ok)
	assert.Equal(t, VBlank, src)
}

func TestPendingSourceIgnoresDisabledSources(t *testing.T) {
	c := New()
	c.IE = 1 << uint8(Serial)
	c.Request(VBlank)
	c.Request(Serial)

	src, ok := c.PendingSource()
	assert.True(t, ok)
	assert.Equal(t, Serial, src)
}

func TestPendingSourceReportsNoneWhenMaskedOut(t *testing.T) {
	c := New()
	c.Request(VBlank)
	_, ok := c.PendingSource()
	assert.False(t, ok)
}

func TestAcknowledgeClearsOnlyThatSource(t *testing.T) {
	c := New()
	c.IE = 0xFF
	c.Request(VBlank)
	c.Request(Timer)

	c.Acknowledge(VBlank)

	src, ok := c.PendingSource()
	assert.True(t, ok)
	assert.Equal(t, Timer, src)
}

func TestVectorsAreFixedAddresses(t *testing.T) {
	assert.Equal(t, uint16(0x0040), Vector(VBlank))
	assert.Equal(t, uint16(0x0048), Vector(LCDStat))
	assert.Equal(t, uint16(0x0050), Vector(Timer))
	assert.Equal(t, uint16(0x0058), Vector(Serial))
	assert.Equal(t, uint16(0x0060), Vector(Joypad))
}

func TestSnapshotRestoreRoundTrips(t *testing.T) {
	c := New()
	c.IE = 0x1F
	c.Request(LCDStat)

	restored := New()
	assert.NoError(t, restored.Restore(c.Snapshot()))
	assert.Equal(t, c, restored)
}

func TestRestoreRejectsWrongLength(t *testing.T) {
	c := New()
	assert.Error(t, c.Restore([]byte{1}))
}
