package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gbcore/internal/apu"
	"gbcore/internal/cart"
	"gbcore/internal/ic"
	"gbcore/internal/joypad"
	"gbcore/internal/ppu"
	"gbcore/internal/serial"
	"gbcore/internal/timer"
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// buildBus wires every component around a minimal ROM-only 32KB cartridge.
func buildBus(t *testing.T) *Bus {
	t.Helper()
	data := make([]byte, 0x8000)
	copy(data[0x0104:0x0134], nintendoLogo[:])
	copy(data[0x0134:0x0143], []byte("BUSTEST"))

	cartridge, err := cart.Load(data)
	assert.NoError(t, err)

	controller := ic.New()
	return NewBus(cartridge, ppu.New(controller), apu.New(), timer.New(controller), joypad.New(controller), serial.New(controller), controller)
}

func TestReadWriteWorkRAMAndEchoAlias(t *testing.T) {
	b := buildBus(t)
	b.Write8(0xC010, 0x42)
	assert.Equal(t, uint8(0x42), b.Read8(0xC010))
	assert.Equal(t, uint8(0x42), b.Read8(0xE010)) // echo RAM mirrors 0xC000-0xDDFF
}

func TestReadWriteHighRAM(t *testing.T) {
	b := buildBus(t)
	b.Write8(0xFF80, 0x7E)
	assert.Equal(t, uint8(0x7E), b.Read8(0xFF80))
}

func TestUnusableRegionReadsFF(t *testing.T) {
	b := buildBus(t)
	assert.Equal(t, uint8(0xFF), b.Read8(0xFEA0))
}

func TestIOWriteRoutesToOwningComponent(t *testing.T) {
	b := buildBus(t)
	b.Write8(0xFF06, 0x55) // TMA
	assert.Equal(t, uint8(0x55), b.Timer.TMA)
	assert.Equal(t, uint8(0x55), b.Read8(0xFF06))
}

func TestIEReadWriteAt0xFFFF(t *testing.T) {
	b := buildBus(t)
	b.Write8(0xFFFF, 0x1F)
	assert.Equal(t, uint8(0x1F), b.IC.IE)
	assert.Equal(t, uint8(0x1F), b.Read8(0xFFFF))
}

func TestOAMDMACopies160BytesFromSourcePage(t *testing.T) {
	b := buildBus(t)
	for i := uint16(0); i < 0xA0; i++ {
		b.WRAM[i] = uint8(i)
	}
	b.Write8(0xFF46, 0xC0) // source page 0xC000 (work RAM)

	for i := uint16(0); i < 0xA0; i++ {
		assert.Equal(t, uint8(i), b.PPU.Read8(0x2000+i))
	}
}

func TestRead16Write16AreLittleEndian(t *testing.T) {
	b := buildBus(t)
	b.Write16(0xC100, 0xBEEF)
	assert.Equal(t, uint8(0xEF), b.Read8(0xC100))
	assert.Equal(t, uint8(0xBE), b.Read8(0xC101))
	assert.Equal(t, uint16(0xBEEF), b.Read16(0xC100))
}

func TestSnapshotWorkRestoreRoundTrips(t *testing.T) {
	b := buildBus(t)
	b.Write8(0xC000, 0xAA)
	b.Write8(0xFF80, 0xBB)

	snap := b.SnapshotWork()

	restored := buildBus(t)
	assert.NoError(t, restored.RestoreWork(snap))
	assert.Equal(t, b.WRAM, restored.WRAM)
	assert.Equal(t, b.HRAM, restored.HRAM)
}

func TestRestoreWorkRejectsWrongLength(t *testing.T) {
	b := buildBus(t)
	assert.Error(t, b.RestoreWork([]byte{1, 2, 3}))
}
