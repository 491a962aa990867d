// Package cart implements cartridge loading and the bank-switched
// ROM/RAM view the memory bus reads through: ROM-only and MBC1,
// grounded on FabianRolfMatthiasNoll-GameBoyEmulator's internal/cart
// (header parsing, MBC1 bit layout) and restricted to the types
// spec.md names.
package cart

import (
	"errors"
	"fmt"
)

// Type identifies the cartridge's banking hardware.
type Type uint8

const (
	ROMOnly Type = iota
	MBC1
	MBC1RAM
	MBC1RAMBattery
)

const (
	headerLogoStart = 0x0104
	headerLogoEnd   = 0x0134
	headerTypeAddr  = 0x0147
	headerROMAddr   = 0x0148
	headerRAMAddr   = 0x0149
	headerTitleLo   = 0x0134
	headerTitleHi   = 0x0143
	romBankSize     = 0x4000
	ramBankSize     = 0x2000
)

// nintendoLogo is the fixed 48-byte boot logo every valid ROM header
// must reproduce at 0x0104-0x0133.
var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

var ramSizeBytes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
}

// romSizeBytes maps header byte 0x148 to the cartridge's full ROM
// size. The 0x00-0x06 codes double cleanly (romBankSize << code), but
// the three oddball codes documented alongside them (0x52/0x53/0x54,
// used by a handful of real MBC1 multicarts) are irregular bank
// counts that a left-shift can't express, so every code is tabulated
// explicitly instead of computed.
var romSizeBytes = map[uint8]int{
	0x00: romBankSize * 2,
	0x01: romBankSize * 4,
	0x02: romBankSize * 8,
	0x03: romBankSize * 16,
	0x04: romBankSize * 32,
	0x05: romBankSize * 64,
	0x06: romBankSize * 128,
	0x52: romBankSize * 72,
	0x53: romBankSize * 80,
	0x54: romBankSize * 96,
}

// Cartridge holds the loaded ROM/RAM image and MBC1 banking state.
type Cartridge struct {
	kind Type
	rom  []byte
	ram  []byte

	title string

	// MBC1 banking register, decomposed per spec.md §4.6.
	ramEnabled  bool
	bankLow5    uint8
	bankHigh2   uint8
	ramMode     bool // false = ROM banking mode, true = RAM banking mode
}

// Load parses a ROM image and returns a Cartridge, or an error if the
// header fails validation.
func Load(data []byte) (*Cartridge, error) {
	if len(data) < 0x150 {
		return nil, errors.New("cart: ROM too small to contain a header")
	}
	if !bytesEqual(data[headerLogoStart:headerLogoEnd], nintendoLogo[:]) {
		return nil, errors.New("cart: Nintendo logo mismatch")
	}
	if data[0x146] != 0x00 {
		return nil, errors.New("cart: SGB-flagged cartridges are not supported")
	}

	typeByte := data[headerTypeAddr]
	var kind Type
	switch typeByte {
	case 0x00:
		kind = ROMOnly
	case 0x01:
		kind = MBC1
	case 0x02:
		kind = MBC1RAM
	case 0x03:
		kind = MBC1RAMBattery
	default:
		return nil, fmt.Errorf("cart: unsupported cartridge type 0x%02X", typeByte)
	}

	romCode := data[headerROMAddr]
	romSize, ok := romSizeBytes[romCode]
	if !ok {
		return nil, fmt.Errorf("cart: unsupported ROM size code 0x%02X", romCode)
	}
	ramCode := data[headerRAMAddr]
	ramSize, ok := ramSizeBytes[ramCode]
	if !ok {
		return nil, fmt.Errorf("cart: unsupported RAM size code 0x%02X", ramCode)
	}

	rom := make([]byte, romSize)
	n := copy(rom, data)
	for ; n < romSize; n++ {
		rom[n] = 0xFF
	}

	c := &Cartridge{
		kind:     kind,
		rom:      rom,
		title:    decodeTitle(data[headerTitleLo:headerTitleHi]),
		bankLow5: 1,
	}
	if ramSize > 0 && kind != ROMOnly {
		c.ram = make([]byte, ramSize)
	}
	return c, nil
}

func decodeTitle(b []byte) string {
	end := len(b)
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	return string(b[:end])
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Title returns the cartridge title, lowercased for display per §6.
func (c *Cartridge) Title() string {
	return toLower(c.title)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// HasBattery reports whether the cartridge should persist its RAM.
func (c *Cartridge) HasBattery() bool { return c.kind == MBC1RAMBattery }

// BatteryRAM exposes the external RAM contents for save/restore beside
// the ROM file, supplementing spec.md with the behavior original_source's
// rom.c load/save routines implement.
func (c *Cartridge) BatteryRAM() []byte { return c.ram }

// LoadBatteryRAM restores previously persisted external RAM, sized to
// match what the cartridge allocated.
func (c *Cartridge) LoadBatteryRAM(data []byte) {
	n := copy(c.ram, data)
	for ; n < len(c.ram); n++ {
		c.ram[n] = 0
	}
}

// Snapshot returns the MBC1 banking register and current RAM contents,
// field-by-field in a fixed order, for save-state capture. The ROM
// image itself is not included: it is immutable and reloaded from the
// cartridge file, not the save state.
func (c *Cartridge) Snapshot() []byte {
	buf := make([]byte, 0, 4+len(c.ram))
	buf = append(buf, boolByte(c.ramEnabled), c.bankLow5, c.bankHigh2, boolByte(c.ramMode))
	return append(buf, c.ram...)
}

// Restore reapplies a Snapshot produced against a cartridge with the
// same RAM size.
func (c *Cartridge) Restore(data []byte) error {
	if len(data) != 4+len(c.ram) {
		return fmt.Errorf("cart: save state RAM size mismatch: got %d, want %d", len(data)-4, len(c.ram))
	}
	c.ramEnabled = data[0] != 0
	c.bankLow5 = data[1]
	c.bankHigh2 = data[2]
	c.ramMode = data[3] != 0
	copy(c.ram, data[4:])
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// effectiveROMBank applies the MBC1 00/20/40/60→+1 substitution of
// spec.md invariant I5.
func (c *Cartridge) effectiveROMBank() int {
	if c.kind == ROMOnly {
		return 1
	}
	low := c.bankLow5
	if low == 0 {
		low = 1
	}
	high := c.bankHigh2
	if c.ramMode {
		// In RAM banking mode the upper bits select the RAM bank (and
		// the 0x0000 window's bank, see ReadROM); the 0x4000 window
		// uses the low 5 bits alone.
		high = 0
	}
	return int(high)<<5 | int(low)
}

// ramBank returns the RAM bank currently mapped at 0xA000.
func (c *Cartridge) ramBank() int {
	if c.kind == ROMOnly || !c.ramMode {
		return 0
	}
	return int(c.bankHigh2)
}

// ReadROM reads a byte from the 0x0000-0x7FFF cartridge ROM window.
func (c *Cartridge) ReadROM(addr uint16) uint8 {
	var offset int
	if addr < 0x4000 {
		if c.kind != ROMOnly && c.ramMode {
			offset = int(c.bankHigh2) << 5 * romBankSize
		}
		offset += int(addr)
	} else {
		offset = c.effectiveROMBank()*romBankSize + int(addr-0x4000)
	}
	if offset < 0 || offset >= len(c.rom) {
		return 0xFF
	}
	return c.rom[offset]
}

// WriteROM handles writes into the ROM address space, which for ROM/
// MBC1 cartridges are banking-control writes rather than real stores.
func (c *Cartridge) WriteROM(addr uint16, value uint8) {
	if c.kind == ROMOnly {
		return
	}
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := value & 0x1F
		c.bankLow5 = bank
	case addr < 0x6000:
		c.bankHigh2 = value & 0x03
	default:
		c.ramMode = value&0x01 != 0
	}
}

// ReadRAM reads from the 0xA000-0xBFFF cartridge RAM window.
func (c *Cartridge) ReadRAM(addr uint16) uint8 {
	if !c.ramEnabled || len(c.ram) == 0 {
		return 0
	}
	offset := c.ramBank()*ramBankSize + int(addr-0xA000)
	if offset < 0 || offset >= len(c.ram) {
		return 0
	}
	return c.ram[offset]
}

// WriteRAM writes to cartridge RAM; disabled or absent RAM silently
// drops the write per spec.md §7.
func (c *Cartridge) WriteRAM(addr uint16, value uint8) {
	if !c.ramEnabled || len(c.ram) == 0 {
		return
	}
	offset := c.ramBank()*ramBankSize + int(addr-0xA000)
	if offset < 0 || offset >= len(c.ram) {
		return
	}
	c.ram[offset] = value
}
