package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gbcore/internal/ic"
)

// flatMemory is a minimal 64KB MemoryInterface used only to drive the
// CPU in isolation from the bus.
type flatMemory struct {
	data [0x10000]uint8
}

func (m *flatMemory) Read8(addr uint16) uint8     { return m.data[addr] }
func (m *flatMemory) Write8(addr uint16, v uint8) { m.data[addr] = v }

func (m *flatMemory) load(addr uint16, bytes ...uint8) {
	copy(m.data[addr:], bytes)
}

func newTestCPU() (*CPU, *flatMemory, *ic.Controller) {
	mem := &flatMemory{}
	intc := ic.New()
	c := New(mem, intc)
	c.PC = 0x0100
	return c, mem, intc
}

func TestAdd8HalfCarryNoCarry(t *testing.T) {
	c, mem, _ := newTestCPU()
	// LD A,0x0F ; ADD A,0x01
	mem.load(c.PC, 0x3E, 0x0F, 0xC6, 0x01)

	_, err := c.Step()
	assert.NoError(t, err)
	_, err = c.Step()
	assert.NoError(t, err)

	assert.Equal(t, uint8(0x10), c.A)
	assert.True(t, c.flag(FlagH))
	assert.False(t, c.flag(FlagC))
	assert.False(t, c.flag(FlagZ))
}

func TestAdd8OverflowSetsZeroHalfAndCarry(t *testing.T) {
	c, mem, _ := newTestCPU()
	// LD A,0xFF ; ADD A,0x01
	mem.load(c.PC, 0x3E, 0xFF, 0xC6, 0x01)

	_, err := c.Step()
	assert.NoError(t, err)
	_, err = c.Step()
	assert.NoError(t, err)

	assert.Equal(t, uint8(0x00), c.A)
	assert.True(t, c.flag(FlagZ))
	assert.True(t, c.flag(FlagH))
	assert.True(t, c.flag(FlagC))
}

func TestDecUnderflowSetsHalfCarryNotCarry(t *testing.T) {
	c, mem, _ := newTestCPU()
	// LD B,0x00 ; DEC B
	mem.load(c.PC, 0x06, 0x00, 0x05)

	_, err := c.Step()
	assert.NoError(t, err)
	_, err = c.Step()
	assert.NoError(t, err)

	assert.Equal(t, uint8(0xFF), c.B)
	assert.True(t, c.flag(FlagH))
	assert.True(t, c.flag(FlagN))
	assert.False(t, c.flag(FlagC)) // DEC never touches carry
}

func TestPushAFPopBCMasksLowNibble(t *testing.T) {
	c, mem, _ := newTestCPU()
	c.A = 0x42
	c.F = 0xF0 // every flag set, low nibble already zero
	// PUSH AF ; POP BC
	mem.load(c.PC, 0xF5, 0xC1)

	_, err := c.Step()
	assert.NoError(t, err)
	_, err = c.Step()
	assert.NoError(t, err)

	assert.Equal(t, c.A, c.B)
	assert.Equal(t, c.F&0xF0, c.C)
}

func TestDaaAfterAddCorrectsToPackedBCD(t *testing.T) {
	c, mem, _ := newTestCPU()
	// LD A,0x09 ; ADD A,0x01 ; DAA  -> 0x10 (BCD for decimal 10)
	mem.load(c.PC, 0x3E, 0x09, 0xC6, 0x01, 0x27)

	for i := 0; i < 3; i++ {
		_, err := c.Step()
		assert.NoError(t, err)
	}

	assert.Equal(t, uint8(0x10), c.A)
	assert.False(t, c.flag(FlagC))
}

func TestJrRelativeJumpForwardAndBackward(t *testing.T) {
	c, mem, _ := newTestCPU()
	// JR +2 at 0x0100 (skip the next two bytes), then JR -4 at 0x0104
	// back to 0x0102.
	mem.load(c.PC, 0x18, 0x02, 0x00, 0x00, 0x18, 0xFC)

	_, err := c.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0104), c.PC)

	_, err = c.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0102), c.PC)
}

func TestCallAndRetRoundTripsPC(t *testing.T) {
	c, mem, _ := newTestCPU()
	// CALL 0x0200 ; at 0x0200: RET
	mem.load(c.PC, 0xCD, 0x00, 0x02)
	mem.load(0x0200, 0xC9)

	_, err := c.Step() // CALL
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0200), c.PC)

	_, err = c.Step() // RET
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0103), c.PC)
}

func TestInterruptDispatchPushesPCAndJumpsToVector(t *testing.T) {
	c, _, intc := newTestCPU()
	c.IME = true
	intc.IE = 1 << uint8(ic.VBlank)
	intc.Request(ic.VBlank)

	startSP := c.SP
	cycles, err := c.Step()
	assert.NoError(t, err)
	assert.Equal(t, 5, cycles)
	assert.Equal(t, ic.Vector(ic.VBlank), c.PC)
	assert.False(t, c.IME)
	assert.Equal(t, startSP-2, c.SP)
	assert.False(t, intc.Pending())
}

func TestHaltWakesWithoutServicingWhenIMEDisabled(t *testing.T) {
	c, mem, intc := newTestCPU()
	c.IME = false
	mem.load(c.PC, 0x76) // HALT

	_, err := c.Step()
	assert.NoError(t, err)
	assert.True(t, c.halted)

	intc.IE = 1 << uint8(ic.VBlank)
	intc.Request(ic.VBlank)

	pcBefore := c.PC
	_, err = c.Step()
	assert.NoError(t, err)
	assert.False(t, c.halted)
	assert.NotEqual(t, ic.Vector(ic.VBlank), c.PC)
	assert.Equal(t, pcBefore+1, c.PC) // woke and fell through to the next opcode, no dispatch
	assert.True(t, intc.Pending())    // interrupt still pending, unacknowledged
}

func TestEIDelaysEnableByOneInstruction(t *testing.T) {
	c, mem, _ := newTestCPU()
	// EI ; NOP ; NOP
	mem.load(c.PC, 0xFB, 0x00, 0x00)

	_, err := c.Step() // EI itself schedules the enable, does not apply it
	assert.NoError(t, err)
	assert.False(t, c.IME)

	_, err = c.Step() // the one instruction right after EI cannot be preempted (the interrupt check runs before IME is set), and IME is true by the time this step retires
	assert.NoError(t, err)
	assert.True(t, c.IME)
}
