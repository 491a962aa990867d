// Package cpu implements the Sharp LR35902 core: the full unprefixed
// and CB-prefixed instruction sets, interrupt dispatch, and the
// HALT/STOP/EI-delay quirks spec.md documents.
//
// Struct shape (flat register fields, bitmask flags with accessor
// methods, an injected MemoryInterface/LoggerInterface pair) is
// grounded on the teacher's internal/cpu.CPUState; exact per-opcode
// semantics are grounded on valerio-go-jeebie/jeebie/cpu and
// original_source/src/z80.c.
package cpu

import (
	"encoding/binary"
	"fmt"

	"gbcore/internal/ic"
)

// Flag bits within F; the low nibble is always zero.
const (
	FlagZ uint8 = 1 << 7
	FlagN uint8 = 1 << 6
	FlagH uint8 = 1 << 5
	FlagC uint8 = 1 << 4
)

// MemoryInterface is the 16-bit-addressed bus the CPU executes against.
type MemoryInterface interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, value uint8)
}

// LoggerInterface receives one notification per retired instruction;
// nil is a valid, no-op logger.
type LoggerInterface interface {
	LogCPU(pc uint16, opcode uint8, cycles int)
}

// CPU holds the eight 8-bit registers (paired into BC/DE/HL/AF), SP,
// PC, IME and the HALT/STOP latches.
type CPU struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8
	SP   uint16
	PC   uint16

	IME          bool
	imeScheduled int // counts down to 0 during the Step after EI; reaching 0 sets IME before that step's own opcode runs, so the instruction right after EI still completes with interrupts disabled and the one after that can be preempted
	halted       bool
	stopped      bool

	mem MemoryInterface
	ic  *ic.Controller
	log LoggerInterface
}

// New returns a CPU wired to mem and intc, in the DMG's documented
// post-boot-ROM register state (no boot ROM animation is emulated,
// per spec.md's Non-goals, so execution starts here directly).
func New(mem MemoryInterface, intc *ic.Controller) *CPU {
	c := &CPU{mem: mem, ic: intc}
	c.Reset()
	return c
}

// SetLogger attaches a per-instruction logger; pass nil to disable.
func (c *CPU) SetLogger(l LoggerInterface) { c.log = l }

// ClearStop wakes the CPU from STOP; wired to the joypad's key-down
// hook, since a key press is the documented way to leave STOP mode.
func (c *CPU) ClearStop() { c.stopped = false }

// Stopped reports whether the CPU is currently halted by STOP; the
// scheduler uses this to keep polling host events without executing
// opcodes until a key press clears it.
func (c *CPU) Stopped() bool { return c.stopped }

// Reset sets the classic post-boot-ROM DMG register values.
func (c *CPU) Reset() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.IME = false
	c.imeScheduled = 0
	c.halted = false
	c.stopped = false
}

func (c *CPU) bc() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) de() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) hl() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) af() uint16 { return uint16(c.A)<<8 | uint16(c.F&0xF0) }

func (c *CPU) setBC(v uint16) { c.B, c.C = uint8(v>>8), uint8(v) }
func (c *CPU) setDE(v uint16) { c.D, c.E = uint8(v>>8), uint8(v) }
func (c *CPU) setHL(v uint16) { c.H, c.L = uint8(v>>8), uint8(v) }
func (c *CPU) setAF(v uint16) { c.A, c.F = uint8(v>>8), uint8(v)&0xF0 }

func (c *CPU) flag(mask uint8) bool { return c.F&mask != 0 }

func (c *CPU) setFlags(z, n, h, cy bool) {
	var f uint8
	if z {
		f |= FlagZ
	}
	if n {
		f |= FlagN
	}
	if h {
		f |= FlagH
	}
	if cy {
		f |= FlagC
	}
	c.F = f
}

func (c *CPU) setFlag(mask uint8, set bool) {
	if set {
		c.F |= mask
	} else {
		c.F &^= mask
	}
	c.F &^= 0x0F
}

// fetch8 reads the byte at PC and advances PC.
func (c *CPU) fetch8() uint8 {
	v := c.mem.Read8(c.PC)
	c.PC++
	return v
}

// fetch16 reads a little-endian word at PC and advances PC by 2.
func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.mem.Write8(c.SP, uint8(v))
	c.mem.Write8(c.SP+1, uint8(v>>8))
}

func (c *CPU) pop16() uint16 {
	lo := c.mem.Read8(c.SP)
	hi := c.mem.Read8(c.SP + 1)
	c.SP += 2
	return uint16(hi)<<8 | uint16(lo)
}

// Step runs one instruction (or one HALT/STOP idle tick, or one
// interrupt dispatch) and returns the number of M-cycles it consumed.
func (c *CPU) Step() (int, error) {
	if pending, ok := c.ic.PendingSource(); ok {
		if c.stopped {
			c.stopped = false
		}
		if c.halted {
			if c.IME {
				c.halted = false
				return c.dispatchInterrupt(pending), nil
			}
			// HALT with IME=0: CPU wakes without servicing, per spec.md.
			c.halted = false
		} else if c.IME {
			return c.dispatchInterrupt(pending), nil
		}
	}

	if c.imeScheduled > 0 {
		c.imeScheduled--
		if c.imeScheduled == 0 {
			c.IME = true
		}
	}

	if c.stopped {
		return 1, nil
	}
	if c.halted {
		return 1, nil
	}

	pc := c.PC
	opcode := c.fetch8()
	cycles, err := c.execute(opcode)
	if err != nil {
		return cycles, fmt.Errorf("cpu: at 0x%04X, opcode 0x%02X: %w", pc, opcode, err)
	}
	if c.log != nil {
		c.log.LogCPU(pc, opcode, cycles)
	}
	return cycles, nil
}

// snapshotSize is the fixed byte length of Snapshot's output.
const snapshotSize = 8 + 2 + 2 + 4

// Snapshot returns the full CPU register file and latch state,
// field-by-field in a fixed order, for save-state capture.
func (c *CPU) Snapshot() []byte {
	buf := make([]byte, 0, snapshotSize)
	buf = append(buf, c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L)
	buf = binary.BigEndian.AppendUint16(buf, c.SP)
	buf = binary.BigEndian.AppendUint16(buf, c.PC)
	buf = append(buf, boolByte(c.IME), uint8(c.imeScheduled), boolByte(c.halted), boolByte(c.stopped))
	return buf
}

// Restore reapplies a Snapshot produced by this CPU type.
func (c *CPU) Restore(data []byte) error {
	if len(data) != snapshotSize {
		return fmt.Errorf("cpu: save state size mismatch: got %d, want %d", len(data), snapshotSize)
	}
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = data[0], data[1], data[2], data[3], data[4], data[5], data[6], data[7]
	c.SP = binary.BigEndian.Uint16(data[8:10])
	c.PC = binary.BigEndian.Uint16(data[10:12])
	c.IME = data[12] != 0
	c.imeScheduled = int(data[13])
	c.halted = data[14] != 0
	c.stopped = data[15] != 0
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// dispatchInterrupt pushes PC, clears IME, acknowledges the source and
// jumps to its fixed vector; takes 5 M-cycles on real hardware.
func (c *CPU) dispatchInterrupt(source ic.Source) int {
	c.IME = false
	c.ic.Acknowledge(source)
	c.push16(c.PC)
	c.PC = ic.Vector(source)
	return 5
}
