// Package serial is a single-unit stub for the DMG serial port: with no
// link-cable peer connected, any transfer the ROM starts completes with
// 0xFF shifted in.
package serial

import (
	"encoding/binary"
	"fmt"

	"gbcore/internal/ic"
)

// transferCycles is the T-cycle length of one 8-bit shift at the
// internal (fastest) clock; real hardware shifts one bit per 512
// T-cycles, 8 bits per transfer. Step is fed T-cycles, same as timer.
const transferCycles = 512 * 8

type Serial struct {
	sb uint8 // 0xFF01 transfer data
	sc uint8 // 0xFF02 control

	transferring bool
	cyclesLeft   uint32

	ic *ic.Controller
}

func New(controller *ic.Controller) *Serial {
	return &Serial{ic: controller}
}

// Step advances any in-flight transfer by cycles T-cycles.
func (s *Serial) Step(cycles uint32) {
	if !s.transferring {
		return
	}
	if uint32(cycles) >= s.cyclesLeft {
		s.cyclesLeft = 0
	} else {
		s.cyclesLeft -= cycles
	}
	if s.cyclesLeft == 0 {
		s.transferring = false
		s.sb = 0xFF // no peer: shift in all ones
		s.sc &^= 0x80
		s.ic.Request(ic.Serial)
	}
}

func (s *Serial) Read8(offset uint16) uint8 {
	switch offset {
	case 0:
		return s.sb
	case 1:
		return s.sc | 0x7E
	default:
		return 0xFF
	}
}

func (s *Serial) Write8(offset uint16, value uint8) {
	switch offset {
	case 0:
		s.sb = value
	case 1:
		s.sc = value
		if value&0x80 != 0 && value&0x01 != 0 {
			s.transferring = true
			s.cyclesLeft = transferCycles
		}
	}
}

func (s *Serial) Read16(offset uint16) uint16 {
	return uint16(s.Read8(offset)) | uint16(s.Read8(offset+1))<<8
}

func (s *Serial) Write16(offset uint16, value uint16) {
	s.Write8(offset, uint8(value))
	s.Write8(offset+1, uint8(value>>8))
}

// snapshotSize is the fixed byte length of Snapshot's output.
const snapshotSize = 1 + 1 + 1 + 4

// Snapshot returns SB, SC and the in-flight transfer state, field-by-
// field, for save-state capture.
func (s *Serial) Snapshot() []byte {
	buf := make([]byte, 0, snapshotSize)
	buf = append(buf, s.sb, s.sc, boolByte(s.transferring))
	buf = binary.BigEndian.AppendUint32(buf, s.cyclesLeft)
	return buf
}

// Restore reapplies a Snapshot produced by this type.
func (s *Serial) Restore(data []byte) error {
	if len(data) != snapshotSize {
		return fmt.Errorf("serial: save state size mismatch: got %d, want %d", len(data), snapshotSize)
	}
	s.sb, s.sc = data[0], data[1]
	s.transferring = data[2] != 0
	s.cyclesLeft = binary.BigEndian.Uint32(data[3:7])
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
