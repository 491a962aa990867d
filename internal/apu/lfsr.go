package apu

// lfsr7Table and lfsr15Table are the precomputed output sequences of
// channel 4's linear feedback shift register in its two widths,
// generated once at package init exactly as original_source/src/lfsr.c
// does: shift right one bit per step, feeding back XOR of bit0 and bit1
// into the new top bit, recording the low bit before each shift.
var (
	lfsr7Table  [127]uint8
	lfsr15Table [32767]uint8
)

func init() {
	value := uint16(0x7F)
	for i := range lfsr7Table {
		lfsr7Table[i] = uint8(value & 1)
		highBit := (value & 1) ^ ((value >> 1) & 1)
		value = (highBit << 6) | (value >> 1)
	}

	value = 0x7FFF
	for i := range lfsr15Table {
		lfsr15Table[i] = uint8(value & 1)
		highBit := (value & 1) ^ ((value >> 1) & 1)
		value = (highBit << 14) | (value >> 1)
	}
}
