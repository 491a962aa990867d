package cpu

// executeCB decodes and runs one CB-prefixed opcode. All CB opcodes
// operate on one of the eight r8 operands (0-5=B,C,D,E,H,L, 6=(HL),
// 7=A); (HL) costs one extra M-cycle for BIT and two extra for the
// read-modify-write group (RLC/RRC/RL/RR/SLA/SRA/SWAP/SRL/RES/SET).
func (c *CPU) executeCB(op uint8) (int, error) {
	reg := op & 0x07
	group := op >> 6
	bit := (op >> 3) & 0x07

	if group == 0 {
		v := c.r8(reg)
		var r uint8
		switch bit {
		case 0:
			r = c.rlc(v)
		case 1:
			r = c.rrc(v)
		case 2:
			r = c.rl(v)
		case 3:
			r = c.rr(v)
		case 4:
			r = c.sla(v)
		case 5:
			r = c.sra(v)
		case 6:
			r = c.swap(v)
		case 7:
			r = c.srl(v)
		}
		c.setR8(reg, r)
		return 2 + 2*r8Cycles(reg), nil
	}

	switch group {
	case 1: // BIT b,r
		c.bitTest(bit, c.r8(reg))
		return 2 + r8Cycles(reg), nil
	case 2: // RES b,r
		c.setR8(reg, c.r8(reg)&^(1<<bit))
		return 2 + 2*r8Cycles(reg), nil
	default: // SET b,r
		c.setR8(reg, c.r8(reg)|(1<<bit))
		return 2 + 2*r8Cycles(reg), nil
	}
}

func (c *CPU) sla(v uint8) uint8 {
	carry := v&0x80 != 0
	r := v << 1
	c.setFlags(r == 0, false, false, carry)
	return r
}

func (c *CPU) sra(v uint8) uint8 {
	carry := v&0x01 != 0
	r := (v >> 1) | (v & 0x80)
	c.setFlags(r == 0, false, false, carry)
	return r
}

func (c *CPU) srl(v uint8) uint8 {
	carry := v&0x01 != 0
	r := v >> 1
	c.setFlags(r == 0, false, false, carry)
	return r
}

func (c *CPU) swap(v uint8) uint8 {
	r := v<<4 | v>>4
	c.setFlags(r == 0, false, false, false)
	return r
}

func (c *CPU) bitTest(bit uint8, v uint8) {
	c.setFlag(FlagZ, v&(1<<bit) == 0)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, true)
}
