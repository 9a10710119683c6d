package cpu

// addrMode names the 6502 addressing mode an opcode factory resolves
// against; grounded on the teacher's ModeZeroPage/ModeIndexedAbsoluteX/...
// constants (nes/cpu/cpu.go), collapsed to the subset that needs distinct
// effective-address arithmetic.
type addrMode int

const (
	modeImm addrMode = iota
	modeZP
	modeZPX
	modeZPY
	modeAbs
	modeAbsX
	modeAbsY
	modeIndX
	modeIndY
)

func (c *CPU) addrZP(bus Bus) uint16  { return uint16(c.fetchByte(bus)) }
func (c *CPU) addrZPX(bus Bus) uint16 { return uint16(c.fetchByte(bus) + c.X) }
func (c *CPU) addrZPY(bus Bus) uint16 { return uint16(c.fetchByte(bus) + c.Y) }
func (c *CPU) addrAbs(bus Bus) uint16 { return c.fetchWord(bus) }

func (c *CPU) addrAbsX(bus Bus) (addr uint16, crossed bool) {
	base := c.fetchWord(bus)
	addr = base + uint16(c.X)
	return addr, pageCrossed(base, addr)
}

func (c *CPU) addrAbsY(bus Bus) (addr uint16, crossed bool) {
	base := c.fetchWord(bus)
	addr = base + uint16(c.Y)
	return addr, pageCrossed(base, addr)
}

func (c *CPU) addrIndX(bus Bus) uint16 {
	zp := c.fetchByte(bus) + c.X
	lo := uint16(bus.Read(uint16(zp)))
	hi := uint16(bus.Read(uint16(zp + 1)))
	return lo | hi<<8
}

func (c *CPU) addrIndY(bus Bus) (addr uint16, crossed bool) {
	zp := c.fetchByte(bus)
	lo := uint16(bus.Read(uint16(zp)))
	hi := uint16(bus.Read(uint16(zp + 1)))
	base := lo | hi<<8
	addr = base + uint16(c.Y)
	return addr, pageCrossed(base, addr)
}

// addrIndirectJMP resolves JMP's ($addr) operand, reproducing the page-wrap
// bug: if the pointer's low byte is 0xFF, the high byte is fetched from the
// start of the same page instead of the next one.
func (c *CPU) addrIndirectJMP(bus Bus) uint16 {
	ptr := c.fetchWord(bus)
	lo := uint16(bus.Read(ptr))
	var hiAddr uint16
	if ptr&0x00FF == 0x00FF {
		hiAddr = ptr & 0xFF00
	} else {
		hiAddr = ptr + 1
	}
	hi := uint16(bus.Read(hiAddr))
	return lo | hi<<8
}

// resolveRead returns the operand value for any read-class addressing mode
// and the extra cycle a page-crossing indexed read incurs.
func (c *CPU) resolveRead(bus Bus, mode addrMode) (uint8, int) {
	switch mode {
	case modeImm:
		return c.fetchByte(bus), 0
	case modeZP:
		return bus.Read(c.addrZP(bus)), 0
	case modeZPX:
		return bus.Read(c.addrZPX(bus)), 0
	case modeZPY:
		return bus.Read(c.addrZPY(bus)), 0
	case modeAbs:
		return bus.Read(c.addrAbs(bus)), 0
	case modeAbsX:
		addr, crossed := c.addrAbsX(bus)
		v := bus.Read(addr)
		if crossed {
			return v, 1
		}
		return v, 0
	case modeAbsY:
		addr, crossed := c.addrAbsY(bus)
		v := bus.Read(addr)
		if crossed {
			return v, 1
		}
		return v, 0
	case modeIndX:
		return bus.Read(c.addrIndX(bus)), 0
	default: // modeIndY
		addr, crossed := c.addrIndY(bus)
		v := bus.Read(addr)
		if crossed {
			return v, 1
		}
		return v, 0
	}
}

// resolveAddr returns the effective address for a write or read-modify-write
// opcode; indexed write/RMW variants always charge their worst-case cycle
// count regardless of crossing, so no extra is reported here.
func (c *CPU) resolveAddr(bus Bus, mode addrMode) uint16 {
	switch mode {
	case modeZP:
		return c.addrZP(bus)
	case modeZPX:
		return c.addrZPX(bus)
	case modeZPY:
		return c.addrZPY(bus)
	case modeAbs:
		return c.addrAbs(bus)
	case modeAbsX:
		addr, _ := c.addrAbsX(bus)
		return addr
	case modeAbsY:
		addr, _ := c.addrAbsY(bus)
		return addr
	case modeIndX:
		return c.addrIndX(bus)
	default: // modeIndY
		addr, _ := c.addrIndY(bus)
		return addr
	}
}

func ldaFn(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.A = v
		c.setZN(v)
		return extra
	}
}

func ldxFn(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.X = v
		c.setZN(v)
		return extra
	}
}

func ldyFn(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.Y = v
		c.setZN(v)
		return extra
	}
}

func st(src func(*CPU) uint8, mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		bus.Write(c.resolveAddr(bus, mode), src(c))
		return 0
	}
}

func and(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.A &= v
		c.setZN(c.A)
		return extra
	}
}

func ora(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.A |= v
		c.setZN(c.A)
		return extra
	}
}

func eor(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.A ^= v
		c.setZN(c.A)
		return extra
	}
}

// addWithCarry implements ADC's binary-mode arithmetic; SBC reuses it by
// feeding the one's complement of the operand (spec.md §4.5: decimal mode is
// disabled, so this single path covers both).
func (c *CPU) addWithCarry(v uint8) {
	carry := uint16(0)
	if c.getFlag(BC) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(v) + carry
	c.setFlag(BC, sum > 0xFF)
	result := uint8(sum)
	overflow := (c.A^v)&0x80 == 0 && (c.A^result)&0x80 != 0
	c.setFlag(BV, overflow)
	c.A = result
	c.setZN(c.A)
}

func adc(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.addWithCarry(v)
		return extra
	}
}

func sbc(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.addWithCarry(v ^ 0xFF)
		return extra
	}
}

func (c *CPU) compare(reg, v uint8) {
	c.setFlag(BC, reg >= v)
	c.setZN(reg - v)
}

func cmp(reg func(*CPU) uint8, mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.compare(reg(c), v)
		return extra
	}
}

func bitOp(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		v, extra := c.resolveRead(bus, mode)
		c.setFlag(BZ, c.A&v == 0)
		c.setFlag(BN, v&0x80 != 0)
		c.setFlag(BV, v&0x40 != 0)
		return extra
	}
}

func incMem(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		addr := c.resolveAddr(bus, mode)
		v := bus.Read(addr)
		bus.Write(addr, v) // dummy write-back of the unmodified value
		v++
		bus.Write(addr, v)
		c.setZN(v)
		return 0
	}
}

func decMem(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		addr := c.resolveAddr(bus, mode)
		v := bus.Read(addr)
		bus.Write(addr, v)
		v--
		bus.Write(addr, v)
		c.setZN(v)
		return 0
	}
}

func aslAcc(c *CPU, bus Bus) int {
	c.setFlag(BC, c.A&0x80 != 0)
	c.A <<= 1
	c.setZN(c.A)
	return 0
}

func aslMem(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		addr := c.resolveAddr(bus, mode)
		v := bus.Read(addr)
		bus.Write(addr, v)
		c.setFlag(BC, v&0x80 != 0)
		v <<= 1
		bus.Write(addr, v)
		c.setZN(v)
		return 0
	}
}

func lsrAcc(c *CPU, bus Bus) int {
	c.setFlag(BC, c.A&0x01 != 0)
	c.A >>= 1
	c.setZN(c.A)
	return 0
}

func lsrMem(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		addr := c.resolveAddr(bus, mode)
		v := bus.Read(addr)
		bus.Write(addr, v)
		c.setFlag(BC, v&0x01 != 0)
		v >>= 1
		bus.Write(addr, v)
		c.setZN(v)
		return 0
	}
}

func rolAcc(c *CPU, bus Bus) int {
	carryIn := uint8(0)
	if c.getFlag(BC) {
		carryIn = 1
	}
	c.setFlag(BC, c.A&0x80 != 0)
	c.A = c.A<<1 | carryIn
	c.setZN(c.A)
	return 0
}

func rolMem(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		addr := c.resolveAddr(bus, mode)
		v := bus.Read(addr)
		bus.Write(addr, v)
		carryIn := uint8(0)
		if c.getFlag(BC) {
			carryIn = 1
		}
		c.setFlag(BC, v&0x80 != 0)
		v = v<<1 | carryIn
		bus.Write(addr, v)
		c.setZN(v)
		return 0
	}
}

func rorAcc(c *CPU, bus Bus) int {
	carryIn := uint8(0)
	if c.getFlag(BC) {
		carryIn = 0x80
	}
	c.setFlag(BC, c.A&0x01 != 0)
	c.A = c.A>>1 | carryIn
	c.setZN(c.A)
	return 0
}

func rorMem(mode addrMode) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		addr := c.resolveAddr(bus, mode)
		v := bus.Read(addr)
		bus.Write(addr, v)
		carryIn := uint8(0)
		if c.getFlag(BC) {
			carryIn = 0x80
		}
		c.setFlag(BC, v&0x01 != 0)
		v = v>>1 | carryIn
		bus.Write(addr, v)
		c.setZN(v)
		return 0
	}
}

func inx(c *CPU, bus Bus) int { c.X++; c.setZN(c.X); return 0 }
func iny(c *CPU, bus Bus) int { c.Y++; c.setZN(c.Y); return 0 }
func dex(c *CPU, bus Bus) int { c.X--; c.setZN(c.X); return 0 }
func dey(c *CPU, bus Bus) int { c.Y--; c.setZN(c.Y); return 0 }

func tax(c *CPU, bus Bus) int { c.X = c.A; c.setZN(c.X); return 0 }
func tay(c *CPU, bus Bus) int { c.Y = c.A; c.setZN(c.Y); return 0 }
func txa(c *CPU, bus Bus) int { c.A = c.X; c.setZN(c.A); return 0 }
func tya(c *CPU, bus Bus) int { c.A = c.Y; c.setZN(c.A); return 0 }
func tsx(c *CPU, bus Bus) int { c.X = c.SP; c.setZN(c.X); return 0 }
func txs(c *CPU, bus Bus) int { c.SP = c.X; return 0 }

func pha(c *CPU, bus Bus) int { c.push8(bus, c.A); return 0 }
func php(c *CPU, bus Bus) int { c.push8(bus, c.P|BB|BU); return 0 }
func pla(c *CPU, bus Bus) int { c.A = c.pull8(bus); c.setZN(c.A); return 0 }
func plp(c *CPU, bus Bus) int {
	c.P = c.pull8(bus)&^BB | BU
	return 0
}

func clc(c *CPU, bus Bus) int { c.setFlag(BC, false); return 0 }
func sec(c *CPU, bus Bus) int { c.setFlag(BC, true); return 0 }
func cli(c *CPU, bus Bus) int { c.setFlag(BI, false); return 0 }
func sei(c *CPU, bus Bus) int { c.setFlag(BI, true); return 0 }
func clv(c *CPU, bus Bus) int { c.setFlag(BV, false); return 0 }
func cld(c *CPU, bus Bus) int { c.setFlag(BD, false); return 0 }
func sed(c *CPU, bus Bus) int { c.setFlag(BD, true); return 0 }

func nop(c *CPU, bus Bus) int { return 0 }

func jmpAbs(c *CPU, bus Bus) int {
	c.PC = c.addrAbs(bus)
	return 0
}

func jmpInd(c *CPU, bus Bus) int {
	c.PC = c.addrIndirectJMP(bus)
	return 0
}

func jsr(c *CPU, bus Bus) int {
	target := c.addrAbs(bus)
	c.push16(bus, c.PC-1)
	c.PC = target
	return 0
}

func rts(c *CPU, bus Bus) int {
	c.PC = c.pull16(bus) + 1
	return 0
}

func rti(c *CPU, bus Bus) int {
	c.P = c.pull8(bus)&^BB | BU
	c.PC = c.pull16(bus)
	return 0
}

func brk(c *CPU, bus Bus) int {
	c.PC++ // BRK's signature byte is fetched and discarded
	c.pushInterruptFrame(bus, 0xFFFE, true)
	return 0
}

// branch builds a conditional-branch handler; mask/want describe which
// flag value takes the branch (spec.md §4.5: taken = +1, taken+page-cross = +2).
func branch(mask uint8, want bool) func(*CPU, Bus) int {
	return func(c *CPU, bus Bus) int {
		offset := int8(c.fetchByte(bus))
		if c.getFlag(mask) != want {
			return 0
		}
		from := c.PC
		c.PC = uint16(int32(c.PC) + int32(offset))
		if pageCrossed(from, c.PC) {
			return 2
		}
		return 1
	}
}

func init() {
	accOf := func(c *CPU) uint8 { return c.A }
	xOf := func(c *CPU) uint8 { return c.X }
	yOf := func(c *CPU) uint8 { return c.Y }

	register(0x69, "ADC", 2, adc(modeImm))
	register(0x65, "ADC", 3, adc(modeZP))
	register(0x75, "ADC", 4, adc(modeZPX))
	register(0x6D, "ADC", 4, adc(modeAbs))
	register(0x7D, "ADC", 4, adc(modeAbsX))
	register(0x79, "ADC", 4, adc(modeAbsY))
	register(0x61, "ADC", 6, adc(modeIndX))
	register(0x71, "ADC", 5, adc(modeIndY))

	register(0x29, "AND", 2, and(modeImm))
	register(0x25, "AND", 3, and(modeZP))
	register(0x35, "AND", 4, and(modeZPX))
	register(0x2D, "AND", 4, and(modeAbs))
	register(0x3D, "AND", 4, and(modeAbsX))
	register(0x39, "AND", 4, and(modeAbsY))
	register(0x21, "AND", 6, and(modeIndX))
	register(0x31, "AND", 5, and(modeIndY))

	register(0x0A, "ASL", 2, aslAcc)
	register(0x06, "ASL", 5, aslMem(modeZP))
	register(0x16, "ASL", 6, aslMem(modeZPX))
	register(0x0E, "ASL", 6, aslMem(modeAbs))
	register(0x1E, "ASL", 7, aslMem(modeAbsX))

	register(0x90, "BCC", 2, branch(BC, false))
	register(0xB0, "BCS", 2, branch(BC, true))
	register(0xF0, "BEQ", 2, branch(BZ, true))
	register(0x30, "BMI", 2, branch(BN, true))
	register(0xD0, "BNE", 2, branch(BZ, false))
	register(0x10, "BPL", 2, branch(BN, false))
	register(0x50, "BVC", 2, branch(BV, false))
	register(0x70, "BVS", 2, branch(BV, true))

	register(0x24, "BIT", 3, bitOp(modeZP))
	register(0x2C, "BIT", 4, bitOp(modeAbs))

	register(0x00, "BRK", 7, brk)

	register(0x18, "CLC", 2, clc)
	register(0xD8, "CLD", 2, cld)
	register(0x58, "CLI", 2, cli)
	register(0xB8, "CLV", 2, clv)

	register(0xC9, "CMP", 2, cmp(accOf, modeImm))
	register(0xC5, "CMP", 3, cmp(accOf, modeZP))
	register(0xD5, "CMP", 4, cmp(accOf, modeZPX))
	register(0xCD, "CMP", 4, cmp(accOf, modeAbs))
	register(0xDD, "CMP", 4, cmp(accOf, modeAbsX))
	register(0xD9, "CMP", 4, cmp(accOf, modeAbsY))
	register(0xC1, "CMP", 6, cmp(accOf, modeIndX))
	register(0xD1, "CMP", 5, cmp(accOf, modeIndY))

	register(0xE0, "CPX", 2, cmp(xOf, modeImm))
	register(0xE4, "CPX", 3, cmp(xOf, modeZP))
	register(0xEC, "CPX", 4, cmp(xOf, modeAbs))

	register(0xC0, "CPY", 2, cmp(yOf, modeImm))
	register(0xC4, "CPY", 3, cmp(yOf, modeZP))
	register(0xCC, "CPY", 4, cmp(yOf, modeAbs))

	register(0xC6, "DEC", 5, decMem(modeZP))
	register(0xD6, "DEC", 6, decMem(modeZPX))
	register(0xCE, "DEC", 6, decMem(modeAbs))
	register(0xDE, "DEC", 7, decMem(modeAbsX))

	register(0xCA, "DEX", 2, dex)
	register(0x88, "DEY", 2, dey)

	register(0x49, "EOR", 2, eor(modeImm))
	register(0x45, "EOR", 3, eor(modeZP))
	register(0x55, "EOR", 4, eor(modeZPX))
	register(0x4D, "EOR", 4, eor(modeAbs))
	register(0x5D, "EOR", 4, eor(modeAbsX))
	register(0x59, "EOR", 4, eor(modeAbsY))
	register(0x41, "EOR", 6, eor(modeIndX))
	register(0x51, "EOR", 5, eor(modeIndY))

	register(0xE6, "INC", 5, incMem(modeZP))
	register(0xF6, "INC", 6, incMem(modeZPX))
	register(0xEE, "INC", 6, incMem(modeAbs))
	register(0xFE, "INC", 7, incMem(modeAbsX))

	register(0xE8, "INX", 2, inx)
	register(0xC8, "INY", 2, iny)

	register(0x4C, "JMP", 3, jmpAbs)
	register(0x6C, "JMP", 5, jmpInd)
	register(0x20, "JSR", 6, jsr)

	register(0x4A, "LSR", 2, lsrAcc)
	register(0x46, "LSR", 5, lsrMem(modeZP))
	register(0x56, "LSR", 6, lsrMem(modeZPX))
	register(0x4E, "LSR", 6, lsrMem(modeAbs))
	register(0x5E, "LSR", 7, lsrMem(modeAbsX))

	register(0xEA, "NOP", 2, nop)

	register(0x09, "ORA", 2, ora(modeImm))
	register(0x05, "ORA", 3, ora(modeZP))
	register(0x15, "ORA", 4, ora(modeZPX))
	register(0x0D, "ORA", 4, ora(modeAbs))
	register(0x1D, "ORA", 4, ora(modeAbsX))
	register(0x19, "ORA", 4, ora(modeAbsY))
	register(0x01, "ORA", 6, ora(modeIndX))
	register(0x11, "ORA", 5, ora(modeIndY))

	register(0x48, "PHA", 3, pha)
	register(0x08, "PHP", 3, php)
	register(0x68, "PLA", 4, pla)
	register(0x28, "PLP", 4, plp)

	register(0x2A, "ROL", 2, rolAcc)
	register(0x26, "ROL", 5, rolMem(modeZP))
	register(0x36, "ROL", 6, rolMem(modeZPX))
	register(0x2E, "ROL", 6, rolMem(modeAbs))
	register(0x3E, "ROL", 7, rolMem(modeAbsX))

	register(0x6A, "ROR", 2, rorAcc)
	register(0x66, "ROR", 5, rorMem(modeZP))
	register(0x76, "ROR", 6, rorMem(modeZPX))
	register(0x6E, "ROR", 6, rorMem(modeAbs))
	register(0x7E, "ROR", 7, rorMem(modeAbsX))

	register(0x40, "RTI", 6, rti)
	register(0x60, "RTS", 6, rts)

	register(0xE9, "SBC", 2, sbc(modeImm))
	register(0xE5, "SBC", 3, sbc(modeZP))
	register(0xF5, "SBC", 4, sbc(modeZPX))
	register(0xED, "SBC", 4, sbc(modeAbs))
	register(0xFD, "SBC", 4, sbc(modeAbsX))
	register(0xF9, "SBC", 4, sbc(modeAbsY))
	register(0xE1, "SBC", 6, sbc(modeIndX))
	register(0xF1, "SBC", 5, sbc(modeIndY))

	register(0x38, "SEC", 2, sec)
	register(0xF8, "SED", 2, sed)
	register(0x78, "SEI", 2, sei)

	register(0x85, "STA", 3, st(accOf, modeZP))
	register(0x95, "STA", 4, st(accOf, modeZPX))
	register(0x8D, "STA", 4, st(accOf, modeAbs))
	register(0x9D, "STA", 5, st(accOf, modeAbsX))
	register(0x99, "STA", 5, st(accOf, modeAbsY))
	register(0x81, "STA", 6, st(accOf, modeIndX))
	register(0x91, "STA", 6, st(accOf, modeIndY))

	register(0x86, "STX", 3, st(xOf, modeZP))
	register(0x96, "STX", 4, st(xOf, modeZPY))
	register(0x8E, "STX", 4, st(xOf, modeAbs))

	register(0x84, "STY", 3, st(yOf, modeZP))
	register(0x94, "STY", 4, st(yOf, modeZPX))
	register(0x8C, "STY", 4, st(yOf, modeAbs))

	register(0xAA, "TAX", 2, tax)
	register(0xA8, "TAY", 2, tay)
	register(0xBA, "TSX", 2, tsx)
	register(0x8A, "TXA", 2, txa)
	register(0x9A, "TXS", 2, txs)
	register(0x98, "TYA", 2, tya)

	register(0xA9, "LDA", 2, ldaFn(modeImm))
	register(0xA5, "LDA", 3, ldaFn(modeZP))
	register(0xB5, "LDA", 4, ldaFn(modeZPX))
	register(0xAD, "LDA", 4, ldaFn(modeAbs))
	register(0xBD, "LDA", 4, ldaFn(modeAbsX))
	register(0xB9, "LDA", 4, ldaFn(modeAbsY))
	register(0xA1, "LDA", 6, ldaFn(modeIndX))
	register(0xB1, "LDA", 5, ldaFn(modeIndY))

	register(0xA2, "LDX", 2, ldxFn(modeImm))
	register(0xA6, "LDX", 3, ldxFn(modeZP))
	register(0xB6, "LDX", 4, ldxFn(modeZPY))
	register(0xAE, "LDX", 4, ldxFn(modeAbs))
	register(0xBE, "LDX", 4, ldxFn(modeAbsY))

	register(0xA0, "LDY", 2, ldyFn(modeImm))
	register(0xA4, "LDY", 3, ldyFn(modeZP))
	register(0xB4, "LDY", 4, ldyFn(modeZPX))
	register(0xAC, "LDY", 4, ldyFn(modeAbs))
	register(0xBC, "LDY", 4, ldyFn(modeAbsX))
}
