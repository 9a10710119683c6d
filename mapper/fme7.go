package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// fme7 is mapper 69 (Sunsoft FME-7). A command write at $8000-$9FFF selects
// one of sixteen internal registers, which the next write at $A000-$BFFF
// sets; registers 0-7 are 1 KiB CHR banks, 8 is the $6000 PRG-RAM/ROM select
// (stored, but $6000-$7FFF always maps PRG-RAM), 9-11 are 8 KiB PRG banks,
// 12 is mirroring, 13 is the IRQ control/ack register, 14-15 are the 16-bit
// IRQ counter halves. While counting is on (register 13 bit 7) the counter
// decrements on every CPU tick regardless of the IRQ enable (bit 0); the IRQ
// is raised when it wraps from 0 to 0xFFFF with the enable set (spec.md §4.2).
type fme7 struct {
	baseMapper
	prgRAM []byte

	addrReg uint8
	chrReg  [8]uint8
	prgReg  [3]uint8
	prg6000 uint8 // bank select for $6000-$7FFF; bit 6 ROM vs RAM, bit 7 enable
	mirror  cartridge.Mirroring

	irqEnabled  bool
	irqCountOn  bool
	irqCounter  uint16
	irqPending  bool

	prgBanks int
	chrBanks int
}

func newFME7(cart *cartridge.Cartridge) *fme7 {
	return &fme7{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		mirror:     cartridge.MirrorVertical,
		prgBanks:   maxInt(len(cart.PRGROM)/0x2000, 1),
		chrBanks:   maxInt(len(cart.CHRROM)/0x0400, 1),
	}
}

func (m *fme7) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000 && addr < 0xA000:
		return m.cart.PRGROM[int(m.prgReg[0])%m.prgBanks*0x2000+int(addr-0x8000)]
	case addr >= 0xA000 && addr < 0xC000:
		return m.cart.PRGROM[int(m.prgReg[1])%m.prgBanks*0x2000+int(addr-0xA000)]
	case addr >= 0xC000 && addr < 0xE000:
		return m.cart.PRGROM[int(m.prgReg[2])%m.prgBanks*0x2000+int(addr-0xC000)]
	case addr >= 0xE000:
		last := m.prgBanks - 1
		return m.cart.PRGROM[last*0x2000+int(addr-0xE000)]
	default:
		return 0
	}
}

func (m *fme7) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0x8000 && addr < 0xA000:
		m.addrReg = val & 0x0F
	case addr >= 0xA000 && addr < 0xC000:
		m.writeRegister(val)
	}
}

func (m *fme7) writeRegister(val uint8) {
	switch {
	case m.addrReg <= 7:
		m.chrReg[m.addrReg] = val
	case m.addrReg == 8:
		m.prg6000 = val
	case m.addrReg <= 11:
		m.prgReg[m.addrReg-9] = val & 0x3F
	case m.addrReg == 12:
		switch val & 0x03 {
		case 0:
			m.mirror = cartridge.MirrorVertical
		case 1:
			m.mirror = cartridge.MirrorHorizontal
		case 2:
			m.mirror = cartridge.MirrorSingleLower
		default:
			m.mirror = cartridge.MirrorSingleUpper
		}
	case m.addrReg == 13:
		m.irqEnabled = val&0x01 != 0
		m.irqCountOn = val&0x80 != 0
		m.irqPending = false
	case m.addrReg == 14:
		m.irqCounter = (m.irqCounter & 0xFF00) | uint16(val)
	default: // 15
		m.irqCounter = (m.irqCounter & 0x00FF) | uint16(val)<<8
	}
}

func (m *fme7) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	bank := int(m.chrReg[addr/0x400]) % m.chrBanks
	return chr[bank*0x400+int(addr)%0x400]
}

func (m *fme7) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

// TickCPUCycle clocks the 16-bit down-counter once per CPU cycle (spec.md
// §4.2: "FME-7 down-counter clocked on CPU ticks").
func (m *fme7) TickCPUCycle() {
	if !m.irqCountOn {
		return
	}
	m.irqCounter--
	if m.irqCounter == 0xFFFF && m.irqEnabled {
		m.irqPending = true
	}
}

func (m *fme7) Mirroring() cartridge.Mirroring { return m.mirror }
func (m *fme7) IRQPending() bool               { return m.irqPending }

// ClearIRQ intentionally does nothing: FME-7's IRQ line is only acknowledged
// by a write to the control register (register 13), whatever value it
// carries, unlike MMC3 where any $E000 write clears it (spec.md/SPEC_FULL.md
// "SUPPLEMENTED FEATURES").
func (m *fme7) ClearIRQ() {}

func (m *fme7) State() string { return "FME-7" }
