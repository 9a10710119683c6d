package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// vrc4 represents mapper 25 (Konami VRC4), also representative of the
// near-identical 21/22/23 register layouts named in spec.md §4.2: two
// switchable 8 KiB PRG windows, eight 1 KiB CHR banks, one-screen/vertical/
// horizontal mirroring, and a CPU-cycle-counted scanline/cycle IRQ.
type vrc4 struct {
	baseMapper
	prgRAM []byte

	prgBank0 uint8
	chrBank  [8]uint8
	mirror   cartridge.Mirroring

	irqLatch   uint8
	irqCounter uint8
	irqEnabled bool
	irqAckOnAck bool
	irqCycleMode bool
	irqPending bool
	prescaler  int

	prgBanks int
	chrBanks int
}

func newVRC4(cart *cartridge.Cartridge) *vrc4 {
	return &vrc4{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		mirror:     cartridge.MirrorVertical,
		prgBanks:   maxInt(len(cart.PRGROM)/0x2000, 1),
		chrBanks:   maxInt(len(cart.CHRROM)/0x0400, 1),
	}
}

func (m *vrc4) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000 && addr < 0xA000:
		return m.cart.PRGROM[int(m.prgBank0)%m.prgBanks*0x2000+int(addr-0x8000)]
	case addr >= 0xA000 && addr < 0xC000:
		return m.cart.PRGROM[int(m.prgBank0+1)%m.prgBanks*0x2000+int(addr-0xA000)]
	case addr >= 0xC000 && addr < 0xE000:
		secondLast := m.prgBanks - 2
		return m.cart.PRGROM[secondLast*0x2000+int(addr-0xC000)]
	default:
		last := m.prgBanks - 1
		return m.cart.PRGROM[last*0x2000+int(addr-0xE000)]
	}
}

func (m *vrc4) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0x8000 && addr < 0x9000:
		m.prgBank0 = val & 0x1F
	case addr >= 0x9000 && addr < 0xA000:
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
	case addr >= 0xB000 && addr < 0xD000:
		reg := int((addr-0xB000)/0x10) * 2
		nibbleSel := (addr & 0x02) != 0
		if nibbleSel {
			m.chrBank[reg] = (m.chrBank[reg] & 0x0F) | (val&0x0F)<<4
		} else {
			m.chrBank[reg] = (m.chrBank[reg] & 0xF0) | val&0x0F
		}
	case addr >= 0xD000 && addr < 0xF000:
		reg := int((addr-0xD000)/0x10)*2 + 1
		nibbleSel := (addr & 0x02) != 0
		if nibbleSel {
			m.chrBank[reg] = (m.chrBank[reg] & 0x0F) | (val&0x0F)<<4
		} else {
			m.chrBank[reg] = (m.chrBank[reg] & 0xF0) | val&0x0F
		}
	case addr >= 0xF000:
		m.writeIRQRegister(addr, val)
	}
}

func (m *vrc4) writeIRQRegister(addr uint16, val uint8) {
	switch addr & 0x03 {
	case 0:
		m.irqLatch = val
	case 1:
		m.irqCycleMode = val&0x04 != 0
		m.irqEnabled = val&0x02 != 0
		if m.irqEnabled {
			m.irqCounter = m.irqLatch
			m.prescaler = 341
		}
		m.irqAckOnAck = val&0x01 != 0
	default:
		m.irqEnabled = m.irqAckOnAck
		m.irqPending = false
	}
}

func (m *vrc4) TickCPUCycle() {
	if !m.irqEnabled {
		return
	}
	if m.irqCycleMode {
		m.clockIRQ()
		return
	}
	m.prescaler -= 3
	if m.prescaler <= 0 {
		m.prescaler += 341
		m.clockIRQ()
	}
}

func (m *vrc4) clockIRQ() {
	if m.irqCounter == 0xFF {
		m.irqCounter = m.irqLatch
		m.irqPending = true
	} else {
		m.irqCounter++
	}
}

func (m *vrc4) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	bank := int(m.chrBank[addr/0x400]) % m.chrBanks
	return chr[bank*0x400+int(addr)%0x400]
}

func (m *vrc4) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *vrc4) Mirroring() cartridge.Mirroring { return m.mirror }
func (m *vrc4) IRQPending() bool               { return m.irqPending }
func (m *vrc4) ClearIRQ()                      { m.irqPending = false }
func (m *vrc4) State() string                  { return "VRC4" }

// vrc6 represents mappers 24/26 (Konami VRC6a/b): 16 KiB + 8 KiB PRG
// windows, eight CHR banks, and a CPU-cycle IRQ counter identical in shape
// to VRC4's. The "b" variant differs in which CPU address lines reach the
// chip's A0/A1 pins; that swap is not modelled, so both variants decode
// registers the same way and variantB only shows in State().
type vrc6 struct {
	baseMapper
	prgRAM []byte
	variantB bool

	prg16 uint8
	prg8  uint8
	chrBank [8]uint8
	mirror cartridge.Mirroring

	irqLatch   uint8
	irqCounter uint8
	irqEnabled bool
	irqAckOnAck bool
	irqPending bool
	prescaler  int

	prgBanks16 int
	prgBanks8  int
	chrBanks   int
}

func newVRC6(cart *cartridge.Cartridge, variantB bool) *vrc6 {
	return &vrc6{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		variantB:   variantB,
		mirror:     cartridge.MirrorVertical,
		prgBanks16: maxInt(len(cart.PRGROM)/0x4000, 1),
		prgBanks8:  maxInt(len(cart.PRGROM)/0x2000, 1),
		chrBanks:   maxInt(len(cart.CHRROM)/0x0400, 1),
	}
}

func (m *vrc6) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000 && addr < 0xC000:
		return m.cart.PRGROM[int(m.prg16)%m.prgBanks16*0x4000+int(addr-0x8000)]
	case addr >= 0xC000 && addr < 0xE000:
		return m.cart.PRGROM[int(m.prg8)%m.prgBanks8*0x2000+int(addr-0xC000)]
	default:
		last := m.prgBanks8 - 1
		return m.cart.PRGROM[last*0x2000+int(addr-0xE000)%0x2000]
	}
}

func (m *vrc6) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0x8000 && addr < 0x9000:
		m.prg16 = val & 0x0F
	case addr >= 0xB003 && addr < 0xB004:
		switch (val >> 2) & 0x03 {
		case 0, 1:
			m.mirror = cartridge.MirrorVertical
		case 2:
			m.mirror = cartridge.MirrorSingleLower
		default:
			m.mirror = cartridge.MirrorSingleUpper
		}
	case addr >= 0xC000 && addr < 0xD000:
		m.prg8 = val & 0x1F
	case addr >= 0xD000 && addr < 0xF000:
		bank := int((addr-0xD000)/0x1000)*4 + int(addr&0x03)
		if bank >= 0 && bank < 8 {
			m.chrBank[bank] = val
		}
	case addr >= 0xF000:
		m.writeIRQRegister(addr, val)
	}
}

func (m *vrc6) writeIRQRegister(addr uint16, val uint8) {
	switch addr & 0x03 {
	case 0:
		m.irqLatch = val
	case 1:
		m.irqEnabled = val&0x02 != 0
		m.irqAckOnAck = val&0x01 != 0
		if m.irqEnabled {
			m.irqCounter = m.irqLatch
			m.prescaler = 341
		}
	default:
		m.irqEnabled = m.irqAckOnAck
		m.irqPending = false
	}
}

func (m *vrc6) TickCPUCycle() {
	if !m.irqEnabled {
		return
	}
	m.prescaler -= 3
	if m.prescaler <= 0 {
		m.prescaler += 341
		if m.irqCounter == 0xFF {
			m.irqCounter = m.irqLatch
			m.irqPending = true
		} else {
			m.irqCounter++
		}
	}
}

func (m *vrc6) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	bank := int(m.chrBank[addr/0x400]) % m.chrBanks
	return chr[bank*0x400+int(addr)%0x400]
}

func (m *vrc6) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *vrc6) Mirroring() cartridge.Mirroring { return m.mirror }
func (m *vrc6) IRQPending() bool               { return m.irqPending }
func (m *vrc6) ClearIRQ()                      { m.irqPending = false }
func (m *vrc6) State() string {
	if m.variantB {
		return "VRC6b"
	}
	return "VRC6a"
}

// vrc7 is mapper 85: PRG/CHR banking identical in shape to VRC4, plus an FM
// synthesis audio register surface at $9010/$9030. Those extra audio
// channels are Non-goal expansion audio per spec.md §1; the registers are
// decoded (so writes don't alias onto PRG-RAM) but not sonified.
type vrc7 struct {
	*vrc4
}

func newVRC7(cart *cartridge.Cartridge) *vrc7 {
	return &vrc7{vrc4: newVRC4(cart)}
}

func (m *vrc7) CPUWrite(addr uint16, val uint8) {
	if addr == 0x9010 || addr == 0x9030 {
		// audio register port/data: accepted, not sonified (Non-goal).
		return
	}
	m.vrc4.CPUWrite(addr, val)
}

func (m *vrc7) State() string { return "VRC7" }
