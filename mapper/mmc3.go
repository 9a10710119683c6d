package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// mmc3 is mapper 4. Eight bank registers selected by a bank-select latch at
// $8000, two swappable 8 KiB PRG windows, six CHR windows, and the A12-edge
// scanline IRQ counter described in spec.md §4.2/§9. The A12 filter: a
// rising edge only clocks the counter once at least 8 A12-low observations
// (NotifyPPUReadAddr/NotifyPPUWriteAddr calls with A12 clear) have been seen
// since A12 was last high. It counts those calls; it does not measure
// elapsed CPU cycles.
type mmc3 struct {
	baseMapper
	prgRAM []byte

	bankSelect uint8
	bankReg    [8]uint8
	mirror     cartridge.Mirroring

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	irqPending bool

	lastA12      int
	a12LowCycles int

	prgBanks int // 8 KiB units
	chrBanks int // 1 KiB units
}

func newMMC3(cart *cartridge.Cartridge) *mmc3 {
	return &mmc3{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		mirror:     cartridge.MirrorVertical,
		prgBanks:   maxInt(len(cart.PRGROM)/0x2000, 1),
		chrBanks:   maxInt(len(cart.CHRROM)/0x0400, 1),
		lastA12:    -1,
	}
}

func (m *mmc3) prgMode() bool { return m.bankSelect&0x40 != 0 } // true: swap 0x8000/0xC000-2
func (m *mmc3) chrMode() bool { return m.bankSelect&0x80 != 0 } // true: swap 0x0000/0x1000

func (m *mmc3) prgBankFor(slot int) int {
	// slot 0 = $8000-$9FFF, 1 = $A000-$BFFF, 2 = $C000-$DFFF, 3 = $E000-$FFFF.
	secondLast := m.prgBanks - 2
	last := m.prgBanks - 1
	switch slot {
	case 0:
		if m.prgMode() {
			return secondLast
		}
		return int(m.bankReg[6]) % m.prgBanks
	case 1:
		return int(m.bankReg[7]) % m.prgBanks
	case 2:
		if m.prgMode() {
			return int(m.bankReg[6]) % m.prgBanks
		}
		return secondLast
	default:
		return last
	}
}

func (m *mmc3) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000:
		slot := int((addr - 0x8000) / 0x2000)
		bank := m.prgBankFor(slot)
		return m.cart.PRGROM[bank*0x2000+int(addr)%0x2000]
	default:
		return 0
	}
}

func (m *mmc3) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0x8000 && addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = val
		} else {
			m.bankReg[m.bankSelect&0x07] = val
		}
	case addr >= 0xA000 && addr < 0xC000:
		if addr&1 == 0 {
			if val&0x01 != 0 {
				m.mirror = cartridge.MirrorHorizontal
			} else {
				m.mirror = cartridge.MirrorVertical
			}
		}
		// odd address: PRG-RAM protect register, not modelled (no write-protect need).
	case addr >= 0xC000 && addr < 0xE000:
		if addr&1 == 0 {
			m.irqLatch = val
		} else {
			m.irqReload = true
		}
	default: // 0xE000-0xFFFF
		if addr&1 == 0 {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

func (m *mmc3) chrBankFor(addr uint16) (bank int, offset int) {
	offset = int(addr) & 0x03FF
	region := addr / 0x0400 // 0..7, each 1 KiB
	if m.chrMode() {
		region ^= 4
	}
	switch region {
	case 0:
		return int(m.bankReg[0] &^ 1), offset
	case 1:
		return int(m.bankReg[0] | 1), offset
	case 2:
		return int(m.bankReg[1] &^ 1), offset
	case 3:
		return int(m.bankReg[1] | 1), offset
	case 4:
		return int(m.bankReg[2]), offset
	case 5:
		return int(m.bankReg[3]), offset
	case 6:
		return int(m.bankReg[4]), offset
	default:
		return int(m.bankReg[5]), offset
	}
}

func (m *mmc3) PPURead(addr uint16) uint8 {
	m.NotifyPPUReadAddr(addr)
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	bank, offset := m.chrBankFor(addr)
	bank %= m.chrBanks
	return chr[bank*0x0400+offset]
}

func (m *mmc3) PPUWrite(addr uint16, val uint8) {
	m.NotifyPPUWriteAddr(addr)
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

// NotifyPPUReadAddr and NotifyPPUWriteAddr both observe A12 edges, since the
// real MMC3 clocks its counter off address-bus activity regardless of
// direction.
func (m *mmc3) NotifyPPUReadAddr(addr uint16)  { m.observeA12(addr) }
func (m *mmc3) NotifyPPUWriteAddr(addr uint16) { m.observeA12(addr) }

func (m *mmc3) observeA12(addr uint16) {
	a12 := int((addr >> 12) & 1)
	if a12 == 0 {
		m.a12LowCycles++
		m.lastA12 = 0
		return
	}
	if m.lastA12 == 0 && m.a12LowCycles >= 8 {
		m.clockIRQCounter()
	}
	m.lastA12 = 1
	m.a12LowCycles = 0
}

func (m *mmc3) clockIRQCounter() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

func (m *mmc3) Mirroring() cartridge.Mirroring { return m.mirror }
func (m *mmc3) IRQPending() bool               { return m.irqPending }
func (m *mmc3) ClearIRQ()                      { m.irqPending = false }
func (m *mmc3) State() string                  { return "MMC3" }
