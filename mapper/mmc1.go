package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// mmc1 is mapper 1, grounded on the teacher's MapperMMC1 shift-register
// logic (nes/mapper.go) generalized to the full PRG/CHR bank-mode matrix
// spec.md §4.2 requires.
type mmc1 struct {
	baseMapper
	prgRAM []byte

	shift   uint8
	shiftN  uint8
	control uint8
	chr0    uint8
	chr1    uint8
	prg     uint8

	prgBanks int
	chrBanks int // in 4 KiB units
}

func newMMC1(cart *cartridge.Cartridge) *mmc1 {
	return &mmc1{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		control:    0x0C,
		prgBanks:   len(cart.PRGROM) / 0x4000,
		chrBanks:   maxInt(len(cart.CHRROM)/0x1000, 1),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (m *mmc1) prgBankMode() uint8 { return (m.control >> 2) & 0x03 }
func (m *mmc1) chrBankMode() uint8 { return (m.control >> 4) & 0x01 }

func (m *mmc1) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000:
		bank, offset := m.prgWindow(addr)
		bank %= m.prgBanks
		return m.cart.PRGROM[bank*0x4000+offset]
	default:
		return 0
	}
}

// prgWindow resolves which 16 KiB bank and in-bank offset addr belongs to,
// per the PRG mode table in spec.md §4.2.
func (m *mmc1) prgWindow(addr uint16) (bank int, offset int) {
	offset = int(addr) & 0x3FFF
	switch m.prgBankMode() {
	case 0, 1:
		// 32 KiB switch, low bit of the bank register is ignored.
		base := int(m.prg &^ 1)
		if addr < 0xC000 {
			return base, offset
		}
		return base + 1, offset
	case 2:
		if addr < 0xC000 {
			return 0, offset
		}
		return int(m.prg & 0x0F), offset
	default: // 3
		if addr < 0xC000 {
			return int(m.prg & 0x0F), offset
		}
		return m.prgBanks - 1, offset
	}
}

func (m *mmc1) CPUWrite(addr uint16, val uint8) {
	if addr >= 0x6000 && addr < 0x8000 {
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
		return
	}
	if addr < 0x8000 {
		return
	}

	if val&0x80 != 0 {
		m.shift = 0
		m.shiftN = 0
		m.control |= 0x0C
		return
	}

	m.shift |= (val & 0x01) << m.shiftN
	m.shiftN++
	if m.shiftN < 5 {
		return
	}

	target := m.shift
	m.shift, m.shiftN = 0, 0

	switch {
	case addr < 0xA000:
		m.control = target
	case addr < 0xC000:
		m.chr0 = target
	case addr < 0xE000:
		m.chr1 = target
	default:
		m.prg = target
	}
}

func (m *mmc1) chrWindow(addr uint16) (bank int, offset int) {
	offset = int(addr) & 0x0FFF
	if m.chrBankMode() == 0 {
		// 8 KiB mode: low bit of chr0 ignored, selects two consecutive 4 KiB banks.
		base := int(m.chr0 &^ 1)
		if addr < 0x1000 {
			return base % m.chrBanks, offset
		}
		return (base + 1) % m.chrBanks, offset
	}
	if addr < 0x1000 {
		return int(m.chr0) % m.chrBanks, offset
	}
	return int(m.chr1) % m.chrBanks, offset
}

func (m *mmc1) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	bank, offset := m.chrWindow(addr)
	return chr[bank*0x1000+offset]
}

func (m *mmc1) PPUWrite(addr uint16, val uint8) {
	if !m.chrWritable() {
		return
	}
	chr := m.chr()
	chr[int(addr)%len(chr)] = val
}

func (m *mmc1) Mirroring() cartridge.Mirroring {
	switch m.control & 0x03 {
	case 0:
		return cartridge.MirrorSingleLower
	case 1:
		return cartridge.MirrorSingleUpper
	case 2:
		return cartridge.MirrorVertical
	default:
		return cartridge.MirrorHorizontal
	}
}

func (m *mmc1) State() string { return "MMC1" }
