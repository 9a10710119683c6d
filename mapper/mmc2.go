package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// mmc2mmc4 backs mapper 9 (MMC2, Punch-Out!!) and mapper 10 (MMC4). Two CHR
// "latches" at $0000 and $1000 flip between "FD" and "FE" 4 KiB banks when
// the PPU fetches a pattern byte in the trigger ranges (spec.md §4.2).
// MMC2 has a single 8 KiB PRG window that is bank switched; MMC4 switches a
// 16 KiB window (mirrored here by the mmc4 flag selecting window width).
type mmc2mmc4 struct {
	baseMapper
	prgRAM []byte
	mmc4   bool

	prgBank uint8
	chr0FD  uint8
	chr0FE  uint8
	chr1FD  uint8
	chr1FE  uint8
	latch0  uint8 // 0xFD or 0xFE
	latch1  uint8

	mirror   cartridge.Mirroring
	prgBanks int // in 8 KiB units
	chrBanks int // in 4 KiB units
}

func newMMC2(cart *cartridge.Cartridge) *mmc2mmc4 { return newMMC2orMMC4(cart, false) }
func newMMC4(cart *cartridge.Cartridge) *mmc2mmc4 { return newMMC2orMMC4(cart, true) }

func newMMC2orMMC4(cart *cartridge.Cartridge, mmc4 bool) *mmc2mmc4 {
	return &mmc2mmc4{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		mmc4:       mmc4,
		latch0:     0xFE,
		latch1:     0xFE,
		mirror:     cart.Mirroring,
		prgBanks:   maxInt(len(cart.PRGROM)/0x2000, 1),
		chrBanks:   maxInt(len(cart.CHRROM)/0x1000, 1),
	}
}

func (m *mmc2mmc4) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000:
		if m.mmc4 {
			return m.cpuReadMMC4(addr)
		}
		return m.cpuReadMMC2(addr)
	default:
		return 0
	}
}

func (m *mmc2mmc4) cpuReadMMC2(addr uint16) uint8 {
	if addr < 0xA000 {
		bank := int(m.prgBank) % m.prgBanks
		return m.cart.PRGROM[bank*0x2000+int(addr-0x8000)]
	}
	// remaining three 8 KiB windows are fixed to the last three banks.
	offset := int(addr-0xA000) + 0x2000
	base := (m.prgBanks - 3) * 0x2000
	return m.cart.PRGROM[base+offset]
}

func (m *mmc2mmc4) cpuReadMMC4(addr uint16) uint8 {
	banks16 := m.prgBanks / 2
	if banks16 == 0 {
		banks16 = 1
	}
	if addr < 0xC000 {
		bank := int(m.prgBank) % banks16
		return m.cart.PRGROM[bank*0x4000+int(addr-0x8000)]
	}
	last := banks16 - 1
	return m.cart.PRGROM[last*0x4000+int(addr-0xC000)]
}

func (m *mmc2mmc4) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0xA000 && addr < 0xB000:
		m.prgBank = val
	case addr >= 0xB000 && addr < 0xC000:
		m.chr0FD = val & 0x1F
	case addr >= 0xC000 && addr < 0xD000:
		m.chr0FE = val & 0x1F
	case addr >= 0xD000 && addr < 0xE000:
		m.chr1FD = val & 0x1F
	case addr >= 0xE000 && addr < 0xF000:
		m.chr1FE = val & 0x1F
	case addr >= 0xF000:
		if val&0x01 != 0 {
			m.mirror = cartridge.MirrorHorizontal
		} else {
			m.mirror = cartridge.MirrorVertical
		}
	}
}

func (m *mmc2mmc4) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		val := chr[int(addr)%len(chr)]
		m.NotifyPPUReadAddr(addr)
		return val
	}
	var bank uint8
	offset := int(addr) & 0x0FFF
	if addr < 0x1000 {
		if m.latch0 == 0xFD {
			bank = m.chr0FD
		} else {
			bank = m.chr0FE
		}
	} else {
		if m.latch1 == 0xFD {
			bank = m.chr1FD
		} else {
			bank = m.chr1FE
		}
	}
	val := chr[int(bank)%m.chrBanks*0x1000+offset]
	m.NotifyPPUReadAddr(addr)
	return val
}

func (m *mmc2mmc4) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

// NotifyPPUReadAddr flips the FD/FE latches when the PPU fetches the
// trigger tile bytes documented in spec.md §4.2.
func (m *mmc2mmc4) NotifyPPUReadAddr(addr uint16) {
	switch {
	case addr == 0x0FD8:
		m.latch0 = 0xFD
	case addr == 0x0FE8:
		m.latch0 = 0xFE
	case addr >= 0x1FD8 && addr <= 0x1FDF:
		m.latch1 = 0xFD
	case addr >= 0x1FE8 && addr <= 0x1FEF:
		m.latch1 = 0xFE
	}
}

func (m *mmc2mmc4) Mirroring() cartridge.Mirroring { return m.mirror }
func (m *mmc2mmc4) State() string {
	if m.mmc4 {
		return "MMC4"
	}
	return "MMC2"
}
