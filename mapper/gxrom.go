package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// gxrom is mapper 66: one register at $8000-$FFFF packs a 32 KiB PRG bank
// select (bits 4-5) and an 8 KiB CHR bank select (bits 0-3, wrapped to the
// cartridge's CHR bank count) (spec.md §4.2 GxROM).
type gxrom struct {
	baseMapper
	prgBank  int
	chrBank  int
	prgBanks int
	chrBanks int
}

func newGxROM(cart *cartridge.Cartridge) *gxrom {
	prgBanks := len(cart.PRGROM) / 0x8000
	if prgBanks == 0 {
		prgBanks = 1
	}
	chrBanks := len(cart.CHRROM) / 0x2000
	if chrBanks == 0 {
		chrBanks = 1
	}
	return &gxrom{baseMapper: baseMapper{cart: cart}, prgBanks: prgBanks, chrBanks: chrBanks}
}

func (m *gxrom) CPURead(addr uint16) uint8 {
	if addr < 0x8000 {
		return 0
	}
	bank := m.prgBank % m.prgBanks
	return m.cart.PRGROM[bank*0x8000+int(addr-0x8000)]
}

func (m *gxrom) CPUWrite(addr uint16, val uint8) {
	if addr < 0x8000 {
		return
	}
	m.chrBank = int(val&0x0F) % m.chrBanks
	m.prgBank = int((val>>4)&0x03) % m.prgBanks
}

func (m *gxrom) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() || len(chr) == 0 {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	return chr[m.chrBank*0x2000+int(addr)%0x2000]
}

func (m *gxrom) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *gxrom) Mirroring() cartridge.Mirroring { return m.cart.Mirroring }
func (m *gxrom) State() string                  { return "GxROM" }
