package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// axrom is mapper 7: a single register at $8000-$FFFF selects a 32 KiB PRG
// bank (bits 0-2) and a one-screen mirroring page (bit 4) (spec.md §4.2
// AxROM). CHR is always fixed 8 KiB CHR-RAM on real AxROM boards, but we
// honour whatever the cartridge declared.
type axrom struct {
	baseMapper
	prgBank  int
	prgBanks int
	mirror   cartridge.Mirroring
}

func newAxROM(cart *cartridge.Cartridge) *axrom {
	banks := len(cart.PRGROM) / 0x8000
	if banks == 0 {
		banks = 1
	}
	return &axrom{baseMapper: baseMapper{cart: cart}, prgBanks: banks, mirror: cartridge.MirrorSingleLower}
}

func (m *axrom) CPURead(addr uint16) uint8 {
	if addr < 0x8000 {
		return 0
	}
	bank := m.prgBank % m.prgBanks
	return m.cart.PRGROM[bank*0x8000+int(addr-0x8000)]
}

func (m *axrom) CPUWrite(addr uint16, val uint8) {
	if addr < 0x8000 {
		return
	}
	m.prgBank = int(val & 0x07)
	if val&0x10 != 0 {
		m.mirror = cartridge.MirrorSingleUpper
	} else {
		m.mirror = cartridge.MirrorSingleLower
	}
}

func (m *axrom) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if len(chr) == 0 {
		return 0
	}
	return chr[int(addr)%len(chr)]
}

func (m *axrom) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *axrom) Mirroring() cartridge.Mirroring { return m.mirror }
func (m *axrom) State() string                  { return "AxROM" }
