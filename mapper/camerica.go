package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// camerica is mapper 71 (Camerica/Codemasters). A single 16 KiB PRG window
// at $8000-$BFFF is switched by writes to the bank-select register at
// $C000-$FFFF (the low bits of the write address are ignored); reads from
// $C000-$FFFF are fixed to the last bank. A few
// boards (Fire Hawk) additionally use $9000-$9FFF to pick a one-screen
// nametable half; most don't wire it at all, so it's modelled unconditionally
// and simply never written by ROMs that lack the feature (spec.md §4.2).
type camerica struct {
	baseMapper
	prgRAM []byte

	prgBank uint8
	mirror  cartridge.Mirroring

	prgBanks int // 16 KiB units
}

func newCamerica(cart *cartridge.Cartridge) *camerica {
	return &camerica{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		mirror:     cart.Mirroring,
		prgBanks:   maxInt(len(cart.PRGROM)/0x4000, 1),
	}
}

func (m *camerica) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000 && addr < 0xC000:
		bank := int(m.prgBank) % m.prgBanks
		return m.cart.PRGROM[bank*0x4000+int(addr-0x8000)]
	default:
		last := m.prgBanks - 1
		return m.cart.PRGROM[last*0x4000+int(addr-0xC000)]
	}
}

func (m *camerica) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0x9000 && addr < 0xA000:
		if val&0x10 != 0 {
			m.mirror = cartridge.MirrorSingleUpper
		} else {
			m.mirror = cartridge.MirrorSingleLower
		}
	case addr >= 0xC000:
		m.prgBank = val
	}
}

func (m *camerica) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if len(chr) == 0 {
		return 0
	}
	return chr[int(addr)%len(chr)]
}

func (m *camerica) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *camerica) Mirroring() cartridge.Mirroring { return m.mirror }
func (m *camerica) State() string                  { return "Camerica" }
