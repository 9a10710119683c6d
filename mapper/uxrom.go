package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// uxrom is mapper 2: a 16 KiB PRG window at $8000 is bank-switched by any
// write to $8000-$FFFF; the window at $C000 is fixed to the last bank
// (spec.md §4.2 UxROM).
type uxrom struct {
	baseMapper
	prgRAM  []byte
	prgBank int
	prgBanks int
}

func newUxROM(cart *cartridge.Cartridge) *uxrom {
	return &uxrom{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		prgBanks:   len(cart.PRGROM) / 0x4000,
	}
}

func (m *uxrom) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000 && addr < 0xC000:
		bank := m.prgBank % m.prgBanks
		return m.cart.PRGROM[bank*0x4000+int(addr-0x8000)]
	case addr >= 0xC000:
		last := m.prgBanks - 1
		return m.cart.PRGROM[last*0x4000+int(addr-0xC000)]
	default:
		return 0
	}
}

func (m *uxrom) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0x8000:
		m.prgBank = int(val)
	}
}

func (m *uxrom) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if len(chr) == 0 {
		return 0
	}
	return chr[int(addr)%len(chr)]
}

func (m *uxrom) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *uxrom) Mirroring() cartridge.Mirroring { return m.cart.Mirroring }
func (m *uxrom) State() string                  { return "UxROM" }
