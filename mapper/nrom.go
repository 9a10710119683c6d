package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// nrom is mapper 0: fixed banking, no registers. A single 16 KiB PRG image
// is mirrored across both CPU windows (spec.md §4.2 NROM).
type nrom struct {
	baseMapper
	prgRAM []byte
}

func newNROM(cart *cartridge.Cartridge) *nrom {
	return &nrom{baseMapper: baseMapper{cart: cart}, prgRAM: prgRAM(cart)}
}

func (m *nrom) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000:
		return m.cart.PRGROM[int(addr-0x8000)%len(m.cart.PRGROM)]
	default:
		return 0
	}
}

func (m *nrom) CPUWrite(addr uint16, val uint8) {
	if addr >= 0x6000 && addr < 0x8000 {
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	}
}

func (m *nrom) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if len(chr) == 0 {
		return 0
	}
	return chr[int(addr)%len(chr)]
}

func (m *nrom) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *nrom) Mirroring() cartridge.Mirroring { return m.cart.Mirroring }

func (m *nrom) State() string { return "NROM" }
