package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// cnrom is mapper 3: fixed PRG banking identical to NROM, plus an 8 KiB CHR
// bank select on any $8000-$FFFF write (spec.md §4.2 CNROM).
type cnrom struct {
	baseMapper
	prgRAM   []byte
	chrBank  int
	chrBanks int
}

func newCNROM(cart *cartridge.Cartridge) *cnrom {
	banks := len(cart.CHRROM) / 0x2000
	if banks == 0 {
		banks = 1
	}
	return &cnrom{baseMapper: baseMapper{cart: cart}, prgRAM: prgRAM(cart), chrBanks: banks}
}

func (m *cnrom) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000:
		return m.cart.PRGROM[int(addr-0x8000)%len(m.cart.PRGROM)]
	default:
		return 0
	}
}

func (m *cnrom) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
	case addr >= 0x8000:
		m.chrBank = int(val) % m.chrBanks
	}
}

func (m *cnrom) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() || len(chr) == 0 {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	return chr[m.chrBank*0x2000+int(addr)%0x2000]
}

func (m *cnrom) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *cnrom) Mirroring() cartridge.Mirroring { return m.cart.Mirroring }
func (m *cnrom) State() string                  { return "CNROM" }
