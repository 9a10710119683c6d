package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// namco163 is mapper 19: twelve CHR/nametable registers, three switchable
// 8 KiB PRG windows (the fourth is fixed to the last bank), a
// write-protect-gated PRG-RAM window at $6000-$7FFF, and a 128-byte internal
// RAM read and written through $4800 with its address and auto-increment set
// at $F800 (spec.md §4.2 Namco 163). The sound-register surface (expansion audio) is
// out of scope per spec.md §1 Non-goals; only the address decoding that
// would otherwise collide with it is modelled, so CPU writes in that range
// are accepted and ignored rather than mis-decoded as PRG-RAM.
type namco163 struct {
	baseMapper
	prgRAM []byte

	chrReg    [8]uint8  // $8000-$8FFF..$B000-$BFFF style CHR/nametable regs 0-7
	nameReg   [4]uint8  // nametable-source regs for the four 1 KiB PPU nametable slots
	prgReg    [3]uint8  // $E000/$E800/$F000 PRG bank regs, 8 KiB each
	writeProt uint8

	internalRAM    [0x80]byte
	internalAddr   uint8
	internalAutoInc bool

	prgBanks int
}

func newNamco163(cart *cartridge.Cartridge) *namco163 {
	return &namco163{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		prgBanks:   maxInt(len(cart.PRGROM)/0x2000, 1),
	}
}

func (m *namco163) CPURead(addr uint16) uint8 {
	switch {
	case addr == 0x4800:
		v := m.internalRAM[m.internalAddr&0x7F]
		if m.internalAutoInc {
			m.internalAddr++
		}
		return v
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000 && addr < 0xE000:
		slot := int((addr - 0x8000) / 0x2000)
		bank := int(m.prgReg[slot]) % m.prgBanks
		return m.cart.PRGROM[bank*0x2000+int(addr)%0x2000]
	case addr >= 0xE000:
		last := m.prgBanks - 1
		return m.cart.PRGROM[last*0x2000+int(addr-0xE000)]
	default:
		return 0
	}
}

func (m *namco163) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr == 0x4800:
		m.internalRAM[m.internalAddr&0x7F] = val
		if m.internalAutoInc {
			m.internalAddr++
		}
	case addr == 0xF800:
		m.internalAddr = val & 0x7F
		m.internalAutoInc = val&0x80 != 0
	case addr >= 0x6000 && addr < 0x8000:
		// write-protect key: bit 6 of the high nibble written to the bank's
		// protect register must equal 0x40 to permit the store.
		if m.writeProt&0x40 == 0x40 {
			m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
		}
	case addr >= 0x8000 && addr < 0xA000:
		m.chrReg[(addr-0x8000)/0x800] = val
	case addr >= 0xA000 && addr < 0xC000:
		m.nameReg[(addr-0xA000)/0x800] = val
	case addr >= 0xC000 && addr < 0xD000:
		m.writeProt = val
	case addr >= 0xE000 && addr < 0xE800:
		m.prgReg[0] = val & 0x3F
	case addr >= 0xE800 && addr < 0xF000:
		m.prgReg[1] = val & 0x3F
	case addr >= 0xF000 && addr < 0xF800:
		m.prgReg[2] = val & 0x3F
	}
}

func (m *namco163) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	reg := m.chrReg[addr/0x400]
	bank := int(reg)
	return chr[bank*0x400+int(addr)%0x400]
}

func (m *namco163) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

// NametableRead/NametableWrite: nametable registers >= 0xE0 redirect to
// CIRAM; smaller values select a CHR-ROM page as a read-only nametable
// source (spec.md §4.2).
func (m *namco163) NametableRead(addr uint16, vram []byte) (uint8, bool) {
	slot := (addr - 0x2000) / 0x400 % 4
	reg := m.nameReg[slot]
	if reg >= 0xE0 {
		return vram[int(addr)%len(vram)], true
	}
	chr := m.chr()
	if len(chr) == 0 {
		return 0, true
	}
	return chr[int(reg)*0x400+int(addr)%0x400], true
}

func (m *namco163) NametableWrite(addr uint16, val uint8, vram []byte) bool {
	slot := (addr - 0x2000) / 0x400 % 4
	reg := m.nameReg[slot]
	if reg >= 0xE0 {
		vram[int(addr)%len(vram)] = val
	}
	return true
}

func (m *namco163) Mirroring() cartridge.Mirroring { return cartridge.MirrorFourScreen }
func (m *namco163) State() string                  { return "Namco163" }
