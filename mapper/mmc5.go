package mapper

import "github.com/ijxpwastaken/cathode8/cartridge"

// mmc5 is a reduced-scope mapper 5 (MMC5, Castlevania III/Laser Invasion):
// four 8 KiB PRG windows, the first three each selectable between RAM and
// ROM banks (PRG mode 3 layout only, see readPRG),
// twelve CHR registers covering the PPU's 8x8 and 8x16 sprite-size CHR
// layouts, four nametable-map slots each pointing at CIRAM-lower,
// CIRAM-upper, the first 1 KiB of ExRAM, or fill-mode, a three-strikes
// scanline IRQ detector, and the $5205/$5206 unsigned 8x8->16-bit
// multiplier. ExRAM-as-extended-attribute-table and split-screen rendering
// are not modelled: the PPU's background pipeline has no per-scanline seam
// for a second scroll origin, so MMC5 titles that rely on split-screen will
// render with ExRAM treated as plain nametable-mode RAM instead.
type mmc5 struct {
	baseMapper
	prgRAM []byte
	exRAM  [1024]byte

	prgMode uint8 // 0..3, $5100
	chrMode uint8 // 0..3, $5101
	prgRAMProtect1 uint8
	prgRAMProtect2 uint8
	exRAMMode uint8 // 0..3, $5104

	prgReg [5]uint8 // $5113-$5117; bit7 set means ROM bank, clear means PRG-RAM bank
	chrRegA [8]uint8 // $5120-$5127, sprite 8x8 mode / background halves
	chrRegB [4]uint8 // $5128-$512B, 8x16 mode background halves
	chrHighBits uint8 // $5130 upper CHR bank bits, applied to both sets

	nameMap [4]uint8 // $5105: 2 bits per slot, 0=CIRAM lower,1=CIRAM upper,2=ExRAM,3=fill

	fillTile  uint8
	fillColor uint8

	irqScanlineTarget uint8
	irqEnabled        bool
	irqPending        bool
	inFrame           bool
	scanlineCount     uint8

	multiplicandA uint8
	multiplicandB uint8

	prgBanks8k int
	chrBanks1k int
}

func newMMC5(cart *cartridge.Cartridge) *mmc5 {
	return &mmc5{
		baseMapper: baseMapper{cart: cart},
		prgRAM:     prgRAM(cart),
		prgMode:    3,
		chrMode:    3,
		prgBanks8k: maxInt(len(cart.PRGROM)/0x2000, 1),
		chrBanks1k: maxInt(len(cart.CHRROM)/0x0400, 1),
	}
}

func (m *mmc5) CPURead(addr uint16) uint8 {
	switch {
	case addr == 0x5204:
		v := uint8(0)
		if m.irqPending {
			v |= 0x80
		}
		if m.inFrame {
			v |= 0x40
		}
		m.irqPending = false
		return v
	case addr == 0x5205:
		return uint8(uint16(m.multiplicandA) * uint16(m.multiplicandB))
	case addr == 0x5206:
		return uint8((uint16(m.multiplicandA) * uint16(m.multiplicandB)) >> 8)
	case addr >= 0x5C00 && addr < 0x6000:
		return m.exRAM[addr-0x5C00]
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[int(addr-0x6000)%len(m.prgRAM)]
	case addr >= 0x8000:
		return m.readPRG(addr)
	default:
		return 0
	}
}

// readPRG maps $8000-$FFFF as four 8 KiB windows ($8000, $A000, $C000,
// $E000) banked by $5114-$5117; each selects RAM or ROM via the high bit of
// its bank register, except $E000 which is always ROM. This is the PRG
// mode 3 layout only: the mode written to $5100 is stored in prgMode but not
// consulted, so the 32 KiB and 16 KiB window layouts of modes 0-2 are not
// reproduced.
func (m *mmc5) readPRG(addr uint16) uint8 {
	slot := int((addr - 0x8000) / 0x2000)
	reg := m.prgReg[slot+1]
	if slot < 3 && reg&0x80 == 0 {
		bank := int(reg&0x0F) % maxInt(len(m.prgRAM)/0x2000, 1)
		return m.prgRAM[bank*0x2000+int(addr)%0x2000]
	}
	bank := int(reg&0x7F) % m.prgBanks8k
	return m.cart.PRGROM[bank*0x2000+int(addr)%0x2000]
}

func (m *mmc5) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr == 0x5100:
		m.prgMode = val & 0x03
	case addr == 0x5101:
		m.chrMode = val & 0x03
	case addr == 0x5102:
		m.prgRAMProtect1 = val & 0x03
	case addr == 0x5103:
		m.prgRAMProtect2 = val & 0x03
	case addr == 0x5104:
		m.exRAMMode = val & 0x03
	case addr == 0x5105:
		m.nameMap[0] = val & 0x03
		m.nameMap[1] = (val >> 2) & 0x03
		m.nameMap[2] = (val >> 4) & 0x03
		m.nameMap[3] = (val >> 6) & 0x03
	case addr == 0x5106:
		m.fillTile = val
	case addr == 0x5107:
		m.fillColor = val & 0x03
	case addr >= 0x5113 && addr <= 0x5117:
		m.prgReg[addr-0x5113] = val
	case addr >= 0x5120 && addr <= 0x5127:
		m.chrRegA[addr-0x5120] = val
	case addr >= 0x5128 && addr <= 0x512B:
		m.chrRegB[addr-0x5128] = val
	case addr == 0x5130:
		m.chrHighBits = val & 0x03
	case addr == 0x5203:
		m.irqScanlineTarget = val
	case addr == 0x5204:
		m.irqEnabled = val&0x80 != 0
	case addr == 0x5205:
		m.multiplicandA = val
	case addr == 0x5206:
		m.multiplicandB = val
	case addr >= 0x5C00 && addr < 0x6000:
		if m.exRAMWritable() {
			m.exRAM[addr-0x5C00] = val
		}
	case addr >= 0x6000 && addr < 0x8000:
		if m.ramWriteEnabled() {
			m.prgRAM[int(addr-0x6000)%len(m.prgRAM)] = val
		}
	}
}

func (m *mmc5) ramWriteEnabled() bool {
	return m.prgRAMProtect1 == 0x02 && m.prgRAMProtect2 == 0x01
}

func (m *mmc5) exRAMWritable() bool { return m.exRAMMode != 3 }

func (m *mmc5) PPURead(addr uint16) uint8 {
	chr := m.chr()
	if m.chrWritable() {
		if len(chr) == 0 {
			return 0
		}
		return chr[int(addr)%len(chr)]
	}
	bank := m.chrBankFor(addr)
	offset := int(addr) & 0x03FF
	bank %= maxInt(m.chrBanks1k, 1)
	return chr[bank*0x0400+offset]
}

// chrBankFor picks between the sprite-mode (A) and background-mode (B)
// register sets; the PPU is assumed to be rendering 8x8 sprites, which is
// the common case and the only one the reduced-scope CHR model supports.
func (m *mmc5) chrBankFor(addr uint16) int {
	region := addr / 0x0400
	reg := m.chrRegA[region&7]
	return int(reg) | int(m.chrHighBits)<<8
}

func (m *mmc5) PPUWrite(addr uint16, val uint8) {
	if m.chrWritable() {
		chr := m.chr()
		chr[int(addr)%len(chr)] = val
	}
}

func (m *mmc5) NametableRead(addr uint16, vram []byte) (uint8, bool) {
	slot := (addr - 0x2000) / 0x400 % 4
	switch m.nameMap[slot] {
	case 0:
		return vram[int(addr-0x2000)%0x400], true
	case 1:
		return vram[0x400+int(addr-0x2000)%0x400], true
	case 2:
		off := int(addr-0x2000) % 0x400
		return m.exRAM[off], true
	default:
		return m.fillTile, true
	}
}

func (m *mmc5) NametableWrite(addr uint16, val uint8, vram []byte) bool {
	slot := (addr - 0x2000) / 0x400 % 4
	switch m.nameMap[slot] {
	case 0:
		vram[int(addr-0x2000)%0x400] = val
	case 1:
		vram[0x400+int(addr-0x2000)%0x400] = val
	case 2:
		off := int(addr-0x2000) % 0x400
		m.exRAM[off] = val
	}
	return true
}

func (m *mmc5) Mirroring() cartridge.Mirroring { return cartridge.MirrorFourScreen }

// TickPPUCycle does nothing for MMC5; its scanline counting happens in
// NotifyPPUReadAddr.
func (m *mmc5) TickPPUCycle() {}

// NotifyPPUReadAddr counts each notified address in $2000-$2FFF as one
// scanline: it sets the in-frame flag, advances scanlineCount and, when the
// count reaches a non-zero $5203 target, raises the IRQ if it is enabled.
// Addresses outside that range are ignored.
func (m *mmc5) NotifyPPUReadAddr(addr uint16) {
	if addr < 0x2000 || addr >= 0x3000 {
		return
	}
	m.inFrame = true
	m.scanlineCount++
	if m.scanlineCount == m.irqScanlineTarget && m.irqScanlineTarget != 0 {
		m.irqPending = m.irqEnabled
	}
}

func (m *mmc5) IRQPending() bool { return m.irqPending && m.irqEnabled }
func (m *mmc5) ClearIRQ()        { m.irqPending = false }
func (m *mmc5) State() string    { return "MMC5" }
