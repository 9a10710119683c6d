package ppu

// CPURead serves the CPU-visible $2000-$2007 register file (already
// mirrored every 8 bytes by the caller's $2000-$3FFF decode), grounded on
// the teacher's Ppu.read8 (nes/ppu.go) and the pack's alphanes ReadRegister
// (ppu_io.go) for the VBlank-race and buffered-read details the teacher's
// version skips.
func (p *PPU) CPURead(reg uint16) uint8 {
	switch reg & 7 {
	case 2:
		v := (p.status & 0xE0) | (p.lastWrite & 0x1F)
		p.status &^= 0x80
		p.write2nd = false
		if p.scanline == 241 && p.dot == 0 {
			p.suppressVBL = true
		}
		return v
	case 4:
		return p.oam[p.oamAddr]
	case 7:
		return p.readData()
	default:
		return p.lastWrite
	}
}

// CPUWrite serves the same register file for writes, plus $4014's OAM-DMA
// trigger is handled by the orchestrator directly against WriteOAMByte, not
// here, since the DMA's 513/514-cycle stall is a CPU-side concern.
func (p *PPU) CPUWrite(reg uint16, val uint8) {
	p.lastWrite = val
	switch reg & 7 {
	case 0:
		wasVBlank := p.status&0x80 != 0
		hadNMI := p.ctrl&0x80 != 0
		p.ctrl = val
		p.t = (p.t &^ 0x0C00) | (uint16(val&0x03) << 10)
		if wasVBlank && p.ctrl&0x80 != 0 && !hadNMI {
			p.nmiLine = true
		} else if p.ctrl&0x80 == 0 {
			p.nmiLine = false
		}
	case 1:
		p.mask = val
	case 3:
		p.oamAddr = val
	case 4:
		p.oam[p.oamAddr] = val
		p.oamAddr++
	case 5:
		p.writeScroll(val)
	case 6:
		p.writeAddr(val)
	case 7:
		p.writeVRAM(p.v, val)
		p.incrementVRAMAddr()
	}
}

func (p *PPU) writeScroll(val uint8) {
	if !p.write2nd {
		p.t = (p.t &^ 0x001F) | uint16(val>>3)
		p.fineX = val & 0x07
		p.write2nd = true
	} else {
		p.t = (p.t &^ 0x73E0) | (uint16(val&0x07) << 12) | (uint16(val&0xF8) << 2)
		p.write2nd = false
	}
}

func (p *PPU) writeAddr(val uint8) {
	if !p.write2nd {
		p.t = (p.t & 0x00FF) | (uint16(val&0x3F) << 8)
		p.write2nd = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(val)
		p.v = p.t
		p.write2nd = false
	}
}

// incrementVRAMAddr advances v for a $2007 access. During active rendering
// (visible or pre-render scanline, rendering enabled) the real chip is mid
// way through its own coarse-x/fine-y scrolling, so a CPU-driven PPUDATA
// access rides those same counters instead of the flat +1/+32 used outside
// rendering (spec.md:104).
func (p *PPU) incrementVRAMAddr() {
	if p.renderingEnabled() && (p.scanline <= 239 || p.scanline == 261) {
		p.incrementScrollX()
		p.incrementScrollY()
		return
	}
	if p.ctrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
}

// readData implements the buffered-read + palette-mirror-to-VRAM quirk:
// reads below $3F00 return the byte the *previous* PPUDATA read fetched,
// while the buffer refills with the unmirrored nametable byte underneath
// the palette entry just read.
func (p *PPU) readData() uint8 {
	addr := p.v
	current := p.readVRAM(addr)
	var out uint8
	if addr&0x3FFF >= 0x3F00 {
		out = current
		p.dataBuffer = p.readVRAM(addr & 0x2FFF)
	} else {
		out = p.dataBuffer
		p.dataBuffer = current
	}
	p.incrementVRAMAddr()
	return out
}

// WriteOAMByte is the DMA entry point at $4014: each of the 256 bytes the
// orchestrator copies from CPU RAM lands here exactly as an OAMDATA write
// would, auto-incrementing OAMADDR.
func (p *PPU) WriteOAMByte(val uint8) {
	p.oam[p.oamAddr] = val
	p.oamAddr++
}

// PeekOAM/PeekVRAM/PeekPalette back the orchestrator's debug surface without
// any of the side effects a real register access has.
func (p *PPU) PeekOAM(addr uint8) uint8     { return p.oam[addr] }
func (p *PPU) PeekVRAM(addr uint16) uint8   { return p.ciram[addr%2048] }
func (p *PPU) PeekPalette(addr uint8) uint8 { return p.palette.read(uint16(addr)) }

// State reports scroll/dot/scanline position for debug surfaces.
type State struct {
	Dot, Scanline  int
	V, T           uint16
	FineX          uint8
	Ctrl, Mask, Status uint8
	FrameOdd       bool
}

func (p *PPU) State() State {
	return State{
		Dot: p.dot, Scanline: p.scanline,
		V: p.v, T: p.t, FineX: p.fineX,
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status,
		FrameOdd: p.frameOdd,
	}
}
