// Package ppu implements the RP2C02's 341-dot/262-scanline rendering state
// machine: the Loopy v/t/fine-x/w scroll registers, the background shift-
// register fetch pipeline, sprite evaluation (including the real hardware's
// diagonal-scan overflow bug) and sprite-0 hit, and the CPU-facing
// $2000-$2007 register file. It generalizes the teacher's register/loopy
// bookkeeping (nes/ppu_registers.go) and the background/sprite pipeline
// documented in the pack's alphanes PPU (ppu_fetch.go, ppu_render.go) into a
// single dot-stepped Step the orchestrator drives three times per CPU cycle.
package ppu

import (
	"image/color"

	"github.com/ijxpwastaken/cathode8/cartridge"
	"github.com/ijxpwastaken/cathode8/mapper"
)

const (
	Width  = 256
	Height = 240
)

// oamSprite mirrors the teacher's OamSprite layout (nes/ppu.go): the four
// bytes of one OAM record.
type oamSprite struct {
	y, tile, attr, x uint8
}

// PPU holds the full rendering-visible state of an RP2C02.
type PPU struct {
	mapper mapper.Mapper

	ciram   [2048]byte
	palette paletteRAM
	oam     [256]uint8
	secOAM  [8]oamSprite
	secOAMCount    int
	secOAMOverflow bool
	secOAMIsZero   [8]bool

	spritePatternLo, spritePatternHi [8]uint8
	spriteX                          [8]uint8
	spriteAttr                       [8]uint8
	spriteIsZero                     [8]bool
	spriteActive                     int

	ctrl, mask, status uint8
	oamAddr             uint8

	v, t  uint16
	fineX uint8
	write2nd bool

	dataBuffer uint8
	lastWrite  uint8

	bgShiftLo, bgShiftHi     uint16
	bgAttrShiftLo, bgAttrShiftHi uint16
	ntByte, atByte, patLo, patHi uint8

	dot      int
	scanline int
	frameOdd bool

	nmiLine    bool
	vblankJustSet bool

	// suppressVBL is armed by a $2002 read landing on the exact dot (241, 0)
	// that would otherwise be followed one dot later by VBL's rising edge —
	// the real chip's race condition where the read and the flag-set are
	// close enough that the read wins (spec.md §4.3 "$2002").
	suppressVBL   bool
	frameComplete bool

	suppressA12Pulse bool

	Frame [Width * Height]color.RGBA
}

func New() *PPU { return &PPU{scanline: 261} }

// AttachMapper wires the cartridge's mapper in after a ROM load; the PPU
// never holds a reference across a LoadROM call.
func (p *PPU) AttachMapper(m mapper.Mapper) { p.mapper = m }

// Reset restores power-on register state without touching CIRAM/OAM, the
// same scope the teacher's Ppu.reset gives its registers.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.fineX = 0, 0, 0
	p.write2nd = false
	p.dataBuffer = 0
	p.dot, p.scanline = 0, 261
	p.frameOdd = false
	p.nmiLine = false
	p.suppressVBL = false
	p.frameComplete = false
}

// FrameComplete reports whether the PPU has entered VBlank (scanline 241,
// dot 1) since the last call, and clears the latch — the orchestrator's
// "run one frame" loop polls this (spec.md §2 "Control flow").
func (p *PPU) FrameComplete() bool {
	v := p.frameComplete
	p.frameComplete = false
	return v
}

func (p *PPU) renderingEnabled() bool { return p.mask&0x18 != 0 }
func (p *PPU) showBackground() bool   { return p.mask&0x08 != 0 }
func (p *PPU) showSprites() bool      { return p.mask&0x10 != 0 }

// NMILine reports the latched NMI request; the CPU polls it (through the
// orchestrator) once per Step, the same way it polls the mapper's IRQ line.
func (p *PPU) NMILine() bool { return p.nmiLine }

// AckNMI clears the latch once the CPU has dispatched the NMI service
// routine, mirroring the edge-triggered nature of the physical line.
func (p *PPU) AckNMI() { p.nmiLine = false }

func (p *PPU) nametableMirror(addr uint16) uint16 {
	rel := addr & 0x0FFF
	switch p.mapper.Mirroring() {
	case cartridge.MirrorVertical:
		return rel & 0x07FF
	case cartridge.MirrorSingleLower:
		return rel & 0x03FF
	case cartridge.MirrorSingleUpper:
		return 0x0400 | (rel & 0x03FF)
	case cartridge.MirrorFourScreen:
		return rel & 0x07FF
	default: // MirrorHorizontal
		if rel < 0x0800 {
			return rel & 0x03FF
		}
		return 0x0400 | (rel & 0x03FF)
	}
}

func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.mapper.NotifyPPUReadAddr(addr)
		return p.mapper.PPURead(addr)
	case addr < 0x3F00:
		if v, ok := p.mapper.NametableRead(addr, p.ciram[:]); ok {
			return v
		}
		return p.ciram[p.nametableMirror(addr)]
	default:
		return p.palette.read(addr)
	}
}

func (p *PPU) writeVRAM(addr uint16, val uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.mapper.NotifyPPUWriteAddr(addr)
		p.mapper.PPUWrite(addr, val)
	case addr < 0x3F00:
		if p.mapper.NametableWrite(addr, val, p.ciram[:]) {
			return
		}
		p.ciram[p.nametableMirror(addr)] = val
	default:
		p.palette.write(addr, val)
	}
}

func (p *PPU) fetchPatternByte(addr uint16) uint8 {
	p.mapper.NotifyPPUReadAddr(addr)
	v := p.mapper.PPURead(addr)
	p.mapper.TickPPUCycle()
	return v
}

// Step advances the PPU by exactly one dot (pixel clock), grounded on the
// pack's alphanes ppu_render.go Process loop, generalized with the mapper
// notify hooks and the real sprite-evaluation overflow bug.
func (p *PPU) Step() {
	switch {
	case p.scanline == 261:
		p.stepPrerender()
	case p.scanline >= 0 && p.scanline <= 239:
		p.stepVisible()
	case p.scanline == 241 && p.dot == 1:
		if p.suppressVBL {
			p.suppressVBL = false
		} else {
			p.status |= 0x80
			p.vblankJustSet = true
			if p.ctrl&0x80 != 0 {
				p.nmiLine = true
			}
		}
		p.frameComplete = true
	}

	p.advanceDot()
}

func (p *PPU) advanceDot() {
	p.dot++
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > 261 {
			p.scanline = 0
			p.frameOdd = !p.frameOdd
		}
	}
	// NTSC odd-frame skip: the pre-render line is one dot short when
	// rendering is enabled, landing dot 0 of scanline 0 a cycle early.
	if p.scanline == 261 && p.dot == 340 && p.frameOdd && p.renderingEnabled() {
		p.dot = 0
		p.scanline = 0
		p.frameOdd = !p.frameOdd
	}
}

func (p *PPU) stepPrerender() {
	if p.dot == 1 {
		p.status &^= 0xE0 // VBlank, sprite overflow, sprite-0 hit all clear
	}
	p.backgroundFetch()
	if p.renderingEnabled() {
		if p.dot == 257 {
			p.transferAddressX()
		}
		if p.dot >= 280 && p.dot <= 304 {
			p.transferAddressY()
		}
	}
}

func (p *PPU) stepVisible() {
	if p.dot >= 1 && p.dot <= 256 {
		p.renderPixel()
	}
	p.backgroundFetch()
	if p.renderingEnabled() {
		if p.dot == 256 {
			p.incrementScrollY()
		}
		if p.dot == 257 {
			p.transferAddressX()
			p.evaluateSprites()
			p.loadSprites()
		}
	}
	// The real chip fetches sprite patterns across dots 257-320; loadSprites
	// batches them at dot 257. A mapper that asks for it additionally gets a
	// synthetic A12-high read at dot 260.
	if p.dot == 260 && p.mapper.SuppressA12OnSpriteEvalReads() {
		p.mapper.NotifyPPUReadAddr(0x1000)
	}
}

// backgroundFetch runs the 8-dot nametable/attribute/pattern fetch cycle
// across both the active tile row (dots 1-256) and the next scanline's first
// two tiles (dots 321-336), grounded on the pack's alphanes
// handleBackgroundFetchingAndShifting/fetchNTByte/fetchATByte/fetchTileData*.
func (p *PPU) backgroundFetch() {
	if !p.renderingEnabled() {
		return
	}
	if (p.dot >= 2 && p.dot <= 257) || (p.dot >= 322 && p.dot <= 337) {
		p.shiftBackground()
	}
	fetching := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)
	if !fetching {
		return
	}
	switch p.dot % 8 {
	case 1:
		p.loadBackgroundShifters()
		addr := 0x2000 | (p.v & 0x0FFF)
		p.ntByte = p.readVRAM(addr)
	case 3:
		addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		p.atByte = p.readVRAM(addr)
	case 5:
		fineY := (p.v >> 12) & 7
		table := uint16(p.ctrl&0x10) << 8
		p.patLo = p.fetchPatternByte(table + uint16(p.ntByte)*16 + fineY)
	case 7:
		fineY := (p.v >> 12) & 7
		table := uint16(p.ctrl&0x10) << 8
		p.patHi = p.fetchPatternByte(table + uint16(p.ntByte)*16 + fineY + 8)
	case 0:
		p.incrementScrollX()
	}
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShiftLo = (p.bgShiftLo & 0xFF00) | uint16(p.patLo)
	p.bgShiftHi = (p.bgShiftHi & 0xFF00) | uint16(p.patHi)

	shift := ((p.v >> 4) & 4) | (p.v & 2)
	bits := (p.atByte >> shift) & 0x03
	lo, hi := uint16(0), uint16(0)
	if bits&1 != 0 {
		lo = 0x00FF
	}
	if bits&2 != 0 {
		hi = 0x00FF
	}
	p.bgAttrShiftLo = (p.bgAttrShiftLo & 0xFF00) | lo
	p.bgAttrShiftHi = (p.bgAttrShiftHi & 0xFF00) | hi
}

func (p *PPU) shiftBackground() {
	if p.showBackground() {
		p.bgShiftLo <<= 1
		p.bgShiftHi <<= 1
		p.bgAttrShiftLo <<= 1
		p.bgAttrShiftHi <<= 1
	}
	if p.showSprites() {
		for i := 0; i < p.spriteActive; i++ {
			if p.spriteX[i] > 0 {
				p.spriteX[i]--
			} else {
				p.spritePatternLo[i] <<= 1
				p.spritePatternHi[i] <<= 1
			}
		}
	}
}

func (p *PPU) incrementScrollX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementScrollY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

// transferAddressX/Y use the exact masks the teacher's loopyRegister.copyHori
// and copyVert document (nes/ppu_registers.go).
func (p *PPU) transferAddressX() { p.v = (p.v &^ 0x041F) | (p.t & 0x041F) }
func (p *PPU) transferAddressY() { p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0) }

func (p *PPU) spriteHeight() int {
	if p.ctrl&0x20 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites reproduces the real evaluator's n/m index bug: once eight
// sprites are found it keeps scanning with the byte-within-sprite counter
// also advancing, so Y-range comparisons land on the wrong byte of later
// entries and can both over- and under-report overflow.
func (p *PPU) evaluateSprites() {
	p.secOAMCount = 0
	p.secOAMOverflow = false
	for i := range p.secOAM {
		p.secOAM[i] = oamSprite{y: 0xFF, tile: 0xFF, attr: 0xFF, x: 0xFF}
		p.secOAMIsZero[i] = false
	}

	height := p.spriteHeight()
	n, m := 0, 0
	for n < 64 {
		y := p.oam[n*4]
		inRange := p.scanline >= int(y) && p.scanline < int(y)+height
		if p.secOAMCount < 8 {
			if inRange {
				s := &p.secOAM[p.secOAMCount]
				s.y = p.oam[n*4+0]
				s.tile = p.oam[n*4+1]
				s.attr = p.oam[n*4+2]
				s.x = p.oam[n*4+3]
				p.secOAMIsZero[p.secOAMCount] = n == 0
				p.secOAMCount++
			}
			n++
			continue
		}
		// Overflow search: the real hardware keeps incrementing m even on a
		// miss, which is the bug that produces both false positives and
		// false negatives in the reported overflow flag.
		probe := p.oam[n*4+m]
		probeInRange := p.scanline >= int(probe) && p.scanline < int(probe)+height
		if probeInRange {
			p.secOAMOverflow = true
			n++
			m++
		} else {
			n++
			m = (m + 1) & 3
		}
		if m == 0 && n >= 64 {
			break
		}
	}
	if p.secOAMOverflow {
		p.status |= 0x20
	}
}

func (p *PPU) loadSprites() {
	p.spriteActive = p.secOAMCount
	height := p.spriteHeight()
	for i := 0; i < 8; i++ {
		p.spriteX[i] = 0xFF
		p.spritePatternLo[i] = 0
		p.spritePatternHi[i] = 0
		p.spriteAttr[i] = 0
		p.spriteIsZero[i] = false
	}
	for i := 0; i < p.secOAMCount; i++ {
		s := p.secOAM[i]
		p.spriteX[i] = s.x
		p.spriteAttr[i] = s.attr
		p.spriteIsZero[i] = p.secOAMIsZero[i]

		row := (p.scanline - int(s.y)) % height
		if row < 0 {
			row = 0
		}
		if s.attr&0x80 != 0 {
			row = height - 1 - row
		}

		var addr uint16
		if height == 8 {
			table := uint16(p.ctrl&0x08) << 9
			addr = table + uint16(s.tile)*16 + uint16(row)
		} else {
			table := uint16(s.tile&0x01) * 0x1000
			tile := s.tile &^ 0x01
			if row >= 8 {
				tile++
				row -= 8
			}
			addr = table + uint16(tile)*16 + uint16(row)
		}
		lo := p.fetchPatternByte(addr)
		hi := p.fetchPatternByte(addr + 8)
		if s.attr&0x40 != 0 {
			lo = reverseByte(lo)
			hi = reverseByte(hi)
		}
		p.spritePatternLo[i] = lo
		p.spritePatternHi[i] = hi
	}
}

func reverseByte(v uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= v & 1
		v >>= 1
	}
	return r
}

// renderPixel composites the background and sprite pipelines for the dot
// currently at (scanline, dot-1), following the priority/sprite-0 logic
// the pack's alphanes renderPixel documents.
func (p *PPU) renderPixel() {
	x := p.dot - 1
	y := p.scanline
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}

	bgPixel, bgPalette := uint8(0), uint8(0)
	if p.showBackground() && !(x < 8 && p.mask&0x02 == 0) {
		bit := uint16(1) << (15 - p.fineX)
		p0 := uint8(0)
		if p.bgShiftLo&bit != 0 {
			p0 = 1
		}
		p1 := uint8(0)
		if p.bgShiftHi&bit != 0 {
			p1 = 1
		}
		bgPixel = p1<<1 | p0
		if bgPixel != 0 {
			a0 := uint8(0)
			if p.bgAttrShiftLo&bit != 0 {
				a0 = 1
			}
			a1 := uint8(0)
			if p.bgAttrShiftHi&bit != 0 {
				a1 = 1
			}
			bgPalette = a1<<1 | a0
		}
	}

	sprPixel, sprPalette, sprBehind, sprIsZero := uint8(0), uint8(0), false, false
	if p.showSprites() && !(x < 8 && p.mask&0x04 == 0) {
		for i := 0; i < p.spriteActive; i++ {
			if p.spriteX[i] != 0 {
				continue
			}
			p0 := (p.spritePatternLo[i] >> 7) & 1
			p1 := (p.spritePatternHi[i] >> 7) & 1
			v := p1<<1 | p0
			if v != 0 {
				sprPixel = v
				sprPalette = p.spriteAttr[i] & 0x03
				sprBehind = p.spriteAttr[i]&0x20 != 0
				sprIsZero = p.spriteIsZero[i]
				break
			}
		}
	}

	if bgPixel != 0 && sprPixel != 0 && sprIsZero {
		// x==255 is excluded on real hardware; a mapper can additionally
		// relax the check for titles that rely on the looser behavior some
		// clone PPUs exhibit (spec's sprite-0-hit open question).
		if x != 255 || p.mapper.AllowRelaxedSprite0Hit() {
			p.status |= 0x40
		}
	}

	var paletteAddr uint16
	switch {
	case bgPixel == 0 && sprPixel == 0:
		paletteAddr = 0x3F00
	case bgPixel == 0:
		paletteAddr = 0x3F10 | uint16(sprPalette)<<2 | uint16(sprPixel)
	case sprPixel == 0:
		paletteAddr = 0x3F00 | uint16(bgPalette)<<2 | uint16(bgPixel)
	case sprBehind:
		paletteAddr = 0x3F00 | uint16(bgPalette)<<2 | uint16(bgPixel)
	default:
		paletteAddr = 0x3F10 | uint16(sprPalette)<<2 | uint16(sprPixel)
	}
	idx := p.palette.read(paletteAddr)
	if p.mask&0x01 != 0 {
		idx &= 0x30
	}
	p.Frame[y*Width+x] = p.palette.rgb(idx)
}
