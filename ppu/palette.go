package ppu

import "image/color"

// rgbTable is the NTSC NES palette, the same 64 RGB triples the teacher's
// ppuPalette.init hard-codes (nes/palette.go), kept as the canonical
// index-to-color lookup instead of storing decoded RGBA in palette RAM.
var rgbTable = buildRGBTable()

func buildRGBTable() [64]color.RGBA {
	raw := [64]uint32{
		0x7C7C7C, 0x0000FC, 0x0000BC, 0x4428BC, 0x940084, 0xA80020, 0xA81000, 0x881400,
		0x503000, 0x007800, 0x006800, 0x005800, 0x004058, 0x000000, 0x000000, 0x000000,
		0xBCBCBC, 0x0078F8, 0x0058F8, 0x6844FC, 0xD800CC, 0xE40058, 0xF83800, 0xE45C10,
		0xAC7C00, 0x00B800, 0x00A800, 0x00A844, 0x008888, 0x000000, 0x000000, 0x000000,
		0xF8F8F8, 0x3CBCFC, 0x6888FC, 0x9878F8, 0xF878F8, 0xF85898, 0xF87858, 0xFCA044,
		0xF8B800, 0xB8F818, 0x58D854, 0x58F898, 0x00E8D8, 0x787878, 0x000000, 0x000000,
		0xFCFCFC, 0xA4E4FC, 0xB8B8F8, 0xD8B8F8, 0xF8B8F8, 0xF8A4C0, 0xF0D0B0, 0xFCE0A8,
		0xF8D878, 0xD8F878, 0xB8F8B8, 0xB8F8D8, 0x00FCFC, 0xF8D8F8, 0x000000, 0x000000,
	}
	var table [64]color.RGBA
	for i, c := range raw {
		table[i] = color.RGBA{R: byte(c >> 16), G: byte(c >> 8), B: byte(c), A: 0xFF}
	}
	return table
}

// paletteRAM is the PPU's 32-byte internal palette, with the mirroring the
// real chip wires $3F10/$3F14/$3F18/$3F1C back onto their $3F00 counterparts.
type paletteRAM [32]uint8

func paletteIndex(addr uint16) uint16 {
	addr &= 0x1F
	if addr&0x13 == 0x10 {
		addr &^= 0x10
	}
	return addr
}

func (p *paletteRAM) read(addr uint16) uint8  { return p[paletteIndex(addr)] }
func (p *paletteRAM) write(addr uint16, v uint8) { p[paletteIndex(addr)] = v & 0x3F }

// rgb resolves an already-read (and possibly grayscale-masked) palette index
// to its NTSC RGBA color.
func (p *paletteRAM) rgb(idx uint8) color.RGBA {
	return rgbTable[idx&0x3F]
}
