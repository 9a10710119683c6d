// Package mapper implements the cartridge bank-switching and IRQ family
// described in spec.md §4.2: the single point of polymorphism between the
// CPU/PPU pipeline and a cartridge's actual PRG/CHR/RAM wiring.
package mapper

import (
	"fmt"

	"github.com/ijxpwastaken/cathode8/cartridge"
)

// Mapper is the cartridge's contract with the rest of the core. Nothing on
// this interface may call back into the CPU or PPU — notify hooks are
// one-way observations, never re-entrant control.
type Mapper interface {
	CPURead(addr uint16) uint8
	CPUWrite(addr uint16, val uint8)

	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, val uint8)

	// NametableRead/NametableWrite let a mapper serve nametable fetches from
	// its own memory instead of the PPU's 2 KiB CIRAM (MMC5, Namco 163).
	// ok reports whether the mapper claimed the access; vram is the whole
	// 2 KiB CIRAM backing store the PPU would otherwise have used, and addr
	// is the PPU address as fetched, not mirrored by the caller.
	NametableRead(addr uint16, vram []byte) (value uint8, ok bool)
	NametableWrite(addr uint16, val uint8, vram []byte) (ok bool)

	Mirroring() cartridge.Mirroring

	TickCPUCycle()
	TickPPUCycle()

	NotifyPPUReadAddr(addr uint16)
	NotifyPPUWriteAddr(addr uint16)

	// SuppressA12OnSpriteEvalReads asks the PPU to issue a synthetic A12
	// read of $1000 through NotifyPPUReadAddr at dot 260 of each visible
	// scanline (spec.md §4.3 "Sprite fetch"). The batched sprite pattern
	// fetches at dot 257 still reach NotifyPPUReadAddr; they are not hidden.
	SuppressA12OnSpriteEvalReads() bool
	// AllowRelaxedSprite0Hit is a mapper-declared compatibility quirk
	// (spec.md §9 Open Questions), never a global switch.
	AllowRelaxedSprite0Hit() bool

	IRQPending() bool
	ClearIRQ()

	// PeekCHR exposes pattern-table bytes for debug surfaces without the
	// NotifyPPUReadAddr side effects of a real fetch.
	PeekCHR(addr uint16) uint8
	State() string
}

// ErrUnsupportedMapper is returned by New when no constructor is registered
// for the requested id.
type ErrUnsupportedMapper struct {
	ID uint16
}

func (e *ErrUnsupportedMapper) Error() string {
	return fmt.Sprintf("mapper: unsupported mapper id %d", e.ID)
}

type constructor func(cart *cartridge.Cartridge, submapper uint8) Mapper

var registry = map[uint16]constructor{
	0:  func(c *cartridge.Cartridge, s uint8) Mapper { return newNROM(c) },
	1:  func(c *cartridge.Cartridge, s uint8) Mapper { return newMMC1(c) },
	2:  func(c *cartridge.Cartridge, s uint8) Mapper { return newUxROM(c) },
	3:  func(c *cartridge.Cartridge, s uint8) Mapper { return newCNROM(c) },
	4:  func(c *cartridge.Cartridge, s uint8) Mapper { return newMMC3(c) },
	5:  func(c *cartridge.Cartridge, s uint8) Mapper { return newMMC5(c) },
	7:  func(c *cartridge.Cartridge, s uint8) Mapper { return newAxROM(c) },
	9:  func(c *cartridge.Cartridge, s uint8) Mapper { return newMMC2(c) },
	10: func(c *cartridge.Cartridge, s uint8) Mapper { return newMMC4(c) },
	19: func(c *cartridge.Cartridge, s uint8) Mapper { return newNamco163(c) },
	24: func(c *cartridge.Cartridge, s uint8) Mapper { return newVRC6(c, false) },
	25: func(c *cartridge.Cartridge, s uint8) Mapper { return newVRC4(c) },
	26: func(c *cartridge.Cartridge, s uint8) Mapper { return newVRC6(c, true) },
	66: func(c *cartridge.Cartridge, s uint8) Mapper { return newGxROM(c) },
	69: func(c *cartridge.Cartridge, s uint8) Mapper { return newFME7(c) },
	71: func(c *cartridge.Cartridge, s uint8) Mapper { return newCamerica(c) },
	85: func(c *cartridge.Cartridge, s uint8) Mapper { return newVRC7(c) },
}

// Name returns the conventional family name for a mapper id, for debug
// surfaces. Unknown ids return "unknown".
func Name(id uint16) string {
	switch id {
	case 0:
		return "NROM"
	case 1:
		return "MMC1"
	case 2:
		return "UxROM"
	case 3:
		return "CNROM"
	case 4:
		return "MMC3"
	case 5:
		return "MMC5"
	case 7:
		return "AxROM"
	case 9:
		return "MMC2"
	case 10:
		return "MMC4"
	case 19:
		return "Namco163"
	case 24:
		return "VRC6a"
	case 25:
		return "VRC4"
	case 26:
		return "VRC6b"
	case 66:
		return "GxROM"
	case 69:
		return "FME-7"
	case 71:
		return "Camerica"
	case 85:
		return "VRC7"
	default:
		return "unknown"
	}
}

// New constructs the Mapper for cart.MapperID, or ErrUnsupportedMapper.
func New(cart *cartridge.Cartridge) (Mapper, error) {
	ctor, ok := registry[cart.MapperID]
	if !ok {
		return nil, &ErrUnsupportedMapper{cart.MapperID}
	}
	return ctor(cart, cart.SubmapperID), nil
}

// baseMapper bundles the CHR storage plumbing shared by almost every mapper:
// pattern-table reads/writes against either CHR-ROM or CHR-RAM, and the
// no-op implementations of the hooks most mappers don't need.
type baseMapper struct {
	cart *cartridge.Cartridge
}

func (b *baseMapper) chr() []byte {
	if b.cart.HasCHRRAM() {
		return b.cart.CHRRAM
	}
	return b.cart.CHRROM
}

func (b *baseMapper) chrWritable() bool { return b.cart.HasCHRRAM() }

func (b *baseMapper) PeekCHR(addr uint16) uint8 {
	chr := b.chr()
	if len(chr) == 0 {
		return 0
	}
	return chr[int(addr)%len(chr)]
}

func (b *baseMapper) NametableRead(addr uint16, vram []byte) (uint8, bool)  { return 0, false }
func (b *baseMapper) NametableWrite(addr uint16, val uint8, vram []byte) bool { return false }
func (b *baseMapper) TickCPUCycle()                                          {}
func (b *baseMapper) TickPPUCycle()                                          {}
func (b *baseMapper) NotifyPPUReadAddr(addr uint16)                          {}
func (b *baseMapper) NotifyPPUWriteAddr(addr uint16)                         {}
func (b *baseMapper) SuppressA12OnSpriteEvalReads() bool                     { return false }
func (b *baseMapper) AllowRelaxedSprite0Hit() bool                           { return false }
func (b *baseMapper) IRQPending() bool                                       { return false }
func (b *baseMapper) ClearIRQ()                                              {}

// prgRAM allocates the cartridge's PRG-RAM window, sized from the
// header (spec.md §4.1), defaulting to 8 KiB if the header declared none.
func prgRAM(cart *cartridge.Cartridge) []byte {
	size := cart.PRGRAMSize
	if size == 0 {
		size = 8 * 1024
	}
	return make([]byte, size)
}
