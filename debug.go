package cathode8

import (
	"github.com/ijxpwastaken/cathode8/apu"
	"github.com/ijxpwastaken/cathode8/cpu"
	"github.com/ijxpwastaken/cathode8/ppu"
)

// This file is the debug-observer surface spec.md §6 names and
// original_source's rom_test_runner/accuracycoin_probe (SPEC_FULL.md
// "SUPPLEMENTED FEATURES") drive directly: read-only peeks into every piece
// of emulated state, returned by value so a host can never mutate the core
// through one.

// PeekRAM reads internal RAM using only addr's low 11 bits, the same 2 KiB
// mirroring a CPU bus access applies.
func (c *Core) PeekRAM(addr uint16) uint8 { return c.ram[addr&0x07FF] }

// PeekVRAM reads the CIRAM byte at addr modulo 2 KiB; the mapper's
// Mirroring() and nametable overrides are not applied.
func (c *Core) PeekVRAM(addr uint16) uint8 { return c.ppu.PeekVRAM(addr) }

// PeekPalette reads one of the 32 palette RAM entries.
func (c *Core) PeekPalette(addr uint8) uint8 { return c.ppu.PeekPalette(addr) }

// PeekOAM reads one of the 256 OAM bytes.
func (c *Core) PeekOAM(addr uint8) uint8 { return c.ppu.PeekOAM(addr) }

// PeekCHR reads a pattern-table byte without the notify-hook side effects a
// real PPU fetch has (MMC2/MMC4 latch triggers, MMC3 A12 edges).
func (c *Core) PeekCHR(addr uint16) uint8 {
	if c.mapper == nil {
		return 0
	}
	return c.mapper.PeekCHR(addr)
}

// CPUState mirrors the RP2A03's visible register file.
type CPUState struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8
	Halted      bool
}

func (c *Core) CPUState() CPUState {
	return CPUState{
		A: c.cpu.A, X: c.cpu.X, Y: c.cpu.Y, SP: c.cpu.SP,
		PC: c.cpu.PC, P: c.cpu.P, Halted: c.cpu.Halted,
	}
}

// PPUState reports scroll/timing position, grounded on ppu.State.
func (c *Core) PPUState() ppu.State { return c.ppu.State() }

// APUState reports frame-sequencer and channel-activity counters.
func (c *Core) APUState() apu.State { return c.apu.State() }

// InterruptState is a consistent-as-of-call snapshot of the three lines the
// CPU's pre-opcode pipeline polls (spec.md §3 "Interrupt state"). Reading it
// does not consume the NMI edge the way cpu.Bus.NMIPending does.
type InterruptState struct {
	NMILine    bool
	IRQLine    bool
	DMAStall   int
	MapperName string
}

func (c *Core) InterruptState() InterruptState {
	name := "none"
	if c.mapper != nil {
		name = c.mapper.State()
	}
	return InterruptState{
		NMILine:    c.ppu.NMILine(),
		IRQLine:    c.IRQLine(),
		DMAStall:   c.dmaStall,
		MapperName: name,
	}
}

// OpcodeName returns the mnemonic of opcode byte op, for
// disassembly-flavored debug surfaces.
func (c *Core) OpcodeName(op uint8) string { return cpu.Name(op) }
