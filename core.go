// Package cathode8 is the orchestrator: it owns internal RAM, the
// controller/zapper latches, and the CPU/PPU/APU/mapper quartet, and drives
// the cycle-interleaved clock spec.md §2/§5 describes as the core's one
// global invariant — for CPU cycle n, the PPU has ticked exactly 3n dots and
// the APU exactly n ticks. It generalizes the teacher's nes struct
// (nes/nes.go) and its bus dispatch table (nes/bus.go, nes/dma.go) into a
// single Core that implements cpu.Bus directly instead of routing through a
// polymorphic bus-map, since the core has exactly four subsystems and no
// plugin surface beyond the mapper.
package cathode8

import (
	"fmt"
	"image/color"

	"github.com/ijxpwastaken/cathode8/apu"
	"github.com/ijxpwastaken/cathode8/cartridge"
	"github.com/ijxpwastaken/cathode8/cpu"
	"github.com/ijxpwastaken/cathode8/mapper"
	"github.com/ijxpwastaken/cathode8/ppu"
)

// Controller button bits (spec.md §6 set_controller_state).
const (
	ButtonA      = 0x01
	ButtonB      = 0x02
	ButtonSelect = 0x04
	ButtonStart  = 0x08
	ButtonUp     = 0x10
	ButtonDown   = 0x20
	ButtonLeft   = 0x40
	ButtonRight  = 0x80
)

const eventLogCapacity = 64

// frameSafetyCap bounds "run one frame" against a ROM that halts or loops
// forever without ever reaching frame-complete (spec.md §4.6).
const frameSafetyCap = 10_000_000

// Core is the public entry point described in spec.md §6: construct one
// with New, load a ROM, then alternate SetControllerState/RunFrame calls the
// way a host's main loop would.
type Core struct {
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	apu    *apu.APU
	mapper mapper.Mapper
	cart   *cartridge.Cartridge

	ram [2048]byte

	controllers  [2]controllerPort
	strobe       bool
	zapper       zapperState

	cycles   uint64
	dmaStall int

	stepInProgress bool
	stepTicked     int

	openBus uint8

	eventLog    [eventLogCapacity]string
	eventCursor int
	halted      bool

	opts options
}

// New constructs a Core in its default power-on state. No cartridge is
// loaded; RunFrame is a no-op until LoadROM succeeds.
func New(opts ...Option) *Core {
	c := &Core{
		cpu: cpu.New(),
		ppu: ppu.New(),
		apu: apu.New(),
	}
	c.opts = defaultOptions()
	for _, o := range opts {
		o(&c.opts)
	}
	c.apu.SetSampleRate(c.opts.sampleRate)
	return c
}

// LoadROM parses data as an iNES/NES 2.0 image, constructs the matching
// mapper, replaces the cartridge, and performs a reset (spec.md §4.1/§6).
// On failure the Core is left exactly as it was before the call.
func (c *Core) LoadROM(data []byte) error {
	cart, err := cartridge.Load(data)
	if err != nil {
		return fmt.Errorf("cathode8: load rom: %w", err)
	}
	m, err := mapper.New(cart)
	if err != nil {
		return fmt.Errorf("cathode8: load rom: %w", err)
	}
	c.cart = cart
	c.mapper = m
	c.ppu.AttachMapper(m)
	c.Reset()
	return nil
}

// Reset performs a warm reset: RAM and PRG-RAM survive, interrupts and
// cycle counters clear, and the CPU's PC loads from the reset vector
// (spec.md §3 "Lifecycle", §6). It never reallocates mapper state.
func (c *Core) Reset() {
	if c.mapper == nil {
		return
	}
	c.cpu.Reset(c)
	c.ppu.Reset()
	c.apu.Reset()
	c.apu.SetSampleRate(c.opts.sampleRate)
	c.cycles = 0
	c.dmaStall = 0
	c.stepInProgress = false
	c.stepTicked = 0
	c.halted = false
	c.strobe = false
	c.controllers[0].shift = 0
	c.controllers[1].shift = 0
}

// RunFrame advances emulation until the PPU signals frame-complete (entry
// into VBlank at scanline 241, dot 1), or the safety cap trips. It returns
// immediately, with no work done, if no cartridge is loaded or the CPU has
// halted on a KIL opcode (spec.md §7 domain 2: "a halted CPU still allows
// run_frame to return without advancing").
func (c *Core) RunFrame() {
	if c.mapper == nil || c.halted {
		return
	}
	for steps := 0; steps < frameSafetyCap; steps++ {
		c.cpu.Step(c)
		if c.cpu.Halted && !c.halted {
			c.halted = true
			c.logEvent(fmt.Sprintf("cpu halted: %v", c.cpu.Fault()))
		}
		if c.ppu.FrameComplete() {
			return
		}
		if c.halted {
			return
		}
	}
	c.logEvent("run_frame: safety cap tripped without reaching frame-complete")
}

// FrameBuffer returns the 256x240 RGBA pixels produced by the last
// completed frame, row-major (spec.md §6). The core does not copy; per
// spec.md §5 the host must only read it between RunFrame calls.
func (c *Core) FrameBuffer() []color.RGBA { return c.ppu.Frame[:] }

// TakeAudioSamples drains the PCM queue built during the last RunFrame
// (spec.md §6 take_audio_samples).
func (c *Core) TakeAudioSamples() []float32 { return c.apu.TakeSamples() }

// SetAudioSampleRate changes the resampler's target host rate; spec.md §6
// floors it at 8000 Hz the same way apu.SetSampleRate does.
func (c *Core) SetAudioSampleRate(hz int) {
	c.opts.sampleRate = hz
	c.apu.SetSampleRate(hz)
}

func (c *Core) logEvent(msg string) {
	c.eventLog[c.eventCursor%eventLogCapacity] = msg
	c.eventCursor++
}

// EventLog returns the ring's contents in chronological order, oldest
// first, for the debug surface named in spec.md §6/§7.
func (c *Core) EventLog() []string {
	n := c.eventCursor
	if n > eventLogCapacity {
		n = eventLogCapacity
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		idx := (c.eventCursor - n + i) % eventLogCapacity
		out[i] = c.eventLog[idx]
	}
	return out
}
