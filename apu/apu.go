// Package apu implements the RP2A03's integrated audio unit: the five
// channels (two pulse, triangle, noise, DMC), the 4-/5-step frame sequencer,
// the nonlinear mixer, and the cascaded output filter/resampler that turns
// the CPU's ~1.789773 MHz clock into host-rate PCM samples (spec.md §4.4).
// It generalizes the teacher's clock()-per-tick Apu/Pulse split (nes/apu.go)
// — which only carried a partial pulse channel feeding a live speaker — into
// a complete five-channel unit that only ever produces a sample buffer, the
// way the pack's alphanes apu/channels split does, with the frame-sequencer
// timing and DMC DMA handshake taken from the original reference engine.
package apu

// lengthTable is indexed by the 5-bit length-load field of $4003/$4007/
// $400B/$400F.
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

const cpuClockHz = 1789772.7272727273

// frame-sequencer cycle counts (spec.md §4.4 "Frame counter").
const (
	fc4Step1       = 7457
	fc4Step2Half   = 14913
	fc4Step3       = 22371
	fc4Step4IRQ    = 29829
	fc4Reset       = 29830
	fc5Step1       = 7457
	fc5Step2Half   = 14913
	fc5Step3       = 22371
	fc5Step4Half   = 37281
	fc5Reset       = 37282
)

const defaultSampleRate = 48000

// APU is the orchestrator-facing audio unit: Tick once per CPU cycle,
// WriteRegister/ReadStatus for the $4000-$4017 register file, TakeSamples to
// drain the host-rate PCM queue built during the last run.
type APU struct {
	pulse1, pulse2 pulseChannel
	triangle       triangleChannel
	noise          noiseChannel
	dmc            dmcChannel

	frameCounter        uint32
	frameMode5Step       bool
	frameIRQInhibit      bool
	frameIRQFlag         bool
	frameWritePending    bool
	frameWriteValue      uint8
	frameWriteDelay      uint8

	cpuCycle uint64

	sampleRate  int
	samplePhase float64
	samples     []float32

	hp90A, hp90PrevIn, hp90PrevOut    float32
	hp440A, hp440PrevIn, hp440PrevOut float32
	lp14kA, lp14kPrevOut              float32

	dmcDMARequest    uint16
	dmcDMARequestSet bool
}

// New returns an APU in power-on state at the default 48 kHz host rate.
func New() *APU {
	a := &APU{sampleRate: defaultSampleRate}
	a.noise = newNoiseChannel()
	a.dmc = newDMCChannel()
	a.pulse1.channel1 = true
	a.updateFilterCoeffs()
	return a
}

// Reset clears all channel and frame-sequencer state without touching the
// configured sample rate, matching the teacher's Apu.reset/init split.
func (a *APU) Reset() {
	rate := a.sampleRate
	*a = APU{sampleRate: rate}
	a.noise = newNoiseChannel()
	a.dmc = newDMCChannel()
	a.pulse1.channel1 = true
	a.updateFilterCoeffs()
}

// SetSampleRate changes the resampler's target rate; spec.md §6 floors it at
// 8000 Hz.
func (a *APU) SetSampleRate(hz int) {
	if hz < 8000 {
		hz = 8000
	}
	a.sampleRate = hz
	a.updateFilterCoeffs()
}

func (a *APU) SampleRate() int { return a.sampleRate }

// WriteRegister dispatches a CPU write in $4000-$4017 to the owning channel
// or the frame sequencer.
func (a *APU) WriteRegister(addr uint16, val uint8) {
	switch addr {
	case 0x4000:
		a.pulse1.writeControl(val)
	case 0x4001:
		a.pulse1.writeSweep(val)
	case 0x4002:
		a.pulse1.writeTimerLow(val)
	case 0x4003:
		a.pulse1.writeTimerHigh(val)
	case 0x4004:
		a.pulse2.writeControl(val)
	case 0x4005:
		a.pulse2.writeSweep(val)
	case 0x4006:
		a.pulse2.writeTimerLow(val)
	case 0x4007:
		a.pulse2.writeTimerHigh(val)
	case 0x4008:
		a.triangle.writeLinear(val)
	case 0x400A:
		a.triangle.writeTimerLow(val)
	case 0x400B:
		a.triangle.writeTimerHigh(val)
	case 0x400C:
		a.noise.writeControl(val)
	case 0x400E:
		a.noise.writePeriod(val)
	case 0x400F:
		a.noise.writeLength(val)
	case 0x4010:
		a.dmc.writeControl(val)
	case 0x4011:
		a.dmc.writeOutputLevel(val)
	case 0x4012:
		a.dmc.writeSampleAddr(val)
	case 0x4013:
		a.dmc.writeSampleLength(val)
	case 0x4015:
		a.writeStatus(val)
	case 0x4017:
		a.writeFrameCounter(val)
	}
}

// ReadStatus serves $4015: length-nonzero bits, DMC playback, frame-IRQ,
// DMC-IRQ; the read itself clears the frame-IRQ flag (never the DMC one).
func (a *APU) ReadStatus() uint8 {
	var status uint8
	if a.pulse1.lengthCounter > 0 {
		status |= 0x01
	}
	if a.pulse2.lengthCounter > 0 {
		status |= 0x02
	}
	if a.triangle.lengthCounter > 0 {
		status |= 0x04
	}
	if a.noise.lengthCounter > 0 {
		status |= 0x08
	}
	if a.dmc.playbackActive() {
		status |= 0x10
	}
	if a.frameIRQFlag {
		status |= 0x40
	}
	if a.dmc.irqFlag {
		status |= 0x80
	}
	a.frameIRQFlag = false
	return status
}

// IRQPending is the APU's line into the orchestrator's OR of IRQ sources.
func (a *APU) IRQPending() bool { return a.frameIRQFlag || a.dmc.irqFlag }

func (a *APU) writeStatus(val uint8) {
	a.dmc.irqFlag = false

	a.pulse1.enabled = val&0x01 != 0
	if !a.pulse1.enabled {
		a.pulse1.lengthCounter = 0
	}
	a.pulse2.enabled = val&0x02 != 0
	if !a.pulse2.enabled {
		a.pulse2.lengthCounter = 0
	}
	a.triangle.enabled = val&0x04 != 0
	if !a.triangle.enabled {
		a.triangle.lengthCounter = 0
	}
	a.noise.enabled = val&0x08 != 0
	if !a.noise.enabled {
		a.noise.lengthCounter = 0
	}

	a.dmc.enabled = val&0x10 != 0
	if !a.dmc.enabled {
		a.dmc.stop()
	} else if !a.dmc.playbackActive() {
		a.dmc.restartSample()
		a.pullDMCRequest()
	}
}

// writeFrameCounter delays the write's effect by 3 or 4 CPU cycles depending
// on the current cycle's parity (spec.md §4.4), applied from Tick.
func (a *APU) writeFrameCounter(val uint8) {
	if val&0x40 != 0 {
		a.frameIRQFlag = false
	}
	a.frameWritePending = true
	a.frameWriteValue = val
	if a.cpuCycle&1 == 0 {
		a.frameWriteDelay = 3
	} else {
		a.frameWriteDelay = 4
	}
}

func (a *APU) applyFrameCounterWrite(val uint8) {
	a.frameMode5Step = val&0x80 != 0
	a.frameIRQInhibit = val&0x40 != 0
	if a.frameIRQInhibit {
		a.frameIRQFlag = false
	}
	a.frameCounter = 0
	if a.frameMode5Step {
		a.clockQuarterFrame()
		a.clockHalfFrame()
	}
}

// Tick advances every channel timer, the frame sequencer, and the
// resampler's phase accumulator by one CPU cycle, grounded on the reference
// engine's Apu::tick and generalized into the orchestrator's per-cycle hook.
func (a *APU) Tick() {
	a.cpuCycle++

	if a.frameWritePending {
		if a.frameWriteDelay > 0 {
			a.frameWriteDelay--
		}
		if a.frameWriteDelay == 0 {
			a.applyFrameCounterWrite(a.frameWriteValue)
			a.frameWritePending = false
		}
	}

	if a.cpuCycle&1 == 0 {
		a.pulse1.clockTimer()
		a.pulse2.clockTimer()
		a.noise.clockTimer()
	}
	a.triangle.clockTimer()
	a.dmc.clockTimer()
	a.pullDMCRequest()

	a.clockFrameCounter()

	a.samplePhase += float64(a.sampleRate)
	for a.samplePhase >= cpuClockHz {
		a.samplePhase -= cpuClockHz
		mixed := a.mixSample()
		a.samples = append(a.samples, a.applyOutputFilters(mixed))
	}
}

func (a *APU) pullDMCRequest() {
	if a.dmc.needsDMA() && !a.dmcDMARequestSet {
		a.dmcDMARequest = a.dmc.currentDMAAddr()
		a.dmcDMARequestSet = true
	}
}

// TakeDMCDMARequest returns the pending sample-fetch address, if any; the
// orchestrator reads the CPU bus there and calls CompleteDMCDMA with the
// byte, adding the 3/4-cycle stall described in spec.md §4.4/§4.6.
func (a *APU) TakeDMCDMARequest() (addr uint16, ok bool) {
	if !a.dmcDMARequestSet {
		return 0, false
	}
	a.dmcDMARequestSet = false
	return a.dmcDMARequest, true
}

// CompleteDMCDMA delivers the byte fetched for a prior TakeDMCDMARequest.
func (a *APU) CompleteDMCDMA(val uint8) {
	a.dmc.consumeDMAByte(val)
	a.pullDMCRequest()
}

func (a *APU) clockFrameCounter() {
	a.frameCounter++
	if a.frameMode5Step {
		switch a.frameCounter {
		case fc5Step1, fc5Step3:
			a.clockQuarterFrame()
		case fc5Step2Half, fc5Step4Half:
			a.clockQuarterFrame()
			a.clockHalfFrame()
		case fc5Reset:
			a.frameCounter = 0
		}
		return
	}
	switch a.frameCounter {
	case fc4Step1, fc4Step3:
		a.clockQuarterFrame()
	case fc4Step2Half:
		a.clockQuarterFrame()
		a.clockHalfFrame()
	case fc4Step4IRQ:
		a.clockQuarterFrame()
		a.clockHalfFrame()
		if !a.frameIRQInhibit {
			a.frameIRQFlag = true
		}
	case fc4Reset:
		if !a.frameIRQInhibit {
			a.frameIRQFlag = true
		}
		a.frameCounter = 0
	}
}

func (a *APU) clockQuarterFrame() {
	a.pulse1.clockEnvelope()
	a.pulse2.clockEnvelope()
	a.triangle.clockLinearCounter()
	a.noise.clockEnvelope()
}

func (a *APU) clockHalfFrame() {
	a.pulse1.clockLengthAndSweep()
	a.pulse2.clockLengthAndSweep()
	a.triangle.clockLengthCounter()
	a.noise.clockLengthCounter()
}

// mixSample applies the two documented nonlinear mix formulas (spec.md
// §4.4 "Mixer").
func (a *APU) mixSample() float32 {
	p1 := float32(a.pulse1.output())
	p2 := float32(a.pulse2.output())
	t := float32(a.triangle.output())
	n := float32(a.noise.output())
	d := float32(a.dmc.output())

	pulseSum := p1 + p2
	var pulseOut float32
	if pulseSum > 0 {
		pulseOut = 95.88 / ((8128.0 / pulseSum) + 100.0)
	}

	tndIn := t/8227.0 + n/12241.0 + d/22638.0
	var tndOut float32
	if tndIn > 0 {
		tndOut = 159.79 / ((1.0 / tndIn) + 100.0)
	}

	return pulseOut + tndOut
}

// TakeSamples drains the PCM queue accumulated since the last call (spec.md
// §6 take_audio_samples).
func (a *APU) TakeSamples() []float32 {
	s := a.samples
	a.samples = nil
	return s
}

// State reports frame-sequencer position and channel activity for debug
// surfaces.
type State struct {
	FrameCounter uint32
	Mode5Step    bool
	FrameIRQ     bool
	DMCIRQ       bool
	Pulse1Len, Pulse2Len, TriangleLen, NoiseLen uint8
	DMCBytesRemaining                            uint16
}

func (a *APU) State() State {
	return State{
		FrameCounter: a.frameCounter, Mode5Step: a.frameMode5Step,
		FrameIRQ: a.frameIRQFlag, DMCIRQ: a.dmc.irqFlag,
		Pulse1Len: a.pulse1.lengthCounter, Pulse2Len: a.pulse2.lengthCounter,
		TriangleLen: a.triangle.lengthCounter, NoiseLen: a.noise.lengthCounter,
		DMCBytesRemaining: a.dmc.bytesRemaining,
	}
}
