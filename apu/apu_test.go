package apu

import "testing"

func tickN(a *APU, n int) {
	for i := 0; i < n; i++ {
		a.Tick()
	}
}

func TestPulseChannelProducesNonSilentOutput(t *testing.T) {
	a := New()
	a.WriteRegister(0x4000, 0xBF) // duty 2, halt, constant volume 0xF
	a.WriteRegister(0x4002, 0xFD)
	a.WriteRegister(0x4003, 0x00)

	// 10ms of CPU cycles at ~1.789773 MHz.
	tickN(a, 17898)
	samples := a.TakeSamples()
	if len(samples) == 0 {
		t.Fatal("expected samples to be generated")
	}
	nonZero := false
	for _, s := range samples {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected a non-silent mix from an enabled pulse channel")
	}
}

func TestStatusReadClearsFrameIRQButNotDMCIRQ(t *testing.T) {
	a := New()
	a.frameIRQFlag = true
	a.dmc.irqFlag = true

	status := a.ReadStatus()
	if status&0x40 == 0 {
		t.Fatal("expected frame IRQ bit set in status")
	}
	if status&0x80 == 0 {
		t.Fatal("expected DMC IRQ bit set in status")
	}
	if a.frameIRQFlag {
		t.Fatal("reading status should clear the frame IRQ flag")
	}
	if !a.dmc.irqFlag {
		t.Fatal("reading status should not clear the DMC IRQ flag")
	}
}

func TestWritingStatusClearsDisabledChannelLengthCounters(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01)
	a.pulse1.lengthCounter = 10
	a.WriteRegister(0x4015, 0x00)
	if a.pulse1.lengthCounter != 0 {
		t.Fatalf("disabling pulse1 should zero its length counter, got %d", a.pulse1.lengthCounter)
	}
}

func Test4StepFrameSequencerFiresIRQOnStepFour(t *testing.T) {
	a := New()
	a.WriteRegister(0x4017, 0x00) // 4-step mode, IRQ enabled
	tickN(a, 4+fc4Reset+1)
	if !a.frameIRQFlag {
		t.Fatal("4-step frame sequencer should have raised the frame IRQ by now")
	}
}

func Test5StepModeNeverFiresFrameIRQ(t *testing.T) {
	a := New()
	a.WriteRegister(0x4017, 0x80) // 5-step mode
	tickN(a, 4+fc5Reset*2)
	if a.frameIRQFlag {
		t.Fatal("5-step mode must never raise the frame IRQ")
	}
}

func TestNoiseLFSRStartsNonZeroAndSelfCorrects(t *testing.T) {
	n := newNoiseChannel()
	if n.shiftRegister == 0 {
		t.Fatal("LFSR must not power on at zero; it would lock output permanently on")
	}
	n.shiftRegister = 0
	n.clockTimer()
	if n.shiftRegister == 0 {
		t.Fatal("clockTimer should self-correct a zeroed shift register")
	}
}

func TestDMCRestartSchedulesDMARequest(t *testing.T) {
	a := New()
	a.WriteRegister(0x4012, 0x00)
	a.WriteRegister(0x4013, 0x00)
	a.WriteRegister(0x4015, 0x10) // enable DMC, triggers restart
	tickN(a, 3)
	addr, ok := a.TakeDMCDMARequest()
	if !ok {
		t.Fatal("expected a DMA request after enabling DMC playback")
	}
	if addr != 0xC000 {
		t.Fatalf("DMA request addr = %#04x, want 0xC000", addr)
	}
}

func TestDMCDMACompletionAdvancesAddressWithWraparound(t *testing.T) {
	d := newDMCChannel()
	d.enabled = true
	d.currentAddr = 0xFFFF
	d.bytesRemaining = 2
	d.consumeDMAByte(0x55)
	if d.currentAddr != 0x8000 {
		t.Fatalf("DMC sample address should wrap 0xFFFF->0x8000, got %#04x", d.currentAddr)
	}
}

func TestTriangleSilentBelowTimerPeriodTwo(t *testing.T) {
	tr := triangleChannel{enabled: true, lengthCounter: 1, linearCounter: 1, timerPeriod: 1}
	if out := tr.output(); out != 0 {
		t.Fatalf("triangle with timer period < 2 should be silent, got %d", out)
	}
}

func TestSetSampleRateFloorsAt8000Hz(t *testing.T) {
	a := New()
	a.SetSampleRate(100)
	if a.SampleRate() != 8000 {
		t.Fatalf("SampleRate() = %d, want floor of 8000", a.SampleRate())
	}
}
