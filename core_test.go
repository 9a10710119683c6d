package cathode8

import "testing"

// buildNROM assembles a minimal one-bank NROM image (mapper 0, CHR-RAM)
// with the reset vector set to 0x8000 and any extra PRG patches applied at
// their CPU address (spec.md §8 scenario 1).
func buildNROM(patches map[uint16]uint8) []byte {
	header := []byte{'N', 'E', 'S', 0x1A, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	prg := make([]byte, 16*1024)
	set := func(addr uint16, v uint8) { prg[addr&0x3FFF] = v }
	set(0xFFFC, 0x00)
	set(0xFFFD, 0x80)
	for addr, v := range patches {
		set(addr, v)
	}
	return append(header, prg...)
}

func TestLoadROMResetsCPUToVectorAndPowerOnState(t *testing.T) {
	c := New()
	if err := c.LoadROM(buildNROM(nil)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	st := c.CPUState()
	if st.PC != 0x8000 {
		t.Fatalf("PC = %#04x, want 0x8000", st.PC)
	}
	if st.P != 0x24 {
		t.Fatalf("P = %#02x, want 0x24", st.P)
	}
	if st.SP != 0xFD {
		t.Fatalf("SP = %#02x, want 0xFD", st.SP)
	}
}

func TestOAMDMARoundTripPreservesByteOrder(t *testing.T) {
	c := New()
	if err := c.LoadROM(buildNROM(nil)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	for i := 0; i < 256; i++ {
		c.ram[0x0200+i] = uint8(i)
	}
	c.ppu.CPUWrite(0x2003, 0) // OAMADDR = 0
	c.Write(0x4014, 0x02)     // trigger OAM DMA from page 2

	for i := 0; i < 256; i++ {
		c.ppu.CPUWrite(0x2003, uint8(i))
		if got := c.PeekOAM(uint8(i)); got != uint8(i) {
			t.Fatalf("OAM[%d] = %d, want %d", i, got, i)
		}
	}
	if c.dmaStall != 513 && c.dmaStall != 514 {
		t.Fatalf("dmaStall = %d, want 513 or 514", c.dmaStall)
	}
}

func TestControllerStrobeAndShiftReadBackButtons(t *testing.T) {
	c := New()
	if err := c.LoadROM(buildNROM(nil)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	c.SetControllerState(0, ButtonA|ButtonRight)
	c.Write(0x4016, 0x01) // strobe high, latch
	c.Write(0x4016, 0x00) // strobe low, start shifting

	want := []uint8{1, 0, 0, 0, 0, 0, 0, 1}
	for i, w := range want {
		got := c.Read(0x4016) & 0x01
		if got != w {
			t.Fatalf("bit %d = %d, want %d", i, got, w)
		}
	}
	// Past 8 reads, the shift register has filled with open-bus 1s.
	if got := c.Read(0x4016) & 0x01; got != 1 {
		t.Fatalf("9th read = %d, want 1 (shift register exhausted)", got)
	}
}

func TestRunFrameReachesFrameCompleteWithoutTrippingSafetyCap(t *testing.T) {
	c := New()
	if err := c.LoadROM(buildNROM(nil)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	c.RunFrame()
	for _, msg := range c.EventLog() {
		if msg != "" {
			t.Fatalf("unexpected event logged during a clean frame: %q", msg)
		}
	}
}

func TestPPUTicksExactlyThreeTimesPerCPUCycle(t *testing.T) {
	c := New()
	if err := c.LoadROM(buildNROM(nil)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	before := c.ppu.State()
	c.Tick()
	after := c.ppu.State()
	dotsAdvanced := (after.Scanline-before.Scanline)*341 + (after.Dot - before.Dot)
	if dotsAdvanced != 3 {
		t.Fatalf("PPU advanced %d dots for one Tick, want 3", dotsAdvanced)
	}
}

func TestLoadROMFailureLeavesCoreUnchanged(t *testing.T) {
	c := New()
	if err := c.LoadROM(buildNROM(nil)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	pcBefore := c.CPUState().PC
	if err := c.LoadROM([]byte("not a rom")); err == nil {
		t.Fatal("expected an error loading a bad image")
	}
	if c.CPUState().PC != pcBefore {
		t.Fatalf("PC changed after a failed LoadROM: %#04x -> %#04x", pcBefore, c.CPUState().PC)
	}
}
