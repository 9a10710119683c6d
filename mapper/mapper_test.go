package mapper

import (
	"testing"

	"github.com/ijxpwastaken/cathode8/cartridge"
)

func prgOf(banks16k int) []byte {
	prg := make([]byte, banks16k*0x4000)
	for b := 0; b < banks16k; b++ {
		prg[b*0x4000] = uint8(b) // bank id marker at the first byte of each bank
	}
	return prg
}

func chrOf(banks8k int) []byte {
	return make([]byte, banks8k*0x2000)
}

func TestNROMMirrorsSinglePRGBank(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(1), CHRROM: chrOf(1)}
	m := newNROM(cart)
	if got := m.CPURead(0x8000); got != 0 {
		t.Fatalf("CPURead(0x8000) = %d, want 0", got)
	}
	if got := m.CPURead(0xC000); got != 0 {
		t.Fatalf("CPURead(0xC000) (mirrored) = %d, want 0", got)
	}
}

func TestUxROMFixesLastBank(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(4), CHRROM: chrOf(1)}
	m := newUxROM(cart)
	if got := m.CPURead(0xC000); got != 3 {
		t.Fatalf("fixed bank at 0xC000 = %d, want 3 (last bank)", got)
	}
	m.CPUWrite(0x8000, 2)
	if got := m.CPURead(0x8000); got != 2 {
		t.Fatalf("switchable bank after select = %d, want 2", got)
	}
}

func TestCNROMSwitchesCHRBank(t *testing.T) {
	chr := make([]byte, 4*0x2000)
	chr[1*0x2000] = 0xAB
	cart := &cartridge.Cartridge{PRGROM: prgOf(2), CHRROM: chr}
	m := newCNROM(cart)
	m.CPUWrite(0x8000, 1)
	if got := m.PPURead(0x0000); got != 0xAB {
		t.Fatalf("PPURead after CHR bank select = %#x, want 0xAB", got)
	}
}

func TestMMC1PRGMode3FixesLastBank(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(8), CHRROM: chrOf(1)}
	m := newMMC1(cart)
	writeMMC1 := func(addr uint16, val uint8) {
		for i := 0; i < 5; i++ {
			m.CPUWrite(addr, (val>>i)&1)
		}
	}
	writeMMC1(0x8000, 0x0C) // control: mode 3 (fixed last @ 0xC000, switch @ 0x8000), CHR mode 0
	writeMMC1(0xE000, 0x05) // prg select bank 5
	if got := m.CPURead(0x8000); got != 5 {
		t.Fatalf("switchable PRG bank = %d, want 5", got)
	}
	if got := m.CPURead(0xC000); got != 7 {
		t.Fatalf("fixed last PRG bank = %d, want 7", got)
	}
}

func TestMMC3IRQFiresOnceForThreeMatchingA12Periods(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(16), CHRROM: chrOf(8)}
	m := newMMC3(cart)
	m.CPUWrite(0xC000, 2) // IRQ latch = 2: reload consumes edge 1, two decrements consume edges 2-3
	m.CPUWrite(0xC001, 0) // reload flag set
	m.CPUWrite(0xE001, 0) // enable IRQ

	pulseA12 := func(lowCycles int) {
		for i := 0; i < lowCycles; i++ {
			m.NotifyPPUReadAddr(0x0000) // A12 low, one observation per elapsed cycle
		}
		m.NotifyPPUReadAddr(0x1000) // A12 rising edge
	}

	if m.IRQPending() {
		t.Fatal("IRQ pending before any A12 edges")
	}
	pulseA12(9)
	pulseA12(9)
	pulseA12(9)

	if !m.IRQPending() {
		t.Fatal("expected IRQ pending after three qualifying A12 edges with latch 2")
	}
	m.ClearIRQ()
	if m.IRQPending() {
		t.Fatal("IRQ should be cleared after ClearIRQ")
	}
}

func TestMMC3IgnoresShortA12LowPeriod(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(16), CHRROM: chrOf(8)}
	m := newMMC3(cart)
	m.CPUWrite(0xC000, 0)
	m.CPUWrite(0xC001, 0)
	m.CPUWrite(0xE001, 0)

	m.NotifyPPUReadAddr(0x0000)
	m.NotifyPPUReadAddr(0x1000) // edge with zero low cycles: filtered out

	if m.IRQPending() {
		t.Fatal("IRQ should not fire on a filtered (too-short) A12 edge")
	}
}

func TestFME7CounterDecrementsRegardlessOfEnable(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(4), CHRROM: chrOf(4)}
	m := newFME7(cart)
	m.CPUWrite(0x8000, 14) // select counter low register
	m.CPUWrite(0xA000, 0x02)
	m.CPUWrite(0x8000, 15) // select counter high register
	m.CPUWrite(0xA000, 0x00)
	m.CPUWrite(0x8000, 13) // select control register
	m.CPUWrite(0xA000, 0x80) // count on, IRQ disabled

	m.TickCPUCycle()
	m.TickCPUCycle()
	if m.irqCounter != 0 {
		t.Fatalf("irqCounter = %d, want 0 after two ticks from 2", m.irqCounter)
	}
	if m.IRQPending() {
		t.Fatal("IRQ should not fire while disabled")
	}
	m.ClearIRQ() // documented no-op
}

func TestMMC2LatchSwitchesCHRBank(t *testing.T) {
	chr := make([]byte, 4*0x1000)
	chr[0] = 0xAA      // bank 0, $0000
	chr[1*0x1000] = 0xBB // bank 1, $0000 region when selected as FD/FE target
	cart := &cartridge.Cartridge{PRGROM: prgOf(8), CHRROM: chr}
	m := newMMC2(cart)
	m.CPUWrite(0xB000, 0) // FD bank = 0
	m.CPUWrite(0xC000, 1) // FE bank = 1

	m.NotifyPPUReadAddr(0x0FD8) // trigger FD latch
	if got := m.PPURead(0x0000); got != 0xAA {
		t.Fatalf("PPURead after FD latch = %#x, want 0xAA", got)
	}
	m.NotifyPPUReadAddr(0x0FE8) // trigger FE latch
	if got := m.PPURead(0x0000); got != 0xBB {
		t.Fatalf("PPURead after FE latch = %#x, want 0xBB", got)
	}
}

func TestAxROMOneScreenMirrorBit(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(8), CHRROM: chrOf(1)}
	m := newAxROM(cart)
	m.CPUWrite(0x8000, 0x10) // mirror bit set: upper screen
	if m.Mirroring() != cartridge.MirrorSingleUpper {
		t.Fatalf("Mirroring() = %v, want single-upper", m.Mirroring())
	}
}

func TestGxROMPacksPRGAndCHRSelect(t *testing.T) {
	chr := make([]byte, 4*0x2000)
	chr[2*0x2000] = 0x77
	cart := &cartridge.Cartridge{PRGROM: prgOf(4), CHRROM: chr}
	m := newGxROM(cart)
	m.CPUWrite(0x8000, (1<<4)|2) // PRG select 1 (bits 4-5), CHR select 2 (bits 0-3)
	// prgOf marks each 16 KiB bank, so 32 KiB bank 1 starts at marker 2.
	if got := m.CPURead(0x8000); got != 2 {
		t.Fatalf("PRG bank = %d, want 2", got)
	}
	if got := m.PPURead(0x0000); got != 0x77 {
		t.Fatalf("CHR bank = %#x, want 0x77", got)
	}
}

func TestVRC4IRQCycleMode(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(4), CHRROM: chrOf(2)}
	m := newVRC4(cart)
	m.CPUWrite(0xF000, 0xFD) // latch near wraparound
	m.CPUWrite(0xF001, 0x06) // enabled, cycle mode
	for i := 0; i < 3; i++ {
		m.TickCPUCycle()
	}
	if !m.IRQPending() {
		t.Fatal("expected VRC4 IRQ after counter wraps in cycle mode")
	}
}

func TestCamericaFixesLastBankAndSwitchesLow(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(8), CHRROM: chrOf(1)}
	m := newCamerica(cart)
	m.CPUWrite(0xC000, 3)
	if got := m.CPURead(0x8000); got != 3 {
		t.Fatalf("switchable bank = %d, want 3", got)
	}
	if got := m.CPURead(0xC000); got != 7 {
		t.Fatalf("fixed bank = %d, want 7", got)
	}
}

func TestMMC5MultiplierComputesUnsignedProduct(t *testing.T) {
	cart := &cartridge.Cartridge{PRGROM: prgOf(4), CHRROM: chrOf(1)}
	m := newMMC5(cart)
	m.CPUWrite(0x5205, 200)
	m.CPUWrite(0x5206, 3)
	product := uint16(m.CPURead(0x5205)) | uint16(m.CPURead(0x5206))<<8
	if product != 600 {
		t.Fatalf("product = %d, want 600", product)
	}
}

func TestNewUnsupportedMapperReturnsError(t *testing.T) {
	cart := &cartridge.Cartridge{MapperID: 4242, PRGROM: prgOf(1), CHRROM: chrOf(1)}
	_, err := New(cart)
	if err == nil {
		t.Fatal("expected an error for an unregistered mapper id")
	}
	if _, ok := err.(*ErrUnsupportedMapper); !ok {
		t.Fatalf("error type = %T, want *ErrUnsupportedMapper", err)
	}
}
