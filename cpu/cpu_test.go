package cpu

import "testing"

// testBus is a flat 64 KiB memory with no side effects, enough to drive the
// CPU through individual instructions without a PPU/APU/mapper attached.
type testBus struct {
	mem      [0x10000]uint8
	nmi      bool
	irq      bool
	ackCount int
	ticks    int
	stall    int
}

func (b *testBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v uint8) { b.mem[addr] = v }
func (b *testBus) Tick()                      { b.ticks++ }
func (b *testBus) BeginCPUStep()              {}
func (b *testBus) EndCPUStep(total int) {
	for i := 0; i < total; i++ {
		b.Tick()
	}
}
func (b *testBus) NMIPending() bool      { return b.nmi }
func (b *testBus) IRQLine() bool         { return b.irq }
func (b *testBus) ClearMapperIRQ()       { b.ackCount++ }
func (b *testBus) DMAStallCycles() int   { return b.stall }
func (b *testBus) ConsumeDMAStall(n int) { b.stall -= n }

func newTestBus() *testBus {
	b := &testBus{}
	b.mem[0xFFFC] = 0x00
	b.mem[0xFFFD] = 0x80 // reset vector -> 0x8000
	return b
}

func load(bus *testBus, addr uint16, bytes ...uint8) {
	for i, v := range bytes {
		bus.mem[addr+uint16(i)] = v
	}
}

func newCPUAt(bus *testBus, pc uint16) *CPU {
	c := New()
	c.Reset(bus)
	c.PC = pc
	return c
}

func TestResetLoadsVectorAndPowerOnState(t *testing.T) {
	bus := newTestBus()
	c := New()
	c.Reset(bus)
	if c.PC != 0x8000 {
		t.Fatalf("PC = %#04x, want 0x8000", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#02x, want 0xFD", c.SP)
	}
	if !c.getFlag(BI) {
		t.Fatal("I flag should be set after reset")
	}
}

func TestLDAImmediateSetsZeroAndNegativeFlags(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	load(bus, 0x8000, 0xA9, 0x00)
	cycles := c.Step(bus)
	if c.A != 0 || !c.getFlag(BZ) || c.getFlag(BN) {
		t.Fatalf("A=%d Z=%v N=%v, want A=0 Z=true N=false", c.A, c.getFlag(BZ), c.getFlag(BN))
	}
	if cycles != 2 {
		t.Fatalf("cycles = %d, want 2", cycles)
	}

	bus2 := newTestBus()
	c2 := newCPUAt(bus2, 0x8000)
	load(bus2, 0x8000, 0xA9, 0x80)
	c2.Step(bus2)
	if !c2.getFlag(BN) {
		t.Fatal("N flag should be set for a negative immediate")
	}
}

func TestLDAAbsoluteXPageCrossAddsCycle(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.X = 0xFF
	load(bus, 0x8000, 0xBD, 0x01, 0x20) // LDA $2001,X -> $2100, crosses page
	bus.mem[0x2100] = 0x42
	cycles := c.Step(bus)
	if c.A != 0x42 {
		t.Fatalf("A = %#02x, want 0x42", c.A)
	}
	if cycles != 5 {
		t.Fatalf("cycles = %d, want 5 (4 base + 1 page cross)", cycles)
	}
}

func TestLDAAbsoluteXNoCrossStaysBaseCycles(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.X = 0x01
	load(bus, 0x8000, 0xBD, 0x00, 0x20) // LDA $2000,X -> $2001, same page
	bus.mem[0x2001] = 0x7F
	cycles := c.Step(bus)
	if cycles != 4 {
		t.Fatalf("cycles = %d, want 4", cycles)
	}
}

func TestSTAIndexedYAlwaysChargesWorstCase(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.A, c.Y = 0x55, 0x01
	load(bus, 0x8000, 0x99, 0x00, 0x20) // STA $2000,Y, no crossing
	cycles := c.Step(bus)
	if bus.mem[0x2001] != 0x55 {
		t.Fatalf("mem[0x2001] = %#02x, want 0x55", bus.mem[0x2001])
	}
	if cycles != 5 {
		t.Fatalf("cycles = %d, want 5 regardless of crossing", cycles)
	}
}

func TestBranchNotTakenCostsTwoCycles(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.setFlag(BZ, false)
	load(bus, 0x8000, 0xF0, 0x10) // BEQ +16, not taken
	cycles := c.Step(bus)
	if c.PC != 0x8002 {
		t.Fatalf("PC = %#04x, want 0x8002", c.PC)
	}
	if cycles != 2 {
		t.Fatalf("cycles = %d, want 2", cycles)
	}
}

func TestBranchTakenSamePageCostsThreeCycles(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.setFlag(BZ, true)
	load(bus, 0x8000, 0xF0, 0x10) // BEQ +16, taken, target 0x8012 same page
	cycles := c.Step(bus)
	if c.PC != 0x8012 {
		t.Fatalf("PC = %#04x, want 0x8012", c.PC)
	}
	if cycles != 3 {
		t.Fatalf("cycles = %d, want 3", cycles)
	}
}

func TestBranchTakenCrossingPageCostsFourCycles(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x80F0)
	c.setFlag(BN, true)
	load(bus, 0x80F0, 0x30, 0x20) // BMI +32, taken, crosses from 0x80F2 to 0x8112
	cycles := c.Step(bus)
	if c.PC != 0x8112 {
		t.Fatalf("PC = %#04x, want 0x8112", c.PC)
	}
	if cycles != 4 {
		t.Fatalf("cycles = %d, want 4", cycles)
	}
}

func TestJSRAndRTSRoundTrip(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	load(bus, 0x8000, 0x20, 0x00, 0x90) // JSR $9000
	load(bus, 0x9000, 0x60)             // RTS
	c.Step(bus)
	if c.PC != 0x9000 {
		t.Fatalf("PC after JSR = %#04x, want 0x9000", c.PC)
	}
	c.Step(bus)
	if c.PC != 0x8003 {
		t.Fatalf("PC after RTS = %#04x, want 0x8003", c.PC)
	}
}

func TestADCSetsCarryAndOverflow(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.A = 0x7F // +1 overflows into negative: classic signed-overflow case
	load(bus, 0x8000, 0x69, 0x01)
	c.Step(bus)
	if c.A != 0x80 {
		t.Fatalf("A = %#02x, want 0x80", c.A)
	}
	if !c.getFlag(BV) {
		t.Fatal("V flag should be set on signed overflow")
	}
	if c.getFlag(BC) {
		t.Fatal("C flag should be clear, no unsigned carry out")
	}
}

func TestSBCBorrowClearsCarry(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.A = 0x00
	c.setFlag(BC, true) // no borrow going in
	load(bus, 0x8000, 0xE9, 0x01)
	c.Step(bus)
	if c.A != 0xFF {
		t.Fatalf("A = %#02x, want 0xFF", c.A)
	}
	if c.getFlag(BC) {
		t.Fatal("C flag should be clear, a borrow occurred")
	}
}

func TestBRKPushesReturnAddressPlusOneAndSetsBFlag(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	bus.mem[0xFFFE] = 0x00
	bus.mem[0xFFFF] = 0x90
	load(bus, 0x8000, 0x00, 0xEA) // BRK, NOP
	c.Step(bus)
	if c.PC != 0x9000 {
		t.Fatalf("PC = %#04x, want 0x9000", c.PC)
	}
	pushedFlags := bus.mem[0x0100|uint16(c.SP+1)]
	if pushedFlags&BB == 0 {
		t.Fatal("pushed status should have B set for BRK")
	}
	returnLo := bus.mem[0x0100|uint16(c.SP+2)]
	returnHi := bus.mem[0x0100|uint16(c.SP+3)]
	if uint16(returnLo)|uint16(returnHi)<<8 != 0x8002 {
		t.Fatalf("pushed return address = %#04x, want 0x8002", uint16(returnLo)|uint16(returnHi)<<8)
	}
}

func TestNMITakesPriorityOverIRQ(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	bus.mem[0xFFFA], bus.mem[0xFFFB] = 0x00, 0x70 // NMI vector
	bus.mem[0xFFFE], bus.mem[0xFFFF] = 0x00, 0x60 // IRQ vector
	bus.nmi, bus.irq = true, true
	c.Step(bus)
	if c.PC != 0x7000 {
		t.Fatalf("PC = %#04x, want 0x7000 (NMI vector)", c.PC)
	}
}

func TestIRQServicedWhenUnmaskedAndClearsMapperLine(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.setFlag(BI, false)
	bus.mem[0xFFFE], bus.mem[0xFFFF] = 0x00, 0x60
	bus.irq = true
	c.Step(bus)
	if c.PC != 0x6000 {
		t.Fatalf("PC = %#04x, want 0x6000 (IRQ vector)", c.PC)
	}
	if bus.ackCount != 1 {
		t.Fatalf("ClearMapperIRQ called %d times, want 1", bus.ackCount)
	}
}

func TestIRQMaskedByIFlagIsIgnored(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.setFlag(BI, true)
	bus.irq = true
	load(bus, 0x8000, 0xEA) // NOP
	c.Step(bus)
	if c.PC != 0x8001 {
		t.Fatalf("PC = %#04x, want 0x8001 (IRQ should be masked)", c.PC)
	}
}

func TestDMAStallDrainsOneCycleAtATime(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	bus.stall = 3
	load(bus, 0x8000, 0xEA)
	cycles := c.Step(bus)
	if cycles != 1 || bus.stall != 2 {
		t.Fatalf("cycles=%d stall=%d, want 1 and 2", cycles, bus.stall)
	}
	c.Step(bus)
	c.Step(bus)
	if bus.stall != 0 {
		t.Fatalf("stall = %d, want 0 after draining", bus.stall)
	}
	if c.PC != 0x8000 {
		t.Fatal("PC should not have advanced while draining the DMA stall")
	}
}

func TestKILHaltsAndRecordsFault(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	load(bus, 0x8000, 0x02, 0xEA) // KIL, NOP (never reached)
	c.Step(bus)
	if !c.Halted {
		t.Fatal("CPU should be halted after a KIL opcode")
	}
	if c.Fault() == nil || c.Fault().Opcode != 0x02 {
		t.Fatalf("Fault = %+v, want Opcode 0x02", c.Fault())
	}
	before := c.PC
	c.Step(bus)
	if c.PC != before {
		t.Fatal("a halted CPU must not advance PC on further Step calls")
	}
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	bus.mem[0x30FF] = 0x80
	bus.mem[0x3000] = 0x50 // high byte is (mis)fetched from 0x3000, not 0x3100
	bus.mem[0x3100] = 0xFF
	load(bus, 0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	c.Step(bus)
	if c.PC != 0x5080 {
		t.Fatalf("PC = %#04x, want 0x5080 (page-wrap bug)", c.PC)
	}
}

func TestLAXLoadsBothAccumulatorAndX(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	bus.mem[0x0050] = 0x37
	load(bus, 0x8000, 0xA7, 0x50) // LAX $50
	c.Step(bus)
	if c.A != 0x37 || c.X != 0x37 {
		t.Fatalf("A=%#02x X=%#02x, want both 0x37", c.A, c.X)
	}
}

func TestDCPDecrementsAndCompares(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.A = 0x05
	bus.mem[0x0050] = 0x05
	load(bus, 0x8000, 0xC7, 0x50) // DCP $50: mem becomes 4, compare A(5) to 4
	c.Step(bus)
	if bus.mem[0x0050] != 0x04 {
		t.Fatalf("mem[0x50] = %d, want 4", bus.mem[0x0050])
	}
	if !c.getFlag(BC) {
		t.Fatal("C flag should be set, A >= decremented value")
	}
}

func TestAXSComputesUnsignedDifference(t *testing.T) {
	bus := newTestBus()
	c := newCPUAt(bus, 0x8000)
	c.A, c.X = 0xFF, 0x0F
	load(bus, 0x8000, 0xCB, 0x05) // AXS #5: X = (A&X) - 5 = 15 - 5 = 10
	c.Step(bus)
	if c.X != 10 {
		t.Fatalf("X = %d, want 10", c.X)
	}
	if !c.getFlag(BC) {
		t.Fatal("C flag should be set, no borrow")
	}
}

func TestOpcodeTableFullyPopulated(t *testing.T) {
	for op := 0; op < 256; op++ {
		if opcodeTable[op].fn == nil {
			t.Fatalf("opcode %#02x has no registered handler", op)
		}
	}
}
