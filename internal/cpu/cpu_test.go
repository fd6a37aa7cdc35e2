package cpu

import (
	"testing"

	"github.com/reinholt/dmgcore/internal/bus"
	"github.com/reinholt/dmgcore/internal/hwstate"
)

// newCPUWithROM builds a 32KB ROM-only cartridge image (header type byte
// 0x00, size code 0x00 both default to the zero value) with code copied to
// its front, wires it through a real Bus, and returns a fresh CPU over it.
func newCPUWithROM(code []byte) *CPU {
	rom := make([]byte, 0x8000)
	copy(rom, code)
	b, err := bus.NewFromROM(rom)
	if err != nil {
		panic(err)
	}
	return New(b)
}

func TestCPU_NopAndPC(t *testing.T) {
	c := newCPUWithROM([]byte{0x00}) // NOP
	if cycles := c.Step(); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x12, 0xAF}) // LD A,0x12; XOR A
	c.Step()
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	c.Step()
	if c.A != 0x00 {
		t.Fatalf("A after XOR got %02x want 00", c.A)
	}
	if (c.F & flagZ) == 0 {
		t.Fatalf("Z flag not set after XOR A")
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	prog := []byte{0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0}
	c := newCPUWithROM(prog)
	c.Step() // LD A,77
	c.Step() // LD (C000),A
	if a := c.Bus().Read(0xC000); a != 0x77 {
		t.Fatalf("WRAM at C000 got %02x want 77", a)
	}
	c.Step() // LD A,00
	c.Step() // LD A,(C000)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %02x want 77", c.A)
	}
}

func TestCPU_JP_and_JR(t *testing.T) {
	// JP 0x0010, then at 0x0010: JR -2 (self-loop, executed once here).
	prog := make([]byte, 0x12)
	copy(prog, []byte{0xC3, 0x10, 0x00})
	prog[0x10] = 0x18 // JR r8
	prog[0x11] = 0xFE // -2
	c := newCPUWithROM(prog)
	c.Step() // JP
	if c.PC != 0x0010 {
		t.Fatalf("PC after JP got %#04x want 0x0010", c.PC)
	}
	c.Step() // JR -2
	if c.PC != 0x0010 {
		t.Fatalf("PC after JR -2 got %#04x want 0x0010", c.PC)
	}
}

func TestCPU_PushPopAF_MasksLowNibble(t *testing.T) {
	c := newCPUWithROM(nil)
	c.A = 0xAB
	c.F = 0xFF // only the top nibble (ZNHC) is architecturally meaningful
	c.push16(c.getAF())
	c.setAF(c.pop16())
	if c.A != 0xAB {
		t.Fatalf("A round-trip got %02x want AB", c.A)
	}
	if c.F&0x0F != 0 {
		t.Fatalf("F low nibble got %02x want 0 (masked)", c.F&0x0F)
	}
}

func TestCPU_SWAP_RoundTrip(t *testing.T) {
	prog := []byte{0x3E, 0xA5, 0xCB, 0x37, 0xCB, 0x37} // LD A,A5; SWAP A; SWAP A
	c := newCPUWithROM(prog)
	c.Step()
	c.Step()
	if c.A != 0x5A {
		t.Fatalf("A after first SWAP got %02x want 5A", c.A)
	}
	c.Step()
	if c.A != 0xA5 {
		t.Fatalf("A after second SWAP got %02x want A5 (round trip)", c.A)
	}
}

func TestCPU_DAA_AdditionBCD(t *testing.T) {
	// 0x15 + 0x27 = 0x3C in binary but 0x42 in BCD.
	prog := []byte{0x3E, 0x15, 0xC6, 0x27, 0x27} // LD A,15; ADD A,27; DAA
	c := newCPUWithROM(prog)
	c.Step()
	c.Step()
	c.Step()
	if c.A != 0x42 {
		t.Fatalf("DAA result got %02x want 42", c.A)
	}
}

func TestCPU_HALT_WakesOnPendingInterruptEvenWithIMEOff(t *testing.T) {
	prog := []byte{0x76, 0x00} // HALT; NOP
	c := newCPUWithROM(prog)
	c.Step() // HALT
	if !c.Halted() {
		t.Fatalf("CPU should be halted")
	}
	hw := c.Bus().HW()
	hw.IntEnable = hwstate.Timer.Mask
	hw.RequestInterrupt(hwstate.Timer)
	// IME is off: the CPU should wake but not service/dispatch.
	cycles := c.Step()
	if c.Halted() {
		t.Fatalf("CPU should have woken on pending interrupt")
	}
	if c.PC != 2 {
		t.Fatalf("PC after wake got %#04x want 0x0002 (executed the NOP, no dispatch)", c.PC)
	}
	if cycles != 4 {
		t.Fatalf("cycles after wake got %d want 4", cycles)
	}
}

func TestCPU_EI_TakesEffectAfterFollowingInstruction(t *testing.T) {
	// EI; NOP; NOP. IME must still be off during the NOP right after EI,
	// and only go live once that NOP has completed.
	prog := []byte{0xFB, 0x00, 0x00}
	c := newCPUWithROM(prog)
	hw := c.Bus().HW()
	c.Step() // EI
	if hw.IME == hwstate.IMEOn {
		t.Fatalf("IME must not be on immediately after EI")
	}
	c.Step() // NOP (the instruction immediately following EI)
	if hw.IME != hwstate.IMEOn {
		t.Fatalf("IME should be on once the instruction after EI has completed")
	}
}

func TestCPU_UndefinedOpcodeActsAsOneNOPAndAdvancesPC(t *testing.T) {
	c := newCPUWithROM([]byte{0xED, 0x00})
	cycles := c.Step()
	if cycles != 4 {
		t.Fatalf("undefined opcode cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after undefined opcode got %#04x want 0x0001", c.PC)
	}
}

func TestCPU_STOP_ConsumesOperandByte(t *testing.T) {
	prog := []byte{0x10, 0x00, 0x00} // STOP 0; NOP
	c := newCPUWithROM(prog)
	cycles := c.Step()
	if cycles != 4 {
		t.Fatalf("STOP cycles got %d want 4", cycles)
	}
	if c.PC != 2 {
		t.Fatalf("PC after STOP got %#04x want 0x0002 (operand byte consumed)", c.PC)
	}
}
