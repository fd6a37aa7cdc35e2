package emu

import "testing"

// newTestROM builds a 32KB ROM-only cartridge image with a valid header for
// the given cart type byte and RAM size code.
func newTestROM(cartType, ramSizeCode byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0134:0x0144], []byte("TESTROM"))
	rom[0x0143] = 0x00 // CGB flag: DMG only
	rom[0x0147] = cartType
	rom[0x0148] = 0x00 // 32KB, 2 banks
	rom[0x0149] = ramSizeCode
	return rom
}

func TestMachine_LoadCartridgeAndStepFrame(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(0x00, 0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if title := m.ROMTitle(); title != "TESTROM" {
		t.Fatalf("ROMTitle got %q want TESTROM", title)
	}
	m.StepFrame()
	fb := m.Framebuffer()
	if len(fb) != 160*144*4 {
		t.Fatalf("framebuffer length got %d want %d", len(fb), 160*144*4)
	}
}

func TestMachine_ButtonsWireThroughToBus(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(0x00, 0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.bus.Write(0xFF00, 0x20) // select D-pad
	m.SetButtons(Buttons{Right: true})
	if got := m.bus.Read(0xFF00) & 0x0F; got != 0x0E {
		t.Fatalf("JOYP after SetButtons got %02x want 0E", got)
	}
}

func TestMachine_BatteryRAMRoundTrip(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(0x13, 0x02), nil); err != nil { // MBC3+RAM+BATTERY, 8KB
		t.Fatalf("LoadCartridge: %v", err)
	}
	// Enable RAM and write a distinctive byte through the CPU-visible window.
	m.bus.Write(0x0000, 0x0A) // MBC3 RAM enable
	m.bus.Write(0xA000, 0x55)
	data, ok := m.SaveBattery()
	if !ok {
		t.Fatalf("expected battery-backed cartridge to report ok=true")
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty battery RAM dump")
	}

	m2 := New(Config{})
	if err := m2.LoadCartridge(newTestROM(0x13, 0x02), nil); err != nil {
		t.Fatalf("LoadCartridge (m2): %v", err)
	}
	if !m2.LoadBattery(data) {
		t.Fatalf("LoadBattery reported unsupported cartridge")
	}
	m2.bus.Write(0x0000, 0x0A) // RAM enable
	if got := m2.bus.Read(0xA000); got != 0x55 {
		t.Fatalf("restored RAM byte got %02x want 55", got)
	}
}

func TestMachine_SaveStateRoundTrip(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(0x00, 0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.StepFrame()
	m.cpu.SetPC(0x1234)
	m.cpu.A = 0x42
	snap := m.SaveState()

	m2 := New(Config{})
	if err := m2.LoadCartridge(newTestROM(0x00, 0x00), nil); err != nil {
		t.Fatalf("LoadCartridge (m2): %v", err)
	}
	m2.LoadState(snap)
	if m2.cpu.PC != 0x1234 {
		t.Fatalf("PC after LoadState got %#04x want 0x1234", m2.cpu.PC)
	}
	if m2.cpu.A != 0x42 {
		t.Fatalf("A after LoadState got %02x want 42", m2.cpu.A)
	}
}

func TestMachine_LoadBatteryFalseForNonBatteryCartridge(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(0x00, 0x00), nil); err != nil { // ROM-only
		t.Fatalf("LoadCartridge: %v", err)
	}
	if m.LoadBattery([]byte{1, 2, 3}) {
		t.Fatalf("LoadBattery should report false for a ROM-only cartridge")
	}
	if _, ok := m.SaveBattery(); ok {
		t.Fatalf("SaveBattery should report ok=false for a ROM-only cartridge")
	}
}
