package cart

import "testing"

func newMBC2Cart(t *testing.T, banks int) *mbc2 {
	t.Helper()
	rom := make([]byte, 0x4000*banks)
	copy(rom[0x0134:0x0144], []byte("MBC2TEST"))
	rom[0x0147] = 0x06 // MBC2+BATTERY
	for b := 0; b < banks; b++ {
		rom[b*0x4000] = byte(b)
	}
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	h.ROMBanks = banks
	return newMBC2(rom, h)
}

func TestMBC2_RAMIsNibbleWide(t *testing.T) {
	m := newMBC2Cart(t, 4)
	m.Write(0x0000, 0x0A) // addr bit 8 clear -> RAM enable
	m.Write(0xA000, 0xF3)
	if got := m.Read(0xA000); got != 0xF3 {
		t.Fatalf("nibble read got %#02x want 0xF3 (only low nibble 3 stored, upper nibble reads as 1s)", got)
	}
	m.Write(0xA000, 0x03)
	if got := m.Read(0xA000); got != 0xF3 {
		t.Fatalf("nibble read got %#02x want 0xF3", got)
	}
}

func TestMBC2_RAMMirrors512Bytes(t *testing.T) {
	m := newMBC2Cart(t, 4)
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x05)
	if got := m.Read(0xA200); got != 0xF5 {
		t.Fatalf("mirrored read got %#02x want 0xF5 (512-byte internal RAM repeats)", got)
	}
}

func TestMBC2_BankSelectBit8Gating(t *testing.T) {
	m := newMBC2Cart(t, 4)
	m.Write(0x0100, 0x02) // addr bit 8 set -> rom bank select
	if got := m.Read(0x4000); got != 2 {
		t.Fatalf("bank marker got %d want 2", got)
	}
	m.Write(0x0100, 0x00) // 0 remaps to 1
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("bank marker after select-0 got %d want 1", got)
	}
}
