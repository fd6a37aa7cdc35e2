package cart

import "testing"

func newMBC3Cart(t *testing.T, banks int) *mbc3 {
	t.Helper()
	rom := make([]byte, 0x4000*banks)
	copy(rom[0x0134:0x0144], []byte("MBC3TEST"))
	rom[0x0147] = 0x13 // MBC3+RAM+BATTERY
	rom[0x0149] = 0x03 // 32KiB RAM, 4 banks
	for b := 0; b < banks; b++ {
		rom[b*0x4000] = byte(b)
	}
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	h.ROMBanks = banks
	return newMBC3(rom, h)
}

func TestMBC3_BankSelectAndZeroRemap(t *testing.T) {
	m := newMBC3Cart(t, 4)
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("bank-select 0 got %d want 1", got)
	}
	m.Write(0x2000, 0x03)
	if got := m.Read(0x4000); got != 3 {
		t.Fatalf("bank 3 marker got %d want 3", got)
	}
}

func TestMBC3_RTCRegisterSelectFoldsToRAMBank0(t *testing.T) {
	m := newMBC3Cart(t, 2)
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x11)
	m.Write(0x4000, 0x08) // RTC register select, unsupported -> RAM bank 0
	if got := m.Read(0xA000); got != 0x11 {
		t.Fatalf("RAM bank 0 byte got %#02x want 0x11", got)
	}
}

func TestMBC3_RAMBanking(t *testing.T) {
	m := newMBC3Cart(t, 2)
	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x01)
	m.Write(0xA000, 0x99)
	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got == 0x99 {
		t.Fatalf("bank 0 should not see bank 1's byte")
	}
	m.Write(0x4000, 0x01)
	if got := m.Read(0xA000); got != 0x99 {
		t.Fatalf("bank 1 byte got %#02x want 0x99", got)
	}
}
