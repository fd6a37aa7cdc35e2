package cart

import "testing"

func newMBC5Cart(t *testing.T, banks int) *mbc5 {
	t.Helper()
	rom := make([]byte, 0x4000*banks)
	copy(rom[0x0134:0x0144], []byte("MBC5TEST"))
	rom[0x0147] = 0x1B // MBC5+RAM+BATTERY
	rom[0x0149] = 0x03 // 32KiB RAM
	for b := 0; b < banks; b++ {
		rom[b*0x4000] = byte(b)
	}
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	h.ROMBanks = banks
	return newMBC5(rom, h)
}

func TestMBC5_BankZeroIsSelectable(t *testing.T) {
	m := newMBC5Cart(t, 4)
	m.Write(0x2000, 0x00) // unlike MBC1/MBC3, bank 0 is legal here
	if got := m.Read(0x4000); got != 0 {
		t.Fatalf("bank 0 marker got %d want 0 (no remap on MBC5)", got)
	}
}

func TestMBC5_NineBitBankSelect(t *testing.T) {
	m := newMBC5Cart(t, 4)
	m.Write(0x2000, 0x03)
	m.Write(0x3000, 0x01) // high bit set, would select bank 0x103 if it existed
	if got := m.Read(0x4000); got != 0xFF {
		t.Fatalf("out-of-range high bank got %#02x want 0xFF", got)
	}
	m.Write(0x3000, 0x00)
	if got := m.Read(0x4000); got != 3 {
		t.Fatalf("bank 3 marker got %d want 3", got)
	}
}
