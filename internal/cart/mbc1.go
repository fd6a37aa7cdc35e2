package cart

import (
	"bytes"
	"encoding/gob"
)

// mbc1 implements the MBC1 bank controller: up to 125 switchable 16KiB ROM
// banks plus up to four 8KiB RAM banks, selected via the classic
// lower5/upper2/mode register trio.
type mbc1 struct {
	rom []byte
	ram []byte
	h   *Header

	romBankLow5 byte // 0x2000-0x3FFF write, 5 bits, 0 remaps to 1
	bankHigh2   byte // 0x4000-0x5FFF write, 2 bits
	mode        byte // 0x6000-0x7FFF write: 0=rom banking, 1=ram banking
	ramEnabled  bool
}

func newMBC1(rom []byte, h *Header) *mbc1 {
	m := &mbc1{rom: rom, h: h, romBankLow5: 1}
	if h.RAMSizeBytes > 0 {
		m.ram = make([]byte, h.RAMSizeBytes)
	}
	return m
}

func (m *mbc1) Info() *Header { return m.h }

// romBank computes the effective switchable-area bank per §4.2: combine the
// upper bits into the selection only in ROM banking mode (the full 7-bit
// value); in RAM banking mode only the low 5 bits apply. The result is masked
// to the ROM's bank count. The low-5 register never holds 0, so selecting
// 0x00/0x20/0x40/0x60 yields 0x01/0x21/0x41/0x61.
func (m *mbc1) romBank() int {
	var bank int
	if m.mode == 0 {
		bank = int(m.romBankLow5) | int(m.bankHigh2)<<5
	} else {
		bank = int(m.romBankLow5)
	}
	if banks := m.h.ROMBanks; banks > 0 {
		bank &= banks - 1
	}
	return bank
}

func (m *mbc1) ramBank() int {
	if m.mode == 1 && len(m.ram) > 0x2000 {
		return int(m.bankHigh2)
	}
	return 0
}

func (m *mbc1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		// off is the selected bank's base plus the offset inside the
		// 0x4000-0x7FFF window. The low-5 register remaps 0->1 on write, but
		// masking to the ROM's bank count can still yield bank 0 when the
		// selection exceeds the ROM size.
		off := m.romBank()*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0
		}
		off := m.ramBank()*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *mbc1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		v := value & 0x1F
		if v == 0 {
			v = 1
		}
		m.romBankLow5 = v
	case addr < 0x6000:
		m.bankHigh2 = value & 0x03
	case addr < 0x8000:
		m.mode = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := m.ramBank()*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *mbc1) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *mbc1) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

type mbc1State struct {
	RAM                           []byte
	RomBankLow5, BankHigh2, Mode  byte
	RamEnabled                    bool
}

func (m *mbc1) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc1State{
		RAM: m.ram, RomBankLow5: m.romBankLow5, BankHigh2: m.bankHigh2,
		Mode: m.mode, RamEnabled: m.ramEnabled,
	})
	return buf.Bytes()
}

func (m *mbc1) LoadState(data []byte) {
	var s mbc1State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	if len(s.RAM) == len(m.ram) {
		copy(m.ram, s.RAM)
	}
	m.romBankLow5, m.bankHigh2, m.mode, m.ramEnabled = s.RomBankLow5, s.BankHigh2, s.Mode, s.RamEnabled
}
