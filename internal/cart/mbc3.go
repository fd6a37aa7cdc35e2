package cart

import (
	"bytes"
	"encoding/gob"
)

// mbc3 implements ROM/RAM banking with a 7-bit ROM bank select and a 2-bit
// RAM bank. Real hardware also exposes RTC registers at RAM-bank-select
// values 0x08-0x0C and a latch-clock write at 0x6000-0x7FFF; this module
// does not model the clock (no corpus example implements RTC persistence),
// so those selects are accepted but just address RAM bank 0 and the latch
// write is a no-op.
type mbc3 struct {
	rom []byte
	ram []byte
	h   *Header

	ramEnabled bool
	romBank    byte // 7 bits, 1..127
	ramBank    byte // 0..3 (RTC reg selects fold to 0)
}

func newMBC3(rom []byte, h *Header) *mbc3 {
	m := &mbc3{rom: rom, h: h, romBank: 1}
	if h.RAMSizeBytes > 0 {
		m.ram = make([]byte, h.RAMSizeBytes)
	}
	return m
}

func (m *mbc3) Info() *Header { return m.h }

func (m *mbc3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *mbc3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		if value <= 0x03 {
			m.ramBank = value & 0x03
		} else {
			m.ramBank = 0 // RTC register select, unsupported
		}
	case addr < 0x8000:
		// latch clock data, no RTC to latch
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *mbc3) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *mbc3) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

type mbc3State struct {
	RAM                         []byte
	RomBank, RamBank            byte
	RamEnabled                  bool
}

func (m *mbc3) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc3State{RAM: m.ram, RomBank: m.romBank, RamBank: m.ramBank, RamEnabled: m.ramEnabled})
	return buf.Bytes()
}

func (m *mbc3) LoadState(data []byte) {
	var s mbc3State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	if len(s.RAM) == len(m.ram) {
		copy(m.ram, s.RAM)
	}
	m.romBank, m.ramBank, m.ramEnabled = s.RomBank, s.RamBank, s.RamEnabled
}
