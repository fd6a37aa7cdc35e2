package cart

import (
	"bytes"
	"encoding/gob"
)

// mbc2 implements the MBC2 controller: up to 16 switchable 16KiB ROM banks
// and a fixed 512x4-bit block of built-in RAM (addresses 0xA000-0xA1FF,
// mirrored through 0xBFFF, upper nibble of each byte reads as 1s).
//
// Unlike MBC1, the RAM-enable and ROM-bank-select writes share the same
// 0x0000-0x3FFF region; which one a write performs is decided by address
// bit 8: clear selects RAM-enable, set selects ROM bank.
type mbc2 struct {
	rom []byte
	ram [512]byte // only the low nibble of each byte is meaningful
	h   *Header

	romBank    byte // 4 bits, 0 remaps to 1
	ramEnabled bool
}

func newMBC2(rom []byte, h *Header) *mbc2 {
	return &mbc2{rom: rom, h: h, romBank: 1}
}

func (m *mbc2) Info() *Header { return m.h }

func (m *mbc2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank)
		if banks := m.h.ROMBanks; banks > 0 {
			bank &= banks - 1
		}
		off := bank*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0
		}
		return 0xF0 | (m.ram[int(addr-0xA000)%512] & 0x0F)
	default:
		return 0xFF
	}
}

func (m *mbc2) Write(addr uint16, value byte) {
	switch {
	case addr < 0x4000:
		if addr&0x0100 == 0 {
			m.ramEnabled = value&0x0F == 0x0A
			return
		}
		v := value & 0x0F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[int(addr-0xA000)%512] = value & 0x0F
	}
}

func (m *mbc2) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram[:])
	return out
}

func (m *mbc2) LoadRAM(data []byte) {
	copy(m.ram[:], data)
}

type mbc2State struct {
	RAM        [512]byte
	RomBank    byte
	RamEnabled bool
}

func (m *mbc2) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc2State{RAM: m.ram, RomBank: m.romBank, RamEnabled: m.ramEnabled})
	return buf.Bytes()
}

func (m *mbc2) LoadState(data []byte) {
	var s mbc2State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	m.ram, m.romBank, m.ramEnabled = s.RAM, s.RomBank, s.RamEnabled
}
