// Package cart parses cartridge headers and implements the supported memory
// bank controllers (ROM-only, MBC1, MBC2, plus MBC3/MBC5 as optional extras).
package cart

import "fmt"

// Cartridge is the minimal interface the bus needs for ROM/RAM banking.
// Addresses are CPU addresses (0x0000-0x7FFF for ROM/control, 0xA000-0xBFFF
// for external RAM).
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)

	Info() *Header

	SaveState() []byte
	LoadState(data []byte)
}

// BatteryBacked is implemented by cartridge types whose external RAM should
// be persisted to a .sav file across sessions.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// New parses the ROM header and constructs the matching MBC implementation.
// It returns an error for any cartridge type or size code this module does
// not support (§4.2: "Reject anything else").
func New(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	if len(rom) < h.ROMSizeBytes {
		return nil, fmt.Errorf("cart: rom file is %d bytes, header declares %d", len(rom), h.ROMSizeBytes)
	}

	switch h.Type {
	case RomOnly:
		return newROMOnly(rom, h), nil
	case RomMBC1, RomMBC1Ram, RomMBC1RamBattery:
		return newMBC1(rom, h), nil
	case RomMBC2, RomMBC2Battery:
		return newMBC2(rom, h), nil
	case RomMBC3, RomMBC3Ram, RomMBC3RamBattery:
		return newMBC3(rom, h), nil
	case RomMBC5, RomMBC5Ram, RomMBC5RamBattery:
		return newMBC5(rom, h), nil
	default:
		return nil, fmt.Errorf("cart: unsupported cartridge type %s", h.Type)
	}
}
