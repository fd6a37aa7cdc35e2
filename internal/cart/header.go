package cart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	headerStart = 0x0100
	headerEnd   = 0x014F
)

// CartType enumerates the cartridge MBC types this module supports.
type CartType int

const (
	RomOnly CartType = iota
	RomMBC1
	RomMBC1Ram
	RomMBC1RamBattery
	RomMBC2
	RomMBC2Battery
	RomMBC3
	RomMBC3Ram
	RomMBC3RamBattery
	RomMBC5
	RomMBC5Ram
	RomMBC5RamBattery
)

func (t CartType) String() string {
	switch t {
	case RomOnly:
		return "ROM ONLY"
	case RomMBC1:
		return "MBC1"
	case RomMBC1Ram:
		return "MBC1+RAM"
	case RomMBC1RamBattery:
		return "MBC1+RAM+BATTERY"
	case RomMBC2:
		return "MBC2"
	case RomMBC2Battery:
		return "MBC2+BATTERY"
	case RomMBC3:
		return "MBC3"
	case RomMBC3Ram:
		return "MBC3+RAM"
	case RomMBC3RamBattery:
		return "MBC3+RAM+BATTERY"
	case RomMBC5:
		return "MBC5"
	case RomMBC5Ram:
		return "MBC5+RAM"
	case RomMBC5RamBattery:
		return "MBC5+RAM+BATTERY"
	default:
		return "unknown"
	}
}

// HasBattery reports whether this type's external RAM should be persisted.
func (t CartType) HasBattery() bool {
	switch t {
	case RomMBC1RamBattery, RomMBC2Battery, RomMBC3RamBattery, RomMBC5RamBattery:
		return true
	default:
		return false
	}
}

// Header holds the decoded fields of the cartridge header (0x0100-0x014F).
type Header struct {
	Title          string
	CGBFlag        byte
	CartTypeByte   byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	HeaderChecksum byte
	GlobalChecksum uint16

	Type         CartType
	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
}

// ParseHeader decodes the cartridge header and resolves the type/size codes to
// the module's supported CartType enum. It returns an error for ROMs too small
// to contain a header, or whose type byte is not one of the supported MBCs.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, errors.New("cart: rom too small to contain header")
	}

	rawTitle := rom[0x0134:0x0144]
	title := strings.TrimRight(string(rawTitle), "\x00")

	h := &Header{
		Title:          title,
		CGBFlag:        rom[0x0143],
		CartTypeByte:   rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
	}

	t, err := decodeCartType(h.CartTypeByte)
	if err != nil {
		return nil, err
	}
	h.Type = t

	size, banks, err := decodeROMSize(h.ROMSizeCode)
	if err != nil {
		return nil, err
	}
	h.ROMSizeBytes, h.ROMBanks = size, banks

	ramSize, err := decodeRAMSize(h.RAMSizeCode)
	if err != nil {
		return nil, err
	}
	h.RAMSizeBytes = ramSize
	if h.Type == RomMBC2 || h.Type == RomMBC2Battery {
		// MBC2 carries its own 512-nibble RAM regardless of the header's RAM code.
		h.RAMSizeBytes = 512
	}

	return h, nil
}

func decodeCartType(b byte) (CartType, error) {
	switch b {
	case 0x00:
		return RomOnly, nil
	case 0x01:
		return RomMBC1, nil
	case 0x02:
		return RomMBC1Ram, nil
	case 0x03:
		return RomMBC1RamBattery, nil
	case 0x05:
		return RomMBC2, nil
	case 0x06:
		return RomMBC2Battery, nil
	case 0x0F, 0x10, 0x11:
		return RomMBC3, nil
	case 0x12:
		return RomMBC3Ram, nil
	case 0x13:
		return RomMBC3RamBattery, nil
	case 0x19:
		return RomMBC5, nil
	case 0x1A, 0x1C:
		return RomMBC5Ram, nil
	case 0x1B, 0x1D, 0x1E:
		return RomMBC5RamBattery, nil
	default:
		return RomOnly, fmt.Errorf("cart: unsupported cartridge type byte 0x%02X", b)
	}
}

func decodeROMSize(code byte) (size, banks int, err error) {
	switch code {
	case 0x00:
		return 32 * 1024, 2, nil
	case 0x01:
		return 64 * 1024, 4, nil
	case 0x02:
		return 128 * 1024, 8, nil
	case 0x03:
		return 256 * 1024, 16, nil
	case 0x04:
		return 512 * 1024, 32, nil
	case 0x05:
		return 1 * 1024 * 1024, 64, nil
	case 0x06:
		return 2 * 1024 * 1024, 128, nil
	case 0x07:
		return 4 * 1024 * 1024, 256, nil
	case 0x08:
		return 8 * 1024 * 1024, 512, nil
	default:
		return 0, 0, fmt.Errorf("cart: invalid rom size code 0x%02X", code)
	}
}

func decodeRAMSize(code byte) (int, error) {
	switch code {
	case 0x00:
		return 0, nil
	case 0x01:
		return 2 * 1024, nil
	case 0x02:
		return 8 * 1024, nil
	case 0x03:
		return 32 * 1024, nil
	case 0x04:
		return 128 * 1024, nil
	case 0x05:
		return 64 * 1024, nil
	default:
		return 0, fmt.Errorf("cart: invalid ram size code 0x%02X", code)
	}
}

// HeaderChecksumOK recomputes the 0x014D header checksum for diagnostics.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}
