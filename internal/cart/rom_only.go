package cart

// romOnly is a cartridge with no bank controller and no external RAM.
type romOnly struct {
	rom []byte
	h   *Header
}

func newROMOnly(rom []byte, h *Header) *romOnly {
	return &romOnly{rom: rom, h: h}
}

func (c *romOnly) Info() *Header { return c.h }

func (c *romOnly) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
		return 0xFF
	default: // 0xA000-0xBFFF: no external RAM
		return 0xFF
	}
}

func (c *romOnly) Write(addr uint16, value byte) {
	// ROM-only: both ROM control writes and RAM writes are ignored.
}

func (c *romOnly) SaveState() []byte     { return nil }
func (c *romOnly) LoadState(data []byte) {}
