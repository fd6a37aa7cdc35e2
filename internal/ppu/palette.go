package ppu

// shades holds the four DMG greys, brightest first, packed as 0xRRGGBBAA.
var shades = [4]uint32{
	0xE0F8D0FF,
	0x88C070FF,
	0x346856FF,
	0x081820FF,
}

// Palette decodes a BGP/OBP0/OBP1-style register: two bits per source color
// index (0-3) select one of the four DMG shades.
type Palette byte

// Shade maps a 2-bit tile/sprite color index through the palette register to
// a final RGBA color.
func (p Palette) Shade(ci byte) uint32 {
	idx := (byte(p) >> (ci * 2)) & 0x03
	return shades[idx]
}
