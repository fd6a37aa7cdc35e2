package ppu

import "testing"

// renderOneLine drives the PPU through LCD-on, the three line phases, and
// returns the framebuffer row produced for LY=0.
func renderOneLine(p *PPU) [160]uint32 {
	p.CPUWrite(0xFF40, 0x91) // LCD on, BG on, BG tilemap 0x9800, BG data 0x8000
	p.CPUWrite(0xFF47, 0xE4) // identity BGP (00,01,10,11 -> shades 0,1,2,3)
	p.Tick(80)               // enter mode 3, line registers captured
	p.Tick(172)               // enter mode 0, line rendered
	return p.Framebuffer()[0]
}

func TestRenderLine_SolidBGTileFillsRow(t *testing.T) {
	p := New(nil)
	// Tile 0 at map (0x9800) already zero; make its pattern fully color 3
	// (both bitplanes 0xFF at every row).
	for row := uint16(0); row < 8; row++ {
		p.CPUWrite(0x8000+row*2, 0xFF)
		p.CPUWrite(0x8000+row*2+1, 0xFF)
	}
	fb := renderOneLine(p)
	want := Palette(0xE4).Shade(3)
	for x := 0; x < 160; x++ {
		if fb[x] != want {
			t.Fatalf("pixel %d got %#08x want %#08x", x, fb[x], want)
		}
	}
}

func TestRenderLine_SpriteOverridesBG(t *testing.T) {
	p := New(nil)
	// BG stays color 0 (map/tile data all zero). Enable sprites.
	p.CPUWrite(0xFF40, 0x93) // LCD+BG+OBJ on
	p.CPUWrite(0xFF47, 0xE4)
	p.CPUWrite(0xFF48, 0xE4) // OBP0 identity
	// Sprite tile 0 fully opaque color 1 across the row (lo=0xFF, hi=0x00).
	p.CPUWrite(0x8000, 0xFF)
	p.CPUWrite(0x8001, 0x00)
	// OAM entry 0: Y=16 (screen row 0), X=8 (screen col 0), tile 0, no attrs.
	p.CPUWrite(0xFE00, 16)
	p.CPUWrite(0xFE01, 8)
	p.CPUWrite(0xFE02, 0)
	p.CPUWrite(0xFE03, 0)

	p.Tick(80)
	p.Tick(172)
	fb := p.Framebuffer()[0]
	want := Palette(0xE4).Shade(1)
	if fb[0] != want {
		t.Fatalf("sprite pixel got %#08x want %#08x", fb[0], want)
	}
}
