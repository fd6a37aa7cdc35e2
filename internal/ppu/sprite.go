package ppu

import "sort"

// Sprite is a decoded OAM entry. X and Y are already adjusted to screen
// coordinates (OAM's raw X-8, Y-16), unlike the raw bytes stored in OAM.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

const (
	attrPriority = 1 << 7 // 1: behind BG colors 1-3
	attrYFlip    = 1 << 6
	attrXFlip    = 1 << 5
	attrDMGPal   = 1 << 4 // 0: OBP0, 1: OBP1
)

// scanSprites decodes all 40 OAM entries and returns those intersecting ly,
// capped at the hardware's 10-sprites-per-line limit, in OAM order.
func scanSprites(oam *[0xA0]byte, ly byte, tallSprites bool) []Sprite {
	height := 8
	if tallSprites {
		height = 16
	}
	var out []Sprite
	for i := 0; i < 40 && len(out) < 10; i++ {
		base := i * 4
		y := int(oam[base]) - 16
		x := int(oam[base+1]) - 8
		if int(ly) < y || int(ly) >= y+height {
			continue
		}
		out = append(out, Sprite{
			X: x, Y: y,
			Tile:     oam[base+2],
			Attr:     oam[base+3],
			OAMIndex: i,
		})
	}
	return out
}

// ComposeSpriteLine resolves sprite/BG priority and transparency for one
// scanline, returning the winning 2-bit color index per pixel (0 = no
// sprite pixel wins at that column).
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tallSprites bool) [160]byte {
	ci, _ := composeSpriteLine(mem, sprites, ly, bgci, tallSprites)
	return ci
}

// composeSpriteLine is the full internal variant also reporting, per pixel,
// which DMG object palette (OBP0=0/OBP1=1) produced the winning color.
func composeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tallSprites bool) (ci [160]byte, palSel [160]byte) {
	height := 8
	if tallSprites {
		height = 16
	}
	ordered := append([]Sprite(nil), sprites...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OAMIndex < ordered[j].OAMIndex
	})

	var drawn [160]bool
	for _, s := range ordered {
		row := int(ly) - s.Y
		if row < 0 || row >= height {
			continue
		}
		if s.Attr&attrYFlip != 0 {
			row = height - 1 - row
		}
		tile := int(s.Tile)
		if tallSprites {
			tile &^= 1
			if row >= 8 {
				tile++
				row -= 8
			}
		}
		base := uint16(0x8000) + uint16(tile)*16 + uint16(row)*2
		lo := mem.Read(base)
		hi := mem.Read(base + 1)

		for col := 0; col < 8; col++ {
			px := col
			if s.Attr&attrXFlip != 0 {
				px = 7 - col
			}
			bit := 7 - byte(px)
			px2bit := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if px2bit == 0 {
				continue
			}
			x := s.X + col
			if x < 0 || x >= 160 || drawn[x] {
				continue
			}
			if s.Attr&attrPriority != 0 && bgci[x] != 0 {
				continue
			}
			ci[x] = px2bit
			if s.Attr&attrDMGPal != 0 {
				palSel[x] = 1
			}
			drawn[x] = true
		}
	}
	return ci, palSel
}
