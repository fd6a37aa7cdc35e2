// Package ppu implements the DMG picture processing unit: the LCDC/STAT/
// scroll/palette register file, the per-dot mode state machine, and BG/
// window/sprite scanline compositing into an RGBA framebuffer.
package ppu

import (
	"bytes"
	"encoding/gob"
)

// InterruptRequester requests an IF bit (0:VBlank, 1:STAT, ...).
type InterruptRequester func(bit int)

// LineRegs captures the register values a scanline was rendered with,
// useful for tests and for debugging mid-frame raster effects.
type LineRegs struct {
	LY, SCX, SCY, WX, WY, LCDC byte
	BGP, OBP0, OBP1            byte
	WinLine                    byte
	WindowVisible              bool
}

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC, timing, and rendering.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc byte // FF40
	stat byte // FF41
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	dot int // dots within current line [0..455]

	winLineCounter int // -1 == not yet used this frame
	lineRegs       [144]LineRegs

	fb [144][160]uint32 // RGBA framebuffer, filled one line at a time

	req InterruptRequester
}

func New(req InterruptRequester) *PPU {
	return &PPU{req: req, winLineCounter: -1}
}

// ppuVRAM adapts the PPU's own VRAM array to the VRAMReader interface the
// fetcher/sprite helpers use, bypassing the CPU-facing mode-gated access.
type ppuVRAM struct{ p *PPU }

func (v ppuVRAM) Read(addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	return v.p.vram[addr-0x8000]
}

// Framebuffer returns the most recently rendered frame: 144 rows of 160
// packed RGBA (0xRRGGBBAA) pixels.
func (p *PPU) Framebuffer() *[144][160]uint32 { return &p.fb }

// CPURead returns bytes for VRAM, OAM, and PPU IO registers.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO registers.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			p.ly = 0
			p.dot = 0
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			p.ly = 0
			p.dot = 0
			p.winLineCounter = -1
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		p.ly = 0
		p.dot = 0
		p.updateLYC()
		if (p.lcdc & 0x80) != 0 {
			p.setMode(2)
		}
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// Tick advances PPU state by the given number of dots (CPU cycles).
func (p *PPU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 {
			continue
		}
		p.dot++

		var mode byte
		if p.ly >= 144 {
			mode = 1
		} else {
			switch {
			case p.dot < 80:
				mode = 2
			case p.dot < 80+172:
				mode = 3
			default:
				mode = 0
			}
		}
		prevMode := p.stat & 0x03
		p.setMode(mode)
		if prevMode != 3 && mode == 3 {
			p.captureLine()
		}
		if prevMode == 3 && mode == 0 {
			p.renderLine()
		}

		if p.dot >= 456 {
			p.dot = 0
			p.ly++
			if p.ly == 144 {
				if p.req != nil {
					p.req(0)
				}
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				}
			} else if p.ly > 153 {
				p.ly = 0
				p.winLineCounter = -1
			}
			p.updateLYC()
			if p.ly >= 144 {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0:
		if (p.stat & (1 << 3)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 2:
		if (p.stat & (1 << 5)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat & (1 << 6)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// captureLine snapshots the registers a scanline renders with at the moment
// mode 3 begins, and advances the window line counter when the window is
// actually visible on this line.
func (p *PPU) captureLine() {
	if int(p.ly) >= 144 {
		return
	}
	windowOn := p.lcdc&0x20 != 0
	visible := windowOn && p.ly >= p.wy && p.wx <= 166
	lr := LineRegs{
		LY: p.ly, SCX: p.scx, SCY: p.scy, WX: p.wx, WY: p.wy, LCDC: p.lcdc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WindowVisible: visible,
	}
	if visible {
		p.winLineCounter++
		lr.WinLine = byte(p.winLineCounter)
	}
	p.lineRegs[p.ly] = lr
}

// LineRegs returns the captured register snapshot for scanline y (only
// meaningful after mode 3 has begun for that line).
func (p *PPU) LineRegs(y int) LineRegs {
	if y < 0 || y >= 144 {
		return LineRegs{}
	}
	return p.lineRegs[y]
}

// renderLine composites BG, window, and sprites for the just-finished
// scanline into the framebuffer, run once per line at the mode3->mode0
// transition (real hardware produces pixels progressively during mode 3;
// this module renders the whole line at once, which is observationally
// equivalent for a CPU that cannot read framebuffer contents mid-line).
func (p *PPU) renderLine() {
	lr := p.lineRegs[p.ly]
	vram := ppuVRAM{p}

	var bgci [160]byte
	if lr.LCDC&0x01 != 0 {
		mapBase := uint16(0x9800)
		if lr.LCDC&0x08 != 0 {
			mapBase = 0x9C00
		}
		tileData8000 := lr.LCDC&0x10 != 0
		bgci = renderBGScanline(vram, mapBase, tileData8000, lr.SCX, lr.SCY, lr.LY)
	}

	if lr.WindowVisible {
		winMapBase := uint16(0x9800)
		if lr.LCDC&0x40 != 0 {
			winMapBase = 0x9C00
		}
		tileData8000 := lr.LCDC&0x10 != 0
		wxStart := int(lr.WX) - 7
		winci := renderWindowScanline(vram, winMapBase, tileData8000, wxStart, lr.WinLine)
		for x := wxStart; x < 160; x++ {
			if x < 0 {
				continue
			}
			bgci[x] = winci[x]
		}
	}

	bgPal := Palette(lr.BGP)
	row := &p.fb[p.ly]
	for x := 0; x < 160; x++ {
		row[x] = bgPal.Shade(bgci[x])
	}

	if lr.LCDC&0x02 != 0 {
		tallSprites := lr.LCDC&0x04 != 0
		sprites := scanSprites(&p.oam, p.ly, tallSprites)
		if len(sprites) > 0 {
			sci, spal := composeSpriteLine(vram, sprites, p.ly, bgci, tallSprites)
			obp0, obp1 := Palette(lr.OBP0), Palette(lr.OBP1)
			for x := 0; x < 160; x++ {
				if sci[x] == 0 {
					continue
				}
				if spal[x] == 0 {
					row[x] = obp0.Shade(sci[x])
				} else {
					row[x] = obp1.Shade(sci[x])
				}
			}
		}
	}
}

// Expose palettes and scroll for renderer convenience.
func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }

type ppuState struct {
	VRAM                        [0x2000]byte
	OAM                         [0xA0]byte
	LCDC, STAT, SCY, SCX        byte
	LY, LYC, BGP, OBP0, OBP1    byte
	WY, WX                      byte
	Dot                         int
	WinLineCounter              int
}

// SaveState serializes PPU register and memory state (the framebuffer and
// per-line capture cache are transient render output, not saved).
func (p *PPU) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(ppuState{
		VRAM: p.vram, OAM: p.oam,
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx,
		LY: p.ly, LYC: p.lyc, BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		WY: p.wy, WX: p.wx, Dot: p.dot, WinLineCounter: p.winLineCounter,
	})
	return buf.Bytes()
}

func (p *PPU) LoadState(data []byte) {
	var s ppuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	p.vram, p.oam = s.VRAM, s.OAM
	p.lcdc, p.stat, p.scy, p.scx = s.LCDC, s.STAT, s.SCY, s.SCX
	p.ly, p.lyc, p.bgp, p.obp0, p.obp1 = s.LY, s.LYC, s.BGP, s.OBP0, s.OBP1
	p.wy, p.wx, p.dot, p.winLineCounter = s.WY, s.WX, s.Dot, s.WinLineCounter
}
