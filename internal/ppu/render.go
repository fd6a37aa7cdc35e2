package ppu

// VRAMReader provides read-only access for the pixel fetcher and sprite
// compositor. It abstracts how VRAM bytes are fetched (tests vs. the live
// PPU's own mode-gated access).
type VRAMReader interface {
	Read(addr uint16) byte
}

// fifo is a ring buffer of 2-bit color indices (0..3) deep enough to hold
// a full tile row plus slack while the next row is fetched.
type fifo struct {
	buf  [32]byte
	head int
	tail int
	size int
}

func (q *fifo) Clear()   { q.head, q.tail, q.size = 0, 0, 0 }
func (q *fifo) Len() int { return q.size }

func (q *fifo) Push(ci byte) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[q.tail] = ci & 0x03
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	return true
}

func (q *fifo) Pop() (byte, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// tileFetcher pulls one 8-pixel tile row into a fifo. It's reconfigured and
// re-run once per tile as a scanline renderer walks across the map.
type tileFetcher struct {
	mem           VRAMReader
	fifo          *fifo
	tileData8000  bool   // true: 0x8000 addressing; false: 0x8800 signed
	tileIndexAddr uint16 // tile index address within the tilemap
	fineY         byte   // 0..7 row within the tile
}

func newTileFetcher(mem VRAMReader, f *fifo) *tileFetcher { return &tileFetcher{mem: mem, fifo: f} }

// configure points the fetcher at a new tile ahead of fetch.
func (fch *tileFetcher) configure(tileData8000 bool, tileIndexAddr uint16, fineY byte) {
	fch.tileData8000 = tileData8000
	fch.tileIndexAddr = tileIndexAddr
	fch.fineY = fineY & 7
}

// fetch pushes 8 pixels (color indices) for the current tile row to the fifo.
func (fch *tileFetcher) fetch() {
	tileNum := fch.mem.Read(fch.tileIndexAddr)
	var base uint16
	if fch.tileData8000 {
		base = 0x8000 + uint16(tileNum)*16 + uint16(fch.fineY)*2
	} else {
		base = 0x9000 + uint16(int8(tileNum))*16 + uint16(fch.fineY)*2
	}
	lo := fch.mem.Read(base)
	hi := fch.mem.Read(base + 1)
	for px := 0; px < 8; px++ {
		bit := 7 - byte(px)
		ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
		_ = fch.fifo.Push(ci)
	}
}

// mapScanner walks a tilemap row left to right, refilling the fifo with a
// new tile's pixels whenever it runs dry. Both BG and window scanlines are
// just a mapScanner started at a different tile/fine-scroll origin.
type mapScanner struct {
	mapBase uint16
	tileX   uint16 // 0..31, current tile column within the map row
	mapY    uint16 // 0..31, map row
	q       fifo
	f       *tileFetcher
}

func newMapScanner(mem VRAMReader, mapBase uint16, tileData8000 bool, tileX, mapY uint16, fineY byte) *mapScanner {
	s := &mapScanner{mapBase: mapBase, tileX: tileX, mapY: mapY}
	s.f = newTileFetcher(mem, &s.q)
	s.f.configure(tileData8000, mapBase+mapY*32+tileX, fineY)
	s.f.fetch()
	return s
}

// next pops the next pixel, refetching the following tile when the fifo
// runs dry (wrapping at the tilemap's 32-tile row width).
func (s *mapScanner) next(tileData8000 bool, fineY byte) byte {
	if s.q.Len() == 0 {
		s.tileX = (s.tileX + 1) & 31
		s.f.configure(tileData8000, s.mapBase+s.mapY*32+s.tileX, fineY)
		s.f.fetch()
	}
	px, _ := s.q.Pop()
	return px
}

// renderBGScanline renders 160 BG pixels for scanline ly: scx/scy select
// the tilemap origin, mapBase is 0x9800 or 0x9C00, and tileData8000 selects
// unsigned (0x8000) vs signed (0x8800) tile-data addressing.
func renderBGScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, scx, scy, ly byte) [160]byte {
	var out [160]byte

	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31
	startX := uint16(scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	s := newMapScanner(mem, mapBase, tileData8000, tileX, mapY, fineY)
	for i := 0; i < fineX; i++ { // discard scx's fractional pixels
		_, _ = s.q.Pop()
	}
	for x := 0; x < 160; x++ {
		out[x] = s.next(tileData8000, fineY)
	}
	return out
}

// renderWindowScanline renders the window layer for a scanline, filling
// pixels from wxStart (WX-7) onward using winLine as the window's own
// internal line counter. Pixels before wxStart are left 0 so callers can
// blend the result over the BG line.
func renderWindowScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, wxStart int, winLine byte) [160]byte {
	var out [160]byte
	if wxStart >= 160 {
		return out
	}
	if wxStart < 0 {
		wxStart = 0
	}
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7

	s := newMapScanner(mem, mapBase, tileData8000, 0, mapY, fineY)
	for x := wxStart; x < 160; x++ {
		out[x] = s.next(tileData8000, fineY)
	}
	return out
}
