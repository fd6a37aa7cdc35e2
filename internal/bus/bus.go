// Package bus wires the CPU-visible 16-bit address space to the cartridge,
// WRAM, HRAM, PPU, APU, timer/interrupt controller, and joypad.
package bus

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/reinholt/dmgcore/internal/apu"
	"github.com/reinholt/dmgcore/internal/cart"
	"github.com/reinholt/dmgcore/internal/hwstate"
	"github.com/reinholt/dmgcore/internal/joypad"
	"github.com/reinholt/dmgcore/internal/ppu"
)

// Bus implements the full DMG memory map.
type Bus struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	ppu *ppu.PPU
	apu *apu.APU
	hw  *hwstate.HWState
	joy *joypad.Joypad

	sb byte      // FF01 serial data
	sc byte      // FF02 serial control
	sw io.Writer // optional sink for transferred serial bytes

	dma       byte // FF46
	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	bootROM     []byte
	bootEnabled bool

	debugTimer bool
}

// New constructs a Bus around a parsed cartridge.
func New(c cart.Cartridge) *Bus {
	b := &Bus{cart: c, hw: hwstate.New(), joy: joypad.New()}
	b.ppu = ppu.New(func(bit int) { b.hw.IntFlags |= 1 << bit })
	b.apu = apu.New(44100)
	if os.Getenv("GB_DEBUG_TIMER") != "" {
		b.debugTimer = true
	}
	return b
}

// NewFromROM parses the cartridge header embedded in rom and constructs a
// Bus around the resulting MBC implementation.
func NewFromROM(rom []byte) (*Bus, error) {
	c, err := cart.New(rom)
	if err != nil {
		return nil, err
	}
	return New(c), nil
}

func (b *Bus) PPU() *ppu.PPU          { return b.ppu }
func (b *Bus) APU() *apu.APU          { return b.apu }
func (b *Bus) HW() *hwstate.HWState   { return b.hw }
func (b *Bus) Joypad() *joypad.Joypad { return b.joy }
func (b *Bus) Cart() cart.Cartridge   { return b.cart }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 && len(b.bootROM) >= 0x100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dmaActive {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr == 0xFF00:
		return b.joy.Read()
	case addr == 0xFF04:
		return b.hw.DIV
	case addr == 0xFF05:
		return b.hw.TIMA
	case addr == 0xFF06:
		return b.hw.TMA
	case addr == 0xFF07:
		return 0xF8 | (b.hw.TAC & 0x07)
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.apu.CPURead(addr)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma
	case addr == 0xFF50:
		return 0xFF
	case addr == 0xFF0F:
		return 0xE0 | (b.hw.IntFlags & 0x1F)
	case addr == 0xFFFF:
		return b.hw.IntEnable
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dmaActive {
			return
		}
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF00:
		b.joy.WriteSelect(value)
	case addr == 0xFF04:
		b.hw.ResetDIV()
		if b.debugTimer {
			fmt.Printf("[TMR] DIV write -> reset tima=%02X tma=%02X tac=%02X\n", b.hw.TIMA, b.hw.TMA, b.hw.TAC)
		}
	case addr == 0xFF05:
		b.hw.WriteTIMA(value)
		if b.debugTimer {
			fmt.Printf("[TMR] TIMA write %02X\n", value)
		}
	case addr == 0xFF06:
		b.hw.TMA = value
		if b.debugTimer {
			fmt.Printf("[TMR] TMA write %02X\n", value)
		}
	case addr == 0xFF07:
		b.hw.TAC = value & 0x07
		if b.debugTimer {
			fmt.Printf("[TMR] TAC write %02X\n", b.hw.TAC)
		}
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.sc = value & 0x81
		if b.sc&0x80 != 0 {
			if b.sw != nil {
				_, _ = b.sw.Write([]byte{b.sb})
			}
			b.hw.RequestInterrupt(hwstate.Serial)
			b.sc &^= 0x80
		}
	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.apu.CPUWrite(addr, value)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.dma = value
		b.dmaActive = true
		b.dmaSrc = uint16(value) << 8
		b.dmaIndex = 0
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr == 0xFF0F:
		b.hw.IntFlags = value & 0x1F
	case addr == 0xFFFF:
		b.hw.IntEnable = value & 0x1F
	}
}

// SetJoypadState updates which buttons are held and raises the Joypad
// interrupt on a falling-edge transition of the currently-selected group(s).
func (b *Bus) SetJoypadState(mask byte) {
	if b.joy.SetState(mask) {
		b.hw.RequestInterrupt(hwstate.Joypad)
	}
}

// SetSerialWriter sets a sink that receives bytes written via the serial port.
func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

// SetBootROM loads a DMG boot ROM mapped at 0x0000-0x00FF until 0xFF50 is written.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

// Tick advances the timer/interrupt unit, the PPU, the APU, and OAM DMA by
// the given number of CPU cycles.
func (b *Bus) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	b.hw.Tick(cycles)
	if b.ppu != nil {
		b.ppu.Tick(cycles)
	}
	if b.apu != nil {
		b.apu.Tick(cycles)
	}
	for i := 0; i < cycles && b.dmaActive; i++ {
		if b.dmaIndex < 0xA0 {
			v := b.Read(b.dmaSrc + uint16(b.dmaIndex))
			b.ppu.CPUWrite(0xFE00+uint16(b.dmaIndex), v)
			b.dmaIndex++
		}
		if b.dmaIndex >= 0xA0 {
			b.dmaActive = false
		}
	}
}

type busState struct {
	WRAM      [0x2000]byte
	HRAM      [0x7F]byte
	SB, SC    byte
	DMA       byte
	DMAActive bool
	DMASrc    uint16
	DMAIdx    int
	BootEn    bool
}

// SaveState serializes bus-owned state plus the PPU/HWState/cartridge
// sub-states, each appended as its own gob-encoded blob.
func (b *Bus) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	_ = enc.Encode(busState{
		WRAM: b.wram, HRAM: b.hram, SB: b.sb, SC: b.sc,
		DMA: b.dma, DMAActive: b.dmaActive, DMASrc: b.dmaSrc, DMAIdx: b.dmaIndex,
		BootEn: b.bootEnabled,
	})
	_ = enc.Encode(b.hw.SaveState())
	if b.ppu != nil {
		_ = enc.Encode(b.ppu.SaveState())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	if bb, ok := b.cart.(interface{ SaveState() []byte }); ok {
		_ = enc.Encode(bb.SaveState())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	return buf.Bytes()
}

func (b *Bus) LoadState(data []byte) {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var s busState
	if err := dec.Decode(&s); err != nil {
		return
	}
	b.wram, b.hram = s.WRAM, s.HRAM
	b.sb, b.sc = s.SB, s.SC
	b.dma, b.dmaActive, b.dmaSrc, b.dmaIndex = s.DMA, s.DMAActive, s.DMASrc, s.DMAIdx
	b.bootEnabled = s.BootEn

	hwSnap := b.hw.SaveState()
	if err := dec.Decode(&hwSnap); err == nil {
		b.hw.LoadState(hwSnap)
	}
	var ps []byte
	if err := dec.Decode(&ps); err == nil && b.ppu != nil {
		b.ppu.LoadState(ps)
	}
	var cs []byte
	if err := dec.Decode(&cs); err == nil {
		if bb, ok := b.cart.(interface{ LoadState([]byte) }); ok {
			bb.LoadState(cs)
		}
	}
}
