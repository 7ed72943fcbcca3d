package hw

import (
	"action52/emu/log"
	"action52/hw/hwio"
)

// PPU is the PPU address space as seen by a cartridge. Pattern tables
// ($0000-$1FFF) and nametables ($2000-$3EFF) are mapped by the cartridge, the
// PPU owns the 2KB nametable RAM (CIRAM) and the palette.
type PPU struct {
	Bus *hwio.Table // PPU bus

	// 2KB of nametable RAM, the cartridge decides how the 4 logical
	// nametables map onto it.
	Nametables []byte

	// $3F00-$3F1F	$0020	Palette RAM indexes
	// $3F20-$3FFF	$00E0	Mirrors of $3F00-$3F1F
	Palettes hwio.Device `hwio:"offset=0x3F00,size=0x100,rcb,pcb=ReadPALETTES,wcb"`
	palette  [0x20]uint8
}

func NewPPU() *PPU {
	ppu := &PPU{
		Bus:        hwio.NewTable("ppu"),
		Nametables: make([]byte, 0x800),
	}
	hwio.MustInitRegs(ppu)
	ppu.Bus.MapBank(0x0000, ppu, 0)
	return ppu
}

// $3F10/$3F14/$3F18/$3F1C are mirrors of $3F00/$3F04/$3F08/$3F0C.
func paletteIndex(addr uint16) uint16 {
	addr &= 0x1F
	if addr&0x13 == 0x10 {
		addr &^= 0x10
	}
	return addr
}

func (p *PPU) ReadPALETTES(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) WritePALETTES(addr uint16, val uint8) {
	idx := paletteIndex(addr)
	log.ModPPU.DebugZ("palette write").
		Hex16("addr", addr).
		Hex8("idx", uint8(idx)).
		Hex8("val", val).
		End()
	p.palette[idx] = val & 0x3F
}

func (p *PPU) Read8(addr uint16) uint8 {
	return p.Bus.Read8(addr&0x3FFF, false)
}

func (p *PPU) Write8(addr uint16, val uint8) {
	p.Bus.Write8(addr&0x3FFF, val)
}
