package mappers

import (
	"testing"

	"action52/hw"
	"action52/ines"
)

type romOpts struct {
	mapper    uint16
	submapper uint8
	prg       int  // number of 16KB PRG-ROM banks
	chr       int  // number of 8KB CHR-ROM banks
	flags6    byte // low nibble of header byte 6 (mirroring, battery, trainer, four-screen)
	nes20     bool
	prgram    byte // NES 2.0 header byte 10 (PRG-NVRAM and PRG-RAM shifts)
}

// prgByte is the content of the test PRG-ROMs, unique enough to tell banks
// and offsets apart.
func prgByte(i int) byte { return byte(i>>14) ^ byte(i*31) }

func chrByte(i int) byte { return byte(i>>13) + byte(i>>4) }

func buildROM(tb testing.TB, o romOpts) *ines.Rom {
	tb.Helper()

	hdr := [16]byte{'N', 'E', 'S', 0x1a}
	hdr[4] = byte(o.prg)
	hdr[5] = byte(o.chr)
	hdr[6] = byte(o.mapper&0x0F)<<4 | o.flags6&0x0F
	hdr[7] = byte(o.mapper & 0xF0)
	if o.nes20 || o.submapper != 0 {
		hdr[7] |= 0x08 // NES 2.0
		hdr[8] = o.submapper<<4 | byte(o.mapper>>8)&0x0F
		hdr[10] = o.prgram
	}

	buf := append([]byte(nil), hdr[:]...)
	for i := range o.prg * 0x4000 {
		buf = append(buf, prgByte(i))
	}
	for i := range o.chr * 0x2000 {
		buf = append(buf, chrByte(i))
	}

	rom, err := ines.Decode(buf)
	if err != nil {
		tb.Fatal(err)
	}
	return rom
}

type cart struct {
	tb  testing.TB
	rom *ines.Rom
	cpu *hw.CPU
	ppu *hw.PPU
	m   Mapper
}

func loadCart(tb testing.TB, o romOpts) *cart {
	tb.Helper()

	c := &cart{
		tb:  tb,
		rom: buildROM(tb, o),
		cpu: hw.NewCPU(),
		ppu: hw.NewPPU(),
	}
	m, err := Load(c.rom, c.cpu, c.ppu)
	if err != nil {
		tb.Fatal(err)
	}
	c.m = m
	return c
}

// wantPRG checks that the 16KB window at addr shows prg[off:off+16KB].
func (c *cart) wantPRG(addr uint16, prg []byte, off int) {
	c.tb.Helper()

	for _, i := range []int{0, 1, 0x123, 0x2000, 0x3FFF} {
		got := c.cpu.Peek8(addr + uint16(i))
		if want := prg[off+i]; got != want {
			c.tb.Errorf("Peek8(%04X) = %02X, want %02X (PRG offset %06X)", addr+uint16(i), got, want, off+i)
			return
		}
	}
}

// wantCHR checks that PPU $0000-$1FFF shows CHR bank.
func (c *cart) wantCHR(bank int) {
	c.tb.Helper()

	for _, i := range []int{0, 0x10, 0x1FFF} {
		got := c.ppu.Read8(uint16(i))
		if want := chrByte(bank*0x2000 + i); got != want {
			c.tb.Errorf("PPU Read8(%04X) = %02X, want %02X (CHR bank %d)", i, got, want, bank)
			return
		}
	}
}

// wantMirroring checks nametables layout through the PPU bus.
func (c *cart) wantMirroring(m ines.NTMirroring) {
	c.tb.Helper()

	// Write a distinct value in each logical nametable, in order, so that
	// later writes overwrite earlier ones sharing the same physical table.
	for i, addr := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		c.ppu.Write8(addr, uint8(i+1))
	}

	var want [4]uint8
	switch m {
	case ines.HorzMirroring:
		want = [4]uint8{2, 2, 4, 4}
	case ines.VertMirroring:
		want = [4]uint8{3, 4, 3, 4}
	case ines.OnlyAScreen, ines.OnlyBScreen:
		want = [4]uint8{4, 4, 4, 4}
	}

	for i, addr := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		if got := c.ppu.Read8(addr); got != want[i] {
			c.tb.Errorf("%s: PPU Read8(%04X) = %d, want %d", m, addr, got, want[i])
		}
		if got := c.ppu.Read8(addr + 0x1000); got != want[i] {
			c.tb.Errorf("%s: PPU Read8(%04X) = %d, want %d", m, addr+0x1000, got, want[i])
		}
	}

	if got := c.m.Banks().Mirroring; got != m {
		c.tb.Errorf("Banks().Mirroring = %s, want %s", got, m)
	}
}

type call struct {
	Op   string
	Slot int
	Bank int
	NTM  ines.NTMirroring
}

// recorder is a banker recording the calls a sync function makes.
type recorder struct {
	calls []call
}

func (r *recorder) selectPRGPage16KB(slot, bank int) {
	r.calls = append(r.calls, call{Op: "prg16", Slot: slot, Bank: bank})
}

func (r *recorder) selectPRGPage32KB(bank int) {
	r.calls = append(r.calls, call{Op: "prg32", Bank: bank})
}

func (r *recorder) selectCHRROMPage8KB(bank int) {
	r.calls = append(r.calls, call{Op: "chr8", Bank: bank})
}

func (r *recorder) setNTMirroring(m ines.NTMirroring) {
	r.calls = append(r.calls, call{Op: "ntm", NTM: m})
}

func record(sync syncFunc, addr uint16, data uint8) []call {
	var r recorder
	sync(&r, addr, data)
	return r.calls
}
