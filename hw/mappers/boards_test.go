package mappers

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"action52/hw"
	"action52/ines"
)

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		opts romOpts
		want string
	}{
		{"unsupported mapper", romOpts{mapper: 4, prg: 2, chr: 1}, "unsupported mapper 4"},
		{"four screen", romOpts{mapper: 0, prg: 2, chr: 1, flags6: 0x08}, "four-screen"},
		{"no PRG-ROM", romOpts{mapper: 228, prg: 0, chr: 1}, "PRGROM size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom := buildROM(t, tt.opts)
			_, err := Load(rom, hw.NewCPU(), hw.NewPPU())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestNROM(t *testing.T) {
	t.Run("16KB mirrored", func(t *testing.T) {
		c := loadCart(t, romOpts{mapper: 0, prg: 1, chr: 1, flags6: 0x01})
		c.wantPRG(0x8000, c.rom.PRGROM, 0)
		c.wantPRG(0xC000, c.rom.PRGROM, 0)
		c.wantCHR(0)
		c.wantMirroring(ines.VertMirroring)
	})
	t.Run("32KB", func(t *testing.T) {
		c := loadCart(t, romOpts{mapper: 0, prg: 2, chr: 1})
		c.wantPRG(0x8000, c.rom.PRGROM, 0)
		c.wantPRG(0xC000, c.rom.PRGROM, 0x4000)
		c.wantMirroring(ines.HorzMirroring)

		// Writes to ROM are ignored.
		c.cpu.Write8(0x8000, ^c.rom.PRGROM[0])
		c.wantPRG(0x8000, c.rom.PRGROM, 0)
	})
	t.Run("reset vector", func(t *testing.T) {
		c := loadCart(t, romOpts{mapper: 0, prg: 2, chr: 1})
		want := uint16(c.rom.PRGROM[0x7FFD])<<8 | uint16(c.rom.PRGROM[0x7FFC])
		if got := c.cpu.ResetVectorAddr(); got != want {
			t.Errorf("ResetVectorAddr() = %04X, want %04X", got, want)
		}
	})
}

func TestUxROM(t *testing.T) {
	c := loadCart(t, romOpts{mapper: 2, prg: 8, flags6: 0x01})
	prg := c.rom.PRGROM

	c.wantPRG(0x8000, prg, 0)
	c.wantPRG(0xC000, prg, 7*0x4000)

	c.cpu.Write8(0x8000, 5)
	c.wantPRG(0x8000, prg, 5*0x4000)
	c.wantPRG(0xC000, prg, 7*0x4000)

	// Bank number wraps around PRG-ROM size.
	c.cpu.Write8(0xFFFF, 0x0B)
	c.wantPRG(0x8000, prg, 3*0x4000)

	c.wantMirroring(ines.VertMirroring)

	// No CHR-ROM: 8KB of CHR-RAM.
	c.ppu.Write8(0x1234, 0x56)
	if got := c.ppu.Read8(0x1234); got != 0x56 {
		t.Errorf("CHR-RAM Read8(1234) = %02X, want 56", got)
	}
}

func TestUxROMBusConflicts(t *testing.T) {
	c := loadCart(t, romOpts{mapper: 2, submapper: 2, prg: 8})
	prg := c.rom.PRGROM

	// Find a byte in the fixed bank, whose value is then ANDed with the
	// written value.
	addr := uint16(0xC000)
	for prg[7*0x4000+int(addr-0xC000)]&0x07 == 0x07 {
		addr++
	}
	rombyte := prg[7*0x4000+int(addr-0xC000)]

	c.cpu.Write8(addr, 0x07)
	want := int(rombyte & 0x07)
	if got := c.m.Banks().PRG[0]; got != want {
		t.Errorf("PRG bank = %d, want %d (ROM byte %02X)", got, want, rombyte)
	}
}

func TestCNROM(t *testing.T) {
	c := loadCart(t, romOpts{mapper: 3, prg: 2, chr: 4})

	c.wantCHR(0)
	for _, bank := range []uint8{3, 1, 6} {
		c.cpu.Write8(0x8000, bank)
		c.wantCHR(int(bank & 3))
	}
	c.wantPRG(0x8000, c.rom.PRGROM, 0)
	c.wantPRG(0xC000, c.rom.PRGROM, 0x4000)
	c.wantMirroring(ines.HorzMirroring)
}

func TestAxROM(t *testing.T) {
	c := loadCart(t, romOpts{mapper: 7, prg: 16})
	prg := c.rom.PRGROM

	c.wantPRG(0x8000, prg, 0)
	c.wantMirroring(ines.OnlyAScreen)

	c.cpu.Write8(0x8000, 0x13)
	c.wantPRG(0x8000, prg, 3*0x8000)
	c.wantPRG(0xC000, prg, 3*0x8000+0x4000)
	c.wantMirroring(ines.OnlyBScreen)

	// Single screen B uses the second physical nametable.
	c.ppu.Write8(0x2000, 0xAB)
	if got := c.ppu.Nametables[0x400]; got != 0xAB {
		t.Errorf("Nametables[0x400] = %02X, want AB", got)
	}
}

func TestGxROM(t *testing.T) {
	c := loadCart(t, romOpts{mapper: 66, prg: 8, chr: 4, flags6: 0x01})
	prg := c.rom.PRGROM

	c.cpu.Write8(0x8000, 0x32)
	c.wantPRG(0x8000, prg, 3*0x8000)
	c.wantCHR(2)

	want := Banks{PRG: [2]int{6, 7}, CHR: 2, Mirroring: ines.VertMirroring}
	if diff := cmp.Diff(want, c.m.Banks()); diff != "" {
		t.Errorf("Banks() mismatch (-want +got):\n%s", diff)
	}
}

func TestPRGRAM(t *testing.T) {
	tests := []struct {
		name string
		opts romOpts
	}{
		{"iNES battery", romOpts{mapper: 0, prg: 1, chr: 1, flags6: 0x02}},
		{"NES 2.0 PRG-NVRAM", romOpts{mapper: 0, prg: 1, chr: 1, flags6: 0x02, nes20: true, prgram: 0x70}},
		{"NES 2.0 PRG-RAM and PRG-NVRAM", romOpts{mapper: 228, prg: 2, chr: 1, nes20: true, prgram: 0x77}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loadCart(t, tt.opts)

			c.cpu.Write8(0x6000, 0x42)
			c.cpu.Write8(0x7FFF, 0x24)
			if got := c.cpu.Read8(0x6000); got != 0x42 {
				t.Errorf("Read8(6000) = %02X, want 42", got)
			}
			if got := c.cpu.Read8(0x7FFF); got != 0x24 {
				t.Errorf("Read8(7FFF) = %02X, want 24", got)
			}

			s := c.m.State()
			if len(s.PRGRAM) != 0x2000 || s.PRGRAM[0] != 0x42 {
				t.Errorf("State().PRGRAM = %d bytes, want 8KB starting with 42", len(s.PRGRAM))
			}
		})
	}
}
