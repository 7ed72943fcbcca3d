package mappers

import (
	"action52/hw/hwio"
	"action52/ines"
)

// Action 52 multicart (iNES mapper 228), also used by Cheetahmen II.
//
// Action 52 has a non-power-of-two PRG-ROM: three 512KB PRG chips alongside
// one 512KB CHR chip. The claimed 4-bit RAM at $4020-$4023 isn't present on
// either cartridge and isn't emulated.
var Action52 = MapperDesc{
	Name: "Action 52",
	Num:  228,
	Load: loadAction52,
}

const (
	action52ChipSize = 0x80000
	action52PRGSize  = 3 * action52ChipSize // as found in Action 52 dumps
)

type action52 struct {
	*latch

	// prgrom is the 4-chip PRG-ROM installed in place of the rom one. nil
	// unless the rom has exactly 3 PRG chips.
	prgrom []byte
}

// syncAction52 decodes the latch.
//
//	address                    data
//	---- ---- ---- ----        ---- ----
//	xxMH HPPP PPOx CCCC        xxxx xxcc
//	  || |||| |||  ||||               ||
//	  || |||| |||  ++++---------------++- 8KB CHR bank
//	  || |||| ||+------------------------ PRG mode (0: 32KB, 1: 16KB mirrored)
//	  || |+++-++------------------------- 16KB PRG bank (low bit ignored in 32KB mode)
//	  |+-+------------------------------- PRG chip
//	  +---------------------------------- mirroring (0: vertical, 1: horizontal)
func syncAction52(b banker, addr uint16, data uint8) {
	if hwio.GetBit16(addr, 5) {
		bank := int(addr>>6) & 0x7F
		b.selectPRGPage16KB(0, bank)
		b.selectPRGPage16KB(1, bank)
	} else {
		b.selectPRGPage32KB(int(addr>>7) & 0x3F)
	}
	b.selectCHRROMPage8KB(int((addr<<2)&0x3C) | int(data&0x03))

	// ines.HorzMirroring is 0 and ines.VertMirroring is 1.
	b.setNTMirroring(ines.NTMirroring(hwio.GetBiti16(addr, 13) ^ 1))
}

// patchAction52PRG returns the PRG-ROM as the board decodes it, given the 3
// chips found in dumps, or nil if prg doesn't have that size. The third chip
// of the dump answers to chip select 3. Chip select 2 selects no chip: each
// byte of its 256-byte pages reads as the page number.
func patchAction52PRG(prg []byte) []byte {
	if len(prg) != action52PRGSize {
		return nil
	}

	buf := make([]byte, 4*action52ChipSize)
	copy(buf, prg)
	copy(buf[3*action52ChipSize:], prg[2*action52ChipSize:])

	chip2 := buf[2*action52ChipSize : 3*action52ChipSize]
	for i := range chip2 {
		chip2[i] = byte(i >> 8)
	}
	return buf
}

func loadAction52(b *base) (Mapper, error) {
	m := &action52{}
	if m.prgrom = patchAction52PRG(b.rom.PRGROM); m.prgrom != nil {
		b.setPRG(m.prgrom)
	}
	m.latch = newLatch(b, syncAction52, false)
	return m, nil
}

func (m *action52) Close() {
	m.latch.Close()
	if m.prgrom != nil {
		modMapper.DebugZ("release patched PRGROM").Int("size", len(m.prgrom)).End()
		m.prgrom = nil
	}
}
