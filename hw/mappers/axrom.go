package mappers

import (
	"action52/hw/hwio"
	"action52/ines"
)

var AxROM = MapperDesc{
	Name: "AxROM",
	Num:  7,
	Load: loadAxROM,
}

func syncAxROM(b banker, _ uint16, data uint8) {
	// 7  bit  0
	// ---- ----
	// xxxM xPPP
	//    |  |||
	//    |  +++- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	//    +------ Select 1 KB VRAM page for all 4 nametables
	b.selectPRGPage32KB(int(data & 0x07))
	if hwio.GetBit8(data, 4) {
		b.setNTMirroring(ines.OnlyBScreen)
	} else {
		b.setNTMirroring(ines.OnlyAScreen)
	}
}

func loadAxROM(b *base) (Mapper, error) {
	b.selectCHRROMPage8KB(0)
	return newLatch(b, syncAxROM, b.rom.SubMapper() == 2), nil
}
