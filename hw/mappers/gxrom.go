package mappers

var GxROM = MapperDesc{
	Name: "GxROM",
	Num:  66,
	Load: loadGxROM,
}

func syncGxROM(b banker, _ uint16, data uint8) {
	// 7  bit  0
	// ---- ----
	// xxPP xxCC
	//   ||   ||
	//   ||   ++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	//   ++------ Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	b.selectCHRROMPage8KB(int(data & 0x03))
	b.selectPRGPage32KB(int(data>>4) & 0x03)
}

func loadGxROM(b *base) (Mapper, error) {
	b.setNTMirroring(b.rom.Mirroring())
	return newLatch(b, syncGxROM, false), nil
}
