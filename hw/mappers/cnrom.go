package mappers

var CNROM = MapperDesc{
	Name: "CNROM",
	Num:  3,
	Load: loadCNROM,
}

func syncCNROM(b banker, _ uint16, data uint8) {
	// 7  bit  0
	// ---- ----
	// cccc ccCC
	// |||| ||||
	// ++++-++++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	// CNROM only uses lowest 2 bits
	b.selectCHRROMPage8KB(int(data & 0x03))
}

func loadCNROM(b *base) (Mapper, error) {
	b.setNTMirroring(b.rom.Mirroring())
	l := newLatch(b, syncCNROM, b.rom.SubMapper() == 2)
	b.selectPRGPage32KB(0)
	return l, nil
}
