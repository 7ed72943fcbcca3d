package mappers

var UxROM = MapperDesc{
	Name: "UxROM",
	Num:  2,
	Load: loadUxROM,
}

func syncUxROM(b banker, _ uint16, data uint8) {
	// 7  bit  0
	// ---- ----
	// xxxx pPPP
	//      ||||
	//      ++++- Select 16 KB PRG ROM bank for CPU $8000-$BFFF
	//            (UNROM uses bits 2-0; UOROM uses bits 3-0)
	b.selectPRGPage16KB(0, int(data&0x0F))
}

func loadUxROM(b *base) (Mapper, error) {
	b.setNTMirroring(b.rom.Mirroring())
	b.selectCHRROMPage8KB(0)

	l := newLatch(b, syncUxROM, b.rom.SubMapper() == 2)
	// Last bank is fixed at $C000.
	b.selectPRGPage16KB(1, -1)
	return l, nil
}
