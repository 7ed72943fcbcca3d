package mappers

var NROM = MapperDesc{
	Name: "NROM",
	Num:  0,
	Load: loadNROM,
}

type nrom struct {
	*base
}

func loadNROM(b *base) (Mapper, error) {
	// CPU mapping. A 16KB PRGROM is mirrored at $C000.
	b.selectPRGPage32KB(0)

	// PPU mapping.
	b.setNTMirroring(b.rom.Mirroring())
	b.selectCHRROMPage8KB(0)
	return &nrom{base: b}, nil
}
