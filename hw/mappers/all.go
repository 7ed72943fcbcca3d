package mappers

import (
	"fmt"

	"action52/emu/log"
	"action52/hw"
	"action52/hw/snapshot"
	"action52/ines"
)

var modMapper = log.NewModule("mapper")

// Mapper is a cartridge board plugged into the CPU and PPU buses.
type Mapper interface {
	Name() string

	// Banks returns the current bank layout.
	Banks() Banks

	// Reset is called on console reset.
	Reset()

	State() snapshot.Mapper
	SetState(snapshot.Mapper) error

	// Close unplugs the cartridge and releases its resources. The mapper
	// can't be used afterwards.
	Close()
}

// Load creates the mapper for rom and plugs it into the cpu and ppu buses.
func Load(rom *ines.Rom, cpu *hw.CPU, ppu *hw.PPU) (Mapper, error) {
	desc, ok := All[rom.Mapper()]
	if !ok {
		return nil, fmt.Errorf("unsupported mapper %d", rom.Mapper())
	}
	base, err := newbase(desc, rom, cpu, ppu)
	if err != nil {
		return nil, fmt.Errorf("mapper initialization failed: %w", err)
	}
	m, err := desc.Load(base)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapper %s: %w", desc.Name, err)
	}

	modMapper.InfoZ("cartridge loaded").
		String("mapper", desc.Name).
		Uint16("num", desc.Num).
		Int("prgsize", len(base.prg)).
		Int("chrsize", len(base.chr)).
		End()
	return m, nil
}

type MapperDesc struct {
	Name string
	Num  uint16
	Load func(*base) (Mapper, error)
}

var All = map[uint16]MapperDesc{
	0:   NROM,
	2:   UxROM,
	3:   CNROM,
	7:   AxROM,
	66:  GxROM,
	228: Action52,
}
