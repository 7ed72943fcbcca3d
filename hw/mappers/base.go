package mappers

import (
	"fmt"

	"action52/hw"
	"action52/hw/hwio"
	"action52/hw/snapshot"
	"action52/ines"
)

const (
	prgPageSize = 0x4000
	chrPageSize = 0x2000
)

// Banks describes which ROM banks are currently mapped.
type Banks struct {
	PRG       [2]int // 16KB PRG-ROM page mapped at $8000 and $C000
	CHR       int    // 8KB CHR page mapped at PPU $0000
	Mirroring ines.NTMirroring
}

type base struct {
	desc MapperDesc

	rom *ines.Rom
	cpu *hw.CPU
	ppu *hw.PPU

	// PRG-ROM as seen by the CPU. Usually rom.PRGROM, but boards may
	// install their own (see setPRG).
	prg []byte

	// CHR-ROM, or 8KB of CHR-RAM when the cartridge has no CHR-ROM.
	chr    []byte
	chrram bool

	PRGRAM hwio.Mem `hwio:"offset=0x6000,vsize=0x2000"`

	// prgwrite, if set, handles CPU writes to $8000-$FFFF.
	prgwrite func(addr uint16, val uint8)

	banks  Banks
	closed bool
}

func newbase(desc MapperDesc, rom *ines.Rom, cpu *hw.CPU, ppu *hw.PPU) (*base, error) {
	if len(rom.PRGROM) == 0 || len(rom.PRGROM)%prgPageSize != 0 {
		return nil, fmt.Errorf("PRGROM size must be a non-zero multiple of 16KB, got %d", len(rom.PRGROM))
	}
	if len(rom.CHRROM)%chrPageSize != 0 {
		return nil, fmt.Errorf("CHRROM size must be a multiple of 8KB, got %d", len(rom.CHRROM))
	}
	if rom.Mirroring() == ines.FourScreen {
		return nil, fmt.Errorf("four-screen mirroring is not supported")
	}

	b := &base{
		desc: desc,
		rom:  rom,
		cpu:  cpu,
		ppu:  ppu,
		prg:  rom.PRGROM,
		chr:  rom.CHRROM,
	}
	if len(b.chr) == 0 {
		b.chr = make([]byte, chrPageSize)
		b.chrram = true
	}

	if sz := rom.PRGRAMSize(); sz > 0 {
		b.PRGRAM.Data = make([]byte, min(ceilpow2(sz), 0x2000))
		hwio.MustInitRegs(b)
		cpu.Bus.MapBank(0x0000, b, 0)
	}
	return b, nil
}

func ceilpow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// wrapBank returns bank modulo n. Negative banks count from the end.
func wrapBank(bank, n int) int {
	bank %= n
	if bank < 0 {
		bank += n
	}
	return bank
}

func (b *base) Name() string { return b.desc.Name }

func (b *base) Banks() Banks { return b.banks }

func (b *base) Reset() {}

func (b *base) State() snapshot.Mapper {
	s := snapshot.Mapper{
		Version: snapshot.Version,
		Mapper:  b.desc.Num,
	}
	if b.PRGRAM.Data != nil {
		s.PRGRAM = append([]byte(nil), b.PRGRAM.Data...)
	}
	if b.chrram {
		s.CHRRAM = append([]byte(nil), b.chr...)
	}
	return s
}

func (b *base) SetState(s snapshot.Mapper) error {
	if s.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version %d (want %d)", s.Version, snapshot.Version)
	}
	if s.Mapper != b.desc.Num {
		return fmt.Errorf("snapshot is for mapper %d, cartridge uses mapper %d", s.Mapper, b.desc.Num)
	}
	if len(s.PRGRAM) != len(b.PRGRAM.Data) {
		return fmt.Errorf("snapshot has %d bytes of PRG-RAM, cartridge has %d", len(s.PRGRAM), len(b.PRGRAM.Data))
	}
	if b.chrram && len(s.CHRRAM) != len(b.chr) {
		return fmt.Errorf("snapshot has %d bytes of CHR-RAM, cartridge has %d", len(s.CHRRAM), len(b.chr))
	}
	copy(b.PRGRAM.Data, s.PRGRAM)
	if b.chrram {
		copy(b.chr, s.CHRRAM)
	}
	return nil
}

// Close unmaps all cartridge areas from the CPU and PPU buses.
func (b *base) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.prgwrite = nil
	b.cpu.Bus.Unmap(0x4020, 0xFFFF)
	b.ppu.Bus.Unmap(0x0000, 0x3EFF)
	b.prg = nil

	modMapper.InfoZ("cartridge unloaded").String("mapper", b.desc.Name).End()
}

// init sets the handler for CPU writes to $8000-$FFFF. It must be called
// before any PRG-ROM page is selected.
func (b *base) init(prgwrite func(addr uint16, val uint8)) {
	b.prgwrite = prgwrite
}

// setPRG replaces the PRG-ROM seen by the CPU. Pages must be selected again
// afterwards.
func (b *base) setPRG(prg []byte) {
	modMapper.DebugZ("PRGROM replaced").
		String("mapper", b.desc.Name).
		Int("prev", len(b.prg)).
		Int("new", len(prg)).
		End()
	b.prg = prg
}

// selectPRGPage16KB maps the given 16KB PRG-ROM bank in slot 0 ($8000-$BFFF)
// or slot 1 ($C000-$FFFF). The bank number wraps around the PRG-ROM size,
// negative numbers count from the end (-1 is the last bank).
func (b *base) selectPRGPage16KB(slot, bank int) {
	bank = wrapBank(bank, len(b.prg)/prgPageSize)
	addr := 0x8000 + uint16(slot&1)*prgPageSize
	off := bank * prgPageSize
	b.cpu.Bus.MapMem(addr, &hwio.Mem{
		Name:    "PRGROM",
		Data:    b.prg[off : off+prgPageSize],
		VSize:   prgPageSize,
		Flags:   hwio.MemFlag8ReadOnly,
		WriteCb: b.prgwrite,
	})

	if prev := b.banks.PRG[slot&1]; prev != bank {
		modMapper.DebugZ("PRGROM bank switch").
			String("mapper", b.desc.Name).
			Hex16("addr", addr).
			Int("prev", prev).
			Int("new", bank).
			End()
	}
	b.banks.PRG[slot&1] = bank
}

// selectPRGPage32KB maps the given 32KB PRG-ROM bank at $8000-$FFFF. A 16KB
// PRG-ROM is mirrored.
func (b *base) selectPRGPage32KB(bank int) {
	if len(b.prg) < 2*prgPageSize {
		b.selectPRGPage16KB(0, 0)
		b.selectPRGPage16KB(1, 0)
		return
	}
	bank = wrapBank(bank, len(b.prg)/(2*prgPageSize))
	b.selectPRGPage16KB(0, bank*2)
	b.selectPRGPage16KB(1, bank*2+1)
}

// selectCHRROMPage8KB maps the given 8KB CHR bank at PPU $0000-$1FFF.
func (b *base) selectCHRROMPage8KB(bank int) {
	bank = wrapBank(bank, len(b.chr)/chrPageSize)
	off := bank * chrPageSize
	b.ppu.Bus.MapMemorySlice(0x0000, 0x1FFF, b.chr[off:off+chrPageSize], !b.chrram)

	if prev := b.banks.CHR; prev != bank {
		modMapper.DebugZ("CHRROM bank switch").
			String("mapper", b.desc.Name).
			Int("prev", prev).
			Int("new", bank).
			End()
	}
	b.banks.CHR = bank
}

func (b *base) setNTMirroring(m ines.NTMirroring) {
	A := b.ppu.Nametables[:0x400]
	B := b.ppu.Nametables[0x400:0x800]

	var nt1, nt2, nt3, nt4 []byte

	switch m {
	case ines.HorzMirroring:
		nt1, nt2 = A, A
		nt3, nt4 = B, B
	case ines.VertMirroring:
		nt1, nt2 = A, B
		nt3, nt4 = A, B
	case ines.OnlyAScreen:
		nt1, nt2 = A, A
		nt3, nt4 = A, A
	case ines.OnlyBScreen:
		nt1, nt2 = B, B
		nt3, nt4 = B, B
	default:
		panic(fmt.Sprintf("unsupported mirroring %s", m))
	}

	// Map nametables
	b.ppu.Bus.MapMemorySlice(0x2000, 0x23FF, nt1, false)
	b.ppu.Bus.MapMemorySlice(0x2400, 0x27FF, nt2, false)
	b.ppu.Bus.MapMemorySlice(0x2800, 0x2BFF, nt3, false)
	b.ppu.Bus.MapMemorySlice(0x2C00, 0x2FFF, nt4, false)

	// Mirrors
	b.ppu.Bus.MapMemorySlice(0x3000, 0x33FF, nt1, false)
	b.ppu.Bus.MapMemorySlice(0x3400, 0x37FF, nt2, false)
	b.ppu.Bus.MapMemorySlice(0x3800, 0x3BFF, nt3, false)
	b.ppu.Bus.MapMemorySlice(0x3C00, 0x3EFF, nt4, false)

	if b.banks.Mirroring != m {
		modMapper.DebugZ("select NT mirroring").
			String("mapper", b.desc.Name).
			Stringer("prev", b.banks.Mirroring).
			Stringer("new", m).
			End()
	}
	b.banks.Mirroring = m
}
