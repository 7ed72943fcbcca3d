package hwio

import (
	"fmt"

	"action52/emu/log"
)

// log unmapped accesses (useful for debugging but verbose on NES since many
// games read from open bus)
const logUnmapped = false

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(addr uint16, peek bool) uint8
	Write8(addr uint16, val uint8)
}

// Table is a 16-bit address space. Each address resolves to at most one
// BankIO8; mapping over an already mapped range replaces it.
type Table struct {
	Name string

	// Unmapped, if set, serves accesses to unmapped addresses (open bus).
	Unmapped BankIO8

	table8 []BankIO8
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

// Reset unmaps everything.
func (t *Table) Reset() {
	t.table8 = make([]BankIO8, 0x10000)
}

// MapBank maps a register bank, that is a structure containing multiple Mem or
// Device fields, previously initialized with MustInitRegs. Only fields tagged
// with the given bank number are mapped, each at addr plus its tagged offset.
// See MustInitRegs for the tag syntax.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.VSize-1))
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.Size-1))
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint16, size int, io BankIO8) {
	if size <= 0 || int(addr)+size > len(t.table8) {
		panic(fmt.Errorf("%s: invalid mapping at %04X with size %X", t.Name, addr, size))
	}
	for i := range size {
		t.table8[int(addr)+i] = io
	}
}

func (t *Table) MapDevice(addr uint16, dev *Device) {
	log.ModHwIo.DebugZ("mapping device").
		Hex16("addr", addr).
		Int("size", dev.Size).
		String("dev", dev.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, dev.Size, dev)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", mem.VSize).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, mem.VSize, mem.BankIO8())
}

// MapMemorySlice maps mem over [addr, end]. mem is mirrored when the range is
// bigger than the slice.
func (t *Table) MapMemorySlice(addr, end uint16, mem []uint8, readonly bool) {
	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  mem,
		Flags: flags,
		VSize: int(end-addr) + 1,
	})
}

// Unmap removes any mapping in [begin, end].
func (t *Table) Unmap(begin, end uint16) {
	for i := int(begin); i <= int(end); i++ {
		t.table8[i] = nil
	}
}

// Search returns what is mapped at addr, or nil.
func (t *Table) Search(addr uint16) BankIO8 {
	return t.table8[addr]
}

// Read8 forwards the read to the device mapped at addr. Unmapped reads are
// served by t.Unmapped if set, or return 0.
func (t *Table) Read8(addr uint16, peek bool) uint8 {
	io := t.table8[addr]
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr, peek)
		}
		if logUnmapped && !peek {
			log.ModHwIo.ErrorZ("unmapped Read8").
				String("name", t.Name).
				Hex16("addr", addr).
				End()
		}
		return 0
	}
	return io.Read8(addr, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint16) uint8 {
	return t.Read8(addr, true)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.table8[addr]
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
			return
		}
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.Write8(addr, val)
}

func Write16(b BankIO8, addr uint16, val uint16) {
	b.Write8(addr, uint8(val&0xff))
	b.Write8(addr+1, uint8(val>>8))
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr, false)
	hi := b.Read8(addr+1, false)
	return uint16(hi)<<8 | uint16(lo)
}
