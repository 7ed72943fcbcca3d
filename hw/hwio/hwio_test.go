package hwio_test

import (
	"bytes"
	"testing"

	"action52/hw/hwio"
)

// Unmapped
type openbus struct{}

func (ob *openbus) Read8(addr uint16, peek bool) uint8 {
	if peek {
		return 0xD4
	}
	return 0xD3
}
func (ob *openbus) Write8(addr uint16, val uint8) {}

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// mapped to $0000-$07FF, mirrored up to $1FFF
	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000"`

	// $2000-$20FF
	ROM hwio.Mem `hwio:"bank=1,offset=0x0,size=0x100,readonly"`
	// $2100-$21FF
	Latch hwio.Mem `hwio:"bank=1,offset=0x100,size=0x100,readonly,wcb"`

	// $4000-$40FF
	DefaultDev hwio.Device `hwio:"bank=2,offset=0x0,size=0x100"`
	// $4100-$41FF
	DEV hwio.Device `hwio:"bank=2,offset=0x100,size=0x100,rcb,wcb"` // no peek-callback
	// $4200-$42FF
	RoDEV hwio.Device `hwio:"bank=2,offset=0x200,size=0x100,rcb,pcb,readonly"`
	// $4300-$43FF
	WoDEV hwio.Device `hwio:"bank=2,offset=0x300,size=0x100,wcb=WriteOnly,writeonly"` // no peek-callback

	devval    uint8
	latchaddr uint16
	latchval  uint8
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapBank(0x0000, tbl, 0)
	tbl.Bus.MapBank(0x2000, tbl, 1)
	tbl.Bus.MapBank(0x4000, tbl, 2)
	tbl.Bus.Unmapped = &openbus{}
	return tbl
}

// $2100-21FF
func (tbl *testTable) WriteLATCH(addr uint16, val uint8) {
	tbl.latchaddr, tbl.latchval = addr, val
}

// $4100-41FF
func (tbl *testTable) ReadDEV(addr uint16) uint8       { return 0xE1 }
func (tbl *testTable) WriteDEV(addr uint16, val uint8) { tbl.devval = uint8(addr) & val }

// $4200-42FF
func (tbl *testTable) ReadRODEV(addr uint16) uint8 { return 0xC5 }
func (tbl *testTable) PeekRODEV(addr uint16) uint8 { return 0xC8 }

// $4300-43FF
func (tbl *testTable) WriteOnly(addr uint16, val uint8) { tbl.devval = uint8(addr) & ^val }

func (tbl *testTable) wantRead8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Read8(addr, false); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) Write8(addr uint16, val uint8) {
	tbl.Bus.Write8(addr, val)
}

func (tbl *testTable) wantPeek8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Peek8(addr); got != want {
		tbl.t.Errorf("Peek8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMem(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x00, 0)
	tbl.Write8(0x00, 0x12)
	tbl.wantRead8(0x00, 0x12)
	tbl.wantRead8(0x800, 0x12)
	tbl.wantRead8(0x1800, 0x12)
	tbl.Write8(0x1FFF, 0x34)
	tbl.wantRead8(0x07FF, 0x34)
}

func TestTableMemReadOnly(t *testing.T) {
	tbl := newTestTable(t)
	tbl.ROM.Data[0x10] = 0x56

	tbl.Write8(0x2010, 0x99)
	tbl.wantRead8(0x2010, 0x56)
	tbl.wantPeek8(0x2010, 0x56)
}

func TestTableMemWriteCallback(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x21AB, 0x42)
	if tbl.latchaddr != 0x21AB || tbl.latchval != 0x42 {
		t.Errorf("latch = (%04X, %02X), want (21AB, 42)", tbl.latchaddr, tbl.latchval)
	}
	// The callback replaces the store.
	tbl.wantRead8(0x21AB, 0x00)
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)
	tbl.wantRead8(0x2220, 0xd3)
	tbl.wantPeek8(0x2220, 0xd4)

	tbl.Bus.Unmapped = nil
	tbl.wantRead8(0x2220, 0x00)
	tbl.Write8(0x2220, 0xff)
}

func TestTableMapMemorySlice(t *testing.T) {
	tbl := newTestTable(t)

	rom := bytes.Repeat([]byte("\x12\x34"), 0x100)
	tbl.Bus.MapMemorySlice(0x3000, 0x31FF, rom, true)

	tbl.wantRead8(0x3000, 0x12)
	tbl.wantRead8(0x3001, 0x34)
	tbl.wantRead8(0x31FF, 0x34)
	tbl.wantRead8(0x3200, 0xd3) // unmapped

	tbl.Write8(0x3000, 0xff)
	tbl.wantRead8(0x3000, 0x12)
}

func TestTableRemap(t *testing.T) {
	tbl := newTestTable(t)

	a := bytes.Repeat([]byte{0xAA}, 0x4000)
	b := bytes.Repeat([]byte{0xBB}, 0x4000)
	tbl.Bus.MapMemorySlice(0x8000, 0xFFFF, a, true)
	tbl.wantRead8(0xC000, 0xAA)
	tbl.Bus.MapMemorySlice(0xC000, 0xFFFF, b, true)
	tbl.wantRead8(0xBFFF, 0xAA)
	tbl.wantRead8(0xC000, 0xBB)
	tbl.wantRead8(0xFFFF, 0xBB)
}

func TestTableMapDevice(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x4000, 0xff)
	tbl.wantRead8(0x4000, 0x00)
	tbl.wantPeek8(0x4000, 0x00)

	tbl.wantRead8(0x4100, 0xe1)
	tbl.wantPeek8(0x4100, 0x00)
	tbl.Write8(0x4120, 0x27)
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead8(0x4200, 0xc5)
	tbl.wantPeek8(0x4200, 0xc8)
	tbl.Write8(0x4200, 0xff) // readonly
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead8(0x4300, 0x00) // writeonly
	tbl.wantPeek8(0x4300, 0x00) // writeonly
	tbl.Write8(0x4355, 0x0f)
	if tbl.devval != 0x50 {
		t.Errorf("devval = %02X, want 0x50", tbl.devval)
	}
}

func TestUnmapBank(t *testing.T) {
	t.Run("hwio.Mem", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Write8(0x40, 0x12)
		tbl.Bus.UnmapBank(0x0000, tbl, 0)
		tbl.wantRead8(0x40, 0xd3)   // openbus
		tbl.wantPeek8(0x1FFF, 0xd4) // openbus
	})
	t.Run("hwio.Device", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.wantRead8(0x417F, 0xE1)
		tbl.Bus.UnmapBank(0x4000, tbl, 2)
		tbl.wantRead8(0x417F, 0xd3) // openbus
		tbl.wantPeek8(0x43FF, 0xd4) // openbus
	})
}

func TestUnmap(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Write8(0x40, 0x12)
		tbl.wantRead8(0x40, 0x12)
		tbl.Bus.Unmap(0x0000, 0x003F)
		tbl.wantRead8(0x00, 0xd3) // openbus
		tbl.wantRead8(0x40, 0x12)
	})
	t.Run("full", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x0000, 0x1FFF)
		tbl.wantRead8(0x1FFF, 0xd3)
		tbl.wantRead8(0x2000, 0x00)
	})
	t.Run("multiple", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x4001, 0x42FF) // unmap 3 devices
		tbl.wantRead8(0x4002, 0xD3)   // openbus
		tbl.wantPeek8(0x4103, 0xD4)
		tbl.wantRead8(0x4204, 0xD3)
		tbl.wantRead8(0x4300, 0x00) // writeonly, still mapped
	})
	t.Run("end of address space", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.MapMemorySlice(0xF000, 0xFFFF, make([]byte, 0x1000), false)
		tbl.Bus.Unmap(0xF000, 0xFFFF)
		tbl.wantRead8(0xFFFF, 0xD3)
	})
}

func TestInitRegsErrors(t *testing.T) {
	tests := []struct {
		name string
		data any
	}{
		{"not a pointer", struct{}{}},
		{"unknown option", &struct {
			M hwio.Mem `hwio:"offset=0,size=0x10,bogus"`
		}{}},
		{"bad number", &struct {
			M hwio.Mem `hwio:"offset=zz,size=0x10"`
		}{}},
		{"missing method", &struct {
			D hwio.Device `hwio:"offset=0,size=0x10,rcb"`
		}{}},
		{"unsupported type", &struct {
			X uint8 `hwio:"offset=0"`
		}{}},
		{"readonly and writeonly", &struct {
			D hwio.Device `hwio:"offset=0,size=0x10,readonly,writeonly"`
		}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := hwio.InitRegs(tt.data); err == nil {
				t.Errorf("InitRegs() succeeded, want error")
			}
		})
	}
}

func TestBitops(t *testing.T) {
	if !hwio.GetBit16(0x2000, 13) {
		t.Errorf("GetBit16(0x2000, 13) = false")
	}
	if hwio.GetBiti16(0xDFFF, 13) != 0 {
		t.Errorf("GetBiti16(0xDFFF, 13) != 0")
	}
	if !hwio.GetBit8(0x10, 4) || hwio.GetBiti8(0xEF, 4) != 0 {
		t.Errorf("GetBit8/GetBiti8 mismatch on bit 4")
	}
}
