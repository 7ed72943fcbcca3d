package hw

import (
	"action52/emu/log"
	"action52/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// CPU is the CPU address space as seen by a cartridge: 2KB of internal RAM
// at $0000-$1FFF, and $4020-$FFFF left to the cartridge.
type CPU struct {
	Bus *hwio.Table

	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000"`

	// last value seen on the data bus, returned by unmapped reads.
	openbus uint8
}

// NewCPU creates a new CPU bus at power-up state.
func NewCPU() *CPU {
	cpu := &CPU{Bus: hwio.NewTable("cpu")}
	hwio.MustInitRegs(cpu)
	// CPU internal RAM, mirrored.
	cpu.Bus.MapBank(0x0000, cpu, 0)
	cpu.Bus.Unmapped = &cpuOpenBus{cpu: cpu}
	return cpu
}

func (c *CPU) Read8(addr uint16) uint8 {
	c.openbus = c.Bus.Read8(addr, false)
	return c.openbus
}

func (c *CPU) Peek8(addr uint16) uint8 {
	return c.Bus.Peek8(addr)
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.openbus = val
	c.Bus.Write8(addr, val)
}

// ResetVectorAddr returns the address the CPU jumps to after reset, as seen
// through the current cartridge mapping.
func (c *CPU) ResetVectorAddr() uint16 {
	return hwio.Read16(peeker{c.Bus}, ResetVector)
}

type cpuOpenBus struct{ cpu *CPU }

func (ob *cpuOpenBus) Read8(addr uint16, peek bool) uint8 {
	if !peek {
		log.ModCPU.DebugZ("open bus read").
			Hex16("addr", addr).
			Hex8("val", ob.cpu.openbus).
			End()
	}
	return ob.cpu.openbus
}

func (ob *cpuOpenBus) Write8(addr uint16, val uint8) {
	log.ModCPU.DebugZ("unmapped write").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
}

// peeker turns reads into side-effect free peeks.
type peeker struct{ *hwio.Table }

func (p peeker) Read8(addr uint16, _ bool) uint8 { return p.Table.Read8(addr, true) }
