package emu

import (
	"errors"
	"fmt"

	"action52/emu/log"
	"action52/hw"
	"action52/hw/mappers"
	"action52/hw/snapshot"
	"action52/ines"
)

// NES is a console with a cartridge plugged in.
type NES struct {
	CPU    *hw.CPU
	PPU    *hw.PPU
	Rom    *ines.Rom
	Mapper mappers.Mapper
}

// PowerUp builds the console buses and plugs the cartridge.
func (nes *NES) PowerUp(rom *ines.Rom) error {
	nes.CPU = hw.NewCPU()
	nes.PPU = hw.NewPPU()
	nes.Rom = rom

	m, err := mappers.Load(rom, nes.CPU, nes.PPU)
	if err != nil {
		return err
	}
	nes.Mapper = m

	log.ModEmu.InfoZ("power up").
		String("mapper", m.Name()).
		Hex16("reset", nes.CPU.ResetVectorAddr()).
		End()
	return nil
}

// Reset performs a soft reset.
func (nes *NES) Reset() {
	nes.Mapper.Reset()
	log.ModEmu.InfoZ("reset").Hex16("reset", nes.CPU.ResetVectorAddr()).End()
}

// Write8 performs a CPU write.
func (nes *NES) Write8(addr uint16, val uint8) {
	nes.CPU.Write8(addr, val)
}

// Read8 performs a CPU read.
func (nes *NES) Read8(addr uint16) uint8 {
	return nes.CPU.Read8(addr)
}

// ReadPPU performs a PPU bus read.
func (nes *NES) ReadPPU(addr uint16) uint8 {
	return nes.PPU.Read8(addr)
}

func (nes *NES) SaveState() snapshot.Mapper {
	return nes.Mapper.State()
}

func (nes *NES) LoadState(s snapshot.Mapper) error {
	if err := nes.Mapper.SetState(s); err != nil {
		return fmt.Errorf("failed to restore %s state: %w", nes.Mapper.Name(), err)
	}
	return nil
}

var ErrNoCartridge = errors.New("no cartridge")

// Close unplugs the cartridge. Closing twice returns ErrNoCartridge.
func (nes *NES) Close() error {
	if nes.Mapper == nil {
		return ErrNoCartridge
	}
	nes.Mapper.Close()
	nes.Mapper = nil
	return nil
}
