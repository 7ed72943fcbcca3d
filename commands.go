package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"action52/emu"
	"action52/emu/log"
	"action52/hw/mappers"
	"action52/hw/snapshot"
	"action52/ines"
)

func romInfos(w io.Writer, args RomInfos, json bool) error {
	rom, err := ines.ReadRom(args.RomPath)
	if err != nil {
		return err
	}
	if !json {
		rom.PrintInfos(w)
		return nil
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.SetIdent(2)
	encodeRomInfos(e, rom)
	return writeJSON(w, e)
}

func encodeRomInfos(e *jx.Encoder, rom *ines.Rom) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("nes20", func(e *jx.Encoder) { e.Bool(rom.IsNES20()) })
		e.Field("mapper", func(e *jx.Encoder) { e.UInt16(rom.Mapper()) })
		e.Field("submapper", func(e *jx.Encoder) { e.UInt8(rom.SubMapper()) })
		if desc, ok := mappers.All[rom.Mapper()]; ok {
			e.Field("board", func(e *jx.Encoder) { e.Str(desc.Name) })
		}
		e.Field("mirroring", func(e *jx.Encoder) { e.Str(rom.Mirroring().String()) })
		e.Field("prgrom", func(e *jx.Encoder) { e.Int(len(rom.PRGROM)) })
		e.Field("chrrom", func(e *jx.Encoder) { e.Int(len(rom.CHRROM)) })
		e.Field("prgram", func(e *jx.Encoder) { e.Int(rom.PRGRAMSize()) })
		e.Field("persistent", func(e *jx.Encoder) { e.Bool(rom.HasPersistent()) })
		e.Field("trainer", func(e *jx.Encoder) { e.Bool(rom.HasTrainer()) })
	})
}

// mapBanks powers up the cartridge, restores its state if asked to, performs
// the CPU writes in order and shows the resulting bank layout.
func mapBanks(w io.Writer, args Map, json bool) error {
	rom, err := ines.ReadRom(args.RomPath)
	if err != nil {
		return err
	}

	nes := &emu.NES{}
	if err := nes.PowerUp(rom); err != nil {
		return fmt.Errorf("power up: %w", err)
	}
	defer nes.Close()

	if args.State != "" {
		if err := loadState(nes, args.State); err != nil {
			return err
		}
	}
	for _, wr := range args.Writes {
		nes.Write8(wr.addr, wr.val)
	}

	state := nes.SaveState()
	if args.Save != "" {
		buf, err := state.MarshalJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args.Save, buf, 0644); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}
	}

	banks := nes.Mapper.Banks()
	reset := nes.CPU.ResetVectorAddr()
	if !json {
		printBanks(w, nes.Mapper.Name(), rom.Mapper(), banks, reset)
		return nil
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.Field("board", func(e *jx.Encoder) { e.Str(nes.Mapper.Name()) })
		e.Field("mapper", func(e *jx.Encoder) { e.UInt16(rom.Mapper()) })
		e.Field("prg", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Int(banks.PRG[0])
				e.Int(banks.PRG[1])
			})
		})
		e.Field("chr", func(e *jx.Encoder) { e.Int(banks.CHR) })
		e.Field("mirroring", func(e *jx.Encoder) { e.Str(banks.Mirroring.String()) })
		e.Field("reset", func(e *jx.Encoder) { e.UInt16(reset) })
		e.Field("state", state.Encode)
	})
	return writeJSON(w, e)
}

func loadState(nes *emu.NES, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var s snapshot.Mapper
	if err := s.UnmarshalJSON(buf); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nes.LoadState(s)
}

func printBanks(w io.Writer, board string, num uint16, banks mappers.Banks, reset uint16) {
	fmt.Fprintf(w, "board:       %s (mapper %d)\n", board, num)
	fmt.Fprintf(w, "PRG $8000:   bank %d\n", banks.PRG[0])
	fmt.Fprintf(w, "PRG $C000:   bank %d\n", banks.PRG[1])
	fmt.Fprintf(w, "CHR $0000:   bank %d\n", banks.CHR)
	fmt.Fprintf(w, "mirroring:   %s\n", banks.Mirroring)
	fmt.Fprintf(w, "reset:       $%04X\n", reset)
}

func writeJSON(w io.Writer, e *jx.Encoder) error {
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}

type checkResult struct {
	board string
	reset uint16
	err   error
}

// checkRoms loads all roms concurrently and reports, in the order they were
// given, either the board and reset vector or the load error.
func checkRoms(w io.Writer, args Check) error {
	results := make([]checkResult, len(args.RomPaths))

	jobs := args.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range args.RomPaths {
		g.Go(func() error {
			results[i] = checkRom(path)
			return nil
		})
	}
	g.Wait()

	nfailed := 0
	for i, res := range results {
		if res.err != nil {
			nfailed++
			fmt.Fprintf(w, "FAIL  %s: %v\n", args.RomPaths[i], res.err)
			continue
		}
		fmt.Fprintf(w, "ok    %s: %s reset=$%04X\n", args.RomPaths[i], res.board, res.reset)
	}
	if nfailed != 0 {
		return fmt.Errorf("%d out of %d roms failed to load", nfailed, len(results))
	}
	return nil
}

func checkRom(path string) checkResult {
	rom, err := ines.ReadRom(path)
	if err != nil {
		log.ModCart.WithField("rom", path).Infof("cannot read rom: %v", err)
		return checkResult{err: err}
	}

	nes := &emu.NES{}
	if err := nes.PowerUp(rom); err != nil {
		log.ModCart.WithField("rom", path).
			WithField("mapper", rom.Mapper()).
			Infof("power up failed: %v", err)
		return checkResult{err: err}
	}
	defer nes.Close()

	return checkResult{
		board: nes.Mapper.Name(),
		reset: nes.CPU.ResetVectorAddr(),
	}
}
