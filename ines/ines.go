// Package ines implements a reader for roms in the iNES file format (and its
// NES 2.0 extension), used for the distribution of NES binary programs.
package ines

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

type Rom struct {
	header
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	PRGROM  []byte // PRGROM is PRG ROM data (length is multiple of 16k)
	CHRROM  []byte // CHRROM is CHR ROM data (length is multiple of 8k)
}

// ReadRom loads a rom from file.
func ReadRom(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// Decode decodes a rom from an in-memory image.
func Decode(buf []byte) (*Rom, error) {
	rom := new(Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	// header
	var off int
	if err := rom.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}
	off += 16

	// trainer
	if rom.HasTrainer() {
		if len(buf) < off+512 {
			return 0, fmt.Errorf("incomplete TRAINER section")
		}
		rom.Trainer = buf[off : off+512]
		off += 512
	}

	// PRG rom data
	if len(buf) < off+rom.prgsz {
		return 0, fmt.Errorf("incomplete PRG section: want %d bytes, got %d", rom.prgsz, len(buf)-off)
	}
	rom.PRGROM = buf[off : off+rom.prgsz]
	off += rom.prgsz

	// CHR rom data
	if len(buf) < off+rom.chrsz {
		return 0, fmt.Errorf("incomplete CHR section: want %d bytes, got %d", rom.chrsz, len(buf)-off)
	}
	rom.CHRROM = buf[off : off+rom.chrsz]

	return int64(len(buf)), nil
}

const Magic = "NES\x1a"

func (hdr *header) decode(p []byte) error {
	if len(p) < 16 {
		return fmt.Errorf("too small, needs 16 bytes")
	}
	if string(p[:4]) != Magic {
		return fmt.Errorf("invalid magic number")
	}
	copy(hdr.raw[:], p[:16])

	prg := int(hdr.raw[4])
	chr := int(hdr.raw[5])
	if hdr.IsNES20() {
		// NES 2.0 byte 9 holds the MSB nibbles of the bank counts.
		// Exponent-multiplier notation (nibble 0xF) isn't supported.
		if hdr.raw[9]&0x0F == 0x0F || hdr.raw[9]&0xF0 == 0xF0 {
			return fmt.Errorf("exponent-multiplier rom size notation is not supported")
		}
		prg |= int(hdr.raw[9]&0x0F) << 8
		chr |= int(hdr.raw[9]&0xF0) << 4
	}
	hdr.prgsz = prg * 16384
	hdr.chrsz = chr * 8192
	return nil
}

type header struct {
	raw   [16]byte
	prgsz int
	chrsz int
}

// IsNES20 reports whether the header follows the NES 2.0 format.
func (hdr *header) IsNES20() bool {
	return hdr.raw[7]&0x0C == 0x08
}

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// HasPersistent indicates the presence of persistent memory in the rom.
func (hdr *header) HasPersistent() bool {
	return hdr.raw[6]&0x02 != 0
}

// Mapper returns the mapper number, on 12 bits for NES 2.0 roms and 8 bits
// otherwise.
func (hdr *header) Mapper() uint16 {
	m := uint16(hdr.raw[6]>>4) | uint16(hdr.raw[7]&0xF0)
	if hdr.IsNES20() {
		m |= uint16(hdr.raw[8]&0x0F) << 8
	}
	return m
}

// SubMapper returns the submapper number (NES 2.0 only, 0 otherwise).
func (hdr *header) SubMapper() uint8 {
	if !hdr.IsNES20() {
		return 0
	}
	return hdr.raw[8] >> 4
}

// Mirroring returns the nametable mirroring hardwired on the board.
func (hdr *header) Mirroring() NTMirroring {
	switch {
	case hdr.raw[6]&0x08 != 0:
		return FourScreen
	case hdr.raw[6]&0x01 != 0:
		return VertMirroring
	}
	return HorzMirroring
}

// PRGRAMSize returns the size of the PRG-RAM in bytes, battery-backed
// PRG-NVRAM included.
func (hdr *header) PRGRAMSize() int {
	if hdr.IsNES20() {
		// Byte 10: low nibble is the volatile PRG-RAM shift, high nibble
		// the PRG-NVRAM shift.
		return shiftSize(hdr.raw[10]&0x0F) + shiftSize(hdr.raw[10]>>4)
	}
	if n := int(hdr.raw[8]); n != 0 {
		return n * 8192
	}
	if hdr.HasPersistent() {
		// iNES 1.0 value 0 infers 8KB for compatibility.
		return 8192
	}
	return 0
}

func shiftSize(shift uint8) int {
	if shift == 0 {
		return 0
	}
	return 64 << shift
}

// PrintInfos writes a human-readable summary of the rom header to w.
func (rom *Rom) PrintInfos(w io.Writer) {
	format := "iNES"
	if rom.IsNES20() {
		format = "NES 2.0"
	}
	fmt.Fprintf(w, "format:      %s\n", format)
	fmt.Fprintf(w, "mapper:      %d (submapper %d)\n", rom.Mapper(), rom.SubMapper())
	fmt.Fprintf(w, "mirroring:   %s\n", rom.Mirroring())
	fmt.Fprintf(w, "PRG-ROM:     %d KiB (%d x 16KiB)\n", len(rom.PRGROM)/1024, len(rom.PRGROM)/16384)
	fmt.Fprintf(w, "CHR-ROM:     %d KiB (%d x 8KiB)\n", len(rom.CHRROM)/1024, len(rom.CHRROM)/8192)
	fmt.Fprintf(w, "PRG-RAM:     %d KiB\n", rom.PRGRAMSize()/1024)
	fmt.Fprintf(w, "persistent:  %t\n", rom.HasPersistent())
	fmt.Fprintf(w, "trainer:     %t\n", rom.HasTrainer())
}
