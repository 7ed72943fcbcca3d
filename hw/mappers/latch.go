package mappers

import (
	"fmt"

	"action52/hw/snapshot"
	"action52/ines"
)

// banker is the set of bank-switching primitives a board drives.
type banker interface {
	selectPRGPage16KB(slot, bank int)
	selectPRGPage32KB(bank int)
	selectCHRROMPage8KB(bank int)
	setNTMirroring(m ines.NTMirroring)
}

// syncFunc maps banks according to the latched address and data. It must
// only depend on its arguments, so that calling it twice in a row with the
// same latch gives the same mapping.
type syncFunc func(b banker, addr uint16, data uint8)

// latch is the write latch found on many discrete logic boards: every CPU
// write to $8000-$FFFF captures both the address and the data bus, and the
// board decodes its bank configuration from them.
type latch struct {
	*base

	addr uint16
	data uint8

	sync         syncFunc
	busConflicts bool
}

// newLatch plugs a latch in b, and puts it at power-up state.
func newLatch(b *base, sync syncFunc, busConflicts bool) *latch {
	l := &latch{
		base:         b,
		sync:         sync,
		busConflicts: busConflicts,
	}
	b.init(l.WritePRGROM)
	l.power()
	return l
}

func (l *latch) power() {
	l.addr, l.data = 0, 0
	l.sync(l.base, l.addr, l.data)
}

func (l *latch) WritePRGROM(addr uint16, val uint8) {
	if l.busConflicts {
		// The ROM drives the data bus at the same time as the CPU.
		val &= l.cpu.Bus.Peek8(addr)
	}

	l.addr, l.data = addr, val
	modMapper.DebugZ("latch write").
		String("mapper", l.desc.Name).
		Hex16("addr", addr).
		Hex8("val", val).
		End()

	l.sync(l.base, l.addr, l.data)
}

func (l *latch) Reset() {
	l.power()
}

func (l *latch) State() snapshot.Mapper {
	s := l.base.State()
	s.Latch = &snapshot.Latch{Addr: l.addr, Data: l.data}
	return s
}

func (l *latch) SetState(s snapshot.Mapper) error {
	if s.Latch == nil {
		return fmt.Errorf("snapshot has no latch state")
	}
	if err := l.base.SetState(s); err != nil {
		return err
	}
	l.addr, l.data = s.Latch.Addr, s.Latch.Data
	l.sync(l.base, l.addr, l.data)
	return nil
}

func (l *latch) Close() {
	l.base.Close()
	l.sync = nil
}
