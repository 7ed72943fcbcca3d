package snapshot

import (
	"fmt"

	"github.com/go-faster/jx"
)

// Version of the snapshot format.
const Version = 1

// Mapper is the state of a cartridge board.
type Mapper struct {
	Version int
	Mapper  uint16
	Latch   *Latch // nil on boards without a write latch
	PRGRAM  []byte
	CHRRAM  []byte
}

// Latch is the last address and data written to a latch board.
type Latch struct {
	Addr uint16
	Data uint8
}

// Encode encodes s as a JSON object.
func (s *Mapper) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Int(s.Version) })
		e.Field("mapper", func(e *jx.Encoder) { e.UInt16(s.Mapper) })
		if s.Latch != nil {
			e.Field("latch", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("addr", func(e *jx.Encoder) { e.UInt16(s.Latch.Addr) })
					e.Field("data", func(e *jx.Encoder) { e.UInt8(s.Latch.Data) })
				})
			})
		}
		if s.PRGRAM != nil {
			e.Field("prgram", func(e *jx.Encoder) { e.Base64(s.PRGRAM) })
		}
		if s.CHRRAM != nil {
			e.Field("chrram", func(e *jx.Encoder) { e.Base64(s.CHRRAM) })
		}
	})
}

// Decode decodes s from a JSON object. Unknown fields are ignored.
func (s *Mapper) Decode(d *jx.Decoder) error {
	*s = Mapper{}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			s.Version, err = d.Int()
		case "mapper":
			s.Mapper, err = decodeUint[uint16](d)
		case "latch":
			s.Latch = new(Latch)
			err = s.Latch.decode(d)
		case "prgram":
			s.PRGRAM, err = d.Base64()
		case "chrram":
			s.CHRRAM, err = d.Base64()
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
}

func (l *Latch) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "addr":
			l.Addr, err = decodeUint[uint16](d)
		case "data":
			l.Data, err = decodeUint[uint8](d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
}

// decodeUint decodes an unsigned integer, rejecting values that don't fit in
// T (jx silently wraps them).
func decodeUint[T uint8 | uint16](d *jx.Decoder) (T, error) {
	n, err := d.Int()
	if err != nil {
		return 0, err
	}
	if n < 0 || uint64(n) > uint64(^T(0)) {
		return 0, fmt.Errorf("value %d out of range [0, %d]", n, ^T(0))
	}
	return T(n), nil
}

func (s Mapper) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

func (s *Mapper) UnmarshalJSON(data []byte) error {
	return s.Decode(jx.DecodeBytes(data))
}
