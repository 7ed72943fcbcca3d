package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	regPtr any
	offset uint16
}

type regTag struct {
	bank      int
	offset    uint16
	hasOffset bool
	size      int
	vsize     int
	readonly  bool
	writeonly bool

	// callback method names, empty when unset.
	rcb, wcb, pcb string
}

func parseRegTag(field, tag string) (regTag, error) {
	var rt regTag
	for _, opt := range strings.Split(tag, ",") {
		key, val, hasval := strings.Cut(strings.TrimSpace(opt), "=")

		num := func() (uint64, error) {
			if !hasval {
				return 0, fmt.Errorf("%s: option %q needs a value", field, key)
			}
			n, err := strconv.ParseUint(val, 0, 32)
			if err != nil {
				return 0, fmt.Errorf("%s: option %q: %w", field, key, err)
			}
			return n, nil
		}
		cb := func(prefix string) string {
			if hasval {
				return val
			}
			return prefix + strings.ToUpper(field)
		}

		switch key {
		case "":
		case "bank":
			n, err := num()
			if err != nil {
				return rt, err
			}
			rt.bank = int(n)
		case "offset":
			n, err := num()
			if err != nil {
				return rt, err
			}
			if n > 0xFFFF {
				return rt, fmt.Errorf("%s: offset %#x out of range", field, n)
			}
			rt.offset, rt.hasOffset = uint16(n), true
		case "size":
			n, err := num()
			if err != nil {
				return rt, err
			}
			rt.size = int(n)
		case "vsize":
			n, err := num()
			if err != nil {
				return rt, err
			}
			rt.vsize = int(n)
		case "readonly":
			rt.readonly = true
		case "writeonly":
			rt.writeonly = true
		case "rcb":
			rt.rcb = cb("Read")
		case "wcb":
			rt.wcb = cb("Write")
		case "pcb":
			rt.pcb = cb("Peek")
		default:
			return rt, fmt.Errorf("%s: unknown hwio option %q", field, key)
		}
	}
	if rt.readonly && rt.writeonly {
		return rt, fmt.Errorf("%s: readonly and writeonly are exclusive", field)
	}
	return rt, nil
}

var (
	memType    = reflect.TypeFor[Mem]()
	deviceType = reflect.TypeFor[Device]()
)

func structOf(data any) (reflect.Value, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("hwio: expected a pointer to struct")
	}
	return v, nil
}

func method[T any](ptr reflect.Value, name string) (T, error) {
	var zero T
	m := ptr.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("hwio: missing method %s on %s", name, ptr.Type())
	}
	f, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("hwio: method %s has signature %s, want %s", name, m.Type(), reflect.TypeFor[T]())
	}
	return f, nil
}

// InitRegs initializes all Mem and Device fields of the structure pointed to
// by data, according to their "hwio" struct tag. Recognized options:
//
//	bank=N          bank number, used by Table.MapBank (default 0).
//	offset=0x12     offset within the bank. Fields without offset are
//	                initialized but ignored by MapBank.
//	size=0x800      Mem: allocate a buffer of that size. Device: range size.
//	vsize=0x2000    Mem: mapped size, mirroring the buffer (default size).
//	readonly        writes are rejected (and logged).
//	writeonly       Device only: reads are rejected (and logged).
//	rcb[=Method]    Device: read callback, defaults to Read<FIELD>.
//	pcb[=Method]    Device: peek callback, defaults to Peek<FIELD>.
//	wcb[=Method]    write callback, defaults to Write<FIELD>.
func InitRegs(data any) error {
	ptr, err := structOf(data)
	if err != nil {
		return err
	}
	v := ptr.Elem()
	typ := v.Type()

	for i := range typ.NumField() {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseRegTag(sf.Name, tag)
		if err != nil {
			return err
		}

		switch sf.Type {
		case memType:
			m := v.Field(i).Addr().Interface().(*Mem)
			if m.Name == "" {
				m.Name = sf.Name
			}
			if rt.size > 0 {
				m.Data = make([]byte, rt.size)
			}
			m.VSize = rt.vsize
			if m.VSize == 0 {
				m.VSize = len(m.Data)
			}
			if rt.readonly {
				m.Flags |= MemFlag8ReadOnly
			}
			if rt.writeonly || rt.rcb != "" || rt.pcb != "" {
				return fmt.Errorf("hwio: %s: Mem only supports readonly and wcb", sf.Name)
			}
			if rt.wcb != "" {
				if m.WriteCb, err = method[func(uint16, uint8)](ptr, rt.wcb); err != nil {
					return err
				}
			}

		case deviceType:
			d := v.Field(i).Addr().Interface().(*Device)
			if d.Name == "" {
				d.Name = sf.Name
			}
			d.Size = rt.size
			switch {
			case rt.readonly:
				d.Flags = ReadOnlyFlag
			case rt.writeonly:
				d.Flags = WriteOnlyFlag
			}
			if rt.rcb != "" {
				if d.ReadCb, err = method[func(uint16) uint8](ptr, rt.rcb); err != nil {
					return err
				}
			}
			if rt.pcb != "" {
				if d.PeekCb, err = method[func(uint16) uint8](ptr, rt.pcb); err != nil {
					return err
				}
			}
			if rt.wcb != "" {
				if d.WriteCb, err = method[func(uint16, uint8)](ptr, rt.wcb); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("hwio: %s: unsupported field type %s", sf.Name, sf.Type)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	ptr, err := structOf(bank)
	if err != nil {
		return nil, err
	}
	v := ptr.Elem()
	typ := v.Type()

	var regs []bankReg
	for i := range typ.NumField() {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseRegTag(sf.Name, tag)
		if err != nil {
			return nil, err
		}
		if !rt.hasOffset || rt.bank != bankNum {
			continue
		}
		regs = append(regs, bankReg{
			regPtr: v.Field(i).Addr().Interface(),
			offset: rt.offset,
		})
	}
	return regs, nil
}
