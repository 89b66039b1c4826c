package msgpack

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// Unmarshal decodes exactly one document from data and returns it as:
// nil, bool, int64, uint64 (values above math.MaxInt64 only), float32,
// float64, string, []byte, []any, map[any]any (or *OrderedMap), Ext.
// Trailing bytes after the document are left unconsumed and are not an
// error; Skip reports where the document ends.
func Unmarshal(data []byte, optFns ...UnpackOptionFunc) (any, error) {
	d := decodeState{
		src:  &sliceSource{b: data},
		opts: newUnpackOptions(optFns...),
	}
	return d.value()
}

// byteSource is the "read exactly n bytes" capability the decoder runs on.
// The sync and streaming front ends differ only in how they implement it.
type byteSource interface {
	next(n int) ([]byte, error)
	offset() int
}

type sliceSource struct {
	b   []byte
	off int
}

func (s *sliceSource) next(n int) ([]byte, error) {
	if n > len(s.b)-s.off {
		return nil, &InsufficientDataError{Offset: len(s.b), Need: s.off + n - len(s.b)}
	}
	b := s.b[s.off : s.off+n]
	s.off += n
	return b, nil
}

func (s *sliceSource) offset() int {
	return s.off
}

type readerSource struct {
	r   io.Reader
	off int
}

func (s *readerSource) next(n int) ([]byte, error) {
	b := make([]byte, n)
	nn, err := io.ReadFull(s.r, b)
	s.off += nn
	if err != nil {
		return nil, &InsufficientDataError{Offset: s.off, Need: n - nn}
	}
	return b, nil
}

func (s *readerSource) offset() int {
	return s.off
}

type decodeState struct {
	src  byteSource
	opts *UnpackOptions
}

func (d *decodeState) value() (any, error) {
	b, err := d.src.next(1)
	if err != nil {
		return nil, err
	}
	code := b[0]

	switch {
	case code <= 0x7F:
		return int64(code), nil
	case code < fixArrayPrefix:
		return d.mapValue(int(code & 0x0F))
	case code < fixStrPrefix:
		return d.arrayValue(int(code & 0x0F))
	case code < nilValue:
		return d.stringValue(int(code & 0x1F))
	case code >= negFixIntPrefix:
		return int64(int8(code)), nil
	}

	switch code {
	case nilValue:
		return nil, nil
	case falseValue:
		return false, nil
	case trueValue:
		return true, nil
	case bin8Value, bin16Value, bin32Value:
		n, err := d.readLen(1 << (code - bin8Value))
		if err != nil {
			return nil, err
		}
		return d.binValue(n)
	case ext8Value, ext16Value, ext32Value:
		n, err := d.readLen(1 << (code - ext8Value))
		if err != nil {
			return nil, err
		}
		return d.extValue(n)
	case float32Value:
		b, err := d.src.next(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	case float64Value:
		b, err := d.src.next(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case uint8Value, uint16Value, uint32Value, uint64Value:
		b, err := d.src.next(1 << (code - uint8Value))
		if err != nil {
			return nil, err
		}
		u := readUint(b)
		if u > math.MaxInt64 {
			return u, nil
		}
		return int64(u), nil
	case int8Value, int16Value, int32Value, int64Value:
		b, err := d.src.next(1 << (code - int8Value))
		if err != nil {
			return nil, err
		}
		return readInt(b), nil
	case fixExt1Value, fixExt2Value, fixExt4Value, fixExt8Value, fixExt16Value:
		return d.extValue(1 << (code - fixExt1Value))
	case str8Value, str16Value, str32Value:
		n, err := d.readLen(1 << (code - str8Value))
		if err != nil {
			return nil, err
		}
		return d.stringValue(n)
	case array16Value, array32Value:
		n, err := d.readLen(2 << (code - array16Value))
		if err != nil {
			return nil, err
		}
		return d.arrayValue(n)
	case map16Value, map32Value:
		n, err := d.readLen(2 << (code - map16Value))
		if err != nil {
			return nil, err
		}
		return d.mapValue(n)
	}

	return nil, &ReservedCodeError{Offset: d.src.offset() - 1, Code: code}
}

func (d *decodeState) readLen(width int) (int, error) {
	b, err := d.src.next(width)
	if err != nil {
		return 0, err
	}
	return int(readUint(b)), nil
}

func readUint(b []byte) uint64 {
	switch len(b) {
	case 8:
		return binary.BigEndian.Uint64(b)
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	default:
		return uint64(b[0])
	}
}

func readInt(b []byte) int64 {
	switch len(b) {
	case 8:
		return int64(binary.BigEndian.Uint64(b))
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b)))
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b)))
	default:
		return int64(int8(b[0]))
	}
}

func (d *decodeState) stringValue(n int) (any, error) {
	start := d.src.offset()
	b, err := d.src.next(n)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(b) {
		if !d.opts.AllowInvalidUTF8 {
			return nil, &InvalidStringError{Offset: start}
		}
		return append([]byte(nil), b...), nil
	}
	return string(b), nil
}

func (d *decodeState) binValue(n int) (any, error) {
	b, err := d.src.next(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (d *decodeState) extValue(n int) (any, error) {
	start := d.src.offset()
	b, err := d.src.next(1)
	if err != nil {
		return nil, err
	}
	code := int8(b[0])
	data, err := d.src.next(n)
	if err != nil {
		return nil, err
	}
	if c, ok := lookupExtByCode(code); ok {
		return c.unpack(data, d.opts)
	}
	if code < 0 {
		return nil, &ReservedCodeError{Offset: start, Code: byte(code), Ext: true}
	}
	return Ext{Type: code, Data: append([]byte(nil), data...)}, nil
}

func (d *decodeState) arrayValue(n int) (any, error) {
	l := make([]any, 0, allocLen(n))
	for i := 0; i < n; i++ {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
	return l, nil
}

func (d *decodeState) mapValue(n int) (any, error) {
	if d.opts.OrderedMap {
		m := NewOrderedMap()
		for i := 0; i < n; i++ {
			k, v, err := d.pair(func(k any) bool { return m.Has(k) })
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	}

	m := make(map[any]any, allocLen(n))
	for i := 0; i < n; i++ {
		k, v, err := d.pair(func(k any) bool { _, ok := m[k]; return ok })
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func (d *decodeState) pair(seen func(k any) bool) (any, any, error) {
	start := d.src.offset()
	k, err := d.value()
	if err != nil {
		return nil, nil, err
	}
	if !hashableKey(k) {
		return nil, nil, &UnhashableKeyError{Offset: start, Key: k}
	}
	if seen(k) {
		return nil, nil, &DuplicateKeyError{Offset: start, Key: k}
	}
	v, err := d.value()
	if err != nil {
		return nil, nil, err
	}
	return k, v, nil
}

// hashableKey reports whether a decoded value can be a Go map key. Arrays,
// maps and ext payloads cannot.
func hashableKey(k any) bool {
	switch k.(type) {
	case nil, bool, int64, uint64, float32, float64, string:
		return true
	}
	return false
}

// allocLen caps the capacity hint taken from a length prefix so truncated
// input cannot demand huge allocations up front.
func allocLen(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}
