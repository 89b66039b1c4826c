package msgpack

import (
	"io"

	"github.com/pkg/errors"
)

var ErrKeyPathNotExists = errors.New("key path is not found")

// Get returns the raw bytes of the value addressed by keyPath without
// decoding the whole document. Path elements are map keys or int array
// indices.
func Get(b []byte, keyPath []any) ([]byte, error) {
	if len(keyPath) == 0 {
		return b, nil
	}

	s := &scanner{b: b}
	err := s.scan(0, keyPath)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	if s.found == nil {
		return nil, ErrKeyPathNotExists
	}
	return s.found.read(b), nil
}

// Set splices the value produced by replace into the document at keyPath.
func Set(b []byte, keyPath []any, replace func(current []byte) ([]byte, error)) ([]byte, error) {
	if len(keyPath) == 0 {
		return b, nil
	}

	s := &scanner{b: b}
	err := s.scan(0, keyPath)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	if s.found == nil {
		return nil, ErrKeyPathNotExists
	}

	r, err := replace(s.found.read(b))
	if err != nil {
		return nil, err
	}

	final := make([]byte, 0, len(b)-s.found.n+len(r))
	final = append(final, b[0:s.found.off]...)
	final = append(final, r...)
	final = append(final, b[s.found.next():]...)

	return final, nil
}

// Skip returns the byte length of the first document in b. Documents are
// self-delimiting, so b[n:] starts the next document in a concatenated
// buffer.
func Skip(b []byte) (int, error) {
	s := &scanner{b: b}
	p, err := s.seekValue(0)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, &InsufficientDataError{Offset: len(b), Need: 1}
		}
		return 0, err
	}
	return p.next(), nil
}

type scanner struct {
	b     []byte
	found *seek
}

func (s *scanner) scan(off int, keyPath []any) error {
	n, body, isMap, err := s.containerAt(off)
	if err != nil {
		return err
	}

	cursor := body

	if isMap {
		for i := 0; i < n; i++ {
			kp, err := s.seekValue(cursor)
			if err != nil {
				return err
			}
			vp, err := s.seekValue(kp.next())
			if err != nil {
				return err
			}

			k, err := Unmarshal(kp.read(s.b))
			if err != nil {
				return err
			}

			if keyMatches(k, keyPath[0]) {
				if len(keyPath) == 1 {
					s.found = &vp
					return nil
				}
				return s.scan(vp.off, keyPath[1:])
			}

			cursor = vp.next()
		}
		return nil
	}

	idx, ok := keyPath[0].(int)
	if !ok {
		return nil
	}
	for i := 0; i < n; i++ {
		vp, err := s.seekValue(cursor)
		if err != nil {
			return err
		}
		if i == idx {
			if len(keyPath) == 1 {
				s.found = &vp
				return nil
			}
			return s.scan(vp.off, keyPath[1:])
		}
		cursor = vp.next()
	}
	return nil
}

// seek spans one encoded value, prefix included.
type seek struct {
	off int
	n   int
}

func (s seek) read(b []byte) []byte {
	return b[s.off : s.off+s.n]
}

func (s seek) next() int {
	return s.off + s.n
}

func (s *scanner) seekValue(off int) (seek, error) {
	if err := s.need(off, 1); err != nil {
		return seek{}, err
	}
	code := s.b[off]

	switch {
	case code <= 0x7F || code >= negFixIntPrefix:
		return s.span(off, 1)
	case code < fixArrayPrefix:
		return s.elements(off, 1, 2*int(code&0x0F))
	case code < fixStrPrefix:
		return s.elements(off, 1, int(code&0x0F))
	case code < nilValue:
		return s.span(off, 1+int(code&0x1F))
	}

	switch code {
	case nilValue, falseValue, trueValue:
		return s.span(off, 1)
	case bin8Value, bin16Value, bin32Value:
		w := 1 << (code - bin8Value)
		l, err := s.lenAt(off+1, w)
		if err != nil {
			return seek{}, err
		}
		return s.span(off, 1+w+l)
	case str8Value, str16Value, str32Value:
		w := 1 << (code - str8Value)
		l, err := s.lenAt(off+1, w)
		if err != nil {
			return seek{}, err
		}
		return s.span(off, 1+w+l)
	case ext8Value, ext16Value, ext32Value:
		w := 1 << (code - ext8Value)
		l, err := s.lenAt(off+1, w)
		if err != nil {
			return seek{}, err
		}
		return s.span(off, 1+w+1+l)
	case fixExt1Value, fixExt2Value, fixExt4Value, fixExt8Value, fixExt16Value:
		return s.span(off, 2+(1<<(code-fixExt1Value)))
	case float32Value:
		return s.span(off, 1+4)
	case float64Value:
		return s.span(off, 1+8)
	case uint8Value, uint16Value, uint32Value, uint64Value:
		return s.span(off, 1+(1<<(code-uint8Value)))
	case int8Value, int16Value, int32Value, int64Value:
		return s.span(off, 1+(1<<(code-int8Value)))
	case array16Value, array32Value:
		w := 2 << (code - array16Value)
		l, err := s.lenAt(off+1, w)
		if err != nil {
			return seek{}, err
		}
		return s.elements(off, 1+w, l)
	case map16Value, map32Value:
		w := 2 << (code - map16Value)
		l, err := s.lenAt(off+1, w)
		if err != nil {
			return seek{}, err
		}
		return s.elements(off, 1+w, 2*l)
	}

	return seek{}, &ReservedCodeError{Offset: off, Code: code}
}

func (s *scanner) containerAt(off int) (n int, body int, isMap bool, err error) {
	if err := s.need(off, 1); err != nil {
		return 0, 0, false, err
	}
	code := s.b[off]

	switch {
	case code >= fixMapPrefix && code < fixArrayPrefix:
		return int(code & 0x0F), off + 1, true, nil
	case code >= fixArrayPrefix && code < fixStrPrefix:
		return int(code & 0x0F), off + 1, false, nil
	}

	switch code {
	case map16Value, map32Value:
		w := 2 << (code - map16Value)
		l, err := s.lenAt(off+1, w)
		if err != nil {
			return 0, 0, false, err
		}
		return l, off + 1 + w, true, nil
	case array16Value, array32Value:
		w := 2 << (code - array16Value)
		l, err := s.lenAt(off+1, w)
		if err != nil {
			return 0, 0, false, err
		}
		return l, off + 1 + w, false, nil
	}

	return 0, 0, false, errors.Errorf("value at offset %d is not a map or array", off)
}

func (s *scanner) elements(off, hdr, count int) (seek, error) {
	cursor := off + hdr
	for i := 0; i < count; i++ {
		p, err := s.seekValue(cursor)
		if err != nil {
			return seek{}, err
		}
		cursor = p.next()
	}
	return s.span(off, cursor-off)
}

func (s *scanner) span(off, n int) (seek, error) {
	if err := s.need(off, n); err != nil {
		return seek{}, err
	}
	return seek{off: off, n: n}, nil
}

func (s *scanner) need(off, n int) error {
	if off+n > len(s.b) {
		return io.EOF
	}
	return nil
}

func (s *scanner) lenAt(off, w int) (int, error) {
	if err := s.need(off, w); err != nil {
		return 0, err
	}
	return int(readUint(s.b[off : off+w])), nil
}

func keyMatches(k any, want any) bool {
	switch w := want.(type) {
	case string:
		v, ok := k.(string)
		return ok && v == w
	case bool:
		v, ok := k.(bool)
		return ok && v == w
	case int:
		return intKeyMatches(k, int64(w))
	case int8:
		return intKeyMatches(k, int64(w))
	case int16:
		return intKeyMatches(k, int64(w))
	case int32:
		return intKeyMatches(k, int64(w))
	case int64:
		return intKeyMatches(k, w)
	case uint:
		return uintKeyMatches(k, uint64(w))
	case uint8:
		return uintKeyMatches(k, uint64(w))
	case uint16:
		return uintKeyMatches(k, uint64(w))
	case uint32:
		return uintKeyMatches(k, uint64(w))
	case uint64:
		return uintKeyMatches(k, w)
	default:
		return k == want
	}
}

func intKeyMatches(k any, w int64) bool {
	switch v := k.(type) {
	case int64:
		return v == w
	case uint64:
		return w >= 0 && v == uint64(w)
	}
	return false
}

func uintKeyMatches(k any, w uint64) bool {
	switch v := k.(type) {
	case int64:
		return v >= 0 && uint64(v) == w
	case uint64:
		return v == w
	}
	return false
}
