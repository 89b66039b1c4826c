package msgpackext

import (
	"sort"

	"github.com/octohelm/msgpack/pkg/msgpack"
	"github.com/pkg/errors"
)

// Set is an unordered collection of hashable values. It travels as ext
// 0x51 wrapping an encoded array of the elements, sorted by encoded bytes
// so packing stays deterministic.
type Set map[any]struct{}

func NewSet(elems ...any) Set {
	s := make(Set, len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

const SetCode int8 = 0x51

func init() {
	msgpack.RegisterExt(SetCode, Set(nil), packSet, unpackSet)
}

func packSet(v any, o *msgpack.PackOptions) ([]byte, error) {
	s := v.(Set)

	elems := make([][]byte, 0, len(s))
	for e := range s {
		b, err := msgpack.Marshal(e, msgpack.WithFloatPrecision(o.FloatPrecision))
		if err != nil {
			return nil, err
		}
		elems = append(elems, b)
	}
	sort.Slice(elems, func(i, j int) bool { return msgpack.Compare(elems[i], elems[j]) < 0 })

	raws := make([]any, len(elems))
	for i := range elems {
		raws[i] = msgpack.Raw(elems[i])
	}
	return msgpack.Marshal(raws, msgpack.WithFloatPrecision(o.FloatPrecision))
}

func unpackSet(data []byte, o *msgpack.UnpackOptions) (any, error) {
	v, err := msgpack.Unmarshal(data, nestedUnpackOptFns(o)...)
	if err != nil {
		return nil, err
	}
	elems, ok := v.([]any)
	if !ok {
		return nil, errors.Errorf("set ext payload must wrap an array, got %T", v)
	}

	s := make(Set, len(elems))
	for _, e := range elems {
		if !hashable(e) {
			return nil, errors.Errorf("set element %T is not hashable", e)
		}
		s[e] = struct{}{}
	}
	return s, nil
}

func hashable(v any) bool {
	switch v.(type) {
	case nil, bool, int64, uint64, float32, float64, string:
		return true
	}
	return false
}

func nestedUnpackOptFns(o *msgpack.UnpackOptions) []msgpack.UnpackOptionFunc {
	var fns []msgpack.UnpackOptionFunc
	if o.AllowInvalidUTF8 {
		fns = append(fns, msgpack.WithAllowInvalidUTF8())
	}
	if o.OrderedMap {
		fns = append(fns, msgpack.WithOrderedMap())
	}
	return fns
}
