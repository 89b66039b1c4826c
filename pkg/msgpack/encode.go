package msgpack

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"
	"sort"
	"sync"
)

// Marshal encodes v as a single MessagePack document. Integer and length
// families always use the narrowest encoding that holds the value.
func Marshal(v any, optFns ...PackOptionFunc) ([]byte, error) {
	e := newEncodeState()
	e.opts = newPackOptions(optFns...)
	err := e.marshal(v)
	if err != nil {
		return nil, err
	}
	buf := append([]byte(nil), e.Bytes()...)
	encodeStatePool.Put(e)
	return buf, nil
}

var encodeStatePool sync.Pool

func newEncodeState() *encodeState {
	if v := encodeStatePool.Get(); v != nil {
		e := v.(*encodeState)
		e.Reset()
		return e
	}
	return &encodeState{}
}

type encodeState struct {
	bytes.Buffer
	opts *PackOptions
}

func (e *encodeState) marshal(v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if je, ok := r.(error); ok {
				err = je
			} else {
				panic(r)
			}
		}
	}()
	e.marshalValue(v)
	return nil
}

func (e *encodeState) marshalValue(v any) {
	if v == nil {
		_ = e.WriteByte(nilValue)
		return
	}
	e.reflectValue(reflect.ValueOf(v))
}

func (e *encodeState) reflectValue(v reflect.Value) {
	valueEncoder(v)(e, v)
}

type encoderFunc func(e *encodeState, v reflect.Value)

func valueEncoder(v reflect.Value) encoderFunc {
	if !v.IsValid() {
		return invalidValueEncoder
	}
	return typeEncoder(v.Type())
}

var encoderCache sync.Map // map[reflect.Type]encoderFunc

func typeEncoder(t reflect.Type) encoderFunc {
	if fi, ok := encoderCache.Load(t); ok {
		return fi.(encoderFunc)
	}

	// To deal with recursive types, populate the map with an
	// indirect func before we build it. This type waits on the
	// real func (f) to be ready and then calls it. This indirect
	// func is only used for recursive types.
	var (
		wg sync.WaitGroup
		f  encoderFunc
	)

	wg.Add(1)

	fi, loaded := encoderCache.LoadOrStore(t, encoderFunc(func(e *encodeState, v reflect.Value) {
		wg.Wait()
		f(e, v)
	}))

	if loaded {
		return fi.(encoderFunc)
	}

	// Compute the real encoder and replace the indirect func with it.
	f = newTypeEncoder(t)

	wg.Done()
	encoderCache.Store(t, f)
	return f
}

var (
	rawType        = reflect.TypeOf(Raw(nil))
	extType        = reflect.TypeOf(Ext{})
	orderedMapType = reflect.TypeOf(&OrderedMap{})
)

func newTypeEncoder(t reflect.Type) encoderFunc {
	// Registered extensions take precedence over native families.
	if c, ok := lookupExtByType(t); ok {
		return extEncoder{c: c}.encode
	}

	switch t {
	case rawType:
		return rawEncoder
	case extType:
		return extValueEncoder
	case orderedMapType:
		return orderedMapEncoder
	}

	switch t.Kind() {
	case reflect.Bool:
		return boolEncoder
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intEncoder
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintEncoder
	case reflect.Float32:
		return float32Encoder
	case reflect.Float64:
		return float64Encoder
	case reflect.String:
		return stringEncoder
	case reflect.Interface:
		return interfaceEncoder
	case reflect.Slice:
		return newSliceEncoder(t)
	case reflect.Array:
		return newArrayEncoder(t)
	case reflect.Map:
		return newMapEncoder(t)
	case reflect.Struct:
		return newStructEncoder(t)
	case reflect.Pointer:
		return newPtrEncoder(t)
	default:
		return unsupportedTypeEncoder
	}
}

func rawEncoder(e *encodeState, v reflect.Value) {
	_, _ = e.Write(v.Bytes())
}

func extValueEncoder(e *encodeState, v reflect.Value) {
	x := v.Interface().(Ext)
	writeExtHeader(e, len(x.Data), x.Type, extType)
	_, _ = e.Write(x.Data)
}

type extEncoder struct {
	c *extCodec
}

func (xe extEncoder) encode(e *encodeState, v reflect.Value) {
	data, err := xe.c.pack(v.Interface(), e.opts)
	if err != nil {
		panic(err)
	}
	writeExtHeader(e, len(data), xe.c.code, v.Type())
	_, _ = e.Write(data)
}

type structEncoder struct {
	fields structFields
}

func newStructEncoder(t reflect.Type) encoderFunc {
	se := structEncoder{fields: cachedTypeFields(t)}
	return se.encode
}

func (se structEncoder) encode(e *encodeState, v reflect.Value) {
	type member struct {
		f  *field
		fv reflect.Value
	}
	members := make([]member, 0, len(se.fields.list))

	for i := range se.fields.list {
		f := &se.fields.list[i]

		fv, ok := fieldByIndex(v, f.index)
		if !ok {
			// Nil pointer on the path to an embedded field.
			if f.omitEmpty {
				continue
			}
			members = append(members, member{f: f})
			continue
		}
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		members = append(members, member{f: f, fv: fv})
	}

	writeMapHeader(e, len(members), v.Type())
	for _, m := range members {
		writeString(e, m.f.name)
		if !m.fv.IsValid() {
			_ = e.WriteByte(nilValue)
			continue
		}
		m.f.encoder(e, m.fv)
	}
}

func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func newMapEncoder(t reflect.Type) encoderFunc {
	me := mapEncoder{
		keyEnc:  typeEncoder(t.Key()),
		elemEnc: typeEncoder(t.Elem()),
	}
	return me.encode
}

type mapEncoder struct {
	keyEnc  encoderFunc
	elemEnc encoderFunc
}

// Native Go maps iterate in random order; entries are emitted sorted by
// encoded key bytes so packing stays deterministic.
func (me mapEncoder) encode(e *encodeState, rv reflect.Value) {
	n := rv.Len()
	writeMapHeader(e, n, rv.Type())

	sv := make([]encodedKV, n)

	mi := rv.MapRange()
	for i := 0; mi.Next(); i++ {
		ke := newEncodeState()
		ke.opts = e.opts
		me.keyEnc(ke, mi.Key())
		sv[i].ks = append([]byte(nil), ke.Bytes()...)
		encodeStatePool.Put(ke)
		sv[i].v = mi.Value()
	}

	sort.Slice(sv, func(i, j int) bool { return Compare(sv[i].ks, sv[j].ks) < 0 })

	for _, s := range sv {
		_, _ = e.Write(s.ks)
		me.elemEnc(e, s.v)
	}
}

type encodedKV struct {
	ks []byte
	v  reflect.Value
}

func orderedMapEncoder(e *encodeState, v reflect.Value) {
	m := v.Interface().(*OrderedMap)
	if m == nil {
		_ = e.WriteByte(nilValue)
		return
	}
	writeMapHeader(e, m.Len(), orderedMapType)
	m.Range(func(k, v any) bool {
		e.marshalValue(k)
		e.marshalValue(v)
		return true
	})
}

func newSliceEncoder(t reflect.Type) encoderFunc {
	// Byte slices get special treatment; arrays don't.
	if t.Elem().Kind() == reflect.Uint8 {
		return encodeByteSlice
	}
	enc := arrayEncoder{typeEncoder(t.Elem())}
	return enc.encode
}

func encodeByteSlice(e *encodeState, v reflect.Value) {
	b := make([]byte, 0)
	if !v.IsNil() {
		b = v.Bytes()
	}

	n := len(b)
	switch {
	case n <= math.MaxUint8:
		write1To(e, bin8Value, uint8(n))
	case n <= math.MaxUint16:
		write2To(e, bin16Value, uint16(n))
	case n <= math.MaxUint32:
		write4To(e, bin32Value, uint32(n))
	default:
		panic(&UnsupportedTypeError{Type: v.Type()})
	}
	_, _ = e.Write(b)
}

func newArrayEncoder(t reflect.Type) encoderFunc {
	enc := arrayEncoder{typeEncoder(t.Elem())}
	return enc.encode
}

type arrayEncoder struct {
	elemEnc encoderFunc
}

func (ae arrayEncoder) encode(e *encodeState, v reflect.Value) {
	n := v.Len()
	switch {
	case n <= fixContainerMaxLen:
		_ = e.WriteByte(fixArrayPrefix | byte(n))
	case n <= math.MaxUint16:
		write2To(e, array16Value, uint16(n))
	case n <= math.MaxUint32:
		write4To(e, array32Value, uint32(n))
	default:
		panic(&UnsupportedTypeError{Type: v.Type()})
	}

	for i := 0; i < n; i++ {
		ae.elemEnc(e, v.Index(i))
	}
}

type ptrEncoder struct {
	elemEnc encoderFunc
}

func (pe ptrEncoder) encode(e *encodeState, v reflect.Value) {
	if v.IsNil() {
		_ = e.WriteByte(nilValue)
		return
	}
	pe.elemEnc(e, v.Elem())
}

func newPtrEncoder(t reflect.Type) encoderFunc {
	enc := ptrEncoder{typeEncoder(t.Elem())}
	return enc.encode
}

func boolEncoder(e *encodeState, v reflect.Value) {
	if v.Bool() {
		_ = e.WriteByte(trueValue)
	} else {
		_ = e.WriteByte(falseValue)
	}
}

func intEncoder(e *encodeState, v reflect.Value) {
	writeInt(e, v.Int())
}

func uintEncoder(e *encodeState, v reflect.Value) {
	writeUint(e, v.Uint())
}

// Nonnegative values always take the unsigned families so the width stays
// minimal across ecosystems.
func writeInt(e *encodeState, n int64) {
	if n >= 0 {
		writeUint(e, uint64(n))
		return
	}
	switch {
	case n >= -32:
		_ = e.WriteByte(byte(n))
	case n >= math.MinInt8:
		write1To(e, int8Value, uint8(n))
	case n >= math.MinInt16:
		write2To(e, int16Value, uint16(n))
	case n >= math.MinInt32:
		write4To(e, int32Value, uint32(n))
	default:
		write8To(e, int64Value, uint64(n))
	}
}

func writeUint(e *encodeState, n uint64) {
	switch {
	case n < 0x80:
		_ = e.WriteByte(byte(n))
	case n <= math.MaxUint8:
		write1To(e, uint8Value, uint8(n))
	case n <= math.MaxUint16:
		write2To(e, uint16Value, uint16(n))
	case n <= math.MaxUint32:
		write4To(e, uint32Value, uint32(n))
	default:
		write8To(e, uint64Value, n)
	}
}

func float32Encoder(e *encodeState, v reflect.Value) {
	e.writeFloat(v.Float(), 32)
}

func float64Encoder(e *encodeState, v reflect.Value) {
	e.writeFloat(v.Float(), 64)
}

func (e *encodeState) writeFloat(f float64, bits int) {
	switch e.opts.FloatPrecision {
	case FloatPrecisionSingle:
		bits = 32
	case FloatPrecisionDouble:
		bits = 64
	}
	if bits == 32 {
		write4To(e, float32Value, math.Float32bits(float32(f)))
		return
	}
	write8To(e, float64Value, math.Float64bits(f))
}

func stringEncoder(e *encodeState, v reflect.Value) {
	writeStringWithType(e, v.String(), v.Type())
}

func writeString(e *encodeState, s string) {
	writeStringWithType(e, s, reflect.TypeOf(s))
}

func writeStringWithType(e *encodeState, s string, t reflect.Type) {
	n := len(s)
	switch {
	case n <= fixStrMaxLen:
		_ = e.WriteByte(fixStrPrefix | byte(n))
	case n <= math.MaxUint8:
		write1To(e, str8Value, uint8(n))
	case n <= math.MaxUint16:
		write2To(e, str16Value, uint16(n))
	case n <= math.MaxUint32:
		write4To(e, str32Value, uint32(n))
	default:
		panic(&UnsupportedTypeError{Type: t})
	}
	_, _ = e.WriteString(s)
}

func writeMapHeader(e *encodeState, n int, t reflect.Type) {
	switch {
	case n <= fixContainerMaxLen:
		_ = e.WriteByte(fixMapPrefix | byte(n))
	case n <= math.MaxUint16:
		write2To(e, map16Value, uint16(n))
	case n <= math.MaxUint32:
		write4To(e, map32Value, uint32(n))
	default:
		panic(&UnsupportedTypeError{Type: t})
	}
}

func writeExtHeader(e *encodeState, n int, code int8, t reflect.Type) {
	switch n {
	case 1:
		_ = e.WriteByte(fixExt1Value)
	case 2:
		_ = e.WriteByte(fixExt2Value)
	case 4:
		_ = e.WriteByte(fixExt4Value)
	case 8:
		_ = e.WriteByte(fixExt8Value)
	case 16:
		_ = e.WriteByte(fixExt16Value)
	default:
		switch {
		case n <= math.MaxUint8:
			write1To(e, ext8Value, uint8(n))
		case n <= math.MaxUint16:
			write2To(e, ext16Value, uint16(n))
		case n <= math.MaxUint32:
			write4To(e, ext32Value, uint32(n))
		default:
			panic(&UnsupportedTypeError{Type: t})
		}
	}
	_ = e.WriteByte(byte(code))
}

func interfaceEncoder(e *encodeState, v reflect.Value) {
	if v.IsNil() {
		_ = e.WriteByte(nilValue)
		return
	}
	elemV := v.Elem()
	valueEncoder(elemV)(e, elemV)
}

func write1To(e *encodeState, code byte, n uint8) {
	_ = e.WriteByte(code)
	_ = e.WriteByte(n)
}

func write2To(e *encodeState, code byte, n uint16) {
	_ = e.WriteByte(code)
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, n)
	_, _ = e.Write(b)
}

func write4To(e *encodeState, code byte, n uint32) {
	_ = e.WriteByte(code)
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	_, _ = e.Write(b)
}

func write8To(e *encodeState, code byte, n uint64) {
	_ = e.WriteByte(code)
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	_, _ = e.Write(b)
}

func invalidValueEncoder(e *encodeState, v reflect.Value) {
	_ = e.WriteByte(nilValue)
}

func unsupportedTypeEncoder(e *encodeState, v reflect.Value) {
	panic(&UnsupportedTypeError{v.Type()})
}
