package msgpack

import (
	"reflect"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// PackExtFunc serializes a value of a registered type into the payload of an
// ext family. The returned bytes are wrapped with the ext prefix and the
// registered code.
type PackExtFunc func(v any, o *PackOptions) ([]byte, error)

// UnpackExtFunc rebuilds a value from an ext payload carrying the registered
// code.
type UnpackExtFunc func(data []byte, o *UnpackOptions) (any, error)

type extCodec struct {
	code   int8
	typ    reflect.Type
	pack   PackExtFunc
	unpack UnpackExtFunc
}

var extRegistry = struct {
	sync.RWMutex
	byType map[reflect.Type]*extCodec
	byCode map[int8]*extCodec
	log    logr.Logger
}{
	byType: map[reflect.Type]*extCodec{},
	byCode: map[int8]*extCodec{},
	log:    logr.Discard(),
}

// SetLogger routes registry warnings. The default discards them.
func SetLogger(l logr.Logger) {
	extRegistry.Lock()
	defer extRegistry.Unlock()
	extRegistry.log = l
}

// RegisterExt binds an ext code in [0, 127] to the dynamic type of prototype.
// Values of that type are packed through packFn, and ext payloads carrying
// code are unpacked through unpackFn. Several source types may share one
// code (the unpack function tells the payloads apart); the newest
// registration owns decoding for that code. Re-registering a type at a new
// code abandons its old one. Registration belongs in init, before encoders
// and decoders run.
func RegisterExt(code int8, prototype any, packFn PackExtFunc, unpackFn UnpackExtFunc) {
	if code < 0 {
		panic(errors.Errorf("ext code %d is in the reserved range", code))
	}
	t := reflect.TypeOf(prototype)
	if t == nil {
		panic(errors.New("ext prototype must be a non-nil value"))
	}

	extRegistry.Lock()
	defer extRegistry.Unlock()

	if prev, ok := extRegistry.byType[t]; ok {
		extRegistry.log.Info("replacing ext registration", "type", t.String(), "prev", prev.code, "next", code)
		if cur, ok := extRegistry.byCode[prev.code]; ok && cur == prev && prev.code != code {
			delete(extRegistry.byCode, prev.code)
		}
	}
	if cur, ok := extRegistry.byCode[code]; ok && cur.typ != t {
		extRegistry.log.Info("replacing ext decoder", "code", code, "prev", cur.typ.String(), "next", t.String())
	}

	c := &extCodec{code: code, typ: t, pack: packFn, unpack: unpackFn}
	extRegistry.byType[t] = c
	extRegistry.byCode[code] = c

	// Cached encoders baked in before this registration would bypass it.
	encoderCache.Range(func(k, v any) bool {
		encoderCache.Delete(k)
		return true
	})
	fieldCache.Range(func(k, v any) bool {
		fieldCache.Delete(k)
		return true
	})
}

func lookupExtByType(t reflect.Type) (*extCodec, bool) {
	extRegistry.RLock()
	defer extRegistry.RUnlock()
	c, ok := extRegistry.byType[t]
	return c, ok
}

func lookupExtByCode(code int8) (*extCodec, bool) {
	extRegistry.RLock()
	defer extRegistry.RUnlock()
	c, ok := extRegistry.byCode[code]
	return c, ok
}
