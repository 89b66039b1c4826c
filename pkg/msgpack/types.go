package msgpack

// follow https://github.com/msgpack/msgpack/blob/master/spec.md#overview
// fixint, fixmap, fixarray and fixstr embed their value or length in the
// prefix byte itself; the remaining families carry explicit payloads.
const (
	fixMapPrefix   byte = 0x80 // 0x80 - 0x8f
	fixArrayPrefix byte = 0x90 // 0x90 - 0x9f
	fixStrPrefix   byte = 0xA0 // 0xa0 - 0xbf

	nilValue      byte = 0xC0
	reservedValue byte = 0xC1

	falseValue byte = 0xC2
	trueValue  byte = 0xC3

	bin8Value  byte = 0xC4
	bin16Value byte = 0xC5
	bin32Value byte = 0xC6

	ext8Value  byte = 0xC7
	ext16Value byte = 0xC8
	ext32Value byte = 0xC9

	float32Value byte = 0xCA
	float64Value byte = 0xCB

	uint8Value  byte = 0xCC
	uint16Value byte = 0xCD
	uint32Value byte = 0xCE
	uint64Value byte = 0xCF

	int8Value  byte = 0xD0
	int16Value byte = 0xD1
	int32Value byte = 0xD2
	int64Value byte = 0xD3

	fixExt1Value  byte = 0xD4
	fixExt2Value  byte = 0xD5
	fixExt4Value  byte = 0xD6
	fixExt8Value  byte = 0xD7
	fixExt16Value byte = 0xD8

	str8Value  byte = 0xD9
	str16Value byte = 0xDA
	str32Value byte = 0xDB

	array16Value byte = 0xDC
	array32Value byte = 0xDD

	map16Value byte = 0xDE
	map32Value byte = 0xDF

	negFixIntPrefix byte = 0xE0 // 0xe0 - 0xff
)

const (
	fixStrMaxLen       = 31
	fixContainerMaxLen = 15
)

// Ext is an application extension value: a type code in [0, 127] paired with
// an opaque payload. Reserved negative codes never surface as Ext; the
// decoder rejects them.
type Ext struct {
	Type int8
	Data []byte
}

// Raw is a pre-encoded document. The encoder splices it into the output
// verbatim.
type Raw []byte
