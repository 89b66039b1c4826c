package msgpackext

import (
	"encoding/binary"
	"math"

	"github.com/octohelm/msgpack/pkg/msgpack"
	"github.com/pkg/errors"
)

// ComplexCode tags complex values of either width: real then imaginary,
// big-endian IEEE-754. complex64 travels as a binary32 pair, complex128 as
// a binary64 pair; the payload width tells them apart on the way back.
const ComplexCode int8 = 0x50

func init() {
	msgpack.RegisterExt(ComplexCode, complex64(0), packComplex64, unpackComplex)
	msgpack.RegisterExt(ComplexCode, complex128(0), packComplex128, unpackComplex)
}

func packComplex64(v any, o *msgpack.PackOptions) ([]byte, error) {
	c := v.(complex64)
	if o.FloatPrecision == msgpack.FloatPrecisionDouble {
		return packComplexWide(complex128(c)), nil
	}
	return packComplexNarrow(c), nil
}

func packComplex128(v any, o *msgpack.PackOptions) ([]byte, error) {
	c := v.(complex128)
	if o.FloatPrecision == msgpack.FloatPrecisionSingle {
		return packComplexNarrow(complex64(c)), nil
	}
	return packComplexWide(c), nil
}

func packComplexNarrow(c complex64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], math.Float32bits(real(c)))
	binary.BigEndian.PutUint32(b[4:8], math.Float32bits(imag(c)))
	return b
}

func packComplexWide(c complex128) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], math.Float64bits(real(c)))
	binary.BigEndian.PutUint64(b[8:16], math.Float64bits(imag(c)))
	return b
}

func unpackComplex(data []byte, _ *msgpack.UnpackOptions) (any, error) {
	switch len(data) {
	case 8:
		re := math.Float32frombits(binary.BigEndian.Uint32(data[0:4]))
		im := math.Float32frombits(binary.BigEndian.Uint32(data[4:8]))
		return complex(re, im), nil
	case 16:
		re := math.Float64frombits(binary.BigEndian.Uint64(data[0:8]))
		im := math.Float64frombits(binary.BigEndian.Uint64(data[8:16]))
		return complex(re, im), nil
	}
	return nil, errors.Errorf("complex ext payload must be 8 or 16 bytes, got %d", len(data))
}
