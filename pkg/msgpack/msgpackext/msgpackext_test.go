package msgpackext

import (
	"testing"

	"github.com/octohelm/msgpack/pkg/msgpack"
	testingx "github.com/octohelm/x/testing"
)

func TestComplex(t *testing.T) {
	t.Run("complex64 packs as fixext 8 of two binary32", func(t *testing.T) {
		data, err := msgpack.Marshal(complex64(complex(1.0, 4.0)))
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, data, testingx.Equal([]byte{
			0xD7, 0x50,
			0x3F, 0x80, 0x00, 0x00,
			0x40, 0x80, 0x00, 0x00,
		}))

		got, err := msgpack.Unmarshal(data)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, got, testingx.Equal[any](complex64(complex(1.0, 4.0))))
	})

	t.Run("complex128 packs as fixext 16 of two binary64", func(t *testing.T) {
		c := complex(1.0000000001, -4)

		data, err := msgpack.Marshal(c)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, data[:2], testingx.Equal([]byte{0xD8, 0x50}))

		got, err := msgpack.Unmarshal(data)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, got, testingx.Equal[any](c))
	})

	t.Run("forced single precision narrows complex128", func(t *testing.T) {
		data, err := msgpack.Marshal(complex(2.0, -2.0), msgpack.WithFloatPrecision(msgpack.FloatPrecisionSingle))
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, data[:2], testingx.Equal([]byte{0xD7, 0x50}))

		// The narrowed payload comes back at its wire width.
		got, err := msgpack.Unmarshal(data)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, got, testingx.Equal[any](complex64(complex(2.0, -2.0))))
	})

	t.Run("forced double precision widens complex64", func(t *testing.T) {
		data, err := msgpack.Marshal(complex64(complex(2.0, -2.0)), msgpack.WithFloatPrecision(msgpack.FloatPrecisionDouble))
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, data[:2], testingx.Equal([]byte{0xD8, 0x50}))

		got, err := msgpack.Unmarshal(data)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, got, testingx.Equal[any](complex(2.0, -2.0)))
	})

	t.Run("inside containers", func(t *testing.T) {
		in := []any{complex(2.0, -2.0), complex64(complex(0, 1)), "x"}

		data, err := msgpack.Marshal(in)
		testingx.Expect(t, err, testingx.Be[error](nil))

		got, err := msgpack.Unmarshal(data)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, got, testingx.Equal[any](in))
	})
}

func TestSet(t *testing.T) {
	t.Run("wire form wraps a sorted array", func(t *testing.T) {
		data, err := msgpack.Marshal(NewSet(int64(1)))
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, data, testingx.Equal([]byte{0xD5, 0x51, 0x91, 0x01}))
	})

	t.Run("round trip", func(t *testing.T) {
		s := NewSet(int64(1), int64(2), "three")

		data, err := msgpack.Marshal(s)
		testingx.Expect(t, err, testingx.Be[error](nil))

		got, err := msgpack.Unmarshal(data)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, got, testingx.Equal[any](s))
	})

	t.Run("packing is deterministic", func(t *testing.T) {
		a, err := msgpack.Marshal(NewSet(int64(3), int64(1), int64(2)))
		testingx.Expect(t, err, testingx.Be[error](nil))
		b, err := msgpack.Marshal(NewSet(int64(2), int64(3), int64(1)))
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, msgpack.Equal(a, b), testingx.Be(true))
	})
}
