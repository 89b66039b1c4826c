package msgpack

import (
	"fmt"
	"testing"

	testingx "github.com/octohelm/x/testing"
)

func TestOperator(t *testing.T) {
	var v = map[string]any{
		"a": []any{
			map[int8]int32{
				1: 1,
				2: 2,
			},
			map[string]int32{
				"1": 1,
				"2": 2,
			},
		},
		"b": map[string]any{
			"c": map[string]string{
				"d": "1",
			},
		},
	}

	data, _ := Marshal(v)

	t.Run("Get", func(t *testing.T) {
		tests := []struct {
			path []any
			want any
		}{
			{
				path: []any{"b", "c", "d"},
				want: "1",
			},
			{
				path: []any{"a", 0, int8(1)},
				want: int64(1),
			},
			{
				path: []any{"a", 2, "1"},
				want: nil,
			},
			{
				path: []any{"a", 1, "1"},
				want: int64(1),
			},
		}

		for i := range tests {
			c := tests[i]

			if c.want != nil {
				t.Run(fmt.Sprintf("key path %v should got %v", c.path, c.want), func(t *testing.T) {
					raw, err := Get(data, c.path)
					testingx.Expect(t, err, testingx.Be[error](nil))
					value, err := Unmarshal(raw)
					testingx.Expect(t, err, testingx.Be[error](nil))
					testingx.Expect(t, value, testingx.Be(c.want))
				})
			} else {
				t.Run(fmt.Sprintf("key path %v should not exists", c.path), func(t *testing.T) {
					_, err := Get(data, c.path)
					testingx.Expect(t, err, testingx.Be[error](ErrKeyPathNotExists))
				})
			}
		}
	})

	t.Run("Set", func(t *testing.T) {
		upgrade, err := Set(data, []any{"b", "c", "d"}, func(cur []byte) ([]byte, error) {
			return Marshal("2222")
		})
		testingx.Expect(t, err, testingx.Be[error](nil))

		ret, err := Get(upgrade, []any{"b", "c", "d"})
		testingx.Expect(t, err, testingx.Be[error](nil))
		value, err := Unmarshal(ret)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, value, testingx.Be[any]("2222"))

		// Siblings are untouched.
		ret, err = Get(upgrade, []any{"a", 1, "2"})
		testingx.Expect(t, err, testingx.Be[error](nil))
		value, err = Unmarshal(ret)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, value, testingx.Be[any](int64(2)))
	})
}

func TestSkip(t *testing.T) {
	docs := []any{
		nil,
		[]any{int64(1), int64(2), int64(3)},
		map[any]any{"foo": int64(1)},
		Ext{Type: 0x21, Data: []byte{1, 2, 3}},
		"tail",
	}

	var stream []byte
	var sizes []int
	for _, doc := range docs {
		b, err := Marshal(doc)
		testingx.Expect(t, err, testingx.Be[error](nil))
		stream = append(stream, b...)
		sizes = append(sizes, len(b))
	}

	// Walking the concatenation recovers each document's span.
	for i := 0; len(stream) > 0; i++ {
		n, err := Skip(stream)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, n, testingx.Be(sizes[i]))

		v, err := Unmarshal(stream)
		testingx.Expect(t, err, testingx.Be[error](nil))
		testingx.Expect(t, v, testingx.Equal(docs[i]))

		stream = stream[n:]
	}

	t.Run("truncated input", func(t *testing.T) {
		_, err := Skip([]byte{0x92, 0x01})
		_, ok := IsInsufficientDataError(err)
		testingx.Expect(t, ok, testingx.Be(true))
	})
}
