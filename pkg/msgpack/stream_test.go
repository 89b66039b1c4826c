package msgpack

import (
	"bytes"
	"io"
	"strings"
	"testing"

	testingx "github.com/octohelm/x/testing"
)

func TestStream(t *testing.T) {
	inputs := []any{int64(1), strings.Repeat("v", 10000), false}

	buf := bytes.NewBuffer(nil)

	encoder := NewEncoder(buf)
	for i := range inputs {
		if err := encoder.Encode(inputs[i]); err != nil {
			testingx.Expect(t, err, testingx.Be[error](nil))
		}
	}

	outputs := make([]any, 0, len(inputs))
	decoder := NewDecoder(buf)

	for {
		v, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		testingx.Expect(t, err, testingx.Be[error](nil))
		outputs = append(outputs, v)
	}

	testingx.Expect(t, outputs, testingx.Equal(inputs))
}

func TestDecoderReadsOnlyOneDocument(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xC0, 0x93, 0x01, 0x02, 0x03})

	decoder := NewDecoder(buf)

	v, err := decoder.Decode()
	testingx.Expect(t, err, testingx.Be[error](nil))
	testingx.Expect(t, v, testingx.Be[any](nil))

	// The rest of the stream is untouched.
	testingx.Expect(t, buf.Len(), testingx.Be(4))
}

func TestDecoderInsufficientData(t *testing.T) {
	decoder := NewDecoder(bytes.NewBuffer([]byte{0x92, 0x01}))

	_, err := decoder.Decode()
	_, ok := IsInsufficientDataError(err)
	testingx.Expect(t, ok, testingx.Be(true))
}
