package msgpack

import (
	"io"
)

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, optFns ...PackOptionFunc) *Encoder {
	return &Encoder{w: w, opts: newPackOptions(optFns...)}
}

type Encoder struct {
	w    io.Writer
	opts *PackOptions
	err  error
}

func (enc *Encoder) Encode(v any) error {
	if enc.err != nil {
		return enc.err
	}
	e := newEncodeState()
	e.opts = enc.opts
	err := e.marshal(v)
	if err != nil {
		return err
	}
	if _, err = enc.w.Write(e.Bytes()); err != nil {
		enc.err = err
	}
	encodeStatePool.Put(e)
	return err
}

// NewDecoder returns a new decoder that reads from r. Decode reads only the
// bytes the next document needs.
func NewDecoder(r io.Reader, optFns ...UnpackOptionFunc) *Decoder {
	return &Decoder{
		src:  &readerSource{r: r},
		opts: newUnpackOptions(optFns...),
	}
}

type Decoder struct {
	src  *readerSource
	opts *UnpackOptions
	err  error
}

// Decode reads one document. A source that is already exhausted at a
// document boundary yields io.EOF.
func (dec *Decoder) Decode() (any, error) {
	if dec.err != nil {
		return nil, dec.err
	}
	d := decodeState{src: dec.src, opts: dec.opts}
	start := dec.src.offset()
	v, err := d.value()
	if err != nil {
		if _, ok := IsInsufficientDataError(err); ok && dec.src.offset() == start {
			err = io.EOF
		}
		dec.err = err
		return nil, err
	}
	return v, nil
}
