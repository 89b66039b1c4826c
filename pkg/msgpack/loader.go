package msgpack

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
)

// NewStreamDecoder returns a decoder for a stream of concatenated documents
// delivered in arbitrary chunks. Memory is bounded by the largest single
// document, not the stream.
func NewStreamDecoder(r io.Reader, optFns ...UnpackOptionFunc) *StreamDecoder {
	opts := newUnpackOptions(optFns...)
	return &StreamDecoder{
		src:  &chunkSource{r: r, observer: opts.Observer},
		opts: opts,
	}
}

type StreamDecoder struct {
	src  *chunkSource
	opts *UnpackOptions
	docs int
}

// Next decodes the next document from the stream. A stream exhausted at a
// document boundary yields io.EOF. On any other failure the partial document
// buffer is discarded; the stream itself stays open, so the caller may keep
// iterating after resynchronizing the source.
func (sd *StreamDecoder) Next(ctx context.Context) (any, error) {
	sd.src.ctx = ctx

	d := decodeState{src: sd.src, opts: sd.opts}
	v, err := d.value()
	if err != nil {
		atBoundary := len(sd.src.buf) == 0
		sd.src.reset()
		if _, ok := IsInsufficientDataError(err); ok && atBoundary {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "document %d", sd.docs)
	}

	if sd.opts.Observer != nil {
		sd.opts.Observer(nil)
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("decoded document", "index", sd.docs, "bytes", len(sd.src.buf))
	sd.docs++
	sd.src.reset()
	return v, nil
}

// chunkSource implements the decoder's read capability over a chunked
// stream, keeping the bytes of the document being decoded in a rolling
// buffer and reporting every chunk to the observer.
type chunkSource struct {
	r        io.Reader
	ctx      context.Context
	observer Observer
	buf      []byte
	off      int
}

func (s *chunkSource) next(n int) ([]byte, error) {
	if s.ctx != nil {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}
	}

	start := len(s.buf)
	s.buf = append(s.buf, make([]byte, n)...)
	chunk := s.buf[start : start+n]

	nn, err := io.ReadFull(s.r, chunk)
	s.off += nn
	s.buf = s.buf[:start+nn]
	if err != nil {
		return nil, &InsufficientDataError{Offset: s.off, Need: n - nn}
	}
	if s.observer != nil {
		s.observer(chunk)
	}
	return chunk, nil
}

func (s *chunkSource) offset() int {
	return s.off
}

func (s *chunkSource) reset() {
	s.buf = s.buf[:0]
}
