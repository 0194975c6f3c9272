package stream

import (
	"errors"
	"io"
)

const chunkBufferSize = 32 * 1024

// BinaryDecoder yields raw byte chunks as Chunk units until end of stream.
// No line framing and no schema validation apply; empty reads are not
// yielded.
type BinaryDecoder struct {
	src    io.ReadCloser
	buf    []byte
	done   bool
	closed bool
}

// NewBinaryDecoder wraps src. The decoder owns src and closes it via Close.
func NewBinaryDecoder(src io.ReadCloser) *BinaryDecoder {
	return &BinaryDecoder{
		src: src,
		buf: make([]byte, chunkBufferSize),
	}
}

// Next returns the next non-empty Chunk, (nil, nil) at end of stream, or a
// transport error.
func (d *BinaryDecoder) Next() (Unit, error) {
	for {
		if d.done {
			return nil, nil
		}

		n, err := d.src.Read(d.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, d.buf[:n])
			if errors.Is(err, io.EOF) {
				d.done = true
			}
			return Chunk{Bytes: chunk}, nil
		}
		if err != nil {
			d.done = true
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, err
		}
	}
}

// Close releases the underlying reader. Idempotent.
func (d *BinaryDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.done = true
	return d.src.Close()
}
