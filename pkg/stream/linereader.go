package stream

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const lineBufferSize = 64 * 1024

// LineReader turns a raw byte stream into a lazy sequence of text lines
// split on '\n'. Empty lines are preserved: SSE event-boundary detection
// depends on blank lines being yielded, not filtered. A final unterminated
// fragment is yielded as the last line; a trailing '\n' does not produce an
// extra empty line after it.
//
// The bufio.Reader carries partial lines (and multi-byte sequences) across
// chunk boundaries, so the yielded lines are identical no matter how the
// source splits its reads.
type LineReader struct {
	src    io.ReadCloser
	br     *bufio.Reader
	done   bool
	closed bool
}

// NewLineReader wraps src. The reader owns src and closes it via Close.
func NewLineReader(src io.ReadCloser) *LineReader {
	return &LineReader{
		src: src,
		br:  bufio.NewReaderSize(src, lineBufferSize),
	}
}

// Next returns the next line with its terminator stripped. ok is false once
// the source is exhausted. A read failure is returned as err; any partial
// line buffered at that point is discarded, not flushed.
func (l *LineReader) Next() (line string, ok bool, err error) {
	if l.done {
		return "", false, nil
	}

	line, err = l.br.ReadString('\n')
	if err != nil {
		l.done = true
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		// EOF: yield the final unterminated fragment, if any.
		if line == "" {
			return "", false, nil
		}
		return trimEOL(line), true, nil
	}

	return trimEOL(line), true, nil
}

// Close releases the underlying reader. Idempotent.
func (l *LineReader) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.done = true
	return l.src.Close()
}

// trimEOL strips a trailing "\n" and, for CRLF wire formats, a trailing "\r".
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
