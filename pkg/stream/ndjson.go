package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/weftworks/weft/pkg/schema"
)

// ContentTypeNDJSON is the MIME type for newline-delimited JSON streams.
const ContentTypeNDJSON = "application/x-ndjson"

// NDJSONDecoder decodes a newline-delimited JSON stream into Item units.
// One line is one candidate unit; lines are never merged or split. Blank
// lines are skipped entirely (unlike SSE, NDJSON gives them no meaning).
// A malformed or schema-rejected line yields a ParseError and decoding
// continues with the next line.
type NDJSONDecoder struct {
	lines *LineReader
	item  schema.Schema
}

// NewNDJSONDecoder binds src to the given item schema. The decoder owns src.
func NewNDJSONDecoder(src io.ReadCloser, item schema.Schema) *NDJSONDecoder {
	return &NDJSONDecoder{
		lines: NewLineReader(src),
		item:  item,
	}
}

// Next returns the next Item or ParseError unit, (nil, nil) at end of
// stream, or a transport error from the underlying reader.
func (d *NDJSONDecoder) Next() (Unit, error) {
	for {
		line, ok, err := d.lines.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return ParseError{Err: fmt.Errorf("invalid JSON line: %w", err), Raw: line}, nil
		}

		data, err := d.item.Validate(v)
		if err != nil {
			return ParseError{Err: err, Raw: line}, nil
		}

		return Item{Data: data, Raw: line}, nil
	}
}

// Close releases the underlying reader.
func (d *NDJSONDecoder) Close() error {
	return d.lines.Close()
}
