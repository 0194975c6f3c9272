// Package sse implements Server-Sent Events framing: a schema-validating
// decoder for the consuming side and a wire writer for the producing side.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/weftworks/weft/pkg/schema"
	"github.com/weftworks/weft/pkg/stream"
)

const (
	// ContentType is the MIME type for SSE responses.
	ContentType = "text/event-stream"

	// DefaultEventName is the event name used when no "event:" field has
	// been seen since the last dispatch, per the SSE spec.
	DefaultEventName = "message"
)

// Decoder parses an SSE byte stream into schema-validated Event units.
// Events whose name has no registered schema, whose payload fails to parse,
// or whose data fails validation become in-band ParseError units; the
// stream itself only ends with the underlying transport.
//
// Payloads are JSON by default. If a payload is not valid JSON and the
// event's schema is exactly the plain string schema, the raw data is used
// as the value. This accommodates providers that send bare text payloads;
// no other schema gets the fallback.
type Decoder struct {
	lines  *stream.LineReader
	events map[string]schema.Schema

	// Per-connection parser state, reset together after every dispatch
	// attempt (success, schema miss, or parse/validation failure alike).
	eventName string
	dataLines []string
	eventID   string
}

// NewDecoder binds src to the given event-name → schema map. The decoder
// owns src and closes it via Close.
func NewDecoder(src io.ReadCloser, events map[string]schema.Schema) *Decoder {
	return &Decoder{
		lines:     stream.NewLineReader(src),
		events:    events,
		eventName: DefaultEventName,
	}
}

// Next returns the next Event or ParseError unit, (nil, nil) at end of
// stream, or a transport error from the underlying reader.
func (d *Decoder) Next() (stream.Unit, error) {
	for {
		line, ok, err := d.lines.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			// Stream ended without a trailing blank line; dispatch the
			// in-progress event rather than dropping buffered data.
			if len(d.dataLines) == 0 {
				return nil, nil
			}
			return d.dispatch(), nil
		}

		switch {
		case line == "":
			// Event boundary. With nothing buffered there is no event to
			// dispatch and the state is left untouched.
			if len(d.dataLines) == 0 {
				continue
			}
			return d.dispatch(), nil
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive.
			continue
		default:
			d.parseField(line)
		}
	}
}

// Close releases the underlying reader.
func (d *Decoder) Close() error {
	return d.lines.Close()
}

// parseField accumulates one "field:value" line into the current event.
// A single leading space after the colon is stripped, per spec.
func (d *Decoder) parseField(line string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		field = line
		value = ""
	}
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		d.eventName = value
	case "data":
		d.dataLines = append(d.dataLines, value)
	case "id":
		d.eventID = value
	default:
		// "retry" and unknown fields are ignored on the consuming side.
	}
}

// dispatch turns the buffered state into one unit and resets the state.
func (d *Decoder) dispatch() stream.Unit {
	raw := strings.Join(d.dataLines, "\n")
	name := d.eventName
	id := d.eventID
	d.reset()

	sch, ok := d.events[name]
	if !ok {
		return stream.ParseError{Err: fmt.Errorf("unknown event name: %q", name), Raw: raw}
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		if !schema.IsString(sch) {
			return stream.ParseError{Err: fmt.Errorf("invalid event payload: %w", err), Raw: raw}
		}
		// Non-JSON payloads are valid for plain string schemas; the raw
		// data is the value.
		v = raw
	}

	data, err := sch.Validate(v)
	if err != nil {
		return stream.ParseError{Err: err, Raw: raw}
	}

	return stream.Event{Name: name, ID: id, Data: data, Raw: raw}
}

func (d *Decoder) reset() {
	d.eventName = DefaultEventName
	d.dataLines = nil
	d.eventID = ""
}
