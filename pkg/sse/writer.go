package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/weftworks/weft/pkg/schema"
)

// Frame is one outbound event handed to Writer.Write. Event defaults to
// "message"; ID and Retry are optional pass-through metadata.
type Frame struct {
	Event string
	Data  any
	ID    string
	Retry time.Duration
}

// Writer emits SSE frames, validating each event's data against the
// declared schema set before anything reaches the wire. A validation
// failure rejects the write with an error — a bad mock emission is a
// programming error, not something to drop silently.
type Writer struct {
	w      io.Writer
	events map[string]schema.Schema
	count  int
}

// NewWriter binds w to the given event-name → schema map.
func NewWriter(w io.Writer, events map[string]schema.Schema) *Writer {
	return &Writer{w: w, events: events}
}

// Write validates and serializes one event, terminated by a blank line.
func (w *Writer) Write(f Frame) error {
	name := f.Event
	if name == "" {
		name = DefaultEventName
	}

	sch, ok := w.events[name]
	if !ok {
		return fmt.Errorf("no schema registered for event %q", name)
	}

	data, err := sch.Validate(f.Data)
	if err != nil {
		return fmt.Errorf("event %q rejected by schema: %w", name, err)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event %q: %w", name, err)
	}

	var b []byte
	if name != DefaultEventName {
		b = fmt.Appendf(b, "event: %s\n", name)
	}
	if f.ID != "" {
		b = fmt.Appendf(b, "id: %s\n", f.ID)
	}
	if f.Retry > 0 {
		b = fmt.Appendf(b, "retry: %d\n", f.Retry.Milliseconds())
	}
	b = fmt.Appendf(b, "data: %s\n\n", payload)

	if _, err := w.w.Write(b); err != nil {
		return err
	}
	w.count++
	return nil
}

// Comment writes a comment line, typically used as a keep-alive.
func (w *Writer) Comment(text string) error {
	_, err := fmt.Fprintf(w.w, ": %s\n", text)
	return err
}

// Count reports how many events have been written.
func (w *Writer) Count() int {
	return w.count
}
