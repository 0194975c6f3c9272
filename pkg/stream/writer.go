package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/weftworks/weft/pkg/schema"
)

// ItemWriter is the producing-side dual of NDJSONDecoder: it validates each
// emitted value against the item schema before serializing it as one
// '\n'-terminated JSON line. A validation failure is returned to the caller
// and nothing reaches the wire — rejecting a bad mock emission is a
// programming-error signal, not something to drop silently.
type ItemWriter struct {
	w     io.Writer
	item  schema.Schema
	count int
}

// NewItemWriter binds w to the given item schema.
func NewItemWriter(w io.Writer, item schema.Schema) *ItemWriter {
	return &ItemWriter{w: w, item: item}
}

// Write validates v and writes it as a single NDJSON line.
func (w *ItemWriter) Write(v any) error {
	data, err := w.item.Validate(v)
	if err != nil {
		return fmt.Errorf("item rejected by schema: %w", err)
	}

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	if _, err := w.w.Write(append(b, '\n')); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count reports how many items have been written.
func (w *ItemWriter) Count() int {
	return w.count
}
