// Package stream defines the unit model shared by every decoder in the
// toolkit, the pull-based cursor over decoded units, and the line-oriented
// decoders for NDJSON and raw binary streams.
package stream

// Unit is the atomic value yielded by a decoder. It is a closed tagged
// variant: Event (SSE), Item (NDJSON), Chunk (binary), Message and Status
// (socket), and ParseError for malformed or schema-rejected input.
//
// A ParseError never terminates a stream; it is delivered in-band alongside
// successful units. Only transport completion, cancellation, or transport
// failure ends a sequence.
type Unit interface {
	unit()
}

// Event is a dispatched Server-Sent Event.
type Event struct {
	Name string
	ID   string
	Data any
	Raw  string
}

// Item is one decoded NDJSON line.
type Item struct {
	Data any
	Raw  string
}

// Chunk is one raw binary chunk, passed through uninterpreted.
type Chunk struct {
	Bytes []byte
}

// Message is one validated socket message, keyed by its discriminator.
type Message struct {
	Kind string
	Data any
	Raw  string
}

// Status reports a socket state transition.
type Status struct {
	State State
}

// ParseError is an in-band, non-fatal decode failure: malformed text, a
// schema validation failure, or an unknown event/message kind. Raw carries
// the offending input when available.
type ParseError struct {
	Err error
	Raw string
}

func (Event) unit()      {}
func (Item) unit()       {}
func (Chunk) unit()      {}
func (Message) unit()    {}
func (Status) unit()     {}
func (ParseError) unit() {}

// State is the lifecycle state of a socket connection.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
)
