// Package socket adapts an event-driven websocket connection into the
// pull-based stream.Unit sequence the rest of the toolkit consumes. Inbound
// frames are classified, validated against the declared message schemas,
// and queued; a single consumer drains the queue in strict arrival order.
package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/weftworks/weft/pkg/logger"
	"github.com/weftworks/weft/pkg/schema"
	"github.com/weftworks/weft/pkg/stream"
	"github.com/weftworks/weft/pkg/utils"
)

// Pump converts the connection's asynchronous read events into a pull-based
// sequence. Status transitions, validated messages, binary frames, and
// in-band parse errors all arrive through Next in FIFO order; an internal
// terminal marker ends the sequence and is never yielded to the consumer.
type Pump struct {
	conn    *websocket.Conn
	schemas map[string]schema.Schema
	field   string
	logger  *slog.Logger

	mu     sync.Mutex
	queue  []stream.Unit
	done   bool          // terminal marker has reached the queue tail
	waiter chan struct{} // non-nil iff a consumer is blocked on an empty queue
	state  stream.State
	closed bool
}

// NewPump wraps an established connection. schemas maps message kinds (as
// carried in the discriminator field) to their payload schemas. The pump
// immediately queues Status{connecting} and Status{open} — the connection
// handshake already succeeded by the time a *websocket.Conn exists — and
// starts reading frames.
func NewPump(conn *websocket.Conn, schemas map[string]schema.Schema, discriminator string, log *slog.Logger) *Pump {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pump{
		conn:    conn,
		schemas: schemas,
		field:   discriminator,
		logger:  log,
		state:   stream.StateConnecting,
		queue: []stream.Unit{
			stream.Status{State: stream.StateConnecting},
			stream.Status{State: stream.StateOpen},
		},
	}
	p.state = stream.StateOpen

	go p.readLoop()

	return p
}

// Next returns the next queued unit, blocking until one is available. It
// returns (nil, nil) once the connection has closed and the queue is
// drained. Transport failures are reported in-band as ParseError units
// followed by Status{closed}, so Next itself only ever errs on misuse.
func (p *Pump) Next() (stream.Unit, error) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			u := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return u, nil
		}
		if p.done {
			p.mu.Unlock()
			return nil, nil
		}
		if p.waiter == nil {
			p.waiter = make(chan struct{})
		}
		w := p.waiter
		p.mu.Unlock()

		<-w
	}
}

// Close abandons the sequence and closes the transport. The read loop
// observes the closed connection and finishes the queue. Idempotent.
func (p *Pump) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.state != stream.StateClosed {
		p.state = stream.StateClosing
	}
	p.mu.Unlock()

	return p.conn.Close()
}

// State reports the connection's lifecycle state.
func (p *Pump) State() stream.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// readLoop pumps inbound frames into the queue until the transport ends.
func (p *Pump) readLoop() {
	for {
		mt, data, err := p.conn.ReadMessage()
		if err != nil {
			if !isCleanClose(err) {
				p.enqueue(stream.ParseError{Err: fmt.Errorf("transport error: %w", err)})
			}
			p.finish()
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			p.enqueue(stream.Chunk{Bytes: data})
		case websocket.TextMessage:
			p.enqueue(p.classify(data))
		}
	}
}

// classify parses a text frame, resolves its discriminator to a schema,
// and validates the payload. Every failure mode is an in-band ParseError.
func (p *Pump) classify(data []byte) stream.Unit {
	raw := string(data)

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		p.logger.Debug("unparseable text frame", "raw", utils.Truncate(raw, 200))
		return stream.ParseError{Err: fmt.Errorf("invalid message frame: %w", err), Raw: raw}
	}

	kind, _ := payload[p.field].(string)
	if kind == "" {
		return stream.ParseError{Err: fmt.Errorf("message frame missing %q discriminator", p.field), Raw: raw}
	}

	sch, ok := p.schemas[kind]
	if !ok {
		return stream.ParseError{Err: fmt.Errorf("unknown message type: %q", kind), Raw: raw}
	}

	v, err := sch.Validate(payload)
	if err != nil {
		return stream.ParseError{Err: err, Raw: raw}
	}

	return stream.Message{Kind: kind, Data: v, Raw: raw}
}

// enqueue appends a unit and wakes a blocked consumer, if any. At most one
// waiter exists at a time; enqueue always clears it.
func (p *Pump) enqueue(u stream.Unit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.queue = append(p.queue, u)
	p.wake()
}

// finish queues the closed status and the terminal marker.
func (p *Pump) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.state = stream.StateClosed
	p.queue = append(p.queue, stream.Status{State: stream.StateClosed})
	p.done = true
	p.wake()
}

// wake releases the blocked consumer. Callers must hold p.mu.
func (p *Pump) wake() {
	if p.waiter != nil {
		close(p.waiter)
		p.waiter = nil
	}
}

// isCleanClose reports whether a read error is an expected end of the
// connection rather than a transport fault.
func isCleanClose(err error) bool {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}
