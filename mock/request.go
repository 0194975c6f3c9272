package mock

import (
	"io"

	"github.com/weftworks/weft/pkg/sse"
	"github.com/weftworks/weft/pkg/stream"
)

// Request is the handler-facing view of an incoming request. The body and
// header maps are copies; handlers may hold them past the handler's return.
type Request struct {
	Method     string
	Path       string
	Query      map[string]string
	Headers    map[string]string
	Body       []byte
	RemoteAddr string
}

// Handler is implemented by the per-shape handler function types below.
// Exactly one handler type matches each response shape; Handle enforces the
// pairing at registration time.
type Handler interface {
	handler()
}

// JSONFunc produces the response body for a JSON-shaped endpoint. The
// returned value is validated against the declared body schema before it is
// sent.
type JSONFunc func(req Request) (any, error)

// EventsFunc writes an event stream for an event-shaped endpoint. Every
// frame is validated against the endpoint's event schemas as it is written.
type EventsFunc func(req Request, w *sse.Writer) error

// ItemsFunc writes an item stream for an item-shaped endpoint.
type ItemsFunc func(req Request, w *stream.ItemWriter) error

// BinaryFunc writes raw bytes for a binary-shaped endpoint.
type BinaryFunc func(req Request, w io.Writer) error

// SocketFunc drives one side of a socket conversation. It returns when the
// conversation is over; the connection closes when it does.
type SocketFunc func(req Request, conn *Conn) error

func (JSONFunc) handler()   {}
func (EventsFunc) handler() {}
func (ItemsFunc) handler()  {}
func (BinaryFunc) handler() {}
func (SocketFunc) handler() {}
