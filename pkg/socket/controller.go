package socket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weftworks/weft/pkg/stream"
)

const closeWriteTimeout = 5 * time.Second

// Controller is the outbound half of a socket endpoint. Sends are permitted
// only while the connection is open; anything else is a synchronous usage
// error naming the current state.
//
// The controller serializes writes internally — gorilla/websocket supports
// at most one concurrent writer per connection.
type Controller struct {
	pump *Pump

	mu sync.Mutex
}

// NewController pairs a controller with the pump that owns the connection.
func NewController(pump *Pump) *Controller {
	return &Controller{pump: pump}
}

// Send serializes v as a JSON text frame and transmits it.
func (c *Controller) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	return c.SendRaw(b)
}

// SendRaw transmits a pre-serialized text frame, bypassing serialization.
func (c *Controller) SendRaw(payload []byte) error {
	if st := c.pump.State(); st != stream.StateOpen {
		return fmt.Errorf("cannot send: socket is %s", st)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pump.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close requests a graceful close: a close control frame is sent and the
// transport is torn down. The pump's sequence ends with Status{closed}.
func (c *Controller) Close(code int, reason string) error {
	if code == 0 {
		code = websocket.CloseNormalClosure
	}

	c.mu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(closeWriteTimeout)
	// Best effort: the peer may already be gone.
	_ = c.pump.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	c.mu.Unlock()

	return c.pump.Close()
}

// ReadyState is a live passthrough of the connection state.
func (c *Controller) ReadyState() stream.State {
	return c.pump.State()
}
