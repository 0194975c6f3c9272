package mock

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/weftworks/weft/pkg/endpoint"
	"github.com/weftworks/weft/pkg/socket"
	"github.com/weftworks/weft/pkg/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Conn is the server side of a socket conversation. Inbound frames from the
// client are validated against the endpoint's outbound schemas (what the
// client is allowed to send); Send validates against the inbound schemas
// (what the server is allowed to send) and stamps the discriminator field.
type Conn struct {
	shape endpoint.SocketShape
	pump  *socket.Pump
	ctrl  *socket.Controller
}

// Next returns the next unit received from the client. It follows the
// stream contract: (nil, nil) once the connection has closed.
func (c *Conn) Next() (stream.Unit, error) {
	return c.pump.Next()
}

// Send validates data against the schema declared for kind, stamps the
// discriminator field, and transmits the frame.
func (c *Conn) Send(kind string, data any) error {
	sch, ok := c.shape.Inbound[kind]
	if !ok {
		return fmt.Errorf("no schema registered for message type %q", kind)
	}

	payload, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("socket message %q must be an object", kind)
	}
	payload[c.shape.DiscriminatorField()] = kind

	validated, err := sch.Validate(payload)
	if err != nil {
		return fmt.Errorf("message %q rejected by schema: %w", kind, err)
	}

	return c.ctrl.Send(validated)
}

// Close performs a graceful close handshake.
func (c *Conn) Close() error {
	return c.ctrl.Close(websocket.CloseNormalClosure, "")
}

// ReadyState reports the connection's lifecycle state.
func (c *Conn) ReadyState() stream.State {
	return c.pump.State()
}

func (s *Server) serveSocket(c *fiber.Ctx, reg registration, req Request, h SocketFunc, startedAt time.Time) error {
	return adaptor.HTTPHandlerFunc(s.SocketHTTPHandler(reg.ep, h))(c)
}

// SocketHTTPHandler upgrades a request and drives the socket handler on the
// resulting connection. It is exported so socket endpoints can also be
// mounted on a net/http server, which some test setups prefer.
func (s *Server) SocketHTTPHandler(ep endpoint.Endpoint, h SocketFunc) http.HandlerFunc {
	shape, _ := ep.Shape.(endpoint.SocketShape)
	reg := registration{ep: ep, handler: h}

	return func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error("websocket upgrade failed",
				"method", ep.Method, "path", ep.Path, "error", err)
			return
		}

		pump := socket.NewPump(wsConn, shape.Outbound, shape.DiscriminatorField(), s.logger)
		conn := &Conn{
			shape: shape,
			pump:  pump,
			ctrl:  socket.NewController(pump),
		}

		req := Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			Query:      flattenQuery(r),
			Headers:    flattenHeader(r.Header),
			RemoteAddr: r.RemoteAddr,
		}

		if err := h(req, conn); err != nil {
			s.logger.Error("socket handler failed",
				"method", ep.Method, "path", ep.Path, "error", err)
		}
		_ = conn.Close()

		s.record(req.RemoteAddr, reg, startedAt, http.StatusSwitchingProtocols, 0)
	}
}

func flattenQuery(r *http.Request) map[string]string {
	q := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			q[key] = values[0]
		}
	}
	return q
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string)
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
