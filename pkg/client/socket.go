package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/weftworks/weft/pkg/endpoint"
	"github.com/weftworks/weft/pkg/socket"
)

// SocketResult pairs the inbound unit sequence with the outbound controller
// for an open socket connection.
type SocketResult struct {
	Data       *socket.Pump
	Controller *socket.Controller
}

// DialSocket connects to a socket endpoint and returns the pump/controller
// pair. rawURL may use an http or https scheme; it is rewritten to the
// websocket equivalent. Dial failures are returned, not reported in-band.
func DialSocket(ctx context.Context, rawURL string, shape endpoint.SocketShape, log *slog.Logger) (*SocketResult, error) {
	wsURL, err := socketURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
	}

	pump := socket.NewPump(conn, shape.Inbound, shape.DiscriminatorField(), log)
	return &SocketResult{
		Data:       pump,
		Controller: socket.NewController(pump),
	}, nil
}

// socketURL rewrites http(s) schemes to their websocket equivalents.
func socketURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid socket URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported socket scheme %q", u.Scheme)
	}

	return u.String(), nil
}
