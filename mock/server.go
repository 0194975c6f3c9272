// Package mock serves declared endpoints with scripted or generated
// responses. Each endpoint carries a response shape; handlers are validated
// against the shape at registration, responses are validated against the
// shape's schemas on the way out, and every exchange is recorded off the
// request hot path.
package mock

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/weftworks/weft/mock/record"
	"github.com/weftworks/weft/pkg/endpoint"
	"github.com/weftworks/weft/pkg/logger"
)

const introspectionPrefix = "/__weft"

// Config holds the mock server options.
type Config struct {
	// Listen is the address Run binds to, e.g. ":4040".
	Listen string

	// NoFallback disables generated responses for endpoints registered
	// without a handler; such endpoints answer 501 instead.
	NoFallback bool

	// Store persists recorded exchanges (defaults to in-memory).
	Store record.Store

	// Logger receives request and lifecycle logs.
	Logger *slog.Logger
}

type registration struct {
	ep      endpoint.Endpoint
	handler Handler
}

// Server is a mock API server driven by endpoint declarations.
type Server struct {
	config   Config
	app      *fiber.App
	logger   *slog.Logger
	store    record.Store
	recorder *record.Pool

	mu     sync.RWMutex
	routes map[string]registration
}

// New creates a mock server. Endpoints are registered afterwards with Handle;
// registration is safe while the server is running.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Store == nil {
		config.Store = record.NewInMemoryStore()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	s := &Server{
		config: config,
		app:    app,
		logger: config.Logger,
		store:  config.Store,
		recorder: record.NewPool(record.Config{
			Store:  config.Store,
			Logger: config.Logger,
		}),
		routes: make(map[string]registration),
	}

	app.Get(introspectionPrefix+"/ping", s.handlePing)
	app.Get(introspectionPrefix+"/requests", s.handleRequests)
	app.All("/*", s.dispatch)

	return s
}

// Handle registers an endpoint with its handler. A nil handler registers the
// endpoint for generated fallback responses. The handler type must match the
// endpoint's shape.
func (s *Server) Handle(ep endpoint.Endpoint, h Handler) error {
	if ep.Method == "" || ep.Path == "" {
		return fmt.Errorf("endpoint needs a method and path")
	}
	if ep.Shape == nil {
		return fmt.Errorf("endpoint %s %s has no response shape", ep.Method, ep.Path)
	}
	if h != nil {
		if err := checkHandler(ep.Shape, h); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[routeKey(ep.Method, ep.Path)] = registration{ep: ep, handler: h}
	return nil
}

// checkHandler rejects handler types that do not match the declared shape.
func checkHandler(shape endpoint.ResponseShape, h Handler) error {
	ok := false
	switch shape.(type) {
	case endpoint.JSONShape:
		_, ok = h.(JSONFunc)
	case endpoint.EventShape:
		_, ok = h.(EventsFunc)
	case endpoint.ItemShape:
		_, ok = h.(ItemsFunc)
	case endpoint.BinaryShape:
		_, ok = h.(BinaryFunc)
	case endpoint.SocketShape:
		_, ok = h.(SocketFunc)
	}
	if !ok {
		return fmt.Errorf("handler %T does not match response shape %T", h, shape)
	}
	return nil
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Run starts the server on the configured listen address.
func (s *Server) Run() error {
	s.logger.Info("starting mock server", "listen", s.config.Listen)
	return s.app.Listen(s.config.Listen)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting mock server", "listen", listener.Addr().String())
	return s.app.Listener(listener)
}

// Close shuts the server down and waits for pending recordings to drain.
func (s *Server) Close() error {
	err := s.app.Shutdown()
	s.recorder.Close()
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// App exposes the underlying fiber app, chiefly for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// dispatch resolves the route for the incoming request and serves it
// according to the endpoint's declared shape.
func (s *Server) dispatch(c *fiber.Ctx) error {
	s.mu.RLock()
	reg, ok := s.routes[routeKey(c.Method(), c.Path())]
	s.mu.RUnlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("no endpoint registered for %s %s", c.Method(), c.Path()),
		})
	}

	req := requestFromCtx(c)
	startedAt := time.Now()

	s.logger.Debug("dispatching request",
		"method", req.Method,
		"path", req.Path,
		"shape", shapeName(reg.ep.Shape),
	)

	if reg.handler == nil {
		if s.config.NoFallback {
			s.record(req.RemoteAddr, reg, startedAt, fiber.StatusNotImplemented, 0)
			return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
				"error": fmt.Sprintf("endpoint %s %s has no handler and fallback responses are disabled", req.Method, req.Path),
			})
		}
		return s.serveFallback(c, reg, req, startedAt)
	}

	switch h := reg.handler.(type) {
	case JSONFunc:
		return s.serveJSON(c, reg, req, h, startedAt)
	case EventsFunc:
		return s.serveEvents(c, reg, req, h, startedAt)
	case ItemsFunc:
		return s.serveItems(c, reg, req, h, startedAt)
	case BinaryFunc:
		return s.serveBinary(c, reg, req, h, startedAt)
	case SocketFunc:
		return s.serveSocket(c, reg, req, h, startedAt)
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("unsupported handler type %T", reg.handler),
		})
	}
}

// requestFromCtx copies the parts of the fiber context a handler may keep.
func requestFromCtx(c *fiber.Ctx) Request {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})

	body := make([]byte, len(c.Body()))
	copy(body, c.Body())

	return Request{
		Method:     c.Method(),
		Path:       c.Path(),
		Query:      c.Queries(),
		Headers:    headers,
		Body:       body,
		RemoteAddr: c.Context().RemoteAddr().String(),
	}
}

// record enqueues one exchange; a full queue drops it rather than blocking.
// The remote address is passed in rather than read from the fiber context
// because streaming responses record from a goroutine that may outlive the
// recycled request context.
func (s *Server) record(remoteAddr string, reg registration, startedAt time.Time, status, units int) {
	s.recorder.Enqueue(record.Exchange{
		ID:         uuid.New(),
		Method:     reg.ep.Method,
		Path:       reg.ep.Path,
		Status:     status,
		Shape:      shapeName(reg.ep.Shape),
		Units:      units,
		RemoteAddr: remoteAddr,
		StartedAt:  startedAt,
		DurationMs: time.Since(startedAt).Milliseconds(),
	})
}

func shapeName(shape endpoint.ResponseShape) string {
	switch shape.(type) {
	case endpoint.JSONShape:
		return "json"
	case endpoint.EventShape:
		return "events"
	case endpoint.ItemShape:
		return "items"
	case endpoint.BinaryShape:
		return "binary"
	case endpoint.SocketShape:
		return "socket"
	default:
		return "unknown"
	}
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleRequests lists recorded exchanges, optionally filtered by method,
// path, limit, and offset query parameters.
func (s *Server) handleRequests(c *fiber.Ctx) error {
	q := record.Query{
		Method: c.Query("method"),
		Path:   c.Query("path"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
		}
		q.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid offset"})
		}
		q.Offset = n
	}

	exchanges, err := s.store.List(c.Context(), q)
	if err != nil {
		s.logger.Error("listing recorded exchanges failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing requests failed"})
	}

	out := make([]fiber.Map, 0, len(exchanges))
	for _, ex := range exchanges {
		out = append(out, fiber.Map{
			"id":          ex.ID.String(),
			"method":      ex.Method,
			"path":        ex.Path,
			"status":      ex.Status,
			"shape":       ex.Shape,
			"units":       ex.Units,
			"remote_addr": ex.RemoteAddr,
			"started_at":  ex.StartedAt,
			"duration_ms": ex.DurationMs,
		})
	}

	return c.JSON(fiber.Map{"requests": out})
}
