package mock

import (
	"io"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/weftworks/weft/pkg/endpoint"
	"github.com/weftworks/weft/pkg/schema"
	"github.com/weftworks/weft/pkg/sse"
	"github.com/weftworks/weft/pkg/stream"
)

func (s *Server) serveJSON(c *fiber.Ctx, reg registration, req Request, h JSONFunc, startedAt time.Time) error {
	shape := reg.ep.Shape.(endpoint.JSONShape)

	v, err := h(req)
	if err != nil {
		s.logger.Error("handler failed", "method", req.Method, "path", req.Path, "error", err)
		s.record(req.RemoteAddr, reg, startedAt, fiber.StatusInternalServerError, 0)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	body, err := shape.Body.Validate(v)
	if err != nil {
		s.logger.Error("handler response rejected by schema",
			"method", req.Method, "path", req.Path, "error", err)
		s.record(req.RemoteAddr, reg, startedAt, fiber.StatusInternalServerError, 0)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	s.record(req.RemoteAddr, reg, startedAt, fiber.StatusOK, 0)
	return c.JSON(body)
}

// serveEvents streams an SSE response through an io.Pipe. pw.Write blocks
// until fasthttp's chunked writer consumes the data, so the handler sees
// real backpressure and events reach the client as they are written.
func (s *Server) serveEvents(c *fiber.Ctx, reg registration, req Request, h EventsFunc, startedAt time.Time) error {
	shape := reg.ep.Shape.(endpoint.EventShape)

	c.Set(fiber.HeaderContentType, sse.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache")

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		w := sse.NewWriter(pw, shape.Events)
		if err := h(req, w); err != nil {
			s.logger.Error("event handler failed",
				"method", req.Method, "path", req.Path, "error", err)
		}
		s.record(req.RemoteAddr, reg, startedAt, fiber.StatusOK, w.Count())
	}()

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) serveItems(c *fiber.Ctx, reg registration, req Request, h ItemsFunc, startedAt time.Time) error {
	shape := reg.ep.Shape.(endpoint.ItemShape)

	c.Set(fiber.HeaderContentType, stream.ContentTypeNDJSON)

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		w := stream.NewItemWriter(pw, shape.Item)
		if err := h(req, w); err != nil {
			s.logger.Error("item handler failed",
				"method", req.Method, "path", req.Path, "error", err)
		}
		s.record(req.RemoteAddr, reg, startedAt, fiber.StatusOK, w.Count())
	}()

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) serveBinary(c *fiber.Ctx, reg registration, req Request, h BinaryFunc, startedAt time.Time) error {
	shape := reg.ep.Shape.(endpoint.BinaryShape)

	contentType := shape.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		cw := &countingWriter{w: pw}
		if err := h(req, cw); err != nil {
			s.logger.Error("binary handler failed",
				"method", req.Method, "path", req.Path, "error", err)
		}
		s.record(req.RemoteAddr, reg, startedAt, fiber.StatusOK, cw.writes)
	}()

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

// countingWriter counts Write calls so binary responses report how many
// chunks they emitted.
type countingWriter struct {
	w      io.Writer
	writes int
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if err == nil && n > 0 {
		cw.writes++
	}
	return n, err
}

// serveFallback generates a minimal valid response for an endpoint that was
// registered without a handler: one sample unit per declared kind.
func (s *Server) serveFallback(c *fiber.Ctx, reg registration, req Request, startedAt time.Time) error {
	switch shape := reg.ep.Shape.(type) {
	case endpoint.JSONShape:
		return s.serveJSON(c, reg, req, func(Request) (any, error) {
			return schema.Sample(shape.Body), nil
		}, startedAt)

	case endpoint.EventShape:
		return s.serveEvents(c, reg, req, func(_ Request, w *sse.Writer) error {
			for _, name := range sortedNames(shape.Events) {
				if err := w.Write(sse.Frame{Event: name, Data: schema.Sample(shape.Events[name])}); err != nil {
					return err
				}
			}
			return nil
		}, startedAt)

	case endpoint.ItemShape:
		return s.serveItems(c, reg, req, func(_ Request, w *stream.ItemWriter) error {
			return w.Write(schema.Sample(shape.Item))
		}, startedAt)

	case endpoint.BinaryShape:
		return s.serveBinary(c, reg, req, func(_ Request, w io.Writer) error {
			_, err := w.Write([]byte{0})
			return err
		}, startedAt)

	case endpoint.SocketShape:
		return s.serveSocket(c, reg, req, func(_ Request, conn *Conn) error {
			for _, kind := range sortedNames(shape.Inbound) {
				if err := conn.Send(kind, schema.Sample(shape.Inbound[kind])); err != nil {
					return err
				}
			}
			return nil
		}, startedAt)

	default:
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "no fallback for this response shape",
		})
	}
}

// sortedNames keeps generated multi-kind output deterministic.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
