package sse_test

import (
	"bytes"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/weftworks/weft/pkg/schema"
	"github.com/weftworks/weft/pkg/sse"
	"github.com/weftworks/weft/pkg/stream"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes the full wire framing for a named event", func() {
		w := sse.NewWriter(buf, map[string]schema.Schema{"tick": schema.Any()})

		err := w.Write(sse.Frame{
			Event: "tick",
			Data:  map[string]any{"n": float64(1)},
			ID:    "7",
			Retry: 3 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(buf.String()).To(Equal("event: tick\nid: 7\nretry: 3000\ndata: {\"n\":1}\n\n"))
	})

	It("omits the event field for the default event name", func() {
		w := sse.NewWriter(buf, map[string]schema.Schema{"message": schema.Any()})

		Expect(w.Write(sse.Frame{Data: map[string]any{}})).To(Succeed())
		Expect(buf.String()).To(Equal("data: {}\n\n"))
	})

	It("rejects events with no registered schema", func() {
		w := sse.NewWriter(buf, map[string]schema.Schema{"tick": schema.Any()})

		err := w.Write(sse.Frame{Event: "tock", Data: map[string]any{}})
		Expect(err).To(MatchError(ContainSubstring(`no schema registered for event "tock"`)))
		Expect(buf.Len()).To(BeZero())
	})

	It("rejects data that fails validation before any bytes hit the wire", func() {
		w := sse.NewWriter(buf, map[string]schema.Schema{
			"tick": schema.Object(map[string]schema.Schema{"n": schema.Number()}, "n"),
		})

		err := w.Write(sse.Frame{Event: "tick", Data: map[string]any{"n": "NaN"}})
		Expect(err).To(MatchError(ContainSubstring("rejected by schema")))
		Expect(buf.Len()).To(BeZero())
		Expect(w.Count()).To(BeZero())
	})

	It("writes comment keep-alives", func() {
		w := sse.NewWriter(buf, nil)

		Expect(w.Comment("keep-alive")).To(Succeed())
		Expect(buf.String()).To(Equal(": keep-alive\n"))
	})

	It("round-trips events through the decoder", func() {
		events := map[string]schema.Schema{
			"tick": schema.Object(map[string]schema.Schema{"n": schema.Number()}, "n"),
			"note": schema.String(),
		}

		w := sse.NewWriter(buf, events)
		Expect(w.Write(sse.Frame{Event: "tick", Data: map[string]any{"n": float64(3)}, ID: "1"})).To(Succeed())
		Expect(w.Write(sse.Frame{Event: "note", Data: "all good"})).To(Succeed())
		Expect(w.Count()).To(Equal(2))

		d := sse.NewDecoder(io.NopCloser(buf), events)
		units, err := stream.Collect(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(units).To(HaveLen(2))

		tick := units[0].(stream.Event)
		Expect(tick.Name).To(Equal("tick"))
		Expect(tick.ID).To(Equal("1"))
		Expect(tick.Data).To(Equal(map[string]any{"n": float64(3)}))

		note := units[1].(stream.Event)
		Expect(note.Name).To(Equal("note"))
		Expect(note.Data).To(Equal("all good"))
	})
})
