package stream_test

import (
	"bytes"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/weftworks/weft/pkg/schema"
	"github.com/weftworks/weft/pkg/stream"
)

var _ = Describe("NDJSONDecoder", func() {
	decode := func(input string, item schema.Schema) []stream.Unit {
		d := stream.NewNDJSONDecoder(io.NopCloser(strings.NewReader(input)), item)
		units, err := stream.Collect(d)
		Expect(err).NotTo(HaveOccurred())
		return units
	}

	It("yields one Item per line", func() {
		units := decode("{\"v\":1}\n{\"v\":2}\n", schema.Any())

		Expect(units).To(HaveLen(2))
		Expect(units[0].(stream.Item).Data).To(HaveKeyWithValue("v", float64(1)))
		Expect(units[1].(stream.Item).Data).To(HaveKeyWithValue("v", float64(2)))
	})

	It("continues past a malformed line, preserving order", func() {
		units := decode("{\"v\":1}\nnot json\n{\"v\":2}\n", schema.Any())

		Expect(units).To(HaveLen(3))
		Expect(units[0]).To(BeAssignableToTypeOf(stream.Item{}))
		Expect(units[1]).To(BeAssignableToTypeOf(stream.ParseError{}))
		Expect(units[2]).To(BeAssignableToTypeOf(stream.Item{}))

		perr := units[1].(stream.ParseError)
		Expect(perr.Raw).To(Equal("not json"))
		Expect(perr.Err).To(MatchError(ContainSubstring("invalid JSON line")))
	})

	It("yields ParseError for schema-rejected lines", func() {
		item := schema.Object(map[string]schema.Schema{"v": schema.Number()}, "v")
		units := decode("{\"v\":1}\n{\"other\":true}\n", item)

		Expect(units).To(HaveLen(2))
		Expect(units[1]).To(BeAssignableToTypeOf(stream.ParseError{}))
		Expect(units[1].(stream.ParseError).Err).To(MatchError(ContainSubstring("missing required field")))
	})

	It("skips blank lines entirely", func() {
		units := decode("{\"v\":1}\n\n   \n{\"v\":2}\n", schema.Any())

		Expect(units).To(HaveLen(2))
	})

	It("decodes a final unterminated line", func() {
		units := decode("{\"v\":1}", schema.Any())

		Expect(units).To(HaveLen(1))
		Expect(units[0].(stream.Item).Raw).To(Equal("{\"v\":1}"))
	})
})

var _ = Describe("ItemWriter", func() {
	It("writes validated items as NDJSON lines", func() {
		var buf bytes.Buffer
		w := stream.NewItemWriter(&buf, schema.Any())

		Expect(w.Write(map[string]any{"msg": "a"})).To(Succeed())
		Expect(w.Write(map[string]any{"msg": "b"})).To(Succeed())

		Expect(buf.String()).To(Equal("{\"msg\":\"a\"}\n{\"msg\":\"b\"}\n"))
		Expect(w.Count()).To(Equal(2))
	})

	It("rejects values that fail the schema before any bytes are written", func() {
		var buf bytes.Buffer
		item := schema.Object(map[string]schema.Schema{"msg": schema.String()}, "msg")
		w := stream.NewItemWriter(&buf, item)

		err := w.Write(map[string]any{"wrong": true})
		Expect(err).To(MatchError(ContainSubstring("rejected by schema")))
		Expect(buf.Len()).To(BeZero())
		Expect(w.Count()).To(BeZero())
	})

	It("round-trips values through the decoder", func() {
		item := schema.Object(map[string]schema.Schema{"n": schema.Number()}, "n")

		var buf bytes.Buffer
		w := stream.NewItemWriter(&buf, item)
		original := map[string]any{"n": float64(42), "tag": "x"}
		Expect(w.Write(original)).To(Succeed())

		d := stream.NewNDJSONDecoder(io.NopCloser(&buf), item)
		units, err := stream.Collect(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(units).To(HaveLen(1))
		Expect(units[0].(stream.Item).Data).To(Equal(original))
	})
})

var _ = Describe("BinaryDecoder", func() {
	It("yields raw chunks until end of stream", func() {
		d := stream.NewBinaryDecoder(newChunkedReader("hello world", 4))
		units, err := stream.Collect(d)
		Expect(err).NotTo(HaveOccurred())

		var got []byte
		for _, u := range units {
			got = append(got, u.(stream.Chunk).Bytes...)
		}
		Expect(string(got)).To(Equal("hello world"))
	})

	It("yields nothing for an empty stream", func() {
		d := stream.NewBinaryDecoder(io.NopCloser(strings.NewReader("")))
		units, err := stream.Collect(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(units).To(BeEmpty())
	})

	It("surfaces transport errors", func() {
		d := stream.NewBinaryDecoder(&failingReader{data: "partial"})

		u, err := d.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(u.(stream.Chunk).Bytes).To(Equal([]byte("partial")))

		_, err = d.Next()
		Expect(err).To(MatchError(ContainSubstring("connection reset")))
		Expect(d.Close()).To(Succeed())
	})
})
