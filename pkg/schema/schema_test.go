package schema_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/weftworks/weft/pkg/schema"
)

var _ = Describe("Schema", func() {
	Describe("String", func() {
		It("accepts strings", func() {
			v, err := schema.String().Validate("hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("hello"))
		})

		It("rejects non-strings", func() {
			_, err := schema.String().Validate(float64(3))
			Expect(err).To(MatchError(ContainSubstring("expected string")))
		})
	})

	Describe("Number", func() {
		It("accepts JSON numbers", func() {
			v, err := schema.Number().Validate(float64(3.5))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(3.5))
		})

		It("rejects strings", func() {
			_, err := schema.Number().Validate("3.5")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Bool", func() {
		It("accepts booleans", func() {
			v, err := schema.Bool().Validate(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(true))
		})
	})

	Describe("Enum", func() {
		It("accepts declared values", func() {
			v, err := schema.Enum("a", "b").Validate("b")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("b"))
		})

		It("rejects undeclared values", func() {
			_, err := schema.Enum("a", "b").Validate("c")
			Expect(err).To(MatchError(ContainSubstring("not in enum")))
		})
	})

	Describe("Object", func() {
		var s schema.Schema

		BeforeEach(func() {
			s = schema.Object(map[string]schema.Schema{
				"name":  schema.String(),
				"count": schema.Number(),
			}, "name")
		})

		It("accepts valid objects", func() {
			v, err := s.Validate(map[string]any{"name": "x", "count": float64(2)})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(HaveKeyWithValue("name", "x"))
		})

		It("enforces required fields", func() {
			_, err := s.Validate(map[string]any{"count": float64(2)})
			Expect(err).To(MatchError(ContainSubstring(`missing required field "name"`)))
		})

		It("validates declared field values", func() {
			_, err := s.Validate(map[string]any{"name": float64(1)})
			Expect(err).To(MatchError(ContainSubstring(`field "name"`)))
		})

		It("passes undeclared fields through", func() {
			v, err := s.Validate(map[string]any{"name": "x", "extra": "kept"})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(HaveKeyWithValue("extra", "kept"))
		})
	})

	Describe("Array", func() {
		It("validates every element", func() {
			s := schema.Array(schema.String())
			_, err := s.Validate([]any{"a", float64(1)})
			Expect(err).To(MatchError(ContainSubstring("index 1")))
		})
	})

	Describe("Of", func() {
		type point struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		}

		It("decodes into the concrete type", func() {
			v, err := schema.Of[point]().Validate(map[string]any{"x": float64(1), "y": float64(2)})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(point{X: 1, Y: 2}))
		})

		It("rejects mismatched shapes", func() {
			_, err := schema.Of[point]().Validate(map[string]any{"x": "not a number"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("IsString", func() {
		It("is true only for the plain string schema", func() {
			Expect(schema.IsString(schema.String())).To(BeTrue())
			Expect(schema.IsString(schema.Enum("a"))).To(BeFalse())
			Expect(schema.IsString(schema.Any())).To(BeFalse())
		})
	})

	Describe("Sample", func() {
		It("produces values that validate against their schema", func() {
			schemas := []schema.Schema{
				schema.String(),
				schema.Number(),
				schema.Bool(),
				schema.Enum("up", "down"),
				schema.Array(schema.String()),
				schema.Object(map[string]schema.Schema{"id": schema.String()}, "id"),
				schema.Any(),
			}
			for _, s := range schemas {
				_, err := s.Validate(schema.Sample(s))
				Expect(err).NotTo(HaveOccurred())
			}
		})
	})
})
