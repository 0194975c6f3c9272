// Package schema provides the per-unit validator capability used by the
// stream decoders and emitters. Schemas are opaque to the protocol layer:
// decoders hand a structured value to Validate and receive either a cleaned
// value or a validation error. The only structural inspection the protocol
// layer performs is IsString, which gates the SSE non-JSON string fallback.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Schema validates a structured value (the result of a JSON parse, or a raw
// string for plain-string payloads) and returns the value to hand to the
// consumer. Implementations must be safe for concurrent use.
type Schema interface {
	Validate(v any) (any, error)
}

// IsString reports whether s is exactly the plain string schema. The SSE
// decoder uses this to treat a non-JSON payload as a bare string value.
// Enums of strings deliberately do not qualify.
func IsString(s Schema) bool {
	_, ok := s.(stringSchema)
	return ok
}

// Any accepts every value unchanged.
func Any() Schema { return anySchema{} }

type anySchema struct{}

func (anySchema) Validate(v any) (any, error) { return v, nil }

// String accepts string values.
func String() Schema { return stringSchema{} }

type stringSchema struct{}

func (stringSchema) Validate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

// Number accepts JSON numbers.
func Number() Schema { return numberSchema{} }

type numberSchema struct{}

func (numberSchema) Validate(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", n.String(), err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected number, got %T", v)
	}
}

// Bool accepts booleans.
func Bool() Schema { return boolSchema{} }

type boolSchema struct{}

func (boolSchema) Validate(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

// Enum accepts any of the given string values.
func Enum(values ...string) Schema { return enumSchema{values: values} }

type enumSchema struct {
	values []string
}

func (e enumSchema) Validate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string enum, got %T", v)
	}
	for _, allowed := range e.values {
		if s == allowed {
			return s, nil
		}
	}
	return nil, fmt.Errorf("value %q not in enum %v", s, e.values)
}

// Object validates a JSON object. Declared fields are validated by their
// schemas; required fields must be present; undeclared fields pass through
// untouched.
func Object(fields map[string]Schema, required ...string) Schema {
	return objectSchema{fields: fields, required: required}
}

type objectSchema struct {
	fields   map[string]Schema
	required []string
}

func (o objectSchema) Validate(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	for _, name := range o.required {
		if _, present := m[name]; !present {
			return nil, fmt.Errorf("missing required field %q", name)
		}
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		sch, declared := o.fields[k]
		if !declared {
			out[k] = val
			continue
		}
		cleaned, err := sch.Validate(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = cleaned
	}
	return out, nil
}

// Array validates a JSON array whose elements all match elem.
func Array(elem Schema) Schema { return arraySchema{elem: elem} }

type arraySchema struct {
	elem Schema
}

func (a arraySchema) Validate(v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]any, len(items))
	for i, item := range items {
		cleaned, err := a.elem.Validate(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = cleaned
	}
	return out, nil
}

// Of builds a schema that decodes values into the concrete type T by
// round-tripping through encoding/json. Useful when the caller wants typed
// data out of a stream instead of map[string]any.
func Of[T any]() Schema { return ofSchema[T]{} }

type ofSchema[T any] struct{}

func (ofSchema[T]) Validate(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value not representable as JSON: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("value does not match %T: %w", out, err)
	}
	return out, nil
}

// sortedKeys returns the field names of an object schema in stable order.
func sortedKeys(fields map[string]Schema) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
