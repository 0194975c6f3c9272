package schema

// Sample synthesizes a representative value that validates against s.
// The mock server's fallback generator uses this to serve endpoints that
// have neither a registered callback nor fixture data.
func Sample(s Schema) any {
	switch sch := s.(type) {
	case stringSchema:
		return ""
	case numberSchema:
		return float64(0)
	case boolSchema:
		return false
	case enumSchema:
		if len(sch.values) == 0 {
			return ""
		}
		return sch.values[0]
	case objectSchema:
		out := make(map[string]any, len(sch.fields))
		for _, k := range sortedKeys(sch.fields) {
			out[k] = Sample(sch.fields[k])
		}
		return out
	case arraySchema:
		return []any{Sample(sch.elem)}
	case anySchema:
		return map[string]any{}
	default:
		// Typed and user-supplied schemas sample as an empty object; the
		// caller validates the result and surfaces a configuration error
		// if the schema rejects it.
		return map[string]any{}
	}
}
