package stream

// Stream is a forward-only, non-restartable cursor over decoded units.
//
// Next blocks until a unit is available and returns (nil, nil) when the
// stream has ended naturally. A non-nil error is always a transport-level
// failure; per-unit decode problems arrive as ParseError units instead.
//
// Close releases the underlying reader or connection. It is idempotent and
// safe to call at any point, including mid-iteration; abandoning a stream
// without draining it leaks nothing as long as Close is called.
type Stream interface {
	Next() (Unit, error)
	Close() error
}

// Collect drains s to completion and returns every yielded unit, closing
// the stream on all paths. Mostly useful in tests and short responses.
func Collect(s Stream) ([]Unit, error) {
	defer s.Close()

	var units []Unit
	for {
		u, err := s.Next()
		if err != nil {
			return units, err
		}
		if u == nil {
			return units, nil
		}
		units = append(units, u)
	}
}
