// Package record captures the exchanges a mock server handles so tests can
// assert on what was actually requested. Persistence happens off the request
// hot path through an asynchronous worker pool, so recording never slows a
// streaming response down.
package record

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Exchange is one recorded request/response pair. Units counts the stream
// units emitted for streaming shapes; for plain JSON responses it is zero.
type Exchange struct {
	ID         uuid.UUID
	Method     string
	Path       string
	Status     int
	Shape      string
	Units      int
	RemoteAddr string
	StartedAt  time.Time
	DurationMs int64
}

// Query narrows a List call. Zero-value fields match everything; Limit of
// zero means no limit.
type Query struct {
	Method string
	Path   string
	Limit  int
	Offset int
}

// Store persists exchanges. Implementations must be safe for concurrent use.
type Store interface {
	// Put appends one exchange.
	Put(ctx context.Context, ex Exchange) error

	// List returns recorded exchanges in insertion order, filtered by q.
	List(ctx context.Context, q Query) ([]Exchange, error)

	// Close releases the backing resources.
	Close() error
}
