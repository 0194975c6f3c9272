package record

import (
	"context"
	"log/slog"
	"sync"

	"github.com/weftworks/weft/pkg/logger"
)

var (
	defaultNumWorkers uint = 2
	defaultQueueSize  uint = 256
)

// Config holds the recording pool options.
type Config struct {
	// Store is the backend exchanges are persisted to.
	Store Store

	// NumWorkers is the number of background workers (defaults to 2).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger receives drop and failure reports.
	Logger *slog.Logger
}

// Pool persists exchanges asynchronously so recording stays off the request
// hot path. A full queue drops the exchange rather than blocking a handler.
type Pool struct {
	store  Store
	queue  chan Exchange
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool starts the worker goroutines.
func NewPool(c Config) *Pool {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	p := &Pool{
		store:  c.Store,
		queue:  make(chan Exchange, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p
}

// Enqueue submits an exchange for persistence. Returns true if enqueued,
// false if the queue was full and the exchange was dropped.
func (p *Pool) Enqueue(ex Exchange) bool {
	select {
	case p.queue <- ex:
		return true
	default:
		p.logger.Error("recording queue full, exchange dropped",
			"method", ex.Method,
			"path", ex.Path,
		)
		return false
	}
}

// Close stops accepting exchanges and waits for in-flight persists to drain.
// Call during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("recording worker started", "worker_id", id)

	for ex := range p.queue {
		if err := p.store.Put(context.Background(), ex); err != nil {
			p.logger.Error("recording exchange failed",
				"method", ex.Method,
				"path", ex.Path,
				"error", err,
			)
		}
	}

	p.logger.Debug("recording worker stopped", "worker_id", id)
}
