package record_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/weftworks/weft/mock/record"
)

func newExchange(method, path string, status int) record.Exchange {
	return record.Exchange{
		ID:         uuid.New(),
		Method:     method,
		Path:       path,
		Status:     status,
		Shape:      "events",
		Units:      3,
		RemoteAddr: "127.0.0.1:54321",
		StartedAt:  time.Now().UTC().Truncate(time.Millisecond),
		DurationMs: 12,
	}
}

// storeTests exercises the Store contract against any backend.
func storeTests(open func() record.Store) {
	var (
		ctx   context.Context
		store record.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = open()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("lists exchanges in insertion order", func() {
		first := newExchange(http.MethodGet, "/a", 200)
		second := newExchange(http.MethodPost, "/b", 201)
		Expect(store.Put(ctx, first)).To(Succeed())
		Expect(store.Put(ctx, second)).To(Succeed())

		got, err := store.List(ctx, record.Query{})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(got[0].ID).To(Equal(first.ID))
		Expect(got[1].ID).To(Equal(second.ID))
		Expect(got[1].Status).To(Equal(201))
		Expect(got[1].Units).To(Equal(3))
	})

	It("filters by method and path", func() {
		Expect(store.Put(ctx, newExchange(http.MethodGet, "/a", 200))).To(Succeed())
		Expect(store.Put(ctx, newExchange(http.MethodPost, "/a", 200))).To(Succeed())
		Expect(store.Put(ctx, newExchange(http.MethodGet, "/b", 200))).To(Succeed())

		got, err := store.List(ctx, record.Query{Method: http.MethodGet, Path: "/a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Path).To(Equal("/a"))
	})

	It("applies limit and offset", func() {
		for range 5 {
			Expect(store.Put(ctx, newExchange(http.MethodGet, "/a", 200))).To(Succeed())
		}

		got, err := store.List(ctx, record.Query{Limit: 2, Offset: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))

		rest, err := store.List(ctx, record.Query{Offset: 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(rest).To(HaveLen(1))
	})
}

var _ = Describe("InMemoryStore", func() {
	storeTests(func() record.Store {
		return record.NewInMemoryStore()
	})
})

var _ = Describe("SQLiteStore", func() {
	storeTests(func() record.Store {
		store, err := record.NewSQLiteStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return store
	})
})

// stallingStore blocks every Put until release is closed.
type stallingStore struct {
	release chan struct{}

	mu      sync.Mutex
	started bool
}

func (s *stallingStore) Put(context.Context, record.Exchange) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	<-s.release
	return nil
}

func (s *stallingStore) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *stallingStore) List(context.Context, record.Query) ([]record.Exchange, error) {
	return nil, nil
}

func (s *stallingStore) Close() error { return nil }

var _ = Describe("Pool", func() {
	It("persists enqueued exchanges before Close returns", func() {
		store := record.NewInMemoryStore()
		pool := record.NewPool(record.Config{Store: store})

		for range 10 {
			Expect(pool.Enqueue(newExchange(http.MethodGet, "/a", 200))).To(BeTrue())
		}
		pool.Close()

		got, err := store.List(context.Background(), record.Query{})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(10))
	})

	It("drops exchanges instead of blocking when the queue is full", func() {
		store := &stallingStore{release: make(chan struct{})}
		pool := record.NewPool(record.Config{Store: store, NumWorkers: 1, QueueSize: 1})

		// First exchange occupies the worker, second fills the queue; with
		// both stuck, further enqueues must drop rather than block.
		Expect(pool.Enqueue(newExchange(http.MethodGet, "/a", 200))).To(BeTrue())
		Eventually(store.Started).Should(BeTrue())
		Expect(pool.Enqueue(newExchange(http.MethodGet, "/a", 200))).To(BeTrue())
		Expect(pool.Enqueue(newExchange(http.MethodGet, "/a", 200))).To(BeFalse())

		close(store.release)
		pool.Close()
	})
})
