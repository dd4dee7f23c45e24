package orders

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryStore keeps orders in process memory. Each order has its own lock so
// writes to different orders never contend.
type MemoryStore struct {
	entries sync.Map // order id -> *entry
}

type entry struct {
	mu    sync.Mutex
	order Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(ctx context.Context, o Order) error {
	if _, loaded := s.entries.LoadOrStore(o.ID, &entry{order: o}); loaded {
		return ErrDuplicateOrder
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, orderID string) (*Order, error) {
	v, ok := s.entries.Load(orderID)
	if !ok {
		return nil, nil
	}
	e := v.(*entry)
	e.mu.Lock()
	o := e.order
	e.mu.Unlock()
	return &o, nil
}

func (s *MemoryStore) Update(ctx context.Context, o Order, expectedVersion int64) error {
	v, ok := s.entries.Load(o.ID)
	if !ok {
		return ErrNotFound
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.order.Version != expectedVersion {
		return ErrVersionConflict
	}
	e.order = o
	return nil
}

func (s *MemoryStore) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.list(func(o *Order) bool { return o.CustomerID == customerID }), nil
}

func (s *MemoryStore) ListBySeller(ctx context.Context, sellerID string) ([]Order, error) {
	return s.list(func(o *Order) bool { return o.SellerID == sellerID }), nil
}

func (s *MemoryStore) list(match func(*Order) bool) []Order {
	var out []Order
	s.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if match(&e.order) {
			out = append(out, e.order)
		}
		e.mu.Unlock()
		return true
	})
	SortNewestFirst(out)
	return out
}

// MemorySequence is an in-process Sequence.
type MemorySequence struct {
	n atomic.Int64
}

// NewMemorySequence returns a sequence whose first value is start.
func NewMemorySequence(start int64) *MemorySequence {
	s := &MemorySequence{}
	s.n.Store(start - 1)
	return s
}

func (s *MemorySequence) Next(ctx context.Context) (int64, error) {
	return s.n.Add(1), nil
}
